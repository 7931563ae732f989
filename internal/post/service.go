// Package post はコミュニティ投稿とコメントのドメインロジックを提供する。
package post

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hitoshi/readingclub/internal/model"
	"github.com/hitoshi/readingclub/internal/repository"
	"github.com/hitoshi/readingclub/internal/security"
)

const maxTitleLength = 200

// Input は投稿の作成・更新内容を表す。
type Input struct {
	PostType   model.PostType
	Title      string
	Content    string
	BookTitle  string
	BookAuthor string
	BookISBN   string
}

// Service はコミュニティ投稿のサービス層。
type Service struct {
	postRepo    repository.PostRepository
	commentRepo repository.CommentRepository
	sanitizer   security.ContentSanitizerService
	now         func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	postRepo repository.PostRepository,
	commentRepo repository.CommentRepository,
	sanitizer security.ContentSanitizerService,
) *Service {
	return &Service{
		postRepo:    postRepo,
		commentRepo: commentRepo,
		sanitizer:   sanitizer,
		now:         time.Now,
	}
}

// --- 投稿 ---

// List は投稿一覧を返す。postType・searchによる絞り込みに対応する。
func (s *Service) List(ctx context.Context, postType model.PostType, search string, page model.PageRequest) ([]*model.Post, int64, error) {
	if postType != "" && !postType.IsValid() {
		return nil, 0, model.NewValidationError("投稿種別が不正です。")
	}

	posts, total, err := s.postRepo.List(ctx, postType, strings.TrimSpace(search), page)
	if err != nil {
		return nil, 0, fmt.Errorf("投稿一覧の取得に失敗しました: %w", err)
	}
	return posts, total, nil
}

// ListMine はユーザー自身の投稿一覧を返す。
func (s *Service) ListMine(ctx context.Context, userID int64, page model.PageRequest) ([]*model.Post, int64, error) {
	posts, total, err := s.postRepo.ListByUserID(ctx, userID, page)
	if err != nil {
		return nil, 0, fmt.Errorf("投稿一覧の取得に失敗しました: %w", err)
	}
	return posts, total, nil
}

// Get は指定IDの投稿を取得する。
func (s *Service) Get(ctx context.Context, postID int64) (*model.Post, error) {
	return s.findPost(ctx, postID)
}

// Create は投稿を作成する。
func (s *Service) Create(ctx context.Context, userID int64, input Input) (*model.Post, error) {
	if err := s.validate(&input); err != nil {
		return nil, err
	}

	now := s.now()
	post := &model.Post{
		UserID:     userID,
		PostType:   input.PostType,
		Title:      input.Title,
		Content:    input.Content,
		BookTitle:  input.BookTitle,
		BookAuthor: input.BookAuthor,
		BookISBN:   input.BookISBN,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, fmt.Errorf("投稿の作成に失敗しました: %w", err)
	}

	return post, nil
}

// Update は投稿を更新する。投稿者本人のみ実行できる。
func (s *Service) Update(ctx context.Context, userID, postID int64, input Input) (*model.Post, error) {
	post, err := s.findOwnedPost(ctx, userID, postID)
	if err != nil {
		return nil, err
	}
	if err := s.validate(&input); err != nil {
		return nil, err
	}

	post.PostType = input.PostType
	post.Title = input.Title
	post.Content = input.Content
	post.BookTitle = input.BookTitle
	post.BookAuthor = input.BookAuthor
	post.BookISBN = input.BookISBN
	post.UpdatedAt = s.now()

	if err := s.postRepo.Update(ctx, post); err != nil {
		return nil, fmt.Errorf("投稿の更新に失敗しました: %w", err)
	}

	return post, nil
}

// Delete は投稿を削除する。投稿者本人のみ実行でき、コメントもCASCADE削除される。
func (s *Service) Delete(ctx context.Context, userID, postID int64) error {
	if _, err := s.findOwnedPost(ctx, userID, postID); err != nil {
		return err
	}

	if err := s.postRepo.DeleteByID(ctx, postID); err != nil {
		return fmt.Errorf("投稿の削除に失敗しました: %w", err)
	}

	return nil
}

// --- コメント ---

// ListComments は投稿のコメント一覧を返す。
func (s *Service) ListComments(ctx context.Context, postID int64) ([]*model.Comment, error) {
	if _, err := s.findPost(ctx, postID); err != nil {
		return nil, err
	}

	comments, err := s.commentRepo.ListByPostID(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("コメント一覧の取得に失敗しました: %w", err)
	}
	return comments, nil
}

// ListReplies は指定コメントへの返信一覧を返す。
func (s *Service) ListReplies(ctx context.Context, commentID int64) ([]*model.Comment, error) {
	if _, err := s.findComment(ctx, commentID); err != nil {
		return nil, err
	}

	replies, err := s.commentRepo.ListRepliesByParentID(ctx, commentID)
	if err != nil {
		return nil, fmt.Errorf("返信一覧の取得に失敗しました: %w", err)
	}
	return replies, nil
}

// CreateComment は投稿にコメントを追加する。
// parentCommentIDを指定した場合、親コメントは同一投稿に属していなければならない。
// 返信への返信（2段以上のネスト）は作成できない。
func (s *Service) CreateComment(ctx context.Context, userID, postID int64, parentCommentID *int64, content string) (*model.Comment, error) {
	if _, err := s.findPost(ctx, postID); err != nil {
		return nil, err
	}

	content = s.sanitizer.Sanitize(content)
	if strings.TrimSpace(content) == "" {
		return nil, model.NewValidationError("コメントを入力してください。")
	}

	if parentCommentID != nil {
		parent, err := s.findComment(ctx, *parentCommentID)
		if err != nil {
			return nil, err
		}
		if parent.PostID != postID {
			return nil, model.NewValidationError("親コメントは同じ投稿のものを指定してください。")
		}
		if parent.ParentCommentID != nil {
			return nil, model.NewValidationError("返信へのさらなる返信はできません。")
		}
	}

	now := s.now()
	comment := &model.Comment{
		PostID:          postID,
		UserID:          userID,
		ParentCommentID: parentCommentID,
		Content:         content,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, fmt.Errorf("コメントの作成に失敗しました: %w", err)
	}

	return comment, nil
}

// UpdateComment はコメントの本文を更新する。投稿者本人のみ実行できる。
func (s *Service) UpdateComment(ctx context.Context, userID, commentID int64, content string) (*model.Comment, error) {
	comment, err := s.findOwnedComment(ctx, userID, commentID)
	if err != nil {
		return nil, err
	}

	content = s.sanitizer.Sanitize(content)
	if strings.TrimSpace(content) == "" {
		return nil, model.NewValidationError("コメントを入力してください。")
	}

	comment.Content = content
	comment.UpdatedAt = s.now()

	if err := s.commentRepo.Update(ctx, comment); err != nil {
		return nil, fmt.Errorf("コメントの更新に失敗しました: %w", err)
	}

	return comment, nil
}

// DeleteComment はコメントを削除する。投稿者本人のみ実行でき、返信もCASCADE削除される。
func (s *Service) DeleteComment(ctx context.Context, userID, commentID int64) error {
	if _, err := s.findOwnedComment(ctx, userID, commentID); err != nil {
		return err
	}

	if err := s.commentRepo.DeleteByID(ctx, commentID); err != nil {
		return fmt.Errorf("コメントの削除に失敗しました: %w", err)
	}

	return nil
}

// --- 内部ヘルパー ---

func (s *Service) findPost(ctx context.Context, postID int64) (*model.Post, error) {
	post, err := s.postRepo.FindByID(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("投稿の取得に失敗しました: %w", err)
	}
	if post == nil {
		return nil, model.NewNotFoundError(model.ErrCodePostNotFound, postID)
	}
	return post, nil
}

func (s *Service) findOwnedPost(ctx context.Context, userID, postID int64) (*model.Post, error) {
	post, err := s.findPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post.UserID != userID {
		return nil, model.NewForbiddenError()
	}
	return post, nil
}

func (s *Service) findComment(ctx context.Context, commentID int64) (*model.Comment, error) {
	comment, err := s.commentRepo.FindByID(ctx, commentID)
	if err != nil {
		return nil, fmt.Errorf("コメントの取得に失敗しました: %w", err)
	}
	if comment == nil {
		return nil, model.NewNotFoundError(model.ErrCodeCommentNotFound, commentID)
	}
	return comment, nil
}

func (s *Service) findOwnedComment(ctx context.Context, userID, commentID int64) (*model.Comment, error) {
	comment, err := s.findComment(ctx, commentID)
	if err != nil {
		return nil, err
	}
	if comment.UserID != userID {
		return nil, model.NewForbiddenError()
	}
	return comment, nil
}

func (s *Service) validate(input *Input) error {
	input.Title = strings.TrimSpace(s.sanitizer.SanitizeStrict(input.Title))
	input.Content = s.sanitizer.Sanitize(input.Content)
	input.BookTitle = strings.TrimSpace(s.sanitizer.SanitizeStrict(input.BookTitle))
	input.BookAuthor = strings.TrimSpace(s.sanitizer.SanitizeStrict(input.BookAuthor))
	input.BookISBN = strings.TrimSpace(input.BookISBN)

	if !input.PostType.IsValid() {
		return model.NewValidationError("投稿種別が不正です。")
	}
	if input.Title == "" {
		return model.NewValidationError("タイトルを入力してください。")
	}
	if len([]rune(input.Title)) > maxTitleLength {
		return model.NewValidationError(fmt.Sprintf("タイトルは%d文字以内で入力してください。", maxTitleLength))
	}
	if strings.TrimSpace(input.Content) == "" {
		return model.NewValidationError("本文を入力してください。")
	}
	if input.PostType == model.PostTypeReview && input.BookTitle == "" {
		return model.NewValidationError("感想投稿には本のタイトルが必要です。")
	}

	return nil
}
