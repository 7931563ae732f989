// Package book は読了本（本棚）管理のドメインロジックを提供する。
package book

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hitoshi/readingclub/internal/model"
	"github.com/hitoshi/readingclub/internal/repository"
	"github.com/hitoshi/readingclub/internal/security"
)

// Input は読了本の登録・更新内容を表す。
type Input struct {
	Title        string
	Author       string
	CoverImage   string
	Rating       int
	Review       string
	FinishedDate time.Time
}

// Service は読了本管理のサービス層。
// 一覧・登録・更新・削除と月別統計、重複チェックを提供する。
type Service struct {
	bookRepo  repository.BookRepository
	sanitizer security.ContentSanitizerService
	guard     security.URLGuardService
	now       func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	bookRepo repository.BookRepository,
	sanitizer security.ContentSanitizerService,
	guard security.URLGuardService,
) *Service {
	return &Service{
		bookRepo:  bookRepo,
		sanitizer: sanitizer,
		guard:     guard,
		now:       time.Now,
	}
}

// List はユーザーの読了本一覧を返す。
// searchはタイトル・著者の部分一致、sortは"rating"で評価降順。
func (s *Service) List(ctx context.Context, userID int64, search, sort string, page model.PageRequest) ([]*model.Book, int64, error) {
	books, total, err := s.bookRepo.SearchByUserID(ctx, userID, search, sort, page)
	if err != nil {
		return nil, 0, fmt.Errorf("読了本一覧の取得に失敗しました: %w", err)
	}
	return books, total, nil
}

// Get は指定IDの読了本を取得する。所有者以外のアクセスはFORBIDDEN。
func (s *Service) Get(ctx context.Context, userID, bookID int64) (*model.Book, error) {
	return s.findOwned(ctx, userID, bookID)
}

// Create は読了本を登録する。
func (s *Service) Create(ctx context.Context, userID int64, input Input) (*model.Book, error) {
	if err := s.validate(&input); err != nil {
		return nil, err
	}

	now := s.now()
	book := &model.Book{
		UserID:       userID,
		Title:        input.Title,
		Author:       input.Author,
		CoverImage:   input.CoverImage,
		Rating:       input.Rating,
		Review:       input.Review,
		FinishedDate: input.FinishedDate,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.bookRepo.Create(ctx, book); err != nil {
		return nil, fmt.Errorf("読了本の登録に失敗しました: %w", err)
	}

	return book, nil
}

// Update は読了本の情報を更新する。所有者以外の更新はFORBIDDEN。
func (s *Service) Update(ctx context.Context, userID, bookID int64, input Input) (*model.Book, error) {
	book, err := s.findOwned(ctx, userID, bookID)
	if err != nil {
		return nil, err
	}

	if err := s.validate(&input); err != nil {
		return nil, err
	}

	book.Title = input.Title
	book.Author = input.Author
	book.CoverImage = input.CoverImage
	book.Rating = input.Rating
	book.Review = input.Review
	book.FinishedDate = input.FinishedDate
	book.UpdatedAt = s.now()

	if err := s.bookRepo.Update(ctx, book); err != nil {
		return nil, fmt.Errorf("読了本の更新に失敗しました: %w", err)
	}

	return book, nil
}

// Delete は読了本を削除する。所有者以外の削除はFORBIDDEN。
func (s *Service) Delete(ctx context.Context, userID, bookID int64) error {
	if _, err := s.findOwned(ctx, userID, bookID); err != nil {
		return err
	}

	if err := s.bookRepo.DeleteByID(ctx, bookID); err != nil {
		return fmt.Errorf("読了本の削除に失敗しました: %w", err)
	}

	return nil
}

// MonthlyStatistics は指定年の月別読了数・平均評価を返す。
// yearが0の場合は現在の年を対象とする。
func (s *Service) MonthlyStatistics(ctx context.Context, userID int64, year int) ([]model.MonthlyStats, error) {
	if year == 0 {
		year = s.now().Year()
	}
	stats, err := s.bookRepo.MonthlyStatsByUserID(ctx, userID, year)
	if err != nil {
		return nil, fmt.Errorf("月別統計の取得に失敗しました: %w", err)
	}
	return stats, nil
}

// CheckDuplicate は同タイトル・同著者の本が登録済みかを返す。
func (s *Service) CheckDuplicate(ctx context.Context, userID int64, title, author string) (bool, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return false, model.NewValidationError("タイトルを入力してください。")
	}
	exists, err := s.bookRepo.ExistsByUserAndTitle(ctx, userID, title, strings.TrimSpace(author))
	if err != nil {
		return false, fmt.Errorf("重複チェックに失敗しました: %w", err)
	}
	return exists, nil
}

// findOwned は本を取得し所有者を検証する。
func (s *Service) findOwned(ctx context.Context, userID, bookID int64) (*model.Book, error) {
	book, err := s.bookRepo.FindByID(ctx, bookID)
	if err != nil {
		return nil, fmt.Errorf("読了本の取得に失敗しました: %w", err)
	}
	if book == nil {
		return nil, model.NewNotFoundError(model.ErrCodeBookNotFound, bookID)
	}
	if book.UserID != userID {
		return nil, model.NewForbiddenError()
	}
	return book, nil
}

// validate は入力値を検証し、サニタイズ結果を書き戻す。
func (s *Service) validate(input *Input) error {
	input.Title = strings.TrimSpace(s.sanitizer.SanitizeStrict(input.Title))
	input.Author = strings.TrimSpace(s.sanitizer.SanitizeStrict(input.Author))
	input.Review = s.sanitizer.Sanitize(input.Review)

	if input.Title == "" {
		return model.NewValidationError("タイトルを入力してください。")
	}
	if input.Rating < 1 || input.Rating > 5 {
		return model.NewValidationError("評価は1から5の間で入力してください。")
	}
	if input.FinishedDate.IsZero() {
		return model.NewValidationError("読了日を入力してください。")
	}
	if input.CoverImage != "" {
		if err := s.guard.ValidateImageURL(input.CoverImage); err != nil {
			return model.NewValidationError("表紙画像のURLが不正です。")
		}
	}
	return nil
}
