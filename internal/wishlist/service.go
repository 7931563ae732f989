// Package wishlist は読みたい本リスト管理のドメインロジックを提供する。
package wishlist

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hitoshi/readingclub/internal/model"
	"github.com/hitoshi/readingclub/internal/repository"
	"github.com/hitoshi/readingclub/internal/security"
)

// Input は読みたい本の登録・更新内容を表す。
type Input struct {
	Title      string
	Author     string
	CoverImage string
	Priority   int
	Memo       string
}

// Service は読みたい本リスト管理のサービス層。
type Service struct {
	wishlistRepo repository.WishlistRepository
	sanitizer    security.ContentSanitizerService
	guard        security.URLGuardService
	now          func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	wishlistRepo repository.WishlistRepository,
	sanitizer security.ContentSanitizerService,
	guard security.URLGuardService,
) *Service {
	return &Service{
		wishlistRepo: wishlistRepo,
		sanitizer:    sanitizer,
		guard:        guard,
		now:          time.Now,
	}
}

// List はユーザーの読みたい本一覧を優先度降順で返す。
func (s *Service) List(ctx context.Context, userID int64, page model.PageRequest) ([]*model.Wishlist, int64, error) {
	items, total, err := s.wishlistRepo.ListByUserID(ctx, userID, page)
	if err != nil {
		return nil, 0, fmt.Errorf("読みたい本一覧の取得に失敗しました: %w", err)
	}
	return items, total, nil
}

// Get は指定IDの読みたい本を取得する。所有者以外のアクセスはFORBIDDEN。
func (s *Service) Get(ctx context.Context, userID, wishlistID int64) (*model.Wishlist, error) {
	return s.findOwned(ctx, userID, wishlistID)
}

// Create は読みたい本を登録する。優先度未指定（0）の場合は3になる。
func (s *Service) Create(ctx context.Context, userID int64, input Input) (*model.Wishlist, error) {
	if err := s.validate(&input); err != nil {
		return nil, err
	}

	now := s.now()
	item := &model.Wishlist{
		UserID:     userID,
		Title:      input.Title,
		Author:     input.Author,
		CoverImage: input.CoverImage,
		Priority:   input.Priority,
		Memo:       input.Memo,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.wishlistRepo.Create(ctx, item); err != nil {
		return nil, fmt.Errorf("読みたい本の登録に失敗しました: %w", err)
	}

	return item, nil
}

// Update は読みたい本を更新する。所有者以外の更新はFORBIDDEN。
func (s *Service) Update(ctx context.Context, userID, wishlistID int64, input Input) (*model.Wishlist, error) {
	item, err := s.findOwned(ctx, userID, wishlistID)
	if err != nil {
		return nil, err
	}

	if err := s.validate(&input); err != nil {
		return nil, err
	}

	item.Title = input.Title
	item.Author = input.Author
	item.CoverImage = input.CoverImage
	item.Priority = input.Priority
	item.Memo = input.Memo
	item.UpdatedAt = s.now()

	if err := s.wishlistRepo.Update(ctx, item); err != nil {
		return nil, fmt.Errorf("読みたい本の更新に失敗しました: %w", err)
	}

	return item, nil
}

// CheckDuplicate は同タイトル・同著者の本が既に登録済みかを返す。
func (s *Service) CheckDuplicate(ctx context.Context, userID int64, title, author string) (bool, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return false, model.NewValidationError("タイトルを入力してください。")
	}

	exists, err := s.wishlistRepo.ExistsByUserAndTitle(ctx, userID, title, strings.TrimSpace(author))
	if err != nil {
		return false, fmt.Errorf("重複チェックに失敗しました: %w", err)
	}
	return exists, nil
}

// Delete は読みたい本を削除する。所有者以外の削除はFORBIDDEN。
func (s *Service) Delete(ctx context.Context, userID, wishlistID int64) error {
	if _, err := s.findOwned(ctx, userID, wishlistID); err != nil {
		return err
	}

	if err := s.wishlistRepo.DeleteByID(ctx, wishlistID); err != nil {
		return fmt.Errorf("読みたい本の削除に失敗しました: %w", err)
	}

	return nil
}

func (s *Service) findOwned(ctx context.Context, userID, wishlistID int64) (*model.Wishlist, error) {
	item, err := s.wishlistRepo.FindByID(ctx, wishlistID)
	if err != nil {
		return nil, fmt.Errorf("読みたい本の取得に失敗しました: %w", err)
	}
	if item == nil {
		return nil, model.NewNotFoundError(model.ErrCodeBookNotFound, wishlistID)
	}
	if item.UserID != userID {
		return nil, model.NewForbiddenError()
	}
	return item, nil
}

func (s *Service) validate(input *Input) error {
	input.Title = strings.TrimSpace(s.sanitizer.SanitizeStrict(input.Title))
	input.Author = strings.TrimSpace(s.sanitizer.SanitizeStrict(input.Author))
	input.Memo = strings.TrimSpace(s.sanitizer.SanitizeStrict(input.Memo))

	if input.Title == "" {
		return model.NewValidationError("タイトルを入力してください。")
	}
	if input.Priority == 0 {
		input.Priority = 3
	}
	if input.Priority < 1 || input.Priority > 5 {
		return model.NewValidationError("優先度は1から5の間で入力してください。")
	}
	if input.CoverImage != "" {
		if err := s.guard.ValidateImageURL(input.CoverImage); err != nil {
			return model.NewValidationError("表紙画像のURLが不正です。")
		}
	}
	return nil
}
