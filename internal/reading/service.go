// Package reading は読書中・中断本管理のドメインロジックを提供する。
package reading

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hitoshi/readingclub/internal/model"
	"github.com/hitoshi/readingclub/internal/repository"
	"github.com/hitoshi/readingclub/internal/security"
)

// ReadingInput は読書中レコードの登録・更新内容を表す。
type ReadingInput struct {
	Title       string
	Author      string
	CoverImage  string
	TotalPages  int
	CurrentPage int
	StartedDate time.Time
	TargetDate  *time.Time
}

// DroppedInput は中断本の登録・更新内容を表す。
type DroppedInput struct {
	Title       string
	Author      string
	CoverImage  string
	DroppedDate time.Time
	Reason      string
}

// Service は読書中・中断本管理のサービス層。
type Service struct {
	readingRepo repository.CurrentlyReadingRepository
	droppedRepo repository.DroppedBookRepository
	sanitizer   security.ContentSanitizerService
	guard       security.URLGuardService
	now         func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	readingRepo repository.CurrentlyReadingRepository,
	droppedRepo repository.DroppedBookRepository,
	sanitizer security.ContentSanitizerService,
	guard security.URLGuardService,
) *Service {
	return &Service{
		readingRepo: readingRepo,
		droppedRepo: droppedRepo,
		sanitizer:   sanitizer,
		guard:       guard,
		now:         time.Now,
	}
}

// --- 読書中 ---

// ListReading はユーザーの読書中一覧を返す。
func (s *Service) ListReading(ctx context.Context, userID int64) ([]*model.CurrentlyReading, error) {
	readings, err := s.readingRepo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("読書中一覧の取得に失敗しました: %w", err)
	}
	return readings, nil
}

// GetReading は指定IDの読書中レコードを取得する。所有者以外のアクセスはFORBIDDEN。
func (s *Service) GetReading(ctx context.Context, userID, readingID int64) (*model.CurrentlyReading, error) {
	return s.findOwnedReading(ctx, userID, readingID)
}

// CreateReading は読書中レコードを登録する。
func (s *Service) CreateReading(ctx context.Context, userID int64, input ReadingInput) (*model.CurrentlyReading, error) {
	if err := s.validateReading(&input); err != nil {
		return nil, err
	}

	now := s.now()
	reading := &model.CurrentlyReading{
		UserID:      userID,
		Title:       input.Title,
		Author:      input.Author,
		CoverImage:  input.CoverImage,
		TotalPages:  input.TotalPages,
		CurrentPage: input.CurrentPage,
		StartedDate: input.StartedDate,
		TargetDate:  input.TargetDate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.readingRepo.Create(ctx, reading); err != nil {
		return nil, fmt.Errorf("読書中レコードの登録に失敗しました: %w", err)
	}

	return reading, nil
}

// UpdateReading は読書中レコードを更新する。所有者以外の更新はFORBIDDEN。
func (s *Service) UpdateReading(ctx context.Context, userID, readingID int64, input ReadingInput) (*model.CurrentlyReading, error) {
	reading, err := s.findOwnedReading(ctx, userID, readingID)
	if err != nil {
		return nil, err
	}

	if err := s.validateReading(&input); err != nil {
		return nil, err
	}

	reading.Title = input.Title
	reading.Author = input.Author
	reading.CoverImage = input.CoverImage
	reading.TotalPages = input.TotalPages
	reading.CurrentPage = input.CurrentPage
	reading.StartedDate = input.StartedDate
	reading.TargetDate = input.TargetDate
	reading.UpdatedAt = s.now()

	if err := s.readingRepo.Update(ctx, reading); err != nil {
		return nil, fmt.Errorf("読書中レコードの更新に失敗しました: %w", err)
	}

	return reading, nil
}

// UpdateProgress は現在のページ数を更新する。
func (s *Service) UpdateProgress(ctx context.Context, userID, readingID int64, currentPage int) (*model.CurrentlyReading, error) {
	reading, err := s.findOwnedReading(ctx, userID, readingID)
	if err != nil {
		return nil, err
	}

	if currentPage < 0 {
		return nil, model.NewValidationError("現在のページ数は0以上で入力してください。")
	}
	if currentPage > reading.TotalPages {
		return nil, model.NewValidationError("現在のページ数が総ページ数を超えています。")
	}

	reading.CurrentPage = currentPage
	reading.UpdatedAt = s.now()

	if err := s.readingRepo.Update(ctx, reading); err != nil {
		return nil, fmt.Errorf("進捗の更新に失敗しました: %w", err)
	}

	return reading, nil
}

// DeleteReading は読書中レコードを削除する。所有者以外の削除はFORBIDDEN。
func (s *Service) DeleteReading(ctx context.Context, userID, readingID int64) error {
	if _, err := s.findOwnedReading(ctx, userID, readingID); err != nil {
		return err
	}

	if err := s.readingRepo.DeleteByID(ctx, readingID); err != nil {
		return fmt.Errorf("読書中レコードの削除に失敗しました: %w", err)
	}

	return nil
}

// --- 中断本 ---

// ListDropped はユーザーの中断本一覧を返す。
func (s *Service) ListDropped(ctx context.Context, userID int64, page model.PageRequest) ([]*model.DroppedBook, int64, error) {
	dropped, total, err := s.droppedRepo.ListByUserID(ctx, userID, page)
	if err != nil {
		return nil, 0, fmt.Errorf("中断本一覧の取得に失敗しました: %w", err)
	}
	return dropped, total, nil
}

// GetDropped は指定IDの中断本を取得する。所有者以外のアクセスはFORBIDDEN。
func (s *Service) GetDropped(ctx context.Context, userID, droppedID int64) (*model.DroppedBook, error) {
	return s.findOwnedDropped(ctx, userID, droppedID)
}

// CreateDropped は中断本を登録する。
func (s *Service) CreateDropped(ctx context.Context, userID int64, input DroppedInput) (*model.DroppedBook, error) {
	if err := s.validateDropped(&input); err != nil {
		return nil, err
	}

	now := s.now()
	dropped := &model.DroppedBook{
		UserID:      userID,
		Title:       input.Title,
		Author:      input.Author,
		CoverImage:  input.CoverImage,
		DroppedDate: input.DroppedDate,
		Reason:      input.Reason,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.droppedRepo.Create(ctx, dropped); err != nil {
		return nil, fmt.Errorf("中断本の登録に失敗しました: %w", err)
	}

	return dropped, nil
}

// UpdateDropped は中断本を更新する。所有者以外の更新はFORBIDDEN。
func (s *Service) UpdateDropped(ctx context.Context, userID, droppedID int64, input DroppedInput) (*model.DroppedBook, error) {
	dropped, err := s.findOwnedDropped(ctx, userID, droppedID)
	if err != nil {
		return nil, err
	}

	if err := s.validateDropped(&input); err != nil {
		return nil, err
	}

	dropped.Title = input.Title
	dropped.Author = input.Author
	dropped.CoverImage = input.CoverImage
	dropped.DroppedDate = input.DroppedDate
	dropped.Reason = input.Reason
	dropped.UpdatedAt = s.now()

	if err := s.droppedRepo.Update(ctx, dropped); err != nil {
		return nil, fmt.Errorf("中断本の更新に失敗しました: %w", err)
	}

	return dropped, nil
}

// DeleteDropped は中断本を削除する。所有者以外の削除はFORBIDDEN。
func (s *Service) DeleteDropped(ctx context.Context, userID, droppedID int64) error {
	if _, err := s.findOwnedDropped(ctx, userID, droppedID); err != nil {
		return err
	}

	if err := s.droppedRepo.DeleteByID(ctx, droppedID); err != nil {
		return fmt.Errorf("中断本の削除に失敗しました: %w", err)
	}

	return nil
}

// --- 内部ヘルパー ---

func (s *Service) findOwnedReading(ctx context.Context, userID, readingID int64) (*model.CurrentlyReading, error) {
	reading, err := s.readingRepo.FindByID(ctx, readingID)
	if err != nil {
		return nil, fmt.Errorf("読書中レコードの取得に失敗しました: %w", err)
	}
	if reading == nil {
		return nil, model.NewNotFoundError(model.ErrCodeBookNotFound, readingID)
	}
	if reading.UserID != userID {
		return nil, model.NewForbiddenError()
	}
	return reading, nil
}

func (s *Service) findOwnedDropped(ctx context.Context, userID, droppedID int64) (*model.DroppedBook, error) {
	dropped, err := s.droppedRepo.FindByID(ctx, droppedID)
	if err != nil {
		return nil, fmt.Errorf("中断本の取得に失敗しました: %w", err)
	}
	if dropped == nil {
		return nil, model.NewNotFoundError(model.ErrCodeBookNotFound, droppedID)
	}
	if dropped.UserID != userID {
		return nil, model.NewForbiddenError()
	}
	return dropped, nil
}

func (s *Service) validateReading(input *ReadingInput) error {
	input.Title = strings.TrimSpace(s.sanitizer.SanitizeStrict(input.Title))
	input.Author = strings.TrimSpace(s.sanitizer.SanitizeStrict(input.Author))

	if input.Title == "" {
		return model.NewValidationError("タイトルを入力してください。")
	}
	if input.TotalPages <= 0 {
		return model.NewValidationError("総ページ数は1以上で入力してください。")
	}
	if input.CurrentPage < 0 || input.CurrentPage > input.TotalPages {
		return model.NewValidationError("現在のページ数が範囲外です。")
	}
	if input.StartedDate.IsZero() {
		return model.NewValidationError("読書開始日を入力してください。")
	}
	if input.CoverImage != "" {
		if err := s.guard.ValidateImageURL(input.CoverImage); err != nil {
			return model.NewValidationError("表紙画像のURLが不正です。")
		}
	}
	return nil
}

func (s *Service) validateDropped(input *DroppedInput) error {
	input.Title = strings.TrimSpace(s.sanitizer.SanitizeStrict(input.Title))
	input.Author = strings.TrimSpace(s.sanitizer.SanitizeStrict(input.Author))
	input.Reason = strings.TrimSpace(s.sanitizer.SanitizeStrict(input.Reason))

	if input.Title == "" {
		return model.NewValidationError("タイトルを入力してください。")
	}
	if input.DroppedDate.IsZero() {
		return model.NewValidationError("中断日を入力してください。")
	}
	if input.CoverImage != "" {
		if err := s.guard.ValidateImageURL(input.CoverImage); err != nil {
			return model.NewValidationError("表紙画像のURLが不正です。")
		}
	}
	return nil
}
