package book

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hitoshi/readingclub/internal/model"
	"github.com/hitoshi/readingclub/internal/repository"
	"github.com/hitoshi/readingclub/internal/security"
)

// --- モック定義 ---

type mockBookRepo struct {
	findByIDFn             func(ctx context.Context, id int64) (*model.Book, error)
	searchByUserIDFn       func(ctx context.Context, userID int64, search, sort string, page model.PageRequest) ([]*model.Book, int64, error)
	existsByUserAndTitleFn func(ctx context.Context, userID int64, title, author string) (bool, error)
	createFn               func(ctx context.Context, book *model.Book) error
	updateFn               func(ctx context.Context, book *model.Book) error
	deleteByIDFn           func(ctx context.Context, id int64) error
	monthlyStatsFn         func(ctx context.Context, userID int64, year int) ([]model.MonthlyStats, error)
}

func (m *mockBookRepo) FindByID(ctx context.Context, id int64) (*model.Book, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockBookRepo) ListByUserID(ctx context.Context, userID int64, page model.PageRequest) ([]*model.Book, int64, error) {
	return nil, 0, nil
}

func (m *mockBookRepo) SearchByUserID(ctx context.Context, userID int64, search, sort string, page model.PageRequest) ([]*model.Book, int64, error) {
	if m.searchByUserIDFn != nil {
		return m.searchByUserIDFn(ctx, userID, search, sort, page)
	}
	return nil, 0, nil
}

func (m *mockBookRepo) ExistsByUserAndTitle(ctx context.Context, userID int64, title, author string) (bool, error) {
	if m.existsByUserAndTitleFn != nil {
		return m.existsByUserAndTitleFn(ctx, userID, title, author)
	}
	return false, nil
}

func (m *mockBookRepo) Create(ctx context.Context, book *model.Book) error {
	if m.createFn != nil {
		return m.createFn(ctx, book)
	}
	return nil
}

func (m *mockBookRepo) Update(ctx context.Context, book *model.Book) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, book)
	}
	return nil
}

func (m *mockBookRepo) DeleteByID(ctx context.Context, id int64) error {
	if m.deleteByIDFn != nil {
		return m.deleteByIDFn(ctx, id)
	}
	return nil
}

func (m *mockBookRepo) DeleteByUserID(ctx context.Context, userID int64) error { return nil }

func (m *mockBookRepo) CountByUserID(ctx context.Context, userID int64) (int64, error) {
	return 0, nil
}

func (m *mockBookRepo) AverageRatingByUserID(ctx context.Context, userID int64) (float64, error) {
	return 0, nil
}

func (m *mockBookRepo) CountByUserIDAndYear(ctx context.Context, userID int64, year int) (int64, error) {
	return 0, nil
}

func (m *mockBookRepo) MonthlyStatsByUserID(ctx context.Context, userID int64, year int) ([]model.MonthlyStats, error) {
	if m.monthlyStatsFn != nil {
		return m.monthlyStatsFn(ctx, userID, year)
	}
	return nil, nil
}

var _ repository.BookRepository = (*mockBookRepo)(nil)

// --- テストヘルパー ---

func newTestService(repo *mockBookRepo) *Service {
	return NewService(repo, security.NewContentSanitizer(), security.NewURLGuard())
}

func validInput() Input {
	return Input{
		Title:        "銀河鉄道の夜",
		Author:       "宮沢賢治",
		Rating:       5,
		Review:       "<p>星をめぐる旅の話。</p>",
		FinishedDate: time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
	}
}

// --- テスト ---

func TestCreate_Success(t *testing.T) {
	repo := &mockBookRepo{
		createFn: func(ctx context.Context, book *model.Book) error {
			book.ID = 10
			return nil
		},
	}
	svc := newTestService(repo)

	book, err := svc.Create(context.Background(), 1, validInput())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if book.ID != 10 {
		t.Errorf("ID = %d, want 10", book.ID)
	}
	if book.UserID != 1 {
		t.Errorf("UserID = %d, want 1", book.UserID)
	}
	if book.CreatedAt.IsZero() || book.UpdatedAt.IsZero() {
		t.Error("timestamps should be set")
	}
}

func TestCreate_SanitizesReview(t *testing.T) {
	var created *model.Book
	repo := &mockBookRepo{
		createFn: func(ctx context.Context, book *model.Book) error {
			created = book
			return nil
		},
	}
	svc := newTestService(repo)

	input := validInput()
	input.Review = `<p>良い本</p><script>alert(1)</script>`

	if _, err := svc.Create(context.Background(), 1, input); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created.Review != "<p>良い本</p>" {
		t.Errorf("Review = %q, want script stripped", created.Review)
	}
}

func TestCreate_ValidationErrors(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Input)
	}{
		{"タイトルが空", func(in *Input) { in.Title = "" }},
		{"タイトルがタグのみ", func(in *Input) { in.Title = "<script></script>" }},
		{"評価が0", func(in *Input) { in.Rating = 0 }},
		{"評価が6", func(in *Input) { in.Rating = 6 }},
		{"読了日が未設定", func(in *Input) { in.FinishedDate = time.Time{} }},
		{"表紙画像がローカルホスト", func(in *Input) { in.CoverImage = "https://localhost/x.png" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockBookRepo{
				createFn: func(ctx context.Context, book *model.Book) error {
					t.Fatal("Create should not be called for invalid input")
					return nil
				},
			}
			svc := newTestService(repo)

			input := validInput()
			tt.modify(&input)

			_, err := svc.Create(context.Background(), 1, input)
			var apiErr *model.APIError
			if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeValidationFailed {
				t.Errorf("expected VALIDATION_FAILED error, got %v", err)
			}
		})
	}
}

func TestGet_OwnedBook(t *testing.T) {
	repo := &mockBookRepo{
		findByIDFn: func(ctx context.Context, id int64) (*model.Book, error) {
			return &model.Book{ID: id, UserID: 1, Title: "銀河鉄道の夜"}, nil
		},
	}
	svc := newTestService(repo)

	book, err := svc.Get(context.Background(), 1, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if book.Title != "銀河鉄道の夜" {
		t.Errorf("Title = %q", book.Title)
	}
}

func TestGet_NotFound(t *testing.T) {
	svc := newTestService(&mockBookRepo{})

	_, err := svc.Get(context.Background(), 1, 10)
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeBookNotFound {
		t.Errorf("expected BOOK_NOT_FOUND error, got %v", err)
	}
}

func TestGet_OtherUsersBook_Forbidden(t *testing.T) {
	repo := &mockBookRepo{
		findByIDFn: func(ctx context.Context, id int64) (*model.Book, error) {
			return &model.Book{ID: id, UserID: 2}, nil
		},
	}
	svc := newTestService(repo)

	_, err := svc.Get(context.Background(), 1, 10)
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeForbidden {
		t.Errorf("expected FORBIDDEN error, got %v", err)
	}
}

func TestUpdate_Success(t *testing.T) {
	var updated *model.Book
	repo := &mockBookRepo{
		findByIDFn: func(ctx context.Context, id int64) (*model.Book, error) {
			return &model.Book{ID: id, UserID: 1, Title: "旧題", Rating: 3}, nil
		},
		updateFn: func(ctx context.Context, book *model.Book) error {
			updated = book
			return nil
		},
	}
	svc := newTestService(repo)

	input := validInput()
	book, err := svc.Update(context.Background(), 1, 10, input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if book.Title != "銀河鉄道の夜" {
		t.Errorf("Title = %q", book.Title)
	}
	if updated == nil || updated.Rating != 5 {
		t.Error("expected Update to persist the new rating")
	}
}

func TestUpdate_OtherUsersBook_Forbidden(t *testing.T) {
	repo := &mockBookRepo{
		findByIDFn: func(ctx context.Context, id int64) (*model.Book, error) {
			return &model.Book{ID: id, UserID: 2}, nil
		},
		updateFn: func(ctx context.Context, book *model.Book) error {
			t.Fatal("Update should not be called")
			return nil
		},
	}
	svc := newTestService(repo)

	_, err := svc.Update(context.Background(), 1, 10, validInput())
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeForbidden {
		t.Errorf("expected FORBIDDEN error, got %v", err)
	}
}

func TestDelete_Success(t *testing.T) {
	deleted := false
	repo := &mockBookRepo{
		findByIDFn: func(ctx context.Context, id int64) (*model.Book, error) {
			return &model.Book{ID: id, UserID: 1}, nil
		},
		deleteByIDFn: func(ctx context.Context, id int64) error {
			deleted = true
			return nil
		},
	}
	svc := newTestService(repo)

	if err := svc.Delete(context.Background(), 1, 10); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !deleted {
		t.Error("expected DeleteByID to be called")
	}
}

func TestDelete_OtherUsersBook_Forbidden(t *testing.T) {
	repo := &mockBookRepo{
		findByIDFn: func(ctx context.Context, id int64) (*model.Book, error) {
			return &model.Book{ID: id, UserID: 2}, nil
		},
		deleteByIDFn: func(ctx context.Context, id int64) error {
			t.Fatal("DeleteByID should not be called")
			return nil
		},
	}
	svc := newTestService(repo)

	err := svc.Delete(context.Background(), 1, 10)
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeForbidden {
		t.Errorf("expected FORBIDDEN error, got %v", err)
	}
}

func TestList_PassesSearchAndSort(t *testing.T) {
	var gotSearch, gotSort string
	repo := &mockBookRepo{
		searchByUserIDFn: func(ctx context.Context, userID int64, search, sort string, page model.PageRequest) ([]*model.Book, int64, error) {
			gotSearch, gotSort = search, sort
			return []*model.Book{{ID: 1}}, 1, nil
		},
	}
	svc := newTestService(repo)

	books, total, err := svc.List(context.Background(), 1, "賢治", "rating", model.NewPageRequest(0, 10))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(books) != 1 || total != 1 {
		t.Errorf("len = %d, total = %d, want 1, 1", len(books), total)
	}
	if gotSearch != "賢治" || gotSort != "rating" {
		t.Errorf("search = %q, sort = %q", gotSearch, gotSort)
	}
}

func TestMonthlyStatistics_DefaultsToCurrentYear(t *testing.T) {
	var gotYear int
	repo := &mockBookRepo{
		monthlyStatsFn: func(ctx context.Context, userID int64, year int) ([]model.MonthlyStats, error) {
			gotYear = year
			return []model.MonthlyStats{{Month: "2026-08", BookCount: 2, AvgRating: 4.5}}, nil
		},
	}
	svc := newTestService(repo)
	svc.now = func() time.Time { return time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC) }

	stats, err := svc.MonthlyStatistics(context.Background(), 1, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotYear != 2026 {
		t.Errorf("year = %d, want 2026", gotYear)
	}
	if len(stats) != 1 || stats[0].BookCount != 2 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestCheckDuplicate(t *testing.T) {
	repo := &mockBookRepo{
		existsByUserAndTitleFn: func(ctx context.Context, userID int64, title, author string) (bool, error) {
			return title == "銀河鉄道の夜", nil
		},
	}
	svc := newTestService(repo)

	exists, err := svc.CheckDuplicate(context.Background(), 1, "銀河鉄道の夜", "宮沢賢治")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !exists {
		t.Error("expected duplicate to be detected")
	}

	exists, err = svc.CheckDuplicate(context.Background(), 1, "別の本", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if exists {
		t.Error("expected no duplicate")
	}
}

func TestCheckDuplicate_EmptyTitle(t *testing.T) {
	svc := newTestService(&mockBookRepo{})

	_, err := svc.CheckDuplicate(context.Background(), 1, "  ", "")
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeValidationFailed {
		t.Errorf("expected VALIDATION_FAILED error, got %v", err)
	}
}
