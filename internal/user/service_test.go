package user

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

type mockUserRepo struct {
	findByIDFn         func(ctx context.Context, id int64) (*model.User, error)
	findByKakaoIDFn    func(ctx context.Context, kakaoID string) (*model.User, error)
	existsByNicknameFn func(ctx context.Context, nickname string) (bool, error)
	createFn           func(ctx context.Context, user *model.User) error
	updateFn           func(ctx context.Context, user *model.User) error
	deleteByIDFn       func(ctx context.Context, id int64) error
}

func (m *mockUserRepo) FindByID(ctx context.Context, id int64) (*model.User, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockUserRepo) FindByKakaoID(ctx context.Context, kakaoID string) (*model.User, error) {
	if m.findByKakaoIDFn != nil {
		return m.findByKakaoIDFn(ctx, kakaoID)
	}
	return nil, nil
}

func (m *mockUserRepo) ExistsByNickname(ctx context.Context, nickname string) (bool, error) {
	if m.existsByNicknameFn != nil {
		return m.existsByNicknameFn(ctx, nickname)
	}
	return false, nil
}

func (m *mockUserRepo) Create(ctx context.Context, user *model.User) error {
	if m.createFn != nil {
		return m.createFn(ctx, user)
	}
	return nil
}

func (m *mockUserRepo) Update(ctx context.Context, user *model.User) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, user)
	}
	return nil
}

func (m *mockUserRepo) DeleteByID(ctx context.Context, id int64) error {
	if m.deleteByIDFn != nil {
		return m.deleteByIDFn(ctx, id)
	}
	return nil
}

var _ repository.UserRepository = (*mockUserRepo)(nil)

type mockTokenRepo struct {
	deleteByUserIDFn func(ctx context.Context, userID int64) error
}

func (m *mockTokenRepo) Create(ctx context.Context, token *model.RefreshToken) error { return nil }
func (m *mockTokenRepo) FindByToken(ctx context.Context, token string) (*model.RefreshToken, error) {
	return nil, nil
}
func (m *mockTokenRepo) DeleteByToken(ctx context.Context, token string) error { return nil }
func (m *mockTokenRepo) DeleteByUserID(ctx context.Context, userID int64) error {
	if m.deleteByUserIDFn != nil {
		return m.deleteByUserIDFn(ctx, userID)
	}
	return nil
}
func (m *mockTokenRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	return 0, nil
}

var _ repository.RefreshTokenRepository = (*mockTokenRepo)(nil)

type mockBookRepo struct {
	countByUserIDFn        func(ctx context.Context, userID int64) (int64, error)
	averageRatingFn        func(ctx context.Context, userID int64) (float64, error)
	countByUserIDAndYearFn func(ctx context.Context, userID int64, year int) (int64, error)
	deleteByUserIDFn       func(ctx context.Context, userID int64) error
}

func (m *mockBookRepo) FindByID(ctx context.Context, id int64) (*model.Book, error) {
	return nil, nil
}
func (m *mockBookRepo) ListByUserID(ctx context.Context, userID int64, page model.PageRequest) ([]*model.Book, int64, error) {
	return nil, 0, nil
}
func (m *mockBookRepo) SearchByUserID(ctx context.Context, userID int64, search, sort string, page model.PageRequest) ([]*model.Book, int64, error) {
	return nil, 0, nil
}
func (m *mockBookRepo) ExistsByUserAndTitle(ctx context.Context, userID int64, title, author string) (bool, error) {
	return false, nil
}
func (m *mockBookRepo) Create(ctx context.Context, book *model.Book) error { return nil }
func (m *mockBookRepo) Update(ctx context.Context, book *model.Book) error { return nil }
func (m *mockBookRepo) DeleteByID(ctx context.Context, id int64) error     { return nil }
func (m *mockBookRepo) DeleteByUserID(ctx context.Context, userID int64) error {
	if m.deleteByUserIDFn != nil {
		return m.deleteByUserIDFn(ctx, userID)
	}
	return nil
}
func (m *mockBookRepo) CountByUserID(ctx context.Context, userID int64) (int64, error) {
	if m.countByUserIDFn != nil {
		return m.countByUserIDFn(ctx, userID)
	}
	return 0, nil
}
func (m *mockBookRepo) AverageRatingByUserID(ctx context.Context, userID int64) (float64, error) {
	if m.averageRatingFn != nil {
		return m.averageRatingFn(ctx, userID)
	}
	return 0, nil
}
func (m *mockBookRepo) CountByUserIDAndYear(ctx context.Context, userID int64, year int) (int64, error) {
	if m.countByUserIDAndYearFn != nil {
		return m.countByUserIDAndYearFn(ctx, userID, year)
	}
	return 0, nil
}
func (m *mockBookRepo) MonthlyStatsByUserID(ctx context.Context, userID int64, year int) ([]model.MonthlyStats, error) {
	return nil, nil
}

var _ repository.BookRepository = (*mockBookRepo)(nil)

type mockReadingRepo struct {
	listByUserIDFn   func(ctx context.Context, userID int64) ([]*model.CurrentlyReading, error)
	deleteByUserIDFn func(ctx context.Context, userID int64) error
}

func (m *mockReadingRepo) FindByID(ctx context.Context, id int64) (*model.CurrentlyReading, error) {
	return nil, nil
}
func (m *mockReadingRepo) ListByUserID(ctx context.Context, userID int64) ([]*model.CurrentlyReading, error) {
	if m.listByUserIDFn != nil {
		return m.listByUserIDFn(ctx, userID)
	}
	return nil, nil
}
func (m *mockReadingRepo) Create(ctx context.Context, reading *model.CurrentlyReading) error {
	return nil
}
func (m *mockReadingRepo) Update(ctx context.Context, reading *model.CurrentlyReading) error {
	return nil
}
func (m *mockReadingRepo) DeleteByID(ctx context.Context, id int64) error { return nil }
func (m *mockReadingRepo) DeleteByUserID(ctx context.Context, userID int64) error {
	if m.deleteByUserIDFn != nil {
		return m.deleteByUserIDFn(ctx, userID)
	}
	return nil
}

var _ repository.CurrentlyReadingRepository = (*mockReadingRepo)(nil)

type mockDroppedRepo struct {
	listByUserIDFn   func(ctx context.Context, userID int64, page model.PageRequest) ([]*model.DroppedBook, int64, error)
	deleteByUserIDFn func(ctx context.Context, userID int64) error
}

func (m *mockDroppedRepo) FindByID(ctx context.Context, id int64) (*model.DroppedBook, error) {
	return nil, nil
}
func (m *mockDroppedRepo) ListByUserID(ctx context.Context, userID int64, page model.PageRequest) ([]*model.DroppedBook, int64, error) {
	if m.listByUserIDFn != nil {
		return m.listByUserIDFn(ctx, userID, page)
	}
	return nil, 0, nil
}
func (m *mockDroppedRepo) Create(ctx context.Context, dropped *model.DroppedBook) error { return nil }
func (m *mockDroppedRepo) Update(ctx context.Context, dropped *model.DroppedBook) error { return nil }
func (m *mockDroppedRepo) DeleteByID(ctx context.Context, id int64) error               { return nil }
func (m *mockDroppedRepo) DeleteByUserID(ctx context.Context, userID int64) error {
	if m.deleteByUserIDFn != nil {
		return m.deleteByUserIDFn(ctx, userID)
	}
	return nil
}

var _ repository.DroppedBookRepository = (*mockDroppedRepo)(nil)

type mockWishlistRepo struct {
	listByUserIDFn   func(ctx context.Context, userID int64, page model.PageRequest) ([]*model.Wishlist, int64, error)
	deleteByUserIDFn func(ctx context.Context, userID int64) error
}

func (m *mockWishlistRepo) FindByID(ctx context.Context, id int64) (*model.Wishlist, error) {
	return nil, nil
}
func (m *mockWishlistRepo) ListByUserID(ctx context.Context, userID int64, page model.PageRequest) ([]*model.Wishlist, int64, error) {
	if m.listByUserIDFn != nil {
		return m.listByUserIDFn(ctx, userID, page)
	}
	return nil, 0, nil
}
func (m *mockWishlistRepo) ExistsByUserAndTitle(ctx context.Context, userID int64, title, author string) (bool, error) {
	return false, nil
}
func (m *mockWishlistRepo) Create(ctx context.Context, wishlist *model.Wishlist) error { return nil }
func (m *mockWishlistRepo) Update(ctx context.Context, wishlist *model.Wishlist) error { return nil }
func (m *mockWishlistRepo) DeleteByID(ctx context.Context, id int64) error             { return nil }
func (m *mockWishlistRepo) DeleteByUserID(ctx context.Context, userID int64) error {
	if m.deleteByUserIDFn != nil {
		return m.deleteByUserIDFn(ctx, userID)
	}
	return nil
}

var _ repository.WishlistRepository = (*mockWishlistRepo)(nil)

type mockMemberRepo struct {
	deleteByUserIDFn func(ctx context.Context, userID int64) error
}

func (m *mockMemberRepo) FindByGroupAndUser(ctx context.Context, groupID, userID int64) (*model.GroupMember, error) {
	return nil, nil
}
func (m *mockMemberRepo) ListByGroupID(ctx context.Context, groupID int64) ([]*model.GroupMember, error) {
	return nil, nil
}
func (m *mockMemberRepo) CountActiveByGroupID(ctx context.Context, groupID int64) (int, error) {
	return 0, nil
}
func (m *mockMemberRepo) Create(ctx context.Context, member *model.GroupMember) error { return nil }
func (m *mockMemberRepo) UpdateRole(ctx context.Context, id int64, role model.MemberRole) error {
	return nil
}
func (m *mockMemberRepo) UpdateStatus(ctx context.Context, id int64, status model.MemberStatus) error {
	return nil
}
func (m *mockMemberRepo) DeleteByID(ctx context.Context, id int64) error { return nil }
func (m *mockMemberRepo) DeleteByUserID(ctx context.Context, userID int64) error {
	if m.deleteByUserIDFn != nil {
		return m.deleteByUserIDFn(ctx, userID)
	}
	return nil
}

var _ repository.GroupMemberRepository = (*mockMemberRepo)(nil)

type mockGroupRepo struct {
	listByMemberUserIDFn func(ctx context.Context, userID int64) ([]*model.ReadingGroup, error)
}

func (m *mockGroupRepo) FindByID(ctx context.Context, id int64) (*model.ReadingGroup, error) {
	return nil, nil
}
func (m *mockGroupRepo) FindByInviteCode(ctx context.Context, inviteCode string) (*model.ReadingGroup, error) {
	return nil, nil
}
func (m *mockGroupRepo) ListPublic(ctx context.Context, search string, page model.PageRequest) ([]*model.ReadingGroup, int64, error) {
	return nil, 0, nil
}
func (m *mockGroupRepo) ListByMemberUserID(ctx context.Context, userID int64) ([]*model.ReadingGroup, error) {
	if m.listByMemberUserIDFn != nil {
		return m.listByMemberUserIDFn(ctx, userID)
	}
	return nil, nil
}
func (m *mockGroupRepo) Create(ctx context.Context, group *model.ReadingGroup) error { return nil }
func (m *mockGroupRepo) Update(ctx context.Context, group *model.ReadingGroup) error { return nil }
func (m *mockGroupRepo) DeleteByID(ctx context.Context, id int64) error              { return nil }

var _ repository.ReadingGroupRepository = (*mockGroupRepo)(nil)

type mockReviewRepo struct {
	deleteByUserIDFn func(ctx context.Context, userID int64) error
}

func (m *mockReviewRepo) FindByID(ctx context.Context, id int64) (*model.BookReview, error) {
	return nil, nil
}
func (m *mockReviewRepo) FindByMonthlyBookAndUser(ctx context.Context, monthlyBookID, userID int64) (*model.BookReview, error) {
	return nil, nil
}
func (m *mockReviewRepo) ListByMonthlyBookID(ctx context.Context, monthlyBookID int64) ([]*model.BookReview, error) {
	return nil, nil
}
func (m *mockReviewRepo) Create(ctx context.Context, review *model.BookReview) error { return nil }
func (m *mockReviewRepo) Update(ctx context.Context, review *model.BookReview) error { return nil }
func (m *mockReviewRepo) DeleteByID(ctx context.Context, id int64) error             { return nil }
func (m *mockReviewRepo) DeleteByUserID(ctx context.Context, userID int64) error {
	if m.deleteByUserIDFn != nil {
		return m.deleteByUserIDFn(ctx, userID)
	}
	return nil
}
func (m *mockReviewRepo) StatisticsByMonthlyBookID(ctx context.Context, monthlyBookID int64) (*model.ReviewStatistics, error) {
	return nil, nil
}

var _ repository.BookReviewRepository = (*mockReviewRepo)(nil)

type mockCommentRepo struct {
	deleteByUserIDFn func(ctx context.Context, userID int64) error
}

func (m *mockCommentRepo) FindByID(ctx context.Context, id int64) (*model.Comment, error) {
	return nil, nil
}
func (m *mockCommentRepo) ListByPostID(ctx context.Context, postID int64) ([]*model.Comment, error) {
	return nil, nil
}
func (m *mockCommentRepo) ListRepliesByParentID(ctx context.Context, parentCommentID int64) ([]*model.Comment, error) {
	return nil, nil
}
func (m *mockCommentRepo) Create(ctx context.Context, comment *model.Comment) error { return nil }
func (m *mockCommentRepo) Update(ctx context.Context, comment *model.Comment) error { return nil }
func (m *mockCommentRepo) DeleteByID(ctx context.Context, id int64) error           { return nil }
func (m *mockCommentRepo) DeleteByUserID(ctx context.Context, userID int64) error {
	if m.deleteByUserIDFn != nil {
		return m.deleteByUserIDFn(ctx, userID)
	}
	return nil
}

var _ repository.CommentRepository = (*mockCommentRepo)(nil)

type mockPostRepo struct {
	deleteByUserIDFn func(ctx context.Context, userID int64) error
}

func (m *mockPostRepo) FindByID(ctx context.Context, id int64) (*model.Post, error) {
	return nil, nil
}
func (m *mockPostRepo) List(ctx context.Context, postType model.PostType, search string, page model.PageRequest) ([]*model.Post, int64, error) {
	return nil, 0, nil
}
func (m *mockPostRepo) ListByUserID(ctx context.Context, userID int64, page model.PageRequest) ([]*model.Post, int64, error) {
	return nil, 0, nil
}
func (m *mockPostRepo) Create(ctx context.Context, post *model.Post) error { return nil }
func (m *mockPostRepo) Update(ctx context.Context, post *model.Post) error { return nil }
func (m *mockPostRepo) DeleteByID(ctx context.Context, id int64) error     { return nil }
func (m *mockPostRepo) DeleteByUserID(ctx context.Context, userID int64) error {
	if m.deleteByUserIDFn != nil {
		return m.deleteByUserIDFn(ctx, userID)
	}
	return nil
}

var _ repository.PostRepository = (*mockPostRepo)(nil)

// --- テストヘルパー ---

type serviceMocks struct {
	userRepo     *mockUserRepo
	tokenRepo    *mockTokenRepo
	bookRepo     *mockBookRepo
	readingRepo  *mockReadingRepo
	droppedRepo  *mockDroppedRepo
	wishlistRepo *mockWishlistRepo
	memberRepo   *mockMemberRepo
	groupRepo    *mockGroupRepo
	reviewRepo   *mockReviewRepo
	commentRepo  *mockCommentRepo
	postRepo     *mockPostRepo
}

func newTestService(m *serviceMocks) *Service {
	return NewService(
		m.userRepo,
		m.tokenRepo,
		m.bookRepo,
		m.readingRepo,
		m.droppedRepo,
		m.wishlistRepo,
		m.memberRepo,
		m.groupRepo,
		m.reviewRepo,
		m.commentRepo,
		m.postRepo,
		security.NewContentSanitizer(),
		security.NewURLGuard(),
	)
}

func defaultMocks() *serviceMocks {
	return &serviceMocks{
		userRepo: &mockUserRepo{
			findByIDFn: func(ctx context.Context, id int64) (*model.User, error) {
				return &model.User{ID: id, KakaoID: "kakao-1", Nickname: "本の虫"}, nil
			},
		},
		tokenRepo:    &mockTokenRepo{},
		bookRepo:     &mockBookRepo{},
		readingRepo:  &mockReadingRepo{},
		droppedRepo:  &mockDroppedRepo{},
		wishlistRepo: &mockWishlistRepo{},
		memberRepo:   &mockMemberRepo{},
		groupRepo:    &mockGroupRepo{},
		reviewRepo:   &mockReviewRepo{},
		commentRepo:  &mockCommentRepo{},
		postRepo:     &mockPostRepo{},
	}
}

// --- テスト ---

func TestProfile_ReturnsUser(t *testing.T) {
	m := defaultMocks()
	svc := newTestService(m)

	user, err := svc.Profile(context.Background(), 42)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user.ID != 42 {
		t.Errorf("ID = %d, want 42", user.ID)
	}
}

func TestProfile_UserNotFound(t *testing.T) {
	m := defaultMocks()
	m.userRepo.findByIDFn = func(ctx context.Context, id int64) (*model.User, error) {
		return nil, nil
	}
	svc := newTestService(m)

	_, err := svc.Profile(context.Background(), 42)
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeUserNotFound {
		t.Errorf("expected USER_NOT_FOUND error, got %v", err)
	}
}

func TestUpdateProfile_Success(t *testing.T) {
	m := defaultMocks()
	var updated *model.User
	m.userRepo.updateFn = func(ctx context.Context, user *model.User) error {
		updated = user
		return nil
	}
	svc := newTestService(m)

	user, err := svc.UpdateProfile(context.Background(), 42, "読書家", "https://cdn.example.com/me.png")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user.Nickname != "読書家" {
		t.Errorf("Nickname = %q, want %q", user.Nickname, "読書家")
	}
	if updated == nil {
		t.Fatal("expected Update to be called")
	}
	if updated.ProfileImage != "https://cdn.example.com/me.png" {
		t.Errorf("ProfileImage = %q", updated.ProfileImage)
	}
}

func TestUpdateProfile_EmptyNickname(t *testing.T) {
	m := defaultMocks()
	svc := newTestService(m)

	_, err := svc.UpdateProfile(context.Background(), 42, "   ", "")
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeValidationFailed {
		t.Errorf("expected VALIDATION_FAILED error, got %v", err)
	}
}

func TestUpdateProfile_NicknameStripsMarkup(t *testing.T) {
	m := defaultMocks()
	var updated *model.User
	m.userRepo.updateFn = func(ctx context.Context, user *model.User) error {
		updated = user
		return nil
	}
	svc := newTestService(m)

	_, err := svc.UpdateProfile(context.Background(), 42, "<b>読書家</b>", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Nickname != "読書家" {
		t.Errorf("Nickname = %q, want markup removed", updated.Nickname)
	}
}

func TestUpdateProfile_TooLongNickname(t *testing.T) {
	m := defaultMocks()
	svc := newTestService(m)

	long := ""
	for i := 0; i < 21; i++ {
		long += "あ"
	}

	_, err := svc.UpdateProfile(context.Background(), 42, long, "")
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeValidationFailed {
		t.Errorf("expected VALIDATION_FAILED error, got %v", err)
	}
}

func TestUpdateProfile_DuplicateNickname(t *testing.T) {
	m := defaultMocks()
	m.userRepo.updateFn = func(ctx context.Context, user *model.User) error {
		return model.ErrDuplicateNickname
	}
	svc := newTestService(m)

	_, err := svc.UpdateProfile(context.Background(), 42, "読書家", "")
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeValidationFailed {
		t.Errorf("expected VALIDATION_FAILED error for duplicate nickname, got %v", err)
	}
}

func TestUpdateProfile_InvalidImageURL(t *testing.T) {
	m := defaultMocks()
	svc := newTestService(m)

	// SSRF対象のURLは拒否される
	_, err := svc.UpdateProfile(context.Background(), 42, "読書家", "http://169.254.169.254/meta")
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeValidationFailed {
		t.Errorf("expected VALIDATION_FAILED error for unsafe image URL, got %v", err)
	}
}

func TestStatistics_AggregatesCounts(t *testing.T) {
	m := defaultMocks()
	m.bookRepo.countByUserIDFn = func(ctx context.Context, userID int64) (int64, error) {
		return 12, nil
	}
	m.bookRepo.averageRatingFn = func(ctx context.Context, userID int64) (float64, error) {
		return 4.25, nil
	}
	m.bookRepo.countByUserIDAndYearFn = func(ctx context.Context, userID int64, year int) (int64, error) {
		return 5, nil
	}
	m.readingRepo.listByUserIDFn = func(ctx context.Context, userID int64) ([]*model.CurrentlyReading, error) {
		return []*model.CurrentlyReading{{ID: 1}, {ID: 2}}, nil
	}
	m.droppedRepo.listByUserIDFn = func(ctx context.Context, userID int64, page model.PageRequest) ([]*model.DroppedBook, int64, error) {
		return nil, 3, nil
	}
	m.wishlistRepo.listByUserIDFn = func(ctx context.Context, userID int64, page model.PageRequest) ([]*model.Wishlist, int64, error) {
		return nil, 7, nil
	}
	m.groupRepo.listByMemberUserIDFn = func(ctx context.Context, userID int64) ([]*model.ReadingGroup, error) {
		return []*model.ReadingGroup{{ID: 1}}, nil
	}
	svc := newTestService(m)

	stats, err := svc.Statistics(context.Background(), 42)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.TotalBooks != 12 {
		t.Errorf("TotalBooks = %d, want 12", stats.TotalBooks)
	}
	if stats.CurrentlyReading != 2 {
		t.Errorf("CurrentlyReading = %d, want 2", stats.CurrentlyReading)
	}
	if stats.DroppedBooks != 3 {
		t.Errorf("DroppedBooks = %d, want 3", stats.DroppedBooks)
	}
	if stats.WishlistCount != 7 {
		t.Errorf("WishlistCount = %d, want 7", stats.WishlistCount)
	}
	if stats.GroupCount != 1 {
		t.Errorf("GroupCount = %d, want 1", stats.GroupCount)
	}
	if stats.AverageRating != 4.25 {
		t.Errorf("AverageRating = %f, want 4.25", stats.AverageRating)
	}
	if stats.BooksThisYear != 5 {
		t.Errorf("BooksThisYear = %d, want 5", stats.BooksThisYear)
	}
}

func TestWithdraw_DeletesInOrder(t *testing.T) {
	m := defaultMocks()

	var order []string
	record := func(name string) func(ctx context.Context, userID int64) error {
		return func(ctx context.Context, userID int64) error {
			order = append(order, name)
			return nil
		}
	}

	m.tokenRepo.deleteByUserIDFn = record("tokens")
	m.bookRepo.deleteByUserIDFn = record("books")
	m.readingRepo.deleteByUserIDFn = record("reading")
	m.droppedRepo.deleteByUserIDFn = record("dropped")
	m.wishlistRepo.deleteByUserIDFn = record("wishlists")
	m.memberRepo.deleteByUserIDFn = record("members")
	m.reviewRepo.deleteByUserIDFn = record("reviews")
	m.commentRepo.deleteByUserIDFn = record("comments")
	m.postRepo.deleteByUserIDFn = record("posts")
	m.userRepo.deleteByIDFn = func(ctx context.Context, id int64) error {
		order = append(order, "user")
		return nil
	}

	svc := newTestService(m)

	if err := svc.Withdraw(context.Background(), 42); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"tokens", "books", "reading", "dropped", "wishlists", "members", "reviews", "comments", "posts", "user"}
	if len(order) != len(want) {
		t.Fatalf("deletion count = %d, want %d (%v)", len(order), len(want), order)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("deletion[%d] = %q, want %q", i, order[i], want[i])
		}
	}
}

func TestWithdraw_UserNotFound(t *testing.T) {
	m := defaultMocks()
	m.userRepo.findByIDFn = func(ctx context.Context, id int64) (*model.User, error) {
		return nil, nil
	}
	m.tokenRepo.deleteByUserIDFn = func(ctx context.Context, userID int64) error {
		t.Fatal("deletion should not run for missing user")
		return nil
	}
	svc := newTestService(m)

	err := svc.Withdraw(context.Background(), 42)
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeUserNotFound {
		t.Errorf("expected USER_NOT_FOUND error, got %v", err)
	}
}

func TestWithdraw_StopsOnDeleteFailure(t *testing.T) {
	m := defaultMocks()
	m.bookRepo.deleteByUserIDFn = func(ctx context.Context, userID int64) error {
		return errors.New("db down")
	}
	userDeleted := false
	m.userRepo.deleteByIDFn = func(ctx context.Context, id int64) error {
		userDeleted = true
		return nil
	}
	svc := newTestService(m)

	if err := svc.Withdraw(context.Background(), 42); err == nil {
		t.Fatal("expected error when shelf deletion fails")
	}
	if userDeleted {
		t.Error("user row should not be deleted after earlier failure")
	}
}
