package handler

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/readingclub/internal/model"
)

// --- モック定義 ---

type mockUserService struct {
	profileFn       func(ctx context.Context, userID int64) (*model.User, error)
	updateProfileFn func(ctx context.Context, userID int64, nickname, profileImage string) (*model.User, error)
	statisticsFn    func(ctx context.Context, userID int64) (*model.UserStatistics, error)
	withdrawFn      func(ctx context.Context, userID int64) error
}

var _ UserServiceInterface = (*mockUserService)(nil)

func (m *mockUserService) Profile(ctx context.Context, userID int64) (*model.User, error) {
	if m.profileFn != nil {
		return m.profileFn(ctx, userID)
	}
	return &model.User{ID: userID, Nickname: "読書家"}, nil
}

func (m *mockUserService) UpdateProfile(ctx context.Context, userID int64, nickname, profileImage string) (*model.User, error) {
	if m.updateProfileFn != nil {
		return m.updateProfileFn(ctx, userID, nickname, profileImage)
	}
	return &model.User{ID: userID, Nickname: nickname, ProfileImage: profileImage}, nil
}

func (m *mockUserService) Statistics(ctx context.Context, userID int64) (*model.UserStatistics, error) {
	if m.statisticsFn != nil {
		return m.statisticsFn(ctx, userID)
	}
	return &model.UserStatistics{}, nil
}

func (m *mockUserService) Withdraw(ctx context.Context, userID int64) error {
	if m.withdrawFn != nil {
		return m.withdrawFn(ctx, userID)
	}
	return nil
}

// --- テスト ---

func TestUserHandler_Me_Success(t *testing.T) {
	svc := &mockUserService{
		profileFn: func(ctx context.Context, userID int64) (*model.User, error) {
			if userID != 42 {
				t.Errorf("userID = %d, want 42", userID)
			}
			return &model.User{ID: 42, Nickname: "読書家", ProfileImage: "https://img.example.com/a.png"}, nil
		},
	}
	h := NewUserHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/users/me", nil)
	req = withPrincipal(req, 42)
	w := httptest.NewRecorder()

	h.Me(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	data := envelopeData(t, w)
	if data["nickname"] != "読書家" {
		t.Errorf("nickname = %v, want 読書家", data["nickname"])
	}
}

func TestUserHandler_UpdateMe_DuplicateNickname(t *testing.T) {
	svc := &mockUserService{
		updateProfileFn: func(ctx context.Context, userID int64, nickname, profileImage string) (*model.User, error) {
			return nil, &model.APIError{Code: "DUPLICATE_NICKNAME", Message: "このニックネームは使用されています。", Category: "conflict"}
		},
	}
	h := NewUserHandler(svc)

	body := `{"nickname":"読書家"}`
	req := httptest.NewRequest(http.MethodPut, "/api/users/me", bytes.NewBufferString(body))
	req = withPrincipal(req, 42)
	w := httptest.NewRecorder()

	h.UpdateMe(w, req)

	if w.Code != http.StatusConflict {
		t.Errorf("status = %d, want %d", w.Code, http.StatusConflict)
	}
}

func TestUserHandler_Statistics_Success(t *testing.T) {
	svc := &mockUserService{
		statisticsFn: func(ctx context.Context, userID int64) (*model.UserStatistics, error) {
			return &model.UserStatistics{
				TotalBooks:       12,
				CurrentlyReading: 2,
				AverageRating:    4.2,
				BooksThisYear:    8,
			}, nil
		},
	}
	h := NewUserHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/users/me/statistics", nil)
	req = withPrincipal(req, 42)
	w := httptest.NewRecorder()

	h.Statistics(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	data := envelopeData(t, w)
	if data["totalBooks"].(float64) != 12 {
		t.Errorf("totalBooks = %v, want 12", data["totalBooks"])
	}
	if data["averageRating"].(float64) != 4.2 {
		t.Errorf("averageRating = %v, want 4.2", data["averageRating"])
	}
}

func TestUserHandler_Withdraw_Success(t *testing.T) {
	withdrawn := int64(0)
	svc := &mockUserService{
		withdrawFn: func(ctx context.Context, userID int64) error {
			withdrawn = userID
			return nil
		},
	}
	h := NewUserHandler(svc)

	req := httptest.NewRequest(http.MethodDelete, "/api/users/me", nil)
	req = withPrincipal(req, 42)
	w := httptest.NewRecorder()

	h.Withdraw(w, req)

	if w.Code != http.StatusNoContent {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNoContent)
	}
	if withdrawn != 42 {
		t.Errorf("withdrawn userID = %d, want 42", withdrawn)
	}
}
