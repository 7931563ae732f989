package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/hitoshi/readingclub/internal/middleware"
	"github.com/hitoshi/readingclub/internal/model"
)

// UserServiceInterface はユーザーハンドラーが必要とするサービスインターフェース。
type UserServiceInterface interface {
	// Profile はユーザーのプロフィールを返す。
	Profile(ctx context.Context, userID int64) (*model.User, error)
	// UpdateProfile はニックネームとプロフィール画像を更新する。
	UpdateProfile(ctx context.Context, userID int64, nickname, profileImage string) (*model.User, error)
	// Statistics は読書活動の集計を返す。
	Statistics(ctx context.Context, userID int64) (*model.UserStatistics, error)
	// Withdraw はユーザーと所有データを全削除する。
	Withdraw(ctx context.Context, userID int64) error
}

// UserHandler はユーザー管理のHTTPハンドラー。
type UserHandler struct {
	service UserServiceInterface
}

// NewUserHandler はUserHandlerを生成する。
func NewUserHandler(service UserServiceInterface) *UserHandler {
	return &UserHandler{service: service}
}

// userResponse はユーザー情報のAPIレスポンス。
type userResponse struct {
	ID           int64     `json:"id"`
	Nickname     string    `json:"nickname"`
	ProfileImage string    `json:"profileImage,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

func toUserResponse(user *model.User) userResponse {
	return userResponse{
		ID:           user.ID,
		Nickname:     user.Nickname,
		ProfileImage: user.ProfileImage,
		CreatedAt:    user.CreatedAt,
	}
}

type updateProfileRequest struct {
	Nickname     string `json:"nickname"`
	ProfileImage string `json:"profileImage"`
}

// statisticsResponse は読書活動集計のAPIレスポンス。
type statisticsResponse struct {
	TotalBooks       int     `json:"totalBooks"`
	CurrentlyReading int     `json:"currentlyReading"`
	DroppedBooks     int     `json:"droppedBooks"`
	WishlistCount    int     `json:"wishlistCount"`
	GroupCount       int     `json:"groupCount"`
	AverageRating    float64 `json:"averageRating"`
	BooksThisYear    int     `json:"booksThisYear"`
}

// Me は自分のプロフィールを取得する。
// GET /api/users/me
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	user, err := h.service.Profile(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, toUserResponse(user))
}

// UpdateMe はプロフィールを更新する。
// PUT /api/users/me
func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	var req updateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBody(w)
		return
	}

	user, err := h.service.UpdateProfile(r.Context(), userID, req.Nickname, req.ProfileImage)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, toUserResponse(user))
}

// Statistics は読書活動の集計を取得する。
// GET /api/users/me/statistics
func (h *UserHandler) Statistics(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	stats, err := h.service.Statistics(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, statisticsResponse{
		TotalBooks:       stats.TotalBooks,
		CurrentlyReading: stats.CurrentlyReading,
		DroppedBooks:     stats.DroppedBooks,
		WishlistCount:    stats.WishlistCount,
		GroupCount:       stats.GroupCount,
		AverageRating:    stats.AverageRating,
		BooksThisYear:    stats.BooksThisYear,
	})
}

// Withdraw は退会し、所有データを全削除する。
// DELETE /api/users/me
func (h *UserHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	if err := h.service.Withdraw(r.Context(), userID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
