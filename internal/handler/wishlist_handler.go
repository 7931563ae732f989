package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/hitoshi/readingclub/internal/middleware"
	"github.com/hitoshi/readingclub/internal/model"
	"github.com/hitoshi/readingclub/internal/wishlist"
)

// WishlistServiceInterface は読みたい本ハンドラーが必要とするサービスインターフェース。
type WishlistServiceInterface interface {
	List(ctx context.Context, userID int64, page model.PageRequest) ([]*model.Wishlist, int64, error)
	Get(ctx context.Context, userID, wishlistID int64) (*model.Wishlist, error)
	Create(ctx context.Context, userID int64, input wishlist.Input) (*model.Wishlist, error)
	Update(ctx context.Context, userID, wishlistID int64, input wishlist.Input) (*model.Wishlist, error)
	Delete(ctx context.Context, userID, wishlistID int64) error
	CheckDuplicate(ctx context.Context, userID int64, title, author string) (bool, error)
}

// WishlistHandler は読みたい本管理のHTTPハンドラー。
type WishlistHandler struct {
	service WishlistServiceInterface
}

// NewWishlistHandler はWishlistHandlerを生成する。
func NewWishlistHandler(service WishlistServiceInterface) *WishlistHandler {
	return &WishlistHandler{service: service}
}

// wishlistResponse は読みたい本のAPIレスポンス。
type wishlistResponse struct {
	ID         int64     `json:"id"`
	Title      string    `json:"title"`
	Author     string    `json:"author"`
	CoverImage string    `json:"coverImage,omitempty"`
	Priority   int       `json:"priority"`
	Memo       string    `json:"memo,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

func toWishlistResponse(item *model.Wishlist) wishlistResponse {
	return wishlistResponse{
		ID:         item.ID,
		Title:      item.Title,
		Author:     item.Author,
		CoverImage: item.CoverImage,
		Priority:   item.Priority,
		Memo:       item.Memo,
		CreatedAt:  item.CreatedAt,
	}
}

// wishlistRequest は読みたい本の登録・更新リクエストのボディ。
type wishlistRequest struct {
	Title      string `json:"title"`
	Author     string `json:"author"`
	CoverImage string `json:"coverImage"`
	Priority   int    `json:"priority"`
	Memo       string `json:"memo"`
}

func (req *wishlistRequest) toInput() wishlist.Input {
	return wishlist.Input{
		Title:      req.Title,
		Author:     req.Author,
		CoverImage: req.CoverImage,
		Priority:   req.Priority,
		Memo:       req.Memo,
	}
}

// List は読みたい本一覧を取得する。
// GET /api/wishlists?page&size
func (h *WishlistHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	page := parsePage(r)
	items, total, err := h.service.List(r.Context(), userID, page)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	out := make([]wishlistResponse, 0, len(items))
	for _, item := range items {
		out = append(out, toWishlistResponse(item))
	}
	writeSuccess(w, http.StatusOK, newPagedPayload(out, page, total))
}

// Get は読みたい本を1件取得する。
// GET /api/wishlists/{id}
func (h *WishlistHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	wishlistID, err := parseIDParam(r, "id")
	if err != nil {
		handleServiceError(w, err)
		return
	}

	item, err := h.service.Get(r.Context(), userID, wishlistID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, toWishlistResponse(item))
}

// Create は読みたい本を登録する。
// POST /api/wishlists
func (h *WishlistHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	var req wishlistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBody(w)
		return
	}

	item, err := h.service.Create(r.Context(), userID, req.toInput())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, toWishlistResponse(item))
}

// Update は読みたい本を更新する。
// PUT /api/wishlists/{id}
func (h *WishlistHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	wishlistID, err := parseIDParam(r, "id")
	if err != nil {
		handleServiceError(w, err)
		return
	}

	var req wishlistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBody(w)
		return
	}

	item, err := h.service.Update(r.Context(), userID, wishlistID, req.toInput())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, toWishlistResponse(item))
}

// Delete は読みたい本を削除する。
// DELETE /api/wishlists/{id}
func (h *WishlistHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	wishlistID, err := parseIDParam(r, "id")
	if err != nil {
		handleServiceError(w, err)
		return
	}

	if err := h.service.Delete(r.Context(), userID, wishlistID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// CheckDuplicate は同じタイトル・著者の本が登録済みかを返す。
// GET /api/wishlists/check-duplicate?title=&author=
func (h *WishlistHandler) CheckDuplicate(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	title := r.URL.Query().Get("title")
	author := r.URL.Query().Get("author")

	exists, err := h.service.CheckDuplicate(r.Context(), userID, title, author)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, map[string]bool{"duplicate": exists})
}
