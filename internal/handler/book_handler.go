package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/hitoshi/readingclub/internal/book"
	"github.com/hitoshi/readingclub/internal/catalog"
	"github.com/hitoshi/readingclub/internal/middleware"
	"github.com/hitoshi/readingclub/internal/model"
)

// BookServiceInterface は読了本ハンドラーが必要とするサービスインターフェース。
type BookServiceInterface interface {
	List(ctx context.Context, userID int64, search, sort string, page model.PageRequest) ([]*model.Book, int64, error)
	Get(ctx context.Context, userID, bookID int64) (*model.Book, error)
	Create(ctx context.Context, userID int64, input book.Input) (*model.Book, error)
	Update(ctx context.Context, userID, bookID int64, input book.Input) (*model.Book, error)
	Delete(ctx context.Context, userID, bookID int64) error
	MonthlyStatistics(ctx context.Context, userID int64, year int) ([]model.MonthlyStats, error)
	CheckDuplicate(ctx context.Context, userID int64, title, author string) (bool, error)
}

// CatalogSearcher は書誌検索のインターフェース。
type CatalogSearcher interface {
	Search(ctx context.Context, query string, maxResults int) ([]catalog.SearchResult, error)
}

// BookHandler は読了本管理のHTTPハンドラー。
type BookHandler struct {
	service BookServiceInterface
	catalog CatalogSearcher
}

// NewBookHandler はBookHandlerを生成する。
func NewBookHandler(service BookServiceInterface, catalog CatalogSearcher) *BookHandler {
	return &BookHandler{service: service, catalog: catalog}
}

// bookResponse は読了本のAPIレスポンス。
type bookResponse struct {
	ID           int64     `json:"id"`
	Title        string    `json:"title"`
	Author       string    `json:"author"`
	CoverImage   string    `json:"coverImage,omitempty"`
	Rating       int       `json:"rating"`
	Review       string    `json:"review,omitempty"`
	FinishedDate string    `json:"finishedDate"`
	CreatedAt    time.Time `json:"createdAt"`
}

func toBookResponse(b *model.Book) bookResponse {
	return bookResponse{
		ID:           b.ID,
		Title:        b.Title,
		Author:       b.Author,
		CoverImage:   b.CoverImage,
		Rating:       b.Rating,
		Review:       b.Review,
		FinishedDate: formatDate(b.FinishedDate),
		CreatedAt:    b.CreatedAt,
	}
}

func toBookResponses(books []*model.Book) []bookResponse {
	out := make([]bookResponse, 0, len(books))
	for _, b := range books {
		out = append(out, toBookResponse(b))
	}
	return out
}

// bookRequest は読了本の登録・更新リクエストのボディ。
type bookRequest struct {
	Title        string `json:"title"`
	Author       string `json:"author"`
	CoverImage   string `json:"coverImage"`
	Rating       int    `json:"rating"`
	Review       string `json:"review"`
	FinishedDate string `json:"finishedDate"`
}

func (req *bookRequest) toInput() (book.Input, error) {
	finished, err := parseDate(req.FinishedDate)
	if err != nil {
		return book.Input{}, err
	}
	return book.Input{
		Title:        req.Title,
		Author:       req.Author,
		CoverImage:   req.CoverImage,
		Rating:       req.Rating,
		Review:       req.Review,
		FinishedDate: finished,
	}, nil
}

// List は読了本一覧を取得する。
// GET /api/books?page&size&search&sort
func (h *BookHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	page := parsePage(r)
	search := r.URL.Query().Get("search")
	sort := r.URL.Query().Get("sort")

	books, total, err := h.service.List(r.Context(), userID, search, sort, page)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, newPagedPayload(toBookResponses(books), page, total))
}

// Get は読了本を1件取得する。
// GET /api/books/{id}
func (h *BookHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	bookID, err := parseIDParam(r, "id")
	if err != nil {
		handleServiceError(w, err)
		return
	}

	b, err := h.service.Get(r.Context(), userID, bookID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, toBookResponse(b))
}

// Create は読了本を登録する。
// POST /api/books
func (h *BookHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	var req bookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBody(w)
		return
	}
	input, err := req.toInput()
	if err != nil {
		handleServiceError(w, err)
		return
	}

	b, err := h.service.Create(r.Context(), userID, input)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, toBookResponse(b))
}

// Update は読了本を更新する。
// PUT /api/books/{id}
func (h *BookHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	bookID, err := parseIDParam(r, "id")
	if err != nil {
		handleServiceError(w, err)
		return
	}

	var req bookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBody(w)
		return
	}
	input, err := req.toInput()
	if err != nil {
		handleServiceError(w, err)
		return
	}

	b, err := h.service.Update(r.Context(), userID, bookID, input)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, toBookResponse(b))
}

// Delete は読了本を削除する。
// DELETE /api/books/{id}
func (h *BookHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	bookID, err := parseIDParam(r, "id")
	if err != nil {
		handleServiceError(w, err)
		return
	}

	if err := h.service.Delete(r.Context(), userID, bookID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// monthlyStatsResponse は月別読了集計のAPIレスポンス。
type monthlyStatsResponse struct {
	Month     string  `json:"month"`
	BookCount int     `json:"bookCount"`
	AvgRating float64 `json:"avgRating"`
}

// MonthlyStatistics は月別の読了冊数・平均評価を取得する。
// GET /api/books/statistics/monthly?year=
func (h *BookHandler) MonthlyStatistics(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	year, _ := strconv.Atoi(r.URL.Query().Get("year"))

	stats, err := h.service.MonthlyStatistics(r.Context(), userID, year)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	out := make([]monthlyStatsResponse, 0, len(stats))
	for _, s := range stats {
		out = append(out, monthlyStatsResponse{
			Month:     s.Month,
			BookCount: s.BookCount,
			AvgRating: s.AvgRating,
		})
	}

	writeSuccess(w, http.StatusOK, out)
}

// CheckDuplicate は同じタイトル・著者の読了本が登録済みかを返す。
// GET /api/books/check-duplicate?title=&author=
func (h *BookHandler) CheckDuplicate(w http.ResponseWriter, r *http.Request) {
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

// Search は外部書誌APIで本を検索する。認証不要。
// GET /api/books/search?query=&maxResults=
func (h *BookHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")
	maxResults, _ := strconv.Atoi(r.URL.Query().Get("maxResults"))

	results, err := h.catalog.Search(r.Context(), query, maxResults)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, results)
}
