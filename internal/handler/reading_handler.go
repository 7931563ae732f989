package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/hitoshi/readingclub/internal/middleware"
	"github.com/hitoshi/readingclub/internal/model"
	"github.com/hitoshi/readingclub/internal/reading"
)

// ReadingServiceInterface は読書中・中断本ハンドラーが必要とするサービスインターフェース。
type ReadingServiceInterface interface {
	ListReading(ctx context.Context, userID int64) ([]*model.CurrentlyReading, error)
	GetReading(ctx context.Context, userID, readingID int64) (*model.CurrentlyReading, error)
	CreateReading(ctx context.Context, userID int64, input reading.ReadingInput) (*model.CurrentlyReading, error)
	UpdateReading(ctx context.Context, userID, readingID int64, input reading.ReadingInput) (*model.CurrentlyReading, error)
	UpdateProgress(ctx context.Context, userID, readingID int64, currentPage int) (*model.CurrentlyReading, error)
	DeleteReading(ctx context.Context, userID, readingID int64) error
	ListDropped(ctx context.Context, userID int64, page model.PageRequest) ([]*model.DroppedBook, int64, error)
	GetDropped(ctx context.Context, userID, droppedID int64) (*model.DroppedBook, error)
	CreateDropped(ctx context.Context, userID int64, input reading.DroppedInput) (*model.DroppedBook, error)
	UpdateDropped(ctx context.Context, userID, droppedID int64, input reading.DroppedInput) (*model.DroppedBook, error)
	DeleteDropped(ctx context.Context, userID, droppedID int64) error
}

// ReadingHandler は読書中・中断本管理のHTTPハンドラー。
type ReadingHandler struct {
	service ReadingServiceInterface
}

// NewReadingHandler はReadingHandlerを生成する。
func NewReadingHandler(service ReadingServiceInterface) *ReadingHandler {
	return &ReadingHandler{service: service}
}

// readingResponse は読書中レコードのAPIレスポンス。
type readingResponse struct {
	ID              int64     `json:"id"`
	Title           string    `json:"title"`
	Author          string    `json:"author"`
	CoverImage      string    `json:"coverImage,omitempty"`
	TotalPages      int       `json:"totalPages"`
	CurrentPage     int       `json:"currentPage"`
	ProgressPercent int       `json:"progressPercent"`
	StartedDate     string    `json:"startedDate"`
	TargetDate      string    `json:"targetDate,omitempty"`
	Overdue         bool      `json:"overdue"`
	CreatedAt       time.Time `json:"createdAt"`
}

func toReadingResponse(c *model.CurrentlyReading) readingResponse {
	resp := readingResponse{
		ID:              c.ID,
		Title:           c.Title,
		Author:          c.Author,
		CoverImage:      c.CoverImage,
		TotalPages:      c.TotalPages,
		CurrentPage:     c.CurrentPage,
		ProgressPercent: c.ProgressPercent(),
		StartedDate:     formatDate(c.StartedDate),
		Overdue:         c.IsOverdue(time.Now()),
		CreatedAt:       c.CreatedAt,
	}
	if c.TargetDate != nil {
		resp.TargetDate = formatDate(*c.TargetDate)
	}
	return resp
}

// readingRequest は読書中レコードの登録・更新リクエストのボディ。
type readingRequest struct {
	Title       string `json:"title"`
	Author      string `json:"author"`
	CoverImage  string `json:"coverImage"`
	TotalPages  int    `json:"totalPages"`
	CurrentPage int    `json:"currentPage"`
	StartedDate string `json:"startedDate"`
	TargetDate  string `json:"targetDate"`
}

func (req *readingRequest) toInput() (reading.ReadingInput, error) {
	started, err := parseDate(req.StartedDate)
	if err != nil {
		return reading.ReadingInput{}, err
	}
	input := reading.ReadingInput{
		Title:       req.Title,
		Author:      req.Author,
		CoverImage:  req.CoverImage,
		TotalPages:  req.TotalPages,
		CurrentPage: req.CurrentPage,
		StartedDate: started,
	}
	if req.TargetDate != "" {
		target, err := parseDate(req.TargetDate)
		if err != nil {
			return reading.ReadingInput{}, err
		}
		input.TargetDate = &target
	}
	return input, nil
}

// ListReading は読書中一覧を取得する。
// GET /api/currently-reading
func (h *ReadingHandler) ListReading(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	items, err := h.service.ListReading(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	out := make([]readingResponse, 0, len(items))
	for _, c := range items {
		out = append(out, toReadingResponse(c))
	}
	writeSuccess(w, http.StatusOK, out)
}

// GetReading は読書中レコードを1件取得する。
// GET /api/currently-reading/{id}
func (h *ReadingHandler) GetReading(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	readingID, err := parseIDParam(r, "id")
	if err != nil {
		handleServiceError(w, err)
		return
	}

	c, err := h.service.GetReading(r.Context(), userID, readingID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, toReadingResponse(c))
}

// CreateReading は読書中レコードを登録する。
// POST /api/currently-reading
func (h *ReadingHandler) CreateReading(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	var req readingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBody(w)
		return
	}
	input, err := req.toInput()
	if err != nil {
		handleServiceError(w, err)
		return
	}

	c, err := h.service.CreateReading(r.Context(), userID, input)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, toReadingResponse(c))
}

// UpdateReading は読書中レコードを更新する。
// PUT /api/currently-reading/{id}
func (h *ReadingHandler) UpdateReading(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	readingID, err := parseIDParam(r, "id")
	if err != nil {
		handleServiceError(w, err)
		return
	}

	var req readingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBody(w)
		return
	}
	input, err := req.toInput()
	if err != nil {
		handleServiceError(w, err)
		return
	}

	c, err := h.service.UpdateReading(r.Context(), userID, readingID, input)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, toReadingResponse(c))
}

// progressRequest は進捗更新リクエストのボディ。
type progressRequest struct {
	CurrentPage int `json:"currentPage"`
}

// UpdateProgress は現在ページのみを更新する。
// PATCH /api/currently-reading/{id}/progress
func (h *ReadingHandler) UpdateProgress(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	readingID, err := parseIDParam(r, "id")
	if err != nil {
		handleServiceError(w, err)
		return
	}

	var req progressRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBody(w)
		return
	}

	c, err := h.service.UpdateProgress(r.Context(), userID, readingID, req.CurrentPage)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, toReadingResponse(c))
}

// DeleteReading は読書中レコードを削除する。
// DELETE /api/currently-reading/{id}
func (h *ReadingHandler) DeleteReading(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	readingID, err := parseIDParam(r, "id")
	if err != nil {
		handleServiceError(w, err)
		return
	}

	if err := h.service.DeleteReading(r.Context(), userID, readingID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// droppedResponse は中断本のAPIレスポンス。
type droppedResponse struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Author      string    `json:"author"`
	CoverImage  string    `json:"coverImage,omitempty"`
	DroppedDate string    `json:"droppedDate"`
	Reason      string    `json:"reason,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

func toDroppedResponse(d *model.DroppedBook) droppedResponse {
	return droppedResponse{
		ID:          d.ID,
		Title:       d.Title,
		Author:      d.Author,
		CoverImage:  d.CoverImage,
		DroppedDate: formatDate(d.DroppedDate),
		Reason:      d.Reason,
		CreatedAt:   d.CreatedAt,
	}
}

// droppedRequest は中断本の登録・更新リクエストのボディ。
type droppedRequest struct {
	Title       string `json:"title"`
	Author      string `json:"author"`
	CoverImage  string `json:"coverImage"`
	DroppedDate string `json:"droppedDate"`
	Reason      string `json:"reason"`
}

func (req *droppedRequest) toInput() (reading.DroppedInput, error) {
	dropped, err := parseDate(req.DroppedDate)
	if err != nil {
		return reading.DroppedInput{}, err
	}
	return reading.DroppedInput{
		Title:       req.Title,
		Author:      req.Author,
		CoverImage:  req.CoverImage,
		DroppedDate: dropped,
		Reason:      req.Reason,
	}, nil
}

// ListDropped は中断本一覧を取得する。
// GET /api/dropped-books?page&size
func (h *ReadingHandler) ListDropped(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	page := parsePage(r)
	items, total, err := h.service.ListDropped(r.Context(), userID, page)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	out := make([]droppedResponse, 0, len(items))
	for _, d := range items {
		out = append(out, toDroppedResponse(d))
	}
	writeSuccess(w, http.StatusOK, newPagedPayload(out, page, total))
}

// GetDropped は中断本を1件取得する。
// GET /api/dropped-books/{id}
func (h *ReadingHandler) GetDropped(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	droppedID, err := parseIDParam(r, "id")
	if err != nil {
		handleServiceError(w, err)
		return
	}

	d, err := h.service.GetDropped(r.Context(), userID, droppedID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, toDroppedResponse(d))
}

// CreateDropped は中断本を登録する。
// POST /api/dropped-books
func (h *ReadingHandler) CreateDropped(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	var req droppedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBody(w)
		return
	}
	input, err := req.toInput()
	if err != nil {
		handleServiceError(w, err)
		return
	}

	d, err := h.service.CreateDropped(r.Context(), userID, input)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, toDroppedResponse(d))
}

// UpdateDropped は中断本を更新する。
// PUT /api/dropped-books/{id}
func (h *ReadingHandler) UpdateDropped(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	droppedID, err := parseIDParam(r, "id")
	if err != nil {
		handleServiceError(w, err)
		return
	}

	var req droppedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBody(w)
		return
	}
	input, err := req.toInput()
	if err != nil {
		handleServiceError(w, err)
		return
	}

	d, err := h.service.UpdateDropped(r.Context(), userID, droppedID, input)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, toDroppedResponse(d))
}

// DeleteDropped は中断本を削除する。
// DELETE /api/dropped-books/{id}
func (h *ReadingHandler) DeleteDropped(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	droppedID, err := parseIDParam(r, "id")
	if err != nil {
		handleServiceError(w, err)
		return
	}

	if err := h.service.DeleteDropped(r.Context(), userID, droppedID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
