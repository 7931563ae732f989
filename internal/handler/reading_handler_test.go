package handler

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hitoshi/readingclub/internal/model"
	"github.com/hitoshi/readingclub/internal/reading"
)

// --- モック定義 ---

type mockReadingService struct {
	listReadingFn    func(ctx context.Context, userID int64) ([]*model.CurrentlyReading, error)
	getReadingFn     func(ctx context.Context, userID, readingID int64) (*model.CurrentlyReading, error)
	createReadingFn  func(ctx context.Context, userID int64, input reading.ReadingInput) (*model.CurrentlyReading, error)
	updateReadingFn  func(ctx context.Context, userID, readingID int64, input reading.ReadingInput) (*model.CurrentlyReading, error)
	updateProgressFn func(ctx context.Context, userID, readingID int64, currentPage int) (*model.CurrentlyReading, error)
	deleteReadingFn  func(ctx context.Context, userID, readingID int64) error
	listDroppedFn    func(ctx context.Context, userID int64, page model.PageRequest) ([]*model.DroppedBook, int64, error)
	getDroppedFn     func(ctx context.Context, userID, droppedID int64) (*model.DroppedBook, error)
	createDroppedFn  func(ctx context.Context, userID int64, input reading.DroppedInput) (*model.DroppedBook, error)
	updateDroppedFn  func(ctx context.Context, userID, droppedID int64, input reading.DroppedInput) (*model.DroppedBook, error)
	deleteDroppedFn  func(ctx context.Context, userID, droppedID int64) error
}

var _ ReadingServiceInterface = (*mockReadingService)(nil)

func (m *mockReadingService) ListReading(ctx context.Context, userID int64) ([]*model.CurrentlyReading, error) {
	if m.listReadingFn != nil {
		return m.listReadingFn(ctx, userID)
	}
	return nil, nil
}

func (m *mockReadingService) GetReading(ctx context.Context, userID, readingID int64) (*model.CurrentlyReading, error) {
	if m.getReadingFn != nil {
		return m.getReadingFn(ctx, userID, readingID)
	}
	return nil, model.NewNotFoundError(model.ErrCodeBookNotFound, readingID)
}

func (m *mockReadingService) CreateReading(ctx context.Context, userID int64, input reading.ReadingInput) (*model.CurrentlyReading, error) {
	if m.createReadingFn != nil {
		return m.createReadingFn(ctx, userID, input)
	}
	return nil, nil
}

func (m *mockReadingService) UpdateReading(ctx context.Context, userID, readingID int64, input reading.ReadingInput) (*model.CurrentlyReading, error) {
	if m.updateReadingFn != nil {
		return m.updateReadingFn(ctx, userID, readingID, input)
	}
	return nil, nil
}

func (m *mockReadingService) UpdateProgress(ctx context.Context, userID, readingID int64, currentPage int) (*model.CurrentlyReading, error) {
	if m.updateProgressFn != nil {
		return m.updateProgressFn(ctx, userID, readingID, currentPage)
	}
	return nil, nil
}

func (m *mockReadingService) DeleteReading(ctx context.Context, userID, readingID int64) error {
	if m.deleteReadingFn != nil {
		return m.deleteReadingFn(ctx, userID, readingID)
	}
	return nil
}

func (m *mockReadingService) ListDropped(ctx context.Context, userID int64, page model.PageRequest) ([]*model.DroppedBook, int64, error) {
	if m.listDroppedFn != nil {
		return m.listDroppedFn(ctx, userID, page)
	}
	return nil, 0, nil
}

func (m *mockReadingService) GetDropped(ctx context.Context, userID, droppedID int64) (*model.DroppedBook, error) {
	if m.getDroppedFn != nil {
		return m.getDroppedFn(ctx, userID, droppedID)
	}
	return nil, model.NewNotFoundError(model.ErrCodeBookNotFound, droppedID)
}

func (m *mockReadingService) CreateDropped(ctx context.Context, userID int64, input reading.DroppedInput) (*model.DroppedBook, error) {
	if m.createDroppedFn != nil {
		return m.createDroppedFn(ctx, userID, input)
	}
	return nil, nil
}

func (m *mockReadingService) UpdateDropped(ctx context.Context, userID, droppedID int64, input reading.DroppedInput) (*model.DroppedBook, error) {
	if m.updateDroppedFn != nil {
		return m.updateDroppedFn(ctx, userID, droppedID, input)
	}
	return nil, nil
}

func (m *mockReadingService) DeleteDropped(ctx context.Context, userID, droppedID int64) error {
	if m.deleteDroppedFn != nil {
		return m.deleteDroppedFn(ctx, userID, droppedID)
	}
	return nil
}

// --- テスト ---

func TestReadingHandler_ListReading_ComputesProgress(t *testing.T) {
	svc := &mockReadingService{
		listReadingFn: func(ctx context.Context, userID int64) ([]*model.CurrentlyReading, error) {
			return []*model.CurrentlyReading{
				{ID: 1, Title: "こころ", TotalPages: 200, CurrentPage: 50, StartedDate: time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)},
			}, nil
		},
	}
	h := NewReadingHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/currently-reading", nil)
	req = withPrincipal(req, 42)
	w := httptest.NewRecorder()

	h.ListReading(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	env := decodeEnvelope(t, w)
	items := env["data"].([]any)
	if len(items) != 1 {
		t.Fatalf("items length = %d, want 1", len(items))
	}
	first := items[0].(map[string]any)
	if first["progressPercent"].(float64) != 25 {
		t.Errorf("progressPercent = %v, want 25", first["progressPercent"])
	}
	if first["startedDate"] != "2026-08-01" {
		t.Errorf("startedDate = %v, want 2026-08-01", first["startedDate"])
	}
}

func TestReadingHandler_CreateReading_WithTargetDate(t *testing.T) {
	svc := &mockReadingService{
		createReadingFn: func(ctx context.Context, userID int64, input reading.ReadingInput) (*model.CurrentlyReading, error) {
			if input.TargetDate == nil {
				t.Fatal("targetDate = nil, want value")
			}
			if !input.TargetDate.Equal(time.Date(2026, 9, 30, 0, 0, 0, 0, time.UTC)) {
				t.Errorf("targetDate = %v", input.TargetDate)
			}
			return &model.CurrentlyReading{
				ID: 1, UserID: userID, Title: input.Title,
				TotalPages: input.TotalPages, CurrentPage: input.CurrentPage,
				StartedDate: input.StartedDate, TargetDate: input.TargetDate,
			}, nil
		},
	}
	h := NewReadingHandler(svc)

	body := `{"title":"こころ","totalPages":200,"currentPage":0,"startedDate":"2026-08-01","targetDate":"2026-09-30"}`
	req := httptest.NewRequest(http.MethodPost, "/api/currently-reading", bytes.NewBufferString(body))
	req = withPrincipal(req, 42)
	w := httptest.NewRecorder()

	h.CreateReading(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusCreated)
	}
	data := envelopeData(t, w)
	if data["targetDate"] != "2026-09-30" {
		t.Errorf("targetDate = %v, want 2026-09-30", data["targetDate"])
	}
}

func TestReadingHandler_CreateReading_InvalidDate(t *testing.T) {
	h := NewReadingHandler(&mockReadingService{})

	body := `{"title":"こころ","startedDate":"Aug 1, 2026"}`
	req := httptest.NewRequest(http.MethodPost, "/api/currently-reading", bytes.NewBufferString(body))
	req = withPrincipal(req, 42)
	w := httptest.NewRecorder()

	h.CreateReading(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestReadingHandler_UpdateProgress_Success(t *testing.T) {
	svc := &mockReadingService{
		updateProgressFn: func(ctx context.Context, userID, readingID int64, currentPage int) (*model.CurrentlyReading, error) {
			if currentPage != 120 {
				t.Errorf("currentPage = %d, want 120", currentPage)
			}
			return &model.CurrentlyReading{
				ID: readingID, UserID: userID, Title: "こころ",
				TotalPages: 200, CurrentPage: currentPage,
				StartedDate: time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
			}, nil
		},
	}
	h := NewReadingHandler(svc)

	body := `{"currentPage":120}`
	req := httptest.NewRequest(http.MethodPatch, "/api/currently-reading/1/progress", bytes.NewBufferString(body))
	req = withPrincipal(req, 42)
	req = withChiURLParam(req, "id", "1")
	w := httptest.NewRecorder()

	h.UpdateProgress(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	data := envelopeData(t, w)
	if data["currentPage"].(float64) != 120 {
		t.Errorf("currentPage = %v, want 120", data["currentPage"])
	}
	if data["progressPercent"].(float64) != 60 {
		t.Errorf("progressPercent = %v, want 60", data["progressPercent"])
	}
}

func TestReadingHandler_ListDropped_Paged(t *testing.T) {
	svc := &mockReadingService{
		listDroppedFn: func(ctx context.Context, userID int64, page model.PageRequest) ([]*model.DroppedBook, int64, error) {
			if page.Page != 1 || page.Size != 5 {
				t.Errorf("page = %+v, want page 1 size 5", page)
			}
			return []*model.DroppedBook{
				{ID: 1, Title: "難解な本", DroppedDate: time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC), Reason: "難しすぎた"},
			}, 6, nil
		},
	}
	h := NewReadingHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/dropped-books?page=1&size=5", nil)
	req = withPrincipal(req, 42)
	w := httptest.NewRecorder()

	h.ListDropped(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	data := envelopeData(t, w)
	if data["totalElements"].(float64) != 6 {
		t.Errorf("totalElements = %v, want 6", data["totalElements"])
	}
	if data["totalPages"].(float64) != 2 {
		t.Errorf("totalPages = %v, want 2", data["totalPages"])
	}
}

func TestReadingHandler_DeleteDropped_NotFound(t *testing.T) {
	svc := &mockReadingService{
		deleteDroppedFn: func(ctx context.Context, userID, droppedID int64) error {
			return model.NewNotFoundError(model.ErrCodeBookNotFound, droppedID)
		},
	}
	h := NewReadingHandler(svc)

	req := httptest.NewRequest(http.MethodDelete, "/api/dropped-books/99", nil)
	req = withPrincipal(req, 42)
	req = withChiURLParam(req, "id", "99")
	w := httptest.NewRecorder()

	h.DeleteDropped(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
}
