package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/hitoshi/readingclub/internal/middleware"
	"github.com/hitoshi/readingclub/internal/model"
	"github.com/hitoshi/readingclub/internal/post"
)

// PostServiceInterface はコミュニティ投稿ハンドラーが必要とするサービスインターフェース。
type PostServiceInterface interface {
	List(ctx context.Context, postType model.PostType, search string, page model.PageRequest) ([]*model.Post, int64, error)
	ListMine(ctx context.Context, userID int64, page model.PageRequest) ([]*model.Post, int64, error)
	Get(ctx context.Context, postID int64) (*model.Post, error)
	Create(ctx context.Context, userID int64, input post.Input) (*model.Post, error)
	Update(ctx context.Context, userID, postID int64, input post.Input) (*model.Post, error)
	Delete(ctx context.Context, userID, postID int64) error
	ListComments(ctx context.Context, postID int64) ([]*model.Comment, error)
	ListReplies(ctx context.Context, commentID int64) ([]*model.Comment, error)
	CreateComment(ctx context.Context, userID, postID int64, parentCommentID *int64, content string) (*model.Comment, error)
	UpdateComment(ctx context.Context, userID, commentID int64, content string) (*model.Comment, error)
	DeleteComment(ctx context.Context, userID, commentID int64) error
}

// PostHandler はコミュニティ投稿・コメントのHTTPハンドラー。
type PostHandler struct {
	service PostServiceInterface
}

// NewPostHandler はPostHandlerを生成する。
func NewPostHandler(service PostServiceInterface) *PostHandler {
	return &PostHandler{service: service}
}

// postResponse は投稿のAPIレスポンス。
type postResponse struct {
	ID           int64     `json:"id"`
	UserID       int64     `json:"userId"`
	PostType     string    `json:"postType"`
	Title        string    `json:"title"`
	Content      string    `json:"content"`
	BookTitle    string    `json:"bookTitle,omitempty"`
	BookAuthor   string    `json:"bookAuthor,omitempty"`
	BookISBN     string    `json:"bookIsbn,omitempty"`
	CommentCount int       `json:"commentCount"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func toPostResponse(p *model.Post) postResponse {
	return postResponse{
		ID:           p.ID,
		UserID:       p.UserID,
		PostType:     string(p.PostType),
		Title:        p.Title,
		Content:      p.Content,
		BookTitle:    p.BookTitle,
		BookAuthor:   p.BookAuthor,
		BookISBN:     p.BookISBN,
		CommentCount: p.CommentCount,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}

func toPostResponses(posts []*model.Post) []postResponse {
	out := make([]postResponse, 0, len(posts))
	for _, p := range posts {
		out = append(out, toPostResponse(p))
	}
	return out
}

// postRequest は投稿の作成・更新リクエストのボディ。
type postRequest struct {
	PostType   string `json:"postType"`
	Title      string `json:"title"`
	Content    string `json:"content"`
	BookTitle  string `json:"bookTitle"`
	BookAuthor string `json:"bookAuthor"`
	BookISBN   string `json:"bookIsbn"`
}

func (req *postRequest) toInput() post.Input {
	return post.Input{
		PostType:   model.PostType(req.PostType),
		Title:      req.Title,
		Content:    req.Content,
		BookTitle:  req.BookTitle,
		BookAuthor: req.BookAuthor,
		BookISBN:   req.BookISBN,
	}
}

// List は投稿一覧を取得する。
// GET /api/posts?page&size&postType&search
func (h *PostHandler) List(w http.ResponseWriter, r *http.Request) {
	if _, err := middleware.UserIDFromContext(r.Context()); err != nil {
		writeUnauthorized(w)
		return
	}

	page := parsePage(r)
	postType := model.PostType(r.URL.Query().Get("postType"))
	search := r.URL.Query().Get("search")

	posts, total, err := h.service.List(r.Context(), postType, search, page)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, newPagedPayload(toPostResponses(posts), page, total))
}

// ListMine は自分の投稿一覧を取得する。
// GET /api/posts/my
func (h *PostHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	page := parsePage(r)
	posts, total, err := h.service.ListMine(r.Context(), userID, page)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, newPagedPayload(toPostResponses(posts), page, total))
}

// Get は投稿を1件取得する。
// GET /api/posts/{id}
func (h *PostHandler) Get(w http.ResponseWriter, r *http.Request) {
	if _, err := middleware.UserIDFromContext(r.Context()); err != nil {
		writeUnauthorized(w)
		return
	}

	postID, err := parseIDParam(r, "id")
	if err != nil {
		handleServiceError(w, err)
		return
	}

	p, err := h.service.Get(r.Context(), postID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, toPostResponse(p))
}

// Create は投稿を作成する。
// POST /api/posts
func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	var req postRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBody(w)
		return
	}

	p, err := h.service.Create(r.Context(), userID, req.toInput())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, toPostResponse(p))
}

// Update は投稿を更新する。投稿者のみ。
// PUT /api/posts/{id}
func (h *PostHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	postID, err := parseIDParam(r, "id")
	if err != nil {
		handleServiceError(w, err)
		return
	}

	var req postRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBody(w)
		return
	}

	p, err := h.service.Update(r.Context(), userID, postID, req.toInput())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, toPostResponse(p))
}

// Delete は投稿を削除する。投稿者のみ。
// DELETE /api/posts/{id}
func (h *PostHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	postID, err := parseIDParam(r, "id")
	if err != nil {
		handleServiceError(w, err)
		return
	}

	if err := h.service.Delete(r.Context(), userID, postID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// commentResponse はコメントのAPIレスポンス。
type commentResponse struct {
	ID              int64     `json:"id"`
	PostID          int64     `json:"postId"`
	UserID          int64     `json:"userId"`
	ParentCommentID *int64    `json:"parentCommentId,omitempty"`
	Content         string    `json:"content"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

func toCommentResponse(c *model.Comment) commentResponse {
	return commentResponse{
		ID:              c.ID,
		PostID:          c.PostID,
		UserID:          c.UserID,
		ParentCommentID: c.ParentCommentID,
		Content:         c.Content,
		CreatedAt:       c.CreatedAt,
		UpdatedAt:       c.UpdatedAt,
	}
}

func toCommentResponses(comments []*model.Comment) []commentResponse {
	out := make([]commentResponse, 0, len(comments))
	for _, c := range comments {
		out = append(out, toCommentResponse(c))
	}
	return out
}

// commentRequest はコメントの投稿・更新リクエストのボディ。
type commentRequest struct {
	Content         string `json:"content"`
	ParentCommentID *int64 `json:"parentCommentId"`
}

// ListComments は投稿のコメント一覧を取得する。
// GET /api/posts/{id}/comments
func (h *PostHandler) ListComments(w http.ResponseWriter, r *http.Request) {
	if _, err := middleware.UserIDFromContext(r.Context()); err != nil {
		writeUnauthorized(w)
		return
	}

	postID, err := parseIDParam(r, "id")
	if err != nil {
		handleServiceError(w, err)
		return
	}

	comments, err := h.service.ListComments(r.Context(), postID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, toCommentResponses(comments))
}

// CreateComment は投稿にコメントする。parentCommentIdを指定すると返信になる。
// POST /api/posts/{id}/comments
func (h *PostHandler) CreateComment(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	postID, err := parseIDParam(r, "id")
	if err != nil {
		handleServiceError(w, err)
		return
	}

	var req commentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBody(w)
		return
	}

	c, err := h.service.CreateComment(r.Context(), userID, postID, req.ParentCommentID, req.Content)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, toCommentResponse(c))
}

// ListReplies はコメントへの返信一覧を取得する。
// GET /api/comments/{id}/replies
func (h *PostHandler) ListReplies(w http.ResponseWriter, r *http.Request) {
	if _, err := middleware.UserIDFromContext(r.Context()); err != nil {
		writeUnauthorized(w)
		return
	}

	commentID, err := parseIDParam(r, "id")
	if err != nil {
		handleServiceError(w, err)
		return
	}

	replies, err := h.service.ListReplies(r.Context(), commentID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, toCommentResponses(replies))
}

// UpdateComment はコメントを更新する。投稿者のみ。
// PUT /api/comments/{id}
func (h *PostHandler) UpdateComment(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	commentID, err := parseIDParam(r, "id")
	if err != nil {
		handleServiceError(w, err)
		return
	}

	var req commentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBody(w)
		return
	}

	c, err := h.service.UpdateComment(r.Context(), userID, commentID, req.Content)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, toCommentResponse(c))
}

// DeleteComment はコメントを削除する。投稿者のみ。
// DELETE /api/comments/{id}
func (h *PostHandler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	commentID, err := parseIDParam(r, "id")
	if err != nil {
		handleServiceError(w, err)
		return
	}

	if err := h.service.DeleteComment(r.Context(), userID, commentID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
