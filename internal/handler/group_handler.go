package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/hitoshi/readingclub/internal/group"
	"github.com/hitoshi/readingclub/internal/middleware"
	"github.com/hitoshi/readingclub/internal/model"
)

// GroupServiceInterface は読書グループハンドラーが必要とするサービスインターフェース。
type GroupServiceInterface interface {
	ListPublic(ctx context.Context, search string, page model.PageRequest) ([]*model.ReadingGroup, int64, error)
	ListMyGroups(ctx context.Context, userID int64) ([]*model.ReadingGroup, error)
	Get(ctx context.Context, userID, groupID int64) (*model.ReadingGroup, error)
	Create(ctx context.Context, userID int64, input group.Input) (*model.ReadingGroup, error)
	Update(ctx context.Context, userID, groupID int64, input group.Input) (*model.ReadingGroup, error)
	Delete(ctx context.Context, userID, groupID int64) error
	Join(ctx context.Context, userID int64, inviteCode, introduction string) (*model.GroupMember, error)
	Leave(ctx context.Context, userID, groupID int64) error
	RegenerateInviteCode(ctx context.Context, userID, groupID int64) (*model.ReadingGroup, error)
	ListMembers(ctx context.Context, userID, groupID int64) ([]*model.GroupMember, error)
	RemoveMember(ctx context.Context, actorID, groupID, targetUserID int64) error
	ListMeetings(ctx context.Context, userID, groupID int64, upcomingOnly bool) ([]*model.GroupMeeting, error)
	CreateMeeting(ctx context.Context, userID, groupID int64, input group.MeetingInput) (*model.GroupMeeting, error)
	UpdateMeeting(ctx context.Context, userID, meetingID int64, input group.MeetingInput) (*model.GroupMeeting, error)
	DeleteMeeting(ctx context.Context, userID, meetingID int64) error
	ListMonthlyBooks(ctx context.Context, userID, groupID int64) ([]*model.MonthlyBook, error)
	CurrentMonthlyBook(ctx context.Context, userID, groupID int64) (*model.MonthlyBook, error)
	SelectMonthlyBook(ctx context.Context, userID, groupID int64, input group.MonthlyBookInput) (*model.MonthlyBook, error)
	UpdateMonthlyBookStatus(ctx context.Context, userID, monthlyBookID int64, status model.BookStatus) (*model.MonthlyBook, error)
	ListReviews(ctx context.Context, userID, monthlyBookID int64) ([]*model.BookReview, *model.ReviewStatistics, error)
	PostReview(ctx context.Context, userID, monthlyBookID int64, input group.ReviewInput) (*model.BookReview, error)
	UpdateReview(ctx context.Context, userID, reviewID int64, input group.ReviewInput) (*model.BookReview, error)
	DeleteReview(ctx context.Context, userID, reviewID int64) error
}

// GroupHandler は読書グループ管理のHTTPハンドラー。
type GroupHandler struct {
	service GroupServiceInterface
}

// NewGroupHandler はGroupHandlerを生成する。
func NewGroupHandler(service GroupServiceInterface) *GroupHandler {
	return &GroupHandler{service: service}
}

// groupResponse は読書グループのAPIレスポンス。
// 招待コードは作成・再発行のレスポンスにのみ含める。
type groupResponse struct {
	ID              int64     `json:"id"`
	Name            string    `json:"name"`
	Description     string    `json:"description,omitempty"`
	CreatorID       int64     `json:"creatorId"`
	MaxMembers      int       `json:"maxMembers"`
	MemberCount     int       `json:"memberCount"`
	IsPublic        bool      `json:"isPublic"`
	InviteCode      string    `json:"inviteCode,omitempty"`
	Status          string    `json:"status"`
	BookTitle       string    `json:"bookTitle,omitempty"`
	Author          string    `json:"author,omitempty"`
	Publisher       string    `json:"publisher,omitempty"`
	BookCoverImage  string    `json:"bookCoverImage,omitempty"`
	MeetingDateTime time.Time `json:"meetingDateTime"`
	DurationHours   int       `json:"durationHours"`
	HasAssignment   bool      `json:"hasAssignment"`
	MeetingType     string    `json:"meetingType"`
	Location        string    `json:"location,omitempty"`
	MeetingURL      string    `json:"meetingUrl,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
}

func toGroupResponse(g *model.ReadingGroup) groupResponse {
	return groupResponse{
		ID:              g.ID,
		Name:            g.Name,
		Description:     g.Description,
		CreatorID:       g.CreatorID,
		MaxMembers:      g.MaxMembers,
		MemberCount:     g.MemberCount,
		IsPublic:        g.IsPublic,
		Status:          string(g.Status),
		BookTitle:       g.BookTitle,
		Author:          g.Author,
		Publisher:       g.Publisher,
		BookCoverImage:  g.BookCoverImage,
		MeetingDateTime: g.MeetingDateTime,
		DurationHours:   g.DurationHours,
		HasAssignment:   g.HasAssignment,
		MeetingType:     string(g.MeetingType),
		Location:        g.Location,
		MeetingURL:      g.MeetingURL,
		CreatedAt:       g.CreatedAt,
	}
}

func toGroupResponses(groups []*model.ReadingGroup) []groupResponse {
	out := make([]groupResponse, 0, len(groups))
	for _, g := range groups {
		out = append(out, toGroupResponse(g))
	}
	return out
}

// groupRequest は読書グループの作成・更新リクエストのボディ。
type groupRequest struct {
	Name            string `json:"name"`
	Description     string `json:"description"`
	MaxMembers      int    `json:"maxMembers"`
	IsPublic        bool   `json:"isPublic"`
	BookTitle       string `json:"bookTitle"`
	Author          string `json:"author"`
	Publisher       string `json:"publisher"`
	BookCoverImage  string `json:"bookCoverImage"`
	MeetingDateTime string `json:"meetingDateTime"`
	DurationHours   int    `json:"durationHours"`
	HasAssignment   bool   `json:"hasAssignment"`
	MeetingType     string `json:"meetingType"`
	Location        string `json:"location"`
	MeetingURL      string `json:"meetingUrl"`
}

func (req *groupRequest) toInput() (group.Input, error) {
	meetingAt, err := parseDateTime(req.MeetingDateTime)
	if err != nil {
		return group.Input{}, err
	}
	return group.Input{
		Name:            req.Name,
		Description:     req.Description,
		MaxMembers:      req.MaxMembers,
		IsPublic:        req.IsPublic,
		BookTitle:       req.BookTitle,
		Author:          req.Author,
		Publisher:       req.Publisher,
		BookCoverImage:  req.BookCoverImage,
		MeetingDateTime: meetingAt,
		DurationHours:   req.DurationHours,
		HasAssignment:   req.HasAssignment,
		MeetingType:     model.MeetingType(req.MeetingType),
		Location:        req.Location,
		MeetingURL:      req.MeetingURL,
	}, nil
}

// List は公開グループ一覧を取得する。
// GET /api/reading-groups?page&size&search
func (h *GroupHandler) List(w http.ResponseWriter, r *http.Request) {
	if _, err := middleware.UserIDFromContext(r.Context()); err != nil {
		writeUnauthorized(w)
		return
	}

	page := parsePage(r)
	search := r.URL.Query().Get("search")

	groups, total, err := h.service.ListPublic(r.Context(), search, page)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, newPagedPayload(toGroupResponses(groups), page, total))
}

// ListMy は自分が参加しているグループ一覧を取得する。
// GET /api/reading-groups/my
func (h *GroupHandler) ListMy(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	groups, err := h.service.ListMyGroups(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, toGroupResponses(groups))
}

// Get はグループを1件取得する。非公開グループはメンバーのみ。
// GET /api/reading-groups/{id}
func (h *GroupHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	groupID, err := parseIDParam(r, "id")
	if err != nil {
		handleServiceError(w, err)
		return
	}

	g, err := h.service.Get(r.Context(), userID, groupID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, toGroupResponse(g))
}

// Create は読書グループを作成する。作成者はcreatorとして自動参加する。
// POST /api/reading-groups
func (h *GroupHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	var req groupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBody(w)
		return
	}
	input, err := req.toInput()
	if err != nil {
		handleServiceError(w, err)
		return
	}

	g, err := h.service.Create(r.Context(), userID, input)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := toGroupResponse(g)
	resp.InviteCode = g.InviteCode
	writeSuccess(w, http.StatusCreated, resp)
}

// Update はグループ情報を更新する。creator/adminのみ。
// PUT /api/reading-groups/{id}
func (h *GroupHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	groupID, err := parseIDParam(r, "id")
	if err != nil {
		handleServiceError(w, err)
		return
	}

	var req groupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBody(w)
		return
	}
	input, err := req.toInput()
	if err != nil {
		handleServiceError(w, err)
		return
	}

	g, err := h.service.Update(r.Context(), userID, groupID, input)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, toGroupResponse(g))
}

// Delete はグループを削除する。creatorのみ。
// DELETE /api/reading-groups/{id}
func (h *GroupHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	groupID, err := parseIDParam(r, "id")
	if err != nil {
		handleServiceError(w, err)
		return
	}

	if err := h.service.Delete(r.Context(), userID, groupID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// memberResponse はグループメンバーのAPIレスポンス。
type memberResponse struct {
	ID           int64     `json:"id"`
	GroupID      int64     `json:"groupId"`
	UserID       int64     `json:"userId"`
	Role         string    `json:"role"`
	Status       string    `json:"status"`
	Introduction string    `json:"introduction,omitempty"`
	JoinedAt     time.Time `json:"joinedAt"`
}

func toMemberResponse(m *model.GroupMember) memberResponse {
	return memberResponse{
		ID:           m.ID,
		GroupID:      m.GroupID,
		UserID:       m.UserID,
		Role:         string(m.Role),
		Status:       string(m.Status),
		Introduction: m.Introduction,
		JoinedAt:     m.JoinedAt,
	}
}

// joinRequest はグループ参加リクエストのボディ。
type joinRequest struct {
	InviteCode   string `json:"inviteCode"`
	Introduction string `json:"introduction"`
}

// Join は招待コードでグループに参加する。
// POST /api/reading-groups/join
func (h *GroupHandler) Join(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	var req joinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBody(w)
		return
	}

	m, err := h.service.Join(r.Context(), userID, req.InviteCode, req.Introduction)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, toMemberResponse(m))
}

// Leave はグループから脱退する。creatorは脱退できない。
// POST /api/reading-groups/{id}/leave
func (h *GroupHandler) Leave(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	groupID, err := parseIDParam(r, "id")
	if err != nil {
		handleServiceError(w, err)
		return
	}

	if err := h.service.Leave(r.Context(), userID, groupID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// RegenerateInviteCode は招待コードを再発行する。creator/adminのみ。
// POST /api/reading-groups/{id}/invite-code
func (h *GroupHandler) RegenerateInviteCode(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	groupID, err := parseIDParam(r, "id")
	if err != nil {
		handleServiceError(w, err)
		return
	}

	g, err := h.service.RegenerateInviteCode(r.Context(), userID, groupID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, map[string]string{"inviteCode": g.InviteCode})
}

// ListMembers はグループのメンバー一覧を取得する。メンバーのみ。
// GET /api/reading-groups/{id}/members
func (h *GroupHandler) ListMembers(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	groupID, err := parseIDParam(r, "id")
	if err != nil {
		handleServiceError(w, err)
		return
	}

	members, err := h.service.ListMembers(r.Context(), userID, groupID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	out := make([]memberResponse, 0, len(members))
	for _, m := range members {
		out = append(out, toMemberResponse(m))
	}
	writeSuccess(w, http.StatusOK, out)
}

// RemoveMember はメンバーをグループから除名する。creator/adminのみ。
// DELETE /api/reading-groups/{id}/members/{userId}
func (h *GroupHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	actorID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	groupID, err := parseIDParam(r, "id")
	if err != nil {
		handleServiceError(w, err)
		return
	}
	targetUserID, err := parseIDParam(r, "userId")
	if err != nil {
		handleServiceError(w, err)
		return
	}

	if err := h.service.RemoveMember(r.Context(), actorID, groupID, targetUserID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// meetingResponse は読書会のAPIレスポンス。
type meetingResponse struct {
	ID          int64     `json:"id"`
	GroupID     int64     `json:"groupId"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	MeetingDate time.Time `json:"meetingDate"`
	Location    string    `json:"location,omitempty"`
	MeetingURL  string    `json:"meetingUrl,omitempty"`
	CreatedBy   int64     `json:"createdBy"`
	CreatedAt   time.Time `json:"createdAt"`
}

func toMeetingResponse(m *model.GroupMeeting) meetingResponse {
	return meetingResponse{
		ID:          m.ID,
		GroupID:     m.GroupID,
		Title:       m.Title,
		Description: m.Description,
		MeetingDate: m.MeetingDate,
		Location:    m.Location,
		MeetingURL:  m.MeetingURL,
		CreatedBy:   m.CreatedBy,
		CreatedAt:   m.CreatedAt,
	}
}

// meetingRequest は読書会の作成リクエストのボディ。
type meetingRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	MeetingDate string `json:"meetingDate"`
	Location    string `json:"location"`
	MeetingURL  string `json:"meetingUrl"`
}

// ListMeetings はグループの読書会一覧を取得する。メンバーのみ。
// GET /api/reading-groups/{id}/meetings?upcoming=true
func (h *GroupHandler) ListMeetings(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	groupID, err := parseIDParam(r, "id")
	if err != nil {
		handleServiceError(w, err)
		return
	}

	upcomingOnly := r.URL.Query().Get("upcoming") == "true"

	meetings, err := h.service.ListMeetings(r.Context(), userID, groupID, upcomingOnly)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	out := make([]meetingResponse, 0, len(meetings))
	for _, m := range meetings {
		out = append(out, toMeetingResponse(m))
	}
	writeSuccess(w, http.StatusOK, out)
}

// CreateMeeting は読書会を作成する。creator/adminのみ。
// POST /api/reading-groups/{id}/meetings
func (h *GroupHandler) CreateMeeting(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	groupID, err := parseIDParam(r, "id")
	if err != nil {
		handleServiceError(w, err)
		return
	}

	var req meetingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBody(w)
		return
	}
	meetingAt, err := parseDateTime(req.MeetingDate)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	m, err := h.service.CreateMeeting(r.Context(), userID, groupID, group.MeetingInput{
		Title:       req.Title,
		Description: req.Description,
		MeetingDate: meetingAt,
		Location:    req.Location,
		MeetingURL:  req.MeetingURL,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, toMeetingResponse(m))
}

// UpdateMeeting は読書会の内容を更新する。creator/adminのみ。
// PUT /api/reading-groups/meetings/{id}
func (h *GroupHandler) UpdateMeeting(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	meetingID, err := parseIDParam(r, "id")
	if err != nil {
		handleServiceError(w, err)
		return
	}

	var req meetingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBody(w)
		return
	}
	meetingAt, err := parseDateTime(req.MeetingDate)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	m, err := h.service.UpdateMeeting(r.Context(), userID, meetingID, group.MeetingInput{
		Title:       req.Title,
		Description: req.Description,
		MeetingDate: meetingAt,
		Location:    req.Location,
		MeetingURL:  req.MeetingURL,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, toMeetingResponse(m))
}

// DeleteMeeting は読書会を削除する。creator/adminのみ。
// DELETE /api/reading-groups/meetings/{id}
func (h *GroupHandler) DeleteMeeting(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	meetingID, err := parseIDParam(r, "id")
	if err != nil {
		handleServiceError(w, err)
		return
	}

	if err := h.service.DeleteMeeting(r.Context(), userID, meetingID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// monthlyBookResponse は月間課題本のAPIレスポンス。
type monthlyBookResponse struct {
	ID         int64     `json:"id"`
	GroupID    int64     `json:"groupId"`
	Title      string    `json:"title"`
	Author     string    `json:"author"`
	CoverImage string    `json:"coverImage,omitempty"`
	YearMonth  string    `json:"yearMonth"`
	Status     string    `json:"status"`
	SelectedBy int64     `json:"selectedBy"`
	CreatedAt  time.Time `json:"createdAt"`
}

func toMonthlyBookResponse(b *model.MonthlyBook) monthlyBookResponse {
	return monthlyBookResponse{
		ID:         b.ID,
		GroupID:    b.GroupID,
		Title:      b.Title,
		Author:     b.Author,
		CoverImage: b.CoverImage,
		YearMonth:  b.YearMonth,
		Status:     string(b.Status),
		SelectedBy: b.SelectedBy,
		CreatedAt:  b.CreatedAt,
	}
}

// monthlyBookRequest は月間課題本の選定リクエストのボディ。
type monthlyBookRequest struct {
	Title      string `json:"title"`
	Author     string `json:"author"`
	CoverImage string `json:"coverImage"`
	YearMonth  string `json:"yearMonth"`
}

// ListMonthlyBooks は月間課題本一覧を取得する。メンバーのみ。
// GET /api/reading-groups/{id}/monthly-books
func (h *GroupHandler) ListMonthlyBooks(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	groupID, err := parseIDParam(r, "id")
	if err != nil {
		handleServiceError(w, err)
		return
	}

	books, err := h.service.ListMonthlyBooks(r.Context(), userID, groupID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	out := make([]monthlyBookResponse, 0, len(books))
	for _, b := range books {
		out = append(out, toMonthlyBookResponse(b))
	}
	writeSuccess(w, http.StatusOK, out)
}

// CurrentMonthlyBook は今月の課題本を取得する。メンバーのみ。
// GET /api/reading-groups/{id}/monthly-books/current
func (h *GroupHandler) CurrentMonthlyBook(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	groupID, err := parseIDParam(r, "id")
	if err != nil {
		handleServiceError(w, err)
		return
	}

	b, err := h.service.CurrentMonthlyBook(r.Context(), userID, groupID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, toMonthlyBookResponse(b))
}

// SelectMonthlyBook は月間課題本を選定する。creator/adminのみ。
// POST /api/reading-groups/{id}/monthly-books
func (h *GroupHandler) SelectMonthlyBook(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	groupID, err := parseIDParam(r, "id")
	if err != nil {
		handleServiceError(w, err)
		return
	}

	var req monthlyBookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBody(w)
		return
	}

	b, err := h.service.SelectMonthlyBook(r.Context(), userID, groupID, group.MonthlyBookInput{
		Title:      req.Title,
		Author:     req.Author,
		CoverImage: req.CoverImage,
		YearMonth:  req.YearMonth,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, toMonthlyBookResponse(b))
}

// statusRequest は課題本のステータス更新リクエストのボディ。
type statusRequest struct {
	Status string `json:"status"`
}

// UpdateMonthlyBookStatus は課題本の進行状態を更新する。creator/adminのみ。
// PATCH /api/reading-groups/monthly-books/{id}/status
func (h *GroupHandler) UpdateMonthlyBookStatus(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	monthlyBookID, err := parseIDParam(r, "id")
	if err != nil {
		handleServiceError(w, err)
		return
	}

	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBody(w)
		return
	}

	b, err := h.service.UpdateMonthlyBookStatus(r.Context(), userID, monthlyBookID, model.BookStatus(req.Status))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, toMonthlyBookResponse(b))
}

// reviewResponse は課題本の感想のAPIレスポンス。
type reviewResponse struct {
	ID            int64     `json:"id"`
	MonthlyBookID int64     `json:"monthlyBookId"`
	UserID        int64     `json:"userId"`
	Rating        int       `json:"rating"`
	Content       string    `json:"content"`
	IsPublic      bool      `json:"isPublic"`
	CreatedAt     time.Time `json:"createdAt"`
}

func toReviewResponse(rv *model.BookReview) reviewResponse {
	return reviewResponse{
		ID:            rv.ID,
		MonthlyBookID: rv.MonthlyBookID,
		UserID:        rv.UserID,
		Rating:        rv.Rating,
		Content:       rv.Content,
		IsPublic:      rv.IsPublic,
		CreatedAt:     rv.CreatedAt,
	}
}

// reviewRequest は感想の投稿・更新リクエストのボディ。
type reviewRequest struct {
	Rating   int    `json:"rating"`
	Content  string `json:"content"`
	IsPublic bool   `json:"isPublic"`
}

// reviewListResponse は感想一覧と集計のAPIレスポンス。
type reviewListResponse struct {
	Reviews       []reviewResponse `json:"reviews"`
	ReviewCount   int              `json:"reviewCount"`
	AverageRating float64          `json:"averageRating"`
}

// ListReviews は課題本の感想一覧と集計を取得する。メンバーのみ。
// GET /api/reading-groups/monthly-books/{id}/reviews
func (h *GroupHandler) ListReviews(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	monthlyBookID, err := parseIDParam(r, "id")
	if err != nil {
		handleServiceError(w, err)
		return
	}

	reviews, stats, err := h.service.ListReviews(r.Context(), userID, monthlyBookID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := reviewListResponse{Reviews: make([]reviewResponse, 0, len(reviews))}
	for _, rv := range reviews {
		resp.Reviews = append(resp.Reviews, toReviewResponse(rv))
	}
	if stats != nil {
		resp.ReviewCount = stats.ReviewCount
		resp.AverageRating = stats.AverageRating
	}
	writeSuccess(w, http.StatusOK, resp)
}

// PostReview は課題本に感想を投稿する。メンバーのみ、1人1件。
// POST /api/reading-groups/monthly-books/{id}/reviews
func (h *GroupHandler) PostReview(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	monthlyBookID, err := parseIDParam(r, "id")
	if err != nil {
		handleServiceError(w, err)
		return
	}

	var req reviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBody(w)
		return
	}

	rv, err := h.service.PostReview(r.Context(), userID, monthlyBookID, group.ReviewInput{
		Rating:   req.Rating,
		Content:  req.Content,
		IsPublic: req.IsPublic,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, toReviewResponse(rv))
}

// UpdateReview は感想を更新する。投稿者のみ。
// PUT /api/reading-groups/reviews/{id}
func (h *GroupHandler) UpdateReview(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	reviewID, err := parseIDParam(r, "id")
	if err != nil {
		handleServiceError(w, err)
		return
	}

	var req reviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBody(w)
		return
	}

	rv, err := h.service.UpdateReview(r.Context(), userID, reviewID, group.ReviewInput{
		Rating:   req.Rating,
		Content:  req.Content,
		IsPublic: req.IsPublic,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, toReviewResponse(rv))
}

// DeleteReview は感想を削除する。投稿者またはcreator/admin。
// DELETE /api/reading-groups/reviews/{id}
func (h *GroupHandler) DeleteReview(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	reviewID, err := parseIDParam(r, "id")
	if err != nil {
		handleServiceError(w, err)
		return
	}

	if err := h.service.DeleteReview(r.Context(), userID, reviewID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
