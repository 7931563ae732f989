// Package group は読書グループ（読書会）管理のドメインロジックを提供する。
package group

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/readingclub/internal/model"
	"github.com/hitoshi/readingclub/internal/repository"
	"github.com/hitoshi/readingclub/internal/security"
)

const (
	minMembers = 2
	maxMembers = 100
)

// yearMonthPattern は課題本の対象年月の形式（"2026-08"）。
var yearMonthPattern = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)

// Input は読書グループの作成・更新内容を表す。
type Input struct {
	Name            string
	Description     string
	MaxMembers      int
	IsPublic        bool
	BookTitle       string
	Author          string
	Publisher       string
	BookCoverImage  string
	MeetingDateTime time.Time
	DurationHours   int
	HasAssignment   bool
	MeetingType     model.MeetingType
	Location        string
	MeetingURL      string
}

// MeetingInput は読書会（個別の集まり）の作成内容を表す。
type MeetingInput struct {
	Title       string
	Description string
	MeetingDate time.Time
	Location    string
	MeetingURL  string
}

// MonthlyBookInput は月間課題本の選定内容を表す。
type MonthlyBookInput struct {
	Title      string
	Author     string
	CoverImage string
	YearMonth  string
}

// ReviewInput は課題本の感想の投稿・更新内容を表す。
type ReviewInput struct {
	Rating   int
	Content  string
	IsPublic bool
}

// Service は読書グループ管理のサービス層。
// グループ・メンバー・読書会・月間課題本・感想のビジネスロジックを提供する。
type Service struct {
	groupRepo       repository.ReadingGroupRepository
	memberRepo      repository.GroupMemberRepository
	meetingRepo     repository.GroupMeetingRepository
	monthlyBookRepo repository.MonthlyBookRepository
	reviewRepo      repository.BookReviewRepository
	sanitizer       security.ContentSanitizerService
	guard           security.URLGuardService
	newInviteCode   func() string
	now             func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	groupRepo repository.ReadingGroupRepository,
	memberRepo repository.GroupMemberRepository,
	meetingRepo repository.GroupMeetingRepository,
	monthlyBookRepo repository.MonthlyBookRepository,
	reviewRepo repository.BookReviewRepository,
	sanitizer security.ContentSanitizerService,
	guard security.URLGuardService,
) *Service {
	return &Service{
		groupRepo:       groupRepo,
		memberRepo:      memberRepo,
		meetingRepo:     meetingRepo,
		monthlyBookRepo: monthlyBookRepo,
		reviewRepo:      reviewRepo,
		sanitizer:       sanitizer,
		guard:           guard,
		newInviteCode:   func() string { return uuid.NewString() },
		now:             time.Now,
	}
}

// --- グループ ---

// ListPublic は公開中のグループ一覧を返す。
func (s *Service) ListPublic(ctx context.Context, search string, page model.PageRequest) ([]*model.ReadingGroup, int64, error) {
	groups, total, err := s.groupRepo.ListPublic(ctx, strings.TrimSpace(search), page)
	if err != nil {
		return nil, 0, fmt.Errorf("公開グループ一覧の取得に失敗しました: %w", err)
	}
	return groups, total, nil
}

// ListMyGroups はユーザーが所属するグループ一覧を返す。
func (s *Service) ListMyGroups(ctx context.Context, userID int64) ([]*model.ReadingGroup, error) {
	groups, err := s.groupRepo.ListByMemberUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("所属グループ一覧の取得に失敗しました: %w", err)
	}
	return groups, nil
}

// Get は指定IDのグループを取得する。
// 非公開グループはメンバーのみ閲覧できる。
func (s *Service) Get(ctx context.Context, userID, groupID int64) (*model.ReadingGroup, error) {
	group, err := s.findGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}

	if !group.IsPublic {
		if _, err := s.activeMember(ctx, groupID, userID); err != nil {
			return nil, err
		}
	}

	return group, nil
}

// Create はグループを作成し、作成者をcreatorロールのメンバーとして登録する。
// 招待コードはUUIDで採番される。
func (s *Service) Create(ctx context.Context, userID int64, input Input) (*model.ReadingGroup, error) {
	if err := s.validateGroup(&input); err != nil {
		return nil, err
	}

	now := s.now()
	group := &model.ReadingGroup{
		Name:            input.Name,
		Description:     input.Description,
		CreatorID:       userID,
		MaxMembers:      input.MaxMembers,
		IsPublic:        input.IsPublic,
		InviteCode:      s.newInviteCode(),
		Status:          model.GroupStatusActive,
		BookTitle:       input.BookTitle,
		Author:          input.Author,
		Publisher:       input.Publisher,
		BookCoverImage:  input.BookCoverImage,
		MeetingDateTime: input.MeetingDateTime,
		DurationHours:   input.DurationHours,
		HasAssignment:   input.HasAssignment,
		MeetingType:     input.MeetingType,
		Location:        input.Location,
		MeetingURL:      input.MeetingURL,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.groupRepo.Create(ctx, group); err != nil {
		return nil, fmt.Errorf("グループの作成に失敗しました: %w", err)
	}

	member := &model.GroupMember{
		GroupID:  group.ID,
		UserID:   userID,
		Role:     model.RoleCreator,
		Status:   model.MemberStatusActive,
		JoinedAt: now,
	}
	if err := s.memberRepo.Create(ctx, member); err != nil {
		return nil, fmt.Errorf("作成者のメンバー登録に失敗しました: %w", err)
	}

	group.MemberCount = 1

	slog.Info("reading group created",
		slog.Int64("group_id", group.ID),
		slog.Int64("creator_id", userID),
	)

	return group, nil
}

// Update はグループ情報を更新する。creator/adminロールのみ実行できる。
func (s *Service) Update(ctx context.Context, userID, groupID int64, input Input) (*model.ReadingGroup, error) {
	group, err := s.findGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if _, err := s.managingMember(ctx, groupID, userID); err != nil {
		return nil, err
	}
	if err := s.validateGroup(&input); err != nil {
		return nil, err
	}

	group.Name = input.Name
	group.Description = input.Description
	group.MaxMembers = input.MaxMembers
	group.IsPublic = input.IsPublic
	group.BookTitle = input.BookTitle
	group.Author = input.Author
	group.Publisher = input.Publisher
	group.BookCoverImage = input.BookCoverImage
	group.MeetingDateTime = input.MeetingDateTime
	group.DurationHours = input.DurationHours
	group.HasAssignment = input.HasAssignment
	group.MeetingType = input.MeetingType
	group.Location = input.Location
	group.MeetingURL = input.MeetingURL
	group.UpdatedAt = s.now()

	if err := s.groupRepo.Update(ctx, group); err != nil {
		return nil, fmt.Errorf("グループの更新に失敗しました: %w", err)
	}

	return group, nil
}

// Delete はグループを削除する。作成者のみ実行できる。
// メンバー・読書会・課題本・感想はCASCADE削除される。
func (s *Service) Delete(ctx context.Context, userID, groupID int64) error {
	group, err := s.findGroup(ctx, groupID)
	if err != nil {
		return err
	}
	if group.CreatorID != userID {
		return model.NewForbiddenError()
	}

	if err := s.groupRepo.DeleteByID(ctx, groupID); err != nil {
		return fmt.Errorf("グループの削除に失敗しました: %w", err)
	}

	slog.Info("reading group deleted",
		slog.Int64("group_id", groupID),
		slog.Int64("creator_id", userID),
	)

	return nil
}

// --- メンバー ---

// Join は招待コードでグループに参加する。
func (s *Service) Join(ctx context.Context, userID int64, inviteCode, introduction string) (*model.GroupMember, error) {
	inviteCode = strings.TrimSpace(inviteCode)
	if inviteCode == "" {
		return nil, model.NewValidationError("招待コードを入力してください。")
	}

	group, err := s.groupRepo.FindByInviteCode(ctx, inviteCode)
	if err != nil {
		return nil, fmt.Errorf("グループの検索に失敗しました: %w", err)
	}
	if group == nil || group.Status != model.GroupStatusActive {
		return nil, model.NewNotFoundError(model.ErrCodeGroupNotFound, 0)
	}

	existing, err := s.memberRepo.FindByGroupAndUser(ctx, group.ID, userID)
	if err != nil {
		return nil, fmt.Errorf("メンバーの検索に失敗しました: %w", err)
	}
	if existing != nil {
		if existing.Status == model.MemberStatusBanned {
			return nil, model.NewForbiddenError()
		}
		return nil, model.NewAlreadyMemberError()
	}

	if group.IsFull() {
		return nil, model.NewGroupFullError()
	}

	member := &model.GroupMember{
		GroupID:      group.ID,
		UserID:       userID,
		Role:         model.RoleMember,
		Status:       model.MemberStatusActive,
		Introduction: strings.TrimSpace(s.sanitizer.SanitizeStrict(introduction)),
		JoinedAt:     s.now(),
	}

	if err := s.memberRepo.Create(ctx, member); err != nil {
		if errors.Is(err, model.ErrDuplicateMember) {
			return nil, model.NewAlreadyMemberError()
		}
		return nil, fmt.Errorf("メンバーの登録に失敗しました: %w", err)
	}

	return member, nil
}

// Leave はグループから脱退する。作成者は脱退できない（グループ削除を使う）。
func (s *Service) Leave(ctx context.Context, userID, groupID int64) error {
	member, err := s.activeMember(ctx, groupID, userID)
	if err != nil {
		return err
	}
	if member.Role == model.RoleCreator {
		return model.NewForbiddenError()
	}

	if err := s.memberRepo.DeleteByID(ctx, member.ID); err != nil {
		return fmt.Errorf("メンバーの削除に失敗しました: %w", err)
	}

	return nil
}

// RegenerateInviteCode は招待コードを再発行する。creator/adminロールのみ実行できる。
func (s *Service) RegenerateInviteCode(ctx context.Context, userID, groupID int64) (*model.ReadingGroup, error) {
	group, err := s.findGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if _, err := s.managingMember(ctx, groupID, userID); err != nil {
		return nil, err
	}

	group.InviteCode = s.newInviteCode()
	group.UpdatedAt = s.now()

	if err := s.groupRepo.Update(ctx, group); err != nil {
		return nil, fmt.Errorf("招待コードの更新に失敗しました: %w", err)
	}

	return group, nil
}

// ListMembers はグループのactiveメンバー一覧を返す。メンバーのみ閲覧できる。
func (s *Service) ListMembers(ctx context.Context, userID, groupID int64) ([]*model.GroupMember, error) {
	if _, err := s.findGroup(ctx, groupID); err != nil {
		return nil, err
	}
	if _, err := s.activeMember(ctx, groupID, userID); err != nil {
		return nil, err
	}

	members, err := s.memberRepo.ListByGroupID(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("メンバー一覧の取得に失敗しました: %w", err)
	}
	return members, nil
}

// RemoveMember はメンバーをグループから除名する。creator/adminロールのみ実行でき、
// 作成者は除名できない。
func (s *Service) RemoveMember(ctx context.Context, actorID, groupID, targetUserID int64) error {
	if _, err := s.findGroup(ctx, groupID); err != nil {
		return err
	}
	if _, err := s.managingMember(ctx, groupID, actorID); err != nil {
		return err
	}

	target, err := s.memberRepo.FindByGroupAndUser(ctx, groupID, targetUserID)
	if err != nil {
		return fmt.Errorf("メンバーの検索に失敗しました: %w", err)
	}
	if target == nil {
		return model.NewNotMemberError()
	}
	if target.Role == model.RoleCreator {
		return model.NewForbiddenError()
	}

	if err := s.memberRepo.DeleteByID(ctx, target.ID); err != nil {
		return fmt.Errorf("メンバーの除名に失敗しました: %w", err)
	}

	slog.Info("group member removed",
		slog.Int64("group_id", groupID),
		slog.Int64("target_user_id", targetUserID),
		slog.Int64("actor_id", actorID),
	)

	return nil
}

// --- 読書会 ---

// ListMeetings はグループの読書会一覧を返す。メンバーのみ閲覧できる。
// upcomingOnlyがtrueの場合は未来の読書会のみ返す。
func (s *Service) ListMeetings(ctx context.Context, userID, groupID int64, upcomingOnly bool) ([]*model.GroupMeeting, error) {
	if _, err := s.findGroup(ctx, groupID); err != nil {
		return nil, err
	}
	if _, err := s.activeMember(ctx, groupID, userID); err != nil {
		return nil, err
	}

	var (
		meetings []*model.GroupMeeting
		err      error
	)
	if upcomingOnly {
		meetings, err = s.meetingRepo.ListUpcomingByGroupID(ctx, groupID, s.now())
	} else {
		meetings, err = s.meetingRepo.ListByGroupID(ctx, groupID)
	}
	if err != nil {
		return nil, fmt.Errorf("読書会一覧の取得に失敗しました: %w", err)
	}
	return meetings, nil
}

// CreateMeeting は読書会を作成する。creator/adminロールのみ実行できる。
func (s *Service) CreateMeeting(ctx context.Context, userID, groupID int64, input MeetingInput) (*model.GroupMeeting, error) {
	if _, err := s.findGroup(ctx, groupID); err != nil {
		return nil, err
	}
	if _, err := s.managingMember(ctx, groupID, userID); err != nil {
		return nil, err
	}

	input.Title = strings.TrimSpace(s.sanitizer.SanitizeStrict(input.Title))
	input.Description = s.sanitizer.Sanitize(input.Description)
	if input.Title == "" {
		return nil, model.NewValidationError("読書会のタイトルを入力してください。")
	}
	if input.MeetingDate.IsZero() {
		return nil, model.NewValidationError("開催日時を入力してください。")
	}
	if input.MeetingURL != "" {
		if err := s.guard.ValidateURL(input.MeetingURL); err != nil {
			return nil, model.NewValidationError("ミーティングURLが不正です。")
		}
	}

	now := s.now()
	meeting := &model.GroupMeeting{
		GroupID:     groupID,
		Title:       input.Title,
		Description: input.Description,
		MeetingDate: input.MeetingDate,
		Location:    strings.TrimSpace(s.sanitizer.SanitizeStrict(input.Location)),
		MeetingURL:  input.MeetingURL,
		CreatedBy:   userID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.meetingRepo.Create(ctx, meeting); err != nil {
		return nil, fmt.Errorf("読書会の作成に失敗しました: %w", err)
	}

	return meeting, nil
}

// UpdateMeeting は読書会の内容を更新する。creator/adminロールのみ実行できる。
func (s *Service) UpdateMeeting(ctx context.Context, userID, meetingID int64, input MeetingInput) (*model.GroupMeeting, error) {
	meeting, err := s.meetingRepo.FindByID(ctx, meetingID)
	if err != nil {
		return nil, fmt.Errorf("読書会の取得に失敗しました: %w", err)
	}
	if meeting == nil {
		return nil, model.NewNotFoundError(model.ErrCodeMeetingNotFound, meetingID)
	}
	if _, err := s.managingMember(ctx, meeting.GroupID, userID); err != nil {
		return nil, err
	}

	input.Title = strings.TrimSpace(s.sanitizer.SanitizeStrict(input.Title))
	input.Description = s.sanitizer.Sanitize(input.Description)
	if input.Title == "" {
		return nil, model.NewValidationError("読書会のタイトルを入力してください。")
	}
	if input.MeetingDate.IsZero() {
		return nil, model.NewValidationError("開催日時を入力してください。")
	}
	if input.MeetingURL != "" {
		if err := s.guard.ValidateURL(input.MeetingURL); err != nil {
			return nil, model.NewValidationError("ミーティングURLが不正です。")
		}
	}

	meeting.Title = input.Title
	meeting.Description = input.Description
	meeting.MeetingDate = input.MeetingDate
	meeting.Location = strings.TrimSpace(s.sanitizer.SanitizeStrict(input.Location))
	meeting.MeetingURL = input.MeetingURL
	meeting.UpdatedAt = s.now()

	if err := s.meetingRepo.Update(ctx, meeting); err != nil {
		return nil, fmt.Errorf("読書会の更新に失敗しました: %w", err)
	}

	return meeting, nil
}

// DeleteMeeting は読書会を削除する。creator/adminロールのみ実行できる。
func (s *Service) DeleteMeeting(ctx context.Context, userID, meetingID int64) error {
	meeting, err := s.meetingRepo.FindByID(ctx, meetingID)
	if err != nil {
		return fmt.Errorf("読書会の取得に失敗しました: %w", err)
	}
	if meeting == nil {
		return model.NewNotFoundError(model.ErrCodeMeetingNotFound, meetingID)
	}
	if _, err := s.managingMember(ctx, meeting.GroupID, userID); err != nil {
		return err
	}

	if err := s.meetingRepo.DeleteByID(ctx, meetingID); err != nil {
		return fmt.Errorf("読書会の削除に失敗しました: %w", err)
	}

	return nil
}

// --- 月間課題本 ---

// ListMonthlyBooks はグループの課題本一覧を返す。メンバーのみ閲覧できる。
func (s *Service) ListMonthlyBooks(ctx context.Context, userID, groupID int64) ([]*model.MonthlyBook, error) {
	if _, err := s.findGroup(ctx, groupID); err != nil {
		return nil, err
	}
	if _, err := s.activeMember(ctx, groupID, userID); err != nil {
		return nil, err
	}

	books, err := s.monthlyBookRepo.ListByGroupID(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("課題本一覧の取得に失敗しました: %w", err)
	}
	return books, nil
}

// CurrentMonthlyBook は今月の課題本を返す。メンバーのみ閲覧できる。
// 今月分が未選定の場合はNotFound。
func (s *Service) CurrentMonthlyBook(ctx context.Context, userID, groupID int64) (*model.MonthlyBook, error) {
	if _, err := s.findGroup(ctx, groupID); err != nil {
		return nil, err
	}
	if _, err := s.activeMember(ctx, groupID, userID); err != nil {
		return nil, err
	}

	yearMonth := s.now().Format("2006-01")
	book, err := s.monthlyBookRepo.FindByGroupAndYearMonth(ctx, groupID, yearMonth)
	if err != nil {
		return nil, fmt.Errorf("今月の課題本の取得に失敗しました: %w", err)
	}
	if book == nil {
		return nil, model.NewNotFoundError(model.ErrCodeBookNotFound, groupID)
	}
	return book, nil
}

// SelectMonthlyBook は月間課題本を選定する。creator/adminロールのみ実行できる。
// 同じ年月に選定済みの場合はMONTHLY_BOOK_EXISTS。
func (s *Service) SelectMonthlyBook(ctx context.Context, userID, groupID int64, input MonthlyBookInput) (*model.MonthlyBook, error) {
	if _, err := s.findGroup(ctx, groupID); err != nil {
		return nil, err
	}
	if _, err := s.managingMember(ctx, groupID, userID); err != nil {
		return nil, err
	}

	input.Title = strings.TrimSpace(s.sanitizer.SanitizeStrict(input.Title))
	input.Author = strings.TrimSpace(s.sanitizer.SanitizeStrict(input.Author))
	if input.Title == "" {
		return nil, model.NewValidationError("課題本のタイトルを入力してください。")
	}
	if !yearMonthPattern.MatchString(input.YearMonth) {
		return nil, model.NewValidationError("対象年月はYYYY-MM形式で入力してください。")
	}
	if input.CoverImage != "" {
		if err := s.guard.ValidateImageURL(input.CoverImage); err != nil {
			return nil, model.NewValidationError("表紙画像のURLが不正です。")
		}
	}

	now := s.now()
	book := &model.MonthlyBook{
		GroupID:    groupID,
		Title:      input.Title,
		Author:     input.Author,
		CoverImage: input.CoverImage,
		YearMonth:  input.YearMonth,
		Status:     model.BookStatusUpcoming,
		SelectedBy: userID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.monthlyBookRepo.Create(ctx, book); err != nil {
		if errors.Is(err, model.ErrDuplicateMonthlyBook) {
			return nil, model.NewMonthlyBookExistsError(input.YearMonth)
		}
		return nil, fmt.Errorf("課題本の選定に失敗しました: %w", err)
	}

	return book, nil
}

// UpdateMonthlyBookStatus は課題本の進行状態を更新する。creator/adminロールのみ実行できる。
func (s *Service) UpdateMonthlyBookStatus(ctx context.Context, userID, monthlyBookID int64, status model.BookStatus) (*model.MonthlyBook, error) {
	book, err := s.findMonthlyBook(ctx, monthlyBookID)
	if err != nil {
		return nil, err
	}
	if _, err := s.managingMember(ctx, book.GroupID, userID); err != nil {
		return nil, err
	}

	switch status {
	case model.BookStatusUpcoming, model.BookStatusReading, model.BookStatusCompleted:
	default:
		return nil, model.NewValidationError("課題本のステータスが不正です。")
	}

	if err := s.monthlyBookRepo.UpdateStatus(ctx, monthlyBookID, status); err != nil {
		return nil, fmt.Errorf("課題本ステータスの更新に失敗しました: %w", err)
	}

	book.Status = status
	return book, nil
}

// --- 感想 ---

// ListReviews は課題本の感想一覧と集計を返す。メンバーのみ閲覧できる。
func (s *Service) ListReviews(ctx context.Context, userID, monthlyBookID int64) ([]*model.BookReview, *model.ReviewStatistics, error) {
	book, err := s.findMonthlyBook(ctx, monthlyBookID)
	if err != nil {
		return nil, nil, err
	}
	if _, err := s.activeMember(ctx, book.GroupID, userID); err != nil {
		return nil, nil, err
	}

	reviews, err := s.reviewRepo.ListByMonthlyBookID(ctx, monthlyBookID)
	if err != nil {
		return nil, nil, fmt.Errorf("感想一覧の取得に失敗しました: %w", err)
	}

	stats, err := s.reviewRepo.StatisticsByMonthlyBookID(ctx, monthlyBookID)
	if err != nil {
		return nil, nil, fmt.Errorf("感想の集計に失敗しました: %w", err)
	}

	return reviews, stats, nil
}

// PostReview は課題本への感想を投稿する。メンバーのみ実行でき、1冊につき1件。
func (s *Service) PostReview(ctx context.Context, userID, monthlyBookID int64, input ReviewInput) (*model.BookReview, error) {
	book, err := s.findMonthlyBook(ctx, monthlyBookID)
	if err != nil {
		return nil, err
	}
	if _, err := s.activeMember(ctx, book.GroupID, userID); err != nil {
		return nil, err
	}
	if err := validateReview(&input, s.sanitizer); err != nil {
		return nil, err
	}

	now := s.now()
	review := &model.BookReview{
		MonthlyBookID: monthlyBookID,
		UserID:        userID,
		Rating:        input.Rating,
		Content:       input.Content,
		IsPublic:      input.IsPublic,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.reviewRepo.Create(ctx, review); err != nil {
		if errors.Is(err, model.ErrDuplicateReview) {
			return nil, model.NewReviewExistsError()
		}
		return nil, fmt.Errorf("感想の投稿に失敗しました: %w", err)
	}

	return review, nil
}

// UpdateReview は感想を更新する。投稿者本人のみ実行できる。
func (s *Service) UpdateReview(ctx context.Context, userID, reviewID int64, input ReviewInput) (*model.BookReview, error) {
	review, err := s.findReview(ctx, reviewID)
	if err != nil {
		return nil, err
	}
	if review.UserID != userID {
		return nil, model.NewForbiddenError()
	}
	if err := validateReview(&input, s.sanitizer); err != nil {
		return nil, err
	}

	review.Rating = input.Rating
	review.Content = input.Content
	review.IsPublic = input.IsPublic
	review.UpdatedAt = s.now()

	if err := s.reviewRepo.Update(ctx, review); err != nil {
		return nil, fmt.Errorf("感想の更新に失敗しました: %w", err)
	}

	return review, nil
}

// DeleteReview は感想を削除する。投稿者本人またはグループのcreator/adminが実行できる。
func (s *Service) DeleteReview(ctx context.Context, userID, reviewID int64) error {
	review, err := s.findReview(ctx, reviewID)
	if err != nil {
		return err
	}

	if review.UserID != userID {
		book, err := s.findMonthlyBook(ctx, review.MonthlyBookID)
		if err != nil {
			return err
		}
		if _, err := s.managingMember(ctx, book.GroupID, userID); err != nil {
			return err
		}
	}

	if err := s.reviewRepo.DeleteByID(ctx, reviewID); err != nil {
		return fmt.Errorf("感想の削除に失敗しました: %w", err)
	}

	return nil
}

// --- 内部ヘルパー ---

func (s *Service) findGroup(ctx context.Context, groupID int64) (*model.ReadingGroup, error) {
	group, err := s.groupRepo.FindByID(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("グループの取得に失敗しました: %w", err)
	}
	if group == nil {
		return nil, model.NewNotFoundError(model.ErrCodeGroupNotFound, groupID)
	}
	return group, nil
}

func (s *Service) findMonthlyBook(ctx context.Context, monthlyBookID int64) (*model.MonthlyBook, error) {
	book, err := s.monthlyBookRepo.FindByID(ctx, monthlyBookID)
	if err != nil {
		return nil, fmt.Errorf("課題本の取得に失敗しました: %w", err)
	}
	if book == nil {
		return nil, model.NewNotFoundError(model.ErrCodeBookNotFound, monthlyBookID)
	}
	return book, nil
}

func (s *Service) findReview(ctx context.Context, reviewID int64) (*model.BookReview, error) {
	review, err := s.reviewRepo.FindByID(ctx, reviewID)
	if err != nil {
		return nil, fmt.Errorf("感想の取得に失敗しました: %w", err)
	}
	if review == nil {
		return nil, model.NewNotFoundError(model.ErrCodeReviewNotFound, reviewID)
	}
	return review, nil
}

// activeMember はactiveなメンバーシップを取得する。未参加の場合はNOT_MEMBER。
func (s *Service) activeMember(ctx context.Context, groupID, userID int64) (*model.GroupMember, error) {
	member, err := s.memberRepo.FindByGroupAndUser(ctx, groupID, userID)
	if err != nil {
		return nil, fmt.Errorf("メンバーの検索に失敗しました: %w", err)
	}
	if member == nil || member.Status != model.MemberStatusActive {
		return nil, model.NewNotMemberError()
	}
	return member, nil
}

// managingMember は管理操作が可能なメンバーシップを取得する。
// 未参加はNOT_MEMBER、memberロールはFORBIDDEN。
func (s *Service) managingMember(ctx context.Context, groupID, userID int64) (*model.GroupMember, error) {
	member, err := s.activeMember(ctx, groupID, userID)
	if err != nil {
		return nil, err
	}
	if !member.Role.CanManage() {
		return nil, model.NewForbiddenError()
	}
	return member, nil
}

func (s *Service) validateGroup(input *Input) error {
	input.Name = strings.TrimSpace(s.sanitizer.SanitizeStrict(input.Name))
	input.Description = s.sanitizer.Sanitize(input.Description)
	input.BookTitle = strings.TrimSpace(s.sanitizer.SanitizeStrict(input.BookTitle))
	input.Author = strings.TrimSpace(s.sanitizer.SanitizeStrict(input.Author))
	input.Publisher = strings.TrimSpace(s.sanitizer.SanitizeStrict(input.Publisher))
	input.Location = strings.TrimSpace(s.sanitizer.SanitizeStrict(input.Location))

	if input.Name == "" {
		return model.NewValidationError("グループ名を入力してください。")
	}
	if input.MaxMembers < minMembers || input.MaxMembers > maxMembers {
		return model.NewValidationError(fmt.Sprintf("定員は%dから%dの間で入力してください。", minMembers, maxMembers))
	}

	switch input.MeetingType {
	case model.MeetingTypeOnline:
		if input.MeetingURL == "" {
			return model.NewValidationError("オンライン開催にはミーティングURLが必要です。")
		}
		if err := s.guard.ValidateURL(input.MeetingURL); err != nil {
			return model.NewValidationError("ミーティングURLが不正です。")
		}
	case model.MeetingTypeOffline:
		if input.Location == "" {
			return model.NewValidationError("オフライン開催には場所の入力が必要です。")
		}
	default:
		return model.NewValidationError("開催形態はonlineまたはofflineを指定してください。")
	}

	if input.BookCoverImage != "" {
		if err := s.guard.ValidateImageURL(input.BookCoverImage); err != nil {
			return model.NewValidationError("表紙画像のURLが不正です。")
		}
	}

	return nil
}

func validateReview(input *ReviewInput, sanitizer security.ContentSanitizerService) error {
	input.Content = sanitizer.Sanitize(input.Content)

	if input.Rating < 1 || input.Rating > 5 {
		return model.NewValidationError("評価は1から5の間で入力してください。")
	}
	if strings.TrimSpace(input.Content) == "" {
		return model.NewValidationError("感想を入力してください。")
	}
	return nil
}
