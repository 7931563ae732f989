// Package model はドメインモデルを定義する。
package model

import "time"

// GroupStatus は読書グループの状態を表す。
type GroupStatus string

const (
	GroupStatusActive   GroupStatus = "active"   // 募集または進行中
	GroupStatusInactive GroupStatus = "inactive" // 終了済み
	GroupStatusArchived GroupStatus = "archived" // 保管済み
)

// MeetingType は読書会の開催形態を表す。
type MeetingType string

const (
	MeetingTypeOnline  MeetingType = "online"
	MeetingTypeOffline MeetingType = "offline"
)

// ReadingGroup は読書グループ（読書会）を表す。
type ReadingGroup struct {
	ID              int64
	Name            string
	Description     string
	CreatorID       int64
	MaxMembers      int
	IsPublic        bool
	InviteCode      string // 招待コード。グループごとに一意。
	Status          GroupStatus
	BookTitle       string
	Author          string
	Publisher       string
	BookCoverImage  string
	MeetingDateTime time.Time
	DurationHours   int
	HasAssignment   bool
	MeetingType     MeetingType
	Location        string // オフライン開催時の場所
	MeetingURL      string // オンライン開催時のURL
	MemberCount     int    // アクティブメンバー数（読み取り時に集計）
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// IsFull はアクティブメンバー数が定員に達しているかを返す。
func (g *ReadingGroup) IsFull() bool {
	return g.MemberCount >= g.MaxMembers
}

// MemberRole はグループ内の役割を表す。
type MemberRole string

const (
	RoleCreator MemberRole = "creator"
	RoleAdmin   MemberRole = "admin"
	RoleMember  MemberRole = "member"
)

// CanManage は管理操作（モデレーション、読書会作成、課題本選定等）が
// 可能な役割かを返す。
func (r MemberRole) CanManage() bool {
	return r == RoleCreator || r == RoleAdmin
}

// MemberStatus はメンバーの状態を表す。
type MemberStatus string

const (
	MemberStatusActive   MemberStatus = "active"
	MemberStatusInactive MemberStatus = "inactive"
	MemberStatusBanned   MemberStatus = "banned"
)

// GroupMember はグループへの参加情報を表す。
// (group_id, user_id) の組は一意。
type GroupMember struct {
	ID           int64
	GroupID      int64
	UserID       int64
	Role         MemberRole
	Status       MemberStatus
	Introduction string
	JoinedAt     time.Time
	UpdatedAt    time.Time
}

// GroupMeeting はグループの読書会（個別の集まり）を表す。
type GroupMeeting struct {
	ID          int64
	GroupID     int64
	Title       string
	Description string
	MeetingDate time.Time
	Location    string
	MeetingURL  string
	CreatedBy   int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// BookStatus は月間課題本の進行状態を表す。
type BookStatus string

const (
	BookStatusUpcoming  BookStatus = "upcoming"
	BookStatusReading   BookStatus = "reading"
	BookStatusCompleted BookStatus = "completed"
)

// MonthlyBook はグループの月間課題本を表す。
// (group_id, year_month) の組は一意。
type MonthlyBook struct {
	ID         int64
	GroupID    int64
	Title      string
	Author     string
	CoverImage string
	YearMonth  string // "2026-08" 形式
	Status     BookStatus
	SelectedBy int64
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// BookReview は月間課題本へのメンバーのレビューを表す。
// (monthly_book_id, user_id) の組は一意。
type BookReview struct {
	ID            int64
	MonthlyBookID int64
	UserID        int64
	Rating        int // 1〜5
	Content       string
	IsPublic      bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// ReviewStatistics は課題本ごとのレビュー集計を表す。
type ReviewStatistics struct {
	ReviewCount   int
	AverageRating float64
}
