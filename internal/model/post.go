// Package model はドメインモデルを定義する。
package model

import "time"

// PostType は投稿の種別を表す。
type PostType string

const (
	PostTypeReview     PostType = "review"
	PostTypeDiscussion PostType = "discussion"
	PostTypeQuestion   PostType = "question"
)

// IsValid は定義済みの投稿種別かを返す。
func (p PostType) IsValid() bool {
	switch p {
	case PostTypeReview, PostTypeDiscussion, PostTypeQuestion:
		return true
	}
	return false
}

// Post はコミュニティへの投稿を表す。
type Post struct {
	ID           int64
	UserID       int64
	PostType     PostType
	Title        string
	Content      string
	BookTitle    string
	BookAuthor   string
	BookISBN     string
	CommentCount int // 読み取り時に集計
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Comment は投稿へのコメントを表す。
// ParentCommentIDが非nilの場合は返信コメント。
type Comment struct {
	ID              int64
	PostID          int64
	UserID          int64
	ParentCommentID *int64
	Content         string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
