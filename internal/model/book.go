// Package model はドメインモデルを定義する。
package model

import "time"

// Book は読了済みの本（レビュー付き）を表す。
type Book struct {
	ID           int64
	UserID       int64
	Title        string
	Author       string
	CoverImage   string
	Rating       int // 1〜5
	Review       string
	FinishedDate time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// CurrentlyReading は読書中の本と進捗を表す。
type CurrentlyReading struct {
	ID          int64
	UserID      int64
	Title       string
	Author      string
	CoverImage  string
	TotalPages  int
	CurrentPage int
	StartedDate time.Time
	TargetDate  *time.Time // 読了目標日（任意）
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ProgressPercent は読書進捗率（0〜100）を返す。総ページ数が0の場合は0。
func (c *CurrentlyReading) ProgressPercent() int {
	if c.TotalPages <= 0 {
		return 0
	}
	p := c.CurrentPage * 100 / c.TotalPages
	if p > 100 {
		return 100
	}
	return p
}

// IsOverdue は読了目標日を過ぎているかを返す。目標日未設定の場合はfalse。
func (c *CurrentlyReading) IsOverdue(now time.Time) bool {
	if c.TargetDate == nil {
		return false
	}
	return now.After(*c.TargetDate)
}

// DroppedBook は途中で読むのをやめた本を表す。
type DroppedBook struct {
	ID          int64
	UserID      int64
	Title       string
	Author      string
	CoverImage  string
	DroppedDate time.Time
	Reason      string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Wishlist は読みたい本のリストの1件を表す。
type Wishlist struct {
	ID         int64
	UserID     int64
	Title      string
	Author     string
	CoverImage string
	Priority   int // 1〜5。大きいほど優先度が高い。
	Memo       string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// MonthlyStats は月別の読了冊数・平均評価の集計を表す。
type MonthlyStats struct {
	Month     string // "2026-01" 形式
	BookCount int
	AvgRating float64
}
