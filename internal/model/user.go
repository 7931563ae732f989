// Package model はドメインモデルを定義する。
package model

import "time"

// User はサービス利用ユーザーを表す。
// 外部IdP（カカオ）のIDで一意に識別され、初回ログイン時に自動作成される。
type User struct {
	ID           int64
	KakaoID      string // 外部IdPのユーザーID。作成後は不変。
	Nickname     string // 表示名。重複時は数値サフィックスで一意化される。
	ProfileImage string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// RefreshToken はサーバー側に永続化されるリフレッシュトークンレコードを表す。
// ログイン/リフレッシュ成功のたびに作成され、ログアウト・ローテーション・
// 期限切れスイープで削除される。
type RefreshToken struct {
	ID        int64
	UserID    int64
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// IsExpired はトークンの保存済み有効期限が過ぎているかを返す。
func (t *RefreshToken) IsExpired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}

// UserStatistics はユーザーの読書活動の集計を表す。
type UserStatistics struct {
	TotalBooks        int
	CurrentlyReading  int
	DroppedBooks      int
	WishlistCount     int
	GroupCount        int
	AverageRating     float64
	BooksThisYear     int
}
