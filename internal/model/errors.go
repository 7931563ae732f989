// Package model はドメインモデルを定義する。
package model

import (
	"errors"
	"fmt"
)

// リポジトリ層がUNIQUE制約違反を通知するための番兵エラー。
// サービス層はerrors.Isで判別し、適切なAPIErrorに変換する。
var (
	ErrDuplicateNickname    = errors.New("nickname already taken")
	ErrDuplicateMember      = errors.New("member already exists")
	ErrDuplicateMonthlyBook = errors.New("monthly book already selected")
	ErrDuplicateReview      = errors.New("review already posted")
)

// APIError は統一エラーフォーマットを表す。
// UIに表示するメッセージと原因カテゴリを含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, forbidden, notfound, conflict, upstream, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeInvalidToken      = "INVALID_TOKEN"
	ErrCodeTokenNotFound     = "TOKEN_NOT_FOUND"
	ErrCodeTokenExpired      = "TOKEN_EXPIRED"
	ErrCodeUpstreamAuthError = "UPSTREAM_AUTH_ERROR"
	ErrCodeLoginFailed       = "LOGIN_FAILED"
	ErrCodeUnauthorized      = "UNAUTHORIZED"
	ErrCodeForbidden         = "FORBIDDEN"
	ErrCodeValidationFailed  = "VALIDATION_FAILED"
	ErrCodeUserNotFound      = "USER_NOT_FOUND"
	ErrCodeBookNotFound      = "BOOK_NOT_FOUND"
	ErrCodeGroupNotFound     = "GROUP_NOT_FOUND"
	ErrCodePostNotFound      = "POST_NOT_FOUND"
	ErrCodeCommentNotFound   = "COMMENT_NOT_FOUND"
	ErrCodeMeetingNotFound   = "MEETING_NOT_FOUND"
	ErrCodeReviewNotFound    = "REVIEW_NOT_FOUND"
	ErrCodeAlreadyMember     = "ALREADY_MEMBER"
	ErrCodeGroupFull         = "GROUP_FULL"
	ErrCodeMonthlyBookExists = "MONTHLY_BOOK_EXISTS"
	ErrCodeReviewExists      = "REVIEW_EXISTS"
	ErrCodeNotMember         = "NOT_MEMBER"
)

// NewInvalidTokenError は不正なトークンエラーを生成する。
func NewInvalidTokenError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidToken,
		Message:  "有効でないトークンです。",
		Category: "auth",
		Action:   "再度ログインしてください。",
	}
}

// NewTokenNotFoundError はリフレッシュトークン未登録エラーを生成する。
func NewTokenNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeTokenNotFound,
		Message:  "リフレッシュトークンが見つかりません。",
		Category: "auth",
		Action:   "再度ログインしてください。",
	}
}

// NewTokenExpiredError はリフレッシュトークン期限切れエラーを生成する。
func NewTokenExpiredError() *APIError {
	return &APIError{
		Code:     ErrCodeTokenExpired,
		Message:  "期限切れのリフレッシュトークンです。",
		Category: "auth",
		Action:   "再度ログインしてください。",
	}
}

// NewUpstreamAuthError は外部IdP連携エラーを生成する。
func NewUpstreamAuthError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeUpstreamAuthError,
		Message:  fmt.Sprintf("外部認証プロバイダーとの連携に失敗しました: %s", reason),
		Category: "upstream",
		Action:   "しばらく待ってから再度ログインをお試しください。",
	}
}

// NewLoginFailedError はログイン失敗エラーを生成する。
func NewLoginFailedError() *APIError {
	return &APIError{
		Code:     ErrCodeLoginFailed,
		Message:  "ログインに失敗しました。",
		Category: "auth",
		Action:   "しばらく待ってから再度お試しください。解決しない場合は管理者にお問い合わせください。",
	}
}

// NewUnauthorizedError は未認証エラーを生成する。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "認証が必要です。",
		Category: "auth",
		Action:   "ログインしてから再度お試しください。",
	}
}

// NewForbiddenError は権限不足エラーを生成する。
func NewForbiddenError() *APIError {
	return &APIError{
		Code:     ErrCodeForbidden,
		Message:  "この操作を行う権限がありません。",
		Category: "forbidden",
		Action:   "グループの管理者にお問い合わせください。",
	}
}

// NewValidationError はリクエスト内容の検証エラーを生成する。
func NewValidationError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeValidationFailed,
		Message:  reason,
		Category: "validation",
		Action:   "入力内容を確認してください。",
	}
}

// NewUserNotFoundError はユーザー未検出エラーを生成する。
func NewUserNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeUserNotFound,
		Message:  "ユーザーが見つかりません。",
		Category: "notfound",
		Action:   "ユーザーIDを確認してください。",
	}
}

// NewNotFoundError は指定コードのエンティティ未検出エラーを生成する。
func NewNotFoundError(code string, id int64) *APIError {
	return &APIError{
		Code:     code,
		Message:  fmt.Sprintf("指定されたリソースが見つかりません: %d", id),
		Category: "notfound",
		Action:   "リソースのIDを確認してください。",
	}
}

// NewAlreadyMemberError は重複参加エラーを生成する。
func NewAlreadyMemberError() *APIError {
	return &APIError{
		Code:     ErrCodeAlreadyMember,
		Message:  "すでにこのグループに参加しています。",
		Category: "conflict",
		Action:   "参加中のグループ一覧を確認してください。",
	}
}

// NewGroupFullError は定員超過エラーを生成する。
func NewGroupFullError() *APIError {
	return &APIError{
		Code:     ErrCodeGroupFull,
		Message:  "グループの定員に達しています。",
		Category: "conflict",
		Action:   "別のグループへの参加を検討してください。",
	}
}

// NewMonthlyBookExistsError は月間課題本の重複選定エラーを生成する。
func NewMonthlyBookExistsError(yearMonth string) *APIError {
	return &APIError{
		Code:     ErrCodeMonthlyBookExists,
		Message:  fmt.Sprintf("%s の課題本はすでに選定されています。", yearMonth),
		Category: "conflict",
		Action:   "既存の課題本を削除するか、別の年月を指定してください。",
	}
}

// NewReviewExistsError はレビューの重複投稿エラーを生成する。
func NewReviewExistsError() *APIError {
	return &APIError{
		Code:     ErrCodeReviewExists,
		Message:  "この課題本にはすでにレビューを投稿しています。",
		Category: "conflict",
		Action:   "投稿済みのレビューを編集してください。",
	}
}

// NewNotMemberError はグループ未参加エラーを生成する。
func NewNotMemberError() *APIError {
	return &APIError{
		Code:     ErrCodeNotMember,
		Message:  "このグループに参加していません。",
		Category: "forbidden",
		Action:   "招待コードでグループに参加してください。",
	}
}
