package repository

import (
	"errors"
	"testing"
	"time"

	"github.com/lib/pq"

	"github.com/hitoshi/readingclub/internal/model"
)

// 各Postgresリポジトリが対応するインターフェースを満たすことを検証
func TestPostgresRepos_ImplementInterfaces(t *testing.T) {
	var _ UserRepository = (*PostgresUserRepo)(nil)
	var _ RefreshTokenRepository = (*PostgresTokenRepo)(nil)
	var _ BookRepository = (*PostgresBookRepo)(nil)
	var _ CurrentlyReadingRepository = (*PostgresReadingRepo)(nil)
	var _ DroppedBookRepository = (*PostgresDroppedRepo)(nil)
	var _ WishlistRepository = (*PostgresWishlistRepo)(nil)
	var _ ReadingGroupRepository = (*PostgresGroupRepo)(nil)
	var _ GroupMemberRepository = (*PostgresMemberRepo)(nil)
	var _ GroupMeetingRepository = (*PostgresMeetingRepo)(nil)
	var _ MonthlyBookRepository = (*PostgresMonthlyBookRepo)(nil)
	var _ BookReviewRepository = (*PostgresReviewRepo)(nil)
	var _ PostRepository = (*PostgresPostRepo)(nil)
	var _ CommentRepository = (*PostgresCommentRepo)(nil)
}

// 各コンストラクタが正しく初期化されることを検証
func TestNewPostgresRepos_Initialize(t *testing.T) {
	if NewPostgresUserRepo(nil) == nil {
		t.Error("expected non-nil user repo")
	}
	if NewPostgresTokenRepo(nil) == nil {
		t.Error("expected non-nil token repo")
	}
	if NewPostgresBookRepo(nil) == nil {
		t.Error("expected non-nil book repo")
	}
	if NewPostgresGroupRepo(nil) == nil {
		t.Error("expected non-nil group repo")
	}
	if NewPostgresPostRepo(nil) == nil {
		t.Error("expected non-nil post repo")
	}
}

// isUniqueViolationがpqのUNIQUE制約違反を正しく判別することを検証
func TestIsUniqueViolation(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		constraint string
		want       bool
	}{
		{
			name:       "UNIQUE違反（制約名指定なし）",
			err:        &pq.Error{Code: "23505", Constraint: "users_nickname_key"},
			constraint: "",
			want:       true,
		},
		{
			name:       "UNIQUE違反（制約名一致）",
			err:        &pq.Error{Code: "23505", Constraint: "users_nickname_key"},
			constraint: "users_nickname_key",
			want:       true,
		},
		{
			name:       "UNIQUE違反（制約名不一致）",
			err:        &pq.Error{Code: "23505", Constraint: "users_kakao_id_key"},
			constraint: "users_nickname_key",
			want:       false,
		},
		{
			name:       "外部キー違反",
			err:        &pq.Error{Code: "23503"},
			constraint: "",
			want:       false,
		},
		{
			name:       "pq以外のエラー",
			err:        errors.New("connection reset"),
			constraint: "",
			want:       false,
		},
		{
			name:       "ラップされたpqエラー",
			err:        wrapErr(&pq.Error{Code: "23505"}),
			constraint: "",
			want:       true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isUniqueViolation(tt.err, tt.constraint); got != tt.want {
				t.Errorf("isUniqueViolation() = %v, want %v", got, tt.want)
			}
		})
	}
}

func wrapErr(err error) error {
	return &wrappedError{err: err}
}

type wrappedError struct {
	err error
}

func (w *wrappedError) Error() string { return "wrapped: " + w.err.Error() }
func (w *wrappedError) Unwrap() error { return w.err }

// リフレッシュトークンの期限切れ判定の期待動作
func TestRefreshToken_IsExpired_Concept(t *testing.T) {
	token := &model.RefreshToken{
		UserID:    1,
		Token:     "some-token",
		ExpiresAt: time.Now().Add(-1 * time.Hour),
	}

	if !token.IsExpired(time.Now()) {
		t.Error("expected token to be expired")
	}
}
