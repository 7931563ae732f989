package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/hitoshi/readingclub/internal/model"
)

// pqUniqueViolation はPostgreSQLのUNIQUE制約違反のエラーコード。
const pqUniqueViolation = "23505"

// isUniqueViolation はUNIQUE制約違反かを判定する。
// constraintが空でない場合は制約名の一致も要求する。
func isUniqueViolation(err error, constraint string) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	if pqErr.Code != pqUniqueViolation {
		return false
	}
	if constraint == "" {
		return true
	}
	return pqErr.Constraint == constraint
}

// PostgresUserRepo はPostgreSQLを使用したユーザーリポジトリ。
type PostgresUserRepo struct {
	db *sql.DB
}

// NewPostgresUserRepo はPostgresUserRepoを生成する。
func NewPostgresUserRepo(db *sql.DB) *PostgresUserRepo {
	return &PostgresUserRepo{db: db}
}

// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByID(ctx context.Context, id int64) (*model.User, error) {
	user := &model.User{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, kakao_id, nickname, profile_image, created_at, updated_at
		 FROM users WHERE id = $1`,
		id,
	).Scan(&user.ID, &user.KakaoID, &user.Nickname, &user.ProfileImage, &user.CreatedAt, &user.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user by ID: %w", err)
	}

	return user, nil
}

// FindByKakaoID はカカオIDでユーザーを検索する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByKakaoID(ctx context.Context, kakaoID string) (*model.User, error) {
	user := &model.User{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, kakao_id, nickname, profile_image, created_at, updated_at
		 FROM users WHERE kakao_id = $1`,
		kakaoID,
	).Scan(&user.ID, &user.KakaoID, &user.Nickname, &user.ProfileImage, &user.CreatedAt, &user.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user by kakao ID: %w", err)
	}

	return user, nil
}

// ExistsByNickname はニックネームが既に使用されているかを返す。
func (r *PostgresUserRepo) ExistsByNickname(ctx context.Context, nickname string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE nickname = $1)`,
		nickname,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check nickname existence: %w", err)
	}
	return exists, nil
}

// Create はユーザーを作成し、採番されたIDをuser.IDに設定する。
// nicknameのUNIQUE制約違反の場合はmodel.ErrDuplicateNicknameを返す。
func (r *PostgresUserRepo) Create(ctx context.Context, user *model.User) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO users (kakao_id, nickname, profile_image, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id`,
		user.KakaoID, user.Nickname, user.ProfileImage, user.CreatedAt, user.UpdatedAt,
	).Scan(&user.ID)
	if err != nil {
		if isUniqueViolation(err, "users_nickname_key") {
			return model.ErrDuplicateNickname
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

// Update はニックネームとプロフィール画像を更新する。
// nicknameのUNIQUE制約違反の場合はmodel.ErrDuplicateNicknameを返す。
func (r *PostgresUserRepo) Update(ctx context.Context, user *model.User) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE users SET nickname = $1, profile_image = $2, updated_at = now()
		 WHERE id = $3`,
		user.Nickname, user.ProfileImage, user.ID,
	)
	if err != nil {
		if isUniqueViolation(err, "users_nickname_key") {
			return model.ErrDuplicateNickname
		}
		return fmt.Errorf("failed to update user: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("user not found: %d", user.ID)
	}
	return nil
}

// DeleteByID は指定IDのユーザーを削除する。
// 関連するデータはCASCADE削除される。
func (r *PostgresUserRepo) DeleteByID(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM users WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("user not found: %d", id)
	}
	return nil
}

// compile-time interface check
var _ UserRepository = (*PostgresUserRepo)(nil)
