package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/readingclub/internal/model"
)

// PostgresWishlistRepo はPostgreSQLを使用した読みたい本リポジトリ。
type PostgresWishlistRepo struct {
	db *sql.DB
}

// NewPostgresWishlistRepo はPostgresWishlistRepoを生成する。
func NewPostgresWishlistRepo(db *sql.DB) *PostgresWishlistRepo {
	return &PostgresWishlistRepo{db: db}
}

// FindByID は指定IDの読みたい本を取得する。見つからない場合はnilを返す。
func (r *PostgresWishlistRepo) FindByID(ctx context.Context, id int64) (*model.Wishlist, error) {
	wishlist := &model.Wishlist{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, title, author, cover_image, priority, memo, created_at, updated_at
		 FROM wishlists WHERE id = $1`,
		id,
	).Scan(&wishlist.ID, &wishlist.UserID, &wishlist.Title, &wishlist.Author, &wishlist.CoverImage,
		&wishlist.Priority, &wishlist.Memo, &wishlist.CreatedAt, &wishlist.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find wishlist by ID: %w", err)
	}

	return wishlist, nil
}

// ListByUserID はユーザーの読みたい本一覧をpriority降順、created_at降順で返す。
func (r *PostgresWishlistRepo) ListByUserID(ctx context.Context, userID int64, page model.PageRequest) ([]*model.Wishlist, int64, error) {
	var total int64
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM wishlists WHERE user_id = $1`,
		userID,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count wishlists: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, title, author, cover_image, priority, memo, created_at, updated_at
		 FROM wishlists
		 WHERE user_id = $1
		 ORDER BY priority DESC, created_at DESC, id DESC
		 LIMIT $2 OFFSET $3`,
		userID, page.Limit(), page.Offset(),
	)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list wishlists: %w", err)
	}
	defer rows.Close()

	var wishlists []*model.Wishlist
	for rows.Next() {
		wishlist := &model.Wishlist{}
		if err := rows.Scan(&wishlist.ID, &wishlist.UserID, &wishlist.Title, &wishlist.Author, &wishlist.CoverImage,
			&wishlist.Priority, &wishlist.Memo, &wishlist.CreatedAt, &wishlist.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("failed to scan wishlist: %w", err)
		}
		wishlists = append(wishlists, wishlist)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate wishlists: %w", err)
	}

	return wishlists, total, nil
}

// ExistsByUserAndTitle は同一ユーザーが同タイトル・同著者の本を登録済みかを返す。
func (r *PostgresWishlistRepo) ExistsByUserAndTitle(ctx context.Context, userID int64, title, author string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM wishlists WHERE user_id = $1 AND title = $2 AND author = $3)`,
		userID, title, author,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check wishlist existence: %w", err)
	}
	return exists, nil
}

// Create は読みたい本を作成し、採番されたIDを設定する。
func (r *PostgresWishlistRepo) Create(ctx context.Context, wishlist *model.Wishlist) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO wishlists (user_id, title, author, cover_image, priority, memo, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id`,
		wishlist.UserID, wishlist.Title, wishlist.Author, wishlist.CoverImage,
		wishlist.Priority, wishlist.Memo, wishlist.CreatedAt, wishlist.UpdatedAt,
	).Scan(&wishlist.ID)
	if err != nil {
		return fmt.Errorf("failed to insert wishlist: %w", err)
	}
	return nil
}

// Update は読みたい本の情報を更新する。
func (r *PostgresWishlistRepo) Update(ctx context.Context, wishlist *model.Wishlist) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE wishlists
		 SET title = $1, author = $2, cover_image = $3, priority = $4, memo = $5, updated_at = now()
		 WHERE id = $6`,
		wishlist.Title, wishlist.Author, wishlist.CoverImage, wishlist.Priority, wishlist.Memo, wishlist.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update wishlist: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("wishlist not found: %d", wishlist.ID)
	}
	return nil
}

// DeleteByID は指定IDの読みたい本を削除する。
func (r *PostgresWishlistRepo) DeleteByID(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM wishlists WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to delete wishlist: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("wishlist not found: %d", id)
	}
	return nil
}

// DeleteByUserID はユーザーの全読みたい本を削除する。
func (r *PostgresWishlistRepo) DeleteByUserID(ctx context.Context, userID int64) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM wishlists WHERE user_id = $1`,
		userID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete wishlists by user: %w", err)
	}
	return nil
}

// compile-time interface check
var _ WishlistRepository = (*PostgresWishlistRepo)(nil)
