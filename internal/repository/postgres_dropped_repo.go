package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/readingclub/internal/model"
)

// PostgresDroppedRepo はPostgreSQLを使用した中断本リポジトリ。
type PostgresDroppedRepo struct {
	db *sql.DB
}

// NewPostgresDroppedRepo はPostgresDroppedRepoを生成する。
func NewPostgresDroppedRepo(db *sql.DB) *PostgresDroppedRepo {
	return &PostgresDroppedRepo{db: db}
}

// FindByID は指定IDの中断本を取得する。見つからない場合はnilを返す。
func (r *PostgresDroppedRepo) FindByID(ctx context.Context, id int64) (*model.DroppedBook, error) {
	dropped := &model.DroppedBook{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, title, author, cover_image, dropped_date, reason, created_at, updated_at
		 FROM dropped_books WHERE id = $1`,
		id,
	).Scan(&dropped.ID, &dropped.UserID, &dropped.Title, &dropped.Author, &dropped.CoverImage,
		&dropped.DroppedDate, &dropped.Reason, &dropped.CreatedAt, &dropped.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find dropped book by ID: %w", err)
	}

	return dropped, nil
}

// ListByUserID はユーザーの中断本一覧をdropped_date降順で返す。
func (r *PostgresDroppedRepo) ListByUserID(ctx context.Context, userID int64, page model.PageRequest) ([]*model.DroppedBook, int64, error) {
	var total int64
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM dropped_books WHERE user_id = $1`,
		userID,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count dropped books: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, title, author, cover_image, dropped_date, reason, created_at, updated_at
		 FROM dropped_books
		 WHERE user_id = $1
		 ORDER BY dropped_date DESC, id DESC
		 LIMIT $2 OFFSET $3`,
		userID, page.Limit(), page.Offset(),
	)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list dropped books: %w", err)
	}
	defer rows.Close()

	var books []*model.DroppedBook
	for rows.Next() {
		dropped := &model.DroppedBook{}
		if err := rows.Scan(&dropped.ID, &dropped.UserID, &dropped.Title, &dropped.Author, &dropped.CoverImage,
			&dropped.DroppedDate, &dropped.Reason, &dropped.CreatedAt, &dropped.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("failed to scan dropped book: %w", err)
		}
		books = append(books, dropped)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate dropped books: %w", err)
	}

	return books, total, nil
}

// Create は中断本を作成し、採番されたIDを設定する。
func (r *PostgresDroppedRepo) Create(ctx context.Context, dropped *model.DroppedBook) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO dropped_books (user_id, title, author, cover_image, dropped_date, reason, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id`,
		dropped.UserID, dropped.Title, dropped.Author, dropped.CoverImage,
		dropped.DroppedDate, dropped.Reason, dropped.CreatedAt, dropped.UpdatedAt,
	).Scan(&dropped.ID)
	if err != nil {
		return fmt.Errorf("failed to insert dropped book: %w", err)
	}
	return nil
}

// Update は中断本の情報を更新する。
func (r *PostgresDroppedRepo) Update(ctx context.Context, dropped *model.DroppedBook) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE dropped_books
		 SET title = $1, author = $2, cover_image = $3, dropped_date = $4, reason = $5, updated_at = now()
		 WHERE id = $6`,
		dropped.Title, dropped.Author, dropped.CoverImage, dropped.DroppedDate, dropped.Reason, dropped.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update dropped book: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("dropped book not found: %d", dropped.ID)
	}
	return nil
}

// DeleteByID は指定IDの中断本を削除する。
func (r *PostgresDroppedRepo) DeleteByID(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM dropped_books WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to delete dropped book: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("dropped book not found: %d", id)
	}
	return nil
}

// DeleteByUserID はユーザーの全中断本を削除する。
func (r *PostgresDroppedRepo) DeleteByUserID(ctx context.Context, userID int64) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM dropped_books WHERE user_id = $1`,
		userID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete dropped books by user: %w", err)
	}
	return nil
}

// compile-time interface check
var _ DroppedBookRepository = (*PostgresDroppedRepo)(nil)
