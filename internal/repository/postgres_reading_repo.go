package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/readingclub/internal/model"
)

// PostgresReadingRepo はPostgreSQLを使用した読書中リポジトリ。
type PostgresReadingRepo struct {
	db *sql.DB
}

// NewPostgresReadingRepo はPostgresReadingRepoを生成する。
func NewPostgresReadingRepo(db *sql.DB) *PostgresReadingRepo {
	return &PostgresReadingRepo{db: db}
}

// FindByID は指定IDの読書中レコードを取得する。見つからない場合はnilを返す。
func (r *PostgresReadingRepo) FindByID(ctx context.Context, id int64) (*model.CurrentlyReading, error) {
	reading := &model.CurrentlyReading{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, title, author, cover_image, total_pages, current_page, started_date, target_date, created_at, updated_at
		 FROM currently_reading WHERE id = $1`,
		id,
	).Scan(&reading.ID, &reading.UserID, &reading.Title, &reading.Author, &reading.CoverImage,
		&reading.TotalPages, &reading.CurrentPage, &reading.StartedDate, &reading.TargetDate,
		&reading.CreatedAt, &reading.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find currently reading by ID: %w", err)
	}

	return reading, nil
}

// ListByUserID はユーザーの読書中一覧をstarted_date降順で返す。
func (r *PostgresReadingRepo) ListByUserID(ctx context.Context, userID int64) ([]*model.CurrentlyReading, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, title, author, cover_image, total_pages, current_page, started_date, target_date, created_at, updated_at
		 FROM currently_reading
		 WHERE user_id = $1
		 ORDER BY started_date DESC, id DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list currently reading: %w", err)
	}
	defer rows.Close()

	var readings []*model.CurrentlyReading
	for rows.Next() {
		reading := &model.CurrentlyReading{}
		if err := rows.Scan(&reading.ID, &reading.UserID, &reading.Title, &reading.Author, &reading.CoverImage,
			&reading.TotalPages, &reading.CurrentPage, &reading.StartedDate, &reading.TargetDate,
			&reading.CreatedAt, &reading.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan currently reading: %w", err)
		}
		readings = append(readings, reading)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate currently reading: %w", err)
	}

	return readings, nil
}

// Create は読書中レコードを作成し、採番されたIDを設定する。
func (r *PostgresReadingRepo) Create(ctx context.Context, reading *model.CurrentlyReading) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO currently_reading (user_id, title, author, cover_image, total_pages, current_page, started_date, target_date, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING id`,
		reading.UserID, reading.Title, reading.Author, reading.CoverImage,
		reading.TotalPages, reading.CurrentPage, reading.StartedDate, reading.TargetDate,
		reading.CreatedAt, reading.UpdatedAt,
	).Scan(&reading.ID)
	if err != nil {
		return fmt.Errorf("failed to insert currently reading: %w", err)
	}
	return nil
}

// Update は読書中レコードを更新する。
func (r *PostgresReadingRepo) Update(ctx context.Context, reading *model.CurrentlyReading) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE currently_reading
		 SET title = $1, author = $2, cover_image = $3, total_pages = $4, current_page = $5, started_date = $6, target_date = $7, updated_at = now()
		 WHERE id = $8`,
		reading.Title, reading.Author, reading.CoverImage, reading.TotalPages, reading.CurrentPage,
		reading.StartedDate, reading.TargetDate, reading.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update currently reading: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("currently reading not found: %d", reading.ID)
	}
	return nil
}

// DeleteByID は指定IDの読書中レコードを削除する。
func (r *PostgresReadingRepo) DeleteByID(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM currently_reading WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to delete currently reading: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("currently reading not found: %d", id)
	}
	return nil
}

// DeleteByUserID はユーザーの全読書中レコードを削除する。
func (r *PostgresReadingRepo) DeleteByUserID(ctx context.Context, userID int64) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM currently_reading WHERE user_id = $1`,
		userID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete currently reading by user: %w", err)
	}
	return nil
}

// compile-time interface check
var _ CurrentlyReadingRepository = (*PostgresReadingRepo)(nil)
