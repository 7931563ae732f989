package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/readingclub/internal/model"
)

// PostgresMonthlyBookRepo はPostgreSQLを使用した月間課題本リポジトリ。
type PostgresMonthlyBookRepo struct {
	db *sql.DB
}

// NewPostgresMonthlyBookRepo はPostgresMonthlyBookRepoを生成する。
func NewPostgresMonthlyBookRepo(db *sql.DB) *PostgresMonthlyBookRepo {
	return &PostgresMonthlyBookRepo{db: db}
}

// FindByID は指定IDの課題本を取得する。見つからない場合はnilを返す。
func (r *PostgresMonthlyBookRepo) FindByID(ctx context.Context, id int64) (*model.MonthlyBook, error) {
	book := &model.MonthlyBook{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, group_id, title, author, cover_image, year_month, status, selected_by, created_at, updated_at
		 FROM monthly_books WHERE id = $1`,
		id,
	).Scan(&book.ID, &book.GroupID, &book.Title, &book.Author, &book.CoverImage,
		&book.YearMonth, &book.Status, &book.SelectedBy, &book.CreatedAt, &book.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find monthly book by ID: %w", err)
	}

	return book, nil
}

// FindByGroupAndYearMonth はグループIDと年月で課題本を検索する。見つからない場合はnilを返す。
func (r *PostgresMonthlyBookRepo) FindByGroupAndYearMonth(ctx context.Context, groupID int64, yearMonth string) (*model.MonthlyBook, error) {
	book := &model.MonthlyBook{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, group_id, title, author, cover_image, year_month, status, selected_by, created_at, updated_at
		 FROM monthly_books WHERE group_id = $1 AND year_month = $2`,
		groupID, yearMonth,
	).Scan(&book.ID, &book.GroupID, &book.Title, &book.Author, &book.CoverImage,
		&book.YearMonth, &book.Status, &book.SelectedBy, &book.CreatedAt, &book.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find monthly book: %w", err)
	}

	return book, nil
}

// ListByGroupID はグループの課題本一覧をyear_month降順で返す。
func (r *PostgresMonthlyBookRepo) ListByGroupID(ctx context.Context, groupID int64) ([]*model.MonthlyBook, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, group_id, title, author, cover_image, year_month, status, selected_by, created_at, updated_at
		 FROM monthly_books
		 WHERE group_id = $1
		 ORDER BY year_month DESC`,
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list monthly books: %w", err)
	}
	defer rows.Close()

	var books []*model.MonthlyBook
	for rows.Next() {
		book := &model.MonthlyBook{}
		if err := rows.Scan(&book.ID, &book.GroupID, &book.Title, &book.Author, &book.CoverImage,
			&book.YearMonth, &book.Status, &book.SelectedBy, &book.CreatedAt, &book.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan monthly book: %w", err)
		}
		books = append(books, book)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate monthly books: %w", err)
	}

	return books, nil
}

// Create は課題本を作成する。
// 同一グループ・年月のUNIQUE制約違反の場合はmodel.ErrDuplicateMonthlyBookを返す。
func (r *PostgresMonthlyBookRepo) Create(ctx context.Context, book *model.MonthlyBook) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO monthly_books (group_id, title, author, cover_image, year_month, status, selected_by, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING id`,
		book.GroupID, book.Title, book.Author, book.CoverImage, book.YearMonth,
		book.Status, book.SelectedBy, book.CreatedAt, book.UpdatedAt,
	).Scan(&book.ID)
	if err != nil {
		if isUniqueViolation(err, "") {
			return model.ErrDuplicateMonthlyBook
		}
		return fmt.Errorf("failed to insert monthly book: %w", err)
	}
	return nil
}

// UpdateStatus は課題本のステータスを更新する。
func (r *PostgresMonthlyBookRepo) UpdateStatus(ctx context.Context, id int64, status model.BookStatus) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE monthly_books SET status = $1, updated_at = now() WHERE id = $2`,
		status, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update monthly book status: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("monthly book not found: %d", id)
	}
	return nil
}

// DeleteByID は指定IDの課題本を削除する。
func (r *PostgresMonthlyBookRepo) DeleteByID(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM monthly_books WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to delete monthly book: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("monthly book not found: %d", id)
	}
	return nil
}

// compile-time interface check
var _ MonthlyBookRepository = (*PostgresMonthlyBookRepo)(nil)
