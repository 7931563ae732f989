package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/readingclub/internal/model"
)

// PostgresBookRepo はPostgreSQLを使用した読了本リポジトリ。
type PostgresBookRepo struct {
	db *sql.DB
}

// NewPostgresBookRepo はPostgresBookRepoを生成する。
func NewPostgresBookRepo(db *sql.DB) *PostgresBookRepo {
	return &PostgresBookRepo{db: db}
}

// FindByID は指定IDの本を取得する。見つからない場合はnilを返す。
func (r *PostgresBookRepo) FindByID(ctx context.Context, id int64) (*model.Book, error) {
	book := &model.Book{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, title, author, cover_image, rating, review, finished_date, created_at, updated_at
		 FROM books WHERE id = $1`,
		id,
	).Scan(&book.ID, &book.UserID, &book.Title, &book.Author, &book.CoverImage,
		&book.Rating, &book.Review, &book.FinishedDate, &book.CreatedAt, &book.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find book by ID: %w", err)
	}

	return book, nil
}

// ListByUserID はユーザーの読了本一覧をfinished_date降順で返す。
// 総件数も合わせて返す。
func (r *PostgresBookRepo) ListByUserID(ctx context.Context, userID int64, page model.PageRequest) ([]*model.Book, int64, error) {
	var total int64
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM books WHERE user_id = $1`,
		userID,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count books: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, title, author, cover_image, rating, review, finished_date, created_at, updated_at
		 FROM books
		 WHERE user_id = $1
		 ORDER BY finished_date DESC, id DESC
		 LIMIT $2 OFFSET $3`,
		userID, page.Limit(), page.Offset(),
	)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list books: %w", err)
	}
	defer rows.Close()

	var books []*model.Book
	for rows.Next() {
		book := &model.Book{}
		if err := rows.Scan(&book.ID, &book.UserID, &book.Title, &book.Author, &book.CoverImage,
			&book.Rating, &book.Review, &book.FinishedDate, &book.CreatedAt, &book.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("failed to scan book: %w", err)
		}
		books = append(books, book)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate books: %w", err)
	}

	return books, total, nil
}

// SearchByUserID はタイトル・著者の部分一致で絞り込んだ読了本一覧を返す。
// searchが空の場合は絞り込まない。sortは"rating"のとき評価降順、それ以外はfinished_date降順。
func (r *PostgresBookRepo) SearchByUserID(ctx context.Context, userID int64, search, sort string, page model.PageRequest) ([]*model.Book, int64, error) {
	where := `WHERE user_id = $1`
	args := []any{userID}
	if search != "" {
		where += ` AND (title ILIKE $2 OR author ILIKE $2)`
		args = append(args, "%"+search+"%")
	}

	orderBy := `ORDER BY finished_date DESC, id DESC`
	if sort == "rating" {
		orderBy = `ORDER BY rating DESC, finished_date DESC, id DESC`
	}

	var total int64
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM books `+where, args...,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count books: %w", err)
	}

	limitPos := len(args) + 1
	args = append(args, page.Limit(), page.Offset())
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, title, author, cover_image, rating, review, finished_date, created_at, updated_at
		 FROM books `+where+` `+orderBy+
			fmt.Sprintf(` LIMIT $%d OFFSET $%d`, limitPos, limitPos+1),
		args...,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to search books: %w", err)
	}
	defer rows.Close()

	var books []*model.Book
	for rows.Next() {
		book := &model.Book{}
		if err := rows.Scan(&book.ID, &book.UserID, &book.Title, &book.Author, &book.CoverImage,
			&book.Rating, &book.Review, &book.FinishedDate, &book.CreatedAt, &book.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("failed to scan book: %w", err)
		}
		books = append(books, book)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate books: %w", err)
	}

	return books, total, nil
}

// ExistsByUserAndTitle は同一ユーザーが同タイトル・同著者の本を登録済みかを返す。
func (r *PostgresBookRepo) ExistsByUserAndTitle(ctx context.Context, userID int64, title, author string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM books WHERE user_id = $1 AND title = $2 AND author = $3)`,
		userID, title, author,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check book existence: %w", err)
	}
	return exists, nil
}

// Create は本を作成し、採番されたIDをbook.IDに設定する。
func (r *PostgresBookRepo) Create(ctx context.Context, book *model.Book) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO books (user_id, title, author, cover_image, rating, review, finished_date, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING id`,
		book.UserID, book.Title, book.Author, book.CoverImage, book.Rating, book.Review,
		book.FinishedDate, book.CreatedAt, book.UpdatedAt,
	).Scan(&book.ID)
	if err != nil {
		return fmt.Errorf("failed to insert book: %w", err)
	}
	return nil
}

// Update は本の情報を更新する。
func (r *PostgresBookRepo) Update(ctx context.Context, book *model.Book) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE books
		 SET title = $1, author = $2, cover_image = $3, rating = $4, review = $5, finished_date = $6, updated_at = now()
		 WHERE id = $7`,
		book.Title, book.Author, book.CoverImage, book.Rating, book.Review, book.FinishedDate, book.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update book: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("book not found: %d", book.ID)
	}
	return nil
}

// DeleteByID は指定IDの本を削除する。
func (r *PostgresBookRepo) DeleteByID(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM books WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to delete book: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("book not found: %d", id)
	}
	return nil
}

// DeleteByUserID はユーザーの全読了本を削除する。
func (r *PostgresBookRepo) DeleteByUserID(ctx context.Context, userID int64) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM books WHERE user_id = $1`,
		userID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete books by user: %w", err)
	}
	return nil
}

// CountByUserID はユーザーの読了本数を返す。
func (r *PostgresBookRepo) CountByUserID(ctx context.Context, userID int64) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM books WHERE user_id = $1`,
		userID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count books: %w", err)
	}
	return count, nil
}

// AverageRatingByUserID はユーザーの全読了本の平均評価を返す。読了本がない場合は0。
func (r *PostgresBookRepo) AverageRatingByUserID(ctx context.Context, userID int64) (float64, error) {
	var avg float64
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(AVG(rating), 0) FROM books WHERE user_id = $1`,
		userID,
	).Scan(&avg)
	if err != nil {
		return 0, fmt.Errorf("failed to query average rating: %w", err)
	}
	return avg, nil
}

// CountByUserIDAndYear は指定年の読了本数を返す。
func (r *PostgresBookRepo) CountByUserIDAndYear(ctx context.Context, userID int64, year int) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM books WHERE user_id = $1 AND EXTRACT(YEAR FROM finished_date) = $2`,
		userID, year,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count books by year: %w", err)
	}
	return count, nil
}

// MonthlyStatsByUserID はユーザーの月別読了数と平均評価を返す。
// finished_dateの月で集計し、月の昇順で返す。
func (r *PostgresBookRepo) MonthlyStatsByUserID(ctx context.Context, userID int64, year int) ([]model.MonthlyStats, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT to_char(finished_date, 'YYYY-MM') AS month, COUNT(*), AVG(rating)
		 FROM books
		 WHERE user_id = $1 AND EXTRACT(YEAR FROM finished_date) = $2
		 GROUP BY month
		 ORDER BY month`,
		userID, year,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query monthly stats: %w", err)
	}
	defer rows.Close()

	var stats []model.MonthlyStats
	for rows.Next() {
		var s model.MonthlyStats
		if err := rows.Scan(&s.Month, &s.BookCount, &s.AvgRating); err != nil {
			return nil, fmt.Errorf("failed to scan monthly stats: %w", err)
		}
		stats = append(stats, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate monthly stats: %w", err)
	}

	return stats, nil
}

// compile-time interface check
var _ BookRepository = (*PostgresBookRepo)(nil)
