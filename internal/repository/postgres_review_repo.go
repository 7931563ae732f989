package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/readingclub/internal/model"
)

// PostgresReviewRepo はPostgreSQLを使用した課題本レビューリポジトリ。
type PostgresReviewRepo struct {
	db *sql.DB
}

// NewPostgresReviewRepo はPostgresReviewRepoを生成する。
func NewPostgresReviewRepo(db *sql.DB) *PostgresReviewRepo {
	return &PostgresReviewRepo{db: db}
}

// FindByID は指定IDのレビューを取得する。見つからない場合はnilを返す。
func (r *PostgresReviewRepo) FindByID(ctx context.Context, id int64) (*model.BookReview, error) {
	review := &model.BookReview{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, monthly_book_id, user_id, rating, content, is_public, created_at, updated_at
		 FROM book_reviews WHERE id = $1`,
		id,
	).Scan(&review.ID, &review.MonthlyBookID, &review.UserID, &review.Rating,
		&review.Content, &review.IsPublic, &review.CreatedAt, &review.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find review by ID: %w", err)
	}

	return review, nil
}

// FindByMonthlyBookAndUser は課題本IDとユーザーIDでレビューを検索する。見つからない場合はnilを返す。
func (r *PostgresReviewRepo) FindByMonthlyBookAndUser(ctx context.Context, monthlyBookID, userID int64) (*model.BookReview, error) {
	review := &model.BookReview{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, monthly_book_id, user_id, rating, content, is_public, created_at, updated_at
		 FROM book_reviews WHERE monthly_book_id = $1 AND user_id = $2`,
		monthlyBookID, userID,
	).Scan(&review.ID, &review.MonthlyBookID, &review.UserID, &review.Rating,
		&review.Content, &review.IsPublic, &review.CreatedAt, &review.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find review: %w", err)
	}

	return review, nil
}

// ListByMonthlyBookID は課題本のレビュー一覧をcreated_at降順で返す。
func (r *PostgresReviewRepo) ListByMonthlyBookID(ctx context.Context, monthlyBookID int64) ([]*model.BookReview, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, monthly_book_id, user_id, rating, content, is_public, created_at, updated_at
		 FROM book_reviews
		 WHERE monthly_book_id = $1
		 ORDER BY created_at DESC, id DESC`,
		monthlyBookID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	defer rows.Close()

	var reviews []*model.BookReview
	for rows.Next() {
		review := &model.BookReview{}
		if err := rows.Scan(&review.ID, &review.MonthlyBookID, &review.UserID, &review.Rating,
			&review.Content, &review.IsPublic, &review.CreatedAt, &review.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan review: %w", err)
		}
		reviews = append(reviews, review)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate reviews: %w", err)
	}

	return reviews, nil
}

// Create はレビューを作成する。
// 同一課題本・ユーザーのUNIQUE制約違反の場合はmodel.ErrDuplicateReviewを返す。
func (r *PostgresReviewRepo) Create(ctx context.Context, review *model.BookReview) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO book_reviews (monthly_book_id, user_id, rating, content, is_public, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id`,
		review.MonthlyBookID, review.UserID, review.Rating, review.Content, review.IsPublic,
		review.CreatedAt, review.UpdatedAt,
	).Scan(&review.ID)
	if err != nil {
		if isUniqueViolation(err, "") {
			return model.ErrDuplicateReview
		}
		return fmt.Errorf("failed to insert review: %w", err)
	}
	return nil
}

// Update はレビューの評価と本文を更新する。
func (r *PostgresReviewRepo) Update(ctx context.Context, review *model.BookReview) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE book_reviews SET rating = $1, content = $2, is_public = $3, updated_at = now()
		 WHERE id = $4`,
		review.Rating, review.Content, review.IsPublic, review.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update review: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("review not found: %d", review.ID)
	}
	return nil
}

// DeleteByID は指定IDのレビューを削除する。
func (r *PostgresReviewRepo) DeleteByID(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM book_reviews WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to delete review: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("review not found: %d", id)
	}
	return nil
}

// DeleteByUserID はユーザーの全レビューを削除する。
func (r *PostgresReviewRepo) DeleteByUserID(ctx context.Context, userID int64) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM book_reviews WHERE user_id = $1`,
		userID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete reviews by user: %w", err)
	}
	return nil
}

// StatisticsByMonthlyBookID は課題本のレビュー数と平均評価を返す。
func (r *PostgresReviewRepo) StatisticsByMonthlyBookID(ctx context.Context, monthlyBookID int64) (*model.ReviewStatistics, error) {
	stats := &model.ReviewStatistics{}
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(AVG(rating), 0)
		 FROM book_reviews WHERE monthly_book_id = $1`,
		monthlyBookID,
	).Scan(&stats.ReviewCount, &stats.AverageRating)
	if err != nil {
		return nil, fmt.Errorf("failed to query review statistics: %w", err)
	}
	return stats, nil
}

// compile-time interface check
var _ BookReviewRepository = (*PostgresReviewRepo)(nil)
