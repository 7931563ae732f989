package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hitoshi/readingclub/internal/model"
)

// PostgresMeetingRepo はPostgreSQLを使用したグループミーティングリポジトリ。
type PostgresMeetingRepo struct {
	db *sql.DB
}

// NewPostgresMeetingRepo はPostgresMeetingRepoを生成する。
func NewPostgresMeetingRepo(db *sql.DB) *PostgresMeetingRepo {
	return &PostgresMeetingRepo{db: db}
}

// FindByID は指定IDのミーティングを取得する。見つからない場合はnilを返す。
func (r *PostgresMeetingRepo) FindByID(ctx context.Context, id int64) (*model.GroupMeeting, error) {
	meeting := &model.GroupMeeting{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, group_id, title, description, meeting_date, location, meeting_url, created_by, created_at, updated_at
		 FROM group_meetings WHERE id = $1`,
		id,
	).Scan(&meeting.ID, &meeting.GroupID, &meeting.Title, &meeting.Description, &meeting.MeetingDate,
		&meeting.Location, &meeting.MeetingURL, &meeting.CreatedBy, &meeting.CreatedAt, &meeting.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find meeting by ID: %w", err)
	}

	return meeting, nil
}

// ListByGroupID はグループのミーティング一覧をmeeting_date昇順で返す。
func (r *PostgresMeetingRepo) ListByGroupID(ctx context.Context, groupID int64) ([]*model.GroupMeeting, error) {
	return r.list(ctx,
		`SELECT id, group_id, title, description, meeting_date, location, meeting_url, created_by, created_at, updated_at
		 FROM group_meetings
		 WHERE group_id = $1
		 ORDER BY meeting_date, id`,
		groupID,
	)
}

// ListUpcomingByGroupID はグループの未来のミーティング一覧をmeeting_date昇順で返す。
func (r *PostgresMeetingRepo) ListUpcomingByGroupID(ctx context.Context, groupID int64, now time.Time) ([]*model.GroupMeeting, error) {
	return r.list(ctx,
		`SELECT id, group_id, title, description, meeting_date, location, meeting_url, created_by, created_at, updated_at
		 FROM group_meetings
		 WHERE group_id = $1 AND meeting_date >= $2
		 ORDER BY meeting_date, id`,
		groupID, now,
	)
}

func (r *PostgresMeetingRepo) list(ctx context.Context, query string, args ...any) ([]*model.GroupMeeting, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list meetings: %w", err)
	}
	defer rows.Close()

	var meetings []*model.GroupMeeting
	for rows.Next() {
		meeting := &model.GroupMeeting{}
		if err := rows.Scan(&meeting.ID, &meeting.GroupID, &meeting.Title, &meeting.Description,
			&meeting.MeetingDate, &meeting.Location, &meeting.MeetingURL, &meeting.CreatedBy,
			&meeting.CreatedAt, &meeting.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan meeting: %w", err)
		}
		meetings = append(meetings, meeting)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate meetings: %w", err)
	}

	return meetings, nil
}

// Create はミーティングを作成し、採番されたIDを設定する。
func (r *PostgresMeetingRepo) Create(ctx context.Context, meeting *model.GroupMeeting) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO group_meetings (group_id, title, description, meeting_date, location, meeting_url, created_by, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING id`,
		meeting.GroupID, meeting.Title, meeting.Description, meeting.MeetingDate,
		meeting.Location, meeting.MeetingURL, meeting.CreatedBy, meeting.CreatedAt, meeting.UpdatedAt,
	).Scan(&meeting.ID)
	if err != nil {
		return fmt.Errorf("failed to insert meeting: %w", err)
	}
	return nil
}

// Update はミーティング情報を更新する。
func (r *PostgresMeetingRepo) Update(ctx context.Context, meeting *model.GroupMeeting) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE group_meetings
		 SET title = $1, description = $2, meeting_date = $3, location = $4, meeting_url = $5, updated_at = now()
		 WHERE id = $6`,
		meeting.Title, meeting.Description, meeting.MeetingDate, meeting.Location, meeting.MeetingURL, meeting.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update meeting: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("meeting not found: %d", meeting.ID)
	}
	return nil
}

// DeleteByID は指定IDのミーティングを削除する。
func (r *PostgresMeetingRepo) DeleteByID(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM group_meetings WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to delete meeting: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("meeting not found: %d", id)
	}
	return nil
}

// compile-time interface check
var _ GroupMeetingRepository = (*PostgresMeetingRepo)(nil)
