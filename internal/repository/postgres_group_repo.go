package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/readingclub/internal/model"
)

// groupColumns はreading_groupsの取得カラム。アクティブメンバー数をサブクエリで集計する。
const groupColumns = `
	g.id, g.name, g.description, g.creator_id, g.max_members, g.is_public, g.invite_code, g.status,
	g.book_title, g.author, g.publisher, g.book_cover_image,
	g.meeting_date_time, g.duration_hours, g.has_assignment, g.meeting_type, g.location, g.meeting_url,
	(SELECT COUNT(*) FROM group_members m WHERE m.group_id = g.id AND m.status = 'active') AS member_count,
	g.created_at, g.updated_at`

// PostgresGroupRepo はPostgreSQLを使用した読書グループリポジトリ。
type PostgresGroupRepo struct {
	db *sql.DB
}

// NewPostgresGroupRepo はPostgresGroupRepoを生成する。
func NewPostgresGroupRepo(db *sql.DB) *PostgresGroupRepo {
	return &PostgresGroupRepo{db: db}
}

// scanGroup は1行をReadingGroupに読み取る。
func scanGroup(scanner interface{ Scan(...any) error }) (*model.ReadingGroup, error) {
	group := &model.ReadingGroup{}
	err := scanner.Scan(
		&group.ID, &group.Name, &group.Description, &group.CreatorID, &group.MaxMembers,
		&group.IsPublic, &group.InviteCode, &group.Status,
		&group.BookTitle, &group.Author, &group.Publisher, &group.BookCoverImage,
		&group.MeetingDateTime, &group.DurationHours, &group.HasAssignment,
		&group.MeetingType, &group.Location, &group.MeetingURL,
		&group.MemberCount,
		&group.CreatedAt, &group.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return group, nil
}

// FindByID は指定IDのグループをメンバー数付きで取得する。見つからない場合はnilを返す。
func (r *PostgresGroupRepo) FindByID(ctx context.Context, id int64) (*model.ReadingGroup, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+groupColumns+` FROM reading_groups g WHERE g.id = $1`,
		id,
	)
	group, err := scanGroup(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find group by ID: %w", err)
	}
	return group, nil
}

// FindByInviteCode は招待コードでグループを検索する。見つからない場合はnilを返す。
func (r *PostgresGroupRepo) FindByInviteCode(ctx context.Context, inviteCode string) (*model.ReadingGroup, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+groupColumns+` FROM reading_groups g WHERE g.invite_code = $1`,
		inviteCode,
	)
	group, err := scanGroup(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find group by invite code: %w", err)
	}
	return group, nil
}

// ListPublic は公開中のactiveなグループ一覧をcreated_at降順で返す。
// searchが空でない場合はグループ名・課題本タイトルの部分一致で絞り込む。
func (r *PostgresGroupRepo) ListPublic(ctx context.Context, search string, page model.PageRequest) ([]*model.ReadingGroup, int64, error) {
	where := `WHERE g.is_public = TRUE AND g.status = 'active'`
	args := []any{}
	if search != "" {
		where += ` AND (g.name ILIKE $1 OR g.book_title ILIKE $1)`
		args = append(args, "%"+search+"%")
	}

	var total int64
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM reading_groups g `+where, args...,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count public groups: %w", err)
	}

	limitPos := len(args) + 1
	args = append(args, page.Limit(), page.Offset())
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+groupColumns+`
		 FROM reading_groups g
		 `+where+`
		 ORDER BY g.created_at DESC, g.id DESC`+
			fmt.Sprintf(` LIMIT $%d OFFSET $%d`, limitPos, limitPos+1),
		args...,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list public groups: %w", err)
	}
	defer rows.Close()

	var groups []*model.ReadingGroup
	for rows.Next() {
		group, err := scanGroup(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan group: %w", err)
		}
		groups = append(groups, group)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate groups: %w", err)
	}

	return groups, total, nil
}

// ListByMemberUserID はユーザーが所属するグループ一覧を返す。
func (r *PostgresGroupRepo) ListByMemberUserID(ctx context.Context, userID int64) ([]*model.ReadingGroup, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+groupColumns+`
		 FROM reading_groups g
		 JOIN group_members gm ON gm.group_id = g.id
		 WHERE gm.user_id = $1 AND gm.status = 'active'
		 ORDER BY gm.joined_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list groups by member: %w", err)
	}
	defer rows.Close()

	var groups []*model.ReadingGroup
	for rows.Next() {
		group, err := scanGroup(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan group: %w", err)
		}
		groups = append(groups, group)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate groups: %w", err)
	}

	return groups, nil
}

// Create はグループを作成し、採番されたIDを設定する。
func (r *PostgresGroupRepo) Create(ctx context.Context, group *model.ReadingGroup) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO reading_groups (
			name, description, creator_id, max_members, is_public, invite_code, status,
			book_title, author, publisher, book_cover_image,
			meeting_date_time, duration_hours, has_assignment, meeting_type, location, meeting_url,
			created_at, updated_at
		 ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
		 RETURNING id`,
		group.Name, group.Description, group.CreatorID, group.MaxMembers, group.IsPublic,
		group.InviteCode, group.Status,
		group.BookTitle, group.Author, group.Publisher, group.BookCoverImage,
		group.MeetingDateTime, group.DurationHours, group.HasAssignment,
		group.MeetingType, group.Location, group.MeetingURL,
		group.CreatedAt, group.UpdatedAt,
	).Scan(&group.ID)
	if err != nil {
		return fmt.Errorf("failed to insert group: %w", err)
	}
	return nil
}

// Update はグループ情報を更新する。
func (r *PostgresGroupRepo) Update(ctx context.Context, group *model.ReadingGroup) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE reading_groups
		 SET name = $1, description = $2, max_members = $3, is_public = $4, status = $5,
		     book_title = $6, author = $7, publisher = $8, book_cover_image = $9,
		     meeting_date_time = $10, duration_hours = $11, has_assignment = $12,
		     meeting_type = $13, location = $14, meeting_url = $15, updated_at = now()
		 WHERE id = $16`,
		group.Name, group.Description, group.MaxMembers, group.IsPublic, group.Status,
		group.BookTitle, group.Author, group.Publisher, group.BookCoverImage,
		group.MeetingDateTime, group.DurationHours, group.HasAssignment,
		group.MeetingType, group.Location, group.MeetingURL, group.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update group: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("group not found: %d", group.ID)
	}
	return nil
}

// DeleteByID は指定IDのグループを削除する。
// メンバー、ミーティング、課題図書はCASCADE削除される。
func (r *PostgresGroupRepo) DeleteByID(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM reading_groups WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to delete group: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("group not found: %d", id)
	}
	return nil
}

// compile-time interface check
var _ ReadingGroupRepository = (*PostgresGroupRepo)(nil)
