package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/readingclub/internal/model"
)

// PostgresMemberRepo はPostgreSQLを使用したグループメンバーリポジトリ。
type PostgresMemberRepo struct {
	db *sql.DB
}

// NewPostgresMemberRepo はPostgresMemberRepoを生成する。
func NewPostgresMemberRepo(db *sql.DB) *PostgresMemberRepo {
	return &PostgresMemberRepo{db: db}
}

// FindByGroupAndUser はグループIDとユーザーIDでメンバーを検索する。見つからない場合はnilを返す。
func (r *PostgresMemberRepo) FindByGroupAndUser(ctx context.Context, groupID, userID int64) (*model.GroupMember, error) {
	member := &model.GroupMember{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, group_id, user_id, role, status, introduction, joined_at, updated_at
		 FROM group_members WHERE group_id = $1 AND user_id = $2`,
		groupID, userID,
	).Scan(&member.ID, &member.GroupID, &member.UserID, &member.Role, &member.Status,
		&member.Introduction, &member.JoinedAt, &member.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find group member: %w", err)
	}

	return member, nil
}

// ListByGroupID はグループのactiveメンバー一覧をjoined_at昇順で返す。
func (r *PostgresMemberRepo) ListByGroupID(ctx context.Context, groupID int64) ([]*model.GroupMember, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, group_id, user_id, role, status, introduction, joined_at, updated_at
		 FROM group_members
		 WHERE group_id = $1 AND status = 'active'
		 ORDER BY joined_at, id`,
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list group members: %w", err)
	}
	defer rows.Close()

	var members []*model.GroupMember
	for rows.Next() {
		member := &model.GroupMember{}
		if err := rows.Scan(&member.ID, &member.GroupID, &member.UserID, &member.Role, &member.Status,
			&member.Introduction, &member.JoinedAt, &member.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan group member: %w", err)
		}
		members = append(members, member)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate group members: %w", err)
	}

	return members, nil
}

// CountActiveByGroupID はグループのactiveメンバー数を返す。
func (r *PostgresMemberRepo) CountActiveByGroupID(ctx context.Context, groupID int64) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM group_members WHERE group_id = $1 AND status = 'active'`,
		groupID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count group members: %w", err)
	}
	return count, nil
}

// Create はメンバーを作成する。
// 同一グループ・ユーザーのUNIQUE制約違反の場合はmodel.ErrDuplicateMemberを返す。
func (r *PostgresMemberRepo) Create(ctx context.Context, member *model.GroupMember) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO group_members (group_id, user_id, role, status, introduction, joined_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id`,
		member.GroupID, member.UserID, member.Role, member.Status, member.Introduction,
		member.JoinedAt, member.UpdatedAt,
	).Scan(&member.ID)
	if err != nil {
		if isUniqueViolation(err, "") {
			return model.ErrDuplicateMember
		}
		return fmt.Errorf("failed to insert group member: %w", err)
	}
	return nil
}

// UpdateRole はメンバーのロールを更新する。
func (r *PostgresMemberRepo) UpdateRole(ctx context.Context, id int64, role model.MemberRole) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE group_members SET role = $1, updated_at = now() WHERE id = $2`,
		role, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update member role: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("group member not found: %d", id)
	}
	return nil
}

// UpdateStatus はメンバーのステータスを更新する。
func (r *PostgresMemberRepo) UpdateStatus(ctx context.Context, id int64, status model.MemberStatus) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE group_members SET status = $1, updated_at = now() WHERE id = $2`,
		status, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update member status: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("group member not found: %d", id)
	}
	return nil
}

// DeleteByID は指定IDのメンバーを削除する。
func (r *PostgresMemberRepo) DeleteByID(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM group_members WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to delete group member: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("group member not found: %d", id)
	}
	return nil
}

// DeleteByUserID はユーザーの全メンバーシップを削除する。
func (r *PostgresMemberRepo) DeleteByUserID(ctx context.Context, userID int64) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM group_members WHERE user_id = $1`,
		userID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete group members by user: %w", err)
	}
	return nil
}

// compile-time interface check
var _ GroupMemberRepository = (*PostgresMemberRepo)(nil)
