package store

import (
	"context"
	"fmt"
)

// Registry operations over the groups/group_members tables. All of
// these have Tx variants because healing must read-modify-write the
// registry inside a single transaction per group.

// GroupIDExists reports whether the registry has an entry for groupID.
func (t *Tx) GroupIDExists(ctx context.Context, groupID string) (bool, error) {
	var n int
	err := t.tx.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM groups WHERE group_id = ?`, groupID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("group exists %s: %w", groupID, err)
	}
	return n > 0, nil
}

// GetMembers returns the registered member IDs of a group in position
// order. A missing group returns an empty slice, not an error; absence
// is a normal healing input.
func (t *Tx) GetMembers(ctx context.Context, groupID string) ([]string, error) {
	rows, err := t.tx.QueryContext(ctx, `
		SELECT member_id FROM group_members
		WHERE group_id = ?
		ORDER BY position
	`, groupID)
	if err != nil {
		return nil, fmt.Errorf("get members %s: %w", groupID, err)
	}
	defer rows.Close()

	var members []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("get members %s: %w", groupID, err)
		}
		members = append(members, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get members %s: %w", groupID, err)
	}
	return members, nil
}

// ReplaceMembers registers a group and sets its member list in one
// shot, replacing whatever was there. Used by Resurrect and
// UpdateMembers; idempotent for identical input.
func (t *Tx) ReplaceMembers(ctx context.Context, groupID string, memberIDs []string) error {
	if _, err := t.tx.ExecContext(ctx, `
		INSERT INTO groups (group_id) VALUES (?)
		ON CONFLICT(group_id) DO NOTHING
	`, groupID); err != nil {
		return fmt.Errorf("replace members %s: %w", groupID, err)
	}
	if _, err := t.tx.ExecContext(ctx,
		`DELETE FROM group_members WHERE group_id = ?`, groupID); err != nil {
		return fmt.Errorf("replace members %s: %w", groupID, err)
	}
	for i, id := range memberIDs {
		if _, err := t.tx.ExecContext(ctx, `
			INSERT INTO group_members (group_id, member_id, position)
			VALUES (?, ?, ?)
			ON CONFLICT(group_id, member_id) DO UPDATE SET position = excluded.position
		`, groupID, id, i); err != nil {
			return fmt.Errorf("replace members %s: %w", groupID, err)
		}
	}
	return nil
}

// DeleteGroup drops a registry entry and its member rows.
func (t *Tx) DeleteGroup(ctx context.Context, groupID string) error {
	if _, err := t.tx.ExecContext(ctx,
		`DELETE FROM groups WHERE group_id = ?`, groupID); err != nil {
		return fmt.Errorf("delete group %s: %w", groupID, err)
	}
	return nil
}

// ListGroups returns every registered group ID in sorted order.
func (s *Store) ListGroups(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT group_id FROM groups ORDER BY group_id`)
	if err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("list groups: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	return ids, nil
}
