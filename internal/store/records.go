package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

// Well-known record names in the per-span structured record area.
const (
	// RecordGroupIdentity is the group identifier a span claims to
	// belong to. Survives span copies, which is exactly how duplicate
	// groups are born.
	RecordGroupIdentity = "group_identity"

	// RecordSelectedSolution is the persisted winning solution for the
	// group, stored on the anchor span.
	RecordSelectedSolution = "selected_solution"
)

// GroupIdentityRecord is the payload of RecordGroupIdentity.
type GroupIdentityRecord struct {
	GroupID string `json:"group_id"`
	// Reference marks a secondary link. Reference links never trigger
	// orphan or duplicate healing.
	Reference bool `json:"reference,omitempty"`
}

// WriteRecord stores a structured record under (spanID, name),
// overwriting any previous payload. The payload is serialized as JSON.
func (s *Store) WriteRecord(ctx context.Context, spanID, name string, payload any) error {
	return writeRecord(ctx, s.db, spanID, name, payload)
}

// WriteRecord stores a record inside the transaction.
func (t *Tx) WriteRecord(ctx context.Context, spanID, name string, payload any) error {
	return writeRecord(ctx, t.tx, spanID, name, payload)
}

func writeRecord(ctx context.Context, q querier, spanID, name string, payload any) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("write record %s/%s: marshal: %w", spanID, name, err)
	}
	_, err = q.ExecContext(ctx, `
		INSERT INTO records (span_id, name, payload)
		VALUES (?, ?, ?)
		ON CONFLICT(span_id, name) DO UPDATE SET payload = excluded.payload
	`, spanID, name, string(b))
	if err != nil {
		return fmt.Errorf("write record %s/%s: %w", spanID, name, err)
	}
	return nil
}

// ReadRecord loads a record into out. Returns false with a nil error
// when the record does not exist; a span with no group identity record
// is a normal state, not a failure.
func (s *Store) ReadRecord(ctx context.Context, spanID, name string, out any) (bool, error) {
	return readRecord(ctx, s.db, spanID, name, out)
}

// ReadRecord loads a record inside the transaction.
func (t *Tx) ReadRecord(ctx context.Context, spanID, name string, out any) (bool, error) {
	return readRecord(ctx, t.tx, spanID, name, out)
}

func readRecord(ctx context.Context, q querier, spanID, name string, out any) (bool, error) {
	var payload string
	err := q.QueryRowContext(ctx,
		`SELECT payload FROM records WHERE span_id = ? AND name = ?`,
		spanID, name).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read record %s/%s: %w", spanID, name, err)
	}
	if err := json.Unmarshal([]byte(payload), out); err != nil {
		return false, fmt.Errorf("read record %s/%s: unmarshal: %w", spanID, name, err)
	}
	return true, nil
}

// DeleteRecord removes one record. Missing records delete cleanly.
func (s *Store) DeleteRecord(ctx context.Context, spanID, name string) error {
	return deleteRecord(ctx, s.db, spanID, name)
}

// DeleteRecord removes one record inside the transaction.
func (t *Tx) DeleteRecord(ctx context.Context, spanID, name string) error {
	return deleteRecord(ctx, t.tx, spanID, name)
}

func deleteRecord(ctx context.Context, q querier, spanID, name string) error {
	if _, err := q.ExecContext(ctx,
		`DELETE FROM records WHERE span_id = ? AND name = ?`, spanID, name); err != nil {
		return fmt.Errorf("delete record %s/%s: %w", spanID, name, err)
	}
	return nil
}

// GroupIdentities returns the primary group identifier each live span
// claims, keyed by span ID. Reference links are excluded. Used to seed
// topology building with persisted prior links.
func (s *Store) GroupIdentities(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.span_id, r.payload
		FROM records r
		JOIN spans sp ON sp.id = r.span_id
		WHERE r.name = ?
	`, RecordGroupIdentity)
	if err != nil {
		return nil, fmt.Errorf("group identities: %w", err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var spanID, payload string
		if err := rows.Scan(&spanID, &payload); err != nil {
			return nil, fmt.Errorf("group identities: %w", err)
		}
		var rec GroupIdentityRecord
		if err := json.Unmarshal([]byte(payload), &rec); err != nil {
			continue
		}
		if !rec.Reference && rec.GroupID != "" {
			out[spanID] = rec.GroupID
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("group identities: %w", err)
	}
	return out, nil
}

// SpansClaimingGroup returns the IDs of live spans whose group identity
// record names the given group, in span-ID order. Reference links are
// excluded; they never participate in healing.
func (t *Tx) SpansClaimingGroup(ctx context.Context, groupID string) ([]string, error) {
	rows, err := t.tx.QueryContext(ctx, `
		SELECT r.span_id, r.payload
		FROM records r
		JOIN spans s ON s.id = r.span_id
		WHERE r.name = ?
		ORDER BY r.span_id
	`, RecordGroupIdentity)
	if err != nil {
		return nil, fmt.Errorf("spans claiming group %s: %w", groupID, err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var spanID, payload string
		if err := rows.Scan(&spanID, &payload); err != nil {
			return nil, fmt.Errorf("spans claiming group %s: %w", groupID, err)
		}
		var rec GroupIdentityRecord
		if err := json.Unmarshal([]byte(payload), &rec); err != nil {
			// A corrupt identity record is an inconsistency to heal
			// around, not a reason to fail the pass.
			continue
		}
		if rec.GroupID == groupID && !rec.Reference {
			ids = append(ids, spanID)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("spans claiming group %s: %w", groupID, err)
	}
	return ids, nil
}
