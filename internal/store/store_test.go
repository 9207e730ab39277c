package store

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thanhtdvncc/dts-beam-tool/internal/model"
)

func openTest(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func testSpan(id string, x0, x1 float64) model.Span {
	return model.Span{
		ID:            id,
		Start:         model.Point2D{X: x0, Y: 100},
		End:           model.Point2D{X: x1, Y: 100},
		Width:         300,
		Depth:         600,
		SupportStart:  model.SupportColumn,
		SupportEnd:    model.SupportWall,
		ConcreteGrade: "B20",
		SteelGrade:    "CB400-V",
		Demand: &model.SteelDemand{
			Start:       model.ZoneDemand{TopArea: 850, BotArea: 300},
			Mid:         model.ZoneDemand{TopArea: 200, BotArea: 900},
			End:         model.ZoneDemand{TopArea: 800, BotArea: 350},
			TorsionArea: 120,
		},
	}
}

// TestOpen_Reopen tests that the schema and migrations tolerate
// reopening an existing database.
func TestOpen_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.WriteSpan(context.Background(), testSpan("a", 0, 4500)))
	require.NoError(t, s.Close())

	s2, err := Open(path)
	require.NoError(t, err)
	defer s2.Close()

	got, err := s2.ReadSpan(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, "a", got.ID)
}

// TestSpanRoundTrip tests that a span with full demand survives a
// write/read cycle exactly.
func TestSpanRoundTrip(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()

	want := testSpan("s1", 0, 4500)
	require.NoError(t, s.WriteSpan(ctx, want))

	got, err := s.ReadSpan(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

// TestSpanRoundTrip_NilDemand tests the nullable demand column.
func TestSpanRoundTrip_NilDemand(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()

	want := testSpan("s1", 0, 4500)
	want.Demand = nil
	require.NoError(t, s.WriteSpan(ctx, want))

	got, err := s.ReadSpan(ctx, "s1")
	require.NoError(t, err)
	assert.Nil(t, got.Demand)
}

// TestWriteSpan_Upsert tests idempotent overwrite on conflict.
func TestWriteSpan_Upsert(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()

	sp := testSpan("s1", 0, 4500)
	require.NoError(t, s.WriteSpan(ctx, sp))
	sp.Width = 350
	require.NoError(t, s.WriteSpan(ctx, sp))

	got, err := s.ReadSpan(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 350.0, got.Width)

	all, err := s.ListSpans(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

// TestReadSpan_NotFound tests the sentinel error.
func TestReadSpan_NotFound(t *testing.T) {
	s := openTest(t)
	_, err := s.ReadSpan(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrNotFound)
}

// TestListSpans_Order tests the deterministic listing order.
func TestListSpans_Order(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()
	for _, id := range []string{"c", "a", "b"} {
		require.NoError(t, s.WriteSpan(ctx, testSpan(id, 0, 4500)))
	}
	all, err := s.ListSpans(ctx)
	require.NoError(t, err)
	ids := make([]string, len(all))
	for i, sp := range all {
		ids[i] = sp.ID
	}
	assert.Equal(t, []string{"a", "b", "c"}, ids)
}

// TestRecords tests write/read/absent/delete of the structured record area.
func TestRecords(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()
	require.NoError(t, s.WriteSpan(ctx, testSpan("s1", 0, 4500)))

	var rec GroupIdentityRecord
	ok, err := s.ReadRecord(ctx, "s1", RecordGroupIdentity, &rec)
	require.NoError(t, err)
	assert.False(t, ok, "absent record is a normal state")

	want := GroupIdentityRecord{GroupID: "G-1"}
	require.NoError(t, s.WriteRecord(ctx, "s1", RecordGroupIdentity, want))

	ok, err = s.ReadRecord(ctx, "s1", RecordGroupIdentity, &rec)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, want, rec)

	// Overwrite in place.
	want.GroupID = "G-2"
	require.NoError(t, s.WriteRecord(ctx, "s1", RecordGroupIdentity, want))
	_, err = s.ReadRecord(ctx, "s1", RecordGroupIdentity, &rec)
	require.NoError(t, err)
	assert.Equal(t, "G-2", rec.GroupID)

	require.NoError(t, s.DeleteRecord(ctx, "s1", RecordGroupIdentity))
	ok, err = s.ReadRecord(ctx, "s1", RecordGroupIdentity, &rec)
	require.NoError(t, err)
	assert.False(t, ok)
}

// TestRecords_CascadeOnSpanDelete tests that deleting a span removes its
// records.
func TestRecords_CascadeOnSpanDelete(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()
	require.NoError(t, s.WriteSpan(ctx, testSpan("s1", 0, 4500)))
	require.NoError(t, s.WriteRecord(ctx, "s1", RecordGroupIdentity, GroupIdentityRecord{GroupID: "G-1"}))

	require.NoError(t, s.DeleteSpan(ctx, "s1"))

	var rec GroupIdentityRecord
	ok, err := s.ReadRecord(ctx, "s1", RecordGroupIdentity, &rec)
	require.NoError(t, err)
	assert.False(t, ok)
}

// TestGroupMembers tests registry entry storage inside a transaction.
func TestGroupMembers(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()

	err := s.WithTx(ctx, func(tx *Tx) error {
		exists, err := tx.GroupIDExists(ctx, "G-1")
		require.NoError(t, err)
		assert.False(t, exists)

		members, err := tx.GetMembers(ctx, "G-1")
		require.NoError(t, err)
		assert.Empty(t, members, "missing group lists empty, not error")

		require.NoError(t, tx.ReplaceMembers(ctx, "G-1", []string{"a", "b", "c"}))
		members, err = tx.GetMembers(ctx, "G-1")
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b", "c"}, members, "position order preserved")

		require.NoError(t, tx.ReplaceMembers(ctx, "G-1", []string{"b"}))
		members, err = tx.GetMembers(ctx, "G-1")
		require.NoError(t, err)
		assert.Equal(t, []string{"b"}, members)

		require.NoError(t, tx.DeleteGroup(ctx, "G-1"))
		exists, err = tx.GroupIDExists(ctx, "G-1")
		require.NoError(t, err)
		assert.False(t, exists)
		return nil
	})
	require.NoError(t, err)
}

// TestWithTx_Rollback tests that a returned error undoes the write.
func TestWithTx_Rollback(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()

	sentinel := fmt.Errorf("abort")
	err := s.WithTx(ctx, func(tx *Tx) error {
		require.NoError(t, tx.WriteSpan(ctx, testSpan("s1", 0, 4500)))
		return sentinel
	})
	assert.ErrorIs(t, err, sentinel)

	_, err = s.ReadSpan(ctx, "s1")
	assert.ErrorIs(t, err, ErrNotFound)
}

// TestGroupIdentities tests the prior-link snapshot used by topology.
func TestGroupIdentities(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()

	require.NoError(t, s.WriteSpan(ctx, testSpan("a", 0, 4500)))
	require.NoError(t, s.WriteSpan(ctx, testSpan("b", 4500, 9000)))
	require.NoError(t, s.WriteSpan(ctx, testSpan("c", 9000, 13500)))

	require.NoError(t, s.WriteRecord(ctx, "a", RecordGroupIdentity, GroupIdentityRecord{GroupID: "G-1"}))
	require.NoError(t, s.WriteRecord(ctx, "b", RecordGroupIdentity, GroupIdentityRecord{GroupID: "G-1", Reference: true}))
	require.NoError(t, s.WriteRecord(ctx, "c", RecordGroupIdentity, GroupIdentityRecord{GroupID: "G-2"}))

	got, err := s.GroupIdentities(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"a": "G-1", "c": "G-2"}, got,
		"reference links excluded")
}

// TestSpansClaimingGroup tests the duplicate-detection query.
func TestSpansClaimingGroup(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()

	require.NoError(t, s.WriteSpan(ctx, testSpan("b", 0, 4500)))
	require.NoError(t, s.WriteSpan(ctx, testSpan("a", 4500, 9000)))
	require.NoError(t, s.WriteRecord(ctx, "a", RecordGroupIdentity, GroupIdentityRecord{GroupID: "G-1"}))
	require.NoError(t, s.WriteRecord(ctx, "b", RecordGroupIdentity, GroupIdentityRecord{GroupID: "G-1"}))

	err := s.WithTx(ctx, func(tx *Tx) error {
		ids, err := tx.SpansClaimingGroup(ctx, "G-1")
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b"}, ids)
		return nil
	})
	require.NoError(t, err)
}
