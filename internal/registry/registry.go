// Package registry keeps the durable group-identity records consistent
// with the live drawing.
//
// The registry maps a group identifier to an ordered member list, but
// the drawing is edited by actors the engine does not control: spans
// get deleted (leaving ghost references), copied (leaving duplicates
// that still claim the old identifier) or re-linked. Healing runs
// lazily whenever a group is loaded for design, inside one store
// transaction per group, and degrades every inconsistency to "treat as
// new group" rather than failing the design pass.
package registry

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/thanhtdvncc/dts-beam-tool/internal/model"
	"github.com/thanhtdvncc/dts-beam-tool/internal/store"
)

// Registry heals and persists group identity against a drawing store.
type Registry struct {
	store *store.Store
}

// New creates a Registry over the given store.
func New(s *store.Store) *Registry {
	return &Registry{store: s}
}

// HealReport records what one healing pass changed. A second pass over
// a healed group reports no changes (healing is idempotent).
type HealReport struct {
	GroupID         string   `json:"group_id"`
	MintedID        string   `json:"minted_id,omitempty"`
	Resurrected     bool     `json:"resurrected,omitempty"`
	GhostsPurged    []string `json:"ghosts_purged,omitempty"`
	DuplicatesSplit []string `json:"duplicates_split,omitempty"`
	SplitGroupID    string   `json:"split_group_id,omitempty"`
}

// Changed reports whether the pass modified anything.
func (r HealReport) Changed() bool {
	return r.MintedID != "" || r.Resurrected ||
		len(r.GhostsPurged) > 0 || len(r.DuplicatesSplit) > 0
}

// MintID returns a fresh group identifier.
func MintID() string {
	return uuid.NewString()
}

// Heal reconciles one loaded group with the registry and assigns the
// group its (possibly new) identifier.
//
// The procedure, in order:
//  1. No member claims an identifier: mint one and register the
//     current live members.
//  2. An identifier is claimed but the registry has no entry for it:
//     resurrect the entry from current topology.
//  3. The entry exists: member IDs that no longer resolve to live
//     spans are ghosts and are purged from the registry. Ghosts are
//     pruned one-way; span records are never touched.
//  4. Live members claiming the identifier but absent from the purged
//     entry are post-copy duplicates. If every current member is a
//     duplicate, the whole group gets a fresh identifier; if only some
//     are, they split into a new sub-group and the original entry is
//     left untouched.
//
// Heal is idempotent and never fails for registry inconsistencies;
// only store-level faults propagate.
func (r *Registry) Heal(ctx context.Context, group *model.BeamGroup) (HealReport, error) {
	var report HealReport
	err := r.store.WithTx(ctx, func(tx *store.Tx) error {
		var err error
		report, err = healInTx(ctx, tx, group)
		return err
	})
	if err != nil {
		return HealReport{}, fmt.Errorf("heal group: %w", err)
	}
	if report.Changed() {
		slog.Info("group identity healed",
			"group", report.GroupID,
			"minted", report.MintedID,
			"resurrected", report.Resurrected,
			"ghosts", len(report.GhostsPurged),
			"duplicates", len(report.DuplicatesSplit),
		)
	}
	return report, nil
}

func healInTx(ctx context.Context, tx *store.Tx, group *model.BeamGroup) (HealReport, error) {
	var report HealReport
	memberIDs := group.MemberIDs()

	claimed, err := claimedGroupID(ctx, tx, memberIDs)
	if err != nil {
		return report, err
	}

	// Step 1: no identifier anywhere. Mint and register.
	if claimed == "" {
		id := MintID()
		if err := adoptIdentity(ctx, tx, id, memberIDs); err != nil {
			return report, err
		}
		group.GroupID = id
		report.GroupID = id
		report.MintedID = id
		return report, nil
	}

	exists, err := tx.GroupIDExists(ctx, claimed)
	if err != nil {
		return report, err
	}

	// Step 2: identifier is live on spans but the registry lost it.
	if !exists {
		if err := tx.ReplaceMembers(ctx, claimed, memberIDs); err != nil {
			return report, err
		}
		group.GroupID = claimed
		report.GroupID = claimed
		report.Resurrected = true
		return report, nil
	}

	// Step 3: purge ghosts from the registry entry.
	registered, err := tx.GetMembers(ctx, claimed)
	if err != nil {
		return report, err
	}
	alive := make([]string, 0, len(registered))
	aliveSet := make(map[string]bool, len(registered))
	for _, id := range registered {
		ok, err := tx.SpanExists(ctx, id)
		if err != nil {
			return report, err
		}
		if ok {
			alive = append(alive, id)
			aliveSet[id] = true
		} else {
			report.GhostsPurged = append(report.GhostsPurged, id)
		}
	}
	if len(report.GhostsPurged) > 0 {
		if err := tx.ReplaceMembers(ctx, claimed, alive); err != nil {
			return report, err
		}
	}

	// Step 4: members claiming the identifier but not registered are
	// post-copy duplicates.
	var duplicates []string
	for _, id := range memberIDs {
		if !aliveSet[id] {
			duplicates = append(duplicates, id)
		}
	}

	switch {
	case len(duplicates) == 0:
		group.GroupID = claimed
		report.GroupID = claimed

	case len(duplicates) == len(memberIDs):
		// The whole group is a copy: fresh identifier, original
		// registry entry untouched.
		id := MintID()
		if err := adoptIdentity(ctx, tx, id, memberIDs); err != nil {
			return report, err
		}
		group.GroupID = id
		report.GroupID = id
		report.MintedID = id
		report.DuplicatesSplit = duplicates

	default:
		// A partial copy splits off into its own sub-group. The
		// original keeps its (purged) entry as-is.
		id := MintID()
		if err := adoptIdentity(ctx, tx, id, duplicates); err != nil {
			return report, err
		}
		group.GroupID = claimed
		report.GroupID = claimed
		report.DuplicatesSplit = duplicates
		report.SplitGroupID = id
	}

	return report, nil
}

// claimedGroupID returns the identifier the group's members claim,
// preferring the anchor's claim. Reference links are ignored.
func claimedGroupID(ctx context.Context, tx *store.Tx, memberIDs []string) (string, error) {
	for _, id := range memberIDs {
		var rec store.GroupIdentityRecord
		found, err := tx.ReadRecord(ctx, id, store.RecordGroupIdentity, &rec)
		if err != nil {
			return "", err
		}
		if found && !rec.Reference && rec.GroupID != "" {
			return rec.GroupID, nil
		}
	}
	return "", nil
}

// adoptIdentity registers a group and stamps the identity record on
// every member span.
func adoptIdentity(ctx context.Context, tx *store.Tx, groupID string, memberIDs []string) error {
	if err := tx.ReplaceMembers(ctx, groupID, memberIDs); err != nil {
		return err
	}
	rec := store.GroupIdentityRecord{GroupID: groupID}
	for _, id := range memberIDs {
		if err := tx.WriteRecord(ctx, id, store.RecordGroupIdentity, rec); err != nil {
			return err
		}
	}
	return nil
}

// Resurrect registers a group entry from the given members, standalone
// variant of healing step 2 for callers that already know the ID.
func (r *Registry) Resurrect(ctx context.Context, groupID string, memberIDs []string) error {
	return r.store.WithTx(ctx, func(tx *store.Tx) error {
		return tx.ReplaceMembers(ctx, groupID, memberIDs)
	})
}

// UpdateMembers sets a group's member list to exactly aliveIDs.
func (r *Registry) UpdateMembers(ctx context.Context, groupID string, aliveIDs []string) error {
	return r.store.WithTx(ctx, func(tx *store.Tx) error {
		return tx.ReplaceMembers(ctx, groupID, aliveIDs)
	})
}

// GroupIDExists reports whether the registry knows the identifier.
func (r *Registry) GroupIDExists(ctx context.Context, groupID string) (bool, error) {
	var exists bool
	err := r.store.WithTx(ctx, func(tx *store.Tx) error {
		var err error
		exists, err = tx.GroupIDExists(ctx, groupID)
		return err
	})
	return exists, err
}

// GetMembers returns the registered member list for an identifier.
func (r *Registry) GetMembers(ctx context.Context, groupID string) ([]string, error) {
	var members []string
	err := r.store.WithTx(ctx, func(tx *store.Tx) error {
		var err error
		members, err = tx.GetMembers(ctx, groupID)
		return err
	})
	return members, err
}
