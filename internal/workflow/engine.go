package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// conflictRetries bounds how often a transition is re-applied against fresh
// state after losing the optimistic-concurrency check, before ErrConflict
// surfaces to the caller.
const conflictRetries = 2

// Actor is who is performing an operation, as supplied by the identity layer.
type Actor struct {
	ID   uuid.UUID
	Role Role
}

// SystemActor is used by the sweeper and other non-interactive callers.
func SystemActor() Actor {
	return Actor{ID: uuid.Nil, Role: RoleSystem}
}

// Note carries the optional reason/notes recorded with a transition. On a
// terminal transition it also becomes the record's resolution payload.
type Note struct {
	Reason string
	Notes  string
}

// Subject is the slice of a persisted record the engine needs: identity,
// current state, owner check, raw history, and the kind-specific columns to
// set when entering a given status. Each model in internal/models implements
// it.
type Subject interface {
	WorkflowKind() Kind
	RecordID() uuid.UUID
	CurrentStatus() Status
	CurrentVersion() int64
	OwnedBy(actorID uuid.UUID) bool
	RawHistory() datatypes.JSON
	// TransitionFields returns extra column assignments (terminal timestamps
	// and the like) applied atomically with the status change.
	TransitionFields(target Status, now time.Time) map[string]any
}

// FetchFunc loads one record of a kind. Registered per kind so the engine
// stays independent of the concrete model types.
type FetchFunc func(ctx context.Context, db *gorm.DB, id uuid.UUID) (Subject, error)

// Engine validates and applies every status change. All writes go through a
// single guarded UPDATE (status + terminal fields + history + version) so a
// transition either fully commits or not at all; the version column is the
// optimistic-concurrency primitive.
type Engine struct {
	db    *gorm.DB
	clock Clock
	fetch map[Kind]FetchFunc
}

func NewEngine(db *gorm.DB, clock Clock) *Engine {
	if clock == nil {
		clock = SystemClock()
	}
	return &Engine{
		db:    db,
		clock: clock,
		fetch: make(map[Kind]FetchFunc),
	}
}

// Register wires the loader for one entity kind.
func (e *Engine) Register(kind Kind, fetch FetchFunc) {
	e.fetch[kind] = fetch
}

// Clock exposes the engine's time source for callers that must stay in sync
// with it (sweeper, projections).
func (e *Engine) Clock() Clock { return e.clock }

// Get loads a record without mutating it.
func (e *Engine) Get(ctx context.Context, kind Kind, id uuid.UUID) (Subject, error) {
	fetch, ok := e.fetch[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}
	sub, err := fetch(ctx, e.db, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%s %s: %w", kind, id, ErrNotFound)
		}
		return nil, fmt.Errorf("load %s %s: %w: %v", kind, id, ErrStoreUnavailable, err)
	}
	return sub, nil
}

// Transition moves a record to target on behalf of actor. It fails with
// ErrAlreadyTerminal, ErrInvalidTransition or ErrForbidden per the kind's
// transition table, and with ErrConflict when a concurrent writer wins every
// retry. On success exactly one history entry has been appended and the
// returned record reflects the committed state.
func (e *Engine) Transition(ctx context.Context, kind Kind, id uuid.UUID, target Status, actor Actor, note Note) (Subject, error) {
	return e.TransitionWith(ctx, kind, id, target, actor, note, nil)
}

// TransitionWith is Transition with extra column assignments carried in the
// same guarded update as the status change. Validation runs first, so a
// rejected transition leaves the record untouched, extra columns included
// (an announcement's scheduled_for rides along with draft -> scheduled).
// Extra keys must not collide with the columns the engine itself manages.
func (e *Engine) TransitionWith(ctx context.Context, kind Kind, id uuid.UUID, target Status, actor Actor, note Note, extra map[string]any) (Subject, error) {
	def := DefinitionFor(kind)
	if def == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}

	for attempt := 0; attempt <= conflictRetries; attempt++ {
		sub, err := e.Get(ctx, kind, id)
		if err != nil {
			return nil, err
		}
		from := sub.CurrentStatus()

		if def.IsTerminal(from) {
			return nil, fmt.Errorf("%s %s is %s: %w", kind, id, from, ErrAlreadyTerminal)
		}
		if !def.Allows(from, target) {
			return nil, fmt.Errorf("%s: %s -> %s: %w", kind, from, target, ErrInvalidTransition)
		}
		rule := def.Rules[Edge{From: from, To: target}]
		if !rule.permits(actor.Role, sub.OwnedBy(actor.ID)) {
			return nil, fmt.Errorf("%s may not move %s from %s to %s: %w", actor.Role, kind, from, target, ErrForbidden)
		}

		now := e.clock.Now().UTC()
		entry := HistoryEntry{
			Action:    def.ActionFor(from, target),
			ActorID:   actor.ID,
			Role:      actor.Role,
			From:      from,
			To:        target,
			Reason:    note.Reason,
			Notes:     note.Notes,
			Timestamp: now,
		}

		updates := sub.TransitionFields(target, now)
		if updates == nil {
			updates = map[string]any{}
		}
		for column, value := range extra {
			updates[column] = value
		}
		updates["status"] = string(target)
		if def.IsTerminal(target) {
			updates["resolution_reason"] = note.Reason
			updates["resolution_notes"] = note.Notes
		}

		applied, err := e.apply(ctx, sub, updates, entry, now)
		if err != nil {
			return nil, err
		}
		if !applied {
			continue // lost the race; retry against fresh state
		}
		return e.Get(ctx, kind, id)
	}
	return nil, fmt.Errorf("transition %s %s to %s: %w", kind, id, target, ErrConflict)
}

// Assign puts a record under a moderator's responsibility. Only valid from
// the kind's initial status; it forces the review status (investigating /
// under_review) and records an "assigned" history entry.
func (e *Engine) Assign(ctx context.Context, kind Kind, id, assigneeID uuid.UUID, actor Actor) (Subject, error) {
	def := DefinitionFor(kind)
	if def == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}
	if def.ReviewStatus == "" {
		return nil, fmt.Errorf("%s records are not assignable: %w", kind, ErrInvalidTransition)
	}
	if actor.Role != RoleModerator && actor.Role != RoleAdmin {
		return nil, fmt.Errorf("%s may not assign %s records: %w", actor.Role, kind, ErrForbidden)
	}

	for attempt := 0; attempt <= conflictRetries; attempt++ {
		sub, err := e.Get(ctx, kind, id)
		if err != nil {
			return nil, err
		}
		from := sub.CurrentStatus()
		if def.IsTerminal(from) {
			return nil, fmt.Errorf("%s %s is %s: %w", kind, id, from, ErrAlreadyTerminal)
		}
		if from != def.Initial {
			return nil, fmt.Errorf("assign only allowed from %s, not %s: %w", def.Initial, from, ErrInvalidTransition)
		}

		now := e.clock.Now().UTC()
		entry := HistoryEntry{
			Action:    ActionAssigned,
			ActorID:   actor.ID,
			Role:      actor.Role,
			From:      from,
			To:        def.ReviewStatus,
			Notes:     "assigned to " + assigneeID.String(),
			Timestamp: now,
		}

		updates := sub.TransitionFields(def.ReviewStatus, now)
		if updates == nil {
			updates = map[string]any{}
		}
		updates["status"] = string(def.ReviewStatus)
		updates["assignee_id"] = assigneeID

		applied, err := e.apply(ctx, sub, updates, entry, now)
		if err != nil {
			return nil, err
		}
		if !applied {
			continue
		}
		return e.Get(ctx, kind, id)
	}
	return nil, fmt.Errorf("assign %s %s: %w", kind, id, ErrConflict)
}

// LinkApprovedPost records the back-reference from an approved publish
// request to the feed post the publishing sink created. Not a status change;
// the request must already be approved.
func (e *Engine) LinkApprovedPost(ctx context.Context, requestID, postID uuid.UUID, actor Actor) (Subject, error) {
	for attempt := 0; attempt <= conflictRetries; attempt++ {
		sub, err := e.Get(ctx, KindPublicPostRequest, requestID)
		if err != nil {
			return nil, err
		}
		if sub.CurrentStatus() != StatusApproved {
			return nil, fmt.Errorf("request %s is %s, not approved: %w", requestID, sub.CurrentStatus(), ErrInvalidTransition)
		}

		now := e.clock.Now().UTC()
		entry := HistoryEntry{
			Action:    ActionPostLinked,
			ActorID:   actor.ID,
			Role:      actor.Role,
			Notes:     "published post " + postID.String(),
			Timestamp: now,
		}
		updates := map[string]any{"published_post_id": postID}

		applied, err := e.apply(ctx, sub, updates, entry, now)
		if err != nil {
			return nil, err
		}
		if !applied {
			continue
		}
		return e.Get(ctx, KindPublicPostRequest, requestID)
	}
	return nil, fmt.Errorf("link post to request %s: %w", requestID, ErrConflict)
}

// apply executes one guarded single-row update carrying the caller's column
// assignments plus the history append, version bump and updated_at refresh.
// Returns false (and no error) when the version guard missed, meaning the
// caller should reload and retry.
func (e *Engine) apply(ctx context.Context, sub Subject, updates map[string]any, entry HistoryEntry, now time.Time) (bool, error) {
	history, err := AppendHistory(sub.RawHistory(), entry)
	if err != nil {
		return false, err
	}
	updates["history"] = history
	updates["version"] = sub.CurrentVersion() + 1
	updates["updated_at"] = now

	res := e.db.WithContext(ctx).
		Model(sub).
		Where("id = ? AND version = ?", sub.RecordID(), sub.CurrentVersion()).
		Updates(updates)
	if res.Error != nil {
		return false, fmt.Errorf("update %s %s: %w: %v", sub.WorkflowKind(), sub.RecordID(), ErrStoreUnavailable, res.Error)
	}
	return res.RowsAffected > 0, nil
}
