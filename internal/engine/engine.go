// Package engine reconciles reservations taken locally while the property was
// offline with reservations pushed in by OTA channels during the same window.
// One Engine owns the offline queue, the channel buffer, the open conflicts
// and the audit journal; storage, gateway and PMS access are injected.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lumenpms/channelsync/internal/models"
)

const (
	DefaultPushTimeout = 10 * time.Second
)

// Config carries the engine tunables.
type Config struct {
	// PushTimeout bounds each per-item gateway push.
	PushTimeout time.Duration

	// MaxSyncAttempts caps automatic retries of an errored item. Zero means
	// unlimited: the item is retried on every pass until it succeeds or is
	// removed.
	MaxSyncAttempts int
}

// Dependencies are the external collaborators. Storage, PMS, Rooms, Archive
// and Connectivity may be nil; the engine degrades to in-memory operation
// and skips the corresponding side effects. A nil Gateway disables sync
// passes entirely: TriggerSync becomes a no-op.
type Dependencies struct {
	Storage      SnapshotStore
	Gateway      Gateway
	PMS          ReservationBackend
	Rooms        RoomFinder
	Archive      LogArchive
	Connectivity Connectivity
}

// Engine drives the channel synchronization and conflict-resolution cycle.
type Engine struct {
	mu        sync.Mutex
	queue     *reservationQueue
	buffer    *channelBuffer
	conflicts map[uuid.UUID]*models.SyncConflict
	order     []uuid.UUID
	journal   *journal

	// promoted records channel reservations already materialized in the
	// PMS, keyed by channel+confirmation, so a re-delivered webhook after
	// the buffer slot is released cannot double-book.
	promoted map[string]*models.ChannelReservation

	// persistMu serializes snapshot saves; the storage collaborator never
	// sees interleaved writers.
	persistMu sync.Mutex

	deps Dependencies

	pushTimeout time.Duration
	maxAttempts int

	syncing    bool
	degraded   bool
	lastSync   *time.Time
	lastResult *models.SyncPassResult
}

func NewEngine(deps Dependencies, cfg Config) *Engine {
	if cfg.PushTimeout <= 0 {
		cfg.PushTimeout = DefaultPushTimeout
	}
	return &Engine{
		queue:       newReservationQueue(),
		buffer:      newChannelBuffer(),
		conflicts:   make(map[uuid.UUID]*models.SyncConflict),
		promoted:    make(map[string]*models.ChannelReservation),
		journal:     newJournal(),
		deps:        deps,
		pushTimeout: cfg.PushTimeout,
		maxAttempts: cfg.MaxSyncAttempts,
	}
}

// Load restores the last persisted snapshot. A storage failure degrades the
// engine to in-memory operation for the session instead of failing startup.
func (e *Engine) Load(ctx context.Context) error {
	if e.deps.Storage == nil {
		return nil
	}

	snapshot, err := e.deps.Storage.Load(ctx)
	if err != nil {
		e.mu.Lock()
		e.degraded = true
		e.mu.Unlock()
		log.Printf("[engine] storage load failed, running in-memory: %v", err)
		return nil
	}
	if snapshot == nil {
		return nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.queue.restore(snapshot.Queue)
	e.buffer.restore(snapshot.Buffer)
	e.conflicts = make(map[uuid.UUID]*models.SyncConflict, len(snapshot.Conflicts))
	e.order = e.order[:0]
	for _, c := range snapshot.Conflicts {
		copy := *c
		e.conflicts[copy.ID] = &copy
		e.order = append(e.order, copy.ID)
	}
	e.journal.restore(snapshot.Log)
	e.promoted = make(map[string]*models.ChannelReservation, len(snapshot.Promoted))
	for _, entry := range snapshot.Promoted {
		copy := *entry
		e.promoted[confirmationKey(copy.Channel, copy.ChannelConfirmation)] = &copy
	}

	log.Printf("[engine] restored snapshot: %d queued, %d buffered, %d conflicts",
		len(snapshot.Queue), len(snapshot.Buffer), len(snapshot.Conflicts))
	return nil
}

// AddReservation validates the intake input, queues the reservation with a
// fresh confirmation number and logs the transition. No network call occurs.
func (e *Engine) AddReservation(ctx context.Context, in *ReservationInput) (*models.OfflineReservationRequest, error) {
	e.mu.Lock()

	item, err := e.queue.add(in)
	if err != nil {
		e.mu.Unlock()
		return nil, err
	}
	e.logLocked(ctx, models.LogActionQueued,
		fmt.Sprintf("reservation %s queued for %s (%s)", item.ConfirmationNumber, item.GuestName, item.RoomType),
		item.ID)

	out := *item
	e.mu.Unlock()

	e.persist(ctx)
	return &out, nil
}

// RemoveReservation discards a queue item. Only pending and error items may
// be removed.
func (e *Engine) RemoveReservation(ctx context.Context, id uuid.UUID) error {
	e.mu.Lock()
	err := e.queue.remove(id)
	e.mu.Unlock()
	if err != nil {
		return err
	}
	e.persist(ctx)
	return nil
}

// ClearSynced drops all synced items from the queue and reports how many.
func (e *Engine) ClearSynced(ctx context.Context) int {
	e.mu.Lock()
	removed := e.queue.clearSynced()
	e.mu.Unlock()
	if removed > 0 {
		e.persist(ctx)
	}
	return removed
}

// RetryFailed resets errored items back to pending with a clean attempt
// counter so a manual trigger can pick them up past the retry ceiling.
func (e *Engine) RetryFailed(ctx context.Context) int {
	e.mu.Lock()
	count := 0
	for _, item := range e.queue.items {
		if item.SyncStatus == models.SyncStatusError {
			item.SyncStatus = models.SyncStatusPending
			item.SyncAttempts = 0
			item.ErrorMessage = ""
			count++
		}
	}
	e.mu.Unlock()
	if count > 0 {
		e.persist(ctx)
	}
	return count
}

// TriggerSync runs one sync pass over the queue snapshot taken at its start.
// It is a no-op (nil result, nil error) when offline, when nothing is
// eligible, or when another pass is already in flight.
func (e *Engine) TriggerSync(ctx context.Context) (*models.SyncPassResult, error) {
	e.mu.Lock()
	if e.syncing {
		e.mu.Unlock()
		log.Printf("[engine] sync already in progress, ignoring trigger")
		return nil, nil
	}
	if e.deps.Gateway == nil {
		e.mu.Unlock()
		log.Printf("[engine] no gateway configured, ignoring sync trigger")
		return nil, nil
	}
	if e.deps.Connectivity != nil && !e.deps.Connectivity.IsOnline() {
		e.mu.Unlock()
		log.Printf("[engine] offline, ignoring sync trigger")
		return nil, nil
	}
	batch := e.eligibleLocked()
	if len(batch) == 0 {
		e.mu.Unlock()
		return nil, nil
	}
	e.syncing = true
	e.mu.Unlock()

	result := &models.SyncPassResult{StartedAt: time.Now().UTC()}
	log.Printf("[engine] sync pass started: %d items", len(batch))

	// Items are processed strictly one at a time in createdAt order so two
	// local items can never both pass detection against the same buffer
	// entry. A failure on one item never aborts the rest.
	for _, id := range batch {
		e.syncOne(ctx, id, result)
	}

	result.CompletedAt = time.Now().UTC()

	e.mu.Lock()
	now := result.CompletedAt
	e.lastSync = &now
	e.lastResult = result
	e.syncing = false
	e.mu.Unlock()

	e.persist(ctx)
	log.Printf("[engine] sync pass completed: %d synced, %d conflicts, %d errors",
		result.Synced, result.Conflicts, result.Errors)
	return result, nil
}

// eligibleLocked returns ids of pending and errored items in insertion order,
// skipping errored items that exhausted the retry ceiling.
func (e *Engine) eligibleLocked() []uuid.UUID {
	var out []uuid.UUID
	for _, item := range e.queue.eligible() {
		if e.maxAttempts > 0 && item.SyncStatus == models.SyncStatusError && item.SyncAttempts >= e.maxAttempts {
			continue
		}
		out = append(out, item.ID)
	}
	return out
}

func (e *Engine) syncOne(ctx context.Context, id uuid.UUID, result *models.SyncPassResult) {
	e.mu.Lock()
	item := e.queue.get(id)
	if item == nil {
		// Removed since the pass snapshot was taken.
		e.mu.Unlock()
		return
	}
	if item.SyncStatus != models.SyncStatusPending && item.SyncStatus != models.SyncStatusError {
		e.mu.Unlock()
		return
	}

	item.SyncStatus = models.SyncStatusSyncing
	e.logLocked(ctx, models.LogActionSyncStart,
		fmt.Sprintf("syncing reservation %s", item.ConfirmationNumber), item.ID)

	// Detection runs under the lock, against the buffer as it is right now.
	var conflict *models.SyncConflict
	for _, entry := range e.buffer.active(item.RoomType) {
		if c := DetectConflict(item, entry); c != nil {
			conflict = c
			break
		}
	}

	if conflict != nil {
		e.conflicts[conflict.ID] = conflict
		e.order = append(e.order, conflict.ID)
		item.SyncStatus = models.SyncStatusConflict
		item.ConflictID = &conflict.ID
		e.logLocked(ctx, models.LogActionConflictDetected, conflict.Description, item.ID)
		result.Conflicts++
		e.mu.Unlock()
		return
	}

	payload := *item
	e.mu.Unlock()

	pushCtx, cancel := context.WithTimeout(ctx, e.pushTimeout)
	err := e.deps.Gateway.Push(pushCtx, &payload)
	cancel()

	e.mu.Lock()

	item = e.queue.get(id)
	if item == nil {
		e.mu.Unlock()
		return
	}
	item.SyncAttempts++

	if err != nil {
		terr := &TransportError{Err: err, Timeout: errors.Is(err, context.DeadlineExceeded)}
		item.SyncStatus = models.SyncStatusError
		item.ErrorMessage = terr.Error()
		if e.maxAttempts > 0 && item.SyncAttempts >= e.maxAttempts {
			item.ErrorMessage = fmt.Sprintf("%s (retry ceiling of %d reached)", item.ErrorMessage, e.maxAttempts)
		}
		e.logLocked(ctx, models.LogActionSyncFail,
			fmt.Sprintf("reservation %s: %s", item.ConfirmationNumber, item.ErrorMessage), item.ID)
		result.Errors++
		e.mu.Unlock()
		return
	}

	now := time.Now().UTC()
	item.SyncStatus = models.SyncStatusSynced
	item.SyncedAt = &now
	item.ErrorMessage = ""
	e.logLocked(ctx, models.LogActionSyncSuccess,
		fmt.Sprintf("reservation %s synced", item.ConfirmationNumber), item.ID)
	result.Synced++
	confirmed := *item
	e.mu.Unlock()

	// The confirmation is a PMS-side side effect of an already-synced item;
	// it must not hold the state lock or run unbounded.
	if e.deps.PMS != nil {
		confirmCtx, cancel := context.WithTimeout(ctx, e.pushTimeout)
		defer cancel()
		if err := e.deps.PMS.ConfirmLocal(confirmCtx, &confirmed); err != nil {
			log.Printf("[engine] PMS confirm failed for %s: %v", confirmed.ConfirmationNumber, err)
		}
	}
}

// IsSyncing reports whether a pass is in flight. Callers that need to wait
// must poll; a pass cannot be joined or aborted.
func (e *Engine) IsSyncing() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.syncing
}

func (e *Engine) LastSync() *time.Time {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastSync
}

func (e *Engine) LastResult() *models.SyncPassResult {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.lastResult == nil {
		return nil
	}
	copy := *e.lastResult
	return &copy
}

// Degraded reports that a storage failure put the engine in in-memory mode.
func (e *Engine) Degraded() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.degraded
}

func (e *Engine) PendingCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.queue.pendingCount()
}

func (e *Engine) ConflictCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.queue.conflictCount()
}

// Queue returns the offline queue in insertion order.
func (e *Engine) Queue() []*models.OfflineReservationRequest {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.queue.list()
}

// Buffer returns the channel buffer in arrival order.
func (e *Engine) Buffer() []*models.ChannelReservation {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.buffer.list()
}

// Conflicts returns conflicts in detection order, optionally open ones only.
func (e *Engine) Conflicts(openOnly bool) []*models.SyncConflict {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]*models.SyncConflict, 0, len(e.order))
	for _, id := range e.order {
		c := e.conflicts[id]
		if c == nil {
			continue
		}
		if openOnly && c.Status != models.ConflictStatusOpen {
			continue
		}
		copy := *c
		out = append(out, &copy)
	}
	return out
}

// Log returns journal entries in chronological order, optionally filtered by
// related entity id.
func (e *Engine) Log(entityID *uuid.UUID) []*models.SyncLogEntry {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.journal.list(entityID)
}

// logLocked appends to the journal and mirrors the entry to the archive.
// Callers must hold e.mu.
func (e *Engine) logLocked(ctx context.Context, action models.LogAction, details string, entityID uuid.UUID) {
	entry := e.journal.append(action, details, entityID)
	log.Printf("[engine] %s: %s", action, details)
	if e.deps.Archive != nil {
		if err := e.deps.Archive.Append(ctx, entry); err != nil {
			log.Printf("[engine] log archive append failed: %v", err)
		}
	}
}

// persist saves a snapshot, degrading to in-memory operation on the first
// storage failure instead of surfacing an error to the caller. Saves are
// serialized under persistMu: concurrent operations each persist, but the
// store never sees two writers at once and later snapshots always carry
// earlier mutations.
func (e *Engine) persist(ctx context.Context) {
	e.persistMu.Lock()
	defer e.persistMu.Unlock()

	e.mu.Lock()
	if e.deps.Storage == nil || e.degraded {
		e.mu.Unlock()
		return
	}
	snapshot := &models.Snapshot{
		Queue:     e.queue.list(),
		Buffer:    e.buffer.list(),
		Conflicts: e.conflictList(),
		Promoted:  e.promotedListLocked(),
		Log:       e.journal.snapshot(),
		SavedAt:   time.Now().UTC(),
	}
	e.mu.Unlock()

	if err := e.deps.Storage.Save(ctx, snapshot); err != nil {
		e.mu.Lock()
		e.degraded = true
		e.mu.Unlock()
		log.Printf("[engine] storage save failed, degrading to in-memory: %v", err)
	}
}

// markPromotedLocked remembers a channel reservation that now exists in the
// PMS so a re-delivered webhook is recognized. Callers must hold e.mu.
func (e *Engine) markPromotedLocked(entry *models.ChannelReservation) {
	copy := *entry
	e.promoted[confirmationKey(copy.Channel, copy.ChannelConfirmation)] = &copy
}

// promotedListLocked copies the promoted set. Callers must hold e.mu.
func (e *Engine) promotedListLocked() []*models.ChannelReservation {
	if len(e.promoted) == 0 {
		return nil
	}
	out := make([]*models.ChannelReservation, 0, len(e.promoted))
	for _, entry := range e.promoted {
		copy := *entry
		out = append(out, &copy)
	}
	return out
}

// conflictList copies all conflicts in detection order. Callers must hold e.mu.
func (e *Engine) conflictList() []*models.SyncConflict {
	out := make([]*models.SyncConflict, 0, len(e.order))
	for _, id := range e.order {
		if c := e.conflicts[id]; c != nil {
			copy := *c
			out = append(out, &copy)
		}
	}
	return out
}
