// Package board holds the client-side projection of tasks partitioned by
// status and translates drag gestures and toggles into service calls.
package board

import (
	"context"
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"

	"kanban-todo/domain"
)

// TaskService is the remote task API the board mutates through.
type TaskService interface {
	List(ctx context.Context) ([]domain.Task, error)
	Create(ctx context.Context, content string, status domain.Status) (domain.Task, error)
	Update(ctx context.Context, id string, patch domain.TaskPatch) (domain.Task, error)
	Delete(ctx context.Context, id string) error
}

// Column is one status bucket in board order.
type Column struct {
	Status domain.Status
	Title  string
	Tasks  []domain.Task
}

// Snapshot is a copy of the board at one point in time.
type Snapshot struct {
	Columns []Column
}

// Bucket returns the tasks of the given status.
func (s Snapshot) Bucket(status domain.Status) []domain.Task {
	for _, col := range s.Columns {
		if col.Status == status {
			return col.Tasks
		}
	}
	return nil
}

// ListView is the flat rendering: unfinished work first, then completed.
type ListView struct {
	Active    []domain.Task
	Completed []domain.Task
}

// Gesture describes a drop. OverID is the task (or column status) the
// dragged task was released on.
type Gesture struct {
	TaskID string
	To     domain.Status
	OverID string
}

// Board is the single owner of task state. Views read snapshots and call
// its methods to mutate; subscribers hear about every accepted change.
type Board struct {
	svc    TaskService
	logger log.FieldLogger

	mu      sync.Mutex
	buckets map[domain.Status][]domain.Task

	subMu  sync.Mutex
	nextID int
	subs   map[int]func(Snapshot)
}

// New creates an empty board backed by svc.
func New(svc TaskService, logger log.FieldLogger) *Board {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Board{
		svc:     svc,
		logger:  logger,
		buckets: emptyBuckets(),
		subs:    make(map[int]func(Snapshot)),
	}
}

func emptyBuckets() map[domain.Status][]domain.Task {
	b := make(map[domain.Status][]domain.Task, len(domain.ColumnOrder))
	for _, s := range domain.ColumnOrder {
		b[s] = []domain.Task{}
	}
	return b
}

// Subscribe registers fn for change announcements and returns a function
// that removes it.
func (b *Board) Subscribe(fn func(Snapshot)) func() {
	b.subMu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = fn
	b.subMu.Unlock()
	return func() {
		b.subMu.Lock()
		delete(b.subs, id)
		b.subMu.Unlock()
	}
}

func (b *Board) announce() {
	snap := b.Snapshot()
	b.subMu.Lock()
	fns := make([]func(Snapshot), 0, len(b.subs))
	for _, fn := range b.subs {
		fns = append(fns, fn)
	}
	b.subMu.Unlock()
	for _, fn := range fns {
		fn(snap)
	}
}

// Load replaces the board with the server's task list, keeping fetch order
// within each bucket.
func (b *Board) Load(ctx context.Context) error {
	tasks, err := b.svc.List(ctx)
	if err != nil {
		b.logger.WithError(err).Error("load tasks")
		return err
	}
	buckets := emptyBuckets()
	for _, t := range tasks {
		if !t.Status.Valid() {
			b.logger.WithField("todo", t.ID).WithField("status", t.Status).Warn("skipping task with unknown status")
			continue
		}
		buckets[t.Status] = append(buckets[t.Status], t)
	}

	b.mu.Lock()
	b.buckets = buckets
	b.mu.Unlock()
	b.announce()
	return nil
}

// Create adds a task through the service and appends the confirmed task to
// its bucket. Blank content is rejected without a call.
func (b *Board) Create(ctx context.Context, content string, status domain.Status) (domain.Task, error) {
	if status == "" {
		status = domain.StatusBacklog
	}
	if err := domain.ValidateNew(content, status); err != nil {
		return domain.Task{}, err
	}

	created, err := b.svc.Create(ctx, content, status)
	if err != nil {
		b.logger.WithError(err).Error("create task")
		return domain.Task{}, err
	}

	b.mu.Lock()
	if created.Status.Valid() {
		b.buckets[created.Status] = append(b.buckets[created.Status], created)
	}
	b.mu.Unlock()
	b.announce()
	return created, nil
}

// Delete removes a task once the service confirms.
func (b *Board) Delete(ctx context.Context, id string) error {
	if err := b.svc.Delete(ctx, id); err != nil {
		b.logger.WithError(err).WithField("todo", id).Error("delete task")
		return err
	}

	b.mu.Lock()
	if status, idx, ok := b.locate(id); ok {
		b.buckets[status] = removeAt(b.buckets[status], idx)
	}
	b.mu.Unlock()
	b.announce()
	return nil
}

// Drag applies a drop gesture. Drops inside the source column reorder
// locally; drops on another column move the task only after the service
// accepts the new status. mu is not held across the service call.
func (b *Board) Drag(ctx context.Context, g Gesture) error {
	if !g.To.Valid() {
		return domain.ErrInvalidStatus
	}

	b.mu.Lock()
	from, src, ok := b.locate(g.TaskID)
	if !ok {
		b.mu.Unlock()
		return fmt.Errorf("%w: %s", domain.ErrNotFound, g.TaskID)
	}
	if from == g.To {
		bucket := b.buckets[from]
		dst := b.overIndex(from, g.OverID)
		if dst < 0 {
			dst = len(bucket) - 1
		}
		b.buckets[from] = arrayMove(bucket, src, dst)
		b.mu.Unlock()
		b.announce()
		return nil
	}
	b.mu.Unlock()

	to := g.To
	updated, err := b.svc.Update(ctx, g.TaskID, domain.TaskPatch{Status: &to})
	if err != nil {
		b.logger.WithError(err).WithField("todo", g.TaskID).Error("move task")
		return err
	}

	b.mu.Lock()
	b.applyMove(updated, g.OverID)
	b.mu.Unlock()
	b.announce()
	return nil
}

// Toggle flips completion. Done tasks reopen to reopenTo (backlog unless
// in-progress is given); anything else becomes done. The confirmed task is
// appended to its new bucket.
func (b *Board) Toggle(ctx context.Context, id string, reopenTo domain.Status) (domain.Task, error) {
	b.mu.Lock()
	from, _, ok := b.locate(id)
	b.mu.Unlock()
	if !ok {
		return domain.Task{}, fmt.Errorf("%w: %s", domain.ErrNotFound, id)
	}

	next := domain.ToggleStatus(from, reopenTo)
	updated, err := b.svc.Update(ctx, id, domain.TaskPatch{Status: &next})
	if err != nil {
		b.logger.WithError(err).WithField("todo", id).Error("toggle task")
		return domain.Task{}, err
	}

	b.mu.Lock()
	b.applyMove(updated, "")
	b.mu.Unlock()
	b.announce()
	return updated, nil
}

// applyMove places a server-confirmed task into the bucket of its status,
// before overID when that task is still there and at the end otherwise. A
// task deleted while the request was in flight stays gone. mu must be held.
func (b *Board) applyMove(updated domain.Task, overID string) {
	from, src, ok := b.locate(updated.ID)
	if !ok || !updated.Status.Valid() {
		return
	}
	b.buckets[from] = removeAt(b.buckets[from], src)
	dst := b.overIndex(updated.Status, overID)
	b.buckets[updated.Status] = insertAt(b.buckets[updated.Status], dst, updated)
}

// Snapshot copies the current buckets in column order.
func (b *Board) Snapshot() Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	cols := make([]Column, 0, len(domain.ColumnOrder))
	for _, s := range domain.ColumnOrder {
		cols = append(cols, Column{
			Status: s,
			Title:  s.Title(),
			Tasks:  append([]domain.Task(nil), b.buckets[s]...),
		})
	}
	return Snapshot{Columns: cols}
}

// Columns is shorthand for Snapshot().Columns.
func (b *Board) Columns() []Column {
	return b.Snapshot().Columns
}

// ListView derives the flat view from the same state as the columns.
func (b *Board) ListView() ListView {
	snap := b.Snapshot()
	var v ListView
	v.Active = append(v.Active, snap.Bucket(domain.StatusBacklog)...)
	v.Active = append(v.Active, snap.Bucket(domain.StatusInProgress)...)
	v.Completed = append(v.Completed, snap.Bucket(domain.StatusDone)...)
	return v
}

// locate must be called with mu held.
func (b *Board) locate(id string) (domain.Status, int, bool) {
	for _, s := range domain.ColumnOrder {
		for i, t := range b.buckets[s] {
			if t.ID == id {
				return s, i, true
			}
		}
	}
	return "", -1, false
}

// overIndex returns the index of overID in the bucket, or -1 for a drop on
// empty space or the column itself. mu must be held.
func (b *Board) overIndex(status domain.Status, overID string) int {
	if overID == "" || overID == string(status) {
		return -1
	}
	for i, t := range b.buckets[status] {
		if t.ID == overID {
			return i
		}
	}
	return -1
}

func removeAt(tasks []domain.Task, i int) []domain.Task {
	out := make([]domain.Task, 0, len(tasks)-1)
	out = append(out, tasks[:i]...)
	return append(out, tasks[i+1:]...)
}

// insertAt places t before index i; a negative or out-of-range i appends.
func insertAt(tasks []domain.Task, i int, t domain.Task) []domain.Task {
	if i < 0 || i >= len(tasks) {
		return append(append([]domain.Task(nil), tasks...), t)
	}
	out := make([]domain.Task, 0, len(tasks)+1)
	out = append(out, tasks[:i]...)
	out = append(out, t)
	return append(out, tasks[i:]...)
}

// arrayMove removes the element at from and reinserts it at to.
func arrayMove(tasks []domain.Task, from, to int) []domain.Task {
	if from == to {
		return tasks
	}
	moved := tasks[from]
	rest := removeAt(tasks, from)
	if to >= len(rest) {
		return append(rest, moved)
	}
	return insertAt(rest, to, moved)
}
