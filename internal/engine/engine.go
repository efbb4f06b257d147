package engine

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/roach88/extvars/internal/catalog"
	"github.com/roach88/extvars/internal/host"
	"github.com/roach88/extvars/internal/ir"
	"github.com/roach88/extvars/internal/reconcile"
	"github.com/roach88/extvars/internal/registry"
)

// Persister stores the shadow registry and its journal, scoped by an opaque
// project key. Implemented by *store.Store.
type Persister interface {
	// Load returns the saved registry. found is false for a new project.
	Load(ctx context.Context, project string) (reg ir.Registry, found bool, err error)

	// Save replaces the saved registry and appends entries, atomically.
	Save(ctx context.Context, project string, reg ir.Registry, entries ...ir.JournalEntry) error

	// LastSeq returns the highest journal seq saved for the project.
	LastSeq(ctx context.Context, project string) (int64, error)
}

// DefaultCapacity is the per-category limit observed in the host.
const DefaultCapacity = 16

// DefaultProject is the project key used when none is configured.
const DefaultProject = "default"

// Engine is one variable-management session over a host.
type Engine struct {
	mu sync.Mutex

	host      host.Host
	shadow    *registry.Store
	persister Persister
	project   string
	capacity  int
	hook      reconcile.RefreshHook

	clock      *Clock
	sessionGen SessionGenerator
	session    string
	pending    []ir.JournalEntry
}

// Option configures an Engine.
type Option func(*Engine)

// WithPersister enables Open to load and Save to store the shadow registry
// under project.
func WithPersister(p Persister, project string) Option {
	return func(e *Engine) {
		e.persister = p
		if project != "" {
			e.project = project
		}
	}
}

// WithCapacity sets the per-category limit. Zero means unlimited.
//
// Default: 16 (DefaultCapacity)
func WithCapacity(n int) Option {
	return func(e *Engine) {
		e.capacity = n
	}
}

// WithRefreshHook replaces the post-rename hook. nil disables refreshing.
//
// Default: reconcile.ReassignHook
func WithRefreshHook(h reconcile.RefreshHook) Option {
	return func(e *Engine) {
		e.hook = h
	}
}

// WithSessionGenerator replaces the session token generator.
//
// Default: UUIDv7Generator
func WithSessionGenerator(g SessionGenerator) Option {
	return func(e *Engine) {
		e.sessionGen = g
	}
}

// WithClock sets the logical clock. Used by tests and replay to start from a
// known seq.
func WithClock(c *Clock) Option {
	return func(e *Engine) {
		e.clock = c
	}
}

// New creates an engine over h with an empty shadow registry.
// Call Open to load persisted state and reconcile with the host.
func New(h host.Host, opts ...Option) *Engine {
	e := &Engine{
		host:       h,
		project:    DefaultProject,
		capacity:   DefaultCapacity,
		hook:       reconcile.ReassignHook{},
		clock:      NewClock(),
		sessionGen: UUIDv7Generator{},
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.hook == nil {
		e.hook = reconcile.NoopHook{}
	}
	e.session = e.sessionGen.Generate()
	e.shadow = registry.NewStore(e.storeOptions()...)
	return e
}

func (e *Engine) storeOptions() []registry.StoreOption {
	return []registry.StoreOption{
		registry.WithViews(e.liveView()),
		registry.WithCapacity(e.capacity),
	}
}

// liveView exposes the host store to the id allocator.
func (e *Engine) liveView() registry.View {
	return registry.ViewFunc(func() ([]ir.VariableRecord, error) {
		reg, err := host.LiveRegistry(e.host)
		if err != nil {
			return nil, err
		}
		return reg.Records(), nil
	})
}

// Open loads the persisted shadow registry (when a persister is configured),
// adopts live variables the shadow lacks, and pushes the shadow to the host.
//
// Only persistence failures are returned. Reconciliation problems are logged
// and reflected in the report; the session degrades to shadow-only when the
// host is unavailable.
func (e *Engine) Open(ctx context.Context) (report reconcile.Report, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	defer recoverHost("open", &err)

	if e.persister != nil {
		reg, found, err := e.persister.Load(ctx, e.project)
		if err != nil {
			return reconcile.Report{}, persistenceError("load shadow registry", err)
		}
		if found {
			s, err := registry.FromRegistry(reg, e.storeOptions()...)
			if err != nil {
				return reconcile.Report{}, classify(err, "", "")
			}
			e.shadow = s
		}
		seq, err := e.persister.LastSeq(ctx, e.project)
		if err != nil {
			return reconcile.Report{}, persistenceError("read journal position", err)
		}
		e.clock.advanceTo(seq)
	}

	report, err = e.syncLocked()
	if err != nil {
		slog.Warn("reconciliation incomplete on open", "project", e.project, "error", err)
	}
	slog.Debug("engine opened",
		"project", e.project,
		"session", e.session,
		"variables", e.shadow.Len(),
	)
	return report, nil
}

// ListCategories returns every category in catalog order.
func (e *Engine) ListCategories() []ir.Category {
	return catalog.All()
}

// ListVariables returns the shadow records of category in order.
func (e *Engine) ListVariables(category ir.Category) ([]ir.VariableRecord, error) {
	if !catalog.Contains(string(category)) {
		return nil, &Error{
			Code:     ErrCodeUnknownCategory,
			Message:  "unknown category",
			Category: category,
			Err:      registry.ErrUnknownCategory,
		}
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.shadow.List(category), nil
}

// Count returns the number of shadow records in category.
func (e *Engine) Count(category ir.Category) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.shadow.Count(category)
}

// Capacity returns the per-category limit (0 = unlimited).
func (e *Engine) Capacity() int { return e.capacity }

// Get returns the shadow record with the given id.
func (e *Engine) Get(id ir.VarID) (ir.VariableRecord, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	rec, ok := e.shadow.Get(id)
	if !ok {
		return ir.VariableRecord{}, newNotFound(id)
	}
	return rec, nil
}

// Add creates a variable named name in category and pushes it to the host.
//
// The new id is allocated across the shadow and live registries. A host
// that refuses the create is logged; the variable stays in the shadow and is
// pushed again on the next Sync.
func (e *Engine) Add(category ir.Category, name string) (rec ir.VariableRecord, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	defer recoverHost("add", &err)

	e.adoptQuietly()

	rec, err = e.shadow.Add(category, name)
	if err != nil {
		return ir.VariableRecord{}, classify(err, "", category)
	}
	e.record(ir.OpAdd, rec)

	if _, perr := reconcile.PushAdd(e.host, rec); perr != nil {
		slog.Warn("variable kept in shadow only", "id", rec.ID, "error", perr)
	}
	slog.Info("variable added", "id", rec.ID, "name", rec.Name, "category", rec.Category)
	return rec, nil
}

// Rename changes the name of the variable with the given id, pushes the new
// name to the host (resyncing when the host refuses) and runs the refresh
// hook so blocks showing the old name redraw.
func (e *Engine) Rename(id ir.VarID, newName string) (rec ir.VariableRecord, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	defer recoverHost("rename", &err)

	e.adoptQuietly()

	old, _ := e.shadow.Get(id)
	rec, err = e.shadow.Rename(id, newName)
	if err != nil {
		return ir.VariableRecord{}, classify(err, id, "")
	}
	e.record(ir.OpRename, rec)

	if _, perr := reconcile.PushRename(e.shadow.Registry(), e.host, rec); perr != nil {
		slog.Warn("host rename incomplete", "id", id, "error", perr)
	}
	e.refresh(id)

	slog.Info("variable renamed", "id", id, "from", old.Name, "to", rec.Name)
	return rec, nil
}

// Remove deletes the variable with the given id from the shadow and the
// host. Removing an unknown id is a no-op and reports removed=false.
func (e *Engine) Remove(id ir.VarID) (rec ir.VariableRecord, removed bool, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	defer recoverHost("remove", &err)

	e.adoptQuietly()

	rec, removed = e.shadow.Remove(id)
	if !removed {
		return ir.VariableRecord{}, false, nil
	}
	e.record(ir.OpRemove, rec)

	if _, perr := reconcile.PushRemove(e.shadow.Registry(), e.host, rec); perr != nil {
		slog.Warn("host delete incomplete", "id", id, "error", perr)
	}
	slog.Info("variable removed", "id", id, "name", rec.Name, "category", rec.Category)
	return rec, true, nil
}

// Sync adopts live variables the shadow lacks, then pushes shadow records the
// host lacks.
func (e *Engine) Sync() (report reconcile.Report, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	defer recoverHost("sync", &err)
	return e.syncLocked()
}

// Resync deletes every live variable and recreates the shadow registry in
// the host.
func (e *Engine) Resync() (report reconcile.Report, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	defer recoverHost("resync", &err)

	report, err = reconcile.Resync(e.shadow.Registry(), e.host)
	return report, classify(err, "", "")
}

// Adopt imports live variables the shadow lacks.
func (e *Engine) Adopt() (report reconcile.Report, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	defer recoverHost("adopt", &err)
	return e.adoptLocked()
}

// Merge imports every record of reg whose id the shadow lacks, then pushes
// the shadow to the host. Records that collide with an existing name are
// reported as failures.
func (e *Engine) Merge(reg ir.Registry) (report reconcile.Report, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	defer recoverHost("merge", &err)

	for _, cat := range registry.OrderedCategories(reg) {
		for _, rec := range reg[cat] {
			if rec.Category == "" {
				rec.Category = cat
			}
			if _, ok := e.shadow.Get(rec.ID); ok {
				continue
			}
			if ierr := e.shadow.Import(rec); ierr != nil {
				slog.Warn("record not merged", "id", rec.ID, "name", rec.Name, "error", ierr)
				report.Failed = append(report.Failed, reconcile.Failure{Record: rec, Action: "import", Reason: ierr.Error()})
				continue
			}
			e.record(ir.OpAdopt, rec)
			report.Adopted = append(report.Adopted, rec)
		}
	}

	push, perr := reconcile.PushShadowToLive(e.shadow.Registry(), e.host)
	report.Merge(push)
	if perr != nil && !IsPartialReconciliation(perr) {
		return report, classify(perr, "", "")
	}
	if len(report.Failed) > 0 {
		return report, classify(&reconcile.PartialReconciliationError{Op: "merge", Failures: report.Failed}, "", "")
	}
	return report, nil
}

// Live returns the registry derived from the host store.
func (e *Engine) Live() (ir.Registry, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	reg, err := host.LiveRegistry(e.host)
	return reg, classify(err, "", "")
}

// Shadow returns a copy of the shadow registry.
func (e *Engine) Shadow() ir.Registry {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.shadow.Registry()
}

// Digest returns the content digest of the shadow registry.
func (e *Engine) Digest() (string, error) {
	return ir.RegistryDigest(e.Shadow())
}

// Project returns the project key.
func (e *Engine) Project() string { return e.project }

// Session returns this session's token.
func (e *Engine) Session() string { return e.session }

// Pending returns the journal entries not yet saved.
func (e *Engine) Pending() []ir.JournalEntry {
	e.mu.Lock()
	defer e.mu.Unlock()
	return slices.Clone(e.pending)
}

// Save persists the shadow registry and the pending journal entries.
func (e *Engine) Save(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.persister == nil {
		return persistenceError("save", fmt.Errorf("no persister configured"))
	}
	if err := e.persister.Save(ctx, e.project, e.shadow.Registry(), e.pending...); err != nil {
		return persistenceError("save shadow registry", err)
	}
	slog.Debug("shadow registry saved", "project", e.project, "journal", len(e.pending))
	e.pending = nil
	return nil
}

func (e *Engine) syncLocked() (reconcile.Report, error) {
	report, adoptErr := e.adoptLocked()
	if adoptErr != nil && IsHostUnavailable(adoptErr) {
		return report, adoptErr
	}

	push, pushErr := reconcile.PushShadowToLive(e.shadow.Registry(), e.host)
	report.Merge(push)
	if pushErr != nil && !IsPartialReconciliation(pushErr) {
		return report, classify(pushErr, "", "")
	}
	if len(report.Failed) > 0 {
		return report, classify(&reconcile.PartialReconciliationError{Op: reconcile.OpPush, Failures: report.Failed}, "", "")
	}
	return report, nil
}

func (e *Engine) adoptLocked() (reconcile.Report, error) {
	report, err := reconcile.Adopt(e.host, e.shadow)
	for _, rec := range report.Adopted {
		e.record(ir.OpAdopt, rec)
	}
	return report, classify(err, "", "")
}

// adoptQuietly brings live-only variables into the shadow before a mutation
// so name checks see them. Failures only log.
func (e *Engine) adoptQuietly() {
	if _, err := e.adoptLocked(); err != nil {
		slog.Debug("adopt before mutation incomplete", "error", err)
	}
}

// refresh runs the rename hook, containing any panic it raises.
func (e *Engine) refresh(id ir.VarID) {
	defer func() {
		if r := recover(); r != nil {
			slog.Warn("refresh hook panicked", "id", id, "panic", r)
		}
	}()
	n, err := e.hook.Refresh(e.host, id)
	if err != nil {
		slog.Warn("refresh hook failed", "id", id, "error", err)
		return
	}
	slog.Debug("blocks refreshed", "id", id, "blocks", n)
}

func (e *Engine) record(op string, rec ir.VariableRecord) {
	e.pending = append(e.pending, ir.JournalEntry{
		Seq:      e.clock.Next(),
		Session:  e.session,
		Op:       op,
		VarID:    rec.ID,
		Name:     rec.Name,
		Category: rec.Category,
	})
}

// recoverHost turns a panic escaping a public method into HOST_UNAVAILABLE.
func recoverHost(op string, err *error) {
	if r := recover(); r != nil {
		slog.Error("host panic recovered", "op", op, "panic", r)
		*err = hostPanic(op, r)
	}
}
