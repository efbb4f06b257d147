package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/extvars/internal/engine"
	"github.com/roach88/extvars/internal/host/memhost"
	"github.com/roach88/extvars/internal/ir"
	"github.com/roach88/extvars/internal/reconcile"
	"github.com/roach88/extvars/internal/store"
	"github.com/roach88/extvars/internal/testutil"
	"github.com/roach88/extvars/internal/workspace"
)

// Harness runs one scenario against a real engine.
type Harness struct {
	scenario *Scenario
	store    *store.Store
	host     *memhost.Workspace
	engine   *engine.Engine
	sessions *testutil.SessionSequence
	steps    *testutil.StepClock
}

// Run executes a scenario and returns the result.
//
// Each run gets a fresh in-memory database and a host built from the
// scenario's workspace. Engine logging is discarded for the duration of the
// run. The session is saved after the last step, so assertions see the
// persisted registry and journal.
//
// The returned error covers problems with the scenario itself (bad workspace,
// database failure). Failed expectations and assertions are reported in
// Result.Errors.
func Run(scenario *Scenario) (*Result, error) {
	ctx := context.Background()

	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
	defer slog.SetDefault(prev)

	ws, err := workspace.Build(&scenario.Workspace)
	if err != nil {
		return nil, fmt.Errorf("failed to build workspace: %w", err)
	}

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	session := scenario.Session
	if session == "" {
		session = scenario.Name
	}
	h := &Harness{
		scenario: scenario,
		store:    st,
		host:     ws,
		sessions: testutil.NewSessionSequence(session),
		steps:    testutil.NewStepClock(),
	}
	if err := h.open(ctx); err != nil {
		return nil, err
	}

	result := NewResult()
	for i, step := range scenario.Steps {
		ev, err := h.execute(ctx, step)
		if err != nil {
			return nil, fmt.Errorf("step %d (%s): %w", i, step.Op, err)
		}
		result.AddTrace(ev)
		for _, msg := range checkExpect(i, step, ev) {
			result.AddError(msg)
		}
	}

	if err := h.engine.Save(ctx); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	result.Shadow = h.engine.Shadow()
	if live, err := h.engine.Live(); err == nil {
		result.Live = live
	} else {
		result.Live = ir.Registry{}
	}
	result.Digest, err = h.engine.Digest()
	if err != nil {
		return nil, err
	}

	actx := &AssertionContext{
		Store:   st,
		Ctx:     ctx,
		Project: h.engine.Project(),
	}
	for _, msg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(msg)
	}
	return result, nil
}

// open starts a new engine session over the harness store and host.
func (h *Harness) open(ctx context.Context) error {
	opts := []engine.Option{
		engine.WithPersister(h.store, h.scenario.Name),
		engine.WithSessionGenerator(h.sessions),
	}
	if h.scenario.Capacity != nil {
		opts = append(opts, engine.WithCapacity(*h.scenario.Capacity))
	}
	if h.scenario.Refresh != nil && !*h.scenario.Refresh {
		opts = append(opts, engine.WithRefreshHook(nil))
	}

	h.engine = engine.New(h.host, opts...)
	if _, err := h.engine.Open(ctx); err != nil {
		return fmt.Errorf("failed to open engine: %w", err)
	}
	return nil
}

// execute runs one step. Engine errors become the step outcome; only
// persistence failures of save and reopen are returned.
func (h *Harness) execute(ctx context.Context, step Step) (TraceEvent, error) {
	ev := TraceEvent{
		Seq:     h.steps.Next(),
		Op:      step.Op,
		Args:    stepArgs(step),
		Outcome: OutcomeOK,
	}
	eng := h.engine

	var err error
	switch step.Op {
	case OpAdd:
		var rec ir.VariableRecord
		rec, err = eng.Add(ir.Category(step.Category), step.Name)
		if err == nil {
			ev.Result = recordMap(rec)
		}

	case OpRename:
		var rec ir.VariableRecord
		rec, err = eng.Rename(ir.VarID(step.ID), step.Name)
		if err == nil {
			ev.Result = recordMap(rec)
		}

	case OpRemove:
		var (
			rec     ir.VariableRecord
			removed bool
		)
		rec, removed, err = eng.Remove(ir.VarID(step.ID))
		ev.Result = map[string]any{"removed": removed}
		if removed {
			ev.Result["name"] = rec.Name
		}

	case OpSync, OpResync, OpAdopt:
		var report reconcile.Report
		switch step.Op {
		case OpSync:
			report, err = eng.Sync()
		case OpResync:
			report, err = eng.Resync()
		default:
			report, err = eng.Adopt()
		}
		ev.Result = reportMap(report)

	case OpMerge:
		reg := ir.Registry{}
		for _, r := range step.Records {
			cat := ir.Category(r.Category)
			reg[cat] = append(reg[cat], ir.VariableRecord{ID: ir.VarID(r.ID), Name: r.Name, Category: cat})
		}
		var report reconcile.Report
		report, err = eng.Merge(reg)
		ev.Result = reportMap(report)

	case OpUsage:
		var n int
		n, err = eng.UsageCount(ir.VarID(step.ID))
		ev.Result = map[string]any{"count": n}

	case OpDetails:
		var d engine.Details
		d, err = eng.Details(ir.VarID(step.ID))
		if d.Record.ID != "" {
			refs := make([]any, len(d.References))
			for i, r := range d.References {
				refs[i] = r
			}
			ev.Result = map[string]any{
				"count":      d.Usages,
				"in_live":    d.InLive,
				"references": refs,
			}
		}

	case OpFail:
		h.host.SetFailures(*step.Failures)

	case OpSave:
		if err := eng.Save(ctx); err != nil {
			return ev, err
		}

	case OpReopen:
		if err := eng.Save(ctx); err != nil {
			return ev, err
		}
		if err := h.open(ctx); err != nil {
			return ev, err
		}
		ev.Result = map[string]any{"session": h.engine.Session()}

	default:
		return ev, fmt.Errorf("unknown op %q", step.Op)
	}

	if err != nil {
		ev.Outcome = outcome(err)
	}
	return ev, nil
}

func outcome(err error) string {
	var ee *engine.Error
	if errors.As(err, &ee) {
		return string(ee.Code)
	}
	return "ERROR"
}

// stepArgs returns the step inputs in canonical-JSON-safe form.
func stepArgs(step Step) map[string]any {
	args := map[string]any{}
	if step.Category != "" {
		args["category"] = step.Category
	}
	if step.Name != "" {
		args["name"] = step.Name
	}
	if step.ID != "" {
		args["id"] = step.ID
	}
	if len(step.Records) > 0 {
		recs := make([]any, len(step.Records))
		for i, r := range step.Records {
			recs[i] = map[string]any{"id": r.ID, "name": r.Name, "category": r.Category}
		}
		args["records"] = recs
	}
	if f := step.Failures; f != nil {
		args["failures"] = map[string]any{
			"create": f.Create,
			"delete": f.Delete,
			"rename": f.Rename,
			"list":   f.List,
			"graph":  f.Graph,
		}
	}
	if len(args) == 0 {
		return nil
	}
	return args
}

func recordMap(rec ir.VariableRecord) map[string]any {
	return map[string]any{
		"id":       string(rec.ID),
		"name":     rec.Name,
		"category": string(rec.Category),
	}
}

func reportMap(r reconcile.Report) map[string]any {
	return map[string]any{
		"created":  len(r.Created),
		"deleted":  len(r.Deleted),
		"renamed":  len(r.Renamed),
		"adopted":  len(r.Adopted),
		"failed":   len(r.Failed),
		"resynced": r.Resynced,
	}
}

// checkExpect compares a step's outcome with its expect clause. A step
// without one must succeed.
func checkExpect(index int, step Step, ev TraceEvent) []string {
	exp := step.Expect
	if exp == nil {
		exp = &Expect{}
	}
	var errs []string
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Sprintf("steps[%d] %s: ", index, step.Op)+fmt.Sprintf(format, args...))
	}

	wantOutcome := OutcomeOK
	if exp.Error != "" {
		wantOutcome = exp.Error
	}
	if !exp.AnyOutcome && ev.Outcome != wantOutcome {
		fail("expected outcome %s, got %s", wantOutcome, ev.Outcome)
	}

	checkString := func(key, want string) {
		if want == "" {
			return
		}
		if got, _ := ev.Result[key].(string); got != want {
			fail("expected %s %q, got %q", key, want, got)
		}
	}
	checkString("id", exp.ID)
	checkString("name", exp.Name)
	checkString("category", exp.Category)

	checkInt := func(key string, want *int) {
		if want == nil {
			return
		}
		if got, _ := ev.Result[key].(int); got != *want {
			fail("expected %s %d, got %d", key, *want, got)
		}
	}
	checkInt("count", exp.Count)
	checkInt("created", exp.Created)
	checkInt("adopted", exp.Adopted)
	checkInt("failed", exp.Failed)

	if exp.Removed != nil {
		if got, _ := ev.Result["removed"].(bool); got != *exp.Removed {
			fail("expected removed %t, got %t", *exp.Removed, got)
		}
	}
	return errs
}
