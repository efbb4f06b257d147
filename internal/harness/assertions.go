package harness

import (
	"context"
	"fmt"
	"reflect"
	"regexp"
	"slices"
	"strings"

	"github.com/roach88/extvars/internal/engine"
	"github.com/roach88/extvars/internal/ir"
	"github.com/roach88/extvars/internal/store"
)

// validIdentifier matches SQL identifiers. Table and column names in
// final_state assertions are interpolated, so nothing else is allowed.
var validIdentifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string       // Assertion type
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Trace for context, nil for state assertions
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nTrace:\n")
		for _, ev := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] %s %v -> %s\n", ev.Seq, ev.Op, ev.Args, ev.Outcome)
		}
	}
	return buf.String()
}

// AssertionContext provides context for evaluating assertions.
type AssertionContext struct {
	Store   *store.Store
	Ctx     context.Context
	Project string
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns one message per failed assertion.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errs []string

	for i, a := range assertions {
		var err error

		switch a.Type {
		case AssertShadowContains:
			err = assertContains("shadow", result.Shadow, a)
		case AssertLiveContains:
			err = assertContains("live", result.Live, a)
		case AssertShadowCount:
			err = assertCount("shadow", result.Shadow, a)
		case AssertLiveCount:
			err = assertCount("live", result.Live, a)
		case AssertTraceOrder:
			err = assertTraceOrder(result.Trace, a)
		case AssertTraceCount:
			err = assertTraceCount(result.Trace, a)
		case AssertJournalCount, AssertReplayMatches, AssertFinalState:
			if actx == nil || actx.Store == nil {
				err = fmt.Errorf("assertion[%d]: %s requires database context", i, a.Type)
				break
			}
			switch a.Type {
			case AssertJournalCount:
				err = assertJournalCount(actx, a)
			case AssertReplayMatches:
				err = assertReplayMatches(actx, result.Digest)
			default:
				err = assertFinalState(actx.Ctx, actx.Store, a)
			}
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, a.Type)
		}

		if err != nil {
			errs = append(errs, err.Error())
		}
	}
	return errs
}

// assertContains checks for a record matching every field the assertion sets.
func assertContains(which string, reg ir.Registry, a Assertion) error {
	for _, rec := range reg.Records() {
		if a.ID != "" && string(rec.ID) != a.ID {
			continue
		}
		if a.Name != "" && rec.Name != a.Name {
			continue
		}
		if a.Category != "" && string(rec.Category) != a.Category {
			continue
		}
		return nil
	}
	return &AssertionError{
		Type:     a.Type,
		Expected: fmt.Sprintf("%s record id=%q name=%q category=%q", which, a.ID, a.Name, a.Category),
		Actual:   fmt.Sprintf("not found in %v", reg.Records()),
	}
}

// assertCount checks the record count, of one category when set.
func assertCount(which string, reg ir.Registry, a Assertion) error {
	n := reg.Len()
	scope := "all categories"
	if a.Category != "" {
		n = len(reg[ir.Category(a.Category)])
		scope = a.Category
	}
	if n != *a.Count {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("%d %s record(s) in %s", *a.Count, which, scope),
			Actual:   fmt.Sprintf("%d record(s)", n),
		}
	}
	return nil
}

// assertTraceOrder checks that ops appear in order. Other steps may
// intervene.
func assertTraceOrder(trace []TraceEvent, a Assertion) error {
	next := 0
	for _, ev := range trace {
		if next < len(a.Ops) && ev.Op == a.Ops[next] {
			next++
		}
	}
	if next < len(a.Ops) {
		return &AssertionError{
			Type:     AssertTraceOrder,
			Expected: fmt.Sprintf("ops in order: %v", a.Ops),
			Actual:   fmt.Sprintf("%q not found after %v", a.Ops[next], a.Ops[:next]),
			Trace:    trace,
		}
	}
	return nil
}

// assertTraceCount checks that op was executed exactly Count times.
func assertTraceCount(trace []TraceEvent, a Assertion) error {
	count := 0
	for _, ev := range trace {
		if ev.Op == a.Op {
			count++
		}
	}
	if count != *a.Count {
		return &AssertionError{
			Type:     AssertTraceCount,
			Expected: fmt.Sprintf("%d occurrences of %s", *a.Count, a.Op),
			Actual:   fmt.Sprintf("%d occurrences", count),
			Trace:    trace,
		}
	}
	return nil
}

// assertJournalCount checks the number of saved journal entries, of one
// journal op when set.
func assertJournalCount(actx *AssertionContext, a Assertion) error {
	entries, err := actx.Store.ReadJournal(actx.Ctx, actx.Project)
	if err != nil {
		return fmt.Errorf("journal_count: %w", err)
	}
	n := len(entries)
	if a.Op != "" {
		n = 0
		for _, e := range entries {
			if e.Op == a.Op {
				n++
			}
		}
	}
	if n != *a.Count {
		ops := make([]string, len(entries))
		for i, e := range entries {
			ops[i] = e.Op
		}
		return &AssertionError{
			Type:     AssertJournalCount,
			Expected: fmt.Sprintf("%d journal entries (op %q)", *a.Count, a.Op),
			Actual:   fmt.Sprintf("%d entries: %v", n, ops),
		}
	}
	return nil
}

// assertReplayMatches replays the saved journal and compares digests with
// both the saved project and the final shadow registry.
func assertReplayMatches(actx *AssertionContext, digest string) error {
	entries, err := actx.Store.ReadJournal(actx.Ctx, actx.Project)
	if err != nil {
		return fmt.Errorf("replay_matches: %w", err)
	}
	reg, err := engine.Replay(entries)
	if err != nil {
		return &AssertionError{Type: AssertReplayMatches, Expected: "journal replays", Actual: err.Error()}
	}
	replayed, err := ir.RegistryDigest(reg)
	if err != nil {
		return fmt.Errorf("replay_matches: %w", err)
	}
	saved, found, err := actx.Store.GetProject(actx.Ctx, actx.Project)
	if err != nil {
		return fmt.Errorf("replay_matches: %w", err)
	}
	if !found || saved.Digest != replayed || replayed != digest {
		return &AssertionError{
			Type:     AssertReplayMatches,
			Expected: fmt.Sprintf("replayed digest %s", digest),
			Actual:   fmt.Sprintf("replayed %s, saved %s (found=%t)", replayed, saved.Digest, found),
		}
	}
	return nil
}

// assertFinalState queries one row of a store table and compares the
// expected columns. Values are bound as parameters; identifiers are
// checked against validIdentifier.
func assertFinalState(ctx context.Context, st *store.Store, a Assertion) error {
	if !validIdentifier.MatchString(a.Table) {
		return fmt.Errorf("invalid table name %q: must match pattern %s", a.Table, validIdentifier.String())
	}

	whereSQL, whereArgs, err := buildWhereClause(a.Where)
	if err != nil {
		return err
	}
	query := fmt.Sprintf("SELECT * FROM %s", a.Table)
	if whereSQL != "" {
		query += " WHERE " + whereSQL
	}

	rows, err := st.DB().QueryContext(ctx, query, whereArgs...)
	if err != nil {
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("query table %s", a.Table),
			Actual:   fmt.Sprintf("query error: %v", err),
		}
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return fmt.Errorf("get columns: %w", err)
	}

	whereDesc := formatWhereClause(a.Where)
	if !rows.Next() {
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("row in %s where %s", a.Table, whereDesc),
			Actual:   "row not found",
		}
	}

	values := make([]any, len(columns))
	ptrs := make([]any, len(columns))
	for i := range values {
		ptrs[i] = &values[i]
	}
	if err := rows.Scan(ptrs...); err != nil {
		return fmt.Errorf("scan row: %w", err)
	}

	if rows.Next() {
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("exactly one row in %s where %s", a.Table, whereDesc),
			Actual:   "multiple rows matched (assertion is ambiguous)",
		}
	}

	row := make(map[string]any, len(columns))
	for i, col := range columns {
		row[col] = values[i]
	}

	keys := sortedKeys(a.Expect)
	for _, key := range keys {
		want := a.Expect[key]
		got, ok := row[key]
		if !ok {
			return &AssertionError{
				Type:     AssertFinalState,
				Expected: fmt.Sprintf("field %q to exist", key),
				Actual:   fmt.Sprintf("field %q not present in result columns: %v", key, columns),
			}
		}
		if !stateValuesEqual(want, got) {
			return &AssertionError{
				Type:     AssertFinalState,
				Expected: fmt.Sprintf("field %q = %v (type %T)", key, want, want),
				Actual:   fmt.Sprintf("field %q = %v (type %T)", key, got, got),
			}
		}
	}
	return nil
}

// buildWhereClause builds a parameterized WHERE clause. Keys are sorted for
// deterministic queries.
func buildWhereClause(where map[string]any) (string, []any, error) {
	if len(where) == 0 {
		return "", nil, nil
	}

	keys := sortedKeys(where)
	clauses := make([]string, 0, len(keys))
	args := make([]any, 0, len(keys))
	for _, key := range keys {
		if !validIdentifier.MatchString(key) {
			return "", nil, fmt.Errorf("invalid column name %q in where clause: must match pattern %s", key, validIdentifier.String())
		}
		clauses = append(clauses, key+" = ?")
		args = append(args, where[key])
	}
	return strings.Join(clauses, " AND "), args, nil
}

// formatWhereClause renders WHERE conditions for messages.
func formatWhereClause(where map[string]any) string {
	if len(where) == 0 {
		return "(no conditions)"
	}
	keys := sortedKeys(where)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, where[k]))
	}
	return strings.Join(parts, " AND ")
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// stateValuesEqual compares a YAML-decoded expectation with a SQLite value.
// SQLite returns integers as int64 and TEXT as string (or []byte).
func stateValuesEqual(expected, actual any) bool {
	if expected == nil || actual == nil {
		return expected == nil && actual == nil
	}

	switch exp := expected.(type) {
	case string:
		switch act := actual.(type) {
		case string:
			return exp == act
		case []byte:
			return exp == string(act)
		}
		return false
	case int:
		if act, ok := actual.(int64); ok {
			return int64(exp) == act
		}
		return false
	case int64:
		if act, ok := actual.(int64); ok {
			return exp == act
		}
		return false
	case bool:
		if act, ok := actual.(int64); ok {
			return exp == (act != 0)
		}
		if act, ok := actual.(bool); ok {
			return exp == act
		}
		return false
	}
	return reflect.DeepEqual(expected, actual)
}
