package ir

import (
	"slices"
	"strings"
)

// Category is a variable category tag such as "Global" or "Player".
// The set of valid tags is owned by the catalog package.
type Category string

// VarID identifies a variable. Allocated ids have the shape EV_NNNN, but ids
// adopted from a host may be arbitrary non-empty strings.
type VarID string

// VariableRecord is one named variable.
// ID and Category never change after creation; Name changes only by rename.
type VariableRecord struct {
	ID       VarID    `json:"id" yaml:"id"`
	Name     string   `json:"name" yaml:"name"`
	Category Category `json:"category" yaml:"category"`
}

// Registry maps a category to its ordered variable records.
//
// Two registries usually exist at once: the live registry derived from the
// host's variable store and the shadow registry persisted by extvars.
type Registry map[Category][]VariableRecord

// Len returns the total number of records across all categories.
func (r Registry) Len() int {
	n := 0
	for _, recs := range r {
		n += len(recs)
	}
	return n
}

// Clone returns a deep copy of the registry.
func (r Registry) Clone() Registry {
	out := make(Registry, len(r))
	for cat, recs := range r {
		out[cat] = slices.Clone(recs)
	}
	return out
}

// Find returns the record with the given id.
func (r Registry) Find(id VarID) (VariableRecord, bool) {
	for _, recs := range r {
		for _, rec := range recs {
			if rec.ID == id {
				return rec, true
			}
		}
	}
	return VariableRecord{}, false
}

// Records returns every record, categories in byte order and records in
// list order. Callers that need catalog ordering should iterate categories
// themselves.
func (r Registry) Records() []VariableRecord {
	cats := make([]string, 0, len(r))
	for cat := range r {
		cats = append(cats, string(cat))
	}
	slices.Sort(cats)

	out := make([]VariableRecord, 0, r.Len())
	for _, cat := range cats {
		out = append(out, r[Category(cat)]...)
	}
	return out
}

// IDSet returns the ids of every record, grouped by category.
func (r Registry) IDSet() map[Category][]VarID {
	out := make(map[Category][]VarID, len(r))
	for cat, recs := range r {
		if len(recs) == 0 {
			continue
		}
		ids := make([]VarID, len(recs))
		for i, rec := range recs {
			ids[i] = rec.ID
		}
		slices.Sort(ids)
		out[cat] = ids
	}
	return out
}

// Journal operations.
const (
	OpAdd    = "add"
	OpRename = "rename"
	OpRemove = "remove"
	OpAdopt  = "adopt"
)

// JournalEntry records one successful registry mutation.
// Entries are ordered by Seq (logical clock), never by wall time.
type JournalEntry struct {
	Seq      int64    `json:"seq"`
	Session  string   `json:"session"`
	Op       string   `json:"op"`
	VarID    VarID    `json:"var_id"`
	Name     string   `json:"name"`
	Category Category `json:"category"`
}

// String renders a record as "Category/Name (ID)".
func (v VariableRecord) String() string {
	var b strings.Builder
	b.WriteString(string(v.Category))
	b.WriteByte('/')
	b.WriteString(v.Name)
	b.WriteString(" (")
	b.WriteString(string(v.ID))
	b.WriteByte(')')
	return b.String()
}
