package registry

import (
	"fmt"
	"slices"

	"github.com/roach88/extvars/internal/catalog"
	"github.com/roach88/extvars/internal/ir"
)

// Store owns the canonical ordered list of variable records per category.
//
// INVARIANTS:
//   - No two records in one category have equal ir.NameKey values
//   - No two records anywhere share an id
//   - Record ids and categories never change after insertion
//
// Store is not safe for concurrent use; the engine serializes access.
type Store struct {
	records  map[ir.Category][]ir.VariableRecord
	views    []View
	capacity int
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithViews registers extra views scanned on every id allocation, typically
// the live host variable store.
func WithViews(views ...View) StoreOption {
	return func(s *Store) {
		s.views = append(s.views, views...)
	}
}

// WithCapacity limits the number of records per category. Zero means unlimited.
func WithCapacity(n int) StoreOption {
	return func(s *Store) {
		s.capacity = n
	}
}

// NewStore creates an empty store.
func NewStore(opts ...StoreOption) *Store {
	s := &Store{records: make(map[ir.Category][]ir.VariableRecord)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FromRegistry creates a store holding the records of reg, inserted in
// catalog order. Records violating store invariants are rejected with an error.
func FromRegistry(reg ir.Registry, opts ...StoreOption) (*Store, error) {
	s := NewStore(opts...)
	for _, cat := range orderedCategories(reg) {
		for _, rec := range reg[cat] {
			if rec.Category == "" {
				rec.Category = cat
			}
			if err := s.insert(rec, false); err != nil {
				return nil, fmt.Errorf("load registry: %w", err)
			}
		}
	}
	return s, nil
}

// View returns a View over the store's current records.
func (s *Store) View() View {
	return ViewFunc(func() ([]ir.VariableRecord, error) {
		return s.Registry().Records(), nil
	})
}

// Add creates a record named name in category, allocating a fresh id across
// the store and every registered view.
func (s *Store) Add(category ir.Category, name string) (ir.VariableRecord, error) {
	if !catalog.Contains(string(category)) {
		return ir.VariableRecord{}, fmt.Errorf("add %q: %w: %q", name, ErrUnknownCategory, category)
	}
	clean := ir.CleanName(name)
	if clean == "" {
		return ir.VariableRecord{}, fmt.Errorf("add: %w", ErrEmptyName)
	}
	if existing, ok := s.lookupName(category, clean, ""); ok {
		return ir.VariableRecord{}, &DuplicateNameError{Category: category, Name: clean, Existing: existing.ID}
	}
	if s.full(category) {
		return ir.VariableRecord{}, &CapacityError{Category: category, Limit: s.capacity}
	}

	views := append([]View{s.View()}, s.views...)
	rec := ir.VariableRecord{
		ID:       NextID(views...),
		Name:     clean,
		Category: category,
	}
	s.records[category] = append(s.records[category], rec)
	return rec, nil
}

// Insert adds a record that already carries an id, such as one adopted from
// the host or replayed from the journal. Capacity is enforced.
func (s *Store) Insert(rec ir.VariableRecord) error {
	return s.insert(rec, true)
}

// Import adds a record that an external owner (the host) already admitted.
// Capacity is not enforced; every other invariant is.
func (s *Store) Import(rec ir.VariableRecord) error {
	return s.insert(rec, false)
}

func (s *Store) insert(rec ir.VariableRecord, enforceCapacity bool) error {
	if !catalog.Contains(string(rec.Category)) {
		return fmt.Errorf("insert %s: %w: %q", rec.ID, ErrUnknownCategory, rec.Category)
	}
	if rec.ID == "" {
		return fmt.Errorf("insert %q: %w", rec.Name, ErrMissingID)
	}
	rec.Name = ir.CleanName(rec.Name)
	if rec.Name == "" {
		return fmt.Errorf("insert %s: %w", rec.ID, ErrEmptyName)
	}
	if _, ok := s.Get(rec.ID); ok {
		return fmt.Errorf("insert %s: %w", rec.ID, ErrDuplicateID)
	}
	if existing, ok := s.lookupName(rec.Category, rec.Name, ""); ok {
		return &DuplicateNameError{Category: rec.Category, Name: rec.Name, Existing: existing.ID}
	}
	if enforceCapacity && s.full(rec.Category) {
		return &CapacityError{Category: rec.Category, Limit: s.capacity}
	}
	s.records[rec.Category] = append(s.records[rec.Category], rec)
	return nil
}

// Rename changes the name of the record with the given id. A rename that only
// changes letter case of the same record is allowed.
func (s *Store) Rename(id ir.VarID, newName string) (ir.VariableRecord, error) {
	cat, idx, ok := s.locate(id)
	if !ok {
		return ir.VariableRecord{}, fmt.Errorf("rename %s: %w", id, ErrNotFound)
	}
	clean := ir.CleanName(newName)
	if clean == "" {
		return ir.VariableRecord{}, fmt.Errorf("rename %s: %w", id, ErrEmptyName)
	}
	if existing, dup := s.lookupName(cat, clean, id); dup {
		return ir.VariableRecord{}, &DuplicateNameError{Category: cat, Name: clean, Existing: existing.ID}
	}
	s.records[cat][idx].Name = clean
	return s.records[cat][idx], nil
}

// Remove deletes the record with the given id. Removing an absent record is a
// no-op; the returned record is only meaningful when removed is true.
func (s *Store) Remove(id ir.VarID) (rec ir.VariableRecord, removed bool) {
	cat, idx, ok := s.locate(id)
	if !ok {
		return ir.VariableRecord{}, false
	}
	rec = s.records[cat][idx]
	s.records[cat] = slices.Delete(s.records[cat], idx, idx+1)
	return rec, true
}

// Get returns the record with the given id.
func (s *Store) Get(id ir.VarID) (ir.VariableRecord, bool) {
	cat, idx, ok := s.locate(id)
	if !ok {
		return ir.VariableRecord{}, false
	}
	return s.records[cat][idx], true
}

// FindByName returns the record in category whose name collides with name.
func (s *Store) FindByName(category ir.Category, name string) (ir.VariableRecord, bool) {
	return s.lookupName(category, name, "")
}

// List returns a copy of the records in category, in insertion order.
// Returns an empty slice (not nil) for empty or unknown categories.
func (s *Store) List(category ir.Category) []ir.VariableRecord {
	recs := s.records[category]
	if len(recs) == 0 {
		return []ir.VariableRecord{}
	}
	return slices.Clone(recs)
}

// Count returns len(List(category)).
func (s *Store) Count(category ir.Category) int {
	return len(s.records[category])
}

// Len returns the total number of records.
func (s *Store) Len() int {
	n := 0
	for _, recs := range s.records {
		n += len(recs)
	}
	return n
}

// Registry returns a deep copy of the store contents.
func (s *Store) Registry() ir.Registry {
	return ir.Registry(s.records).Clone()
}

// Capacity returns the per-category limit (0 = unlimited).
func (s *Store) Capacity() int { return s.capacity }

func (s *Store) full(category ir.Category) bool {
	return s.capacity > 0 && len(s.records[category]) >= s.capacity
}

func (s *Store) locate(id ir.VarID) (ir.Category, int, bool) {
	for cat, recs := range s.records {
		for i, rec := range recs {
			if rec.ID == id {
				return cat, i, true
			}
		}
	}
	return "", 0, false
}

// lookupName finds a record in category whose name key equals that of name,
// ignoring the record with id except.
func (s *Store) lookupName(category ir.Category, name string, except ir.VarID) (ir.VariableRecord, bool) {
	key := ir.NameKey(name)
	for _, rec := range s.records[category] {
		if rec.ID != except && ir.NameKey(rec.Name) == key {
			return rec, true
		}
	}
	return ir.VariableRecord{}, false
}

// orderedCategories returns the categories of reg in catalog order, followed
// by any non-catalog categories in byte order.
func orderedCategories(reg ir.Registry) []ir.Category {
	var out, extra []ir.Category
	for _, cat := range catalog.All() {
		if _, ok := reg[cat]; ok {
			out = append(out, cat)
		}
	}
	for cat := range reg {
		if catalog.Index(cat) < 0 {
			extra = append(extra, cat)
		}
	}
	slices.Sort(extra)
	return append(out, extra...)
}

// OrderedCategories exposes the catalog-first category ordering used by
// FromRegistry and reconciliation.
func OrderedCategories(reg ir.Registry) []ir.Category {
	return orderedCategories(reg)
}
