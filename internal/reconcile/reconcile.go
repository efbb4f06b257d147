package reconcile

import (
	"log/slog"

	"github.com/roach88/extvars/internal/host"
	"github.com/roach88/extvars/internal/ir"
	"github.com/roach88/extvars/internal/registry"
)

// PushShadowToLive creates in the host every shadow record it lacks.
//
// A shadow record is present when the host has its id, or failing that a
// variable with the same name key in the same category. Records are pushed
// in catalog order, then record order.
func PushShadowToLive(shadow ir.Registry, live host.VariableStore) (Report, error) {
	liveReg, err := host.LiveRegistry(live)
	if err != nil {
		return Report{}, err
	}
	idx := indexRegistry(liveReg)

	var report Report
	for _, cat := range registry.OrderedCategories(shadow) {
		for _, rec := range shadow[cat] {
			if rec.Category == "" {
				rec.Category = cat
			}
			if idx.has(rec) {
				continue
			}
			if ok, reason := create(live, rec); !ok {
				report.fail(OpPush, rec, "create", reason)
				continue
			}
			report.Created = append(report.Created, rec)
			idx.add(rec)
		}
	}

	if report.Changed() {
		slog.Info("pushed shadow registry to host", "created", len(report.Created), "failed", len(report.Failed))
	}
	return report, report.err(OpPush)
}

// Resync deletes every live variable, then recreates every shadow record.
// Use it when the host drifted in a way a push cannot repair (a failed
// rename, a stray variable).
func Resync(shadow ir.Registry, live host.VariableStore) (Report, error) {
	liveReg, err := host.LiveRegistry(live)
	if err != nil {
		return Report{}, err
	}

	report := Report{Resynced: true}
	for _, cat := range registry.OrderedCategories(liveReg) {
		for _, rec := range liveReg[cat] {
			if !remove(live, rec) {
				report.fail(OpResync, rec, "delete", "host rejected delete")
				continue
			}
			report.Deleted = append(report.Deleted, rec)
		}
	}

	for _, cat := range registry.OrderedCategories(shadow) {
		for _, rec := range shadow[cat] {
			if rec.Category == "" {
				rec.Category = cat
			}
			if ok, reason := create(live, rec); !ok {
				report.fail(OpResync, rec, "create", reason)
				continue
			}
			report.Created = append(report.Created, rec)
		}
	}

	slog.Info("resynced host from shadow registry",
		"deleted", len(report.Deleted),
		"created", len(report.Created),
		"failed", len(report.Failed),
	)
	return report, report.err(OpResync)
}

// Adopt imports into shadow every live variable whose id shadow lacks.
// Variables keep their host category, or Global when the host tag is empty
// or unknown. A variable whose name collides with a different shadow record
// is reported as a failure and left alone.
func Adopt(live host.VariableStore, shadow *registry.Store) (Report, error) {
	liveReg, err := host.LiveRegistry(live)
	if err != nil {
		return Report{}, err
	}

	var report Report
	for _, cat := range registry.OrderedCategories(liveReg) {
		for _, rec := range liveReg[cat] {
			if _, ok := shadow.Get(rec.ID); ok {
				continue
			}
			if err := shadow.Import(rec); err != nil {
				report.fail(OpAdopt, rec, "import", err.Error())
				continue
			}
			report.Adopted = append(report.Adopted, rec)
		}
	}

	if report.Changed() {
		slog.Info("adopted host variables", "adopted", len(report.Adopted), "failed", len(report.Failed))
	}
	return report, report.err(OpAdopt)
}

// PushAdd creates one freshly added record in the host.
func PushAdd(live host.VariableStore, rec ir.VariableRecord) (Report, error) {
	var report Report
	if ok, reason := create(live, rec); !ok {
		report.fail(OpAdd, rec, "create", reason)
	} else {
		report.Created = append(report.Created, rec)
	}
	return report, report.err(OpAdd)
}

// PushRename renames rec in the host. When the host refuses, the host is
// resynced from shadow, which must already carry the new name.
func PushRename(shadow ir.Registry, live host.VariableStore, rec ir.VariableRecord) (Report, error) {
	if rename(live, rec.ID, rec.Name) {
		return Report{Renamed: []ir.VariableRecord{rec}}, nil
	}
	slog.Warn("host rename failed, falling back to resync", "id", rec.ID, "name", rec.Name)
	return Resync(shadow, live)
}

// PushRemove deletes rec from the host by id. When the host no longer has
// the id, the delete falls back to the name, but only for a live variable in
// rec's category that no shadow record owns and whose name no other live
// variable shares. A variable the host no longer holds is already gone. Any
// other refusal resyncs the host from shadow, which must no longer contain rec.
func PushRemove(shadow ir.Registry, live host.VariableStore, rec ir.VariableRecord) (Report, error) {
	if deleteByID(live, rec.ID) {
		return Report{Deleted: []ir.VariableRecord{rec}}, nil
	}

	liveReg, err := host.LiveRegistry(live)
	if err != nil {
		return Report{}, err
	}
	target, ok := staleLive(shadow, liveReg, rec)
	if !ok {
		return Report{}, nil
	}
	if uniqueLiveName(liveReg, target.Name) && deleteByName(live, target.Name) {
		return Report{Deleted: []ir.VariableRecord{target}}, nil
	}
	slog.Warn("host delete failed, falling back to resync", "id", rec.ID, "name", rec.Name)
	return Resync(shadow, live)
}

// staleLive finds the live variable standing for a removed shadow record:
// the one with its id, else one in its category with the same name key whose
// id the shadow does not own.
func staleLive(shadow, liveReg ir.Registry, rec ir.VariableRecord) (ir.VariableRecord, bool) {
	if v, ok := liveReg.Find(rec.ID); ok {
		return v, true
	}
	key := ir.NameKey(rec.Name)
	for _, v := range liveReg[rec.Category] {
		if ir.NameKey(v.Name) != key {
			continue
		}
		if _, owned := shadow.Find(v.ID); owned {
			continue
		}
		return v, true
	}
	return ir.VariableRecord{}, false
}

// uniqueLiveName reports whether exactly one live variable has name's key,
// so a host delete by name cannot hit a variable of another category.
func uniqueLiveName(liveReg ir.Registry, name string) bool {
	key := ir.NameKey(name)
	n := 0
	for _, v := range liveReg.Records() {
		if ir.NameKey(v.Name) == key {
			n++
		}
	}
	return n == 1
}

func (r *Report) fail(op string, rec ir.VariableRecord, action, reason string) {
	slog.Warn("reconciliation failed for record",
		"op", op,
		"action", action,
		"id", rec.ID,
		"name", rec.Name,
		"category", rec.Category,
		"reason", reason,
	)
	r.Failed = append(r.Failed, Failure{Record: rec, Action: action, Reason: reason})
}

// liveIndex answers "is this record already in the host".
type liveIndex struct {
	ids   map[ir.VarID]bool
	names map[ir.Category]map[string]bool
}

func indexRegistry(reg ir.Registry) liveIndex {
	idx := liveIndex{
		ids:   make(map[ir.VarID]bool),
		names: make(map[ir.Category]map[string]bool),
	}
	for _, rec := range reg.Records() {
		idx.add(rec)
	}
	return idx
}

func (idx liveIndex) add(rec ir.VariableRecord) {
	idx.ids[rec.ID] = true
	if idx.names[rec.Category] == nil {
		idx.names[rec.Category] = make(map[string]bool)
	}
	idx.names[rec.Category][ir.NameKey(rec.Name)] = true
}

func (idx liveIndex) has(rec ir.VariableRecord) bool {
	return idx.ids[rec.ID] || idx.names[rec.Category][ir.NameKey(rec.Name)]
}
