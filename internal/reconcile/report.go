package reconcile

import (
	"fmt"
	"strings"

	"github.com/roach88/extvars/internal/ir"
)

// Operation names used in reports and log lines.
const (
	OpPush   = "push"
	OpResync = "resync"
	OpAdopt  = "adopt"
	OpAdd    = "add"
	OpRename = "rename"
	OpRemove = "remove"
)

// Failure is one record the host (or the shadow store, for adopt) refused.
type Failure struct {
	Record ir.VariableRecord `json:"record"`
	Action string            `json:"action"` // create, delete, rename, import
	Reason string            `json:"reason"`
}

// Report summarizes one reconciliation pass.
type Report struct {
	Created []ir.VariableRecord `json:"created"`
	Deleted []ir.VariableRecord `json:"deleted"`
	Renamed []ir.VariableRecord `json:"renamed"`
	Adopted []ir.VariableRecord `json:"adopted"`
	Failed  []Failure           `json:"failed"`

	// Resynced is set when a targeted push fell back to a full resync.
	Resynced bool `json:"resynced"`
}

// Changed reports whether the pass touched anything.
func (r Report) Changed() bool {
	return len(r.Created)+len(r.Deleted)+len(r.Renamed)+len(r.Adopted) > 0
}

// Merge appends other into r.
func (r *Report) Merge(other Report) {
	r.Created = append(r.Created, other.Created...)
	r.Deleted = append(r.Deleted, other.Deleted...)
	r.Renamed = append(r.Renamed, other.Renamed...)
	r.Adopted = append(r.Adopted, other.Adopted...)
	r.Failed = append(r.Failed, other.Failed...)
	r.Resynced = r.Resynced || other.Resynced
}

// err returns a *PartialReconciliationError when r has failures.
func (r Report) err(op string) error {
	if len(r.Failed) == 0 {
		return nil
	}
	return &PartialReconciliationError{Op: op, Failures: r.Failed}
}

// PartialReconciliationError reports that one or more records could not be
// reconciled. The rest of the batch was applied.
type PartialReconciliationError struct {
	Op       string
	Failures []Failure
}

func (e *PartialReconciliationError) Error() string {
	ids := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		ids[i] = string(f.Record.ID)
	}
	return fmt.Sprintf("%s: %d record(s) not reconciled: %s", e.Op, len(e.Failures), strings.Join(ids, ", "))
}
