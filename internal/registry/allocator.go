package registry

import (
	"fmt"
	"log/slog"
	"regexp"
	"strconv"

	"github.com/roach88/extvars/internal/ir"
)

// IDPrefix is the textual prefix of every allocated identifier.
const IDPrefix = "EV_"

// FirstID is returned when no scanned record carries an allocated id.
const FirstID ir.VarID = IDPrefix + "0001"

var idPattern = regexp.MustCompile(`^EV_([0-9]{4,})$`)

// View is a source of variable records the allocator must consider.
// host.VariableStore satisfies View, as does ViewFunc and Static.
type View interface {
	List() ([]ir.VariableRecord, error)
}

// ViewFunc adapts a function to the View interface.
type ViewFunc func() ([]ir.VariableRecord, error)

// List calls f.
func (f ViewFunc) List() ([]ir.VariableRecord, error) { return f() }

// Static returns a View over a fixed registry.
func Static(reg ir.Registry) View {
	return ViewFunc(func() ([]ir.VariableRecord, error) {
		return reg.Records(), nil
	})
}

// FormatID renders the identifier for sequence number n.
// Numbers beyond 9999 keep all their digits.
func FormatID(n int) ir.VarID {
	return ir.VarID(fmt.Sprintf("%s%04d", IDPrefix, n))
}

// ParseID extracts the sequence number of an allocated identifier.
// Returns false for ids that do not have the EV_NNNN shape.
func ParseID(id ir.VarID) (int, bool) {
	m := idPattern.FindStringSubmatch(string(id))
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// NextID returns the identifier following the highest allocated id found in
// any of the views.
//
// A view that fails or panics while being scanned contributes nothing and a
// warning is logged; the failure never reaches the caller. With no usable
// records the result is FirstID.
func NextID(views ...View) ir.VarID {
	highest := 0
	for i, v := range views {
		if v == nil {
			continue
		}
		recs, err := scanView(v)
		if err != nil {
			slog.Warn("id allocation: view unavailable, skipping",
				"view", i,
				"error", err,
			)
			continue
		}
		for _, rec := range recs {
			if n, ok := ParseID(rec.ID); ok && n > highest {
				highest = n
			}
		}
	}
	return FormatID(highest + 1)
}

// scanView lists a view, converting a panic into an error.
func scanView(v View) (recs []ir.VariableRecord, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic while listing view: %v", r)
		}
	}()
	return v.List()
}
