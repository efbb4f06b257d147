package workspace

import (
	"fmt"

	"github.com/roach88/extvars/internal/host/memhost"
	"github.com/roach88/extvars/internal/ir"
)

// Document is a serialized workspace.
type Document struct {
	Variables []VariableDoc `yaml:"variables" json:"variables"`
	Blocks    []BlockDoc    `yaml:"blocks" json:"blocks"`
	Roots     []string      `yaml:"roots,omitempty" json:"roots,omitempty"`
}

// VariableDoc is one live variable. Category keeps the raw host tag.
type VariableDoc struct {
	ID       string `yaml:"id" json:"id"`
	Name     string `yaml:"name" json:"name"`
	Category string `yaml:"category,omitempty" json:"category,omitempty"`
}

// BlockDoc is one block. Children and Next name other blocks by id.
type BlockDoc struct {
	ID       string   `yaml:"id" json:"id"`
	Type     string   `yaml:"type,omitempty" json:"type,omitempty"`
	Variable string   `yaml:"variable,omitempty" json:"variable,omitempty"`
	Children []string `yaml:"children,omitempty" json:"children,omitempty"`
	Next     string   `yaml:"next,omitempty" json:"next,omitempty"`
}

// Build creates an in-memory host from the document.
//
// Variables are stored as-is (host states the registry would reject are
// preserved). Block references to unknown ids are an error.
func Build(doc *Document) (*memhost.Workspace, error) {
	ws := memhost.New()
	for _, v := range doc.Variables {
		ws.PutVariable(ir.VariableRecord{
			ID:       ir.VarID(v.ID),
			Name:     v.Name,
			Category: ir.Category(v.Category),
		})
	}

	blocks := make(map[string]*memhost.Block, len(doc.Blocks))
	for _, bd := range doc.Blocks {
		b := memhost.NewBlock(bd.ID, bd.Type)
		if bd.Variable != "" {
			b.WithVariable(ir.VarID(bd.Variable))
		}
		if err := ws.AddBlock(b); err != nil {
			return nil, fmt.Errorf("block %q: %w", bd.ID, err)
		}
		blocks[bd.ID] = b
	}

	for _, bd := range doc.Blocks {
		b := blocks[bd.ID]
		for _, cid := range bd.Children {
			c, ok := blocks[cid]
			if !ok {
				return nil, fmt.Errorf("block %q: unknown child %q", bd.ID, cid)
			}
			b.AddChild(c)
		}
		if bd.Next != "" {
			n, ok := blocks[bd.Next]
			if !ok {
				return nil, fmt.Errorf("block %q: unknown next %q", bd.ID, bd.Next)
			}
			b.SetNext(n)
		}
	}

	for _, r := range doc.Roots {
		if _, ok := blocks[r]; !ok {
			return nil, fmt.Errorf("unknown root %q", r)
		}
	}
	ws.SetRoots(doc.Roots...)
	return ws, nil
}

// FromWorkspace serializes an in-memory host. Blocks keep registration
// order, so Build(FromWorkspace(ws)) reproduces ws.
func FromWorkspace(ws *memhost.Workspace) *Document {
	doc := &Document{
		Variables: []VariableDoc{},
		Blocks:    []BlockDoc{},
		Roots:     ws.PinnedRoots(),
	}
	for _, v := range ws.Variables() {
		doc.Variables = append(doc.Variables, VariableDoc{
			ID:       string(v.ID),
			Name:     v.Name,
			Category: string(v.Category),
		})
	}
	for _, b := range ws.Blocks() {
		bd := BlockDoc{ID: b.ID(), Type: b.Type}
		if v, ok := b.VariableField(); ok {
			bd.Variable = string(v)
		}
		for _, c := range b.Children() {
			bd.Children = append(bd.Children, c.ID())
		}
		if n := b.Next(); n != nil {
			bd.Next = n.ID()
		}
		doc.Blocks = append(doc.Blocks, bd)
	}
	return doc
}
