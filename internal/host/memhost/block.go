package memhost

import (
	"github.com/roach88/extvars/internal/host"
	"github.com/roach88/extvars/internal/ir"
)

// Block is an in-memory block node.
type Block struct {
	id       string
	Type     string
	varID    ir.VarID
	hasVar   bool
	children []*Block
	next     *Block
	revision int
}

var (
	_ host.BlockNode    = (*Block)(nil)
	_ host.Reassignable = (*Block)(nil)
)

// NewBlock creates a block with the given identity and block type.
func NewBlock(id, blockType string) *Block {
	return &Block{id: id, Type: blockType}
}

// WithVariable sets the block's variable reference and returns the block.
func (b *Block) WithVariable(id ir.VarID) *Block {
	b.varID, b.hasVar = id, true
	return b
}

// AddChild plugs c into the block's next free input slot and returns b.
func (b *Block) AddChild(c *Block) *Block {
	b.children = append(b.children, c)
	return b
}

// SetNext chains n after b and returns b.
func (b *Block) SetNext(n *Block) *Block {
	b.next = n
	return b
}

// ID implements host.BlockNode.
func (b *Block) ID() string { return b.id }

// VariableField implements host.BlockNode.
func (b *Block) VariableField() (ir.VarID, bool) { return b.varID, b.hasVar }

// ChildNodes implements host.BlockNode.
func (b *Block) ChildNodes() []host.BlockNode {
	out := make([]host.BlockNode, 0, len(b.children))
	for _, c := range b.children {
		if c != nil {
			out = append(out, c)
		}
	}
	return out
}

// NextNode implements host.BlockNode.
func (b *Block) NextNode() host.BlockNode {
	if b.next == nil {
		return nil
	}
	return b.next
}

// SetVariableField implements host.Reassignable. Every write bumps the
// block's revision, even when the id is unchanged, mirroring a host whose
// change detection redraws on any field assignment.
func (b *Block) SetVariableField(id ir.VarID) bool {
	b.varID, b.hasVar = id, true
	b.revision++
	return true
}

// Revision counts variable field writes since creation.
func (b *Block) Revision() int { return b.revision }

// Children returns the raw child blocks.
func (b *Block) Children() []*Block { return b.children }

// Next returns the raw next block.
func (b *Block) Next() *Block { return b.next }
