package domain

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// PlanNode is a node of a payment plan tree. The set of implementations is
// closed: *SerialNode, *ParallelNode, *CommandNode and *DataNode.
type PlanNode interface {
	isPlanNode()
}

// SerialNode runs its items in order, the output of each one being the input
// of the next. It must have at least one item.
type SerialNode struct {
	Items []PlanNode
}

// ParallelNode runs its items concurrently. None of them receives external
// input.
type ParallelNode struct {
	Items []PlanNode
}

// CommandNode is a unit of work identified by name. Intent is set only for
// steps that need parameters not derivable from their input.
type CommandNode struct {
	ID     string
	Name   string
	Intent *Intent
}

// DataNode injects a literal payload in the tree.
type DataNode struct {
	Payload Payload
}

func (*SerialNode) isPlanNode()   {}
func (*ParallelNode) isPlanNode() {}
func (*CommandNode) isPlanNode()  {}
func (*DataNode) isPlanNode()     {}

func NewSerial(items ...PlanNode) *SerialNode {
	return &SerialNode{Items: items}
}

func NewParallel(items ...PlanNode) *ParallelNode {
	return &ParallelNode{Items: items}
}

// NewCommand returns a command node with a fresh id.
func NewCommand(name string, intent *Intent) *CommandNode {
	return &CommandNode{
		ID:     uuid.New().String(),
		Name:   name,
		Intent: intent,
	}
}

func NewData(payload Payload) *DataNode {
	return &DataNode{Payload: payload}
}

// Walk visits the tree depth-first, parents before children. Returning false
// from fn skips the children of the visited node.
func Walk(node PlanNode, fn func(PlanNode) bool) {
	if node == nil || !fn(node) {
		return
	}
	switch n := node.(type) {
	case *SerialNode:
		for _, item := range n.Items {
			Walk(item, fn)
		}
	case *ParallelNode:
		for _, item := range n.Items {
			Walk(item, fn)
		}
	}
}

// Commands returns the command nodes of the tree in execution order.
func Commands(node PlanNode) []*CommandNode {
	cmds := make([]*CommandNode, 0)
	Walk(node, func(n PlanNode) bool {
		if cmd, ok := n.(*CommandNode); ok {
			cmds = append(cmds, cmd)
		}
		return true
	})
	return cmds
}

// LastCommand returns the command that runs last in the given tree, if any.
func LastCommand(node PlanNode) (*CommandNode, bool) {
	switch n := node.(type) {
	case *CommandNode:
		return n, true
	case *SerialNode:
		if len(n.Items) <= 0 {
			return nil, false
		}
		return LastCommand(n.Items[len(n.Items)-1])
	default:
		return nil, false
	}
}

// FormatPlan returns an indented, human readable representation of the tree.
func FormatPlan(node PlanNode) string {
	sb := &strings.Builder{}
	formatPlan(sb, node, 0)
	return sb.String()
}

func formatPlan(sb *strings.Builder, node PlanNode, depth int) {
	indent := strings.Repeat("  ", depth)
	switch n := node.(type) {
	case *SerialNode:
		fmt.Fprintf(sb, "%sserial\n", indent)
		for _, item := range n.Items {
			formatPlan(sb, item, depth+1)
		}
	case *ParallelNode:
		fmt.Fprintf(sb, "%sparallel\n", indent)
		for _, item := range n.Items {
			formatPlan(sb, item, depth+1)
		}
	case *CommandNode:
		if n.Intent != nil {
			fmt.Fprintf(sb, "%s%s (%s)\n", indent, n.Name, n.Intent)
			return
		}
		fmt.Fprintf(sb, "%s%s\n", indent, n.Name)
	case *DataNode:
		for _, e := range n.Payload.Entries() {
			fmt.Fprintf(
				sb, "%sdata %s %s %s\n",
				indent, e.Kind, e.FormattedBalance(), e.Symbol,
			)
		}
	default:
		fmt.Fprintf(sb, "%sunknown %T\n", indent, node)
	}
}
