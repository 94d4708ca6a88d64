package planner

import (
	"container/heap"
	"errors"
	"fmt"

	"github.com/udisondev/stealthai/internal/model"
)

var (
	// ErrNoPlanFound is returned when no action sequence reaches the goal.
	ErrNoPlanFound = errors.New("no plan found")

	// ErrSearchBudgetExceeded is returned when the node or length budget ran out
	// before the goal was reached. It wraps ErrNoPlanFound.
	ErrSearchBudgetExceeded = fmt.Errorf("%w: search budget exceeded", ErrNoPlanFound)
)

// Default search budget.
const (
	DefaultMaxExpanded   = 2048
	DefaultMaxPlanLength = 10
)

// Limits bounds a single search.
type Limits struct {
	MaxExpanded   int // nodes popped from the open list
	MaxPlanLength int // actions in a plan
}

// DefaultLimits returns the default search budget.
func DefaultLimits() Limits {
	return Limits{MaxExpanded: DefaultMaxExpanded, MaxPlanLength: DefaultMaxPlanLength}
}

func (l Limits) normalized() Limits {
	if l.MaxExpanded <= 0 {
		l.MaxExpanded = DefaultMaxExpanded
	}
	if l.MaxPlanLength <= 0 {
		l.MaxPlanLength = DefaultMaxPlanLength
	}
	return l
}

// Search finds a minimum-cost action sequence that takes start to a state
// satisfying desired. actions must be in declaration order; that order
// breaks ties, so identical inputs always yield the identical plan. The
// returned plan's Goal is left for the caller to set.
//
// The returned plan has zero steps when start already satisfies desired.
// Search keeps no state between calls.
func Search(start model.WorldState, desired model.Conditions, actions []*model.Action, limits Limits) (*model.Plan, error) {
	limits = limits.normalized()

	root := &planNode{state: start, action: -1, h: start.Mismatch(desired)}
	root.f = float64(root.h)

	openList := &nodeHeap{}
	heap.Init(openList)
	heap.Push(openList, root)

	// closed maps an expanded state to the shallowest depth it was expanded
	// at. A state reached again at a smaller depth is reopened: the deeper
	// expansion may have hit MaxPlanLength where the shallower one would not.
	closed := make(map[model.WorldState]int, 64)
	seq := 0
	expanded := 0
	truncated := false

	for openList.Len() > 0 {
		if expanded >= limits.MaxExpanded {
			return nil, fmt.Errorf("%w: %d nodes expanded", ErrSearchBudgetExceeded, expanded)
		}

		current := heap.Pop(openList).(*planNode)

		if current.h == 0 {
			return reconstruct(current, actions, expanded), nil
		}

		if depth, exists := closed[current.state]; exists && depth <= current.depth {
			continue
		}
		closed[current.state] = current.depth
		expanded++

		if current.depth >= limits.MaxPlanLength {
			truncated = true
			continue
		}

		for i, a := range actions {
			if !a.Applicable(current.state) {
				continue
			}
			next := current.state.Apply(a.Effects)
			if depth, exists := closed[next]; exists && depth <= current.depth+1 {
				continue
			}

			seq++
			node := &planNode{
				state:  next,
				parent: current,
				action: i,
				depth:  current.depth + 1,
				g:      current.g + a.Cost,
				h:      next.Mismatch(desired),
				seq:    seq,
			}
			node.f = node.g + float64(node.h)
			heap.Push(openList, node)
		}
	}

	if truncated {
		return nil, fmt.Errorf("%w: plan length limit %d", ErrSearchBudgetExceeded, limits.MaxPlanLength)
	}
	return nil, fmt.Errorf("%w: %d nodes expanded", ErrNoPlanFound, expanded)
}

func reconstruct(n *planNode, actions []*model.Action, expanded int) *model.Plan {
	steps := make([]*model.Action, n.depth)
	for cur := n; cur.parent != nil; cur = cur.parent {
		steps[cur.depth-1] = actions[cur.action]
	}
	return &model.Plan{
		Steps:    steps,
		Cost:     n.g,
		Expanded: expanded,
	}
}

// planNode is a hypothetical world state reached by a chain of actions.
type planNode struct {
	state  model.WorldState
	parent *planNode
	action int // index into actions of the edge that produced this node, -1 for root
	depth  int
	g      float64 // Cost from start
	h      int     // Unmet desired facts
	f      float64 // g + h
	seq    int     // Insertion order
	index  int     // heap index
}

// nodeHeap implements container/heap for the open list. Order: f, then g,
// then action declaration order, then insertion order.
type nodeHeap []*planNode

func (h nodeHeap) Len() int      { return len(h) }
func (h nodeHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i]; h[i].index = i; h[j].index = j }
func (h *nodeHeap) Push(x any)   { n := x.(*planNode); n.index = len(*h); *h = append(*h, n) }

func (h nodeHeap) Less(i, j int) bool {
	a, b := h[i], h[j]
	if a.f != b.f {
		return a.f < b.f
	}
	if a.g != b.g {
		return a.g < b.g
	}
	if a.action != b.action {
		return a.action < b.action
	}
	return a.seq < b.seq
}

func (h *nodeHeap) Pop() any {
	old := *h
	n := len(old)
	node := old[n-1]
	old[n-1] = nil // GC
	node.index = -1
	*h = old[:n-1]
	return node
}
