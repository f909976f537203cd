package rbtree

import "iter"

// All yields every node in ascending order.
func (tree *Tree[T]) All() iter.Seq[Node[T]] {
	return func(yield func(Node[T]) bool) {
		for n := tree.First(); n.Valid(); n = tree.Next(n) {
			if !yield(n) {
				return
			}
		}
	}
}

// Backward yields every node in descending order.
func (tree *Tree[T]) Backward() iter.Seq[Node[T]] {
	return func(yield func(Node[T]) bool) {
		for n := tree.Last(); n.Valid(); n = tree.Prev(n) {
			if !yield(n) {
				return
			}
		}
	}
}

// Values yields every stored value in ascending order.
func (tree *Tree[T]) Values() iter.Seq[T] {
	return func(yield func(T) bool) {
		for n := range tree.All() {
			if !yield(n.Value()) {
				return
			}
		}
	}
}

// Between yields the nodes whose values lie between lower and upper, bounds
// inclusive when included is set.
//
// The walk follows operand order. When lower sorts before upper, nodes are
// yielded ascending starting from the first node at or above lower. Otherwise
// the operands are swapped and nodes are yielded descending starting from the
// last node at or below the new upper bound. The walk ends at the first node
// strictly outside the bound it approaches.
func (tree *Tree[T]) Between(lower, upper T, included bool) iter.Seq[Node[T]] {
	if tree.cmp(lower, upper) < 0 {
		return tree.ascend(lower, upper, included)
	}

	return tree.descend(upper, lower, included)
}

func (tree *Tree[T]) ascend(lower, upper T, included bool) iter.Seq[Node[T]] {
	return func(yield func(Node[T]) bool) {
		for n := tree.SmallestAbove(lower, true); n.Valid(); n = tree.Next(n) {
			value := n.Value()

			orderUpper := tree.cmp(value, upper)
			if orderUpper > 0 {
				return
			}

			if !included && (orderUpper == 0 || tree.cmp(value, lower) == 0) {
				continue
			}

			if !yield(n) {
				return
			}
		}
	}
}

func (tree *Tree[T]) descend(lower, upper T, included bool) iter.Seq[Node[T]] {
	return func(yield func(Node[T]) bool) {
		for n := tree.BiggestUnder(upper, true); n.Valid(); n = tree.Prev(n) {
			value := n.Value()

			orderLower := tree.cmp(value, lower)
			if orderLower < 0 {
				return
			}

			if !included && (orderLower == 0 || tree.cmp(value, upper) == 0) {
				continue
			}

			if !yield(n) {
				return
			}
		}
	}
}
