package rbtree

import (
	"errors"
	"fmt"
)

// Invariant violations reported by Validate.
var (
	ErrRootRed      = errors.New("root is red")
	ErrRedViolation = errors.New("red node has a red child")
	ErrBlackHeight  = errors.New("unequal black height")
	ErrOrder        = errors.New("in-order sequence is not sorted")
	ErrParentLink   = errors.New("parent link mismatch")
	ErrCount        = errors.New("node count mismatch")
)

// Validate checks the red-black invariants, ordering, parent links and the
// node count.
func (tree *Tree[T]) Validate() error {
	if tree.root == nilNode {
		if tree.count != 0 {
			return fmt.Errorf("%w: empty tree reports %d", ErrCount, tree.count)
		}

		return nil
	}

	if tree.isRed(tree.root) {
		return ErrRootRed
	}

	if parent := tree.nd(tree.root).parent; parent != nilNode {
		return fmt.Errorf("%w: root has parent #%d", ErrParentLink, parent)
	}

	nodes, _, err := tree.validate(tree.root)
	if err != nil {
		return err
	}

	if nodes != tree.count {
		return fmt.Errorf("%w: counted %d, tree reports %d", ErrCount, nodes, tree.count)
	}

	var (
		prev    T
		hasPrev bool
	)

	for value := range tree.Values() {
		if hasPrev && tree.cmp(prev, value) > 0 {
			return ErrOrder
		}

		prev, hasPrev = value, true
	}

	return nil
}

// validate returns the node count and black height of the subtree at handle.
func (tree *Tree[T]) validate(handle uint32) (nodes, blackHeight int, err error) {
	if handle == nilNode {
		return 0, 1, nil
	}

	nd := tree.nd(handle)

	for _, child := range nd.links {
		if child == nilNode {
			continue
		}

		if tree.nd(child).parent != handle {
			return 0, 0, fmt.Errorf("%w: node #%d", ErrParentLink, child)
		}

		if tree.isRed(handle) && tree.isRed(child) {
			return 0, 0, fmt.Errorf("%w: node #%d", ErrRedViolation, handle)
		}
	}

	leftNodes, leftHeight, err := tree.validate(nd.links[left])
	if err != nil {
		return 0, 0, err
	}

	rightNodes, rightHeight, err := tree.validate(nd.links[right])
	if err != nil {
		return 0, 0, err
	}

	if leftHeight != rightHeight {
		return 0, 0, fmt.Errorf("%w: node #%d (%d vs %d)", ErrBlackHeight, handle, leftHeight, rightHeight)
	}

	if !tree.isRed(handle) {
		leftHeight++
	}

	return leftNodes + rightNodes + 1, leftHeight, nil
}
