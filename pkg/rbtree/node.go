package rbtree

// Node is a handle to a value stored in a Tree. The zero Node is invalid and
// is returned by lookups that find nothing.
//
// A Node stays valid until its value is deleted. Deleting a different value
// may move this node's value into another slot, so re-find after deletes.
type Node[T any] struct {
	tree   *Tree[T]
	handle uint32
}

// Valid reports whether the node refers to a stored value.
func (n Node[T]) Valid() bool {
	return n.tree != nil && n.handle != nilNode
}

// Value returns the stored value. It panics on an invalid Node.
func (n Node[T]) Value() T {
	doAssert(n.Valid())

	return n.tree.nd(n.handle).value
}

// Ptr allows mutating the stored value in place. The change must not alter
// the value's position relative to its neighbours. The pointer is invalidated
// by the next Insert.
func (n Node[T]) Ptr() *T {
	doAssert(n.Valid())

	return &n.tree.nd(n.handle).value
}

// Red reports the node color.
func (n Node[T]) Red() bool {
	return n.Valid() && n.tree.isRed(n.handle)
}

// Equal reports whether both handles point at the same node.
func (n Node[T]) Equal(other Node[T]) bool {
	return n.tree == other.tree && n.handle == other.handle
}
