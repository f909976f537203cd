// Package rbtree provides a generic red-black tree ordered by a caller
// supplied three-way comparator, with neighbour and range queries.
//
// Nodes are kept in an Allocator arena and addressed by uint32 handles. The
// parent link is a plain handle used for predecessor/successor walks and is
// rewritten on every rotation.
//
// Insertion and deletion follow the top-down algorithms described at
// http://www.eternallyconfuzzled.com/tuts/datastructures/jsw_tut_rbtree.aspx:
// insertion resolves red violations on the way back up a recursive descent,
// and deletion pushes a red node down during a single pass from a sentinel
// head so that no separate fix-up phase is needed.
package rbtree

// Comparator orders two values: negative when a < b, zero when they are
// equivalent and positive when a > b.
type Comparator[T any] func(a, b T) int

const (
	left  = 0
	right = 1
)

// Tree is a red-black tree. The zero value is not usable; call New.
type Tree[T any] struct {
	allocator *Allocator[T]
	cmp       Comparator[T]

	// Root of the tree.
	root uint32

	// Number of nodes under root, including the root.
	count int

	// Handle allocated by the insertion in progress.
	inserted uint32
}

// New creates an empty tree with its own arena.
func New[T any](cmp Comparator[T]) *Tree[T] {
	return NewWithAllocator(cmp, NewAllocator[T]())
}

// NewWithAllocator creates an empty tree whose nodes live in allocator.
func NewWithAllocator[T any](cmp Comparator[T], allocator *Allocator[T]) *Tree[T] {
	return &Tree[T]{allocator: allocator, cmp: cmp}
}

// Allocator returns the bound node arena.
func (tree *Tree[T]) Allocator() *Allocator[T] {
	return tree.allocator
}

// Len returns the number of values in the tree.
func (tree *Tree[T]) Len() int {
	return tree.count
}

// Depth returns the number of nodes on the longest root-to-leaf path.
func (tree *Tree[T]) Depth() int {
	return tree.depth(tree.root)
}

func (tree *Tree[T]) depth(handle uint32) int {
	if handle == nilNode {
		return 0
	}

	nd := tree.nd(handle)

	return 1 + max(tree.depth(nd.links[left]), tree.depth(nd.links[right]))
}

// Clear removes every node from the tree.
func (tree *Tree[T]) Clear() {
	handles := make([]uint32, 0, tree.count)

	for n := range tree.All() {
		handles = append(handles, n.handle)
	}

	for _, handle := range handles {
		tree.allocator.free(handle)
	}

	tree.root = nilNode
	tree.count = 0
}

// Insert adds value and returns the node holding it. Values comparing equal
// to an existing one are placed after it.
func (tree *Tree[T]) Insert(value T) Node[T] {
	tree.root = tree.insert(tree.root, value)

	root := tree.nd(tree.root)
	root.parent = nilNode
	root.color = black

	inserted := tree.inserted
	tree.inserted = nilNode

	return Node[T]{tree: tree, handle: inserted}
}

func (tree *Tree[T]) insert(root uint32, value T) uint32 {
	if root == nilNode {
		handle := tree.allocator.malloc()
		tree.nd(handle).value = value
		tree.inserted = handle
		tree.count++

		return handle
	}

	dir := right
	if tree.cmp(tree.nd(root).value, value) > 0 {
		dir = left
	}

	child := tree.insert(tree.nd(root).links[dir], value)

	rn := tree.nd(root)
	rn.links[dir] = child
	tree.nd(child).parent = root

	if !tree.isRed(child) {
		return root
	}

	sibling := rn.links[1-dir]

	switch {
	case tree.isRed(sibling):
		rn.color = red
		tree.nd(child).color = black
		tree.nd(sibling).color = black
	case tree.isRed(tree.nd(child).links[dir]):
		root = tree.rotate(root, 1-dir)
	case tree.isRed(tree.nd(child).links[1-dir]):
		root = tree.rotateDouble(root, 1-dir)
	}

	return root
}

// Delete removes one node equivalent to value and reports whether one was
// found. Under a comparator that treats overlapping values as equal this is
// the first structural match, not necessarily an identical value.
//
//nolint:gocognit,cyclop // single-pass top-down deletion keeps every case in one loop.
func (tree *Tree[T]) Delete(value T) bool {
	if tree.root == nilNode {
		return false
	}

	// The reserved handle serves as the head; its right link is the root, and
	// the root's zero parent already points at it.
	head := nilNode
	tree.nd(head).links[right] = tree.root

	var (
		grand  = nilNode
		parent = nilNode
		cursor = head
		found  = nilNode
		hit    = false
		dir    = right
	)

	for tree.nd(cursor).links[dir] != nilNode {
		last := dir

		grand, parent = parent, cursor
		cursor = tree.nd(cursor).links[dir]

		ord := tree.cmp(tree.nd(cursor).value, value)

		dir = left
		if ord < 0 {
			dir = right
		}

		if ord == 0 {
			found = cursor
			hit = true
		}

		// Push the red node down.
		if tree.isRed(cursor) || tree.isRed(tree.nd(cursor).links[dir]) {
			continue
		}

		if tree.isRed(tree.nd(cursor).links[1-dir]) {
			rotated := tree.rotate(cursor, dir)
			tree.nd(parent).links[last] = rotated
			parent = rotated

			continue
		}

		sibling := tree.nd(parent).links[1-last]
		if sibling == nilNode {
			continue
		}

		sn := tree.nd(sibling)
		if !tree.isRed(sn.links[1-last]) && !tree.isRed(sn.links[last]) {
			// Color flip.
			tree.nd(parent).color = black
			sn.color = red
			tree.nd(cursor).color = red

			continue
		}

		dir2 := left
		if tree.nd(grand).links[right] == parent {
			dir2 = right
		}

		if tree.isRed(sn.links[last]) {
			tree.nd(grand).links[dir2] = tree.rotateDouble(parent, last)
		} else {
			tree.nd(grand).links[dir2] = tree.rotate(parent, last)
		}

		// Ensure correct coloring.
		top := tree.nd(grand).links[dir2]
		tree.nd(cursor).color = red
		tree.nd(top).color = red
		tree.nd(tree.nd(top).links[left]).color = black
		tree.nd(tree.nd(top).links[right]).color = black
	}

	if hit {
		tree.unlink(found, parent, cursor)
	}

	tree.root = tree.nd(head).links[right]
	tree.allocator.storage[head] = node[T]{}

	if tree.root != nilNode {
		root := tree.nd(tree.root)
		root.parent = nilNode
		root.color = black
	}

	return hit
}

// unlink moves the value of the physically removed node into found and
// splices removed out from under parent.
func (tree *Tree[T]) unlink(found, parent, removed uint32) {
	rn := tree.nd(removed)
	tree.nd(found).value = rn.value

	child := rn.links[right]
	if rn.links[left] != nilNode {
		child = rn.links[left]
	}

	pn := tree.nd(parent)
	if pn.links[right] == removed {
		pn.links[right] = child
	} else {
		pn.links[left] = child
	}

	if child != nilNode {
		tree.nd(child).parent = parent
	}

	tree.allocator.free(removed)
	tree.count--
}

// Find returns a node equivalent to value, or an invalid Node.
func (tree *Tree[T]) Find(value T) Node[T] {
	handle := tree.root

	for handle != nilNode {
		nd := tree.nd(handle)
		order := tree.cmp(nd.value, value)

		switch {
		case order == 0:
			return Node[T]{tree: tree, handle: handle}
		case order > 0:
			handle = nd.links[left]
		default:
			handle = nd.links[right]
		}
	}

	return Node[T]{}
}

// First returns the smallest node, or an invalid Node for an empty tree.
func (tree *Tree[T]) First() Node[T] {
	if tree.root == nilNode {
		return Node[T]{}
	}

	return tree.wrap(tree.extreme(tree.root, left))
}

// Last returns the biggest node, or an invalid Node for an empty tree.
func (tree *Tree[T]) Last() Node[T] {
	if tree.root == nilNode {
		return Node[T]{}
	}

	return tree.wrap(tree.extreme(tree.root, right))
}

// Next returns the in-order successor of n.
func (tree *Tree[T]) Next(n Node[T]) Node[T] {
	if !n.Valid() {
		return Node[T]{}
	}

	return tree.wrap(tree.step(n.handle, right))
}

// Prev returns the in-order predecessor of n.
func (tree *Tree[T]) Prev(n Node[T]) Node[T] {
	if !n.Valid() {
		return Node[T]{}
	}

	return tree.wrap(tree.step(n.handle, left))
}

// BiggestUnder returns the biggest node below bound, or at bound when
// included is set. Among equivalent nodes the last one wins.
func (tree *Tree[T]) BiggestUnder(bound T, included bool) Node[T] {
	biggest := nilNode
	handle := tree.root

	for handle != nilNode {
		nd := tree.nd(handle)
		order := tree.cmp(nd.value, bound)

		if order < 0 || (order == 0 && included) {
			biggest = handle
			handle = nd.links[right]
		} else {
			handle = nd.links[left]
		}
	}

	return tree.wrap(biggest)
}

// SmallestAbove returns the smallest node above bound, or at bound when
// included is set. Among equivalent nodes the first one wins.
func (tree *Tree[T]) SmallestAbove(bound T, included bool) Node[T] {
	smallest := nilNode
	handle := tree.root

	for handle != nilNode {
		nd := tree.nd(handle)
		order := tree.cmp(nd.value, bound)

		if order > 0 || (order == 0 && included) {
			smallest = handle
			handle = nd.links[left]
		} else {
			handle = nd.links[right]
		}
	}

	return tree.wrap(smallest)
}

// SmallestUnder returns the first node when it lies below bound (or at it,
// when included is set).
func (tree *Tree[T]) SmallestUnder(bound T, included bool) Node[T] {
	smallest := tree.First()
	if !smallest.Valid() {
		return Node[T]{}
	}

	order := tree.cmp(smallest.Value(), bound)
	if order < 0 || (order == 0 && included) {
		return smallest
	}

	return Node[T]{}
}

// BiggestAbove returns the last node when it lies above bound (or at it,
// when included is set).
func (tree *Tree[T]) BiggestAbove(bound T, included bool) Node[T] {
	biggest := tree.Last()
	if !biggest.Valid() {
		return Node[T]{}
	}

	order := tree.cmp(biggest.Value(), bound)
	if order > 0 || (order == 0 && included) {
		return biggest
	}

	return Node[T]{}
}

// Closest returns the nodes immediately below and above bound, excluding any
// node equivalent to it.
func (tree *Tree[T]) Closest(bound T) (lower, upper Node[T]) {
	return tree.BiggestUnder(bound, false), tree.SmallestAbove(bound, false)
}

func (tree *Tree[T]) nd(handle uint32) *node[T] {
	return &tree.allocator.storage[handle]
}

func (tree *Tree[T]) wrap(handle uint32) Node[T] {
	if handle == nilNode {
		return Node[T]{}
	}

	return Node[T]{tree: tree, handle: handle}
}

func (tree *Tree[T]) isRed(handle uint32) bool {
	return handle != nilNode && tree.nd(handle).color == red
}

// extreme walks dir links down from handle.
func (tree *Tree[T]) extreme(handle uint32, dir int) uint32 {
	for tree.nd(handle).links[dir] != nilNode {
		handle = tree.nd(handle).links[dir]
	}

	return handle
}

// step returns the in-order neighbour of handle in direction dir: right for
// the successor, left for the predecessor.
func (tree *Tree[T]) step(handle uint32, dir int) uint32 {
	if child := tree.nd(handle).links[dir]; child != nilNode {
		return tree.extreme(child, 1-dir)
	}

	for {
		parent := tree.nd(handle).parent
		if parent == nilNode {
			return nilNode
		}

		if tree.nd(parent).links[1-dir] == handle {
			return parent
		}

		handle = parent
	}
}

// rotate lifts the child opposite to dir above root and returns it. The
// caller relinks the returned handle into root's former parent.
//
// Rotation with dir == left:
//
//	  X              Y
//	A   Y    =>    X   C
//	  B C        A B
//
//nolint:dupword // ASCII art diagrams contain intentional repeated letters.
func (tree *Tree[T]) rotate(root uint32, dir int) uint32 {
	rn := tree.nd(root)
	save := rn.links[1-dir]
	sn := tree.nd(save)

	inner := sn.links[dir]
	rn.links[1-dir] = inner

	if inner != nilNode {
		tree.nd(inner).parent = root
	}

	sn.links[dir] = root
	sn.parent = rn.parent
	rn.parent = save

	rn.color = red
	sn.color = black

	return save
}

func (tree *Tree[T]) rotateDouble(root uint32, dir int) uint32 {
	rotated := tree.rotate(tree.nd(root).links[1-dir], 1-dir)
	tree.nd(root).links[1-dir] = rotated
	tree.nd(rotated).parent = root

	return tree.rotate(root, dir)
}
