package rbtree

import (
	"maps"

	"github.com/Sumatoshi-tech/pieces/pkg/safeconv"
)

// nilNode is the reserved handle meaning "no node". During Delete it doubles
// as the sentinel head whose right link holds the root.
const nilNode uint32 = 0

// maxNodes bounds the arena so handles fit into uint32.
const maxNodes = safeconv.MaxUint32

const (
	red   = false
	black = true
)

type node[T any] struct {
	value  T
	parent uint32
	links  [2]uint32
	color  bool // Black or red.
}

// Allocator is the node arena for a Tree. Nodes are addressed by uint32
// handles; freed handles are recycled.
type Allocator[T any] struct {
	storage []node[T]
	gaps    map[uint32]bool
}

// NewAllocator creates an empty node arena.
func NewAllocator[T any]() *Allocator[T] {
	return &Allocator[T]{
		storage: []node[T]{},
		gaps:    map[uint32]bool{},
	}
}

// Size returns the currently allocated size, including the reserved handle.
func (allocator *Allocator[T]) Size() int {
	return len(allocator.storage)
}

// Used returns the number of live nodes.
func (allocator *Allocator[T]) Used() int {
	if len(allocator.storage) == 0 {
		return 0
	}

	return len(allocator.storage) - len(allocator.gaps) - 1
}

// Clone copies the arena. Trees bound to the original keep using it.
func (allocator *Allocator[T]) Clone() *Allocator[T] {
	clone := &Allocator[T]{
		storage: make([]node[T], len(allocator.storage), cap(allocator.storage)),
		gaps:    make(map[uint32]bool, len(allocator.gaps)),
	}

	copy(clone.storage, allocator.storage)
	maps.Copy(clone.gaps, allocator.gaps)

	return clone
}

func (allocator *Allocator[T]) malloc() uint32 {
	for handle := range allocator.gaps {
		delete(allocator.gaps, handle)

		return handle
	}

	if len(allocator.storage) == 0 {
		// Handle zero is reserved.
		allocator.storage = append(allocator.storage, node[T]{})
	}

	nodeLen := len(allocator.storage)
	if nodeLen >= int(maxNodes) {
		panic("rbtree: allocator exhausted the uint32 handle space")
	}

	allocator.storage = append(allocator.storage, node[T]{})

	return safeconv.MustIntToUint32(nodeLen)
}

func (allocator *Allocator[T]) free(handle uint32) {
	if handle == nilNode {
		panic("rbtree: node #0 is reserved and cannot be freed")
	}

	doAssert(!allocator.gaps[handle])

	allocator.storage[handle] = node[T]{}
	allocator.gaps[handle] = true
}

func doAssert(condition bool) {
	if !condition {
		panic("rbtree internal assertion failed")
	}
}
