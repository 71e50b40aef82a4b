package location

import (
	"fmt"
	"sync/atomic"

	"github.com/plsem/stalecheck/utils"
)

// Address is an opaque symbolic identifier standing for an unknown concrete
// memory location. Addresses carry identity only; the sole way to obtain one
// is through an Allocator, and two addresses denote the same location exactly
// when they are equal. The creation order is used as a deterministic
// tie-break when a join has to pick a class representative, never as
// semantic information.
type Address struct {
	id uint64
}

func (a Address) Equal(b Address) bool {
	return a == b
}

// Less orders addresses by creation order.
func (a Address) Less(b Address) bool {
	return a.id < b.id
}

func (a Address) Hash() uint32 {
	return utils.HashCombine(uint32(a.id), uint32(a.id>>32))
}

func (a Address) String() string {
	return colorize.Address(fmt.Sprintf("α%d", a.id))
}

// Id exposes the allocation number for rendering purposes. It must never be
// used to relate addresses semantically.
func (a Address) Id() uint64 {
	return a.id
}

// MinAddress returns the earlier allocated of a and b.
func MinAddress(a, b Address) Address {
	if b.Less(a) {
		return b
	}
	return a
}

// Allocator mints fresh addresses. Every call to Fresh returns an address
// strictly distinct from, and ordered after, all previously minted ones.
// The counter is atomic, so an allocator accidentally shared between
// concurrently running procedure analyses still never hands out colliding
// addresses; the intended mode is nevertheless one allocator per analysis.
type Allocator struct {
	next uint64
}

func NewAllocator() *Allocator {
	return &Allocator{}
}

func (alloc *Allocator) Fresh() Address {
	return Address{id: atomic.AddUint64(&alloc.next, 1)}
}
