package engine

import (
	"encoding/json"
	"math/rand"
)

// Order is the shuffle permutation: a bijection from effective position
// (the order actually played) to natural position (insertion order).
// shuffled[k] is the natural index of the k-th track in effective order.
//
// The permutation is a first-class value with a public accessor on the
// player; nothing outside this package needs to reach into player
// internals to read or persist it.
type Order struct {
	shuffled []int
}

// NewOrder returns a random permutation of length n.
func NewOrder(n int, rnd *rand.Rand) *Order {
	shuffled := rnd.Perm(n)
	return &Order{shuffled: shuffled}
}

// IdentityOrder returns the permutation that maps every effective
// position to the same natural position.
func IdentityOrder(n int) *Order {
	shuffled := make([]int, n)
	for i := range shuffled {
		shuffled[i] = i
	}
	return &Order{shuffled: shuffled}
}

// OrderFromInts validates perm as a bijection over [0, n) and returns the
// resulting order. Returns false when the length does not match n or the
// values are not a permutation; the caller treats that as "no saved
// order" rather than an error.
func OrderFromInts(perm []int, n int) (*Order, bool) {
	if len(perm) != n {
		return nil, false
	}
	seen := make([]bool, n)
	for _, v := range perm {
		if v < 0 || v >= n || seen[v] {
			return nil, false
		}
		seen[v] = true
	}
	shuffled := make([]int, n)
	copy(shuffled, perm)
	return &Order{shuffled: shuffled}, true
}

// Len returns the permutation length.
func (o *Order) Len() int {
	return len(o.shuffled)
}

// Natural returns the natural index played at the given effective
// position, or -1 if out of range.
func (o *Order) Natural(effective int) int {
	if effective < 0 || effective >= len(o.shuffled) {
		return -1
	}
	return o.shuffled[effective]
}

// Effective returns the effective position at which the given natural
// index plays, or -1 if out of range.
func (o *Order) Effective(natural int) int {
	for k, v := range o.shuffled {
		if v == natural {
			return k
		}
	}
	return -1
}

// Ints returns a copy of the permutation for persistence.
func (o *Order) Ints() []int {
	out := make([]int, len(o.shuffled))
	copy(out, o.shuffled)
	return out
}

// MarshalText encodes the permutation as a JSON integer array, the same
// text form the persisted session state carries.
func (o *Order) MarshalText() ([]byte, error) {
	return json.Marshal(o.shuffled)
}

// Insert accounts for count items inserted at natural position at: natural
// indices at and above shift up, and the new indices are spliced into the
// effective sequence immediately after afterEffective (pass -1 to splice
// at the head).
func (o *Order) Insert(at, count, afterEffective int) {
	if count <= 0 {
		return
	}
	shifted := make([]int, 0, len(o.shuffled)+count)
	for _, v := range o.shuffled {
		if v >= at {
			v += count
		}
		shifted = append(shifted, v)
	}

	splice := afterEffective + 1
	if splice < 0 {
		splice = 0
	}
	if splice > len(shifted) {
		splice = len(shifted)
	}

	out := make([]int, 0, len(shifted)+count)
	out = append(out, shifted[:splice]...)
	for i := 0; i < count; i++ {
		out = append(out, at+i)
	}
	out = append(out, shifted[splice:]...)
	o.shuffled = out
}

// Remove accounts for the item at the given natural index leaving the
// queue: its effective slot disappears and higher natural indices shift
// down.
func (o *Order) Remove(natural int) {
	out := o.shuffled[:0]
	for _, v := range o.shuffled {
		switch {
		case v == natural:
			continue
		case v > natural:
			out = append(out, v-1)
		default:
			out = append(out, v)
		}
	}
	o.shuffled = out
}

// Move accounts for a natural-order move from one position to another.
// The effective sequence of the untouched items is preserved; only the
// natural indices are remapped.
func (o *Order) Move(from, to int) {
	if from == to {
		return
	}
	for k, v := range o.shuffled {
		switch {
		case v == from:
			o.shuffled[k] = to
		case from < to && v > from && v <= to:
			o.shuffled[k] = v - 1
		case to < from && v >= to && v < from:
			o.shuffled[k] = v + 1
		}
	}
}
