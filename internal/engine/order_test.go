package engine

import (
	"math/rand"
	"testing"
)

func TestOrderFromInts_Valid(t *testing.T) {
	o, ok := OrderFromInts([]int{2, 0, 1}, 3)
	if !ok {
		t.Fatal("valid permutation rejected")
	}
	if o.Natural(0) != 2 || o.Natural(1) != 0 || o.Natural(2) != 1 {
		t.Errorf("Natural mapping wrong: %v", o.Ints())
	}
	if o.Effective(2) != 0 || o.Effective(0) != 1 || o.Effective(1) != 2 {
		t.Error("Effective mapping wrong")
	}
}

func TestOrderFromInts_Invalid(t *testing.T) {
	tests := []struct {
		name string
		perm []int
		n    int
	}{
		{"length mismatch short", []int{0, 1, 2}, 5},
		{"length mismatch long", []int{0, 1, 2}, 2},
		{"duplicate value", []int{0, 0, 2}, 3},
		{"out of range", []int{0, 1, 3}, 3},
		{"negative", []int{0, -1, 2}, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, ok := OrderFromInts(tt.perm, tt.n); ok {
				t.Errorf("OrderFromInts(%v, %d) accepted", tt.perm, tt.n)
			}
		})
	}
}

func TestNewOrder_IsBijection(t *testing.T) {
	rnd := rand.New(rand.NewSource(1))
	o := NewOrder(10, rnd)

	if _, ok := OrderFromInts(o.Ints(), 10); !ok {
		t.Errorf("NewOrder produced non-bijection: %v", o.Ints())
	}
}

func TestOrder_OutOfRange(t *testing.T) {
	o := IdentityOrder(3)
	if o.Natural(-1) != -1 || o.Natural(3) != -1 {
		t.Error("Natural out of range should be -1")
	}
	if o.Effective(5) != -1 {
		t.Error("Effective of absent natural should be -1")
	}
}

func TestOrder_Insert(t *testing.T) {
	// effective order: 2, 0, 1
	o, _ := OrderFromInts([]int{2, 0, 1}, 3)

	// Insert 2 items at natural position 1, right after effective slot 0.
	o.Insert(1, 2, 0)

	if o.Len() != 5 {
		t.Fatalf("Len = %d, want 5", o.Len())
	}
	// Old naturals 1, 2 shifted to 3, 4; new naturals 1, 2 at effective 1, 2.
	want := []int{4, 1, 2, 0, 3}
	got := o.Ints()
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Ints = %v, want %v", got, want)
		}
	}
	if _, ok := OrderFromInts(got, 5); !ok {
		t.Errorf("Insert broke bijection: %v", got)
	}
}

func TestOrder_Insert_AtHead(t *testing.T) {
	o := IdentityOrder(2)
	o.Insert(0, 1, -1)

	want := []int{0, 1, 2}
	got := o.Ints()
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Ints = %v, want %v", got, want)
		}
	}
}

func TestOrder_Remove(t *testing.T) {
	// effective order: 2, 0, 1, 3
	o, _ := OrderFromInts([]int{2, 0, 1, 3}, 4)

	o.Remove(1)

	// natural 1 gone; naturals 2, 3 shift to 1, 2
	want := []int{1, 0, 2}
	got := o.Ints()
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Ints = %v, want %v", got, want)
		}
	}
	if _, ok := OrderFromInts(got, 3); !ok {
		t.Errorf("Remove broke bijection: %v", got)
	}
}

func TestOrder_Move(t *testing.T) {
	o := IdentityOrder(4)

	// Natural move 0 -> 2: items at 1, 2 shift down.
	o.Move(0, 2)

	// Effective sequence unchanged in content: old item 0 is now natural 2,
	// old item 1 is natural 0, old item 2 is natural 1.
	want := []int{2, 0, 1, 3}
	got := o.Ints()
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Ints = %v, want %v", got, want)
		}
	}
	if _, ok := OrderFromInts(got, 4); !ok {
		t.Errorf("Move broke bijection: %v", got)
	}
}

func TestOrder_Move_Backward(t *testing.T) {
	o := IdentityOrder(4)

	o.Move(3, 1)

	want := []int{0, 2, 3, 1}
	got := o.Ints()
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Ints = %v, want %v", got, want)
		}
	}
}

func TestOrder_MarshalText(t *testing.T) {
	o, _ := OrderFromInts([]int{1, 0}, 2)
	b, err := o.MarshalText()
	if err != nil {
		t.Fatalf("MarshalText: %v", err)
	}
	if string(b) != "[1,0]" {
		t.Errorf("MarshalText = %q, want [1,0]", b)
	}
}
