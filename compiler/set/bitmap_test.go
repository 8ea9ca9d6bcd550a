package set

import (
	"testing"
)

func TestBitmap(t *testing.T) {
	s := MakeBitmap(8)

	s.Set(3)
	s.Set(100)
	s.Set(100)

	if !s.IsSet(3) || !s.IsSet(100) || s.IsSet(4) {
		t.Errorf("membership broken")
	}

	if s.Size() != 2 {
		t.Errorf("size: %d", s.Size())
	}

	s.Clear(3)
	s.Clear(1000) // out of range is a no-op

	if s.IsSet(3) || s.Size() != 1 {
		t.Errorf("clear broken")
	}
}

func TestFillRange(t *testing.T) {
	s := MakeBitmap(0)

	s.FillSet(2, 5)

	var got []int

	s.Range(func(i int) bool {
		got = append(got, i)
		return true
	})

	if len(got) != 3 || got[0] != 2 || got[2] != 4 {
		t.Errorf("range: %v", got)
	}
}
