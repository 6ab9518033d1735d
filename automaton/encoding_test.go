package automaton

import "testing"

func TestTransitionTable(t *testing.T) {
	cases := []struct {
		old, seen, want Base
	}{
		{E, A, A},
		{E, N, N},
		{A, A, A},
		{A, C, N},
		{N, A, N},
		{N, N, N},
		{G, G, G},
	}
	for _, c := range cases {
		if got := transition(c.old, c.seen); got != c.want {
			t.Errorf("transition(%v, %v) = %v, want %v", c.old, c.seen, got, c.want)
		}
	}
}

func TestPackUnpackCellRoundTrip(t *testing.T) {
	for _, front := range []Base{E, A, C, G, T, N} {
		for _, back := range []Base{E, A, C, G, T, N} {
			cell := packCell(front, back)
			gf, gb := unpackCell(cell)
			if gf != front || gb != back {
				t.Fatalf("packCell(%v,%v) round trip = (%v,%v)", front, back, gf, gb)
			}
		}
	}
}

func TestWithSideReplacesOnlyTargetSide(t *testing.T) {
	cell := packCell(A, C)
	next := withSide(cell, Front, T)
	gf, gb := unpackCell(next)
	if gf != T || gb != C {
		t.Fatalf("withSide(Front) = (%v,%v), want (T,C)", gf, gb)
	}
	next = withSide(cell, Back, G)
	gf, gb = unpackCell(next)
	if gf != A || gb != G {
		t.Fatalf("withSide(Back) = (%v,%v), want (A,G)", gf, gb)
	}
}

func TestIsFlank(t *testing.T) {
	for _, b := range []Base{E, N} {
		if !IsFlank(b) {
			t.Errorf("IsFlank(%v) = false, want true", b)
		}
	}
	for _, b := range []Base{A, C, G, T} {
		if IsFlank(b) {
			t.Errorf("IsFlank(%v) = true, want false", b)
		}
	}
}

func TestSideOpposite(t *testing.T) {
	if Front.Opposite() != Back || Back.Opposite() != Front {
		t.Fatal("Side.Opposite is not involutive")
	}
}
