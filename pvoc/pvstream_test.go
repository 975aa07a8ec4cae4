package pvoc

import "testing"

func TestFromRejectsNonProvider(t *testing.T) {
	_, ok := From(42)
	if ok {
		t.Fatal("From should reject a value that is not a StreamProvider")
	}
}

func TestFromAcceptsStream(t *testing.T) {
	g, _ := NewGeometry(64, 4, 48000)
	s := newStream(g, 16)

	got, ok := From(s)
	if !ok {
		t.Fatal("From should accept a *Stream (self-providing)")
	}
	if got != s {
		t.Fatal("From should return the same Stream instance")
	}
}

func TestStreamCountFreshnessSignal(t *testing.T) {
	g, _ := NewGeometry(64, 4, 48000)
	s := newStream(g, 8)

	s.setCount(0, g.N-1)
	if s.Count(0) != g.N-1 {
		t.Fatalf("Count(0) = %d, want %d", s.Count(0), g.N-1)
	}
}

func TestStreamMirrorCount(t *testing.T) {
	g, _ := NewGeometry(64, 4, 48000)
	up := newStream(g, 8)
	down := newStream(g, 8)

	for i := 0; i < 8; i++ {
		up.setCount(i, i*2)
	}

	down.mirrorCount(up)

	for i := 0; i < 8; i++ {
		if down.Count(i) != up.Count(i) {
			t.Fatalf("mirrored count[%d] = %d, want %d", i, down.Count(i), up.Count(i))
		}
	}
}

func TestStreamRowAccessors(t *testing.T) {
	g, _ := NewGeometry(8, 2, 48000)
	s := newStream(g, 4)

	row := []float64{1, 2, 3, 4}
	s.setMagnRow(1, row)

	for k, v := range row {
		if s.Magn(1, k) != v {
			t.Fatalf("Magn(1,%d) = %v, want %v", k, s.Magn(1, k), v)
		}
	}
}
