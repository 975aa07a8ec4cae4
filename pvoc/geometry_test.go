package pvoc

import "testing"

func TestNewGeometryRoundsUpToPowerOfTwo(t *testing.T) {
	g, rounded := NewGeometry(1000, 3, 48000)
	if !rounded {
		t.Fatal("expected rounded=true for size=1000, olaps=3")
	}
	if g.N != 1024 {
		t.Fatalf("N = %d, want 1024", g.N)
	}
	if g.O != 4 {
		t.Fatalf("O = %d, want 4", g.O)
	}
}

func TestNewGeometryExactPowerOfTwo(t *testing.T) {
	g, rounded := NewGeometry(1024, 4, 48000)
	if rounded {
		t.Fatal("expected rounded=false for already-power-of-two inputs")
	}
	if g.N != 1024 || g.O != 4 {
		t.Fatalf("got N=%d O=%d, want 1024/4", g.N, g.O)
	}
}

func TestGeometryDerivedConstants(t *testing.T) {
	g, _ := NewGeometry(1024, 4, 48000)

	if g.H != 512 {
		t.Fatalf("H = %d, want 512", g.H)
	}
	if g.P != 256 {
		t.Fatalf("P = %d, want 256", g.P)
	}
	if g.L != 768 {
		t.Fatalf("L = %d, want 768", g.L)
	}
}

func TestGeometryEqual(t *testing.T) {
	a, _ := NewGeometry(1024, 4, 48000)
	b, _ := NewGeometry(1024, 4, 44100)
	c, _ := NewGeometry(512, 4, 48000)

	if !a.Equal(b) {
		t.Error("geometries with same N/O but different sample rate should be Equal")
	}
	if a.Equal(c) {
		t.Error("geometries with different N should not be Equal")
	}
}
