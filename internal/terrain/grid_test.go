package terrain

import "testing"

func TestFillThenQueryRoundTrip(t *testing.T) {
	g := NewGrid(DefaultWidth, DefaultHeight)
	shapes := []Circle{
		NewCircle(128, 128, 0),
		NewCircle(128, 128, 7),
		NewCircle(0, 0, 5),
		NewCircle(255, 3, 12),
		NewCircle(200, 40, 4),
		NewCircle(10, 250, 90),
	}
	for i, c := range shapes {
		value := uint8(17 + 30*i)
		g.FillShape(c, value)
		if got := g.QueryAverage(c); got != value {
			t.Fatalf("shape %+v: expected average %d after fill, got %d", c, value, got)
		}
	}
}

func TestFillShapeClampsNearEdges(t *testing.T) {
	g := NewGrid(16, 16)
	g.FillShape(NewCircle(0, 0, 3), 200)

	if g.At(0, 0) != 200 || g.At(3, 0) != 200 || g.At(0, 3) != 200 {
		t.Fatal("expected disk cells inside the grid to be painted")
	}
	if g.At(3, 3) != Clean {
		t.Fatalf("cell (3,3) lies outside radius 3, got %d", g.At(3, 3))
	}
	if g.At(4, 0) != Clean {
		t.Fatal("cell beyond the radius must stay clean")
	}
}

func TestFillShapeSkipsCellsOffTheGrid(t *testing.T) {
	g := NewGrid(16, 16)
	g.FillShape(NewCircle(-40, 300, 4), Blight)
	if n := g.Count(func(v uint8) bool { return v != Clean }); n != 0 {
		t.Fatalf("a disk entirely off the grid must paint nothing, painted %d", n)
	}

	// Centered two cells past the right edge: only column 15 is within reach.
	g.FillShape(NewCircle(8, 17, 2), Blight)
	if n := g.Count(func(v uint8) bool { return v == Blight }); n != 1 || g.At(8, 15) != Blight {
		t.Fatalf("expected only (8,15) painted, got %d cells", n)
	}
}

func TestHugeRadiusCoversWholeGrid(t *testing.T) {
	g := NewGrid(16, 16)
	g.FillShape(NewCircle(8, 8, 1<<32), Blight)
	if n := g.Count(func(v uint8) bool { return v == Blight }); n != 256 {
		t.Fatalf("expected all 256 cells painted, got %d", n)
	}
	for _, r := range []int{3037000500, 1 << 62, int(^uint(0) >> 1)} {
		if got := g.QueryAverage(NewCircle(8, 8, r)); got != Blight {
			t.Fatalf("radius %d: expected average %d, got %d", r, Blight, got)
		}
	}

	g = NewGrid(16, 16)
	maxInt := int(^uint(0) >> 1)
	g.FillShape(NewCircle(-maxInt, 3, maxInt), 9)
	if n := g.Count(func(v uint8) bool { return v == 9 }); n != 1 || g.At(0, 3) != 9 {
		t.Fatalf("expected only (0,3) reached from far away, got %d cells", n)
	}
}

func TestQueryAverageOffGrid(t *testing.T) {
	g := NewGrid(8, 8)
	g.Set(0, 7, 200)
	// No disk cell is on the grid: measured from the nearest edge cell.
	if got := g.QueryAverage(NewCircle(-5, 20, 0)); got != 200 {
		t.Fatalf("expected the anchored corner value 200, got %d", got)
	}
	// Disk reaches only (0,7): the average covers that one cell.
	if got := g.QueryAverage(NewCircle(-1, 7, 1)); got != 200 {
		t.Fatalf("expected 200 from the single in-grid cell, got %d", got)
	}
}

func TestCircleOverlaps(t *testing.T) {
	cases := []struct {
		c    Circle
		want bool
	}{
		{NewCircle(4, 4, 0), true},
		{NewCircle(-1, 3, 0), false},
		{NewCircle(-1, 3, 1), true},
		{NewCircle(-2, -2, 2), false}, // corner at distance sqrt(8)
		{NewCircle(-2, -2, 3), true},
		{NewCircle(8, 3, -5), false},
		{NewCircle(1<<40, 1<<40, 1<<41), true},
	}
	for _, tc := range cases {
		if got := tc.c.Overlaps(8, 8); got != tc.want {
			t.Fatalf("%+v: expected Overlaps=%v, got %v", tc.c, tc.want, got)
		}
	}
}

func TestQueryAverageTruncates(t *testing.T) {
	g := NewGrid(8, 8)
	// Radius 1 disk = center + 4 neighbours.
	g.Set(4, 4, 255)
	g.Set(3, 4, 2)
	if got := g.QueryAverage(NewCircle(4, 4, 1)); got != 51 {
		t.Fatalf("expected truncated mean 257/5=51, got %d", got)
	}
}

func TestNegativeRadiusQueriesCenter(t *testing.T) {
	g := NewGrid(8, 8)
	g.Set(2, 2, 99)
	if got := g.QueryAverage(NewCircle(2, 2, -3)); got != 99 {
		t.Fatalf("expected center value 99, got %d", got)
	}
}

func TestDilateMonotonic(t *testing.T) {
	g := NewGrid(64, 64)
	rng := uint32(12345)
	for i := range g.Cells() {
		rng = rng*1664525 + 1013904223
		if rng>>28 == 0 {
			g.Cells()[i] = uint8(rng >> 20)
		}
	}
	g.FillShape(NewCircle(30, 30, 4), Blight)
	g.Set(0, 5, 77)

	sel := NewNoiseSelector(3, 0)
	out := g.Dilate(sel)
	for i, before := range g.Cells() {
		after := out.Cells()[i]
		if after < before {
			t.Fatalf("cell %d decreased from %d to %d", i, before, after)
		}
		if before == Blight && after != Blight {
			t.Fatalf("saturated cell %d changed to %d", i, after)
		}
	}
	if out.At(0, 5) != 77 {
		t.Fatalf("border cell must keep its value, got %d", out.At(0, 5))
	}
}

func TestDilateLeavesCleanBorderUntouched(t *testing.T) {
	g := NewGrid(32, 32)
	// Blight right next to the margin on every side.
	for i := 0; i < 32; i++ {
		g.Set(2, i, Blight)
		g.Set(29, i, Blight)
		g.Set(i, 2, Blight)
		g.Set(i, 29, Blight)
	}
	for _, k := range []FixedSelector{0, 1, 2, 3} {
		out := g.Dilate(k)
		for y := 0; y < 32; y++ {
			for x := 0; x < 32; x++ {
				border := y < 2 || x < 2 || y >= 30 || x >= 30
				if border && out.At(y, x) != g.At(y, x) {
					t.Fatalf("kernel %d wrote border cell (%d,%d): %d", k, y, x, out.At(y, x))
				}
			}
		}
	}
}

func TestDilateSpreadsWithRoundedKernel(t *testing.T) {
	g := NewGrid(16, 16)
	g.Set(8, 8, 200)
	out := g.Dilate(FixedSelector(0))

	if out.At(6, 7) != 200 || out.At(8, 10) != 200 {
		t.Fatal("expected rounded kernel to reach two cells away")
	}
	if out.At(6, 6) != Clean || out.At(10, 10) != Clean {
		t.Fatal("rounded kernel corners must not spread")
	}
	if out.At(8, 11) != Clean {
		t.Fatal("dilation must not spread three cells in one step")
	}
}

func TestDilateKernelShapesDiffer(t *testing.T) {
	g := NewGrid(16, 16)
	g.Set(8, 8, 100)
	plus := g.Dilate(FixedSelector(1))
	diag := g.Dilate(FixedSelector(2))

	if plus.At(8, 10) != 100 || plus.At(9, 9) != Clean {
		t.Fatal("plus kernel should spread orthogonally only")
	}
	if diag.At(10, 10) != 100 || diag.At(8, 9) != Clean {
		t.Fatal("diagonal kernel should spread diagonally only")
	}
}

func TestNoiseSelectorDeterministicAndInRange(t *testing.T) {
	a := NewNoiseSelector(42, 0)
	b := NewNoiseSelector(42, 0)
	seen := map[int]bool{}
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			ka, kb := a.Select(y, x), b.Select(y, x)
			if ka != kb {
				t.Fatalf("same seed disagreed at (%d,%d): %d vs %d", y, x, ka, kb)
			}
			if ka < 0 || ka >= KernelCount() {
				t.Fatalf("kernel index %d out of range", ka)
			}
			seen[ka] = true
		}
	}
	if len(seen) < 2 {
		t.Fatalf("expected noise to pick several kernels, saw %v", seen)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	g := NewGrid(4, 4)
	c := g.Clone()
	c.Set(1, 1, 9)
	if g.At(1, 1) != Clean {
		t.Fatal("clone shares storage with the source")
	}
}
