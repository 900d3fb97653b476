package render

import (
	"testing"

	veld "github.com/veldgfx/veld"
)

// buildPattern attaches a pattern with an 8x8 tile whose top-left
// quarter is red, as the fill server of a host shape.
func buildPattern(t *testing.T) (*Drawing, *Pattern) {
	t.Helper()
	d := newTestDrawing()
	root := NewGroup(d)
	d.SetRoot(root)

	host := buildRectShape(d, 0, 0, 32, 32, veld.Black)
	st := host.Style()
	st.Fill = Paint{Kind: PaintServer, Opacity: 1}
	host.SetStyle(st)
	root.AppendChild(host)

	pat := NewPattern(d)
	pat.SetTileRect(veld.NewRect(0, 0, 8, 8))
	content := buildRectShape(d, 0, 0, 4, 4, veld.RGB(1, 0, 0))
	pat.AppendChild(content)
	host.SetFillPattern(pat)

	mustUpdate(t, d)
	return d, pat
}

func TestPatternTileResolution(t *testing.T) {
	_, pat := buildPattern(t)
	if w, h := pat.TileResolution(); w != 8 || h != 8 {
		t.Errorf("tile resolution %dx%d, want 8x8", w, h)
	}
}

func TestPatternCacheCorrectness(t *testing.T) {
	// Any sequence of partial renders must leave the same pixels as a
	// fresh full-tile render at (x mod W, y mod H).
	_, pat := buildPattern(t)
	// Partial area first, then a wrapped one, then the full tile.
	if _, err := pat.ensureArea(veld.NewIntRect(0, 0, 4, 8), 1); err != nil {
		t.Fatal(err)
	}
	if _, err := pat.ensureArea(veld.NewIntRect(6, 0, 10, 8), 1); err != nil {
		t.Fatal(err)
	}
	got, _, err := pat.RenderTile(veld.NewIntRect(0, 0, 32, 32), 1)
	if err != nil {
		t.Fatal(err)
	}
	if got == nil {
		t.Fatal("no tile surface")
	}

	_, fresh := buildPattern(t)
	want, _, err := fresh.RenderTile(veld.NewIntRect(0, 0, 32, 32), 1)
	if err != nil {
		t.Fatal(err)
	}

	// Surfaces may sit anywhere on the torus; compare in tile space.
	tileAt := func(pm *veld.Pixmap, x, y int) veld.RGBA {
		ox, oy := pm.Origin()
		lx := ((x-ox)%pm.Width() + pm.Width()) % pm.Width()
		ly := ((y-oy)%pm.Height() + pm.Height()) % pm.Height()
		return pm.GetPixel(lx, ly)
	}
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			g := tileAt(got, x, y)
			w := tileAt(want, x, y)
			if g != w {
				t.Fatalf("tile pixel (%d,%d) = %+v, fresh render %+v", x, y, g, w)
			}
		}
	}
	// The content quarter is red, the rest transparent.
	if c := tileAt(want, 2, 2); c.R < 0.9 {
		t.Errorf("content pixel %+v", c)
	}
	if c := tileAt(want, 6, 6); c.A > 0.1 {
		t.Errorf("empty pixel %+v", c)
	}
}

func TestPatternCacheDroppedOnUpdate(t *testing.T) {
	d, pat := buildPattern(t)
	if _, _, err := pat.RenderTile(veld.NewIntRect(0, 0, 8, 8), 1); err != nil {
		t.Fatal(err)
	}
	pat.mu.Lock()
	had := len(pat.tiles)
	pat.mu.Unlock()
	if had == 0 {
		t.Fatal("no cached tiles after render")
	}
	// Any update drops the tile cache.
	pat.markForUpdate(StateAll, true)
	mustUpdate(t, d)
	pat.mu.Lock()
	left := len(pat.tiles)
	pat.mu.Unlock()
	if left != 0 {
		t.Error("tile cache survived update")
	}
}

func TestPatternFillsHost(t *testing.T) {
	d, _ := buildPattern(t)
	pm := veld.NewPixmap(32, 32)
	if err := d.Render(veld.NewSoftContext(pm), veld.NewIntRect(0, 0, 32, 32), RenderDefault); err != nil {
		t.Fatal(err)
	}
	// The tile repeats with period 8: red quarters at (2,2), (10,2),
	// (2,10); gaps in between.
	for _, probe := range []struct {
		x, y int
		red  bool
	}{
		{2, 2, true}, {10, 2, true}, {2, 10, true}, {26, 26, true},
		{6, 6, false}, {14, 6, false},
	} {
		c := pm.GetPixel(probe.x, probe.y)
		if probe.red && c.R < 0.9 {
			t.Errorf("pixel (%d,%d) = %+v, want red", probe.x, probe.y, c)
		}
		if !probe.red && c.A > 0.1 {
			t.Errorf("pixel (%d,%d) = %+v, want empty", probe.x, probe.y, c)
		}
	}
}

func TestWrappedIntervalHelpers(t *testing.T) {
	p := &Pattern{resW: 8, resH: 8}
	tests := []struct {
		name     string
		a, b     veld.IntRect
		contains bool
		touches  bool
	}{
		{"identical", veld.NewIntRect(0, 0, 4, 4), veld.NewIntRect(0, 0, 4, 4), true, true},
		{"disjoint", veld.NewIntRect(0, 0, 2, 2), veld.NewIntRect(4, 4, 6, 6), false, false},
		{"wrapped copy", veld.NewIntRect(0, 0, 4, 4), veld.NewIntRect(8, 0, 12, 4), true, true},
		{"full period", veld.NewIntRect(0, 0, 8, 8), veld.NewIntRect(5, 5, 7, 7), true, true},
		{"wrap straddle", veld.NewIntRect(6, 0, 10, 4), veld.NewIntRect(0, 0, 2, 4), true, true},
		{"larger than holder", veld.NewIntRect(0, 0, 2, 2), veld.NewIntRect(0, 0, 4, 4), false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := p.wrappedContains(tt.a, tt.b); got != tt.contains {
				t.Errorf("wrappedContains = %v, want %v", got, tt.contains)
			}
			if got := p.wrappedTouches(tt.a, tt.b); got != tt.touches {
				t.Errorf("wrappedTouches = %v, want %v", got, tt.touches)
			}
		})
	}
}

func TestPatternOpacity(t *testing.T) {
	_, pat := buildPattern(t)
	pm, err := pat.ensureArea(veld.NewIntRect(0, 0, 8, 8), 0.5)
	if err != nil {
		t.Fatal(err)
	}
	c := pm.GetPixel(2, 2)
	if c.A < 0.4 || c.A > 0.6 {
		t.Errorf("pattern opacity alpha %v, want about 0.5", c.A)
	}
}
