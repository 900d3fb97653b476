package render

import (
	"testing"

	veld "github.com/veldgfx/veld"
)

func newTestDrawing() *Drawing {
	return NewDrawing(veld.DefaultPrefs())
}

func buildRectShape(d *Drawing, x0, y0, x1, y1 float64, c veld.RGBA) *Shape {
	s := NewShape(d)
	p := veld.NewPath()
	p.Rectangle(veld.NewRect(x0, y0, x1, y1))
	s.SetPath(p)
	st := DefaultStyle()
	st.Fill = Paint{Kind: PaintColor, Color: c, Opacity: 1}
	s.SetStyle(st)
	return s
}

func mustUpdate(t *testing.T, d *Drawing) {
	t.Helper()
	if err := d.Update(veld.IntRect{}, veld.Identity(), StateAll, 0); err != nil {
		t.Fatalf("update: %v", err)
	}
}

func TestTreeAcyclicity(t *testing.T) {
	d := newTestDrawing()
	root := NewGroup(d)
	d.SetRoot(root)
	inner := NewGroup(d)
	root.AppendChild(inner)
	leaf := buildRectShape(d, 0, 0, 10, 10, veld.Black)
	inner.AppendChild(leaf)

	// Following parent pointers always terminates at the root.
	seen := map[Item]bool{}
	for cur := Item(leaf); cur != nil; cur = cur.Base().Parent() {
		if seen[cur] {
			t.Fatal("cycle in parent chain")
		}
		seen[cur] = true
	}
	if !seen[root] {
		t.Error("walk did not reach the root")
	}
	if root.Base().ChildKind() != ChildRoot {
		t.Errorf("root child type %v", root.Base().ChildKind())
	}
	if leaf.Base().ChildKind() != ChildNormal {
		t.Errorf("leaf child type %v", leaf.Base().ChildKind())
	}
}

func TestUpdateComputesBoxes(t *testing.T) {
	d := newTestDrawing()
	root := NewGroup(d)
	d.SetRoot(root)
	leaf := buildRectShape(d, 2, 3, 12, 23, veld.Black)
	root.AppendChild(leaf)
	mustUpdate(t, d)

	want := veld.NewIntRect(2, 3, 12, 23)
	if got := leaf.Base().BBox(); got != want {
		t.Errorf("leaf bbox %+v, want %+v", got, want)
	}
	// A filterless, clipless group's drawbox equals the union of its
	// children's drawboxes.
	if got := root.Base().Drawbox(); got != want {
		t.Errorf("root drawbox %+v, want %+v", got, want)
	}
}

func TestUpdateIdempotent(t *testing.T) {
	d := newTestDrawing()
	root := NewGroup(d)
	d.SetRoot(root)
	leaf := buildRectShape(d, 0, 0, 50, 50, veld.Black)
	root.AppendChild(leaf)
	mustUpdate(t, d)

	bbox := leaf.Base().BBox()
	ctm := leaf.Base().Ctm()
	state := leaf.Base().state

	mustUpdate(t, d)
	if leaf.Base().BBox() != bbox || !leaf.Base().Ctm().Near(ctm, 0) || leaf.Base().state != state {
		t.Error("second update changed observable state")
	}
}

func TestUpdateTransform(t *testing.T) {
	d := newTestDrawing()
	root := NewGroup(d)
	d.SetRoot(root)
	leaf := buildRectShape(d, 0, 0, 10, 10, veld.Black)
	root.AppendChild(leaf)
	leaf.SetTransform(veld.Translate(100, 0))
	mustUpdate(t, d)
	if got := leaf.Base().BBox(); got != veld.NewIntRect(100, 0, 110, 10) {
		t.Errorf("transformed bbox %+v", got)
	}

	// Setting the identity stores no transform.
	leaf.SetTransform(veld.Identity())
	if leaf.Base().transform == nil {
		t.Log("identity not stored")
	} else {
		t.Error("identity transform was stored")
	}
}

func TestInvisibleShortCircuit(t *testing.T) {
	d := newTestDrawing()
	root := NewGroup(d)
	d.SetRoot(root)
	leaf := buildRectShape(d, 0, 0, 10, 10, veld.RGB(1, 0, 0))
	root.AppendChild(leaf)
	leaf.SetVisible(false)
	mustUpdate(t, d)

	pm := veld.NewPixmap(20, 20)
	dc := veld.NewSoftContext(pm)
	if err := d.Render(dc, veld.NewIntRect(0, 0, 20, 20), RenderDefault); err != nil {
		t.Fatal(err)
	}
	if got := pm.GetPixel(5, 5); got != veld.Transparent {
		t.Errorf("invisible item rendered %+v", got)
	}
}

func TestSingularCtmNoop(t *testing.T) {
	d := newTestDrawing()
	root := NewGroup(d)
	d.SetRoot(root)
	leaf := buildRectShape(d, 0, 0, 10, 10, veld.RGB(1, 0, 0))
	root.AppendChild(leaf)
	leaf.SetTransform(veld.Scale(0, 1))
	mustUpdate(t, d)

	pm := veld.NewPixmap(20, 20)
	dc := veld.NewSoftContext(pm)
	if err := d.Render(dc, veld.NewIntRect(0, 0, 20, 20), RenderDefault); err != nil {
		t.Fatal(err)
	}
	for y := 0; y < 20; y++ {
		for x := 0; x < 20; x++ {
			if pm.GetPixel(x, y) != veld.Transparent {
				t.Fatalf("singular ctm painted pixel (%d,%d)", x, y)
			}
		}
	}
}

func TestRenderAndAverageColor(t *testing.T) {
	d := newTestDrawing()
	root := NewGroup(d)
	d.SetRoot(root)
	leaf := buildRectShape(d, 0, 0, 10, 10, veld.RGB(1, 0, 0))
	root.AppendChild(leaf)
	mustUpdate(t, d)

	avg, err := d.AverageColor(veld.NewIntRect(0, 0, 10, 10))
	if err != nil {
		t.Fatal(err)
	}
	if avg.R < 0.95 || avg.A < 0.95 {
		t.Errorf("average %+v, want opaque red", avg)
	}
}

func TestOpacityCompositing(t *testing.T) {
	d := newTestDrawing()
	root := NewGroup(d)
	d.SetRoot(root)
	leaf := buildRectShape(d, 0, 0, 10, 10, veld.RGB(0, 0, 1))
	root.AppendChild(leaf)
	leaf.SetOpacity(0.5)
	mustUpdate(t, d)

	avg, err := d.AverageColor(veld.NewIntRect(0, 0, 10, 10))
	if err != nil {
		t.Fatal(err)
	}
	if avg.A < 0.45 || avg.A > 0.55 {
		t.Errorf("alpha %v, want about 0.5", avg.A)
	}
}

func TestClipRestrictsRendering(t *testing.T) {
	d := newTestDrawing()
	root := NewGroup(d)
	d.SetRoot(root)
	leaf := buildRectShape(d, 0, 0, 10, 10, veld.RGB(1, 0, 0))
	root.AppendChild(leaf)
	clip := buildRectShape(d, 0, 0, 5, 10, veld.White)
	leaf.SetClip(clip)
	mustUpdate(t, d)

	pm := veld.NewPixmap(10, 10)
	dc := veld.NewSoftContext(pm)
	if err := d.Render(dc, veld.NewIntRect(0, 0, 10, 10), RenderDefault); err != nil {
		t.Fatal(err)
	}
	if got := pm.GetPixel(2, 5); got.A < 0.9 {
		t.Errorf("inside clip %+v", got)
	}
	if got := pm.GetPixel(8, 5); got.A > 0.1 {
		t.Errorf("outside clip %+v", got)
	}
	// The drawbox shrank to the clip.
	if got := leaf.Base().Drawbox(); got != veld.NewIntRect(0, 0, 5, 10) {
		t.Errorf("clipped drawbox %+v", got)
	}
}

func TestSnapshotDefersAndReplays(t *testing.T) {
	d := newTestDrawing()
	root := NewGroup(d)
	d.SetRoot(root)
	leaf := buildRectShape(d, 0, 0, 10, 10, veld.Black)
	root.AppendChild(leaf)
	mustUpdate(t, d)

	d.Snapshot()
	leaf.SetOpacity(0.25)
	other := buildRectShape(d, 20, 0, 30, 10, veld.Black)
	root.AppendChild(other)
	if leaf.Base().opacity != 1 {
		t.Error("mutation applied under snapshot")
	}
	if len(root.Base().Children()) != 1 {
		t.Error("append applied under snapshot")
	}
	d.Unsnapshot()
	if leaf.Base().opacity != 0.25 {
		t.Error("deferred opacity not replayed")
	}
	if len(root.Base().Children()) != 2 {
		t.Error("deferred append not replayed")
	}
}

func TestMarkForUpdatePropagatesUp(t *testing.T) {
	d := newTestDrawing()
	root := NewGroup(d)
	d.SetRoot(root)
	inner := NewGroup(d)
	root.AppendChild(inner)
	leaf := buildRectShape(d, 0, 0, 10, 10, veld.Black)
	inner.AppendChild(leaf)
	mustUpdate(t, d)

	// State bits are set everywhere after update; clearing a leaf's
	// bits must clear ancestors, never siblings or children.
	leaf.Base().markForUpdate(StateBBox, false)
	if leaf.Base().state&StateBBox != 0 {
		t.Error("leaf bit still set")
	}
	if inner.Base().state&StateBBox != 0 {
		t.Error("parent bit still set")
	}
	if root.Base().state&StateBBox != 0 {
		t.Error("root bit still set")
	}
}

func TestUnlinkDestroysSubtree(t *testing.T) {
	d := newTestDrawing()
	root := NewGroup(d)
	d.SetRoot(root)
	inner := NewGroup(d)
	root.AppendChild(inner)
	leaf := buildRectShape(d, 0, 0, 10, 10, veld.Black)
	inner.AppendChild(leaf)
	mustUpdate(t, d)

	inner.Unlink()
	if len(root.Base().Children()) != 0 {
		t.Error("unlinked child still attached")
	}
	if leaf.Base().Parent() != nil || leaf.Base().ChildKind() != ChildOrphan {
		t.Error("descendant not destroyed")
	}
}

func TestPick(t *testing.T) {
	d := newTestDrawing()
	root := NewGroup(d)
	root.SetPickChildren(true)
	d.SetRoot(root)
	bottom := buildRectShape(d, 0, 0, 10, 10, veld.RGB(1, 0, 0))
	top := buildRectShape(d, 5, 0, 15, 10, veld.RGB(0, 1, 0))
	root.AppendChild(bottom)
	root.AppendChild(top)
	mustUpdate(t, d)

	tests := []struct {
		name string
		p    veld.Point
		want Item
	}{
		{"topmost wins in overlap", veld.Pt(7, 5), top},
		{"bottom only", veld.Pt(2, 5), bottom},
		{"top only", veld.Pt(13, 5), top},
		{"miss", veld.Pt(30, 5), nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := d.Pick(tt.p, 0.5, PickNormal); got != tt.want {
				t.Errorf("pick %v = %v, want %v", tt.p, got, tt.want)
			}
		})
	}

	// Insensitive items are skipped.
	top.SetSensitive(false)
	if got := d.Pick(veld.Pt(7, 5), 0.5, PickNormal); got != bottom {
		t.Errorf("insensitive item still picked: %v", got)
	}

	// Groups without pick-children return themselves.
	root.SetPickChildren(false)
	if got := d.Pick(veld.Pt(2, 5), 0.5, PickNormal); got != Item(root) {
		t.Errorf("group pick = %v, want the group", got)
	}
}

func TestTextRejectsNonGlyphChild(t *testing.T) {
	d := newTestDrawing()
	root := NewGroup(d)
	d.SetRoot(root)
	txt := NewText(d)
	root.AppendChild(txt)
	txt.AppendChild(buildRectShape(d, 0, 0, 5, 5, veld.Black))
	if err := d.Update(veld.IntRect{}, veld.Identity(), StateAll, 0); err == nil {
		t.Error("text with a shape child updated without error")
	}
}
