package trace

import (
	"testing"

	veld "github.com/veldgfx/veld"
	"github.com/veldgfx/veld/async"
	"github.com/veldgfx/veld/render"
)

// blackSquareImage is white with a dark square at (4,4)-(12,12).
func blackSquareImage() *veld.Pixmap {
	pm := veld.NewPixmap(16, 16)
	pm.Clear(veld.White)
	for y := 4; y < 12; y++ {
		for x := 4; x < 12; x++ {
			pm.SetPixel(x, y, veld.Black)
		}
	}
	return pm
}

func TestThresholdEngineTrace(t *testing.T) {
	eng := NewThresholdEngine()
	prog := async.NewFuncProgress(nil, nil)
	results, err := eng.Trace(blackSquareImage(), prog)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 {
		t.Fatalf("traced %d paths, want 1", len(results))
	}
	p := results[0].Path
	if !p.Contains(veld.Pt(8, 8), veld.FillNonZero) {
		t.Error("traced path misses the dark square")
	}
	if p.Contains(veld.Pt(2, 2), veld.FillNonZero) {
		t.Error("traced path covers light area")
	}
	b := p.Bounds()
	if !b.Near(veld.NewRect(4, 4, 12, 12), 0.01) {
		t.Errorf("traced bounds %+v, want (4,4)-(12,12)", b)
	}
	if results[0].Style.Fill.Kind != render.PaintColor {
		t.Errorf("result style fill %+v", results[0].Style.Fill)
	}
}

func TestThresholdEngineCancelled(t *testing.T) {
	eng := NewThresholdEngine()
	prog := async.NewFuncProgress(nil, func() bool { return true })
	if _, err := eng.Trace(blackSquareImage(), prog); err != async.ErrCancelled {
		t.Errorf("got %v, want ErrCancelled", err)
	}
}

func TestLaunchTraceDeliversOnLoop(t *testing.T) {
	loop := async.NewLoop()
	eng := NewThresholdEngine()

	var progressSeen bool
	var results []Result
	done := false
	f := LaunchTrace(loop, eng, blackSquareImage(), Options{},
		func(v float64) { progressSeen = true },
		func(r []Result) { results = r; done = true })
	if err := f.Wait(); err != nil {
		t.Fatal(err)
	}
	// Nothing is delivered until the loop drains.
	if done {
		t.Fatal("finish callback ran off the loop goroutine")
	}
	loop.Process()
	if !done {
		t.Fatal("finish callback never ran")
	}
	if len(results) != 1 {
		t.Errorf("delivered %d results", len(results))
	}
	_ = progressSeen
}

func TestLaunchTraceCancel(t *testing.T) {
	loop := async.NewLoop()
	eng := NewThresholdEngine()

	finished := false
	f := LaunchTrace(loop, eng, blackSquareImage(), Options{},
		nil,
		func(r []Result) { finished = true })
	f.Cancel()
	if err := f.Wait(); err != nil {
		t.Fatalf("cancelled trace surfaced %v", err)
	}
	loop.Process()
	if finished {
		t.Error("finish callback ran after cancellation")
	}
}

func TestLaunchPreview(t *testing.T) {
	loop := async.NewLoop()
	eng := NewThresholdEngine()

	var preview *veld.Pixmap
	f := LaunchPreview(loop, eng, blackSquareImage(), Options{}, func(pm *veld.Pixmap) { preview = pm })
	if err := f.Wait(); err != nil {
		t.Fatal(err)
	}
	loop.Process()
	if preview == nil {
		t.Fatal("no preview delivered")
	}
	if c := preview.GetPixel(8, 8); c.A < 0.9 {
		t.Errorf("preview misses the dark square: %+v", c)
	}
	if c := preview.GetPixel(2, 2); c.A > 0.1 {
		t.Errorf("preview covers light area: %+v", c)
	}
}

func TestExtractForeground(t *testing.T) {
	img := veld.NewPixmap(16, 16)
	// Dark object on light background.
	img.Clear(veld.White)
	for y := 4; y < 12; y++ {
		for x := 4; x < 12; x++ {
			img.SetPixel(x, y, veld.RGB(0.1, 0.1, 0.1))
		}
	}
	// Mask: certain foreground over the object centre, an uncertain
	// band around it for colour classification, certain background
	// outside.
	mask := veld.NewPixmap(16, 16)
	for y := 2; y < 14; y++ {
		for x := 2; x < 14; x++ {
			mask.SetPixel(x, y, veld.RGBA{A: 0.25})
		}
	}
	for y := 6; y < 10; y++ {
		for x := 6; x < 10; x++ {
			mask.SetPixel(x, y, veld.RGBA{A: 1})
		}
	}
	prog := async.NewFuncProgress(nil, nil)
	if err := ExtractForeground(img, mask, prog); err != nil {
		t.Fatal(err)
	}
	if c := img.GetPixel(5, 5); c.A < 0.9 {
		t.Errorf("object pixel removed: %+v", c)
	}
	if c := img.GetPixel(1, 1); c.A > 0.1 {
		t.Errorf("background pixel kept: %+v", c)
	}
}

func TestExtractForegroundCancelled(t *testing.T) {
	img := veld.NewPixmap(8, 8)
	mask := veld.NewPixmap(8, 8)
	mask.SetPixel(4, 4, veld.RGBA{A: 1})
	prog := async.NewFuncProgress(nil, func() bool { return true })
	if err := ExtractForeground(img, mask, prog); err != async.ErrCancelled {
		t.Errorf("got %v, want ErrCancelled", err)
	}
}

func TestCheckImageSize(t *testing.T) {
	eng := NewThresholdEngine()
	if eng.CheckImageSize(100, 100) {
		t.Error("small image flagged")
	}
	if !eng.CheckImageSize(5000, 5000) {
		t.Error("huge image not flagged")
	}
}
