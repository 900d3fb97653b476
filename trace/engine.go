// Package trace orchestrates bitmap-to-vector tracing: it wires a
// tracing engine, the optional SIOX foreground extraction, progress
// reporting and cancellation into a worker pipeline that delivers its
// result back to the main loop over a channel.
package trace

import (
	veld "github.com/veldgfx/veld"
	"github.com/veldgfx/veld/async"
	"github.com/veldgfx/veld/render"
	"github.com/veldgfx/veld/sweep"
)

// Result is one traced path with its style.
type Result struct {
	Style render.Style
	Path  *veld.Path
}

// Engine is a tracing engine. Implementations wrap external tracers
// (potrace, autotrace, depixelize) or built-in ones.
type Engine interface {
	// Name identifies the engine, used for preview memoisation.
	Name() string

	// Trace converts the pixbuf to styled paths. Implementations call
	// progress at loop boundaries and unwind with async.ErrCancelled
	// when it reports cancellation.
	Trace(pixbuf *veld.Pixmap, progress async.Progress) ([]Result, error)

	// Preview returns a quick raster preview of what Trace would keep.
	Preview(pixbuf *veld.Pixmap) (*veld.Pixmap, error)

	// CheckImageSize reports whether an image of the given size is
	// large enough that the caller should confirm with the user before
	// tracing.
	CheckImageSize(w, h int) bool
}

// ThresholdEngine is the built-in brightness-cutoff engine: pixels
// darker than the threshold become filled area, merged into clean
// outlines through the sweepline engine.
type ThresholdEngine struct {
	// Threshold is the brightness cutoff in [0, 1].
	Threshold float64

	// FillColor is the style applied to traced paths.
	FillColor veld.RGBA
}

// NewThresholdEngine creates the engine with a mid-gray threshold.
func NewThresholdEngine() *ThresholdEngine {
	return &ThresholdEngine{Threshold: 0.45, FillColor: veld.Black}
}

// Name implements Engine.
func (e *ThresholdEngine) Name() string { return "threshold" }

// CheckImageSize implements Engine; tracing cost grows with the pixel
// count.
func (e *ThresholdEngine) CheckImageSize(w, h int) bool {
	return w*h > 4096*4096
}

// Trace implements Engine: dark pixels contribute unit squares whose
// union, resolved by the sweepline, becomes the output contours.
func (e *ThresholdEngine) Trace(pixbuf *veld.Pixmap, progress async.Progress) ([]Result, error) {
	w, h := pixbuf.Width(), pixbuf.Height()
	graph := sweep.NewShape()
	for y := 0; y < h; y++ {
		if err := async.ReportOrErr(progress, 0.8*float64(y)/float64(h)); err != nil {
			return nil, err
		}
		for x := 0; x < w; x++ {
			c := pixbuf.GetPixel(x, y)
			if c.A < 0.5 {
				continue
			}
			if c.Luminance() >= e.Threshold {
				continue
			}
			addPixelSquare(graph, x, y)
		}
	}
	if graph.IsEmpty() {
		return nil, nil
	}

	poly := sweep.NewShape()
	if err := sweep.ConvertToShape(poly, graph, veld.FillNonZero, false); err != nil {
		return nil, err
	}
	if err := async.ReportOrErr(progress, 0.95); err != nil {
		return nil, err
	}

	paths, _ := poly.ConvertToFormeNested(false)
	out := make([]Result, 0, len(paths))
	style := render.DefaultStyle()
	style.Fill = render.Paint{Kind: render.PaintColor, Color: e.FillColor, Opacity: 1}
	style.FillRule = veld.FillNonZero
	for _, p := range paths {
		out = append(out, Result{Style: style, Path: p})
	}
	progress.Report(1)
	return out, nil
}

// addPixelSquare adds the boundary of one pixel, oriented with the
// interior on the left; shared edges between neighbouring pixels cancel
// during conversion.
func addPixelSquare(s *sweep.Shape, x, y int) {
	fx, fy := float64(x), float64(y)
	a := s.AddVertex(veld.Pt(fx, fy))
	b := s.AddVertex(veld.Pt(fx+1, fy))
	c := s.AddVertex(veld.Pt(fx+1, fy+1))
	d := s.AddVertex(veld.Pt(fx, fy+1))
	s.AddEdge(a, b)
	s.AddEdge(b, c)
	s.AddEdge(c, d)
	s.AddEdge(d, a)
}

// Preview implements Engine: pixels kept by the threshold render in the
// fill color over transparency.
func (e *ThresholdEngine) Preview(pixbuf *veld.Pixmap) (*veld.Pixmap, error) {
	out := veld.NewPixmap(pixbuf.Width(), pixbuf.Height())
	for y := 0; y < pixbuf.Height(); y++ {
		for x := 0; x < pixbuf.Width(); x++ {
			c := pixbuf.GetPixel(x, y)
			if c.A >= 0.5 && c.Luminance() < e.Threshold {
				out.SetPixel(x, y, e.FillColor)
			}
		}
	}
	return out, nil
}
