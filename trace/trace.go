package trace

import (
	"errors"
	"time"

	lru "github.com/hashicorp/golang-lru"
	"golang.org/x/sync/errgroup"

	veld "github.com/veldgfx/veld"
	"github.com/veldgfx/veld/async"
)

// progressInterval throttles worker progress reports towards the main
// loop.
const progressInterval = 10 * time.Millisecond

// Options configure a trace launch.
type Options struct {
	// SioxEnabled runs foreground extraction before the engine.
	SioxEnabled bool

	// SioxMask is the selection mask rasterised against the image
	// extents: alpha at or above 128 marks foreground seeds. Required
	// when SioxEnabled is set.
	SioxMask *veld.Pixmap
}

// Future is a handle on a running trace. Dropping it via Cancel closes
// the channel, after which the worker exits silently without
// main-thread mutation.
type Future struct {
	dst   async.Dest
	group *errgroup.Group
}

// Cancel stops result and progress delivery and lets the worker wind
// down on its own.
func (f *Future) Cancel() {
	f.dst.Close()
}

// Wait blocks until the worker finishes. Errors other than
// cancellation surface here; cancellation is silent.
func (f *Future) Wait() error {
	err := f.group.Wait()
	if errors.Is(err, async.ErrCancelled) {
		return nil
	}
	return err
}

// LaunchTrace starts a trace of pixbuf on a worker goroutine.
// onProgress receives throttled progress on the loop goroutine;
// onFinished receives the results there, and is not called at all when
// the trace is cancelled or fails.
//
// The caller is responsible for selection resolution and for the
// CheckImageSize confirmation before launching.
func LaunchTrace(loop *async.Loop, engine Engine, pixbuf *veld.Pixmap, opts Options,
	onProgress func(float64), onFinished func([]Result)) *Future {

	src, dst := async.NewChannel(loop)
	g := &errgroup.Group{}
	f := &Future{dst: dst, group: g}

	// The worker owns a copy; the caller's pixbuf stays untouched.
	buffer := pixbuf.Copy()
	var mask *veld.Pixmap
	if opts.SioxEnabled && opts.SioxMask != nil {
		mask = opts.SioxMask.Copy()
	}

	g.Go(func() error {
		defer src.Close()

		bg := async.NewBackgroundProgress(src, onProgress)
		var throttled async.Progress = async.NewTimeThrottler(bg, progressInterval)

		var sioxProgress, engineProgress async.Progress
		async.NewSplitter(throttled).
			AddIf(&sioxProgress, 1, opts.SioxEnabled).
			Add(&engineProgress, 9).
			Done()

		if opts.SioxEnabled && mask != nil {
			if err := ExtractForeground(buffer, mask, sioxProgress); err != nil {
				return err
			}
		}

		results, err := engine.Trace(buffer, engineProgress)
		if err != nil {
			return err
		}

		// The final main-thread step: deliver the results. A closed
		// channel means the user cancelled or the image went away; the
		// worker exits without any main-thread mutation.
		src.Run(func() { onFinished(results) })
		return nil
	})
	return f
}

// previewCacheKey memoises previews per engine and source geometry.
type previewCacheKey struct {
	engine string
	pixbuf *veld.Pixmap
	w, h   int
}

// previewCache holds recent preview rasters; previews are recomputed
// eagerly during dialog interaction, so a small LRU pays off.
var previewCache, _ = lru.New(16)

// LaunchPreview starts a preview render of pixbuf on a worker
// goroutine, delivering the preview pixmap to onFinished on the loop
// goroutine. The same cancellation rules as LaunchTrace apply.
func LaunchPreview(loop *async.Loop, engine Engine, pixbuf *veld.Pixmap, opts Options,
	onFinished func(*veld.Pixmap)) *Future {

	src, dst := async.NewChannel(loop)
	g := &errgroup.Group{}
	f := &Future{dst: dst, group: g}

	buffer := pixbuf.Copy()
	var mask *veld.Pixmap
	if opts.SioxEnabled && opts.SioxMask != nil {
		mask = opts.SioxMask.Copy()
	}

	g.Go(func() error {
		defer src.Close()

		key := previewCacheKey{engine: engine.Name(), pixbuf: pixbuf, w: buffer.Width(), h: buffer.Height()}
		if cached, ok := previewCache.Get(key); ok {
			pm := cached.(*veld.Pixmap)
			src.Run(func() { onFinished(pm) })
			return nil
		}

		if opts.SioxEnabled && mask != nil {
			prog := async.NewFuncProgress(nil, func() bool { return !src.Ok() })
			if err := ExtractForeground(buffer, mask, prog); err != nil {
				return err
			}
		}

		pm, err := engine.Preview(fitPreview(buffer))
		if err != nil {
			return err
		}
		previewCache.Add(key, pm)
		src.Run(func() { onFinished(pm) })
		return nil
	})
	return f
}
