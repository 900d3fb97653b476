// Package async provides the cross-thread substrate of the display
// core: cancellable progress reporters and a one-way channel submitting
// closures to a main-loop consumer.
package async

import (
	"errors"
	"time"
)

// ErrCancelled is returned by the Or-helpers when a progress reporter
// signals cancellation. Cooperating loops check it at iteration
// boundaries and unwind without committing partial work.
var ErrCancelled = errors.New("async: cancelled")

// Progress is an interface for tasks to report progress and check for
// cancellation. Progress values are fractions in [0, 1].
//
// Not supported:
//   - Error reporting: return errors through the task itself.
//   - Thread safety: wrap with BackgroundProgress where needed.
type Progress interface {
	// Keepgoing reports whether the task should continue.
	Keepgoing() bool

	// Report accepts a progress sample and reports whether the task
	// should continue.
	Report(v float64) bool
}

// ReportOrErr reports v and returns ErrCancelled if the task should
// stop.
func ReportOrErr(p Progress, v float64) error {
	if !p.Report(v) {
		return ErrCancelled
	}
	return nil
}

// ErrIfCancelled returns ErrCancelled if the task should stop.
func ErrIfCancelled(p Progress) error {
	if !p.Keepgoing() {
		return ErrCancelled
	}
	return nil
}

// SubProgress remaps a child task's [0, 1] range into a slice of its
// parent's range. Construction flattens nesting: a SubProgress of a
// SubProgress composes the two affine maps and refers to the shared
// root, so arbitrarily deep nesting has O(1) reporting overhead.
type SubProgress struct {
	root   Progress
	from   float64
	amount float64
}

// NewSub creates a progress object covering [from, from+amount] of the
// parent's range.
func NewSub(parent Progress, from, amount float64) *SubProgress {
	if sp, ok := parent.(*SubProgress); ok {
		return &SubProgress{
			root:   sp.root,
			from:   sp.from + sp.amount*from,
			amount: sp.amount * amount,
		}
	}
	return &SubProgress{root: parent, from: from, amount: amount}
}

// Keepgoing implements Progress.
func (p *SubProgress) Keepgoing() bool { return p.root.Keepgoing() }

// Report implements Progress.
func (p *SubProgress) Report(v float64) bool {
	return p.root.Report(p.from + p.amount*v)
}

// StepThrottler forwards reports only when the value has advanced by at
// least step since the last forwarded report.
type StepThrottler struct {
	parent Progress
	step   float64
	last   float64
}

// NewStepThrottler creates a step throttler over parent.
func NewStepThrottler(parent Progress, step float64) *StepThrottler {
	return &StepThrottler{parent: parent, step: step}
}

// Keepgoing implements Progress.
func (t *StepThrottler) Keepgoing() bool { return t.parent.Keepgoing() }

// Report implements Progress.
func (t *StepThrottler) Report(v float64) bool {
	if v-t.last < t.step {
		return t.parent.Keepgoing()
	}
	t.last = v
	return t.parent.Report(v)
}

// TimeThrottler forwards reports only when the wall clock has advanced
// by at least the interval since the last forwarded report.
type TimeThrottler struct {
	parent   Progress
	interval time.Duration
	last     time.Time
	now      func() time.Time
}

// NewTimeThrottler creates a time throttler over parent.
func NewTimeThrottler(parent Progress, interval time.Duration) *TimeThrottler {
	return &TimeThrottler{parent: parent, interval: interval, now: time.Now}
}

// Keepgoing implements Progress.
func (t *TimeThrottler) Keepgoing() bool { return t.parent.Keepgoing() }

// Report implements Progress.
func (t *TimeThrottler) Report(v float64) bool {
	now := t.now()
	if now.Sub(t.last) < t.interval {
		return t.parent.Keepgoing()
	}
	t.last = now
	return t.parent.Report(v)
}

// Splitter divides a parent progress among several outputs according to
// weights. Outputs are assigned on Done: each receives a SubProgress
// spanning its normalised share of the parent, in Add order.
//
//	var a, b Progress
//	async.NewSplitter(parent).
//	    Add(&a, 1).
//	    Add(&b, 3).
//	    Done()
type Splitter struct {
	parent Progress
	outs   []*Progress
	weight []float64
}

// NewSplitter creates a splitter over parent.
func NewSplitter(parent Progress) *Splitter {
	return &Splitter{parent: parent}
}

// Add registers an output with the given weight.
func (s *Splitter) Add(out *Progress, weight float64) *Splitter {
	s.outs = append(s.outs, out)
	s.weight = append(s.weight, weight)
	return s
}

// AddIf registers an output only when cond is true; otherwise the
// output is left untouched and its weight is excluded from
// normalisation.
func (s *Splitter) AddIf(out *Progress, weight float64, cond bool) *Splitter {
	if cond {
		return s.Add(out, weight)
	}
	return s
}

// Done normalises the weights and assigns each registered output its
// SubProgress share.
func (s *Splitter) Done() {
	var total float64
	for _, w := range s.weight {
		total += w
	}
	if total <= 0 {
		return
	}
	from := 0.0
	for i, out := range s.outs {
		amount := s.weight[i] / total
		*out = NewSub(s.parent, from, amount)
		from += amount
	}
}

// FuncProgress adapts a report callback into a Progress. A nil report
// function accepts every sample. Keepgoing turns false once the
// optional cancelled check returns true.
type FuncProgress struct {
	report    func(v float64)
	cancelled func() bool
}

// NewFuncProgress creates a Progress from a report callback and an
// optional cancellation check.
func NewFuncProgress(report func(v float64), cancelled func() bool) *FuncProgress {
	return &FuncProgress{report: report, cancelled: cancelled}
}

// Keepgoing implements Progress.
func (f *FuncProgress) Keepgoing() bool {
	return f.cancelled == nil || !f.cancelled()
}

// Report implements Progress.
func (f *FuncProgress) Report(v float64) bool {
	if !f.Keepgoing() {
		return false
	}
	if f.report != nil {
		f.report(v)
	}
	return true
}
