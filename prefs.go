package veld

import (
	"fmt"
	"io"
	"os"

	"github.com/BurntSushi/toml"
)

// Prefs holds renderer preferences. A Drawing reads them once at
// construction; later changes are delivered through a PrefsObserver so
// they can be applied under the drawing's deferral discipline.
type Prefs struct {
	// CacheBudgetMB is the per-drawing item cache budget in megabytes.
	CacheBudgetMB int `toml:"cache_budget_mb"`

	// FilterQuality selects the filter rendering quality (0 worst, 2 best).
	FilterQuality int `toml:"filter_quality"`

	// BlurQuality selects the gaussian blur quality (0 worst, 2 best).
	BlurQuality int `toml:"blur_quality"`

	// FilterThreads is the worker count filter primitives may use.
	// 0 selects one worker per CPU.
	FilterThreads int `toml:"filter_threads"`

	// GrayscaleMatrix optionally overrides the 5x4 grayscale color
	// matrix applied in grayscale color mode. Empty means the built-in
	// desaturation matrix.
	GrayscaleMatrix []float64 `toml:"grayscale_matrix"`

	// DitherPatterns enables dithered pattern tile rendering.
	DitherPatterns bool `toml:"dither_patterns"`
}

// DefaultPrefs returns the preferences used when no file is present.
func DefaultPrefs() Prefs {
	return Prefs{
		CacheBudgetMB: 64,
		FilterQuality: 1,
		BlurQuality:   1,
	}
}

// LoadPrefs reads preferences from a TOML file, filling unset fields
// with defaults. A missing file yields the defaults without error.
func LoadPrefs(path string) (Prefs, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultPrefs(), nil
		}
		return DefaultPrefs(), fmt.Errorf("veld: open prefs: %w", err)
	}
	defer f.Close()
	return DecodePrefs(f)
}

// DecodePrefs reads TOML preferences from r.
func DecodePrefs(r io.Reader) (Prefs, error) {
	p := DefaultPrefs()
	if _, err := toml.NewDecoder(r).Decode(&p); err != nil {
		return DefaultPrefs(), fmt.Errorf("veld: decode prefs: %w", err)
	}
	if len(p.GrayscaleMatrix) != 0 && len(p.GrayscaleMatrix) != 20 {
		return DefaultPrefs(), fmt.Errorf("veld: grayscale_matrix needs 20 entries, got %d", len(p.GrayscaleMatrix))
	}
	return p, nil
}

// PrefsObserver receives preference updates. The drawing installs one
// observer that dispatches each changed field to its typed setter.
type PrefsObserver interface {
	PrefsChanged(p Prefs)
}
