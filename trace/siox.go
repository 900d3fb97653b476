package trace

import (
	veld "github.com/veldgfx/veld"
	"github.com/veldgfx/veld/async"
)

// SIOX tuning constants.
const (
	// sioxClusters is the signature count per class.
	sioxClusters = 8

	// sioxKMeansRounds bounds the clustering iterations.
	sioxKMeansRounds = 6

	// sioxSmoothRounds is the number of majority-filter passes over
	// the classification.
	sioxSmoothRounds = 2

	// sioxKeepFraction drops foreground blobs smaller than this
	// fraction of the largest one.
	sioxKeepFraction = 1.0 / 400
)

// ExtractForeground runs simple interactive object extraction on the
// buffer in place: pixels classified as background become fully
// transparent. The mask supplies the user's seeds: alpha >= 128 marks
// known foreground, alpha < 16 known background, anything between is
// classified by colour signature.
//
// The classification refines through colour-signature clustering, a
// morphological majority smooth, and a component-size filter.
// Cancellation is cooperative through progress.
func ExtractForeground(buffer, mask *veld.Pixmap, progress async.Progress) error {
	w, h := buffer.Width(), buffer.Height()
	if w == 0 || h == 0 {
		return nil
	}

	// Seed classes from the mask.
	const (
		unknown = iota
		background
		foreground
	)
	class := make([]uint8, w*h)
	var fgSamples, bgSamples [][3]float64
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			m := mask.GetPixel(x, y)
			c := buffer.GetPixel(x, y)
			rgb := [3]float64{c.R, c.G, c.B}
			switch {
			case m.A >= 0.5:
				class[y*w+x] = foreground
				fgSamples = append(fgSamples, rgb)
			case m.A < 1.0/16:
				class[y*w+x] = background
				bgSamples = append(bgSamples, rgb)
			}
		}
		if err := async.ReportOrErr(progress, 0.2*float64(y)/float64(h)); err != nil {
			return err
		}
	}
	if len(fgSamples) == 0 || len(bgSamples) == 0 {
		// Nothing to separate.
		progress.Report(1)
		return nil
	}

	fgSig := clusterColors(fgSamples, sioxClusters)
	bgSig := clusterColors(bgSamples, sioxClusters)
	if err := async.ReportOrErr(progress, 0.3); err != nil {
		return err
	}

	// Classify the unknowns by nearest signature.
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := y*w + x
			if class[i] != unknown {
				continue
			}
			c := buffer.GetPixel(x, y)
			rgb := [3]float64{c.R, c.G, c.B}
			if nearestDistance(fgSig, rgb) <= nearestDistance(bgSig, rgb) {
				class[i] = foreground
			} else {
				class[i] = background
			}
		}
		if err := async.ReportOrErr(progress, 0.3+0.4*float64(y)/float64(h)); err != nil {
			return err
		}
	}

	// Morphological smooth: a 3x3 majority vote, applied a few times.
	for round := 0; round < sioxSmoothRounds; round++ {
		class = majoritySmooth(class, w, h)
		if err := async.ReportOrErr(progress, 0.7+0.1*float64(round+1)/sioxSmoothRounds); err != nil {
			return err
		}
	}

	// Drop small foreground blobs.
	filterSmallBlobs(class, w, h)
	if err := async.ReportOrErr(progress, 0.9); err != nil {
		return err
	}

	// Apply: background turns transparent.
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if class[y*w+x] != foreground {
				buffer.SetPixel(x, y, veld.Transparent)
			}
		}
	}
	progress.Report(1)
	return nil
}

// clusterColors reduces samples to at most k representative colours
// with a few k-means rounds.
func clusterColors(samples [][3]float64, k int) [][3]float64 {
	if len(samples) <= k {
		return samples
	}
	// Deterministic spread initialisation.
	centers := make([][3]float64, k)
	for i := range centers {
		centers[i] = samples[i*len(samples)/k]
	}
	assign := make([]int, len(samples))
	for round := 0; round < sioxKMeansRounds; round++ {
		changed := false
		for i, s := range samples {
			best, bestD := 0, colorDist2(centers[0], s)
			for j := 1; j < k; j++ {
				if d := colorDist2(centers[j], s); d < bestD {
					best, bestD = j, d
				}
			}
			if assign[i] != best {
				assign[i] = best
				changed = true
			}
		}
		if !changed {
			break
		}
		var sums [][4]float64 = make([][4]float64, k)
		for i, s := range samples {
			a := assign[i]
			sums[a][0] += s[0]
			sums[a][1] += s[1]
			sums[a][2] += s[2]
			sums[a][3]++
		}
		for j := range centers {
			if sums[j][3] > 0 {
				centers[j] = [3]float64{
					sums[j][0] / sums[j][3],
					sums[j][1] / sums[j][3],
					sums[j][2] / sums[j][3],
				}
			}
		}
	}
	return centers
}

func colorDist2(a, b [3]float64) float64 {
	dr := a[0] - b[0]
	dg := a[1] - b[1]
	db := a[2] - b[2]
	return dr*dr + dg*dg + db*db
}

func nearestDistance(sig [][3]float64, c [3]float64) float64 {
	best := colorDist2(sig[0], c)
	for _, s := range sig[1:] {
		if d := colorDist2(s, c); d < best {
			best = d
		}
	}
	return best
}

// majoritySmooth reclassifies each pixel to the majority of its 3x3
// neighbourhood, eroding specks and dilating across pinholes.
func majoritySmooth(class []uint8, w, h int) []uint8 {
	out := make([]uint8, len(class))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			fg, total := 0, 0
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					nx, ny := x+dx, y+dy
					if nx < 0 || nx >= w || ny < 0 || ny >= h {
						continue
					}
					total++
					if class[ny*w+nx] == 2 {
						fg++
					}
				}
			}
			if fg*2 > total {
				out[y*w+x] = 2
			} else {
				out[y*w+x] = 1
			}
		}
	}
	return out
}

// filterSmallBlobs removes foreground components much smaller than the
// largest one.
func filterSmallBlobs(class []uint8, w, h int) {
	comp := make([]int, w*h)
	for i := range comp {
		comp[i] = -1
	}
	var sizes []int
	var stack []int
	for i := range class {
		if class[i] != 2 || comp[i] >= 0 {
			continue
		}
		id := len(sizes)
		size := 0
		stack = append(stack[:0], i)
		comp[i] = id
		for len(stack) > 0 {
			cur := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			size++
			x, y := cur%w, cur/w
			for _, n := range [4][2]int{{x - 1, y}, {x + 1, y}, {x, y - 1}, {x, y + 1}} {
				if n[0] < 0 || n[0] >= w || n[1] < 0 || n[1] >= h {
					continue
				}
				j := n[1]*w + n[0]
				if class[j] == 2 && comp[j] < 0 {
					comp[j] = id
					stack = append(stack, j)
				}
			}
		}
		sizes = append(sizes, size)
	}
	if len(sizes) == 0 {
		return
	}
	largest := 0
	for _, s := range sizes {
		if s > largest {
			largest = s
		}
	}
	min := int(float64(largest) * sioxKeepFraction)
	for i := range class {
		if class[i] == 2 && sizes[comp[i]] < min {
			class[i] = 1
		}
	}
}
