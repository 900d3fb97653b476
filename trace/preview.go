package trace

import (
	"github.com/disintegration/imaging"

	veld "github.com/veldgfx/veld"
)

// previewMaxDim bounds the preview raster handed to engines; dialog
// previews never need full resolution.
const previewMaxDim = 256

// fitPreview downscales a pixbuf to the preview bound, preserving
// aspect ratio. Small images pass through untouched.
func fitPreview(pm *veld.Pixmap) *veld.Pixmap {
	if pm.Width() <= previewMaxDim && pm.Height() <= previewMaxDim {
		return pm
	}
	scaled := imaging.Fit(pm.ToImage(), previewMaxDim, previewMaxDim, imaging.Lanczos)
	return veld.FromImage(scaled)
}

// GrayPreview converts a preview to grayscale for dialogs that show
// the pre-threshold view.
func GrayPreview(pm *veld.Pixmap) *veld.Pixmap {
	return veld.FromImage(imaging.Grayscale(pm.ToImage()))
}
