package render

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"math"

	"github.com/vitalsense/rppg-analyzer/pkg/rppg"
)

var (
	spectrumBarColor = color.RGBA{R: 0x4a, G: 0x78, B: 0xb0, A: 0xff}
	peakMarkerColor  = color.RGBA{R: 0xda, G: 0x36, B: 0x33, A: 0xff}
)

// RenderSpectrum draws the in-band magnitude spectrum from a diagnostics
// capture as a bar chart, with the detected peak bin marked. fps must be
// the rate the analysis actually ran at; zero falls back to the pipeline
// default.
func (r *Renderer) RenderSpectrum(diag *rppg.Diagnostics, fps float64) (*image.RGBA, error) {
	if diag == nil {
		return nil, fmt.Errorf("nil diagnostics")
	}
	if len(diag.Spectrum) == 0 {
		return nil, fmt.Errorf("diagnostics carry no spectrum; run with diagnostics enabled")
	}
	if fps <= 0 {
		fps = rppg.DefaultFPS
	}

	minBin, maxBin := r.bandBins(diag.FFTSize, fps)
	if minBin > maxBin || maxBin >= len(diag.Spectrum) {
		return nil, fmt.Errorf("frequency band [%g,%g] Hz is empty at %g fps",
			r.config.MinFrequency, r.config.MaxFrequency, fps)
	}

	img := image.NewRGBA(image.Rect(0, 0, r.config.Width, r.config.Height))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: backgroundColor}, image.Point{}, draw.Src)

	plot := image.Rect(
		r.config.Padding,
		r.config.Padding,
		r.config.Width-r.config.Padding,
		r.config.Height-r.config.Padding,
	)

	if r.config.ShowGrid {
		r.drawGrid(img, plot)
	}
	r.drawBars(img, plot, diag.Spectrum[minBin:maxBin+1], diag.PeakBin-minBin)
	r.drawBorder(img, plot)

	return img, nil
}

// WriteSpectrumPNG renders the spectrum and encodes it as PNG to w.
func (r *Renderer) WriteSpectrumPNG(w io.Writer, diag *rppg.Diagnostics, fps float64) error {
	img, err := r.RenderSpectrum(diag, fps)
	if err != nil {
		return err
	}
	return png.Encode(w, img)
}

// bandBins maps the configured frequency band onto FFT bins, mirroring the
// pipeline's own band selection.
func (r *Renderer) bandBins(fftSize int, fps float64) (int, int) {
	minBin := int(math.Floor(r.config.MinFrequency * float64(fftSize) / fps))
	if minBin < 1 {
		minBin = 1
	}
	maxBin := int(math.Ceil(r.config.MaxFrequency * float64(fftSize) / fps))
	if limit := fftSize/2 - 1; maxBin > limit {
		maxBin = limit
	}
	return minBin, maxBin
}

// drawBars renders one bar per in-band bin, scaled to the strongest
// magnitude. peakIndex is relative to the slice; an out-of-range value
// draws no marker.
func (r *Renderer) drawBars(img *image.RGBA, plot image.Rectangle, magnitudes []float64, peakIndex int) {
	maxMagnitude := 0.0
	for _, m := range magnitudes {
		if m > maxMagnitude {
			maxMagnitude = m
		}
	}
	if maxMagnitude == 0 {
		maxMagnitude = 1
	}

	count := len(magnitudes)
	width := plot.Dx()

	for i, magnitude := range magnitudes {
		x0 := plot.Min.X + i*width/count
		x1 := plot.Min.X + (i+1)*width/count
		if x1 <= x0 {
			x1 = x0 + 1
		}

		height := int(math.Round(magnitude / maxMagnitude * amplitudeScale * float64(plot.Dy())))
		top := plot.Max.Y - height
		if top < plot.Min.Y {
			top = plot.Min.Y
		}

		barColor := spectrumBarColor
		if i == peakIndex {
			barColor = peakMarkerColor
		}

		for x := x0; x < x1 && x < plot.Max.X; x++ {
			for y := top; y < plot.Max.Y; y++ {
				img.Set(x, y, barColor)
			}
		}
	}

	// Full-height marker line through the peak bar center.
	if peakIndex >= 0 && peakIndex < count {
		x := plot.Min.X + (2*peakIndex+1)*width/(2*count)
		drawVerticalSpan(img, x, plot.Min.Y, plot.Max.Y-1, peakMarkerColor)
	}
}
