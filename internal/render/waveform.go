// Package render draws pulse waveforms as PNG images for quick visual
// inspection of analysis results.
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

const (
	defaultWidth   = 800
	defaultHeight  = 300
	defaultPadding = 20

	// Vertical headroom so the trace never touches the plot border.
	amplitudeScale = 0.9
)

var (
	backgroundColor = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	borderColor     = color.RGBA{R: 0x60, G: 0x60, B: 0x60, A: 0xff}
	gridColor       = color.RGBA{R: 0xe4, G: 0xe4, B: 0xe4, A: 0xff}
	midlineColor    = color.RGBA{R: 0xc0, G: 0xc0, B: 0xc0, A: 0xff}

	highTraceColor   = color.RGBA{R: 0x2e, G: 0xa0, B: 0x43, A: 0xff}
	mediumTraceColor = color.RGBA{R: 0xd4, G: 0x99, B: 0x22, A: 0xff}
	lowTraceColor    = color.RGBA{R: 0xda, G: 0x36, B: 0x33, A: 0xff}
)

// Config holds image geometry options. Zero values are replaced with
// defaults by NewRenderer.
type Config struct {
	Width    int  // Total image width in pixels
	Height   int  // Total image height in pixels
	Padding  int  // White space around the plot area
	ShowGrid bool // Draw horizontal quarter-amplitude grid lines

	// Band edges for the spectrum view, in Hz. Zero means the pipeline's
	// physiological band.
	MinFrequency float64
	MaxFrequency float64
}

// Renderer converts analysis results into debug images: a waveform trace
// whose color reflects the estimate confidence, and an in-band magnitude
// spectrum with the detected peak marked.
type Renderer struct {
	config Config
}

// NewRenderer creates a renderer with defaults applied for any zero
// configuration values.
func NewRenderer(config Config) (*Renderer, error) {
	if config.Width == 0 {
		config.Width = defaultWidth
	}
	if config.Height == 0 {
		config.Height = defaultHeight
	}
	if config.Padding == 0 {
		config.Padding = defaultPadding
	}
	if config.MinFrequency == 0 {
		config.MinFrequency = rppg.DefaultMinFrequency
	}
	if config.MaxFrequency == 0 {
		config.MaxFrequency = rppg.DefaultMaxFrequency
	}

	if config.Width < 4*config.Padding || config.Height < 4*config.Padding {
		return nil, fmt.Errorf("image %dx%d too small for padding %d",
			config.Width, config.Height, config.Padding)
	}

	return &Renderer{config: config}, nil
}

// RenderWaveform draws the result waveform onto a new image.
func (r *Renderer) RenderWaveform(result *rppg.AnalysisResult) (*image.RGBA, error) {
	if result == nil {
		return nil, fmt.Errorf("nil analysis result")
	}
	if len(result.Waveform) < 2 {
		return nil, fmt.Errorf("waveform has %d points, need at least 2", len(result.Waveform))
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
	r.drawMidline(img, plot)
	r.drawTrace(img, plot, result.Waveform, traceColor(result.Confidence))
	r.drawBorder(img, plot)

	return img, nil
}

// WriteWaveformPNG renders the result waveform and encodes it as PNG to w.
func (r *Renderer) WriteWaveformPNG(w io.Writer, result *rppg.AnalysisResult) error {
	img, err := r.RenderWaveform(result)
	if err != nil {
		return err
	}
	return png.Encode(w, img)
}

func (r *Renderer) drawGrid(img *image.RGBA, plot image.Rectangle) {
	for _, fraction := range []float64{0.25, 0.75} {
		y := plot.Min.Y + int(fraction*float64(plot.Dy()))
		for x := plot.Min.X; x < plot.Max.X; x++ {
			img.Set(x, y, gridColor)
		}
	}
}

func (r *Renderer) drawMidline(img *image.RGBA, plot image.Rectangle) {
	y := plot.Min.Y + plot.Dy()/2
	for x := plot.Min.X; x < plot.Max.X; x++ {
		img.Set(x, y, midlineColor)
	}
}

func (r *Renderer) drawBorder(img *image.RGBA, plot image.Rectangle) {
	for x := plot.Min.X; x < plot.Max.X; x++ {
		img.Set(x, plot.Min.Y, borderColor)
		img.Set(x, plot.Max.Y-1, borderColor)
	}
	for y := plot.Min.Y; y < plot.Max.Y; y++ {
		img.Set(plot.Min.X, y, borderColor)
		img.Set(plot.Max.X-1, y, borderColor)
	}
}

// drawTrace connects interpolated waveform values across every pixel column
// so the polyline stays continuous whether the plot is wider or narrower
// than the waveform itself.
func (r *Renderer) drawTrace(img *image.RGBA, plot image.Rectangle, waveform []float64, c color.RGBA) {
	columns := plot.Dx()
	if columns < 2 {
		return
	}

	prevY := r.valueToY(plot, sampleAt(waveform, 0))
	for x := 0; x < columns; x++ {
		position := float64(x) / float64(columns-1) * float64(len(waveform)-1)
		y := r.valueToY(plot, sampleAt(waveform, position))

		drawVerticalSpan(img, plot.Min.X+x, prevY, y, c)
		prevY = y
	}
}

// valueToY maps a waveform value in [-1, 1] to a pixel row inside the plot.
func (r *Renderer) valueToY(plot image.Rectangle, value float64) int {
	value = math.Max(-1, math.Min(1, value))
	center := float64(plot.Min.Y) + float64(plot.Dy())/2
	offset := value * amplitudeScale * float64(plot.Dy()) / 2

	y := int(math.Round(center - offset))
	if y < plot.Min.Y {
		y = plot.Min.Y
	}
	if y >= plot.Max.Y {
		y = plot.Max.Y - 1
	}
	return y
}

// sampleAt linearly interpolates the waveform at a fractional index.
func sampleAt(waveform []float64, position float64) float64 {
	lower := int(math.Floor(position))
	upper := int(math.Ceil(position))
	if upper >= len(waveform) {
		return waveform[len(waveform)-1]
	}
	if lower == upper {
		return waveform[lower]
	}

	weight := position - float64(lower)
	return waveform[lower]*(1-weight) + waveform[upper]*weight
}

func drawVerticalSpan(img *image.RGBA, x, y0, y1 int, c color.RGBA) {
	if y0 > y1 {
		y0, y1 = y1, y0
	}
	for y := y0; y <= y1; y++ {
		img.Set(x, y, c)
	}
}

func traceColor(confidence rppg.Confidence) color.RGBA {
	switch confidence {
	case rppg.ConfidenceHigh:
		return highTraceColor
	case rppg.ConfidenceMedium:
		return mediumTraceColor
	default:
		return lowTraceColor
	}
}
