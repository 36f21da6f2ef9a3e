package export

import (
	"fmt"
	"image/color"
	"io"
	"os"
	"path/filepath"

	"github.com/ajstarks/svgo"
)

// Histogram layout constants. Bars are laid out in a fixed-size canvas so
// the output diffs cleanly between runs.
const (
	histWidth   = 640
	histHeight  = 360
	histMarginX = 48
	histMarginY = 48
	histBarGap  = 8
)

var (
	colorBackdrop = color.RGBA{R: 0x16, G: 0x16, B: 0x1e, A: 0xff}
	colorBar      = color.RGBA{R: 0x7a, G: 0xa2, B: 0xf7, A: 0xff}
	colorComplete = color.RGBA{R: 0x9e, G: 0xce, B: 0x6a, A: 0xff}
	colorCritical = color.RGBA{R: 0xf7, G: 0x76, B: 0x8e, A: 0xff}
	colorText     = color.RGBA{R: 0xc0, G: 0xca, B: 0xf5, A: 0xff}
	colorSubtle   = color.RGBA{R: 0x56, G: 0x5f, B: 0x89, A: 0xff}
)

func css(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// WriteHistogramSVG renders the summary's score histogram as SVG.
func WriteHistogramSVG(w io.Writer, s Summary) {
	canvas := svg.New(w)
	canvas.Start(histWidth, histHeight)
	canvas.Rect(0, 0, histWidth, histHeight, fmt.Sprintf("fill:%s", css(colorBackdrop)))

	canvas.Text(histMarginX, 28, fmt.Sprintf("%s: score distribution (%d rows)", s.Collection, s.Rows),
		fmt.Sprintf("fill:%s;font-size:14px;font-family:monospace;font-weight:bold", css(colorText)))

	max := 0
	for _, n := range s.Histogram {
		if n > max {
			max = n
		}
	}
	if max == 0 {
		canvas.Text(histMarginX, histHeight/2, "no rows",
			fmt.Sprintf("fill:%s;font-size:13px;font-family:monospace", css(colorSubtle)))
		canvas.End()
		return
	}

	plotW := histWidth - 2*histMarginX
	plotH := histHeight - 2*histMarginY
	barW := plotW/len(s.Histogram) - histBarGap
	baseline := histHeight - histMarginY

	for i, n := range s.Histogram {
		x := histMarginX + i*(barW+histBarGap)
		h := 0
		if n > 0 {
			h = n * plotH / max
			if h < 2 {
				h = 2
			}
		}

		fill := colorBar
		switch {
		case i == len(s.Histogram)-1:
			fill = colorComplete
		case (i+1)*10 <= 60:
			fill = colorCritical
		}

		canvas.Rect(x, baseline-h, barW, h, fmt.Sprintf("fill:%s", css(fill)))
		canvas.Text(x+barW/2, baseline+16, fmt.Sprintf("%d0", i),
			fmt.Sprintf("fill:%s;font-size:11px;font-family:monospace;text-anchor:middle", css(colorSubtle)))
		if n > 0 {
			canvas.Text(x+barW/2, baseline-h-6, fmt.Sprintf("%d", n),
				fmt.Sprintf("fill:%s;font-size:11px;font-family:monospace;text-anchor:middle", css(colorText)))
		}
	}

	canvas.Line(histMarginX, baseline, histWidth-histMarginX, baseline,
		fmt.Sprintf("stroke:%s;stroke-width:1", css(colorSubtle)))
	canvas.End()
}

// SaveHistogramSVG writes the histogram to the specified path, creating
// parent directories as needed.
func SaveHistogramSVG(s Summary, path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating report directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("writing histogram: %w", err)
	}
	WriteHistogramSVG(f, s)
	if err := f.Close(); err != nil {
		return fmt.Errorf("writing histogram: %w", err)
	}
	return nil
}
