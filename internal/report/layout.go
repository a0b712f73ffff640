// internal/report/layout.go
package report

import "github.com/jung-kurt/gofpdf"

// A block is one indivisible piece of report content: it knows how tall it is
// and how to draw itself at a given vertical position. Page breaking happens
// in exactly one place, the layout, instead of at every call site.
type block struct {
	height float64
	draw   func(pdf *gofpdf.Fpdf, y float64)
}

// layout tracks the vertical cursor on a fixed-size page and starts a new
// page whenever the next block would cross the bottom margin.
type layout struct {
	pdf        *gofpdf.Fpdf
	y          float64
	top        float64
	bottom     float64
	pageHeight float64
}

func newLayout(pdf *gofpdf.Fpdf, top, bottom float64) *layout {
	_, pageHeight := pdf.GetPageSize()
	return &layout{
		pdf:        pdf,
		y:          top,
		top:        top,
		bottom:     bottom,
		pageHeight: pageHeight,
	}
}

// add places a block, breaking the page first if it would not fit. A block
// taller than a whole page is drawn at the top of a fresh page and allowed to
// overflow rather than loop forever.
func (l *layout) add(b block) {
	if l.y+b.height > l.pageHeight-l.bottom && l.y > l.top {
		l.pdf.AddPage()
		l.y = l.top
	}
	b.draw(l.pdf, l.y)
	l.y += b.height
}

// space advances the cursor without drawing. Trailing space at a page bottom
// is simply absorbed by the next block's break check.
func (l *layout) space(h float64) {
	l.y += h
}
