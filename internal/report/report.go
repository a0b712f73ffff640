// internal/report/report.go
package report

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/rs/zerolog"

	"keratoscan-back/internal/models"
)

const (
	margin     = 20.0
	headerBand = 15.0
	topMargin  = 25.0
	lineHeight = 7.0

	// Bounding box for embedded scan images.
	maxImageWidth  = 150.0
	maxImageHeight = 110.0
)

// BlobGetter fetches stored scan images for embedding.
type BlobGetter interface {
	Get(ctx context.Context, objectName string) (io.ReadCloser, error)
}

// NewAnalysis is an ephemeral re-analysis supplied by a doctor. It is shown
// in the generated report only; the stored patient record is never mutated.
type NewAnalysis struct {
	Image      []byte
	Prediction string
}

// Generator assembles paginated PDF reports from patient records.
type Generator struct {
	blobs BlobGetter
	log   zerolog.Logger
	now   func() time.Time
}

func NewGenerator(blobs BlobGetter, log zerolog.Logger) *Generator {
	return &Generator{blobs: blobs, log: log, now: time.Now}
}

// Filename is the download name for a patient's report.
func Filename(patient *models.Patient) string {
	return fmt.Sprintf("medical_report_%s.pdf", patient.IDNumber)
}

// Generate renders the report for one patient record, optionally including a
// newly computed analysis. A scan image that fails to load or decode is
// logged and skipped; every other section still renders.
func (g *Generator) Generate(ctx context.Context, patient *models.Patient, newAnalysis *NewAnalysis) ([]byte, error) {
	pdf := g.build(ctx, patient, newAnalysis)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render report: %w", err)
	}
	return buf.Bytes(), nil
}

func (g *Generator) build(ctx context.Context, patient *models.Patient, newAnalysis *NewAnalysis) *gofpdf.Fpdf {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pageWidth, pageHeight := pdf.GetPageSize()
	generatedAt := g.now().Format("2006-01-02 15:04:05")

	pdf.SetHeaderFunc(func() {
		pdf.SetFillColor(30, 58, 138)
		pdf.Rect(0, 0, pageWidth, headerBand, "F")
		pdf.SetTextColor(255, 255, 255)
		pdf.SetFont("Arial", "", 10)
		pdf.Text(pageWidth/2-pdf.GetStringWidth("KeratoScan AI - Medical Report")/2, 10, "KeratoScan AI - Medical Report")
		generated := "Generated: " + generatedAt
		pdf.Text(pageWidth-margin-pdf.GetStringWidth(generated), 10, generated)
	})

	pdf.AliasNbPages("")
	pdf.SetFooterFunc(func() {
		pdf.SetFont("Arial", "", 8)
		pdf.SetTextColor(128, 128, 128)
		center := fmt.Sprintf("Page %d of {nb}", pdf.PageNo())
		pdf.Text(pageWidth/2-pdf.GetStringWidth(center)/2, pageHeight-10, center)
		notice := "KeratoScan AI (c) 2024 - Confidential Medical Report"
		pdf.Text(pageWidth-margin-pdf.GetStringWidth(notice), pageHeight-10, notice)
	})

	pdf.SetAutoPageBreak(false, margin)
	pdf.AddPage()

	l := newLayout(pdf, topMargin, margin)
	l.space(15)

	g.addTitle(l, pageWidth)
	l.space(10)

	g.addPatientInfo(l, pageWidth, patient)
	l.space(10)

	if patient.ImagePath != "" {
		if img, err := g.fetchScan(ctx, patient.ImagePath); err != nil {
			g.log.Error().Err(err).Str("object", patient.ImagePath).Msg("skipping topography image in report")
		} else {
			g.addImageSection(l, pdf, pageWidth, "Corneal Topography Image", "scan", img)
			l.space(10)
		}
	}

	g.addTextSection(l, pageWidth, "Analysis Results", patient.Prediction)

	if patient.Report != "" {
		l.space(10)
		g.addTextSection(l, pageWidth, "Medical Report", patient.Report)
	}

	if newAnalysis != nil {
		l.space(10)
		if len(newAnalysis.Image) > 0 {
			g.addImageSection(l, pdf, pageWidth, "New Analyzed Image", "newscan", newAnalysis.Image)
			l.space(10)
		}
		g.addTextSection(l, pageWidth, "New Analysis Results", newAnalysis.Prediction)
	}

	return pdf
}

func (g *Generator) addTitle(l *layout, pageWidth float64) {
	l.add(block{height: 10, draw: func(pdf *gofpdf.Fpdf, y float64) {
		pdf.SetTextColor(30, 58, 138)
		pdf.SetFont("Arial", "B", 24)
		title := "Patient Medical Report"
		pdf.Text(pageWidth/2-pdf.GetStringWidth(title)/2, y+8, title)
	}})
	l.add(block{height: 2, draw: func(pdf *gofpdf.Fpdf, y float64) {
		pdf.SetDrawColor(30, 58, 138)
		pdf.SetLineWidth(0.5)
		pdf.Line(margin, y, pageWidth-margin, y)
	}})
}

// sectionHeader draws the tinted band with the section title.
func (g *Generator) sectionHeader(l *layout, pageWidth float64, title string) {
	l.add(block{height: 12, draw: func(pdf *gofpdf.Fpdf, y float64) {
		pdf.SetFillColor(241, 245, 249)
		pdf.Rect(margin, y, pageWidth-margin*2, 10, "F")
		pdf.SetTextColor(30, 58, 138)
		pdf.SetFont("Arial", "B", 14)
		pdf.Text(margin+5, y+7, title)
	}})
}

func (g *Generator) addPatientInfo(l *layout, pageWidth float64, patient *models.Patient) {
	g.sectionHeader(l, pageWidth, "Patient Information")

	col1 := margin + 5
	col2 := pageWidth / 2
	row := func(left, right string) {
		l.add(block{height: lineHeight, draw: func(pdf *gofpdf.Fpdf, y float64) {
			pdf.SetTextColor(0, 0, 0)
			pdf.SetFont("Arial", "", 11)
			pdf.Text(col1, y+5, left)
			if right != "" {
				pdf.Text(col2, y+5, right)
			}
		}})
	}

	row(fmt.Sprintf("Name: %s %s", patient.FirstName, patient.LastName),
		fmt.Sprintf("ID Number: %s", patient.IDNumber))
	row(fmt.Sprintf("Age: %d", patient.Age),
		fmt.Sprintf("Gender: %s", patient.Gender))
	row(fmt.Sprintf("Date: %s", patient.DateTime.Format("2006-01-02 15:04:05")), "")
}

// addTextSection emits a header plus one block per text line, so the page
// break check runs for every line and nothing gets clipped.
func (g *Generator) addTextSection(l *layout, pageWidth float64, title, text string) {
	g.sectionHeader(l, pageWidth, title)

	for _, line := range strings.Split(text, "\n") {
		line := line
		l.add(block{height: lineHeight, draw: func(pdf *gofpdf.Fpdf, y float64) {
			pdf.SetTextColor(0, 0, 0)
			pdf.SetFont("Arial", "", 11)
			pdf.Text(margin+5, y+5, line)
		}})
	}
}

// addImageSection embeds an image scaled to fit the bounding box while
// preserving aspect ratio. Decode failures skip the section.
func (g *Generator) addImageSection(l *layout, pdf *gofpdf.Fpdf, pageWidth float64, title, name string, data []byte) {
	imageType := sniffImageType(data)
	if imageType == "" {
		g.log.Error().Str("section", title).Msg("unsupported image format, skipping report section")
		return
	}

	opts := gofpdf.ImageOptions{ImageType: imageType}
	info := pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(data))
	if pdf.Err() {
		g.log.Error().Str("section", title).Str("error", pdf.Error().Error()).Msg("failed to decode image, skipping report section")
		pdf.ClearError()
		return
	}

	w, h := info.Extent()
	scale := maxImageWidth / w
	if s := maxImageHeight / h; s < scale {
		scale = s
	}
	drawW, drawH := w*scale, h*scale

	g.sectionHeader(l, pageWidth, title)
	l.add(block{height: drawH + 4, draw: func(pdf *gofpdf.Fpdf, y float64) {
		pdf.ImageOptions(name, (pageWidth-drawW)/2, y+2, drawW, drawH, false, opts, 0, "")
	}})
}

func (g *Generator) fetchScan(ctx context.Context, objectName string) ([]byte, error) {
	rc, err := g.blobs.Get(ctx, objectName)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("failed to read scan object: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("scan object %s is empty", objectName)
	}
	return data, nil
}

// sniffImageType maps detected content to the image type names gofpdf knows.
func sniffImageType(data []byte) string {
	switch http.DetectContentType(data) {
	case "image/png":
		return "PNG"
	case "image/jpeg":
		return "JPG"
	case "image/gif":
		return "GIF"
	}
	return ""
}
