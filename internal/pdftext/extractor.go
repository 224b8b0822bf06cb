// Package pdftext reads page counts and page text from PDF files.
//
// Page counts come from pdfcpu, which validates the document structure; text
// comes from ledongthuc/pdf, reconstructed row by row so that each visual line
// of the page becomes one line of text.
package pdftext

import (
	"bytes"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/rs/zerolog"
)

// Extractor implements rename.TextSource for PDF files on disk.
type Extractor struct {
	conf   *model.Configuration
	logger zerolog.Logger
}

// New creates an Extractor with relaxed pdfcpu validation. pdfcpu's on-disk
// configuration directory is disabled.
func New(logger zerolog.Logger) *Extractor {
	api.DisableConfigDir()
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return &Extractor{conf: conf, logger: logger}
}

// PageCount returns the number of pages in the document at path.
// When pdfcpu rejects the file, the count reported by the text reader is used.
func (e *Extractor) PageCount(path string) (n int, err error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	n, cpuErr := api.PageCount(f, e.conf)
	if cpuErr == nil {
		return n, nil
	}

	e.logger.Debug().Err(cpuErr).Str("path", path).Msg("pdfcpu page count failed, falling back to text reader")

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("read %s: %v", path, r)
		}
	}()

	tf, r, err := pdf.Open(path)
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", path, err)
	}
	defer tf.Close()

	return r.NumPage(), nil
}

// PageText returns the text of one page, one visual row per line, top to
// bottom. An empty string means the page carries no extractable text.
func (e *Extractor) PageText(path string, page int) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("extract text from %s: %v", path, r)
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	if page < 1 || page > r.NumPage() {
		return "", fmt.Errorf("page %d out of range (document has %d)", page, r.NumPage())
	}

	p := r.Page(page)
	if p.V.IsNull() {
		return "", nil
	}

	rows, err := p.GetTextByRow()
	if err != nil {
		// Row grouping needs positioned glyphs; plain extraction does not.
		return p.GetPlainText(nil)
	}
	return joinRows(rows), nil
}

// joinRows orders rows from the top of the page down (PDF y grows upwards)
// and renders each row as a single line.
func joinRows(rows pdf.Rows) string {
	sorted := make([]*pdf.Row, 0, len(rows))
	for _, row := range rows {
		if row != nil && len(row.Content) > 0 {
			sorted = append(sorted, row)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Position > sorted[j].Position
	})

	var buf bytes.Buffer
	for _, row := range sorted {
		line := rowText(row.Content)
		if strings.TrimSpace(line) == "" {
			continue
		}
		buf.WriteString(line)
		buf.WriteByte('\n')
	}
	return buf.String()
}

// rowText concatenates the glyph runs of a row left to right, inserting a
// space where the gap between runs exceeds a fifth of the font size.
func rowText(content pdf.TextHorizontal) string {
	texts := make([]pdf.Text, len(content))
	copy(texts, content)
	sort.SliceStable(texts, func(i, j int) bool { return texts[i].X < texts[j].X })

	var sb strings.Builder
	for i, t := range texts {
		if i > 0 {
			prev := texts[i-1]
			size := prev.FontSize
			if size <= 0 {
				size = 12
			}
			if t.X-(prev.X+prev.W) > size*0.2 && !strings.HasSuffix(prev.S, " ") && !strings.HasPrefix(t.S, " ") {
				sb.WriteByte(' ')
			}
		}
		sb.WriteString(t.S)
	}
	return sb.String()
}
