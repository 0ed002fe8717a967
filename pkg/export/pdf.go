// Package export serializes laid-out report documents into artifact files.
// The PDF writer emits PDF 1.4 directly: object list, xref table, trailer,
// with optional FlateDecode content streams and the built-in Helvetica fonts.
package export

import (
	"bytes"
	"compress/zlib"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ymehili/fraudcheck/pkg/errors"
	"github.com/ymehili/fraudcheck/pkg/report"
)

const (
	pdfVersion = "1.4"

	// Built-in Type1 fonts referenced by every page's resource dictionary.
	fontRegular = "/F1"
	fontBold    = "/F2"
)

// PDFSink writes report documents as PDF files. The zero value is usable;
// NewPDFSink enables compression.
type PDFSink struct {
	// Compress Flate-encodes content streams.
	Compress bool

	// Creator names the producing application in document metadata.
	Creator string
}

// NewPDFSink returns a sink with compression enabled.
func NewPDFSink() *PDFSink {
	return &PDFSink{Compress: true, Creator: "fraudcheck"}
}

// Build serializes doc into a complete PDF file. Output is deterministic:
// the creation date comes from doc.GeneratedAt, never the wall clock.
func (s *PDFSink) Build(doc *report.Document) ([]byte, error) {
	if doc == nil || len(doc.Pages) == 0 {
		return nil, errors.ExportError(errors.CodeExportBuild, "document has no pages")
	}

	pd := newPDFDocument(s.Compress)
	for _, page := range doc.Pages {
		pd.addPage(doc.Geometry.PageWidth, doc.Geometry.PageHeight,
			buildPageContent(page, doc.Geometry))
	}
	pd.info = s.buildInfoDict(doc)

	return pd.build(), nil
}

// Write builds the PDF and writes it to path atomically: the bytes go to a
// temp file in the destination directory which is renamed into place, so a
// failed generation never leaves a partial artifact behind.
func (s *PDFSink) Write(doc *report.Document, path string) error {
	data, err := s.Build(doc)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return errors.WrapExport(err, errors.CodeExportWrite, "failed to create temp file").
			WithContext("path", path)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return errors.WrapExport(err, errors.CodeExportWrite, "failed to write artifact").
			WithContext("path", path)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return errors.WrapExport(err, errors.CodeExportWrite, "failed to close artifact").
			WithContext("path", path)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return errors.WrapExport(err, errors.CodeExportWrite, "failed to move artifact into place").
			WithContext("path", path)
	}
	return nil
}

// buildPageContent emits the content stream for one page. Layout positions
// text from the top of the page; PDF's origin is bottom-left, so y flips
// here and nowhere else.
func buildPageContent(page report.Page, geom report.Geometry) string {
	var sb strings.Builder

	for _, r := range page.Rects {
		sb.WriteString("q\n")
		sb.WriteString(fmt.Sprintf("%s rg\n", r.Color.String()))
		sb.WriteString(fmt.Sprintf("%.2f %.2f %.2f %.2f re f\n",
			r.X, geom.PageHeight-r.Y-r.H, r.W, r.H))
		sb.WriteString("Q\n")
	}

	for _, run := range page.Runs {
		font := fontRegular
		if run.Bold {
			font = fontBold
		}
		sb.WriteString("BT\n")
		sb.WriteString(fmt.Sprintf("%s %.2f Tf\n", font, run.FontSize))
		sb.WriteString(fmt.Sprintf("%s rg\n", run.Color.String()))
		sb.WriteString(fmt.Sprintf("%.2f %.2f Td\n", run.X, geom.PageHeight-run.Y))
		sb.WriteString(fmt.Sprintf("(%s) Tj\n", escapePDFString(run.Text)))
		sb.WriteString("ET\n")
	}

	return sb.String()
}

func (s *PDFSink) buildInfoDict(doc *report.Document) string {
	var sb strings.Builder
	sb.WriteString("<<\n")
	if doc.Title != "" {
		sb.WriteString(fmt.Sprintf("/Title (%s)\n", escapePDFString(doc.Title)))
	}
	sb.WriteString(fmt.Sprintf("/Producer (%s)\n", escapePDFString(doc.Producer)))
	if s.Creator != "" {
		sb.WriteString(fmt.Sprintf("/Creator (%s)\n", escapePDFString(s.Creator)))
	}

	// PDF date format: D:YYYYMMDDHHmmSS
	dateStr := doc.GeneratedAt.UTC().Format("D:20060102150405Z")
	sb.WriteString(fmt.Sprintf("/CreationDate (%s)\n", dateStr))
	sb.WriteString(fmt.Sprintf("/ModDate (%s)\n", dateStr))
	sb.WriteString(">>")
	return sb.String()
}

// escapePDFString escapes special characters for PDF text strings.
func escapePDFString(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "(", "\\(")
	s = strings.ReplaceAll(s, ")", "\\)")
	return s
}

// -----------------------------------------------------------------------------
// PDF Document Builder (Internal)
// -----------------------------------------------------------------------------

// Reserved object numbers: 1 catalog, 2 pages, 3 regular font, 4 bold font.
const reservedObjects = 4

// pdfDocument accumulates page objects and assembles the final file.
type pdfDocument struct {
	compress  bool
	objects   []string
	pages     []int
	pageCount int
	info      string
}

func newPDFDocument(compress bool) *pdfDocument {
	return &pdfDocument{
		compress: compress,
		objects:  make([]string, 0),
		pages:    make([]int, 0),
	}
}

// addObject adds an object and returns its number relative to the reserved
// block.
func (pd *pdfDocument) addObject(content string) int {
	pd.objects = append(pd.objects, content)
	return len(pd.objects)
}

// addPage adds a page with the given dimensions and content stream.
func (pd *pdfDocument) addPage(width, height float64, content string) {
	pd.pageCount++

	var streamData []byte
	var filter string
	if pd.compress {
		var buf bytes.Buffer
		w := zlib.NewWriter(&buf)
		w.Write([]byte(content))
		w.Close()
		streamData = buf.Bytes()
		filter = "/Filter /FlateDecode\n"
	} else {
		streamData = []byte(content)
	}

	streamObj := fmt.Sprintf("<< /Length %d\n%s>>\nstream\n%sendstream",
		len(streamData), filter, streamData)
	streamObjNum := pd.addObject(streamObj)

	pageObj := fmt.Sprintf("<< /Type /Page\n/Parent 2 0 R\n/MediaBox [0 0 %.2f %.2f]\n/Contents %d 0 R\n/Resources << /Font << %s 3 0 R %s 4 0 R >> >>\n>>",
		width, height, streamObjNum+reservedObjects, fontRegular, fontBold)
	pageObjNum := pd.addObject(pageObj)

	pd.pages = append(pd.pages, pageObjNum)
}

// build assembles the complete PDF file: header, objects, xref, trailer.
func (pd *pdfDocument) build() []byte {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("%%PDF-%s\n", pdfVersion))
	buf.WriteString("%\xE2\xE3\xCF\xD3\n") // binary marker

	var kids strings.Builder
	kids.WriteString("[")
	for i, pageNum := range pd.pages {
		if i > 0 {
			kids.WriteString(" ")
		}
		kids.WriteString(fmt.Sprintf("%d 0 R", pageNum+reservedObjects))
	}
	kids.WriteString("]")

	finalObjects := []string{
		"<< /Type /Catalog\n/Pages 2 0 R\n>>",
		fmt.Sprintf("<< /Type /Pages\n/Kids %s\n/Count %d\n>>", kids.String(), pd.pageCount),
		"<< /Type /Font\n/Subtype /Type1\n/BaseFont /Helvetica\n/Encoding /WinAnsiEncoding\n>>",
		"<< /Type /Font\n/Subtype /Type1\n/BaseFont /Helvetica-Bold\n/Encoding /WinAnsiEncoding\n>>",
	}
	finalObjects = append(finalObjects, pd.objects...)

	infoObjNum := 0
	if pd.info != "" {
		finalObjects = append(finalObjects, pd.info)
		infoObjNum = len(finalObjects)
	}

	xref := make([]int, len(finalObjects)+1)
	for i, obj := range finalObjects {
		xref[i+1] = buf.Len()
		buf.WriteString(fmt.Sprintf("%d 0 obj\n%s\nendobj\n", i+1, obj))
	}

	xrefPos := buf.Len()
	buf.WriteString("xref\n")
	buf.WriteString(fmt.Sprintf("0 %d\n", len(finalObjects)+1))
	buf.WriteString("0000000000 65535 f \n")
	for i := 1; i <= len(finalObjects); i++ {
		buf.WriteString(fmt.Sprintf("%010d 00000 n \n", xref[i]))
	}

	buf.WriteString("trailer\n")
	buf.WriteString(fmt.Sprintf("<< /Size %d\n/Root 1 0 R\n", len(finalObjects)+1))
	if infoObjNum > 0 {
		buf.WriteString(fmt.Sprintf("/Info %d 0 R\n", infoObjNum))
	}
	buf.WriteString(">>\n")
	buf.WriteString("startxref\n")
	buf.WriteString(fmt.Sprintf("%d\n", xrefPos))
	buf.WriteString("%%EOF\n")

	return buf.Bytes()
}
