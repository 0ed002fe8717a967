package report

import (
	"context"
	"fmt"
	"time"

	"github.com/ymehili/fraudcheck/pkg/analysis"
	"github.com/ymehili/fraudcheck/pkg/errors"
)

// Document is a fully laid out report, ready for serialization. It carries
// everything a sink needs; nothing downstream re-measures or re-flows.
type Document struct {
	Pages       []Page
	Geometry    Geometry
	Title       string
	Producer    string
	GeneratedAt time.Time
}

// Sink serializes a laid-out document to a file. The PDF sink in pkg/export
// is the production implementation.
type Sink interface {
	Write(doc *Document, path string) error
}

// Generator turns analysis records into report documents. A Generator is
// safe for concurrent use: each call works on its own layout state.
type Generator struct {
	Geometry Geometry
	Palette  Palette
	Producer string
	Sink     Sink

	// Now supplies the generation timestamp; tests pin it for
	// byte-identical output.
	Now func() time.Time
}

// NewGenerator returns a Generator with default geometry, palette, and
// producer name.
func NewGenerator(sink Sink) *Generator {
	return &Generator{
		Geometry: DefaultGeometry(),
		Palette:  DefaultPalette(),
		Producer: "FraudCheck Analysis Engine",
		Sink:     sink,
		Now:      time.Now,
	}
}

// DefaultFileName derives the output filename from the record identifier.
func DefaultFileName(rec *analysis.Record) string {
	return fmt.Sprintf("check-analysis-%s.pdf", rec.ShortID())
}

// Generate builds the complete document for rec: content blocks in fixed
// section order, flowed onto pages, footers stamped. It either returns the
// whole document or an error; there is no partial output.
func (g *Generator) Generate(rec *analysis.Record) (*Document, error) {
	if rec == nil {
		return nil, errors.RecordError(errors.CodeRecordMissing, "no analysis record supplied")
	}
	if err := rec.Validate(); err != nil {
		return nil, err
	}

	generatedAt := g.Now().UTC()
	blocks := BuildContent(rec)

	pages, err := LayoutDocument(blocks, g.Geometry, g.Palette, Footer{
		Producer:    g.Producer,
		GeneratedAt: generatedAt,
	})
	if err != nil {
		return nil, err
	}

	return &Document{
		Pages:       pages,
		Geometry:    g.Geometry,
		Title:       fmt.Sprintf("Check Fraud Analysis %s", rec.ShortID()),
		Producer:    g.Producer,
		GeneratedAt: generatedAt,
	}, nil
}

// Write generates the report and hands it to the sink. An empty fileName
// selects DefaultFileName.
func (g *Generator) Write(rec *analysis.Record, fileName string) (string, error) {
	doc, err := g.Generate(rec)
	if err != nil {
		return "", err
	}
	if fileName == "" {
		fileName = DefaultFileName(rec)
	}
	if err := g.Sink.Write(doc, fileName); err != nil {
		return "", err
	}
	return fileName, nil
}

// Result is the outcome of an asynchronous generation.
type Result struct {
	Path string
	Err  error
}

// GenerateAsync runs Write in the background and signals completion on the
// returned channel. The channel is buffered; the worker never blocks on a
// caller that walked away. Cancelling ctx before completion reports the
// context error instead.
func (g *Generator) GenerateAsync(ctx context.Context, rec *analysis.Record, fileName string) <-chan Result {
	out := make(chan Result, 1)
	go func() {
		defer close(out)

		done := make(chan Result, 1)
		go func() {
			path, err := g.Write(rec, fileName)
			done <- Result{Path: path, Err: err}
		}()

		select {
		case res := <-done:
			out <- res
		case <-ctx.Done():
			out <- Result{Err: ctx.Err()}
		}
	}()
	return out
}
