package report

import (
	"fmt"
	"time"

	"github.com/ymehili/fraudcheck/pkg/errors"
)

// Page geometry in PDF points. US Letter portrait by default.
type Geometry struct {
	PageWidth  float64 `yaml:"page_width"`
	PageHeight float64 `yaml:"page_height"`
	Margin     float64 `yaml:"margin"`
}

// DefaultGeometry returns US Letter with a 0.75 inch margin on all sides.
func DefaultGeometry() Geometry {
	return Geometry{PageWidth: 612, PageHeight: 792, Margin: 54}
}

// ContentWidth is the horizontal space available to content.
func (g Geometry) ContentWidth() float64 {
	return g.PageWidth - 2*g.Margin
}

// contentBottom is the lowest cursor position (measured from the page top)
// content may normally reach.
func (g Geometry) contentBottom() float64 {
	return g.PageHeight - g.Margin
}

// Layout constants. Sizes in points.
const (
	bodyFontSize    = 10.0
	captionFontSize = 8.0
	lineHeight      = 15.0

	headingPrimarySize     = 18.0
	headingPrimaryHeight   = 28.0
	headingSecondarySize   = 13.0
	headingSecondaryHeight = 20.0

	summaryBoxHeight = 70.0
	dividerHeight    = 12.0

	kvLabelWidth = 150.0
	bulletIndent = 16.0
)

// PositionedTextRun is one fully resolved piece of text: location, color,
// font. Y is measured from the top of the page; the sink converts to the
// output coordinate system.
type PositionedTextRun struct {
	Text     string
	X, Y     float64
	Color    RGB
	FontSize float64
	Bold     bool
}

// Rect is a filled rectangle (accent bars, rules). Y is from the page top.
type Rect struct {
	X, Y, W, H float64
	Color      RGB
}

// Page holds the resolved runs and rectangles for one output page.
type Page struct {
	Runs  []PositionedTextRun
	Rects []Rect
}

// Footer describes the fixed line placed at the bottom of every page after
// pagination completes.
type Footer struct {
	Producer    string
	GeneratedAt time.Time
}

// wrapLayoutErr normalizes measurement and flow failures to the structured
// error type so callers can branch on category.
func wrapLayoutErr(err error) *errors.FraudCheckError {
	if fe, ok := errors.AsFraudCheckError(err); ok {
		return fe
	}
	return errors.WrapLayout(err, errors.CodeLayoutFlow, "layout failed")
}

// layoutState carries the cursor for a single layout invocation. A fresh
// state per document keeps concurrent generation safe.
type layoutState struct {
	geom    Geometry
	palette Palette
	pages   []*Page
	cur     *Page
	y       float64
}

// LayoutDocument flows blocks onto pages in a single greedy pass: each block
// is measured, the cursor advanced or a page break taken, then the block is
// emitted at its final position. Blocks are never reordered or revisited.
// The footer pass runs after pagination so "Page n of total" can name the
// final count.
func LayoutDocument(blocks []Block, geom Geometry, palette Palette, footer Footer) ([]Page, error) {
	st := &layoutState{geom: geom, palette: palette}
	st.newPage()

	for i, b := range blocks {
		if err := st.place(b); err != nil {
			return nil, err.WithContext("block", fmt.Sprintf("%d", i))
		}
	}

	pages := st.finalize()
	if err := addFooters(pages, geom, palette, footer); err != nil {
		return nil, err
	}
	return pages, nil
}

func (st *layoutState) newPage() {
	st.cur = &Page{}
	st.pages = append(st.pages, st.cur)
	st.y = st.geom.Margin
}

func (st *layoutState) pageHasContent() bool {
	return len(st.cur.Runs) > 0 || len(st.cur.Rects) > 0
}

// ensureSpace breaks to a fresh page when the needed height does not fit.
// A block taller than an entire empty page is not broken further: it starts
// on a fresh page and is allowed to run past the bottom margin, so content
// is never silently dropped.
func (st *layoutState) ensureSpace(needed float64) {
	if st.y+needed <= st.geom.contentBottom() {
		return
	}
	if st.pageHasContent() {
		st.newPage()
	}
}

// finalize drops any trailing empty page left by a break at the very end.
func (st *layoutState) finalize() []Page {
	out := make([]Page, 0, len(st.pages))
	for _, p := range st.pages {
		if len(p.Runs) > 0 || len(p.Rects) > 0 {
			out = append(out, *p)
		}
	}
	return out
}

func (st *layoutState) run(text string, x float64, color RGB, size float64, bold bool) {
	st.cur.Runs = append(st.cur.Runs, PositionedTextRun{
		Text:     text,
		X:        x,
		Y:        st.y,
		Color:    color,
		FontSize: size,
		Bold:     bold,
	})
}

func (st *layoutState) place(b Block) *errors.FraudCheckError {
	switch v := b.(type) {
	case Heading:
		return st.placeHeading(v)
	case KeyValueRow:
		return st.placeKeyValue(v)
	case BulletList:
		return st.placeBulletList(v)
	case SummaryBox:
		return st.placeSummaryBox(v)
	case Divider:
		st.placeDivider()
		return nil
	default:
		return wrapLayoutErr(fmt.Errorf("unknown block type %T", b))
	}
}

func (st *layoutState) placeHeading(h Heading) *errors.FraudCheckError {
	size, height := headingSecondarySize, headingSecondaryHeight
	if h.Level == HeadingPrimary {
		size, height = headingPrimarySize, headingPrimaryHeight
	}

	lines, err := WrapText(h.Text, size, true, st.geom.ContentWidth())
	if err != nil {
		return wrapLayoutErr(err)
	}

	needed := float64(len(lines)) * height
	st.ensureSpace(needed)

	color := st.palette.Resolve(TokenHeading, 0)
	for _, line := range lines {
		st.y += height * 0.75 // baseline sits inside the band
		st.run(line, st.geom.Margin, color, size, true)
		st.y += height * 0.25
	}
	return nil
}

func (st *layoutState) placeKeyValue(kv KeyValueRow) *errors.FraudCheckError {
	valueWidth := st.geom.ContentWidth() - kvLabelWidth
	lines, err := WrapText(kv.Value, bodyFontSize, false, valueWidth)
	if err != nil {
		return wrapLayoutErr(err)
	}

	needed := float64(len(lines)) * lineHeight
	st.ensureSpace(needed)

	labelColor := st.palette.Resolve(TokenNormal, 0)
	valueColor := st.palette.Resolve(kv.Token, kv.Score)

	for i, line := range lines {
		st.y += lineHeight * 0.75
		if i == 0 {
			st.run(kv.Label, st.geom.Margin, labelColor, bodyFontSize, true)
		}
		st.run(line, st.geom.Margin+kvLabelWidth, valueColor, bodyFontSize, false)
		st.y += lineHeight * 0.25
	}
	return nil
}

func (st *layoutState) placeBulletList(bl BulletList) *errors.FraudCheckError {
	textWidth := st.geom.ContentWidth() - bulletIndent

	// The list is one block: measure every bullet first, take the space
	// decision once, then emit. A list that does not fit moves whole to a
	// fresh page; one taller than a page overflows rather than splitting.
	wrapped := make([][]string, len(bl.Items))
	var totalLines int
	for i, item := range bl.Items {
		lines, err := WrapText(item.Text, bodyFontSize, false, textWidth)
		if err != nil {
			return wrapLayoutErr(err)
		}
		wrapped[i] = lines
		totalLines += len(lines)
	}

	st.ensureSpace(float64(totalLines) * lineHeight)

	for i, item := range bl.Items {
		prefix := "-"
		if bl.Numbered {
			prefix = fmt.Sprintf("%d.", i+1)
		}

		color := st.palette.Resolve(item.Token, 0)
		for j, line := range wrapped[i] {
			st.y += lineHeight * 0.75
			if j == 0 {
				st.run(prefix, st.geom.Margin, color, bodyFontSize, false)
			}
			st.run(line, st.geom.Margin+bulletIndent, color, bodyFontSize, false)
			st.y += lineHeight * 0.25
		}
	}
	return nil
}

func (st *layoutState) placeSummaryBox(sb SummaryBox) *errors.FraudCheckError {
	st.ensureSpace(summaryBoxHeight)

	accent := st.palette.RiskColor(sb.Score)
	top := st.y

	// Left accent bar keyed to the risk level.
	st.cur.Rects = append(st.cur.Rects, Rect{
		X: st.geom.Margin, Y: top, W: 4, H: summaryBoxHeight, Color: accent,
	})

	textX := st.geom.Margin + 14

	st.y = top + 24
	st.run(sb.Label, textX, accent, 16, true)

	st.y = top + 44
	st.run(fmt.Sprintf("Risk Score: %s", formatScore(sb.Score)), textX,
		st.palette.Resolve(TokenNormal, 0), 12, true)

	st.y = top + 60
	st.run(sb.Caption, textX, st.palette.Resolve(TokenMuted, 0), bodyFontSize, false)

	st.y = top + summaryBoxHeight
	return nil
}

func (st *layoutState) placeDivider() {
	st.ensureSpace(dividerHeight)
	st.cur.Rects = append(st.cur.Rects, Rect{
		X:     st.geom.Margin,
		Y:     st.y + dividerHeight/2,
		W:     st.geom.ContentWidth(),
		H:     0.5,
		Color: RGB{R: 0.8, G: 0.8, B: 0.8},
	})
	st.y += dividerHeight
}

// addFooters stamps every page once the final count is known. The footer
// sits inside the bottom margin and never collides with flowed content.
func addFooters(pages []Page, geom Geometry, palette Palette, footer Footer) *errors.FraudCheckError {
	total := len(pages)
	muted := palette.Resolve(TokenMuted, 0)
	y := geom.PageHeight - geom.Margin/2

	left := footer.Producer
	if !footer.GeneratedAt.IsZero() {
		left = fmt.Sprintf("%s - %s", footer.Producer,
			footer.GeneratedAt.UTC().Format("2006-01-02 15:04 MST"))
	}

	for i := range pages {
		label := fmt.Sprintf("Page %d of %d", i+1, total)
		w, err := StringWidth(label, captionFontSize, false)
		if err != nil {
			return wrapLayoutErr(err)
		}

		pages[i].Runs = append(pages[i].Runs,
			PositionedTextRun{
				Text: left, X: geom.Margin, Y: y,
				Color: muted, FontSize: captionFontSize,
			},
			PositionedTextRun{
				Text: label, X: geom.PageWidth - geom.Margin - w, Y: y,
				Color: muted, FontSize: captionFontSize,
			},
		)
	}
	return nil
}
