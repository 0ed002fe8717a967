package report

import (
	"fmt"
	"time"

	"github.com/ymehili/fraudcheck/pkg/analysis"
)

// Fallback text for missing values inside a present sub-result. Absent
// sub-results produce no blocks at all; missing fields inside a present one
// always render a row with fallback text.
const (
	fallbackNotDetected = "Not detected"
	fallbackNA          = "N/A"
)

// HeadingLevel distinguishes the report title from section headings.
type HeadingLevel int

const (
	HeadingPrimary HeadingLevel = iota + 1
	HeadingSecondary
)

// Block is one abstract, styleless unit of report content. Blocks are
// generated in a fixed section order and never reordered during layout.
type Block interface {
	isBlock()
}

// Heading is a report or section title.
type Heading struct {
	Text  string
	Level HeadingLevel
}

// KeyValueRow is a labeled value. Long values wrap against the column width
// during layout.
type KeyValueRow struct {
	Label string
	Value string
	Token StyleToken // style for the value text
	Score float64    // numeric signal for TokenRisk
}

// BulletItem is a single bullet with its style token.
type BulletItem struct {
	Text  string
	Token StyleToken
}

// BulletList is an ordered sequence of bullets. Numbered lists render
// 1-based sequential prefixes; unnumbered lists render dash bullets.
type BulletList struct {
	Items    []BulletItem
	Numbered bool
}

// SummaryBox is the boxed executive summary: risk label, score, and a
// one-line caption. Fixed visual height.
type SummaryBox struct {
	Label   string
	Score   float64
	Caption string
}

// Divider is a fixed vertical spacer.
type Divider struct{}

func (Heading) isBlock()     {}
func (KeyValueRow) isBlock() {}
func (BulletList) isBlock()  {}
func (SummaryBox) isBlock()  {}
func (Divider) isBlock()     {}

// BuildContent converts an analysis record into the ordered block sequence.
// Section order is fixed: title, executive summary, analysis details,
// extracted fields (if OCR ran), forensic indicators (if forensics ran),
// rule violations and recommendations (if the rule stage ran). The builder
// performs no measurement and no styling beyond choosing tokens.
func BuildContent(rec *analysis.Record) []Block {
	blocks := []Block{
		Heading{Text: "Check Fraud Analysis Report", Level: HeadingPrimary},
		Divider{},
	}

	blocks = append(blocks, buildSummary(rec)...)
	blocks = append(blocks, buildDetails(rec)...)

	if rec.OCRFields != nil {
		blocks = append(blocks, buildOCRSection(rec.OCRFields)...)
	}
	if rec.Forensics != nil {
		blocks = append(blocks, buildForensicsSection(rec.Forensics)...)
	}
	if rec.Rules != nil {
		blocks = append(blocks, buildRulesSection(rec.Rules)...)
	}

	return blocks
}

func buildSummary(rec *analysis.Record) []Block {
	level := LevelForScore(rec.RiskScore)
	return []Block{
		SummaryBox{
			Label:   riskLabel(level),
			Score:   rec.RiskScore,
			Caption: fmt.Sprintf("Confidence %s", formatPercent(rec.Confidence)),
		},
		Divider{},
	}
}

func buildDetails(rec *analysis.Record) []Block {
	duration := fallbackNA
	if rec.HasDuration() {
		duration = formatDuration(rec.ProcessingMS)
	}

	return []Block{
		Heading{Text: "Analysis Details", Level: HeadingSecondary},
		KeyValueRow{Label: "Analysis ID", Value: rec.ID, Token: TokenNormal},
		KeyValueRow{Label: "Analyzed", Value: rec.CreatedAt.UTC().Format("2006-01-02 15:04:05 MST"), Token: TokenNormal},
		KeyValueRow{Label: "Processing Time", Value: duration, Token: TokenMuted},
		KeyValueRow{Label: "Risk Score", Value: formatScore(rec.RiskScore), Token: TokenRisk, Score: rec.RiskScore},
		KeyValueRow{Label: "Confidence", Value: formatPercent(rec.Confidence), Token: TokenNormal},
		Divider{},
	}
}

func buildOCRSection(f *analysis.OCRFields) []Block {
	row := func(label, value string) KeyValueRow {
		if value == "" {
			return KeyValueRow{Label: label, Value: fallbackNotDetected, Token: TokenMuted}
		}
		return KeyValueRow{Label: label, Value: value, Token: TokenNormal}
	}

	return []Block{
		Heading{Text: "Extracted Check Fields", Level: HeadingSecondary},
		row("Payee", f.Payee),
		// Amounts pass through exactly as printed on the check; no currency
		// symbol is invented here.
		row("Amount (written)", f.AmountText),
		row("Amount (numeric)", f.AmountNumeric),
		row("Date", f.Date),
		row("Check Number", f.CheckNumber),
		row("Routing Number", f.RoutingNumber),
		row("Account Number", f.AccountNumber),
		row("Bank", f.BankName),
		Divider{},
	}
}

func buildForensicsSection(f *analysis.Forensics) []Block {
	score := func(label string, v *float64) KeyValueRow {
		if v == nil {
			return KeyValueRow{Label: label, Value: fallbackNA, Token: TokenMuted}
		}
		return KeyValueRow{Label: label, Value: formatScore(*v), Token: TokenRisk, Score: *v}
	}

	metadata := KeyValueRow{Label: "Metadata Anomalies", Value: "None found", Token: TokenSuccess}
	if f.MetadataFlagged {
		metadata = KeyValueRow{Label: "Metadata Anomalies", Value: "Flagged", Token: TokenAlert}
	}

	return []Block{
		Heading{Text: "Forensic Indicators", Level: HeadingSecondary},
		score("Error Level Analysis", f.ELAScore),
		score("Noise Consistency", f.NoiseScore),
		score("Copy-Move Detection", f.CopyMoveScore),
		metadata,
		Divider{},
	}
}

func buildRulesSection(r *analysis.RuleResults) []Block {
	blocks := []Block{
		Heading{Text: "Rule Violations", Level: HeadingSecondary},
	}

	if len(r.Violations) == 0 {
		blocks = append(blocks, BulletList{
			Items: []BulletItem{{Text: "No violations detected", Token: TokenSuccess}},
		})
	} else {
		items := make([]BulletItem, len(r.Violations))
		for i, v := range r.Violations {
			items[i] = BulletItem{Text: v, Token: TokenAlert}
		}
		blocks = append(blocks, BulletList{Items: items, Numbered: true})
	}

	if len(r.Passed) > 0 {
		items := make([]BulletItem, len(r.Passed))
		for i, p := range r.Passed {
			items[i] = BulletItem{Text: p, Token: TokenMuted}
		}
		blocks = append(blocks,
			Heading{Text: "Passed Checks", Level: HeadingSecondary},
			BulletList{Items: items},
		)
	}

	blocks = append(blocks, Heading{Text: "Recommendations", Level: HeadingSecondary})
	if len(r.Recommendations) == 0 {
		blocks = append(blocks, BulletList{
			Items: []BulletItem{{Text: "No further action required", Token: TokenSuccess}},
		})
	} else {
		items := make([]BulletItem, len(r.Recommendations))
		for i, rec := range r.Recommendations {
			items[i] = BulletItem{Text: rec, Token: TokenNormal}
		}
		blocks = append(blocks, BulletList{Items: items})
	}

	return append(blocks, Divider{})
}

func riskLabel(level RiskLevel) string {
	switch level {
	case RiskCritical:
		return "CRITICAL RISK"
	case RiskWarning:
		return "HIGH RISK"
	case RiskCaution:
		return "ELEVATED RISK"
	default:
		return "LOW RISK"
	}
}

// formatScore renders a 0-100 score with one decimal place.
func formatScore(v float64) string {
	return fmt.Sprintf("%.1f/100", v)
}

// formatPercent renders a 0-1 fraction as a percentage with one decimal.
func formatPercent(v float64) string {
	return fmt.Sprintf("%.1f%%", v*100)
}

func formatDuration(ms int64) string {
	d := time.Duration(ms) * time.Millisecond
	if d < time.Second {
		return fmt.Sprintf("%d ms", ms)
	}
	return fmt.Sprintf("%.2fs", d.Seconds())
}
