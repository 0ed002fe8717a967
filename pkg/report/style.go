// Package report turns a check-fraud analysis record into a fixed-page,
// multi-page document: content blocks, greedy flow layout with page breaks,
// and positioned text runs ready for PDF export.
package report

import "fmt"

// RGB represents a color with components in range [0, 1].
type RGB struct {
	R, G, B float64
}

// String returns the PDF color operator string for stroke or fill.
func (c RGB) String() string {
	return fmt.Sprintf("%.3f %.3f %.3f", c.R, c.G, c.B)
}

// HexToRGB converts a hex color string to RGB.
func HexToRGB(hex string) RGB {
	if len(hex) > 0 && hex[0] == '#' {
		hex = hex[1:]
	}
	if len(hex) != 6 {
		return RGB{0, 0, 0} // Default to black on invalid input
	}

	var r, g, b int
	fmt.Sscanf(hex, "%02x%02x%02x", &r, &g, &b)
	return RGB{
		R: float64(r) / 255.0,
		G: float64(g) / 255.0,
		B: float64(b) / 255.0,
	}
}

// StyleToken is a semantic style request attached to a content block. The
// content model chooses tokens; the resolver maps them to concrete colors.
type StyleToken string

const (
	TokenNormal  StyleToken = "normal"  // body text
	TokenMuted   StyleToken = "muted"   // secondary/caption text
	TokenHeading StyleToken = "heading" // section headings
	TokenRisk    StyleToken = "risk"    // colored by the numeric risk score
	TokenAlert   StyleToken = "alert"   // always the critical color
	TokenSuccess StyleToken = "success" // always the safe color
)

// RiskLevel buckets a 0-100 risk score. Boundaries are inclusive lower
// bounds: exactly 30, 60, and 80 map to the higher-severity bucket.
type RiskLevel string

const (
	RiskSafe     RiskLevel = "safe"     // score < 30
	RiskCaution  RiskLevel = "caution"  // score in [30, 60)
	RiskWarning  RiskLevel = "warning"  // score in [60, 80)
	RiskCritical RiskLevel = "critical" // score >= 80
)

// LevelForScore buckets a risk score. The same thresholds apply everywhere a
// score is displayed.
func LevelForScore(score float64) RiskLevel {
	switch {
	case score >= 80:
		return RiskCritical
	case score >= 60:
		return RiskWarning
	case score >= 30:
		return RiskCaution
	default:
		return RiskSafe
	}
}

// Palette holds the concrete colors the resolver maps tokens onto.
type Palette struct {
	Ink      RGB // body text
	Muted    RGB // secondary text
	Heading  RGB // headings
	Safe     RGB
	Caution  RGB
	Warning  RGB
	Critical RGB
}

// DefaultPalette returns the standard report palette.
func DefaultPalette() Palette {
	return Palette{
		Ink:      RGB{0.10, 0.12, 0.16},
		Muted:    RGB{0.45, 0.47, 0.50},
		Heading:  RGB{0.12, 0.23, 0.37},
		Safe:     HexToRGB("#2e7d32"),
		Caution:  HexToRGB("#b58900"),
		Warning:  HexToRGB("#e67e22"),
		Critical: HexToRGB("#c0392b"),
	}
}

// RiskColor maps a score to its bucket color.
func (p Palette) RiskColor(score float64) RGB {
	switch LevelForScore(score) {
	case RiskCritical:
		return p.Critical
	case RiskWarning:
		return p.Warning
	case RiskCaution:
		return p.Caution
	default:
		return p.Safe
	}
}

// Resolve maps a style token plus an optional numeric signal to a concrete
// color. It is a pure function: same (token, score) always yields the same
// color.
func (p Palette) Resolve(token StyleToken, score float64) RGB {
	switch token {
	case TokenRisk:
		return p.RiskColor(score)
	case TokenAlert:
		return p.Critical
	case TokenSuccess:
		return p.Safe
	case TokenHeading:
		return p.Heading
	case TokenMuted:
		return p.Muted
	default:
		return p.Ink
	}
}
