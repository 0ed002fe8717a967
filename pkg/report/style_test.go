package report

import "testing"

func TestLevelForScore(t *testing.T) {
	tests := []struct {
		name  string
		score float64
		want  RiskLevel
	}{
		{"zero", 0, RiskSafe},
		{"just below caution", 29.9, RiskSafe},
		{"caution lower bound", 30, RiskCaution},
		{"mid caution", 45, RiskCaution},
		{"just below warning", 59.9, RiskCaution},
		{"warning lower bound", 60, RiskWarning},
		{"just below critical", 79.9, RiskWarning},
		{"critical lower bound", 80, RiskCritical},
		{"maximum", 100, RiskCritical},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := LevelForScore(tt.score); got != tt.want {
				t.Errorf("LevelForScore(%v) = %v, want %v", tt.score, got, tt.want)
			}
		})
	}
}

func TestHexToRGB(t *testing.T) {
	c := HexToRGB("#ff0000")
	if c.R != 1 || c.G != 0 || c.B != 0 {
		t.Errorf("HexToRGB(#ff0000) = %+v, want pure red", c)
	}
	c = HexToRGB("#000000")
	if c.R != 0 || c.G != 0 || c.B != 0 {
		t.Errorf("HexToRGB(#000000) = %+v, want black", c)
	}
}

func TestRGBString(t *testing.T) {
	c := RGB{R: 1, G: 0.5, B: 0}
	if got := c.String(); got != "1.000 0.500 0.000" {
		t.Errorf("String() = %q", got)
	}
}

func TestResolve(t *testing.T) {
	p := DefaultPalette()

	tests := []struct {
		name  string
		token StyleToken
		score float64
		want  RGB
	}{
		{"normal ignores score", TokenNormal, 99, p.Ink},
		{"muted", TokenMuted, 0, p.Muted},
		{"heading", TokenHeading, 0, p.Heading},
		{"risk low", TokenRisk, 10, p.Safe},
		{"risk caution", TokenRisk, 30, p.Caution},
		{"risk warning", TokenRisk, 60, p.Warning},
		{"risk critical", TokenRisk, 80, p.Critical},
		{"alert always critical", TokenAlert, 0, p.Critical},
		{"success always safe", TokenSuccess, 100, p.Safe},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := p.Resolve(tt.token, tt.score); got != tt.want {
				t.Errorf("Resolve(%s, %v) = %v, want %v", tt.token, tt.score, got, tt.want)
			}
		})
	}
}

func TestResolveIsDeterministic(t *testing.T) {
	p := DefaultPalette()
	first := p.Resolve(TokenRisk, 72.5)
	for i := 0; i < 5; i++ {
		if got := p.Resolve(TokenRisk, 72.5); got != first {
			t.Fatalf("Resolve returned %v after %v for identical input", got, first)
		}
	}
}
