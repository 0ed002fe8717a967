package analysis

import (
	"testing"
	"time"

	"github.com/ymehili/fraudcheck/pkg/errors"
)

func TestDecode(t *testing.T) {
	data := []byte(`{
		"id": "an-20260831-7f3c9b2e",
		"createdAt": "2026-08-31T10:30:00Z",
		"processingMs": 1840,
		"riskScore": 85.5,
		"confidence": 0.92,
		"ocrFields": {"payee": "John Smith", "amountNumeric": "1,250.00"},
		"rules": {"violations": ["Signature mismatch", "Amount alteration detected"]}
	}`)

	rec, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	if rec.ID != "an-20260831-7f3c9b2e" {
		t.Errorf("unexpected id: %s", rec.ID)
	}
	if rec.RiskScore != 85.5 {
		t.Errorf("expected risk score 85.5, got %f", rec.RiskScore)
	}
	if rec.Forensics != nil {
		t.Error("expected nil forensics when absent from JSON")
	}
	if rec.OCRFields == nil || rec.OCRFields.Payee != "John Smith" {
		t.Error("expected OCR payee to decode")
	}
	if len(rec.Rules.Violations) != 2 {
		t.Errorf("expected 2 violations, got %d", len(rec.Rules.Violations))
	}
	if !rec.HasDuration() {
		t.Error("expected HasDuration true for processingMs 1840")
	}
}

func TestDecodeInvalidJSON(t *testing.T) {
	_, err := Decode([]byte(`{not json`))
	if err == nil {
		t.Fatal("expected error for invalid JSON")
	}
	if !errors.IsCode(err, errors.CodeRecordDecode) {
		t.Errorf("expected RECORD_DECODE, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		rec     Record
		wantErr bool
	}{
		{"valid", Record{ID: "a1", RiskScore: 50, Confidence: 0.5}, false},
		{"missing id", Record{RiskScore: 50, Confidence: 0.5}, true},
		{"score too high", Record{ID: "a1", RiskScore: 101, Confidence: 0.5}, true},
		{"score negative", Record{ID: "a1", RiskScore: -1, Confidence: 0.5}, true},
		{"confidence too high", Record{ID: "a1", RiskScore: 50, Confidence: 1.1}, true},
		{"boundary score 100", Record{ID: "a1", RiskScore: 100, Confidence: 1.0}, false},
		{"boundary score 0", Record{ID: "a1", RiskScore: 0, Confidence: 0}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.rec.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestShortID(t *testing.T) {
	tests := []struct {
		id   string
		want string
	}{
		{"an-20260831-7f3c9b2e", "7f3c9b2e"},
		{"short", "short"},
		{"12345678", "12345678"},
		{"", ""},
	}

	for _, tt := range tests {
		rec := Record{ID: tt.id}
		if got := rec.ShortID(); got != tt.want {
			t.Errorf("ShortID(%q) = %q, want %q", tt.id, got, tt.want)
		}
	}
}

func TestDecodeTimestamps(t *testing.T) {
	data := []byte(`{"id":"x1","createdAt":"2026-08-30T08:00:00Z","riskScore":10,"confidence":0.8}`)
	rec, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	want := time.Date(2026, 8, 30, 8, 0, 0, 0, time.UTC)
	if !rec.CreatedAt.Equal(want) {
		t.Errorf("expected %v, got %v", want, rec.CreatedAt)
	}
}
