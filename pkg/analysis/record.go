// Package analysis defines the check-fraud analysis record consumed by the
// report generator. Records arrive fully resolved from the backend analysis
// service; this package never performs forensic or OCR work itself.
package analysis

import (
	"encoding/json"
	"time"

	"github.com/ymehili/fraudcheck/pkg/errors"
)

// Record is one completed check-fraud analysis. Every sub-result is optional:
// a nil pointer means the backend skipped that stage entirely, and the report
// omits the corresponding section.
type Record struct {
	// ID is the backend's analysis identifier.
	ID string `json:"id"`

	// CreatedAt is when the analysis completed.
	CreatedAt time.Time `json:"createdAt"`

	// ProcessingMS is the backend processing duration in milliseconds.
	// Zero means the backend did not report a duration.
	ProcessingMS int64 `json:"processingMs,omitempty"`

	// RiskScore is the overall fraud risk on a 0-100 scale.
	RiskScore float64 `json:"riskScore"`

	// Confidence is the backend's confidence in the result, 0.0-1.0.
	Confidence float64 `json:"confidence"`

	// Forensics holds image-forensics sub-scores, if that stage ran.
	Forensics *Forensics `json:"forensics,omitempty"`

	// OCRFields holds fields extracted from the check image, if OCR ran.
	OCRFields *OCRFields `json:"ocrFields,omitempty"`

	// Rules holds rule-engine output, if the rule stage ran.
	Rules *RuleResults `json:"rules,omitempty"`
}

// Forensics holds the image-forensics sub-scores. Individual scores are
// pointers so "stage ran but metric unavailable" is distinguishable from zero.
type Forensics struct {
	ELAScore        *float64 `json:"elaScore,omitempty"`        // error level analysis, 0-100
	NoiseScore      *float64 `json:"noiseScore,omitempty"`      // noise inconsistency, 0-100
	CopyMoveScore   *float64 `json:"copyMoveScore,omitempty"`   // copy-move detection, 0-100
	MetadataFlagged bool     `json:"metadataFlagged,omitempty"` // EXIF/metadata anomalies present
}

// OCRFields holds the fields extracted from the check image. Empty strings
// mean the field was not detected; the report substitutes fallback text.
type OCRFields struct {
	Payee         string `json:"payee,omitempty"`
	AmountText    string `json:"amountText,omitempty"`    // written amount line
	AmountNumeric string `json:"amountNumeric,omitempty"` // courtesy box amount, as printed
	Date          string `json:"date,omitempty"`
	RoutingNumber string `json:"routingNumber,omitempty"`
	AccountNumber string `json:"accountNumber,omitempty"`
	CheckNumber   string `json:"checkNumber,omitempty"`
	BankName      string `json:"bankName,omitempty"`
}

// RuleResults holds rule-engine output in the order the backend produced it.
type RuleResults struct {
	Violations      []string `json:"violations,omitempty"`
	Passed          []string `json:"passed,omitempty"`
	Recommendations []string `json:"recommendations,omitempty"`
}

// ShortID returns the last 8 characters of the record ID, used in default
// artifact file names.
func (r *Record) ShortID() string {
	if len(r.ID) <= 8 {
		return r.ID
	}
	return r.ID[len(r.ID)-8:]
}

// HasDuration reports whether the backend supplied a processing duration.
func (r *Record) HasDuration() bool {
	return r.ProcessingMS > 0
}

// Decode parses a Record from backend JSON.
func Decode(data []byte) (*Record, error) {
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, errors.WrapRecord(err, errors.CodeRecordDecode, "failed to decode analysis record")
	}
	if err := rec.Validate(); err != nil {
		return nil, err
	}
	return &rec, nil
}

// Validate checks the invariants the report pipeline relies on. Missing
// optional sub-results are never an error.
func (r *Record) Validate() error {
	if r.ID == "" {
		return errors.RecordError(errors.CodeRecordInvalid, "analysis record has no id")
	}
	if r.RiskScore < 0 || r.RiskScore > 100 {
		return errors.RecordErrorf(errors.CodeRecordInvalid, "risk score %.2f outside 0-100", r.RiskScore)
	}
	if r.Confidence < 0 || r.Confidence > 1 {
		return errors.RecordErrorf(errors.CodeRecordInvalid, "confidence %.4f outside 0-1", r.Confidence)
	}
	return nil
}
