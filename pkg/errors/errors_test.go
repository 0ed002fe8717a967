package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	err := New("TEST_CODE", CategoryLayout, "something went wrong")

	if err.Code != "TEST_CODE" {
		t.Errorf("expected code 'TEST_CODE', got '%s'", err.Code)
	}
	if err.Category != CategoryLayout {
		t.Errorf("expected category layout, got '%s'", err.Category)
	}
	if err.Message != "something went wrong" {
		t.Errorf("unexpected message: %s", err.Message)
	}
	if err.Context == nil {
		t.Error("expected non-nil context map")
	}
}

func TestErrorString(t *testing.T) {
	err := New("LAYOUT_MEASURE", CategoryLayout, "unsupported character")
	want := "LAYOUT_MEASURE: unsupported character"
	if err.Error() != want {
		t.Errorf("expected %q, got %q", want, err.Error())
	}

	wrapped := Wrap(fmt.Errorf("rune U+00E9"), "LAYOUT_MEASURE", CategoryLayout, "unsupported character")
	if !strings.Contains(wrapped.Error(), "rune U+00E9") {
		t.Errorf("expected cause in error string, got %q", wrapped.Error())
	}
}

func TestUnwrap(t *testing.T) {
	cause := fmt.Errorf("disk full")
	err := ExportError(CodeExportWrite, "failed to write artifact").WithCause(cause)

	if !stderrors.Is(err, cause) {
		t.Error("expected errors.Is to find the cause")
	}
}

func TestIsMatchesByCode(t *testing.T) {
	a := LayoutError(CodeLayoutMeasure, "one message")
	b := LayoutError(CodeLayoutMeasure, "different message")
	c := ExportError(CodeExportWrite, "other code")

	if !stderrors.Is(a, b) {
		t.Error("errors with same code should match")
	}
	if stderrors.Is(a, c) {
		t.Error("errors with different codes should not match")
	}
}

func TestWithContext(t *testing.T) {
	err := LayoutError(CodeLayoutMeasure, "unsupported character").
		WithContext("rune", "U+263A").
		WithContext("block", "key_value_row")

	if len(err.Context) != 2 {
		t.Errorf("expected 2 context entries, got %d", len(err.Context))
	}
	if err.Context["rune"] != "U+263A" {
		t.Errorf("unexpected context value: %s", err.Context["rune"])
	}
	if !strings.Contains(err.ContextString(), "block=") {
		t.Errorf("expected block key in context string, got %q", err.ContextString())
	}
}

func TestCategoryChecks(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		isLayout bool
		isExport bool
	}{
		{"layout error", LayoutError(CodeLayoutMeasure, "m"), true, false},
		{"export error", ExportError(CodeExportWrite, "w"), false, true},
		{"record error", RecordError(CodeRecordDecode, "d"), false, false},
		{"plain error", fmt.Errorf("plain"), false, false},
		{"nil", nil, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsLayout(tt.err); got != tt.isLayout {
				t.Errorf("IsLayout = %v, want %v", got, tt.isLayout)
			}
			if got := IsExport(tt.err); got != tt.isExport {
				t.Errorf("IsExport = %v, want %v", got, tt.isExport)
			}
		})
	}
}

func TestIsCode(t *testing.T) {
	err := ExportError(CodeExportWrite, "write failed")

	if !IsCode(err, CodeExportWrite) {
		t.Error("expected IsCode to match")
	}
	if IsCode(err, CodeExportBuild) {
		t.Error("expected IsCode not to match a different code")
	}
	if IsCode(fmt.Errorf("plain"), CodeExportWrite) {
		t.Error("plain errors should never match")
	}
}

func TestErrorfConstructors(t *testing.T) {
	err := LayoutErrorf(CodeLayoutMeasure, "unsupported rune %q at index %d", 'é', 4)
	if !strings.Contains(err.Message, "index 4") {
		t.Errorf("formatted message missing args: %s", err.Message)
	}
	if err.Category != CategoryLayout {
		t.Errorf("expected layout category, got %s", err.Category)
	}
}
