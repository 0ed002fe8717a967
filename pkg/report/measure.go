package report

import (
	"strings"

	"github.com/ymehili/fraudcheck/pkg/errors"
)

// Text measurement uses the standard Helvetica advance widths (1000ths of an
// em), so wrapping decisions match what a PDF viewer will render for the
// built-in Type1 fonts. Runes outside the supported set fail measurement and
// abort the whole generation; partial documents are never produced.

// runeWidth returns the advance width of r in 1000ths of an em.
func runeWidth(r rune, bold bool) (float64, bool) {
	if bold {
		if w, ok := helveticaBoldWidths[r]; ok {
			return w, true
		}
		return 0, false
	}
	if w, ok := helveticaWidths[r]; ok {
		return w, true
	}
	return 0, false
}

// StringWidth measures s rendered at the given font size in points.
// Returns a LAYOUT_MEASURE error if s contains an unsupported rune.
func StringWidth(s string, size float64, bold bool) (float64, error) {
	var total float64
	for i, r := range s {
		w, ok := runeWidth(r, bold)
		if !ok {
			return 0, errors.LayoutErrorf(errors.CodeLayoutMeasure,
				"unsupported character %q at byte %d", r, i).
				WithContext("text", truncateForContext(s))
		}
		total += w
	}
	return total * size / 1000.0, nil
}

// WrapText greedily wraps s into lines no wider than maxWidth points at the
// given font size. Words are split on single spaces, so joining the returned
// lines with " " reconstructs the original text. A single word wider than
// maxWidth is split at rune boundaries rather than overflowing the column.
func WrapText(s string, size float64, bold bool, maxWidth float64) ([]string, error) {
	if s == "" {
		return []string{""}, nil
	}

	spaceW, err := StringWidth(" ", size, bold)
	if err != nil {
		return nil, err
	}

	var lines []string
	var line strings.Builder
	var lineW float64

	flush := func() {
		lines = append(lines, line.String())
		line.Reset()
		lineW = 0
	}

	for _, word := range strings.Split(s, " ") {
		wordW, err := StringWidth(word, size, bold)
		if err != nil {
			return nil, err
		}

		// Hard-split a word that can never fit on its own line.
		if wordW > maxWidth {
			if line.Len() > 0 {
				flush()
			}
			for _, frag := range splitWord(word, size, bold, maxWidth) {
				fragW, _ := StringWidth(frag, size, bold)
				if line.Len() > 0 {
					flush()
				}
				line.WriteString(frag)
				lineW = fragW
			}
			continue
		}

		needed := wordW
		if line.Len() > 0 {
			needed += spaceW
		}
		if lineW+needed > maxWidth && line.Len() > 0 {
			flush()
			needed = wordW
		}
		if line.Len() > 0 {
			line.WriteString(" ")
		}
		line.WriteString(word)
		lineW += needed
	}
	flush()

	return lines, nil
}

// splitWord breaks a single oversized word into fragments that each fit in
// maxWidth. Measurement errors cannot occur here: the caller already measured
// the whole word.
func splitWord(word string, size float64, bold bool, maxWidth float64) []string {
	var frags []string
	var frag strings.Builder
	var fragW float64

	for _, r := range word {
		w, _ := runeWidth(r, bold)
		rw := w * size / 1000.0
		if fragW+rw > maxWidth && frag.Len() > 0 {
			frags = append(frags, frag.String())
			frag.Reset()
			fragW = 0
		}
		frag.WriteRune(r)
		fragW += rw
	}
	if frag.Len() > 0 {
		frags = append(frags, frag.String())
	}
	return frags
}

func truncateForContext(s string) string {
	if len(s) <= 40 {
		return s
	}
	return s[:37] + "..."
}

// Helvetica advance widths (1000ths of an em) for the printable ASCII range.
var helveticaWidths = map[rune]float64{
	' ': 278, '!': 278, '"': 355, '#': 556, '$': 556, '%': 889, '&': 667,
	'\'': 191, '(': 333, ')': 333, '*': 389, '+': 584, ',': 278, '-': 333,
	'.': 278, '/': 278,
	'0': 556, '1': 556, '2': 556, '3': 556, '4': 556,
	'5': 556, '6': 556, '7': 556, '8': 556, '9': 556,
	':': 278, ';': 278, '<': 584, '=': 584, '>': 584, '?': 556, '@': 1015,
	'A': 667, 'B': 667, 'C': 722, 'D': 722, 'E': 667, 'F': 611, 'G': 778,
	'H': 722, 'I': 278, 'J': 500, 'K': 667, 'L': 556, 'M': 833, 'N': 722,
	'O': 778, 'P': 667, 'Q': 778, 'R': 722, 'S': 667, 'T': 611, 'U': 722,
	'V': 667, 'W': 944, 'X': 667, 'Y': 667, 'Z': 611,
	'[': 278, '\\': 278, ']': 278, '^': 469, '_': 556, '`': 333,
	'a': 556, 'b': 556, 'c': 500, 'd': 556, 'e': 556, 'f': 278, 'g': 556,
	'h': 556, 'i': 222, 'j': 222, 'k': 500, 'l': 222, 'm': 833, 'n': 556,
	'o': 556, 'p': 556, 'q': 556, 'r': 333, 's': 500, 't': 278, 'u': 556,
	'v': 500, 'w': 722, 'x': 500, 'y': 500, 'z': 500,
	'{': 334, '|': 260, '}': 334, '~': 584,
}

// Helvetica-Bold advance widths for the printable ASCII range.
var helveticaBoldWidths = map[rune]float64{
	' ': 278, '!': 333, '"': 474, '#': 556, '$': 556, '%': 889, '&': 722,
	'\'': 238, '(': 333, ')': 333, '*': 389, '+': 584, ',': 278, '-': 333,
	'.': 278, '/': 278,
	'0': 556, '1': 556, '2': 556, '3': 556, '4': 556,
	'5': 556, '6': 556, '7': 556, '8': 556, '9': 556,
	':': 333, ';': 333, '<': 584, '=': 584, '>': 584, '?': 611, '@': 975,
	'A': 722, 'B': 722, 'C': 722, 'D': 722, 'E': 667, 'F': 611, 'G': 778,
	'H': 722, 'I': 278, 'J': 556, 'K': 722, 'L': 611, 'M': 833, 'N': 722,
	'O': 778, 'P': 667, 'Q': 778, 'R': 722, 'S': 667, 'T': 611, 'U': 722,
	'V': 667, 'W': 944, 'X': 667, 'Y': 667, 'Z': 611,
	'[': 333, '\\': 278, ']': 333, '^': 584, '_': 556, '`': 333,
	'a': 556, 'b': 611, 'c': 556, 'd': 611, 'e': 556, 'f': 333, 'g': 611,
	'h': 611, 'i': 278, 'j': 278, 'k': 556, 'l': 278, 'm': 889, 'n': 611,
	'o': 611, 'p': 611, 'q': 611, 'r': 389, 's': 556, 't': 333, 'u': 611,
	'v': 556, 'w': 778, 'x': 556, 'y': 556, 'z': 500,
	'{': 389, '|': 280, '}': 389, '~': 584,
}
