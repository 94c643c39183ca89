package domain

import (
	"bytes"
	"fmt"
	"strings"
)

// Separator is the field delimiter of an output file.
type Separator string

const (
	SeparatorComma Separator = "comma"
	SeparatorTab   Separator = "tab"
)

// ParseSeparator accepts "comma" or "tab".
func ParseSeparator(s string) (Separator, error) {
	switch sep := Separator(strings.ToLower(strings.TrimSpace(s))); sep {
	case SeparatorComma, SeparatorTab:
		return sep, nil
	default:
		return "", fmt.Errorf("%w: separator %q (allowed: comma, tab)", ErrInvalidInput, s)
	}
}

// Delimiter returns the character written between fields.
func (s Separator) Delimiter() string {
	if s == SeparatorTab {
		return "\t"
	}
	return ","
}

// Render writes the column-name line, the unit line, and one line per row,
// all joined by the separator's delimiter. The output depends only on its
// inputs, so re-rendering the same sounding gives identical bytes.
func Render(s Sounding, sep Separator) []byte {
	delim := sep.Delimiter()

	var buf bytes.Buffer
	writeLine := func(fields []string) {
		buf.WriteString(strings.Join(fields, delim))
		buf.WriteByte('\n')
	}

	writeLine(s.Columns)
	writeLine(s.Units)
	for _, row := range s.Rows {
		writeLine(row)
	}
	return buf.Bytes()
}
