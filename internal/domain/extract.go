package domain

import (
	"fmt"
	"html"
	"regexp"
	"strings"
)

// unsafeNameRe matches every run of characters that should not appear in a
// folder name.
var unsafeNameRe = regexp.MustCompile(`[^A-Za-z0-9_]+`)

// Extractor pulls the numeric table and station name out of an archive page.
type Extractor struct {
	layout Layout
}

// NewExtractor creates an Extractor bound to the given page layout.
func NewExtractor(layout Layout) *Extractor {
	return &Extractor{layout: layout.clone()}
}

// Layout returns a copy of the layout the extractor was built with.
func (e *Extractor) Layout() Layout {
	return e.layout.clone()
}

// Extract parses a full page into a Sounding. A missing table marker returns
// an error wrapping ErrUnavailable; a missing station header is not an error
// and leaves StationName empty, so FolderName falls back to the station id.
func (e *Extractor) Extract(page string, req Request) (Sounding, error) {
	rows, dropped, err := e.Table(page)
	if err != nil {
		return Sounding{}, err
	}
	name, found := e.StationName(page, req.StationID)
	if !found {
		name = ""
	}
	l := e.layout.clone()

	return Sounding{
		Request:     req,
		StationID:   req.StationID,
		StationName: name,
		ObservedAt:  req.Time,
		Columns:     l.Columns,
		Units:       l.Units,
		Rows:        rows,
		FetchedAt:   clock.Now().UTC(),
		DroppedRows: dropped,
	}, nil
}

// Table returns the rows strictly between the begin and end markers, each
// split on runs of whitespace. Rows whose field count differs from the number
// of layout columns are dropped and counted; they are footnotes or partial
// levels, never padded.
//
// Fields are not parsed as numbers. The archive uses unusual encodings for
// missing values and the table is passed through as printed.
func (e *Extractor) Table(page string) ([][]string, int, error) {
	text := normalizeNewlines(page)

	start := strings.Index(text, e.layout.BeginMarker)
	if start == -1 {
		return nil, 0, fmt.Errorf("%w: table header block not found", ErrUnavailable)
	}
	dataStart := start + len(e.layout.BeginMarker)

	end := strings.Index(text[dataStart:], e.layout.EndMarker)
	if end == -1 {
		return nil, 0, fmt.Errorf("%w: station information marker not found", ErrUnavailable)
	}

	want := len(e.layout.Columns)
	var rows [][]string
	dropped := 0
	for _, line := range strings.Split(text[dataStart:dataStart+end], "\n") {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		if len(fields) != want {
			dropped++
			continue
		}
		rows = append(rows, fields)
	}
	return rows, dropped, nil
}

// StationName extracts the human-readable station name from the page header,
// e.g. "<H2>15420 LRBS Bucuresti Inmh-Banesa Observations at 00Z 02 Nov 2025</H2>"
// yields "Bucuresti_Inmh_Banesa". The boolean reports whether a name was
// found; when it is false the station id is returned instead.
func (e *Extractor) StationName(page, stationID string) (string, bool) {
	header, ok := e.header(page)
	if !ok {
		return stationID, false
	}

	tokens := strings.Fields(html.UnescapeString(header))
	if len(tokens) <= e.layout.NameSkipTokens {
		return stationID, false
	}
	tokens = tokens[e.layout.NameSkipTokens:]
	for i, tok := range tokens {
		if tok == e.layout.NameTrailer {
			tokens = tokens[:i]
			break
		}
	}
	if code := e.layout.StationCode; code != nil && len(tokens) > 1 && code.MatchString(tokens[0]) {
		tokens = tokens[1:]
	}

	name := SanitizeName(strings.Join(tokens, " "))
	if name == "" {
		return stationID, false
	}
	return name, true
}

// header returns the text between the first header open/close tag pair,
// trying the layout's spelling of the tags first and then lower case.
func (e *Extractor) header(page string) (string, bool) {
	pairs := [][2]string{
		{e.layout.HeaderOpen, e.layout.HeaderClose},
		{strings.ToLower(e.layout.HeaderOpen), strings.ToLower(e.layout.HeaderClose)},
	}
	for _, p := range pairs {
		start := strings.Index(page, p[0])
		if start == -1 {
			continue
		}
		start += len(p[0])
		end := strings.Index(page[start:], p[1])
		if end == -1 {
			continue
		}
		return page[start : start+end], true
	}
	return "", false
}

// SanitizeName makes s safe as a single path element: every run of characters
// outside [A-Za-z0-9_] becomes an underscore, and leading or trailing
// underscores are trimmed.
func SanitizeName(s string) string {
	return strings.Trim(unsafeNameRe.ReplaceAllString(strings.TrimSpace(s), "_"), "_")
}

func normalizeNewlines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}
