package domain

import (
	"regexp"
	"slices"
	"strings"
)

// stationCodeRe matches ICAO identifiers such as LRBS or KEY.
var stationCodeRe = regexp.MustCompile(`^[A-Z0-9]{3,4}$`)

// rule is the dashed separator the archive prints around the table header.
var rule = strings.Repeat("-", 77)

// Layout describes the page contract of the archive's TEXT:LIST output.
// Every literal the extractor depends on lives here so that a markup change
// on the remote side is a one-place edit.
type Layout struct {
	// Columns and Units name the table columns in order; their length is the
	// field count every data row must have.
	Columns []string
	Units   []string

	// BeginMarker is the column-name/units header block; the table starts
	// immediately after it.
	BeginMarker string
	// EndMarker opens the station indices section that follows the table.
	EndMarker string

	// HeaderOpen and HeaderClose bound the station header line. Their
	// lower-case spelling is accepted too.
	HeaderOpen  string
	HeaderClose string
	// NameTrailer is the first header token after the station name.
	NameTrailer string
	// NameSkipTokens is the number of leading header tokens (the station
	// number) that always precede the name.
	NameSkipTokens int
	// StationCode matches the optional ICAO identifier printed between the
	// station number and the name. It is skipped only when a name token
	// follows it. Nil disables the check.
	StationCode *regexp.Regexp
}

// DefaultLayout returns the layout of the University of Wyoming sounding archive.
func DefaultLayout() Layout {
	return Layout{
		Columns: []string{"PRES", "HGHT", "TEMP", "DWPT", "RELH", "MIXR", "DRCT", "SKNT", "THTA", "THTE", "THTV"},
		Units:   []string{"hPa", "m", "C", "C", "%", "g/kg", "deg", "knot", "K", "K", "K"},
		BeginMarker: rule + "\n" +
			"   PRES   HGHT   TEMP   DWPT   RELH   MIXR   DRCT   SKNT   THTA   THTE   THTV\n" +
			"    hPa     m      C      C      %    g/kg    deg   knot     K      K      K \n" +
			rule,
		EndMarker:      "</PRE><H3>Station information and sounding indices</H3><PRE>",
		HeaderOpen:     "<H2>",
		HeaderClose:    "</H2>",
		NameTrailer:    "Observations",
		NameSkipTokens: 1,
		StationCode:    stationCodeRe,
	}
}

// clone returns a deep copy so an Extractor never shares slices with its caller.
func (l Layout) clone() Layout {
	l.Columns = slices.Clone(l.Columns)
	l.Units = slices.Clone(l.Units)
	return l
}
