package pipeline

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"

	"github.com/couchcryptid/sounding-etl/internal/domain"
)

// Outcome is the result of one batch slot.
type Outcome struct {
	Request domain.Request
	Path    string
	Levels  int
	Kind    domain.Kind
	Err     error
}

// Report collects the outcomes of a batch run.
type Report struct {
	Planned   int
	Outcomes  []Outcome
	Cancelled bool
	Duration  time.Duration
}

// Failures returns the outcomes that did not produce a file, in request order.
func (r *Report) Failures() []Outcome {
	var out []Outcome
	for _, o := range r.Outcomes {
		if o.Kind != domain.KindOK {
			out = append(out, o)
		}
	}
	return out
}

// Succeeded counts the slots that produced a file.
func (r *Report) Succeeded() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Kind == domain.KindOK {
			n++
		}
	}
	return n
}

const summaryTimeLayout = "2006-01-02 15:04 UTC"

// WriteSummary prints the end-of-run summary: either a success line or an
// aligned table of every failed slot.
func (r *Report) WriteSummary(w io.Writer) error {
	var b strings.Builder

	failures := r.Failures()
	switch {
	case len(failures) == 0 && !r.Cancelled:
		b.WriteString("All requested soundings downloaded successfully.\n")
	case len(failures) == 0:
		fmt.Fprintf(&b, "Run interrupted after %d of %d requests; no failures so far.\n",
			len(r.Outcomes), r.Planned)
	default:
		fmt.Fprintf(&b, "Summary: %d of %d requests failed.\n", len(failures), r.Planned)
		writeFailureTable(&b, failures)
		if r.Cancelled {
			fmt.Fprintf(&b, "Run interrupted after %d of %d requests.\n", len(r.Outcomes), r.Planned)
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func writeFailureTable(b *strings.Builder, failures []Outcome) {
	header := [3]string{"TIME", "KIND", "REASON"}
	rows := make([][3]string, 0, len(failures))
	for _, o := range failures {
		reason := ""
		if o.Err != nil {
			reason = o.Err.Error()
		}
		rows = append(rows, [3]string{
			o.Request.Time.UTC().Format(summaryTimeLayout),
			string(o.Kind),
			reason,
		})
	}

	widths := [2]int{runewidth.StringWidth(header[0]), runewidth.StringWidth(header[1])}
	for _, row := range rows {
		for i := range widths {
			widths[i] = max(widths[i], runewidth.StringWidth(row[i]))
		}
	}

	writeRow := func(row [3]string) {
		b.WriteString("  ")
		b.WriteString(runewidth.FillRight(row[0], widths[0]))
		b.WriteString("  ")
		b.WriteString(runewidth.FillRight(row[1], widths[1]))
		b.WriteString("  ")
		b.WriteString(row[2])
		b.WriteString("\n")
	}

	writeRow(header)
	for _, row := range rows {
		writeRow(row)
	}
}
