// Package cli parses command lines for the sounding commands and wires the
// configured components into a pipeline.
package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/couchcryptid/sounding-etl/internal/config"
	"github.com/couchcryptid/sounding-etl/internal/domain"
	"github.com/couchcryptid/sounding-etl/internal/pipeline"
)

// DefaultHours is the batch hour list when --hours is not given.
const DefaultHours = "00,12"

// SingleArgs is a parsed `sounding` command line.
type SingleArgs struct {
	Request   domain.Request
	OutputDir string
	Separator domain.Separator
}

// BatchArgs is a parsed `sounding-batch` command line.
type BatchArgs struct {
	Plan      pipeline.Plan
	OutputDir string
	Separator domain.Separator
}

// ParseSingle parses STATION DATE TIME [--sep comma|tab] [--outdir PATH].
// Flag defaults come from cfg. flag.ErrHelp is returned for -h.
func ParseSingle(args []string, cfg *config.Config, stderr io.Writer) (SingleArgs, error) {
	fs, out := newFlagSet("sounding", "STATION DATE TIME", cfg, stderr)

	pos, err := parseInterleaved(fs, args)
	if err != nil {
		return SingleArgs{}, err
	}
	if len(pos) != 3 {
		fs.Usage()
		return SingleArgs{}, fmt.Errorf("%w: expected STATION DATE TIME, got %d arguments", domain.ErrInvalidInput, len(pos))
	}

	sep, err := domain.ParseSeparator(out.sep)
	if err != nil {
		return SingleArgs{}, err
	}
	ts, err := domain.ParseDateTime(pos[1], pos[2])
	if err != nil {
		return SingleArgs{}, err
	}
	req, err := domain.NewRequest(pos[0], ts)
	if err != nil {
		return SingleArgs{}, err
	}

	return SingleArgs{Request: req, OutputDir: out.dir, Separator: sep}, nil
}

// ParseBatch parses STATION START END [--hours "00,12"] [--sep comma|tab]
// [--outdir PATH]. The returned plan is validated.
func ParseBatch(args []string, cfg *config.Config, stderr io.Writer) (BatchArgs, error) {
	fs, out := newFlagSet("sounding-batch", "STATION START END", cfg, stderr)
	hours := fs.String("hours", DefaultHours, "comma-separated `list` of hours (UTC) to request each day")

	pos, err := parseInterleaved(fs, args)
	if err != nil {
		return BatchArgs{}, err
	}
	if len(pos) != 3 {
		fs.Usage()
		return BatchArgs{}, fmt.Errorf("%w: expected STATION START END, got %d arguments", domain.ErrInvalidInput, len(pos))
	}

	sep, err := domain.ParseSeparator(out.sep)
	if err != nil {
		return BatchArgs{}, err
	}
	start, err := domain.ParseDate(pos[1])
	if err != nil {
		return BatchArgs{}, fmt.Errorf("start date: %w", err)
	}
	end, err := domain.ParseDate(pos[2])
	if err != nil {
		return BatchArgs{}, fmt.Errorf("end date: %w", err)
	}
	hourList, err := domain.ParseHours(*hours)
	if err != nil {
		return BatchArgs{}, err
	}

	plan := pipeline.Plan{
		StationID: strings.TrimSpace(pos[0]),
		Start:     start,
		End:       end,
		Hours:     hourList,
	}
	if _, err := plan.Requests(); err != nil {
		return BatchArgs{}, err
	}
	return BatchArgs{Plan: plan, OutputDir: out.dir, Separator: sep}, nil
}

type outputFlags struct {
	sep string
	dir string
}

func newFlagSet(name, positional string, cfg *config.Config, stderr io.Writer) (*flag.FlagSet, *outputFlags) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)

	out := &outputFlags{}
	fs.StringVar(&out.sep, "sep", string(cfg.Separator), "field `separator`: comma or tab")
	fs.StringVar(&out.dir, "outdir", cfg.OutputDir, "output `directory`; files go to <dir>/<station name>/")

	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: %s %s [flags]\n\n", name, positional)
		fmt.Fprintf(fs.Output(), "Dates: YYYY-MM-DD, YYYYMMDD or DD.MM.YYYY. Times: H, HH, HHMM or HH:MM (UTC).\n\nFlags:\n")
		fs.PrintDefaults()
	}
	return fs, out
}

// parseInterleaved lets flags appear before, between, or after positionals.
// The standard flag package stops at the first non-flag argument, so parsing
// resumes after each one. A literal "--" ends flag parsing.
func parseInterleaved(fs *flag.FlagSet, args []string) ([]string, error) {
	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			if errors.Is(err, flag.ErrHelp) {
				return nil, err
			}
			return nil, fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
		}
		rest := fs.Args()
		if len(rest) == 0 {
			return positional, nil
		}
		if len(args) > 0 && len(rest) < len(args) && args[len(args)-len(rest)-1] == "--" {
			return append(positional, rest...), nil
		}
		positional = append(positional, rest[0])
		args = rest[1:]
	}
}

// FormatTime renders a request time the way results are printed.
func FormatTime(t time.Time) string {
	return t.UTC().Format("2006-01-02 15:04 UTC")
}
