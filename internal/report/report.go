// Package report summarizes round measurements and renders them as a table,
// JSON or YAML.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"gitwalk/internal/scheduler"
)

const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Formats lists the accepted output formats.
var Formats = []string{FormatText, FormatJSON, FormatYAML}

type Summary struct {
	Rounds  int            `json:"rounds" yaml:"rounds"`
	Walkers int            `json:"walkers" yaml:"walkers"`
	Failed  int            `json:"failed" yaml:"failed"`
	Roots   map[string]int `json:"roots" yaml:"roots"`
	TotalMS float64        `json:"total_ms" yaml:"total_ms"`
	MinMS   float64        `json:"min_ms" yaml:"min_ms"`
	MaxMS   float64        `json:"max_ms" yaml:"max_ms"`
	MeanMS  float64        `json:"mean_ms" yaml:"mean_ms"`
	P50MS   float64        `json:"p50_ms" yaml:"p50_ms"`
	P95MS   float64        `json:"p95_ms" yaml:"p95_ms"`
	// AvgWalkerMS is the mean round time divided by walkers per round.
	AvgWalkerMS float64 `json:"avg_walker_ms" yaml:"avg_walker_ms"`
}

type Round struct {
	Seq       int            `json:"seq" yaml:"seq"`
	Started   time.Time      `json:"started" yaml:"started"`
	ElapsedMS float64        `json:"elapsed_ms" yaml:"elapsed_ms"`
	Walkers   int            `json:"walkers" yaml:"walkers"`
	Failed    int            `json:"failed" yaml:"failed"`
	Roots     map[string]int `json:"roots,omitempty" yaml:"roots,omitempty"`
	Error     string         `json:"error,omitempty" yaml:"error,omitempty"`
}

type Report struct {
	Summary Summary `json:"summary" yaml:"summary"`
	Rounds  []Round `json:"rounds" yaml:"rounds"`
}

func ms(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

// percentile returns the nearest-rank p-th percentile of sorted.
func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	rank := int(p/100*float64(len(sorted))+0.5) - 1
	if rank < 0 {
		rank = 0
	}
	if rank >= len(sorted) {
		rank = len(sorted) - 1
	}
	return sorted[rank]
}

// Summarize aggregates results.
func Summarize(results []scheduler.RoundResult) Summary {
	s := Summary{Rounds: len(results), Roots: make(map[string]int)}
	if len(results) == 0 {
		return s
	}

	elapsed := make([]time.Duration, 0, len(results))
	var total time.Duration
	for _, r := range results {
		s.Walkers += r.Walkers
		s.Failed += r.Failed
		for id, n := range r.Roots {
			s.Roots[id] += n
		}
		elapsed = append(elapsed, r.Elapsed)
		total += r.Elapsed
	}
	sort.Slice(elapsed, func(i, j int) bool { return elapsed[i] < elapsed[j] })

	mean := total / time.Duration(len(results))
	s.TotalMS = ms(total)
	s.MinMS = ms(elapsed[0])
	s.MaxMS = ms(elapsed[len(elapsed)-1])
	s.MeanMS = ms(mean)
	s.P50MS = ms(percentile(elapsed, 50))
	s.P95MS = ms(percentile(elapsed, 95))
	if perRound := s.Walkers / len(results); perRound > 0 {
		s.AvgWalkerMS = s.MeanMS / float64(perRound)
	}
	return s
}

// Build converts results into a Report.
func Build(results []scheduler.RoundResult) Report {
	rep := Report{Summary: Summarize(results), Rounds: make([]Round, 0, len(results))}
	for _, r := range results {
		round := Round{
			Seq:       r.Seq,
			Started:   r.Started,
			ElapsedMS: ms(r.Elapsed),
			Walkers:   r.Walkers,
			Failed:    r.Failed,
			Roots:     r.Roots,
		}
		if r.Err != nil {
			round.Error = r.Err.Error()
		}
		rep.Rounds = append(rep.Rounds, round)
	}
	return rep
}

// Write renders results to w in format.
func Write(w io.Writer, format string, results []scheduler.RoundResult) error {
	rep := Build(results)
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rep)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(rep); err != nil {
			return err
		}
		return enc.Close()
	case FormatText, "":
		return writeText(w, rep)
	default:
		return errors.Errorf("unknown report format %q, want one of %v", format, Formats)
	}
}

func fmtMS(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}

func writeText(w io.Writer, rep Report) error {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Round", "Elapsed (ms)", "Walkers", "Failed", "Roots"})
	table.SetAutoFormatHeaders(false)
	table.SetAlignment(tablewriter.ALIGN_RIGHT)
	for _, r := range rep.Rounds {
		table.Append([]string{
			strconv.Itoa(r.Seq),
			fmtMS(r.ElapsedMS),
			strconv.Itoa(r.Walkers),
			strconv.Itoa(r.Failed),
			strconv.Itoa(len(r.Roots)),
		})
	}
	table.Render()

	s := rep.Summary
	_, err := fmt.Fprintf(w,
		"rounds: %d, walkers: %s, failed: %s\n"+
			"round ms: min %s, p50 %s, mean %s, p95 %s, max %s (total %s)\n"+
			"avg walker ms: %s\n",
		s.Rounds, humanize.Comma(int64(s.Walkers)), humanize.Comma(int64(s.Failed)),
		fmtMS(s.MinMS), fmtMS(s.P50MS), fmtMS(s.MeanMS), fmtMS(s.P95MS), fmtMS(s.MaxMS), fmtMS(s.TotalMS),
		fmtMS(s.AvgWalkerMS))
	return err
}
