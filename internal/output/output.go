// Package output provides formatted output rendering for optimization
// state and run summaries. It supports text, JSON, and table formats.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/bimmerbailey/promptune/internal/optimizer"
)

// Format represents an output format type.
type Format string

const (
	FormatText  Format = "text"
	FormatJSON  Format = "json"
	FormatTable Format = "table"
)

// ParseFormat converts a string to a Format, defaulting to text.
func ParseFormat(s string) Format {
	switch strings.ToLower(s) {
	case "json":
		return FormatJSON
	case "table":
		return FormatTable
	default:
		return FormatText
	}
}

// Writer handles writing formatted output.
type Writer struct {
	w      io.Writer
	format Format
	color  ColorMode
}

// New creates a new output Writer.
func New(w io.Writer, format Format) *Writer {
	return &Writer{w: w, format: format, color: ColorAuto}
}

// WriteJSON outputs any value as indented JSON.
func (wr *Writer) WriteJSON(v interface{}) error {
	enc := json.NewEncoder(wr.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteState outputs the final optimization state in the configured format.
func (wr *Writer) WriteState(st *optimizer.OptimizationState) error {
	switch wr.format {
	case FormatJSON:
		return wr.WriteJSON(st)
	case FormatTable:
		return wr.writeHistoryTable(st.History)
	default:
		return wr.writeStateText(st)
	}
}

func (wr *Writer) writeStateText(st *optimizer.OptimizationState) error {
	colorize := shouldColorize(wr.color, wr.w)

	fmt.Fprintf(wr.w, "State: %s\n", st.State)
	fmt.Fprintf(wr.w, "Iterations: %d\n", st.Iterations)

	if st.Best != nil {
		fmt.Fprintf(wr.w, "Best: iteration %d, score %s\n",
			st.Best.Iteration, colorizeScore(st.Best.Score, colorize))
	}

	for _, res := range st.History {
		marker := " "
		if st.Best != nil && res.Iteration == st.Best.Iteration {
			marker = "*"
		}
		fmt.Fprintf(wr.w, "  %s iteration %2d  score %s\n",
			marker, res.Iteration, colorizeScore(res.Score, colorize))
	}

	return nil
}

func (wr *Writer) writeHistoryTable(history []optimizer.IterationResult) error {
	tw := tabwriter.NewWriter(wr.w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ITERATION\tSCORE\tPROMPT CHARS")
	fmt.Fprintln(tw, "---------\t-----\t------------")

	for _, res := range history {
		fmt.Fprintf(tw, "%d\t%.2f\t%d\n", res.Iteration, res.Score, len(res.Candidate.Text))
	}

	return tw.Flush()
}
