package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/pfrederiksen/ade-events/internal/normalizer"
	"github.com/pfrederiksen/ade-events/internal/scraper"
)

// OutputFormat specifies the output format
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
)

// ObjectInfo is one stored object in a listing
type ObjectInfo struct {
	Key  string `json:"key"`
	Size int    `json:"size"`
}

// OutputResult contains data to be output
type OutputResult struct {
	Command    string             `json:"command"`
	RunID      string             `json:"run_id,omitempty"`
	StartedAt  time.Time          `json:"started_at"`
	FinishedAt time.Time          `json:"finished_at"`
	Harvest    *scraper.Result    `json:"harvest,omitempty"`
	Normalize  *normalizer.Result `json:"normalize,omitempty"`
	Stage      string             `json:"stage,omitempty"`
	Objects    []ObjectInfo       `json:"objects,omitempty"`
}

// WriteOutput writes the result in the specified format
func WriteOutput(w io.Writer, result *OutputResult, format OutputFormat) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, result)
	case FormatText:
		return writeText(w, result)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// writeJSON outputs results as JSON
func writeJSON(w io.Writer, result *OutputResult) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

// writeText outputs results as human-readable text
func writeText(w io.Writer, result *OutputResult) error {
	switch {
	case result.Harvest != nil:
		h := result.Harvest
		fmt.Fprintf(w, "Harvested edition %d: %d of %d events\n", h.Year, h.Extracted, h.Links)
		fmt.Fprintf(w, "Published: %s\n", h.Key)
		if len(h.Skipped) > 0 {
			fmt.Fprintf(w, "\nSkipped (%d):\n", len(h.Skipped))
			for _, url := range h.Skipped {
				fmt.Fprintf(w, "  %s\n", url)
			}
		}

	case result.Normalize != nil:
		n := result.Normalize
		fmt.Fprintf(w, "Read %d rows from %d raw files, excluded %d\n", n.RowsRead, len(n.RawFiles), n.RowsExcluded)
		if n.RowsMalformed > 0 {
			fmt.Fprintf(w, "Skipped %d unparseable rows\n", n.RowsMalformed)
		}
		if len(n.Partitions) == 0 {
			fmt.Fprintln(w, "No partitions written.")
			break
		}
		fmt.Fprintln(w, "\nPartitions:")
		for _, p := range n.Partitions {
			fmt.Fprintf(w, "  edition=%s  %d rows  %s\n", p.Edition, p.Rows, p.Key)
		}
		fmt.Fprintf(w, "\nTotal: %d rows across %d editions\n", n.RowsWritten, len(n.Partitions))

	default:
		if len(result.Objects) == 0 {
			fmt.Fprintf(w, "No objects in the %s stage.\n", result.Stage)
			return nil
		}
		for _, obj := range result.Objects {
			fmt.Fprintf(w, "%10d  %s\n", obj.Size, obj.Key)
		}
		fmt.Fprintf(w, "\nTotal: %d objects\n", len(result.Objects))
	}

	if result.RunID != "" {
		fmt.Fprintf(w, "Run: %s (%s)\n", result.RunID, result.FinishedAt.Sub(result.StartedAt).Round(time.Millisecond))
	}
	return nil
}
