package manifest

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"

	"github.com/dtnitsch/essay-ingest/models"
	"github.com/dtnitsch/essay-ingest/pkg/storage"
)

// Render writes report to w in the given format.
func Render(w io.Writer, report *models.RunReport, format string) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(report); err != nil {
			return err
		}
		return enc.Close()
	case FormatText, "":
		_, err := io.WriteString(w, Text(report))
		return err
	}
	return fmt.Errorf("unknown format %q", format)
}

// Text renders the console summary of a run.
func Text(r *models.RunReport) string {
	var b strings.Builder

	status := "committed"
	switch {
	case !r.Succeeded():
		status = "FAILED"
	case !r.Committed:
		status = "nothing to do"
	}
	fmt.Fprintf(&b, "Run %s (%s): %s\n", shortID(r.RunID), r.Mode, status)
	fmt.Fprintf(&b, "  Listing:    %s\n", r.ListingURL)
	fmt.Fprintf(&b, "  Phase:      %s\n", r.Phase)
	fmt.Fprintf(&b, "  Discovered: %s\n", humanize.Comma(int64(r.Discovered)))
	fmt.Fprintf(&b, "  Skipped:    %s\n", humanize.Comma(int64(r.Skipped)))
	fmt.Fprintf(&b, "  Ingested:   %s\n", humanize.Comma(int64(r.Ingested)))
	fmt.Fprintf(&b, "  Failed:     %s\n", humanize.Comma(int64(r.Failed)))
	if r.Pruned > 0 {
		fmt.Fprintf(&b, "  Pruned:     %s\n", humanize.Comma(int64(r.Pruned)))
	}
	fmt.Fprintf(&b, "  Index size: %s essays\n", humanize.Comma(int64(r.IndexSize)))
	fmt.Fprintf(&b, "  Duration:   %s\n", r.Duration().Round(time.Millisecond))
	if r.Error != "" {
		fmt.Fprintf(&b, "  Error:      %s\n", r.Error)
	}

	words := 0
	for _, o := range r.Outcomes {
		if o.Status == models.OutcomeIngested {
			words += o.WordCount
		}
	}
	if words > 0 {
		fmt.Fprintf(&b, "  Words:      %s\n", humanize.Comma(int64(words)))
	}

	for _, o := range r.Outcomes {
		if o.Status != models.OutcomeFailed {
			continue
		}
		fmt.Fprintf(&b, "  ✗ %s [%s] %s\n", o.ID, o.ErrorType, o.Error)
	}
	return b.String()
}

// WriteReport saves report as JSON under dir and returns the file path.
func WriteReport(s *storage.Storage, dir string, report *models.RunReport) (string, error) {
	name := fmt.Sprintf("run-%s-%s.json", report.StartedAt.UTC().Format("20060102T150405Z"), shortID(report.RunID))
	path := filepath.Join(dir, name)

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("error marshalling report: %w", err)
	}
	if err := s.SaveFile(path, data); err != nil {
		return "", fmt.Errorf("error saving report: %w", err)
	}
	return path, nil
}

// DescribeFile returns a short "size, modified ago" line for a written file.
func DescribeFile(s *storage.Storage, path string) string {
	stats, err := s.GetFileStats(path)
	if err != nil {
		return path
	}
	return fmt.Sprintf("%s (%s, %s)", path, humanize.Bytes(uint64(stats.SizeBytes)), humanize.Time(stats.ModTime))
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
