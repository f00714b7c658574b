package db

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v2"

	"github.com/dtnitsch/essay-ingest/internal/common"
	"github.com/dtnitsch/essay-ingest/models"
	dbpkg "github.com/dtnitsch/essay-ingest/pkg/db"
)

// RunsAction lists recorded ingestion runs, newest first.
func RunsAction(c *cli.Context) error {
	database, err := openLedger(c)
	if err != nil {
		return err
	}
	defer database.Close()

	runs, err := database.ListRuns(c.Context, c.Int("limit"))
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	w := c.App.Writer
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs found")
		return nil
	}

	fmt.Fprintf(w, "%-10s %-20s %-12s %-22s %-8s %-8s %-8s %-8s %-8s\n",
		"Run", "Started", "Mode", "Phase", "Found", "Skipped", "Ingested", "Failed", "Pruned")
	fmt.Fprintln(w, strings.Repeat("-", 110))

	for _, r := range runs {
		fmt.Fprintf(w, "%-10s %-20s %-12s %-22s %-8d %-8d %-8d %-8d %-8d\n",
			shortID(r.RunID),
			r.StartedAt.Local().Format("2006-01-02 15:04:05"),
			r.Mode,
			r.Phase,
			r.Discovered,
			r.Skipped,
			r.Ingested,
			r.Failed,
			r.Pruned,
		)
	}

	fmt.Fprintf(w, "\nTotal: %d runs\n", len(runs))
	fmt.Fprintf(w, "\nTip: Use 'essayctl runs show <id>' to see fetch attempts\n")
	return nil
}

// RunAction shows one run and its fetch attempts. Without an argument it shows the latest run.
func RunAction(c *cli.Context) error {
	database, err := openLedger(c)
	if err != nil {
		return err
	}
	defer database.Close()

	runID, err := GetRunIDOrLatest(c, database)
	if err != nil {
		return err
	}

	run, err := database.GetRun(c.Context, runID)
	if errors.Is(err, models.ErrNotFound) {
		return cli.Exit(fmt.Sprintf("Run %s not found. Use 'essayctl runs' to list runs", runID), 1)
	}
	if err != nil {
		return fmt.Errorf("failed to get run: %w", err)
	}

	attempts, err := database.ListAttempts(c.Context, run.RunID)
	if err != nil {
		return fmt.Errorf("failed to get attempts: %w", err)
	}

	w := c.App.Writer
	fmt.Fprintf(w, "Run %s\n", run.RunID)
	fmt.Fprintln(w, strings.Repeat("=", 60))
	fmt.Fprintf(w, "Started:     %s (%s)\n", run.StartedAt.Local().Format("2006-01-02 15:04:05"), humanize.Time(run.StartedAt))
	if run.FinishedAt != nil {
		fmt.Fprintf(w, "Duration:    %s\n", run.Duration().Round(time.Millisecond))
	} else {
		fmt.Fprintln(w, "Duration:    (unfinished)")
	}
	fmt.Fprintf(w, "Mode:        %s\n", run.Mode)
	fmt.Fprintf(w, "Listing:     %s\n", run.ListingURL)
	fmt.Fprintf(w, "Phase:       %s (committed: %t)\n", run.Phase, run.Committed)
	fmt.Fprintf(w, "Essays:      %d found, %d skipped, %d ingested, %d failed, %d pruned\n",
		run.Discovered, run.Skipped, run.Ingested, run.Failed, run.Pruned)
	fmt.Fprintf(w, "Index size:  %s\n", humanize.Comma(int64(run.IndexSize)))
	if run.Error != "" {
		fmt.Fprintf(w, "Error:       %s\n", run.Error)
	}

	fmt.Fprintf(w, "\nAttempts (%d):\n", len(attempts))
	fmt.Fprintln(w, strings.Repeat("-", 60))
	for i, a := range attempts {
		status := "ok"
		if !a.Success {
			status = "failed"
		}
		fmt.Fprintf(w, "%3d. [%s] %s\n", i+1, status, a.URL)
		if !a.Success {
			fmt.Fprintf(w, "     Error: [%s] status %d\n", a.ErrorType, a.StatusCode)
		}
	}
	return nil
}

func openLedger(c *cli.Context) (*dbpkg.DB, error) {
	cfg, err := common.LoadConfig(c)
	if err != nil {
		return nil, cli.Exit(fmt.Sprintf("Error: %v", err), 1)
	}
	database, err := dbpkg.Open(cfg.Ledger())
	if err != nil {
		return nil, fmt.Errorf("failed to open run ledger: %w", err)
	}
	return database, nil
}
