package db

import (
	"fmt"
	"strings"

	dbpkg "github.com/dtnitsch/essay-ingest/pkg/db"
	"github.com/urfave/cli/v2"
)

// GetRunIDOrLatest returns the run id from args, or the latest run if not provided.
// A unique id prefix, as printed by 'essayctl runs', is accepted.
func GetRunIDOrLatest(c *cli.Context, database *dbpkg.DB) (string, error) {
	runs, err := database.ListRuns(c.Context, 0)
	if err != nil {
		return "", fmt.Errorf("failed to list runs: %w", err)
	}
	if len(runs) == 0 {
		return "", fmt.Errorf("no runs found. Run 'essayctl ingest' first")
	}

	if c.NArg() == 0 {
		return runs[0].RunID, nil
	}

	arg := strings.TrimSpace(c.Args().First())
	var matches []string
	for _, r := range runs {
		if r.RunID == arg {
			return arg, nil
		}
		if strings.HasPrefix(r.RunID, arg) {
			matches = append(matches, r.RunID)
		}
	}
	switch len(matches) {
	case 0:
		return arg, nil
	case 1:
		return matches[0], nil
	}
	return "", fmt.Errorf("run id %q is ambiguous (%d matches)", arg, len(matches))
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
