package main

import (
	"fmt"
	"log"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/dtnitsch/essay-ingest/internal/corpus"
	"github.com/dtnitsch/essay-ingest/internal/db"
	"github.com/dtnitsch/essay-ingest/internal/enrich"
	"github.com/dtnitsch/essay-ingest/internal/ingest"
	"github.com/dtnitsch/essay-ingest/pkg/help"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	formatFlag := &cli.StringFlag{
		Name:  "format",
		Usage: "Output format: text, json or yaml",
		Value: "text",
	}

	return &cli.App{
		Name:  "essayctl",
		Usage: "Incrementally ingest essays from a listing page into a local corpus",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to a YAML config file",
				EnvVars: []string{"ESSAYCTL_CONFIG"},
			},
			&cli.StringFlag{
				Name:  "data-dir",
				Usage: "Directory holding index.json and essays/",
			},
			&cli.StringFlag{
				Name:  "ledger",
				Usage: "Path to the SQLite run ledger (default <data-dir>/essay-ingest.db)",
			},
			&cli.BoolFlag{
				Name:    "quiet",
				Aliases: []string{"q"},
				Usage:   "Only log errors",
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "Log debug output",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "ingest",
				Usage:  "Fetch new essays from the listing page and commit them to the index",
				Action: ingest.IngestAction,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:    "force",
						Aliases: []string{"f"},
						Usage:   "Refetch every listed essay and prune entries no longer listed",
					},
					&cli.StringFlag{
						Name:  "listing-url",
						Usage: "Listing page to discover essays from",
					},
					formatFlag,
				},
			},
			{
				Name:   "list",
				Usage:  "List indexed essays, most recent first",
				Action: corpus.CorpusAction,
				Flags:  []cli.Flag{formatFlag, &cli.IntFlag{Name: "limit", Usage: "Maximum essays to list"}},
			},
			{
				Name:      "show",
				Usage:     "Print one essay",
				ArgsUsage: "<id>",
				Action:    corpus.CorpusAction,
				Flags:     []cli.Flag{formatFlag},
			},
			{
				Name:      "search",
				Usage:     "Search titles, keywords and enrichment metadata",
				ArgsUsage: "<query>",
				Action:    corpus.CorpusAction,
				Flags:     []cli.Flag{formatFlag, &cli.IntFlag{Name: "limit", Value: 20, Usage: "Maximum results"}},
			},
			{
				Name:   "keywords",
				Usage:  "Most frequent keywords across every essay",
				Action: corpus.CorpusAction,
				Flags:  []cli.Flag{formatFlag, &cli.IntFlag{Name: "limit", Value: 25, Usage: "Maximum keywords"}},
			},
			{
				Name:   "enrich",
				Usage:  "Classify essays with an external model and store the metadata",
				Action: enrich.EnrichAction,
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "limit", Usage: "Only consider the first N essays in index order"},
					&cli.BoolFlag{Name: "force", Usage: "Re-enrich essays that already have metadata"},
					&cli.StringFlag{Name: "model", Usage: "Model name passed to the classifier"},
					&cli.StringFlag{Name: "classifier", Usage: "cli or openai"},
				},
			},
			{
				Name:   "runs",
				Usage:  "List recorded ingestion runs",
				Action: db.RunsAction,
				Flags:  []cli.Flag{&cli.IntFlag{Name: "limit", Value: 20, Usage: "Maximum runs to list"}},
				Subcommands: []*cli.Command{
					{
						Name:      "show",
						Usage:     "Show a run and its fetch attempts (latest when no id is given)",
						ArgsUsage: "[run-id]",
						Action:    db.RunAction,
					},
				},
			},
			{
				Name:  "quickstart",
				Usage: "Print a quick reference",
				Action: func(c *cli.Context) error {
					fmt.Fprint(c.App.Writer, help.ColdstartYAML)
					return nil
				},
			},
		},
	}
}
