package enrich

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/dtnitsch/essay-ingest/internal/common"
	"github.com/dtnitsch/essay-ingest/models"
	"github.com/dtnitsch/essay-ingest/pkg/db"
	"github.com/dtnitsch/essay-ingest/pkg/enrich"
	"github.com/dtnitsch/essay-ingest/pkg/store"
)

// EnrichAction classifies ingested essays and stores the metadata in the run ledger.
func EnrichAction(c *cli.Context) error {
	logger := common.Logger(c)

	cfg, err := common.LoadConfig(c)
	if err != nil {
		return cli.Exit(fmt.Sprintf("Error: %v", err), 1)
	}
	if c.IsSet("classifier") {
		cfg.Enrich.Classifier = c.String("classifier")
	}
	if c.IsSet("model") {
		cfg.Enrich.Model = c.String("model")
		cfg.Enrich.OpenAIModel = c.String("model")
	}
	if err := cfg.Validate(); err != nil {
		return cli.Exit(fmt.Sprintf("Error: %v", err), 1)
	}

	classifier, err := newClassifier(cfg.Enrich)
	if err != nil {
		return cli.Exit(fmt.Sprintf("Error: %v", err), 1)
	}

	ledger, err := db.Open(cfg.Ledger())
	if err != nil {
		return fmt.Errorf("failed to open run ledger: %w", err)
	}
	defer ledger.Close()

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	e := enrich.NewEnricher(store.NewFileStore(cfg.DataDir), ledger, classifier, cfg.Enrich.Delay, logger)
	res, err := e.Run(ctx, enrich.Options{Limit: c.Int("limit"), Force: c.Bool("force")})

	fmt.Fprintf(c.App.Writer, "Enriched %d essays (%d skipped, %d failed) with %s/%s\n",
		res.Processed, res.Skipped, res.Failed, classifier.Name(), classifier.Model())
	if err != nil {
		logger.Error("Enrichment stopped", "error", err)
		return cli.Exit("", 1)
	}
	return nil
}

func newClassifier(cfg models.EnrichConfig) (enrich.Classifier, error) {
	switch cfg.Classifier {
	case "openai":
		apiKey := os.Getenv("OPENAI_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is not set")
		}
		return enrich.NewOpenAIClassifier(apiKey, cfg.BaseURL, cfg.OpenAIModel, cfg.Timeout), nil
	case "cli":
		return enrich.NewCommandClassifier(cfg.Command, cfg.Model, cfg.Timeout), nil
	}
	return nil, fmt.Errorf("unknown classifier %q", cfg.Classifier)
}
