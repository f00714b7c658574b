package common

import (
	"fmt"
	"log/slog"

	"github.com/urfave/cli/v2"

	"github.com/dtnitsch/essay-ingest/models"
)

// LoadConfig loads the --config file (defaults when unset) and applies the global
// flag overrides shared by every command.
func LoadConfig(c *cli.Context) (*models.Config, error) {
	cfg, err := models.LoadConfig(c.String("config"))
	if err != nil {
		return nil, err
	}

	if c.IsSet("data-dir") {
		cfg.DataDir = c.String("data-dir")
	}
	if c.IsSet("listing-url") {
		listingURL, err := ValidateURL(c.String("listing-url"))
		if err != nil {
			return nil, fmt.Errorf("invalid --listing-url: %w", err)
		}
		cfg.ListingURL = listingURL
	}
	if c.IsSet("ledger") {
		cfg.LedgerPath = c.String("ledger")
	}
	return cfg, nil
}

// Logger builds the command logger from the --quiet and --verbose flags.
func Logger(c *cli.Context) *slog.Logger {
	return NewLogger(c.Bool("quiet"), c.Bool("verbose"))
}
