package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	"github.com/dtnitsch/essay-ingest/models"
)

func runWithConfig(t *testing.T, args ...string) (*models.Config, error) {
	t.Helper()
	var cfg *models.Config
	var loadErr error
	app := &cli.App{
		Name: "essayctl",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config"},
			&cli.StringFlag{Name: "data-dir"},
			&cli.StringFlag{Name: "ledger"},
		},
		Commands: []*cli.Command{{
			Name:  "ingest",
			Flags: []cli.Flag{&cli.StringFlag{Name: "listing-url"}},
			Action: func(c *cli.Context) error {
				cfg, loadErr = LoadConfig(c)
				return nil
			},
		}},
	}
	require.NoError(t, app.Run(append([]string{"essayctl"}, args...)))
	return cfg, loadErr
}

func TestLoadConfig_FlagOverrides(t *testing.T) {
	cfg, err := runWithConfig(t, "--data-dir", "/tmp/essays", "ingest", "--listing-url", " https://example.com/list.html ")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/essays", cfg.DataDir)
	assert.Equal(t, "https://example.com/list.html", cfg.ListingURL)
	assert.Equal(t, "/tmp/essays/essay-ingest.db", cfg.Ledger())

	cfg, err = runWithConfig(t, "--ledger", "/tmp/ledger.db", "ingest")
	require.NoError(t, err)
	assert.Equal(t, models.DefaultListingURL, cfg.ListingURL)
	assert.Equal(t, "/tmp/ledger.db", cfg.Ledger())
}

func TestLoadConfig_RejectsBadListingURL(t *testing.T) {
	_, err := runWithConfig(t, "ingest", "--listing-url", "ftp://example.com/list.html")
	assert.ErrorContains(t, err, "--listing-url")
}
