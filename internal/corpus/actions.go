package corpus

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/dtnitsch/essay-ingest/internal/common"
	"github.com/dtnitsch/essay-ingest/models"
	"github.com/dtnitsch/essay-ingest/pkg/corpus"
	"github.com/dtnitsch/essay-ingest/pkg/db"
	"github.com/dtnitsch/essay-ingest/pkg/manifest"
	"github.com/dtnitsch/essay-ingest/pkg/mapreduce"
	"github.com/dtnitsch/essay-ingest/pkg/store"
)

// CorpusAction handles the read-only corpus commands: list, show, search and keywords.
func CorpusAction(c *cli.Context) error {
	logger := common.Logger(c)

	cfg, err := common.LoadConfig(c)
	if err != nil {
		return cli.Exit(fmt.Sprintf("Error: %v", err), 1)
	}
	format, err := manifest.ParseFormat(c.String("format"))
	if err != nil {
		return cli.Exit(fmt.Sprintf("Error: %v", err), 1)
	}

	req := models.Request{
		Verb:   c.Command.Name,
		Limit:  c.Int("limit"),
		Format: format,
	}
	switch req.Verb {
	case corpus.VerbSHOW:
		req.ID = c.Args().First()
	case corpus.VerbSEARCH:
		req.Query = strings.Join(c.Args().Slice(), " ")
	}

	var enrichments corpus.EnrichmentSource
	if req.Verb == corpus.VerbSHOW || req.Verb == corpus.VerbSEARCH {
		if ledger := openLedger(cfg.Ledger(), logger); ledger != nil {
			defer ledger.Close()
			enrichments = ledger
		}
	}

	resp := corpus.New(store.NewFileStore(cfg.DataDir), enrichments).Handle(c.Context, req)
	if err := write(c.App.Writer, resp, format); err != nil {
		return fmt.Errorf("failed to write response: %w", err)
	}
	if resp.Error != nil {
		return cli.Exit("", 1)
	}
	return nil
}

// openLedger returns nil when the ledger has never been created; search then runs on the index alone.
func openLedger(path string, logger *slog.Logger) *db.DB {
	if !fileExists(path) {
		return nil
	}
	ledger, err := db.Open(path)
	if err != nil {
		logger.Warn("Run ledger unavailable, enrichments skipped", "path", path, "error", err)
		return nil
	}
	return ledger
}

func write(w io.Writer, resp models.Response, format string) error {
	switch format {
	case manifest.FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	case manifest.FormatYAML:
		out, err := yaml.Marshal(resp)
		if err != nil {
			return err
		}
		_, err = w.Write(out)
		return err
	}
	return writeText(w, resp)
}

func writeText(w io.Writer, resp models.Response) error {
	if resp.Error != nil {
		fmt.Fprintf(w, "Error [%s]: %s\n", resp.Error.Type, resp.Error.Message)
		for _, a := range resp.Error.SuggestedActions {
			fmt.Fprintf(w, "  - %s\n", a)
		}
		return nil
	}

	switch data := resp.Data.(type) {
	case []models.Summary:
		for _, s := range data {
			fmt.Fprintf(w, "%-8s %-28s %s\n", orDash(s.Period()), s.ID, s.Title)
		}
		fmt.Fprintf(w, "\n%d essays\n", resp.Count)
	case []corpus.Hit:
		for _, h := range data {
			fmt.Fprintf(w, "%3d  %-28s %s  [%s]\n", h.Score, h.ID, h.Title, strings.Join(h.MatchedFields, ", "))
			if h.Abstract != "" {
				fmt.Fprintf(w, "     %s\n", h.Abstract)
			}
		}
		fmt.Fprintf(w, "\n%d matches\n", resp.Count)
	case []mapreduce.KeywordCount:
		for _, k := range data {
			fmt.Fprintf(w, "%6d  %s\n", k.Count, k.Word)
		}
	case corpus.Essay:
		writeEssay(w, data)
	default:
		out, err := yaml.Marshal(resp.Data)
		if err != nil {
			return err
		}
		_, err = w.Write(out)
		return err
	}
	return nil
}

func writeEssay(w io.Writer, e corpus.Essay) {
	d := e.Document
	fmt.Fprintf(w, "# %s\n\n", d.Title)
	fmt.Fprintf(w, "id: %s\nurl: %s\ndate: %s\nwords: %d\n", d.ID, d.SourceURL, orDash(deref(d.PublishedPeriod)), d.WordCount)
	if len(d.Keywords) > 0 {
		fmt.Fprintf(w, "keywords: %s\n", strings.Join(d.Keywords, ", "))
	}
	if e.Enrichment != nil {
		fmt.Fprintf(w, "summary: %s\n", e.Enrichment.Summary)
		if len(e.Enrichment.Topics) > 0 {
			fmt.Fprintf(w, "topics: %s\n", strings.Join(e.Enrichment.Topics, ", "))
		}
		if e.Enrichment.DifficultyLevel != "" {
			fmt.Fprintf(w, "difficulty: %s\n", e.Enrichment.DifficultyLevel)
		}
	}
	fmt.Fprintf(w, "\n%s\n", d.Body)
	if len(d.Footnotes) > 0 {
		fmt.Fprint(w, "\n## Notes\n\n")
		for _, n := range d.Footnotes {
			fmt.Fprintf(w, "%s\n\n", n)
		}
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
