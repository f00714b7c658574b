package enrich

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"time"

	"github.com/dtnitsch/essay-ingest/models"
)

// CommandClassifier runs an assistant CLI in headless mode:
// <command> -p <prompt> --output-format json --model <model>.
// The CLI prints a JSON envelope whose "result" string holds the metadata.
type CommandClassifier struct {
	command string
	model   string
	timeout time.Duration
}

func NewCommandClassifier(command, model string, timeout time.Duration) *CommandClassifier {
	return &CommandClassifier{command: command, model: model, timeout: timeout}
}

func (c *CommandClassifier) Name() string  { return "cli" }
func (c *CommandClassifier) Model() string { return c.model }

type commandEnvelope struct {
	Result       *string  `json:"result"`
	IsError      bool     `json:"is_error"`
	TotalCostUSD *float64 `json:"total_cost_usd"`
}

func (c *CommandClassifier) Classify(ctx context.Context, doc *models.Document) (*models.Enrichment, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	args := []string{"-p", Prompt(doc), "--output-format", "json"}
	if c.model != "" {
		args = append(args, "--model", c.model)
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, c.command, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = time.Second

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%s timed out: %w", c.command, ctx.Err())
		}
		return nil, fmt.Errorf("%s failed: %w: %s", c.command, err, bytes.TrimSpace(stderr.Bytes()))
	}

	var env commandEnvelope
	if err := json.Unmarshal(stdout.Bytes(), &env); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}
	if env.Result == nil {
		return nil, fmt.Errorf("%w: envelope has no result", ErrMalformedResponse)
	}
	if env.IsError {
		return nil, fmt.Errorf("%s reported an error: %s", c.command, *env.Result)
	}
	return ParseMetadata(*env.Result)
}
