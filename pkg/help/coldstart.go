package help

const ColdstartYAML = `# essayctl Quick Start

modes:
  incremental: "Default. Only essays missing from the index are fetched"
  forced: "--force. Every listed essay is refetched; unlisted entries are pruned"

commands:
  first_run: |
    essayctl ingest

  refresh_everything: |
    essayctl ingest --force

  other_site: |
    essayctl ingest --listing-url "https://example.com/articles.html" --data-dir ./example

  machine_readable_report: |
    essayctl ingest --format json

  browse: |
    essayctl list --limit 20
    essayctl show greatwork
    essayctl search startups
    essayctl keywords --limit 50

  enrich: |
    essayctl enrich --limit 10
    OPENAI_API_KEY=... essayctl enrich --classifier openai --model gpt-4o-mini

  ledger: |
    essayctl runs
    essayctl runs show <run-id>

key_files:
  - "data/index.json (all essay summaries, total_count, last_updated)"
  - "data/essays/<id>.md (YAML frontmatter + body + notes)"
  - "data/essay-ingest.db (run ledger and enrichments)"

config_example: |
  listing_url: http://paulgraham.com/articles.html
  data_dir: data
  request_delay: 200ms
  max_attempts: 2
  detect_language: true
  report_dir: data/reports
  metrics_file: /var/lib/node_exporter/essay_ingest.prom
  enrich:
    classifier: cli
    command: claude
    model: opus

index_invariants:
  - "total_count always equals the number of essays"
  - "index.json is replaced atomically; an interrupted run leaves the previous index"
  - "An essay is indexed only after its record is written"

error_behavior:
  - "A failed essay is logged and retried on the next incremental run"
  - "Listing fetch failure: nothing is written"
  - "Exit codes: 0=committed or nothing to do, 1=failed run"
`
