// Command refmap-check maps a feed of source records against a reference
// glossary and reports the outcome per record. It is meant for validating a
// glossary and configuration before rolling them out: the exit code is
// non-zero when any record ends up ambiguous or unmatched.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"refmap/internal/core"
	"refmap/internal/glossary"
	fsglossary "refmap/internal/infra/glossary/fs"
	"refmap/pkg/domain"

	dedupsqlite "refmap/internal/infra/dedup/sqlite"
)

var exitFunc = os.Exit

// main runs the command-line interface using the program arguments and exits
// the process with the status code returned by cli.
func main() {
	exitFunc(cli(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

type options struct {
	glossaryPath string
	recordsPath  string
	dedupPath    string
	scorer       string
	exact        float64
	fuzzy        float64
	minGap       float64
	fallbacks    string
	verbose      bool
}

func cli(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("refmap-check", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var opts options
	fs.StringVar(&opts.glossaryPath, "glossary", "", "path to glossary JSON (default: environment-selected source)")
	fs.StringVar(&opts.recordsPath, "records", "-", "path to NDJSON source records, - for stdin")
	fs.StringVar(&opts.dedupPath, "dedup", "", "optional sqlite dedup database path")
	fs.StringVar(&opts.scorer, "scorer", "", "similarity scorer: levenshtein|jaro_winkler|token_set")
	fs.Float64Var(&opts.exact, "exact-threshold", domain.DefaultExactThreshold, "score treated as an exact match")
	fs.Float64Var(&opts.fuzzy, "fuzzy-threshold", domain.DefaultFuzzyThreshold, "minimum score for a fuzzy match")
	fs.Float64Var(&opts.minGap, "min-gap", domain.DefaultMinGap, "minimum lead over the runner-up")
	fs.StringVar(&opts.fallbacks, "fallback", "", "category=id fallback pairs, comma separated")
	fs.BoolVar(&opts.verbose, "v", false, "debug logging")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	summary, err := run(context.Background(), opts, stdin, stdout, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "refmap-check failed: %v\n", err)
		return 2
	}
	fmt.Fprintf(stdout, "mapped %d records: %d matched, %d by fallback, %d ambiguous, %d unmatched (%d cache hits)\n",
		summary.Total,
		summary.ByStatus[domain.StatusMatched],
		summary.ByStatus[domain.StatusMatchedByFallback],
		summary.ByStatus[domain.StatusAmbiguous],
		summary.ByStatus[domain.StatusUnmatched],
		summary.CacheHits,
	)
	if summary.ByStatus[domain.StatusAmbiguous] > 0 || summary.ByStatus[domain.StatusUnmatched] > 0 {
		return 1
	}
	return 0
}

func run(ctx context.Context, opts options, stdin io.Reader, stdout, stderr io.Writer) (domain.BatchSummary, error) {
	level := slog.LevelWarn
	if opts.verbose {
		level = slog.LevelDebug
	}
	logger := &slogLogger{inner: slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))}

	fallbacks, err := parseFallbacks(opts.fallbacks)
	if err != nil {
		return domain.BatchSummary{}, err
	}
	cfg := domain.Config{
		ExactThreshold:        opts.exact,
		FuzzyThreshold:        opts.fuzzy,
		MinGap:                opts.minGap,
		Scorer:                opts.scorer,
		FallbackIDsByCategory: fallbacks,
	}

	var source domain.GlossarySource
	if opts.glossaryPath != "" {
		source, err = fsglossary.NewSource(opts.glossaryPath)
	} else {
		source, err = glossary.Open(ctx)
	}
	if err != nil {
		return domain.BatchSummary{}, fmt.Errorf("open glossary source: %w", err)
	}

	engineOpts := []core.Option{core.WithLogger(logger)}
	if opts.dedupPath != "" {
		store, err := dedupsqlite.NewStore(opts.dedupPath)
		if err != nil {
			return domain.BatchSummary{}, fmt.Errorf("open dedup store: %w", err)
		}
		defer func() { _ = store.Close() }()
		engineOpts = append(engineOpts, core.WithDedupStore(store))
	}

	engine, err := core.New(source, cfg, engineOpts...)
	if err != nil {
		return domain.BatchSummary{}, err
	}
	if _, err := engine.Reload(ctx); err != nil {
		return domain.BatchSummary{}, err
	}

	records, err := readRecords(opts.recordsPath, stdin)
	if err != nil {
		return domain.BatchSummary{}, err
	}
	results, summary, err := engine.MapBatch(ctx, records)
	if err != nil {
		return domain.BatchSummary{}, err
	}

	enc := json.NewEncoder(stdout)
	for _, res := range results {
		if err := enc.Encode(res); err != nil {
			return domain.BatchSummary{}, fmt.Errorf("write result: %w", err)
		}
	}
	return summary, nil
}

// readRecords decodes NDJSON source records from path, or stdin when path
// is "-". Blank lines are skipped.
func readRecords(path string, stdin io.Reader) ([]domain.SourceRecord, error) {
	var in io.Reader = stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open records: %w", err)
		}
		defer func() { _ = f.Close() }()
		in = f
	}

	var records []domain.SourceRecord
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		var rec domain.SourceRecord
		if err := json.Unmarshal([]byte(text), &rec); err != nil {
			return nil, fmt.Errorf("decode record at line %d: %w", line, err)
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read records: %w", err)
	}
	return records, nil
}

// parseFallbacks parses "category=id" pairs separated by commas.
func parseFallbacks(raw string) (map[string]string, error) {
	if raw == "" {
		return nil, nil
	}
	out := make(map[string]string)
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		category, id, ok := strings.Cut(pair, "=")
		if !ok || category == "" || id == "" {
			return nil, fmt.Errorf("malformed fallback pair %q, want category=id", pair)
		}
		out[category] = id
	}
	return out, nil
}

// slogLogger adapts *slog.Logger to the engine's logging contract.
type slogLogger struct {
	inner *slog.Logger
}

func (l *slogLogger) Debug(msg string, kv ...any) { l.inner.Debug(msg, kv...) }
func (l *slogLogger) Info(msg string, kv ...any)  { l.inner.Info(msg, kv...) }
func (l *slogLogger) Warn(msg string, kv ...any)  { l.inner.Warn(msg, kv...) }
func (l *slogLogger) Error(msg string, kv ...any) { l.inner.Error(msg, kv...) }

var _ domain.Logger = (*slogLogger)(nil)
