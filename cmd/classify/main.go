// Command classify runs the scam classifier on text from the command line
// or stdin and prints the verdict as JSON. It never contacts the remote
// model; an optional SQLite knowledge base supplies categories and history.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"scamguard-lab/internal/domain/models"
	"scamguard-lab/internal/domain/services"
	"scamguard-lab/internal/domain/services/classifier"
	"scamguard-lab/internal/infrastructure/sqlitekb"
	"scamguard-lab/internal/textprep"
	"scamguard-lab/pkg/logger"
)

func main() {
	kbPath := flag.String("kb", "", "SQLite knowledge base file")
	seedPath := flag.String("seed", "", "JSON knowledge seed; imported into -kb, or held in memory without it")
	mode := flag.String("mode", classifier.ScoringAuto, "scoring mode: auto, weighted or sentence_count")
	ocr := flag.Bool("ocr", false, "clean OCR noise before classifying")
	scan := flag.Bool("scan", false, "print a full scan report instead of a single verdict")
	verbose := flag.Bool("v", false, "debug logging on stderr")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: classify [flags] [text ...]\n\nReads stdin when no text is given.\n\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	log := logger.New(logger.Config{Level: "warn", Format: "console", TimeFormat: "15:04:05", Output: os.Stderr})
	if *verbose {
		log = logger.NewDevelopment(os.Stderr)
	}

	if err := run(log, options{
		kbPath:   *kbPath,
		seedPath: *seedPath,
		mode:     *mode,
		ocr:      *ocr,
		scan:     *scan,
		args:     flag.Args(),
	}); err != nil {
		fmt.Fprintf(os.Stderr, "classify: %v\n", err)
		os.Exit(1)
	}
}

type options struct {
	kbPath   string
	seedPath string
	mode     string
	ocr      bool
	scan     bool
	args     []string
}

func run(log *logger.Logger, opts options) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	scorer, err := classifier.ScorerByName(opts.mode)
	if err != nil {
		return err
	}

	text, err := readText(opts.args, os.Stdin)
	if err != nil {
		return err
	}

	kb, closeKB, err := loadKnowledgeBase(ctx, opts, log)
	if err != nil {
		return err
	}
	defer closeKB()

	analyzer := services.NewScamAnalyzer(
		classifier.New(classifier.Config{Scorer: scorer}),
		nil, nil, kb, nil,
		services.AnalyzerConfig{},
		log,
	)

	var out any
	if opts.scan {
		report, err := analyzer.Scan(ctx, &models.ScanRequest{Text: text, ScanType: models.ScanTypeTextInput, OCR: opts.ocr})
		if err != nil {
			return err
		}
		out = report
	} else {
		if opts.ocr {
			text = textprep.New().PrepareOCR(text)
		}
		out = analyzer.AnalyzeWithKnowledgeBase(ctx, text)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(out)
}

func readText(args []string, stdin io.Reader) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("failed to read stdin: %w", err)
	}
	return string(data), nil
}

// loadKnowledgeBase opens the SQLite store (in memory when only a seed is
// given), imports the seed and loads one snapshot. Without either flag the
// built-in keywords are used.
func loadKnowledgeBase(ctx context.Context, opts options, log *logger.Logger) (services.KnowledgeProvider, func(), error) {
	noop := func() {}
	if opts.kbPath == "" && opts.seedPath == "" {
		return nil, noop, nil
	}

	path := opts.kbPath
	if path == "" {
		path = ":memory:"
	}
	store, err := sqlitekb.Open(path)
	if err != nil {
		return nil, noop, err
	}
	closeStore := func() { _ = store.Close() }

	kb := services.NewKnowledgeBaseService(store, nil, services.KnowledgeBaseConfig{}, log)

	if opts.seedPath != "" {
		seed, err := readSeed(opts.seedPath)
		if err != nil {
			closeStore()
			return nil, noop, err
		}
		if _, err := kb.Import(ctx, seed); err != nil {
			closeStore()
			return nil, noop, err
		}
	} else if err := kb.Refresh(ctx); err != nil {
		closeStore()
		return nil, noop, err
	}

	return kb, closeStore, nil
}

func readSeed(path string) (*models.KnowledgeSeed, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open seed: %w", err)
	}
	defer f.Close()

	var seed models.KnowledgeSeed
	if err := json.NewDecoder(f).Decode(&seed); err != nil {
		return nil, fmt.Errorf("failed to decode seed %s: %w", path, err)
	}
	if err := seed.Validate(); err != nil {
		return nil, err
	}
	return &seed, nil
}
