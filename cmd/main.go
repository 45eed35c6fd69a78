package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"gopkg.in/alecthomas/kingpin.v2"
	"gopkg.in/cheggaaa/pb.v1"

	"gccontent/internal/chart"
	"gccontent/internal/composition"
	"gccontent/internal/config"
	"gccontent/internal/fasta"
	"gccontent/internal/logging"
	"gccontent/internal/ncbi"
	"gccontent/internal/report"
)

// version is the program version. It can be overridden at build time with -ldflags "-X main.version=..."
var version = "0.1.0"

type options struct {
	config     string
	in         string
	seq        string
	accessions []string
	csv        string
	json       string
	charts     string
	emitFasta  string
	workers    int
	progress   bool
	quiet      bool
	verbose    bool
	logFile    string
}

func parseArgs(args []string) (*options, error) {
	app := kingpin.New("gccontent", "Nucleotide composition and GC content of DNA sequences")
	app.Version(version)
	o := &options{}
	app.Flag("config", "path to config file (json/yaml, optional)").StringVar(&o.config)
	app.Flag("in", "input FASTA file path ('-' for stdin)").Short('i').StringVar(&o.in)
	app.Flag("seq", "raw sequence text, analyzed as "+composition.DefaultID).Short('s').StringVar(&o.seq)
	app.Flag("acc", "NCBI nucleotide accession to fetch (repeatable)").Short('a').StringsVar(&o.accessions)
	app.Flag("csv", "write CSV results to this path ('-' for stdout)").StringVar(&o.csv)
	app.Flag("json", "write JSON results and summary to this path ('-' for stdout)").StringVar(&o.json)
	app.Flag("charts", "directory for PNG charts").StringVar(&o.charts)
	app.Flag("emit-fasta", "write the analyzed input records as FASTA to this path").StringVar(&o.emitFasta)
	app.Flag("workers", "number of analysis workers (0 = config or CPU count)").Default("0").IntVar(&o.workers)
	app.Flag("progress", "show a progress bar").BoolVar(&o.progress)
	app.Flag("quiet", "do not print the results table").Short('q').BoolVar(&o.quiet)
	app.Flag("verbose", "enable verbose (debug) logging").Short('v').BoolVar(&o.verbose)
	app.Flag("log-file", "append logs to this file as well as stderr").StringVar(&o.logFile)
	if _, err := app.Parse(args); err != nil {
		return nil, err
	}
	return o, nil
}

func main() {
	opts, err := parseArgs(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "gccontent: %v\n", err)
		os.Exit(2)
	}

	cfg, err := config.LoadConfig(opts.config)
	if err != nil {
		fmt.Fprintf(os.Stderr, "gccontent: %v\n", err)
		os.Exit(2)
	}
	mergeOptions(cfg, opts)

	level := cfg.LogLevel
	if opts.verbose {
		level = "debug"
	}
	// If stderr is a terminal-like device, force colors for libraries that honor FORCE_COLOR.
	if fi, err := os.Stderr.Stat(); err == nil && fi.Mode()&os.ModeCharDevice != 0 {
		_ = os.Setenv("FORCE_COLOR", "1")
	}
	logger, closeLog := logging.New(logging.Options{File: cfg.LogFile, Level: level, Timestamps: cfg.LogFile != ""})
	defer func() { _ = closeLog() }()

	logger.Debug("loaded config", "input_fasta", cfg.InputFasta, "output_csv", cfg.OutputCSV, "output_json", cfg.OutputJSON, "chart_dir", cfg.ChartDir, "log_level", cfg.LogLevel, "workers", cfg.Workers)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, logger, cfg, opts); err != nil {
		logger.Fatal("gccontent failed", "err", err)
	}
}

// mergeOptions applies CLI flags over the config (flags win when provided).
func mergeOptions(cfg *config.Config, o *options) {
	if o.in != "" {
		cfg.InputFasta = o.in
	}
	if o.csv != "" {
		cfg.OutputCSV = o.csv
	}
	if o.json != "" {
		cfg.OutputJSON = o.json
	}
	if o.charts != "" {
		cfg.ChartDir = o.charts
	}
	if o.workers > 0 {
		cfg.Workers = o.workers
	}
	if o.logFile != "" {
		cfg.LogFile = o.logFile
	}
}

func run(ctx context.Context, logger *log.Logger, cfg *config.Config, o *options) error {
	records, err := collectRecords(ctx, logger, cfg, o)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		logger.Info("please input a sequence (--seq), a FASTA file (--in) or an accession (--acc) to begin")
		return nil
	}

	if o.emitFasta != "" {
		if err := writeTo(o.emitFasta, func(w io.Writer) error { return fasta.Write(w, records, 70) }); err != nil {
			return fmt.Errorf("write fasta: %w", err)
		}
		logger.Info("wrote input records", "path", o.emitFasta, "records", len(records))
	}

	var bar *pb.ProgressBar
	var onDone func()
	if o.progress {
		bar = pb.New(len(records))
		bar.Output = os.Stderr
		bar.Start()
		onDone = func() { bar.Increment() }
	}
	start := time.Now()
	results, err := composition.AnalyzeParallel(ctx, records, cfg.Workers, onDone)
	if bar != nil {
		bar.Finish()
	}
	if err != nil {
		return fmt.Errorf("analyze: %w", err)
	}
	logger.Info("analyzed sequences", "records", len(records), "results", len(results), "skipped_empty", len(records)-len(results), "duration_ms", time.Since(start).Milliseconds())
	if len(results) == 0 {
		logger.Warn("no usable sequences found")
		return nil
	}

	if !o.quiet && cfg.OutputCSV != "-" && cfg.OutputJSON != "-" {
		if err := report.WriteTable(os.Stdout, results); err != nil {
			return err
		}
	}
	if cfg.OutputCSV != "" {
		if err := writeTo(cfg.OutputCSV, func(w io.Writer) error { return report.WriteCSV(w, results) }); err != nil {
			return fmt.Errorf("write csv: %w", err)
		}
		logger.Info("wrote CSV", "path", cfg.OutputCSV, "rows", len(results))
	}
	if cfg.OutputJSON != "" {
		if err := writeTo(cfg.OutputJSON, func(w io.Writer) error { return report.WriteJSON(w, results) }); err != nil {
			return fmt.Errorf("write json: %w", err)
		}
		logger.Info("wrote JSON", "path", cfg.OutputJSON, "results", len(results))
	}
	if cfg.ChartDir != "" {
		if err := writeCharts(cfg.ChartDir, results); err != nil {
			return err
		}
		logger.Info("wrote charts", "dir", cfg.ChartDir)
	}
	return nil
}

// collectRecords gathers records from the FASTA input, the raw sequence and
// NCBI accessions, in that order.
func collectRecords(ctx context.Context, logger *log.Logger, cfg *config.Config, o *options) ([]fasta.Record, error) {
	var records []fasta.Record

	if cfg.InputFasta != "" {
		recs, err := readFasta(cfg.InputFasta)
		if err != nil {
			return nil, err
		}
		logger.Info("parsed fasta", "path", cfg.InputFasta, "records", len(recs))
		records = append(records, recs...)
	}

	if o.seq != "" {
		records = append(records, composition.FromRaw(o.seq)...)
	}

	if len(o.accessions) > 0 {
		ncbi.SetLogger(logger)
		if cfg.NcbiCachePath != "" {
			p := cfg.NcbiCachePath
			if abs, err := filepath.Abs(p); err == nil {
				p = abs
			}
			ncbi.SetCacheFilePath(p)
			logger.Debug("ncbi cache path set from config", "path", p)
		}
		if cfg.NcbiCacheTTLSecs > 0 {
			ncbi.SetCacheTTLSeconds(cfg.NcbiCacheTTLSecs)
		}
		if cfg.NcbiApiKey != "" {
			os.Setenv("NCBI_API_KEY", cfg.NcbiApiKey)
			logger.Debug("ncbi api key provided in config (not logged)")
		}
		fctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
		recs, err := ncbi.FetchFasta(fctx, o.accessions)
		cancel()
		if err != nil {
			if len(recs) == 0 {
				return nil, fmt.Errorf("ncbi fetch: %w", err)
			}
			logger.Warn("some accessions could not be fetched", "err", err)
		}
		logger.Info("fetched accessions", "requested", len(o.accessions), "records", len(recs))
		records = append(records, recs...)
	}
	return records, nil
}

func readFasta(path string) ([]fasta.Record, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read input fasta: %w", err)
	}
	text, err := fasta.DecodeText(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return fasta.ParseString(text), nil
}

// writeTo opens path ("-" is stdout) and hands it to fn.
func writeTo(path string, fn func(io.Writer) error) error {
	if path == "-" {
		return fn(os.Stdout)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := fn(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func writeCharts(dir string, results []composition.Result) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create chart dir: %w", err)
	}
	gc, err := chart.GCContent(results)
	if err != nil {
		return err
	}
	if err := writeTo(filepath.Join(dir, "gc_content.png"), func(w io.Writer) error {
		return chart.WritePNG(w, gc, 0, 0)
	}); err != nil {
		return fmt.Errorf("write gc chart: %w", err)
	}
	comp, err := chart.BaseComposition(results[0])
	if err != nil {
		return err
	}
	if err := writeTo(filepath.Join(dir, "base_composition.png"), func(w io.Writer) error {
		return chart.WritePNG(w, comp, 0, 0)
	}); err != nil {
		return fmt.Errorf("write composition chart: %w", err)
	}
	return nil
}
