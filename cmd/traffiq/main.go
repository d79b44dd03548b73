package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/joho/godotenv"

	"github.com/traffiq/traffiq/dashboard"
	"github.com/traffiq/traffiq/fragments"
	"github.com/traffiq/traffiq/helpers"
	"github.com/traffiq/traffiq/render"
	"github.com/traffiq/traffiq/schema"
	"github.com/traffiq/traffiq/traffic"
)

// ============================================================================
// TRAFFIQ CLI — Accident and license dashboard
// ============================================================================

const version = "0.1.0"

var errNoSource = errors.New("no source file given")

// setFlags collects repeated --set control=value flags.
type setFlags []string

func (s *setFlags) String() string     { return strings.Join(*s, ",") }
func (s *setFlags) Set(v string) error { *s = append(*s, v); return nil }

func main() {
	// .env is optional; real environment variables win.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Warning: .env ignored: %v\n", err)
	}

	// ── Flags ─────────────────────────────────────────────────────────────
	accidentsPath := flag.String("accidents", "", "Path to accident data (CSV or XLSX)")
	licensesPath := flag.String("licenses", "", "Path to license data (CSV or XLSX)")
	sheet := flag.String("sheet", "", "Worksheet name for XLSX sources (default: first sheet)")
	schemaPath := flag.String("schema", "", "Path to schema JSON overriding column names")
	dumpSchema := flag.Bool("dump-schema", false, "Print the effective schema as JSON and exit")
	mapsDir := flag.String("maps", "", "Directory holding map_<year>.html fragments")
	mapsURL := flag.String("maps-url", os.Getenv(fragments.EnvBaseURL), "Base URL serving map_<year>.html fragments")
	outDir := flag.String("out", "out", "Output directory")
	formats := flag.String("format", "png,json", "Comma list of outputs: png, json, xlsx, text")
	since := flag.Int("since", traffic.DefaultSinceYear, "First year counted by the annual average")
	topZones := flag.Int("top-zones", traffic.DefaultTopZones, "Zones shown in the top-zone trend")
	licenseFrom := flag.String("license-from", "", "Only licenses issued on or after this date (YYYY-MM-DD)")
	licenseTo := flag.String("license-to", "", "Only licenses issued on or before this date (YYYY-MM-DD)")
	interactive := flag.Bool("interactive", false, "Read control=value lines from stdin")
	logLevel := flag.String("log-level", "info", "Log level: debug, info, warn, error")
	showVersion := flag.Bool("version", false, "Print version and exit")
	var sets setFlags
	flag.Var(&sets, "set", "Apply a control change after loading (repeatable), e.g. accident-year=2021")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `TraffiQ — traffic accident and driving license dashboard

Usage:
  traffiq --accidents facc.csv --licenses liz.csv --out out/
  traffiq --accidents facc.csv --set accident-year=2021 --set severity-category=accident-reason
  traffiq --accidents facc.csv --set severity-filter=FATAL,SEVERE --format text
  traffiq --accidents facc.xlsx --sheet Accidents --format xlsx,text
  traffiq --accidents facc.csv --licenses liz.csv --interactive --format text

Flags:
`)
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Environment (also read from ./.env):
  %s    Fallback for --maps-url

Controls:
  accident-year       accident years in the data
  severity-category   nationality-group, accident-nature, accident-reason
  license-category    gender, nationality-group
  license-year        license years in the data
  severity-filter     comma-separated severities for the trend charts, empty for all
  nationality-filter  comma-separated nationality groups for the trend charts, empty for all

Formats:
  png     One PNG per chart
  json    One JSON frame per chart, plus metrics and controls
  xlsx    traffiq.xlsx with one sheet per chart
  text    Tables and metrics on stdout
`, fragments.EnvBaseURL)
	}

	flag.Parse()

	if *showVersion {
		fmt.Printf("traffiq %s\n", version)
		os.Exit(0)
	}

	logger := newLogger(*logLevel)
	slog.SetDefault(logger)

	// ── Schema ────────────────────────────────────────────────────────────
	set := schema.DefaultSet()
	if *schemaPath != "" {
		loaded, err := schema.LoadFile(*schemaPath)
		if err != nil {
			fatalf("Failed to load schema: %v", err)
		}
		set = loaded
		logger.Info("📋 loaded schema", slog.String("path", *schemaPath))
	}
	if *dumpSchema {
		writeJSON(os.Stdout, set)
		return
	}

	window, err := parseWindow(*licenseFrom, *licenseTo)
	if err != nil {
		fatalf("%v", err)
	}

	if *accidentsPath == "" && *licensesPath == "" {
		fmt.Fprintln(os.Stderr, "Error: --accidents or --licenses is required")
		flag.Usage()
		os.Exit(1)
	}

	// ── Rendering boundary ────────────────────────────────────────────────
	renderer, workbook, err := buildRenderer(*formats, *outDir, os.Stdout)
	if err != nil {
		fatalf("%v", err)
	}

	opts := []dashboard.Option{
		dashboard.WithMetricSink(renderer),
		dashboard.WithLogger(logger.With(slog.String("module", "dashboard"))),
		dashboard.WithSinceYear(*since),
		dashboard.WithTopZones(*topZones),
	}
	switch {
	case *mapsDir != "":
		opts = append(opts, dashboard.WithFragmentStore(fragments.NewDirStore(*mapsDir)))
	case *mapsURL != "":
		opts = append(opts, dashboard.WithFragmentStore(fragments.NewHTTPStore(*mapsURL)))
	}
	ctrl := dashboard.New(renderer, opts...)

	// ── Event loop ────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	events := make(chan dashboard.Event)
	done := make(chan error, 1)
	go func() { done <- ctrl.Run(ctx, events) }()

	// Both datasets load concurrently; whichever finishes first is drawn first.
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		post(ctx, events, loadAccidents(*accidentsPath, *sheet, set.Accidents))
	}()
	go func() {
		defer wg.Done()
		post(ctx, events, loadLicenses(*licensesPath, *sheet, set.Licenses, window))
	}()
	wg.Wait()

	for _, s := range sets {
		send(ctx, events, logger, s)
	}
	if *interactive {
		readControls(ctx, os.Stdin, events, logger)
	}

	close(events)
	if err := <-done; err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("event loop stopped", slog.Any("error", err))
	}

	if workbook != nil {
		if err := workbook.Save(); err != nil {
			fatalf("%v", err)
		}
		workbook.Close()
		logger.Info("📄 workbook written", slog.String("path", workbook.Path))
	}
}

// ============================================================================
// LOADING
// ============================================================================

func loadAccidents(path, sheet string, sch schema.Config) dashboard.Event {
	if path == "" {
		return dashboard.LoadError{Dataset: schema.DatasetAccidents, Err: errNoSource}
	}
	start := time.Now()
	table, err := helpers.LoadAccidents(path, sheet, sch)
	if err != nil {
		return dashboard.LoadError{Dataset: schema.DatasetAccidents, Err: err}
	}
	slog.Info("📊 parsed accidents", slog.Int("records", table.Len()), slog.Duration("took", time.Since(start)))
	return dashboard.AccidentsLoaded{Table: table}
}

func loadLicenses(path, sheet string, sch schema.Config, window helpers.DateWindow) dashboard.Event {
	if path == "" {
		return dashboard.LoadError{Dataset: schema.DatasetLicenses, Err: errNoSource}
	}
	start := time.Now()
	table, err := helpers.LoadLicenses(path, sheet, sch, window)
	if err != nil {
		return dashboard.LoadError{Dataset: schema.DatasetLicenses, Err: err}
	}
	slog.Info("📊 parsed licenses", slog.Int("records", table.Len()), slog.Duration("took", time.Since(start)))
	return dashboard.LicensesLoaded{Table: table}
}

func parseWindow(from, to string) (helpers.DateWindow, error) {
	var w helpers.DateWindow
	var err error
	if from != "" {
		if w.From, err = time.Parse("2006-01-02", from); err != nil {
			return w, fmt.Errorf("invalid --license-from: %w", err)
		}
	}
	if to != "" {
		if w.To, err = time.Parse("2006-01-02", to); err != nil {
			return w, fmt.Errorf("invalid --license-to: %w", err)
		}
	}
	return w, nil
}

// ============================================================================
// CONTROLS
// ============================================================================

// send posts one control=value change and waits for its outcome.
func send(ctx context.Context, events chan<- dashboard.Event, logger *slog.Logger, assignment string) bool {
	name, value, ok := strings.Cut(assignment, "=")
	if !ok {
		name, value, ok = strings.Cut(strings.TrimSpace(assignment), " ")
	}
	if !ok {
		logger.Warn("⚠️  expected control=value", slog.String("input", assignment))
		return false
	}
	ctl, err := dashboard.ParseControl(strings.TrimSpace(name))
	if err != nil {
		logger.Warn("⚠️  rejected", slog.Any("error", err))
		return false
	}

	reply := make(chan error, 1)
	if !post(ctx, events, dashboard.ControlChanged{Control: ctl, Value: strings.TrimSpace(value), Reply: reply}) {
		return false
	}
	select {
	case err := <-reply:
		if err != nil && !dashboard.IsRejected(err) {
			logger.Error("control change failed", slog.Any("error", err))
		}
		return err == nil
	case <-ctx.Done():
		return false
	}
}

// post hands ev to the event loop unless ctx is done first.
func post(ctx context.Context, events chan<- dashboard.Event, ev dashboard.Event) bool {
	select {
	case events <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

func readControls(ctx context.Context, r io.Reader, events chan<- dashboard.Event, logger *slog.Logger) {
	scanner := bufio.NewScanner(r)
	fmt.Fprintln(os.Stderr, "🎛️  enter control=value, or 'quit'")
	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case "quit", "exit":
			return
		}
		send(ctx, events, logger, line)
	}
}

// ============================================================================
// OUTPUT
// ============================================================================

type multiRenderer interface {
	dashboard.Renderer
	dashboard.MetricSink
}

func buildRenderer(formats, outDir string, stdout io.Writer) (multiRenderer, *render.WorkbookRenderer, error) {
	var (
		multi    render.Multi
		workbook *render.WorkbookRenderer
	)
	for _, f := range strings.Split(formats, ",") {
		switch strings.TrimSpace(strings.ToLower(f)) {
		case "png":
			multi = append(multi, render.NewPlotRenderer(outDir))
		case "json":
			multi = append(multi, render.NewJSONRenderer(outDir))
		case "xlsx":
			if err := os.MkdirAll(outDir, 0o755); err != nil {
				return nil, nil, err
			}
			workbook = render.NewWorkbookRenderer(filepath.Join(outDir, "traffiq.xlsx"))
			multi = append(multi, workbook)
		case "text":
			multi = append(multi, render.NewTextRenderer(stdout))
		case "":
		default:
			return nil, nil, fmt.Errorf("unknown format %q", f)
		}
	}
	if len(multi) == 0 {
		return nil, nil, fmt.Errorf("no output format selected")
	}
	return multi, workbook, nil
}

func writeJSON(w io.Writer, v any) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fatalf("Failed to marshal output: %v", err)
	}
	fmt.Fprintln(w, string(out))
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}
