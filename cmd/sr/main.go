package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime/pprof"
	"strconv"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/goccy/go-json"

	"github.com/vanderheijden86/showroom/internal/datasource"
	_ "github.com/vanderheijden86/showroom/pkg/agents"
	"github.com/vanderheijden86/showroom/pkg/config"
	"github.com/vanderheijden86/showroom/pkg/engine"
	"github.com/vanderheijden86/showroom/pkg/export"
	"github.com/vanderheijden86/showroom/pkg/fieldmap"
	"github.com/vanderheijden86/showroom/pkg/filter"
	"github.com/vanderheijden86/showroom/pkg/model"
	"github.com/vanderheijden86/showroom/pkg/remote"
	"github.com/vanderheijden86/showroom/pkg/ui"
	"github.com/vanderheijden86/showroom/pkg/verify"
	"github.com/vanderheijden86/showroom/pkg/version"
	"github.com/vanderheijden86/showroom/pkg/watcher"

	"github.com/vanderheijden86/showroom/pkg/queue"
)

func main() {
	cpuProfile := flag.String("cpu-profile", "", "Write CPU profile to file")
	help := flag.Bool("help", false, "Show help")
	versionFlag := flag.Bool("version", false, "Show version")
	collectionFlag := flag.String("collection", "", "Collection to open (sinks, taps, lighting, showers, toilets)")
	robotRows := flag.Bool("robot-rows", false, "Print every row with its score as JSON and exit")
	reportPath := flag.String("export-report", "", "Write a markdown completeness report to PATH and exit")
	histogramPath := flag.String("export-histogram", "", "Write an SVG score histogram to PATH and exit")
	flag.Parse()

	// CPU profiling support
	if *cpuProfile != "" {
		f, err := os.Create(*cpuProfile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Could not create CPU profile: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			fmt.Fprintf(os.Stderr, "Could not start CPU profile: %v\n", err)
			os.Exit(1)
		}
		defer pprof.StopCPUProfile()
	}

	if *help {
		fmt.Println("Usage: sr [options]")
		fmt.Println("\nA TUI editor for the showroom product catalog.")
		flag.PrintDefaults()
		os.Exit(0)
	}

	if *versionFlag {
		fmt.Printf("sr %s\n", version.Version)
		os.Exit(0)
	}

	cfg, cfgErr := config.Load()
	if cfgErr != nil {
		// Non-fatal: continue with defaults
		fmt.Fprintf(os.Stderr, "Warning: config unreadable, using defaults: %v\n", cfgErr)
		cfg = config.DefaultConfig()
	}

	schemas := fieldmap.Defaults()
	if cfg.FieldMapPath != "" {
		var err error
		schemas, err = fieldmap.LoadFile(cfg.FieldMapPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading field map: %v\n", err)
			os.Exit(1)
		}
	}

	coll, err := pickCollection(*collectionFlag, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}
	schema, ok := schemas.Lookup(coll)
	if !ok {
		schema = fieldmap.Schema{Collection: coll}
	}

	if cfg.API.BaseURL == "" {
		if err := firstRunSetup(&cfg); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}
	if cfg.API.BaseURL == "" {
		fmt.Fprintln(os.Stderr, "Error: no catalog API configured.")
		fmt.Fprintln(os.Stderr, "Set api.base_url in the config file or export SR_API_URL.")
		os.Exit(2)
	}

	clientOpts := []remote.ClientOption{}
	if cfg.API.Token != "" {
		clientOpts = append(clientOpts, remote.WithAuthToken(cfg.API.Token))
	}
	if cfg.API.Timeout.Std() > 0 {
		clientOpts = append(clientOpts, remote.WithTimeout(cfg.API.Timeout.Std()))
	}
	client, err := remote.NewClient(cfg.API.BaseURL, clientOpts...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	engOpts := engineOptions(cfg)

	// The mirror is best effort: without it the tool still runs, it just
	// cannot start offline or journal unfinished saves.
	var mirror *datasource.Mirror
	if path, err := datasource.DefaultPath(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: no data directory, running without local snapshot: %v\n", err)
	} else if mirror, err = datasource.Open(path); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: snapshot mirror unavailable: %v\n", err)
		mirror = nil
	}
	if mirror != nil {
		defer mirror.Close()
		engOpts = append(engOpts,
			engine.WithMirror(mirror),
			engine.WithJournal(mirror.NewJournal(coll)),
		)
		if pending, err := mirror.TakePending(coll); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not recover unsaved changes: %v\n", err)
		} else if len(pending) > 0 {
			fmt.Fprintf(os.Stderr, "Recovering %d unsaved change(s) from the previous session\n", len(pending))
			engOpts = append(engOpts, engine.WithPendingTasks(pending))
		}
	}

	eng := engine.New(engine.Bind(client, coll), coll, schema, engOpts...)
	if err := eng.Start(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error loading %s: %v\n", coll, err)
		os.Exit(1)
	}
	defer eng.Close()

	for _, w := range eng.Warnings() {
		fmt.Fprintf(os.Stderr, "Warning: %s\n", w)
	}

	// Non-interactive modes run against the loaded engine and exit.
	if *robotRows {
		if err := printRowsJSON(eng); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}
	if *reportPath != "" || *histogramPath != "" {
		if err := writeExports(eng, *reportPath, *histogramPath); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	var mirrorWatcher *watcher.Watcher
	if mirror != nil {
		mirrorWatcher, err = watcher.NewWatcher(mirror.Path())
		if err == nil {
			err = mirrorWatcher.Start()
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: not watching the snapshot file: %v\n", err)
			mirrorWatcher = nil
		} else {
			defer mirrorWatcher.Stop()
		}
	}

	worker := ui.NewWorker(eng, mirrorWatcher)
	worker.Start()
	defer worker.Stop()

	m := ui.NewModel(eng, worker, ui.DefaultTheme(lipgloss.DefaultRenderer()))
	if err := runTUIProgram(m); err != nil {
		fmt.Printf("Error running showroom: %v\n", err)
		os.Exit(1)
	}
}

// pickCollection resolves the collection to open: flag over environment
// and config (config.Load already applies SR_COLLECTION).
func pickCollection(flagValue string, cfg config.Config) (model.Collection, error) {
	name := strings.TrimSpace(flagValue)
	if name == "" {
		name = cfg.UI.DefaultCollection
	}
	return model.ParseCollection(name)
}

// engineOptions maps the sync tunables from the config file onto engine
// options. Zero values keep the built-in defaults.
func engineOptions(cfg config.Config) []engine.Option {
	var opts []engine.Option

	var queueOpts []queue.Option
	if d := cfg.Sync.Pacing.Std(); d > 0 {
		queueOpts = append(queueOpts, queue.WithPacing(d))
	}
	if d := cfg.Sync.WriteTimeout.Std(); d > 0 {
		queueOpts = append(queueOpts, queue.WithWriteTimeout(d))
	}
	if len(queueOpts) > 0 {
		opts = append(opts, engine.WithQueueOptions(queueOpts...))
	}

	var verifyOpts []verify.Option
	if d := cfg.Sync.TypingDelay.Std(); d > 0 {
		verifyOpts = append(verifyOpts, verify.WithTypingDelay(d))
	}
	if d := cfg.Sync.BlurDelay.Std(); d > 0 {
		verifyOpts = append(verifyOpts, verify.WithBlurDelay(d))
	}
	if len(verifyOpts) > 0 {
		opts = append(opts, engine.WithVerifyOptions(verifyOpts...))
	}

	return opts
}

// robotRow is the machine-readable row dump for --robot-rows.
type robotRow struct {
	ID     string            `json:"id"`
	Score  int               `json:"score"`
	Fields map[string]string `json:"fields"`
}

func printRowsJSON(eng *engine.Engine) error {
	ids := eng.Visible(filter.Spec{})
	rows := make([]robotRow, 0, len(ids))
	for _, id := range ids {
		rec, ok := eng.Record(id)
		if !ok {
			continue
		}
		rows = append(rows, robotRow{
			ID:     id.String(),
			Score:  eng.Score(id),
			Fields: rec,
		})
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(rows)
}

func writeExports(eng *engine.Engine, reportPath, histogramPath string) error {
	summary := export.Summarize(eng.Collection(), eng.Snapshot(), eng.Schema(), nil)

	if reportPath != "" {
		md := export.GenerateMarkdown(summary, time.Now())
		if err := export.SaveMarkdownToFile(md, reportPath); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Report written to %s\n", reportPath)
	}
	if histogramPath != "" {
		if err := export.SaveHistogramSVG(summary, histogramPath); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Histogram written to %s\n", histogramPath)
	}
	return nil
}

func runTUIProgram(m ui.Model) error {
	p := tea.NewProgram(
		m,
		tea.WithAltScreen(),
		tea.WithoutSignalHandler(),
	)

	runDone := make(chan struct{})
	defer close(runDone)

	// Graceful shutdown on SIGINT/SIGTERM.
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-runDone:
			return
		case <-sigCh:
		}

		p.Quit()

		select {
		case <-runDone:
			return
		case <-sigCh:
		case <-time.After(5 * time.Second):
		}

		p.Kill()
	}()

	// Optional auto-quit for automated tests: set SR_TUI_AUTOCLOSE_MS.
	if v := os.Getenv("SR_TUI_AUTOCLOSE_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
			go func() {
				timer := time.NewTimer(time.Duration(ms) * time.Millisecond)
				defer timer.Stop()

				select {
				case <-runDone:
					return
				case <-timer.C:
				}

				p.Quit()

				select {
				case <-runDone:
					return
				case <-time.After(2 * time.Second):
				}

				p.Kill()
			}()
		}
	}

	_, err := p.Run()
	if err != nil && errors.Is(err, tea.ErrProgramKilled) {
		return nil
	}
	if err != nil && errors.Is(err, tea.ErrInterrupted) {
		return nil
	}
	return err
}
