// Command ns1tool decodes NetStumbler .ns1 captures and renders, stores or
// serves them.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/banshee-data/ns1kit/internal/config"
	"github.com/banshee-data/ns1kit/internal/db"
	"github.com/banshee-data/ns1kit/internal/monitoring"
	"github.com/banshee-data/ns1kit/internal/ns1"
	"github.com/banshee-data/ns1kit/internal/render"
	"github.com/banshee-data/ns1kit/internal/version"
)

const usage = `Usage: ns1tool [-config file.json] [-debug] <command> [flags] [file.ns1]

Commands:
  txt       Write wi-scan text, one line per sample
  sql       Write SQL INSERT statements
  import    Decode captures into the SQLite store
  chart     Write an HTML signal chart
  summary   Write per-network statistics
  serve     Serve the stored captures over HTTP
  migrate   Manage the store schema
  version   Print version information

Input is read from stdin when no file is given.
`

// env is what every subcommand gets to work with.
type env struct {
	cfg    *config.Config
	stdin  io.Reader
	stdout io.Writer
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout); err != nil {
		log.Fatalf("ns1tool: %v", err)
	}
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout io.Writer) error {
	fs := flag.NewFlagSet("ns1tool", flag.ContinueOnError)
	fs.SetOutput(stdout)
	fs.Usage = func() { fmt.Fprint(stdout, usage) }
	configPath := fs.String("config", "", "Path to a JSON config file")
	debug := fs.Bool("debug", false, "Trace every decoded network")
	if err := fs.Parse(args); err != nil {
		return err
	}
	monitoring.SetDebug(*debug)

	cfg := &config.Config{}
	if *configPath != "" {
		var err error
		if cfg, err = config.LoadConfig(*configPath); err != nil {
			return err
		}
	}

	if fs.NArg() < 1 {
		fs.Usage()
		return fmt.Errorf("missing command")
	}
	e := &env{cfg: cfg, stdin: stdin, stdout: stdout}
	cmd, rest := fs.Arg(0), fs.Args()[1:]

	switch cmd {
	case "txt":
		return e.runText(rest)
	case "sql":
		return e.runSQL(rest)
	case "import":
		return e.runImport(ctx, rest)
	case "chart":
		return e.runChart(rest)
	case "summary":
		return e.runSummary(rest)
	case "serve":
		return e.runServe(ctx, rest)
	case "migrate":
		return e.runMigrate(rest)
	case "version":
		fmt.Fprintln(stdout, version.String())
		return nil
	case "help":
		fs.Usage()
		return nil
	default:
		fs.Usage()
		return fmt.Errorf("unknown command %q", cmd)
	}
}

// decodeInput decodes the single optional file argument, or stdin.
func (e *env) decodeInput(args []string) (*ns1.Capture, error) {
	switch len(args) {
	case 0:
		return ns1.Decode(e.stdin, e.cfg.DecoderOptions()...)
	case 1:
		return ns1.DecodeFile(args[0], e.cfg.DecoderOptions()...)
	default:
		return nil, fmt.Errorf("expected at most one input file, got %d", len(args))
	}
}

func (e *env) runText(args []string) error {
	fs := flag.NewFlagSet("txt", flag.ContinueOnError)
	tz := fs.String("tz", e.cfg.GetTimezone(), "Timezone for times of day")
	if err := fs.Parse(args); err != nil {
		return err
	}
	c, err := e.decodeInput(fs.Args())
	if err != nil {
		return err
	}
	return render.WriteText(e.stdout, c, render.TextOptions{Timezone: *tz})
}

func (e *env) runSQL(args []string) error {
	fs := flag.NewFlagSet("sql", flag.ContinueOnError)
	schema := fs.Bool("schema", false, "Prepend CREATE TABLE statements")
	networks := fs.String("networks", render.DefaultNetworkTable, "Network table name")
	samples := fs.String("samples", render.DefaultSampleTable, "Sample table name")
	if err := fs.Parse(args); err != nil {
		return err
	}
	opts := render.SQLOptions{NetworkTable: *networks, SampleTable: *samples}

	c, err := e.decodeInput(fs.Args())
	if err != nil {
		return err
	}
	if *schema {
		ddl, err := render.SchemaSQL(opts)
		if err != nil {
			return err
		}
		if _, err := io.WriteString(e.stdout, ddl); err != nil {
			return err
		}
	}
	return render.WriteSQL(e.stdout, c, opts)
}

func (e *env) runImport(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("import", flag.ContinueOnError)
	dbPath := fs.String("db", e.cfg.GetDBPath(), "SQLite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	database, err := db.NewDB(*dbPath)
	if err != nil {
		return err
	}
	defer database.Close()

	files := fs.Args()
	if len(files) == 0 {
		c, err := ns1.Decode(e.stdin, e.cfg.DecoderOptions()...)
		if err != nil {
			return err
		}
		id, err := database.ImportCapture(ctx, "stdin", c)
		if err != nil {
			return err
		}
		fmt.Fprintln(e.stdout, id)
		return nil
	}

	// Every file is decoded before anything is stored.
	captures := make([]*ns1.Capture, len(files))
	for i, path := range files {
		if captures[i], err = ns1.DecodeFile(path, e.cfg.DecoderOptions()...); err != nil {
			return err
		}
	}
	for i, path := range files {
		id, err := database.ImportCapture(ctx, path, captures[i])
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		fmt.Fprintf(e.stdout, "%s\t%s\n", id, path)
	}
	return nil
}

func (e *env) runChart(args []string) error {
	fs := flag.NewFlagSet("chart", flag.ContinueOnError)
	title := fs.String("title", "", "Chart title")
	maxNetworks := fs.Int("max", render.DefaultChartNetworks, "Maximum number of networks to plot")
	out := fs.String("out", "", "Write the chart to this file instead of stdout")
	assets := fs.String("assets", e.cfg.GetChartAssetsHost(), "Base URL for the echarts scripts")
	if err := fs.Parse(args); err != nil {
		return err
	}
	c, err := e.decodeInput(fs.Args())
	if err != nil {
		return err
	}

	opts := render.ChartOptions{Title: *title, MaxNetworks: *maxNetworks, AssetsHost: *assets}
	if *out == "" {
		return render.WriteSignalChart(e.stdout, c, opts)
	}
	f, err := os.Create(*out)
	if err != nil {
		return fmt.Errorf("failed to create chart file: %w", err)
	}
	if err := render.WriteSignalChart(f, c, opts); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func (e *env) runSummary(args []string) error {
	fs := flag.NewFlagSet("summary", flag.ContinueOnError)
	tz := fs.String("tz", e.cfg.GetTimezone(), "Timezone for first and last seen times")
	if err := fs.Parse(args); err != nil {
		return err
	}
	c, err := e.decodeInput(fs.Args())
	if err != nil {
		return err
	}
	return render.WriteSummary(e.stdout, render.Summarize(c), render.SummaryOptions{Timezone: *tz})
}

func (e *env) runMigrate(args []string) error {
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	dbPath := fs.String("db", e.cfg.GetDBPath(), "SQLite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}
	return db.RunMigrateCommand(e.stdout, fs.Args(), *dbPath)
}
