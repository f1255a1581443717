// Command vio-eval scores VIO runs against benchmark groundtruth and prints
// result tables.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/banshee-data/vio-eval/internal/config"
	"github.com/banshee-data/vio-eval/internal/dataset"
	"github.com/banshee-data/vio-eval/internal/db"
	"github.com/banshee-data/vio-eval/internal/evaluation"
	"github.com/banshee-data/vio-eval/internal/fsutil"
	"github.com/banshee-data/vio-eval/internal/monitoring"
	"github.com/banshee-data/vio-eval/internal/version"
)

func main() {
	flag.Usage = printUsage
	flag.Parse()

	if flag.NArg() < 1 {
		printUsage()
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, flag.Arg(0), flag.Args()[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, command string, args []string, out io.Writer) error {
	switch command {
	case "evaluate":
		return handleEvaluate(ctx, args, out)
	case "all":
		return handleAll(ctx, args, out)
	case "migrate":
		return handleMigrate(args, out)
	case "version":
		fmt.Fprintln(out, version.String())
		return nil
	case "help":
		printUsage()
		return nil
	}
	printUsage()
	return fmt.Errorf("unknown command: %s", command)
}

func printUsage() {
	fmt.Println(`vio-eval - trajectory evaluation for visual-inertial odometry runs

Usage: vio-eval <command> [options]

Commands:
  evaluate   Evaluate one run folder and print its results table
  all        Evaluate every finished (or temporary) run below a results folder
  migrate    Manage the result store schema (up, down, version)
  version    Show vio-eval version
  help       Show this help message

Common Flags:
  -config <file>   JSON evaluation config (defaults apply to missing fields)
  -db <file>       SQLite result store; overrides results_db from the config
  -reevaluate      Ignore cached evaluations

Examples:
  vio-eval evaluate -run results/dmvio-euroc -dataset euroc -iter 10 -name dmvio
  vio-eval all -results results -config config/eval.defaults.json
  vio-eval migrate -db results.db version`)
}

func loadConfig(path string) (*config.EvalConfig, error) {
	if path == "" {
		return config.EmptyEvalConfig(), nil
	}
	return config.LoadEvalConfig(path)
}

// openStore opens the result store named by override or the config. It
// returns nil when neither names one.
func openStore(cfg *config.EvalConfig, override string) (*db.DB, error) {
	path := cfg.GetResultsDB()
	if override != "" {
		path = override
	}
	if path == "" {
		return nil, nil
	}
	return db.Open(path)
}

func newEvaluator(cfg *config.EvalConfig, store *db.DB) *evaluation.Evaluator {
	ec := evaluation.EvaluatorConfig{FS: fsutil.OSFileSystem{}, Config: cfg}
	if store != nil {
		ec.Store = store
	}
	return evaluation.NewEvaluator(ec)
}

func handleEvaluate(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("evaluate", flag.ContinueOnError)
	configPath := fs.String("config", "", "JSON evaluation config")
	runFolder := fs.String("run", "", "Run folder to evaluate (required)")
	datasetName := fs.String("dataset", "", "Dataset: euroc, tumvi or 4seasons (required)")
	numIter := fs.Int("iter", 1, "Number of iterations of every sequence")
	name := fs.String("name", "", "Result name shown in the table")
	reevaluate := fs.Bool("reevaluate", false, "Ignore a cached evaluation")
	dbPath := fs.String("db", "", "SQLite result store")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *runFolder == "" || *datasetName == "" {
		fs.Usage()
		return fmt.Errorf("-run and -dataset are required")
	}
	d, err := dataset.ParseName(*datasetName)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	store, err := openStore(cfg, *dbPath)
	if err != nil {
		return err
	}
	if store != nil {
		defer store.Close()
	}

	label := *name
	if label == "" {
		label = filepath.Base(*runFolder)
	}
	est, _, err := newEvaluator(cfg, store).EvaluateRun(ctx, *runFolder, d, *numIter, label, *reevaluate)
	if err != nil {
		return err
	}
	return evaluation.ResultsTable(out, []*evaluation.Result{est})
}

func handleAll(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("all", flag.ContinueOnError)
	configPath := fs.String("config", "", "JSON evaluation config")
	resultsFolder := fs.String("results", "", "Folder containing one sub-folder per run (required)")
	includeUnfinished := fs.Bool("include-unfinished", false, "Also evaluate runs that neither finished nor are temporary")
	reevaluate := fs.Bool("reevaluate", false, "Ignore cached evaluations")
	dbPath := fs.String("db", "", "SQLite result store")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *resultsFolder == "" {
		fs.Usage()
		return fmt.Errorf("-results is required")
	}
	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	store, err := openStore(cfg, *dbPath)
	if err != nil {
		return err
	}
	if store != nil {
		defer store.Close()
	}

	runs, err := evaluation.LoadRunDescriptors(fsutil.OSFileSystem{}, *resultsFolder)
	if err != nil {
		return err
	}
	var selected []evaluation.RunDescriptor
	for _, rd := range runs {
		if *includeUnfinished || evaluation.FinishedOrTemporary(rd) {
			selected = append(selected, rd)
		}
	}
	monitoring.Logf("There are %d results after filtering.", len(selected))

	evaluated, err := newEvaluator(cfg, store).EvaluateAll(ctx, selected, *reevaluate)
	if err != nil {
		return err
	}

	byDataset := make(map[dataset.Dataset][]*evaluation.Result)
	failed := 0
	for _, ev := range evaluated {
		if ev.Err != nil {
			monitoring.Warnf("%s: %v", ev.Run.Folder, ev.Err)
			failed++
			continue
		}
		if ev.Estimated.Name == "" {
			ev.Estimated.SetName(filepath.Base(ev.Run.Folder))
		}
		byDataset[ev.Estimated.Dataset] = append(byDataset[ev.Estimated.Dataset], ev.Estimated)
	}

	for _, d := range dataset.All() {
		results := byDataset[d]
		if len(results) == 0 {
			continue
		}
		fmt.Fprintf(out, "\n%s (%d runs)\n", d, len(results))
		if err := evaluation.ResultsTable(out, results); err != nil {
			return err
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d runs could not be evaluated", failed, len(evaluated))
	}
	return nil
}

func handleMigrate(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	configPath := fs.String("config", "", "JSON evaluation config")
	dbPath := fs.String("db", "", "SQLite result store")
	if err := fs.Parse(args); err != nil {
		return err
	}

	action := "up"
	if fs.NArg() > 0 {
		action = fs.Arg(0)
	}
	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	// Open migrates to the latest version.
	store, err := openStore(cfg, *dbPath)
	if err != nil {
		return err
	}
	if store == nil {
		return fmt.Errorf("no result store: pass -db or set results_db")
	}
	defer store.Close()

	migFS, err := db.MigrationsFS()
	if err != nil {
		return err
	}
	switch action {
	case "up":
	case "down":
		if err := store.MigrateDown(migFS); err != nil {
			return err
		}
	case "version":
	default:
		return fmt.Errorf("unknown migrate action %q (want up, down or version)", action)
	}

	v, dirty, err := store.MigrateVersion(migFS)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "schema version %d (dirty: %v)\n", v, dirty)
	return nil
}
