// Command audit runs the bias audit pipeline against a local dataset file
// and prints the fairness report.
//
//	audit [flags] german.csv
//
// Defaults come from the [audit] section of the config file and the
// PARITY_AUDIT_* variables; flags override both.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/JaimeStill/parity/internal/config"
	"github.com/JaimeStill/parity/internal/infrastructure"
	"github.com/JaimeStill/parity/internal/pipeline"
	"github.com/JaimeStill/parity/pkg/dataset"
)

var errUsage = errors.New("usage: audit [flags] <dataset.csv|dataset.json>")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintln(os.Stderr, "audit:", err)
		}
		os.Exit(1)
	}
}

type flags struct {
	config       string
	cuts         string
	seed         int64
	shuffle      bool
	partition    int
	label        string
	protected    string
	privileged   float64
	unprivileged float64
	out          string
	logLevel     string
	logFormat    string
	set          map[string]bool
}

func parse(args []string, stderr io.Writer) (*flags, []string, error) {
	f := &flags{set: make(map[string]bool)}

	fs := flag.NewFlagSet("audit", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&f.config, "config", "", "config file with an [audit] section (default config.toml)")
	fs.StringVar(&f.cuts, "cuts", "", "comma-separated split cut points, e.g. 0.7 or 0.5,0.8")
	fs.Int64Var(&f.seed, "seed", 0, "shuffle seed")
	fs.BoolVar(&f.shuffle, "shuffle", true, "shuffle rows before splitting")
	fs.IntVar(&f.partition, "partition", 0, "partition used to fit the reweighing weights")
	fs.StringVar(&f.label, "label", "", "label column (CSV)")
	fs.StringVar(&f.protected, "protected", "", "protected attribute column")
	fs.Float64Var(&f.privileged, "privileged", 1, "protected attribute value of the privileged group")
	fs.Float64Var(&f.unprivileged, "unprivileged", 0, "protected attribute value of the unprivileged group")
	fs.StringVar(&f.out, "out", "", "write the reweighted partition as JSON to this file")
	fs.StringVar(&f.logLevel, "log-level", "warn", "log level for pipeline progress")
	fs.StringVar(&f.logFormat, "log-format", config.LogFormatText, "log output format: text or json")

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	fs.Visit(func(fl *flag.Flag) { f.set[fl.Name] = true })

	return f, fs.Args(), nil
}

// apply overlays explicitly set flags on the loaded audit defaults.
func (f *flags) apply(cfg *config.AuditConfig) error {
	if f.set["cuts"] {
		cuts, err := config.ParseCuts(f.cuts)
		if err != nil {
			return err
		}
		cfg.Cuts = cuts
	}
	if f.set["seed"] {
		cfg.Seed = f.seed
	}
	if f.set["shuffle"] {
		cfg.Shuffle = &f.shuffle
	}
	if f.set["partition"] {
		cfg.Partition = f.partition
	}
	if f.set["label"] {
		cfg.Label = f.label
	}
	if f.set["protected"] {
		cfg.ProtectedAttribute = f.protected
	}
	if f.set["privileged"] {
		cfg.PrivilegedValue = &f.privileged
	}
	if f.set["unprivileged"] {
		cfg.UnprivilegedValue = &f.unprivileged
	}
	return nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	f, rest, err := parse(args, stderr)
	if err != nil {
		return err
	}
	if len(rest) != 1 {
		return errUsage
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(f.logLevel)); err != nil {
		return fmt.Errorf("invalid -log-level: %w", err)
	}
	logger := infrastructure.NewLogger(stderr, level, f.logFormat)

	cfg, err := config.LoadAudit(f.config)
	if err != nil {
		return err
	}
	if err := f.apply(cfg); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	path := rest[0]
	ds, err := dataset.Load(path, cfg.LoadOptions()...)
	if err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}

	privileged, unprivileged := cfg.Groups()
	result, err := pipeline.Execute(ctx, pipeline.NewRuntime(logger), pipeline.Request{
		Dataset:      ds,
		Cuts:         cfg.Cuts,
		Split:        cfg.SplitOptions(),
		Privileged:   privileged,
		Unprivileged: unprivileged,
		Partition:    cfg.Partition,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(stdout, "dataset = %s (%d rows)\n", path, result.Rows)
	fmt.Fprintf(stdout, "groups = %s vs %s\n", privileged, unprivileged)
	for _, line := range result.Lines() {
		fmt.Fprintln(stdout, line)
	}

	if f.out != "" {
		return writeDataset(f.out, result.Reweighted)
	}
	return nil
}

func writeDataset(path string, ds *dataset.Dataset) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := dataset.Encode(file, ds); err != nil {
		file.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return file.Close()
}
