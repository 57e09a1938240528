// benchfarm provisions a ready-to-query benchmark database on a MonetDB
// farm: it builds the data generator when needed, creates and starts the
// farm, creates the database, applies the benchmark schema, generates and
// loads the table data, and removes the raw files afterwards.
package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/benchfarm/benchfarm/bench"
	"github.com/benchfarm/benchfarm/provision"
	"github.com/benchfarm/benchfarm/shell"
)

var (
	cfg      provision.Config
	confFile string
)

var rootCmd = &cobra.Command{
	Use:   "benchfarm",
	Short: "Prepare a benchmark database on a MonetDB farm",
	Long: `benchfarm automates preparing a benchmark database end to end: it locates
or builds the data generator, verifies disk space, ensures a running
database farm, creates the database, applies the schema, generates and
loads the table data, and cleans up the raw files.

An existing database with the target name is a fatal conflict unless
--recreate is given. Previously generated table files can be reused with
--use-generated; the JOB benchmark always requires it, since its IMDB data
set is downloaded rather than generated.`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runProvision,
}

func init() {
	f := rootCmd.Flags()
	f.IntVarP(&cfg.ScaleFactor, "scale-factor", "s", 1, "size of the generated data set, in roughly GiB units")
	f.StringVarP(&cfg.Benchmark, "benchmark", "b", bench.TPCH, fmt.Sprintf("benchmark to provision (choices: %s)", strings.Join(bench.Choices, ", ")))
	f.StringVarP(&cfg.Platform, "platform", "p", "", "generator build platform (default: detected from the host OS)")
	f.StringVarP(&cfg.FarmPath, "db-farm", "f", "", "database farm path (default: $DB_FARM or ~/dbfarm)")
	f.StringVarP(&cfg.DBName, "db-name", "d", "", "database name (default: derived from benchmark and scale factor)")
	f.IntVarP(&cfg.Port, "port", "P", provision.DefaultPort, "port the farm daemon listens on")
	f.StringVarP(&cfg.DataDir, "data-gen-dir", "D", "", "directory for the generated table files (default: ~/benchfarm-data/<db-name>)")
	f.BoolVarP(&cfg.Recreate, "recreate", "r", false, "destroy and recreate the database if it already exists")
	f.BoolVarP(&cfg.UseGenerated, "use-generated", "G", false, "reuse previously generated table files instead of running the generator")
	f.BoolVarP(&cfg.KeepRaw, "keep-raw-tables", "k", false, "keep the raw table files after loading")
	f.BoolVarP(&cfg.Verbose, "verbose", "v", false, "log subprocess invocations and their output")
	f.StringVarP(&cfg.LogFile, "log-file", "l", "", "also write the run log to this file")
	f.StringVar(&cfg.BenchRoot, "bench-root", ".", "directory holding the per-benchmark SQL scripts and generator sources")
	f.StringVar(&cfg.DBGenDir, "dbgen-dir", "", "data generator source directory (default: <bench-root>/<benchmark>/dbgen)")
	f.StringVar(&confFile, "conf", "", "YAML file supplying any of the above settings; flags win")
}

func runProvision(cmd *cobra.Command, _ []string) error {
	if confFile != "" {
		if err := applyConfFile(cmd, confFile); err != nil {
			return err
		}
	}

	log, closeLog, err := setupLogging(&cfg)
	if err != nil {
		return err
	}
	defer closeLog()

	if err := cfg.Resolve(); err != nil {
		return err
	}
	cfg.Progress = isatty.IsTerminal(os.Stdout.Fd())

	runner := &shell.ExecRunner{Log: log}
	if err := provision.Run(cmd.Context(), &cfg, runner, log); err != nil {
		return err
	}
	log.Info().Str("db", cfg.DBName).Str("farm", cfg.FarmPath).Msg("benchmark database is ready")
	return nil
}

// applyConfFile folds settings from a YAML file into cfg. Flags given on
// the command line keep precedence; only unset flags pick up file values.
func applyConfFile(cmd *cobra.Command, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "cannot read config file %s", path)
	}
	var file provision.Config
	if err := yaml.Unmarshal(data, &file); err != nil {
		return errors.Wrapf(err, "cannot parse config file %s", path)
	}

	flags := cmd.Flags()
	setInt := func(name string, dst *int, v int) {
		if !flags.Changed(name) && v != 0 {
			*dst = v
		}
	}
	setString := func(name string, dst *string, v string) {
		if !flags.Changed(name) && v != "" {
			*dst = v
		}
	}
	setBool := func(name string, dst *bool, v bool) {
		if !flags.Changed(name) && v {
			*dst = true
		}
	}

	setInt("scale-factor", &cfg.ScaleFactor, file.ScaleFactor)
	setInt("port", &cfg.Port, file.Port)
	setString("benchmark", &cfg.Benchmark, file.Benchmark)
	setString("platform", &cfg.Platform, file.Platform)
	setString("db-farm", &cfg.FarmPath, file.FarmPath)
	setString("db-name", &cfg.DBName, file.DBName)
	setString("data-gen-dir", &cfg.DataDir, file.DataDir)
	setString("bench-root", &cfg.BenchRoot, file.BenchRoot)
	setString("dbgen-dir", &cfg.DBGenDir, file.DBGenDir)
	setString("log-file", &cfg.LogFile, file.LogFile)
	setBool("recreate", &cfg.Recreate, file.Recreate)
	setBool("use-generated", &cfg.UseGenerated, file.UseGenerated)
	setBool("keep-raw-tables", &cfg.KeepRaw, file.KeepRaw)
	setBool("verbose", &cfg.Verbose, file.Verbose)
	return nil
}

// setupLogging builds the run logger: human-readable console output on
// stderr, optionally teed into the configured log file.
func setupLogging(c *provision.Config) (zerolog.Logger, func(), error) {
	level := zerolog.InfoLevel
	if c.Verbose {
		level = zerolog.DebugLevel
	}
	console := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}

	var w io.Writer = console
	closeFn := func() {}
	if c.LogFile != "" {
		f, err := os.OpenFile(c.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return zerolog.Logger{}, nil, errors.Wrapf(err, "cannot open log file %s", c.LogFile)
		}
		w = zerolog.MultiLevelWriter(console, f)
		closeFn = func() { _ = f.Close() }
	}
	log := zerolog.New(w).Level(level).With().Timestamp().Logger()
	return log, closeFn, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "benchfarm:", err)
		os.Exit(1)
	}
}
