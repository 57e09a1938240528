package provision

import (
	"context"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/benchfarm/benchfarm/bench"
	"github.com/benchfarm/benchfarm/dbgen"
	"github.com/benchfarm/benchfarm/monet"
	"github.com/benchfarm/benchfarm/shell"
)

// Run executes the whole provisioning workflow against a resolved Config.
// Steps run strictly in order and the first failure aborts the run; a
// half-provisioned farm or database is left for the operator to inspect,
// except that a partially generated data directory is always removed.
func Run(ctx context.Context, cfg *Config, run shell.Runner, log zerolog.Logger) error {
	b := cfg.Bench()
	if b == nil {
		return errors.New("configuration was not resolved")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return errors.Wrap(err, "cannot resolve home directory")
	}
	credsPath, created, err := monet.EnsureCredentials(home)
	if err != nil {
		return err
	}
	if created {
		log.Info().Str("path", credsPath).Msg("wrote default SQL client credentials")
	}

	var gen *dbgen.Generator
	if !cfg.UseGenerated {
		if !b.HasGenerator {
			return errors.Errorf("%s has no data generator; download %s into %s and rerun with --use-generated",
				b.Name, b.DataSource, cfg.DataDir)
		}
		gen = dbgen.New(cfg.DBGenDir, cfg.Platform, b.Workload, run, log)
		gen.Progress = cfg.Progress
		if err := gen.Ensure(ctx); err != nil {
			return err
		}
	}

	if err := checkDiskSpace(ctx, run, cfg.DataDir, cfg.ScaleFactor); err != nil {
		return err
	}
	if err := verifyDataDir(cfg, b); err != nil {
		return err
	}

	port, err := ensureFarm(ctx, cfg, run, log)
	if err != nil {
		return err
	}

	admin := monet.NewDBAdmin(port, run)
	if err := ensureDatabase(ctx, admin, cfg, log); err != nil {
		return err
	}

	client := monet.NewClient(port, cfg.DBName, run)
	if err := applySchema(ctx, client, cfg, b, log); err != nil {
		return err
	}
	if err := prepareData(ctx, cfg, b, gen, run, log); err != nil {
		return err
	}
	if err := loadData(ctx, client, cfg, b, log); err != nil {
		return err
	}
	return cleanupData(cfg, log)
}

// ensureFarm brings the farm at the configured path into a running state
// and returns the port the daemon actually listens on. Creating a new farm
// persists the configured port; an existing farm keeps its own.
func ensureFarm(ctx context.Context, cfg *Config, run shell.Runner, log zerolog.Logger) (int, error) {
	farm := monet.NewFarm(cfg.FarmPath, run)
	status, err := farm.Status(ctx)
	if err != nil {
		return 0, err
	}

	if status == monet.FarmAbsent {
		log.Info().Str("path", cfg.FarmPath).Int("port", cfg.Port).Msg("creating database farm")
		if err := farm.Create(ctx, cfg.Port); err != nil {
			return 0, err
		}
		if err := farm.Start(ctx); err != nil {
			return 0, err
		}
		return cfg.Port, nil
	}

	port, err := farm.Port(ctx)
	if err != nil {
		return 0, err
	}
	if port != cfg.Port {
		log.Warn().Int("farm-port", port).Int("configured-port", cfg.Port).
			Msg("farm already exists with a different port; using the farm's")
	}
	if status == monet.FarmStopped {
		log.Info().Str("path", cfg.FarmPath).Msg("starting database farm")
		if err := farm.Start(ctx); err != nil {
			return 0, err
		}
	}
	return port, nil
}

// ensureDatabase makes sure a freshly created, released database with the
// configured name exists. An existing database is a fatal conflict unless
// the caller asked for it to be recreated.
func ensureDatabase(ctx context.Context, admin *monet.DBAdmin, cfg *Config, log zerolog.Logger) error {
	exists, err := admin.Exists(ctx, cfg.DBName)
	if err != nil {
		return err
	}
	if exists {
		if !cfg.Recreate {
			return errors.Errorf("database %q already exists in farm %s; pass --recreate to destroy and recreate it",
				cfg.DBName, cfg.FarmPath)
		}
		status, err := admin.Status(ctx, cfg.DBName)
		if err != nil {
			return err
		}
		if status == monet.DBRunning {
			if err := admin.Stop(ctx, cfg.DBName); err != nil {
				return err
			}
		}
		log.Info().Str("db", cfg.DBName).Msg("destroying existing database")
		if err := admin.Destroy(ctx, cfg.DBName); err != nil {
			return err
		}
	}

	log.Info().Str("db", cfg.DBName).Msg("creating database")
	if err := admin.Create(ctx, cfg.DBName); err != nil {
		return err
	}
	return admin.Release(ctx, cfg.DBName)
}

// applySchema pipes the benchmark's schema scripts to the database in
// order: table definitions first, then constraints and indexes.
func applySchema(ctx context.Context, client *monet.Client, cfg *Config, b *bench.Benchmark, log zerolog.Logger) error {
	for _, rel := range b.SchemaScripts {
		path := filepath.Join(cfg.BenchRoot, b.AssetDir, rel)
		if _, err := os.Stat(path); err != nil {
			return errors.Errorf("schema script %s is missing", path)
		}
		log.Info().Str("script", path).Msg("applying schema script")
		if err := client.RunScript(ctx, path, ""); err != nil {
			return err
		}
	}
	return nil
}

// verifyDataDir resolves data-directory conflicts before any daemon state
// is touched: a reused set must exist, a set about to be generated must
// not.
func verifyDataDir(cfg *Config, b *bench.Benchmark) error {
	info, err := os.Stat(cfg.DataDir)
	if cfg.UseGenerated {
		if os.IsNotExist(err) {
			msg := "data directory %s does not exist"
			if !b.HasGenerator {
				return errors.Errorf(msg+"; obtain %s first", cfg.DataDir, b.DataSource)
			}
			return errors.Errorf(msg+"; drop --use-generated to generate it", cfg.DataDir)
		}
		if err != nil {
			return errors.Wrapf(err, "cannot stat data directory %s", cfg.DataDir)
		}
		if !info.IsDir() {
			return errors.Errorf("data directory %s is not a directory", cfg.DataDir)
		}
		return nil
	}
	if err == nil {
		return errors.Errorf("data directory %s already exists; pass --use-generated to load it or remove it first", cfg.DataDir)
	}
	return nil
}

// prepareData makes the flat table files available in the data directory,
// either by running the generator or by reusing a pre-generated set.
func prepareData(ctx context.Context, cfg *Config, b *bench.Benchmark, gen *dbgen.Generator, run shell.Runner, log zerolog.Logger) error {
	if cfg.UseGenerated {
		log.Info().Str("dir", cfg.DataDir).Msg("reusing previously generated data")
	} else {
		if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
			return errors.Wrapf(err, "cannot create data directory %s", cfg.DataDir)
		}
		// Re-check now that the directory exists on the actual target
		// filesystem; leave nothing behind on failure.
		if err := checkDiskSpace(ctx, run, cfg.DataDir, cfg.ScaleFactor); err != nil {
			_ = os.Remove(cfg.DataDir)
			return err
		}
		log.Info().Str("dir", cfg.DataDir).Int("scale-factor", cfg.ScaleFactor).Msg("generating table data")
		if err := gen.Generate(ctx, cfg.DataDir, cfg.ScaleFactor); err != nil {
			_ = os.RemoveAll(cfg.DataDir)
			return err
		}
	}

	if b.PreCheckFiles {
		for _, f := range b.TableFiles() {
			path := filepath.Join(cfg.DataDir, f)
			if _, err := os.Stat(path); err != nil {
				return errors.Errorf("table file %s is missing from %s", f, cfg.DataDir)
			}
		}
	}
	return nil
}

// loadData pipes the bulk-load script to the database with the data
// directory as working directory, so relative file references in the
// script resolve to the generated files.
func loadData(ctx context.Context, client *monet.Client, cfg *Config, b *bench.Benchmark, log zerolog.Logger) error {
	path, err := filepath.Abs(filepath.Join(cfg.BenchRoot, b.AssetDir, b.LoadScript))
	if err != nil {
		return errors.Wrap(err, "cannot resolve load script path")
	}
	if _, err := os.Stat(path); err != nil {
		return errors.Errorf("load script %s is missing", path)
	}
	log.Info().Str("script", path).Str("db", cfg.DBName).Msg("loading table data")
	return client.RunScript(ctx, path, cfg.DataDir)
}

// cleanupData removes the raw table files after a successful load, unless
// the caller asked to keep them.
func cleanupData(cfg *Config, log zerolog.Logger) error {
	if cfg.KeepRaw {
		log.Info().Str("dir", cfg.DataDir).Msg("keeping raw table files")
		return nil
	}
	log.Info().Str("dir", cfg.DataDir).Msg("removing raw table files")
	if err := os.RemoveAll(cfg.DataDir); err != nil {
		return errors.Wrapf(err, "cannot remove data directory %s", cfg.DataDir)
	}
	return nil
}
