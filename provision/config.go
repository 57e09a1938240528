// Package provision drives the end-to-end preparation of a benchmark
// database: resolve configuration, ensure the data generator, guard disk
// space, bring the farm and database into the desired state, apply schema,
// generate and load data, clean up.
package provision

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/pkg/errors"

	"github.com/benchfarm/benchfarm/bench"
	"github.com/benchfarm/benchfarm/dbgen"
)

const (
	// DefaultPort is the stock MonetDB daemon port.
	DefaultPort = 50000

	// EnvFarm names the environment variable supplying the fallback farm
	// path.
	EnvFarm = "DB_FARM"

	defaultFarmDirName = "dbfarm"
	dataDirParentName  = "benchfarm-data"
	dbgenDirName       = "dbgen"
)

// Config holds every setting of a provisioning run. Flags populate it
// directly; an optional YAML file can supply the same settings.
type Config struct {
	ScaleFactor int    `yaml:"scaleFactor"`
	Benchmark   string `yaml:"benchmark"`
	Platform    string `yaml:"platform"`
	FarmPath    string `yaml:"dbFarm"`
	DBName      string `yaml:"dbName"`
	Port        int    `yaml:"port"`
	DataDir     string `yaml:"dataGenDir"`
	BenchRoot   string `yaml:"benchRoot"`
	DBGenDir    string `yaml:"dbgenDir"`
	LogFile     string `yaml:"logFile"`

	Recreate     bool `yaml:"recreate"`
	UseGenerated bool `yaml:"useGenerated"`
	KeepRaw      bool `yaml:"keepRawTables"`
	Verbose      bool `yaml:"verbose"`

	// Progress enables the generation progress bar; set from the terminal
	// state of stdout, not from a flag.
	Progress bool `yaml:"-"`

	benchmark *bench.Benchmark
}

// Bench returns the benchmark recipe selected by the configuration. Only
// valid after Resolve succeeded.
func (c *Config) Bench() *bench.Benchmark {
	return c.benchmark
}

// Resolve validates all inputs and fills in defaults. It fails on the first
// invalid value, before any filesystem or daemon interaction.
func (c *Config) Resolve() error {
	if c.ScaleFactor <= 0 {
		return errors.Errorf("scale factor must be a positive integer, got %d", c.ScaleFactor)
	}
	if c.Port <= 0 {
		return errors.Errorf("port must be a positive integer, got %d", c.Port)
	}
	b, err := bench.Lookup(c.Benchmark)
	if err != nil {
		return err
	}
	c.benchmark = b
	c.Benchmark = b.Name

	if c.Platform == "" {
		c.Platform = detectPlatform(runtime.GOOS)
		if c.Platform == "" {
			return errors.Errorf("cannot detect a generator build platform for OS %q; pass --platform", runtime.GOOS)
		}
	} else if !dbgen.ValidPlatform(c.Platform) {
		return errors.Errorf("unknown platform %q (choices: %v)", c.Platform, dbgen.Platforms)
	}

	if c.FarmPath == "" {
		if env := os.Getenv(EnvFarm); env != "" {
			c.FarmPath = env
		} else {
			home, err := os.UserHomeDir()
			if err != nil {
				return errors.Wrap(err, "cannot resolve home directory for the default farm path")
			}
			c.FarmPath = filepath.Join(home, defaultFarmDirName)
		}
	}
	if c.DBName == "" {
		c.DBName = b.DatabaseName(c.ScaleFactor)
	}
	if c.BenchRoot == "" {
		c.BenchRoot = "."
	}
	if c.DataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return errors.Wrap(err, "cannot resolve home directory for the default data directory")
		}
		c.DataDir = filepath.Join(home, dataDirParentName, c.DBName)
	}
	if c.DBGenDir == "" {
		c.DBGenDir = filepath.Join(c.BenchRoot, b.AssetDir, dbgenDirName)
	}
	return nil
}

// detectPlatform maps the host OS onto a generator build platform; empty
// means the OS has no obvious match and the user must choose.
func detectPlatform(goos string) string {
	switch goos {
	case "linux":
		return "LINUX"
	case "darwin":
		return "MAC"
	case "windows":
		return "WIN32"
	}
	return ""
}
