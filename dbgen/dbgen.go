// Package dbgen locates, builds and runs the TPC-H family data generator.
package dbgen

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/cheggaaa/pb/v3"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/benchfarm/benchfarm/shell"
)

const (
	binaryName = "dbgen"
	distsName  = "dists.dss"

	// signature must appear in the generator's help output; anything else
	// in the binary's place is not a TPC-H data generator.
	signature = "TPC-H Population Generator"

	gib = 1 << 30
)

// Platforms are the MACHINE values the generator's makefile knows how to
// build for.
var Platforms = []string{
	"ATT", "DOS", "HP", "IBM", "ICL", "MVS", "SGI",
	"SUN", "U2200", "VMS", "LINUX", "WIN32", "MAC",
}

// ValidPlatform reports whether p is a known build platform.
func ValidPlatform(p string) bool {
	for _, s := range Platforms {
		if s == p {
			return true
		}
	}
	return false
}

// Generator resolves and runs one dbgen build rooted in a source directory.
type Generator struct {
	// Dir holds the generator source tree; the built binary and the
	// distributions file live directly in it.
	Dir      string
	Platform string
	Workload string

	// Progress draws a byte-count progress bar while data is generated.
	Progress bool

	run shell.Runner
	log zerolog.Logger
}

// New returns a Generator for the source tree at dir.
func New(dir, platform, workload string, run shell.Runner, log zerolog.Logger) *Generator {
	return &Generator{Dir: dir, Platform: platform, Workload: workload, run: run, log: log}
}

// BinaryPath is the expected location of the generator executable.
func (g *Generator) BinaryPath() string {
	return filepath.Join(g.Dir, binaryName)
}

// DistsPath is the expected location of the distributions file the
// generator reads its value distributions from.
func (g *Generator) DistsPath() string {
	return filepath.Join(g.Dir, distsName)
}

// Ensure makes the generator usable: builds the binary when it is missing,
// checks the distributions file is present, and validates the binary's help
// signature. Any failure is final; there is no fallback generator.
func (g *Generator) Ensure(ctx context.Context) error {
	if _, err := os.Stat(g.BinaryPath()); os.IsNotExist(err) {
		g.log.Info().Str("dir", g.Dir).Msg("data generator not found, building it")
		if err := g.build(ctx); err != nil {
			return err
		}
	} else if err != nil {
		return errors.Wrapf(err, "cannot stat generator binary %s", g.BinaryPath())
	}
	if _, err := os.Stat(g.DistsPath()); err != nil {
		return errors.Errorf("distributions file %s is missing; it ships with the TPC-H toolkit (http://tpc.org/tpch/)", g.DistsPath())
	}
	return g.validate(ctx)
}

// validate runs the binary with its help flag and checks for the expected
// signature. dbgen prints usage on stderr and exits non-zero, so the exit
// status is ignored and only the output is inspected.
func (g *Generator) validate(ctx context.Context) error {
	res, _ := g.run.Run(ctx, shell.Command{
		Name: g.BinaryPath(),
		Args: []string{"-h"},
		Dir:  g.Dir,
	})
	if !strings.Contains(res.Combined(), signature) {
		return errors.Errorf("%s does not look like a TPC-H data generator: %q not found in its help output", g.BinaryPath(), signature)
	}
	return nil
}

// Generate produces the flat table files for the given scale factor inside
// dataDir, which must already exist.
func (g *Generator) Generate(ctx context.Context, dataDir string, scaleFactor int) error {
	done := make(chan struct{})
	if g.Progress {
		go g.watchProgress(dataDir, int64(scaleFactor)*gib, done)
	}
	_, err := g.run.Run(ctx, shell.Command{
		Name: g.BinaryPath(),
		Args: []string{"-vf", "-s", strconv.Itoa(scaleFactor), "-b", g.DistsPath()},
		Dir:  dataDir,
	})
	close(done)
	if err != nil {
		return errors.Wrapf(err, "data generation failed in %s", dataDir)
	}
	return nil
}

// watchProgress polls the data directory size until done closes. A scale
// factor is roughly a gibibyte of raw data, which serves as the bar total.
func (g *Generator) watchProgress(dataDir string, total int64, done <-chan struct{}) {
	bar := pb.Full.Start64(total)
	bar.Set(pb.Bytes, true)
	defer bar.Finish()

	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			bar.SetCurrent(dirSize(dataDir))
		}
	}
}

// dirSize sums the sizes of all regular files under dir. Errors are
// ignored; the result only feeds the progress bar.
func dirSize(dir string) int64 {
	var total int64
	_ = filepath.WalkDir(dir, func(_ string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if info, err := d.Info(); err == nil {
			total += info.Size()
		}
		return nil
	})
	return total
}
