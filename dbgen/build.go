package dbgen

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/pkg/errors"

	"github.com/benchfarm/benchfarm/shell"
)

const (
	makefileTemplate = "makefile.suite"
	cmakeLists       = "CMakeLists.txt"

	// database dialect macro for the generated load-stub code; the flat
	// files themselves are dialect-independent.
	databaseMacro = "DB2"
	ccMacro       = "gcc"
)

// makefileNames are tried in order when looking for an existing build
// configuration.
var makefileNames = []string{"makefile", "Makefile"}

// build produces the generator binary from source. Preference order:
// an existing makefile, then one rendered from the makefile.suite template,
// then a cmake configuration. A missing build setup or a failing toolchain
// is fatal to the whole provisioning run.
func (g *Generator) build(ctx context.Context) error {
	switch {
	case g.findMakefile() != "":
		g.log.Debug().Str("makefile", g.findMakefile()).Msg("using existing makefile")
	case g.hasFile(makefileTemplate):
		if err := g.renderMakefile(); err != nil {
			return err
		}
	case g.hasFile(cmakeLists):
		if err := g.configureCMake(ctx); err != nil {
			return err
		}
	default:
		return errors.Errorf("no build configuration in %s: expected %s, %s or %s", g.Dir, makefileNames[0], makefileTemplate, cmakeLists)
	}

	if _, err := g.run.Run(ctx, shell.Command{Name: "make", Dir: g.Dir}); err != nil {
		return errors.Wrapf(err, "building the data generator in %s failed", g.Dir)
	}
	if _, err := os.Stat(g.BinaryPath()); err != nil {
		return errors.Errorf("build finished but produced no %s binary in %s", binaryName, g.Dir)
	}
	return nil
}

func (g *Generator) hasFile(name string) bool {
	_, err := os.Stat(filepath.Join(g.Dir, name))
	return err == nil
}

func (g *Generator) findMakefile() string {
	for _, name := range makefileNames {
		if g.hasFile(name) {
			return name
		}
	}
	return ""
}

// macroLine matches the template's commented-or-blank build macro
// assignments, e.g. "MACHINE =" or "CC      = ".
var macroLine = regexp.MustCompile(`^\s*(CC|DATABASE|MACHINE|WORKLOAD)\s*=.*$`)

// renderMakefile writes a makefile from makefile.suite with the build
// macros filled in for this platform and workload.
func (g *Generator) renderMakefile() error {
	src := filepath.Join(g.Dir, makefileTemplate)
	data, err := os.ReadFile(src)
	if err != nil {
		return errors.Wrapf(err, "cannot read makefile template %s", src)
	}

	values := map[string]string{
		"CC":       ccMacro,
		"DATABASE": databaseMacro,
		"MACHINE":  g.Platform,
		"WORKLOAD": g.Workload,
	}
	lines := strings.Split(string(data), "\n")
	for i, line := range lines {
		m := macroLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		lines[i] = m[1] + " = " + values[m[1]]
	}

	dst := filepath.Join(g.Dir, makefileNames[0])
	if err := os.WriteFile(dst, []byte(strings.Join(lines, "\n")), 0644); err != nil {
		return errors.Wrapf(err, "cannot write %s", dst)
	}
	g.log.Debug().Str("makefile", dst).Str("machine", g.Platform).Str("workload", g.Workload).Msg("rendered makefile from template")
	return nil
}

// configureCMake runs the cmake configuration step used by the JCC-H
// distribution of the generator.
func (g *Generator) configureCMake(ctx context.Context) error {
	_, err := g.run.Run(ctx, shell.Command{
		Name: "cmake",
		Args: []string{
			"-DCMAKE_BUILD_TYPE=Release",
			"-DMACHINE=" + g.Platform,
			"-DDATABASE=" + databaseMacro,
			"-DWORKLOAD=" + g.Workload,
			".",
		},
		Dir: g.Dir,
	})
	if err != nil {
		return errors.Wrapf(err, "cmake configuration in %s failed", g.Dir)
	}
	return nil
}
