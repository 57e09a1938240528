// Package shell runs external tools as subprocesses and captures their
// output. Every other package that needs to talk to an external binary does
// so through a Runner, so tests can substitute a scripted fake.
package shell

import (
	"bytes"
	"context"
	"io"
	"os/exec"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Command describes a single subprocess invocation.
type Command struct {
	Name  string
	Args  []string
	Dir   string
	Stdin io.Reader
}

// String renders the invocation the way a user would type it.
func (c Command) String() string {
	if len(c.Args) == 0 {
		return c.Name
	}
	return c.Name + " " + strings.Join(c.Args, " ")
}

// Result holds the captured output of a finished subprocess.
type Result struct {
	Stdout string
	Stderr string
}

// Combined returns stdout followed by stderr. Some tools (dbgen among them)
// print their useful output on stderr.
func (r Result) Combined() string {
	return r.Stdout + r.Stderr
}

// Runner executes commands. The returned error is non-nil whenever the
// process could not be started or exited non-zero; the Result is still
// populated with whatever output was produced.
type Runner interface {
	Run(ctx context.Context, cmd Command) (Result, error)
}

// ExecRunner is the real Runner backed by os/exec.
type ExecRunner struct {
	Log zerolog.Logger
}

// Run executes cmd synchronously, capturing stdout and stderr.
func (r *ExecRunner) Run(ctx context.Context, cmd Command) (Result, error) {
	c := exec.CommandContext(ctx, cmd.Name, cmd.Args...)
	c.Dir = cmd.Dir
	c.Stdin = cmd.Stdin

	var stdout, stderr bytes.Buffer
	c.Stdout = &stdout
	c.Stderr = &stderr

	r.Log.Debug().Str("dir", cmd.Dir).Msgf("exec: %s", cmd)
	err := c.Run()
	res := Result{Stdout: stdout.String(), Stderr: stderr.String()}
	if out := strings.TrimSpace(res.Combined()); out != "" {
		r.Log.Debug().Msgf("exec output:\n%s", out)
	}
	if err != nil {
		return res, errors.Wrapf(err, "command failed: %s", cmd)
	}
	return res, nil
}
