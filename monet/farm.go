// Package monet wraps the MonetDB command-line tools (monetdbd, monetdb,
// mclient). All assumptions about the text output of those tools live here;
// callers only see typed states and values.
package monet

import (
	"context"
	"os"
	"strconv"
	"strings"

	"github.com/benchfarm/benchfarm/shell"
	"github.com/pkg/errors"
)

// FarmStatus is the lifecycle state of a dbfarm as reported by monetdbd.
type FarmStatus int

const (
	// FarmAbsent means no farm directory exists at the path.
	FarmAbsent FarmStatus = iota
	// FarmStopped means the farm exists but no daemon is serving it.
	FarmStopped
	// FarmRunning means a monetdbd process is serving the farm.
	FarmRunning
)

func (s FarmStatus) String() string {
	switch s {
	case FarmAbsent:
		return "absent"
	case FarmStopped:
		return "stopped"
	case FarmRunning:
		return "running"
	}
	return "unknown"
}

// Farm manages one dbfarm directory through monetdbd.
type Farm struct {
	Path string
	run  shell.Runner
}

// NewFarm returns a Farm rooted at path.
func NewFarm(path string, run shell.Runner) *Farm {
	return &Farm{Path: path, run: run}
}

// Exists reports whether the farm directory is present on disk. A farm is
// filesystem-rooted, so a missing directory means no farm.
func (f *Farm) Exists() (bool, error) {
	info, err := os.Stat(f.Path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrapf(err, "cannot stat farm path %s", f.Path)
	}
	if !info.IsDir() {
		return false, errors.Errorf("farm path %s exists but is not a directory", f.Path)
	}
	return true, nil
}

// Property returns the value of a single monetdbd property of the farm.
func (f *Farm) Property(ctx context.Context, name string) (string, error) {
	res, err := f.run.Run(ctx, shell.Command{
		Name: "monetdbd",
		Args: []string{"get", name, f.Path},
	})
	if err != nil {
		return "", errors.Wrapf(err, "cannot read property %q of farm %s", name, f.Path)
	}
	// Output is a two-column table:
	//    property  value
	//    port      50000
	for _, line := range strings.Split(res.Stdout, "\n") {
		fields := strings.Fields(line)
		if len(fields) >= 2 && fields[0] == name {
			return strings.Join(fields[1:], " "), nil
		}
	}
	return "", errors.Errorf("monetdbd reported no property %q for farm %s", name, f.Path)
}

// Port returns the port the farm is configured to listen on.
func (f *Farm) Port(ctx context.Context) (int, error) {
	v, err := f.Property(ctx, "port")
	if err != nil {
		return 0, err
	}
	port, err := strconv.Atoi(v)
	if err != nil {
		return 0, errors.Errorf("farm %s has non-numeric port property %q", f.Path, v)
	}
	return port, nil
}

// Status resolves the farm lifecycle state. The status property reads
// "monetdbd[<pid>] ... is serving this dbfarm" while a daemon runs and
// "no monetdbd is serving this dbfarm" otherwise.
func (f *Farm) Status(ctx context.Context) (FarmStatus, error) {
	exists, err := f.Exists()
	if err != nil {
		return FarmAbsent, err
	}
	if !exists {
		return FarmAbsent, nil
	}
	v, err := f.Property(ctx, "status")
	if err != nil {
		return FarmAbsent, err
	}
	if strings.Contains(v, "monetdbd[") {
		return FarmRunning, nil
	}
	return FarmStopped, nil
}

// Create initializes a new farm at the path and persists port as its
// property. The farm is not started.
func (f *Farm) Create(ctx context.Context, port int) error {
	if _, err := f.run.Run(ctx, shell.Command{
		Name: "monetdbd",
		Args: []string{"create", f.Path},
	}); err != nil {
		return errors.Wrapf(err, "cannot create farm at %s", f.Path)
	}
	if _, err := f.run.Run(ctx, shell.Command{
		Name: "monetdbd",
		Args: []string{"set", "port=" + strconv.Itoa(port), f.Path},
	}); err != nil {
		return errors.Wrapf(err, "cannot set port %d on farm %s", port, f.Path)
	}
	return nil
}

// Start launches the daemon serving the farm.
func (f *Farm) Start(ctx context.Context) error {
	if _, err := f.run.Run(ctx, shell.Command{
		Name: "monetdbd",
		Args: []string{"start", f.Path},
	}); err != nil {
		return errors.Wrapf(err, "cannot start daemon for farm %s", f.Path)
	}
	return nil
}
