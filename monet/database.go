package monet

import (
	"context"
	"strconv"
	"strings"

	"github.com/benchfarm/benchfarm/shell"
	"github.com/pkg/errors"
)

// DBStatus is the lifecycle state of a single database within a farm.
type DBStatus int

const (
	// DBAbsent means the database is not listed by the daemon.
	DBAbsent DBStatus = iota
	// DBStopped means the database exists but is not running.
	DBStopped
	// DBRunning means the database is up and accepting connections.
	DBRunning
)

func (s DBStatus) String() string {
	switch s {
	case DBAbsent:
		return "absent"
	case DBStopped:
		return "stopped"
	case DBRunning:
		return "running"
	}
	return "unknown"
}

// DBAdmin manages databases inside a running farm through the monetdb
// admin tool, addressed by daemon port.
type DBAdmin struct {
	Port int
	run  shell.Runner
}

// NewDBAdmin returns a DBAdmin talking to the daemon on port.
func NewDBAdmin(port int, run shell.Runner) *DBAdmin {
	return &DBAdmin{Port: port, run: run}
}

func (a *DBAdmin) command(args ...string) shell.Command {
	return shell.Command{
		Name: "monetdb",
		Args: append([]string{"-p", strconv.Itoa(a.Port)}, args...),
	}
}

// statusRow finds the listing row for name in monetdb status output and
// returns its fields, or nil when the database is not listed. Rows look
// like:
//
//	   name    state     health       remarks
//	tpch-sf-1  R  1s     100%, 0s
func (a *DBAdmin) statusRow(ctx context.Context, name string) ([]string, error) {
	res, err := a.run.Run(ctx, a.command("status"))
	if err != nil {
		return nil, errors.Wrapf(err, "cannot list databases on port %d", a.Port)
	}
	for _, line := range strings.Split(res.Stdout, "\n") {
		fields := strings.Fields(line)
		if len(fields) >= 1 && fields[0] == name {
			return fields, nil
		}
	}
	return nil, nil
}

// Exists reports whether a database with the given name is known to the
// daemon, whatever its state.
func (a *DBAdmin) Exists(ctx context.Context, name string) (bool, error) {
	row, err := a.statusRow(ctx, name)
	if err != nil {
		return false, err
	}
	return row != nil, nil
}

// Status resolves the lifecycle state of the named database. The state
// column is a single-letter token; "R" means running and an absent or empty
// token is tolerated as not running.
func (a *DBAdmin) Status(ctx context.Context, name string) (DBStatus, error) {
	row, err := a.statusRow(ctx, name)
	if err != nil {
		return DBAbsent, err
	}
	if row == nil {
		return DBAbsent, nil
	}
	if len(row) >= 2 && row[1] == "R" {
		return DBRunning, nil
	}
	return DBStopped, nil
}

// Stop shuts the named database down. Callers should only stop a database
// that is currently running.
func (a *DBAdmin) Stop(ctx context.Context, name string) error {
	if _, err := a.run.Run(ctx, a.command("stop", name)); err != nil {
		return errors.Wrapf(err, "cannot stop database %q", name)
	}
	return nil
}

// Destroy force-drops the named database and all its data.
func (a *DBAdmin) Destroy(ctx context.Context, name string) error {
	if _, err := a.run.Run(ctx, a.command("destroy", "-f", name)); err != nil {
		return errors.Wrapf(err, "cannot destroy database %q", name)
	}
	return nil
}

// Create registers a new database. The database stays in maintenance mode
// and is unusable until Release is called.
func (a *DBAdmin) Create(ctx context.Context, name string) error {
	if _, err := a.run.Run(ctx, a.command("create", name)); err != nil {
		return errors.Wrapf(err, "cannot create database %q", name)
	}
	return nil
}

// Release takes the named database out of maintenance mode, making it
// available to clients.
func (a *DBAdmin) Release(ctx context.Context, name string) error {
	if _, err := a.run.Run(ctx, a.command("release", name)); err != nil {
		return errors.Wrapf(err, "cannot release database %q", name)
	}
	return nil
}
