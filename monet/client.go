package monet

import (
	"context"
	"strconv"

	"github.com/benchfarm/benchfarm/shell"
	"github.com/pkg/errors"
)

// Client pipes SQL scripts to a database through mclient.
type Client struct {
	Port   int
	DBName string
	run    shell.Runner
}

// NewClient returns a Client for the named database on port.
func NewClient(port int, dbName string, run shell.Runner) *Client {
	return &Client{Port: port, DBName: dbName, run: run}
}

// RunScript executes the SQL script at path verbatim against the database.
// dir sets the client's working directory, which load scripts rely on to
// resolve relative data-file paths; empty means inherit.
func (c *Client) RunScript(ctx context.Context, path, dir string) error {
	_, err := c.run.Run(ctx, shell.Command{
		Name: "mclient",
		Args: []string{"-p", strconv.Itoa(c.Port), "-d", c.DBName, path},
		Dir:  dir,
	})
	if err != nil {
		return errors.Wrapf(err, "mclient failed running %s against database %q", path, c.DBName)
	}
	return nil
}
