package monet

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benchfarm/benchfarm/shell"
)

const dbStatusListing = `     name        state     health                remarks
tpch-sf-1        R  12m    100%,  2s
jcch-sf-5        S         100%, 10s
fresh-db
`

func statusFake() *shell.Fake {
	return &shell.Fake{Handler: func(cmd shell.Command) (shell.Result, error) {
		return shell.Result{Stdout: dbStatusListing}, nil
	}}
}

func TestDBExists(t *testing.T) {
	a := NewDBAdmin(50000, statusFake())
	ctx := context.Background()

	exists, err := a.Exists(ctx, "tpch-sf-1")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = a.Exists(ctx, "tpch-sf-2")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestDBStatus(t *testing.T) {
	a := NewDBAdmin(50000, statusFake())
	ctx := context.Background()

	st, err := a.Status(ctx, "tpch-sf-1")
	require.NoError(t, err)
	assert.Equal(t, DBRunning, st)

	st, err = a.Status(ctx, "jcch-sf-5")
	require.NoError(t, err)
	assert.Equal(t, DBStopped, st)

	// an empty state token means not running
	st, err = a.Status(ctx, "fresh-db")
	require.NoError(t, err)
	assert.Equal(t, DBStopped, st)

	st, err = a.Status(ctx, "missing")
	require.NoError(t, err)
	assert.Equal(t, DBAbsent, st)
}

func TestDBLifecycleCommands(t *testing.T) {
	fake := &shell.Fake{}
	a := NewDBAdmin(54321, fake)
	ctx := context.Background()

	require.NoError(t, a.Stop(ctx, "olddb"))
	require.NoError(t, a.Destroy(ctx, "olddb"))
	require.NoError(t, a.Create(ctx, "newdb"))
	require.NoError(t, a.Release(ctx, "newdb"))

	require.Equal(t, []string{
		"monetdb -p 54321 stop olddb",
		"monetdb -p 54321 destroy -f olddb",
		"monetdb -p 54321 create newdb",
		"monetdb -p 54321 release newdb",
	}, fake.CommandLines())
}

func TestClientRunScript(t *testing.T) {
	fake := &shell.Fake{}
	c := NewClient(50000, "tpch-sf-1", fake)

	require.NoError(t, c.RunScript(context.Background(), "/assets/tpch/sql/load.sql", "/data/tpch-sf-1"))

	require.Len(t, fake.Calls, 1)
	call := fake.Calls[0]
	assert.Equal(t, "mclient -p 50000 -d tpch-sf-1 /assets/tpch/sql/load.sql", call.String())
	assert.Equal(t, "/data/tpch-sf-1", call.Dir)
}
