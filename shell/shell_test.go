package shell

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandString(t *testing.T) {
	assert.Equal(t, "make", Command{Name: "make"}.String())
	assert.Equal(t, "monetdbd start /farm", Command{Name: "monetdbd", Args: []string{"start", "/farm"}}.String())
}

func TestExecRunnerCapturesOutput(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("relies on a POSIX shell")
	}
	r := &ExecRunner{Log: zerolog.Nop()}

	res, err := r.Run(context.Background(), Command{
		Name: "sh",
		Args: []string{"-c", "echo out; echo err >&2"},
	})
	require.NoError(t, err)
	assert.Equal(t, "out\n", res.Stdout)
	assert.Equal(t, "err\n", res.Stderr)
	assert.Equal(t, "out\nerr\n", res.Combined())
}

func TestExecRunnerStdinAndDir(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("relies on a POSIX shell")
	}
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "here.txt"), nil, 0644))
	r := &ExecRunner{Log: zerolog.Nop()}

	res, err := r.Run(context.Background(), Command{
		Name:  "sh",
		Args:  []string{"-c", "cat; ls"},
		Dir:   dir,
		Stdin: strings.NewReader("piped\n"),
	})
	require.NoError(t, err)
	assert.Contains(t, res.Stdout, "piped")
	assert.Contains(t, res.Stdout, "here.txt")
}

func TestExecRunnerReportsFailure(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("relies on a POSIX shell")
	}
	r := &ExecRunner{Log: zerolog.Nop()}

	res, err := r.Run(context.Background(), Command{
		Name: "sh",
		Args: []string{"-c", "echo broken >&2; exit 3"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "command failed")
	// output is still captured on failure
	assert.Contains(t, res.Stderr, "broken")
}

func TestFakeRecordsCalls(t *testing.T) {
	f := &Fake{}
	_, err := f.Run(context.Background(), Command{Name: "df", Args: []string{"-k", "/"}})
	require.NoError(t, err)
	require.Equal(t, []string{"df -k /"}, f.CommandLines())
}
