package provision

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"

	"github.com/benchfarm/benchfarm/shell"
)

const gib = 1 << 30

// requiredGiB is the guard heuristic: twice the scale factor, covering the
// raw table files plus the loaded copy inside the farm.
func requiredGiB(scaleFactor int) uint64 {
	return uint64(2 * scaleFactor)
}

// availableGiB reports the free space, in whole gibibytes, of the
// filesystem that would hold dir. The nearest existing ancestor stands in
// for a dir that does not exist yet.
func availableGiB(ctx context.Context, run shell.Runner, dir string) (uint64, error) {
	target := nearestExisting(dir)
	res, err := run.Run(ctx, shell.Command{
		Name: "df",
		Args: []string{"-P", "-k", target},
	})
	if err != nil {
		return 0, errors.Wrapf(err, "cannot determine free space for %s", target)
	}
	// POSIX df: header line, then one data line per filesystem with the
	// available 1K-blocks in the fourth column.
	lines := strings.Split(strings.TrimSpace(res.Stdout), "\n")
	if len(lines) < 2 {
		return 0, errors.Errorf("unexpected df output for %s: %q", target, res.Stdout)
	}
	fields := strings.Fields(lines[len(lines)-1])
	if len(fields) < 4 {
		return 0, errors.Errorf("unexpected df output for %s: %q", target, res.Stdout)
	}
	kib, err := strconv.ParseUint(fields[3], 10, 64)
	if err != nil {
		return 0, errors.Errorf("unexpected df available column %q for %s", fields[3], target)
	}
	return kib / (1 << 20), nil
}

// checkDiskSpace fails when the filesystem holding dir does not have
// strictly more than 2x the scale factor of free space.
func checkDiskSpace(ctx context.Context, run shell.Runner, dir string, scaleFactor int) error {
	avail, err := availableGiB(ctx, run, dir)
	if err != nil {
		return err
	}
	need := requiredGiB(scaleFactor)
	if avail <= need {
		return errors.Errorf("not enough disk space under %s: need more than %s, have %s",
			dir, humanize.IBytes(need*gib), humanize.IBytes(avail*gib))
	}
	return nil
}

// nearestExisting walks up from dir to the closest path that exists.
func nearestExisting(dir string) string {
	for {
		if _, err := os.Stat(dir); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return dir
		}
		dir = parent
	}
}
