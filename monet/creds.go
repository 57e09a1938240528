package monet

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

const credsFileName = ".monetdb"

// defaultCreds is the stock admin identity mclient uses when nothing else
// is configured.
const defaultCreds = "user=monetdb\npassword=monetdb\nlanguage=sql\n"

// EnsureCredentials makes sure a credentials file for mclient exists under
// home, writing the default admin identity if it is missing. It returns the
// file path and whether it was created by this call.
func EnsureCredentials(home string) (string, bool, error) {
	path := filepath.Join(home, credsFileName)
	if _, err := os.Stat(path); err == nil {
		return path, false, nil
	} else if !os.IsNotExist(err) {
		return "", false, errors.Wrapf(err, "cannot stat credentials file %s", path)
	}
	if err := os.WriteFile(path, []byte(defaultCreds), 0600); err != nil {
		return "", false, errors.Wrapf(err, "cannot write credentials file %s", path)
	}
	return path, true, nil
}
