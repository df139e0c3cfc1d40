package namefinder

import (
	"os"
	"path/filepath"
	"strings"
)

// DefaultWorkDir returns the default working directory for run
// artifacts: /tmp/<user>/<program name>.
func DefaultWorkDir() string {
	user := os.Getenv("USER")
	if user == "" {
		user = "unknown_user"
	}

	prog := "wikisearch"
	if len(os.Args) > 0 && os.Args[0] != "" {
		base := filepath.Base(os.Args[0])
		prog = strings.TrimSuffix(base, filepath.Ext(base))
	}

	return filepath.Join(os.TempDir(), user, prog)
}
