package util

import (
	"os"
	"path/filepath"
)

// FindWorkspaceRoot finds the root of the workspace starting from dir,
// looking for a .git directory or an .amalgam.yml config file.
// Returns dir unchanged if neither is found.
func FindWorkspaceRoot(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}

	cur := abs
	for {
		if _, err := os.Stat(filepath.Join(cur, ".git")); err == nil {
			return cur, nil
		}
		if _, err := os.Stat(filepath.Join(cur, ".amalgam.yml")); err == nil {
			return cur, nil
		}

		parent := filepath.Dir(cur)
		if parent == cur {
			// Reached root
			return abs, nil
		}
		cur = parent
	}
}
