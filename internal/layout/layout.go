// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package layout creates the working directory tree the tool expects.
// Spreadsheets are not kept under version control, so a fresh checkout
// has none of these folders.
package layout

import (
	"fmt"
	"os"
	"path/filepath"
)

// GradeDirs are the folders under Grades/.
var GradeDirs = []string{"Core", "Co-op", "ENCM", "ENCV", "ENEL", "ENMC", "ENPR", "ONAE", "ENUD"}

// Dirs returns every directory Init creates under root, parents first.
func Dirs(root string) []string {
	dirs := []string{filepath.Join(root, "Grades")}
	for _, d := range GradeDirs {
		dirs = append(dirs, filepath.Join(root, "Grades", d))
	}
	return append(dirs,
		filepath.Join(root, "Histograms"),
		filepath.Join(root, "Indicators"),
		filepath.Join(root, "config"),
		filepath.Join(root, "index"),
	)
}

// Init creates the directory tree under root and returns the directories
// that did not exist before. Running it again creates nothing.
func Init(root string) ([]string, error) {
	var created []string
	for _, dir := range Dirs(root) {
		if _, err := os.Stat(dir); err == nil {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return created, fmt.Errorf("creating %s: %w", dir, err)
		}
		created = append(created, dir)
	}
	return created, nil
}
