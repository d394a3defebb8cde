package utils

import (
	"io/fs"
	"path/filepath"
	"strings"
)

// WalkPDFs walks a file or directory tree and returns all PDF files found,
// skipping macOS resource-fork directories. A direct file path is returned
// as-is when it has a .pdf extension.
func WalkPDFs(root string) ([]string, error) {
	var out []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == "__MACOSX" {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.EqualFold(filepath.Ext(path), ".pdf") {
			out = append(out, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
