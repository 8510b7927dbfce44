package pom

import (
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/matzehuels/ondemand/pkg/project"
)

// skipDirs are never descended into during discovery.
var skipDirs = map[string]bool{
	"target":       true,
	"node_modules": true,
}

// Discover walks root and returns one unit per pom.xml found, at most
// maxDepth directories below root (0 means root only, negative means
// unlimited). Units are returned in lexical path order. Descriptors that
// cannot be parsed are reported through onError and skipped.
func Discover(root string, maxDepth int, onError func(path string, err error)) ([]*project.Unit, error) {
	var units []*project.Unit
	root = filepath.Clean(root)

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path == root {
				return nil
			}
			name := d.Name()
			if strings.HasPrefix(name, ".") || skipDirs[name] {
				return filepath.SkipDir
			}
			if maxDepth >= 0 && depth(root, path) > maxDepth {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Name() != FileName {
			return nil
		}

		p, err := Read(path)
		if err != nil {
			if onError != nil {
				onError(path, err)
			}
			return nil
		}
		units = append(units, p.Unit(path))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return units, nil
}

func depth(root, path string) int {
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == "." {
		return 0
	}
	return strings.Count(rel, string(filepath.Separator)) + 1
}
