package snapshot

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/sheikhrachel/go-gol-sim/model"
)

// Extension is appended to saved snapshot files that lack it.
const Extension = ".grid"

// SaveFile writes the grid's snapshot to path and returns the path written.
func SaveFile(path string, g *model.Grid) (string, error) {
	if filepath.Ext(path) != Extension {
		path += Extension
	}
	s, err := Save(g)
	if err != nil {
		return "", errors.WithMessage(err, "[SaveFile] failed to encode grid")
	}
	if err := os.WriteFile(path, []byte(s), 0o644); err != nil {
		return "", errors.Wrapf(err, "[SaveFile] failed to write file: %+v", path)
	}
	return path, nil
}

// LoadFile reads a snapshot file and applies it to the grid. One trailing
// line break is ignored.
func LoadFile(path string, g *model.Grid, mode Mode) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "[LoadFile] failed to read file: %+v", path)
	}
	s := strings.TrimSuffix(strings.TrimSuffix(string(data), "\n"), "\r")
	if err := Load(g, s, mode); err != nil {
		return errors.WithMessagef(err, "[LoadFile] failed to load file: %+v", path)
	}
	return nil
}
