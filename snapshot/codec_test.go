package snapshot

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pkg/errors"

	"github.com/sheikhrachel/go-gol-sim/model"
)

func newGrid(t *testing.T, size int) *model.Grid {
	t.Helper()
	g := model.NewGrid()
	if err := g.Create(size); err != nil {
		t.Fatalf("Create: %v", err)
	}
	return g
}

func TestSaveIsRowMajor(t *testing.T) {
	g := newGrid(t, 3)
	g.SetCellState(0, 2, true)
	g.SetCellState(1, 0, true)

	s, err := Save(g)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if s != "001100000" {
		t.Fatalf("Save() = %q", s)
	}
}

func TestReplaceRoundTrip(t *testing.T) {
	g := newGrid(t, 12)
	if err := g.Randomize(0.4, 3); err != nil {
		t.Fatalf("Randomize: %v", err)
	}
	want := g.Hash()
	s, err := Save(g)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	if err := g.Randomize(0.4, 99); err != nil {
		t.Fatalf("Randomize: %v", err)
	}
	if err := Load(g, s, Replace); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if g.Hash() != want {
		t.Fatalf("replace load did not reproduce the saved pattern")
	}
}

func TestMergeKeepsExistingCells(t *testing.T) {
	g := newGrid(t, 2)
	g.SetCellState(0, 0, true)

	if err := Load(g, "0001", Merge); err != nil {
		t.Fatalf("Load: %v", err)
	}
	s, _ := Save(g)
	if s != "1001" {
		t.Fatalf("merge produced %q, want %q", s, "1001")
	}

	if err := Load(g, "0001", Replace); err != nil {
		t.Fatalf("Load: %v", err)
	}
	s, _ = Save(g)
	if s != "0001" {
		t.Fatalf("replace produced %q, want %q", s, "0001")
	}
}

func TestLoadRejectsMalformedSnapshots(t *testing.T) {
	g := newGrid(t, 2)
	g.SetCellState(1, 1, true)

	for _, s := range []string{"", "000", "00000", "01x1", "0 01"} {
		if err := Load(g, s, Replace); !errors.Is(err, model.ErrFormatMismatch) {
			t.Fatalf("Load(%q) = %v, want ErrFormatMismatch", s, err)
		}
	}
	if got, _ := Save(g); got != "0001" {
		t.Fatalf("rejected load changed the grid to %q", got)
	}
}

func TestLoadCreatesMissingGrid(t *testing.T) {
	g := model.NewGrid()
	s := strings.Repeat("0", model.DefaultSize*model.DefaultSize-1) + "1"
	if err := Load(g, s, Replace); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if alive, _ := g.CellState(model.DefaultSize-1, model.DefaultSize-1); !alive {
		t.Fatalf("last cell not loaded")
	}
}

func TestSaveUncreatedGrid(t *testing.T) {
	if _, err := Save(model.NewGrid()); !errors.Is(err, model.ErrInvalidState) {
		t.Fatalf("Save on uncreated grid = %v, want ErrInvalidState", err)
	}
}

func TestParseMode(t *testing.T) {
	for in, want := range map[string]Mode{"": Replace, "replace": Replace, "Merge": Merge, "add": Merge} {
		got, err := ParseMode(in)
		if err != nil || got != want {
			t.Fatalf("ParseMode(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseMode("overlay"); !errors.Is(err, model.ErrInvalidArgument) {
		t.Fatalf("ParseMode(overlay) = %v, want ErrInvalidArgument", err)
	}
}

func TestFileRoundTrip(t *testing.T) {
	g := newGrid(t, 4)
	g.AddBlinker(1, 0)

	path, err := SaveFile(filepath.Join(t.TempDir(), "blinker"), g)
	if err != nil {
		t.Fatalf("SaveFile: %v", err)
	}
	if filepath.Ext(path) != Extension {
		t.Fatalf("SaveFile wrote %q without %s", path, Extension)
	}

	// Editors often add a trailing newline.
	data, _ := os.ReadFile(path)
	if err := os.WriteFile(path, append(data, '\r', '\n'), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	other := newGrid(t, 4)
	if err := LoadFile(path, other, Replace); err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if other.Hash() != g.Hash() {
		t.Fatalf("file round trip changed the pattern")
	}

	if err := LoadFile(filepath.Join(t.TempDir(), "missing.grid"), other, Replace); err == nil {
		t.Fatalf("LoadFile on a missing file returned nil")
	}
}
