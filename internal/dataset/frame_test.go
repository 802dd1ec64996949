package dataset

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFrame_OrderAndLookup(t *testing.T) {
	f, err := NewFrame(
		Col("x", Numeric{1, 2, 3}),
		Col("region", Factor{"north", "south", "north"}),
	)
	require.NoError(t, err)

	assert.Equal(t, 3, f.NRows())
	assert.Equal(t, []string{"x", "region"}, f.Names())
	assert.Equal(t, Numeric{1, 2, 3}, f.Column("x"))
	assert.True(t, f.Has("region"))
	assert.Nil(t, f.Column("missing"))
}

func TestNewFrame_DuplicateColumn(t *testing.T) {
	_, err := NewFrame(
		Col("x", Numeric{1}),
		Col("x", Numeric{2}),
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate column")
}

func TestNewFrame_LengthMismatch(t *testing.T) {
	_, err := NewFrame(
		Col("x", Numeric{1, 2}),
		Col("y", Numeric{1, 2, 3}),
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rows")
}

func TestNewFrame_Empty(t *testing.T) {
	f, err := NewFrame()
	require.NoError(t, err)
	assert.Equal(t, 0, f.NRows())
	assert.Empty(t, f.Names())
}

func TestConst(t *testing.T) {
	assert.Equal(t, Numeric{1, 1, 1}, Const(1, 3))
	assert.Empty(t, Const(2, 0))
}

func TestParseYAML_MixedColumns(t *testing.T) {
	doc := []byte(`
columns:
  x: [1, 2.5, 3]
  region: [north, south, north]
`)
	f, err := ParseYAML(doc)
	require.NoError(t, err)

	assert.Equal(t, []string{"x", "region"}, f.Names())
	assert.Equal(t, Numeric{1, 2.5, 3}, f.Column("x"))
	assert.Equal(t, Factor{"north", "south", "north"}, f.Column("region"))
}

func TestParseYAML_MissingColumns(t *testing.T) {
	_, err := ParseYAML([]byte(`other: 1`))
	require.Error(t, err)
}

func TestParseYAML_NonSequenceColumn(t *testing.T) {
	_, err := ParseYAML([]byte("columns:\n  x: 5\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sequence")
}

func TestLoadYAML_FileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/frame.yaml"
	require.NoError(t, os.WriteFile(path, []byte("columns:\n  x: [1, 2]\n"), 0o644))

	f, err := LoadYAML(path)
	require.NoError(t, err)
	assert.Equal(t, 2, f.NRows())
}
