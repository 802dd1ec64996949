package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lgmkit/lgmkit/internal/dataset"
)

// Frame builds a data frame from column pairs, failing the test on length
// mismatches instead of returning an error.
func Frame(t *testing.T, pairs ...dataset.NamedColumn) *dataset.Frame {
	t.Helper()
	f, err := dataset.NewFrame(pairs...)
	require.NoError(t, err)
	return f
}
