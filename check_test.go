package linesort_test

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lanrat/linesort"
)

func TestCheckFile(t *testing.T) {
	dir := t.TempDir()

	sorted := writeLines(t, dir, "sorted.txt", []string{"1. Apple", "", "3. Banana", "2. Cherry", "5. Cherry"})
	n, err := linesort.CheckFile(sorted)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	unsorted := writeLines(t, dir, "unsorted.txt", []string{"1. Apple", "5. X", "2. X"})
	_, err = linesort.CheckFile(unsorted)
	var orderErr *linesort.OrderError
	require.ErrorAs(t, err, &orderErr)
	assert.Equal(t, 3, orderErr.Line)
	assert.Equal(t, "5. X", orderErr.Prev)
	assert.Equal(t, "2. X", orderErr.Next)

	_, err = linesort.CheckFile(filepath.Join(dir, "missing.txt"))
	assert.True(t, errors.Is(err, linesort.ErrInputNotFound))

	empty := writeLines(t, dir, "empty.txt", nil)
	n, err = linesort.CheckFile(empty)
	require.NoError(t, err)
	assert.Zero(t, n)
}
