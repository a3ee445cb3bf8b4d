package sink

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenFileSinkAbsolutePath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.ts")

	s, err := Open("file://" + path) // triple-slash form: host empty, path absolute
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Send([]byte{0x47, 0x00}))
	require.NoError(t, s.Close())

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x47, 0x00}, got)
}

func TestOpenUnknownScheme(t *testing.T) {
	_, err := Open("tcp://localhost:1234")
	assert.Error(t, err)
}

func TestOpenMissingOutput(t *testing.T) {
	_, err := Open("")
	assert.Error(t, err)
}

func TestNoneSinkDiscards(t *testing.T) {
	var s NoneSink
	assert.NoError(t, s.Send([]byte{1, 2, 3}))
	assert.NoError(t, s.Close())
}
