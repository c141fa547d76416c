package index

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orbiseo/orbiseo/codec"
)

func TestSnapshot_RoundTrip(t *testing.T) {
	ix := testIndex(t)

	var buf bytes.Buffer
	require.NoError(t, ix.Save(&buf, nil))

	restored, err := Load(&buf)
	require.NoError(t, err)
	assert.Equal(t, ix.Len(), restored.Len())

	rec, ok := restored.Get("bitcoin price")
	require.True(t, ok)
	assert.Equal(t, 50000, rec.SearchVolume)
	assert.Equal(t, []float32{1, 0, 0}, rec.Embedding)

	// Derived structures are rebuilt, not just the records.
	assert.Equal(t, []string{"crypto", "laptops"}, restored.Clusters())

	matches, err := restored.Search(context.Background(), "bitcoin", []float32{1, 0, 0}, SearchOptions{
		TopK:   2,
		Hybrid: true,
	})
	require.NoError(t, err)
	require.NotEmpty(t, matches)
	assert.Equal(t, "bitcoin price", matches[0].Record.Keyword)
}

func TestSnapshot_CodecRecordedInHeader(t *testing.T) {
	ix := testIndex(t)

	for _, c := range []codec.Codec{codec.JSON{}, codec.GoJSON{}} {
		var buf bytes.Buffer
		require.NoError(t, ix.Save(&buf, c))

		restored, err := Load(&buf)
		require.NoError(t, err, "codec %s", c.Name())
		assert.Equal(t, ix.Len(), restored.Len())
	}
}

func TestSnapshot_InvalidMagic(t *testing.T) {
	_, err := Load(bytes.NewReader([]byte("NOPE\x01\x00garbage")))
	assert.ErrorIs(t, err, ErrInvalidSnapshot)
}

func TestSnapshot_Truncated(t *testing.T) {
	_, err := Load(bytes.NewReader([]byte{'O', 'R'}))
	assert.ErrorIs(t, err, ErrInvalidSnapshot)
}

func TestSnapshot_UnsupportedVersion(t *testing.T) {
	data := append([]byte{}, snapshotMagic[:]...)
	data = append(data, 99, 0)

	_, err := Load(bytes.NewReader(data))
	assert.ErrorIs(t, err, ErrUnsupportedSnapshot)
}

func TestSnapshot_File(t *testing.T) {
	ix := testIndex(t)
	path := filepath.Join(t.TempDir(), "keywords.orb")

	require.NoError(t, ix.SaveFile(path, nil))

	restored, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, ix.Len(), restored.Len())
}

func TestSnapshot_EmptyIndex(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, New().Save(&buf, nil))

	restored, err := Load(&buf)
	require.NoError(t, err)
	assert.Equal(t, 0, restored.Len())
}
