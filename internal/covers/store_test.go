// internal/covers/store_test.go
package covers

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiskStoreRoundTrip(t *testing.T) {
	store, err := NewDiskStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	ref, err := store.Save(ctx, "cover.png", strings.NewReader("fake image bytes"))
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(ref, ".png"), "ref %q should keep the extension", ref)

	f, err := store.Open(ctx, ref)
	require.NoError(t, err)
	data, err := io.ReadAll(f)
	require.NoError(t, err)
	require.NoError(t, f.Close())
	assert.Equal(t, "fake image bytes", string(data))

	require.NoError(t, store.Remove(ctx, ref))
	_, err = store.Open(ctx, ref)
	assert.Error(t, err)
}

func TestDiskStoreSaveGeneratesUniqueRefs(t *testing.T) {
	store, err := NewDiskStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	ref1, err := store.Save(ctx, "same.jpg", strings.NewReader("a"))
	require.NoError(t, err)
	ref2, err := store.Save(ctx, "same.jpg", strings.NewReader("b"))
	require.NoError(t, err)

	assert.NotEqual(t, ref1, ref2)
}

func TestDiskStoreRejectsPathTraversal(t *testing.T) {
	store, err := NewDiskStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	_, err = store.Open(ctx, "../etc/passwd")
	assert.Error(t, err)

	assert.Error(t, store.Remove(ctx, "../somewhere/else"))
}

func TestDiskStoreRemoveMissingIsNotAnError(t *testing.T) {
	store, err := NewDiskStore(t.TempDir())
	require.NoError(t, err)

	assert.NoError(t, store.Remove(context.Background(), "nonexistent.png"))
}
