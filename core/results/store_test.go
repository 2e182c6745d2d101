package results

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchFromFilesystem(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "prediction.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"mask_voxels": 1042}`), 0o644))

	store := NewFilesystemStore()
	payload, err := store.Fetch(context.Background(), path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"mask_voxels": 1042}`, string(payload))
}

func TestFetchMissingFile(t *testing.T) {
	store := NewFilesystemStore()
	_, err := store.Fetch(context.Background(), filepath.Join(t.TempDir(), "absent.json"))
	assert.Error(t, err)
}

func TestFetchS3WithoutClient(t *testing.T) {
	store := NewFilesystemStore()
	_, err := store.Fetch(context.Background(), "s3://bucket/key.json")
	assert.Error(t, err)
}

func TestSplitS3URI(t *testing.T) {
	bucket, key, err := splitS3URI("s3://results/m1/inference/abc/prediction.json")
	require.NoError(t, err)
	assert.Equal(t, "results", bucket)
	assert.Equal(t, "m1/inference/abc/prediction.json", key)

	_, _, err = splitS3URI("s3://only-bucket")
	assert.Error(t, err)
}
