package snapshot

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kurihiro0119/github-ecosystem-snapshot/internal/domain"
	apperrors "github.com/kurihiro0119/github-ecosystem-snapshot/internal/errors"
)

func TestReader_Load(t *testing.T) {
	dir := t.TempDir()
	f := newFakeCollector().withScenario()
	_, err := newTestService(f).Run(context.Background(), Options{OutputDir: dir})
	require.NoError(t, err)

	snap, summary, err := NewReader(dir).Load()
	require.NoError(t, err)
	assert.Equal(t, "octocat", snap.User.Login)
	assert.Len(t, snap.Organizations, 2)
	assert.Len(t, snap.Repositories, 5)
	assert.NotNil(t, snap.Gists)
	assert.Empty(t, snap.Gists)
	assert.Equal(t, 5, summary.Counts.Repositories)
}

func TestReader_MissingFile(t *testing.T) {
	r := NewReader(t.TempDir())

	_, err := r.ReadCategory(domain.CategoryGists)
	assert.True(t, apperrors.IsNotFound(err))

	_, _, err = r.Load()
	assert.True(t, apperrors.IsNotFound(err))
}

func TestReader_CorruptSummary(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, domain.SummaryFile), []byte("{not json"), 0o644))

	_, err := NewReader(dir).Summary()
	assert.Equal(t, apperrors.ErrCodeSerializationFailure, apperrors.CodeOf(err))
}

func TestReader_ReadCategory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "followers.json"), []byte("[]\n"), 0o644))

	data, err := NewReader(dir).ReadCategory(domain.CategoryFollowers)
	require.NoError(t, err)
	assert.Equal(t, "[]\n", string(data))
}
