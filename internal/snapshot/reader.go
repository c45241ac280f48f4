package snapshot

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/kurihiro0119/github-ecosystem-snapshot/internal/domain"
	apperrors "github.com/kurihiro0119/github-ecosystem-snapshot/internal/errors"
)

// Reader loads a snapshot previously written to a directory
type Reader struct {
	dir string
}

// NewReader creates a reader for dir
func NewReader(dir string) *Reader {
	return &Reader{dir: dir}
}

// ReadFile returns the raw bytes of one output file
func (r *Reader) ReadFile(name string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(r.dir, name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, apperrors.NewNotFoundError(name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}
	return data, nil
}

// ReadCategory returns the raw JSON of a category file
func (r *Reader) ReadCategory(c domain.Category) ([]byte, error) {
	return r.ReadFile(c.FileName())
}

// Summary loads summary.json
func (r *Reader) Summary() (*domain.Summary, error) {
	var summary domain.Summary
	if err := r.decode(domain.SummaryFile, &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

// Load reads every file of the snapshot
func (r *Reader) Load() (*domain.Snapshot, *domain.Summary, error) {
	summary, err := r.Summary()
	if err != nil {
		return nil, nil, err
	}

	snap := &domain.Snapshot{}
	targets := []struct {
		name string
		v    interface{}
	}{
		{domain.UserInfoFile, &snap.User},
		{domain.CategoryOrganizations.FileName(), &snap.Organizations},
		{domain.CategoryRepositories.FileName(), &snap.Repositories},
		{domain.CategoryFollowers.FileName(), &snap.Followers},
		{domain.CategoryFollowing.FileName(), &snap.Following},
		{domain.CategoryStarredRepos.FileName(), &snap.StarredRepos},
		{domain.CategoryGists.FileName(), &snap.Gists},
	}
	for _, t := range targets {
		if err := r.decode(t.name, t.v); err != nil {
			return nil, nil, err
		}
	}
	return snap, summary, nil
}

func (r *Reader) decode(name string, v interface{}) error {
	data, err := r.ReadFile(name)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return apperrors.NewSerializationFailure(fmt.Sprintf("failed to decode %s", name), err)
	}
	return nil
}
