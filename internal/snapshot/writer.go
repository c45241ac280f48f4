package snapshot

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kurihiro0119/github-ecosystem-snapshot/internal/domain"
	apperrors "github.com/kurihiro0119/github-ecosystem-snapshot/internal/errors"
)

type outputFile struct {
	name string
	data []byte
}

// encodeSnapshot serializes every output file in memory.
// The summary is always the last file so it is committed last.
func encodeSnapshot(snap *domain.Snapshot, summary *domain.Summary) ([]outputFile, error) {
	files := make([]outputFile, 0, len(domain.Categories)+2)

	add := func(name string, v interface{}) error {
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return apperrors.NewSerializationFailure(fmt.Sprintf("failed to encode %s", name), err)
		}
		files = append(files, outputFile{name: name, data: append(data, '\n')})
		return nil
	}

	if err := add(domain.UserInfoFile, snap.User); err != nil {
		return nil, err
	}
	for _, c := range domain.Categories {
		if err := add(c.FileName(), snap.Records(c)); err != nil {
			return nil, apperrors.WithCategory(err, string(c))
		}
	}
	if err := add(domain.SummaryFile, summary); err != nil {
		return nil, err
	}
	return files, nil
}

// commitFiles stages every file next to its destination and then renames them into place.
// Nothing in dir changes unless every file was staged.
func commitFiles(dir string, files []outputFile) ([]string, error) {
	staged := make([]string, 0, len(files))
	cleanup := func() {
		for _, tmp := range staged {
			os.Remove(tmp)
		}
	}

	for _, f := range files {
		tmp, err := stageFile(dir, f)
		if err != nil {
			cleanup()
			return nil, err
		}
		staged = append(staged, tmp)
	}

	written := make([]string, 0, len(files))
	for i, f := range files {
		dest := filepath.Join(dir, f.name)
		if err := os.Rename(staged[i], dest); err != nil {
			cleanup()
			return written, fmt.Errorf("failed to move %s into place: %w", f.name, err)
		}
		written = append(written, dest)
	}
	return written, nil
}

func stageFile(dir string, f outputFile) (string, error) {
	tmp, err := os.CreateTemp(dir, "."+strings.TrimSuffix(f.name, ".json")+"-*.tmp")
	if err != nil {
		return "", fmt.Errorf("failed to stage %s: %w", f.name, err)
	}
	if _, err := tmp.Write(f.data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to write %s: %w", f.name, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to sync %s: %w", f.name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to close %s: %w", f.name, err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to chmod %s: %w", f.name, err)
	}
	return tmp.Name(), nil
}
