package storage

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Disk implements Provider on the local file system under a single root
// directory, serving saved files at baseURL + "/" + relative path.
type Disk struct {
	root    string // absolute path to the uploads directory
	baseURL string // public prefix, no trailing slash
}

// NewDisk creates a Disk provider rooted at the given directory, creating
// it if needed.
func NewDisk(root, baseURL string) (*Disk, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve root: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("storage: create root: %w", err)
	}
	return &Disk{root: abs, baseURL: strings.TrimSuffix(baseURL, "/")}, nil
}

// safePath resolves a relative path against the root and rejects any result
// that escapes it (directory traversal).
func (d *Disk) safePath(rel string) (string, error) {
	cleaned := filepath.Clean(rel)
	if filepath.IsAbs(cleaned) {
		return "", fmt.Errorf("storage: absolute paths not allowed: %s", rel)
	}
	joined := filepath.Join(d.root, cleaned)
	abs, err := filepath.Abs(joined)
	if err != nil {
		return "", fmt.Errorf("storage: resolve path: %w", err)
	}
	if !strings.HasPrefix(abs, d.root+string(os.PathSeparator)) && abs != d.root {
		return "", fmt.Errorf("storage: path escapes uploads root: %s", rel)
	}
	return abs, nil
}

// Save writes content atomically (tmp file, fsync, rename) under
// dirHint/<uuid-prefix>-<sanitized name> and returns its location.
func (d *Disk) Save(dirHint, filename string, content []byte) (StoredFile, error) {
	name := uuid.NewString()[:8] + "-" + sanitizeName(filename)
	rel := path.Join(sanitizeName(dirHint), name)

	abs, err := d.safePath(rel)
	if err != nil {
		return StoredFile{}, err
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return StoredFile{}, fmt.Errorf("storage: mkdir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(abs), ".upload-tmp-*")
	if err != nil {
		return StoredFile{}, fmt.Errorf("storage: create temp: %w", err)
	}
	tmpName := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(content); err != nil {
		return StoredFile{}, fmt.Errorf("storage: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return StoredFile{}, fmt.Errorf("storage: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return StoredFile{}, fmt.Errorf("storage: close temp: %w", err)
	}
	if err := os.Rename(tmpName, abs); err != nil {
		return StoredFile{}, fmt.Errorf("storage: rename: %w", err)
	}
	success = true

	return StoredFile{URL: d.baseURL + "/" + rel, Path: rel}, nil
}

// Delete removes a stored asset by relative path or public URL.
func (d *Disk) Delete(location string) error {
	rel := strings.TrimPrefix(location, d.baseURL+"/")
	abs, err := d.safePath(rel)
	if err != nil {
		return err
	}
	if err := os.Remove(abs); err != nil {
		return fmt.Errorf("storage: delete %s: %w", rel, err)
	}
	return nil
}

// sanitizeName strips any path components and normalizes the file name to a
// safe subset.
func sanitizeName(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '.', r == '-', r == '_':
			b.WriteRune(r)
		case r == ' ':
			b.WriteRune('-')
		}
	}
	out := strings.Trim(b.String(), ".")
	if out == "" {
		out = "file"
	}
	return out
}
