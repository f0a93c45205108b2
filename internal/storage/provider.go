// Package storage resolves content file fields to stored binary assets.
package storage

// StoredFile is the location of a saved asset: URL is what gets written
// into the content item's data, Path is the provider-relative key used for
// deletion.
type StoredFile struct {
	URL  string `json:"url"`
	Path string `json:"path"`
}

// Provider is the interface for attachment storage.
type Provider interface {
	// Save stores content under a directory hint (typically the model id)
	// with a collision-free name derived from filename.
	Save(dirHint, filename string, content []byte) (StoredFile, error)
	// Delete removes a previously stored asset. It accepts either the
	// relative path or the public URL Save returned.
	Delete(location string) error
}
