// Package manifest writes the machine-readable record of a finished build.
package manifest

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"git.home.luguber.info/inful/blogbuilder/internal/content"
)

// FileName is the manifest's name inside the output tree.
const FileName = "build_data.json"

// BuildManifest lists every post produced by a build.
type BuildManifest struct {
	Generated time.Time       `json:"generated"`
	Posts     []*content.Post `json:"posts"`
}

// New returns a manifest for posts generated at t. A nil slice is recorded as
// an empty list.
func New(t time.Time, posts []*content.Post) *BuildManifest {
	if posts == nil {
		posts = []*content.Post{}
	}
	return &BuildManifest{Generated: t, Posts: posts}
}

// ToJSON serializes the manifest to indented JSON.
func (m *BuildManifest) ToJSON() ([]byte, error) {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal manifest: %w", err)
	}
	return data, nil
}

// FromJSON deserializes a manifest from JSON.
func FromJSON(data []byte) (*BuildManifest, error) {
	var m BuildManifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("unmarshal manifest: %w", err)
	}
	return &m, nil
}

// Hash digests the ordered post identities (file name and fingerprint). Two
// builds with the same hash produced the same set of article pages.
func (m *BuildManifest) Hash() (string, error) {
	type entry struct {
		FileName    string `json:"f"`
		Fingerprint string `json:"p"`
	}
	entries := make([]entry, 0, len(m.Posts))
	for _, p := range m.Posts {
		entries = append(entries, entry{FileName: p.FileName, Fingerprint: p.Fingerprint})
	}
	data, err := json.Marshal(entries)
	if err != nil {
		return "", fmt.Errorf("marshal for hash: %w", err)
	}
	hash := sha256.Sum256(data)
	return fmt.Sprintf("%x", hash), nil
}

// Write stores the manifest as FileName under dir and returns its path.
func (m *BuildManifest) Write(dir string) (string, error) {
	data, err := m.ToJSON()
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, FileName)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("create manifest dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", fmt.Errorf("write manifest: %w", err)
	}
	return path, nil
}
