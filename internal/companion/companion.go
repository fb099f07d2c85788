// Package companion discovers browser-side client assets shipped alongside
// extensions, for rendering inside overlay clients.
package companion

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
)

// ManifestFileName is the per-directory companion manifest.
const ManifestFileName = "companion.json"

// Manifest declares a companion client asset bundle.
type Manifest struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Version     string   `json:"version"`
	Author      string   `json:"author"`
	Description string   `json:"description,omitempty"`
	EntryScript string   `json:"entryScript"`
	EntryStyle  string   `json:"entryStyle,omitempty"`
	Components  []string `json:"components,omitempty"`
	Elements    []string `json:"elements,omitempty"`
}

// Descriptor is a discovered companion plus its server-computed base path,
// under which the bundle's files are served to overlay clients.
type Descriptor struct {
	Manifest
	BasePath string `json:"basePath"`
	dir      string
}

// Dir returns the on-disk directory the companion was discovered in.
func (d Descriptor) Dir() string {
	return d.dir
}

// Manifest validation errors.
var (
	ErrMissingID          = errors.New("companion: id is required")
	ErrMissingName        = errors.New("companion: name is required")
	ErrMissingVersion     = errors.New("companion: version is required")
	ErrMissingEntryScript = errors.New("companion: entryScript is required")
)

func (m *Manifest) validate() error {
	if m.ID == "" {
		return ErrMissingID
	}
	if m.Name == "" {
		return ErrMissingName
	}
	if m.Version == "" {
		return ErrMissingVersion
	}
	if m.EntryScript == "" {
		return ErrMissingEntryScript
	}
	return nil
}

// Discover enumerates the immediate subdirectories of root and collects each
// valid companion manifest, sorted by name. Invalid manifests are logged and
// skipped. A missing root is created and yields an empty result.
func Discover(root string) ([]Descriptor, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			if mkErr := os.MkdirAll(root, 0o755); mkErr != nil {
				return nil, fmt.Errorf("failed to create companions directory: %w", mkErr)
			}
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read companions directory: %w", err)
	}

	var descriptors []Descriptor
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		dir := filepath.Join(root, entry.Name())
		manifestPath := filepath.Join(dir, ManifestFileName)
		data, err := os.ReadFile(manifestPath)
		if err != nil {
			continue
		}

		var m Manifest
		if err := json.Unmarshal(data, &m); err != nil {
			slog.Warn("Skipping companion with invalid manifest", "dir", entry.Name(), "error", err)
			continue
		}
		if err := m.validate(); err != nil {
			slog.Warn("Skipping invalid companion", "dir", entry.Name(), "error", err)
			continue
		}

		descriptors = append(descriptors, Descriptor{
			Manifest: m,
			BasePath: "/companions/" + m.ID + "/",
			dir:      dir,
		})
	}

	sort.Slice(descriptors, func(i, j int) bool {
		return descriptors[i].Name < descriptors[j].Name
	})
	return descriptors, nil
}
