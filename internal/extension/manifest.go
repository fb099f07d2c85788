package extension

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Masterminds/semver/v3"
	"github.com/google/uuid"
)

// ManifestFileName is the per-directory manifest looked for during discovery.
const ManifestFileName = "manifest.json"

// Supported extension kinds.
const (
	KindNativeCode = "native-code"
	KindLuaScript  = "lua-script"
)

// Manifest declares an extension's identity and entry point. One manifest
// file lives in each extension directory.
type Manifest struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Author      string     `json:"author"`
	Version     string     `json:"version"`
	Description string     `json:"description,omitempty"`
	Kind        string     `json:"kind"`
	EntryPoint  EntryPoint `json:"entryPoint"`

	// dir is the extension directory the manifest was loaded from.
	dir string
}

// EntryPoint locates the extension's code. For native-code extensions
// TypeName names a registered factory; for lua-script extensions Script is a
// relative path to the script file.
type EntryPoint struct {
	Path     string `json:"path,omitempty"`
	TypeName string `json:"typeName,omitempty"`
	Script   string `json:"script,omitempty"`
}

// Manifest validation errors.
var (
	ErrMissingID         = errors.New("manifest: id is required")
	ErrInvalidID         = errors.New("manifest: id must be a UUID")
	ErrMissingName       = errors.New("manifest: name is required")
	ErrMissingAuthor     = errors.New("manifest: author is required")
	ErrMissingVersion    = errors.New("manifest: version is required")
	ErrInvalidVersion    = errors.New("manifest: version must be valid semver")
	ErrUnsupportedKind   = errors.New("manifest: unsupported kind")
	ErrMissingEntryPoint = errors.New("manifest: entry point is incomplete")
)

// Validate checks the structural requirements of the manifest. Entry-point
// resolvability (registered factory, existing script file) is checked by the
// loader at instantiation time.
func (m *Manifest) Validate() error {
	if m.ID == "" {
		return ErrMissingID
	}
	if _, err := uuid.Parse(m.ID); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidID, m.ID)
	}
	if m.Name == "" {
		return ErrMissingName
	}
	if m.Author == "" {
		return ErrMissingAuthor
	}
	if m.Version == "" {
		return ErrMissingVersion
	}
	if _, err := semver.NewVersion(m.Version); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidVersion, m.Version)
	}

	switch m.Kind {
	case KindNativeCode:
		if m.EntryPoint.TypeName == "" {
			return fmt.Errorf("%w: native-code requires entryPoint.typeName", ErrMissingEntryPoint)
		}
	case KindLuaScript:
		if m.EntryPoint.Script == "" {
			return fmt.Errorf("%w: lua-script requires entryPoint.script", ErrMissingEntryPoint)
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedKind, m.Kind)
	}

	return nil
}

// UUID returns the parsed manifest id. Only valid after Validate.
func (m *Manifest) UUID() uuid.UUID {
	id, _ := uuid.Parse(m.ID)
	return id
}

// Dir returns the extension directory the manifest was loaded from.
func (m *Manifest) Dir() string {
	return m.dir
}

// LoadManifest reads and validates a manifest file.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	m.dir = filepath.Dir(path)

	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}
