package extension

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/Agash/StreamWeaver-sub002/internal/metrics"
)

// Factory constructs a native-code extension. Native extensions are compiled
// into the binary and register themselves by type name; the manifest's
// entry-point type name selects the factory.
type Factory func() Extension

// Loader resolves manifests to live extension instances.
type Loader struct {
	factories map[string]Factory
}

// Loader errors.
var (
	ErrFactoryExists   = errors.New("loader: factory already registered")
	ErrUnknownTypeName = errors.New("loader: no factory registered for type name")
	ErrScriptNotFound  = errors.New("loader: script file not found")
)

func NewLoader() *Loader {
	return &Loader{factories: make(map[string]Factory)}
}

// RegisterFactory binds a native extension constructor to its type name.
func (l *Loader) RegisterFactory(typeName string, f Factory) error {
	if _, exists := l.factories[typeName]; exists {
		return fmt.Errorf("%w: %q", ErrFactoryExists, typeName)
	}
	l.factories[typeName] = f
	return nil
}

// Candidate pairs a validated manifest with its directory.
type Candidate struct {
	Manifest *Manifest
}

// DiscoverManifests enumerates the immediate subdirectories of root and
// parses a manifest from each one that carries a manifest file. Invalid
// manifests are logged and skipped; discovery continues. A missing root is
// created and yields an empty result (first-run tolerance).
func DiscoverManifests(root string) ([]Candidate, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			if mkErr := os.MkdirAll(root, 0o755); mkErr != nil {
				return nil, fmt.Errorf("failed to create extensions directory: %w", mkErr)
			}
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read extensions directory: %w", err)
	}

	var candidates []Candidate
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		manifestPath := filepath.Join(root, entry.Name(), ManifestFileName)
		if _, err := os.Stat(manifestPath); err != nil {
			continue
		}

		m, err := LoadManifest(manifestPath)
		if err != nil {
			metrics.ExtensionLoadFailuresTotal.WithLabelValues("manifest").Inc()
			slog.Warn("Skipping extension with invalid manifest",
				"dir", entry.Name(),
				"error", err,
			)
			continue
		}
		candidates = append(candidates, Candidate{Manifest: m})
	}
	return candidates, nil
}

// Instantiate resolves a candidate's entry point and constructs the
// extension instance. The manifest is already structurally valid; this step
// fails when the entry point does not resolve to a loadable unit.
func (l *Loader) Instantiate(c Candidate) (Extension, error) {
	m := c.Manifest
	switch m.Kind {
	case KindNativeCode:
		factory, ok := l.factories[m.EntryPoint.TypeName]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownTypeName, m.EntryPoint.TypeName)
		}
		ext := factory()
		if ext == nil {
			return nil, fmt.Errorf("factory for %q returned nil", m.EntryPoint.TypeName)
		}
		return ext, nil

	case KindLuaScript:
		scriptPath := filepath.Join(m.Dir(), m.EntryPoint.Script)
		if _, err := os.Stat(scriptPath); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrScriptNotFound, scriptPath)
		}
		return newLuaExtension(m, scriptPath)

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedKind, m.Kind)
	}
}
