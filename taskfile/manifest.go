// Package taskfile implements a TaskMonitor backed by a task manifest file
// that a task runner rewrites whenever tasks start or end.
//
// A manifest lists the running tasks in order:
//
//	tasks:
//	  - id: frontend-run
//	    type: tye-run
//	    options:
//	      applicationName: frontend
//	      dashboard: http://localhost:9000
//
// YAML (.yaml, .yml), TOML (.toml) and JSON (.json) are accepted.
package taskfile

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/GoCodeAlone/tyeapps"
)

// Manifest errors
var (
	ErrUnsupportedFormat = errors.New("unsupported manifest format")
	ErrInvalidManifest   = errors.New("invalid task manifest")
)

// Manifest is the on-disk document.
type Manifest struct {
	Tasks []tyeapps.MonitoredTask `json:"tasks" yaml:"tasks" toml:"tasks"`
}

// Format identifies a manifest encoding.
type Format string

// Supported formats.
const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
	FormatJSON Format = "json"
)

// FormatForPath derives the format from the file extension.
func FormatForPath(path string) (Format, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

// Decode parses a manifest. Empty input is an empty manifest.
func Decode(data []byte, format Format) (Manifest, error) {
	var m Manifest
	if len(bytes.TrimSpace(data)) == 0 {
		return m, nil
	}

	var err error
	switch format {
	case FormatYAML:
		err = yaml.Unmarshal(data, &m)
	case FormatTOML:
		err = toml.Unmarshal(data, &m)
	case FormatJSON:
		err = json.Unmarshal(data, &m)
	default:
		return Manifest{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return Manifest{}, fmt.Errorf("%w: %w", ErrInvalidManifest, err)
	}

	for i, task := range m.Tasks {
		if task.Type == "" {
			return Manifest{}, fmt.Errorf("%w: task %d has no type", ErrInvalidManifest, i)
		}
	}
	return m, nil
}

// Encode renders a manifest.
func Encode(m Manifest, format Format) ([]byte, error) {
	switch format {
	case FormatYAML:
		return yaml.Marshal(m)
	case FormatTOML:
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(m); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case FormatJSON:
		return json.MarshalIndent(m, "", "  ")
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

// ReadFile loads the manifest at path. A missing file reads as an empty
// manifest: no task has been started yet.
func ReadFile(path string) (Manifest, error) {
	format, err := FormatForPath(path)
	if err != nil {
		return Manifest{}, err
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return Manifest{}, nil
	}
	if err != nil {
		return Manifest{}, fmt.Errorf("failed to read task manifest %s: %w", path, err)
	}

	m, err := Decode(data, format)
	if err != nil {
		return Manifest{}, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// WriteFile writes m to path atomically via a temp file and rename.
func WriteFile(path string, m Manifest) error {
	format, err := FormatForPath(path)
	if err != nil {
		return err
	}
	data, err := Encode(m, format)
	if err != nil {
		return fmt.Errorf("failed to encode task manifest: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create temp manifest: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write temp manifest: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp manifest: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace task manifest: %w", err)
	}
	return nil
}
