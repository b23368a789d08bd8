package feeders

import (
	"fmt"
	"path/filepath"
	"strings"
)

// FileFeeder is a file-backed feeder supporting whole-file and per-section
// reads.
type FileFeeder interface {
	Feed(structure any) error
	FeedKey(key string, target any) error
}

// ForFile picks a file feeder from the extension of path: .yaml/.yml or
// .toml.
func ForFile(path string) (FileFeeder, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		return NewYamlFeeder(path), nil
	case ".toml":
		return NewTomlFeeder(path), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedExtension, ext)
	}
}
