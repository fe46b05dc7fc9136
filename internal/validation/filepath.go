package validation

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ImportFormat is the decoder an import file needs.
type ImportFormat string

const (
	FormatTOML ImportFormat = "toml"
	FormatJSON ImportFormat = "json"
	FormatYAML ImportFormat = "yaml"
)

// ImportFileValidator checks a user-supplied import path before it is read.
type ImportFileValidator struct {
	MaxPathLength int
	// MaxSize is the largest file accepted, in bytes.
	MaxSize int64
}

func NewImportFileValidator() *ImportFileValidator {
	return &ImportFileValidator{
		MaxPathLength: 4096,
		MaxSize:       16 << 20,
	}
}

// Validate returns the cleaned absolute path and the format implied by its
// extension. The file must exist and be a regular file.
func (v *ImportFileValidator) Validate(path string) (string, ImportFormat, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", "", fmt.Errorf("path cannot be empty")
	}
	if len(path) > v.MaxPathLength {
		return "", "", fmt.Errorf("path too long (max %d characters)", v.MaxPathLength)
	}
	if err := validateCharacters(path); err != nil {
		return "", "", err
	}

	cleaned, err := expandHome(path)
	if err != nil {
		return "", "", err
	}
	cleaned, err = filepath.Abs(cleaned)
	if err != nil {
		return "", "", fmt.Errorf("cannot make path absolute: %w", err)
	}

	format, err := formatFor(cleaned)
	if err != nil {
		return "", "", err
	}

	info, err := os.Stat(cleaned)
	if err != nil {
		return "", "", fmt.Errorf("checking file: %w", err)
	}
	if !info.Mode().IsRegular() {
		return "", "", fmt.Errorf("not a regular file: %s", cleaned)
	}
	if v.MaxSize > 0 && info.Size() > v.MaxSize {
		return "", "", fmt.Errorf("file too large: %d bytes (max %d)", info.Size(), v.MaxSize)
	}

	return cleaned, format, nil
}

func formatFor(path string) (ImportFormat, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML, nil
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported import file %q: want .toml, .json or .yaml", filepath.Base(path))
	}
}

// validateCharacters rejects null bytes and control characters.
func validateCharacters(path string) error {
	if strings.Contains(path, "\x00") {
		return fmt.Errorf("path contains null bytes")
	}
	for _, char := range path {
		if char < 32 && char != '\t' {
			return fmt.Errorf("path contains control characters")
		}
	}
	return nil
}

func expandHome(path string) (string, error) {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine home directory: %w", err)
		}
		return filepath.Join(home, strings.TrimPrefix(path[1:], "/")), nil
	}
	if strings.HasPrefix(path, "~") {
		return "", fmt.Errorf("invalid tilde usage in %q", path)
	}
	return path, nil
}

// IsPathSafe performs a quick safety check on a path without touching the filesystem.
func IsPathSafe(path string) bool {
	return path != "" && len(path) <= 4096 && validateCharacters(path) == nil
}
