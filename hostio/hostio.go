// Package hostio moves resource bytes between the host's file system
// and the engine, and hands saved files to the host's default
// application.
package hostio

import (
	"fmt"
	"os"
	"path/filepath"
)

// ReadAll reads the entire file at path.
func ReadAll(path string) ([]byte, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file - %w", err)
	}

	return b, nil
}

// WriteAll creates or truncates the file at path and writes b to it.
func WriteAll(path string, b []byte) error {
	err := os.WriteFile(path, b, 0o644)
	if err != nil {
		return fmt.Errorf("failed to write file - %w", err)
	}

	return nil
}

// WithExtension returns path with ext appended when path has
// no extension.
func WithExtension(path string, ext string) string {
	if filepath.Ext(path) != "" {
		return path
	}

	return path + ext
}

// SaveTemp writes b to a new, randomly named file with the
// extension ext in the host's temporary directory.
func SaveTemp(b []byte, ext string) (string, error) {
	f, err := os.CreateTemp("", "gmpatch-*"+ext)
	if err != nil {
		return "", fmt.Errorf("failed to create temporary file - %w", err)
	}
	defer f.Close()

	_, err = f.Write(b)
	if err != nil {
		return "", fmt.Errorf("failed to write temporary file - %w", err)
	}

	return f.Name(), f.Close()
}

// OpenWithDefault asks the host to open path with its default
// application. It does not wait for the application to exit.
func OpenWithDefault(path string) error {
	cmd := openCommand(path)

	err := cmd.Start()
	if err != nil {
		return fmt.Errorf("failed to start %q - %w", cmd.Path, err)
	}

	go cmd.Wait()

	return nil
}

