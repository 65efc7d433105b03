package validation

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// FileValidator provides the preflight file checks shared by all subcommands.
// Failures here are fatal; nothing is loaded or written until they pass.
type FileValidator struct {
	logger *slog.Logger
}

// NewFileValidator creates a new file validator
func NewFileValidator(logger *slog.Logger) *FileValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileValidator{
		logger: logger,
	}
}

// ValidateArchiveFile checks that the input archive exists, is a regular
// readable file and carries a .zip extension.
func (v *FileValidator) ValidateArchiveFile(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		v.logger.Error("Archive does not exist",
			slog.String("file", path))
		return fmt.Errorf("archive %s does not exist", path)
	}
	if err != nil {
		v.logger.Error("Failed to stat archive",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to stat archive %s: %w", path, err)
	}
	if info.IsDir() {
		v.logger.Error("Path is a directory, not an archive",
			slog.String("path", path))
		return fmt.Errorf("%s is a directory, not an archive", path)
	}

	if ext := strings.ToLower(filepath.Ext(path)); ext != ".zip" {
		v.logger.Error("File is not a zip archive",
			slog.String("file", path),
			slog.String("extension", ext))
		return fmt.Errorf("file %s is not a zip archive (extension: %s)", path, ext)
	}

	file, err := os.Open(path)
	if err != nil {
		v.logger.Error("Archive is not readable",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return fmt.Errorf("archive %s is not readable: %w", path, err)
	}
	file.Close()

	v.logger.Debug("Archive validated",
		slog.String("file", path),
		slog.Int64("size", info.Size()))
	return nil
}

// ValidateOutputDirectory ensures the output directory exists or can be
// created, and is writable.
func (v *FileValidator) ValidateOutputDirectory(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		v.logger.Error("Failed to create output directory",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}

	// Verify it's writable by creating a test file
	testFile := filepath.Join(dir, ".write_test")
	file, err := os.Create(testFile)
	if err != nil {
		v.logger.Error("Output directory is not writable",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return fmt.Errorf("output directory %s is not writable: %w", dir, err)
	}
	file.Close()
	os.Remove(testFile)

	v.logger.Debug("Output directory validated",
		slog.String("directory", dir))
	return nil
}

// ValidateOutputFile checks that an output archive path is usable: its parent
// directory is writable and the path itself is not an existing directory.
func (v *FileValidator) ValidateOutputFile(path string) error {
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		v.logger.Error("Output path is a directory",
			slog.String("path", path))
		return fmt.Errorf("output path %s is a directory", path)
	}
	return v.ValidateOutputDirectory(filepath.Dir(path))
}
