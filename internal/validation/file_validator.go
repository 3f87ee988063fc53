// Package validation provides filesystem preflight checks shared by
// the batch binaries: input directories must exist and hold supported
// spreadsheet exports, output directories must be writable.
package validation

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

var spreadsheetExtensions = map[string]bool{
	".xlsx": true,
	".xlsm": true,
	".xls":  true,
	".csv":  true,
}

// FileValidator runs preflight checks before batch processing starts.
type FileValidator struct {
	logger *slog.Logger
}

func NewFileValidator(logger *slog.Logger) *FileValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileValidator{logger: logger}
}

// ValidateInputDirectory checks the directory exists and reports how
// many spreadsheet exports it holds. An empty directory is not an
// error here, the caller decides whether that is fatal.
func (v *FileValidator) ValidateInputDirectory(dir string) (int, error) {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return 0, fmt.Errorf("input directory %s does not exist", dir)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to stat directory %s: %w", dir, err)
	}
	if !info.IsDir() {
		return 0, fmt.Errorf("%s is not a directory", dir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	count := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if err := v.ValidateSpreadsheetName(entry.Name()); err == nil {
			count++
		}
	}

	v.logger.Info("input directory validated",
		slog.String("directory", dir),
		slog.Int("spreadsheet_files", count))
	return count, nil
}

// ValidateOutputDirectory ensures the directory exists and is writable.
func (v *FileValidator) ValidateOutputDirectory(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}

	// Probe writability, some mounts allow mkdir but not create
	testFile := filepath.Join(dir, ".write_test")
	file, err := os.Create(testFile)
	if err != nil {
		return fmt.Errorf("output directory %s is not writable: %w", dir, err)
	}
	file.Close()
	os.Remove(testFile)

	v.logger.Info("output directory validated", slog.String("directory", dir))
	return nil
}

// ValidateSpreadsheetName checks a filename has a supported extension
// and is not an Office lock file.
func (v *FileValidator) ValidateSpreadsheetName(name string) error {
	if strings.HasPrefix(filepath.Base(name), "~$") {
		return fmt.Errorf("%s is an Office lock file", name)
	}
	ext := strings.ToLower(filepath.Ext(name))
	if !spreadsheetExtensions[ext] {
		return fmt.Errorf("unsupported file type %q", ext)
	}
	return nil
}

// ValidateFile checks a specific file exists and is readable.
func (v *FileValidator) ValidateFile(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return fmt.Errorf("file %s does not exist", path)
	}
	if err != nil {
		return fmt.Errorf("failed to stat file %s: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory, not a file", path)
	}

	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("file %s is not readable: %w", path, err)
	}
	file.Close()

	v.logger.Debug("file validated",
		slog.String("file", path),
		slog.Int64("size", info.Size()))
	return nil
}
