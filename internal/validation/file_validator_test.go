package validation

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestValidator() *FileValidator {
	return NewFileValidator(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestValidateInputDirectory(t *testing.T) {
	v := newTestValidator()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ventas.xlsx"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "maestro.csv"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notas.txt"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "~$ventas.xlsx"), []byte("x"), 0644))

	count, err := v.ValidateInputDirectory(dir)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestValidateInputDirectory_Missing(t *testing.T) {
	v := newTestValidator()

	_, err := v.ValidateInputDirectory(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}

func TestValidateInputDirectory_NotADirectory(t *testing.T) {
	v := newTestValidator()

	file := filepath.Join(t.TempDir(), "plain.csv")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0644))

	_, err := v.ValidateInputDirectory(file)
	assert.Error(t, err)
}

func TestValidateOutputDirectory(t *testing.T) {
	v := newTestValidator()

	dir := filepath.Join(t.TempDir(), "reports", "2024")
	require.NoError(t, v.ValidateOutputDirectory(dir))

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	_, err = os.Stat(filepath.Join(dir, ".write_test"))
	assert.True(t, os.IsNotExist(err), "probe file should be removed")
}

func TestValidateSpreadsheetName(t *testing.T) {
	v := newTestValidator()

	tests := []struct {
		name    string
		wantErr bool
	}{
		{"ventas.xlsx", false},
		{"ventas.XLSX", false},
		{"legacy.xls", false},
		{"datos.csv", false},
		{"macro.xlsm", false},
		{"~$ventas.xlsx", true},
		{"notas.txt", true},
		{"sin_extension", true},
	}
	for _, tt := range tests {
		err := v.ValidateSpreadsheetName(tt.name)
		if tt.wantErr {
			assert.Error(t, err, tt.name)
		} else {
			assert.NoError(t, err, tt.name)
		}
	}
}

func TestValidateFile(t *testing.T) {
	v := newTestValidator()

	dir := t.TempDir()
	file := filepath.Join(dir, "ventas.csv")
	require.NoError(t, os.WriteFile(file, []byte("a,b\n"), 0644))

	assert.NoError(t, v.ValidateFile(file))
	assert.Error(t, v.ValidateFile(filepath.Join(dir, "missing.csv")))
	assert.Error(t, v.ValidateFile(dir))
}
