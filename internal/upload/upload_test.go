package upload

import (
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"My cool movie.mov", "My_cool_movie.mov"},
		{"../../../etc/passwd", "etc_passwd"},
		{`..\..\windows\system32.dll`, "windows_system32.dll"},
		{"i contain cool \u00fcml\u00e4uts.txt", "i_contain_cool_umlauts.txt"},
		{"写真.png", "png"},
		{"...", "upload"},
		{"", "upload"},
		{"_hidden_.jpg", "hidden_.jpg"},
		{"scan;rm -rf.jpeg", "scanrm_-rf.jpeg"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Sanitize(tt.in), "input %q", tt.in)
	}
}

func TestSanitizeNeverEscapes(t *testing.T) {
	for _, in := range []string{"/abs/path.png", "a/../../b.png", "..", "C:\\x\\y.gif", "\x00evil.png"} {
		got := Sanitize(in)
		assert.NotContains(t, got, "/")
		assert.NotContains(t, got, `\`)
		assert.NotEqual(t, "..", got)
		assert.Equal(t, filepath.Base(got), got)
	}
}

var storageNamePattern = regexp.MustCompile(`^[0-9a-f]{32}(\.[A-Za-z0-9_-]+)?$`)

func TestStorageNameKeepsOnlyExtension(t *testing.T) {
	a := StorageName("holiday_photo.JPG")
	b := StorageName("holiday_photo.JPG")
	assert.NotEqual(t, a, b)
	for _, name := range []string{a, b} {
		assert.Regexp(t, storageNamePattern, name)
		assert.True(t, strings.HasSuffix(name, ".JPG"))
		assert.NotContains(t, name, "holiday")
	}
	assert.Len(t, StorageName("noext"), 32)
}

func TestSaveAndOpen(t *testing.T) {
	dir, err := NewDir(filepath.Join(t.TempDir(), "uploads"))
	require.NoError(t, err)

	file, err := dir.Save("../my scan.png", strings.NewReader("pixels"))
	require.NoError(t, err)
	assert.Equal(t, "my_scan.png", file.DisplayName)
	assert.Equal(t, int64(6), file.Size)
	assert.Equal(t, filepath.Join(dir.Root(), "my_scan.png"), file.Path)
	assert.Regexp(t, storageNamePattern, file.StorageName)
	assert.True(t, strings.HasSuffix(file.StorageName, ".png"))

	f, err := dir.Open(file.DisplayName)
	require.NoError(t, err)
	defer f.Close()
	data, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, "pixels", string(data))
}

func TestSaveDoesNotOverwrite(t *testing.T) {
	dir, err := NewDir(t.TempDir())
	require.NoError(t, err)

	first, err := dir.Save("scan.png", strings.NewReader("one"))
	require.NoError(t, err)
	second, err := dir.Save("scan.png", strings.NewReader("two"))
	require.NoError(t, err)
	third, err := dir.Save("scan.png", strings.NewReader("three"))
	require.NoError(t, err)

	assert.Equal(t, "scan.png", first.DisplayName)
	assert.Equal(t, "scan_1.png", second.DisplayName)
	assert.Equal(t, "scan_2.png", third.DisplayName)

	data, err := os.ReadFile(first.Path)
	require.NoError(t, err)
	assert.Equal(t, "one", string(data))
}

func TestPathRejectsTraversal(t *testing.T) {
	dir, err := NewDir(t.TempDir())
	require.NoError(t, err)

	for _, name := range []string{"", ".", "..", "../x.png", "a/b.png", `a\b.png`} {
		_, err := dir.Path(name)
		assert.ErrorIs(t, err, ErrInvalidName, "name %q", name)
	}
	_, err = dir.Open("missing.png")
	assert.ErrorIs(t, err, os.ErrNotExist)
}
