package filex

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"
)

func chdir(t *testing.T, dir string) func() {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	return func() { _ = os.Chdir(old) }
}

func TestEnsureSubdDir_CreatesDirectoryInCWD(t *testing.T) {
	tmp, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	defer chdir(t, tmp)()

	got, err := EnsureSubdDir("", "test-logs-2024-01-01T00-00-00")
	require.NoError(t, err)

	want := filepath.Join(tmp, "test-logs-2024-01-01T00-00-00")
	require.Equal(t, want, got)

	fi, err := os.Stat(want)
	require.NoError(t, err)
	require.True(t, fi.IsDir(), "should create a directory")

	if runtime.GOOS != "windows" {
		perm := fi.Mode().Perm()
		require.Equal(t, os.FileMode(0o700), perm&0o700)
	}
}

func TestEnsureSubdDir_ExplicitRoot(t *testing.T) {
	root := t.TempDir()

	got, err := EnsureSubdDir(root, "logs")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(root, "logs"), got)
}

func TestEnsureSubdDir_Idempotent(t *testing.T) {
	root := t.TempDir()

	first, err := EnsureSubdDir(root, "logs")
	require.NoError(t, err)

	second, err := EnsureSubdDir(root, "logs")
	require.NoError(t, err)

	require.Equal(t, first, second)
}

func TestEnsureSubdDir_FailsIfFileWithSameNameExists(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "logs"), []byte("x"), 0o660))

	_, err := EnsureSubdDir(root, "logs")
	require.Error(t, err, "should fail when a file exists with the same name")
}

func TestListFiles_SortedRelative(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "sub"), 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(root, "user-b"), []byte("b"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(root, "user-a"), []byte("a"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(root, "sub", "x"), []byte("x"), 0o600))

	files, err := ListFiles(root)
	require.NoError(t, err)
	require.Equal(t, []string{"sub/x", "user-a", "user-b"}, files)
}

func TestListFiles_MissingDir(t *testing.T) {
	_, err := ListFiles(filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
}
