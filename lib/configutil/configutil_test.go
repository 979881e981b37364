package configutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type testConfig struct {
	Username string `json:"username"`
	Password string `json:"password"`
	StateDir string `json:"state_dir"`
}

func TestReadConfigMergesLocalOverride(t *testing.T) {
	dir := t.TempDir()

	err := os.WriteFile(
		filepath.Join(dir, "nauta.json5"),
		[]byte(`{username: "user@nauta.com.cu", state_dir: "/var/lib/nauta"}`),
		0o644,
	)
	require.NoError(t, err)
	err = os.WriteFile(
		filepath.Join(dir, "nauta.local.json5"),
		[]byte(`{password: "hunter2", state_dir: "/tmp/nauta"}`),
		0o644,
	)
	require.NoError(t, err)

	config, err := ReadConfig[testConfig](filepath.Join(dir, "nauta.json5"))
	require.NoError(t, err)
	require.Equal(t, testConfig{
		Username: "user@nauta.com.cu",
		Password: "hunter2",
		StateDir: "/tmp/nauta",
	}, config)
}

func TestReadConfigLocalOnly(t *testing.T) {
	dir := t.TempDir()

	err := os.WriteFile(
		filepath.Join(dir, "nauta.local.json5"),
		[]byte(`{username: "user@nauta.com.cu"}`),
		0o644,
	)
	require.NoError(t, err)

	config, err := ReadConfig[testConfig](filepath.Join(dir, "nauta.json5"))
	require.NoError(t, err)
	require.Equal(t, "user@nauta.com.cu", config.Username)
}

func TestReadConfigMissing(t *testing.T) {
	_, err := ReadConfig[testConfig](filepath.Join(t.TempDir(), "nauta.json5"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestReadRecursively(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	err := os.WriteFile(
		filepath.Join(root, "nauta.json5"),
		[]byte(`{username: "user@nauta.com.cu"}`),
		0o644,
	)
	require.NoError(t, err)

	cwd, err := os.Getwd()
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, os.Chdir(cwd))
	})
	require.NoError(t, os.Chdir(nested))

	config, err := ReadRecursively[testConfig]("nauta.json5")
	require.NoError(t, err)
	require.Equal(t, "user@nauta.com.cu", config.Username)

	_, err = ReadRecursively[testConfig]("does-not-exist.json5")
	require.ErrorIs(t, err, os.ErrNotExist)
}
