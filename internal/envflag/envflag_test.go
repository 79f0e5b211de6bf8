package envflag

import (
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFlags() (*flag.FlagSet, *string, *int) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	src := fs.String("source", "0", "")
	fps := fs.Int("out-fps", 30, "")
	return fs, src, fps
}

func TestName(t *testing.T) {
	assert.Equal(t, "LK_OUT_FPS", Name("LK", "out-fps"))
}

func TestLoad_EnvOverridesDefaults(t *testing.T) {
	t.Setenv("LK_SOURCE", "road.mp4")
	fs, src, fps := newFlags()

	require.NoError(t, Load(fs, "LK", ""))
	assert.Equal(t, "road.mp4", *src)
	assert.Equal(t, 30, *fps)

	// Command line still wins.
	require.NoError(t, fs.Parse([]string{"-source", "cam.avi"}))
	assert.Equal(t, "cam.avi", *src)
}

func TestLoad_EnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("LK_ENVFILE_OUT_FPS=15\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("LK_ENVFILE_OUT_FPS") })

	fs, _, fps := newFlags()
	require.NoError(t, Load(fs, "LK_ENVFILE", path))
	assert.Equal(t, 15, *fps)
}

func TestLoad_MissingEnvFileIsIgnored(t *testing.T) {
	fs, _, _ := newFlags()
	assert.NoError(t, Load(fs, "LK_MISSING", filepath.Join(t.TempDir(), "nope.env")))
}

func TestLoad_BadValue(t *testing.T) {
	t.Setenv("LK_BAD_OUT_FPS", "fast")
	fs, _, _ := newFlags()
	assert.Error(t, Load(fs, "LK_BAD", ""))
}
