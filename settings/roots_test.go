package settings

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/UBH-Fall-2024/FileSeekr/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandHome(t *testing.T) {
	assert.Equal(t, "/home/me", ExpandHome("~", "/home/me"))
	assert.Equal(t, filepath.Join("/home/me", "Documents"), ExpandHome("~/Documents", "/home/me"))
	assert.Equal(t, "/srv/data", ExpandHome("/srv/data", "/home/me"))
	assert.Equal(t, "~other/x", ExpandHome("~other/x", "/home/me"))
}

func TestResolveRootsFrom_CollapsesNested(t *testing.T) {
	s := &core.Settings{Paths: []string{"/a/b", "/a", "/a b", "/a/", "/c"}}

	res := ResolveRootsFrom(s, "/home/me")
	assert.Equal(t, []string{"/a", "/a b", "/c"}, res.Roots)
	assert.Empty(t, res.MissingCloud)
}

func TestResolveRootsFrom_Cloud(t *testing.T) {
	home := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(home, "Dropbox"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(home, "Library", "CloudStorage", "OneDrive-Personal"), 0o755))

	s := &core.Settings{
		Paths:         []string{"~/Documents"},
		CloudServices: []core.CloudService{core.CloudDropbox, core.CloudGoogleDrive, core.CloudOneDrive},
	}
	res := ResolveRootsFrom(s, home)

	assert.ElementsMatch(t, []string{
		filepath.Join(home, "Documents"),
		filepath.Join(home, "Dropbox"),
		filepath.Join(home, "Library", "CloudStorage", "OneDrive-Personal"),
	}, res.Roots)
	assert.Equal(t, []core.CloudService{core.CloudGoogleDrive}, res.MissingCloud)
}
