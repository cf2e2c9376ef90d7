package settings

import (
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"

	"github.com/UBH-Fall-2024/FileSeekr/core"
)

// cloudCandidates lists sync folder locations relative to the home directory,
// in order of preference. Glob patterns are allowed.
var cloudCandidates = map[core.CloudService][]string{
	core.CloudDropbox: {
		"Dropbox",
		"Library/CloudStorage/Dropbox",
	},
	core.CloudGoogleDrive: {
		"Google Drive",
		"My Drive",
		"GoogleDrive",
		"Library/CloudStorage/GoogleDrive-*",
	},
	core.CloudOneDrive: {
		"OneDrive",
		"Library/CloudStorage/OneDrive-*",
	},
}

// Resolution is the set of directories a scan covers.
type Resolution struct {
	// Roots are absolute, cleaned and free of nesting: no root lies below another.
	Roots []string
	// MissingCloud lists enabled cloud services with no local sync folder.
	MissingCloud []core.CloudService
}

// ResolveRoots expands s into scan roots using the current user's home directory.
func ResolveRoots(s *core.Settings) Resolution {
	home, err := os.UserHomeDir()
	if err != nil {
		home = ""
	}
	return ResolveRootsFrom(s, home)
}

// ResolveRootsFrom expands s into scan roots relative to home.
func ResolveRootsFrom(s *core.Settings, home string) Resolution {
	var res Resolution
	roots := make([]string, 0, len(s.Paths)+len(s.CloudServices))
	for _, p := range s.Paths {
		roots = append(roots, ExpandHome(core.CleanSettingsPath(p), home))
	}

	for _, svc := range s.CloudServices {
		dir, ok := findCloudFolder(svc, home)
		if !ok {
			res.MissingCloud = append(res.MissingCloud, svc)
			continue
		}
		roots = append(roots, dir)
	}

	res.Roots = collapseNested(roots)
	return res
}

// ExpandHome replaces a leading "~" with home.
func ExpandHome(p, home string) string {
	if p == "~" {
		return home
	}
	if strings.HasPrefix(p, "~/") || (runtime.GOOS == "windows" && strings.HasPrefix(p, `~\`)) {
		return filepath.Join(home, p[2:])
	}
	return p
}

func findCloudFolder(svc core.CloudService, home string) (string, bool) {
	if home == "" {
		return "", false
	}
	for _, rel := range cloudCandidates[svc] {
		matches, err := filepath.Glob(filepath.Join(home, filepath.FromSlash(rel)))
		if err != nil {
			continue
		}
		slices.Sort(matches)
		for _, m := range matches {
			if info, err := os.Stat(m); err == nil && info.IsDir() {
				return filepath.Clean(m), true
			}
		}
	}
	return "", false
}

// collapseNested removes duplicates and roots contained in another root.
func collapseNested(roots []string) []string {
	slices.Sort(roots)
	roots = slices.Compact(roots)
	out := make([]string, 0, len(roots))
	for _, r := range roots {
		if slices.ContainsFunc(out, func(kept string) bool { return core.IsUnder(r, kept) }) {
			continue
		}
		out = append(out, r)
	}
	return out
}
