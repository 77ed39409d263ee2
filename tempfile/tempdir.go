package tempfile

import (
	"os"
	"path/filepath"
	"runtime"
	"sync"
)

// tempDirName is the subdirectory used when falling back to the home or working directory
const tempDirName = ".linesort-tmp"

var (
	defaultDir     string
	defaultDirOnce sync.Once
)

// DefaultDir returns the directory chunk files go to when the caller does not pick one.
// Disk-backed locations are preferred over the OS temp dir, which is often tmpfs and
// would defeat the purpose of spilling chunks out of memory.
// The choice is computed once and cached.
func DefaultDir() string {
	defaultDirOnce.Do(func() {
		defaultDir = findBestDirectory(buildCandidateList())
	})
	return defaultDir
}

// findBestDirectory returns the first usable candidate, or the OS temp dir
func findBestDirectory(candidates []string) string {
	for _, candidate := range candidates {
		if isDirectoryUsable(candidate) {
			return candidate
		}
	}
	return os.TempDir()
}

// buildCandidateList returns temp directory candidates in priority order
func buildCandidateList() []string {
	var candidates []string

	switch runtime.GOOS {
	case "linux", "freebsd", "openbsd", "netbsd", "dragonfly", "solaris":
		// /var/tmp is traditionally disk-backed, unlike /tmp
		candidates = append(candidates, "/var/tmp")
	case "darwin":
		candidates = append(candidates, "/var/tmp", "/private/var/tmp")
	}

	candidates = append(candidates, os.TempDir())

	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, tempDirName))
	}
	if wd, err := os.Getwd(); err == nil {
		candidates = append(candidates, filepath.Join(wd, tempDirName))
	}
	return candidates
}

// isDirectoryUsable reports whether dir is an existing directory or does not exist yet
// and could be created. Writability is only discovered when the first chunk is created.
func isDirectoryUsable(dir string) bool {
	stat, err := os.Stat(dir)
	if err != nil {
		return os.IsNotExist(err)
	}
	return stat.IsDir()
}
