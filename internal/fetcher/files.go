package fetcher

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DefaultDir returns the default destination folder for downloads.
func DefaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "downloads")
	}
	return filepath.Join(home, "Downloads", "MediaDL")
}

// UniquePath returns a path in dir that does not collide with an
// existing file, appending " (1)", " (2)", ... before the extension.
// Probing is racy under concurrent writers to the same name; the
// scheduler serializing transfers is what makes this acceptable.
func UniquePath(dir, filename string) string {
	ext := filepath.Ext(filename)
	if ext == "" {
		ext = ".mp4"
		filename += ext
	}
	name := strings.TrimSuffix(filename, ext)

	attempt := filepath.Join(dir, filename)
	for counter := 1; ; counter++ {
		if _, err := os.Stat(attempt); os.IsNotExist(err) {
			return attempt
		}
		attempt = filepath.Join(dir, fmt.Sprintf("%s (%d)%s", name, counter, ext))
	}
}

// SanitizeFilename replaces characters that cannot appear in filenames.
func SanitizeFilename(name string) string {
	replacer := strings.NewReplacer(
		"/", "_",
		"\\", "_",
		":", "_",
		"*", "_",
		"?", "_",
		"\"", "_",
		"<", "_",
		">", "_",
		"|", "_",
	)
	return replacer.Replace(name)
}
