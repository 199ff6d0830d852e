package imagedir

import (
	"net/url"
	"path"
	"strings"
)

const (
	// Prefix marks files managed by this store; the pruner only ever
	// touches entries carrying it.
	Prefix = "DOWN-"

	// MaxFilenameLength caps the title segment of a filename, in runes.
	MaxFilenameLength = 30

	// stripSet is trimmed from both ends of a sanitized title.
	stripSet = " _.-()"

	// sidecarExt is the extension of the companion metadata file.
	sidecarExt = ".txt"
)

func validRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	case r == '-' || r == '_' || r == '.' || r == '(' || r == ')':
		return true
	}
	return false
}

// SafeFilename maps an arbitrary title to a filesystem-safe token: spaces
// become underscores, everything outside [A-Za-z0-9-_.()] is dropped, and
// leading/trailing strip-set runes are removed. May return "".
func SafeFilename(title string) string {
	var b strings.Builder
	for _, r := range strings.ReplaceAll(title, " ", "_") {
		if validRune(r) {
			b.WriteRune(r)
		}
	}
	return strings.Trim(b.String(), stripSet)
}

// truncateTitle shortens over-long titles to head...tail, computed on the
// raw title before sanitization.
func truncateTitle(title string) string {
	runes := []rune(title)
	if len(runes) <= MaxFilenameLength {
		return title
	}
	half := MaxFilenameLength / 2
	return string(runes[:half]) + "..." + string(runes[len(runes)-half:])
}

var imageExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

// SuffixFor derives the artifact extension from the source URL, falling
// back to ".jpg" when the URL carries no recognizable image extension.
func SuffixFor(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ".jpg"
	}
	ext := strings.ToLower(path.Ext(u.Path))
	if imageExts[ext] {
		return ext
	}
	return ".jpg"
}
