package storage

import (
	"path/filepath"
	"regexp"
	"strings"
)

var lastSegment = regexp.MustCompile(`(?i)/([^/]+)\.[a-z]+$`)

// PublicID derives the remote public id from an object URL: the last path
// segment without its extension, prefixed with folder. ok is false when url
// does not have that shape.
func PublicID(url, folder string) (id string, ok bool) {
	m := lastSegment.FindStringSubmatch(url)
	if m == nil {
		return "", false
	}
	return folder + "/" + m[1], true
}

// objectKey returns the key an uploaded file is stored under and its public id.
func objectKey(localPath, folder string) (key, publicID string) {
	base := filepath.Base(localPath)
	ext := strings.ToLower(filepath.Ext(base))
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	publicID = folder + "/" + stem
	return publicID + ext, publicID
}

// hasPublicID reports whether key is publicID plus one extension, so "a.png"
// matches "a" but "a.b.png" does not.
func hasPublicID(key, publicID string) bool {
	rest, ok := strings.CutPrefix(key, publicID+".")
	return ok && rest != "" && !strings.ContainsAny(rest, "./")
}
