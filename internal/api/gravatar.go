package api

import (
	"crypto/md5"
	"fmt"
	"strings"
)

// GravatarURL returns the avatar URL for an email address, identicon
// fallback, size in pixels.
func GravatarURL(email string, size int) string {
	digest := md5.Sum([]byte(strings.ToLower(strings.TrimSpace(email))))
	return fmt.Sprintf("https://www.gravatar.com/avatar/%x?d=identicon&s=%d", digest, size)
}
