package cache

import (
	"fmt"
	"time"
)

const (
	IndexPagePrefix   = "page:index:"
	GroupChoicesKey   = "groups:choices"
	RevokedTokenKeyFn = "revoked:%s"
)

const (
	// IndexPageTTL is how long a rendered index page is served from cache.
	IndexPageTTL    = 20 * time.Second
	GroupChoicesTTL = 10 * time.Minute
)

// IndexPageKey identifies one rendering of the index page. The viewer is part
// of the key because the navigation bar differs for signed-in users.
func IndexPageKey(format, uri string, viewerID uint) string {
	return fmt.Sprintf("%s%s:u%d:%s", IndexPagePrefix, format, viewerID, uri)
}

// RevokedTokenKey marks a logged-out token id.
func RevokedTokenKey(jti string) string {
	return fmt.Sprintf(RevokedTokenKeyFn, jti)
}
