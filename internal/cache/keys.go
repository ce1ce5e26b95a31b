package cache

import "fmt"

// CMSListKey is the cache key for a CMS content type listing.
func CMSListKey(contentType string) string {
	return fmt.Sprintf("cms:%s:all", contentType)
}

// CMSEntryKey is the cache key for a single CMS entry addressed by slug.
func CMSEntryKey(contentType, slug string) string {
	return fmt.Sprintf("cms:%s:%s", contentType, slug)
}
