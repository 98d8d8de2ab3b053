package lint

import (
	"regexp"
	"strings"
)

var (
	slugInvalid  = regexp.MustCompile(`[^a-z0-9 _-]`)
	slugSpaces   = regexp.MustCompile(` +`)
	slugHyphens  = regexp.MustCompile(`-+`)
	slugSafeOnly = regexp.MustCompile(`^[a-z0-9_-]+$`)
)

// Slugify converts heading text into its anchor slug, GitHub style:
// lowercase, punctuation stripped, spaces collapsed to hyphens.
func Slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = slugInvalid.ReplaceAllString(s, "")
	s = slugSpaces.ReplaceAllString(s, "-")
	s = slugHyphens.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// IsSlug reports whether s is already a safe anchor identifier.
func IsSlug(s string) bool {
	return s != "" && slugSafeOnly.MatchString(s)
}
