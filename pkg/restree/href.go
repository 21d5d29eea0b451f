package restree

import "strings"

// ParseHref splits an href into its non-empty path segments.
// An empty href has no segments.
func ParseHref(href string) []string {
	if href == "" {
		return nil
	}
	parts := strings.Split(href, "/")
	segs := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			segs = append(segs, p)
		}
	}
	return segs
}

// Key returns the tree key for the first n segments: "/" + segs[:n] + "/".
func Key(segs []string, n int) string {
	if n > len(segs) {
		n = len(segs)
	}
	if n <= 0 {
		return "/"
	}
	return "/" + strings.Join(segs[:n], "/") + "/"
}

// KeyOf returns the tree key of an href, so "/a" and "/a/" share a key.
func KeyOf(href string) string {
	segs := ParseHref(href)
	return Key(segs, len(segs))
}
