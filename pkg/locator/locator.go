// Package locator normalizes and splits resource locators such as
// "/games/42/messages".
//
// Locators are compared byte for byte by the subscription registry, so
// anything typed by a user or read from configuration is canonicalized
// before it reaches a model:
//
//	loc, err := locator.Canonicalize("games//42/")
//	// loc == "/games/42"
package locator

import (
	"errors"
	"net/url"
	"strings"
)

// Locator errors.
var (
	ErrEmpty                 = errors.New("locator: empty")
	ErrAbsoluteURL           = errors.New("locator: absolute URL")
	ErrBackslash             = errors.New("locator: contains backslash")
	ErrNullByte              = errors.New("locator: contains null byte")
	ErrInvalidPercentEscape  = errors.New("locator: invalid percent escape")
	ErrEscapesRoot           = errors.New("locator: escapes root via ..")
	ErrEncodedSlashInSegment = errors.New("locator: encoded slash in segment")
)

// Canonicalize returns the canonical form of loc: a leading slash, no
// empty or "." segments, ".." resolved, and no trailing slash. Query
// strings are not part of a locator and are dropped.
func Canonicalize(loc string) (string, error) {
	path, _, _ := strings.Cut(loc, "?")
	if path == "" {
		return "", ErrEmpty
	}
	if strings.Contains(path, "://") || strings.HasPrefix(path, "//") {
		return "", ErrAbsoluteURL
	}
	if strings.Contains(path, "\\") {
		return "", ErrBackslash
	}
	if strings.Contains(path, "\x00") || strings.Contains(strings.ToUpper(path), "%00") {
		return "", ErrNullByte
	}
	if strings.Contains(path, "%") {
		if err := validatePercentEscapes(path); err != nil {
			return "", err
		}
	}

	var out []string
	for _, seg := range strings.Split(path, "/") {
		switch seg {
		case "", ".":
		case "..":
			if len(out) == 0 {
				return "", ErrEscapesRoot
			}
			out = out[:len(out)-1]
		default:
			out = append(out, seg)
		}
	}
	if len(out) == 0 {
		return "", ErrEmpty
	}
	return "/" + strings.Join(out, "/"), nil
}

// Segments canonicalizes loc and returns its decoded segments. A segment
// that decodes to a string containing "/" is rejected.
func Segments(loc string) ([]string, error) {
	canon, err := Canonicalize(loc)
	if err != nil {
		return nil, err
	}

	raw := strings.Split(strings.TrimPrefix(canon, "/"), "/")
	out := make([]string, 0, len(raw))
	for _, seg := range raw {
		decoded, err := url.PathUnescape(seg)
		if err != nil {
			return nil, ErrInvalidPercentEscape
		}
		if strings.Contains(decoded, "/") {
			return nil, ErrEncodedSlashInSegment
		}
		out = append(out, decoded)
	}
	return out, nil
}

// Join builds a locator from raw segments, escaping each one.
func Join(segments ...string) string {
	escaped := make([]string, len(segments))
	for i, seg := range segments {
		escaped[i] = url.PathEscape(seg)
	}
	return "/" + strings.Join(escaped, "/")
}

// validatePercentEscapes checks that every '%' starts a %XX hex escape.
func validatePercentEscapes(path string) error {
	for i := 0; i < len(path); i++ {
		if path[i] != '%' {
			continue
		}
		if i+2 >= len(path) || !isHexDigit(path[i+1]) || !isHexDigit(path[i+2]) {
			return ErrInvalidPercentEscape
		}
		i += 2
	}
	return nil
}

func isHexDigit(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}
