package urlutil

import (
	"net/url"
	"path"
	"strings"
)

// JoinPath safely joins URL paths, handling trailing and leading slashes correctly
func JoinPath(base string, paths ...string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", err
	}

	allPaths := append([]string{u.Path}, paths...)
	u.Path = path.Join(allPaths...)

	if len(paths) > 0 && strings.HasSuffix(paths[len(paths)-1], "/") {
		u.Path += "/"
	}

	return u.String(), nil
}

// ValidScheme reports whether s is a syntactically valid URI scheme
// (RFC 3986 section 3.1).
func ValidScheme(s string) bool {
	if s == "" {
		return false
	}
	for i, c := range s {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		case i > 0 && (c >= '0' && c <= '9' || c == '+' || c == '-' || c == '.'):
		default:
			return false
		}
	}
	return true
}

// AppLink builds an application deep link of the form
// <scheme>://<target>?<query>. Query values are percent-encoded.
func AppLink(scheme, target string, query url.Values) string {
	link := scheme + "://" + strings.TrimLeft(target, "/")
	if encoded := query.Encode(); encoded != "" {
		link += "?" + encoded
	}
	return link
}
