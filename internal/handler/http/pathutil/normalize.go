// Package pathutil maps request paths to a bounded set of metric labels.
package pathutil

import "strings"

// OtherPath labels every path that is not a known route.
const OtherPath = "/other"

// Normalizer folds request paths into known route labels.
// A path served under the root prefix gets the same label as the bare path.
type Normalizer struct {
	rootPath string
	routes   map[string]struct{}
}

// NewNormalizer creates a normalizer for routes served both bare and under rootPath.
func NewNormalizer(rootPath string, routes ...string) *Normalizer {
	n := &Normalizer{
		rootPath: strings.TrimSuffix(rootPath, "/"),
		routes:   make(map[string]struct{}, len(routes)),
	}
	for _, r := range routes {
		n.routes[r] = struct{}{}
	}
	return n
}

// Normalize strips the query, a trailing slash and the root prefix, then
// returns the route or OtherPath. Paths under /swagger/ share one label.
func (n *Normalizer) Normalize(path string) string {
	if idx := strings.IndexByte(path, '?'); idx != -1 {
		path = path[:idx]
	}
	if len(path) > 1 && path[len(path)-1] == '/' {
		path = path[:len(path)-1]
	}
	if n.rootPath != "" {
		if rest, ok := strings.CutPrefix(path, n.rootPath); ok && (rest == "" || rest[0] == '/') {
			path = rest
			if path == "" {
				path = "/"
			}
		}
	}

	if _, ok := n.routes[path]; ok {
		return path
	}
	if path == "/swagger" || strings.HasPrefix(path, "/swagger/") {
		return "/swagger"
	}
	return OtherPath
}

// Cardinality is the maximum number of distinct labels Normalize returns.
func (n *Normalizer) Cardinality() int {
	return len(n.routes) + 2
}
