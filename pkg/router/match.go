package router

import "strings"

// matches reports whether this entry matches the request. method must
// already be upper case.
func (e *entry) matches(method, path, host string) bool {
	if e.methods != nil {
		if _, ok := e.methods[method]; !ok {
			return false
		}
	}

	if e.route.Host != "" {
		if host == "" || !matchPattern(e.route.Host, host) {
			return false
		}
	}

	return matchPattern(e.route.Path, path)
}

// matchPattern reports whether value matches pattern. Three pattern
// forms are supported:
//
//   - exact: the pattern equals the value
//   - prefix wildcard: a trailing "/*" matches any value beginning with
//     the part before it ("/static/*" matches "/static/css/app.css")
//   - parameters: segments starting with ':' match any single segment
//     ("/users/:id" matches "/users/42" but not "/users/42/posts")
func matchPattern(pattern, value string) bool {
	if pattern == value {
		return true
	}

	if strings.HasSuffix(pattern, "/*") {
		return strings.HasPrefix(value, pattern[:len(pattern)-2])
	}

	if strings.Contains(pattern, ":") {
		patternParts := strings.Split(pattern, "/")
		valueParts := strings.Split(value, "/")
		if len(patternParts) != len(valueParts) {
			return false
		}
		for i, part := range patternParts {
			if !strings.HasPrefix(part, ":") && part != valueParts[i] {
				return false
			}
		}
		return true
	}

	return false
}
