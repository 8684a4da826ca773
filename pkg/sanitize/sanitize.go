// Package sanitize neutralizes markup and script-injection sequences in
// user-supplied text before it is relayed or stored.
package sanitize

import "github.com/microcosm-cc/bluemonday"

var policy = bluemonday.StrictPolicy()

// Clean strips all HTML elements and attributes from s. Plain text passes
// through unchanged apart from entity escaping of markup characters.
func Clean(s string) string {
	return policy.Sanitize(s)
}
