// Package authz holds the role policy applied by the transport layer when a
// route restricts access by user type.
package authz

// Allowed reports whether any of the presented roles satisfies the required
// set. An empty required set allows everyone.
func Allowed(required, presented []string) bool {
	if len(required) == 0 {
		return true
	}
	have := make(map[string]struct{}, len(presented))
	for _, r := range presented {
		have[r] = struct{}{}
	}
	for _, r := range required {
		if _, ok := have[r]; ok {
			return true
		}
	}
	return false
}
