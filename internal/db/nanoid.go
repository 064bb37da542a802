package db

import "github.com/hazyhaar/pkg/idgen"

// NewID returns a 12-character base-36 identifier with the given prefix,
// e.g. "aud_k3x9w0m2q7za".
func NewID(prefix string) string {
	if prefix == "" {
		return idgen.New()
	}
	return prefix + "_" + idgen.New()
}
