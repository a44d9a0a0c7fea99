package cmd

import (
	"fmt"
	"strings"
)

// parseReplacements turns repeated "-d var=val" flags into the
// {var: val} map StartSession/StartStep expect as replacements.
func parseReplacements(pairs []string) (map[string]string, error) {
	out := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, val, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("invalid -d value %q, expected var=val", pair)
		}
		out[key] = val
	}
	return out, nil
}
