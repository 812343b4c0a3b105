// SPDX-License-Identifier: MPL-2.0

package shell

import (
	"maps"

	"mvdan.cc/sh/v3/expand"
)

// maxNameRefDepth bounds nameref chains such as `declare -n a=b; declare -n b=a`.
const maxNameRefDepth = 100

// Unwrap converts an interpreter variable to a plain Go value:
//
//	string                for scalar variables
//	[]string              for indexed arrays
//	map[string]string     for associative arrays
//	nil                   for unset variables
//
// Name references are followed through env. Slices and maps are non-nil copies.
func Unwrap(env expand.Environ, v expand.Variable) any {
	for range maxNameRefDepth {
		if !v.Set {
			return nil
		}
		switch v.Kind {
		case expand.String:
			return v.Str
		case expand.Indexed:
			return append([]string{}, v.List...)
		case expand.Associative:
			m := make(map[string]string, len(v.Map))
			maps.Copy(m, v.Map)
			return m
		case expand.NameRef:
			v = env.Get(v.Str)
		default:
			return nil
		}
	}
	return nil
}
