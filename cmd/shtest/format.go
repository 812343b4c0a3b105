// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"slices"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"mvdan.cc/sh/v3/syntax"
)

// formatValue prints a variable value the way declare -p writes it,
// without the declaration: strings as is, arrays as (a b) and associative
// arrays as ([k]=v) with sorted keys. Unset values print as empty.
func formatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case []string:
		quoted := make([]string, len(val))
		for i, s := range val {
			quoted[i] = quote(s)
		}
		return "(" + strings.Join(quoted, " ") + ")"
	case map[string]string:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		pairs := make([]string, len(keys))
		for i, k := range keys {
			pairs[i] = "[" + quote(k) + "]=" + quote(val[k])
		}
		return "(" + strings.Join(pairs, " ") + ")"
	default:
		return fmt.Sprint(val)
	}
}

func quote(s string) string {
	q, err := syntax.Quote(s, syntax.LangBash)
	if err != nil {
		return fmt.Sprintf("%q", s)
	}
	return q
}

// nestKeys turns flat dotted keys into nested maps for TOML output.
// A key that is both a value and a table keeps the value.
func nestKeys(flat map[string]any) map[string]any {
	root := make(map[string]any)
	keys := make([]string, 0, len(flat))
	for k := range flat {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	for _, key := range keys {
		parts := strings.Split(key, ".")
		node := root
		ok := true
		for _, part := range parts[:len(parts)-1] {
			next, exists := node[part]
			if !exists {
				child := make(map[string]any)
				node[part] = child
				node = child
				continue
			}
			child, isMap := next.(map[string]any)
			if !isMap {
				ok = false
				break
			}
			node = child
		}
		if ok {
			node[parts[len(parts)-1]] = flat[key]
		}
	}
	return root
}

func marshalTOML(flat map[string]any) (string, error) {
	out, err := toml.Marshal(nestKeys(flat))
	if err != nil {
		return "", fmt.Errorf("failed to encode settings as TOML: %w", err)
	}
	return string(out), nil
}
