package kd

import (
	"fmt"
	"strings"

	"github.com/viant/sqlite-kd/geom"
)

const (
	indexAuto   = "auto"
	indexKDTree = "kdtree"
	indexBrute  = "brute"

	defaultIndexKind = indexAuto
	// autoKDTreeMinPoints is the dataset size from which auto picks the k-d tree.
	autoKDTreeMinPoints = 64
)

type tableOptions struct {
	kind   string
	domain geom.Rect
}

// parseTableOptions reads key=value arguments from USING kd(...).
// Values may be quoted with single or double quotes; SQLite splits
// unquoted arguments at commas, so domain must be quoted.
func parseTableOptions(args []string) (tableOptions, error) {
	opts := tableOptions{kind: defaultIndexKind, domain: geom.UnitSquare}
	for _, raw := range args {
		a := strings.TrimSpace(raw)
		if a == "" {
			continue
		}
		parts := strings.SplitN(a, "=", 2)
		if len(parts) != 2 {
			return opts, fmt.Errorf("kd: invalid table argument %q; want key=value", a)
		}
		key := strings.ToLower(strings.TrimSpace(parts[0]))
		val := unquote(strings.TrimSpace(parts[1]))
		switch key {
		case "index":
			switch kind := strings.ToLower(val); kind {
			case indexAuto, indexKDTree, indexBrute:
				opts.kind = kind
			case "brute_force", "bruteforce":
				opts.kind = indexBrute
			default:
				return opts, fmt.Errorf("kd: unsupported index %q", val)
			}
		case "domain":
			r, err := geom.ParseRect(val)
			if err != nil {
				return opts, fmt.Errorf("kd: invalid domain %q: %w", val, err)
			}
			opts.domain = r
		default:
			return opts, fmt.Errorf("kd: unknown table argument %q", key)
		}
	}
	return opts, nil
}

func unquote(s string) string {
	if len(s) >= 2 {
		if (s[0] == '\'' && s[len(s)-1] == '\'') || (s[0] == '"' && s[len(s)-1] == '"') {
			return s[1 : len(s)-1]
		}
	}
	return s
}

// resolveIndexKind picks the concrete index for a dataset of n points.
func resolveIndexKind(kind string, n int) string {
	switch kind {
	case indexKDTree, indexBrute:
		return kind
	}
	if n >= autoKDTreeMinPoints {
		return indexKDTree
	}
	return indexBrute
}
