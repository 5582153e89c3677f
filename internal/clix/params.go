package clix

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
)

type PaginationParams struct {
	Limit  int
	Offset int
}

// ParsePagination reads the --limit and --offset flags. A non-positive limit
// falls back to 20.
func ParsePagination(flags *pflag.FlagSet) (PaginationParams, error) {
	limit, _ := flags.GetInt("limit")
	offset, _ := flags.GetInt("offset")
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		return PaginationParams{}, fmt.Errorf("offset must be non-negative, got %d", offset)
	}
	return PaginationParams{Limit: limit, Offset: offset}, nil
}

// ParseList reads a comma-separated string flag, or a repeated string-slice
// flag, into a trimmed list without empty entries.
func ParseList(flags *pflag.FlagSet, name string) ([]string, error) {
	f := flags.Lookup(name)
	if f == nil {
		return nil, fmt.Errorf("unknown flag --%s", name)
	}

	var raw []string
	if f.Value.Type() == "stringSlice" {
		vals, err := flags.GetStringSlice(name)
		if err != nil {
			return nil, err
		}
		raw = vals
	} else {
		raw = strings.Split(f.Value.String(), ",")
	}

	// Trim space and filter out empty strings in one pass
	items := []string{}
	for _, t := range raw {
		if trimmed := strings.TrimSpace(t); trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items, nil
}
