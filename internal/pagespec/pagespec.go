package pagespec

import (
	"fmt"
	"strconv"
	"strings"
)

// Parse expands a page selection spec into an ordered, deduplicated list of
// 1-based page numbers validated against total.
//
// Accepted forms: "" or "all" (every page), "3", "1,3-5", open ranges
// "7-" (to last page) and "-3" (from first page). Whitespace around
// tokens is ignored. Order of appearance is preserved.
func Parse(spec string, total int) ([]int, error) {
	if total <= 0 {
		return nil, fmt.Errorf("invalid page total %d", total)
	}

	spec = strings.TrimSpace(spec)
	if spec == "" || strings.EqualFold(spec, "all") {
		pages := make([]int, total)
		for i := range pages {
			pages[i] = i + 1
		}
		return pages, nil
	}

	var pages []int
	seen := make(map[int]bool)
	add := func(p int) error {
		if p < 1 || p > total {
			return fmt.Errorf("page %d out of range 1-%d", p, total)
		}
		if !seen[p] {
			seen[p] = true
			pages = append(pages, p)
		}
		return nil
	}

	for _, tok := range strings.Split(spec, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		if !strings.Contains(tok, "-") {
			p, err := strconv.Atoi(tok)
			if err != nil {
				return nil, fmt.Errorf("invalid page %q", tok)
			}
			if err := add(p); err != nil {
				return nil, err
			}
			continue
		}

		parts := strings.SplitN(tok, "-", 2)
		lo, hi := 1, total
		var err error
		if s := strings.TrimSpace(parts[0]); s != "" {
			if lo, err = strconv.Atoi(s); err != nil {
				return nil, fmt.Errorf("invalid range %q", tok)
			}
		}
		if s := strings.TrimSpace(parts[1]); s != "" {
			if hi, err = strconv.Atoi(s); err != nil {
				return nil, fmt.Errorf("invalid range %q", tok)
			}
		}
		if lo > hi {
			return nil, fmt.Errorf("invalid range %q", tok)
		}
		for p := lo; p <= hi; p++ {
			if err := add(p); err != nil {
				return nil, err
			}
		}
	}

	if len(pages) == 0 {
		return nil, fmt.Errorf("spec %q selects no pages", spec)
	}
	return pages, nil
}
