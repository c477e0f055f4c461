// Package extract turns raw chat text into typed slot values: integers,
// cleaned free-text fragments and time expressions.
package extract

import (
	"regexp"
	"strconv"
)

var digitsRe = regexp.MustCompile(`\d+`)

// Number returns the first run of decimal digits in text.
func Number(text string) (int, bool) {
	m := digitsRe.FindString(text)
	if m == "" {
		return 0, false
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return 0, false
	}
	return n, true
}

// MaxRangeSpan caps how many indices one range ("2-6") expands to.
const MaxRangeSpan = 50

var (
	numberListRe = regexp.MustCompile(`\d+(?:\s*(?:,|、|&|と|-|–|\band\b|\bto\b|\bor\b)\s*\d+)+`)
	rangeRe      = regexp.MustCompile(`^(\d+)\s*(?:-|–|\bto\b)\s*(\d+)$`)
	listSepRe    = regexp.MustCompile(`\s*(?:,|、|&|と|\band\b|\bor\b)\s*`)
)

// Numbers returns every index named in the first list or range in text:
// "1, 3 and 5", "2-4", "1と3". A lone number yields a one-element list.
// Duplicates are dropped and order is kept. Ranges wider than MaxRangeSpan
// keep only their endpoints.
func Numbers(text string) ([]int, bool) {
	m := numberListRe.FindString(text)
	if m == "" {
		n, ok := Number(text)
		if !ok {
			return nil, false
		}
		return []int{n}, true
	}

	var out []int
	seen := map[int]bool{}
	add := func(n int) {
		if !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	for _, part := range listSepRe.Split(m, -1) {
		if r := rangeRe.FindStringSubmatch(part); r != nil {
			lo, err1 := strconv.Atoi(r[1])
			hi, err2 := strconv.Atoi(r[2])
			if err1 != nil || err2 != nil {
				continue
			}
			if lo > hi {
				lo, hi = hi, lo
			}
			if hi-lo >= MaxRangeSpan {
				add(lo)
				add(hi)
				continue
			}
			for n := lo; n <= hi; n++ {
				add(n)
			}
			continue
		}
		if n, err := strconv.Atoi(part); err == nil {
			add(n)
		}
	}
	return out, len(out) > 0
}
