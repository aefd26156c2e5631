// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package coreset parses the --target-cores flag's comma-separated list of
// logical CPU IDs, the way perffile parses a CPU topology's CPUSet string.
package coreset

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// A Set is an ordered, deduplicated list of logical CPU IDs.
type Set []int

// Parse parses a comma-separated list of CPU IDs, optionally with "lo-hi"
// ranges, sorts it, and removes duplicates. It requires at least one CPU.
func Parse(str string) (Set, error) {
	var err error
	out := Set{}
	for _, r := range strings.Split(str, ",") {
		r = strings.TrimSpace(r)
		if r == "" {
			continue
		}
		var lo, hi int
		dash := strings.Index(r, "-")
		if dash == -1 {
			lo, err = strconv.Atoi(r)
			if err != nil {
				return nil, fmt.Errorf("coreset: invalid core id %q: %w", r, err)
			}
			hi = lo
		} else {
			lo, err = strconv.Atoi(r[:dash])
			if err != nil {
				return nil, fmt.Errorf("coreset: invalid core id %q: %w", r, err)
			}
			hi, err = strconv.Atoi(r[dash+1:])
			if err != nil {
				return nil, fmt.Errorf("coreset: invalid core id %q: %w", r, err)
			}
		}
		if lo > hi {
			return nil, fmt.Errorf("coreset: invalid range %q: low > high", r)
		}
		for cpu := lo; cpu <= hi; cpu++ {
			out = append(out, cpu)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("coreset: at least one target core is required")
	}
	sort.Ints(out)
	i, j := 0, 0
	for ; i < len(out); i++ {
		if j > 0 && out[i] == out[j-1] {
			continue
		}
		out[j] = out[i]
		j++
	}
	return out[:j], nil
}

// String formats the set back into comma-separated "lo-hi" ranges.
func (s Set) String() string {
	if len(s) == 0 {
		return ""
	}
	var b strings.Builder
	lo, hi := s[0], s[0]-1
	flush := func() {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		if lo == hi {
			fmt.Fprintf(&b, "%d", lo)
		} else {
			fmt.Fprintf(&b, "%d-%d", lo, hi)
		}
	}
	for _, cpu := range s {
		if cpu == hi+1 {
			hi = cpu
		} else {
			flush()
			lo, hi = cpu, cpu
		}
	}
	flush()
	return b.String()
}
