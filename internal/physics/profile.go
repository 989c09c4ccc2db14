package physics

import (
	"fmt"
	"math"
	"sort"

	"github.com/san-kum/timemarch/internal/dynamo"
)

var profiles = map[string]func(n int, amp float64) dynamo.State{
	"constant": func(n int, amp float64) dynamo.State {
		s := make(dynamo.State, n)
		for i := range s {
			s[i] = amp
		}
		return s
	},
	"gaussian": func(n int, amp float64) dynamo.State {
		s := make(dynamo.State, n)
		for i := range s {
			x := cellCenter(i, n) - 0.5
			s[i] = amp * math.Exp(-x*x/(2*0.1*0.1))
		}
		return s
	},
	"sine": func(n int, amp float64) dynamo.State {
		s := make(dynamo.State, n)
		for i := range s {
			s[i] = amp * math.Sin(math.Pi*cellCenter(i, n))
		}
		return s
	},
	"step": func(n int, amp float64) dynamo.State {
		s := make(dynamo.State, n)
		for i := range s {
			if cellCenter(i, n) < 0.5 {
				s[i] = amp
			}
		}
		return s
	},
	"hat": func(n int, amp float64) dynamo.State {
		s, c := make(dynamo.State, n), n/2
		for i := 0; i < n; i++ {
			if c == 0 || c == n-1 {
				s[i] = amp
			} else if i <= c {
				s[i] = amp * float64(i) / float64(c)
			} else {
				s[i] = amp * float64(n-1-i) / float64(n-1-c)
			}
		}
		return s
	},
}

// cellCenter maps cell i of n onto (0, 1).
func cellCenter(i, n int) float64 {
	return (float64(i) + 0.5) / float64(n)
}

// Profile builds an initial condition of n interior cells on the unit
// interval.
func Profile(kind string, n int, amp float64) (dynamo.State, error) {
	if n < 1 {
		return nil, fmt.Errorf("%w: need at least one cell, got %d", dynamo.ErrDimensionMismatch, n)
	}
	fn, ok := profiles[kind]
	if !ok {
		return nil, fmt.Errorf("unknown profile: %s", kind)
	}
	return fn(n, amp), nil
}

func ListProfiles() []string {
	names := make([]string, 0, len(profiles))
	for name := range profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CellWidth is the spacing of n cells on the unit interval.
func CellWidth(n int) float64 {
	if n < 1 {
		return 1
	}
	return 1.0 / float64(n)
}
