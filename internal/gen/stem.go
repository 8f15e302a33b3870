package gen

import "strconv"

// newStem creates a name allocator that derives fresh identifiers from stem.
// A nil namespace is treated as free, meaning all names are available.
func newStem(stem string, namespace map[string]struct{}) *stemAlloc {
	return &stemAlloc{
		taken: namespace,
		stem:  stem,
		last:  0,
	}
}

type stemAlloc struct {
	taken map[string]struct{}
	stem  string
	last  int
}

// next returns the first unused name in the stem1, stem2, ... sequence and
// marks it taken.
func (s *stemAlloc) next() string {
	if s.taken == nil {
		s.taken = make(map[string]struct{})
	}

	for {
		s.last++
		name := s.stem + strconv.Itoa(s.last)

		if _, ok := s.taken[name]; !ok {
			s.taken[name] = struct{}{}
			return name
		}
	}
}
