package domain

import "math/bits"

// MaxColumns is the widest table the analyzer accepts.
const MaxColumns = 64

// attrSet is a set of column positions within one table.
type attrSet uint64

func fullSet(n int) attrSet {
	if n >= MaxColumns {
		return ^attrSet(0)
	}
	return attrSet(1)<<uint(n) - 1
}

func (s attrSet) has(i int) bool { return s&(1<<uint(i)) != 0 }

func (s attrSet) with(i int) attrSet { return s | 1<<uint(i) }

func (s attrSet) without(i int) attrSet { return s &^ (1 << uint(i)) }

func (s attrSet) subsetOf(o attrSet) bool { return s&^o == 0 }

func (s attrSet) len() int { return bits.OnesCount64(uint64(s)) }

// members returns the positions in s in ascending order.
func (s attrSet) members() []int {
	out := make([]int, 0, s.len())
	for s != 0 {
		i := bits.TrailingZeros64(uint64(s))
		out = append(out, i)
		s = s.without(i)
	}
	return out
}

// less orders sets by size, then by their lowest differing position.
func (s attrSet) less(o attrSet) bool {
	if s.len() != o.len() {
		return s.len() < o.len()
	}
	diff := s ^ o
	if diff == 0 {
		return false
	}
	low := bits.TrailingZeros64(uint64(diff))
	return s.has(low)
}
