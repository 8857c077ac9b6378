package domain

import (
	"slices"
	"sort"
)

// minimize removes columns from the superkey s while it stays a superkey.
// A column kept once stays needed: superkeys are closed under supersets.
func (t *Table) minimize(s attrSet) attrSet {
	for _, i := range s.members() {
		if t.isSuperkey(s.without(i)) {
			s = s.without(i)
		}
	}
	return s
}

// discoverKeys enumerates all candidate keys (Lucchesi–Osborn). Starting from
// one key, every dependency X → Y turns a known key K into the superkey
// X ∪ (K − Y); when that superkey contains no known key it is minimized into
// a new one. The work is polynomial in the number of keys found.
//
// A table that declares neither keys nor dependencies has no candidate key.
func (t *Table) discoverKeys() []attrSet {
	if len(t.declaredKeys) == 0 && len(t.declared) == 0 {
		return nil
	}

	keys := []attrSet{t.minimize(t.all)}
	for i := 0; i < len(keys); i++ {
		k := keys[i]
		for _, f := range t.effective {
			s := f.lhs | (k &^ f.rhs)
			if containsKey(keys, s) {
				continue
			}
			keys = append(keys, t.minimize(s))
		}
	}

	sort.Slice(keys, func(a, b int) bool { return keys[a].less(keys[b]) })
	return slices.Compact(keys)
}

// containsKey reports whether s is a superset of some key in keys.
func containsKey(keys []attrSet, s attrSet) bool {
	for _, k := range keys {
		if k.subsetOf(s) {
			return true
		}
	}
	return false
}

// inSomeKey reports whether s lies entirely within a single candidate key.
func (t *Table) inSomeKey(s attrSet) bool {
	for _, k := range t.keys {
		if s.subsetOf(k) {
			return true
		}
	}
	return false
}
