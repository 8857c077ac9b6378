package domain

// fd is a functional dependency over column positions.
type fd struct {
	lhs, rhs attrSet
}

// closureOf grows x with the dependent of every dependency whose determinant
// it already contains. Each productive pass adds at least one column, so the
// loop runs at most once per column plus one final pass.
func closureOf(x attrSet, fds []fd) attrSet {
	for {
		changed := false
		for _, f := range fds {
			if f.lhs.subsetOf(x) && !f.rhs.subsetOf(x) {
				x |= f.rhs
				changed = true
			}
		}
		if !changed {
			return x
		}
	}
}

func (t *Table) closure(x attrSet) attrSet {
	return closureOf(x, t.effective)
}

func (t *Table) isSuperkey(x attrSet) bool {
	return t.closure(x) == t.all
}

// Closure returns every column determined by columns, in table order.
// Declared candidate keys count as dependencies on the whole table.
func (t *Table) Closure(columns []string) ([]string, error) {
	set, err := t.resolve(columns)
	if err != nil {
		return nil, err
	}
	return t.names(t.closure(set)), nil
}

// IsSuperkey reports whether columns determine every column of the table.
func (t *Table) IsSuperkey(columns []string) (bool, error) {
	set, err := t.resolve(columns)
	if err != nil {
		return false, err
	}
	return t.isSuperkey(set), nil
}
