package domain

import (
	"crypto/sha256"
	"fmt"
)

// MaskType is how a sensitive column is shown in report examples.
type MaskType string

const (
	MaskRedact  MaskType = "redact"
	MaskHash    MaskType = "hash"
	MaskPartial MaskType = "partial"
	MaskNull    MaskType = "null"
)

// Valid reports whether m is a known mask. The zero value means no mask.
func (m MaskType) Valid() bool {
	switch m {
	case MaskRedact, MaskHash, MaskPartial, MaskNull, "":
		return true
	}
	return false
}

// Masks maps table name to column name to mask.
type Masks map[string]map[string]MaskType

// ApplyMask transforms one example value. Hashing is deterministic, so two
// example rows that agree on a hashed column still visibly agree.
func ApplyMask(value any, m MaskType) any {
	if value == nil {
		return nil
	}

	switch m {
	case MaskRedact:
		return "***"
	case MaskHash:
		h := sha256.Sum256([]byte(fmt.Sprintf("%v", value)))
		return fmt.Sprintf("sha256:%x", h[:6])
	case MaskPartial:
		return maskPartial(value)
	case MaskNull:
		return nil
	default:
		return value
	}
}

// maskPartial keeps the last 4 runes.
func maskPartial(value any) string {
	runes := []rune(fmt.Sprintf("%v", value))
	if len(runes) <= 4 {
		return "***" + string(runes)
	}
	for i := range runes[:len(runes)-4] {
		runes[i] = '*'
	}
	return string(runes)
}

// MaskExamples masks the sample values shown in violation examples. It runs
// after the checks, so masking never changes which rows count as evidence.
func (r *Report) MaskExamples(masks Masks) {
	if len(masks) == 0 {
		return
	}
	for ti := range r.Tables {
		cols := masks[r.Tables[ti].Table]
		if len(cols) == 0 {
			continue
		}
		for _, v := range r.Tables[ti].Violations {
			if v.Example == nil {
				continue
			}
			for _, row := range v.Example.Rows {
				for col, m := range cols {
					if val, ok := row.Values[col]; ok {
						row.Values[col] = ApplyMask(val, m)
					}
				}
			}
		}
	}
}
