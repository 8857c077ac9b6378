package domain

import (
	"regexp"
	"strings"
	"unicode"
)

// tokenShape is the lexical class of one element of a suspected list.
type tokenShape int

const (
	shapeOther tokenShape = iota
	shapeInteger
	shapeDecimal
	shapeWord
	shapeIdentifier
	shapeEmail
	shapePhone
)

var (
	reInteger    = regexp.MustCompile(`^[+-]?\d+$`)
	reDecimal    = regexp.MustCompile(`^[+-]?\d*\.\d+$`)
	reWord       = regexp.MustCompile(`^\p{L}+$`)
	reIdentifier = regexp.MustCompile(`^[\p{L}\d_-]+$`)
	reEmail      = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	rePhone      = regexp.MustCompile(`^\+?[\d\s().-]+$`)
	reThousands  = regexp.MustCompile(`^[+-]?\d{1,3}(,\d{3})+(\.\d+)?$`)
)

func shapeOf(tok string) tokenShape {
	switch {
	case reEmail.MatchString(tok):
		return shapeEmail
	case reInteger.MatchString(tok):
		return shapeInteger
	case reDecimal.MatchString(tok):
		return shapeDecimal
	case rePhone.MatchString(tok) && countDigits(tok) >= 7:
		return shapePhone
	case reWord.MatchString(tok):
		return shapeWord
	case reIdentifier.MatchString(tok):
		return shapeIdentifier
	default:
		return shapeOther
	}
}

func countDigits(s string) int {
	n := 0
	for _, r := range s {
		if unicode.IsDigit(r) {
			n++
		}
	}
	return n
}

// looksLikeList reports whether a sample cell appears to pack several values.
// Text must split on ';' (or ',' when there is no ';') into two or more
// non-empty tokens of one shape. Plain words need three, since "Smith, John"
// or "Paris, France" is one value. Slices with two or more elements qualify.
func looksLikeList(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case []any:
		return len(x) >= 2
	case []string:
		return len(x) >= 2
	case string:
		return textLooksLikeList(x)
	default:
		return false
	}
}

func textLooksLikeList(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" || reThousands.MatchString(s) {
		return false
	}

	sep := ","
	if strings.Contains(s, ";") {
		sep = ";"
	} else if !strings.Contains(s, ",") {
		return false
	}

	parts := strings.Split(s, sep)
	if len(parts) < 2 {
		return false
	}
	first := shapeOther
	for i, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			return false
		}
		shape := shapeOf(p)
		if shape == shapeOther {
			return false
		}
		if i == 0 {
			first = shape
		} else if shape != first {
			return false
		}
	}
	return first != shapeWord || len(parts) >= 3
}
