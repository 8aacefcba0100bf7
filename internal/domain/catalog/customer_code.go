package catalog

import (
	"fmt"
	"strings"
	"time"
)

const maxCustomerCodeTry = 100

// CandidateCustomerCode returns YYMM + 2 uppercase letters + 4 digits.
func CandidateCustomerCode(now time.Time, r Rand) string {
	if r == nil {
		r = DefaultRand
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%02d%02d", now.Year()%100, int(now.Month()))
	for i := 0; i < 2; i++ {
		b.WriteByte(byte('A' + r.IntN(26)))
	}
	for i := 0; i < 4; i++ {
		b.WriteByte(byte('0' + r.IntN(10)))
	}
	return b.String()
}

// ValidCustomerCode reports whether code has the customer code shape.
func ValidCustomerCode(code string) bool {
	if len(code) != 10 {
		return false
	}
	for i := 0; i < len(code); i++ {
		c := code[i]
		switch {
		case i < 4 || i >= 6:
			if c < '0' || c > '9' {
				return false
			}
		default:
			if c < 'A' || c > 'Z' {
				return false
			}
		}
	}
	return true
}
