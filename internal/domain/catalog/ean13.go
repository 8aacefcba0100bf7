package catalog

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"time"
)

const (
	// BarcodePrefix is the GS1 "in-store" range used for generated codes.
	BarcodePrefix = "290"

	ean13Length   = 13
	randomDigits  = 5
	MaxBarcodeTry = 100
)

// Rand is the random source used by generators.
type Rand interface {
	IntN(n int) int
}

type globalRand struct{}

func (globalRand) IntN(n int) int { return rand.IntN(n) }

// DefaultRand is safe for concurrent use.
var DefaultRand Rand = globalRand{}

// EAN13CheckDigit computes the check digit over a 12-digit payload.
func EAN13CheckDigit(payload string) (byte, error) {
	if len(payload) != ean13Length-1 {
		return 0, fmt.Errorf("ean13 payload must be 12 digits, got %d", len(payload))
	}
	var odd, even int
	for i := 0; i < len(payload); i++ {
		c := payload[i]
		if c < '0' || c > '9' {
			return 0, fmt.Errorf("ean13 payload has non-digit %q", c)
		}
		// positions are 1-indexed: index 0 is position 1 (odd)
		if i%2 == 0 {
			odd += int(c - '0')
		} else {
			even += int(c - '0')
		}
	}
	check := (10 - (odd+3*even)%10) % 10
	return byte('0' + check), nil
}

// ValidateEAN13 reports whether code is 13 digits with a correct check digit.
func ValidateEAN13(code string) bool {
	if len(code) != ean13Length {
		return false
	}
	check, err := EAN13CheckDigit(code[:12])
	if err != nil {
		return false
	}
	return code[12] == check
}

// FormatEAN13 groups a code the way it is printed under the bars: 1-6-6.
// Anything that is not a 13-digit string is returned unchanged.
func FormatEAN13(code string) string {
	if len(code) != ean13Length {
		return code
	}
	return code[:1] + " " + code[1:7] + " " + code[7:]
}

// NormalizeEAN13 strips the spaces and dashes a label scanner or a human may add.
func NormalizeEAN13(code string) string {
	return strings.NewReplacer(" ", "", "-", "").Replace(strings.TrimSpace(code))
}

// CandidateBarcode builds "290" + YYMM + 5 random digits + check digit.
func CandidateBarcode(now time.Time, r Rand) string {
	if r == nil {
		r = DefaultRand
	}
	var b strings.Builder
	b.Grow(ean13Length)
	b.WriteString(BarcodePrefix)
	fmt.Fprintf(&b, "%02d%02d", now.Year()%100, int(now.Month()))
	for i := 0; i < randomDigits; i++ {
		b.WriteByte(byte('0' + r.IntN(10)))
	}
	check, _ := EAN13CheckDigit(b.String())
	b.WriteByte(check)
	return b.String()
}
