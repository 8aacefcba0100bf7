package catalog

import (
	"math/rand/v2"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEAN13CheckDigit(t *testing.T) {
	tests := []struct {
		payload string
		want    byte
	}{
		{"400638133393", '1'}, // 4006381333931
		{"590123412345", '7'}, // 5901234123457
		{"290261000000", '6'},
		{"000000000000", '0'},
	}
	for _, tt := range tests {
		t.Run(tt.payload, func(t *testing.T) {
			got, err := EAN13CheckDigit(tt.payload)
			require.NoError(t, err)
			assert.Equal(t, string(tt.want), string(got))
		})
	}
}

func TestEAN13CheckDigit_RejectsBadPayload(t *testing.T) {
	_, err := EAN13CheckDigit("12345")
	assert.Error(t, err)

	_, err = EAN13CheckDigit("12345678901a")
	assert.Error(t, err)
}

func TestValidateEAN13(t *testing.T) {
	assert.True(t, ValidateEAN13("4006381333931"))
	assert.True(t, ValidateEAN13("5901234123457"))
	assert.False(t, ValidateEAN13("5901234123458"), "wrong check digit")
	assert.False(t, ValidateEAN13("590123412345"), "too short")
	assert.False(t, ValidateEAN13("59012341234X7"))
}

func TestFormatEAN13(t *testing.T) {
	assert.Equal(t, "5 901234 123457", FormatEAN13("5901234123457"))
	assert.Equal(t, "123", FormatEAN13("123"))
	assert.Equal(t, "5901234123457", NormalizeEAN13(" 5 901234-123457 "))
}

func TestCandidateBarcode(t *testing.T) {
	now := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
	r := rand.New(rand.NewPCG(7, 11))

	for i := 0; i < 200; i++ {
		code := CandidateBarcode(now, r)
		require.Len(t, code, 13)
		assert.True(t, strings.HasPrefix(code, "2902610"), code)
		assert.True(t, ValidateEAN13(code), code)
	}
}
