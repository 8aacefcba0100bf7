// Package numerator provides domain contracts for human-readable document numbers.
package numerator

import (
	"fmt"
	"strings"
	"time"

	"trendzportal/internal/core/apperror"
)

// Strategy defines the numbering generation strategy.
type Strategy int

const (
	// StrategyStrict uses UPSERT ... RETURNING for every number.
	// Gapless within a committed sequence; used for invoices.
	StrategyStrict Strategy = iota

	// StrategyCached allocates ranges of numbers in memory.
	// Faster, but restarts leave gaps.
	StrategyCached
)

// Options configuration for number generation.
type Options struct {
	Strategy Strategy
	// RangeSize is the number of values reserved at once by StrategyCached. Default 50.
	RangeSize int64
}

// DefaultOptions returns strict options.
func DefaultOptions() *Options {
	return &Options{Strategy: StrategyStrict}
}

// ResetPeriod controls when a sequence starts again from 1.
type ResetPeriod string

const (
	ResetDaily   ResetPeriod = "day"
	ResetMonthly ResetPeriod = "month"
	ResetYearly  ResetPeriod = "year"
	ResetNever   ResetPeriod = "never"
)

// Config holds numbering configuration.
type Config struct {
	// Prefix added to all numbers (e.g. "PO"). May be empty.
	Prefix string

	// DateLayout is a Go time layout rendered from the period (e.g. "20060102").
	// Empty omits the date part.
	DateLayout string

	// Separator joins prefix, date and counter.
	Separator string

	// PadWidth is the minimum counter width.
	PadWidth int

	// MaxValue caps the counter within one period. Zero means no cap.
	MaxValue int64

	ResetPeriod ResetPeriod
}

// InvoiceConfig renders YYYYMMDDNN, restarting every day. The counter stops
// at 99 so numbers of one day keep a fixed width and sort as strings.
func InvoiceConfig() Config {
	return Config{DateLayout: "20060102", PadWidth: 2, MaxValue: 99, ResetPeriod: ResetDaily}
}

// PurchaseOrderConfig renders PO-YYYY-NNNNN, restarting every year.
func PurchaseOrderConfig() Config {
	return Config{Prefix: "PO", DateLayout: "2006", Separator: "-", PadWidth: 5, ResetPeriod: ResetYearly}
}

// Key returns the sequence key for period. Sequences are scoped by the caller's tenant.
func (c Config) Key(period time.Time) string {
	name := c.Prefix
	if name == "" {
		name = "N" + c.DateLayout
	}
	switch c.ResetPeriod {
	case ResetDaily:
		return name + "_" + period.Format("2006_01_02")
	case ResetMonthly:
		return name + "_" + period.Format("2006_01")
	case ResetYearly:
		return name + "_" + period.Format("2006")
	default:
		return name
	}
}

// Number renders num for period, failing with Exhausted past MaxValue.
func (c Config) Number(period time.Time, num int64) (string, error) {
	if c.MaxValue > 0 && num > c.MaxValue {
		return "", apperror.NewExhausted("number for "+c.Key(period), int(c.MaxValue)).
			WithDetail("max_value", c.MaxValue)
	}
	return c.Format(period, num), nil
}

// Format renders the counter value num for period.
func (c Config) Format(period time.Time, num int64) string {
	width := c.PadWidth
	if width <= 0 {
		width = 5
	}
	parts := make([]string, 0, 3)
	if c.Prefix != "" {
		parts = append(parts, c.Prefix)
	}
	if c.DateLayout != "" {
		parts = append(parts, period.Format(c.DateLayout))
	}
	parts = append(parts, fmt.Sprintf("%0*d", width, num))
	return strings.Join(parts, c.Separator)
}
