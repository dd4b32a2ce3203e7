package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Money is an amount in centavos. Balances are compared exactly, so amounts
// never travel through float arithmetic once parsed.
type Money int64

var (
	ErrInvalidAmount = errors.New("invalid amount")
	// ErrSubCentavo marks a well-formed number that has non-zero digits past
	// the second decimal place. Such an amount can never equal a balance.
	ErrSubCentavo = errors.New("amount has sub-centavo precision")
)

// maxWhole is the largest peso amount whose centavo value fits in an int64.
const maxWhole = (math.MaxInt64 - 99) / 100

// ParseMoney parses a plain decimal string ("5000", "5000.5", "5,000.00").
func ParseMoney(s string) (Money, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return 0, ErrInvalidAmount
	}
	neg := false
	switch s[0] {
	case '-':
		neg = true
		s = s[1:]
	case '+':
		s = s[1:]
	}
	whole, frac, hasDot := strings.Cut(s, ".")
	if whole == "" && (!hasDot || frac == "") {
		return 0, ErrInvalidAmount
	}
	if !allDigits(whole) || !allDigits(frac) {
		return 0, ErrInvalidAmount
	}

	var subCentavo bool
	if len(frac) > 2 {
		if strings.Trim(frac[2:], "0") != "" {
			subCentavo = true
		}
		frac = frac[:2]
	}
	for len(frac) < 2 {
		frac += "0"
	}
	if whole == "" {
		whole = "0"
	}

	w, err := strconv.ParseInt(whole, 10, 64)
	if err != nil || w > maxWhole {
		return 0, ErrInvalidAmount
	}
	f, _ := strconv.ParseInt(frac, 10, 64)
	m := Money(w*100 + f)
	if neg {
		m = -m
	}
	if subCentavo {
		return m, ErrSubCentavo
	}
	return m, nil
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// String renders the amount with exactly two decimals and no grouping.
func (m Money) String() string {
	sign := ""
	v := int64(m)
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}

// MarshalJSON encodes the amount as a two-decimal JSON number.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalJSON accepts a JSON number, a numeric string or null.
// Postgres NUMERIC columns usually arrive as strings.
func (m *Money) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*m = 0
		return nil
	}
	var raw string
	if len(b) > 0 && b[0] == '"' {
		if err := json.Unmarshal(b, &raw); err != nil {
			return err
		}
		if strings.TrimSpace(raw) == "" {
			*m = 0
			return nil
		}
	} else {
		raw = string(b)
	}

	// Exponent forms are rare but valid JSON numbers.
	if strings.ContainsAny(raw, "eE") {
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return fmt.Errorf("money: %w", err)
		}
		raw = strconv.FormatFloat(f, 'f', 2, 64)
	}

	v, err := ParseMoney(raw)
	if err != nil && !errors.Is(err, ErrSubCentavo) {
		return fmt.Errorf("money %q: %w", raw, err)
	}
	*m = v
	return nil
}

// Count is a non-negative tally. Postgres bigint aggregates usually arrive
// as JSON strings, so both forms are accepted; null is zero.
type Count int64

func (n *Count) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*n = 0
		return nil
	}
	raw := string(b)
	if len(b) > 0 && b[0] == '"' {
		if err := json.Unmarshal(b, &raw); err != nil {
			return err
		}
	}
	raw = strings.TrimSpace(raw)
	if v, err := strconv.ParseInt(raw, 10, 64); err == nil {
		*n = Count(v)
		return nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fmt.Errorf("count %q: %w", raw, err)
	}
	*n = Count(f)
	return nil
}
