package accounts

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/yanun0323/decimal"
)

var numeric = regexp.MustCompile(`^-?[0-9]+(\.[0-9]+)?$`)

// Money is a value reported with a currency.
type Money struct {
	Currency string `json:"currency"`
	Value    any    `json:"value"`
}

// Normalize converts a reported account value: plain numbers become
// decimals, "true" and "false" become booleans, anything else stays a
// string. A value with a currency is wrapped in Money.
func Normalize(value, currency string) any {
	var v any = value
	switch {
	case numeric.MatchString(value):
		if d, err := decimal.New(value); err == nil {
			v = d
		}
	case value == "true":
		v = true
	case value == "false":
		v = false
	}
	if currency != "" {
		return Money{Currency: currency, Value: v}
	}
	return v
}

// Camelize turns a gateway tag like "NetLiquidation" or "Cash_Balance" into
// a lower camel case field name.
func Camelize(tag string) string {
	var (
		b     strings.Builder
		upper bool
		first = true
	)
	b.Grow(len(tag))
	for _, r := range tag {
		if r == '_' || r == '-' || r == ' ' {
			upper = !first
			continue
		}
		switch {
		case first:
			b.WriteRune(unicode.ToLower(r))
		case upper:
			b.WriteRune(unicode.ToUpper(r))
		default:
			b.WriteRune(r)
		}
		first = false
		upper = false
	}
	return b.String()
}
