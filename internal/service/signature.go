package service

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Signature renders the identity of a call as method(arg1, arg2, ...) with
// every argument JSON encoded.
func Signature(method string, args ...any) string {
	parts := make([]string, 0, len(args))
	for _, arg := range args {
		b, err := json.Marshal(arg)
		if err != nil {
			parts = append(parts, fmt.Sprintf("%q", fmt.Sprint(arg)))
			continue
		}
		parts = append(parts, string(b))
	}
	return method + "(" + strings.Join(parts, ", ") + ")"
}
