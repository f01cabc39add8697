package mpesa

import (
	"errors"
	"strings"
)

// ErrInvalidPhone indicates a number the gateway would reject outright.
var ErrInvalidPhone = errors.New("invalid phone number")

// NormalizePhone rewrites a Kenyan mobile number into the international form
// the gateway requires: "0712345678" becomes "254712345678", a leading "+" is
// stripped, and an already international "2547..." number passes through.
func NormalizePhone(raw string) (string, error) {
	p := strings.TrimSpace(raw)
	p = strings.TrimPrefix(p, "+")
	p = strings.ReplaceAll(p, " ", "")
	p = strings.ReplaceAll(p, "-", "")

	if p == "" || !digitsOnly(p) {
		return "", ErrInvalidPhone
	}

	switch {
	case len(p) == 10 && (strings.HasPrefix(p, "07") || strings.HasPrefix(p, "01")):
		return "254" + p[1:], nil
	case len(p) == 12 && strings.HasPrefix(p, "254"):
		return p, nil
	}
	return "", ErrInvalidPhone
}

func digitsOnly(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
