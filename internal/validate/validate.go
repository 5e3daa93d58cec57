package validate

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	rePIN      = regexp.MustCompile(`^[0-9]{4}$`)
	reUsername = regexp.MustCompile(`^[A-Za-z0-9._-]{3,30}$`)
	reBarcode  = regexp.MustCompile(`^[0-9]{4,20}$`)
	reQ        = regexp.MustCompile(`^[A-Za-z0-9 _'\\-]{1,50}$`)
	reID       = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)
	reCode     = regexp.MustCompile(`^[A-Z0-9]{4,12}$`)
	reRole     = regexp.MustCompile(`^(ADMIN|SELLER)$`)
)

// PIN validates the 4-digit numeric login PIN.
func PIN(s string) bool {
	return rePIN.MatchString(strings.TrimSpace(s))
}

func Username(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, reUsername.MatchString(s)
}

// Barcode validates an optional numeric barcode; empty means "no barcode".
func Barcode(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", true
	}
	return s, reBarcode.MatchString(s)
}

// Q validates a search query: trims, enforces allowed characters and max length
func Q(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	if len(s) > 50 {
		s = s[:50]
	}
	return s, reQ.MatchString(s)
}

func Qty(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return 1
	}
	if n > 99 {
		return 99
	} // clamp to avoid abuse
	return n
}

// Price parses a non-negative unit price.
func Price(s string) (float64, bool) {
	p, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || p < 0 {
		return 0, false
	}
	return p, true
}

// Stock parses a non-negative stock count.
func Stock(s string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// ID validates a simple resource identifier (product/user/sale ids).
func ID(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, s != "" && reID.MatchString(s)
}

// BusinessCode validates an uppercase join code.
func BusinessCode(s string) (string, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	return s, reCode.MatchString(s)
}

// Role validates allowed role enums.
func Role(s string) (string, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	return s, reRole.MatchString(s)
}

// Name validates a displayable name with a reasonable max length.
func Name(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" || len(s) > 60 {
		return "", false
	}
	return s, true
}
