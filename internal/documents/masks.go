package documents

import (
	"strings"
	"unicode"
)

func digits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// FormatZIP keeps the digits of s as "12345" or "12345-6789".
func FormatZIP(s string) string {
	d := digits(s)
	if len(d) > 9 {
		d = d[:9]
	}
	if len(d) <= 5 {
		return d
	}
	return d[:5] + "-" + d[5:]
}

// FormatPhone renders a US number as "(555) 123-4567". A leading country code
// 1 is dropped. Partial input is formatted as far as it goes.
func FormatPhone(s string) string {
	d := digits(s)
	if len(d) == 11 && d[0] == '1' {
		d = d[1:]
	}
	if len(d) > 10 {
		d = d[:10]
	}
	switch {
	case len(d) == 0:
		return ""
	case len(d) <= 3:
		return "(" + d
	case len(d) <= 6:
		return "(" + d[:3] + ") " + d[3:]
	default:
		return "(" + d[:3] + ") " + d[3:6] + "-" + d[6:]
	}
}

// FormatPostalCode formats Canadian postal codes as "A1A 1A1" and falls back
// to the ZIP mask for anything that starts with a digit.
func FormatPostalCode(s string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	code := b.String()
	if code == "" {
		return ""
	}
	if code[0] >= '0' && code[0] <= '9' {
		return FormatZIP(code)
	}
	if len(code) > 6 {
		code = code[:6]
	}
	if len(code) <= 3 {
		return code
	}
	return code[:3] + " " + code[3:]
}

// FormatLast4 keeps the last four digits of an identifier such as an SSN.
func FormatLast4(s string) string {
	d := digits(s)
	if len(d) > 4 {
		return d[len(d)-4:]
	}
	return d
}

// FormatEIN renders an employer identification number as "12-3456789".
func FormatEIN(s string) string {
	d := digits(s)
	if len(d) > 9 {
		d = d[:9]
	}
	if len(d) <= 2 {
		return d
	}
	return d[:2] + "-" + d[2:]
}

var fieldMasks = map[string]func(string) string{
	"zipCode":       FormatZIP,
	"postalCode":    FormatPostalCode,
	"phone":         FormatPhone,
	"companyPhone":  FormatPhone,
	"providerPhone": FormatPhone,
	"employeeSsn":   FormatLast4,
	"employerEin":   FormatEIN,
	"state":         strings.ToUpper,
}

// ApplyMasks formats the masked fields of updates in place.
func ApplyMasks(updates map[string]string) {
	for k, v := range updates {
		if mask, ok := fieldMasks[k]; ok {
			updates[k] = mask(strings.TrimSpace(v))
		}
	}
}
