package models

import "strings"

// PadZip normalizes a ZIP string to 5 characters with leading zeros, so
// "501" (Holtsville NY, stripped by numeric CSV parsing) becomes "00501".
// Empty input stays empty.
func PadZip(zip string) string {
	zip = strings.TrimSpace(zip)
	if zip == "" {
		return ""
	}
	for len(zip) < 5 {
		zip = "0" + zip
	}
	return zip
}

// ValidZip reports whether s is exactly five ASCII digits.
func ValidZip(s string) bool {
	if len(s) != 5 {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
