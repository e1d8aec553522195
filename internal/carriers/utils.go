package carriers

import "strings"

// CleanPhoneNumber normalizes a phone number to the 10-digit Indian
// format carriers require. Accepts bare numbers, a leading zero, and
// 91/+91 country prefixes. Returns "" when fewer than 10 digits remain.
func CleanPhoneNumber(phone string) string {
	var digits strings.Builder
	for _, c := range phone {
		if c >= '0' && c <= '9' {
			digits.WriteRune(c)
		}
	}
	d := digits.String()

	switch len(d) {
	case 10:
		return d
	case 11:
		// 09876543210
		if d[0] == '0' {
			return d[1:]
		}
		return d[:10]
	case 12:
		// 919876543210
		if d[:2] == "91" {
			return d[2:]
		}
		return d[:10]
	case 13:
		if d[:2] == "91" {
			return d[2:12]
		}
		return d[:10]
	default:
		if len(d) > 10 {
			return d[len(d)-10:]
		}
		return ""
	}
}

// splitName splits a full name into the first/last pair carrier
// bookings require. Shiprocket rejects empty last names, hence the
// "." placeholder.
func splitName(fullName string) (firstName, lastName string) {
	parts := strings.Fields(fullName)
	if len(parts) == 0 {
		return "Customer", "."
	}
	if len(parts) == 1 {
		return parts[0], "."
	}
	return parts[0], strings.Join(parts[1:], " ")
}
