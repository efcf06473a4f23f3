package logging

import "strings"

// secretKeyPatterns are substrings of attribute keys whose values are masked.
// Keys are matched case-insensitively.
var secretKeyPatterns = []string{
	"TOKEN",
	"SECRET",
	"PASSWORD",
	"PASSWD",
	"API_KEY",
	"CREDENTIAL",
	"PRIVATE",
	"HASH_SALT",
	"DB_URL",
	"DATABASE_URL",
}

// ShouldMask reports whether values logged under key must be masked.
func ShouldMask(key string) bool {
	upper := strings.ToUpper(key)
	for _, pattern := range secretKeyPatterns {
		if strings.Contains(upper, pattern) {
			return true
		}
	}
	return false
}

// MaskValue hides all but the last four characters of value.
// Values of four characters or fewer are fully masked.
func MaskValue(value string) string {
	if len(value) <= 4 {
		return "********"
	}
	return "****" + value[len(value)-4:]
}
