package phone

import "strings"

// ValidationError says why a number was rejected.
type ValidationError string

const (
	ErrNone     ValidationError = ""
	ErrEmpty    ValidationError = "empty"
	ErrBadChars ValidationError = "invalid_characters"
	ErrTooShort ValidationError = "too_short"
	ErrTooLong  ValidationError = "too_long"
)

// Result is an immutable validation outcome. When Valid is false only Err is
// meaningful.
type Result struct {
	Valid          bool            `json:"valid"`
	CountryCode    string          `json:"country_code,omitempty"` // dialing code without the plus, e.g. "44"
	Region         string          `json:"region,omitempty"`       // ISO 3166-1 alpha-2, e.g. "GB"
	CountryName    string          `json:"country_name,omitempty"`
	NationalNumber string          `json:"national_number,omitempty"`
	E164           string          `json:"e164,omitempty"`
	Formatted      string          `json:"formatted,omitempty"`
	Err            ValidationError `json:"error,omitempty"`
}

// country holds the length rules for one dialing code.
type country struct {
	region string
	name   string
	min    int // national number digits
	max    int
}

// Generic national-number bounds applied when the dialing code is unknown or
// the number carries no plus prefix.
const (
	genericMin = 7
	genericMax = 15
)

// countries maps dialing codes to length rules. Lookup is longest-prefix, so
// "1" only wins when no longer code matches.
var countries = map[string]country{
	"1":   {"US", "United States / Canada", 10, 10},
	"7":   {"RU", "Russia / Kazakhstan", 10, 10},
	"20":  {"EG", "Egypt", 9, 10},
	"27":  {"ZA", "South Africa", 9, 9},
	"30":  {"GR", "Greece", 10, 10},
	"31":  {"NL", "Netherlands", 9, 9},
	"32":  {"BE", "Belgium", 8, 9},
	"33":  {"FR", "France", 9, 9},
	"34":  {"ES", "Spain", 9, 9},
	"39":  {"IT", "Italy", 9, 11},
	"41":  {"CH", "Switzerland", 9, 9},
	"43":  {"AT", "Austria", 10, 11},
	"44":  {"GB", "United Kingdom", 10, 10},
	"46":  {"SE", "Sweden", 7, 9},
	"47":  {"NO", "Norway", 8, 8},
	"48":  {"PL", "Poland", 9, 9},
	"49":  {"DE", "Germany", 10, 11},
	"52":  {"MX", "Mexico", 10, 10},
	"55":  {"BR", "Brazil", 10, 11},
	"60":  {"MY", "Malaysia", 9, 10},
	"61":  {"AU", "Australia", 9, 9},
	"62":  {"ID", "Indonesia", 9, 12},
	"63":  {"PH", "Philippines", 10, 10},
	"64":  {"NZ", "New Zealand", 8, 10},
	"65":  {"SG", "Singapore", 8, 8},
	"66":  {"TH", "Thailand", 9, 9},
	"81":  {"JP", "Japan", 10, 10},
	"82":  {"KR", "South Korea", 9, 10},
	"84":  {"VN", "Vietnam", 9, 10},
	"86":  {"CN", "China", 11, 11},
	"90":  {"TR", "Turkey", 10, 10},
	"91":  {"IN", "India", 10, 10},
	"92":  {"PK", "Pakistan", 10, 10},
	"212": {"MA", "Morocco", 9, 9},
	"234": {"NG", "Nigeria", 10, 10},
	"254": {"KE", "Kenya", 9, 9},
	"351": {"PT", "Portugal", 9, 9},
	"353": {"IE", "Ireland", 9, 9},
	"358": {"FI", "Finland", 9, 10},
	"380": {"UA", "Ukraine", 9, 9},
	"420": {"CZ", "Czech Republic", 9, 9},
	"852": {"HK", "Hong Kong", 8, 8},
	"880": {"BD", "Bangladesh", 10, 10},
	"966": {"SA", "Saudi Arabia", 9, 9},
	"971": {"AE", "United Arab Emirates", 8, 9},
	"972": {"IL", "Israel", 8, 9},
	"977": {"NP", "Nepal", 10, 10},
}

// Validate normalizes and validates a phone number. Separators are stripped,
// the dialing code is resolved by longest-prefix lookup, and the national
// number is checked against that country's length bounds. Numbers with an
// unknown dialing code, or without a plus prefix at all, fall back to the
// generic 7-15 digit bounds.
func Validate(input string) Result {
	stripped := stripSeparators(input)
	if stripped == "" {
		return Result{Err: ErrEmpty}
	}

	hasPlus := strings.HasPrefix(stripped, "+")
	digits := strings.TrimPrefix(stripped, "+")
	if !isDigits(digits) {
		return Result{Err: ErrBadChars}
	}
	if digits == "" {
		return Result{Err: ErrEmpty}
	}

	if hasPlus {
		if code, c, ok := lookupDialingCode(digits); ok {
			national := digits[len(code):]
			if len(national) < c.min {
				return Result{Err: ErrTooShort}
			}
			if len(national) > c.max {
				return Result{Err: ErrTooLong}
			}
			return Result{
				Valid:          true,
				CountryCode:    code,
				Region:         c.region,
				CountryName:    c.name,
				NationalNumber: national,
				E164:           "+" + digits,
				Formatted:      "+" + code + " " + national,
			}
		}
	}

	// Unknown dialing code or no plus: generic bounds on the whole number.
	if len(digits) < genericMin {
		return Result{Err: ErrTooShort}
	}
	if len(digits) > genericMax {
		return Result{Err: ErrTooLong}
	}

	// Only a plus-prefixed number can claim an E.164 form; a bare national
	// number may start with 0, which E.164 forbids.
	res := Result{
		Valid:          true,
		NationalNumber: digits,
		Formatted:      digits,
	}
	if hasPlus {
		res.E164 = "+" + digits
		res.Formatted = "+" + digits
	}
	return res
}

// IsValid is a convenience wrapper around Validate.
func IsValid(input string) bool {
	return Validate(input).Valid
}

// lookupDialingCode finds the longest dialing code prefixing the digits.
func lookupDialingCode(digits string) (string, country, bool) {
	for l := 3; l >= 1; l-- {
		if len(digits) < l {
			continue
		}
		if c, ok := countries[digits[:l]]; ok {
			return digits[:l], c, true
		}
	}
	return "", country{}, false
}

// stripSeparators drops the characters people type between digits. Anything
// else is left in place so the character-class check can reject it.
func stripSeparators(input string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(input) {
		switch r {
		case ' ', '-', '.', '(', ')':
			continue
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
