package phone

import "testing"

func TestValidateKnownCountries(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		valid    bool
		country  string
		region   string
		national string
		err      ValidationError
	}{
		{"DutchMobile", "+31612345678", true, "31", "NL", "612345678", ErrNone},
		{"USNumber", "+12025550123", true, "1", "US", "2025550123", ErrNone},
		{"UKNumber", "+447911123456", true, "44", "GB", "7911123456", ErrNone},
		{"IndiaNumber", "+919876543210", true, "91", "IN", "9876543210", ErrNone},
		{"ThreeDigitCode", "+971501234567", true, "971", "AE", "501234567", ErrNone},
		{"DutchTooShort", "+3161234567", false, "", "", "", ErrTooShort},
		{"DutchTooLong", "+316123456789", false, "", "", "", ErrTooLong},
		{"UKTooShort", "+44791112345", false, "", "", "", ErrTooShort},
		{"ChinaExact", "+8613812345678", true, "86", "CN", "13812345678", ErrNone},
		{"ChinaTooLong", "+86138123456789", false, "", "", "", ErrTooLong},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			res := Validate(tc.input)
			if res.Valid != tc.valid {
				t.Fatalf("Validate(%q).Valid = %v, want %v (err=%q)", tc.input, res.Valid, tc.valid, res.Err)
			}
			if res.Err != tc.err {
				t.Errorf("Validate(%q).Err = %q, want %q", tc.input, res.Err, tc.err)
			}
			if !tc.valid {
				return
			}
			if res.CountryCode != tc.country {
				t.Errorf("CountryCode = %q, want %q", res.CountryCode, tc.country)
			}
			if res.Region != tc.region {
				t.Errorf("Region = %q, want %q", res.Region, tc.region)
			}
			if res.NationalNumber != tc.national {
				t.Errorf("NationalNumber = %q, want %q", res.NationalNumber, tc.national)
			}
		})
	}
}

func TestValidateSeparatorsStripped(t *testing.T) {
	inputs := []string{
		"+31 6 1234 5678",
		"+31-6-1234-5678",
		"+31 (6) 1234.5678",
		"  +31612345678  ",
	}
	for _, input := range inputs {
		res := Validate(input)
		if !res.Valid {
			t.Errorf("Validate(%q) invalid: %q", input, res.Err)
			continue
		}
		if res.E164 != "+31612345678" {
			t.Errorf("Validate(%q).E164 = %q, want +31612345678", input, res.E164)
		}
	}
}

func TestValidateRejectsBadInput(t *testing.T) {
	tests := []struct {
		name  string
		input string
		err   ValidationError
	}{
		{"Empty", "", ErrEmpty},
		{"OnlySeparators", " - () ", ErrEmpty},
		{"BarePlus", "+", ErrEmpty},
		{"Letters", "+3161234abcd", ErrBadChars},
		{"PlusInMiddle", "31+612345678", ErrBadChars},
		{"TooShortGeneric", "123456", ErrTooShort},
		{"TooLongGeneric", "1234567890123456", ErrTooLong},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			res := Validate(tc.input)
			if res.Valid {
				t.Fatalf("Validate(%q) unexpectedly valid", tc.input)
			}
			if res.Err != tc.err {
				t.Errorf("Validate(%q).Err = %q, want %q", tc.input, res.Err, tc.err)
			}
		})
	}
}

func TestValidateUnknownPrefixFallsBack(t *testing.T) {
	// +999 is not a dialing code in the table; generic 7-15 bounds apply to
	// the whole number.
	res := Validate("+9991234567")
	if !res.Valid {
		t.Fatalf("Expected generic fallback to accept, got %q", res.Err)
	}
	if res.CountryCode != "" || res.Region != "" {
		t.Errorf("Fallback result should carry no country, got %q/%q", res.CountryCode, res.Region)
	}
	if res.E164 != "+9991234567" {
		t.Errorf("E164 = %q, want +9991234567", res.E164)
	}

	if res := Validate("+999123"); res.Valid || res.Err != ErrTooShort {
		t.Errorf("Expected ErrTooShort for short unknown-prefix number, got %+v", res)
	}
}

func TestValidateNoPlusUsesGenericBounds(t *testing.T) {
	res := Validate("0612345678")
	if !res.Valid {
		t.Fatalf("Expected generic acceptance without plus, got %q", res.Err)
	}
	if res.CountryCode != "" {
		t.Errorf("No-plus number must not resolve a country, got %q", res.CountryCode)
	}
	// A bare national number has no E.164 form; prefixing a plus would
	// produce "+06...", which E.164 forbids.
	if res.E164 != "" {
		t.Errorf("No-plus number must not claim an E.164 form, got %q", res.E164)
	}
	if res.Formatted != "0612345678" {
		t.Errorf("Formatted = %q, want bare digits", res.Formatted)
	}
	if res.NationalNumber != "0612345678" {
		t.Errorf("NationalNumber = %q, want 0612345678", res.NationalNumber)
	}
}

func TestValidateFormatting(t *testing.T) {
	res := Validate("+44 7911 123456")
	if !res.Valid {
		t.Fatalf("Unexpected invalid: %q", res.Err)
	}
	if res.E164 != "+447911123456" {
		t.Errorf("E164 = %q, want +447911123456", res.E164)
	}
	if res.Formatted != "+44 7911123456" {
		t.Errorf("Formatted = %q, want %q", res.Formatted, "+44 7911123456")
	}
}

func TestLongestPrefixWins(t *testing.T) {
	// 880 (Bangladesh) must win over 88 (not a code) and 8 (not a code);
	// likewise 1 must only match when nothing longer does.
	res := Validate("+8801712345678")
	if !res.Valid || res.Region != "BD" {
		t.Errorf("Validate(+8801712345678) = %+v, want BD", res)
	}
}

func TestIsValid(t *testing.T) {
	if !IsValid("+31612345678") {
		t.Error("IsValid(+31612345678) = false, want true")
	}
	if IsValid("not a phone") {
		t.Error("IsValid(not a phone) = true, want false")
	}
}
