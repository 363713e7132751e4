package rule

import "strings"

// DefaultCallingCode is the calling code assumed for bare national numbers.
const DefaultCallingCode = "51"

// PhoneOptions controls phone number canonicalization.
type PhoneOptions struct {
	// CallingCode is the default country calling code, digits only.
	// Empty means DefaultCallingCode.
	CallingCode string
}

func (o PhoneOptions) callingCode() string {
	if o.CallingCode != "" {
		return o.CallingCode
	}
	return DefaultCallingCode
}

// NormalizePhone canonicalizes a phone number to E.164 where possible.
// Digits are extracted from the input; a national-length number (8 or 9
// digits), with or without the country calling code already prefixed,
// becomes "+<code><number>". Anything else is returned trimmed and
// unchanged, and empty input yields nil.
func NormalizePhone(s string, opts PhoneOptions) *string {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return nil
	}

	var digits strings.Builder
	for _, r := range trimmed {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}

	code := opts.callingCode()
	all := digits.String()
	if rest, ok := strings.CutPrefix(all, code); ok && nationalLength(rest) {
		canonical := "+" + code + rest
		return &canonical
	}
	if nationalLength(all) {
		canonical := "+" + code + all
		return &canonical
	}
	return &trimmed
}

func nationalLength(digits string) bool {
	return len(digits) == 8 || len(digits) == 9
}
