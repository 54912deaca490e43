package fraud

// Normalize strips every character that is not an ASCII letter or digit.
// Phone numbers and national IDs arrive with inconsistent punctuation
// ("+", "-", ".", spaces); keying on the stripped form makes
// "12.345.678-9" and "123456789" collide. No case folding is applied.
//
// An empty result is valid output, not an error; callers that require a
// non-empty identifier must check for it themselves.
func Normalize(raw string) string {
	out := make([]byte, 0, len(raw))
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') {
			out = append(out, c)
		}
	}
	return string(out)
}
