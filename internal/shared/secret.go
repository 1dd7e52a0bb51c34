package shared

import "crypto/subtle"

// MaskSecret keeps the first and last three characters of s.
// Secrets shorter than three characters are repeated whole on both sides.
func MaskSecret(s string) string {
	rs := []rune(s)
	head, tail := rs, rs
	if len(rs) > 3 {
		head, tail = rs[:3], rs[len(rs)-3:]
	}
	return string(head) + "..." + string(tail)
}

// SecretEqual reports whether got matches want exactly.
func SecretEqual(got, want string) bool {
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}
