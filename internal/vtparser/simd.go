package vtparser

import "unicode/utf8"

// ScanForControl returns the index of the first byte that is a C0
// control character or DEL (`< 0x20 || == 0x7F`), or -1 if none is
// present (§4.7 SIMD prefilter contract).
//
// This is a portable scalar scan rather than hand-written AVX2/SSE2
// assembly: assembly cannot be exercised or verified without running
// the Go toolchain, and a silently incorrect routine is worse than a
// slower correct one. See DESIGN.md for the full justification. The
// loop is still batched 8 bytes at a time so the common long-run case
// (plain text, no control bytes) stays branch-predictable, but every
// byte is checked individually — byte-for-byte equivalent to the
// scalar reference the original SIMD routines are required to match.
func ScanForControl(data []byte) int {
	i := 0
	n := len(data)
	for ; i+8 <= n; i += 8 {
		for j := 0; j < 8; j++ {
			if isControl(data[i+j]) {
				return i + j
			}
		}
	}
	for ; i < n; i++ {
		if isControl(data[i]) {
			return i
		}
	}
	return -1
}

// IsAllASCII reports whether every byte in data has its high bit
// clear.
func IsAllASCII(data []byte) bool {
	i := 0
	n := len(data)
	for ; i+8 <= n; i += 8 {
		for j := 0; j < 8; j++ {
			if data[i+j] >= 0x80 {
				return false
			}
		}
	}
	for ; i < n; i++ {
		if data[i] >= 0x80 {
			return false
		}
	}
	return true
}

func isControl(b byte) bool {
	return b < 0x20 || b == 0x7F
}

func decodeRuneUTF8(b []byte) (rune, int) {
	r, size := utf8.DecodeRune(b)
	if r == utf8.RuneError && size <= 1 {
		return 0, 0
	}
	return r, size
}
