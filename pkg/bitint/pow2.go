/*
Package bitint provides the power-of-two helpers used when sizing analysis
windows and capture buffers.

Usage:

	// Round a requested capture block up to something the driver accepts
	frames := bitint.NextPowerOfTwo(1000) // 1024

	// Reject analysis windows the twiddle tables are not built for
	ok := bitint.IsPowerOfTwo(windowSize)

NextPowerOfTwo subtracts one before taking the bit length so that exact
powers of two are preserved (8 -> 8) instead of doubled (8 -> 16).
*/
package bitint

import "math/bits"

// NextPowerOfTwo returns the next power of 2 >= size.
//
//	Input  Output
//	4      4
//	5      8
//	0      1
//	-1     1
func NextPowerOfTwo(size int) int {
	if size <= 0 {
		return 1
	}
	return int(1 << bits.Len(uint(size-1)))
}

// IsPowerOfTwo reports whether n is a positive power of 2. Powers of two have
// exactly one bit set, so n&(n-1) clears it to zero.
func IsPowerOfTwo(n int) bool {
	return n > 0 && (n&(n-1)) == 0
}

// Log2 returns log2(n) for a power of two n, or -1 when n is not one.
func Log2(n int) int {
	if !IsPowerOfTwo(n) {
		return -1
	}
	return bits.TrailingZeros(uint(n))
}
