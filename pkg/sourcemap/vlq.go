package sourcemap

import (
	"errors"
	"strings"
)

const base64Chars = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+/"

const (
	vlqShift    = 5
	vlqBase     = 1 << vlqShift
	vlqMask     = vlqBase - 1
	vlqContinue = vlqBase
)

var errBadVLQ = errors.New("invalid base64 VLQ")

// base64Index maps a byte to its digit, or -1.
var base64Index = func() [256]int8 {
	var t [256]int8
	for i := range t {
		t[i] = -1
	}
	for i := 0; i < len(base64Chars); i++ {
		t[base64Chars[i]] = int8(i)
	}
	return t
}()

// writeVLQ appends v as a base64 VLQ. The sign is kept in the lowest bit.
func writeVLQ(b *strings.Builder, v int) {
	u := v << 1
	if v < 0 {
		u = (-v << 1) | 1
	}
	for {
		digit := u & vlqMask
		u >>= vlqShift
		if u > 0 {
			digit |= vlqContinue
		}
		b.WriteByte(base64Chars[digit])
		if u == 0 {
			return
		}
	}
}

// readVLQ decodes one value from the front of s and returns the rest.
func readVLQ(s string) (int, string, error) {
	var u, shift int
	for i := 0; i < len(s); i++ {
		digit := int(base64Index[s[i]])
		// Reject bytes outside the alphabet and values that overflow int
		if digit < 0 || shift > 60 {
			return 0, s, errBadVLQ
		}
		u |= (digit & vlqMask) << shift
		if digit&vlqContinue == 0 {
			v := u >> 1
			if u&1 == 1 {
				v = -v
			}
			return v, s[i+1:], nil
		}
		shift += vlqShift
	}
	return 0, s, errBadVLQ
}
