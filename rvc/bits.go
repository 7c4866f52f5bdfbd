// Package rvc decodes RV-C messages against a declarative, JSON-loaded
// message specification.
package rvc

// ExtractBits reads an unsigned little-endian bitfield out of an up-to-8-byte
// CAN payload. Payloads shorter than 8 bytes are treated as right-extended
// with zeros. startBit and length are trusted: callers validate them at spec
// load time (see SignalSpec.Validate).
func ExtractBits(payload []byte, startBit, length uint8) uint64 {
	var buf [8]byte
	copy(buf[:], payload)

	var word uint64
	for i := 7; i >= 0; i-- {
		word = (word << 8) | uint64(buf[i])
	}

	word >>= startBit
	if length >= 64 {
		return word
	}
	mask := uint64(1)<<length - 1
	return word & mask
}
