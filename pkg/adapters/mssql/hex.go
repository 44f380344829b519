package mssql

import (
	"encoding/binary"
)

// rowversionHex renders an 8-byte SQL Server rowversion (big-endian) as an
// upper-case hex string without leading zeros.
//
// Examples:
//   - 00 00 00 00 18 7F 86 3C → "187F863C"
//   - 00 00 00 19 A4 AE 7C 00 → "19A4AE7C00"
//   - all zero bytes          → "00"
func rowversionHex(data []byte) string {
	switch {
	case len(data) == 0:
		return ""
	case len(data) != 8:
		return "00"
	}

	value := binary.BigEndian.Uint64(data)
	if value == 0 {
		return "00"
	}

	const hexChars = "0123456789ABCDEF"
	var buf [16]byte
	pos := len(buf)
	for value > 0 {
		pos--
		buf[pos] = hexChars[value&0x0F]
		value >>= 4
	}
	return string(buf[pos:])
}
