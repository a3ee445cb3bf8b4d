package psi

// Codepage selects the DVB text-encoding table prefixed onto a string
// field when it differs from the default (ISO 6937). Per ETSI EN 300
// 468 Annex A, the selector is a single byte equal to the table
// number itself; 0 (ISO 6937) needs no prefix, 21 selects UTF-8.
type Codepage byte

// Valid codepage values, per spec.md §3.
func (c Codepage) Valid() bool {
	return c <= 11 || (c >= 13 && c <= 15) || c == 21
}

// Prefix returns the bytes to prepend to a text field's payload, or
// nil for the default table.
func (c Codepage) Prefix() []byte {
	if c == 0 {
		return nil
	}
	return []byte{byte(c)}
}
