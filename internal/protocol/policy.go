package protocol

import "github.com/danmuck/hashdragon/internal/protocol/field"

// BigEndianCutover is the anchor timestamp (around block 684000) after which
// records switched from little-endian to big-endian integer fields.
const BigEndianCutover uint32 = 1618794000

// IsBigEndian reports whether a record anchored at timestamp uses
// big-endian fields. The cutover itself is still little-endian.
func IsBigEndian(timestamp uint32) bool {
	return timestamp > BigEndianCutover
}

// ByteOrderAt returns the field order for a record anchored at timestamp.
func ByteOrderAt(timestamp uint32) field.Order {
	return OrderFor(IsBigEndian(timestamp))
}

// OrderFor maps a big-endian flag to a field order.
func OrderFor(bigEndian bool) field.Order {
	if bigEndian {
		return field.BigEndian
	}
	return field.LittleEndian
}
