package protocol

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/danmuck/hashdragon/internal/protocol/field"
)

// Mode selects a record rendering.
type Mode int

const (
	// ModeHex is the lowercase hex of the locking script.
	ModeHex Mode = iota
	// ModeHuman is a space separated opcode listing for inspection only.
	ModeHuman
)

// ParseMode resolves "hex" or "human".
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "hex", "":
		return ModeHex, nil
	case "human", "human-readable", "asm":
		return ModeHuman, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownMode, s)
	}
}

// Push opcodes used by the layouts. Dragonseed declares 0x08 and 0x10 for
// fields that are four and eight bytes wide.
const (
	opPush1  byte = 0x01
	opPush4  byte = 0x04
	opPush8  byte = 0x08
	opPush16 byte = 0x10
	opPush32 byte = 0x20
)

// push is one length-prefixed element after the header.
type push struct {
	op   byte
	data []byte
}

// layout returns the payload pushes of r in wire order.
func layout(r Record, o field.Order) ([]push, error) {
	if o != field.BigEndian && o != field.LittleEndian {
		return nil, field.ErrInvalidOrder
	}
	switch v := r.(type) {
	case Dragonseed:
		return []push{
			{op: opPush8, data: field.PutUint32(v.InputIndex, field.LittleEndian)},
			{op: opPush8, data: field.PutUint32(v.OutputIndex, field.LittleEndian)},
			{op: opPush16, data: field.PutUint64(v.Cost, field.BigEndian)},
			{op: opPush32, data: cloneHash(v.Hashdragon)},
		}, nil
	case Hatch:
		return []push{
			{op: opPush4, data: field.PutUint32(v.InputIndex, o)},
			{op: opPush4, data: field.PutUint32(v.OutputIndex, o)},
			{op: opPush8, data: field.PutUint64(v.Cost, o)},
			{op: opPush32, data: cloneHash(v.Hashdragon)},
		}, nil
	case Wander:
		return []push{
			{op: opPush4, data: field.PutUint32(v.InputIndex, o)},
			{op: opPush4, data: field.PutUint32(v.OutputIndex, o)},
		}, nil
	case Rescue:
		return []push{
			{op: opPush4, data: field.PutUint32(v.InputIndex, o)},
			{op: opPush4, data: field.PutUint32(v.OutputIndex, o)},
			{op: opPush32, data: cloneHash(v.RescueRef)},
		}, nil
	case Hibernate:
		return []push{
			{op: opPush4, data: field.PutUint32(v.InputIndex, o)},
			{op: opPush4, data: field.PutUint32(v.OutputIndex, o)},
			{op: opPush32, data: cloneHash(v.Hashdragon)},
		}, nil
	case nil:
		return nil, fmt.Errorf("%w: nil record", ErrUnsupportedEvent)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedEvent, r.Event())
	}
}

// Encode returns the OP_RETURN locking script for r. Integer fields use o,
// except Dragonseed whose layout fixes its own byte order.
func Encode(r Record, o field.Order) ([]byte, error) {
	pushes, err := layout(r, o)
	if err != nil {
		return nil, err
	}
	size := HeaderSize
	for _, p := range pushes {
		size += 1 + len(p.data)
	}
	buf := make([]byte, 0, size)
	buf = appendHeader(buf, r.Command())
	for _, p := range pushes {
		buf = append(buf, p.op)
		buf = append(buf, p.data...)
	}
	return buf, nil
}

// EncodeHex is Encode rendered as lowercase hex.
func EncodeHex(r Record, o field.Order) (string, error) {
	script, err := Encode(r, o)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(script), nil
}

// Human renders r as "OP_RETURN 0x<lokad> 0x<cmd> <field> ...".
func Human(r Record, o field.Order) (string, error) {
	pushes, err := layout(r, o)
	if err != nil {
		return "", err
	}
	parts := make([]string, 0, 3+len(pushes))
	parts = append(parts, "OP_RETURN", fmt.Sprintf("0x%08x", LokadID), r.Command().String())
	for _, p := range pushes {
		parts = append(parts, hex.EncodeToString(p.data))
	}
	return strings.Join(parts, " "), nil
}

// Format renders r in the requested mode.
func Format(r Record, o field.Order, mode Mode) (string, error) {
	switch mode {
	case ModeHex:
		return EncodeHex(r, o)
	case ModeHuman:
		return Human(r, o)
	default:
		return "", fmt.Errorf("%w: %d", ErrUnknownMode, mode)
	}
}

func appendHeader(dst []byte, cmd Command) []byte {
	dst = append(dst, OpReturn, opPush4)
	dst = append(dst, field.PutUint32(LokadID, field.BigEndian)...)
	return append(dst, opPush1, byte(cmd))
}

func cloneHash(h Hash) []byte {
	out := make([]byte, HashSize)
	copy(out, h[:])
	return out
}
