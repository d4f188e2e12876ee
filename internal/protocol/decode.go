package protocol

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/danmuck/hashdragon/internal/protocol/field"
)

var header = []byte{OpReturn, opPush4, 0xd1, 0x01, 0xd4, 0x00, opPush1}

// PeekCommand validates the fixed header and returns the command byte
// without parsing the payload.
func PeekCommand(script []byte) (Command, error) {
	if len(script) < HeaderSize {
		return 0, fmt.Errorf("%w: script is %d bytes, header needs %d", ErrMalformedHeader, len(script), HeaderSize)
	}
	if !bytes.Equal(script[:len(header)], header) {
		return 0, fmt.Errorf("%w: prefix %x", ErrMalformedHeader, script[:len(header)])
	}
	return Command(script[HeaderSize-1]), nil
}

// Decode parses a script produced by Encode. The byte order comes from the
// anchoring transaction (see ByteOrderAt) and is never inferred.
func Decode(script []byte, o field.Order) (Record, error) {
	if o != field.BigEndian && o != field.LittleEndian {
		return nil, field.ErrInvalidOrder
	}
	cmd, err := PeekCommand(script)
	if err != nil {
		return nil, err
	}
	r := &scriptReader{buf: script, offset: HeaderSize}

	switch cmd {
	case CommandDragonseed:
		return decodeDragonseed(r)
	case CommandHatch:
		return decodeHatch(r, o)
	case CommandWander:
		return decodeWanderOrRescue(r, o)
	case CommandHibernate:
		return decodeHibernate(r, o)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownCommand, cmd)
	}
}

// DecodeHex decodes a hex encoded script.
func DecodeHex(script string, o field.Order) (Record, error) {
	raw, err := hex.DecodeString(strings.TrimSpace(script))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidHex, err)
	}
	return Decode(raw, o)
}

func decodeDragonseed(r *scriptReader) (Record, error) {
	var rec Dragonseed
	var err error
	if rec.InputIndex, err = r.uint32(opPush8, field.LittleEndian); err != nil {
		return nil, err
	}
	if rec.OutputIndex, err = r.uint32(opPush8, field.LittleEndian); err != nil {
		return nil, err
	}
	if rec.Cost, err = r.uint64(opPush16, field.BigEndian); err != nil {
		return nil, err
	}
	if rec.Hashdragon, err = r.hash(); err != nil {
		return nil, err
	}
	return finish(rec, r)
}

func decodeHatch(r *scriptReader, o field.Order) (Record, error) {
	var rec Hatch
	var err error
	if rec.InputIndex, rec.OutputIndex, err = r.indices(o); err != nil {
		return nil, err
	}
	if rec.Cost, err = r.uint64(opPush8, o); err != nil {
		return nil, err
	}
	if rec.Hashdragon, err = r.hash(); err != nil {
		return nil, err
	}
	return finish(rec, r)
}

// decodeWanderOrRescue splits command 0xd2 on trailing length alone: nothing
// after the indices is a Wander, a 32-byte push is a Rescue.
func decodeWanderOrRescue(r *scriptReader, o field.Order) (Record, error) {
	in, out, err := r.indices(o)
	if err != nil {
		return nil, err
	}
	if r.remaining() == 0 {
		return Wander{InputIndex: in, OutputIndex: out}, nil
	}
	ref, err := r.hash()
	if err != nil {
		return nil, err
	}
	return finish(Rescue{InputIndex: in, OutputIndex: out, RescueRef: ref}, r)
}

func decodeHibernate(r *scriptReader, o field.Order) (Record, error) {
	var rec Hibernate
	var err error
	if rec.InputIndex, rec.OutputIndex, err = r.indices(o); err != nil {
		return nil, err
	}
	if rec.Hashdragon, err = r.hash(); err != nil {
		return nil, err
	}
	return finish(rec, r)
}

// scriptReader walks the payload pushes with explicit bounds checks.
type scriptReader struct {
	buf    []byte
	offset int
}

func (r *scriptReader) remaining() int {
	return len(r.buf) - r.offset
}

// next consumes one push whose opcode must be op and whose data is width
// bytes. The opcode and the width differ only in the Dragonseed layout.
func (r *scriptReader) next(op byte, width int) ([]byte, error) {
	if r.remaining() < 1 {
		return nil, fmt.Errorf("%w: missing push at offset %d", ErrLengthMismatch, r.offset)
	}
	if got := r.buf[r.offset]; got != op {
		return nil, fmt.Errorf("%w: push opcode 0x%02x at offset %d, want 0x%02x", ErrLengthMismatch, got, r.offset, op)
	}
	start := r.offset + 1
	if len(r.buf)-start < width {
		return nil, &field.LengthError{Want: width, Got: len(r.buf) - start}
	}
	r.offset = start + width
	return r.buf[start:r.offset], nil
}

func (r *scriptReader) uint32(op byte, o field.Order) (uint32, error) {
	b, err := r.next(op, 4)
	if err != nil {
		return 0, err
	}
	return field.Uint32(b, o)
}

func (r *scriptReader) uint64(op byte, o field.Order) (uint64, error) {
	b, err := r.next(op, 8)
	if err != nil {
		return 0, err
	}
	return field.Uint64(b, o)
}

func (r *scriptReader) indices(o field.Order) (uint32, uint32, error) {
	in, err := r.uint32(opPush4, o)
	if err != nil {
		return 0, 0, err
	}
	out, err := r.uint32(opPush4, o)
	if err != nil {
		return 0, 0, err
	}
	return in, out, nil
}

func (r *scriptReader) hash() (Hash, error) {
	var h Hash
	b, err := r.next(opPush32, HashSize)
	if err != nil {
		return h, err
	}
	copy(h[:], b)
	return h, nil
}

func (r *scriptReader) end() error {
	if n := r.remaining(); n != 0 {
		return fmt.Errorf("%w: %d trailing bytes", ErrLengthMismatch, n)
	}
	return nil
}

func finish(rec Record, r *scriptReader) (Record, error) {
	if err := r.end(); err != nil {
		return nil, err
	}
	return rec, nil
}
