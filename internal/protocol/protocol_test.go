package protocol

import (
	"encoding/hex"
	"errors"
	"strings"
	"testing"

	"github.com/danmuck/hashdragon/internal/protocol/field"
)

const fixtureHashdragon = "d4b74244fde6c5bdad53ce7606fa1e7d8657d9a3debbdcb0132f8e9580fa5d76"

func mustHash(t *testing.T, s string) Hash {
	t.Helper()
	h, err := ParseHash(s)
	if err != nil {
		t.Fatalf("parse hash: %v", err)
	}
	return h
}

func TestEncodeLegacyHatchFixture(t *testing.T) {
	rec := Hatch{
		Cost:        0,
		Hashdragon:  mustHash(t, fixtureHashdragon),
		InputIndex:  1,
		OutputIndex: 1,
	}
	got, err := EncodeHex(rec, field.LittleEndian)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	want := "6a04d101d40001d10401000000040100000008000000000000000020" + fixtureHashdragon
	if got != want {
		t.Fatalf("hatch script mismatch:\n got=%s\nwant=%s", got, want)
	}
}

func TestEncodeDragonseedFixedLayout(t *testing.T) {
	rec := Dragonseed{
		Cost:        0x0102,
		Hashdragon:  mustHash(t, fixtureHashdragon),
		InputIndex:  1,
		OutputIndex: 1,
	}
	want := "6a04d101d40001d0" +
		"0801000000" +
		"0801000000" +
		"100000000000000102" +
		"20" + fixtureHashdragon
	for _, o := range []field.Order{field.BigEndian, field.LittleEndian} {
		got, err := EncodeHex(rec, o)
		if err != nil {
			t.Fatalf("encode %s: %v", o, err)
		}
		if got != want {
			t.Fatalf("dragonseed %s:\n got=%s\nwant=%s", o, got, want)
		}
	}
}

func TestRoundTripEveryVariant(t *testing.T) {
	hd := mustHash(t, fixtureHashdragon)
	ref := mustHash(t, strings.Repeat("ab", 32))
	records := []Record{
		Dragonseed{Cost: 5000, Hashdragon: hd, InputIndex: 1, OutputIndex: 2},
		Hatch{Cost: 1 << 40, Hashdragon: hd, InputIndex: 3, OutputIndex: 4},
		Wander{InputIndex: 1, OutputIndex: 1},
		Rescue{InputIndex: 7, OutputIndex: 9, RescueRef: ref},
		Hibernate{Hashdragon: hd, InputIndex: 0, OutputIndex: 0xffffffff},
	}
	for _, o := range []field.Order{field.BigEndian, field.LittleEndian} {
		for _, rec := range records {
			script, err := Encode(rec, o)
			if err != nil {
				t.Fatalf("encode %s %s: %v", rec.Event(), o, err)
			}
			got, err := Decode(script, o)
			if err != nil {
				t.Fatalf("decode %s %s: %v", rec.Event(), o, err)
			}
			if got != rec {
				t.Fatalf("round trip %s %s: got %#v want %#v", rec.Event(), o, got, rec)
			}
		}
	}
}

func TestDecodeRejectsHeader(t *testing.T) {
	valid, err := Encode(Wander{InputIndex: 1, OutputIndex: 1}, field.BigEndian)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	for i := 0; i < 6; i++ {
		bad := append([]byte(nil), valid...)
		bad[i] ^= 0xff
		if _, err := Decode(bad, field.BigEndian); !errors.Is(err, ErrMalformedHeader) {
			t.Fatalf("byte %d flipped: expected ErrMalformedHeader, got %v", i, err)
		}
	}
	if _, err := Decode(valid[:5], field.BigEndian); !errors.Is(err, ErrMalformedHeader) {
		t.Fatalf("short header: expected ErrMalformedHeader, got %v", err)
	}
	if _, err := Decode(nil, field.BigEndian); !errors.Is(err, ErrMalformedHeader) {
		t.Fatalf("empty script: expected ErrMalformedHeader, got %v", err)
	}
}

func TestDecodeWanderRescueByLength(t *testing.T) {
	wander, err := DecodeHex("6a04d101d40001d204000000010400000001", field.BigEndian)
	if err != nil {
		t.Fatalf("decode wander: %v", err)
	}
	w, ok := wander.(Wander)
	if !ok || w.InputIndex != 1 || w.OutputIndex != 1 {
		t.Fatalf("expected Wander{1,1}, got %#v", wander)
	}

	refHex := strings.Repeat("5a", 32)
	rescue, err := DecodeHex("6a04d101d40001d204000000010400000001"+"20"+refHex, field.BigEndian)
	if err != nil {
		t.Fatalf("decode rescue: %v", err)
	}
	r, ok := rescue.(Rescue)
	if !ok || r.InputIndex != 1 || r.OutputIndex != 1 || r.RescueRef.String() != refHex {
		t.Fatalf("expected Rescue{1,1,%s}, got %#v", refHex, rescue)
	}
	if _, has := HashdragonOf(rescue); has {
		t.Fatalf("rescue reference must not be reported as a hashdragon")
	}

	// Truncated index push.
	if _, err := DecodeHex("6a04d101d40001d2040000000104000000", field.BigEndian); !errors.Is(err, ErrLengthMismatch) {
		t.Fatalf("truncated wander: expected ErrLengthMismatch, got %v", err)
	}
	// A trailing push that is not 32 bytes.
	if _, err := DecodeHex("6a04d101d40001d20400000001040000000101ff", field.BigEndian); !errors.Is(err, ErrLengthMismatch) {
		t.Fatalf("odd trailer: expected ErrLengthMismatch, got %v", err)
	}
}

func TestDecodeUnknownCommand(t *testing.T) {
	for _, cmd := range []byte{0x00, 0xd4, 0xd5, 0xff} {
		script := append([]byte(nil), header...)
		script = append(script, cmd)
		if _, err := Decode(script, field.BigEndian); !errors.Is(err, ErrUnknownCommand) {
			t.Fatalf("cmd 0x%02x: expected ErrUnknownCommand, got %v", cmd, err)
		}
	}
}

func TestDecodeTrailingBytes(t *testing.T) {
	script, err := Encode(Hibernate{Hashdragon: mustHash(t, fixtureHashdragon)}, field.BigEndian)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	script = append(script, 0x00)
	if _, err := Decode(script, field.BigEndian); !errors.Is(err, ErrLengthMismatch) {
		t.Fatalf("expected ErrLengthMismatch, got %v", err)
	}
}

func TestDecodeRespectsOrder(t *testing.T) {
	script, err := Encode(Wander{InputIndex: 1, OutputIndex: 2}, field.LittleEndian)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := Decode(script, field.BigEndian)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	w := got.(Wander)
	if w.InputIndex != 1<<24 || w.OutputIndex != 2<<24 {
		t.Fatalf("expected byte-swapped indices, got %#v", w)
	}
}

func TestHumanRendering(t *testing.T) {
	rec := Hatch{Hashdragon: mustHash(t, fixtureHashdragon), InputIndex: 1, OutputIndex: 1}
	got, err := Format(rec, field.BigEndian, ModeHuman)
	if err != nil {
		t.Fatalf("format: %v", err)
	}
	want := "OP_RETURN 0xd101d400 0xd1 00000001 00000001 0000000000000000 " + fixtureHashdragon
	if got != want {
		t.Fatalf("human:\n got=%s\nwant=%s", got, want)
	}
	if _, err := Format(rec, field.BigEndian, Mode(7)); !errors.Is(err, ErrUnknownMode) {
		t.Fatalf("expected ErrUnknownMode, got %v", err)
	}
}

func TestPeekCommand(t *testing.T) {
	raw, _ := hex.DecodeString("6a04d101d40001d4")
	cmd, err := PeekCommand(raw)
	if err != nil {
		t.Fatalf("peek: %v", err)
	}
	if cmd != CommandBreed {
		t.Fatalf("expected breed command, got %s", cmd)
	}
}

func TestParseEventAndHash(t *testing.T) {
	for _, name := range []string{"seeding", "dragonseed", "hatch", "wander", "rescue", "hibernate", "breed"} {
		e, err := ParseEvent(name)
		if err != nil {
			t.Fatalf("parse %q: %v", name, err)
		}
		if e.String() != name {
			t.Fatalf("event name round trip: %q -> %q", name, e.String())
		}
	}
	if _, err := ParseEvent("moult"); !errors.Is(err, ErrUnknownEvent) {
		t.Fatalf("expected ErrUnknownEvent, got %v", err)
	}
	if _, err := ParseHash("d4b7"); !errors.Is(err, ErrLengthMismatch) {
		t.Fatalf("expected ErrLengthMismatch, got %v", err)
	}
	if _, err := ParseHash(strings.Repeat("zz", 32)); !errors.Is(err, ErrInvalidHex) {
		t.Fatalf("expected ErrInvalidHex, got %v", err)
	}
}

func TestEncodeUnsupported(t *testing.T) {
	if _, err := Encode(nil, field.BigEndian); !errors.Is(err, ErrUnsupportedEvent) {
		t.Fatalf("expected ErrUnsupportedEvent, got %v", err)
	}
	if _, err := Encode(Wander{}, field.Order(3)); !errors.Is(err, field.ErrInvalidOrder) {
		t.Fatalf("expected ErrInvalidOrder, got %v", err)
	}
}

func TestByteOrderPolicyCutover(t *testing.T) {
	cases := []struct {
		ts   uint32
		want field.Order
	}{
		{ts: 0, want: field.LittleEndian},
		{ts: BigEndianCutover - 1, want: field.LittleEndian},
		{ts: BigEndianCutover, want: field.LittleEndian},
		{ts: BigEndianCutover + 1, want: field.BigEndian},
	}
	for _, tc := range cases {
		if got := ByteOrderAt(tc.ts); got != tc.want {
			t.Fatalf("ts=%d: got %s want %s", tc.ts, got, tc.want)
		}
	}
}

func TestSummarizeMarksAbsentFields(t *testing.T) {
	s := Summarize(Wander{InputIndex: 1, OutputIndex: 1})
	if s.Cost != nil || s.Hashdragon != nil || s.RescueRef != nil {
		t.Fatalf("wander summary should have no cost/hashdragon/rescue ref: %+v", s)
	}
	s = Summarize(Hatch{Cost: 0, Hashdragon: mustHash(t, fixtureHashdragon)})
	if s.Cost == nil || *s.Cost != 0 {
		t.Fatalf("zero cost must be present: %+v", s)
	}
	if s.Hashdragon == nil || s.Hashdragon.String() != fixtureHashdragon {
		t.Fatalf("hashdragon missing: %+v", s)
	}
}
