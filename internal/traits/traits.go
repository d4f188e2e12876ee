// Package traits reads the virtues encoded in a hashdragon identifier.
package traits

import (
	"errors"
	"fmt"
	"io"
	"math/bits"
	"strings"

	"github.com/danmuck/hashdragon/internal/protocol"
	"github.com/danmuck/hashdragon/internal/protocol/field"
	"github.com/fatih/color"
)

// Marker is the first byte of every hashdragon.
const Marker byte = 0xd4

// PowerfulStrength is the set-bit count above which a hashdragon is powerful.
const PowerfulStrength = 140

// SigilBase is the first code point of the Ethiopic syllable block.
const SigilBase rune = 0x1200

var ErrNotAHashdragon = errors.New("traits: identifier does not start with 0xd4")

// Virtue is a one-byte attribute with its band label, if any.
type Virtue struct {
	Name  string
	Value uint8
	Label string
}

// Percent is the historical virtue scale, value out of 200.
func (v Virtue) Percent() float64 {
	return float64(v.Value) * 100 / 200
}

// Traits is everything Describe extracts from one identifier.
type Traits struct {
	Hashdragon    protocol.Hash
	Strength      int
	Identity      uint16
	InnerLight    Virtue
	Colour        [3]uint8
	Presence      Virtue
	Charm         Virtue
	Strangeness   Virtue
	Beauty        Virtue
	Truth         Virtue
	Magic         Virtue
	SpecialPowers uint32
	Manifestation uint32
	Arcana        uint32
	Cabala        uint32
	Maturity      uint16
	Sigil         string
}

func (t Traits) Powerful() bool {
	return t.Strength > PowerfulStrength
}

// Virtues lists the one-byte virtues in report order.
func (t Traits) Virtues() []Virtue {
	return []Virtue{t.InnerLight, t.Presence, t.Charm, t.Strangeness, t.Beauty, t.Truth, t.Magic}
}

// Describe decodes h. The layout is positional; every field is big-endian.
func Describe(h protocol.Hash) (Traits, error) {
	if h[0] != Marker {
		return Traits{}, fmt.Errorf("%w: first byte is 0x%02x", ErrNotAHashdragon, h[0])
	}
	b := h[:]

	strength := 0
	for _, x := range b {
		strength += bits.OnesCount8(x)
	}

	t := Traits{
		Hashdragon:    h,
		Strength:      strength,
		Identity:      uint16(be(b[1:3])),
		InnerLight:    virtue("Inner Light", b[3], innerLight),
		Colour:        [3]uint8{b[4], b[5], b[6]},
		Presence:      virtue("Presence", b[7], presence),
		Charm:         virtue("Charm", b[8], charm),
		Strangeness:   virtue("Strangeness", b[9], strangeness),
		Beauty:        virtue("Beauty", b[10], beauty),
		Truth:         virtue("Truth", b[11], truth),
		Magic:         virtue("Magic", b[12], magic),
		SpecialPowers: uint32(be(b[13:16])),
		Manifestation: uint32(be(b[16:20])),
		Arcana:        uint32(be(b[20:24])),
		Cabala:        uint32(be(b[24:28])),
		Maturity:      uint16(be(b[28:30])),
		Sigil:         string([]rune{SigilBase + rune(b[30]), SigilBase + rune(b[31])}),
	}
	return t, nil
}

// be reads a fixed slice of the identifier; widths come from the layout above.
func be(b []byte) uint64 {
	v, err := field.Unpack(b, len(b), field.BigEndian)
	if err != nil {
		panic(fmt.Sprintf("traits: layout width %d: %v", len(b), err))
	}
	return v
}

// Render writes the human report. colour enables the 24-bit swatch; callers
// decide whether the output is a terminal.
func Render(w io.Writer, t Traits, colour bool) error {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Strength: %d", t.Strength)
	if t.Powerful() {
		sb.WriteString("  (Powerful)")
	}
	sb.WriteByte('\n')
	fmt.Fprintf(&sb, "Identity: %016b\n", t.Identity)

	writeVirtue(&sb, t.InnerLight)
	swatch := "■■■■"
	if colour {
		c := color.RGB(int(t.Colour[0]), int(t.Colour[1]), int(t.Colour[2]))
		c.EnableColor()
		swatch = c.Sprint(swatch)
	}
	fmt.Fprintf(&sb, "Colour: %s #%02x%02x%02x\n", swatch, t.Colour[0], t.Colour[1], t.Colour[2])
	for _, v := range t.Virtues()[1:] {
		writeVirtue(&sb, v)
	}

	fmt.Fprintf(&sb, "Special Powers: %024b\n", t.SpecialPowers)
	fmt.Fprintf(&sb, "Manifestation: %d\n", t.Manifestation)
	fmt.Fprintf(&sb, "Arcana: %d\n", t.Arcana)
	fmt.Fprintf(&sb, "Cabala: %d\n", t.Cabala)
	fmt.Fprintf(&sb, "Maturity: %d\n", t.Maturity)
	fmt.Fprintf(&sb, "Sigil: %s\n", t.Sigil)

	_, err := io.WriteString(w, sb.String())
	return err
}

func writeVirtue(sb *strings.Builder, v Virtue) {
	fmt.Fprintf(sb, "%s: %g%%", v.Name, v.Percent())
	if v.Label != "" {
		fmt.Fprintf(sb, "  (%s)", v.Label)
	}
	sb.WriteByte('\n')
}
