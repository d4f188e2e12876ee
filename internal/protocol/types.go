package protocol

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/gcash/bchd/chaincfg/chainhash"
)

const (
	OpReturn byte   = 0x6a
	LokadID  uint32 = 0xd101d400

	// HeaderSize covers OP_RETURN, the LOKAD push and the command push.
	HeaderSize = 8
	HashSize   = 32
)

// Command is the byte that selects a record layout.
type Command byte

const (
	CommandDragonseed Command = 0xd0
	CommandHatch      Command = 0xd1
	// CommandWander is shared by Wander and Rescue; the trailing length
	// tells them apart.
	CommandWander    Command = 0xd2
	CommandHibernate Command = 0xd3
	CommandBreed     Command = 0xd4
)

func (c Command) String() string {
	return fmt.Sprintf("0x%02x", byte(c))
}

// Event names a protocol event.
type Event int

const (
	EventSeeding Event = iota
	EventDragonseed
	EventHatch
	EventWander
	EventRescue
	EventHibernate
	EventBreed
	EventTrade
	EventFight
)

var eventNames = [...]string{
	EventSeeding:    "seeding",
	EventDragonseed: "dragonseed",
	EventHatch:      "hatch",
	EventWander:     "wander",
	EventRescue:     "rescue",
	EventHibernate:  "hibernate",
	EventBreed:      "breed",
	EventTrade:      "trade",
	EventFight:      "fight",
}

func (e Event) String() string {
	if e < 0 || int(e) >= len(eventNames) {
		return fmt.Sprintf("event(%d)", int(e))
	}
	return eventNames[e]
}

// ParseEvent resolves a lower-case event name.
func ParseEvent(s string) (Event, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for i, n := range eventNames {
		if n == name {
			return Event(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownEvent, s)
}

// Hash is a 32-byte hashdragon identifier or reference, in script order.
type Hash [HashSize]byte

// ParseHash decodes a 64-character hex string.
func ParseHash(s string) (Hash, error) {
	var h Hash
	b, err := hex.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return h, fmt.Errorf("%w: %v", ErrInvalidHex, err)
	}
	if len(b) != HashSize {
		return h, fmt.Errorf("%w: hash is %d bytes, want %d", ErrLengthMismatch, len(b), HashSize)
	}
	copy(h[:], b)
	return h, nil
}

func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

func (h Hash) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

func (h *Hash) UnmarshalText(text []byte) error {
	parsed, err := ParseHash(string(text))
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}

// Record is one decoded or to-be-encoded protocol event. The set of
// implementations is closed.
type Record interface {
	Event() Event
	Command() Command
	Indices() (input, output uint32)
	record()
}

// Dragonseed seeds a new hashdragon.
type Dragonseed struct {
	Cost        uint64
	Hashdragon  Hash
	InputIndex  uint32
	OutputIndex uint32
}

// Hatch hatches a seeded hashdragon. AnchorRef is the seeding transaction;
// it is not carried on the wire.
type Hatch struct {
	Cost        uint64
	Hashdragon  Hash
	InputIndex  uint32
	OutputIndex uint32
	AnchorRef   *chainhash.Hash
}

// Wander moves a hashdragon to a new owner. The hashdragon is implied by
// the anchor.
type Wander struct {
	InputIndex  uint32
	OutputIndex uint32
	AnchorRef   *chainhash.Hash
}

// Rescue shares Wander's command byte and appends a 32-byte reference.
type Rescue struct {
	InputIndex  uint32
	OutputIndex uint32
	AnchorRef   *chainhash.Hash
	RescueRef   Hash
}

// Hibernate parks a hashdragon.
type Hibernate struct {
	Hashdragon  Hash
	InputIndex  uint32
	OutputIndex uint32
}

func (Dragonseed) Event() Event { return EventDragonseed }
func (Hatch) Event() Event      { return EventHatch }
func (Wander) Event() Event     { return EventWander }
func (Rescue) Event() Event     { return EventRescue }
func (Hibernate) Event() Event  { return EventHibernate }

func (Dragonseed) Command() Command { return CommandDragonseed }
func (Hatch) Command() Command      { return CommandHatch }
func (Wander) Command() Command     { return CommandWander }
func (Rescue) Command() Command     { return CommandWander }
func (Hibernate) Command() Command  { return CommandHibernate }

func (r Dragonseed) Indices() (uint32, uint32) { return r.InputIndex, r.OutputIndex }
func (r Hatch) Indices() (uint32, uint32)      { return r.InputIndex, r.OutputIndex }
func (r Wander) Indices() (uint32, uint32)     { return r.InputIndex, r.OutputIndex }
func (r Rescue) Indices() (uint32, uint32)     { return r.InputIndex, r.OutputIndex }
func (r Hibernate) Indices() (uint32, uint32)  { return r.InputIndex, r.OutputIndex }

func (Dragonseed) record() {}
func (Hatch) record()      {}
func (Wander) record()     {}
func (Rescue) record()     {}
func (Hibernate) record()  {}

// HashdragonOf returns the identifier carried by r, if its layout has one.
func HashdragonOf(r Record) (Hash, bool) {
	switch v := r.(type) {
	case Dragonseed:
		return v.Hashdragon, true
	case Hatch:
		return v.Hashdragon, true
	case Hibernate:
		return v.Hashdragon, true
	default:
		return Hash{}, false
	}
}

// CostOf returns the cost carried by r, if its layout has one.
func CostOf(r Record) (uint64, bool) {
	switch v := r.(type) {
	case Dragonseed:
		return v.Cost, true
	case Hatch:
		return v.Cost, true
	default:
		return 0, false
	}
}

// Summary is a flat view of a record; absent fields are nil.
type Summary struct {
	Event       string  `json:"event"`
	Command     string  `json:"command"`
	InputIndex  uint32  `json:"input_index"`
	OutputIndex uint32  `json:"output_index"`
	Cost        *uint64 `json:"cost,omitempty"`
	Hashdragon  *Hash   `json:"hashdragon,omitempty"`
	AnchorRef   string  `json:"anchor_ref,omitempty"`
	RescueRef   *Hash   `json:"rescue_ref,omitempty"`
}

func Summarize(r Record) Summary {
	in, out := r.Indices()
	s := Summary{
		Event:       r.Event().String(),
		Command:     r.Command().String(),
		InputIndex:  in,
		OutputIndex: out,
	}
	if cost, ok := CostOf(r); ok {
		s.Cost = &cost
	}
	if h, ok := HashdragonOf(r); ok {
		s.Hashdragon = &h
	}
	switch v := r.(type) {
	case Hatch:
		s.AnchorRef = hashString(v.AnchorRef)
	case Wander:
		s.AnchorRef = hashString(v.AnchorRef)
	case Rescue:
		s.AnchorRef = hashString(v.AnchorRef)
		ref := v.RescueRef
		s.RescueRef = &ref
	}
	return s
}

func hashString(h *chainhash.Hash) string {
	if h == nil {
		return ""
	}
	return h.String()
}
