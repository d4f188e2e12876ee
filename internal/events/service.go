// Package events ties lookup, codec, anchor validation and assembly together
// into the operations the CLI and HTTP API expose.
package events

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/danmuck/hashdragon/internal/anchor"
	"github.com/danmuck/hashdragon/internal/assemble"
	"github.com/danmuck/hashdragon/internal/lookup"
	"github.com/danmuck/hashdragon/internal/observability"
	"github.com/danmuck/hashdragon/internal/protocol"
	"github.com/danmuck/hashdragon/internal/protocol/field"
	"github.com/gcash/bchd/chaincfg/chainhash"
	"github.com/libsv/go-bt/v2"
	"github.com/rs/zerolog"
)

var (
	ErrInvalidRequest   = errors.New("events: invalid request")
	ErrUnsupportedEvent = protocol.ErrUnsupportedEvent
)

const (
	// DefaultIndex is used for record indices the caller leaves unset.
	DefaultIndex uint32 = 1

	// DefaultPayment is the value sent to the new owner, in satoshis.
	DefaultPayment uint64 = 2000

	DefaultFee = assemble.FixedFee(500)
)

// ServiceConfig holds transaction defaults.
type ServiceConfig struct {
	Network assemble.Network
	Payment uint64
	Fee     assemble.FeePolicy
}

func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		Network: assemble.MainNet,
		Payment: DefaultPayment,
		Fee:     DefaultFee,
	}
}

// Service is stateless apart from its collaborators and safe for concurrent use.
type Service struct {
	fetcher lookup.Fetcher
	cfg     ServiceConfig
	log     zerolog.Logger
	now     func() time.Time
}

// Option customises a Service.
type Option func(*Service)

// WithClock replaces the wall clock used to pick a byte order for new records.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithLogger(logger zerolog.Logger) Option {
	return func(s *Service) { s.log = logger }
}

func NewService(fetcher lookup.Fetcher, cfg ServiceConfig, opts ...Option) *Service {
	def := DefaultServiceConfig()
	if strings.TrimSpace(string(cfg.Network)) == "" {
		cfg.Network = def.Network
	}
	if cfg.Fee == nil {
		cfg.Fee = def.Fee
	}
	s := &Service{
		fetcher: fetcher,
		cfg:     cfg,
		log:     zerolog.Nop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With().Str("component", "events").Logger()
	return s
}

// EventRequest describes one record to encode. Nil pointers take defaults.
type EventRequest struct {
	Event       protocol.Event
	Hashdragon  *protocol.Hash
	Cost        uint64
	InputIndex  *uint32
	OutputIndex *uint32
	// TxnRef is the anchor transaction. Required for hatch, validated when given otherwise.
	TxnRef    string
	RescueRef *protocol.Hash
	Order     *field.Order
	Mode      protocol.Mode
}

type EventResult struct {
	Record protocol.Record
	Order  field.Order
	Script []byte
	Output string
	Anchor *anchor.Anchor
}

// CreateEvent builds, checks and renders a record.
func (s *Service) CreateEvent(ctx context.Context, req EventRequest) (EventResult, error) {
	var res EventResult
	var anc *anchor.Anchor
	if req.TxnRef != "" {
		a, err := s.DecodeAnchor(ctx, req.TxnRef, req.Hashdragon)
		if err != nil {
			return res, err
		}
		anc = &a
	}

	rec, err := s.buildRecord(req.Event, recordParams{
		hashdragon: req.Hashdragon,
		cost:       req.Cost,
		input:      req.InputIndex,
		output:     req.OutputIndex,
		anchor:     anc,
		rescueRef:  req.RescueRef,
	})
	if err != nil {
		return res, err
	}

	order := s.orderFor(req.Order)
	script, err := protocol.Encode(rec, order)
	observability.RecordCodec("encode", req.Event.String(), err == nil)
	if err != nil {
		return res, err
	}
	out, err := protocol.Format(rec, order, req.Mode)
	if err != nil {
		return res, err
	}
	s.log.Debug().Str("event", req.Event.String()).Str("order", order.String()).Msg("event created")
	return EventResult{Record: rec, Order: order, Script: script, Output: out, Anchor: anc}, nil
}

// TransactionRequest describes a transaction continuing a hashdragon's chain.
type TransactionRequest struct {
	Event       protocol.Event
	Hashdragon  *protocol.Hash
	TxnRef      string
	CoinRef     string
	RescueRef   *protocol.Hash
	Destination string
	Change      string
	InputIndex  *uint32
	OutputIndex *uint32
	Order       *field.Order
	// Payment overrides the configured payment when non-nil.
	Payment *uint64
}

type TransactionResult struct {
	assemble.Result
	Record protocol.Record
	Script []byte
	Anchor *anchor.Anchor
}

// CreateTransaction resolves the anchor and funding coin, encodes the new
// record and assembles the unsigned transaction.
func (s *Service) CreateTransaction(ctx context.Context, req TransactionRequest) (TransactionResult, error) {
	var res TransactionResult
	switch req.Event {
	case protocol.EventWander:
		if strings.TrimSpace(req.TxnRef) == "" {
			return res, fmt.Errorf("%w: wander requires an anchor transaction", ErrInvalidRequest)
		}
	case protocol.EventRescue:
	default:
		return res, fmt.Errorf("%w: no assembly rule for %s", ErrUnsupportedEvent, req.Event)
	}
	if strings.TrimSpace(req.CoinRef) == "" {
		return res, fmt.Errorf("%w: funding coin transaction required", ErrInvalidRequest)
	}

	var anc *anchor.Anchor
	if req.TxnRef != "" {
		a, err := s.DecodeAnchor(ctx, req.TxnRef, req.Hashdragon)
		if err != nil {
			return res, err
		}
		anc = &a
	}
	coin, err := s.fetchTx(ctx, req.CoinRef)
	if err != nil {
		return res, fmt.Errorf("funding coin: %w", err)
	}

	rec, err := s.buildRecord(req.Event, recordParams{
		hashdragon: req.Hashdragon,
		input:      req.InputIndex,
		output:     req.OutputIndex,
		anchor:     anc,
		rescueRef:  req.RescueRef,
	})
	if err != nil {
		return res, err
	}
	order := s.orderFor(req.Order)
	script, err := protocol.Encode(rec, order)
	observability.RecordCodec("encode", req.Event.String(), err == nil)
	if err != nil {
		return res, err
	}

	payment := s.cfg.Payment
	if req.Payment != nil {
		payment = *req.Payment
	}
	areq := assemble.Request{
		Event:       req.Event,
		Funding:     coin,
		Script:      script,
		Destination: req.Destination,
		Change:      req.Change,
		Payment:     payment,
		Fee:         s.cfg.Fee,
		Network:     s.cfg.Network,
	}
	if anc != nil && req.Event == protocol.EventWander {
		areq.Anchor = *anc
	}
	built, err := assemble.Assemble(areq)
	observability.RecordAssemble(req.Event.String(), err == nil)
	if err != nil {
		return res, err
	}
	s.log.Info().
		Str("event", req.Event.String()).
		Str("txid", built.Tx.TxID()).
		Uint64("fee", built.Fee).
		Uint64("change", built.Change).
		Msg("transaction assembled")
	return TransactionResult{Result: built, Record: rec, Script: script, Anchor: anc}, nil
}

// DecodeScript decodes a hex script with an explicit byte order.
func (s *Service) DecodeScript(script string, o field.Order) (protocol.Record, error) {
	rec, err := protocol.DecodeHex(script, o)
	event := ""
	if rec != nil {
		event = rec.Event().String()
	}
	observability.RecordCodec("decode", event, err == nil)
	return rec, err
}

// DecodeAnchor fetches txid and validates its protocol output against claimed.
func (s *Service) DecodeAnchor(ctx context.Context, txid string, claimed *protocol.Hash) (anchor.Anchor, error) {
	rec, err := s.fetcher.Fetch(ctx, txid)
	if err != nil {
		return anchor.Anchor{}, err
	}
	tx, err := rec.Tx()
	if err != nil {
		return anchor.Anchor{}, err
	}
	ts := rec.Time
	if ts == 0 {
		ts = rec.BlockTime
	}
	if ts == 0 {
		// Unconfirmed and unstamped: it was broadcast under the current rules.
		ts = uint32(s.now().Unix())
		s.log.Debug().Str("txid", txid).Uint32("time", ts).Msg("anchor has no timestamp, using clock")
	}
	a, err := anchor.Validate(tx, ts, claimed)
	event := ""
	if a.Record != nil {
		event = a.Record.Event().String()
	}
	observability.RecordCodec("decode", event, err == nil)
	if err != nil {
		s.log.Debug().Err(err).Str("txid", txid).Msg("anchor rejected")
		return anchor.Anchor{}, err
	}
	return a, nil
}

func (s *Service) fetchTx(ctx context.Context, txid string) (*bt.Tx, error) {
	rec, err := s.fetcher.Fetch(ctx, txid)
	if err != nil {
		return nil, err
	}
	return rec.Tx()
}

func (s *Service) orderFor(o *field.Order) field.Order {
	if o != nil {
		return *o
	}
	return protocol.ByteOrderAt(uint32(s.now().Unix()))
}

type recordParams struct {
	hashdragon    *protocol.Hash
	cost          uint64
	input, output *uint32
	anchor        *anchor.Anchor
	rescueRef     *protocol.Hash
}

func (s *Service) buildRecord(e protocol.Event, p recordParams) (protocol.Record, error) {
	in, out := index(p.input), index(p.output)
	switch e {
	case protocol.EventDragonseed:
		hd, err := required(e, p.hashdragon)
		if err != nil {
			return nil, err
		}
		return protocol.Dragonseed{Cost: p.cost, Hashdragon: hd, InputIndex: in, OutputIndex: out}, nil
	case protocol.EventHatch:
		hd, err := required(e, p.hashdragon)
		if err != nil {
			return nil, err
		}
		if p.anchor == nil {
			return nil, fmt.Errorf("%w: hatch requires an anchor transaction", ErrInvalidRequest)
		}
		return protocol.Hatch{Cost: p.cost, Hashdragon: hd, InputIndex: in, OutputIndex: out, AnchorRef: anchorRef(p.anchor)}, nil
	case protocol.EventWander:
		return protocol.Wander{InputIndex: in, OutputIndex: out, AnchorRef: anchorRef(p.anchor)}, nil
	case protocol.EventRescue:
		if p.rescueRef == nil {
			return nil, fmt.Errorf("%w: rescue requires a rescue reference", ErrInvalidRequest)
		}
		return protocol.Rescue{InputIndex: in, OutputIndex: out, AnchorRef: anchorRef(p.anchor), RescueRef: *p.rescueRef}, nil
	case protocol.EventHibernate:
		hd, err := required(e, p.hashdragon)
		if err != nil {
			return nil, err
		}
		return protocol.Hibernate{Hashdragon: hd, InputIndex: in, OutputIndex: out}, nil
	default:
		return nil, fmt.Errorf("%w: %s has no record layout", ErrUnsupportedEvent, e)
	}
}

func required(e protocol.Event, h *protocol.Hash) (protocol.Hash, error) {
	if h == nil {
		return protocol.Hash{}, fmt.Errorf("%w: %s requires a hashdragon", ErrInvalidRequest, e)
	}
	return *h, nil
}

func index(v *uint32) uint32 {
	if v == nil {
		return DefaultIndex
	}
	return *v
}

func anchorRef(a *anchor.Anchor) *chainhash.Hash {
	if a == nil {
		return nil
	}
	h, err := chainhash.NewHashFromStr(a.TxID)
	if err != nil {
		return nil
	}
	return h
}
