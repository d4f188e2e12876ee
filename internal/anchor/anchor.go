// Package anchor checks that a prior transaction carries a hashdragons record
// at output 0 and extracts the fields needed to chain from it.
package anchor

import (
	"errors"
	"fmt"

	"github.com/danmuck/hashdragon/internal/protocol"
	"github.com/danmuck/hashdragon/internal/protocol/field"
	"github.com/libsv/go-bt/v2"
)

var (
	ErrMissingProtocolOutput = errors.New("anchor: transaction has no outputs")
	ErrNotAProtocolOutput    = errors.New("anchor: output 0 is not a hashdragons record")
	ErrIdentifierMismatch    = errors.New("anchor: hashdragon identifier mismatch")
	ErrNilTransaction        = errors.New("anchor: nil transaction")
)

// BreedingOutputIndex is spent for breed anchors, whose layout is not decoded.
const BreedingOutputIndex uint32 = 1

// Anchor is the chaining state recovered from a prior transaction.
type Anchor struct {
	TxID        string
	OutputIndex uint32
	// Record is nil for breed anchors.
	Record   protocol.Record
	Breeding bool
	Order    field.Order
}

// Validate decodes tx's first output with the byte order selected by the
// anchor's timestamp. When claimed is non-nil and the record carries a
// hashdragon, the two must match.
func Validate(tx *bt.Tx, timestamp uint32, claimed *protocol.Hash) (Anchor, error) {
	if tx == nil {
		return Anchor{}, ErrNilTransaction
	}
	if len(tx.Outputs) == 0 || tx.Outputs[0] == nil {
		return Anchor{}, ErrMissingProtocolOutput
	}
	var script []byte
	if ls := tx.Outputs[0].LockingScript; ls != nil {
		script = []byte(*ls)
	}
	if len(script) == 0 || script[0] != protocol.OpReturn {
		return Anchor{}, fmt.Errorf("%w: not an OP_RETURN script", ErrNotAProtocolOutput)
	}

	order := protocol.ByteOrderAt(timestamp)
	out := Anchor{TxID: tx.TxID(), Order: order}

	cmd, err := protocol.PeekCommand(script)
	if err != nil {
		return Anchor{}, fmt.Errorf("%w: %w", ErrNotAProtocolOutput, err)
	}
	if cmd == protocol.CommandBreed {
		out.Breeding = true
		out.OutputIndex = BreedingOutputIndex
		return out, nil
	}

	rec, err := protocol.Decode(script, order)
	if err != nil {
		return Anchor{}, fmt.Errorf("%w: %w", ErrNotAProtocolOutput, err)
	}
	if claimed != nil {
		if h, ok := protocol.HashdragonOf(rec); ok && h != *claimed {
			return Anchor{}, fmt.Errorf("%w: anchor %s carries %s, claimed %s", ErrIdentifierMismatch, out.TxID, h, *claimed)
		}
	}
	_, out.OutputIndex = rec.Indices()
	out.Record = rec
	return out, nil
}
