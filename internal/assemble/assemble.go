// Package assemble builds unsigned transactions that continue a hashdragon's
// chain of events.
package assemble

import (
	"errors"
	"fmt"

	"github.com/danmuck/hashdragon/internal/anchor"
	"github.com/danmuck/hashdragon/internal/protocol"
	"github.com/libsv/go-bt/v2"
	"github.com/libsv/go-bt/v2/bscript"
)

var (
	ErrUnsupportedEvent     = protocol.ErrUnsupportedEvent
	ErrInsufficientFunds    = errors.New("assemble: insufficient funds")
	ErrInvalidAddress       = errors.New("assemble: invalid address")
	ErrMissingFundingOutput = errors.New("assemble: funding transaction has no output 0")
	ErrMissingAnchor        = errors.New("assemble: anchor transaction id required")
	ErrNoFeePolicy          = errors.New("assemble: fee policy required")
)

const (
	TxVersion  uint32 = 1
	TxLockTime uint32 = 0

	// SequenceFinal disables relative lock-time signalling.
	SequenceFinal uint32 = 0xffffffff

	// FundingOutputIndex is the output of the funding coin that is spent.
	FundingOutputIndex uint32 = 0

	// UnlockingScriptEstimate is the size of a P2PKH signature script, used
	// to price the unsigned transaction as if it were signed.
	UnlockingScriptEstimate = 107
)

// Request is everything needed to assemble one event transaction.
type Request struct {
	Event protocol.Event
	// Anchor is spent by Wander and ignored by Rescue.
	Anchor      anchor.Anchor
	Funding     *bt.Tx
	Script      []byte
	Destination string
	Change      string
	Payment     uint64
	Fee         FeePolicy
	Network     Network
}

// Result is the assembled transaction with its pricing.
type Result struct {
	Tx            *bt.Tx
	Fee           uint64
	Change        uint64
	EstimatedSize int
}

// Assemble returns an unsigned transaction with the record at output 0, the
// payment at output 1 and change at output 2.
func Assemble(req Request) (Result, error) {
	spendAnchor, err := anchorRule(req.Event)
	if err != nil {
		return Result{}, err
	}
	if _, err := protocol.PeekCommand(req.Script); err != nil {
		return Result{}, err
	}
	if req.Fee == nil {
		return Result{}, ErrNoFeePolicy
	}
	if req.Funding == nil || len(req.Funding.Outputs) <= int(FundingOutputIndex) || req.Funding.Outputs[FundingOutputIndex] == nil {
		return Result{}, ErrMissingFundingOutput
	}
	funds := req.Funding.Outputs[FundingOutputIndex].Satoshis

	destination, err := LockingScript(req.Destination, req.Network)
	if err != nil {
		return Result{}, fmt.Errorf("destination: %w", err)
	}
	change, err := LockingScript(req.Change, req.Network)
	if err != nil {
		return Result{}, fmt.Errorf("change: %w", err)
	}

	tx := bt.NewTx()
	tx.Version = TxVersion
	tx.LockTime = TxLockTime

	if spendAnchor {
		if req.Anchor.TxID == "" {
			return Result{}, ErrMissingAnchor
		}
		if err := addInput(tx, req.Anchor.TxID, req.Anchor.OutputIndex); err != nil {
			return Result{}, fmt.Errorf("anchor input: %w", err)
		}
	}
	if err := addInput(tx, req.Funding.TxID(), FundingOutputIndex); err != nil {
		return Result{}, fmt.Errorf("funding input: %w", err)
	}

	script := make([]byte, len(req.Script))
	copy(script, req.Script)
	changeOut := &bt.Output{LockingScript: change}
	tx.Outputs = append(tx.Outputs,
		&bt.Output{Satoshis: 0, LockingScript: bscript.NewFromBytes(script)},
		&bt.Output{Satoshis: req.Payment, LockingScript: destination},
		changeOut,
	)

	size := EstimateSize(tx)
	fee := req.Fee.Fee(size)
	if req.Payment > funds || fee >= funds-req.Payment {
		return Result{}, fmt.Errorf("%w: funding %d, payment %d, fee %d", ErrInsufficientFunds, funds, req.Payment, fee)
	}
	changeOut.Satoshis = funds - req.Payment - fee

	return Result{Tx: tx, Fee: fee, Change: changeOut.Satoshis, EstimatedSize: size}, nil
}

// anchorRule reports whether the event spends its anchor output. Only Wander
// and Rescue have an assembly rule.
func anchorRule(e protocol.Event) (bool, error) {
	switch e {
	case protocol.EventWander:
		return true, nil
	case protocol.EventRescue:
		return false, nil
	default:
		return false, fmt.Errorf("%w: no assembly rule for %s", ErrUnsupportedEvent, e)
	}
}

// EstimateSize is the serialized size once every input carries a P2PKH
// signature script.
func EstimateSize(tx *bt.Tx) int {
	return len(tx.Bytes()) + len(tx.Inputs)*UnlockingScriptEstimate
}

func addInput(tx *bt.Tx, txid string, vout uint32) error {
	in := &bt.Input{
		PreviousTxOutIndex: vout,
		SequenceNumber:     SequenceFinal,
		UnlockingScript:    bscript.NewFromBytes(nil),
	}
	if err := in.PreviousTxIDAddStr(txid); err != nil {
		return err
	}
	tx.Inputs = append(tx.Inputs, in)
	return nil
}
