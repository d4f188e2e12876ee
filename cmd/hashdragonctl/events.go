package main

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/danmuck/hashdragon/internal/events"
	"github.com/danmuck/hashdragon/internal/protocol"
	"github.com/danmuck/hashdragon/internal/protocol/field"
	"github.com/spf13/cobra"
)

// recordFlags are shared by create-event and create-txn.
type recordFlags struct {
	txnRef      string
	rescueRef   string
	inputIndex  uint32
	outputIndex uint32
	order       string
	legacy      bool
}

func (f *recordFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.txnRef, "txn-ref", "", "anchor transaction id")
	cmd.Flags().StringVar(&f.rescueRef, "rescue-ref", "", "rescue reference transaction id (rescue only)")
	cmd.Flags().Uint32Var(&f.inputIndex, "input-index", events.DefaultIndex, "record input index")
	cmd.Flags().Uint32Var(&f.outputIndex, "output-index", events.DefaultIndex, "record output index")
	cmd.Flags().StringVar(&f.order, "order", "", "field byte order: big or little (default follows the current time)")
	cmd.Flags().BoolVar(&f.legacy, "legacy", false, "use the pre-cutover little-endian layout")
}

func (f *recordFlags) resolve(cmd *cobra.Command) (rescue *protocol.Hash, in, out *uint32, order *field.Order, err error) {
	if strings.TrimSpace(f.rescueRef) != "" {
		h, err := protocol.ParseHash(f.rescueRef)
		if err != nil {
			return nil, nil, nil, nil, fmt.Errorf("rescue-ref: %w", err)
		}
		rescue = &h
	}
	if cmd.Flags().Changed("input-index") {
		v := f.inputIndex
		in = &v
	}
	if cmd.Flags().Changed("output-index") {
		v := f.outputIndex
		out = &v
	}
	switch {
	case strings.TrimSpace(f.order) != "":
		o, err := field.ParseOrder(f.order)
		if err != nil {
			return nil, nil, nil, nil, err
		}
		order = &o
	case f.legacy:
		o := field.LittleEndian
		order = &o
	}
	return rescue, in, out, order, nil
}

type eventOutput struct {
	Output string           `json:"output"`
	Script string           `json:"script"`
	Order  string           `json:"order"`
	Record protocol.Summary `json:"record"`
}

func (a *app) createEventCmd() *cobra.Command {
	var flags recordFlags
	var hexOut bool
	cmd := &cobra.Command{
		Use:   "create-event <event> <hashdragon> <cost>",
		Short: "Encode a protocol record",
		Long: "Encode a protocol record. Hatch requires --txn-ref; the anchor is fetched\n" +
			"and checked against <hashdragon> before the record is emitted.",
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			event, err := protocol.ParseEvent(args[0])
			if err != nil {
				return err
			}
			hd, err := protocol.ParseHash(args[1])
			if err != nil {
				return fmt.Errorf("hashdragon: %w", err)
			}
			cost, err := strconv.ParseUint(strings.TrimSpace(args[2]), 10, 64)
			if err != nil {
				return fmt.Errorf("cost: %w", err)
			}
			rescue, in, out, order, err := flags.resolve(cmd)
			if err != nil {
				return err
			}
			mode := protocol.ModeHuman
			if hexOut {
				mode = protocol.ModeHex
			}

			res, err := a.service().CreateEvent(cmd.Context(), events.EventRequest{
				Event:       event,
				Hashdragon:  &hd,
				Cost:        cost,
				InputIndex:  in,
				OutputIndex: out,
				TxnRef:      strings.TrimSpace(flags.txnRef),
				RescueRef:   rescue,
				Order:       order,
				Mode:        mode,
			})
			if err != nil {
				return err
			}
			return a.print(cmd, eventOutput{
				Output: res.Output,
				Script: hex.EncodeToString(res.Script),
				Order:  res.Order.String(),
				Record: protocol.Summarize(res.Record),
			}, res.Output)
		},
	}
	flags.register(cmd)
	cmd.Flags().BoolVar(&hexOut, "hex", false, "print the script as hex instead of opcodes")
	return cmd
}

type txnOutput struct {
	TxID          string           `json:"txid"`
	Hex           string           `json:"hex"`
	Fee           uint64           `json:"fee"`
	Change        uint64           `json:"change"`
	EstimatedSize int              `json:"estimated_size"`
	Record        protocol.Summary `json:"record"`
}

func (a *app) createTxnCmd() *cobra.Command {
	var flags recordFlags
	var coinRef string
	var payment uint64
	cmd := &cobra.Command{
		Use:   "create-txn <event> <hashdragon> <destination> <change>",
		Short: "Assemble an unsigned transaction for a wander or rescue",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			event, err := protocol.ParseEvent(args[0])
			if err != nil {
				return err
			}
			hd, err := protocol.ParseHash(args[1])
			if err != nil {
				return fmt.Errorf("hashdragon: %w", err)
			}
			rescue, in, out, order, err := flags.resolve(cmd)
			if err != nil {
				return err
			}
			req := events.TransactionRequest{
				Event:       event,
				Hashdragon:  &hd,
				TxnRef:      strings.TrimSpace(flags.txnRef),
				CoinRef:     strings.TrimSpace(coinRef),
				RescueRef:   rescue,
				Destination: args[2],
				Change:      args[3],
				InputIndex:  in,
				OutputIndex: out,
				Order:       order,
			}
			if cmd.Flags().Changed("payment") {
				req.Payment = &payment
			}

			res, err := a.service().CreateTransaction(cmd.Context(), req)
			if err != nil {
				return err
			}
			raw := res.Tx.String()
			return a.print(cmd, txnOutput{
				TxID:          res.Tx.TxID(),
				Hex:           raw,
				Fee:           res.Fee,
				Change:        res.Change,
				EstimatedSize: res.EstimatedSize,
				Record:        protocol.Summarize(res.Record),
			}, raw)
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&coinRef, "coin-ref", "", "funding coin transaction id (output 0 is spent)")
	cmd.Flags().Uint64Var(&payment, "payment", 0, "satoshis paid to the destination (default from config)")
	_ = cmd.MarkFlagRequired("coin-ref")
	return cmd
}

func (a *app) decodeCmd() *cobra.Command {
	var bigEndian bool
	cmd := &cobra.Command{
		Use:   "decode <script-hex>",
		Short: "Decode a protocol record script",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := a.service().DecodeScript(args[0], protocol.OrderFor(bigEndian))
			if err != nil {
				return err
			}
			sum := protocol.Summarize(rec)
			return a.print(cmd, sum, formatSummary(sum))
		},
	}
	cmd.Flags().BoolVar(&bigEndian, "big-endian", false, "read integer fields as big-endian")
	return cmd
}

func (a *app) anchorCmd() *cobra.Command {
	var claimed string
	cmd := &cobra.Command{
		Use:   "anchor <txid>",
		Short: "Fetch a transaction and validate its protocol output",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var claim *protocol.Hash
			if strings.TrimSpace(claimed) != "" {
				h, err := protocol.ParseHash(claimed)
				if err != nil {
					return fmt.Errorf("hashdragon: %w", err)
				}
				claim = &h
			}
			anc, err := a.service().DecodeAnchor(cmd.Context(), args[0], claim)
			if err != nil {
				return err
			}
			view := map[string]any{
				"txid":         anc.TxID,
				"output_index": anc.OutputIndex,
				"breeding":     anc.Breeding,
				"order":        anc.Order.String(),
			}
			text := fmt.Sprintf("txid: %s\noutput_index: %d\nbreeding: %t\norder: %s", anc.TxID, anc.OutputIndex, anc.Breeding, anc.Order)
			if anc.Record != nil {
				sum := protocol.Summarize(anc.Record)
				view["record"] = sum
				text += "\n" + formatSummary(sum)
			}
			return a.print(cmd, view, text)
		},
	}
	cmd.Flags().StringVar(&claimed, "hashdragon", "", "expected hashdragon identifier")
	return cmd
}

func formatSummary(s protocol.Summary) string {
	lines := []string{
		"event: " + s.Event,
		"command: " + s.Command,
		fmt.Sprintf("input_index: %d", s.InputIndex),
		fmt.Sprintf("output_index: %d", s.OutputIndex),
	}
	if s.Cost != nil {
		lines = append(lines, fmt.Sprintf("cost: %d", *s.Cost))
	}
	if s.Hashdragon != nil {
		lines = append(lines, "hashdragon: "+s.Hashdragon.String())
	}
	if s.AnchorRef != "" {
		lines = append(lines, "anchor_ref: "+s.AnchorRef)
	}
	if s.RescueRef != nil {
		lines = append(lines, "rescue_ref: "+s.RescueRef.String())
	}
	return strings.Join(lines, "\n")
}
