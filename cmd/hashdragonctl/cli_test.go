package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/danmuck/hashdragon/internal/lookup"
	"github.com/danmuck/hashdragon/internal/protocol"
	"github.com/danmuck/hashdragon/internal/protocol/field"
	"github.com/libsv/go-bt/v2"
	"github.com/libsv/go-bt/v2/bscript"
	"github.com/stretchr/testify/require"
)

const (
	hashdragonHex = "d4b74244fde6c5bdad53ce7606fa1e7d8657d9a3debbdcb0132f8e9580fa5d76"
	destination   = "bitcoincash:qpm2qsznhks23z7629mms6s4cwef74vcwvy22gdx6a"
	change        = "bitcoincash:qr95sy3j9xwd2ap32xkykttr4cvcu7as4y0qverfuy"
	p2pkhScript   = "76a914cb481232299cd5743151ac4b2d63ae198e7bb0a988ac"

	after = protocol.BigEndianCutover + 3600
)

type chain struct {
	store   lookup.Static
	hatchTx *bt.Tx
	coinTx  *bt.Tx
}

func newChain(t *testing.T) chain {
	t.Helper()
	hd, err := protocol.ParseHash(hashdragonHex)
	require.NoError(t, err)

	script, err := protocol.Encode(protocol.Hatch{Cost: 10, Hashdragon: hd, InputIndex: 1, OutputIndex: 2}, field.BigEndian)
	require.NoError(t, err)
	coinScript, err := bscript.NewFromHexString(p2pkhScript)
	require.NoError(t, err)

	hatch := spend(t, strings.Repeat("11", 32),
		&bt.Output{LockingScript: bscript.NewFromBytes(script)},
		&bt.Output{Satoshis: 546, LockingScript: coinScript})
	coin := spend(t, strings.Repeat("22", 32), &bt.Output{Satoshis: 50_000, LockingScript: coinScript})

	return chain{
		hatchTx: hatch,
		coinTx:  coin,
		store: lookup.Static{
			hatch.TxID(): lookup.FromTx(hatch, after),
			coin.TxID():  lookup.FromTx(coin, after),
		},
	}
}

func spend(t *testing.T, prev string, outputs ...*bt.Output) *bt.Tx {
	t.Helper()
	tx := bt.NewTx()
	in := &bt.Input{SequenceNumber: 0xffffffff, UnlockingScript: bscript.NewFromBytes(nil)}
	require.NoError(t, in.PreviousTxIDAddStr(prev))
	tx.Inputs = append(tx.Inputs, in)
	tx.Outputs = append(tx.Outputs, outputs...)
	return tx
}

func run(t *testing.T, store lookup.Static, args ...string) (string, error) {
	t.Helper()
	t.Setenv(EnvConfig, "")
	t.Setenv("HASHDRAGON_LOG_LEVEL", "disabled")

	a := newApp()
	a.fetcher = store
	a.now = func() time.Time { return time.Unix(int64(after), 0) }

	var out, errOut bytes.Buffer
	cmd := a.rootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestCreateEventHex(t *testing.T) {
	out, err := run(t, nil, "create-event", "dragonseed", hashdragonHex, "7", "--hex")
	require.NoError(t, err)
	require.Equal(t, "6a04d101d40001d0"+"0801000000"+"0801000000"+"100000000000000007"+"20"+hashdragonHex+"\n", out)
}

func TestCreateEventHumanAndLegacy(t *testing.T) {
	out, err := run(t, nil, "create-event", "wander", hashdragonHex, "0", "--input-index", "2")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(out, "OP_RETURN 0xd101d400"), out)

	out, err = run(t, nil, "create-event", "wander", hashdragonHex, "0", "--input-index", "2", "--hex", "--legacy")
	require.NoError(t, err)
	require.Equal(t, "6a04d101d40001d2"+"0402000000"+"0401000000\n", out)
}

func TestCreateEventHatchUsesAnchor(t *testing.T) {
	c := newChain(t)
	out, err := run(t, c.store, "--json", "create-event", "hatch", hashdragonHex, "10", "--txn-ref", c.hatchTx.TxID())
	require.NoError(t, err)

	var got eventOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Equal(t, "hatch", got.Record.Event)
	require.Equal(t, c.hatchTx.TxID(), got.Record.AnchorRef)
	require.True(t, strings.HasPrefix(got.Output, "OP_RETURN 0xd101d400 0xd1 "), got.Output)
	require.True(t, strings.HasPrefix(got.Script, "6a04d101d40001d1"), got.Script)
	require.Equal(t, "big-endian", got.Order)

	out, err = run(t, c.store, "--json", "create-event", "hatch", hashdragonHex, "10", "--txn-ref", c.hatchTx.TxID(), "--hex")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Equal(t, got.Script, got.Output)
}

func TestCreateEventErrors(t *testing.T) {
	_, err := run(t, nil, "create-event", "fly", hashdragonHex, "1")
	require.ErrorIs(t, err, protocol.ErrUnknownEvent)

	_, err = run(t, nil, "create-event", "dragonseed", "zz", "1")
	require.Error(t, err)

	_, err = run(t, nil, "create-event", "dragonseed", hashdragonHex, "-1")
	require.Error(t, err)

	_, err = run(t, lookup.Static{}, "create-event", "hatch", hashdragonHex, "1", "--txn-ref", strings.Repeat("ab", 32))
	require.ErrorIs(t, err, lookup.ErrNotFound)
}

func TestCreateTxnWander(t *testing.T) {
	c := newChain(t)
	out, err := run(t, c.store, "--json", "create-txn", "wander", hashdragonHex, destination, change,
		"--txn-ref", c.hatchTx.TxID(), "--coin-ref", c.coinTx.TxID())
	require.NoError(t, err)

	var got txnOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	tx, err := bt.NewTxFromString(got.Hex)
	require.NoError(t, err)
	require.Equal(t, got.TxID, tx.TxID())
	require.Len(t, tx.Inputs, 2)
	require.Equal(t, c.hatchTx.TxID(), tx.Inputs[0].PreviousTxIDStr())
	require.Equal(t, uint32(2), tx.Inputs[0].PreviousTxOutIndex)
	require.Equal(t, uint64(50_000-2000-500), got.Change)

	plain, err := run(t, c.store, "create-txn", "wander", hashdragonHex, destination, change,
		"--txn-ref", c.hatchTx.TxID(), "--coin-ref", c.coinTx.TxID(), "--payment", "1000")
	require.NoError(t, err)
	tx, err = bt.NewTxFromString(strings.TrimSpace(plain))
	require.NoError(t, err)
	require.Equal(t, uint64(1000), tx.Outputs[1].Satoshis)
}

func TestCreateTxnRejectsOtherEvents(t *testing.T) {
	c := newChain(t)
	_, err := run(t, c.store, "create-txn", "hatch", hashdragonHex, destination, change, "--coin-ref", c.coinTx.TxID())
	require.ErrorIs(t, err, protocol.ErrUnsupportedEvent)

	_, err = run(t, c.store, "create-txn", "wander", hashdragonHex, destination, change)
	require.Error(t, err)
}

func TestDecode(t *testing.T) {
	out, err := run(t, nil, "decode", "6a04d101d40001d204000000020400000001", "--big-endian")
	require.NoError(t, err)
	require.Contains(t, out, "event: wander")
	require.Contains(t, out, "input_index: 2")
	require.Contains(t, out, "output_index: 1")

	_, err = run(t, nil, "decode", "6a04d101d40001d9")
	require.ErrorIs(t, err, protocol.ErrUnknownCommand)
}

func TestAnchor(t *testing.T) {
	c := newChain(t)
	out, err := run(t, c.store, "anchor", c.hatchTx.TxID(), "--hashdragon", hashdragonHex)
	require.NoError(t, err)
	require.Contains(t, out, "output_index: 2")
	require.Contains(t, out, "event: hatch")
}

func TestDescribeAndKeyinfo(t *testing.T) {
	out, err := run(t, nil, "describe", "d40001ffff8000de0064fa05ff0000050000010000000002ffffffff00030001")
	require.NoError(t, err)
	require.NotContains(t, out, "\x1b[")

	out, err = run(t, nil, "--json", "keyinfo", strings.Repeat("00", 31)+"01")
	require.NoError(t, err)
	require.Contains(t, out, "751e76e8199196d454941c45d1b3a323f1433bd6")

	_, err = run(t, nil, "keyinfo", strings.Repeat("00", 32))
	require.Error(t, err)
}

func TestConfigCommands(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hashdragon.toml")

	out, err := run(t, nil, "config", "init", path)
	require.NoError(t, err)
	require.Contains(t, out, path)

	_, err = run(t, nil, "config", "init", path)
	require.Error(t, err)
	_, err = run(t, nil, "config", "init", path, "--force")
	require.NoError(t, err)

	out, err = run(t, nil, "config", "validate", path)
	require.NoError(t, err)
	require.Contains(t, out, "validated")

	out, err = run(t, nil, "--config", path, "config", "show")
	require.NoError(t, err)
	require.Contains(t, out, "127.0.0.1:8420")

	require.NoError(t, os.WriteFile(path, []byte("[lookup]\nbogus = 1\n"), 0o644))
	_, err = run(t, nil, "config", "validate", path)
	require.Error(t, err)
	_, err = run(t, nil, "--config", path, "decode", "6a")
	require.Error(t, err)
}
