package anchor

import (
	"strings"
	"testing"

	"github.com/danmuck/hashdragon/internal/protocol"
	"github.com/danmuck/hashdragon/internal/protocol/field"
	"github.com/libsv/go-bt/v2"
	"github.com/libsv/go-bt/v2/bscript"
	"github.com/stretchr/testify/require"
)

const hashdragonHex = "d4b74244fde6c5bdad53ce7606fa1e7d8657d9a3debbdcb0132f8e9580fa5d76"

func txWithScripts(scripts ...[]byte) *bt.Tx {
	tx := bt.NewTx()
	for _, s := range scripts {
		tx.Outputs = append(tx.Outputs, &bt.Output{LockingScript: bscript.NewFromBytes(s)})
	}
	return tx
}

func encode(t *testing.T, rec protocol.Record, o field.Order) []byte {
	t.Helper()
	script, err := protocol.Encode(rec, o)
	require.NoError(t, err)
	return script
}

func TestValidateHatchAnchor(t *testing.T) {
	hd, err := protocol.ParseHash(hashdragonHex)
	require.NoError(t, err)

	rec := protocol.Hatch{Cost: 10, Hashdragon: hd, InputIndex: 1, OutputIndex: 3}
	tx := txWithScripts(encode(t, rec, field.LittleEndian), []byte{0x76, 0xa9})

	got, err := Validate(tx, protocol.BigEndianCutover, &hd)
	require.NoError(t, err)
	require.Equal(t, uint32(3), got.OutputIndex)
	require.Equal(t, tx.TxID(), got.TxID)
	require.Equal(t, field.LittleEndian, got.Order)
	require.False(t, got.Breeding)
	require.Equal(t, rec, got.Record)
}

func TestValidateUsesTimestampOrder(t *testing.T) {
	rec := protocol.Wander{InputIndex: 1, OutputIndex: 2}
	tx := txWithScripts(encode(t, rec, field.BigEndian))

	got, err := Validate(tx, protocol.BigEndianCutover+1, nil)
	require.NoError(t, err)
	require.Equal(t, uint32(2), got.OutputIndex)

	// Same bytes read as a legacy record swap the index bytes.
	legacy, err := Validate(tx, protocol.BigEndianCutover, nil)
	require.NoError(t, err)
	require.Equal(t, uint32(2<<24), legacy.OutputIndex)
}

func TestValidateIdentifierMismatch(t *testing.T) {
	hd, err := protocol.ParseHash(hashdragonHex)
	require.NoError(t, err)
	other, err := protocol.ParseHash(strings.Repeat("11", 32))
	require.NoError(t, err)

	tx := txWithScripts(encode(t, protocol.Dragonseed{Hashdragon: hd, InputIndex: 1, OutputIndex: 1}, field.BigEndian))
	_, err = Validate(tx, 0, &other)
	require.ErrorIs(t, err, ErrIdentifierMismatch)

	// No claim means no cross-check.
	_, err = Validate(tx, 0, nil)
	require.NoError(t, err)
}

func TestValidateWithoutHashdragonSkipsCrossCheck(t *testing.T) {
	other, err := protocol.ParseHash(strings.Repeat("11", 32))
	require.NoError(t, err)
	tx := txWithScripts(encode(t, protocol.Wander{InputIndex: 1, OutputIndex: 1}, field.LittleEndian))

	got, err := Validate(tx, 0, &other)
	require.NoError(t, err)
	require.Equal(t, uint32(1), got.OutputIndex)
}

func TestValidateBreedingAnchor(t *testing.T) {
	script := []byte{0x6a, 0x04, 0xd1, 0x01, 0xd4, 0x00, 0x01, 0xd4, 0x04, 0x09, 0x00, 0x00, 0x00}
	got, err := Validate(txWithScripts(script), protocol.BigEndianCutover+1, nil)
	require.NoError(t, err)
	require.True(t, got.Breeding)
	require.Nil(t, got.Record)
	require.Equal(t, BreedingOutputIndex, got.OutputIndex)
}

func TestValidateRejectsNonProtocolOutputs(t *testing.T) {
	_, err := Validate(bt.NewTx(), 0, nil)
	require.ErrorIs(t, err, ErrMissingProtocolOutput)

	_, err = Validate(nil, 0, nil)
	require.ErrorIs(t, err, ErrNilTransaction)

	p2pkh := []byte{0x76, 0xa9, 0x14}
	_, err = Validate(txWithScripts(p2pkh), 0, nil)
	require.ErrorIs(t, err, ErrNotAProtocolOutput)

	otherOpReturn := []byte{0x6a, 0x04, 0x53, 0x4c, 0x50, 0x00}
	_, err = Validate(txWithScripts(otherOpReturn), 0, nil)
	require.ErrorIs(t, err, ErrNotAProtocolOutput)
	require.ErrorIs(t, err, protocol.ErrMalformedHeader)

	truncated := []byte{0x6a, 0x04, 0xd1, 0x01, 0xd4, 0x00, 0x01, 0xd1, 0x04, 0x01}
	_, err = Validate(txWithScripts(truncated), 0, nil)
	require.ErrorIs(t, err, ErrNotAProtocolOutput)
	require.ErrorIs(t, err, protocol.ErrLengthMismatch)
}
