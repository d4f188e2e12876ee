package keyinfo

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDeriveKeyOne(t *testing.T) {
	info, err := Derive(strings.Repeat("00", 31) + "01")
	require.NoError(t, err)

	require.Equal(t, "0479be667ef9dcbbac55a06295ce870b07029bfcdb2dce28d959f2815b16f81798"+
		"483ada7726a3c4655da4fbfc0e1108a8fd17b448a68554199c47d08ffb10d4b8", info.PublicKey)
	require.Equal(t, "91b24bf9f5288532960ac687abb035127b1d28a5", info.PublicKeyHash160)
	require.Equal(t, "0279be667ef9dcbbac55a06295ce870b07029bfcdb2dce28d959f2815b16f81798", info.CompressedPublicKey)
	require.Equal(t, "751e76e8199196d454941c45d1b3a323f1433bd6", info.CompressedPublicKeyHash)

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, info))
	require.Contains(t, buf.String(), "Compressed Public Key HASH160: 751e76e8199196d454941c45d1b3a323f1433bd6\n")
}

func TestDeriveRejectsBadKeys(t *testing.T) {
	for _, key := range []string{
		"",
		"zz",
		strings.Repeat("01", 31),
		strings.Repeat("00", 32),
		"fffffffffffffffffffffffffffffffebaaedce6af48a03bbfd25e8cd0364141",
	} {
		_, err := Derive(key)
		require.ErrorIs(t, err, ErrInvalidKey, key)
	}
}
