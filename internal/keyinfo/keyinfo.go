// Package keyinfo derives public key material from a secp256k1 private key.
package keyinfo

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
)

const KeySize = 32

var ErrInvalidKey = errors.New("keyinfo: invalid private key")

// Info holds hex-encoded public keys and their HASH160 digests.
type Info struct {
	PublicKey               string `json:"public_key"`
	PublicKeyHash160        string `json:"public_key_hash160"`
	CompressedPublicKey     string `json:"compressed_public_key"`
	CompressedPublicKeyHash string `json:"compressed_public_key_hash160"`
}

// Derive parses a 64-character hex private key. Keys of zero or at or above
// the curve order are rejected rather than reduced.
func Derive(hexKey string) (Info, error) {
	raw, err := hex.DecodeString(strings.TrimSpace(hexKey))
	if err != nil {
		return Info{}, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	if len(raw) != KeySize {
		return Info{}, fmt.Errorf("%w: %d bytes, want %d", ErrInvalidKey, len(raw), KeySize)
	}
	var scalar btcec.ModNScalar
	if overflow := scalar.SetByteSlice(raw); overflow || scalar.IsZero() {
		return Info{}, fmt.Errorf("%w: outside the curve order", ErrInvalidKey)
	}

	_, pub := btcec.PrivKeyFromBytes(raw)
	uncompressed := pub.SerializeUncompressed()
	compressed := pub.SerializeCompressed()
	return Info{
		PublicKey:               hex.EncodeToString(uncompressed),
		PublicKeyHash160:        hex.EncodeToString(btcutil.Hash160(uncompressed)),
		CompressedPublicKey:     hex.EncodeToString(compressed),
		CompressedPublicKeyHash: hex.EncodeToString(btcutil.Hash160(compressed)),
	}, nil
}

func Render(w io.Writer, info Info) error {
	_, err := fmt.Fprintf(w,
		"Public Key: %s\nPublic Key HASH160: %s\nCompressed Public Key: %s\nCompressed Public Key HASH160: %s\n",
		info.PublicKey, info.PublicKeyHash160, info.CompressedPublicKey, info.CompressedPublicKeyHash)
	return err
}
