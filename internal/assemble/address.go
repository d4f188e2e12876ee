package assemble

import (
	"fmt"
	"strings"

	"github.com/gcash/bchd/chaincfg"
	"github.com/gcash/bchd/txscript"
	"github.com/gcash/bchutil"
	"github.com/libsv/go-bt/v2/bscript"
)

// Network names the chain parameters used to decode addresses.
type Network string

const (
	MainNet Network = "mainnet"
	TestNet Network = "testnet"
	RegTest Network = "regtest"
)

// Params returns the chain parameters for n. The empty network is mainnet.
func (n Network) Params() (*chaincfg.Params, error) {
	switch Network(strings.ToLower(strings.TrimSpace(string(n)))) {
	case MainNet, "":
		return &chaincfg.MainNetParams, nil
	case TestNet:
		return &chaincfg.TestNet3Params, nil
	case RegTest:
		return &chaincfg.RegressionNetParams, nil
	default:
		return nil, fmt.Errorf("assemble: unknown network %q", string(n))
	}
}

// LockingScript returns the pay-to-address script for a CashAddr (with or
// without prefix) or legacy base58 address.
func LockingScript(addr string, n Network) (*bscript.Script, error) {
	params, err := n.Params()
	if err != nil {
		return nil, err
	}
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, fmt.Errorf("%w: empty address", ErrInvalidAddress)
	}
	decoded, err := bchutil.DecodeAddress(addr, params)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidAddress, addr, err)
	}
	if !decoded.IsForNet(params) {
		return nil, fmt.Errorf("%w: %q is not a %s address", ErrInvalidAddress, addr, params.Name)
	}
	script, err := txscript.PayToAddrScript(decoded)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidAddress, addr, err)
	}
	return bscript.NewFromBytes(script), nil
}
