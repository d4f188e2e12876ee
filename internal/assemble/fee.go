package assemble

// FeePolicy prices a transaction from its estimated signed size in bytes.
type FeePolicy interface {
	Fee(size int) uint64
}

// FixedFee charges a flat amount in satoshis.
type FixedFee uint64

func (f FixedFee) Fee(int) uint64 {
	return uint64(f)
}

// RateFee charges satoshis per 1000 bytes, rounded up.
type RateFee uint64

func (r RateFee) Fee(size int) uint64 {
	if size <= 0 {
		return 0
	}
	return (uint64(size)*uint64(r) + 999) / 1000
}
