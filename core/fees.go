package core

// FeeCalculator splits a gross amount in minor currency units into the
// platform commission and the payee share.
//
// Rounding is half-up on integer basis points: the fee is
// (amount*bps + 5000) / 10000, evaluated per 10000-unit block so the product
// never overflows int64. PlatformFee(a) + PayeeAmount(a) == a holds for every
// non-negative a because the payee share is derived by subtraction.
type FeeCalculator struct {
	BasisPoints int64
}

func NewFeeCalculator(basisPoints int64) FeeCalculator {
	if basisPoints < 0 {
		basisPoints = 0
	}
	if basisPoints > maxBasisPoints {
		basisPoints = maxBasisPoints
	}
	return FeeCalculator{BasisPoints: basisPoints}
}

func (c FeeCalculator) PlatformFee(amount int64) int64 {
	bps := c.basisPoints()
	if amount <= 0 || bps == 0 {
		return 0
	}
	blocks, rest := amount/maxBasisPoints, amount%maxBasisPoints
	return blocks*bps + (rest*bps+maxBasisPoints/2)/maxBasisPoints
}

func (c FeeCalculator) basisPoints() int64 {
	switch {
	case c.BasisPoints < 0:
		return 0
	case c.BasisPoints > maxBasisPoints:
		return maxBasisPoints
	default:
		return c.BasisPoints
	}
}

func (c FeeCalculator) PayeeAmount(amount int64) int64 {
	return amount - c.PlatformFee(amount)
}

func (c FeeCalculator) Quote(amount int64) FeeQuote {
	fee := c.PlatformFee(amount)
	return FeeQuote{
		Amount:      amount,
		PlatformFee: fee,
		PayeeAmount: amount - fee,
		BasisPoints: c.basisPoints(),
	}
}
