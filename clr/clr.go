// Package clr implements the capital-constrained liberal radicalism
// matching rule used to split a round's matching pool across proposals.
package clr

import "math/big"

// ProposalInput is one proposal's view for the matching computation: its
// individual contribution values and whether the proposal was canceled.
type ProposalInput struct {
	Canceled      bool
	Contributions []uint64
}

// Sqrt returns the integer (floor) square root of v.
//
// float64 cannot represent every uint64 exactly, so math.Sqrt is not safe
// here; this is the classic shift-and-subtract algorithm (Crenshaw).
func Sqrt(v uint64) uint64 {
	var rem uint64
	var root uint64
	for i := 0; i < 32; i++ {
		root <<= 1
		rem = (rem << 2) | (v >> (64 - 2))
		v <<= 2
		if root < rem {
			rem -= root | 1
			root += 2
		}
	}
	return root >> 1
}

// Weight returns a proposal's CLR weight: the square of the sum of the
// floor square roots of its individual contributions. Spreading the same
// total over more contributors yields a strictly larger weight.
func Weight(contributions []uint64) *big.Int {
	var sqrtSum uint64
	for _, c := range contributions {
		sqrtSum += Sqrt(c)
	}
	w := new(big.Int).SetUint64(sqrtSum)
	return w.Mul(w, w)
}

// Match splits matchingFund across proposals in proportion to their CLR
// weights. Canceled proposals get weight zero. Each share is
// floor(matchingFund * weight / totalWeight), so the distributed sum may
// fall short of matchingFund by integer truncation; if the total weight is
// zero every share is zero.
func Match(matchingFund uint64, proposals []ProposalInput) []uint64 {
	weights := make([]*big.Int, len(proposals))
	total := new(big.Int)
	for i := range proposals {
		if proposals[i].Canceled {
			weights[i] = new(big.Int)
			continue
		}
		weights[i] = Weight(proposals[i].Contributions)
		total.Add(total, weights[i])
	}

	shares := make([]uint64, len(proposals))
	if total.Sign() == 0 {
		return shares
	}
	fund := new(big.Int).SetUint64(matchingFund)
	for i := range weights {
		share := new(big.Int).Mul(fund, weights[i])
		share.Quo(share, total)
		shares[i] = share.Uint64()
	}
	return shares
}
