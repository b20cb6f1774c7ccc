package clr

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSqrt(t *testing.T) {
	cases := []struct {
		in   uint64
		want uint64
	}{
		{0, 0},
		{1, 1},
		{2, 1},
		{3, 1},
		{4, 2},
		{8, 2},
		{9, 3},
		{15, 3},
		{16, 4},
		{99, 9},
		{100, 10},
		{1 << 32, 1 << 16},
		{math.MaxUint64, 4294967295},
	}
	for _, c := range cases {
		require.Equal(t, c.want, Sqrt(c.in), "sqrt(%v)", c.in)
	}
}

func TestWeightRewardsBreadth(t *testing.T) {
	// The same total split across more contributors weighs more.
	many := Weight([]uint64{1, 1, 1, 1})
	one := Weight([]uint64{4})
	require.Equal(t, "16", many.String())
	require.Equal(t, "4", one.String())
	require.True(t, many.Cmp(one) > 0)
}

func TestMatchSingleProposalTakesAll(t *testing.T) {
	shares := Match(100, []ProposalInput{
		{Contributions: []uint64{4, 1}},
	})
	require.Equal(t, []uint64{100}, shares)
}

func TestMatchProportional(t *testing.T) {
	shares := Match(100, []ProposalInput{
		{Contributions: []uint64{4, 1}}, // weight 9
		{Contributions: []uint64{1}},    // weight 1
	})
	require.Equal(t, uint64(90), shares[0])
	require.Equal(t, uint64(10), shares[1])
}

func TestMatchCanceledProposalGetsNothing(t *testing.T) {
	shares := Match(100, []ProposalInput{
		{Contributions: []uint64{4, 1}},
		{Canceled: true, Contributions: []uint64{100, 100}},
	})
	require.Equal(t, uint64(100), shares[0])
	require.Equal(t, uint64(0), shares[1])
}

func TestMatchNoContributions(t *testing.T) {
	shares := Match(100, []ProposalInput{
		{Contributions: nil},
		{Contributions: []uint64{0}},
	})
	require.Equal(t, []uint64{0, 0}, shares)
}

func TestMatchRoundingNeverOverpays(t *testing.T) {
	// Truncated division may leave dust in the pool but can never mint.
	shares := Match(100, []ProposalInput{
		{Contributions: []uint64{1}},
		{Contributions: []uint64{1}},
		{Contributions: []uint64{1}},
	})
	var total uint64
	for _, s := range shares {
		total += s
	}
	require.LessOrEqual(t, total, uint64(100))
	require.Equal(t, uint64(33), shares[0])
}

func TestMatchZeroFund(t *testing.T) {
	shares := Match(0, []ProposalInput{
		{Contributions: []uint64{4}},
		{Contributions: []uint64{9}},
	})
	require.Equal(t, []uint64{0, 0}, shares)
}
