package types

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewRoundPreallocatesProposals(t *testing.T) {
	r := NewRound(0, 10, 20, 100, []uint64{3, 7})
	require.Len(t, r.Proposals, 2)
	require.NotNil(t, r.Proposal(3))
	require.NotNil(t, r.Proposal(7))
	require.Nil(t, r.Proposal(5))
}

func TestProposalContributionLookup(t *testing.T) {
	p := &Proposal{
		Contributions: []Contribution{
			{Account: []byte{0x01}, Value: 4},
			{Account: []byte{0x02}, Value: 1},
		},
	}
	require.Equal(t, uint64(5), p.ContributionTotal())

	c := p.Contribution([]byte{0x01})
	require.NotNil(t, c)
	require.Equal(t, uint64(4), c.Value)
	require.Nil(t, p.Contribution([]byte{0x03}))
}

func TestRoundCloneIsolation(t *testing.T) {
	r := NewRound(0, 10, 20, 100, []uint64{0})
	r.Proposals[0].Contributions = []Contribution{{Account: []byte{0x01}, Value: 4}}

	n := r.Clone()
	n.Proposals[0].Contributions[0].Value = 99
	n.Proposals[0].IsCanceled = true
	n.IsFinalized = true

	require.Equal(t, uint64(4), r.Proposals[0].Contributions[0].Value)
	require.False(t, r.Proposals[0].IsCanceled)
	require.False(t, r.IsFinalized)
}
