package tx

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUnmarshalQFTxDispatch(t *testing.T) {
	btx := &QFTx{
		Version: QFTxVersion1,
		Type:    QFTxTypeContribute,
		Nonce:   7,
		Sender:  65536,
		Tx:      &ContributeTx{ProjectIndex: 3, Value: 25},
		Sig:     [][]byte{{0x1}},
	}
	dat, err := MarshalQFTx(btx)
	require.NoError(t, err)

	got, err := UnmarshalQFTx(dat)
	require.NoError(t, err)
	require.Equal(t, QFTxTypeContribute, got.Type)
	require.Equal(t, uint64(7), got.Nonce)
	require.Equal(t, uint64(65536), got.Sender)
	ctx, ok := got.Tx.(*ContributeTx)
	require.True(t, ok)
	require.Equal(t, uint64(3), ctx.ProjectIndex)
	require.Equal(t, uint64(25), ctx.Value)
}

func TestUnmarshalQFTxScheduleRound(t *testing.T) {
	btx := &QFTx{
		Version: QFTxVersion1,
		Type:    QFTxTypeScheduleRound,
		Sender:  65537,
		Tx: &ScheduleRoundTx{
			Start:          10,
			End:            20,
			MatchingFund:   100,
			ProjectIndexes: []uint64{0, 2},
		},
	}
	dat, err := MarshalQFTx(btx)
	require.NoError(t, err)

	got, err := UnmarshalQFTx(dat)
	require.NoError(t, err)
	stx, ok := got.Tx.(*ScheduleRoundTx)
	require.True(t, ok)
	require.Equal(t, []uint64{0, 2}, stx.ProjectIndexes)
	require.Equal(t, uint64(100), stx.MatchingFund)
}

func TestUnmarshalQFTxUnsupportedType(t *testing.T) {
	_, err := UnmarshalQFTx([]byte(`{"type":200}`))
	require.ErrorIs(t, err, ErrUnsupportedTxType)
}

func TestSigDataExcludesSignature(t *testing.T) {
	btx := &QFTx{
		Version: QFTxVersion1,
		Type:    QFTxTypeFund,
		Sender:  65536,
		Tx:      &FundTx{Amount: 5},
	}
	unsigned, err := btx.SigData([]byte("chain-1"))
	require.NoError(t, err)

	btx.Sig = [][]byte{{0xde, 0xad}}
	signed, err := btx.SigData([]byte("chain-1"))
	require.NoError(t, err)
	require.Equal(t, unsigned, signed)

	other, err := btx.SigData([]byte("chain-2"))
	require.NoError(t, err)
	require.NotEqual(t, unsigned, other)
}
