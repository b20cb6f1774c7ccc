package handler

import (
	"context"
	"testing"

	"github.com/calehh/qf-app/state"
	"github.com/calehh/qf-app/tx"
	"github.com/calehh/qf-app/types"
	"github.com/cometbft/cometbft/crypto/ed25519"
	cmtlog "github.com/cometbft/cometbft/libs/log"
	"github.com/stretchr/testify/require"
)

func newTestState(t *testing.T) *state.State {
	t.Helper()
	db, err := state.NewStateDB(t.TempDir(), cmtlog.NewNopLogger())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	st := db.State()
	st.SetChainId("qf-test")
	st.InitParams(types.DefaultAppState())
	return st
}

func addAccount(t *testing.T, st *state.State, balance uint64) *state.Account {
	t.Helper()
	priv := ed25519.GenPrivKey()
	var a state.Account
	a.SetPubKey(priv.PubKey().Bytes())
	a.Balance = balance
	require.NoError(t, st.AddAccount(&a))
	return &a
}

func TestCreateProjectTxHandler(t *testing.T) {
	st := newTestState(t)
	owner := addAccount(t, st, 0)
	h := NewCreateProjectTxHandler(cmtlog.NewNopLogger())
	ctx := context.Background()

	btx := &tx.QFTx{
		Type:   tx.QFTxTypeCreateProject,
		Sender: owner.Index,
		Tx: &tx.CreateProjectTx{
			Name:        []byte("ipfs"),
			Logo:        []byte("logo.png"),
			Description: []byte("storage"),
			Website:     []byte("https://ipfs.io"),
		},
	}

	check, err := h.Check(ctx, st, btx)
	require.NoError(t, err)
	require.Equal(t, uint32(0), check.Code)
	require.Equal(t, uint64(0), st.ProjectCount())

	res, err := h.Process(ctx, st, btx)
	require.NoError(t, err)
	require.Len(t, res.Events, 1)
	require.Equal(t, "project_created", res.Events[0].Type)
	require.Equal(t, uint64(1), st.ProjectCount())

	ev := types.DecodeEventProjectCreated(res.Events[0])
	require.NotNil(t, ev)
	require.Equal(t, uint64(0), ev.ProjectIndex)
	require.Equal(t, "ipfs", ev.Name)
}

func TestCreateProjectTxHandlerRejectsInvalid(t *testing.T) {
	st := newTestState(t)
	owner := addAccount(t, st, 0)
	h := NewCreateProjectTxHandler(cmtlog.NewNopLogger())

	btx := &tx.QFTx{
		Type:   tx.QFTxTypeCreateProject,
		Sender: owner.Index,
		Tx:     &tx.CreateProjectTx{Name: []byte("ipfs")},
	}
	_, err := h.Check(context.Background(), st, btx)
	require.ErrorIs(t, err, state.ErrInvalidParam)
}

func TestFundTxHandler(t *testing.T) {
	st := newTestState(t)
	funder := addAccount(t, st, 100)
	h := NewFundTxHandler(cmtlog.NewNopLogger())

	btx := &tx.QFTx{
		Type:   tx.QFTxTypeFund,
		Sender: funder.Index,
		Tx:     &tx.FundTx{Amount: 60},
	}
	res, err := h.Process(context.Background(), st, btx)
	require.NoError(t, err)
	require.Len(t, res.Events, 1)
	require.Equal(t, "fund", res.Events[0].Type)

	ev := types.DecodeEventFund(res.Events[0])
	require.NotNil(t, ev)
	require.Equal(t, uint64(60), ev.Amount)
}

func TestParamsTxHandler(t *testing.T) {
	st := newTestState(t)
	auth := addAccount(t, st, 0)
	st.SetAuthority(auth.AddrBytes())
	h := NewParamsTxHandler(cmtlog.NewNopLogger())
	ctx := context.Background()

	res, err := h.Process(ctx, st, &tx.QFTx{
		Type:   tx.QFTxTypeSetMaxProposalCount,
		Sender: auth.Index,
		Tx:     &tx.SetMaxProposalCountTx{Count: 10},
	})
	require.NoError(t, err)
	require.Empty(t, res.Events)
	require.Equal(t, uint32(10), st.MaxProposalCountPerRound())

	_, err = h.Process(ctx, st, &tx.QFTx{
		Type:   tx.QFTxTypeSetWithdrawalExpiration,
		Sender: auth.Index,
		Tx:     &tx.SetWithdrawalExpirationTx{Expiration: 50},
	})
	require.NoError(t, err)
	require.Equal(t, uint64(50), st.WithdrawalExpiration())

	_, err = h.Process(ctx, st, &tx.QFTx{
		Type:   tx.QFTxTypeSetIdentityRequired,
		Sender: auth.Index,
		Tx:     &tx.SetIdentityRequiredTx{Required: true},
	})
	require.NoError(t, err)
	require.True(t, st.IsIdentityRequired())

	_, err = h.Check(ctx, st, &tx.QFTx{
		Type:   tx.QFTxTypeSetMaxProposalCount,
		Sender: auth.Index,
		Tx:     &tx.FundTx{Amount: 1},
	})
	require.ErrorIs(t, err, tx.ErrUnmatchedTxType)
}
