package handler

import (
	"context"

	"github.com/calehh/qf-app/state"
	"github.com/calehh/qf-app/tx"
	abcitypes "github.com/cometbft/cometbft/abci/types"
)

type TxHandler interface {
	Check(ctx context.Context, st *state.State, btx *tx.QFTx) (res *abcitypes.ResponseCheckTx, err error)
	NewContext(ctx context.Context)
	Prepare(ctx context.Context, st *state.State, btx *tx.QFTx) (res *abcitypes.ExecTxResult, err error)
	Process(ctx context.Context, st *state.State, btx *tx.QFTx) (res *abcitypes.ExecTxResult, err error)
}
