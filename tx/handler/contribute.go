package handler

import (
	"context"

	"github.com/calehh/qf-app/state"
	"github.com/calehh/qf-app/tx"
	"github.com/calehh/qf-app/types"
	abcitypes "github.com/cometbft/cometbft/abci/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"
)

type ContributeTxHandler struct {
	logger cmtlog.Logger
}

func NewContributeTxHandler(logger cmtlog.Logger) (h *ContributeTxHandler) {
	logger = logger.With("module", "contributeTx")
	h = &ContributeTxHandler{
		logger: logger,
	}
	return
}

func (h *ContributeTxHandler) Check(ctx context.Context, st *state.State, btx *tx.QFTx) (res *abcitypes.ResponseCheckTx, err error) {
	ctx2 := btx.Tx.(*tx.ContributeTx)
	_, err = st.Contribute(ctx2, btx.Sender, true)
	if err != nil {
		return
	}
	res = &abcitypes.ResponseCheckTx{Code: 0}
	return
}

func (h *ContributeTxHandler) NewContext(ctx context.Context) {}

func (h *ContributeTxHandler) handle(ctx context.Context, st *state.State, btx *tx.QFTx) (res *abcitypes.ExecTxResult, err error) {
	ctx2 := btx.Tx.(*tx.ContributeTx)
	res = &abcitypes.ExecTxResult{}
	event, err := st.Contribute(ctx2, btx.Sender, false)
	if err != nil {
		return
	}
	if event != nil {
		res.Events = []abcitypes.Event{types.EncodeEventContribute(event)}
	}
	return
}

func (h *ContributeTxHandler) Prepare(ctx context.Context, st *state.State, btx *tx.QFTx) (res *abcitypes.ExecTxResult, err error) {
	return h.handle(ctx, st, btx)
}

func (h *ContributeTxHandler) Process(ctx context.Context, st *state.State, btx *tx.QFTx) (res *abcitypes.ExecTxResult, err error) {
	return h.handle(ctx, st, btx)
}
