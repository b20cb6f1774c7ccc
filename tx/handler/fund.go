package handler

import (
	"context"

	"github.com/calehh/qf-app/state"
	"github.com/calehh/qf-app/tx"
	"github.com/calehh/qf-app/types"
	abcitypes "github.com/cometbft/cometbft/abci/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"
)

type FundTxHandler struct {
	logger cmtlog.Logger
}

func NewFundTxHandler(logger cmtlog.Logger) (h *FundTxHandler) {
	logger = logger.With("module", "fundTx")
	h = &FundTxHandler{
		logger: logger,
	}
	return
}

func (h *FundTxHandler) Check(ctx context.Context, st *state.State, btx *tx.QFTx) (res *abcitypes.ResponseCheckTx, err error) {
	ftx := btx.Tx.(*tx.FundTx)
	_, err = st.Fund(ftx, btx.Sender, true)
	if err != nil {
		return
	}
	res = &abcitypes.ResponseCheckTx{Code: 0}
	return
}

func (h *FundTxHandler) NewContext(ctx context.Context) {}

func (h *FundTxHandler) handle(ctx context.Context, st *state.State, btx *tx.QFTx) (res *abcitypes.ExecTxResult, err error) {
	ftx := btx.Tx.(*tx.FundTx)
	res = &abcitypes.ExecTxResult{}
	event, err := st.Fund(ftx, btx.Sender, false)
	if err != nil {
		return
	}
	if event != nil {
		res.Events = []abcitypes.Event{types.EncodeEventFund(event)}
	}
	return
}

func (h *FundTxHandler) Prepare(ctx context.Context, st *state.State, btx *tx.QFTx) (res *abcitypes.ExecTxResult, err error) {
	return h.handle(ctx, st, btx)
}

func (h *FundTxHandler) Process(ctx context.Context, st *state.State, btx *tx.QFTx) (res *abcitypes.ExecTxResult, err error) {
	return h.handle(ctx, st, btx)
}
