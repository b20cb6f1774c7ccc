package handler

import (
	"context"

	"github.com/calehh/qf-app/state"
	"github.com/calehh/qf-app/tx"
	"github.com/calehh/qf-app/types"
	abcitypes "github.com/cometbft/cometbft/abci/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"
)

type ApproveTxHandler struct {
	logger cmtlog.Logger
}

func NewApproveTxHandler(logger cmtlog.Logger) (h *ApproveTxHandler) {
	logger = logger.With("module", "approveTx")
	h = &ApproveTxHandler{
		logger: logger,
	}
	return
}

func (h *ApproveTxHandler) Check(ctx context.Context, st *state.State, btx *tx.QFTx) (res *abcitypes.ResponseCheckTx, err error) {
	atx := btx.Tx.(*tx.ApproveTx)
	_, err = st.Approve(atx, btx.Sender, true)
	if err != nil {
		return
	}
	res = &abcitypes.ResponseCheckTx{Code: 0}
	return
}

func (h *ApproveTxHandler) NewContext(ctx context.Context) {}

func (h *ApproveTxHandler) handle(ctx context.Context, st *state.State, btx *tx.QFTx) (res *abcitypes.ExecTxResult, err error) {
	atx := btx.Tx.(*tx.ApproveTx)
	res = &abcitypes.ExecTxResult{}
	event, err := st.Approve(atx, btx.Sender, false)
	if err != nil {
		return
	}
	if event != nil {
		res.Events = []abcitypes.Event{types.EncodeEventProposalApproved(event)}
	}
	return
}

func (h *ApproveTxHandler) Prepare(ctx context.Context, st *state.State, btx *tx.QFTx) (res *abcitypes.ExecTxResult, err error) {
	return h.handle(ctx, st, btx)
}

func (h *ApproveTxHandler) Process(ctx context.Context, st *state.State, btx *tx.QFTx) (res *abcitypes.ExecTxResult, err error) {
	return h.handle(ctx, st, btx)
}

type WithdrawTxHandler struct {
	logger cmtlog.Logger
}

func NewWithdrawTxHandler(logger cmtlog.Logger) (h *WithdrawTxHandler) {
	logger = logger.With("module", "withdrawTx")
	h = &WithdrawTxHandler{
		logger: logger,
	}
	return
}

func (h *WithdrawTxHandler) Check(ctx context.Context, st *state.State, btx *tx.QFTx) (res *abcitypes.ResponseCheckTx, err error) {
	wtx := btx.Tx.(*tx.WithdrawTx)
	_, err = st.Withdraw(wtx, btx.Sender, true)
	if err != nil {
		return
	}
	res = &abcitypes.ResponseCheckTx{Code: 0}
	return
}

func (h *WithdrawTxHandler) NewContext(ctx context.Context) {}

func (h *WithdrawTxHandler) handle(ctx context.Context, st *state.State, btx *tx.QFTx) (res *abcitypes.ExecTxResult, err error) {
	wtx := btx.Tx.(*tx.WithdrawTx)
	res = &abcitypes.ExecTxResult{}
	event, err := st.Withdraw(wtx, btx.Sender, false)
	if err != nil {
		return
	}
	if event != nil {
		res.Events = []abcitypes.Event{types.EncodeEventProposalWithdrawn(event)}
	}
	return
}

func (h *WithdrawTxHandler) Prepare(ctx context.Context, st *state.State, btx *tx.QFTx) (res *abcitypes.ExecTxResult, err error) {
	return h.handle(ctx, st, btx)
}

func (h *WithdrawTxHandler) Process(ctx context.Context, st *state.State, btx *tx.QFTx) (res *abcitypes.ExecTxResult, err error) {
	return h.handle(ctx, st, btx)
}

type CancelProposalTxHandler struct {
	logger cmtlog.Logger
}

func NewCancelProposalTxHandler(logger cmtlog.Logger) (h *CancelProposalTxHandler) {
	logger = logger.With("module", "cancelProposalTx")
	h = &CancelProposalTxHandler{
		logger: logger,
	}
	return
}

func (h *CancelProposalTxHandler) Check(ctx context.Context, st *state.State, btx *tx.QFTx) (res *abcitypes.ResponseCheckTx, err error) {
	ctx2 := btx.Tx.(*tx.CancelProposalTx)
	_, err = st.CancelProposal(ctx2, btx.Sender, true)
	if err != nil {
		return
	}
	res = &abcitypes.ResponseCheckTx{Code: 0}
	return
}

func (h *CancelProposalTxHandler) NewContext(ctx context.Context) {}

func (h *CancelProposalTxHandler) handle(ctx context.Context, st *state.State, btx *tx.QFTx) (res *abcitypes.ExecTxResult, err error) {
	ctx2 := btx.Tx.(*tx.CancelProposalTx)
	res = &abcitypes.ExecTxResult{}
	event, err := st.CancelProposal(ctx2, btx.Sender, false)
	if err != nil {
		return
	}
	if event != nil {
		res.Events = []abcitypes.Event{types.EncodeEventProposalCanceled(event)}
	}
	return
}

func (h *CancelProposalTxHandler) Prepare(ctx context.Context, st *state.State, btx *tx.QFTx) (res *abcitypes.ExecTxResult, err error) {
	return h.handle(ctx, st, btx)
}

func (h *CancelProposalTxHandler) Process(ctx context.Context, st *state.State, btx *tx.QFTx) (res *abcitypes.ExecTxResult, err error) {
	return h.handle(ctx, st, btx)
}
