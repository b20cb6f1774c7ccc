package handler

import (
	"context"

	"github.com/calehh/qf-app/state"
	"github.com/calehh/qf-app/tx"
	"github.com/calehh/qf-app/types"
	abcitypes "github.com/cometbft/cometbft/abci/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"
)

type ScheduleRoundTxHandler struct {
	logger cmtlog.Logger
}

func NewScheduleRoundTxHandler(logger cmtlog.Logger) (h *ScheduleRoundTxHandler) {
	logger = logger.With("module", "scheduleRoundTx")
	h = &ScheduleRoundTxHandler{
		logger: logger,
	}
	return
}

func (h *ScheduleRoundTxHandler) Check(ctx context.Context, st *state.State, btx *tx.QFTx) (res *abcitypes.ResponseCheckTx, err error) {
	stx := btx.Tx.(*tx.ScheduleRoundTx)
	_, err = st.ScheduleRound(stx, btx.Sender, true)
	if err != nil {
		return
	}
	res = &abcitypes.ResponseCheckTx{Code: 0}
	return
}

func (h *ScheduleRoundTxHandler) NewContext(ctx context.Context) {}

func (h *ScheduleRoundTxHandler) handle(ctx context.Context, st *state.State, btx *tx.QFTx) (res *abcitypes.ExecTxResult, err error) {
	stx := btx.Tx.(*tx.ScheduleRoundTx)
	res = &abcitypes.ExecTxResult{}
	event, err := st.ScheduleRound(stx, btx.Sender, false)
	if err != nil {
		return
	}
	if event != nil {
		res.Events = []abcitypes.Event{types.EncodeEventRoundCreated(event)}
	}
	return
}

func (h *ScheduleRoundTxHandler) Prepare(ctx context.Context, st *state.State, btx *tx.QFTx) (res *abcitypes.ExecTxResult, err error) {
	return h.handle(ctx, st, btx)
}

func (h *ScheduleRoundTxHandler) Process(ctx context.Context, st *state.State, btx *tx.QFTx) (res *abcitypes.ExecTxResult, err error) {
	return h.handle(ctx, st, btx)
}

type CancelRoundTxHandler struct {
	logger cmtlog.Logger
}

func NewCancelRoundTxHandler(logger cmtlog.Logger) (h *CancelRoundTxHandler) {
	logger = logger.With("module", "cancelRoundTx")
	h = &CancelRoundTxHandler{
		logger: logger,
	}
	return
}

func (h *CancelRoundTxHandler) Check(ctx context.Context, st *state.State, btx *tx.QFTx) (res *abcitypes.ResponseCheckTx, err error) {
	ctx2 := btx.Tx.(*tx.CancelRoundTx)
	_, err = st.CancelRound(ctx2, btx.Sender, true)
	if err != nil {
		return
	}
	res = &abcitypes.ResponseCheckTx{Code: 0}
	return
}

func (h *CancelRoundTxHandler) NewContext(ctx context.Context) {}

func (h *CancelRoundTxHandler) handle(ctx context.Context, st *state.State, btx *tx.QFTx) (res *abcitypes.ExecTxResult, err error) {
	ctx2 := btx.Tx.(*tx.CancelRoundTx)
	res = &abcitypes.ExecTxResult{}
	event, err := st.CancelRound(ctx2, btx.Sender, false)
	if err != nil {
		return
	}
	if event != nil {
		res.Events = []abcitypes.Event{types.EncodeEventRoundCanceled(event)}
	}
	return
}

func (h *CancelRoundTxHandler) Prepare(ctx context.Context, st *state.State, btx *tx.QFTx) (res *abcitypes.ExecTxResult, err error) {
	return h.handle(ctx, st, btx)
}

func (h *CancelRoundTxHandler) Process(ctx context.Context, st *state.State, btx *tx.QFTx) (res *abcitypes.ExecTxResult, err error) {
	return h.handle(ctx, st, btx)
}

type FinalizeRoundTxHandler struct {
	logger cmtlog.Logger
}

func NewFinalizeRoundTxHandler(logger cmtlog.Logger) (h *FinalizeRoundTxHandler) {
	logger = logger.With("module", "finalizeRoundTx")
	h = &FinalizeRoundTxHandler{
		logger: logger,
	}
	return
}

func (h *FinalizeRoundTxHandler) Check(ctx context.Context, st *state.State, btx *tx.QFTx) (res *abcitypes.ResponseCheckTx, err error) {
	ftx := btx.Tx.(*tx.FinalizeRoundTx)
	_, err = st.FinalizeRound(ftx, btx.Sender, true)
	if err != nil {
		return
	}
	res = &abcitypes.ResponseCheckTx{Code: 0}
	return
}

func (h *FinalizeRoundTxHandler) NewContext(ctx context.Context) {}

func (h *FinalizeRoundTxHandler) handle(ctx context.Context, st *state.State, btx *tx.QFTx) (res *abcitypes.ExecTxResult, err error) {
	ftx := btx.Tx.(*tx.FinalizeRoundTx)
	res = &abcitypes.ExecTxResult{}
	event, err := st.FinalizeRound(ftx, btx.Sender, false)
	if err != nil {
		return
	}
	if event != nil {
		res.Events = []abcitypes.Event{types.EncodeEventRoundFinalized(event)}
	}
	return
}

func (h *FinalizeRoundTxHandler) Prepare(ctx context.Context, st *state.State, btx *tx.QFTx) (res *abcitypes.ExecTxResult, err error) {
	return h.handle(ctx, st, btx)
}

func (h *FinalizeRoundTxHandler) Process(ctx context.Context, st *state.State, btx *tx.QFTx) (res *abcitypes.ExecTxResult, err error) {
	return h.handle(ctx, st, btx)
}
