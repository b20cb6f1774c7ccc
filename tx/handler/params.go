package handler

import (
	"context"

	"github.com/calehh/qf-app/state"
	"github.com/calehh/qf-app/tx"
	abcitypes "github.com/cometbft/cometbft/abci/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"
)

// ParamsTxHandler covers the three admin parameter setters. They share
// validation shape and emit no events, so one handler dispatches on the
// payload type.
type ParamsTxHandler struct {
	logger cmtlog.Logger
}

func NewParamsTxHandler(logger cmtlog.Logger) (h *ParamsTxHandler) {
	logger = logger.With("module", "paramsTx")
	h = &ParamsTxHandler{
		logger: logger,
	}
	return
}

func (h *ParamsTxHandler) apply(st *state.State, btx *tx.QFTx, checkOnly bool) error {
	switch ptx := btx.Tx.(type) {
	case *tx.SetMaxProposalCountTx:
		return st.SetMaxProposalCountPerRound(ptx, btx.Sender, checkOnly)
	case *tx.SetWithdrawalExpirationTx:
		return st.SetWithdrawalExpiration(ptx, btx.Sender, checkOnly)
	case *tx.SetIdentityRequiredTx:
		return st.SetIsIdentityRequired(ptx, btx.Sender, checkOnly)
	default:
		return tx.ErrUnmatchedTxType
	}
}

func (h *ParamsTxHandler) Check(ctx context.Context, st *state.State, btx *tx.QFTx) (res *abcitypes.ResponseCheckTx, err error) {
	err = h.apply(st, btx, true)
	if err != nil {
		return
	}
	res = &abcitypes.ResponseCheckTx{Code: 0}
	return
}

func (h *ParamsTxHandler) NewContext(ctx context.Context) {}

func (h *ParamsTxHandler) handle(ctx context.Context, st *state.State, btx *tx.QFTx) (res *abcitypes.ExecTxResult, err error) {
	res = &abcitypes.ExecTxResult{}
	err = h.apply(st, btx, false)
	return
}

func (h *ParamsTxHandler) Prepare(ctx context.Context, st *state.State, btx *tx.QFTx) (res *abcitypes.ExecTxResult, err error) {
	return h.handle(ctx, st, btx)
}

func (h *ParamsTxHandler) Process(ctx context.Context, st *state.State, btx *tx.QFTx) (res *abcitypes.ExecTxResult, err error) {
	return h.handle(ctx, st, btx)
}
