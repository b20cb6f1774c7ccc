package handler

import (
	"context"

	"github.com/calehh/qf-app/state"
	"github.com/calehh/qf-app/tx"
	"github.com/calehh/qf-app/types"
	abcitypes "github.com/cometbft/cometbft/abci/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"
)

type CreateProjectTxHandler struct {
	logger cmtlog.Logger
}

func NewCreateProjectTxHandler(logger cmtlog.Logger) (h *CreateProjectTxHandler) {
	logger = logger.With("module", "createProjectTx")
	h = &CreateProjectTxHandler{
		logger: logger,
	}
	return
}

func (h *CreateProjectTxHandler) Check(ctx context.Context, st *state.State, btx *tx.QFTx) (res *abcitypes.ResponseCheckTx, err error) {
	ptx := btx.Tx.(*tx.CreateProjectTx)
	_, err = st.CreateProject(ptx, btx.Sender, true)
	if err != nil {
		return
	}
	res = &abcitypes.ResponseCheckTx{Code: 0}
	return
}

func (h *CreateProjectTxHandler) NewContext(ctx context.Context) {}

func (h *CreateProjectTxHandler) handle(ctx context.Context, st *state.State, btx *tx.QFTx) (res *abcitypes.ExecTxResult, err error) {
	ptx := btx.Tx.(*tx.CreateProjectTx)
	res = &abcitypes.ExecTxResult{}
	event, err := st.CreateProject(ptx, btx.Sender, false)
	if err != nil {
		return
	}
	if event != nil {
		res.Events = []abcitypes.Event{types.EncodeEventProjectCreated(event)}
	}
	return
}

func (h *CreateProjectTxHandler) Prepare(ctx context.Context, st *state.State, btx *tx.QFTx) (res *abcitypes.ExecTxResult, err error) {
	return h.handle(ctx, st, btx)
}

func (h *CreateProjectTxHandler) Process(ctx context.Context, st *state.State, btx *tx.QFTx) (res *abcitypes.ExecTxResult, err error) {
	return h.handle(ctx, st, btx)
}
