package app

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"strings"

	"github.com/calehh/qf-app/config"
	"github.com/calehh/qf-app/state"
	"github.com/calehh/qf-app/tx"
	"github.com/calehh/qf-app/tx/handler"
	qf_types "github.com/calehh/qf-app/types"
	abcitypes "github.com/cometbft/cometbft/abci/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"
	"github.com/cometbft/cometbft/store"
	"github.com/ethereum/go-ethereum/common"
)

type finalizeBlock struct {
	Height uint64
	Hash   common.Hash
}

func (b *finalizeBlock) Set(blk *abcitypes.RequestFinalizeBlock) {
	b.Height = uint64(blk.Height)
	b.Hash = common.BytesToHash(blk.Hash)
}

var _ abcitypes.Application = &QFApp{}

// QFApp is the ABCI application hosting the grant round engine.
type QFApp struct {
	cfg    *config.QFAppConfig
	logger cmtlog.Logger

	db       *state.StateDB
	lastBlk  finalizeBlock
	txHdlrs  map[tx.QFTxType]handler.TxHandler
	queriers map[string]Querier

	st *state.State
}

func NewQFApp(cfg *config.QFAppConfig, logger cmtlog.Logger) (app *QFApp, err error) {
	logger = logger.With("module", "app")

	dir := cfg.Home + "/data"
	db, err := state.NewStateDB(dir, logger)
	if err != nil {
		return nil, err
	}

	app = &QFApp{
		cfg:      cfg,
		logger:   logger,
		db:       db,
		txHdlrs:  make(map[tx.QFTxType]handler.TxHandler),
		queriers: make(map[string]Querier),
	}
	app.registerTxHandler()
	app.registerQuerier()
	return
}

func (app *QFApp) Start(bs *store.BlockStore) {
	height := app.db.Header().Height
	if height > 0 {
		blk := bs.LoadBlock(int64(height))
		if blk == nil {
			panic("unexpected BlockStore")
		}
		app.lastBlk.Height = height
		app.lastBlk.Hash = common.BytesToHash(blk.Hash())
	}
}

func (app *QFApp) Stop() {
	err := app.db.Close()
	if err != nil {
		app.logger.Error("close db fail", "err", err)
	}
	app.logger.Info("QF app stopped")
}

func (app *QFApp) StateDB() *state.StateDB {
	return app.db
}

func (app *QFApp) registerTxHandler() {
	paramsHdlr := handler.NewParamsTxHandler(app.logger)
	app.txHdlrs = map[tx.QFTxType]handler.TxHandler{
		tx.QFTxTypeCreateProject:           handler.NewCreateProjectTxHandler(app.logger),
		tx.QFTxTypeFund:                    handler.NewFundTxHandler(app.logger),
		tx.QFTxTypeScheduleRound:           handler.NewScheduleRoundTxHandler(app.logger),
		tx.QFTxTypeCancelRound:             handler.NewCancelRoundTxHandler(app.logger),
		tx.QFTxTypeFinalizeRound:           handler.NewFinalizeRoundTxHandler(app.logger),
		tx.QFTxTypeContribute:              handler.NewContributeTxHandler(app.logger),
		tx.QFTxTypeApprove:                 handler.NewApproveTxHandler(app.logger),
		tx.QFTxTypeWithdraw:                handler.NewWithdrawTxHandler(app.logger),
		tx.QFTxTypeCancelProposal:          handler.NewCancelProposalTxHandler(app.logger),
		tx.QFTxTypeSetMaxProposalCount:     paramsHdlr,
		tx.QFTxTypeSetWithdrawalExpiration: paramsHdlr,
		tx.QFTxTypeSetIdentityRequired:     paramsHdlr,
	}
}

func (app *QFApp) registerQuerier() {
	app.queriers["/accounts/"] = NewAccountQuerier(app.db, app.logger)
	app.queriers["/projects/"] = NewProjectQuerier(app.db, app.logger)
	app.queriers["/rounds/"] = NewRoundQuerier(app.db, app.logger)
}

func parseAuthority(s string) ([]byte, error) {
	s = strings.TrimPrefix(strings.ToLower(s), "0x")
	return hex.DecodeString(s)
}

func (app *QFApp) InitChain(_ context.Context, chain *abcitypes.RequestInitChain) (res *abcitypes.ResponseInitChain, err error) {
	st := app.db.NewState()
	st.SetChainId(chain.ChainId)

	as := qf_types.DefaultAppState()
	if len(chain.AppStateBytes) > 0 {
		var genState qf_types.GenesisState
		if err = json.Unmarshal(chain.AppStateBytes, &genState); err != nil {
			app.logger.Error("InitChain parse app state fail", "err", err)
			return nil, err
		}
		if raw, ok := genState[qf_types.QFModuleName]; ok {
			if err = json.Unmarshal(raw, as); err != nil {
				app.logger.Error("InitChain parse module state fail", "err", err)
				return nil, err
			}
		}
	}
	if err = as.Validate(); err != nil {
		app.logger.Error("InitChain invalid app state", "err", err)
		return nil, err
	}
	st.InitParams(as)
	if as.Authority != "" {
		addr, err := parseAuthority(as.Authority)
		if err != nil {
			app.logger.Error("InitChain invalid authority", "err", err)
			return nil, err
		}
		st.SetAuthority(addr)
	}

	for _, ga := range as.Accounts {
		var acnt state.Account
		acnt.SetPubKey(ga.PubKey)
		acnt.Balance = ga.Balance
		acnt.Attestation = ga.Attestation
		err = st.AddAccount(&acnt)
		if err != nil {
			app.logger.Error("InitChain add account fail", "err", err)
			return nil, err
		}
	}
	for _, v := range chain.Validators {
		var acnt state.Account
		acnt.SetPubKey(v.PubKey.GetEd25519())
		existing, err := st.FindAccount(acnt.AddrBytes())
		if err != nil {
			return nil, err
		}
		if existing != nil {
			continue
		}
		err = st.AddAccount(&acnt)
		if err != nil {
			app.logger.Error("InitChain add validator account fail", "err", err)
			return nil, err
		}
	}

	var h common.Hash
	_, err = st.Update()
	if err != nil {
		app.logger.Error("InitChain update state fail", "err", err)
		return nil, err
	}
	h, err = app.db.SetState(st)
	if err != nil {
		app.logger.Error("InitChain apply state fail", "err", err)
		return nil, err
	}
	return &abcitypes.ResponseInitChain{
		AppHash: h.Bytes(),
	}, nil
}

func (app *QFApp) Info(ctx context.Context, info *abcitypes.RequestInfo) (*abcitypes.ResponseInfo, error) {
	header := app.db.Header()
	return &abcitypes.ResponseInfo{
		LastBlockHeight:  int64(header.Height),
		LastBlockAppHash: header.Hash,
	}, nil
}

func (app *QFApp) ExtendVote(_ context.Context, extend *abcitypes.RequestExtendVote) (*abcitypes.ResponseExtendVote, error) {
	return &abcitypes.ResponseExtendVote{}, nil
}

func (app *QFApp) VerifyVoteExtension(_ context.Context, verify *abcitypes.RequestVerifyVoteExtension) (*abcitypes.ResponseVerifyVoteExtension, error) {
	return &abcitypes.ResponseVerifyVoteExtension{}, nil
}

func (app *QFApp) ApplySnapshotChunk(context.Context, *abcitypes.RequestApplySnapshotChunk) (*abcitypes.ResponseApplySnapshotChunk, error) {
	return nil, nil
}

func (app *QFApp) ListSnapshots(context.Context, *abcitypes.RequestListSnapshots) (*abcitypes.ResponseListSnapshots, error) {
	return nil, nil
}

func (app *QFApp) LoadSnapshotChunk(context.Context, *abcitypes.RequestLoadSnapshotChunk) (*abcitypes.ResponseLoadSnapshotChunk, error) {
	return nil, nil
}

func (app *QFApp) OfferSnapshot(context.Context, *abcitypes.RequestOfferSnapshot) (*abcitypes.ResponseOfferSnapshot, error) {
	return nil, nil
}
