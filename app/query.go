package app

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/calehh/qf-app/state"
	abcitypes "github.com/cometbft/cometbft/abci/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"
)

func (app *QFApp) Query(ctx context.Context, req *abcitypes.RequestQuery) (res *abcitypes.ResponseQuery, err error) {
	path := req.Path
	if !strings.HasSuffix(path, "/") {
		path += "/"
	}
	q, ok := app.queriers[path]
	if !ok {
		res = &abcitypes.ResponseQuery{}
		res.Code = 404
		return
	}
	res, err = q.Query(ctx, req)
	return
}

type Querier interface {
	Query(ctx context.Context, req *abcitypes.RequestQuery) (res *abcitypes.ResponseQuery, err error)
}

type AccountQuerier struct {
	db     *state.StateDB
	logger cmtlog.Logger
}

func NewAccountQuerier(db *state.StateDB, logger cmtlog.Logger) (q *AccountQuerier) {
	q = &AccountQuerier{
		db:     db,
		logger: logger,
	}
	return
}

// Query resolves an account either by its 20-byte address or by a
// big-endian encoded index of at most 8 bytes.
func (q *AccountQuerier) Query(ctx context.Context, req *abcitypes.RequestQuery) (res *abcitypes.ResponseQuery, err error) {
	res = &abcitypes.ResponseQuery{}
	var a *state.Account
	var height uint64
	if len(req.Data) == 20 {
		a, height, _ = q.db.GetAccountByAddress(req.Data)
	} else if len(req.Data) <= 8 {
		var idx uint64
		for _, v := range req.Data {
			idx <<= 8
			idx |= uint64(v)
		}
		a, height, _ = q.db.GetAccountByIndex(idx)
	}
	if a != nil {
		res.Value, _ = a.MarshalJSON()
		res.Height = int64(height)
	} else {
		res.Code = 1
	}
	return
}

type ProjectQuerier struct {
	db     *state.StateDB
	logger cmtlog.Logger
}

func NewProjectQuerier(db *state.StateDB, logger cmtlog.Logger) (q *ProjectQuerier) {
	q = &ProjectQuerier{
		db:     db,
		logger: logger,
	}
	return
}

func (q *ProjectQuerier) Query(ctx context.Context, req *abcitypes.RequestQuery) (res *abcitypes.ResponseQuery, err error) {
	res = &abcitypes.ResponseQuery{}
	projects, height, err := q.db.GetProjects()
	if err != nil {
		res.Code = 1
		return res, nil
	}
	res.Height = int64(height)
	res.Value, _ = json.Marshal(projects)
	return
}

type RoundQuerier struct {
	db     *state.StateDB
	logger cmtlog.Logger
}

func NewRoundQuerier(db *state.StateDB, logger cmtlog.Logger) (q *RoundQuerier) {
	q = &RoundQuerier{
		db:     db,
		logger: logger,
	}
	return
}

func (q *RoundQuerier) Query(ctx context.Context, req *abcitypes.RequestQuery) (res *abcitypes.ResponseQuery, err error) {
	res = &abcitypes.ResponseQuery{}
	if len(req.Data) > 8 {
		res.Code = 1
		return
	}
	var idx uint64
	for _, v := range req.Data {
		idx <<= 8
		idx |= uint64(v)
	}
	round, height, err := q.db.GetRound(idx)
	if err != nil {
		res.Code = 1
		return res, nil
	}
	res.Height = int64(height)
	res.Value, _ = json.Marshal(round)
	return
}
