package indexer

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	qf_types "github.com/calehh/qf-app/types"
	abci "github.com/cometbft/cometbft/abci/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"
	comethttp "github.com/cometbft/cometbft/rpc/client/http"
	"github.com/jinzhu/gorm"
	_ "github.com/jinzhu/gorm/dialects/sqlite"
)

// ChainIndexer tails BlockResults over the comet RPC and mirrors round
// engine events into sqlite for the read API.
type ChainIndexer struct {
	logger        cmtlog.Logger
	Url           string
	Height        int64
	db            *gorm.DB
	cli           *comethttp.HTTP
	eventHandlers map[string]eventHandler
}

func NewChainIndexer(logger cmtlog.Logger, dbPath string, chainUrl string) (*ChainIndexer, error) {
	logger.Info("NewChainIndexer", "dbPath", dbPath, "url", chainUrl)
	cli, err := comethttp.New(chainUrl, "/websocket")
	if err != nil {
		return nil, err
	}
	db, err := gorm.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&Project{}, &Round{}, &ProposalStatus{}, &Contribution{}, &Fund{}, &Height{}).Error; err != nil {
		return nil, err
	}
	h := Height{Id: 1}
	if err = db.First(&h).Error; err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	c := ChainIndexer{
		logger:        logger.With("module", "indexer"),
		Url:           chainUrl,
		Height:        int64(h.Height + 1),
		db:            db,
		cli:           cli,
		eventHandlers: map[string]eventHandler{},
	}

	c.eventHandlers = map[string]eventHandler{
		qf_types.EventProjectCreatedType:    c.handleEventProjectCreated,
		qf_types.EventRoundCreatedType:      c.handleEventRoundCreated,
		qf_types.EventContributeType:        c.handleEventContribute,
		qf_types.EventProposalCanceledType:  c.handleEventProposalCanceled,
		qf_types.EventProposalApprovedType:  c.handleEventProposalApproved,
		qf_types.EventProposalWithdrawnType: c.handleEventProposalWithdrawn,
		qf_types.EventRoundCanceledType:     c.handleEventRoundCanceled,
		qf_types.EventRoundFinalizedType:    c.handleEventRoundFinalized,
		qf_types.EventFundType:              c.handleEventFund,
	}
	return &c, nil
}

type eventHandler func(ctx context.Context, event abci.Event, height int64)

func (c *ChainIndexer) handleEvent(ctx context.Context, event abci.Event, height int64) {
	if h, ok := c.eventHandlers[event.Type]; ok {
		h(ctx, event, height)
	}
}

func (c *ChainIndexer) handleEventProjectCreated(ctx context.Context, event abci.Event, height int64) {
	ev := qf_types.DecodeEventProjectCreated(event)
	if ev == nil {
		c.logger.Error("decode event fail", "event", event)
		return
	}
	project := Project{}
	if err := c.db.Where("project_index = ?", ev.ProjectIndex).First(&project).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			c.logger.Error("get project fail", "err", err)
			return
		}
	}
	project.ProjectIndex = ev.ProjectIndex
	project.Name = ev.Name
	project.Owner = ev.Owner
	project.CreateHeight = ev.Height
	if err := c.db.Save(&project).Error; err != nil {
		c.logger.Error("save project fail", "err", err)
	}
}

func (c *ChainIndexer) handleEventRoundCreated(ctx context.Context, event abci.Event, height int64) {
	ev := qf_types.DecodeEventRoundCreated(event)
	if ev == nil {
		c.logger.Error("decode event fail", "event", event)
		return
	}
	indexes := make([]string, len(ev.ProjectIndexes))
	for i := range ev.ProjectIndexes {
		indexes[i] = strconv.FormatUint(ev.ProjectIndexes[i], 10)
	}
	round := Round{
		RoundIndex:   ev.RoundIndex,
		Start:        ev.Start,
		End:          ev.End,
		MatchingFund: ev.MatchingFund,
		Projects:     strings.Join(indexes, ","),
	}
	if err := c.db.Save(&round).Error; err != nil {
		c.logger.Error("save round fail", "err", err)
		return
	}
	for _, projectIndex := range ev.ProjectIndexes {
		status := ProposalStatus{
			RoundIndex:   ev.RoundIndex,
			ProjectIndex: projectIndex,
			Status:       ProposalStatusPending,
		}
		if err := c.db.Create(&status).Error; err != nil {
			c.logger.Error("save proposal status fail", "err", err)
		}
	}
}

func (c *ChainIndexer) handleEventContribute(ctx context.Context, event abci.Event, height int64) {
	ev := qf_types.DecodeEventContribute(event)
	if ev == nil {
		c.logger.Error("decode event fail", "event", event)
		return
	}
	contribution := Contribution{}
	err := c.db.Where("round_index = ? AND project_index = ? AND account = ?",
		ev.RoundIndex, ev.ProjectIndex, ev.Account).First(&contribution).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		c.logger.Error("get contribution fail", "err", err)
		return
	}
	contribution.RoundIndex = ev.RoundIndex
	contribution.ProjectIndex = ev.ProjectIndex
	contribution.Account = ev.Account
	contribution.Value += ev.Value
	contribution.Height = ev.Height
	if err := c.db.Save(&contribution).Error; err != nil {
		c.logger.Error("save contribution fail", "err", err)
		return
	}
	err = c.db.Model(&ProposalStatus{}).
		Where("round_index = ? AND project_index = ?", ev.RoundIndex, ev.ProjectIndex).
		Update("contribution_amount", gorm.Expr("contribution_amount + ?", ev.Value)).Error
	if err != nil {
		c.logger.Error("update proposal status fail", "err", err)
	}
}

func (c *ChainIndexer) handleEventProposalCanceled(ctx context.Context, event abci.Event, height int64) {
	ev := qf_types.DecodeEventProposalCanceled(event)
	if ev == nil {
		c.logger.Error("decode event fail", "event", event)
		return
	}
	err := c.db.Model(&ProposalStatus{}).
		Where("round_index = ? AND project_index = ?", ev.RoundIndex, ev.ProjectIndex).
		Update("status", ProposalStatusCanceled).Error
	if err != nil {
		c.logger.Error("update proposal status fail", "err", err)
	}
}

func (c *ChainIndexer) handleEventProposalApproved(ctx context.Context, event abci.Event, height int64) {
	ev := qf_types.DecodeEventProposalApproved(event)
	if ev == nil {
		c.logger.Error("decode event fail", "event", event)
		return
	}
	err := c.db.Model(&ProposalStatus{}).
		Where("round_index = ? AND project_index = ?", ev.RoundIndex, ev.ProjectIndex).
		Updates(map[string]interface{}{
			"status":                ProposalStatusApproved,
			"withdrawal_expiration": ev.WithdrawalExpiration,
		}).Error
	if err != nil {
		c.logger.Error("update proposal status fail", "err", err)
	}
}

func (c *ChainIndexer) handleEventProposalWithdrawn(ctx context.Context, event abci.Event, height int64) {
	ev := qf_types.DecodeEventProposalWithdrawn(event)
	if ev == nil {
		c.logger.Error("decode event fail", "event", event)
		return
	}
	err := c.db.Model(&ProposalStatus{}).
		Where("round_index = ? AND project_index = ?", ev.RoundIndex, ev.ProjectIndex).
		Updates(map[string]interface{}{
			"status":              ProposalStatusWithdrawn,
			"matching_fund":       ev.MatchingFund,
			"contribution_amount": ev.ContributionAmount,
		}).Error
	if err != nil {
		c.logger.Error("update proposal status fail", "err", err)
	}
}

func (c *ChainIndexer) handleEventRoundCanceled(ctx context.Context, event abci.Event, height int64) {
	ev := qf_types.DecodeEventRoundCanceled(event)
	if ev == nil {
		c.logger.Error("decode event fail", "event", event)
		return
	}
	err := c.db.Model(&Round{}).Where("round_index = ?", ev.RoundIndex).
		Update("is_canceled", true).Error
	if err != nil {
		c.logger.Error("update round fail", "err", err)
	}
}

// handleEventRoundFinalized marks the round settled and backfills every
// proposal's matching share from the chain, since the event itself only
// names the round.
func (c *ChainIndexer) handleEventRoundFinalized(ctx context.Context, event abci.Event, height int64) {
	ev := qf_types.DecodeEventRoundFinalized(event)
	if ev == nil {
		c.logger.Error("decode event fail", "event", event)
		return
	}
	err := c.db.Model(&Round{}).Where("round_index = ?", ev.RoundIndex).
		Update("is_finalized", true).Error
	if err != nil {
		c.logger.Error("update round fail", "err", err)
		return
	}
	round, err := c.queryRound(ctx, ev.RoundIndex)
	if err != nil {
		c.logger.Error("query round fail", "round", ev.RoundIndex, "err", err)
		return
	}
	for i := range round.Proposals {
		p := &round.Proposals[i]
		err = c.db.Model(&ProposalStatus{}).
			Where("round_index = ? AND project_index = ?", ev.RoundIndex, p.ProjectIndex).
			Update("matching_fund", p.MatchingFund).Error
		if err != nil {
			c.logger.Error("update proposal status fail", "err", err)
		}
	}
}

func (c *ChainIndexer) handleEventFund(ctx context.Context, event abci.Event, height int64) {
	ev := qf_types.DecodeEventFund(event)
	if ev == nil {
		c.logger.Error("decode event fail", "event", event)
		return
	}
	fund := Fund{
		Funder: ev.Funder,
		Amount: ev.Amount,
		Height: ev.Height,
	}
	if err := c.db.Create(&fund).Error; err != nil {
		c.logger.Error("save fund fail", "err", err)
	}
}

func (c *ChainIndexer) Start(ctx context.Context) {
	var err error
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if c.cli == nil {
				c.cli, err = comethttp.New(c.Url, "/websocket")
				if err != nil {
					c.logger.Error("connect fail", "err", err)
					continue
				}
			}
			b, err := c.cli.Status(context.TODO())
			if err != nil {
				c.logger.Error("get status fail", "err", err)
				if !c.cli.IsRunning() {
					c.cli.Stop()
					c.cli, err = comethttp.New(c.Url, "/websocket")
					if err != nil {
						c.logger.Error("reconnect fail", "err", err)
						continue
					}
				}
				continue
			}
			for b.SyncInfo.LatestBlockHeight > c.Height {
				time.Sleep(time.Millisecond * 100)
				c.logger.Info("indexer syncing", "height", c.Height)
				events, err := c.cli.BlockResults(ctx, &c.Height)
				if err != nil {
					c.logger.Error("get block results fail", "err", err)
					if !c.cli.IsRunning() {
						c.cli.Stop()
						c.cli, err = comethttp.New(c.Url, "/websocket")
						if err != nil {
							c.logger.Error("reconnect fail", "err", err)
							break
						}
					}
					continue
				}
				for _, res := range events.TxsResults {
					for _, event := range res.Events {
						c.handleEvent(ctx, event, c.Height)
					}
				}
				if err := c.db.Save(Height{
					Id:     1,
					Height: uint64(c.Height),
				}).Error; err != nil {
					c.logger.Error("save height fail", "err", err)
					continue
				}
				c.Height++
			}
		}
	}
}

func (c *ChainIndexer) queryRound(ctx context.Context, roundIndex uint64) (*qf_types.Round, error) {
	var dat [8]byte
	binary.BigEndian.PutUint64(dat[:], roundIndex)
	res, err := c.cli.ABCIQuery(ctx, "/rounds/", dat[:])
	if err != nil {
		return nil, err
	}
	if res.Response.Code != 0 {
		return nil, errors.New("round query failed")
	}
	var round qf_types.Round
	if err := json.Unmarshal(res.Response.Value, &round); err != nil {
		return nil, err
	}
	return &round, nil
}

func (c *ChainIndexer) getProjects(page int, pageSize int) ([]Project, uint64, error) {
	var projects []Project
	err := c.db.Order("project_index asc").Offset(page * pageSize).Limit(pageSize).Find(&projects).Error
	if err != nil {
		return nil, 0, err
	}
	var total uint64
	err = c.db.Model(&Project{}).Count(&total).Error
	if err != nil {
		return nil, 0, err
	}
	return projects, total, nil
}

func (c *ChainIndexer) getProjectByIndex(projectIndex uint64) (*Project, error) {
	var project Project
	err := c.db.Where("project_index = ?", projectIndex).First(&project).Error
	if err != nil {
		return nil, err
	}
	return &project, nil
}

func (c *ChainIndexer) getRounds(page int, pageSize int) ([]Round, uint64, error) {
	var rounds []Round
	err := c.db.Order("round_index desc").Offset(page * pageSize).Limit(pageSize).Find(&rounds).Error
	if err != nil {
		return nil, 0, err
	}
	var total uint64
	err = c.db.Model(&Round{}).Count(&total).Error
	if err != nil {
		return nil, 0, err
	}
	return rounds, total, nil
}

func (c *ChainIndexer) getRoundByIndex(roundIndex uint64) (*Round, error) {
	var round Round
	err := c.db.Where("round_index = ?", roundIndex).First(&round).Error
	if err != nil {
		return nil, err
	}
	return &round, nil
}

func (c *ChainIndexer) getProposalsByRound(roundIndex uint64) ([]ProposalStatus, error) {
	var proposals []ProposalStatus
	err := c.db.Where("round_index = ?", roundIndex).Order("project_index asc").Find(&proposals).Error
	if err != nil {
		return nil, err
	}
	return proposals, nil
}

func (c *ChainIndexer) getContributionsByProposal(roundIndex uint64, projectIndex uint64, page int, pageSize int) ([]Contribution, uint64, error) {
	var contributions []Contribution
	err := c.db.Where("round_index = ? AND project_index = ?", roundIndex, projectIndex).
		Order("id desc").Offset(page * pageSize).Limit(pageSize).Find(&contributions).Error
	if err != nil {
		return nil, 0, err
	}
	var total uint64
	err = c.db.Model(&Contribution{}).Where("round_index = ? AND project_index = ?", roundIndex, projectIndex).Count(&total).Error
	if err != nil {
		return nil, 0, err
	}
	return contributions, total, nil
}

func (c *ChainIndexer) getContributionsByAccount(account string, page int, pageSize int) ([]Contribution, uint64, error) {
	var contributions []Contribution
	err := c.db.Where("account = ?", account).
		Order("id desc").Offset(page * pageSize).Limit(pageSize).Find(&contributions).Error
	if err != nil {
		return nil, 0, err
	}
	var total uint64
	err = c.db.Model(&Contribution{}).Where("account = ?", account).Count(&total).Error
	if err != nil {
		return nil, 0, err
	}
	return contributions, total, nil
}

func (c *ChainIndexer) getFunds(page int, pageSize int) ([]Fund, uint64, error) {
	var funds []Fund
	err := c.db.Order("id desc").Offset(page * pageSize).Limit(pageSize).Find(&funds).Error
	if err != nil {
		return nil, 0, err
	}
	var total uint64
	err = c.db.Model(&Fund{}).Count(&total).Error
	if err != nil {
		return nil, 0, err
	}
	return funds, total, nil
}
