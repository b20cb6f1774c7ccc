package indexer

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type Service struct {
	engine     *gin.Engine
	indexer    *ChainIndexer
	listenAddr string
}

func NewService(listenAddr string, indexer *ChainIndexer) *Service {
	r := gin.Default()
	s := &Service{
		engine:     r,
		indexer:    indexer,
		listenAddr: listenAddr,
	}
	s.engine.POST("/getProjects", s.handleGetProjects)
	s.engine.POST("/getRounds", s.handleGetRounds)
	s.engine.POST("/getProposals", s.handleGetProposals)
	s.engine.POST("/getContributions", s.handleGetContributions)
	s.engine.POST("/getFunds", s.handleGetFunds)
	return s
}

func (s *Service) Start() {
	s.engine.Run(s.listenAddr)
}

type GetProjectsReq struct {
	Page     int `json:"page"`
	PageSize int `json:"pageSize"`
}

type GetProjectsResponse struct {
	Projects []Project `json:"projects"`
	Total    uint64    `json:"total"`
}

func (s *Service) handleGetProjects(c *gin.Context) {
	var response GetProjectsResponse
	response.Projects = make([]Project, 0)
	var requestData GetProjectsReq
	if err := c.ShouldBindJSON(&requestData); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	projects, total, err := s.indexer.getProjects(requestData.Page, requestData.PageSize)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	response.Projects = projects
	response.Total = total
	c.JSON(http.StatusOK, response)
}

type GetRoundsReq struct {
	RoundIndex *uint64 `json:"roundIndex"`
	Page       int     `json:"page"`
	PageSize   int     `json:"pageSize"`
}

type RoundInfo struct {
	Round     Round            `json:"round"`
	Proposals []ProposalStatus `json:"proposals"`
}

type GetRoundsResponse struct {
	Rounds []RoundInfo `json:"rounds"`
	Total  uint64      `json:"total"`
}

func (s *Service) handleGetRounds(c *gin.Context) {
	var response GetRoundsResponse
	response.Rounds = make([]RoundInfo, 0)
	var requestData GetRoundsReq
	if err := c.ShouldBindJSON(&requestData); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if requestData.RoundIndex != nil {
		round, err := s.indexer.getRoundByIndex(*requestData.RoundIndex)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		proposals, err := s.indexer.getProposalsByRound(round.RoundIndex)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		response.Rounds = append(response.Rounds, RoundInfo{Round: *round, Proposals: proposals})
		response.Total = 1
		c.JSON(http.StatusOK, response)
		return
	}

	rounds, total, err := s.indexer.getRounds(requestData.Page, requestData.PageSize)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	response.Total = total
	for _, round := range rounds {
		proposals, err := s.indexer.getProposalsByRound(round.RoundIndex)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		response.Rounds = append(response.Rounds, RoundInfo{Round: round, Proposals: proposals})
	}
	c.JSON(http.StatusOK, response)
}

type GetProposalsReq struct {
	RoundIndex uint64 `json:"roundIndex"`
}

type GetProposalsResponse struct {
	Proposals []ProposalStatus `json:"proposals"`
}

func (s *Service) handleGetProposals(c *gin.Context) {
	var response GetProposalsResponse
	response.Proposals = make([]ProposalStatus, 0)
	var requestData GetProposalsReq
	if err := c.ShouldBindJSON(&requestData); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	proposals, err := s.indexer.getProposalsByRound(requestData.RoundIndex)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	response.Proposals = proposals
	c.JSON(http.StatusOK, response)
}

type GetContributionsReq struct {
	RoundIndex   uint64 `json:"roundIndex"`
	ProjectIndex uint64 `json:"projectIndex"`
	Account      string `json:"account"`
	Page         int    `json:"page"`
	PageSize     int    `json:"pageSize"`
}

type GetContributionsResponse struct {
	Contributions []Contribution `json:"contributions"`
	Total         uint64         `json:"total"`
}

func (s *Service) handleGetContributions(c *gin.Context) {
	var response GetContributionsResponse
	response.Contributions = make([]Contribution, 0)
	var requestData GetContributionsReq
	if err := c.ShouldBindJSON(&requestData); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if requestData.Account != "" {
		contributions, total, err := s.indexer.getContributionsByAccount(requestData.Account, requestData.Page, requestData.PageSize)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		response.Contributions = contributions
		response.Total = total
		c.JSON(http.StatusOK, response)
		return
	}
	contributions, total, err := s.indexer.getContributionsByProposal(requestData.RoundIndex, requestData.ProjectIndex, requestData.Page, requestData.PageSize)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	response.Contributions = contributions
	response.Total = total
	c.JSON(http.StatusOK, response)
}

type GetFundsReq struct {
	Page     int `json:"page"`
	PageSize int `json:"pageSize"`
}

type GetFundsResponse struct {
	Funds []Fund `json:"funds"`
	Total uint64 `json:"total"`
}

func (s *Service) handleGetFunds(c *gin.Context) {
	var response GetFundsResponse
	response.Funds = make([]Fund, 0)
	var requestData GetFundsReq
	if err := c.ShouldBindJSON(&requestData); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	funds, total, err := s.indexer.getFunds(requestData.Page, requestData.PageSize)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	response.Funds = funds
	response.Total = total
	c.JSON(http.StatusOK, response)
}
