package types

import (
	"bytes"

	cmtcrypto "github.com/cometbft/cometbft/crypto"
)

// Project is an immutable funding proposal registered on chain. The owner
// is the only account allowed to withdraw a proposal's funds.
type Project struct {
	Index        uint64 `json:"index"`
	Name         []byte `json:"name"`
	Logo         []byte `json:"logo"`
	Description  []byte `json:"description"`
	Website      []byte `json:"website"`
	Owner        []byte `json:"owner"`
	CreateHeight uint64 `json:"create_height"`
}

func (p *Project) OwnerAddress() string {
	return cmtcrypto.Address(p.Owner).String()
}

func (p *Project) Clone() *Project {
	n := *p
	n.Name = append([]byte(nil), p.Name...)
	n.Logo = append([]byte(nil), p.Logo...)
	n.Description = append([]byte(nil), p.Description...)
	n.Website = append([]byte(nil), p.Website...)
	n.Owner = append([]byte(nil), p.Owner...)
	return &n
}

// Round is a time-boxed funding event. Its proposal slots are fixed at
// creation; one slot per selected project, in the order requested.
type Round struct {
	Index        uint64     `json:"index"`
	Start        uint64     `json:"start"`
	End          uint64     `json:"end"`
	MatchingFund uint64     `json:"matching_fund"`
	Proposals    []Proposal `json:"proposals"`
	IsCanceled   bool       `json:"is_canceled"`
	IsFinalized  bool       `json:"is_finalized"`
}

func NewRound(index, start, end, matchingFund uint64, projectIndexes []uint64) *Round {
	r := &Round{
		Index:        index,
		Start:        start,
		End:          end,
		MatchingFund: matchingFund,
		Proposals:    make([]Proposal, 0, len(projectIndexes)),
	}
	for _, projectIndex := range projectIndexes {
		r.Proposals = append(r.Proposals, Proposal{
			ProjectIndex:  projectIndex,
			Contributions: []Contribution{},
		})
	}
	return r
}

// Proposal returns the slot for projectIndex, or nil if the project was
// not selected for this round.
func (r *Round) Proposal(projectIndex uint64) *Proposal {
	for i := range r.Proposals {
		if r.Proposals[i].ProjectIndex == projectIndex {
			return &r.Proposals[i]
		}
	}
	return nil
}

func (r *Round) Clone() *Round {
	n := *r
	n.Proposals = make([]Proposal, len(r.Proposals))
	for i := range r.Proposals {
		n.Proposals[i] = *r.Proposals[i].clone()
	}
	return &n
}

// Proposal is a project's participation record within one round.
// MatchingFund stays zero until the round is finalized and is immutable
// afterwards.
type Proposal struct {
	ProjectIndex         uint64         `json:"project_index"`
	Contributions        []Contribution `json:"contributions"`
	IsApproved           bool           `json:"is_approved"`
	IsCanceled           bool           `json:"is_canceled"`
	IsWithdrawn          bool           `json:"is_withdrawn"`
	WithdrawalExpiration uint64         `json:"withdrawal_expiration"`
	MatchingFund         uint64         `json:"matching_fund"`
}

// Contribution returns the existing entry for account, or nil. At most
// one entry per account exists in a proposal.
func (p *Proposal) Contribution(account []byte) *Contribution {
	for i := range p.Contributions {
		if bytes.Equal(p.Contributions[i].Account, account) {
			return &p.Contributions[i]
		}
	}
	return nil
}

func (p *Proposal) ContributionTotal() uint64 {
	var total uint64
	for i := range p.Contributions {
		total += p.Contributions[i].Value
	}
	return total
}

func (p *Proposal) clone() *Proposal {
	n := *p
	n.Contributions = make([]Contribution, len(p.Contributions))
	for i := range p.Contributions {
		n.Contributions[i] = Contribution{
			Account: append([]byte(nil), p.Contributions[i].Account...),
			Value:   p.Contributions[i].Value,
		}
	}
	return &n
}

// Contribution is one account's cumulative donation toward a proposal.
type Contribution struct {
	Account []byte `json:"account"`
	Value   uint64 `json:"value"`
}

func (c *Contribution) AccountAddress() string {
	return cmtcrypto.Address(c.Account).String()
}
