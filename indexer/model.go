package indexer

// sqlite models

// Proposal lifecycle as seen by the indexer.
const (
	ProposalStatusPending   = 0
	ProposalStatusCanceled  = 1
	ProposalStatusApproved  = 2
	ProposalStatusWithdrawn = 3
)

type Height struct {
	Id     uint64 `gorm:"primaryKey" json:"id"`
	Height uint64 `json:"height"`
}

// Project rows use a synthetic primary key. Chain project indexes start
// at zero, which gorm treats as an unset key.
type Project struct {
	Id           uint64 `gorm:"primaryKey;autoIncrement" json:"id"`
	ProjectIndex uint64 `gorm:"unique_index" json:"project_index"`
	Name         string `json:"name"`
	Owner        string `json:"owner"`
	CreateHeight uint64 `json:"create_height"`
}

type Round struct {
	Id           uint64 `gorm:"primaryKey;autoIncrement" json:"id"`
	RoundIndex   uint64 `gorm:"unique_index" json:"round_index"`
	Start        uint64 `json:"start"`
	End          uint64 `json:"end"`
	MatchingFund uint64 `json:"matching_fund"`
	Projects     string `json:"projects"`
	IsCanceled   bool   `json:"is_canceled"`
	IsFinalized  bool   `json:"is_finalized"`
}

type ProposalStatus struct {
	Id                   uint64 `gorm:"primaryKey;autoIncrement" json:"id"`
	RoundIndex           uint64 `json:"round_index"`
	ProjectIndex         uint64 `json:"project_index"`
	Status               uint64 `json:"status"`
	WithdrawalExpiration uint64 `json:"withdrawal_expiration"`
	MatchingFund         uint64 `json:"matching_fund"`
	ContributionAmount   uint64 `json:"contribution_amount"`
}

type Contribution struct {
	Id           uint64 `gorm:"primaryKey;autoIncrement" json:"id"`
	RoundIndex   uint64 `json:"round_index"`
	ProjectIndex uint64 `json:"project_index"`
	Account      string `json:"account"`
	Value        uint64 `json:"value"`
	Height       uint64 `json:"height"`
}

type Fund struct {
	Id     uint64 `gorm:"primaryKey;autoIncrement" json:"id"`
	Funder string `json:"funder"`
	Amount uint64 `json:"amount"`
	Height uint64 `json:"height"`
}
