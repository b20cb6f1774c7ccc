package tx

import (
	"encoding/json"
)

// QFTx is the signed transaction envelope. Sender is the account index of
// the signer; Sig holds one signature over SigData(chainID).
type QFTx struct {
	Version uint8    `json:"version"`
	Type    QFTxType `json:"type"`
	Nonce   uint64   `json:"nonce"`
	Sender  uint64   `json:"sender"`
	Tx      any      `json:"tx"`
	Sig     [][]byte `json:"sig"`
}

type CreateProjectTx struct {
	Name        []byte `json:"name"`
	Logo        []byte `json:"logo"`
	Description []byte `json:"description"`
	Website     []byte `json:"website"`
}

// FundTx deposits into the shared matching pool.
type FundTx struct {
	Amount uint64 `json:"amount"`
}

type ScheduleRoundTx struct {
	Start          uint64   `json:"start"`
	End            uint64   `json:"end"`
	MatchingFund   uint64   `json:"matchingFund"`
	ProjectIndexes []uint64 `json:"projectIndexes"`
}

type CancelRoundTx struct {
	RoundIndex uint64 `json:"roundIndex"`
}

type FinalizeRoundTx struct {
	RoundIndex uint64 `json:"roundIndex"`
}

type ContributeTx struct {
	ProjectIndex uint64 `json:"projectIndex"`
	Value        uint64 `json:"value"`
}

type ApproveTx struct {
	RoundIndex   uint64 `json:"roundIndex"`
	ProjectIndex uint64 `json:"projectIndex"`
}

type WithdrawTx struct {
	RoundIndex   uint64 `json:"roundIndex"`
	ProjectIndex uint64 `json:"projectIndex"`
}

type CancelProposalTx struct {
	RoundIndex   uint64 `json:"roundIndex"`
	ProjectIndex uint64 `json:"projectIndex"`
}

type SetMaxProposalCountTx struct {
	Count uint32 `json:"count"`
}

type SetWithdrawalExpirationTx struct {
	Expiration uint64 `json:"expiration"`
}

type SetIdentityRequiredTx struct {
	Required bool `json:"required"`
}

type qfTxTmpl[Tx any] struct {
	Version uint8    `json:"version"`
	Type    QFTxType `json:"type"`
	Nonce   uint64   `json:"nonce"`
	Sender  uint64   `json:"sender"`
	Tx      Tx       `json:"tx"`
	Sig     [][]byte `json:"sig"`
}

// SigData is the byte string signed by the sender: the envelope with the
// signature slot replaced by ext (the chain id).
func (tx *QFTx) SigData(ext []byte) (dat []byte, err error) {
	ntx := *tx
	ntx.Sig = [][]byte{ext}
	dat, err = json.Marshal(ntx)
	return
}

func parseQFTxType(dat []byte) QFTxType {
	var tx struct {
		Type QFTxType `json:"type"`
	}
	err := json.Unmarshal(dat, &tx)
	if err != nil {
		return QFTxTypeUnknown
	}
	return tx.Type
}

func unmarshalQFTx[Tx any](dat []byte) (btx *QFTx, err error) {
	var txt qfTxTmpl[Tx]
	err = json.Unmarshal(dat, &txt)
	if err != nil {
		return
	}
	btx = new(QFTx)
	btx.Version = txt.Version
	btx.Type = txt.Type
	btx.Nonce = txt.Nonce
	btx.Sender = txt.Sender
	btx.Tx = &txt.Tx
	btx.Sig = txt.Sig
	return
}

func UnmarshalQFTx(dat []byte) (btx *QFTx, err error) {
	tp := parseQFTxType(dat)
	switch tp {
	case QFTxTypeCreateProject:
		return unmarshalQFTx[CreateProjectTx](dat)
	case QFTxTypeFund:
		return unmarshalQFTx[FundTx](dat)
	case QFTxTypeScheduleRound:
		return unmarshalQFTx[ScheduleRoundTx](dat)
	case QFTxTypeCancelRound:
		return unmarshalQFTx[CancelRoundTx](dat)
	case QFTxTypeFinalizeRound:
		return unmarshalQFTx[FinalizeRoundTx](dat)
	case QFTxTypeContribute:
		return unmarshalQFTx[ContributeTx](dat)
	case QFTxTypeApprove:
		return unmarshalQFTx[ApproveTx](dat)
	case QFTxTypeWithdraw:
		return unmarshalQFTx[WithdrawTx](dat)
	case QFTxTypeCancelProposal:
		return unmarshalQFTx[CancelProposalTx](dat)
	case QFTxTypeSetMaxProposalCount:
		return unmarshalQFTx[SetMaxProposalCountTx](dat)
	case QFTxTypeSetWithdrawalExpiration:
		return unmarshalQFTx[SetWithdrawalExpirationTx](dat)
	case QFTxTypeSetIdentityRequired:
		return unmarshalQFTx[SetIdentityRequiredTx](dat)
	default:
		err = ErrUnsupportedTxType
	}
	return
}

func MarshalQFTx(btx *QFTx) (dat []byte, err error) {
	return json.Marshal(btx)
}
