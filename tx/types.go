package tx

import "errors"

type QFTxType uint8

const (
	QFTxTypeUnknown                  QFTxType = 0
	QFTxTypeCreateProject            QFTxType = 1
	QFTxTypeFund                     QFTxType = 2
	QFTxTypeScheduleRound            QFTxType = 3
	QFTxTypeCancelRound              QFTxType = 4
	QFTxTypeFinalizeRound            QFTxType = 5
	QFTxTypeContribute               QFTxType = 6
	QFTxTypeApprove                  QFTxType = 7
	QFTxTypeWithdraw                 QFTxType = 8
	QFTxTypeCancelProposal           QFTxType = 9
	QFTxTypeSetMaxProposalCount      QFTxType = 10
	QFTxTypeSetWithdrawalExpiration  QFTxType = 11
	QFTxTypeSetIdentityRequired      QFTxType = 12
)

const (
	QFTxVersion0 uint8 = 0
	QFTxVersion1 uint8 = 1
)

var (
	ErrInvalidTx         = errors.New("invalid tx")
	ErrUnsupportedTxType = errors.New("unsupported tx type")
	ErrUnmatchedTxType   = errors.New("unmatched tx type")
)
