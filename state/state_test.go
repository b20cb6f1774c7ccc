package state

import (
	"testing"

	"github.com/calehh/qf-app/tx"
	qf_types "github.com/calehh/qf-app/types"
	"github.com/cometbft/cometbft/crypto/ed25519"
	cmtlog "github.com/cometbft/cometbft/libs/log"
	"github.com/cosmos/iavl"
	dbm "github.com/cosmos/iavl/db"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

func newTestState(t *testing.T) *State {
	t.Helper()
	logger := cmtlog.NewNopLogger()
	tree := iavl.NewMutableTree(dbm.NewMemDB(), 128, true, IAVLLogger(logger))
	st := newState(tree, logger)
	require.NoError(t, st.load())
	st.SetChainId("qf-test")
	st.InitParams(qf_types.DefaultAppState())
	return st
}

func addKeyedAccount(t *testing.T, st *State, balance uint64) (*Account, ed25519.PrivKey) {
	t.Helper()
	priv := ed25519.GenPrivKey()
	var a Account
	a.SetPubKey(priv.PubKey().Bytes())
	a.Balance = balance
	require.NoError(t, st.AddAccount(&a))
	acnt, err := st.GetAccount(a.Index)
	require.NoError(t, err)
	return acnt, priv
}

func addAuthority(t *testing.T, st *State) *Account {
	t.Helper()
	auth, _ := addKeyedAccount(t, st, 0)
	st.SetAuthority(auth.AddrBytes())
	return auth
}

func createProject(t *testing.T, st *State, owner *Account) uint64 {
	t.Helper()
	ev, err := st.CreateProject(&tx.CreateProjectTx{
		Name:        []byte("ipfs"),
		Logo:        []byte("logo.png"),
		Description: []byte("storage"),
		Website:     []byte("https://ipfs.io"),
	}, owner.Index, false)
	require.NoError(t, err)
	return ev.ProjectIndex
}

func TestCreateProject(t *testing.T) {
	st := newTestState(t)
	owner, _ := addKeyedAccount(t, st, 0)

	_, err := st.CreateProject(&tx.CreateProjectTx{
		Name:        []byte("ipfs"),
		Logo:        []byte("logo.png"),
		Description: []byte(""),
		Website:     []byte("https://ipfs.io"),
	}, owner.Index, false)
	require.ErrorIs(t, err, ErrInvalidParam)
	require.Equal(t, uint64(0), st.ProjectCount())

	idx := createProject(t, st, owner)
	require.Equal(t, uint64(0), idx)
	require.Equal(t, uint64(1), st.ProjectCount())

	project, err := st.GetProject(idx)
	require.NoError(t, err)
	require.Equal(t, owner.AddrBytes(), project.Owner)

	acnt, err := st.GetAccount(owner.Index)
	require.NoError(t, err)
	require.Equal(t, uint64(1), acnt.Nonce)
}

func TestCreateProjectIdentityGate(t *testing.T) {
	st := newTestState(t)
	as := qf_types.DefaultAppState()
	as.IsIdentityRequired = true
	st.InitParams(as)

	owner, _ := addKeyedAccount(t, st, 0)
	_, err := st.CreateProject(&tx.CreateProjectTx{
		Name:        []byte("ipfs"),
		Logo:        []byte("logo.png"),
		Description: []byte("storage"),
		Website:     []byte("https://ipfs.io"),
	}, owner.Index, false)
	require.ErrorIs(t, err, ErrIdentityNeeded)

	acnt, err := st.GetAccount(owner.Index)
	require.NoError(t, err)
	acnt.Attestation = 1
	st.touchAccount(acnt, ModifiedFlagMod)
	createProject(t, st, acnt)
}

func TestFund(t *testing.T) {
	st := newTestState(t)
	funder, _ := addKeyedAccount(t, st, 100)

	_, err := st.Fund(&tx.FundTx{Amount: 0}, funder.Index, false)
	require.ErrorIs(t, err, ErrInvalidParam)

	_, err = st.Fund(&tx.FundTx{Amount: 101}, funder.Index, false)
	require.ErrorIs(t, err, ErrNotEnoughFund)

	ev, err := st.Fund(&tx.FundTx{Amount: 60}, funder.Index, false)
	require.NoError(t, err)
	require.Equal(t, uint64(60), ev.Amount)

	pool, err := st.balanceOf(PoolAddress())
	require.NoError(t, err)
	require.Equal(t, uint64(60), pool)

	acnt, err := st.GetAccount(funder.Index)
	require.NoError(t, err)
	require.Equal(t, uint64(40), acnt.Balance)
}

func TestScheduleRoundValidation(t *testing.T) {
	st := newTestState(t)
	auth := addAuthority(t, st)
	owner, _ := addKeyedAccount(t, st, 0)
	createProject(t, st, owner)

	_, err := st.ScheduleRound(&tx.ScheduleRoundTx{Start: 10, End: 20, ProjectIndexes: []uint64{0}}, owner.Index, false)
	require.ErrorIs(t, err, ErrUnauthorized)

	_, err = st.ScheduleRound(&tx.ScheduleRoundTx{Start: 10, End: 20}, auth.Index, false)
	require.ErrorIs(t, err, ErrInvalidProjectIndexes)

	_, err = st.ScheduleRound(&tx.ScheduleRoundTx{Start: 10, End: 20, ProjectIndexes: []uint64{0, 0, 0, 0, 0, 0}}, auth.Index, false)
	require.ErrorIs(t, err, ErrProposalAmountExceed)

	_, err = st.ScheduleRound(&tx.ScheduleRoundTx{Start: 20, End: 10, ProjectIndexes: []uint64{0}}, auth.Index, false)
	require.ErrorIs(t, err, ErrEndTooEarly)

	_, err = st.ScheduleRound(&tx.ScheduleRoundTx{Start: 0, End: 20, ProjectIndexes: []uint64{0}}, auth.Index, false)
	require.ErrorIs(t, err, ErrStartHeightInvalid)

	_, err = st.ScheduleRound(&tx.ScheduleRoundTx{Start: 10, End: 20, ProjectIndexes: []uint64{5}}, auth.Index, false)
	require.ErrorIs(t, err, ErrInvalidProjectIndexes)

	ev, err := st.ScheduleRound(&tx.ScheduleRoundTx{Start: 10, End: 20, MatchingFund: 100, ProjectIndexes: []uint64{0}}, auth.Index, false)
	require.NoError(t, err)
	require.Equal(t, uint64(0), ev.RoundIndex)
	require.Equal(t, uint64(1), st.RoundCount())

	round, err := st.GetRound(0)
	require.NoError(t, err)
	require.Len(t, round.Proposals, 1)
	require.NotNil(t, round.Proposal(0))
}

func TestScheduleRoundNoOverlap(t *testing.T) {
	st := newTestState(t)
	auth := addAuthority(t, st)
	owner, _ := addKeyedAccount(t, st, 0)
	createProject(t, st, owner)

	_, err := st.ScheduleRound(&tx.ScheduleRoundTx{Start: 10, End: 20, ProjectIndexes: []uint64{0}}, auth.Index, false)
	require.NoError(t, err)

	// Starting at or before the previous round's end is rejected.
	_, err = st.ScheduleRound(&tx.ScheduleRoundTx{Start: 20, End: 30, ProjectIndexes: []uint64{0}}, auth.Index, false)
	require.ErrorIs(t, err, ErrStartHeightTooSmall)

	_, err = st.ScheduleRound(&tx.ScheduleRoundTx{Start: 21, End: 30, ProjectIndexes: []uint64{0}}, auth.Index, false)
	require.NoError(t, err)
}

func TestScheduleRoundSkipsCanceled(t *testing.T) {
	st := newTestState(t)
	auth := addAuthority(t, st)
	owner, _ := addKeyedAccount(t, st, 0)
	createProject(t, st, owner)

	_, err := st.ScheduleRound(&tx.ScheduleRoundTx{Start: 10, End: 20, ProjectIndexes: []uint64{0}}, auth.Index, false)
	require.NoError(t, err)
	_, err = st.CancelRound(&tx.CancelRoundTx{RoundIndex: 0}, auth.Index, false)
	require.NoError(t, err)

	// A canceled round no longer blocks its height range.
	_, err = st.ScheduleRound(&tx.ScheduleRoundTx{Start: 15, End: 25, ProjectIndexes: []uint64{0}}, auth.Index, false)
	require.NoError(t, err)
}

func TestCancelRound(t *testing.T) {
	st := newTestState(t)
	auth := addAuthority(t, st)
	owner, _ := addKeyedAccount(t, st, 0)
	createProject(t, st, owner)

	_, err := st.ScheduleRound(&tx.ScheduleRoundTx{Start: 10, End: 20, ProjectIndexes: []uint64{0}}, auth.Index, false)
	require.NoError(t, err)

	_, err = st.CancelRound(&tx.CancelRoundTx{RoundIndex: 0}, owner.Index, false)
	require.ErrorIs(t, err, ErrUnauthorized)

	st.header.Height = 10
	_, err = st.CancelRound(&tx.CancelRoundTx{RoundIndex: 0}, auth.Index, false)
	require.ErrorIs(t, err, ErrRoundStarted)

	st.header.Height = 9
	_, err = st.CancelRound(&tx.CancelRoundTx{RoundIndex: 0}, auth.Index, false)
	require.NoError(t, err)

	_, err = st.CancelRound(&tx.CancelRoundTx{RoundIndex: 0}, auth.Index, false)
	require.ErrorIs(t, err, ErrRoundCanceled)
}

func TestContribute(t *testing.T) {
	st := newTestState(t)
	auth := addAuthority(t, st)
	owner, _ := addKeyedAccount(t, st, 0)
	alice, _ := addKeyedAccount(t, st, 50)
	createProject(t, st, owner)

	_, err := st.Contribute(&tx.ContributeTx{ProjectIndex: 0, Value: 0}, alice.Index, false)
	require.ErrorIs(t, err, ErrInvalidParam)

	_, err = st.Contribute(&tx.ContributeTx{ProjectIndex: 9, Value: 1}, alice.Index, false)
	require.ErrorIs(t, err, ErrInvalidParam)

	_, err = st.Contribute(&tx.ContributeTx{ProjectIndex: 0, Value: 1}, alice.Index, false)
	require.ErrorIs(t, err, ErrNoActiveRound)

	_, err = st.ScheduleRound(&tx.ScheduleRoundTx{Start: 10, End: 20, ProjectIndexes: []uint64{0}}, auth.Index, false)
	require.NoError(t, err)

	// The window is exclusive on both edges.
	st.header.Height = 10
	_, err = st.Contribute(&tx.ContributeTx{ProjectIndex: 0, Value: 1}, alice.Index, false)
	require.ErrorIs(t, err, ErrRoundNotProcessing)

	st.header.Height = 11
	_, err = st.Contribute(&tx.ContributeTx{ProjectIndex: 0, Value: 100}, alice.Index, false)
	require.ErrorIs(t, err, ErrNotEnoughFund)

	ev, err := st.Contribute(&tx.ContributeTx{ProjectIndex: 0, Value: 10}, alice.Index, false)
	require.NoError(t, err)
	require.Equal(t, uint64(0), ev.RoundIndex)
	require.Equal(t, uint64(11), ev.Height)

	// Second donation from the same account merges into one entry.
	_, err = st.Contribute(&tx.ContributeTx{ProjectIndex: 0, Value: 5}, alice.Index, false)
	require.NoError(t, err)

	round, err := st.GetRound(0)
	require.NoError(t, err)
	proposal := round.Proposal(0)
	require.Len(t, proposal.Contributions, 1)
	require.Equal(t, uint64(15), proposal.Contributions[0].Value)
	require.Equal(t, uint64(15), proposal.ContributionTotal())

	sub, err := st.balanceOf(ProjectAddress(0))
	require.NoError(t, err)
	require.Equal(t, uint64(15), sub)

	acnt, err := st.GetAccount(alice.Index)
	require.NoError(t, err)
	require.Equal(t, uint64(35), acnt.Balance)
}

func TestContributeCanceledProposal(t *testing.T) {
	st := newTestState(t)
	auth := addAuthority(t, st)
	owner, _ := addKeyedAccount(t, st, 0)
	alice, _ := addKeyedAccount(t, st, 50)
	createProject(t, st, owner)
	createProject(t, st, owner)

	_, err := st.ScheduleRound(&tx.ScheduleRoundTx{Start: 10, End: 20, ProjectIndexes: []uint64{0, 1}}, auth.Index, false)
	require.NoError(t, err)
	_, err = st.CancelProposal(&tx.CancelProposalTx{RoundIndex: 0, ProjectIndex: 1}, auth.Index, false)
	require.NoError(t, err)

	st.header.Height = 11
	_, err = st.Contribute(&tx.ContributeTx{ProjectIndex: 1, Value: 1}, alice.Index, false)
	require.ErrorIs(t, err, ErrProposalCanceled)

	_, err = st.Contribute(&tx.ContributeTx{ProjectIndex: 0, Value: 1}, alice.Index, false)
	require.NoError(t, err)
}

func TestFinalizeRound(t *testing.T) {
	st := newTestState(t)
	auth := addAuthority(t, st)
	owner, _ := addKeyedAccount(t, st, 0)
	alice, _ := addKeyedAccount(t, st, 100)
	bob, _ := addKeyedAccount(t, st, 100)
	createProject(t, st, owner)
	createProject(t, st, owner)

	_, err := st.ScheduleRound(&tx.ScheduleRoundTx{Start: 10, End: 20, MatchingFund: 100, ProjectIndexes: []uint64{0, 1}}, auth.Index, false)
	require.NoError(t, err)

	st.header.Height = 11
	_, err = st.Contribute(&tx.ContributeTx{ProjectIndex: 0, Value: 4}, alice.Index, false)
	require.NoError(t, err)
	_, err = st.Contribute(&tx.ContributeTx{ProjectIndex: 0, Value: 1}, bob.Index, false)
	require.NoError(t, err)
	_, err = st.Contribute(&tx.ContributeTx{ProjectIndex: 1, Value: 1}, alice.Index, false)
	require.NoError(t, err)

	st.header.Height = 20
	_, err = st.FinalizeRound(&tx.FinalizeRoundTx{RoundIndex: 0}, auth.Index, false)
	require.ErrorIs(t, err, ErrRoundNotEnded)

	st.header.Height = 21
	_, err = st.FinalizeRound(&tx.FinalizeRoundTx{RoundIndex: 0}, alice.Index, false)
	require.ErrorIs(t, err, ErrUnauthorized)

	_, err = st.FinalizeRound(&tx.FinalizeRoundTx{RoundIndex: 0}, auth.Index, false)
	require.NoError(t, err)

	round, err := st.GetRound(0)
	require.NoError(t, err)
	require.True(t, round.IsFinalized)
	// Weights 9 and 1, total 10: the pool splits 90/10.
	require.Equal(t, uint64(90), round.Proposal(0).MatchingFund)
	require.Equal(t, uint64(10), round.Proposal(1).MatchingFund)

	_, err = st.FinalizeRound(&tx.FinalizeRoundTx{RoundIndex: 0}, auth.Index, false)
	require.ErrorIs(t, err, ErrRoundFinalized)
}

func TestFinalizeRoundNoContributions(t *testing.T) {
	st := newTestState(t)
	auth := addAuthority(t, st)
	owner, _ := addKeyedAccount(t, st, 0)
	createProject(t, st, owner)

	_, err := st.ScheduleRound(&tx.ScheduleRoundTx{Start: 10, End: 20, MatchingFund: 100, ProjectIndexes: []uint64{0}}, auth.Index, false)
	require.NoError(t, err)

	st.header.Height = 21
	_, err = st.FinalizeRound(&tx.FinalizeRoundTx{RoundIndex: 0}, auth.Index, false)
	require.NoError(t, err)

	round, err := st.GetRound(0)
	require.NoError(t, err)
	require.Equal(t, uint64(0), round.Proposal(0).MatchingFund)
}

func TestApproveAndWithdraw(t *testing.T) {
	st := newTestState(t)
	auth := addAuthority(t, st)
	owner, _ := addKeyedAccount(t, st, 0)
	funder, _ := addKeyedAccount(t, st, 1000)
	alice, _ := addKeyedAccount(t, st, 100)
	bob, _ := addKeyedAccount(t, st, 100)
	createProject(t, st, owner)

	_, err := st.Fund(&tx.FundTx{Amount: 1000}, funder.Index, false)
	require.NoError(t, err)

	_, err = st.ScheduleRound(&tx.ScheduleRoundTx{Start: 10, End: 20, MatchingFund: 100, ProjectIndexes: []uint64{0}}, auth.Index, false)
	require.NoError(t, err)

	st.header.Height = 11
	_, err = st.Contribute(&tx.ContributeTx{ProjectIndex: 0, Value: 4}, alice.Index, false)
	require.NoError(t, err)
	_, err = st.Contribute(&tx.ContributeTx{ProjectIndex: 0, Value: 1}, bob.Index, false)
	require.NoError(t, err)

	st.header.Height = 21
	_, err = st.Approve(&tx.ApproveTx{RoundIndex: 0, ProjectIndex: 0}, auth.Index, false)
	require.ErrorIs(t, err, ErrRoundNotFinalized)

	_, err = st.FinalizeRound(&tx.FinalizeRoundTx{RoundIndex: 0}, auth.Index, false)
	require.NoError(t, err)

	// An unapproved proposal has no stamped window, and the expiration
	// bound is checked before the approved flag.
	_, err = st.Withdraw(&tx.WithdrawTx{RoundIndex: 0, ProjectIndex: 0}, owner.Index, false)
	require.ErrorIs(t, err, ErrWithdrawalExpirationExceed)

	ev, err := st.Approve(&tx.ApproveTx{RoundIndex: 0, ProjectIndex: 0}, auth.Index, false)
	require.NoError(t, err)
	require.Equal(t, uint64(21+1000), ev.WithdrawalExpiration)

	_, err = st.Approve(&tx.ApproveTx{RoundIndex: 0, ProjectIndex: 0}, auth.Index, false)
	require.ErrorIs(t, err, ErrProposalApproved)

	// Only the project owner may withdraw.
	_, err = st.Withdraw(&tx.WithdrawTx{RoundIndex: 0, ProjectIndex: 0}, alice.Index, false)
	require.ErrorIs(t, err, ErrInvalidAccount)

	wev, err := st.Withdraw(&tx.WithdrawTx{RoundIndex: 0, ProjectIndex: 0}, owner.Index, false)
	require.NoError(t, err)
	require.Equal(t, uint64(100), wev.MatchingFund)
	require.Equal(t, uint64(5), wev.ContributionAmount)

	acnt, err := st.GetAccount(owner.Index)
	require.NoError(t, err)
	require.Equal(t, uint64(105), acnt.Balance)

	pool, err := st.balanceOf(PoolAddress())
	require.NoError(t, err)
	require.Equal(t, uint64(900), pool)
	sub, err := st.balanceOf(ProjectAddress(0))
	require.NoError(t, err)
	require.Equal(t, uint64(0), sub)

	_, err = st.Withdraw(&tx.WithdrawTx{RoundIndex: 0, ProjectIndex: 0}, owner.Index, false)
	require.ErrorIs(t, err, ErrProposalWithdrawn)
}

func TestWithdrawExpired(t *testing.T) {
	st := newTestState(t)
	auth := addAuthority(t, st)
	owner, _ := addKeyedAccount(t, st, 0)
	funder, _ := addKeyedAccount(t, st, 100)
	alice, _ := addKeyedAccount(t, st, 100)
	createProject(t, st, owner)

	_, err := st.Fund(&tx.FundTx{Amount: 100}, funder.Index, false)
	require.NoError(t, err)
	_, err = st.ScheduleRound(&tx.ScheduleRoundTx{Start: 10, End: 20, MatchingFund: 100, ProjectIndexes: []uint64{0}}, auth.Index, false)
	require.NoError(t, err)

	st.header.Height = 11
	_, err = st.Contribute(&tx.ContributeTx{ProjectIndex: 0, Value: 4}, alice.Index, false)
	require.NoError(t, err)

	st.header.Height = 21
	_, err = st.FinalizeRound(&tx.FinalizeRoundTx{RoundIndex: 0}, auth.Index, false)
	require.NoError(t, err)
	_, err = st.Approve(&tx.ApproveTx{RoundIndex: 0, ProjectIndex: 0}, auth.Index, false)
	require.NoError(t, err)

	st.header.Height = 21 + st.WithdrawalExpiration() + 1
	_, err = st.Withdraw(&tx.WithdrawTx{RoundIndex: 0, ProjectIndex: 0}, owner.Index, false)
	require.ErrorIs(t, err, ErrWithdrawalExpirationExceed)
}

func TestWithdrawPoolShortfall(t *testing.T) {
	st := newTestState(t)
	auth := addAuthority(t, st)
	owner, _ := addKeyedAccount(t, st, 0)
	alice, _ := addKeyedAccount(t, st, 100)
	createProject(t, st, owner)

	// The matching fund was promised but never deposited.
	_, err := st.ScheduleRound(&tx.ScheduleRoundTx{Start: 10, End: 20, MatchingFund: 100, ProjectIndexes: []uint64{0}}, auth.Index, false)
	require.NoError(t, err)

	st.header.Height = 11
	_, err = st.Contribute(&tx.ContributeTx{ProjectIndex: 0, Value: 4}, alice.Index, false)
	require.NoError(t, err)

	st.header.Height = 21
	_, err = st.FinalizeRound(&tx.FinalizeRoundTx{RoundIndex: 0}, auth.Index, false)
	require.NoError(t, err)
	_, err = st.Approve(&tx.ApproveTx{RoundIndex: 0, ProjectIndex: 0}, auth.Index, false)
	require.NoError(t, err)

	_, err = st.Withdraw(&tx.WithdrawTx{RoundIndex: 0, ProjectIndex: 0}, owner.Index, false)
	require.ErrorIs(t, err, ErrNotEnoughFund)
}

func TestCancelProposal(t *testing.T) {
	st := newTestState(t)
	auth := addAuthority(t, st)
	owner, _ := addKeyedAccount(t, st, 0)
	createProject(t, st, owner)

	_, err := st.ScheduleRound(&tx.ScheduleRoundTx{Start: 10, End: 20, ProjectIndexes: []uint64{0}}, auth.Index, false)
	require.NoError(t, err)

	_, err = st.CancelProposal(&tx.CancelProposalTx{RoundIndex: 0, ProjectIndex: 0}, owner.Index, false)
	require.ErrorIs(t, err, ErrUnauthorized)

	ev, err := st.CancelProposal(&tx.CancelProposalTx{RoundIndex: 0, ProjectIndex: 0}, auth.Index, false)
	require.NoError(t, err)
	require.Equal(t, uint64(0), ev.ProjectIndex)

	_, err = st.CancelProposal(&tx.CancelProposalTx{RoundIndex: 0, ProjectIndex: 0}, auth.Index, false)
	require.ErrorIs(t, err, ErrProposalCanceled)

	st.header.Height = 21
	_, err = st.FinalizeRound(&tx.FinalizeRoundTx{RoundIndex: 0}, auth.Index, false)
	require.NoError(t, err)
	_, err = st.Approve(&tx.ApproveTx{RoundIndex: 0, ProjectIndex: 0}, auth.Index, false)
	require.ErrorIs(t, err, ErrProposalCanceled)
}

func TestParamSetters(t *testing.T) {
	st := newTestState(t)
	auth := addAuthority(t, st)
	other, _ := addKeyedAccount(t, st, 0)

	err := st.SetMaxProposalCountPerRound(&tx.SetMaxProposalCountTx{Count: 10}, other.Index, false)
	require.ErrorIs(t, err, ErrUnauthorized)

	err = st.SetMaxProposalCountPerRound(&tx.SetMaxProposalCountTx{Count: 0}, auth.Index, false)
	require.ErrorIs(t, err, ErrParamLimitExceed)
	err = st.SetMaxProposalCountPerRound(&tx.SetMaxProposalCountTx{Count: qf_types.HardMaxProposalsPerRound + 1}, auth.Index, false)
	require.ErrorIs(t, err, ErrParamLimitExceed)
	err = st.SetMaxProposalCountPerRound(&tx.SetMaxProposalCountTx{Count: 10}, auth.Index, false)
	require.NoError(t, err)
	require.Equal(t, uint32(10), st.MaxProposalCountPerRound())

	err = st.SetWithdrawalExpiration(&tx.SetWithdrawalExpirationTx{Expiration: 0}, auth.Index, false)
	require.ErrorIs(t, err, ErrInvalidParam)
	err = st.SetWithdrawalExpiration(&tx.SetWithdrawalExpirationTx{Expiration: 50}, auth.Index, false)
	require.NoError(t, err)
	require.Equal(t, uint64(50), st.WithdrawalExpiration())

	err = st.SetIsIdentityRequired(&tx.SetIdentityRequiredTx{Required: true}, auth.Index, false)
	require.NoError(t, err)
	require.True(t, st.IsIdentityRequired())
}

func TestCheckOnlyLeavesStateUntouched(t *testing.T) {
	st := newTestState(t)
	owner, _ := addKeyedAccount(t, st, 100)

	ev, err := st.CreateProject(&tx.CreateProjectTx{
		Name:        []byte("ipfs"),
		Logo:        []byte("logo.png"),
		Description: []byte("storage"),
		Website:     []byte("https://ipfs.io"),
	}, owner.Index, true)
	require.NoError(t, err)
	require.Nil(t, ev)
	require.Equal(t, uint64(0), st.ProjectCount())

	fev, err := st.Fund(&tx.FundTx{Amount: 60}, owner.Index, true)
	require.NoError(t, err)
	require.Nil(t, fev)
	acnt, err := st.GetAccount(owner.Index)
	require.NoError(t, err)
	require.Equal(t, uint64(100), acnt.Balance)
	require.Equal(t, uint64(0), acnt.Nonce)
}

func TestVerify(t *testing.T) {
	st := newTestState(t)
	alice, priv := addKeyedAccount(t, st, 100)

	btx := &tx.QFTx{
		Version: tx.QFTxVersion1,
		Type:    tx.QFTxTypeFund,
		Nonce:   0,
		Sender:  alice.Index,
		Tx:      &tx.FundTx{Amount: 5},
	}
	dat, err := btx.SigData([]byte("qf-test"))
	require.NoError(t, err)
	sig, err := priv.Sign(dat)
	require.NoError(t, err)
	btx.Sig = [][]byte{sig}

	succ, err := st.Verify(btx, false)
	require.NoError(t, err)
	require.True(t, succ)

	btx.Nonce = 3
	_, err = st.Verify(btx, false)
	require.ErrorIs(t, err, ErrTxNonceInvalid)

	// A nonce gap is tolerated during proposal building.
	dat, err = btx.SigData([]byte("qf-test"))
	require.NoError(t, err)
	sig, err = priv.Sign(dat)
	require.NoError(t, err)
	btx.Sig = [][]byte{sig}
	succ, err = st.Verify(btx, true)
	require.NoError(t, err)
	require.True(t, succ)

	btx.Sig = [][]byte{make([]byte, 64)}
	_, err = st.Verify(btx, true)
	require.ErrorIs(t, err, ErrTxSigInvalid)
}

func TestCloneIsolation(t *testing.T) {
	st := newTestState(t)
	owner, _ := addKeyedAccount(t, st, 100)

	cp := st.Clone()
	_, err := cp.CreateProject(&tx.CreateProjectTx{
		Name:        []byte("ipfs"),
		Logo:        []byte("logo.png"),
		Description: []byte("storage"),
		Website:     []byte("https://ipfs.io"),
	}, owner.Index, false)
	require.NoError(t, err)
	_, err = cp.Fund(&tx.FundTx{Amount: 60}, owner.Index, false)
	require.NoError(t, err)

	require.Equal(t, uint64(1), cp.ProjectCount())
	require.Equal(t, uint64(0), st.ProjectCount())
	acnt, err := st.GetAccount(owner.Index)
	require.NoError(t, err)
	require.Equal(t, uint64(100), acnt.Balance)
}

func TestPersistence(t *testing.T) {
	logger := cmtlog.NewNopLogger()
	tree := iavl.NewMutableTree(dbm.NewMemDB(), 128, true, IAVLLogger(logger))
	st := newState(tree, logger)
	require.NoError(t, st.load())
	st.SetChainId("qf-test")
	st.InitParams(qf_types.DefaultAppState())

	owner, _ := addKeyedAccount(t, st, 100)
	st.SetAuthority(owner.AddrBytes())
	createProject(t, st, owner)
	_, err := st.ScheduleRound(&tx.ScheduleRoundTx{Start: 10, End: 20, MatchingFund: 100, ProjectIndexes: []uint64{0}}, owner.Index, false)
	require.NoError(t, err)

	_, err = st.Update()
	require.NoError(t, err)
	h, err := st.save()
	require.NoError(t, err)

	st2 := newState(tree, logger)
	require.NoError(t, st2.load())
	require.Equal(t, h, st2.Hash())
	require.NotEqual(t, common.Hash{}, st2.Hash())
	require.NotEmpty(t, st2.Header().RootHash)
	require.Equal(t, uint64(1), st2.ProjectCount())
	require.Equal(t, uint64(1), st2.RoundCount())
	require.Equal(t, uint32(5), st2.MaxProposalCountPerRound())
	require.Equal(t, uint64(1000), st2.WithdrawalExpiration())

	project, err := st2.GetProject(0)
	require.NoError(t, err)
	require.Equal(t, owner.AddrBytes(), project.Owner)

	round, err := st2.GetRound(0)
	require.NoError(t, err)
	require.Equal(t, uint64(100), round.MatchingFund)

	acnt, err := st2.FindAccount(owner.AddrBytes())
	require.NoError(t, err)
	require.NotNil(t, acnt)
	require.Equal(t, owner.Index, acnt.Index)
	require.Equal(t, uint64(100), acnt.Balance)
}
