package state

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"sort"

	"github.com/calehh/qf-app/clr"
	"github.com/calehh/qf-app/tx"
	qf_types "github.com/calehh/qf-app/types"
	cmtcrypto "github.com/cometbft/cometbft/crypto"
	cmtlog "github.com/cometbft/cometbft/libs/log"
	"github.com/cosmos/iavl"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/syndtr/goleveldb/leveldb"
)

const (
	StartAccountIdx = 65536

	ModifiedFlagNew = 1 << 0
	ModifiedFlagMod = 1 << 1
	ModifiedFlagPK  = 1 << 2
)

var (
	ErrNotFound = errors.New("not found")
)

var (
	KeyState                = "s"
	KeyAccountIndex         = "i%s"
	KeyAccountBody          = "a%x"
	KeyProjectBody          = "prj%v"
	KeyProjectCount         = "pc"
	KeyRoundBody            = "rnd%v"
	KeyRoundCount           = "rc"
	KeyMaxProposalCount     = "maxp"
	KeyWithdrawalExpiration = "wexp"
	KeyIdentityRequired     = "idreq"
)

var (
	ErrTxSenderNoexists           = errors.New("sender account noexists")
	ErrTxNonceInvalid             = errors.New("nonce invalid")
	ErrTxSigInvalid               = errors.New("signature invalid")
	ErrAccountAlreadyExists       = errors.New("account already exists")
	ErrAccountNoexists            = errors.New("account noexists")
	ErrUnauthorized               = errors.New("caller lacks authority")
	ErrInvalidParam               = errors.New("invalid param")
	ErrInvalidAccount             = errors.New("invalid account")
	ErrIdentityNeeded             = errors.New("identity attestation needed")
	ErrOverflow                   = errors.New("counter overflow")
	ErrRoundStarted               = errors.New("round already started")
	ErrRoundNotEnded              = errors.New("round not ended")
	ErrEndTooEarly                = errors.New("round end not after start")
	ErrStartHeightInvalid         = errors.New("round start height invalid")
	ErrEndHeightInvalid           = errors.New("round end height invalid")
	ErrStartHeightTooSmall        = errors.New("round start overlaps previous round")
	ErrNoActiveRound              = errors.New("no active round")
	ErrRoundNotProcessing         = errors.New("round not processing")
	ErrNoActiveProposal           = errors.New("no active proposal")
	ErrProposalCanceled           = errors.New("proposal canceled")
	ErrProposalApproved           = errors.New("proposal already approved")
	ErrProposalNotApproved        = errors.New("proposal not approved")
	ErrProposalWithdrawn          = errors.New("proposal already withdrawn")
	ErrRoundCanceled              = errors.New("round canceled")
	ErrRoundFinalized             = errors.New("round already finalized")
	ErrRoundNotFinalized          = errors.New("round not finalized")
	ErrProposalAmountExceed       = errors.New("proposal count exceeds per-round limit")
	ErrWithdrawalExpirationExceed = errors.New("withdrawal window expired")
	ErrNotEnoughFund              = errors.New("not enough fund")
	ErrInvalidProjectIndexes      = errors.New("invalid project indexes")
	ErrParamLimitExceed           = errors.New("param out of bounds")
)

// State is one consistent snapshot of the engine: the project registry,
// the round history, the admin parameters and the account ledger, all
// backed by a single IAVL tree. Every public operation validates fully
// before mutating, so a returned error means nothing changed.
type State struct {
	logger cmtlog.Logger
	db     *iavl.MutableTree
	dbVer  int64

	header *StateHeader
	idxs   map[string]uint64
	acnts  map[uint64]*Account

	modifiedAcnts map[uint64]uint32

	projectCount uint64
	roundCount   uint64

	maxProposalCountPerRound uint32
	withdrawalExpiration     uint64
	isIdentityRequired       bool
	paramsDirty              bool

	modProjects map[uint64]*qf_types.Project
	modRounds   map[uint64]*qf_types.Round
}

func newState(db *iavl.MutableTree, logger cmtlog.Logger) *State {
	s := &State{
		logger:        logger,
		db:            db,
		dbVer:         0,
		header:        new(StateHeader),
		idxs:          make(map[string]uint64),
		acnts:         make(map[uint64]*Account),
		modifiedAcnts: make(map[uint64]uint32),
		modProjects:   make(map[uint64]*qf_types.Project),
		modRounds:     make(map[uint64]*qf_types.Round),
	}
	s.header.AccountIdx = StartAccountIdx
	return s
}

func (s *State) nextState() *State {
	n := &State{
		logger:                   s.logger,
		db:                       s.db,
		dbVer:                    s.dbVer,
		idxs:                     make(map[string]uint64),
		acnts:                    make(map[uint64]*Account),
		modifiedAcnts:            make(map[uint64]uint32),
		projectCount:             s.projectCount,
		roundCount:               s.roundCount,
		maxProposalCountPerRound: s.maxProposalCountPerRound,
		withdrawalExpiration:     s.withdrawalExpiration,
		isIdentityRequired:       s.isIdentityRequired,
		modProjects:              make(map[uint64]*qf_types.Project),
		modRounds:                make(map[uint64]*qf_types.Round),
	}
	n.header = s.header.Clone()
	if s.header.Hash != nil {
		n.header.Height = s.header.Height + 1
	}
	return n
}

// Clone deep-copies the working state so a transaction can be applied
// tentatively and discarded on failure.
func (s *State) Clone() *State {
	n := &State{
		logger:                   s.logger,
		db:                       s.db,
		dbVer:                    s.dbVer,
		header:                   s.header.Clone(),
		idxs:                     make(map[string]uint64, len(s.idxs)),
		acnts:                    make(map[uint64]*Account, len(s.acnts)),
		modifiedAcnts:            make(map[uint64]uint32, len(s.modifiedAcnts)),
		projectCount:             s.projectCount,
		roundCount:               s.roundCount,
		maxProposalCountPerRound: s.maxProposalCountPerRound,
		withdrawalExpiration:     s.withdrawalExpiration,
		isIdentityRequired:       s.isIdentityRequired,
		paramsDirty:              s.paramsDirty,
		modProjects:              make(map[uint64]*qf_types.Project, len(s.modProjects)),
		modRounds:                make(map[uint64]*qf_types.Round, len(s.modRounds)),
	}
	for k, v := range s.idxs {
		n.idxs[k] = v
	}
	for k, v := range s.acnts {
		n.acnts[k] = v.Clone()
	}
	for k, v := range s.modifiedAcnts {
		n.modifiedAcnts[k] = v
	}
	for k, v := range s.modProjects {
		n.modProjects[k] = v.Clone()
	}
	for k, v := range s.modRounds {
		n.modRounds[k] = v.Clone()
	}
	return n
}

func (s *State) load() (err error) {
	val, err := s.db.Get([]byte(KeyProjectCount))
	if err != nil {
		if err != leveldb.ErrNotFound {
			return err
		}
	}
	s.projectCount = new(big.Int).SetBytes(val).Uint64()
	val, err = s.db.Get([]byte(KeyRoundCount))
	if err != nil {
		if err != leveldb.ErrNotFound {
			return err
		}
	}
	s.roundCount = new(big.Int).SetBytes(val).Uint64()
	val, err = s.db.Get([]byte(KeyMaxProposalCount))
	if err != nil {
		if err != leveldb.ErrNotFound {
			return err
		}
	}
	s.maxProposalCountPerRound = uint32(new(big.Int).SetBytes(val).Uint64())
	val, err = s.db.Get([]byte(KeyWithdrawalExpiration))
	if err != nil {
		if err != leveldb.ErrNotFound {
			return err
		}
	}
	s.withdrawalExpiration = new(big.Int).SetBytes(val).Uint64()
	val, err = s.db.Get([]byte(KeyIdentityRequired))
	if err != nil {
		if err != leveldb.ErrNotFound {
			return err
		}
	}
	s.isIdentityRequired = len(val) == 1 && val[0] == 1

	val, err = s.db.Get([]byte(KeyState))
	if err != nil {
		if err == leveldb.ErrNotFound {
			return nil
		}
		return err
	}
	if val != nil {
		err = rlp.DecodeBytes(val, s.header)
		if err != nil {
			return
		}
		h := s.db.Hash()
		if h != nil {
			s.calcHash(h, true)
		}
	}
	return
}

func (s *State) calcHash(rootHash []byte, update bool) (h common.Hash) {
	h = crypto.Keccak256Hash(rootHash)
	if update {
		// RLP decodes empty byte fields as zero-length slices, so the
		// reloaded header's RootHash/Hash cannot be grown with copy.
		s.header.RootHash = append(s.header.RootHash[:0:0], rootHash...)
		s.header.Hash = append(s.header.Hash[:0:0], h[:]...)
	}
	return
}

// Update flushes the modified records into the working tree and returns
// the would-be app hash. Nothing is durable until save.
func (s *State) Update() (h common.Hash, err error) {
	var hash []byte
	defer func() {
		if hash == nil {
			s.db.Rollback()
		}
	}()
	var val []byte
	val, err = rlp.EncodeToBytes(s.header)
	if err != nil {
		return
	}
	_, err = s.db.Set([]byte(KeyState), val)
	if err != nil {
		return
	}

	if len(s.modProjects) != 0 {
		_, err = s.db.Set([]byte(KeyProjectCount), big.NewInt(int64(s.projectCount)).Bytes())
		if err != nil {
			return
		}
		idxs := sortedKeys(s.modProjects)
		for _, idx := range idxs {
			key := fmt.Sprintf(KeyProjectBody, idx)
			body, _ := json.Marshal(s.modProjects[idx])
			_, err = s.db.Set([]byte(key), body)
			if err != nil {
				return
			}
		}
	}

	if len(s.modRounds) != 0 {
		_, err = s.db.Set([]byte(KeyRoundCount), big.NewInt(int64(s.roundCount)).Bytes())
		if err != nil {
			return
		}
		idxs := sortedKeys(s.modRounds)
		for _, idx := range idxs {
			key := fmt.Sprintf(KeyRoundBody, idx)
			body, _ := json.Marshal(s.modRounds[idx])
			_, err = s.db.Set([]byte(key), body)
			if err != nil {
				return
			}
		}
	}

	if s.paramsDirty {
		_, err = s.db.Set([]byte(KeyMaxProposalCount), big.NewInt(int64(s.maxProposalCountPerRound)).Bytes())
		if err != nil {
			return
		}
		_, err = s.db.Set([]byte(KeyWithdrawalExpiration), big.NewInt(int64(s.withdrawalExpiration)).Bytes())
		if err != nil {
			return
		}
		b := []byte{0}
		if s.isIdentityRequired {
			b[0] = 1
		}
		_, err = s.db.Set([]byte(KeyIdentityRequired), b)
		if err != nil {
			return
		}
	}

	n := len(s.modifiedAcnts)
	if n > 0 {
		idxs := make([]uint64, 0, n)
		for idx := range s.modifiedAcnts {
			idxs = append(idxs, idx)
		}
		sort.Slice(idxs, func(i, j int) bool {
			return idxs[i] < idxs[j]
		})
		for _, idx := range idxs {
			flag := s.modifiedAcnts[idx]
			acnt := s.acnts[idx]
			key := fmt.Sprintf(KeyAccountBody, acnt.Index)
			val, err = rlp.EncodeToBytes(acnt)
			if err != nil {
				return
			}
			_, err = s.db.Set([]byte(key), val)
			if err != nil {
				return
			}
			if (flag&ModifiedFlagNew == ModifiedFlagNew) || (flag&ModifiedFlagPK == ModifiedFlagPK) {
				key = fmt.Sprintf(KeyAccountIndex, acnt.Address())
				val, err = rlp.EncodeToBytes(acnt.Index)
				if err != nil {
					return
				}
				_, err = s.db.Set([]byte(key), val)
				if err != nil {
					return
				}
			}
		}
	}
	hash = s.db.WorkingHash()
	h = s.calcHash(hash, false)
	s.modifiedAcnts = make(map[uint64]uint32)
	s.modProjects = make(map[uint64]*qf_types.Project)
	s.modRounds = make(map[uint64]*qf_types.Round)
	s.paramsDirty = false
	return
}

func (s *State) save() (h common.Hash, err error) {
	hash, ver, err := s.db.SaveVersion()
	if err != nil {
		return h, err
	}
	s.dbVer = ver
	h = s.calcHash(hash, true)
	return
}

func sortedKeys[V any](m map[uint64]V) []uint64 {
	keys := make([]uint64, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

func (s *State) Header() *StateHeader {
	return s.header
}

func (s *State) Hash() (h common.Hash) {
	if s.header.Hash != nil {
		copy(h[:], s.header.Hash)
	}
	return
}

func (s *State) SetChainId(chainId string) {
	s.header.ChainId = chainId
}

// SetAuthority fixes the address allowed to run privileged operations.
// Called once from InitChain.
func (s *State) SetAuthority(addr []byte) {
	s.header.Authority = append([]byte(nil), addr...)
}

// InitParams seeds the admin parameters from genesis app-state.
func (s *State) InitParams(as *qf_types.AppState) {
	s.maxProposalCountPerRound = as.MaxProposalCountPerRound
	s.withdrawalExpiration = as.WithdrawalExpiration
	s.isIdentityRequired = as.IsIdentityRequired
	s.paramsDirty = true
}

func (s *State) MaxProposalCountPerRound() uint32 { return s.maxProposalCountPerRound }
func (s *State) WithdrawalExpiration() uint64     { return s.withdrawalExpiration }
func (s *State) IsIdentityRequired() bool         { return s.isIdentityRequired }
func (s *State) ProjectCount() uint64             { return s.projectCount }
func (s *State) RoundCount() uint64               { return s.roundCount }

func (s *State) GetAccount(idx uint64) (acnt *Account, err error) {
	if idx >= s.header.AccountIdx {
		err = ErrAccountNoexists
		return
	}
	acnt = s.acnts[idx]
	if acnt != nil {
		return
	}
	key := fmt.Sprintf(KeyAccountBody, idx)
	val, err := s.db.Get([]byte(key))
	if err != nil {
		return nil, err
	}
	if val == nil {
		err = ErrNotFound
		return
	}
	acnt = new(Account)
	err = rlp.DecodeBytes(val, acnt)
	if err != nil {
		acnt = nil
		return
	}
	s.acnts[idx] = acnt
	return
}

func (s *State) FindAccount(addr []byte) (acnt *Account, err error) {
	saddr := cmtcrypto.Address(addr).String()
	idx, ok := s.idxs[saddr]
	if !ok {
		key := fmt.Sprintf(KeyAccountIndex, saddr)
		val, err := s.db.Get([]byte(key))
		if err != nil {
			if err == leveldb.ErrNotFound {
				return nil, nil
			}
			return nil, err
		}
		if val == nil {
			return nil, nil
		}
		err = rlp.DecodeBytes(val, &idx)
		if err != nil {
			return nil, err
		}
		s.idxs[saddr] = idx
	}
	acnt, err = s.GetAccount(idx)
	return
}

// AddAccount registers a new keyed account and assigns the next index.
func (s *State) AddAccount(acnt *Account) (err error) {
	a, err := s.FindAccount(acnt.AddrBytes())
	if err != nil {
		return err
	}
	if a != nil {
		err = ErrAccountAlreadyExists
		return
	}
	acnt.Index = s.header.AccountIdx
	s.header.AccountIdx += 1
	s.acnts[acnt.Index] = acnt.Clone()
	s.modifiedAcnts[acnt.Index] = ModifiedFlagNew
	s.idxs[acnt.Address()] = acnt.Index
	return
}

func (s *State) touchAccount(a *Account, flag uint32) {
	v := s.modifiedAcnts[a.Index]
	v |= flag
	s.modifiedAcnts[a.Index] = v
	s.acnts[a.Index] = a.Clone()
}

// getOrCreateHolding returns the keyless holding account at addr, creating
// it with a zero balance on first use.
func (s *State) getOrCreateHolding(addr []byte) (*Account, error) {
	a, err := s.FindAccount(addr)
	if err != nil {
		return nil, err
	}
	if a != nil {
		return a, nil
	}
	a = &Account{
		Index: s.header.AccountIdx,
		Addr:  append([]byte(nil), addr...),
	}
	s.header.AccountIdx += 1
	s.acnts[a.Index] = a.Clone()
	s.modifiedAcnts[a.Index] = ModifiedFlagNew
	s.idxs[a.Address()] = a.Index
	return s.acnts[a.Index], nil
}

func (s *State) balanceOf(addr []byte) (uint64, error) {
	a, err := s.FindAccount(addr)
	if err != nil {
		return 0, err
	}
	if a == nil {
		return 0, nil
	}
	return a.Balance, nil
}

// transfer moves amount between two ledger accounts. All-or-nothing: the
// only failure is insufficient balance, checked before any mutation.
func (s *State) transfer(from *Account, to *Account, amount uint64) error {
	if from.Balance < amount {
		return ErrNotEnoughFund
	}
	from.Balance -= amount
	to.Balance += amount
	s.touchAccount(from, ModifiedFlagMod)
	s.touchAccount(to, ModifiedFlagMod)
	return nil
}

func (s *State) transferFromAddr(fromAddr []byte, to *Account, amount uint64) error {
	if amount == 0 {
		return nil
	}
	from, err := s.FindAccount(fromAddr)
	if err != nil {
		return err
	}
	if from == nil || from.Balance < amount {
		return ErrNotEnoughFund
	}
	return s.transfer(from, to, amount)
}

func (s *State) isAuthority(a *Account) bool {
	return len(s.header.Authority) > 0 && bytes.Equal(a.AddrBytes(), s.header.Authority)
}

// Verify checks a transaction's sender, nonce and signature against this
// state.
func (s *State) Verify(btx *tx.QFTx, allowNonceGap bool) (succ bool, err error) {
	a, err := s.GetAccount(btx.Sender)
	if err != nil {
		return succ, err
	}
	if a == nil {
		err = ErrTxSenderNoexists
		return
	}
	if !(a.Nonce == btx.Nonce || (allowNonceGap && a.Nonce < btx.Nonce)) {
		err = ErrTxNonceInvalid
		return
	}
	dat, err := btx.SigData([]byte(s.header.ChainId))
	if err != nil {
		return succ, err
	}
	succ = a.Verify(dat, btx.Sig)
	if !succ {
		err = ErrTxSigInvalid
	}
	return
}

func (s *State) GetProject(idx uint64) (*qf_types.Project, error) {
	if idx >= s.projectCount {
		return nil, ErrNotFound
	}
	if p, ok := s.modProjects[idx]; ok {
		return p, nil
	}
	key := fmt.Sprintf(KeyProjectBody, idx)
	val, err := s.db.Get([]byte(key))
	if err != nil {
		return nil, err
	}
	if val == nil {
		return nil, ErrNotFound
	}
	p := new(qf_types.Project)
	err = json.Unmarshal(val, p)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// GetProjects returns every registered project in index order.
func (s *State) GetProjects() ([]qf_types.Project, error) {
	projects := make([]qf_types.Project, 0, s.projectCount)
	for i := uint64(0); i < s.projectCount; i++ {
		p, err := s.GetProject(i)
		if err != nil {
			return nil, err
		}
		projects = append(projects, *p)
	}
	return projects, nil
}

func (s *State) GetRound(idx uint64) (*qf_types.Round, error) {
	if idx >= s.roundCount {
		return nil, ErrNoActiveRound
	}
	if r, ok := s.modRounds[idx]; ok {
		return r, nil
	}
	key := fmt.Sprintf(KeyRoundBody, idx)
	val, err := s.db.Get([]byte(key))
	if err != nil {
		return nil, err
	}
	if val == nil {
		return nil, ErrNoActiveRound
	}
	r := new(qf_types.Round)
	err = json.Unmarshal(val, r)
	if err != nil {
		return nil, err
	}
	return r, nil
}

// lastValidRound scans round history newest to oldest and returns the most
// recent non-canceled round, or nil if none exists. The scan direction and
// the stop-at-first-match rule are part of the scheduling contract.
func (s *State) lastValidRound() (*qf_types.Round, error) {
	for i := s.roundCount; i > 0; i-- {
		r, err := s.GetRound(i - 1)
		if err != nil {
			return nil, err
		}
		if !r.IsCanceled {
			return r, nil
		}
	}
	return nil, nil
}

// findProcessingRound locates the round that is active at height now.
// The backward scan keeps assigning instead of breaking, so with
// overlapping historical data the lowest-indexed active round wins; under
// the no-overlap invariant at most one can match.
func (s *State) findProcessingRound(now uint64) (*qf_types.Round, error) {
	var processing *qf_types.Round
	for i := s.roundCount; i > 0; i-- {
		r, err := s.GetRound(i - 1)
		if err != nil {
			return nil, err
		}
		if !r.IsCanceled && r.Start < now && r.End > now {
			processing = r
		}
	}
	if processing == nil {
		return nil, ErrRoundNotProcessing
	}
	return processing, nil
}

// CreateProject registers a funding proposal. All four descriptive fields
// must be non-empty; when the identity flag is on the creator needs a
// positive attestation level.
func (s *State) CreateProject(ptx *tx.CreateProjectTx, sender uint64, checkOnly bool) (event *qf_types.EventProjectCreated, err error) {
	a, err := s.GetAccount(sender)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, ErrInvalidAccount
	}
	if s.isIdentityRequired && a.Attestation == 0 {
		return nil, ErrIdentityNeeded
	}
	if len(ptx.Name) == 0 || len(ptx.Logo) == 0 || len(ptx.Description) == 0 || len(ptx.Website) == 0 {
		return nil, ErrInvalidParam
	}
	index := s.projectCount
	next := index + 1
	if next < index {
		return nil, ErrOverflow
	}
	if !checkOnly {
		project := &qf_types.Project{
			Index:        index,
			Name:         ptx.Name,
			Logo:         ptx.Logo,
			Description:  ptx.Description,
			Website:      ptx.Website,
			Owner:        a.AddrBytes(),
			CreateHeight: s.header.Height,
		}
		s.modProjects[index] = project
		s.projectCount = next

		a.Nonce += 1
		s.touchAccount(a, ModifiedFlagMod)

		event = &qf_types.EventProjectCreated{
			ProjectIndex: index,
			Name:         string(ptx.Name),
			Owner:        a.Address(),
			Height:       s.header.Height,
		}
	}
	return
}

// Fund deposits into the shared matching pool.
func (s *State) Fund(ftx *tx.FundTx, sender uint64, checkOnly bool) (event *qf_types.EventFund, err error) {
	if ftx.Amount == 0 {
		return nil, ErrInvalidParam
	}
	a, err := s.GetAccount(sender)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, ErrInvalidAccount
	}
	if a.Balance < ftx.Amount {
		return nil, ErrNotEnoughFund
	}
	if !checkOnly {
		pool, err := s.getOrCreateHolding(PoolAddress())
		if err != nil {
			return nil, err
		}
		if err := s.transfer(a, pool, ftx.Amount); err != nil {
			return nil, err
		}
		a.Nonce += 1
		s.touchAccount(a, ModifiedFlagMod)

		event = &qf_types.EventFund{
			Funder: a.Address(),
			Amount: ftx.Amount,
			Height: s.header.Height,
		}
	}
	return
}

// ScheduleRound creates a round with one pre-allocated proposal slot per
// selected project. Privileged.
func (s *State) ScheduleRound(stx *tx.ScheduleRoundTx, sender uint64, checkOnly bool) (event *qf_types.EventRoundCreated, err error) {
	a, err := s.GetAccount(sender)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, ErrInvalidAccount
	}
	if !s.isAuthority(a) {
		return nil, ErrUnauthorized
	}
	now := s.header.Height
	if len(stx.ProjectIndexes) == 0 {
		return nil, ErrInvalidProjectIndexes
	}
	if uint32(len(stx.ProjectIndexes)) > s.maxProposalCountPerRound {
		return nil, ErrProposalAmountExceed
	}
	if stx.End <= stx.Start {
		return nil, ErrEndTooEarly
	}
	if stx.Start <= now {
		return nil, ErrStartHeightInvalid
	}
	if stx.End <= now {
		return nil, ErrEndHeightInvalid
	}
	for _, projectIndex := range stx.ProjectIndexes {
		if projectIndex >= s.projectCount {
			return nil, ErrInvalidProjectIndexes
		}
	}

	lastValid, err := s.lastValidRound()
	if err != nil {
		return nil, err
	}
	if lastValid != nil && stx.Start <= lastValid.End {
		return nil, ErrStartHeightTooSmall
	}

	index := s.roundCount
	next := index + 1
	if next < index {
		return nil, ErrOverflow
	}
	if !checkOnly {
		round := qf_types.NewRound(index, stx.Start, stx.End, stx.MatchingFund, stx.ProjectIndexes)
		s.modRounds[index] = round
		s.roundCount = next

		a.Nonce += 1
		s.touchAccount(a, ModifiedFlagMod)

		event = &qf_types.EventRoundCreated{
			RoundIndex:     index,
			Start:          stx.Start,
			End:            stx.End,
			MatchingFund:   stx.MatchingFund,
			ProjectIndexes: stx.ProjectIndexes,
		}
	}
	return
}

// CancelRound cancels a round that has not started yet. Contributions are
// never collected before start, so there is nothing to refund. Privileged.
func (s *State) CancelRound(ctx *tx.CancelRoundTx, sender uint64, checkOnly bool) (event *qf_types.EventRoundCanceled, err error) {
	a, err := s.GetAccount(sender)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, ErrInvalidAccount
	}
	if !s.isAuthority(a) {
		return nil, ErrUnauthorized
	}
	round, err := s.GetRound(ctx.RoundIndex)
	if err != nil {
		return nil, err
	}
	now := s.header.Height
	if round.Start <= now {
		return nil, ErrRoundStarted
	}
	if round.IsCanceled {
		return nil, ErrRoundCanceled
	}
	if !checkOnly {
		round.IsCanceled = true
		s.modRounds[round.Index] = round

		a.Nonce += 1
		s.touchAccount(a, ModifiedFlagMod)

		event = &qf_types.EventRoundCanceled{RoundIndex: round.Index}
	}
	return
}

// FinalizeRound fixes every proposal's matching share by running the CLR
// computation once over the round's contributions. Privileged; only legal
// once the round has ended, and only once.
func (s *State) FinalizeRound(ftx *tx.FinalizeRoundTx, sender uint64, checkOnly bool) (event *qf_types.EventRoundFinalized, err error) {
	a, err := s.GetAccount(sender)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, ErrInvalidAccount
	}
	if !s.isAuthority(a) {
		return nil, ErrUnauthorized
	}
	round, err := s.GetRound(ftx.RoundIndex)
	if err != nil {
		return nil, err
	}
	if round.IsCanceled {
		return nil, ErrRoundCanceled
	}
	if round.IsFinalized {
		return nil, ErrRoundFinalized
	}
	now := s.header.Height
	if now <= round.End {
		return nil, ErrRoundNotEnded
	}
	if !checkOnly {
		inputs := make([]clr.ProposalInput, len(round.Proposals))
		for i := range round.Proposals {
			p := &round.Proposals[i]
			in := clr.ProposalInput{Canceled: p.IsCanceled}
			for j := range p.Contributions {
				in.Contributions = append(in.Contributions, p.Contributions[j].Value)
			}
			inputs[i] = in
		}
		shares := clr.Match(round.MatchingFund, inputs)
		for i := range round.Proposals {
			round.Proposals[i].MatchingFund = shares[i]
		}
		round.IsFinalized = true
		s.modRounds[round.Index] = round

		a.Nonce += 1
		s.touchAccount(a, ModifiedFlagMod)

		event = &qf_types.EventRoundFinalized{RoundIndex: round.Index}
	}
	return
}

// Contribute donates value toward a project in the currently active round,
// merging into the contributor's existing entry if there is one. Moves the
// funds onto the project's sub-account.
func (s *State) Contribute(ctx *tx.ContributeTx, sender uint64, checkOnly bool) (event *qf_types.EventContribute, err error) {
	if ctx.Value == 0 {
		return nil, ErrInvalidParam
	}
	if ctx.ProjectIndex >= s.projectCount {
		return nil, ErrInvalidParam
	}
	a, err := s.GetAccount(sender)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, ErrInvalidAccount
	}
	if s.roundCount == 0 {
		return nil, ErrNoActiveRound
	}
	now := s.header.Height
	round, err := s.findProcessingRound(now)
	if err != nil {
		return nil, err
	}
	proposal := round.Proposal(ctx.ProjectIndex)
	if proposal == nil {
		return nil, ErrNoActiveProposal
	}
	if proposal.IsCanceled {
		return nil, ErrProposalCanceled
	}
	if a.Balance < ctx.Value {
		return nil, ErrNotEnoughFund
	}
	if !checkOnly {
		sub, err := s.getOrCreateHolding(ProjectAddress(ctx.ProjectIndex))
		if err != nil {
			return nil, err
		}
		if err := s.transfer(a, sub, ctx.Value); err != nil {
			return nil, err
		}
		if c := proposal.Contribution(a.AddrBytes()); c != nil {
			c.Value += ctx.Value
		} else {
			proposal.Contributions = append(proposal.Contributions, qf_types.Contribution{
				Account: a.AddrBytes(),
				Value:   ctx.Value,
			})
		}
		s.modRounds[round.Index] = round

		a.Nonce += 1
		s.touchAccount(a, ModifiedFlagMod)

		event = &qf_types.EventContribute{
			Account:      a.Address(),
			ProjectIndex: ctx.ProjectIndex,
			RoundIndex:   round.Index,
			Value:        ctx.Value,
			Height:       now,
		}
	}
	return
}

// Approve opens the withdrawal window for one proposal of a finalized
// round. Privileged.
func (s *State) Approve(atx *tx.ApproveTx, sender uint64, checkOnly bool) (event *qf_types.EventProposalApproved, err error) {
	a, err := s.GetAccount(sender)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, ErrInvalidAccount
	}
	if !s.isAuthority(a) {
		return nil, ErrUnauthorized
	}
	round, err := s.GetRound(atx.RoundIndex)
	if err != nil {
		return nil, err
	}
	if !round.IsFinalized {
		return nil, ErrRoundNotFinalized
	}
	if round.IsCanceled {
		return nil, ErrRoundCanceled
	}
	now := s.header.Height
	if round.End >= now {
		return nil, ErrRoundNotEnded
	}
	proposal := round.Proposal(atx.ProjectIndex)
	if proposal == nil {
		return nil, ErrNoActiveProposal
	}
	if proposal.IsCanceled {
		return nil, ErrProposalCanceled
	}
	if proposal.IsApproved {
		return nil, ErrProposalApproved
	}
	if !checkOnly {
		proposal.IsApproved = true
		proposal.WithdrawalExpiration = now + s.withdrawalExpiration
		s.modRounds[round.Index] = round

		a.Nonce += 1
		s.touchAccount(a, ModifiedFlagMod)

		event = &qf_types.EventProposalApproved{
			RoundIndex:           round.Index,
			ProjectIndex:         atx.ProjectIndex,
			WithdrawalExpiration: proposal.WithdrawalExpiration,
		}
	}
	return
}

// Withdraw pays the project owner the fixed matching share from the pool
// plus the collected contributions from the project sub-account. Both
// movements happen or neither does.
func (s *State) Withdraw(wtx *tx.WithdrawTx, sender uint64, checkOnly bool) (event *qf_types.EventProposalWithdrawn, err error) {
	a, err := s.GetAccount(sender)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, ErrInvalidAccount
	}
	project, err := s.GetProject(wtx.ProjectIndex)
	if err != nil {
		if err == ErrNotFound {
			return nil, ErrNoActiveProposal
		}
		return nil, err
	}
	if !bytes.Equal(a.AddrBytes(), project.Owner) {
		return nil, ErrInvalidAccount
	}
	round, err := s.GetRound(wtx.RoundIndex)
	if err != nil {
		return nil, err
	}
	proposal := round.Proposal(wtx.ProjectIndex)
	if proposal == nil {
		return nil, ErrNoActiveProposal
	}
	now := s.header.Height
	if now > proposal.WithdrawalExpiration {
		return nil, ErrWithdrawalExpirationExceed
	}
	if !proposal.IsApproved {
		return nil, ErrProposalNotApproved
	}
	if proposal.IsWithdrawn {
		return nil, ErrProposalWithdrawn
	}

	contributionAmount := proposal.ContributionTotal()
	matchingFund := proposal.MatchingFund

	poolBalance, err := s.balanceOf(PoolAddress())
	if err != nil {
		return nil, err
	}
	if poolBalance < matchingFund {
		return nil, ErrNotEnoughFund
	}
	subBalance, err := s.balanceOf(ProjectAddress(wtx.ProjectIndex))
	if err != nil {
		return nil, err
	}
	if subBalance < contributionAmount {
		return nil, ErrNotEnoughFund
	}

	if !checkOnly {
		if err := s.transferFromAddr(PoolAddress(), a, matchingFund); err != nil {
			return nil, err
		}
		if err := s.transferFromAddr(ProjectAddress(wtx.ProjectIndex), a, contributionAmount); err != nil {
			return nil, err
		}
		proposal.IsWithdrawn = true
		// Re-stamping the window is bookkeeping only; IsWithdrawn already
		// blocks re-entry.
		proposal.WithdrawalExpiration = now + s.withdrawalExpiration
		s.modRounds[round.Index] = round

		a.Nonce += 1
		s.touchAccount(a, ModifiedFlagMod)

		event = &qf_types.EventProposalWithdrawn{
			RoundIndex:         round.Index,
			ProjectIndex:       wtx.ProjectIndex,
			MatchingFund:       matchingFund,
			ContributionAmount: contributionAmount,
		}
	}
	return
}

// CancelProposal removes one proposal from further participation: no more
// contributions, no approval, zero matching share at finalization.
// Privileged; only before the round is finalized.
func (s *State) CancelProposal(ctx *tx.CancelProposalTx, sender uint64, checkOnly bool) (event *qf_types.EventProposalCanceled, err error) {
	a, err := s.GetAccount(sender)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, ErrInvalidAccount
	}
	if !s.isAuthority(a) {
		return nil, ErrUnauthorized
	}
	round, err := s.GetRound(ctx.RoundIndex)
	if err != nil {
		return nil, err
	}
	if round.IsCanceled {
		return nil, ErrRoundCanceled
	}
	if round.IsFinalized {
		return nil, ErrRoundFinalized
	}
	proposal := round.Proposal(ctx.ProjectIndex)
	if proposal == nil {
		return nil, ErrNoActiveProposal
	}
	if proposal.IsCanceled {
		return nil, ErrProposalCanceled
	}
	if proposal.IsApproved {
		return nil, ErrProposalApproved
	}
	if !checkOnly {
		proposal.IsCanceled = true
		s.modRounds[round.Index] = round

		a.Nonce += 1
		s.touchAccount(a, ModifiedFlagMod)

		event = &qf_types.EventProposalCanceled{
			RoundIndex:   round.Index,
			ProjectIndex: ctx.ProjectIndex,
		}
	}
	return
}

// SetMaxProposalCountPerRound bounds future rounds. Privileged.
func (s *State) SetMaxProposalCountPerRound(ptx *tx.SetMaxProposalCountTx, sender uint64, checkOnly bool) error {
	a, err := s.GetAccount(sender)
	if err != nil {
		return err
	}
	if a == nil {
		return ErrInvalidAccount
	}
	if !s.isAuthority(a) {
		return ErrUnauthorized
	}
	if ptx.Count == 0 || ptx.Count > qf_types.HardMaxProposalsPerRound {
		return ErrParamLimitExceed
	}
	if !checkOnly {
		s.maxProposalCountPerRound = ptx.Count
		s.paramsDirty = true
		a.Nonce += 1
		s.touchAccount(a, ModifiedFlagMod)
	}
	return nil
}

// SetWithdrawalExpiration sets the withdrawal window length. Privileged.
func (s *State) SetWithdrawalExpiration(ptx *tx.SetWithdrawalExpirationTx, sender uint64, checkOnly bool) error {
	a, err := s.GetAccount(sender)
	if err != nil {
		return err
	}
	if a == nil {
		return ErrInvalidAccount
	}
	if !s.isAuthority(a) {
		return ErrUnauthorized
	}
	if ptx.Expiration == 0 {
		return ErrInvalidParam
	}
	if !checkOnly {
		s.withdrawalExpiration = ptx.Expiration
		s.paramsDirty = true
		a.Nonce += 1
		s.touchAccount(a, ModifiedFlagMod)
	}
	return nil
}

// SetIsIdentityRequired toggles the attestation gate on project creation.
// Privileged.
func (s *State) SetIsIdentityRequired(ptx *tx.SetIdentityRequiredTx, sender uint64, checkOnly bool) error {
	a, err := s.GetAccount(sender)
	if err != nil {
		return err
	}
	if a == nil {
		return ErrInvalidAccount
	}
	if !s.isAuthority(a) {
		return ErrUnauthorized
	}
	if !checkOnly {
		s.isIdentityRequired = ptx.Required
		s.paramsDirty = true
		a.Nonce += 1
		s.touchAccount(a, ModifiedFlagMod)
	}
	return nil
}
