package state

import (
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"strings"

	cmtcrypto "github.com/cometbft/cometbft/crypto"
	"github.com/cometbft/cometbft/crypto/ed25519"
	"github.com/ethereum/go-ethereum/crypto"
)

// Account is a ledger entry. User accounts carry an ed25519 public key;
// internal holding accounts (the matching pool and per-project
// sub-accounts) carry only a derived address and can never sign.
type Account struct {
	Index       uint64
	PubKey      []byte
	Addr        []byte
	Balance     uint64
	Nonce       uint64
	Attestation uint64
}

type accountSt struct {
	Index       uint64 `json:"index"`
	Address     string `json:"address"`
	Balance     uint64 `json:"balance"`
	Nonce       uint64 `json:"nonce"`
	Attestation uint64 `json:"attestation"`
}

func (a *Account) MarshalJSON() (dat []byte, err error) {
	o := accountSt{
		Index:       a.Index,
		Address:     a.Address(),
		Balance:     a.Balance,
		Nonce:       a.Nonce,
		Attestation: a.Attestation,
	}
	return json.Marshal(o)
}

func (a *Account) UnmarshalJSON(dat []byte) error {
	var o accountSt
	if err := json.Unmarshal(dat, &o); err != nil {
		return err
	}
	addr, err := hex.DecodeString(strings.ToLower(o.Address))
	if err != nil {
		return err
	}
	a.Index = o.Index
	a.Addr = addr
	a.Balance = o.Balance
	a.Nonce = o.Nonce
	a.Attestation = o.Attestation
	return nil
}

func (a *Account) Clone() *Account {
	n := &Account{
		Index:       a.Index,
		Balance:     a.Balance,
		Nonce:       a.Nonce,
		Attestation: a.Attestation,
	}
	n.PubKey = append([]byte(nil), a.PubKey...)
	n.Addr = append([]byte(nil), a.Addr...)
	return n
}

func (a *Account) SetPubKey(pkey []byte) {
	if a.PubKey == nil {
		a.PubKey = make([]byte, len(pkey))
	}
	copy(a.PubKey, pkey)
}

func (a *Account) AddrBytes() []byte {
	if len(a.PubKey) > 0 {
		pk := ed25519.PubKey(a.PubKey[:])
		return pk.Address()[:]
	}
	return a.Addr
}

func (a *Account) Address() string {
	return cmtcrypto.Address(a.AddrBytes()).String()
}

func (a *Account) Verify(msg []byte, sigs [][]byte) (succ bool) {
	if len(sigs) != 1 || len(a.PubKey) == 0 {
		return false
	}
	pk := ed25519.PubKey(a.PubKey[:])
	return pk.VerifySignature(msg, sigs[0])
}

// PoolAddress is the derived address of the matching-pool holding account.
func PoolAddress() []byte {
	h := crypto.Keccak256([]byte("qf/pool"))
	return h[12:]
}

// ProjectAddress derives the sub-account address that holds contributions
// collected for one project. Distinct indexes map to distinct addresses.
func ProjectAddress(projectIndex uint64) []byte {
	var idx [8]byte
	binary.BigEndian.PutUint64(idx[:], projectIndex)
	h := crypto.Keccak256([]byte("qf/project"), idx[:])
	return h[12:]
}
