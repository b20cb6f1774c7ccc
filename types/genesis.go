package types

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/cometbft/cometbft/crypto"
	cmtjson "github.com/cometbft/cometbft/libs/json"
	cmttypes "github.com/cometbft/cometbft/types"
)

const QFModuleName = "qf"
const DefaultPower = 1000

const (
	FlagHome      = "home"
	FlagChainID   = "chain-id"
	FlagOverwrite = "overwrite"
)

// HardMaxProposalsPerRound bounds the configurable max-proposals-per-round
// parameter.
const HardMaxProposalsPerRound = 256

type GenesisState map[string]json.RawMessage

type GenesisValidator struct {
	Address crypto.Address `json:"address"`
	PubKey  crypto.PubKey  `json:"pub_key"`
	Power   int64          `json:"power"`
	Name    string         `json:"name"`
}

// AppState is the engine's portion of the genesis document: the admin
// parameters, the authority allowed to run privileged operations, and the
// initial account allocations.
type AppState struct {
	Authority                string           `json:"authority"`
	MaxProposalCountPerRound uint32           `json:"max_proposal_count_per_round"`
	WithdrawalExpiration     uint64           `json:"withdrawal_expiration"`
	IsIdentityRequired       bool             `json:"is_identity_required"`
	Accounts                 []GenesisAccount `json:"accounts"`
}

type GenesisAccount struct {
	PubKey      []byte `json:"pub_key"`
	Balance     uint64 `json:"balance"`
	Attestation uint64 `json:"attestation"`
}

func DefaultAppState() *AppState {
	return &AppState{
		MaxProposalCountPerRound: 5,
		WithdrawalExpiration:     1000,
		IsIdentityRequired:       false,
	}
}

func (as *AppState) Validate() error {
	if as.MaxProposalCountPerRound == 0 || as.MaxProposalCountPerRound > HardMaxProposalsPerRound {
		return fmt.Errorf("max_proposal_count_per_round out of range (got %v)", as.MaxProposalCountPerRound)
	}
	if as.WithdrawalExpiration == 0 {
		return errors.New("withdrawal_expiration must be positive")
	}
	return nil
}

// GenesisDoc defines the initial conditions for the chain, in particular its
// validator set and the engine's app state.
type GenesisDoc struct {
	GenesisTime     time.Time                 `json:"genesis_time"`
	ChainID         string                    `json:"chain_id"`
	InitialHeight   int64                     `json:"initial_height"`
	ConsensusParams *cmttypes.ConsensusParams `json:"consensus_params,omitempty"`
	Validators      []GenesisValidator        `json:"validators"`
	AppHash         []byte                    `json:"app_hash"`
	AppState        json.RawMessage           `json:"app_state"`
}

// SaveAs is a utility method for saving GenensisDoc as a JSON file.
func (genDoc *GenesisDoc) SaveAs(file string) error {
	genDocBytes, err := cmtjson.MarshalIndent(genDoc, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(file, genDocBytes, 0o600)
}

func (genDoc *GenesisDoc) ValidateAndComplete() error {
	if genDoc.ChainID == "" {
		return errors.New("genesis doc must include non-empty chain_id")
	}

	if genDoc.InitialHeight < 0 {
		return fmt.Errorf("initial_height cannot be negative (got %v)", genDoc.InitialHeight)
	}

	if genDoc.InitialHeight == 0 {
		genDoc.InitialHeight = 1
	}

	if genDoc.GenesisTime.IsZero() {
		genDoc.GenesisTime = time.Now().Round(0).UTC()
	}

	return nil
}

func ExportGenesisFile(genesis *GenesisDoc, genFile string) error {
	if err := genesis.ValidateAndComplete(); err != nil {
		return err
	}
	return genesis.SaveAs(genFile)
}
