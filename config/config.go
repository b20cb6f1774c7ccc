package config

import (
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/cometbft/cometbft/config"
	"github.com/cometbft/cometbft/crypto"
	"github.com/cometbft/cometbft/crypto/ed25519"
	"github.com/cometbft/cometbft/p2p"
	"github.com/cometbft/cometbft/privval"
)

type QFAppConfig struct {
	Home          string `mapstructure:"-"`
	TimeoutCommit uint64 `mapstructure:"-"`

	// IndexerListenAddr is the listen address of the local read API. Empty
	// disables the indexer.
	IndexerListenAddr string `mapstructure:"indexer_listen_addr"`
	// IndexerDBPath is the sqlite file backing the indexer.
	IndexerDBPath string `mapstructure:"indexer_db_path"`
	// ChainRPC is the comet RPC endpoint the indexer polls.
	ChainRPC string `mapstructure:"chain_rpc"`
}

func NewQFAppConfig(home string) *QFAppConfig {
	return &QFAppConfig{
		Home:              home,
		IndexerListenAddr: "0.0.0.0:8547",
		IndexerDBPath:     home + "/data/indexer.db",
		ChainRPC:          "http://127.0.0.1:26657",
	}
}

type Config struct {
	*config.Config `mapstructure:",squash"`

	App *QFAppConfig `mapstructure:"app"`
}

func DefaultConfig(home string) *Config {
	if len(home) == 0 {
		home = os.ExpandEnv("$HOME/.qf")
	}
	config := &Config{
		DefaultQFCometConfig(),
		NewQFAppConfig(home),
	}
	config.RootDir = home
	_ = os.MkdirAll(home+"/config", 0755)
	return config
}

func NewQFConfig(home string) *Config {
	if len(home) == 0 {
		home = os.ExpandEnv("$HOME/.qf")
	}
	_ = os.MkdirAll(home+"/config", 0755)
	config := &Config{
		DefaultQFCometConfig(),
		NewQFAppConfig(home),
	}
	config.RootDir = home
	return config
}

// InitializeAuthority generates the privileged admin key and stores it
// under config/. Returns the account address and public key for genesis.
func InitializeAuthority(home string) (address string, pubKey []byte) {
	priv := ed25519.GenPrivKey()
	key := hex.EncodeToString(priv.Bytes())

	err := os.WriteFile(home+"/config/authority_key", []byte(key), 0600)
	if err != nil {
		fmt.Println("Error writing authority key to file:", err)
		return
	}
	address = priv.PubKey().Address().String()
	pubKey = priv.PubKey().Bytes()
	return
}

// LoadAuthorityKey reads the admin key written by InitializeAuthority.
func LoadAuthorityKey(home string) (priv ed25519.PrivKey, err error) {
	dat, err := os.ReadFile(home + "/config/authority_key")
	if err != nil {
		return nil, err
	}
	raw, err := hex.DecodeString(string(dat))
	if err != nil {
		return nil, err
	}
	return ed25519.PrivKey(raw), nil
}

func InitializeNodeValidatorFiles(config *Config, privKey crypto.PrivKey) (nodeID string, pk crypto.PubKey, err error) {
	nodeKey, err := p2p.LoadOrGenNodeKey(config.NodeKeyFile())
	if err != nil {
		return "", nil, err
	}
	nodeID = string(nodeKey.ID())

	pvKeyFile := config.PrivValidatorKeyFile()
	if err := os.MkdirAll(filepath.Dir(pvKeyFile), 0o777); err != nil {
		return "", nil, fmt.Errorf("could not create directory %q: %w", filepath.Dir(pvKeyFile), err)
	}

	pvStateFile := config.PrivValidatorStateFile()
	if err := os.MkdirAll(filepath.Dir(pvStateFile), 0o777); err != nil {
		return "", nil, fmt.Errorf("could not create directory %q: %w", filepath.Dir(pvStateFile), err)
	}

	var filePV *privval.FilePV
	if privKey == nil {
		filePV = privval.LoadOrGenFilePV(pvKeyFile, pvStateFile)
	} else {
		filePV = privval.NewFilePV(privKey, pvKeyFile, pvStateFile)
		filePV.Save()
	}
	pukey, err := filePV.GetPubKey()
	if err != nil {
		return "", nil, err
	}

	return nodeID, pukey, nil
}

func InitializeNodeOnly(config *Config) {
	_, err := p2p.LoadOrGenNodeKey(config.NodeKeyFile())
	if err != nil {
		return
	}

	pvKeyFile := config.PrivValidatorKeyFile()
	if err := os.MkdirAll(filepath.Dir(pvKeyFile), 0o777); err != nil {
		return
	}

	pvStateFile := config.PrivValidatorStateFile()
	if err := os.MkdirAll(filepath.Dir(pvStateFile), 0o777); err != nil {
		return
	}
	privval.LoadOrGenFilePV(pvKeyFile, pvStateFile)
	os.Remove(pvKeyFile)
}

func DefaultQFCometConfig() *config.Config {
	cometConfig := config.DefaultConfig()
	cometConfig.Consensus.TimeoutPropose = time.Second * 10
	cometConfig.Consensus.TimeoutPrevote = time.Second * 1
	cometConfig.Consensus.TimeoutPrecommit = time.Second * 1
	cometConfig.Consensus.TimeoutCommit = time.Millisecond * 1200
	return cometConfig
}
