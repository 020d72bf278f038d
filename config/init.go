package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	yaml "gopkg.in/yaml.v2"
)

// reading config error is fatal, and exits main thread
func processError(err error) {
	fmt.Println(err)
	os.Exit(2)
}

func readFile(cfg *Configuration) {
	f, err := os.Open("config.yml")
	if err != nil {
		processError(err)
	}
	defer f.Close()

	decoder := yaml.NewDecoder(f)
	err = decoder.Decode(cfg)
	if err != nil {
		processError(err)
	}
}

func readEnv(cfg *Configuration) {
	// .env is optional, real env vars win either way
	_ = godotenv.Load()

	err := envconfig.Process("", cfg)
	if err != nil {
		processError(err)
	}
}

// Validate rejects configurations the relayer cannot safely start with.
func Validate(cfg *Configuration) error {
	if _, ok := EVMChains[cfg.EVM.ChainID]; !ok {
		return fmt.Errorf("unsupported EVM chain id %d", cfg.EVM.ChainID)
	}
	if !common.IsHexAddress(cfg.EVM.BridgeContract) {
		return fmt.Errorf("malformed EVM bridge contract address %q", cfg.EVM.BridgeContract)
	}
	if !common.IsHexAddress(cfg.EVM.PublicAddress) {
		return fmt.Errorf("malformed EVM relayer address %q", cfg.EVM.PublicAddress)
	}
	if cfg.EVM.PrivateKey == "" {
		return errors.New("missing EVM relayer private key")
	}
	if cfg.Aptos.NodeURL == "" {
		return errors.New("missing Aptos node URL")
	}
	if cfg.Aptos.BridgeAccount == "" {
		return errors.New("missing Aptos bridge account")
	}
	if len(cfg.Tokens) == 0 {
		return errors.New("empty supported-asset set")
	}
	if cfg.PollInterval <= 0 {
		return errors.New("poll interval must be positive")
	}
	if cfg.FeeBasisPoints < 0 || cfg.FeeBasisPoints >= 10000 {
		return fmt.Errorf("fee basis points %d out of range", cfg.FeeBasisPoints)
	}
	return nil
}

func Init() {
	readFile(&Config)
	readEnv(&Config)

	if Config.Server.ListenAddr == "" {
		Config.Server.ListenAddr = ":8080"
	}
	if Config.Aptos.TxLookback == 0 {
		Config.Aptos.TxLookback = 50
	}
	if Config.ConfirmRounds == 0 {
		Config.ConfirmRounds = 20
	}
	if Config.ConfirmInterval == 0 {
		Config.ConfirmInterval = 3
	}

	if err := Validate(&Config); err != nil {
		processError(err)
	}
}
