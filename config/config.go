package config

type Configuration struct {
	// Server config
	Server struct {
		ListenAddr string `yaml:"listen_addr"`
		RedisPort  int    `yaml:"redis_port"`
		RedisHost  string `yaml:"redis_host"`
	} `yaml:"server"`
	// EVM-related config
	EVM struct {
		ChainID        int    `yaml:"chain_id"`
		BridgeContract string `yaml:"bridge_contract"`
		PublicAddress  string `yaml:"address"`
		// important private stuff
		PrivateKey string `yaml:"private_key" envconfig:"EVM_PRIVATE_KEY"`
	} `yaml:"EVM"`
	// Aptos-related config
	Aptos struct {
		NodeURL       string `yaml:"node_url"`
		BridgeAccount string `yaml:"bridge_account"`
		BridgeModule  string `yaml:"bridge_module"`
		PublicAddress string `yaml:"address"`
		TxLookback    int    `yaml:"tx_lookback"`
	} `yaml:"aptos"`
	// symbol -> asset identifier on each chain
	Tokens map[string]TokenConfig `yaml:"tokens"`

	FeeBasisPoints  int    `yaml:"fee_basis_points"`
	PollInterval    int    `yaml:"poll_interval"`    // seconds
	MinAmount       string `yaml:"min_amount"`       // smallest units
	MaxAmount       string `yaml:"max_amount"`       // smallest units
	MinReserveWarn  string `yaml:"min_reserve_warn"` // warn threshold, smallest units
	ConfirmRounds   int    `yaml:"confirm_rounds"`   // receipt polls before unknown outcome
	ConfirmInterval int    `yaml:"confirm_interval"` // seconds between receipt polls
}

type TokenConfig struct {
	EVMAddress string `yaml:"evm_address"` // ERC-20 contract
	AptosType  string `yaml:"aptos_type"`  // Move coin type tag
	Decimals   int    `yaml:"decimals"`
}

var Config Configuration

// maximum number of EVM RPC retries
const EVM_RETRIES = 3

// processing claims expire after this lease. A claim is dropped
// explicitly when an attempt ends; the lease covers crashes and redis
// outages mid-attempt, so a request can never stay unclaimable forever.
// Must exceed the longest release wait (confirm_rounds * confirm_interval).
const CLAIM_LEASE_SECONDS = 900

// EVM log scans are capped to this many blocks per query; public
// providers reject wider eth_getLogs windows.
const EVM_SCAN_WINDOW = 20

// entry function suffix marking an incoming Aptos bridge deposit
const APTOS_INITIATE_FN = "::crosschain_manager::initiate_bridge"

// EVM-chains configs
type ChainConfig struct {
	Name             string
	ChainID          int
	RPCList          []string
	MinConfirmations int
	SafetyWindow     int // re-scan room on restart; dup events are dropped by the tracker
}

var EVMChains = map[int]ChainConfig{
	1: {
		Name:             "Eth",
		ChainID:          1,
		RPCList:          []string{"https://eth.drpc.org", "https://eth.llamarpc.com"},
		MinConfirmations: 3,
		SafetyWindow:     10,
	}, // Ethereum
	11155111: {
		Name:             "Sepolia",
		ChainID:          11155111,
		RPCList:          []string{"https://ethereum-sepolia-rpc.publicnode.com", "https://sepolia.drpc.org"},
		MinConfirmations: 2,
		SafetyWindow:     10,
	}, // Sepolia testnet
	56: {
		Name:             "BNB",
		ChainID:          56,
		RPCList:          []string{"https://rpc.ankr.com/bsc", "https://bsc.drpc.org"},
		MinConfirmations: 3,
		SafetyWindow:     25,
	}, // BNB
}
