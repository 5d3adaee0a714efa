package params

import (
	"math/big"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Engine struct {
	ChainID    int64  // Network identifier baked into order digests
	EngineAddr string // Deployment identity baked into order digests
	Owner      string // Admin address for reward parameter updates

	NativeToken string // Asset rewards are priced against (WETH analog)
	RewardToken string // Token minted as filler incentive
	RewardRate  string // Fixed-point 1e18; "0" disables rewards
}

type Node struct {
	APIAddr      string // HTTP/WebSocket listen address
	DBPath       string // Pebble database directory
	LogFile      string // JSON log sink alongside stdout
	GossipListen string // libp2p multiaddr for fill gossip; "" disables
}

type Config struct {
	Engine Engine
	Node   Node
}

func Default() Config {
	return Config{
		Engine: Engine{
			ChainID:     1337,
			EngineAddr:  "0x0000000000000000000000000000000000000000",
			Owner:       "0x0000000000000000000000000000000000000001",
			NativeToken: "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2", // WETH
			RewardToken: "0x6B3595068778DD592e39A122f4f5a5cF09C90fE2", // SUSHI
			RewardRate:  "0",
		},
		Node: Node{
			APIAddr:      ":8080",
			DBPath:       "data/settlement",
			LogFile:      "data/node.log",
			GossipListen: "", // Devnet default: no gossip
		},
	}
}

// LoadFromEnv loads configuration from .env file (if exists) and environment
// variables. Priority: ENV > .env file > defaults.
func LoadFromEnv(envPath string) Config {
	cfg := Default()

	// Try to load .env file (optional - won't fail if not exists)
	if envPath != "" {
		_ = godotenv.Load(envPath)
	} else {
		_ = godotenv.Load() // loads .env from current directory
	}

	if v := os.Getenv("CHAIN_ID"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Engine.ChainID = id
		}
	}
	if v := os.Getenv("ENGINE_ADDR"); v != "" {
		cfg.Engine.EngineAddr = v
	}
	if v := os.Getenv("OWNER_ADDR"); v != "" {
		cfg.Engine.Owner = v
	}
	if v := os.Getenv("NATIVE_TOKEN"); v != "" {
		cfg.Engine.NativeToken = v
	}
	if v := os.Getenv("REWARD_TOKEN"); v != "" {
		cfg.Engine.RewardToken = v
	}
	if v := os.Getenv("REWARD_RATE"); v != "" {
		if _, ok := new(big.Int).SetString(v, 10); ok {
			cfg.Engine.RewardRate = v
		}
	}
	if v := os.Getenv("API_ADDR"); v != "" {
		cfg.Node.APIAddr = v
	}
	if v := os.Getenv("DB_PATH"); v != "" {
		cfg.Node.DBPath = v
	}
	if v := os.Getenv("LOG_FILE"); v != "" {
		cfg.Node.LogFile = v
	}
	if v := os.Getenv("GOSSIP_LISTEN"); v != "" {
		cfg.Node.GossipListen = v
	}

	return cfg
}

// RewardRateInt parses the configured reward rate. Invalid values read as
// zero, which disables rewards rather than failing startup.
func (e Engine) RewardRateInt() *big.Int {
	rate, ok := new(big.Int).SetString(e.RewardRate, 10)
	if !ok {
		return new(big.Int)
	}
	return rate
}
