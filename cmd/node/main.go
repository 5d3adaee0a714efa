package main

import (
	"context"
	"log"
	"math/big"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/raullenchai/sushiswap-settlement/params"
	"github.com/raullenchai/sushiswap-settlement/pkg/amm"
	"github.com/raullenchai/sushiswap-settlement/pkg/api"
	"github.com/raullenchai/sushiswap-settlement/pkg/crypto"
	"github.com/raullenchai/sushiswap-settlement/pkg/gossip"
	"github.com/raullenchai/sushiswap-settlement/pkg/settlement"
	"github.com/raullenchai/sushiswap-settlement/pkg/storage"
	"github.com/raullenchai/sushiswap-settlement/pkg/util"
)

func main() {
	// Load config from .env file and environment variables
	cfg := params.LoadFromEnv("")

	logger, err := util.NewLoggerWithFile(cfg.Node.LogFile)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()
	sugar := logger.Sugar()
	sugar.Infow("logger_initialized", "log_file", cfg.Node.LogFile)

	// ---- Persistence ----
	store, err := storage.NewPebbleStore(cfg.Node.DBPath)
	if err != nil {
		sugar.Fatalw("store_open_failed", "path", cfg.Node.DBPath, "err", err)
	}
	defer store.Close()

	// ---- Order hashing domain ----
	// ChainID and the engine address scope every digest to this deployment.
	domain := crypto.Domain{
		Name:              "SushiSettlement",
		Version:           "1",
		ChainID:           big.NewInt(cfg.Engine.ChainID),
		VerifyingContract: common.HexToAddress(cfg.Engine.EngineAddr),
	}
	hasher := crypto.NewOrderHasher(domain)

	// ---- Swap facility ----
	// Devnet runs against the in-process constant-product exchange.
	// A production deployment swaps these three interfaces for on-chain
	// router/pair/token bindings.
	exchange := amm.NewMemoryExchange(util.RealClock{})
	seedDevnetPools(exchange, cfg, sugar)

	engineParams := settlement.NewParams(
		common.HexToAddress(cfg.Engine.Owner),
		common.HexToAddress(cfg.Engine.NativeToken),
		common.HexToAddress(cfg.Engine.RewardToken),
		cfg.Engine.RewardRateInt(),
	)

	book := settlement.NewBook(store)
	engine := settlement.NewEngine(hasher, book, exchange, exchange, exchange, engineParams, util.RealClock{}, sugar)

	sugar.Infow("engine_ready",
		"chain_id", cfg.Engine.ChainID,
		"engine_addr", cfg.Engine.EngineAddr,
		"owner", cfg.Engine.Owner,
		"reward_rate", cfg.Engine.RewardRate)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ---- Fill gossip (optional) ----
	var announcer *gossip.Announcer
	if cfg.Node.GossipListen != "" {
		announcer, err = gossip.NewAnnouncer(ctx, gossip.Config{
			ListenAddr: cfg.Node.GossipListen,
			Logger:     sugar,
		})
		if err != nil {
			sugar.Fatalw("gossip_init_failed", "err", err)
		}
		defer announcer.Close()

		announcer.OnFill(func(ev settlement.FillEvent) {
			sugar.Infow("peer_fill_observed",
				"hash", ev.Hash.Hex(),
				"filler", ev.Filler.Hex(),
				"amount_in", ev.AmountIn.String())
		})
	}

	// ---- API Server ----
	apiServer := api.NewServer(engine, store, exchange)

	// Every successful fill fans out to WebSocket clients and, when gossip
	// is enabled, to peer fillers.
	engine.OnFill = func(ev settlement.FillEvent) {
		apiServer.BroadcastFill(ev)
		if announcer != nil {
			if err := announcer.PublishFill(ctx, ev); err != nil {
				sugar.Warnw("fill_gossip_failed", "hash", ev.Hash.Hex(), "err", err)
			}
		}
	}

	go func() {
		sugar.Infow("api_server_starting", "addr", cfg.Node.APIAddr)
		if err := apiServer.Start(cfg.Node.APIAddr); err != nil {
			sugar.Fatalw("api_server_failed", "err", err)
		}
	}()

	<-ctx.Done()
	sugar.Info("shutting down")
}

// seedDevnetPools bootstraps liquidity so signed demo orders have somewhere
// to route: DAI against the native asset, plus a native/reward-token pool so
// reward pricing works for non-native outputs. Maker balances come from the
// devnet faucet endpoint.
func seedDevnetPools(exchange *amm.MemoryExchange, cfg params.Config, sugar *zap.SugaredLogger) {
	dai := common.HexToAddress("0x6B175474E89094C44Da98b954EedeAC495271d0F")
	native := common.HexToAddress(cfg.Engine.NativeToken)
	reward := common.HexToAddress(cfg.Engine.RewardToken)

	reserve := new(big.Int).Exp(big.NewInt(10), big.NewInt(24), nil)
	pairs := [][2]common.Address{
		{dai, native},
		{reward, native},
	}
	for _, pair := range pairs {
		if err := exchange.CreatePool(pair[0], pair[1], reserve, reserve); err != nil {
			sugar.Warnw("devnet_pool_skipped", "tokenA", pair[0].Hex(), "tokenB", pair[1].Hex(), "err", err)
			continue
		}
		sugar.Infow("devnet_pool_seeded", "tokenA", pair[0].Hex(), "tokenB", pair[1].Hex(), "reserve", reserve.String())
	}
}
