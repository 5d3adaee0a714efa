package api

import (
	"encoding/json"
	"log"
	"math/big"
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/raullenchai/sushiswap-settlement/pkg/amm"
	"github.com/raullenchai/sushiswap-settlement/pkg/settlement"
	"github.com/raullenchai/sushiswap-settlement/pkg/storage"
)

// Server exposes the settlement engine over REST and WebSocket: fill
// submission, the public read surface (order state, fill log, parameters),
// and the owner-only admin mutators.
type Server struct {
	engine   *settlement.Engine
	store    *storage.PebbleStore // optional; nil disables the fill-log endpoint
	exchange *amm.MemoryExchange  // optional; nil disables the devnet faucet
	router   *mux.Router
	hub      *Hub
}

// NewServer creates the API server. store and exchange may be nil.
func NewServer(engine *settlement.Engine, store *storage.PebbleStore, exchange *amm.MemoryExchange) *Server {
	s := &Server{
		engine:   engine,
		store:    store,
		exchange: exchange,
		router:   mux.NewRouter(),
		hub:      NewHub(),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api/v1").Subrouter()

	// Public read surface
	api.HandleFunc("/params", s.handleGetParams).Methods("GET")
	api.HandleFunc("/orders/{hash}", s.handleGetOrderState).Methods("GET")
	api.HandleFunc("/orders/{hash}/fills", s.handleGetFills).Methods("GET")

	// Fill submission
	api.HandleFunc("/fill", s.handleFill).Methods("POST")
	api.HandleFunc("/fills", s.handleBatchFill).Methods("POST")

	// Admin surface (owner-gated by caller address)
	api.HandleFunc("/admin/reward-token", s.handleSetRewardToken).Methods("POST")
	api.HandleFunc("/admin/reward-rate", s.handleSetRewardRate).Methods("POST")

	// Devnet faucet, only when the in-process exchange backs the node
	api.HandleFunc("/devnet/fund", s.handleDevnetFund).Methods("POST")

	// WebSocket endpoint
	s.router.HandleFunc("/ws", s.handleWebSocket)

	// Health check
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
}

// Start starts the API server.
func (s *Server) Start(addr string) error {
	go s.hub.Run()

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type"},
		AllowCredentials: false,
	})

	log.Printf("[api] server starting on %s", addr)
	return http.ListenAndServe(addr, c.Handler(s.router))
}

// BroadcastFill pushes a fill event to all connected WebSocket clients.
// Wired to the engine's OnFill callback.
func (s *Server) BroadcastFill(ev settlement.FillEvent) {
	s.hub.Broadcast(FillUpdate{
		Type:      "fill",
		Hash:      ev.Hash.Hex(),
		Filler:    ev.Filler.Hex(),
		AmountIn:  ev.AmountIn.String(),
		AmountOut: ev.AmountOut.String(),
		Reward:    ev.Reward.String(),
		Timestamp: ev.Timestamp,
	})
}

// ==============================
// REST Handlers
// ==============================

func (s *Server) handleGetParams(w http.ResponseWriter, r *http.Request) {
	p := s.engine.Params()
	domain := s.engine.Hasher().Domain()
	respondJSON(w, EngineParams{
		ChainID:     domain.ChainID.String(),
		EngineAddr:  domain.VerifyingContract.Hex(),
		Owner:       p.Owner().Hex(),
		NativeToken: p.NativeToken().Hex(),
		RewardToken: p.RewardToken().Hex(),
		RewardRate:  p.RewardRate().String(),
	})
}

func (s *Server) handleGetOrderState(w http.ResponseWriter, r *http.Request) {
	hash, ok := parseHash(w, r)
	if !ok {
		return
	}
	st := s.engine.Book().State(hash)
	respondJSON(w, OrderStateInfo{
		Hash:           hash.Hex(),
		Status:         st.Status.String(),
		FilledAmountIn: st.FilledAmountIn.String(),
	})
}

func (s *Server) handleGetFills(w http.ResponseWriter, r *http.Request) {
	hash, ok := parseHash(w, r)
	if !ok {
		return
	}
	if s.store == nil {
		respondError(w, http.StatusNotImplemented, "fill log disabled", "no store configured")
		return
	}
	fills, err := s.store.LoadFills(hash)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to load fills", err.Error())
		return
	}
	out := make([]FillInfo, len(fills))
	for i, f := range fills {
		out[i] = FillInfo{
			Filler:    f.Filler.Hex(),
			AmountIn:  f.AmountIn.String(),
			AmountOut: f.AmountOut.String(),
			Reward:    f.Reward.String(),
			Timestamp: f.Timestamp,
		}
	}
	respondJSON(w, out)
}

func (s *Server) handleFill(w http.ResponseWriter, r *http.Request) {
	var sub FillSubmission
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	req, filler, err := sub.toFillRequest()
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid fill request", err.Error())
		return
	}
	hash, err := s.engine.Hash(&req.Order)
	if err != nil {
		respondError(w, http.StatusBadRequest, "failed to hash order", err.Error())
		return
	}
	amountOut := s.engine.FillOrder(filler, req)
	respondJSON(w, FillResult{
		Hash:      hash.Hex(),
		AmountOut: amountOut.String(),
		Filled:    amountOut.Sign() > 0,
	})
}

func (s *Server) handleBatchFill(w http.ResponseWriter, r *http.Request) {
	var batch BatchFillSubmission
	if err := json.NewDecoder(r.Body).Decode(&batch); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	// Malformed elements reject as zero results in place; they must not
	// abort their siblings, matching the engine's batch semantics. Each
	// element may name its own filler; the batch-level filler is the
	// default for elements that leave it blank.
	results := make([]FillResult, len(batch.Fills))
	reqs := make([]*settlement.FillRequest, len(batch.Fills))
	fillers := make([]common.Address, len(batch.Fills))
	for i := range batch.Fills {
		if batch.Fills[i].Filler == "" {
			batch.Fills[i].Filler = batch.Filler
		}
		req, filler, err := batch.Fills[i].toFillRequest()
		if err != nil {
			results[i] = FillResult{AmountOut: "0"}
			continue
		}
		reqs[i] = req
		fillers[i] = filler
	}
	for i, req := range reqs {
		if req == nil {
			continue
		}
		hash, err := s.engine.Hash(&req.Order)
		if err != nil {
			results[i] = FillResult{AmountOut: "0"}
			continue
		}
		amountOut := s.engine.FillOrder(fillers[i], req)
		results[i] = FillResult{
			Hash:      hash.Hex(),
			AmountOut: amountOut.String(),
			Filled:    amountOut.Sign() > 0,
		}
	}
	respondJSON(w, results)
}

func (s *Server) handleSetRewardToken(w http.ResponseWriter, r *http.Request) {
	var req AdminTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	caller, err := parseAddress(req.Caller)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid caller", err.Error())
		return
	}
	token, err := parseAddress(req.Token)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid token", err.Error())
		return
	}
	if err := s.engine.Params().SetRewardToken(caller, token); err != nil {
		respondError(w, http.StatusForbidden, "update rejected", err.Error())
		return
	}
	respondJSON(w, map[string]string{"rewardToken": token.Hex()})
}

func (s *Server) handleSetRewardRate(w http.ResponseWriter, r *http.Request) {
	var req AdminRateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	caller, err := parseAddress(req.Caller)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid caller", err.Error())
		return
	}
	rate, ok := new(big.Int).SetString(req.Rate, 10)
	if !ok || rate.Sign() < 0 {
		respondError(w, http.StatusBadRequest, "invalid rate", req.Rate)
		return
	}
	if err := s.engine.Params().SetRewardRate(caller, rate); err != nil {
		respondError(w, http.StatusForbidden, "update rejected", err.Error())
		return
	}
	respondJSON(w, map[string]string{"rewardRate": rate.String()})
}

func (s *Server) handleDevnetFund(w http.ResponseWriter, r *http.Request) {
	if s.exchange == nil {
		respondError(w, http.StatusNotImplemented, "faucet disabled", "node is not running the in-process exchange")
		return
	}
	var req DevnetFundRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	token, err := parseAddress(req.Token)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid token", err.Error())
		return
	}
	holder, err := parseAddress(req.Holder)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid holder", err.Error())
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil || amount.Sign() <= 0 {
		respondError(w, http.StatusBadRequest, "invalid amount", req.Amount)
		return
	}
	s.exchange.Fund(token, holder, amount)
	respondJSON(w, map[string]string{
		"token":   token.Hex(),
		"holder":  holder.Hex(),
		"balance": s.exchange.BalanceOf(token, holder).String(),
	})
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	s.hub.ServeWS(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, map[string]string{"status": "ok"})
}

// ==============================
// Helpers
// ==============================

func parseHash(w http.ResponseWriter, r *http.Request) (common.Hash, bool) {
	raw := mux.Vars(r)["hash"]
	b, err := decodeHash(raw)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid order hash", err.Error())
		return common.Hash{}, false
	}
	return b, true
}

func respondJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("[api] encode error: %v", err)
	}
}

func respondError(w http.ResponseWriter, status int, message, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":  message,
		"detail": detail,
	})
}
