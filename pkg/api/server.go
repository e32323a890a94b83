package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/mariusgiger/btc-feerate-provider/pkg/feerate"
)

// Server exposes the current fee rate over HTTP.
type Server struct {
	addr     string
	provider feerate.RateProvider
	params   string
	logger   *zap.Logger
}

// NewServer creates a server publishing the given provider on addr.
func NewServer(addr string, provider feerate.RateProvider, cfg feerate.Config, logger *zap.Logger) *Server {
	return &Server{
		addr:     addr,
		provider: provider,
		params:   cfg.Params(),
		logger:   logger,
	}
}

// Run starts serving, it only returns on listener failure.
func (s *Server) Run() error {
	mux := http.NewServeMux()
	mux.HandleFunc("/getFees", s.handleGetFees)
	mux.HandleFunc("/getParams", s.handleGetParams)

	server := &http.Server{
		Addr:         s.addr,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second, // a stale read may block on the upstream fetch
	}

	s.logger.Info("serving fee rates",
		zap.String("addr", s.addr),
		zap.Duration("refreshInterval", s.provider.RefreshInterval()))
	return server.ListenAndServe()
}

func (s *Server) handleGetFees(w http.ResponseWriter, r *http.Request) {
	rate := s.provider.CurrentRate()

	w.Header().Set("Content-Type", "application/json")
	err := json.NewEncoder(w).Encode(rate)
	if err != nil {
		s.logger.Error("could not write fee rate", zap.Error(err))
	}
}

func (s *Server) handleGetParams(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	fmt.Fprint(w, s.params)
}
