package http

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"risparmio/internal/cache"
	"risparmio/internal/core"
	"risparmio/internal/log"
	"risparmio/internal/middleware/trace"
	"risparmio/internal/storage"
)

const (
	trendCacheSize = 256
	trendCacheTTL  = 60 * time.Second
)

// Predictor produces per-user savings reports.
type Predictor interface {
	Predict(ctx context.Context, userID string) (core.PredictionReport, error)
}

// TrendSource produces spending trend reports.
type TrendSource interface {
	Trends(ctx context.Context, userID string, days int) (core.TrendReport, error)
}

// SyncPublisher enqueues spreadsheet export requests for stored
// transactions. Nil means export is disabled.
type SyncPublisher interface {
	PublishTransactionSync(ctx context.Context, id int64, userID string) error
}

// Server is the JSON API surface over the prediction pipeline.
type Server struct {
	http.Server

	store     storage.Store
	predictor Predictor
	trends    TrendSource
	publisher SyncPublisher

	modelsLoaded     int
	defaultTrendDays int

	trendCache *cache.LRU[core.TrendReport]

	cancelJanitor context.CancelFunc
	shutdownOnce  sync.Once
}

// NewServer configures routes and middleware, returning a
// ready-to-run server. publisher may be nil.
func NewServer(addr string, store storage.Store, predictor Predictor, trends TrendSource, publisher SyncPublisher, modelsLoaded, defaultTrendDays int, logger *log.Logger) *Server {
	mux := http.NewServeMux()

	janitorCtx, cancel := context.WithCancel(context.Background())
	s := &Server{
		Server: http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		store:            store,
		predictor:        predictor,
		trends:           trends,
		publisher:        publisher,
		modelsLoaded:     modelsLoaded,
		defaultTrendDays: defaultTrendDays,
		trendCache:       cache.NewLRU[core.TrendReport](trendCacheSize, trendCacheTTL),
		cancelJanitor:    cancel,
	}
	go s.trendCache.Janitor(janitorCtx, 5*time.Minute)

	tracer := trace.NewMiddleware(logger)
	s.Handler = log.Middleware(logger)(tracer.Middleware(mux))

	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("POST /api/transactions", s.timed("create_transaction", s.handleCreateTransaction))
	mux.HandleFunc("GET /api/transactions/{user_id}", s.timed("list_transactions", s.handleListTransactions))
	mux.HandleFunc("GET /api/profile/{user_id}", s.timed("get_profile", s.handleGetProfile))
	mux.HandleFunc("PUT /api/profile/{user_id}", s.timed("put_profile", s.handlePutProfile))
	mux.HandleFunc("GET /api/predict/{user_id}", s.timed("predict", s.handlePredict))
	mux.HandleFunc("POST /api/parse-transaction", s.timed("parse_transaction", s.handleParseTransaction))
	mux.HandleFunc("GET /api/spending-trends/{user_id}", s.timed("spending_trends", s.handleSpendingTrends))
	mux.Handle("GET /metrics", promhttp.Handler())

	return s
}

// timed records the request latency histogram per logical route.
func (s *Server) timed(route string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next(rec, r)
		requestDuration.
			WithLabelValues(route, strconv.Itoa(rec.status)).
			Observe(time.Since(start).Seconds())
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Shutdown stops the listener and the cache janitor.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.cancelJanitor()
		if shutdownErr := s.Server.Shutdown(ctx); shutdownErr != nil {
			err = fmt.Errorf("server shutdown: %w", shutdownErr)
		}
	})
	return err
}
