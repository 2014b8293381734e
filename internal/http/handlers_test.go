package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"

	"risparmio/internal/core"
	"risparmio/internal/log"
)

type fakeStore struct {
	profiles map[string]core.Profile
	txs      []core.Transaction
	err      error
}

func newFakeStore() *fakeStore {
	return &fakeStore{profiles: make(map[string]core.Profile)}
}

func (s *fakeStore) InsertTransaction(_ context.Context, tx core.Transaction) (int64, error) {
	if s.err != nil {
		return 0, s.err
	}
	tx.ID = int64(len(s.txs) + 1)
	s.txs = append(s.txs, tx)
	return tx.ID, nil
}

func (s *fakeStore) Transactions(_ context.Context, userID string, from, to *core.Date) ([]core.Transaction, error) {
	if s.err != nil {
		return nil, s.err
	}
	var out []core.Transaction
	for _, tx := range s.txs {
		if tx.UserID != userID {
			continue
		}
		if from != nil && tx.Date.Before(from.Time) {
			continue
		}
		if to != nil && tx.Date.After(to.Time) {
			continue
		}
		out = append(out, tx)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date.Time) })
	return out, nil
}

func (s *fakeStore) Profile(_ context.Context, userID string) (core.Profile, error) {
	if s.err != nil {
		return core.Profile{}, s.err
	}
	p, ok := s.profiles[userID]
	if !ok {
		return core.Profile{}, core.ErrProfileNotFound
	}
	return p, nil
}

func (s *fakeStore) UpsertProfile(_ context.Context, p core.Profile) error {
	if s.err != nil {
		return s.err
	}
	s.profiles[p.UserID] = p
	return nil
}

func (s *fakeStore) Close() error { return nil }

type fakePredictor struct {
	report core.PredictionReport
	err    error
	calls  int
}

func (p *fakePredictor) Predict(context.Context, string) (core.PredictionReport, error) {
	p.calls++
	return p.report, p.err
}

type fakeTrends struct {
	report core.TrendReport
	err    error
	calls  int
}

func (t *fakeTrends) Trends(context.Context, string, int) (core.TrendReport, error) {
	t.calls++
	return t.report, t.err
}

type fakePublisher struct {
	published []int64
	err       error
}

func (p *fakePublisher) PublishTransactionSync(_ context.Context, id int64, _ string) error {
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, id)
	return nil
}

type serverFixture struct {
	server    *Server
	store     *fakeStore
	predictor *fakePredictor
	trends    *fakeTrends
	publisher *fakePublisher
}

func newFixture(t *testing.T) *serverFixture {
	t.Helper()
	f := &serverFixture{
		store:     newFakeStore(),
		predictor: &fakePredictor{},
		trends:    &fakeTrends{},
		publisher: &fakePublisher{},
	}
	logger := log.New(log.Config{Handler: slog.NewTextHandler(io.Discard, nil)})
	f.server = NewServer(":0", f.store, f.predictor, f.trends, f.publisher, 3, 30, logger)
	t.Cleanup(func() { _ = f.server.Shutdown(context.Background()) })
	return f
}

func (f *serverFixture) do(method, path, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	f.server.Handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v (body %q)", err, rec.Body.String())
	}
	return v
}

func TestHandleHealth(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodGet, "/api/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := decode[map[string]any](t, rec)
	if body["status"] != "ok" {
		t.Errorf("status field = %v, want ok", body["status"])
	}
	if body["models"] != float64(3) {
		t.Errorf("models field = %v, want 3", body["models"])
	}
}

func TestHandleCreateTransaction(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodPost, "/api/transactions",
		`{"user_id":"u1","date":"2024-03-13","category":"Groceries","amount":49.5,"description":"milk"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201 (body %s)", rec.Code, rec.Body.String())
	}

	body := decode[map[string]any](t, rec)
	if body["id"] != float64(1) {
		t.Errorf("id = %v, want 1", body["id"])
	}
	if len(f.store.txs) != 1 {
		t.Fatalf("store has %d transactions, want 1", len(f.store.txs))
	}
	if got := f.store.txs[0].Amount.Cents; got != 4950 {
		t.Errorf("stored cents = %d, want 4950", got)
	}
	if len(f.publisher.published) != 1 || f.publisher.published[0] != 1 {
		t.Errorf("published = %v, want [1]", f.publisher.published)
	}
}

func TestHandleCreateTransaction_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "malformed json", body: `{`},
		{name: "bad date", body: `{"user_id":"u1","date":"13/03/2024","category":"Groceries","amount":10,"description":"x"}`},
		{name: "bad category", body: `{"user_id":"u1","date":"2024-03-13","category":"Rent","amount":10,"description":"x"}`},
		{name: "zero amount", body: `{"user_id":"u1","date":"2024-03-13","category":"Groceries","amount":0,"description":"x"}`},
		{name: "empty user", body: `{"user_id":"","date":"2024-03-13","category":"Groceries","amount":10,"description":"x"}`},
		{name: "empty description", body: `{"user_id":"u1","date":"2024-03-13","category":"Groceries","amount":10,"description":""}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			rec := f.do(http.MethodPost, "/api/transactions", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
			if len(f.store.txs) != 0 {
				t.Errorf("store has %d transactions, want 0", len(f.store.txs))
			}
		})
	}
}

func TestHandleCreateTransaction_PublisherFailureIsNotFatal(t *testing.T) {
	f := newFixture(t)
	f.publisher.err = errors.New("broker down")

	rec := f.do(http.MethodPost, "/api/transactions",
		`{"user_id":"u1","date":"2024-03-13","category":"Groceries","amount":10,"description":"milk"}`)
	if rec.Code != http.StatusCreated {
		t.Errorf("status = %d, want 201 despite publish failure", rec.Code)
	}
}

func TestHandleListTransactions(t *testing.T) {
	f := newFixture(t)
	for _, body := range []string{
		`{"user_id":"u1","date":"2024-03-10","category":"Groceries","amount":10,"description":"a"}`,
		`{"user_id":"u1","date":"2024-03-13","category":"Transport","amount":20,"description":"b"}`,
		`{"user_id":"u2","date":"2024-03-13","category":"Groceries","amount":30,"description":"c"}`,
	} {
		if rec := f.do(http.MethodPost, "/api/transactions", body); rec.Code != http.StatusCreated {
			t.Fatalf("seed failed: %d", rec.Code)
		}
	}

	rec := f.do(http.MethodGet, "/api/transactions/u1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := decode[map[string][]transactionResponse](t, rec)
	txs := body["transactions"]
	if len(txs) != 2 {
		t.Fatalf("got %d transactions, want 2", len(txs))
	}
	// Most recent first.
	if txs[0].Date != "2024-03-13" || txs[1].Date != "2024-03-10" {
		t.Errorf("order = [%s %s], want newest first", txs[0].Date, txs[1].Date)
	}

	t.Run("bounded by from", func(t *testing.T) {
		rec := f.do(http.MethodGet, "/api/transactions/u1?from=2024-03-12", "")
		body := decode[map[string][]transactionResponse](t, rec)
		if got := len(body["transactions"]); got != 1 {
			t.Errorf("got %d transactions, want 1", got)
		}
	})

	t.Run("bad bound rejected", func(t *testing.T) {
		rec := f.do(http.MethodGet, "/api/transactions/u1?from=notadate", "")
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})
}

func TestProfileLifecycle(t *testing.T) {
	f := newFixture(t)

	t.Run("missing profile is 404", func(t *testing.T) {
		rec := f.do(http.MethodGet, "/api/profile/u1", "")
		if rec.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", rec.Code)
		}
	})

	t.Run("put then get round-trips", func(t *testing.T) {
		rec := f.do(http.MethodPut, "/api/profile/u1",
			`{"age":32,"dependents":1,"occupation":"Self_Employed"}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("put status = %d, want 200 (body %s)", rec.Code, rec.Body.String())
		}

		rec = f.do(http.MethodGet, "/api/profile/u1", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("get status = %d, want 200", rec.Code)
		}
		p := decode[profilePayload](t, rec)
		want := profilePayload{UserID: "u1", Age: 32, Dependents: 1, Occupation: "Self_Employed"}
		if p != want {
			t.Errorf("profile = %+v, want %+v", p, want)
		}
	})

	t.Run("invalid age rejected", func(t *testing.T) {
		rec := f.do(http.MethodPut, "/api/profile/u1", `{"age":200}`)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})
}

func TestHandlePredict(t *testing.T) {
	t.Run("success returns the report", func(t *testing.T) {
		f := newFixture(t)
		f.predictor.report = core.PredictionReport{
			Predictions: map[core.Category]core.CategoryPrediction{
				core.Groceries: {ActualExpense: 1000, PotentialSavings: 200, SavingsPercentage: 20},
			},
			Totals: core.PredictionTotals{ActualExpenses: 1000, PotentialSavings: 200, SavingsPercentage: 20},
		}

		rec := f.do(http.MethodGet, "/api/predict/u1", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		report := decode[core.PredictionReport](t, rec)
		if report.Totals.PotentialSavings != 200 {
			t.Errorf("totals = %+v, want savings 200", report.Totals)
		}
	})

	t.Run("no models is 503", func(t *testing.T) {
		f := newFixture(t)
		f.predictor.err = core.ErrNoModels

		rec := f.do(http.MethodGet, "/api/predict/u1", "")
		if rec.Code != http.StatusServiceUnavailable {
			t.Errorf("status = %d, want 503", rec.Code)
		}
	})

	t.Run("missing profile is 400", func(t *testing.T) {
		f := newFixture(t)
		f.predictor.err = core.ErrProfileNotFound

		rec := f.do(http.MethodGet, "/api/predict/u1", "")
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("internal failure is 500", func(t *testing.T) {
		f := newFixture(t)
		f.predictor.err = errors.New("boom")

		rec := f.do(http.MethodGet, "/api/predict/u1", "")
		if rec.Code != http.StatusInternalServerError {
			t.Errorf("status = %d, want 500", rec.Code)
		}
	})
}

func TestHandleParseTransaction(t *testing.T) {
	f := newFixture(t)

	t.Run("parseable text", func(t *testing.T) {
		rec := f.do(http.MethodPost, "/api/parse-transaction", `{"text":"Coffee 50 food"}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		body := decode[map[string]any](t, rec)
		if body["description"] != "Coffee" || body["amount"] != float64(50) || body["category"] != "Eating_Out" {
			t.Errorf("parsed = %v", body)
		}
	})

	t.Run("unparseable text is 400", func(t *testing.T) {
		rec := f.do(http.MethodPost, "/api/parse-transaction", `{"text":"no numbers here"}`)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})
}

func TestHandleSpendingTrends(t *testing.T) {
	f := newFixture(t)
	f.trends.report = core.TrendReport{
		Daily:    []core.DailySpend{{Date: "2024-03-13", Amount: 10}},
		Category: []core.CategorySpend{{Category: core.Groceries, Amount: 10}},
	}

	rec := f.do(http.MethodGet, "/api/spending-trends/u1?days=7", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	report := decode[core.TrendReport](t, rec)
	if len(report.Daily) != 1 || report.Daily[0].Amount != 10 {
		t.Errorf("report = %+v", report)
	}

	t.Run("second request hits the cache", func(t *testing.T) {
		before := f.trends.calls
		rec := f.do(http.MethodGet, "/api/spending-trends/u1?days=7", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		if f.trends.calls != before {
			t.Errorf("trend source called %d times after cache fill, want %d", f.trends.calls, before)
		}
	})

	t.Run("new transaction invalidates the cache", func(t *testing.T) {
		before := f.trends.calls
		f.do(http.MethodPost, "/api/transactions",
			`{"user_id":"u1","date":"2024-03-13","category":"Groceries","amount":10,"description":"milk"}`)
		f.do(http.MethodGet, "/api/spending-trends/u1?days=7", "")
		if f.trends.calls != before+1 {
			t.Errorf("trend source calls = %d, want %d (cache invalidated)", f.trends.calls, before+1)
		}
	})

	t.Run("invalid days rejected", func(t *testing.T) {
		rec := f.do(http.MethodGet, "/api/spending-trends/u1?days=0", "")
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})
}
