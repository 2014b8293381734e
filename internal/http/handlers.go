package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"risparmio/internal/core"
	"risparmio/internal/services"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"models": s.modelsLoaded,
	})
}

type transactionRequest struct {
	UserID      string  `json:"user_id"`
	Date        string  `json:"date"`
	Category    string  `json:"category"`
	Amount      float64 `json:"amount"`
	Description string  `json:"description"`
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	date, err := core.ParseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid date %q: expected %s", req.Date, core.DateLayout))
		return
	}
	category, err := core.ParseCategory(req.Category)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid category %q", req.Category))
		return
	}

	tx := core.Transaction{
		UserID:      strings.TrimSpace(req.UserID),
		Date:        date,
		Category:    category,
		Amount:      core.MoneyFromUnits(req.Amount),
		Description: strings.TrimSpace(req.Description),
	}
	if err := tx.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx := r.Context()
	id, err := s.store.InsertTransaction(ctx, tx)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to insert transaction", "error", err, "user_id", tx.UserID)
		writeError(w, http.StatusInternalServerError, "failed to store transaction")
		return
	}
	transactionsCreated.Inc()

	// Fresh spend invalidates any cached trend report for the user.
	s.invalidateTrends(tx.UserID)

	if s.publisher != nil {
		// Export is best-effort; the pending scan recovers lost messages.
		if err := s.publisher.PublishTransactionSync(ctx, id, tx.UserID); err != nil {
			slog.WarnContext(ctx, "Failed to publish sync message", "error", err, "id", id)
		}
	}

	writeJSON(w, http.StatusCreated, map[string]any{"id": id})
}

type transactionResponse struct {
	ID          int64   `json:"id"`
	UserID      string  `json:"user_id"`
	Date        string  `json:"date"`
	Category    string  `json:"category"`
	Amount      float64 `json:"amount"`
	Description string  `json:"description"`
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("user_id")

	var from, to *core.Date
	if v := r.URL.Query().Get("from"); v != "" {
		d, err := core.ParseDate(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid from date %q", v))
			return
		}
		from = &d
	}
	if v := r.URL.Query().Get("to"); v != "" {
		d, err := core.ParseDate(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid to date %q", v))
			return
		}
		to = &d
	}

	txs, err := s.store.Transactions(r.Context(), userID, from, to)
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to list transactions", "error", err, "user_id", userID)
		writeError(w, http.StatusInternalServerError, "failed to load transactions")
		return
	}

	out := make([]transactionResponse, 0, len(txs))
	for _, tx := range txs {
		out = append(out, transactionResponse{
			ID:          tx.ID,
			UserID:      tx.UserID,
			Date:        tx.Date.String(),
			Category:    string(tx.Category),
			Amount:      tx.Amount.Units(),
			Description: tx.Description,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"transactions": out})
}

type profilePayload struct {
	UserID     string `json:"user_id"`
	Age        int    `json:"age"`
	Dependents int    `json:"dependents"`
	Occupation string `json:"occupation"`
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("user_id")

	profile, err := s.store.Profile(r.Context(), userID)
	if errors.Is(err, core.ErrProfileNotFound) {
		writeError(w, http.StatusNotFound, "profile not found")
		return
	}
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to load profile", "error", err, "user_id", userID)
		writeError(w, http.StatusInternalServerError, "failed to load profile")
		return
	}

	writeJSON(w, http.StatusOK, profilePayload{
		UserID:     profile.UserID,
		Age:        profile.Age,
		Dependents: profile.Dependents,
		Occupation: profile.Occupation,
	})
}

func (s *Server) handlePutProfile(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("user_id")

	var req profilePayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	profile := core.Profile{
		UserID:     userID, // path wins over body
		Age:        req.Age,
		Dependents: req.Dependents,
		Occupation: strings.TrimSpace(req.Occupation),
	}
	if err := profile.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.store.UpsertProfile(r.Context(), profile); err != nil {
		slog.ErrorContext(r.Context(), "Failed to upsert profile", "error", err, "user_id", userID)
		writeError(w, http.StatusInternalServerError, "failed to store profile")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("user_id")

	report, err := s.predictor.Predict(r.Context(), userID)
	switch {
	case errors.Is(err, core.ErrNoModels):
		predictionFailures.WithLabelValues("no_models").Inc()
		writeError(w, http.StatusServiceUnavailable, "no trained models available")
		return
	case errors.Is(err, core.ErrProfileNotFound):
		predictionFailures.WithLabelValues("no_profile").Inc()
		writeError(w, http.StatusBadRequest, "user profile not found; create a profile first")
		return
	case err != nil:
		predictionFailures.WithLabelValues("internal").Inc()
		slog.ErrorContext(r.Context(), "Prediction failed", "error", err, "user_id", userID)
		writeError(w, http.StatusInternalServerError, "prediction failed")
		return
	}

	predictionsServed.Inc()
	writeJSON(w, http.StatusOK, report)
}

type parseRequest struct {
	Text string `json:"text"`
}

func (s *Server) handleParseTransaction(w http.ResponseWriter, r *http.Request) {
	var req parseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	parsed, ok := services.ParseTransactionText(req.Text)
	if !ok {
		parseRequests.WithLabelValues("miss").Inc()
		writeError(w, http.StatusBadRequest, "could not parse transaction text")
		return
	}

	parseRequests.WithLabelValues("hit").Inc()
	writeJSON(w, http.StatusOK, parsed)
}

func (s *Server) handleSpendingTrends(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("user_id")

	days := s.defaultTrendDays
	if v := r.URL.Query().Get("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 365 {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid days %q: must be 1-365", v))
			return
		}
		days = n
	}

	key := fmt.Sprintf("%s:%d", userID, days)
	if report, ok := s.trendCache.Get(key); ok {
		trendCacheHits.WithLabelValues("hit").Inc()
		writeJSON(w, http.StatusOK, report)
		return
	}
	trendCacheHits.WithLabelValues("miss").Inc()

	report, err := s.trends.Trends(r.Context(), userID, days)
	if err != nil {
		slog.ErrorContext(r.Context(), "Trend analysis failed", "error", err, "user_id", userID)
		writeError(w, http.StatusInternalServerError, "failed to compute spending trends")
		return
	}

	s.trendCache.Set(key, report)
	writeJSON(w, http.StatusOK, report)
}

// invalidateTrends drops cached trend reports for a user across the
// common day windows.
func (s *Server) invalidateTrends(userID string) {
	for _, days := range []int{7, 14, 30, 60, 90, 365, s.defaultTrendDays} {
		s.trendCache.Delete(fmt.Sprintf("%s:%d", userID, days))
	}
}
