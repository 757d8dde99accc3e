package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jphacks/tk-b-2510/internal/config"
	"github.com/jphacks/tk-b-2510/internal/models"
	"github.com/jphacks/tk-b-2510/internal/services"
)

func postSummary(t *testing.T, handler *SummaryHandler, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/api/ai-summary", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.Summarize(rec, req)
	return rec
}

func TestSummaryHandler_Summarize(t *testing.T) {
	t.Run("builds local summary when no remote service is configured", func(t *testing.T) {
		handler := NewSummaryHandler(services.NewAnalysisService(config.Analyzer{}))

		rec := postSummary(t, handler, `{"date":"2025-10-15","comments":["朝の散歩","夕焼けがきれいだった","晩ごはん"]}`)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp models.SummaryResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, services.LocalSummary([]string{"朝の散歩", "夕焼けがきれいだった", "晩ごはん"}), resp.Summary)
	})

	t.Run("empty comments produce the placeholder summary", func(t *testing.T) {
		handler := NewSummaryHandler(services.NewAnalysisService(config.Analyzer{}))

		rec := postSummary(t, handler, `{"date":"2025-10-15","comments":[]}`)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp models.SummaryResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, services.LocalSummary(nil), resp.Summary)
	})

	t.Run("uses remote summary when available", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]string{"summary": "充実した一日でした。"})
		}))
		defer server.Close()

		handler := NewSummaryHandler(services.NewAnalysisService(config.Analyzer{
			SummaryEndpoint: server.URL,
		}))

		rec := postSummary(t, handler, `{"date":"2025-10-15","comments":["散歩"]}`)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp models.SummaryResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, "充実した一日でした。", resp.Summary)
	})

	t.Run("rejects malformed date", func(t *testing.T) {
		handler := NewSummaryHandler(services.NewAnalysisService(config.Analyzer{}))

		rec := postSummary(t, handler, `{"date":"15-10-2025","comments":["散歩"]}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("rejects invalid JSON", func(t *testing.T) {
		handler := NewSummaryHandler(services.NewAnalysisService(config.Analyzer{}))

		req := httptest.NewRequest(http.MethodPost, "/api/ai-summary", bytes.NewReader([]byte("{not json")))
		rec := httptest.NewRecorder()
		handler.Summarize(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
