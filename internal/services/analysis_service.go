package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2/google"

	"github.com/jphacks/tk-b-2510/internal/config"
	"github.com/jphacks/tk-b-2510/internal/observability"
)

// Local summary strings used when the remote analyzer is unreachable
const (
	summaryEmptyPlaceholder = "この日の記録はまだありません。"
	summarySinglePrefix     = "今日のひとこと: "
	summaryJoinSeparator    = "／"
)

// FallbackComment is saved on a post when AI analysis fails
const FallbackComment = "今日の一枚を記録しました。素敵な一日でした。"

// AnalysisResult is what the remote analyzer returns for one image
type AnalysisResult struct {
	Emotion string `json:"emotion"`
	Comment string `json:"comment"`
}

// AnalysisService talks to the external emotion analysis API. All remote
// failures degrade to local fallbacks so posting never depends on the
// analyzer being up.
type AnalysisService struct {
	endpoint        string
	summaryEndpoint string
	apiKey          string
	credentials     []byte
	httpClient      *http.Client
	metrics         *observability.BusinessMetrics

	token       string
	tokenExpiry time.Time
	tokenMu     sync.Mutex
}

// NewAnalysisService creates a new AnalysisService from config
func NewAnalysisService(cfg config.Analyzer) *AnalysisService {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	svc := &AnalysisService{
		endpoint:        cfg.Endpoint,
		summaryEndpoint: cfg.SummaryEndpoint,
		apiKey:          cfg.APIKey,
		httpClient:      &http.Client{Timeout: timeout},
	}

	if cfg.CredentialsPath != "" {
		credData, err := os.ReadFile(cfg.CredentialsPath)
		if err != nil {
			observability.Warnf("Analyzer credentials not readable, falling back to API key auth: %v", err)
		} else {
			svc.credentials = credData
		}
	}

	return svc
}

// SetMetrics sets the business metrics recorder
func (s *AnalysisService) SetMetrics(metrics *observability.BusinessMetrics) {
	s.metrics = metrics
}

// Enabled reports whether a remote analyzer endpoint is configured
func (s *AnalysisService) Enabled() bool {
	return s.endpoint != ""
}

// getAccessToken returns a valid OAuth2 access token, refreshing if needed
func (s *AnalysisService) getAccessToken(ctx context.Context) (string, error) {
	s.tokenMu.Lock()
	defer s.tokenMu.Unlock()

	// Cached token with 5 min buffer
	if s.token != "" && time.Now().Add(5*time.Minute).Before(s.tokenExpiry) {
		return s.token, nil
	}

	scopes := []string{"https://www.googleapis.com/auth/cloud-platform"}

	creds, err := google.FindDefaultCredentials(ctx, scopes...)
	if err != nil {
		if len(s.credentials) == 0 {
			return "", fmt.Errorf("failed to find credentials: %w", err)
		}
		creds, err = google.CredentialsFromJSON(ctx, s.credentials, scopes...)
		if err != nil {
			return "", fmt.Errorf("failed to create credentials: %w", err)
		}
	}

	token, err := creds.TokenSource.Token()
	if err != nil {
		return "", fmt.Errorf("failed to get token: %w", err)
	}

	s.token = token.AccessToken
	s.tokenExpiry = token.Expiry

	return s.token, nil
}

func (s *AnalysisService) authorize(ctx context.Context, req *http.Request) {
	if len(s.credentials) > 0 {
		if token, err := s.getAccessToken(ctx); err == nil {
			req.Header.Set("Authorization", "Bearer "+token)
			return
		} else {
			observability.Warnf("Analyzer token fetch failed: %v", err)
		}
	}
	if s.apiKey != "" {
		req.Header.Set("X-API-Key", s.apiKey)
	}
}

// AnalyzeImage sends the image to the analyzer and returns its emotion
// label and diary comment
func (s *AnalysisService) AnalyzeImage(ctx context.Context, imageData []byte, filename, caption string) (*AnalysisResult, error) {
	ctx, span := observability.StartServiceSpan(ctx, "analysis", "analyze_image")
	defer span.End()

	if !s.Enabled() {
		err := fmt.Errorf("analyzer endpoint not configured")
		observability.RecordError(span, err)
		return nil, err
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("image", filename)
	if err != nil {
		observability.RecordError(span, err)
		return nil, err
	}
	if _, err := part.Write(imageData); err != nil {
		observability.RecordError(span, err)
		return nil, err
	}
	if caption != "" {
		if err := writer.WriteField("caption", caption); err != nil {
			observability.RecordError(span, err)
			return nil, err
		}
	}
	if err := writer.Close(); err != nil {
		observability.RecordError(span, err)
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", s.endpoint, &body)
	if err != nil {
		observability.RecordError(span, err)
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	s.authorize(ctx, req)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		observability.RecordError(span, err)
		return nil, fmt.Errorf("analyzer request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		err := fmt.Errorf("analyzer returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
		observability.RecordError(span, err)
		return nil, err
	}

	var result AnalysisResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		observability.RecordError(span, err)
		return nil, fmt.Errorf("failed to decode analyzer response: %w", err)
	}

	observability.SetSuccess(span)
	return &result, nil
}

// Summarize produces a one-line summary for a day's comments. The remote
// summarizer is tried first; any failure falls back to LocalSummary.
func (s *AnalysisService) Summarize(ctx context.Context, date string, comments []string) (summary string, remote bool) {
	ctx, span := observability.StartServiceSpan(ctx, "analysis", "summarize")
	defer span.End()

	if s.summaryEndpoint != "" {
		remoteSummary, err := s.remoteSummarize(ctx, date, comments)
		if err == nil && remoteSummary != "" {
			observability.SetSuccess(span)
			if s.metrics != nil {
				s.metrics.RecordSummaryRequest(ctx, "remote")
			}
			return remoteSummary, true
		}
		if err != nil {
			observability.WithContext(ctx).Warnf("Remote summary failed, using local fallback: %v", err)
		}
	}

	observability.SetSuccess(span)
	if s.metrics != nil {
		s.metrics.RecordSummaryRequest(ctx, "local")
	}
	return LocalSummary(comments), false
}

func (s *AnalysisService) remoteSummarize(ctx context.Context, date string, comments []string) (string, error) {
	payload, err := json.Marshal(map[string]interface{}{
		"date":     date,
		"comments": comments,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", s.summaryEndpoint, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	s.authorize(ctx, req)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("summarizer returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	var result struct {
		Summary string `json:"summary"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", err
	}

	return strings.TrimSpace(result.Summary), nil
}

// LocalSummary builds a summary without the remote service: a fixed line
// for empty days, the single comment with a prefix, or the first two
// comments joined with a count of the rest
func LocalSummary(comments []string) string {
	switch len(comments) {
	case 0:
		return summaryEmptyPlaceholder
	case 1:
		return summarySinglePrefix + comments[0]
	case 2:
		return comments[0] + summaryJoinSeparator + comments[1]
	default:
		return fmt.Sprintf("%s%s%s ほか%d件",
			comments[0], summaryJoinSeparator, comments[1], len(comments)-2)
	}
}
