// internal/api/router_test.go
package api

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Corphon/VeoPromptStudio/internal/auth"
	apperrors "github.com/Corphon/VeoPromptStudio/internal/errors"
	"github.com/Corphon/VeoPromptStudio/internal/llm"
	"github.com/Corphon/VeoPromptStudio/internal/services"
	"github.com/Corphon/VeoPromptStudio/internal/storage"
)

type stubProvider struct {
	reply string
	err   error
	calls atomic.Int32
}

func (p *stubProvider) Initialize(map[string]string) error         { return nil }
func (p *stubProvider) GetName() string                            { return "stub" }
func (p *stubProvider) GetSupportedModels() []string               { return []string{"stub-model"} }
func (p *stubProvider) FetchAvailableModels(context.Context) error { return nil }

func (p *stubProvider) CompleteText(_ context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	p.calls.Add(1)
	if p.err != nil {
		return nil, p.err
	}
	return &llm.CompletionResponse{Text: p.reply, ModelName: req.Model, ProviderName: "stub"}, nil
}

type testServer struct {
	router   *gin.Engine
	provider *stubProvider
	history  *services.HistoryService
}

func newTestServer(t *testing.T, provider *stubProvider, gate bool) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	fs, err := storage.NewFileStorage(t.TempDir())
	require.NoError(t, err)

	var llmService *services.LLMService
	if provider != nil {
		llmService = services.NewLLMServiceWithProvider(provider, "stub-model")
	} else {
		llmService = services.NewEmptyLLMService()
	}

	history := services.NewHistoryService(fs, nil)
	stats := services.NewStatsService(fs)
	generator := services.NewGeneratorService(llmService, history, 5*time.Second)
	generator.SetUsageRecorder(stats)
	tokens, err := auth.NewTokenManager(auth.TokenConfig{Secret: []byte("test-secret-test-secret-test-sec")})
	require.NoError(t, err)

	router := NewRouter(Dependencies{
		LLM:          llmService,
		Generator:    generator,
		Script:       services.NewScriptService(llmService, history, 5*time.Second),
		History:      history,
		Jobs:         services.NewJobService(generator, services.NewProgressService()),
		Access:       services.NewAccessService("", []string{"letmein"}),
		Tokens:       tokens,
		Stats:        stats,
		GateEnabled:  gate,
		RateLimitRPM: 1000,
		DebugMode:    true,
	})
	return &testServer{router: router, provider: provider, history: history}
}

func (s *testServer) do(method, path string, body interface{}, headers ...string) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *APIError       `json:"error"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return env
}

func TestHealthAndOptions(t *testing.T) {
	s := newTestServer(t, &stubProvider{}, false)

	w := s.do(http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(requestIDHeader))

	w = s.do(http.MethodGet, "/api/options", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var options struct {
		Styles     []json.RawMessage `json:"styles"`
		StylesList string            `json:"styles_list"`
	}
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &options))
	assert.Len(t, options.Styles, 32)
	assert.Contains(t, options.StylesList, "drone_footage")
}

func TestGenerateVeoEndpoint(t *testing.T) {
	provider := &stubProvider{reply: "C.\nScene 1: A.\nScene 2: B."}
	s := newTestServer(t, provider, false)

	w := s.do(http.MethodPost, "/api/veo/generate", GenerateVeoRequest{Idea: "a fox", Style: "noir"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var result struct {
		Seamless  string   `json:"seamless"`
		Scenes    []string `json:"scenes"`
		HistoryID string   `json:"history_id"`
	}
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &result))
	assert.Equal(t, "C. Scene 1: A.\n\nC. Scene 2: B.", result.Seamless)
	assert.Len(t, result.Scenes, 2)

	w = s.do(http.MethodGet, "/api/history/"+result.HistoryID+"/download", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), DownloadFilename)
	assert.Equal(t, result.Seamless, w.Body.String())
}

func TestStatsEndpoint(t *testing.T) {
	s := newTestServer(t, &stubProvider{reply: "Scene 1: A."}, false)

	w := s.do(http.MethodPost, "/api/veo/generate", GenerateVeoRequest{Idea: "a fox"})
	require.Equal(t, http.StatusOK, w.Code)

	var stats services.UsageStats
	w = s.do(http.MethodGet, "/api/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &stats))
	assert.Equal(t, 1, stats.TodayGenerations)
	assert.Equal(t, 1, stats.ByType["veo"])

	w = s.do(http.MethodDelete, "/api/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &stats))
	assert.Zero(t, stats.TodayGenerations)
}

func TestGenerateVeoBlankIdea(t *testing.T) {
	provider := &stubProvider{reply: "x"}
	s := newTestServer(t, provider, false)

	w := s.do(http.MethodPost, "/api/veo/generate", GenerateVeoRequest{Idea: "   "})
	require.Equal(t, http.StatusBadRequest, w.Code)
	env := decode(t, w)
	assert.Equal(t, ErrorInputMissing, env.Error.Code)
	assert.Equal(t, apperrors.MsgVeoInputMissing, env.Error.Message)
	assert.EqualValues(t, 0, provider.calls.Load())
}

func TestGenerateVeoProviderFailure(t *testing.T) {
	s := newTestServer(t, &stubProvider{err: errors.New("model overloaded")}, false)

	w := s.do(http.MethodPost, "/api/veo/generate", GenerateVeoRequest{Idea: "idea"})
	require.Equal(t, http.StatusBadGateway, w.Code)
	env := decode(t, w)
	assert.Equal(t, ErrorExternalCallFailed, env.Error.Code)
	assert.Equal(t, "Đã xảy ra lỗi khi tạo prompt: model overloaded", env.Error.Message)
}

func TestGenerateVeoNotConfigured(t *testing.T) {
	s := newTestServer(t, nil, false)

	w := s.do(http.MethodPost, "/api/veo/generate", GenerateVeoRequest{Idea: "idea"})
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, ErrorLLMServiceUnavailable, decode(t, w).Error.Code)
}

func TestSegmentEndpoint(t *testing.T) {
	provider := &stubProvider{}
	s := newTestServer(t, provider, false)

	w := s.do(http.MethodPost, "/api/veo/segment", TextRequest{Text: "**Character:** X.\n\nScene 1: A.\nScene 2: B."})
	require.Equal(t, http.StatusOK, w.Code)

	var seg struct {
		Preamble string `json:"preamble"`
		Seamless string `json:"seamless"`
	}
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &seg))
	assert.Equal(t, "Character: X.", seg.Preamble)
	assert.Equal(t, "Character: X. Scene 1: A.\n\nCharacter: X. Scene 2: B.", seg.Seamless)
	assert.EqualValues(t, 0, provider.calls.Load())
}

const scriptJSON = `{"character":"Lan","setting":"Huế","plot":"Lan về quê","atmosphere":"Bình yên","styleSuggestion":"watercolor"}`

func TestScriptEndpointJSONImage(t *testing.T) {
	s := newTestServer(t, &stubProvider{reply: scriptJSON}, false)

	image := base64.StdEncoding.EncodeToString([]byte("\x89PNG\r\n\x1a\nfake"))
	w := s.do(http.MethodPost, "/api/script/generate", ScriptRequest{
		ImageBase64: "data:image/png;base64," + image,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var result struct {
		Formatted      string `json:"formatted"`
		SuggestedStyle string `json:"suggested_style"`
	}
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &result))
	assert.Contains(t, result.Formatted, "Bối cảnh:\nHuế")
	assert.Equal(t, "watercolor", result.SuggestedStyle)
}

func TestScriptEndpointMultipart(t *testing.T) {
	provider := &stubProvider{reply: scriptJSON}
	s := newTestServer(t, provider, false)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("idea", "một buổi chiều"))
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="image"; filename="a.gif"`)
	header.Set("Content-Type", "image/gif")
	part, err := mw.CreatePart(header)
	require.NoError(t, err)
	_, _ = part.Write([]byte("GIF89a"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/script/generate", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, apperrors.MsgUnsupportedImage, decode(t, w).Error.Message)
	assert.EqualValues(t, 0, provider.calls.Load())
}

func TestScriptEndpointInputMissing(t *testing.T) {
	s := newTestServer(t, &stubProvider{reply: scriptJSON}, false)

	w := s.do(http.MethodPost, "/api/script/generate", ScriptRequest{})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, apperrors.MsgScriptInputMissing, decode(t, w).Error.Message)
}

func TestHistoryEndpoints(t *testing.T) {
	s := newTestServer(t, &stubProvider{}, false)
	ctx := context.Background()

	veo, err := s.history.Add(ctx, "veo", "veo prompt")
	require.NoError(t, err)
	_, err = s.history.Add(ctx, "script", "script text")
	require.NoError(t, err)

	w := s.do(http.MethodGet, "/api/history?type=veo", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &list))
	assert.Equal(t, 1, list.Count)

	w = s.do(http.MethodGet, "/api/history?type=audio", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodDelete, "/api/history/"+veo.ID, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(http.MethodGet, "/api/history/"+veo.ID, nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, ErrorHistoryNotFound, decode(t, w).Error.Code)

	w = s.do(http.MethodDelete, "/api/history", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	items, err := s.history.List(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestDownloadEndpoint(t *testing.T) {
	s := newTestServer(t, &stubProvider{}, false)

	w := s.do(http.MethodPost, "/api/veo/download", TextRequest{Text: "Scene 1: A."})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `attachment; filename="veo_prompts.txt"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "Scene 1: A.", w.Body.String())
}

func TestJobEndpoints(t *testing.T) {
	s := newTestServer(t, &stubProvider{reply: "C.\nScene 1: A."}, false)

	w := s.do(http.MethodPost, "/api/veo/jobs", GenerateVeoRequest{Idea: "idea"})
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
	var started struct {
		JobID string `json:"job_id"`
	}
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &started))
	require.NotEmpty(t, started.JobID)

	require.Eventually(t, func() bool {
		w := s.do(http.MethodGet, "/api/jobs/"+started.JobID, nil)
		var data struct {
			Job struct {
				Status string `json:"status"`
			} `json:"job"`
		}
		var env envelope
		if json.Unmarshal(w.Body.Bytes(), &env) != nil || json.Unmarshal(env.Data, &data) != nil {
			return false
		}
		return data.Job.Status == "completed"
	}, 5*time.Second, 20*time.Millisecond)

	// finished job: the stream replays the final state and closes
	w = s.do(http.MethodGet, "/api/jobs/"+started.JobID+"/progress", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "event:progress")
	assert.Contains(t, w.Body.String(), "event:job")

	w = s.do(http.MethodGet, "/api/jobs/missing", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, ErrorJobNotFound, decode(t, w).Error.Code)
	assert.Equal(t, "job not found: missing", decode(t, w).Error.Message)
}

func TestAccessGate(t *testing.T) {
	s := newTestServer(t, &stubProvider{reply: "Scene 1: A."}, true)

	w := s.do(http.MethodGet, "/api/history", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(http.MethodGet, "/api/history", nil, "Authorization", "Bearer not-a-token")
	require.Equal(t, http.StatusUnauthorized, w.Code)
	body := decode(t, w)
	assert.Equal(t, ErrorUnauthorized, body.Error.Code)
	assert.Contains(t, body.Error.Message, "session is invalid or expired: ")

	// public routes stay reachable
	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/api/options", nil).Code)

	w = s.do(http.MethodPost, "/api/auth/unlock", UnlockRequest{Key: "wrong"})
	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, apperrors.MsgInvalidKey, decode(t, w).Error.Message)

	w = s.do(http.MethodPost, "/api/auth/unlock", UnlockRequest{Key: "letmein"})
	require.Equal(t, http.StatusOK, w.Code)
	var session struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &session))
	bearer := "Bearer " + session.Token

	w = s.do(http.MethodGet, "/api/history", nil, "Authorization", bearer)
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(http.MethodPost, "/api/auth/logout", nil, "Authorization", bearer)
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(http.MethodGet, "/api/history", nil, "Authorization", bearer)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSanitizeErrorMessage(t *testing.T) {
	msg := sanitizeErrorMessage("request failed: key=AIzaSyA1234567890abcdefghijkl rejected")
	assert.NotContains(t, msg, "AIzaSy")
	assert.Contains(t, msg, "[redacted]")

	assert.Equal(t, "Đã xảy ra lỗi khi tạo prompt: quota", sanitizeErrorMessage("Đã xảy ra lỗi khi tạo prompt: quota"))
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(2)
	ok, _ := rl.Allow("1.2.3.4")
	assert.True(t, ok)
	ok, _ = rl.Allow("1.2.3.4")
	assert.True(t, ok)
	ok, retry := rl.Allow("1.2.3.4")
	assert.False(t, ok)
	assert.Greater(t, retry, time.Duration(0))

	ok, _ = rl.Allow("5.6.7.8")
	assert.True(t, ok)
}
