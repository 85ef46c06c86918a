// internal/api/handlers.go
package api

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Corphon/VeoPromptStudio/internal/auth"
	apperrors "github.com/Corphon/VeoPromptStudio/internal/errors"
	"github.com/Corphon/VeoPromptStudio/internal/llm"
	"github.com/Corphon/VeoPromptStudio/internal/models"
	"github.com/Corphon/VeoPromptStudio/internal/segment"
	"github.com/Corphon/VeoPromptStudio/internal/services"
)

// DownloadFilename name of every prompt download
const DownloadFilename = "veo_prompts.txt"

// Handler serves the JSON API
type Handler struct {
	LLMService       *services.LLMService
	GeneratorService *services.GeneratorService
	ScriptService    *services.ScriptService
	HistoryService   *services.HistoryService
	JobService       *services.JobService
	AccessService    *services.AccessService
	Tokens           *auth.TokenManager
	StatsService     *services.StatsService
	ConfigService    *services.ConfigService
	WebSocketHandler *WebSocketHandler
	Response         *ResponseHelper

	startedAt time.Time
}

// GenerateVeoRequest body of /api/veo/generate and /api/veo/jobs
type GenerateVeoRequest struct {
	Idea     string          `json:"idea"`
	Duration models.Duration `json:"duration"`
	Style    models.Style    `json:"style"`
	Language models.Language `json:"language"`
	Voice    models.Voice    `json:"voice"`
}

func (r GenerateVeoRequest) toModel() models.GenerationRequest {
	return models.NewGenerationRequest(r.Idea, r.Duration, r.Style, r.Language, r.Voice)
}

// ScriptRequest JSON body of /api/script/generate
type ScriptRequest struct {
	Idea        string `json:"idea"`
	ImageBase64 string `json:"image_base64"`
	ImageMIME   string `json:"image_mime"`
}

// TextRequest body of the segment and download endpoints
type TextRequest struct {
	Text string `json:"text"`
}

// UnlockRequest body of /api/auth/unlock
type UnlockRequest struct {
	Key string `json:"key"`
}

// Health GET /health
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"llm_ready": h.LLMService.IsReady(),
		"uptime":    time.Since(h.startedAt).Round(time.Second).String(),
	})
}

// GetOptions GET /api/options
func (h *Handler) GetOptions(c *gin.Context) {
	h.Response.Success(c, models.Options())
}

// ----------------------------------------
// access gate
// ----------------------------------------

// Unlock POST /api/auth/unlock
func (h *Handler) Unlock(c *gin.Context) {
	var req UnlockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Response.BadRequest(c, "invalid request body", err.Error())
		return
	}

	ok, err := h.AccessService.Verify(c.Request.Context(), req.Key)
	if err != nil {
		h.Response.Error(c, http.StatusBadGateway, ErrorAuthFailed, apperrors.MsgAuthFailed)
		return
	}
	if !ok {
		h.Response.Error(c, http.StatusUnauthorized, ErrorInvalidAccessKey, apperrors.MsgInvalidKey)
		return
	}

	signed, token, err := h.Tokens.Issue()
	if err != nil {
		h.Response.InternalError(c, "failed to create session", err.Error())
		return
	}
	h.Response.Success(c, gin.H{
		"token":      signed,
		"expires_at": token.ExpiresAt,
	})
}

// Logout POST /api/auth/logout
func (h *Handler) Logout(c *gin.Context) {
	if token := bearerToken(c); token != "" {
		h.Tokens.Revoke(token)
	}
	h.Response.Success(c, nil, "logged out")
}

// ----------------------------------------
// Veo generation
// ----------------------------------------

// GenerateVeo POST /api/veo/generate
func (h *Handler) GenerateVeo(c *gin.Context) {
	var req GenerateVeoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Response.BadRequest(c, "invalid request body", err.Error())
		return
	}

	result, err := h.GeneratorService.GenerateVeo(c.Request.Context(), req.toModel())
	if err != nil {
		h.Response.AppError(c, err)
		return
	}
	h.Response.Success(c, result)
}

// StartVeoJob POST /api/veo/jobs
func (h *Handler) StartVeoJob(c *gin.Context) {
	var req GenerateVeoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Response.BadRequest(c, "invalid request body", err.Error())
		return
	}

	job, err := h.JobService.Start(c.Request.Context(), req.toModel())
	if err != nil {
		h.Response.AppError(c, err)
		return
	}
	h.Response.Accepted(c, gin.H{
		"job_id":       job.ID,
		"status":       job.Status,
		"progress_url": "/api/jobs/" + job.ID + "/progress",
		"ws_url":       "/ws/jobs/" + job.ID,
	})
}

// GetJob GET /api/jobs/:id
func (h *Handler) GetJob(c *gin.Context) {
	job, err := h.JobService.Get(c.Param("id"))
	if err != nil {
		h.Response.notFoundOr(c, err, ErrorJobNotFound)
		return
	}

	data := gin.H{"job": job}
	if tracker, err := h.JobService.Tracker(job.ID); err == nil {
		data["progress"] = tracker.Snapshot()
	}
	h.Response.Success(c, data)
}

// SubscribeJobProgress GET /api/jobs/:id/progress (server-sent events)
func (h *Handler) SubscribeJobProgress(c *gin.Context) {
	jobID := c.Param("id")
	tracker, err := h.JobService.Tracker(jobID)
	if err != nil {
		h.Response.notFoundOr(c, err, ErrorJobNotFound)
		return
	}

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")

	updates := tracker.Subscribe()
	defer tracker.Unsubscribe(updates)

	heartbeat := time.NewTicker(15 * time.Second)
	defer heartbeat.Stop()

	clientGone := c.Request.Context().Done()

	c.SSEvent("connected", gin.H{"job_id": jobID})
	c.Writer.Flush()

	for {
		select {
		case <-clientGone:
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			c.SSEvent("progress", update)
			if update.Finished() {
				if job, err := h.JobService.Get(jobID); err == nil {
					c.SSEvent("job", job)
				}
				c.Writer.Flush()
				return
			}
			c.Writer.Flush()
		case <-heartbeat.C:
			c.SSEvent("heartbeat", gin.H{"time": time.Now().Unix()})
			c.Writer.Flush()
		}
	}
}

// SegmentText POST /api/veo/segment splits a saved reply without calling the model
func (h *Handler) SegmentText(c *gin.Context) {
	var req TextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Response.BadRequest(c, "invalid request body", err.Error())
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		h.Response.Error(c, http.StatusBadRequest, ErrorInputMissing, "text is required")
		return
	}

	h.Response.Success(c, segment.Segment(segment.StripEmphasis(req.Text)))
}

// DownloadText POST /api/veo/download
func (h *Handler) DownloadText(c *gin.Context) {
	var req TextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Response.BadRequest(c, "invalid request body", err.Error())
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		h.Response.Error(c, http.StatusBadRequest, ErrorInputMissing, "text is required")
		return
	}
	h.Response.DownloadResponse(c, req.Text, DownloadFilename, "text/plain; charset=utf-8")
}

// ----------------------------------------
// script generation
// ----------------------------------------

// GenerateScript POST /api/script/generate, JSON or multipart/form-data
func (h *Handler) GenerateScript(c *gin.Context) {
	idea, image, err := readScriptInput(c)
	if err != nil {
		h.Response.AppError(c, err, ErrorImageInvalid)
		return
	}

	result, err := h.ScriptService.Generate(c.Request.Context(), idea, image)
	if err != nil {
		h.Response.AppError(c, err)
		return
	}
	h.Response.Success(c, result)
}

// readScriptInput accepts {idea, image_base64, image_mime} or the form fields idea and image
func readScriptInput(c *gin.Context) (string, *llm.InlineImage, error) {
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		idea := c.PostForm("idea")
		header, err := c.FormFile("image")
		if err == http.ErrMissingFile {
			return idea, nil, nil
		}
		if err != nil {
			return "", nil, apperrors.NewValidationError(apperrors.MsgUnsupportedImage, err)
		}
		if header.Size > services.MaxImageBytes {
			return "", nil, apperrors.NewValidationError(apperrors.MsgUnsupportedImage,
				fmt.Errorf("image too large: %d bytes", header.Size))
		}

		f, err := header.Open()
		if err != nil {
			return "", nil, apperrors.NewValidationError(apperrors.MsgUnsupportedImage, err)
		}
		defer f.Close()
		data, err := io.ReadAll(io.LimitReader(f, services.MaxImageBytes+1))
		if err != nil {
			return "", nil, apperrors.NewValidationError(apperrors.MsgUnsupportedImage, err)
		}

		mime := header.Header.Get("Content-Type")
		if mime == "" || mime == "application/octet-stream" {
			mime = http.DetectContentType(data)
		}
		return idea, &llm.InlineImage{MIMEType: mime, Data: data}, nil
	}

	var req ScriptRequest
	if err := json.NewDecoder(c.Request.Body).Decode(&req); err != nil && err != io.EOF {
		return "", nil, apperrors.NewValidationError("invalid request body", err)
	}
	if req.ImageBase64 == "" {
		return req.Idea, nil, nil
	}

	encoded := req.ImageBase64
	mime := req.ImageMIME
	// data URLs from FileReader.readAsDataURL
	if rest, ok := strings.CutPrefix(encoded, "data:"); ok {
		if meta, payload, found := strings.Cut(rest, ","); found {
			if mime == "" {
				mime = strings.TrimSuffix(meta, ";base64")
			}
			encoded = payload
		}
	}
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", nil, apperrors.NewValidationError(apperrors.MsgUnsupportedImage, err)
	}
	return req.Idea, &llm.InlineImage{MIMEType: mime, Data: data}, nil
}
