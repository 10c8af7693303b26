package api

import (
	"context"
	"fmt"
	"mime/multipart"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"deepchat/internal/apperr"
	"deepchat/internal/document"
	"deepchat/internal/models"
)

// Assistant is the chat backend behind the HTTP routes.
type Assistant interface {
	Chat(ctx context.Context, sessionID, message string, settings *models.ModelSettings) (string, error)
	ClearSession(ctx context.Context, sessionID string) error
	Upload(ctx context.Context, sessionID string, uploads []document.Upload) ([]models.UploadedFile, error)
}

// Handler wires HTTP routes to the assistant service.
type Handler struct {
	assistant      Assistant
	maxUploadBytes int64
}

// NewHandler constructs a Handler instance.
func NewHandler(assistant Assistant, maxUploadBytes int64) *Handler {
	return &Handler{
		assistant:      assistant,
		maxUploadBytes: maxUploadBytes,
	}
}

// CORS allows every origin, method and header, with credentials.
func CORS() gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowOriginFunc:  func(string) bool { return true },
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"*"},
		AllowCredentials: true,
	})
}

// RegisterRoutes attaches all HTTP routes to the router.
func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.GET("/", h.root)
	router.GET("/health", h.health)
	router.POST("/chat", h.chat)
	router.POST("/clear-session/:session_id", h.clearSession)
	router.POST("/upload", h.upload)
}

func (h *Handler) root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "DeepChat API is running"})
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// fail writes {"detail": ...} with the status matching the error kind.
func fail(c *gin.Context, err error) {
	status := apperr.Status(err)
	_ = c.Error(err)
	if status >= http.StatusInternalServerError {
		zerolog.Ctx(c.Request.Context()).Error().Err(err).Str("kind", apperr.KindOf(err).String()).Msg("request failed")
	}
	c.AbortWithStatusJSON(status, gin.H{"detail": err.Error()})
}

type chatRequest struct {
	Message       string                `json:"message"`
	SessionID     string                `json:"session_id"`
	ModelSettings *models.ModelSettings `json:"model_settings"`
}

func (h *Handler) chat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, apperr.Validationf("invalid request body: %v", err))
		return
	}
	response, err := h.assistant.Chat(c.Request.Context(), req.SessionID, req.Message, req.ModelSettings)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"response": response})
}

func (h *Handler) clearSession(c *gin.Context) {
	if err := h.assistant.ClearSession(c.Request.Context(), c.Param("session_id")); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Session cleared"})
}

type uploadedFileResponse struct {
	Filename string `json:"filename"`
	Content  string `json:"content"`
}

func (h *Handler) upload(c *gin.Context) {
	if err := c.Request.ParseMultipartForm(h.maxUploadBytes); err != nil {
		fail(c, apperr.Validationf("invalid multipart form: %v", err))
		return
	}
	form := c.Request.MultipartForm
	sessionID := c.PostForm("session_id")
	headers := form.File["files"]

	// validate names before opening anything
	names := make([]string, len(headers))
	for i, fh := range headers {
		names[i] = fh.Filename
	}
	if err := document.Validate(names); err != nil {
		fail(c, err)
		return
	}

	opened := make([]multipart.File, 0, len(headers))
	defer func() {
		for _, f := range opened {
			f.Close()
		}
	}()
	uploads := make([]document.Upload, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			fail(c, apperr.Internal(fmt.Errorf("open %s: %w", fh.Filename, err)))
			return
		}
		opened = append(opened, f)
		uploads = append(uploads, document.Upload{Filename: fh.Filename, Body: f})
	}

	files, err := h.assistant.Upload(c.Request.Context(), sessionID, uploads)
	if err != nil {
		fail(c, err)
		return
	}
	out := make([]uploadedFileResponse, 0, len(files))
	for _, f := range files {
		out = append(out, uploadedFileResponse{Filename: f.Filename, Content: f.Content})
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Files uploaded successfully",
		"files":   out,
	})
}
