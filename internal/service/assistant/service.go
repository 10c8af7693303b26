package assistant

import (
	"context"
	"errors"
	"strings"

	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog"

	"deepchat/internal/apperr"
	"deepchat/internal/document"
	"deepchat/internal/models"
	"deepchat/internal/store"
)

// Generator produces a model response for a message sequence.
type Generator interface {
	Generate(ctx context.Context, messages []*schema.Message, settings models.Resolved) (string, error)
}

// Service handles chat exchanges, session clearing and file uploads.
type Service struct {
	sessions  store.SessionStore
	files     store.FileStore
	extractor *document.Extractor
	model     Generator
	log       zerolog.Logger
}

// NewService builds a new assistant service.
func NewService(sessions store.SessionStore, files store.FileStore, extractor *document.Extractor, model Generator, log zerolog.Logger) *Service {
	return &Service{
		sessions:  sessions,
		files:     files,
		extractor: extractor,
		model:     model,
		log:       log,
	}
}

func requireSessionID(sessionID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return apperr.Validation(errors.New("session_id is required"))
	}
	return nil
}

// Chat runs one exchange. The session is created before the model is called, so a failed
// call leaves an empty session behind; history only grows when the call succeeds.
func (s *Service) Chat(ctx context.Context, sessionID, message string, settings *models.ModelSettings) (string, error) {
	if err := requireSessionID(sessionID); err != nil {
		return "", err
	}
	if message == "" {
		return "", apperr.Validation(errors.New("message is required"))
	}
	resolved := settings.Resolve()
	if err := resolved.Validate(); err != nil {
		return "", apperr.Validation(err)
	}

	history, err := s.sessions.History(ctx, sessionID)
	if err != nil {
		return "", apperr.Internal(err)
	}
	files, err := s.files.Files(ctx, sessionID)
	if err != nil {
		return "", apperr.Internal(err)
	}

	response, err := s.model.Generate(ctx, BuildMessages(history, message, files), resolved)
	if err != nil {
		s.log.Error().Err(err).Str("session_id", sessionID).Msg("chat failed")
		return "", err
	}

	if err := s.sessions.AppendTurns(ctx, sessionID, models.UserTurn(message), models.AssistantTurn(response)); err != nil {
		return "", apperr.Internal(err)
	}
	return response, nil
}

// ClearSession drops the session's history. Uploaded files are kept.
func (s *Service) ClearSession(ctx context.Context, sessionID string) error {
	if err := s.sessions.Clear(ctx, sessionID); err != nil {
		return apperr.Internal(err)
	}
	s.log.Debug().Str("session_id", sessionID).Msg("session cleared")
	return nil
}

// Upload stores every file of the batch, or none if any is rejected.
func (s *Service) Upload(ctx context.Context, sessionID string, uploads []document.Upload) ([]models.UploadedFile, error) {
	if err := requireSessionID(sessionID); err != nil {
		return nil, err
	}
	files, err := s.extractor.ExtractAll(ctx, uploads)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindValidation {
			return nil, err
		}
		return nil, apperr.Internal(err)
	}
	if len(files) > 0 {
		if err := s.files.AddFiles(ctx, sessionID, files...); err != nil {
			return nil, apperr.Internal(err)
		}
	}
	s.log.Info().Str("session_id", sessionID).Int("files", len(files)).Msg("files uploaded")
	return files, nil
}
