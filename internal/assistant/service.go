package assistant

import (
	"context"

	"github.com/spigell/career-pilot/internal/logger"
	"github.com/spigell/career-pilot/internal/session"

	"go.uber.org/zap"
)

// Service binds the assistant to stored sessions. Every action runs as one
// serialized turn of its session.
type Service struct {
	assistant *Assistant
	sessions  *session.Manager
	logger    *zap.Logger
}

func NewService(assistant *Assistant, sessions *session.Manager, log *zap.Logger) *Service {
	return &Service{
		assistant: assistant,
		sessions:  sessions,
		logger:    logger.WithFields(log),
	}
}

func (s *Service) Sessions() *session.Manager {
	return s.sessions
}

// Submit dispatches a resume and query within session id.
func (s *Service) Submit(ctx context.Context, id string, resume []byte, query string) (Result, error) {
	var result Result
	err := s.sessions.Turn(ctx, id, func(sc *session.Context) error {
		var err error
		result, err = s.assistant.Dispatch(ctx, sc, resume, query)
		return err
	})

	s.log(id, "submit", err)
	return result, err
}

// FollowUp answers a question within session id.
func (s *Service) FollowUp(ctx context.Context, id, query string) (string, error) {
	var answer string
	err := s.sessions.Turn(ctx, id, func(sc *session.Context) error {
		var err error
		answer, err = s.assistant.FollowUp(ctx, sc, query)
		return err
	})

	s.log(id, "follow-up", err)
	return answer, err
}

// Export renders the document of session id.
func (s *Service) Export(ctx context.Context, id string) ([]byte, error) {
	var data []byte
	err := s.sessions.Turn(ctx, id, func(sc *session.Context) error {
		var err error
		data, err = s.assistant.ExportDocument(ctx, *sc)
		return err
	})

	s.log(id, "export", err)
	return data, err
}

// ExportFile writes the document of session id to a file and returns its path.
func (s *Service) ExportFile(ctx context.Context, id string) (string, error) {
	var path string
	err := s.sessions.Turn(ctx, id, func(sc *session.Context) error {
		var err error
		path, err = s.assistant.ExportFile(ctx, *sc)
		return err
	})

	s.log(id, "export", err)
	return path, err
}

func (s *Service) log(id, action string, err error) {
	log := logger.WithSession(s.logger, id).With(zap.String("action", action))
	if err != nil {
		log.Debug("turn finished with failure", zap.Error(err))
		return
	}
	log.Debug("turn finished")
}
