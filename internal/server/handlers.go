package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/spigell/career-pilot/internal/failure"
	"github.com/spigell/career-pilot/internal/logger"
	"github.com/spigell/career-pilot/internal/profile"
	"github.com/spigell/career-pilot/internal/session"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type submitResponse struct {
	Result   string             `json:"result"`
	Intent   string             `json:"intent"`
	Fallback bool               `json:"fallback"`
	Profile  *profile.Candidate `json:"profile"`
}

type followUpRequest struct {
	Query string `json:"query"`
}

type errorResponse struct {
	Error   string             `json:"error"`
	Kind    failure.Kind       `json:"kind,omitempty"`
	Profile *profile.Candidate `json:"profile,omitempty"`
}

func (s *Server) handleCreate(c *gin.Context) {
	id, err := s.service.Sessions().Create(c.Request.Context())
	if err != nil {
		s.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"session_id": id})
}

func (s *Server) handleGet(c *gin.Context) {
	sc, err := s.service.Sessions().Snapshot(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, sc)
}

func (s *Server) handleDelete(c *gin.Context) {
	if err := s.service.Sessions().End(c.Request.Context(), c.Param("id")); err != nil {
		s.handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// handleSubmit takes a multipart form with a "resume" file and a "query" field.
func (s *Server) handleSubmit(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxSubmitBody)

	resume, err := readResume(c)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.Is(err, errResumeTooLarge) || errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, errorResponse{Error: errResumeTooLarge.Error()})
			return
		}
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	result, err := s.service.Submit(c.Request.Context(), c.Param("id"), resume, c.PostForm("query"))
	if err != nil {
		s.handleError(c, err, result.Profile)
		return
	}

	c.JSON(http.StatusOK, submitResponse{
		Result:   result.Text,
		Intent:   result.Classification.Intent.String(),
		Fallback: result.Classification.Fallback,
		Profile:  result.Profile,
	})
}

func (s *Server) handleFollowUp(c *gin.Context) {
	var req followUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	answer, err := s.service.FollowUp(c.Request.Context(), c.Param("id"), req.Query)
	if err != nil {
		s.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": answer})
}

func (s *Server) handleExport(c *gin.Context) {
	data, err := s.service.Export(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.handleError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="career-pilot-report.pdf"`)
	c.Data(http.StatusOK, "application/pdf", data)
}

var errResumeTooLarge = fmt.Errorf("resume is larger than %d MB", maxResumeSize>>20)

// readResume returns the uploaded resume, or nil when the form carries none.
func readResume(c *gin.Context) ([]byte, error) {
	header, err := c.FormFile("resume")
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if header.Size > maxResumeSize {
		return nil, errResumeTooLarge
	}

	f, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxResumeSize+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxResumeSize {
		return nil, errResumeTooLarge
	}
	return data, nil
}

// handleError answers with 404 for unknown sessions, 422 for user-facing
// failures and 500 for everything else.
func (s *Server) handleError(c *gin.Context, err error, candidate ...*profile.Candidate) {
	log := logger.WithSession(s.logger, c.Param("id"))

	if errors.Is(err, session.ErrNotFound) {
		c.JSON(http.StatusNotFound, errorResponse{Error: err.Error()})
		return
	}

	if kind := failure.KindOf(err); kind != "" {
		resp := errorResponse{Error: failure.Message(err), Kind: kind}
		if len(candidate) > 0 {
			resp.Profile = candidate[0]
		}
		c.JSON(http.StatusUnprocessableEntity, resp)
		return
	}

	log.Error("request failed", zap.String("route", c.FullPath()), zap.Error(err))
	c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal error"})
}
