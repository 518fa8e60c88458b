package ui

import (
	stderrors "errors"
	"io"
	"mime/multipart"
	"net/http"

	"datalens/domain/core"
	"datalens/internal/dataset"
	"datalens/internal/errors"
	"datalens/internal/visualization"

	"github.com/gin-gonic/gin"
)

// StatusClientClosedRequest is the nginx convention for a canceled request
const StatusClientClosedRequest = 499

// uploadFields are the multipart fields that carry files
var uploadFields = []string{"files", "file"}

// handleHealth reports liveness along with session and stream counts
func (s *Server) handleHealth(c *gin.Context) {
	body := gin.H{"status": "ok", "sessions": len(s.datasets.Sessions())}
	if s.hub != nil {
		streaming := s.hub.GetActiveSessions()
		clients := 0
		for _, id := range streaming {
			clients += s.hub.GetClientCount(id)
		}
		body["streamingSessions"] = len(streaming)
		body["streams"] = clients
	}
	c.JSON(http.StatusOK, body)
}

func (s *Server) handlePalettes(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"palettes": visualization.Palettes()})
}

func (s *Server) handleCreateSession(c *gin.Context) {
	c.JSON(http.StatusCreated, gin.H{"id": s.datasets.CreateSession()})
}

func (s *Server) handleListSessions(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"sessions": s.datasets.Sessions()})
}

func (s *Server) handleDeleteSession(c *gin.Context) {
	sessionID, ok := s.sessionID(c)
	if !ok {
		return
	}
	if err := s.datasets.DeleteSession(c.Request.Context(), sessionID); err != nil {
		s.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// handleUpload ingests every file of the multipart form. The response is 200
// when at least one file was accepted; when all fail it carries the status
// of the first failure.
func (s *Server) handleUpload(c *gin.Context) {
	sessionID, ok := s.sessionID(c)
	if !ok {
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.options.MaxUploadBytes)
	form, err := c.MultipartForm()
	if err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{
				"error": "Upload exceeds the size limit",
				"code":  errors.CodeInvalidInput,
			})
			return
		}
		s.respondError(c, errors.InvalidInput("No file uploaded"))
		return
	}

	var uploads []dataset.Upload
	for _, field := range uploadFields {
		for _, fh := range form.File[field] {
			data, err := readUpload(fh)
			if err != nil {
				s.respondError(c, errors.Wrapf(err, "failed to read %s", fh.Filename))
				return
			}
			uploads = append(uploads, dataset.Upload{Name: fh.Filename, Data: data})
		}
	}
	if len(uploads) == 0 {
		s.respondError(c, errors.InvalidInput("No file uploaded"))
		return
	}

	outcomes := s.datasets.Upload(c.Request.Context(), sessionID, uploads)

	status := http.StatusOK
	var firstErr error
	accepted := 0
	for _, o := range outcomes {
		if o.Err == nil {
			accepted++
		} else if firstErr == nil {
			firstErr = o.Err
		}
	}
	if accepted == 0 && firstErr != nil {
		status = statusFor(firstErr)
	}
	c.JSON(status, gin.H{"sessionId": sessionID, "results": outcomes})
}

func (s *Server) handleListDatasets(c *gin.Context) {
	sessionID, ok := s.sessionID(c)
	if !ok {
		return
	}
	datasets, err := s.datasets.Datasets(sessionID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"datasets": datasets})
}

func (s *Server) handleAnalyze(c *gin.Context) {
	sessionID, ok := s.sessionID(c)
	if !ok {
		return
	}
	datasetID, err := core.ParseDatasetID(c.Param("datasetId"))
	if err != nil {
		s.respondError(c, errors.InvalidInput(err.Error()))
		return
	}
	analysis, err := s.datasets.Analyze(sessionID, datasetID, c.Query("palette"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, analysis)
}

func (s *Server) handleRemoveDataset(c *gin.Context) {
	sessionID, ok := s.sessionID(c)
	if !ok {
		return
	}
	datasetID, err := core.ParseDatasetID(c.Param("datasetId"))
	if err != nil {
		s.respondError(c, errors.InvalidInput(err.Error()))
		return
	}
	if err := s.datasets.RemoveDataset(c.Request.Context(), sessionID, datasetID); err != nil {
		s.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleClearSession(c *gin.Context) {
	sessionID, ok := s.sessionID(c)
	if !ok {
		return
	}
	if err := s.datasets.ClearSession(c.Request.Context(), sessionID); err != nil {
		s.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleRelationships(c *gin.Context) {
	sessionID, ok := s.sessionID(c)
	if !ok {
		return
	}
	rels, err := s.datasets.Relationships(sessionID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"relationships": rels})
}

func (s *Server) handleReport(c *gin.Context) {
	sessionID, ok := s.sessionID(c)
	if !ok {
		return
	}
	report, err := s.datasets.Report(sessionID, c.Query("palette"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (s *Server) sessionID(c *gin.Context) (core.SessionID, bool) {
	id, err := core.ParseSessionID(c.Param("id"))
	if err != nil {
		s.respondError(c, errors.InvalidInput(err.Error()))
		return "", false
	}
	return id, true
}

// respondError writes the error envelope. Errors without a code are logged
// and reported as a generic internal error.
func (s *Server) respondError(c *gin.Context, err error) {
	if !errors.IsAppError(err) {
		s.logger.Error("[HTTP] %s %s: unexpected error: %v", c.Request.Method, c.FullPath(), err)
		err = errors.Wrap(err, "internal server error")
	}
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("[HTTP] %s %s: %v", c.Request.Method, c.FullPath(), err)
	}
	c.JSON(status, gin.H{
		"error": errors.UserMessage(err),
		"code":  errors.GetCode(err),
	})
}

// statusFor maps an error code to its HTTP status
func statusFor(err error) int {
	switch errors.GetCode(err) {
	case errors.CodeUnsupportedFormat:
		return http.StatusUnsupportedMediaType
	case errors.CodeParseError, errors.CodeEmptyData:
		return http.StatusUnprocessableEntity
	case errors.CodeNotFound:
		return http.StatusNotFound
	case errors.CodeInvalidInput:
		return http.StatusBadRequest
	case errors.CodeCanceled:
		return StatusClientClosedRequest
	default:
		return http.StatusInternalServerError
	}
}

func readUpload(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}
