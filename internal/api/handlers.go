package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/preeclampsia-risk-mcp/internal/domain"
	"github.com/preeclampsia-risk-mcp/internal/health"
	"github.com/preeclampsia-risk-mcp/internal/history"
	"github.com/preeclampsia-risk-mcp/internal/middleware"
	"github.com/preeclampsia-risk-mcp/internal/model"
	"github.com/preeclampsia-risk-mcp/internal/service"
)

// ListResponse is one page of recorded assessments.
type ListResponse struct {
	Assessments []*history.Record `json:"assessments"`
	Total       int64             `json:"total"`
	Limit       int               `json:"limit"`
	Offset      int               `json:"offset"`
}

// StatsResponse summarises the history per category.
type StatsResponse struct {
	Total      int64                              `json:"total"`
	ByCategory map[domain.DiagnosisCategory]int64 `json:"by_category"`
}

func (s *Server) handleHealth(c *gin.Context) {
	status := s.checker.Run(c.Request.Context())

	code := http.StatusOK
	if status.Overall == health.StateUnhealthy {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, status)
}

func (s *Server) handleModelInfo(c *gin.Context) {
	c.JSON(http.StatusOK, s.assessments.ModelInfo())
}

func (s *Server) handleDefaults(c *gin.Context) {
	c.JSON(http.StatusOK, s.assessments.Defaults())
}

func (s *Server) handleAssess(c *gin.Context) {
	var req service.AssessmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.abort(c, http.StatusBadRequest, domain.ErrCodeInvalidInput, "Malformed assessment request", err.Error())
		return
	}

	result, err := s.assessments.Assess(c.Request.Context(), &req)
	if err != nil {
		var verrs domain.ValidationErrors
		switch {
		case errors.As(err, &verrs):
			s.abort(c, http.StatusBadRequest, domain.ErrCodeValidation, "Observation failed validation", verrs)
		case s.fromRemoteBackend(err):
			s.abort(c, http.StatusBadGateway, domain.ErrCodeModelBackend, "Model backend failed", err.Error())
		default:
			s.abort(c, http.StatusInternalServerError, domain.ErrCodePrediction, "Prediction failed", err.Error())
		}
		return
	}

	c.JSON(http.StatusCreated, result)
}

// fromRemoteBackend reports whether a prediction failure came from a model
// server rather than this process.
func (s *Server) fromRemoteBackend(err error) bool {
	return errors.Is(err, model.ErrBackendUnavailable) || s.assessments.ModelInfo().Backend == model.BackendHTTP
}

func (s *Server) handleListAssessments(c *gin.Context) {
	limit, err := queryInt(c, "limit", history.DefaultListLimit)
	if err != nil {
		s.abort(c, http.StatusBadRequest, domain.ErrCodeInvalidInput, "limit must be an integer", nil)
		return
	}
	offset, err := queryInt(c, "offset", 0)
	if err != nil {
		s.abort(c, http.StatusBadRequest, domain.ErrCodeInvalidInput, "offset must be an integer", nil)
		return
	}
	if limit <= 0 {
		limit = history.DefaultListLimit
	}
	if limit > history.MaxListLimit {
		limit = history.MaxListLimit
	}
	if offset < 0 {
		offset = 0
	}

	ctx := c.Request.Context()
	records, err := s.history.List(ctx, limit, offset)
	if err != nil {
		s.storageError(c, err)
		return
	}
	total, err := s.history.Count(ctx)
	if err != nil {
		s.storageError(c, err)
		return
	}

	c.JSON(http.StatusOK, ListResponse{Assessments: records, Total: total, Limit: limit, Offset: offset})
}

func (s *Server) handleStats(c *gin.Context) {
	ctx := c.Request.Context()
	byCategory, err := s.history.CountByCategory(ctx)
	if err != nil {
		s.storageError(c, err)
		return
	}

	var total int64
	for _, n := range byCategory {
		total += n
	}
	c.JSON(http.StatusOK, StatsResponse{Total: total, ByCategory: byCategory})
}

func (s *Server) handleExport(c *gin.Context) {
	c.Header("Content-Type", "application/json")
	c.Header("Content-Disposition", `attachment; filename="assessments.json"`)
	c.Status(http.StatusOK)
	if err := s.history.ExportJSON(c.Request.Context(), c.Writer); err != nil {
		s.logger.WithError(err).Error("Assessment export failed")
	}
}

func (s *Server) handleGetAssessment(c *gin.Context) {
	record, err := s.history.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.abort(c, http.StatusNotFound, domain.ErrCodeNotFound, "Assessment not found", nil)
			return
		}
		s.storageError(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

func (s *Server) handleRecommendation(c *gin.Context) {
	rec, err := s.assessments.Recommend(c.Param("category"), c.Query("lang"))
	if err != nil {
		s.abort(c, http.StatusBadRequest, domain.ErrCodeInvalidInput, err.Error(), nil)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (s *Server) storageError(c *gin.Context, err error) {
	s.logger.WithError(err).Error("History store failed")
	s.abort(c, http.StatusInternalServerError, domain.ErrCodeDatabaseError, "History store failed", nil)
}

func (s *Server) abort(c *gin.Context, status int, code, message string, details any) {
	c.AbortWithStatusJSON(status, domain.NewAPIError(code, message, details, c.GetString(middleware.CorrelationIDKey)))
}

func queryInt(c *gin.Context, key string, def int) (int, error) {
	v := c.Query(key)
	if v == "" {
		return def, nil
	}
	return strconv.Atoi(v)
}
