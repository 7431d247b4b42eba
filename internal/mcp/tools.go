package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus"

	"github.com/preeclampsia-risk-mcp/internal/domain"
	"github.com/preeclampsia-risk-mcp/internal/history"
	"github.com/preeclampsia-risk-mcp/internal/service"
)

// Tool names
const (
	ToolAssess            = "assess_preeclampsia_risk"
	ToolRecommendation    = "get_recommendation"
	ToolDefaults          = "get_default_observation"
	ToolModelInfo         = "get_model_info"
	ToolListAssessments   = "list_assessments"
	ToolGetAssessment     = "get_assessment"
	ToolExportAssessments = "export_assessments"
	ToolStatus            = "get_server_status"
)

// RecommendationParams defines parameters for get_recommendation.
type RecommendationParams struct {
	Category string `json:"category" jsonschema:"diagnosis category: normal, mild or severe"`
	Language string `json:"language,omitempty" jsonschema:"guidance language: en or id"`
}

// ListAssessmentsParams defines parameters for list_assessments.
type ListAssessmentsParams struct {
	Limit  int `json:"limit,omitempty" jsonschema:"maximum records to return (default 50, max 500)"`
	Offset int `json:"offset,omitempty" jsonschema:"records to skip"`
}

// ListAssessmentsResult is one page of history plus per-category totals.
type ListAssessmentsResult struct {
	Assessments []*history.Record                  `json:"assessments"`
	Total       int64                              `json:"total"`
	ByCategory  map[domain.DiagnosisCategory]int64 `json:"by_category"`
}

// GetAssessmentParams defines parameters for get_assessment.
type GetAssessmentParams struct {
	ID string `json:"id" jsonschema:"assessment id returned by assess_preeclampsia_risk"`
}

// ExportResult reports where the export was written.
type ExportResult struct {
	Path  string `json:"path"`
	Count int64  `json:"count"`
}

type noParams struct{}

func (s *LiteServer) registerTools() {
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name: ToolAssess,
		Description: "Classify a pregnant patient's observation as normal, mild preeclampsia or severe preeclampsia " +
			"and return POGI management guidance. BMI is derived from weight and height.",
	}, s.handleAssess)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        ToolRecommendation,
		Description: "Return the POGI management guidance for a diagnosis category in English or Indonesian.",
	}, s.handleRecommendation)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        ToolDefaults,
		Description: "Return the reference observation with normal values, a starting point for an assessment.",
	}, s.handleDefaults)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        ToolModelInfo,
		Description: "Describe the loaded classifier and the ordered feature contract it expects.",
	}, s.handleModelInfo)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        ToolListAssessments,
		Description: "List recorded assessments, newest first, with totals per category.",
	}, s.handleListAssessments)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        ToolGetAssessment,
		Description: "Fetch one recorded assessment by id.",
	}, s.handleGetAssessment)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        ToolExportAssessments,
		Description: "Write the assessment history to a JSON file in the data directory.",
	}, s.handleExport)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        ToolStatus,
		Description: "Report model and history health.",
	}, s.handleStatus)

	s.logger.WithField("tool_count", 8).Info("Registered MCP tools")
}

func (s *LiteServer) handleAssess(ctx context.Context, _ *mcp.CallToolRequest, params service.AssessmentRequest) (*mcp.CallToolResult, any, error) {
	s.logger.WithField("tool", ToolAssess).Debug("Tool invoked")

	result, err := s.assessments.Assess(ctx, &params)
	if err != nil {
		var verrs domain.ValidationErrors
		if errors.As(err, &verrs) {
			return errorResult("Observation failed validation", verrs), nil, nil
		}
		return errorResult("Assessment failed", err), nil, nil
	}

	summary := fmt.Sprintf("%s (BMI %.2f). %s", result.CategoryLabel, result.BMI, result.Recommendation.Title)
	return jsonResult(s.logger, summary, result), nil, nil
}

func (s *LiteServer) handleRecommendation(_ context.Context, _ *mcp.CallToolRequest, params RecommendationParams) (*mcp.CallToolResult, any, error) {
	rec, err := s.assessments.Recommend(params.Category, params.Language)
	if err != nil {
		return errorResult("Unknown diagnosis category", err), nil, nil
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: rec.Text}},
	}, nil, nil
}

func (s *LiteServer) handleDefaults(_ context.Context, _ *mcp.CallToolRequest, _ noParams) (*mcp.CallToolResult, any, error) {
	return jsonResult(s.logger, "Reference observation with normal values", s.assessments.Defaults()), nil, nil
}

func (s *LiteServer) handleModelInfo(_ context.Context, _ *mcp.CallToolRequest, _ noParams) (*mcp.CallToolResult, any, error) {
	info := s.assessments.ModelInfo()
	summary := fmt.Sprintf("%s %s (%s, %s backend), features: %s",
		info.Name, info.Version, info.Algorithm, info.Backend, strings.Join(info.FeatureNames, ", "))
	return jsonResult(s.logger, summary, info), nil, nil
}

func (s *LiteServer) handleListAssessments(ctx context.Context, _ *mcp.CallToolRequest, params ListAssessmentsParams) (*mcp.CallToolResult, any, error) {
	records, err := s.history.List(ctx, params.Limit, params.Offset)
	if err != nil {
		return errorResult("Failed to list assessments", err), nil, nil
	}
	total, err := s.history.Count(ctx)
	if err != nil {
		return errorResult("Failed to count assessments", err), nil, nil
	}
	byCategory, err := s.history.CountByCategory(ctx)
	if err != nil {
		return errorResult("Failed to count assessments", err), nil, nil
	}

	out := ListAssessmentsResult{Assessments: records, Total: total, ByCategory: byCategory}
	return jsonResult(s.logger, fmt.Sprintf("%d of %d assessments", len(records), total), out), nil, nil
}

func (s *LiteServer) handleGetAssessment(ctx context.Context, _ *mcp.CallToolRequest, params GetAssessmentParams) (*mcp.CallToolResult, any, error) {
	if params.ID == "" {
		return errorResult("Missing required parameter", errors.New("id is required")), nil, nil
	}
	record, err := s.history.Get(ctx, params.ID)
	if err != nil {
		return errorResult("Assessment not found", err), nil, nil
	}
	return jsonResult(s.logger, fmt.Sprintf("Assessment %s: %s", record.ID, record.Category), record), nil, nil
}

func (s *LiteServer) handleExport(ctx context.Context, _ *mcp.CallToolRequest, _ noParams) (*mcp.CallToolResult, any, error) {
	if err := os.MkdirAll(s.config.ExportDir(), 0755); err != nil {
		return errorResult("Failed to create export directory", err), nil, nil
	}

	filename := fmt.Sprintf("assessments_export_%s.json", time.Now().Format("20060102_150405"))
	path := filepath.Join(s.config.ExportDir(), filename)

	if err := writeExport(ctx, s.history, path); err != nil {
		return errorResult("Failed to export assessments", err), nil, nil
	}

	count, _ := s.history.Count(ctx)
	s.logger.WithFields(logrus.Fields{"path": path, "count": count}).Info("Exported assessments")
	return jsonResult(s.logger, fmt.Sprintf("Exported %d assessments to %s", count, path), ExportResult{Path: path, Count: count}), nil, nil
}

// writeExport writes the history export to path. A failed export leaves no
// file behind.
func writeExport(ctx context.Context, store history.Store, path string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating export file: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); err == nil && closeErr != nil {
			err = fmt.Errorf("closing export file: %w", closeErr)
		}
		if err != nil {
			_ = os.Remove(path)
		}
	}()

	return store.ExportJSON(ctx, f)
}

func (s *LiteServer) handleStatus(ctx context.Context, _ *mcp.CallToolRequest, _ noParams) (*mcp.CallToolResult, any, error) {
	status := s.checker.Run(ctx)
	return jsonResult(s.logger, fmt.Sprintf("Server is %s", status.Overall), status), nil, nil
}

// jsonResult returns a one-line summary followed by the full JSON payload.
func jsonResult(logger *logrus.Logger, summary string, v any) *mcp.CallToolResult {
	content := []mcp.Content{&mcp.TextContent{Text: summary}}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		logger.WithError(err).Warn("Failed to encode tool result")
	} else {
		content = append(content, &mcp.TextContent{Text: string(data)})
	}
	return &mcp.CallToolResult{Content: content}
}

func errorResult(message string, err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: fmt.Sprintf("%s: %v", message, err)}},
	}
}
