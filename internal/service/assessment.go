package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/preeclampsia-risk-mcp/internal/domain"
	"github.com/preeclampsia-risk-mcp/internal/features"
)

// AssessmentRequest is one observation submitted for assessment.
type AssessmentRequest struct {
	Observation domain.FieldSet `json:"observation" jsonschema:"clinical observation of the patient"`
	PatientRef  string          `json:"patient_ref,omitempty" jsonschema:"optional opaque patient reference stored with the result"`
	Language    string          `json:"language,omitempty" jsonschema:"recommendation language: en or id"`
}

// AssessmentService runs the decision pipeline:
// validate, derive features, predict, map the label, recommend.
type AssessmentService struct {
	logger    *logrus.Logger
	predictor domain.Predictor
	mapper    *LabelMapper
	engine    *RecommendationEngine
	recorder  domain.AssessmentRecorder
	publisher domain.EventPublisher
}

// NewAssessmentService wires the pipeline around an already loaded predictor.
// recorder and publisher are optional.
func NewAssessmentService(
	logger *logrus.Logger,
	predictor domain.Predictor,
	engine *RecommendationEngine,
	recorder domain.AssessmentRecorder,
	publisher domain.EventPublisher,
) *AssessmentService {
	if engine == nil {
		engine = NewRecommendationEngine(domain.English)
	}
	return &AssessmentService{
		logger:    logger,
		predictor: predictor,
		mapper:    NewLabelMapperForModel(predictor.Info(), logger),
		engine:    engine,
		recorder:  recorder,
		publisher: publisher,
	}
}

// Assess validates the observation and classifies it. Out-of-range input
// returns domain.ValidationErrors; predictor failures wrap domain.ErrPrediction.
// Persisting and publishing the result are best effort.
func (s *AssessmentService) Assess(ctx context.Context, req *AssessmentRequest) (*domain.AssessmentResult, error) {
	startTime := time.Now()

	fs := req.Observation.Normalize()
	if err := fs.Validate(); err != nil {
		s.logger.WithError(err).Info("Rejected out-of-range observation")
		return nil, err
	}

	vector := features.Assemble(fs)
	raw, err := s.predictor.Predict(ctx, vector.Slice())
	if err != nil {
		if !errors.Is(err, domain.ErrPrediction) {
			err = fmt.Errorf("%w: %w", domain.ErrPrediction, err)
		}
		s.logger.WithError(err).Error("Prediction failed")
		return nil, err
	}

	category := s.mapper.Map(raw)
	lang := s.engine.language
	if req.Language != "" {
		lang = domain.ParseLanguage(req.Language)
	}

	info := s.predictor.Info()
	info.LabelVocabulary = nil

	result := &domain.AssessmentResult{
		ID:             uuid.New().String(),
		PatientRef:     req.PatientRef,
		Category:       category,
		CategoryLabel:  localLabel(category, lang),
		RawLabel:       raw,
		BMI:            vector[features.IndexBMI],
		Features:       vector.Map(),
		Recommendation: s.engine.RecommendIn(category, lang),
		Model:          info,
		AssessedAt:     time.Now().UTC(),
	}
	result.ProcessingTime = time.Since(startTime)

	s.record(ctx, result)
	s.publish(ctx, result)

	fields := logrus.Fields(category.LogFields())
	fields["assessment_id"] = result.ID
	fields["raw_label"] = raw
	fields["model_version"] = info.Version
	fields["processing_time"] = result.ProcessingTime
	s.logger.WithFields(fields).Info("Assessment completed")

	return result, nil
}

func (s *AssessmentService) record(ctx context.Context, result *domain.AssessmentResult) {
	if s.recorder == nil {
		return
	}
	if err := s.recorder.Save(ctx, result); err != nil {
		s.logger.WithError(err).WithField("assessment_id", result.ID).Warn("Failed to record assessment")
	}
}

func (s *AssessmentService) publish(ctx context.Context, result *domain.AssessmentResult) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishAssessment(ctx, result); err != nil {
		s.logger.WithError(err).WithField("assessment_id", result.ID).Warn("Failed to publish assessment event")
	}
}

// Recommend parses a category name and returns its guidance. An empty lang
// uses the engine default.
func (s *AssessmentService) Recommend(category, lang string) (domain.Recommendation, error) {
	c, err := domain.ParseDiagnosisCategory(category)
	if err != nil {
		return domain.Recommendation{}, err
	}
	if lang == "" {
		return s.engine.Recommend(c), nil
	}
	return s.engine.RecommendIn(c, domain.ParseLanguage(lang)), nil
}

// Defaults returns the reference "normal values" observation.
func (s *AssessmentService) Defaults() domain.FieldSet {
	return domain.DefaultFieldSet()
}

// ModelInfo describes the loaded predictor.
func (s *AssessmentService) ModelInfo() domain.ModelInfo {
	return s.predictor.Info()
}

// VocabularyVersion is the label vocabulary the mapper uses.
func (s *AssessmentService) VocabularyVersion() string {
	return s.mapper.Version()
}
