package history

import (
	"context"
	"fmt"
	"io"

	"github.com/preeclampsia-risk-mcp/internal/domain"
)

// NoopStore discards assessments. It backs the "none" history driver.
type NoopStore struct{}

func (NoopStore) Save(context.Context, *domain.AssessmentResult) error { return nil }

func (NoopStore) Get(_ context.Context, id string) (*Record, error) {
	return nil, fmt.Errorf("assessment %s: %w", id, domain.ErrNotFound)
}

func (NoopStore) List(context.Context, int, int) ([]*Record, error) { return []*Record{}, nil }

func (NoopStore) Count(context.Context) (int64, error) { return 0, nil }

func (NoopStore) CountByCategory(context.Context) (map[domain.DiagnosisCategory]int64, error) {
	return map[domain.DiagnosisCategory]int64{}, nil
}

func (s NoopStore) ExportJSON(ctx context.Context, w io.Writer) error { return exportJSON(ctx, s, w) }

func (NoopStore) Ping(context.Context) error { return nil }

func (NoopStore) Close() error { return nil }
