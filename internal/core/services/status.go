package services

import (
	"context"
	"fmt"

	"github.com/recall-labs/recall-cli/internal/core/domain"
	"github.com/recall-labs/recall-cli/internal/core/ports/driven"
	"github.com/recall-labs/recall-cli/internal/core/ports/driving"
)

// Ensure StatusService implements the interface.
var _ driving.StatusReporter = (*StatusService)(nil)

// StatusService exposes live index counts.
type StatusService struct {
	index driven.VectorIndex
}

// NewStatusService creates a status service.
func NewStatusService(index driven.VectorIndex) *StatusService {
	return &StatusService{index: index}
}

// Status returns live chunk counts from the index.
func (s *StatusService) Status(ctx context.Context) (domain.IndexStats, error) {
	stats, err := s.index.Stats(ctx)
	if err != nil {
		return domain.IndexStats{}, fmt.Errorf("index stats: %w", err)
	}
	return stats, nil
}
