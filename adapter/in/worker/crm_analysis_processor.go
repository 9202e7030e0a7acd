package worker

import (
	"context"
	"errors"
	"fmt"

	"crm_server/core/service/scoring"
	"crm_server/pkg/apperr"
	"crm_server/pkg/logger"
)

// =============================================================================
// Analysis Processor
// =============================================================================

// AnalysisProcessor runs the scoring pass for client.analyze jobs.
type AnalysisProcessor struct {
	analysis *scoring.AnalysisService
	log      *logger.Logger
}

// NewAnalysisProcessor creates a new AnalysisProcessor.
func NewAnalysisProcessor(analysis *scoring.AnalysisService, log *logger.Logger) *AnalysisProcessor {
	if log == nil {
		log = logger.Default()
	}
	return &AnalysisProcessor{
		analysis: analysis,
		log:      log,
	}
}

// ProcessAnalyze handles a client.analyze job.
func (p *AnalysisProcessor) ProcessAnalyze(ctx context.Context, msg *Message) error {
	payload, err := ParsePayload[ClientAnalyzePayload](msg)
	if err != nil {
		return fmt.Errorf("failed to parse client.analyze payload: %w", err)
	}
	if payload.ClientID == "" {
		return fmt.Errorf("client.analyze payload missing client_id")
	}

	result, err := p.analysis.AnalyzeClient(ctx, payload.ClientID)
	if err != nil {
		// A deleted client is not worth retrying.
		var appErr *apperr.AppError
		if errors.As(err, &appErr) && appErr.Code == apperr.CodeNotFound {
			p.log.WithField("client_id", payload.ClientID).
				Warn("skipping analysis for unknown client")
			return nil
		}
		return err
	}

	p.log.WithFields(map[string]any{
		"client_id":  payload.ClientID,
		"segment":    string(result.Segment),
		"churn_risk": string(result.ChurnRisk),
		"engagement": result.EngagementScore,
		"reason":     payload.Reason,
	}).Info("client analyzed")

	return nil
}
