package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/dawahealth/adherence-backend/internal/azure"
	"github.com/dawahealth/adherence-backend/pkg/model"
	"go.uber.org/zap"
)

// Narrative generation parameters. A low temperature keeps the summary
// anchored to the supplied metrics; the token cap bounds it to a short
// paragraph.
const (
	narrativeTemperature = 0.4
	narrativeMaxTokens   = 300
)

// Completer abstracts the completion client for testing
type Completer interface {
	Complete(ctx context.Context, req azure.CompletionRequest) (string, error)
}

// InsightNarrator turns computed adherence metrics into a short
// caregiver-facing narrative using Azure OpenAI
type InsightNarrator struct {
	aiClient Completer
	logger   *zap.Logger
}

// NewInsightNarrator creates a new InsightNarrator
func NewInsightNarrator(aiClient Completer, logger *zap.Logger) *InsightNarrator {
	return &InsightNarrator{
		aiClient: aiClient,
		logger:   logger,
	}
}

// Narrate generates a narrative summary of the given progress metrics
func (n *InsightNarrator) Narrate(ctx context.Context, metrics *model.ProgressMetrics) (string, error) {
	n.logger.Info("generating insight narrative",
		zap.String("patient_id", metrics.PatientID),
		zap.String("period", metrics.Period),
	)

	req := azure.CompletionRequest{
		System:      n.buildNarrativePrompt(metrics),
		User:        "Write the adherence summary now.",
		Temperature: narrativeTemperature,
		MaxTokens:   narrativeMaxTokens,
	}

	response, err := n.aiClient.Complete(ctx, req)
	if err != nil {
		n.logger.Error("insight narration failed", zap.Error(err))
		return "", fmt.Errorf("insight narration failed: %w", err)
	}

	narrative := cleanNarrative(response)
	if narrative == "" {
		return "", fmt.Errorf("empty narrative returned")
	}

	n.logger.Info("insight narrative generated",
		zap.Int("length", len(narrative)),
	)

	return narrative, nil
}

// buildNarrativePrompt creates the AI prompt from computed metrics
func (n *InsightNarrator) buildNarrativePrompt(metrics *model.ProgressMetrics) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Overall adherence rate: %.1f%% over %d tracked doses (%s period).\n",
		metrics.OverallRate, metrics.TotalRecords, metrics.Period)
	fmt.Fprintf(&sb, "Current streak: %d days, longest streak: %d days.\n",
		metrics.Streaks.CurrentStreak, metrics.Streaks.LongestStreak)

	for _, med := range metrics.PerMedication {
		fmt.Fprintf(&sb, "Medication %s: %.1f%% adherence, %d of %d doses taken, %d missed.\n",
			med.MedicationName, med.AdherenceRate, med.TakenDoses, med.TotalDoses, med.MissedDoses)
	}

	for _, pattern := range metrics.Patterns {
		fmt.Fprintf(&sb, "Detected pattern: %s (confidence %.0f%%).\n",
			pattern.Description, pattern.Confidence*100)
		if len(pattern.CulturalFactors) > 0 {
			fmt.Fprintf(&sb, "  Cultural factors: %s.\n", strings.Join(pattern.CulturalFactors, ", "))
		}
	}

	return fmt.Sprintf(`You are a medication adherence assistant writing for a patient's family caregiver.

Metrics:
%s
Write a short, warm summary (3-5 sentences) of the patient's medication adherence based only on the metrics above.

Rules:
- Be encouraging about streaks and improvements, factual about missed doses
- Respect religious and cultural practices; never suggest skipping prayer or breaking a fast
- Do not invent numbers that are not in the metrics
- Plain text only, no markdown, no bullet points

Write the summary now:`, sb.String())
}

// cleanNarrative strips markdown fences the model sometimes wraps around output
func cleanNarrative(response string) string {
	response = strings.TrimSpace(response)
	response = strings.TrimPrefix(response, "```text")
	response = strings.TrimPrefix(response, "```")
	response = strings.TrimSuffix(response, "```")
	return strings.TrimSpace(response)
}
