package analytics

import (
	"context"
	"fmt"
	"strings"

	"FinSignal/internal/domain/models"
	domsvc "FinSignal/internal/domain/service"
)

// HTTPAnalysisGateway calls POST /analyze on the analysis engine. It never
// retries; every failure maps to models.ErrAnalysisUnavailable.
type HTTPAnalysisGateway struct {
	base *HTTPServiceBase
}

var _ domsvc.AnalysisGateway = (*HTTPAnalysisGateway)(nil)

func NewHTTPAnalysisGateway(base *HTTPServiceBase) *HTTPAnalysisGateway {
	return &HTTPAnalysisGateway{base: base}
}

type analyzeResponse struct {
	SentimentScore flexFloat `json:"sentiment_score"`
	Confidence     flexFloat `json:"confidence"`
	Action         string    `json:"action"`
	Reasoning      string    `json:"reasoning"`
	RiskLevel      string    `json:"risk_level"`
	Error          string    `json:"error"`
}

// Analyze returns the raw engine verdict. Values are not sanitized here.
func (g *HTTPAnalysisGateway) Analyze(ctx context.Context, req models.AnalysisRequest) (models.Analysis, error) {
	var resp analyzeResponse
	if err := g.base.PostJSON(ctx, "/analyze", req, &resp); err != nil {
		return models.Analysis{}, fmt.Errorf("%w: %v", models.ErrAnalysisUnavailable, err)
	}
	if resp.Error != "" {
		return models.Analysis{}, fmt.Errorf("%w: engine error: %s", models.ErrAnalysisUnavailable, resp.Error)
	}
	action := strings.ToUpper(strings.TrimSpace(resp.Action))
	if action == "" && !resp.Confidence.Set {
		return models.Analysis{}, fmt.Errorf("%w: response has neither action nor confidence", models.ErrAnalysisUnavailable)
	}
	verdict := models.Verdict(action)
	if !verdict.Valid() {
		verdict = models.VerdictWatch
	}

	return models.Analysis{
		SentimentScore: resp.SentimentScore.Value,
		Confidence:     resp.Confidence.Value,
		Action:         verdict,
		Reasoning:      resp.Reasoning,
		RiskLevel:      resp.RiskLevel,
	}, nil
}
