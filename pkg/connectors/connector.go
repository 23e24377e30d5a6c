// Package connectors defines the uniform per-platform adapter contract
// (C2, spec.md §4.2): fetch(company, sourceDef) -> ConnectorResult.
package connectors

import (
	"context"

	config "jobradar/configs"
	"jobradar/pkg/models"
)

// Connector is implemented by every per-platform adapter family
// (connectors/api, connectors/page, connectors/search).
type Connector interface {
	Fetch(ctx context.Context, company string, def config.SourceDef) ConnectorResult
}

// ConnectorResult is the uniform shape every connector family returns.
type ConnectorResult struct {
	Source         string
	Company        string
	Jobs           []models.RawJob
	Success        bool
	Error          error
	RateLimited    bool
	ResponseTimeMs int64
}

// SynthesizeID builds the fallback id used when no native id is present
// on a posting, per spec.md §4.2: hash(source, company, title).
func SynthesizeID(source, company, title string) string {
	return hashTriple(source, company, title)
}
