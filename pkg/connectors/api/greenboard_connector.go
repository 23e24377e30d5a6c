package api

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	config "jobradar/configs"
	"jobradar/pkg/connectors"
	"jobradar/pkg/fetch"
)

// GreenboardConnector fetches one company's postings from a
// jobs-array-plus-numeric-ids JSON API via a single GET.
type GreenboardConnector struct {
	HTTP   *fetch.Client
	Source string
}

func NewGreenboardConnector(http *fetch.Client, source string) *GreenboardConnector {
	return &GreenboardConnector{HTTP: http, Source: source}
}

func (c *GreenboardConnector) Fetch(ctx context.Context, company string, def config.SourceDef) connectors.ConnectorResult {
	result := connectors.ConnectorResult{Source: c.Source, Company: company}

	tmpl := def.EndpointTemplate
	if tmpl == "" {
		tmpl = def.URLTemplate
	}
	url, err := buildGreenboardURL(tmpl, company)
	if err != nil {
		result.Error = err
		return result
	}

	timeout := time.Duration(def.TimeoutMs) * time.Millisecond
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	res := c.HTTP.Fetch(ctx, url, fetch.Options{
		Timeout:        timeout,
		MaxRetries:     def.RateLimiting.MaxRetries,
		BackoffStartMs: def.RateLimiting.BackoffStartMs,
	})
	result.ResponseTimeMs = res.ResponseTimeMs
	result.RateLimited = res.RateLimited

	if res.Err != nil {
		result.Error = fmt.Errorf("greenboard: fetch %s: %w", company, res.Err)
		return result
	}

	var decoded greenboardResponse
	if err := json.Unmarshal(res.Data, &decoded); err != nil {
		result.Error = fmt.Errorf("greenboard: decode %s: %w", company, err)
		return result
	}

	result.Jobs = mapGreenboard(c.Source, company, decoded)
	result.Success = true
	return result
}

var _ connectors.Connector = (*GreenboardConnector)(nil)
