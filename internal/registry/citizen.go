package registry

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	citizenLookupPath = "/v1/citizens/lookup"
	citizenHealthPath = "/v1/health"
	maxResponseBytes  = 1 << 20
)

var tracer = otel.Tracer("rollcall/internal/registry")

// CitizenProvider calls the citizen registry over HTTP.
type CitizenProvider struct {
	id      string
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewCitizenProvider(id, baseURL, apiKey string, timeout time.Duration) *CitizenProvider {
	return &CitizenProvider{
		id:      id,
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
	}
}

func (p *CitizenProvider) ID() string { return p.id }

func (p *CitizenProvider) Capabilities() Capabilities {
	return Capabilities{
		Protocol: ProtocolHTTP,
		Version:  "v1",
		Filters:  []string{"region", "midRegion", "localRegion"},
		Fields:   []string{"name", "dateOfBirth", "sex", "region", "midRegion", "localRegion"},
	}
}

func (p *CitizenProvider) Lookup(ctx context.Context, q Query) (*CitizenRecord, error) {
	ctx, span := tracer.Start(ctx, "registry.citizen.lookup",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("registry.provider", p.id),
			attribute.Int("registry.filter_depth", q.Filters.Depth()),
		),
	)
	defer span.End()

	record, err := p.lookup(ctx, q)
	if err != nil {
		category := GetCategory(err)
		span.SetAttributes(attribute.String("registry.error_category", string(category)))
		if category != ErrorNotFound {
			span.RecordError(err)
			span.SetStatus(codes.Error, string(category))
		}
		return nil, err
	}
	return record, nil
}

func (p *CitizenProvider) lookup(ctx context.Context, q Query) (*CitizenRecord, error) {
	payload, err := json.Marshal(q)
	if err != nil {
		return nil, NewProviderError(ErrorInternal, p.id, "encode query", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+citizenLookupPath, bytes.NewReader(payload))
	if err != nil {
		return nil, NewProviderError(ErrorInternal, p.id, "build request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-API-Key", p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, p.transportError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, p.transportError(err)
	}
	return parseCitizenResponse(p.id, resp.StatusCode, body, time.Now())
}

func (p *CitizenProvider) transportError(err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return NewProviderError(ErrorTimeout, p.id, "registry did not respond in time", err)
	}
	return NewProviderError(ErrorProviderOutage, p.id, "registry unreachable", err)
}

// parseCitizenResponse maps a registry HTTP response onto a record or a
// categorized error.
func parseCitizenResponse(providerID string, status int, body []byte, checkedAt time.Time) (*CitizenRecord, error) {
	switch {
	case status == http.StatusNotFound:
		return nil, NewProviderError(ErrorNotFound, providerID, "no matching record", nil)
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return nil, NewProviderError(ErrorAuthentication, providerID, fmt.Sprintf("registry rejected credentials (%d)", status), nil)
	case status == http.StatusTooManyRequests:
		return nil, NewProviderError(ErrorRateLimited, providerID, "registry quota exhausted", nil)
	case status >= http.StatusInternalServerError:
		return nil, NewProviderError(ErrorProviderOutage, providerID, fmt.Sprintf("registry returned %d", status), nil)
	case status != http.StatusOK:
		return nil, NewProviderError(ErrorContractMismatch, providerID, fmt.Sprintf("unexpected status %d", status), nil)
	}

	var record CitizenRecord
	if err := json.Unmarshal(body, &record); err != nil {
		return nil, NewProviderError(ErrorBadData, providerID, "malformed registry response", err)
	}
	if strings.TrimSpace(record.IDNumber) == "" || strings.TrimSpace(record.Name) == "" {
		return nil, NewProviderError(ErrorContractMismatch, providerID, "registry response missing idNumber or name", nil)
	}
	record.ProviderID = providerID
	record.CheckedAt = checkedAt
	return &record, nil
}

func (p *CitizenProvider) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+citizenHealthPath, nil)
	if err != nil {
		return NewProviderError(ErrorInternal, p.id, "build request", err)
	}
	req.Header.Set("X-API-Key", p.apiKey)
	resp, err := p.client.Do(req)
	if err != nil {
		return p.transportError(err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode != http.StatusOK {
		return NewProviderError(ErrorProviderOutage, p.id, fmt.Sprintf("health returned %d", resp.StatusCode), nil)
	}
	return nil
}
