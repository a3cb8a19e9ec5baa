// Package cohost is the typed client for the remote AI co-host API.
package cohost

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	apperrors "cohost-dashboard/internal/common/errors"
	httpclient "cohost-dashboard/internal/common/http"
	"cohost-dashboard/internal/common/logger"
	"cohost-dashboard/internal/common/metrics"
	"cohost-dashboard/internal/common/validation"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	ClassifyPath = "/api/classify-message"
	GeneratePath = "/api/generate-response"

	tracerName = "cohost-dashboard/cohost"
)

var (
	ErrClassificationFailed = errors.New("CLASSIFICATION_FAILED")
	ErrGenerationFailed     = errors.New("GENERATION_FAILED")
)

// Client issues one POST per call. It never retries and never caches.
type Client struct {
	config *Config
	http   *httpclient.Client
	logger logger.Logger
	tracer trace.Tracer
}

func NewClient(config *Config, log logger.Logger) *Client {
	return &Client{
		config: config,
		http:   httpclient.NewClient(config.Timeout),
		logger: log.With(map[string]interface{}{
			"component": "cohost-client",
			"baseURL":   config.BaseURL,
		}),
		tracer: otel.Tracer(tracerName),
	}
}

// Classify asks the API what kind of message a buyer sent.
func (c *Client) Classify(ctx context.Context, message, requesterID string) (*ClassificationResult, error) {
	req := ClassifyRequest{Message: message, Username: requesterID}

	var result ClassificationResult
	if err := c.post(ctx, ClassifyPath, req, classificationSchema, &result); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrClassificationFailed, err)
	}
	return &result, nil
}

// Generate asks the API to draft an answer to question about product.
func (c *Client) Generate(ctx context.Context, question string, product ProductContext, prefs *SellerPreferences) (*GeneratedResponse, error) {
	req := GenerateRequest{
		Question:          question,
		ProductContext:    product,
		SellerPreferences: prefs,
	}

	var result GeneratedResponse
	if err := c.post(ctx, GeneratePath, req, generatedResponseSchema, &result); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrGenerationFailed, err)
	}
	return &result, nil
}

func (c *Client) post(ctx context.Context, path string, payload interface{}, schema *validation.Schema, out interface{}) (err error) {
	ctx, span := c.tracer.Start(ctx, "cohost"+path,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("http.url", c.config.BaseURL+path)),
	)
	start := time.Now()
	defer func() {
		outcome := metrics.OutcomeSuccess
		if err != nil {
			outcome = metrics.OutcomeError
			span.RecordError(err)
			span.SetStatus(codes.Error, string(apperrors.CodeOf(err)))
		}
		metrics.RemoteRequests.WithLabelValues(path, outcome).Inc()
		metrics.RemoteRequestDuration.WithLabelValues(path).Observe(time.Since(start).Seconds())
		span.End()
	}()

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	c.logger.Debug("calling co-host API", map[string]interface{}{
		"endpoint": path,
		"bytes":    len(body),
	})

	resp, err := c.http.PostJSON(ctx, c.config.BaseURL+path, body)
	if err != nil {
		return apperrors.NewRemoteTransportError(path, err)
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		_, _ = io.Copy(io.Discard, resp.Body)
		return apperrors.NewRemoteStatusError(path, resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return apperrors.NewRemoteTransportError(path, err)
	}

	return c.decode(path, raw, schema, out)
}

// decode fills out from raw. Fields whose JSON type does not fit are left at their zero value;
// any mismatch with schema counts as drift, which only fails the call in strict mode.
func (c *Client) decode(path string, raw []byte, schema *validation.Schema, out interface{}) error {
	var typeErr *json.UnmarshalTypeError
	if err := json.Unmarshal(raw, out); err != nil && !errors.As(err, &typeErr) {
		return apperrors.NewRemoteDecodeError(path, err)
	}

	result, err := schema.Validate(raw)
	if err != nil {
		return apperrors.NewRemoteDecodeError(path, err)
	}
	if result.Valid {
		return nil
	}

	violations := result.GetErrorMessages()
	metrics.SchemaDrift.WithLabelValues(path).Inc()
	if c.config.StrictSchema {
		return apperrors.NewSchemaDriftError(path, violations)
	}

	c.logger.Warn("co-host API response drifted from schema", map[string]interface{}{
		"endpoint":   path,
		"violations": violations,
	})
	return nil
}
