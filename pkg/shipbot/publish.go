package shipbot

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
)

// Client performs exactly one request per Submit. It has no timeout and never retries.
type Client struct {
	HTTPClient *http.Client
	Log        *slog.Logger
}

// Submit sends req and classifies the result. Every non-success outcome is
// logged at error level before it is returned; the failure policy is left to the caller.
func (c Client) Submit(ctx context.Context, req Request) Outcome {
	log := c.logger()

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, bytes.NewReader(req.Body))
	if err != nil {
		return transportFailure(log, req, fmt.Errorf("build request: %w", err))
	}
	httpReq.Header = req.Header.Clone()

	resp, err := c.httpClient().Do(httpReq)
	if err != nil {
		return transportFailure(log, req, fmt.Errorf("send request: %w", err))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return transportFailure(log, req, fmt.Errorf("read response: %w", err))
	}
	log.Debug("Response text", "status", resp.StatusCode, "body", string(raw))

	return classify(log, req, resp, ParseBody(raw))
}

func classify(log *slog.Logger, req Request, resp *http.Response, body ResponseBody) Outcome {
	outcome := Outcome{Mode: req.Mode, StatusCode: resp.StatusCode, Body: body}

	switch code := resp.StatusCode; {
	case code >= 200 && code < 300:
		log.Info("Response", "status", code, "body", body)
		if id, ok := body.ID(); ok {
			outcome.DeploymentID = id
		}
		outcome.Kind = OutcomeSuccess
		outcome.Reason = "✅ Deployment successfully tracked in Shipbot"
		log.Info(outcome.Reason, "deployment_id", outcome.DeploymentID)

	case code < http.StatusBadRequest:
		outcome.Kind = OutcomeHTTPError
		outcome.Reason = "❌ Deployment failed to track in Shipbot"
		outcome.Err = fmt.Errorf("%w: status=%s", ErrHTTP, resp.Status)
		log.Error(outcome.Reason, "status", code)

	case code == http.StatusUnauthorized:
		outcome.Kind = OutcomeClientRejected
		outcome.Reason = "❌ API Key was rejected by Shipbot"
		outcome.Err = fmt.Errorf("%w: status=%s", ErrClientRejected, resp.Status)
		log.Error(outcome.Reason, "status", code)
		log.Debug("API key used", "api_key", req.Header.Get(APIKeyHeader))

	case code == http.StatusUnprocessableEntity:
		outcome.Kind = OutcomeValidationRejected
		outcome.Reason = "❌ Invalid payload sent to Shipbot"
		outcome.Err = fmt.Errorf("%w: status=%s", ErrValidationRejected, resp.Status)
		log.Error(outcome.Reason, "status", code)
		log.Info("Payload sent", "payload", string(req.Body))
		log.Info("Error response", "body", body)

	case code >= http.StatusInternalServerError:
		outcome.Kind = OutcomeServerError
		outcome.Reason = "❌ Shipbot server error occurred"
		outcome.Err = fmt.Errorf("%w: status=%s", ErrServerError, resp.Status)
		log.Error(outcome.Reason, "status", code)
		log.Debug("Payload sent", "payload", string(req.Body))
		log.Debug("Error response", "body", body)

	default:
		outcome.Kind = OutcomeHTTPError
		outcome.Reason = "❌ Error making request"
		outcome.Err = fmt.Errorf("%w: status=%s body=%s", ErrHTTP, resp.Status, strings.TrimSpace(body.Text()))
		log.Error(outcome.Reason, "error", outcome.Err)
	}

	return outcome
}

func transportFailure(log *slog.Logger, req Request, err error) Outcome {
	outcome := Outcome{
		Kind:   OutcomeTransportError,
		Mode:   req.Mode,
		Reason: "❌ Error making request",
		Err:    fmt.Errorf("%w: %w", ErrTransport, err),
	}
	log.Error(outcome.Reason, "error", err)
	return outcome
}

func (c Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}

func (c Client) logger() *slog.Logger {
	if c.Log != nil {
		return c.Log
	}
	return slog.Default()
}
