package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/opencallout/callout-services-backend/internal/config"
	"github.com/opencallout/callout-services-backend/internal/models"
)

// TwilioClient enqueues calls through the Twilio-compatible REST API
// (POST /2010-04-01/Accounts/{sid}/Calls.json, form encoded).
type TwilioClient struct {
	cfg        *config.ProviderConfig
	httpClient *http.Client
}

func NewTwilioClient(cfg *config.ProviderConfig) *TwilioClient {
	return &TwilioClient{
		cfg: cfg,
		// Per-request deadlines come from the caller's context; the client
		// timeout is only a backstop.
		httpClient: &http.Client{Timeout: cfg.EnqueueTimeout},
	}
}

func (c *TwilioClient) Enqueue(ctx context.Context, req EnqueueRequest) (EnqueueOutcome, error) {
	form := url.Values{}
	form.Set("To", req.To)
	form.Set("From", c.cfg.FromNumber)
	if c.cfg.VoiceURL != "" {
		form.Set("Url", c.cfg.VoiceURL)
	}
	if c.cfg.StatusCallback != "" {
		form.Set("StatusCallback", c.cfg.StatusCallback)
	}

	requestParams := models.Metadata{}
	for key := range form {
		requestParams[key] = form.Get(key)
	}

	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Calls.json",
		strings.TrimSuffix(c.cfg.BaseURL, "/"), c.cfg.AccountSID)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return EnqueueOutcome{}, fmt.Errorf("failed to build enqueue request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	httpReq.SetBasicAuth(c.cfg.AccountSID, c.cfg.AuthToken)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		// Transport failure (including context deadline) is treated as a
		// rejection and recorded, not propagated.
		logrus.Warnf("Provider enqueue transport failure for %s: %v", req.To, err)
		return EnqueueOutcome{
			Queued:        false,
			ErrorMessage:  err.Error(),
			RequestParams: requestParams,
			Response:      models.Metadata{"error": err.Error()},
		}, nil
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return EnqueueOutcome{}, fmt.Errorf("failed to read enqueue response: %w", err)
	}

	payload := models.Metadata{}
	if len(body) > 0 {
		if err := json.Unmarshal(body, &payload); err != nil {
			payload = models.Metadata{"raw_body": string(body)}
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		logrus.Warnf("Provider rejected enqueue for %s: HTTP %d", req.To, resp.StatusCode)
		return EnqueueOutcome{
			Queued:        false,
			ErrorMessage:  fmt.Sprintf("provider returned HTTP %d", resp.StatusCode),
			RequestParams: requestParams,
			Response:      payload,
		}, nil
	}

	return EnqueueOutcome{
		Queued:          true,
		RemoteCallID:    stringField(payload, "sid"),
		RemoteStatus:    stringField(payload, "status"),
		RemoteDirection: stringField(payload, "direction"),
		RequestParams:   requestParams,
		Response:        payload,
	}, nil
}

func stringField(payload models.Metadata, key string) string {
	if value, ok := payload[key].(string); ok {
		return value
	}
	return ""
}
