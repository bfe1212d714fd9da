// Package export publishes finished reports to downstream consumers.
package export

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/sirupsen/logrus"
	"github.com/yourorg/lof-premium/internal/model"
)

// Webhook POSTs the report JSON to a configured URL. Publishing is
// fire-and-forget: failures are logged and never affect the run result.
type Webhook struct {
	url        string
	httpClient *http.Client
}

// NewWebhook creates a publisher for the given URL.
func NewWebhook(url string) *Webhook {
	c := retryablehttp.NewClient()
	c.RetryMax = 2
	c.RetryWaitMin = 500 * time.Millisecond
	c.RetryWaitMax = 3 * time.Second
	c.HTTPClient.Timeout = 10 * time.Second
	c.Logger = nil

	return &Webhook{url: url, httpClient: c.StandardClient()}
}

// Publish sends the report. A non-2xx response is an error.
func (w *Webhook) Publish(ctx context.Context, rep *model.Report) error {
	payload, err := json.Marshal(rep)
	if err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("creating webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("posting report: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	logrus.WithFields(logrus.Fields{
		"run_id": rep.RunID,
		"url":    w.url,
	}).Info("Report published to webhook")
	return nil
}
