package notification

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const userAgent = "Lazy-Prune/1.0"

var httpClient = &http.Client{Timeout: 30 * time.Second}

func is2xx(status int) bool { return status >= 200 && status < 300 }

func isOK(status int) bool { return status == http.StatusOK }

// deliver sends req and rejects responses the endpoint does not accept
func deliver(endpoint string, req *http.Request, accepted func(status int) bool) error {
	req.Header.Set("User-Agent", userAgent)

	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach %s: %w", endpoint, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if !accepted(resp.StatusCode) {
		return fmt.Errorf("%s returned status %d", endpoint, resp.StatusCode)
	}
	return nil
}

// postJSON posts payload to a webhook
func postJSON(endpoint, webhookURL string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal %s payload: %w", endpoint, err)
	}

	req, err := http.NewRequest(http.MethodPost, webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return deliver(endpoint, req, is2xx)
}

// postForm posts an url-encoded form with extra headers
func postForm(endpoint, apiURL string, form url.Values, headers map[string]string) error {
	req, err := http.NewRequest(http.MethodPost, apiURL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	return deliver(endpoint, req, isOK)
}
