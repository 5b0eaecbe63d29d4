package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"storefront/internal/domain"
)

// Client talks to the hosted commerce platform's REST API. All cart and
// catalog calls go through it; nothing else in the storefront holds the
// API token.
type Client struct {
	baseURL string
	token   string
	httpc   *http.Client
	log     *logrus.Logger
}

func New(baseURL, token string, log *logrus.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpc:   &http.Client{},
		log:     log,
	}
}

// APIError carries a non-success platform response. Not-found responses are
// never wrapped in it; those surface as domain.ErrNotFound so callers can
// branch on expiry.
type APIError struct {
	Status int    `json:"status"`
	Title  string `json:"title"`
}

func (e *APIError) Error() string {
	if e.Title == "" {
		return fmt.Sprintf("platform responded %d", e.Status)
	}
	return fmt.Sprintf("platform responded %d: %s", e.Status, e.Title)
}

// do issues one request and decodes the response body into out when out is
// non-nil. A 204 reports http.StatusNoContent to the caller via the returned
// status; 404 maps to domain.ErrNotFound.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out interface{}) (int, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return 0, errors.Wrap(err, "encode request body")
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return 0, errors.Wrap(err, "build request")
	}
	req.Header.Set("X-Auth-Token", c.token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return 0, errors.Wrapf(err, "%s %s", method, path)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return resp.StatusCode, errors.Wrapf(domain.ErrNotFound, "%s %s", method, path)
	case resp.StatusCode >= 400:
		apiErr := &APIError{Status: resp.StatusCode}
		_ = json.NewDecoder(resp.Body).Decode(apiErr)
		apiErr.Status = resp.StatusCode
		c.log.WithFields(logrus.Fields{
			"method": method,
			"path":   path,
			"status": resp.StatusCode,
			"title":  apiErr.Title,
		}).Error("platform request failed")
		return resp.StatusCode, apiErr
	}

	if out != nil && resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, errors.Wrapf(err, "decode %s %s response", method, path)
		}
	}
	return resp.StatusCode, nil
}
