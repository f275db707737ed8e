// Package resumeparser talks to the external resume-processing service.
// Every outgoing request is signed with the shared secret so the service can
// check that it came from us and is fresh.
package resumeparser

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"hirely/internal/signing"
)

const (
	HeaderTimestamp = "X-Hirely-Timestamp"
	HeaderSignature = "X-Hirely-Signature"
	HeaderRequestID = "X-Hirely-Request-Id"

	parsePath = "/v1/parse"
)

var ErrUnexpectedStatus = errors.New("resume parser returned unexpected status")

// ParseRequest asks the service to parse the resume at ResumeURL and report
// back to CallbackURL.
type ParseRequest struct {
	JobID       string `json:"job_id"`
	ResumeID    string `json:"resume_id"`
	ResumeURL   string `json:"resume_url"`
	CallbackURL string `json:"callback_url"`
}

// Signer produces the signature attached to outgoing requests.
type Signer interface {
	Sign(payload, timestamp string) (string, error)
}

type Client struct {
	baseURL    string
	signer     Signer
	httpClient *http.Client
	now        func() time.Time
}

func NewClient(baseURL string, signer Signer, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		signer:     signer,
		httpClient: &http.Client{Timeout: timeout},
		now:        time.Now,
	}
}

// Parse dispatches req. The body is serialised once and those exact bytes are
// both signed and sent.
func (c *Client) Parse(ctx context.Context, req ParseRequest) error {
	payload, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("encode parse request: %w", err)
	}

	timestamp := signing.Timestamp(c.now())
	signature, err := c.signer.Sign(string(payload), timestamp)
	if err != nil {
		return fmt.Errorf("sign parse request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+parsePath, bytes.NewReader(payload))
	if err != nil {
		return err
	}

	requestID := uuid.NewString()
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set(HeaderTimestamp, timestamp)
	httpReq.Header.Set(HeaderSignature, signature)
	httpReq.Header.Set(HeaderRequestID, requestID)

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("send parse request: %w", err)
	}
	defer resp.Body.Close()

	log.Debug().
		Str("job_id", req.JobID).
		Str("request_id", requestID).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("resume parse request sent")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: HTTP %d: %s", ErrUnexpectedStatus, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	io.Copy(io.Discard, resp.Body)
	return nil
}
