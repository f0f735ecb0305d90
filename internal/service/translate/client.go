package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"
)

const (
	noTextExtracted = "No text extracted"
	maxErrorBody    = 64 << 10
)

// StatusError is returned when the gateway answers with a failure status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("gateway returned status %d: %s", e.StatusCode, e.Body)
}

// Result is either translated text or the failure that prevented it.
type Result struct {
	Text string
	Err  error
}

func Success(text string) Result { return Result{Text: text} }

func Failure(err error) Result { return Result{Err: err} }

func (r Result) OK() bool { return r.Err == nil }

// Message is what the user sees for this result.
func (r Result) Message() string {
	if r.Err == nil {
		return r.Text
	}
	var statusErr *StatusError
	if errors.As(r.Err, &statusErr) {
		return "Error from API: " + statusErr.Body
	}
	return "Error calling API: " + r.Err.Error()
}

// Request is one file to translate.
type Request struct {
	FileName       string
	Body           io.Reader
	TargetLanguage string
}

// Client posts images to the translation gateway.
type Client struct {
	endpoint   string
	bucket     string
	httpClient *http.Client
}

// NewClient builds a gateway client. A zero timeout leaves calls bounded only
// by the caller's context.
func NewClient(endpoint, bucket string, timeout time.Duration) *Client {
	return &Client{
		endpoint: endpoint,
		bucket:   bucket,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type gatewayResponse struct {
	TranslatedText *string `json:"translated_text"`
}

// Translate issues a single synchronous call. It never returns an error
// directly; failures are carried in the Result.
func (c *Client) Translate(ctx context.Context, req Request) Result {
	body, contentType, err := c.encode(req)
	if err != nil {
		return Failure(err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, body)
	if err != nil {
		return Failure(fmt.Errorf("create request: %w", err))
	}
	httpReq.Header.Set("Content-Type", contentType)
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return Failure(fmt.Errorf("send request: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return Failure(&StatusError{StatusCode: resp.StatusCode, Body: string(raw)})
	}

	var payload gatewayResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return Failure(fmt.Errorf("decode response: %w", err))
	}
	if payload.TranslatedText == nil {
		return Success(noTextExtracted)
	}
	return Success(*payload.TranslatedText)
}

func (c *Client) encode(req Request) (io.Reader, string, error) {
	if req.Body == nil {
		return nil, "", errors.New("request body is required")
	}
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", req.FileName)
	if err != nil {
		return nil, "", fmt.Errorf("create file part: %w", err)
	}
	if _, err := io.Copy(part, req.Body); err != nil {
		return nil, "", fmt.Errorf("read upload: %w", err)
	}
	if err := w.WriteField("bucket_name", c.bucket); err != nil {
		return nil, "", fmt.Errorf("write bucket_name: %w", err)
	}
	if err := w.WriteField("target_language", req.TargetLanguage); err != nil {
		return nil, "", fmt.Errorf("write target_language: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}
