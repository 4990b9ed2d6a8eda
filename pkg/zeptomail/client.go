// Package zeptomail provides a client for the ZeptoMail transactional
// email API.
package zeptomail

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

// Client defines the ZeptoMail operations used by this application.
type Client interface {
	// Send delivers a single transactional email.
	Send(ctx context.Context, email Email) (*SendResponse, error)
}

// Email is one outgoing message.
type Email struct {
	FromAddress string
	FromName    string
	ToAddress   string
	Subject     string
	HTMLBody    string
	Attachments []Attachment
}

// Attachment is a file enclosed with the email, base64-encoded on the wire.
type Attachment struct {
	Name     string
	MIMEType string
	Content  []byte
}

// AttachmentFromFile reads a file into an Attachment, inferring the MIME
// type from the extension. If name is empty the file's basename is used.
func AttachmentFromFile(path, name string) (Attachment, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Attachment{}, eris.Wrapf(err, "zeptomail: read attachment %s", path)
	}
	if name == "" {
		name = filepath.Base(path)
	}
	mimeType := mime.TypeByExtension(filepath.Ext(path))
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	return Attachment{Name: name, MIMEType: mimeType, Content: content}, nil
}

// SendResponse is the parsed ZeptoMail API response.
type SendResponse struct {
	Message   string `json:"message"`
	RequestID string `json:"request_id"`
}

// Option configures the ZeptoMail client.
type Option func(*httpClient)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithRateLimit overrides the default send rate (1 req/s).
func WithRateLimit(rps float64) Option {
	return func(c *httpClient) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), max(int(rps), 1))
		} else {
			c.limiter = nil
		}
	}
}

type httpClient struct {
	token   string
	baseURL string
	limiter *rate.Limiter
	http    *http.Client
}

// NewClient creates a new ZeptoMail client with the given send-mail token.
func NewClient(token string, opts ...Option) Client {
	c := &httpClient{
		token:   token,
		baseURL: "https://api.zeptomail.eu",
		limiter: rate.NewLimiter(1, 1),
		http: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type sendPayload struct {
	From        payloadAddress      `json:"from"`
	To          []payloadRecipient  `json:"to"`
	Subject     string              `json:"subject"`
	HTMLBody    string              `json:"htmlbody"`
	Attachments []payloadAttachment `json:"attachments,omitempty"`
}

type payloadAddress struct {
	Address string `json:"address"`
	Name    string `json:"name,omitempty"`
}

type payloadRecipient struct {
	EmailAddress payloadAddress `json:"email_address"`
}

type payloadAttachment struct {
	Name     string `json:"name"`
	Content  string `json:"content"`
	MIMEType string `json:"mime_type"`
}

// normalizeBody flattens the HTML body the way the ZeptoMail API expects:
// no raw newlines, single quotes instead of double quotes in markup.
func normalizeBody(body string) string {
	return strings.ReplaceAll(strings.ReplaceAll(body, "\n", ""), `"`, "'")
}

func (c *httpClient) Send(ctx context.Context, email Email) (*SendResponse, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "zeptomail: rate limit")
		}
	}

	payload := sendPayload{
		From:     payloadAddress{Address: email.FromAddress, Name: email.FromName},
		To:       []payloadRecipient{{EmailAddress: payloadAddress{Address: email.ToAddress}}},
		Subject:  email.Subject,
		HTMLBody: normalizeBody(email.HTMLBody),
	}
	for _, att := range email.Attachments {
		payload.Attachments = append(payload.Attachments, payloadAttachment{
			Name:     att.Name,
			Content:  base64.StdEncoding.EncodeToString(att.Content),
			MIMEType: att.MIMEType,
		})
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, eris.Wrap(err, "zeptomail: marshal payload")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v1.1/email", strings.NewReader(string(body)))
	if err != nil {
		return nil, eris.Wrap(err, "zeptomail: create request")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrapf(err, "zeptomail: send to %s", email.ToAddress)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "zeptomail: read response body")
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, eris.Errorf("zeptomail: unexpected status %d: %s", resp.StatusCode, string(respBody))
	}

	var result SendResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, eris.Wrap(err, "zeptomail: unmarshal response")
	}
	return &result, nil
}
