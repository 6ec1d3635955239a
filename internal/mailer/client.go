// File: internal/mailer/client.go

// Package mailer delivers owner-facing notifications through the Resend
// REST API: approval requests with decision links, completion summaries and
// terminal failure notices.
package mailer

import (
	"bytes"
	"context"
	"fmt"
	"html"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	json "github.com/json-iterator/go"

	"github.com/xkilldash9x/wraith/api/schemas"
	"github.com/xkilldash9x/wraith/internal/activities"
	"github.com/xkilldash9x/wraith/internal/config"
)

const (
	defaultEndpoint = "https://api.resend.com"
	requestTimeout  = 30 * time.Second

	maxGoalChars   = 300
	maxReasonChars = 400
)

// Client sends transactional email through Resend.
type Client struct {
	apiKey     string
	endpoint   string
	from       string
	controlURL string
	httpClient *http.Client
	logger     *zap.Logger
}

var _ activities.Notifier = (*Client)(nil)

// New builds a Resend client from configuration.
func New(cfg config.EmailConfig, logger *zap.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("Resend API key is required")
	}
	if cfg.FromAddress == "" {
		return nil, fmt.Errorf("notification from-address is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	endpoint := strings.TrimRight(cfg.Endpoint, "/")
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	return &Client{
		apiKey:     cfg.APIKey,
		endpoint:   endpoint,
		from:       cfg.FromAddress,
		controlURL: strings.TrimRight(cfg.ControlBaseURL, "/"),
		httpClient: &http.Client{Timeout: requestTimeout},
		logger:     logger.Named("mailer"),
	}, nil
}

type sendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
	Text    string   `json:"text"`
	ReplyTo string   `json:"reply_to,omitempty"`
}

type sendResponse struct {
	ID string `json:"id"`
}

// SendApprovalRequest emails the owner a high-stakes action description
// with approve and reject links that signal the workflow.
func (c *Client) SendApprovalRequest(ctx context.Context, addr, ownerID, workflowID, action string) error {
	approveURL := fmt.Sprintf("%s/approve?workflow_id=%s", c.controlURL, workflowID)
	rejectURL := fmt.Sprintf("%s/reject?workflow_id=%s", c.controlURL, workflowID)

	text := fmt.Sprintf(
		"Your agent wants to perform an action that needs your explicit approval.\n\n"+
			"Proposed action: %s\n\n"+
			"Approve: %s\nReject: %s\n\n"+
			"If you do nothing, the task fails when the approval window closes.",
		action, approveURL, rejectURL,
	)
	htmlBody := wrapHTML(fmt.Sprintf(
		`<h1>Approval required</h1>
<p>Your agent wants to perform an action that needs your explicit approval.</p>
<blockquote>%s</blockquote>
<p><a href="%s">Approve</a> &nbsp;|&nbsp; <a href="%s">Reject</a></p>
<p>If you do nothing, the task fails when the approval window closes.</p>`,
		html.EscapeString(action), approveURL, rejectURL,
	))

	return c.send(ctx, addr, "Action requires your approval", htmlBody, text)
}

// SendCompletion emails the owner a summary of the finished task.
func (c *Client) SendCompletion(ctx context.Context, addr, ownerID, goal, summary string) error {
	text := fmt.Sprintf(
		"I've finished working on your request.\n\nYour request: %s\n\nSummary:\n%s",
		truncate(goal, maxGoalChars), summary,
	)
	htmlBody := wrapHTML(fmt.Sprintf(
		`<h1>Task completed</h1>
<p>I've finished working on your request.</p>
<p><strong>Your request:</strong> %s</p>
<p><strong>Summary:</strong></p>
<p>%s</p>`,
		html.EscapeString(truncate(goal, maxGoalChars)),
		html.EscapeString(summary),
	))

	return c.send(ctx, addr, "Task completed", htmlBody, text)
}

// SendFailure emails the owner when a task ends without completing. The
// wording follows the terminal status so a kill reads differently from a
// provider outage.
func (c *Client) SendFailure(ctx context.Context, addr, ownerID, goal string, status schemas.JobStatus, reason string) error {
	subject, headline, explanation := failureWording(status)

	text := fmt.Sprintf(
		"%s\n\nYour request: %s\n\nDetails: %s\n\n%s",
		headline, truncate(goal, maxGoalChars), truncate(reason, maxReasonChars), explanation,
	)
	htmlBody := wrapHTML(fmt.Sprintf(
		`<h1>%s</h1>
<p><strong>Your request:</strong> %s</p>
<p><strong>Details:</strong> %s</p>
<p>%s</p>`,
		html.EscapeString(headline),
		html.EscapeString(truncate(goal, maxGoalChars)),
		html.EscapeString(truncate(reason, maxReasonChars)),
		html.EscapeString(explanation),
	))

	return c.send(ctx, addr, subject, htmlBody, text)
}

func failureWording(status schemas.JobStatus) (subject, headline, explanation string) {
	switch status {
	case schemas.StatusKilled:
		return "Task stopped",
			"The task was stopped at your request.",
			"Nothing further will happen. Start a new task whenever you're ready."
	case schemas.StatusRejected:
		return "Task stopped before the pending action",
			"You rejected the pending action, so the task was stopped.",
			"No part of the rejected action was performed."
	case schemas.StatusWaitingInfo:
		return "I need more information",
			"I couldn't make progress without more detail from you.",
			"Reply with the missing information and start the task again."
	default:
		return "Task failed",
			"Something went wrong while working on your request.",
			"You can retry the task; if this keeps happening, the details above should say why."
	}
}

func (c *Client) send(ctx context.Context, to, subject, htmlBody, textBody string) error {
	payload, err := json.Marshal(sendRequest{
		From:    c.from,
		To:      []string{to},
		Subject: subject,
		HTML:    htmlBody,
		Text:    textBody,
		ReplyTo: c.from,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal email payload: %w", err)
	}

	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/emails", bytes.NewReader(payload))
		if err != nil {
			return backoff.Permanent(fmt.Errorf("failed to create email request: %w", err))
		}
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			c.logger.Warn("Email request failed, will retry", zap.Error(err))
			return err
		}
		defer resp.Body.Close()

		body, _ := io.ReadAll(resp.Body)
		if resp.StatusCode != http.StatusOK {
			err := fmt.Errorf("resend API error: status %d, body: %s", resp.StatusCode, truncate(string(body), 256))
			if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
				c.logger.Warn("Transient email delivery failure, will retry",
					zap.Int("status_code", resp.StatusCode),
				)
				return err
			}
			return backoff.Permanent(err)
		}

		var sent sendResponse
		if err := json.Unmarshal(body, &sent); err == nil && sent.ID != "" {
			c.logger.Info("Email delivered",
				zap.String("to", to),
				zap.String("subject", subject),
				zap.String("email_id", sent.ID),
			)
		}
		return nil
	}

	policy := backoff.NewExponentialBackOff()
	policy.MaxElapsedTime = 90 * time.Second
	policy.MaxInterval = 15 * time.Second
	if err := backoff.Retry(operation, backoff.WithContext(policy, ctx)); err != nil {
		return fmt.Errorf("sending email to %s: %w", to, err)
	}
	return nil
}

// wrapHTML puts the content inside a minimal email shell. Clients that
// strip HTML fall back to the text body.
func wrapHTML(content string) string {
	return fmt.Sprintf(
		`<!DOCTYPE html><html><body style="font-family: sans-serif; line-height: 1.6; max-width: 560px; margin: 0 auto;">%s</body></html>`,
		content,
	)
}

// truncate cuts on a rune boundary so a multi-byte character is never split
// mid-sequence.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
