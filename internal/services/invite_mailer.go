package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/stonebridgevc/dealdesk-backend/internal/logger"
	"github.com/stonebridgevc/dealdesk-backend/internal/utils"
)

const defaultSendgridBaseURL = "https://api.sendgrid.com"

// InviteMailer delivers the founder invite link by email. Delivery is
// best-effort: the invite already exists by the time a send is attempted,
// and a failed send never rolls it back.
type InviteMailer interface {
	SendInvite(ctx context.Context, founderEmail, inviteURL string, expiresAt time.Time) error
}

type sendgridMailer struct {
	log       *logger.Logger
	client    *http.Client
	baseURL   string
	apiKey    string
	fromEmail string
	fromName  string
}

// NewSendgridMailer returns nil (no mailer) when SENDGRID_API_KEY is unset.
func NewSendgridMailer(log *logger.Logger) InviteMailer {
	serviceLog := log.With("service", "SendgridMailer")
	apiKey := strings.TrimSpace(os.Getenv("SENDGRID_API_KEY"))
	if apiKey == "" {
		serviceLog.Info("SENDGRID_API_KEY not set, founder invites will not be emailed")
		return nil
	}
	baseURL := strings.TrimSpace(utils.GetEnv("SENDGRID_BASE_URL", defaultSendgridBaseURL, serviceLog))
	timeoutSec := utils.GetEnvAsInt("SENDGRID_TIMEOUT_SECONDS", 30, serviceLog)
	return &sendgridMailer{
		log:       serviceLog,
		client:    &http.Client{Timeout: time.Duration(timeoutSec) * time.Second},
		baseURL:   strings.TrimRight(baseURL, "/"),
		apiKey:    apiKey,
		fromEmail: utils.GetEnv("SENDGRID_FROM_EMAIL", "no-reply@dealdesk.local", serviceLog),
		fromName:  utils.GetEnv("SENDGRID_FROM_NAME", "DealDesk", serviceLog),
	}
}

type sendgridAddress struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type sendgridPayload struct {
	Personalizations []struct {
		To []sendgridAddress `json:"to"`
	} `json:"personalizations"`
	From    sendgridAddress `json:"from"`
	Subject string          `json:"subject"`
	Content []struct {
		Type  string `json:"type"`
		Value string `json:"value"`
	} `json:"content"`
}

func (m *sendgridMailer) SendInvite(ctx context.Context, founderEmail, inviteURL string, expiresAt time.Time) error {
	payload := sendgridPayload{
		From:    sendgridAddress{Email: m.fromEmail, Name: m.fromName},
		Subject: "You're invited to a founder conversation",
	}
	payload.Personalizations = append(payload.Personalizations, struct {
		To []sendgridAddress `json:"to"`
	}{To: []sendgridAddress{{Email: founderEmail}}})
	payload.Content = append(payload.Content, struct {
		Type  string `json:"type"`
		Value string `json:"value"`
	}{
		Type: "text/plain",
		Value: fmt.Sprintf(
			"You have been invited to a founder chat.\n\nJoin here: %s\n\nThis link expires at %s.",
			inviteURL, expiresAt.UTC().Format(time.RFC3339),
		),
	})

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal sendgrid payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+"/v3/mail/send", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build sendgrid request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+m.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("send invite email: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("sendgrid responded %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}
	m.log.Info("Founder invite emailed", "to", founderEmail)
	return nil
}
