// pkg/email/email.go
package email

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

// Mailer is the outbound transport used by the notification dispatcher and
// the campaign engine. Send reports success; transient failures are logged
// by the implementation and surface as false, never as a panic.
type Mailer interface {
	Send(to, subject, htmlBody string) bool
}

type resendPayload struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	Html    string `json:"html"`
}

// ResendMailer delivers HTML email through the Resend HTTP API.
type ResendMailer struct {
	apiKey string
	from   string
	client *http.Client
}

func NewResendMailer(apiKey, fromName, fromEmail string) (*ResendMailer, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("resend API key is required")
	}

	return &ResendMailer{
		apiKey: apiKey,
		from:   fmt.Sprintf("%s <%s>", fromName, fromEmail),
		client: &http.Client{Timeout: 30 * time.Second},
	}, nil
}

func (m *ResendMailer) Send(to, subject, htmlBody string) bool {
	payload := resendPayload{
		From:    m.from,
		To:      to,
		Subject: subject,
		Html:    htmlBody,
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		log.Printf("Error marshaling email data: %v", err)
		return false
	}

	req, err := http.NewRequest("POST", "https://api.resend.com/emails", bytes.NewBuffer(jsonData))
	if err != nil {
		log.Printf("Error creating email request: %v", err)
		return false
	}

	req.Header.Set("Authorization", "Bearer "+m.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		log.Printf("Error sending email to %s: %v", to, err)
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		respBody, _ := io.ReadAll(resp.Body)
		log.Printf("Resend API error: Status: %d, Body: %s", resp.StatusCode, string(respBody))
		return false
	}

	return true
}
