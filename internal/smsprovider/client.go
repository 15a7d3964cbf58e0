// Package smsprovider реализует клиент HTTP API провайдера SMS
// (совместимого с Twilio Messages API).
package smsprovider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/churchpad/subscription-service/internal/config"
)

type Client struct {
	accountSID string
	authToken  string
	fromNumber string
	apiURL     string
	httpClient *http.Client
}

// NewClient создает новый клиент SMS-провайдера.
func NewClient(cfg config.SMS) *Client {
	return &Client{
		accountSID: cfg.SMSAccountSID,
		authToken:  cfg.SMSAuthToken,
		fromNumber: cfg.SMSFromNumber,
		apiURL:     cfg.SMSAPIURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// SendSMS отправляет сообщение на номер получателя и возвращает
// идентификатор сообщения у провайдера.
func (c *Client) SendSMS(ctx context.Context, to, body string) (string, error) {
	const op = "smsprovider.SendSMS"

	form := url.Values{}
	form.Set("From", c.fromNumber)
	form.Set("To", to)
	form.Set("Body", body)

	endpoint := fmt.Sprintf("%s/Accounts/%s/Messages.json", c.apiURL, c.accountSID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	req.SetBasicAuth(c.accountSID, c.authToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("%s: unexpected status: %s", op, resp.Status)
	}

	var message SendMessageResponse
	if err := json.NewDecoder(resp.Body).Decode(&message); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return message.SID, nil
}
