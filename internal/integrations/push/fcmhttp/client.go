package fcmhttp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/krishn-cti/remit-go/internal/integrations/push"
	"github.com/pkg/errors"
)

type Client struct {
	baseURL   string
	serverKey string
	httpc     *http.Client
}

func New(baseURL, serverKey string) *Client {
	if baseURL == "" {
		baseURL = "https://fcm.googleapis.com"
	}
	return &Client{
		baseURL:   baseURL,
		serverKey: serverKey,
		httpc: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type fcmNotification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	Sound string `json:"sound"`
}

type fcmRequest struct {
	To           string            `json:"to"`
	Notification fcmNotification   `json:"notification"`
	Data         map[string]string `json:"data,omitempty"`
}

type fcmResponse struct {
	Success int `json:"success"`
	Failure int `json:"failure"`
	Results []struct {
		Error string `json:"error"`
	} `json:"results"`
}

func (c *Client) Send(ctx context.Context, msg push.Message) error {
	if msg.Token == "" {
		return errors.New("push token is empty")
	}

	u, err := url.Parse(c.baseURL)
	if err != nil {
		return errors.Wrap(err, "parse base url")
	}
	u.Path = "/fcm/send"

	body, err := json.Marshal(fcmRequest{
		To: msg.Token,
		Notification: fcmNotification{
			Title: msg.Title,
			Body:  msg.Body,
			Sound: "default",
		},
		Data: msg.Data,
	})
	if err != nil {
		return errors.Wrap(err, "marshal fcm request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, "new request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "key="+c.serverKey)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return errors.Wrap(err, "do request")
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("fcm http %d", resp.StatusCode)
	}

	var r fcmResponse
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return errors.Wrap(err, "decode")
	}
	if r.Failure > 0 {
		reason := "unknown"
		if len(r.Results) > 0 && r.Results[0].Error != "" {
			reason = r.Results[0].Error
		}
		return fmt.Errorf("fcm delivery failed: %s", reason)
	}

	return nil
}
