package dingtalk

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Client posts markdown messages to a DingTalk robot webhook.
type Client struct {
	webhook    string
	secret     string
	httpClient *http.Client
	now        func() time.Time
}

// APIError is a delivered request the robot refused.
type APIError struct {
	Code int
	Msg  string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("dingtalk errcode=%d errmsg=%s", e.Code, e.Msg)
}

type response struct {
	ErrCode int    `json:"errcode"`
	ErrMsg  string `json:"errmsg"`
}

type markdownMessage struct {
	MsgType  string       `json:"msgtype"`
	Markdown markdownBody `json:"markdown"`
}

type markdownBody struct {
	Title string `json:"title"`
	Text  string `json:"text"`
}

func NewClient(webhook, secret string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		webhook:    webhook,
		secret:     secret,
		httpClient: &http.Client{Timeout: timeout},
		now:        time.Now,
	}
}

func (c *Client) Enabled() bool {
	return c != nil && c.webhook != ""
}

func (c *Client) SendMarkdown(ctx context.Context, title, markdown string) error {
	if !c.Enabled() {
		return fmt.Errorf("dingtalk webhook is empty")
	}

	body, err := json.Marshal(markdownMessage{
		MsgType:  "markdown",
		Markdown: markdownBody{Title: title, Text: markdown},
	})
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	endpoint, err := c.signedURL()
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("dingtalk http %d", resp.StatusCode)
	}

	var out response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if out.ErrCode != 0 {
		return &APIError{Code: out.ErrCode, Msg: out.ErrMsg}
	}
	return nil
}

func (c *Client) signedURL() (string, error) {
	if c.secret == "" {
		return c.webhook, nil
	}

	ts := c.now().UnixMilli()
	signature := sign(fmt.Sprintf("%d\n%s", ts, c.secret), c.secret)

	u, err := url.Parse(c.webhook)
	if err != nil {
		return "", fmt.Errorf("invalid webhook url: %w", err)
	}
	q := u.Query()
	q.Set("timestamp", strconv.FormatInt(ts, 10))
	q.Set("sign", signature)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func sign(message, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = mac.Write([]byte(message))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}
