package slack

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"
)

const signatureVersion = "v0"

// maxTimestampSkew bounds replay windows per Slack's signing guidance.
const maxTimestampSkew = 5 * time.Minute

// VerifySignature checks Slack's request signature: v0 HMAC-SHA256 over
// "v0:<timestamp>:<body>" with the signing secret, hex-encoded, compared in
// constant time. Requests older than the skew window are rejected outright.
func VerifySignature(signingSecret, timestamp, signature string, body []byte, now time.Time) bool {
	if signingSecret == "" || timestamp == "" || signature == "" {
		return false
	}
	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return false
	}
	age := now.Sub(time.Unix(ts, 0))
	if age > maxTimestampSkew || age < -maxTimestampSkew {
		return false
	}

	mac := hmac.New(sha256.New, []byte(signingSecret))
	fmt.Fprintf(mac, "%s:%s:", signatureVersion, timestamp)
	mac.Write(body)
	expected := signatureVersion + "=" + hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

// KudosCommand is the parsed form of "/kudos @user category message".
type KudosCommand struct {
	TargetSlackID string
	TargetName    string
	Category      string
	Message       string
}

// ParseKudosCommand splits the slash-command text: first token is the target
// mention, second the category, the rest joins into the message. Mentions
// arrive either escaped ("<@U123|name>") or as a bare "@name".
func ParseKudosCommand(text string) (KudosCommand, error) {
	fields := strings.Fields(text)
	if len(fields) < 3 {
		return KudosCommand{}, fmt.Errorf("usage: /kudos @user category message")
	}

	cmd := KudosCommand{
		Category: fields[1],
		Message:  strings.Join(fields[2:], " "),
	}

	mention := fields[0]
	switch {
	case strings.HasPrefix(mention, "<@") && strings.HasSuffix(mention, ">"):
		inner := mention[2 : len(mention)-1]
		if idx := strings.IndexByte(inner, '|'); idx >= 0 {
			cmd.TargetSlackID = inner[:idx]
			cmd.TargetName = inner[idx+1:]
		} else {
			cmd.TargetSlackID = inner
		}
	case strings.HasPrefix(mention, "@"):
		cmd.TargetName = mention[1:]
	default:
		return KudosCommand{}, fmt.Errorf("first argument must mention the recipient")
	}
	if cmd.TargetSlackID == "" && cmd.TargetName == "" {
		return KudosCommand{}, fmt.Errorf("first argument must mention the recipient")
	}
	return cmd, nil
}

// Client talks to the Slack Web API for outbound messages.
type Client struct {
	http     *resty.Client
	botToken string
}

func NewClient(botToken string) *Client {
	return &Client{
		http:     resty.New().SetBaseURL("https://slack.com/api").SetTimeout(10 * time.Second),
		botToken: botToken,
	}
}

// PostMessage sends a message to a channel or user DM. Slack reports API
// failures inside a 200 response, so the body's ok flag is the real status.
func (c *Client) PostMessage(ctx context.Context, channel, text string) error {
	if c.botToken == "" {
		return nil
	}
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(c.botToken).
		SetBody(map[string]string{"channel": channel, "text": text}).
		Post("/chat.postMessage")
	if err != nil {
		return err
	}
	body := resp.String()
	if !gjson.Get(body, "ok").Bool() {
		return fmt.Errorf("slack chat.postMessage failed: %s", gjson.Get(body, "error").String())
	}
	return nil
}

// LookupUserEmail resolves a Slack user id to the profile email, used to
// match Slack identities against org users that have no stored mapping yet.
func (c *Client) LookupUserEmail(ctx context.Context, slackUserID string) (string, error) {
	if c.botToken == "" {
		return "", fmt.Errorf("slack bot token not configured")
	}
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(c.botToken).
		SetQueryParam("user", slackUserID).
		Get("/users.info")
	if err != nil {
		return "", err
	}
	body := resp.String()
	if !gjson.Get(body, "ok").Bool() {
		return "", fmt.Errorf("slack users.info failed: %s", gjson.Get(body, "error").String())
	}
	return gjson.Get(body, "user.profile.email").String(), nil
}
