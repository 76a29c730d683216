package slack

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"testing"
	"time"
)

func sign(secret, timestamp string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "v0:%s:", timestamp)
	mac.Write(body)
	return "v0=" + hex.EncodeToString(mac.Sum(nil))
}

func TestVerifySignature(t *testing.T) {
	secret := "8f742231b10e8888abcd99yyyzzz85a5"
	now := time.Unix(1756600000, 0)
	timestamp := strconv.FormatInt(now.Unix(), 10)
	body := []byte("token=x&command=%2Fkudos&text=%40bob+teamwork+thanks")

	if !VerifySignature(secret, timestamp, sign(secret, timestamp, body), body, now) {
		t.Fatal("expected valid signature to verify")
	}
	if VerifySignature(secret, timestamp, sign("wrong-secret", timestamp, body), body, now) {
		t.Fatal("expected signature from wrong secret to fail")
	}
	if VerifySignature(secret, timestamp, sign(secret, timestamp, []byte("tampered")), body, now) {
		t.Fatal("expected tampered body to fail")
	}

	stale := strconv.FormatInt(now.Add(-6*time.Minute).Unix(), 10)
	if VerifySignature(secret, stale, sign(secret, stale, body), body, now) {
		t.Fatal("expected stale timestamp to fail")
	}
	if VerifySignature(secret, "not-a-number", "v0=abc", body, now) {
		t.Fatal("expected malformed timestamp to fail")
	}
	if VerifySignature("", timestamp, sign(secret, timestamp, body), body, now) {
		t.Fatal("expected missing secret to fail")
	}
}

func TestParseKudosCommand(t *testing.T) {
	cases := []struct {
		name    string
		text    string
		want    KudosCommand
		wantErr bool
	}{
		{
			"escaped mention with name",
			"<@U123ABC|bob> teamwork great job on the release",
			KudosCommand{TargetSlackID: "U123ABC", TargetName: "bob", Category: "teamwork", Message: "great job on the release"},
			false,
		},
		{
			"escaped mention without name",
			"<@U123ABC> excellence shipped it",
			KudosCommand{TargetSlackID: "U123ABC", Category: "excellence", Message: "shipped it"},
			false,
		},
		{
			"bare mention",
			"@bob helpfulness answered all my questions",
			KudosCommand{TargetName: "bob", Category: "helpfulness", Message: "answered all my questions"},
			false,
		},
		{
			"multi word message collapses whitespace",
			"@bob   leadership   led   the   launch",
			KudosCommand{TargetName: "bob", Category: "leadership", Message: "led the launch"},
			false,
		},
		{"too few tokens", "@bob teamwork", KudosCommand{}, true},
		{"empty text", "", KudosCommand{}, true},
		{"no mention", "bob teamwork nice", KudosCommand{}, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseKudosCommand(tc.text)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %+v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			if got != tc.want {
				t.Fatalf("got %+v, want %+v", got, tc.want)
			}
		})
	}
}
