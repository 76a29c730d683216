package notifications

import (
	"context"
	"fmt"
)

// Mailer delivers a single plain-text email.
type Mailer interface {
	Send(ctx context.Context, from, to, subject, body string) error
}

func KudosReceivedMessage(fromName, category, message string) (string, string) {
	subject := fmt.Sprintf("You received kudos from %s", fromName)
	body := fmt.Sprintf("%s sent you kudos for %s:\n\n%q\n\nKeep it up!", fromName, category, message)
	return subject, body
}

func SurveyPublishedMessage(title, link string) (string, string) {
	subject := fmt.Sprintf("New survey: %s", title)
	body := fmt.Sprintf("A new survey %q is open for responses.\n\nRespond here: %s", title, link)
	return subject, body
}

func EvaluationSharedMessage(cycleName, link string) (string, string) {
	subject := "Your performance evaluation is ready"
	body := fmt.Sprintf("Your evaluation for %s has been shared with you.\n\nView it here: %s", cycleName, link)
	return subject, body
}

func CheckInReminderMessage(link string) (string, string) {
	subject := "Weekly check-in reminder"
	body := fmt.Sprintf("You have not submitted a check-in for this week yet.\n\nSubmit it here: %s", link)
	return subject, body
}
