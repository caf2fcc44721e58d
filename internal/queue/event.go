// Package queue defines message payloads exchanged over the message broker
// and the background consumer that delivers them.
package queue

// EmailEvent is published whenever the API needs to send mail: superadmin
// verification codes, 2FA login codes. The code is always persisted in the
// database before the event is published, so a lost message degrades to the
// user requesting a new code, never to an unusable account.
type EmailEvent struct {
	To       string `json:"to"`
	Subject  string `json:"subject"`
	HTML     string `json:"html"`
	Kind     string `json:"kind"` // "verification" | "two_factor"
	QueuedAt string `json:"queued_at"`
}
