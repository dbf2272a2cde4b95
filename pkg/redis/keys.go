package redis

import "strings"

const keyNamespace = "ag"

// Key families. Every key the services write starts with "ag:<family>:".
const (
	familyIdempotency = "idempotency"
	familyRateLimit   = "rate_limit"
	familySession     = "session"
	familyLock        = "lock"
	familyWebhook     = "webhook"
)

// IdempotencyKey holds a replayable response or a processed-event marker.
func (c *Client) IdempotencyKey(scope, id string) string {
	return key(familyIdempotency, scope, id)
}

func (c *Client) RateLimitKey(scope string) string {
	return key(familyRateLimit, scope)
}

// SessionKey maps a login session id to its user id.
func (c *Client) SessionKey(sessionID string) string {
	return key(familySession, sessionID)
}

func (c *Client) LockKey(name string) string {
	return key(familyLock, name)
}

// WebhookEventKey de-duplicates provider webhook deliveries.
func (c *Client) WebhookEventKey(provider, eventID string) string {
	return key(familyWebhook, provider, eventID)
}

// key joins non-blank parts under the namespace.
func key(parts ...string) string {
	var b strings.Builder
	b.WriteString(keyNamespace)
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			b.WriteByte(':')
			b.WriteString(part)
		}
	}
	return b.String()
}
