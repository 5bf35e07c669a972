package cache

import (
	"context"
	"strings"
	"time"
)

// Dedup is a time-windowed key store gating escalation notifications.
// A key past its TTL must never be reported present; an occasional
// duplicate send under concurrent scans is tolerated, a key reported
// present before Put is not.
type Dedup interface {
	Contains(ctx context.Context, key string) (bool, error)
	Put(ctx context.Context, key string, ttl time.Duration) error
}

// ViolationKey builds the composite suppression key for one recipient
// and one specific violation.
func ViolationKey(recipientID, ticketID, workflowID, eventName, targetStateID, jobName string) string {
	return strings.Join([]string{recipientID, ticketID, workflowID, eventName, targetStateID, jobName}, "|")
}
