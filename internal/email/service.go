package email

import (
	"context"
)

// Service delivers event mail. Delivery is best-effort; the dispatcher owns
// retries and metrics, the implementation just sends.
type Service interface {
	SendEventMail(ctx context.Context, to, subject, body string) error
}
