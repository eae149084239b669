// Package notify delivers one-time codes to administrators. Delivery is
// best-effort; code generation never depends on it succeeding.
package notify

import (
	"context"
	"log"
)

type Notifier interface {
	Send(ctx context.Context, destination, code string) error
}

// LogNotifier writes the code to the process log. Production would swap in
// an email or SMS sender behind the same interface.
type LogNotifier struct{}

func (LogNotifier) Send(_ context.Context, destination, code string) error {
	log.Printf("admin otp for %s: %s", destination, code)
	return nil
}
