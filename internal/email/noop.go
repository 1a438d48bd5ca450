package email

import "context"

// NoopSender discards all emails. Used when SMTP is not configured.
type NoopSender struct{}

func (NoopSender) SendLeadAssigned(context.Context, string, string, string) error {
	return nil
}

func (NoopSender) SendFunnelDigest(context.Context, string, string) error {
	return nil
}

// Compile-time check that NoopSender implements Sender
var _ Sender = NoopSender{}
