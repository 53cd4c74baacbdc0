// Package notify delivers account messages such as password reset links.
package notify

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/hongminglow/servicedesk-be/internal/models"
)

// Notifier hands out password reset and activation tokens.
type Notifier interface {
	PasswordReset(ctx context.Context, user models.User, token string, expiresAt time.Time) error
}

// LogNotifier writes reset notices to the application log in place of email delivery.
type LogNotifier struct {
	log logrus.FieldLogger
}

// NewLogNotifier builds a LogNotifier.
func NewLogNotifier(log logrus.FieldLogger) *LogNotifier {
	return &LogNotifier{log: log}
}

// PasswordReset logs the token for the user. Only the token prefix is logged at info level.
func (n *LogNotifier) PasswordReset(_ context.Context, user models.User, token string, expiresAt time.Time) error {
	prefix := token
	if len(prefix) > 8 {
		prefix = prefix[:8]
	}
	entry := n.log.WithFields(logrus.Fields{
		"user_id":    user.ID,
		"email":      user.Email,
		"expires_at": expiresAt.Format(time.RFC3339),
	})
	entry.WithField("token_prefix", prefix).Info("password reset issued")
	entry.WithField("token", token).Debug("password reset token")
	return nil
}
