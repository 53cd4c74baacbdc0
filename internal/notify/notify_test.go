package notify

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hongminglow/servicedesk-be/internal/logs"
	"github.com/hongminglow/servicedesk-be/internal/models"
)

func TestLogNotifierHidesTokenAtInfo(t *testing.T) {
	var buf bytes.Buffer
	n := NewLogNotifier(logs.New(logs.Options{Level: "info", Format: "json", Output: &buf}))

	err := n.PasswordReset(context.Background(), models.User{ID: 1, Email: "ana@example.com"}, "0123456789abcdef", time.Now())
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `"token_prefix":"01234567"`)
	assert.NotContains(t, buf.String(), "0123456789abcdef")
}
