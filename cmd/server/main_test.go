package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hongminglow/servicedesk-be/internal/auth"
	"github.com/hongminglow/servicedesk-be/internal/models"
)

func TestNewAdmin(t *testing.T) {
	u, err := newAdmin(" root ", "root@example.com", "", "long-enough")
	require.NoError(t, err)
	assert.Equal(t, "root", u.Username)
	assert.Equal(t, "root", u.DisplayName)
	assert.Equal(t, models.RoleAdmin, u.Role)
	assert.True(t, u.Active)
	assert.NoError(t, auth.CheckPassword(u.PasswordHash, "long-enough"))

	_, err = newAdmin("root", "root@example.com", "", "short")
	assert.Error(t, err)

	_, err = newAdmin("", "root@example.com", "", "long-enough")
	assert.Error(t, err)
}

func TestDatabaseURLRequired(t *testing.T) {
	t.Setenv("DATABASE_URL", " ")
	_, err := databaseURL()
	assert.EqualError(t, err, "DATABASE_URL is required")
}

func TestCommandTree(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["serve"])
	assert.True(t, names["migrate"])
	assert.True(t, names["create-admin"])

	t.Setenv("DATABASE_URL", "")
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs([]string{"migrate", "down", "zero"})
	err := rootCmd.Execute()
	assert.Error(t, err)
}
