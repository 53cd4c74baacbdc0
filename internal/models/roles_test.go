package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseRole(t *testing.T) {
	cases := map[string]Role{
		"admin":    RoleAdmin,
		" ADMIN ":  RoleAdmin,
		"Admin":    RoleAdmin,
		"standard": RoleStandard,
		"root":     RoleStandard,
		"":         RoleStandard,
		"admins":   RoleStandard,
	}
	for raw, want := range cases {
		assert.Equal(t, want, ParseRole(raw), "%q", raw)
	}
}
