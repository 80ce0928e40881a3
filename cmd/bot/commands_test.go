package main

import (
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
)

func TestIsAdmin(t *testing.T) {
	adminRole := "role-admin"

	assert.True(t, isAdmin(adminRole, []string{"role-a", adminRole}, 0))
	assert.False(t, isAdmin(adminRole, []string{"role-a"}, 0))
	assert.False(t, isAdmin(adminRole, nil, 0))

	// without a configured role the administrator permission decides
	assert.True(t, isAdmin("", nil, discordgo.PermissionAdministrator))
	assert.True(t, isAdmin("", []string{"role-a"}, discordgo.PermissionAdministrator|discordgo.PermissionSendMessages))
	assert.False(t, isAdmin("", []string{"role-a"}, discordgo.PermissionSendMessages))

	// the permission also grants access when the role is configured but
	// not held
	assert.True(t, isAdmin(adminRole, []string{"role-a"}, discordgo.PermissionAdministrator))
}
