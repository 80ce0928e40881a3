package interfaces

import (
	"context"

	"calistenia/internal/models"
	"calistenia/internal/progression"

	"github.com/go-redis/redis_rate/v10"
)

type Limiter interface {
	Allow(ctx context.Context, key string, limit redis_rate.Limit) error
}

// CategorySpec describes one channel category for the setup command.
type CategorySpec struct {
	Name     string
	Channels []string
	Voice    bool
}

// Gateway is the narrow surface the core needs from the messaging
// platform. The concrete implementation lives in internal/gateway.
type Gateway interface {
	// SendChannel delivers text to a channel resolved by name.
	SendChannel(ctx context.Context, channel, text string) error
	SendEmbed(ctx context.Context, channel string, embed *models.Embed) error
	// SendDM delivers a direct message; rejection (user closed DMs) is a
	// normal outcome callers log and skip.
	SendDM(ctx context.Context, userID, text string) error

	MemberRoleNames(ctx context.Context, userID string) ([]string, error)
	// ApplyRoleDirective creates/colors the desired role if needed, adds
	// membership and removes the stale tier roles. Idempotent.
	ApplyRoleDirective(ctx context.Context, userID string, directive progression.RoleDirective) error
	// AssignNamedRole creates the role if absent and adds the member.
	AssignNamedRole(ctx context.Context, userID, name string, color int, mentionable bool) error
	CountRolesWithPrefix(ctx context.Context, prefix string) (int, error)

	MemberCount(ctx context.Context) (int, error)
	EnsureStructure(ctx context.Context, categories []CategorySpec) error
}
