package gateway

import (
	"context"
	"strings"
	"sync"

	"calistenia/internal/interfaces"
	"calistenia/internal/models"
	"calistenia/internal/progression"
	apperrors "calistenia/pkg/errors"

	"github.com/bwmarrin/discordgo"
)

// DiscordGateway adapts a discordgo session to the interfaces.Gateway
// surface. Channel and role lookups go by name; IDs are cached per
// guild and refreshed on miss.
type DiscordGateway struct {
	session *discordgo.Session
	guildID string

	mu       sync.Mutex
	channels map[string]string // name -> id
}

func NewDiscordGateway(session *discordgo.Session, guildID string) *DiscordGateway {
	return &DiscordGateway{
		session:  session,
		guildID:  guildID,
		channels: map[string]string{},
	}
}

func (g *DiscordGateway) guild() (string, error) {
	if g.guildID != "" {
		return g.guildID, nil
	}
	guilds := g.session.State.Guilds
	if len(guilds) == 0 {
		return "", apperrors.New(apperrors.ErrService, "not connected to any guild", nil)
	}
	g.guildID = guilds[0].ID
	return g.guildID, nil
}

func (g *DiscordGateway) channelID(name string) (string, error) {
	g.mu.Lock()
	if id, ok := g.channels[name]; ok {
		g.mu.Unlock()
		return id, nil
	}
	g.mu.Unlock()

	guildID, err := g.guild()
	if err != nil {
		return "", err
	}
	channels, err := g.session.GuildChannels(guildID)
	if err != nil {
		return "", apperrors.New(apperrors.ErrService, "list channels", err)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, ch := range channels {
		if ch.Type == discordgo.ChannelTypeGuildText {
			g.channels[ch.Name] = ch.ID
		}
	}
	id, ok := g.channels[name]
	if !ok {
		return "", apperrors.New(apperrors.ErrService, "channel not found: "+name, nil)
	}
	return id, nil
}

func (g *DiscordGateway) SendChannel(ctx context.Context, channel, text string) error {
	id, err := g.channelID(channel)
	if err != nil {
		return err
	}
	_, err = g.session.ChannelMessageSend(id, text, discordgo.WithContext(ctx))
	if err != nil {
		return apperrors.New(apperrors.ErrService, "send message", err)
	}
	return nil
}

func (g *DiscordGateway) SendEmbed(ctx context.Context, channel string, embed *models.Embed) error {
	id, err := g.channelID(channel)
	if err != nil {
		return err
	}
	out := &discordgo.MessageEmbed{
		Title:       embed.Title,
		Description: embed.Description,
		Color:       embed.Color,
	}
	for _, f := range embed.Fields {
		out.Fields = append(out.Fields, &discordgo.MessageEmbedField{
			Name:   f.Name,
			Value:  f.Value,
			Inline: f.Inline,
		})
	}
	if embed.Footer != "" {
		out.Footer = &discordgo.MessageEmbedFooter{Text: embed.Footer}
	}
	_, err = g.session.ChannelMessageSendEmbed(id, out, discordgo.WithContext(ctx))
	if err != nil {
		return apperrors.New(apperrors.ErrService, "send embed", err)
	}
	return nil
}

func (g *DiscordGateway) SendDM(ctx context.Context, userID, text string) error {
	dm, err := g.session.UserChannelCreate(userID, discordgo.WithContext(ctx))
	if err != nil {
		return apperrors.New(apperrors.ErrService, "open dm", err)
	}
	_, err = g.session.ChannelMessageSend(dm.ID, text, discordgo.WithContext(ctx))
	if err != nil {
		return apperrors.New(apperrors.ErrService, "send dm", err)
	}
	return nil
}

func (g *DiscordGateway) roles(ctx context.Context) (string, []*discordgo.Role, error) {
	guildID, err := g.guild()
	if err != nil {
		return "", nil, err
	}
	roles, err := g.session.GuildRoles(guildID, discordgo.WithContext(ctx))
	if err != nil {
		return "", nil, apperrors.New(apperrors.ErrService, "list roles", err)
	}
	return guildID, roles, nil
}

func (g *DiscordGateway) MemberRoleNames(ctx context.Context, userID string) ([]string, error) {
	guildID, roles, err := g.roles(ctx)
	if err != nil {
		return nil, err
	}
	member, err := g.session.GuildMember(guildID, userID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, apperrors.New(apperrors.ErrService, "fetch member", err)
	}
	byID := make(map[string]string, len(roles))
	for _, r := range roles {
		byID[r.ID] = r.Name
	}
	names := make([]string, 0, len(member.Roles))
	for _, id := range member.Roles {
		if name, ok := byID[id]; ok {
			names = append(names, name)
		}
	}
	return names, nil
}

// ensureRole finds a role by exact name, creating it when absent. A
// zero color on an existing role gets patched so roles created by hand
// still pick up the palette.
func (g *DiscordGateway) ensureRole(ctx context.Context, guildID string, roles []*discordgo.Role, name string, color int, mentionable bool) (*discordgo.Role, error) {
	for _, r := range roles {
		if r.Name == name {
			if r.Color == 0 && color != 0 {
				edited, err := g.session.GuildRoleEdit(guildID, r.ID, &discordgo.RoleParams{
					Name:  name,
					Color: &color,
				}, discordgo.WithContext(ctx))
				if err != nil {
					return nil, apperrors.New(apperrors.ErrService, "recolor role", err)
				}
				return edited, nil
			}
			return r, nil
		}
	}
	created, err := g.session.GuildRoleCreate(guildID, &discordgo.RoleParams{
		Name:        name,
		Color:       &color,
		Mentionable: &mentionable,
	}, discordgo.WithContext(ctx))
	if err != nil {
		return nil, apperrors.New(apperrors.ErrService, "create role", err)
	}
	return created, nil
}

func (g *DiscordGateway) ApplyRoleDirective(ctx context.Context, userID string, directive progression.RoleDirective) error {
	guildID, roles, err := g.roles(ctx)
	if err != nil {
		return err
	}
	target, err := g.ensureRole(ctx, guildID, roles, directive.Name, directive.Color, false)
	if err != nil {
		return err
	}
	if err := g.session.GuildMemberRoleAdd(guildID, userID, target.ID, discordgo.WithContext(ctx)); err != nil {
		return apperrors.New(apperrors.ErrService, "add role", err)
	}
	for _, stale := range directive.Remove {
		for _, r := range roles {
			if r.Name != stale || r.ID == target.ID {
				continue
			}
			if err := g.session.GuildMemberRoleRemove(guildID, userID, r.ID, discordgo.WithContext(ctx)); err != nil {
				return apperrors.New(apperrors.ErrService, "remove role", err)
			}
		}
	}
	return nil
}

func (g *DiscordGateway) AssignNamedRole(ctx context.Context, userID, name string, color int, mentionable bool) error {
	guildID, roles, err := g.roles(ctx)
	if err != nil {
		return err
	}
	target, err := g.ensureRole(ctx, guildID, roles, name, color, mentionable)
	if err != nil {
		return err
	}
	if err := g.session.GuildMemberRoleAdd(guildID, userID, target.ID, discordgo.WithContext(ctx)); err != nil {
		return apperrors.New(apperrors.ErrService, "add role", err)
	}
	return nil
}

func (g *DiscordGateway) CountRolesWithPrefix(ctx context.Context, prefix string) (int, error) {
	_, roles, err := g.roles(ctx)
	if err != nil {
		return 0, err
	}
	count := 0
	for _, r := range roles {
		if strings.HasPrefix(r.Name, prefix) {
			count++
		}
	}
	return count, nil
}

func (g *DiscordGateway) MemberCount(ctx context.Context) (int, error) {
	guildID, err := g.guild()
	if err != nil {
		return 0, err
	}
	guild, err := g.session.State.Guild(guildID)
	if err == nil && guild.MemberCount > 0 {
		return guild.MemberCount, nil
	}
	fetched, err := g.session.GuildWithCounts(guildID, discordgo.WithContext(ctx))
	if err != nil {
		return 0, apperrors.New(apperrors.ErrService, "fetch guild", err)
	}
	return fetched.ApproximateMemberCount, nil
}

func (g *DiscordGateway) EnsureStructure(ctx context.Context, categories []interfaces.CategorySpec) error {
	guildID, err := g.guild()
	if err != nil {
		return err
	}
	channels, err := g.session.GuildChannels(guildID)
	if err != nil {
		return apperrors.New(apperrors.ErrService, "list channels", err)
	}
	existingCategories := map[string]string{}
	existingChannels := map[string]bool{}
	for _, ch := range channels {
		switch ch.Type {
		case discordgo.ChannelTypeGuildCategory:
			existingCategories[ch.Name] = ch.ID
		default:
			existingChannels[ch.Name] = true
		}
	}
	for _, cat := range categories {
		parentID, ok := existingCategories[cat.Name]
		if !ok {
			created, err := g.session.GuildChannelCreateComplex(guildID, discordgo.GuildChannelCreateData{
				Name: cat.Name,
				Type: discordgo.ChannelTypeGuildCategory,
			}, discordgo.WithContext(ctx))
			if err != nil {
				return apperrors.New(apperrors.ErrService, "create category "+cat.Name, err)
			}
			parentID = created.ID
		}
		kind := discordgo.ChannelTypeGuildText
		if cat.Voice {
			kind = discordgo.ChannelTypeGuildVoice
		}
		for _, name := range cat.Channels {
			if existingChannels[name] {
				continue
			}
			created, err := g.session.GuildChannelCreateComplex(guildID, discordgo.GuildChannelCreateData{
				Name:     name,
				Type:     kind,
				ParentID: parentID,
			}, discordgo.WithContext(ctx))
			if err != nil {
				return apperrors.New(apperrors.ErrService, "create channel "+name, err)
			}
			if kind == discordgo.ChannelTypeGuildText {
				g.mu.Lock()
				g.channels[name] = created.ID
				g.mu.Unlock()
			}
		}
	}
	return nil
}
