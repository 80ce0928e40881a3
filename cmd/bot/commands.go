package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"calistenia/internal/config"
	"calistenia/internal/interfaces"
	"calistenia/internal/models"
	"calistenia/internal/progression"
	"calistenia/internal/services"
	apperrors "calistenia/pkg/errors"
	"calistenia/pkg/logger"

	"github.com/bwmarrin/discordgo"
	"github.com/samber/do"
)

const handlerTimeout = 30 * time.Second

// bot wires the gateway events to the services.
type bot struct {
	container *do.Injector
	cfg       *config.Config

	serviceProgress *services.ServiceProgress
	serviceClass    *services.ServiceClass
	serviceCoach    *services.ServiceCoach
	gateway         interfaces.Gateway
}

func newBot(container *do.Injector) (*bot, error) {
	cfg, err := do.Invoke[*config.Config](container)
	if err != nil {
		return nil, err
	}
	serviceProgress, err := do.Invoke[*services.ServiceProgress](container)
	if err != nil {
		return nil, err
	}
	serviceClass, err := do.Invoke[*services.ServiceClass](container)
	if err != nil {
		return nil, err
	}
	serviceCoach, err := do.Invoke[*services.ServiceCoach](container)
	if err != nil {
		return nil, err
	}
	gw, err := do.Invoke[interfaces.Gateway](container)
	if err != nil {
		return nil, err
	}

	return &bot{
		container:       container,
		cfg:             cfg,
		serviceProgress: serviceProgress,
		serviceClass:    serviceClass,
		serviceCoach:    serviceCoach,
		gateway:         gw,
	}, nil
}

func (b *bot) register(session *discordgo.Session) {
	session.AddHandler(b.onMessageCreate)
	session.AddHandler(b.onGuildMemberAdd)
}

func (b *bot) onGuildMemberAdd(s *discordgo.Session, m *discordgo.GuildMemberAdd) {
	if m.User == nil || m.User.Bot {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()
	if err := b.serviceProgress.Welcome(ctx, m.User.ID); err != nil {
		logger.WithFields(map[string]interface{}{"user_id": m.User.ID, "error": err}).Error("welcome")
	}
}

func (b *bot) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot || m.GuildID == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	// Every human message earns XP, commands included.
	event := progression.MessageEvent{
		Content:     m.Content,
		Attachments: len(m.Attachments),
	}
	if _, err := b.serviceProgress.HandleMessage(ctx, m.Author.ID, event); err != nil {
		logger.WithFields(map[string]interface{}{"user_id": m.Author.ID, "error": err}).Error("handle message")
	}

	if !strings.HasPrefix(m.Content, "!") {
		return
	}
	command, args, _ := strings.Cut(strings.TrimPrefix(m.Content, "!"), " ")
	args = strings.TrimSpace(args)

	reply := func(text string) {
		if _, err := s.ChannelMessageSend(m.ChannelID, text); err != nil {
			logger.WithFields(map[string]interface{}{"channel_id": m.ChannelID, "error": err}).Error("reply")
		}
	}

	switch strings.ToLower(command) {
	case "nivel":
		b.cmdNivel(ctx, m, reply)
	case "calistenico":
		b.cmdCalistenico(ctx, m, args, reply)
	case "clases":
		b.cmdClases(ctx, reply)
	case "help":
		reply(helpText)
	case "adminhelp":
		if b.requireAdmin(s, m, reply) {
			reply(adminHelpText)
		}
	case "setup":
		if b.requireAdmin(s, m, reply) {
			b.cmdSetup(ctx, reply)
		}
	case "clase_gratis":
		if b.requireAdmin(s, m, reply) {
			b.cmdSchedule(ctx, models.ClassCategoryFree, args, reply)
		}
	case "clase_premium":
		if b.requireAdmin(s, m, reply) {
			b.cmdSchedule(ctx, models.ClassCategoryPremium, args, reply)
		}
	case "test_xp":
		if b.requireAdmin(s, m, reply) {
			b.cmdTestXP(ctx, m, args, reply)
		}
	}
}

// isAdmin grants access by the configured admin role or, failing that,
// by the guild administrator permission.
func isAdmin(adminRoleID string, memberRoles []string, perms int64) bool {
	if adminRoleID != "" {
		for _, roleID := range memberRoles {
			if roleID == adminRoleID {
				return true
			}
		}
	}
	return perms&discordgo.PermissionAdministrator != 0
}

func (b *bot) requireAdmin(s *discordgo.Session, m *discordgo.MessageCreate, reply func(string)) bool {
	var memberRoles []string
	if m.Member != nil {
		memberRoles = m.Member.Roles
	}
	perms, err := s.State.MessagePermissions(m.Message)
	if err != nil {
		logger.WithFields(map[string]interface{}{"user_id": m.Author.ID, "error": err}).Warn("resolve permissions")
	}
	if isAdmin(b.cfg.AdminRoleID, memberRoles, perms) {
		return true
	}
	reply("🚫 Este comando es solo para administradores.")
	return false
}

func (b *bot) cmdNivel(ctx context.Context, m *discordgo.MessageCreate, reply func(string)) {
	line, err := b.serviceProgress.ProfileLine(ctx, m.Author.ID)
	if err != nil {
		logger.WithFields(map[string]interface{}{"user_id": m.Author.ID, "error": err}).Error("nivel")
		reply("❌ No pude consultar tu nivel, inténtalo de nuevo.")
		return
	}
	reply(line)
}

func (b *bot) cmdCalistenico(ctx context.Context, m *discordgo.MessageCreate, question string, reply func(string)) {
	if !b.serviceCoach.Enabled() {
		reply("🤖 El coach virtual no está disponible en este servidor.")
		return
	}
	if question == "" {
		reply("🤔 Hazme una pregunta: `!calistenico ¿cómo mejoro mis dominadas?`")
		return
	}
	answer, err := b.serviceCoach.Ask(ctx, m.Author.ID, question)
	if err != nil {
		if apperrors.CodeOf(err) == apperrors.ErrRateLimited {
			reply("⏳ Tranquilo, campeón. Espera un momento antes de otra pregunta.")
			return
		}
		logger.WithFields(map[string]interface{}{"user_id": m.Author.ID, "error": err}).Error("coach")
		reply(services.FallbackReply())
		return
	}
	reply(answer)
}

func (b *bot) cmdClases(ctx context.Context, reply func(string)) {
	text, err := b.serviceClass.UpcomingText(ctx)
	if err != nil {
		logger.WithFields(map[string]interface{}{"error": err}).Error("clases")
		reply("❌ No pude listar las clases, inténtalo de nuevo.")
		return
	}
	reply(text)
}

func (b *bot) cmdSchedule(ctx context.Context, category, args string, reply func(string)) {
	at, err := time.ParseInLocation("2006-01-02 15:04", args, time.UTC)
	if err != nil {
		reply("❌ Formato inválido. Usa: `AAAA-MM-DD HH:MM`")
		return
	}
	class, err := b.serviceClass.Schedule(ctx, category, at)
	if err != nil {
		if apperrors.CodeOf(err) == apperrors.ErrInvalidInput {
			reply("❌ " + err.Error())
			return
		}
		logger.WithFields(map[string]interface{}{"error": err}).Error("schedule class")
		reply("❌ No pude guardar la clase, inténtalo de nuevo.")
		return
	}
	reply(fmt.Sprintf("✅ Clase **%s** programada para **%s UTC**.", class.Category, class.ScheduledAt.UTC().Format("2006-01-02 15:04")))
}

func (b *bot) cmdTestXP(ctx context.Context, m *discordgo.MessageCreate, args string, reply func(string)) {
	target, amountRaw, ok := strings.Cut(args, " ")
	if !ok {
		reply("❌ Uso: `!test_xp @usuario cantidad`")
		return
	}
	userID := strings.Trim(target, "<@!>")
	amount, err := strconv.Atoi(strings.TrimSpace(amountRaw))
	if err != nil || amount <= 0 {
		reply("❌ La cantidad debe ser un número positivo.")
		return
	}
	applied, err := b.serviceProgress.GrantXP(ctx, userID, amount)
	if err != nil {
		logger.WithFields(map[string]interface{}{"user_id": userID, "error": err}).Error("test xp")
		reply("❌ No pude otorgar el XP.")
		return
	}
	reply(fmt.Sprintf("✅ <@%s> ahora tiene **%d XP** (Nivel %d).", userID, applied.XP, applied.Level))
}

func (b *bot) cmdSetup(ctx context.Context, reply func(string)) {
	err := b.gateway.EnsureStructure(ctx, []interfaces.CategorySpec{
		{Name: "📜 INFORMACIÓN", Channels: []string{services.ChannelWelcome, "reglas", "anuncios", services.ChannelLevelUp, services.ChannelRanking}},
		{Name: "🏋️ ENTRENAMIENTO", Channels: []string{services.ChannelWeeklyRoutine, "videos-explicativos", "progresos"}},
		{Name: "💬 COMUNIDAD", Channels: []string{services.ChannelGeneral, services.ChannelIntroductions, "💬-banquito"}},
		{Name: "💎 PREMIUM", Channels: []string{services.ChannelFreeClasses, services.ChannelAdvisory, services.ChannelPaidClasses}},
		{Name: "🎤 ZONAS DE VOZ", Channels: []string{"🎤-parque-de-barras"}, Voice: true},
	})
	if err != nil {
		logger.WithFields(map[string]interface{}{"error": err}).Error("setup")
		reply("❌ No pude crear la estructura del servidor.")
		return
	}
	reply("✅ Estructura del servidor lista.")
}

const helpText = "📖 **Comandos disponibles:**\n" +
	"• `!nivel` — tu nivel, XP y rol actual\n" +
	"• `!calistenico <pregunta>` — pregúntale al coach virtual\n" +
	"• `!clases` — próximas clases programadas\n" +
	"• `!help` — esta ayuda"

const adminHelpText = "🛠️ **Comandos de administración:**\n" +
	"• `!setup` — crea las categorías y canales de la academia\n" +
	"• `!clase_gratis AAAA-MM-DD HH:MM` — programa una clase grupal\n" +
	"• `!clase_premium AAAA-MM-DD HH:MM` — programa una clase exclusiva\n" +
	"• `!test_xp @usuario cantidad` — otorga XP de prueba"
