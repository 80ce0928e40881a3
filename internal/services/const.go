package services

import (
	"fmt"
	"time"
)

const (
	ChannelWelcome       = "bienvenida"
	ChannelGeneral       = "charla-general"
	ChannelIntroductions = "presentaciones"
	ChannelLevelUp       = "level-up"
	ChannelRanking       = "ranking"
	ChannelFreeClasses   = "clases-grupales"
	ChannelPaidClasses   = "clases-exclusivas"
	ChannelAdvisory      = "asesorias-personales"
	ChannelWeeklyRoutine = "rutina-semanal"
)

const (
	ChampionRolePrefix = "🏆 Campeón de la Semana #"
	ChampionRoleColor  = 0xFFD700

	// Weekly top DMs are skipped on small servers where everyone can
	// already see the ranking channel.
	MinMembersForTopDMs = 15

	RankingSize = 10

	InactivityCutoff = 7 * 24 * time.Hour

	championCounterName = "champion_week"
)

const (
	msgLevelUp      = "🎉 ¡Enhorabuena <@%s>, has subido a **Nivel %d**! Tu nuevo rol es **%s**."
	msgWelcome      = "💪 ¡Bienvenido <@%s> a la academia! Pásate por #%s y preséntate. Cada mensaje, rutina y foto de progreso te da XP."
	msgChampion     = "👑 ¡Felicidades <@%s>! Eres el **Campeón de la Semana #%d** con **%d XP**. A defender el título. 🏆"
	msgTopDM        = "🔥 ¡Terminaste la semana en el puesto **#%d** con **%d XP**! Sigue así."
	msgInactivity   = "👋 ¡Hola! Hace una semana que no te vemos por la academia. Tus músculos te extrañan. ¡Vuelve y gana XP! 💪"
	msgAdvisory     = "📅 ¿Ya reservaste tu asesoría personal? Escríbenos en #%s y agenda tu sesión. 🧠💪"
	msgClassRemind  = "@everyone 🚨 ¡Recordatorio! La clase de **%s** es en %s (%s UTC). ¡No faltes!"
	msgCoachOffline = "🤯 Uff, mi cerebro tuvo un cortocircuito. Inténtalo de nuevo en un momento."
)

const (
	cacheTTLProfile = 5 * time.Minute
)

// InactivityMessage is the DM sent to members silent for a week.
func InactivityMessage() string {
	return msgInactivity
}

// AdvisoryMessage is the periodic advisory-channel nudge.
func AdvisoryMessage() string {
	return fmt.Sprintf(msgAdvisory, ChannelAdvisory)
}

func DBKeyUserProgress(userID string) string {
	return fmt.Sprintf("calistenia:user_progress:%s", userID)
}

func LockKeyWeeklyRanking() string {
	return "calistenia:lock:weekly_ranking"
}

func LimitKeyCoach(userID string) string {
	return fmt.Sprintf("calistenia:limit:coach:%s", userID)
}

// coachSystemPrompt is the persona every coach reply is generated
// under. Spanish only, short answers, no medical advice.
const coachSystemPrompt = `Eres "Coach Calistenia", el entrenador virtual de una academia de calistenia en Discord. ` +
	`Respondes SIEMPRE en español, con energía y motivación, usando emojis con moderación. ` +
	`Das consejos prácticos de calistenia, progresiones de ejercicios, técnica, nutrición básica y hábitos. ` +
	`Respuestas breves y accionables (máximo 3 párrafos). ` +
	`No das consejos médicos: ante lesiones o dolor, recomiendas consultar a un profesional de la salud.`
