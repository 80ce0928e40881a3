package progression

import (
	"fmt"
	"strings"
)

// RookieTitle covers levels 1-9.
const RookieTitle = "Rookie 🐣"

const (
	qualifierDisciplined = "DISCIPLINADO"
	qualifierAdvanced    = "CALISTÉNICO"
)

// tierTitles maps each base tier (multiple of 10) to its role title.
// Tiers beyond 200 fall back to a generated "Nivel N" name.
var tierTitles = map[int]string{
	10:  "ESPARTANO ⚔️",
	20:  "GUERRERO 🔥",
	30:  "TITÁN 💪",
	40:  "LEYENDA 🏆",
	50:  "DIOS DE LA BARRA 🌌",
	60:  "JAGUAR ÁGIL 🐆",
	70:  "FÉNIX RENACIDO 🔥🦅",
	80:  "CAMPEÓN DEL HIERRO 🏋️‍♂️",
	90:  "BESTIA INDOMABLE 🐺",
	100: "MAESTRO ABSOLUTO 👑",
	110: "GLADIADOR DE ACERO 🛡️",
	120: "HÉROE DE LA COMUNIDAD 🌟",
	130: "CONQUISTADOR DE LÍMITES 🚀",
	140: "ATLETA DE ÉLITE 🥇",
	150: "FUERZA DE LA NATURALEZA 🌪️",
	160: "MENTOR INSPIRADOR ✨",
	170: "ICONO DEL FITNESS 💥",
	180: "CAMPEÓN CELESTIAL 💫",
	190: "PODER ENCARNADO ⚡",
	200: "LEYENDA SUPREMA 🔱",
}

// colorPalette cycles across tiers, indexed by (tier/10 - 1) mod 12.
var colorPalette = []int{
	0x3498DB, // blue
	0x2ECC71, // green
	0xE67E22, // orange
	0x9B59B6, // purple
	0xE74C3C, // red
	0xF1C40F, // gold
	0x1ABC9C, // teal
	0xE91E63, // magenta
	0x1F8B4C, // dark green
	0x206694, // dark blue
	0xE63C3C, // rojo intenso
	0x3CB4E6, // azul cielo
}

// RoleNameForLevel maps a level to its canonical role name. Exact multiples
// of 10 get the bare tier title; multiples of 5 append the advanced
// qualifier; everything else appends the disciplined qualifier.
func RoleNameForLevel(level int) string {
	if level < 10 {
		return RookieTitle
	}
	tier := level / 10 * 10
	base, ok := tierTitles[tier]
	if !ok {
		base = fmt.Sprintf("Nivel %d", tier)
	}
	switch {
	case level%10 == 0:
		return base
	case level%5 == 0:
		return base + " " + qualifierAdvanced
	default:
		return base + " " + qualifierDisciplined
	}
}

// ColorForLevel picks the tier color. Deterministic and cyclically
// repeating, so the palette never grows with new tiers.
func ColorForLevel(level int) int {
	tier := level / 10
	idx := ((tier-1)%len(colorPalette) + len(colorPalette)) % len(colorPalette)
	return colorPalette[idx]
}

// RoleDirective is the computed role delta for a level. Applying it is the
// gateway's job.
type RoleDirective struct {
	Name   string
	Color  int
	Remove []string
}

// Reconcile computes the role delta for a level against the roles the
// member currently holds. Remove lists every held role matching a known
// tier title except the desired one, so at most one level role survives.
// Calling it again after the directive is applied yields an empty delta.
func Reconcile(level int, held []string) RoleDirective {
	d := RoleDirective{
		Name:  RoleNameForLevel(level),
		Color: ColorForLevel(level),
	}
	for _, role := range held {
		if role == d.Name {
			continue
		}
		if matchesTierTitle(role) {
			d.Remove = append(d.Remove, role)
		}
	}
	return d
}

// matchesTierTitle uses substring matching so qualified variants
// ("ESPARTANO ⚔️ DISCIPLINADO") match their base title.
func matchesTierTitle(roleName string) bool {
	if strings.Contains(roleName, RookieTitle) {
		return true
	}
	for _, base := range tierTitles {
		if strings.Contains(roleName, base) {
			return true
		}
	}
	return false
}
