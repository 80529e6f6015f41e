package gamedata

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gdamore/tcell/v2"

	"github.com/samdwyer/spellforge/internal/combat"
)

// damageColors is the palette for spells whose template has no color.
var damageColors = map[combat.DamageType]string{
	combat.DamageArcane:   "#AF87FF",
	combat.DamagePhysical: "#BCBCBC",
	combat.DamageFire:     "#FF5F00",
	combat.DamageIce:      "#87D7FF",
	combat.DamageDark:     "#5F00AF",
	combat.DamageLight:    "#FFFFAF",
}

// ParseHexColor converts "#RRGGBB" or the short "#RGB" form (the # is
// optional) to a tcell.Color.
func ParseHexColor(hex string) (tcell.Color, error) {
	digits := strings.TrimPrefix(hex, "#")
	if len(digits) == 3 {
		digits = string([]byte{digits[0], digits[0], digits[1], digits[1], digits[2], digits[2]})
	}
	if len(digits) != 6 {
		return tcell.ColorDefault, fmt.Errorf("invalid hex color %q: want 3 or 6 digits", hex)
	}

	rgb, err := strconv.ParseUint(digits, 16, 32)
	if err != nil {
		return tcell.ColorDefault, fmt.Errorf("invalid hex color %q: %w", hex, err)
	}
	return tcell.NewHexColor(int32(rgb)), nil
}

// MustParseHexColor is ParseHexColor for built-in colors. It panics on error.
func MustParseHexColor(hex string) tcell.Color {
	color, err := ParseHexColor(hex)
	if err != nil {
		panic(err)
	}
	return color
}

// DamageColor returns the palette color of a damage type, white if it has none.
func DamageColor(t combat.DamageType) tcell.Color {
	hex, ok := damageColors[t]
	if !ok {
		return tcell.ColorWhite
	}
	return MustParseHexColor(hex)
}

// TemplateColor returns the template's own color, falling back to the
// palette color of its damage type.
func (t *SpellTemplate) TemplateColor() tcell.Color {
	if c, err := ParseHexColor(t.Color); err == nil {
		return c
	}
	return DamageColor(combat.ParseDamageType(t.Damage.Type))
}
