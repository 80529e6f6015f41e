// Package gamedata holds the spell, class, enemy and relic definitions and the
// registries built from them.
package gamedata

import "embed"

// dataFS carries the built-in data files.
//
//go:embed spells.json classes.json enemies.json relics.json
var dataFS embed.FS
