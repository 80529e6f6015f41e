package gamedata

import (
	"math/rand"
	"testing"
	"testing/fstest"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samdwyer/spellforge/internal/combat"
	"github.com/samdwyer/spellforge/internal/formula"
)

func TestLoadEnemies(t *testing.T) {
	enemies, err := LoadEnemies()
	if err != nil {
		t.Fatalf("Failed to load enemies: %v", err)
	}

	if len(enemies) != 3 {
		t.Errorf("Expected 3 enemies, got %d", len(enemies))
	}

	expectedIDs := map[string]bool{"zombie": false, "skeleton": false, "warlord": false}
	for _, e := range enemies {
		if _, ok := expectedIDs[e.ID]; ok {
			expectedIDs[e.ID] = true
		}
	}

	for id, found := range expectedIDs {
		if !found {
			t.Errorf("Expected enemy %q not found", id)
		}
	}
}

func TestEnemyRegistry(t *testing.T) {
	registry, err := LoadEnemyRegistry()
	if err != nil {
		t.Fatalf("Failed to load registry: %v", err)
	}

	zombie := registry.GetByID("zombie")
	if zombie == nil {
		t.Fatal("Zombie not found by ID")
	}
	if zombie.Name != "Zombie" {
		t.Errorf("Expected name 'Zombie', got %q", zombie.Name)
	}
	hp, err := zombie.HPForWave(3)
	if err != nil {
		t.Fatalf("HPForWave failed: %v", err)
	}
	if hp != 35 {
		t.Errorf("Expected zombie HP 35 at wave 3, got %d", hp)
	}

	// Weighted spawning is deterministic with the same seed
	rng1 := rand.New(rand.NewSource(12345))
	rng2 := rand.New(rand.NewSource(12345))

	for i := 0; i < 10; i++ {
		a, b := registry.SpawnRandom(rng1).ID, registry.SpawnRandom(rng2).ID
		if a != b {
			t.Errorf("Spawn %d mismatch: %s != %s", i, a, b)
		}
	}
}

func TestParseHexColor(t *testing.T) {
	tests := []struct {
		input string
		valid bool
	}{
		{"#FF0000", true},
		{"FF0000", true},
		{"#9F6BFF", true},
		{"#000000", true},
		{"#FFF", true},
		{"invalid", false},
		{"#FFFF", false},
		{"#GG0000", false},
	}

	for _, tt := range tests {
		_, err := ParseHexColor(tt.input)
		if tt.valid && err != nil {
			t.Errorf("ParseHexColor(%q) should be valid, got error: %v", tt.input, err)
		}
		if !tt.valid && err == nil {
			t.Errorf("ParseHexColor(%q) should be invalid, got no error", tt.input)
		}
	}
}

func TestLoadFromOverrideFS(t *testing.T) {
	fsys := fstest.MapFS{
		"spells.json": {Data: []byte(`{
			"zap": {"name": "Zap", "type": "base", "mana_cost": "3",
				"damage": {"amount": "5", "type": "light"},
				"projectile": {"trajectory": "straight", "speed": "12"}}
		}`)},
	}

	file, err := LoadFrom[SpellsFile](fsys, "spells.json")
	require.NoError(t, err)
	catalog, err := NewSpellCatalog(file)
	require.NoError(t, err)
	require.NotNil(t, catalog.Get("zap"))
	assert.Equal(t, "Zap", catalog.Get("zap").Name)

	_, err = LoadFrom[SpellsFile](fsys, "missing.json")
	assert.ErrorContains(t, err, "missing.json")
}

func TestShortHexMatchesLongForm(t *testing.T) {
	assert.Equal(t, MustParseHexColor("#FFAA00"), MustParseHexColor("#FA0"))
}

func TestTemplateColorFallsBackToDamageType(t *testing.T) {
	tmpl := &SpellTemplate{Color: "#9F6BFF"}
	assert.Equal(t, MustParseHexColor("#9F6BFF"), tmpl.TemplateColor())

	tmpl = &SpellTemplate{Damage: DamageDef{Type: "fire"}}
	assert.Equal(t, DamageColor(combat.DamageFire), tmpl.TemplateColor())
	assert.Equal(t, tcell.ColorWhite, DamageColor("psychic"))
}

func TestLoadSpellCatalog(t *testing.T) {
	catalog, err := LoadSpellCatalog()
	require.NoError(t, err)

	assert.Equal(t, []string{"arcane_blast", "arcane_bolt", "arcane_nova", "arcane_spray", "magic_missile"}, catalog.BaseKeys())
	assert.Equal(t,
		[]string{"chaos", "damage_amp", "doubler", "frost", "haste", "homing", "speed_amp", "splitter"},
		catalog.ModifierKeys())
	assert.Equal(t, DefaultBaseSpell, catalog.DefaultKey())
	assert.Equal(t, 13, catalog.Count())

	bolt := catalog.Get("arcane_bolt")
	require.NotNil(t, bolt)
	assert.Equal(t, "arcane_bolt", bolt.Key)
	assert.Equal(t, "arcane_bolt", bolt.Behavior)
	assert.True(t, bolt.IsBase())
	assert.Equal(t, "straight", bolt.Projectile.Trajectory)
	assert.Equal(t, DefaultCount, bolt.Count)

	nova := catalog.Get("arcane_nova")
	require.NotNil(t, nova.AOE)
	assert.Equal(t, "3", nova.AOE.Radius)

	amp := catalog.Get("damage_amp")
	assert.True(t, amp.IsModifier())
	assert.Equal(t, DefaultMultiplier, amp.SpeedMultiplier)
	assert.Equal(t, DefaultDelay, amp.Delay)

	assert.Nil(t, catalog.Get("fireball"))
}

func TestCatalogExpressionsAreValid(t *testing.T) {
	catalog := MustLoadSpellCatalog()

	for wave := 1; wave <= 20; wave++ {
		vars := formula.Vars{formula.VarWave: float64(wave), formula.VarPower: float64(wave * 10)}
		require.NoError(t, catalog.Validate(vars), "wave %d", wave)
	}
}

func TestCatalogValidateReportsBadTemplate(t *testing.T) {
	catalog, err := NewSpellCatalog(SpellsFile{
		"broken": {Type: SpellTypeBase, ManaCost: "10 +", Damage: DamageDef{Amount: "1 0 /"}},
		"void":   {Type: SpellTypeBase, ManaCost: "NaN"},
	})
	require.NoError(t, err)

	err = catalog.Validate(formula.Vars{formula.VarWave: 1})
	require.Error(t, err)
	assert.ErrorIs(t, err, formula.ErrStackUnderflow)
	assert.ErrorIs(t, err, formula.ErrDivisionByZero)
	assert.ErrorIs(t, err, formula.ErrNonFinite)
	assert.Equal(t, "broken", catalog.DefaultKey(), "default falls back to the first base spell")
}

func TestCatalogInfersType(t *testing.T) {
	catalog, err := NewSpellCatalog(SpellsFile{
		"bolt":  {Projectile: ProjectileDef{Speed: "5"}},
		"boost": {DamageMultiplier: "2"},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"bolt"}, catalog.BaseKeys())
	assert.Equal(t, []string{"boost"}, catalog.ModifierKeys())
	assert.Error(t, catalog.SetDefaultKey("boost"))
	assert.NoError(t, catalog.SetDefaultKey("bolt"))
}

func TestNewSpellCatalogRejectsEmpty(t *testing.T) {
	_, err := NewSpellCatalog(SpellsFile{})
	assert.Error(t, err)

	_, err = NewSpellCatalog(SpellsFile{"boost": {Type: SpellTypeModifier}})
	assert.Error(t, err)
}

func TestClassStatsForWave(t *testing.T) {
	classes, err := LoadClasses()
	require.NoError(t, err)

	mage := FindClass(classes, "mage")
	require.NotNil(t, mage)
	assert.Equal(t, 'M', mage.SymbolRune())

	stats, err := mage.StatsForWave(3)
	require.NoError(t, err)
	assert.Equal(t, ClassStats{Health: 110, Mana: 120, ManaRegeneration: 13, Spellpower: 30, Speed: 5}, stats)

	for _, c := range classes {
		assert.NotEmpty(t, c.StartingSpell, c.ID)
		_, err := c.StatsForWave(1)
		assert.NoError(t, err, c.ID)
	}
}

func TestClassStatsForWaveError(t *testing.T) {
	c := ClassDef{ID: "broken", Health: "1 +"}
	_, err := c.StatsForWave(1)
	assert.ErrorIs(t, err, formula.ErrStackUnderflow)
}

func TestEnemyDefMethods(t *testing.T) {
	def := EnemyDef{
		ID:          "test",
		Name:        "Test Enemy",
		Glyph:       "T",
		Color:       "#FF0000",
		HP:          "10",
		SpawnWeight: 50,
	}

	if def.GlyphRune() != 'T' {
		t.Errorf("Expected glyph 'T', got %c", def.GlyphRune())
	}

	color := def.TCellColor()
	if color == 0 {
		t.Error("TCellColor returned zero color")
	}
}

func TestLoadRelics(t *testing.T) {
	relics, err := LoadRelics()
	require.NoError(t, err)
	require.Len(t, relics, 4)

	mask := FindRelic(relics, "golden_mask")
	require.NotNil(t, mask)
	assert.Equal(t, TriggerDealDamage, mask.Trigger.Type)
	assert.Equal(t, EffectGainSpellpower, mask.Effect.Type)
	assert.Nil(t, FindRelic(relics, "monkey_paw"))
}

func TestRelicParseUntil(t *testing.T) {
	tests := []struct {
		until   string
		want    Lifetime
		wantErr bool
	}{
		{"", Lifetime{Kind: UntilForever}, false},
		{"next-spell", Lifetime{Kind: UntilNextSpell}, false},
		{"Wave-Start", Lifetime{Kind: UntilWaveStart}, false},
		{"duration 2.5", Lifetime{Kind: UntilDuration, Duration: 2500 * time.Millisecond}, false},
		{"duration", Lifetime{}, true},
		{"duration -1", Lifetime{}, true},
		{"forever", Lifetime{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.until, func(t *testing.T) {
			got, err := RelicEffectDef{Until: tt.until}.ParseUntil()
			if tt.wantErr {
				require.ErrorIs(t, err, ErrBadUntil)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
