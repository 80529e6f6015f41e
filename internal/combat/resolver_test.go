package combat

import (
	"testing"
)

// mockHittable is a test implementation of the Hittable interface.
type mockHittable struct {
	name  string
	team  Team
	hp    int
	taken []Damage
}

func newMockHittable(name string, team Team, hp int) *mockHittable {
	return &mockHittable{name: name, team: team, hp: hp}
}

func (m *mockHittable) GetName() string { return m.name }
func (m *mockHittable) GetTeam() Team   { return m.team }
func (m *mockHittable) IsAlive() bool   { return m.hp > 0 }

func (m *mockHittable) Damage(d Damage) int {
	m.taken = append(m.taken, d)
	actual := d.Amount
	if actual > m.hp {
		actual = m.hp
	}
	m.hp -= actual
	return actual
}

func TestResolveAppliesDamage(t *testing.T) {
	target := newMockHittable("Dummy", TeamEnemy, 50)

	result := Resolve(TeamPlayer, target, Damage{Amount: 12, Type: DamageFire})

	if !result.Applied {
		t.Fatalf("Expected hit to apply: %s", result.Message)
	}
	if result.Dealt != 12 {
		t.Errorf("Expected 12 damage dealt, got %d", result.Dealt)
	}
	if target.hp != 38 {
		t.Errorf("Expected target HP 38, got %d", target.hp)
	}
	if result.Killed {
		t.Error("Target should still be alive")
	}
	if len(target.taken) != 1 || target.taken[0].Type != DamageFire {
		t.Errorf("Expected one fire damage packet, got %+v", target.taken)
	}
}

func TestResolveIgnoresAllies(t *testing.T) {
	ally := newMockHittable("Friend", TeamPlayer, 50)

	result := Resolve(TeamPlayer, ally, Damage{Amount: 10, Type: DamageArcane})

	if result.Applied {
		t.Error("Allied hit should not apply")
	}
	if ally.hp != 50 {
		t.Errorf("Ally HP should be unchanged, got %d", ally.hp)
	}
}

func TestResolveReportsKill(t *testing.T) {
	target := newMockHittable("Dummy", TeamEnemy, 5)

	result := Resolve(TeamPlayer, target, Damage{Amount: 10})

	if !result.Killed {
		t.Error("Expected kill to be reported")
	}
	if result.Dealt != 5 {
		t.Errorf("Expected 5 damage dealt, got %d", result.Dealt)
	}
	if target.taken[0].Type != DefaultDamageType {
		t.Errorf("Empty damage type should default to %s, got %s", DefaultDamageType, target.taken[0].Type)
	}

	again := Resolve(TeamPlayer, target, Damage{Amount: 10})
	if again.Applied {
		t.Error("Hitting a dead target should not apply")
	}
}

func TestResolveClampsNegativeDamage(t *testing.T) {
	target := newMockHittable("Dummy", TeamEnemy, 5)

	Resolve(TeamPlayer, target, Damage{Amount: -3})

	if target.hp != 5 {
		t.Errorf("Negative damage should not heal, HP is %d", target.hp)
	}
}

func TestParseDamageType(t *testing.T) {
	tests := []struct {
		input string
		want  DamageType
	}{
		{"arcane", DamageArcane},
		{"Fire", DamageFire},
		{" ice ", DamageIce},
		{"", DamageArcane},
		{"plasma", DamageArcane},
	}

	for _, tt := range tests {
		if got := ParseDamageType(tt.input); got != tt.want {
			t.Errorf("ParseDamageType(%q) = %s, want %s", tt.input, got, tt.want)
		}
	}
}
