package combat

import "fmt"

// HitResult contains the outcome of resolving one hit.
type HitResult struct {
	Applied bool // False when the target was an ally or already dead
	Dealt   int  // Health actually removed
	Killed  bool // True if this hit took the target from alive to dead
	Message string
}

// Resolve applies dmg to target on behalf of an attacker on team. Allies and
// dead targets are ignored.
func Resolve(team Team, target Hittable, dmg Damage) HitResult {
	if target == nil {
		return HitResult{Message: "no target"}
	}
	if target.GetTeam() == team {
		return HitResult{Message: target.GetName() + " is an ally"}
	}
	if !target.IsAlive() {
		return HitResult{Message: target.GetName() + " is already dead"}
	}

	if dmg.Amount < 0 {
		dmg.Amount = 0
	}
	if dmg.Type == "" {
		dmg.Type = DefaultDamageType
	}

	dealt := target.Damage(dmg)
	result := HitResult{
		Applied: true,
		Dealt:   dealt,
		Killed:  !target.IsAlive(),
		Message: fmt.Sprintf("%s takes %d %s damage", target.GetName(), dealt, dmg.Type),
	}
	if result.Killed {
		result.Message += " and dies"
	}
	return result
}

// IsHostile reports whether target can be hit by an attacker on team.
func IsHostile(team Team, target Hittable) bool {
	return target != nil && target.GetTeam() != team && target.IsAlive()
}
