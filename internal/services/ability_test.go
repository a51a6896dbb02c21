package services

import (
	"fmt"
	"testing"
	"time"

	"github.com/classquest/classquest-backend/internal/pkg/apperr"

	types "github.com/classquest/classquest-backend/internal/domain"
)

func TestLearn_RejectsDuplicate(t *testing.T) {
	env := newTestEnv(t)
	teacher := env.seedTeacher(t)
	room := env.seedClassroom(t, teacher.ID)
	st := env.seedStudent(t, &room.ID)
	ch := env.seedCharacter(t, st.ID, types.ClassSorcerer)
	a := env.seedAbility(t, &types.Ability{Type: types.AbilityAttack, Power: 10})

	if _, err := env.ability.Learn(t.Context(), ch.ID, a.ID); err != nil {
		t.Fatalf("learn: %v", err)
	}
	if _, err := env.ability.Learn(t.Context(), ch.ID, a.ID); apperr.CodeOf(err) != apperr.CodeAlreadyOwned {
		t.Fatalf("expected already_owned, got %v", err)
	}
}

func TestEquipAbility_CapsAtFour(t *testing.T) {
	env := newTestEnv(t)
	teacher := env.seedTeacher(t)
	room := env.seedClassroom(t, teacher.ID)
	st := env.seedStudent(t, &room.ID)
	ch := env.seedCharacter(t, st.ID, types.ClassWarrior)

	for i := 0; i < types.MaxEquippedAbilities; i++ {
		a := env.seedAbility(t, &types.Ability{Name: fmt.Sprintf("Skill %d", i), Type: types.AbilityAttack, Power: 5})
		if _, err := env.ability.Learn(t.Context(), ch.ID, a.ID); err != nil {
			t.Fatalf("learn %d: %v", i, err)
		}
		if err := env.ability.EquipAbility(t.Context(), ch.ID, a.ID); err != nil {
			t.Fatalf("equip %d: %v", i, err)
		}
	}
	extra := env.seedAbility(t, &types.Ability{Name: "Fifth", Type: types.AbilityAttack, Power: 5})
	if _, err := env.ability.Learn(t.Context(), ch.ID, extra.ID); err != nil {
		t.Fatalf("learn extra: %v", err)
	}
	if err := env.ability.EquipAbility(t.Context(), ch.ID, extra.ID); apperr.CodeOf(err) != apperr.CodeAbilityCapReached {
		t.Fatalf("expected ability_cap_reached, got %v", err)
	}
}

func TestUse_RequiresEquipped(t *testing.T) {
	env := newTestEnv(t)
	teacher := env.seedTeacher(t)
	room := env.seedClassroom(t, teacher.ID)
	st := env.seedStudent(t, &room.ID)
	ch := env.seedCharacter(t, st.ID, types.ClassDruid)
	a := env.seedAbility(t, &types.Ability{Type: types.AbilityHeal, Power: 10})
	if _, err := env.ability.Learn(t.Context(), ch.ID, a.ID); err != nil {
		t.Fatalf("learn: %v", err)
	}

	if _, err := env.ability.Use(t.Context(), ch.ID, a.ID, ch.ID); apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestUse_HealRejectsFullHealthAndCapsAmount(t *testing.T) {
	env := newTestEnv(t)
	teacher := env.seedTeacher(t)
	room := env.seedClassroom(t, teacher.ID)
	st := env.seedStudent(t, &room.ID)
	ch := env.seedCharacter(t, st.ID, types.ClassDruid)
	a := env.seedAbility(t, &types.Ability{Type: types.AbilityHeal, Power: 30})
	if _, err := env.ability.Learn(t.Context(), ch.ID, a.ID); err != nil {
		t.Fatalf("learn: %v", err)
	}
	if err := env.ability.EquipAbility(t.Context(), ch.ID, a.ID); err != nil {
		t.Fatalf("equip: %v", err)
	}

	if _, err := env.ability.Use(t.Context(), ch.ID, a.ID, ch.ID); apperr.CodeOf(err) != apperr.CodeAtFullHealth {
		t.Fatalf("expected at_full_health, got %v", err)
	}

	ch.Health = 90
	if err := env.db.Save(ch).Error; err != nil {
		t.Fatalf("save: %v", err)
	}
	result, err := env.ability.Use(t.Context(), ch.ID, a.ID, ch.ID)
	if err != nil {
		t.Fatalf("use: %v", err)
	}
	// Druid max health 100; only 10 points missing.
	if result.HealAmount != 10 {
		t.Fatalf("expected heal capped at 10, got %d", result.HealAmount)
	}
	if result.CasterXPGain != 0 {
		t.Fatalf("self heal should not award assist XP, got %d", result.CasterXPGain)
	}
}

func TestUse_HealOnAllyAwardsAssistXP(t *testing.T) {
	env := newTestEnv(t)
	teacher := env.seedTeacher(t)
	room := env.seedClassroom(t, teacher.ID)
	st1 := env.seedStudent(t, &room.ID)
	caster := env.seedCharacter(t, st1.ID, types.ClassDruid)
	st2 := env.seedStudent(t, &room.ID)
	target := env.seedCharacter(t, st2.ID, types.ClassWarrior)

	a := env.seedAbility(t, &types.Ability{Type: types.AbilityHeal, Power: 30})
	if _, err := env.ability.Learn(t.Context(), caster.ID, a.ID); err != nil {
		t.Fatalf("learn: %v", err)
	}
	if err := env.ability.EquipAbility(t.Context(), caster.ID, a.ID); err != nil {
		t.Fatalf("equip: %v", err)
	}

	target.Health = 60
	if err := env.db.Save(target).Error; err != nil {
		t.Fatalf("save: %v", err)
	}

	result, err := env.ability.Use(t.Context(), caster.ID, a.ID, target.ID)
	if err != nil {
		t.Fatalf("use: %v", err)
	}
	if result.HealAmount != 30 {
		t.Fatalf("expected heal 30, got %d", result.HealAmount)
	}
	if result.CasterXPGain != 15 {
		t.Fatalf("expected assist XP 15, got %d", result.CasterXPGain)
	}
	reloaded := env.reloadCharacter(t, caster.ID)
	if reloaded.Experience != 15 {
		t.Fatalf("expected caster experience 15, got %d", reloaded.Experience)
	}
}

func TestUse_AttackAppliesDefenseMitigation(t *testing.T) {
	env := newTestEnv(t)
	teacher := env.seedTeacher(t)
	room := env.seedClassroom(t, teacher.ID)
	st1 := env.seedStudent(t, &room.ID)
	caster := env.seedCharacter(t, st1.ID, types.ClassSorcerer)
	st2 := env.seedStudent(t, &room.ID)
	target := env.seedCharacter(t, st2.ID, types.ClassWarrior)

	a := env.seedAbility(t, &types.Ability{Type: types.AbilityAttack, Power: 10})
	if _, err := env.ability.Learn(t.Context(), caster.ID, a.ID); err != nil {
		t.Fatalf("learn: %v", err)
	}
	if err := env.ability.EquipAbility(t.Context(), caster.ID, a.ID); err != nil {
		t.Fatalf("equip: %v", err)
	}

	result, err := env.ability.Use(t.Context(), caster.ID, a.ID, target.ID)
	if err != nil {
		t.Fatalf("use: %v", err)
	}
	// Warrior defense 12: 10 - 6 = 4.
	if result.Damage != 4 {
		t.Fatalf("expected damage 4, got %d", result.Damage)
	}
	reloaded := env.reloadCharacter(t, target.ID)
	if reloaded.Health != 116 {
		t.Fatalf("expected target health 116, got %d", reloaded.Health)
	}
}

func TestUse_EnforcesCooldown(t *testing.T) {
	env := newTestEnv(t)
	teacher := env.seedTeacher(t)
	room := env.seedClassroom(t, teacher.ID)
	st1 := env.seedStudent(t, &room.ID)
	caster := env.seedCharacter(t, st1.ID, types.ClassWarrior)
	st2 := env.seedStudent(t, &room.ID)
	target := env.seedCharacter(t, st2.ID, types.ClassDruid)

	a := env.seedAbility(t, &types.Ability{Type: types.AbilityAttack, Power: 8, CooldownSeconds: 3600})
	if _, err := env.ability.Learn(t.Context(), caster.ID, a.ID); err != nil {
		t.Fatalf("learn: %v", err)
	}
	if err := env.ability.EquipAbility(t.Context(), caster.ID, a.ID); err != nil {
		t.Fatalf("equip: %v", err)
	}

	if _, err := env.ability.Use(t.Context(), caster.ID, a.ID, target.ID); err != nil {
		t.Fatalf("first use: %v", err)
	}
	if _, err := env.ability.Use(t.Context(), caster.ID, a.ID, target.ID); apperr.CodeOf(err) != apperr.CodeCooldownActive {
		t.Fatalf("expected cooldown_active, got %v", err)
	}
}

func TestUse_DebuffCreatesNegativeStrengthEffect(t *testing.T) {
	env := newTestEnv(t)
	teacher := env.seedTeacher(t)
	room := env.seedClassroom(t, teacher.ID)
	st1 := env.seedStudent(t, &room.ID)
	caster := env.seedCharacter(t, st1.ID, types.ClassSorcerer)
	st2 := env.seedStudent(t, &room.ID)
	target := env.seedCharacter(t, st2.ID, types.ClassWarrior)

	a := env.seedAbility(t, &types.Ability{Type: types.AbilityDebuff, Power: 4, DurationSeconds: 600})
	if _, err := env.ability.Learn(t.Context(), caster.ID, a.ID); err != nil {
		t.Fatalf("learn: %v", err)
	}
	if err := env.ability.EquipAbility(t.Context(), caster.ID, a.ID); err != nil {
		t.Fatalf("equip: %v", err)
	}
	if _, err := env.ability.Use(t.Context(), caster.ID, a.ID, target.ID); err != nil {
		t.Fatalf("use: %v", err)
	}

	effects, err := env.statusEffectRepo.GetActiveByCharacterID(t.Context(), nil, target.ID, time.Now().UTC())
	if err != nil {
		t.Fatalf("effects: %v", err)
	}
	if len(effects) != 1 {
		t.Fatalf("expected one active effect, got %d", len(effects))
	}
	e := effects[0]
	if e.EffectType != types.EffectDebuff || e.StatAffected != types.StatStrength || e.Amount != -4 {
		t.Fatalf("unexpected effect: %+v", e)
	}
}

func TestUse_ProtectRaisesDefense(t *testing.T) {
	env := newTestEnv(t)
	teacher := env.seedTeacher(t)
	room := env.seedClassroom(t, teacher.ID)
	st := env.seedStudent(t, &room.ID)
	ch := env.seedCharacter(t, st.ID, types.ClassWarrior)

	a := env.seedAbility(t, &types.Ability{Type: types.AbilityDefense, Power: 6, DurationSeconds: 600})
	if _, err := env.ability.Learn(t.Context(), ch.ID, a.ID); err != nil {
		t.Fatalf("learn: %v", err)
	}
	if err := env.ability.EquipAbility(t.Context(), ch.ID, a.ID); err != nil {
		t.Fatalf("equip: %v", err)
	}
	if _, err := env.ability.Use(t.Context(), ch.ID, a.ID, ch.ID); err != nil {
		t.Fatalf("use: %v", err)
	}

	totals, err := env.character.Totals(t.Context(), ch.ID)
	if err != nil {
		t.Fatalf("totals: %v", err)
	}
	if totals.Defense != 12+6 {
		t.Fatalf("expected defense 18, got %d", totals.Defense)
	}
}
