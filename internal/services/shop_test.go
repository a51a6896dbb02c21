package services

import (
	"testing"

	"github.com/google/uuid"

	"github.com/classquest/classquest-backend/internal/pkg/apperr"

	types "github.com/classquest/classquest-backend/internal/domain"
)

func (e *testEnv) giveGold(t *testing.T, ch *types.Character, amount int) {
	t.Helper()
	ch.Gold = amount
	if err := e.db.Save(ch).Error; err != nil {
		t.Fatalf("give gold: %v", err)
	}
}

func TestListItems_AppliesClassroomOverrides(t *testing.T) {
	env := newTestEnv(t)
	teacher := env.seedTeacher(t)
	room := env.seedClassroom(t, teacher.ID)

	sword := env.seedEquipment(t, &types.Equipment{Name: "Iron Sword", Slot: types.SlotMainHand, Cost: 100})
	hidden := env.seedEquipment(t, &types.Equipment{Name: "Banned Blade", Slot: types.SlotMainHand, Cost: 100})
	spell := env.seedAbility(t, &types.Ability{Name: "Fireball", Type: types.AbilityAttack, Power: 10, Cost: 80})

	cheap := 40
	if err := env.shop.SetOverride(t.Context(), room.ID, types.PurchaseEquipment, sword.ID, &cheap, nil, true); err != nil {
		t.Fatalf("set override: %v", err)
	}
	if err := env.shop.SetOverride(t.Context(), room.ID, types.PurchaseEquipment, hidden.ID, nil, nil, false); err != nil {
		t.Fatalf("hide item: %v", err)
	}

	items, err := env.shop.ListItems(t.Context(), &room.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	byID := map[uuid.UUID]ShopItem{}
	for _, it := range items {
		byID[it.ID] = it
	}
	if _, ok := byID[hidden.ID]; ok {
		t.Fatalf("hidden item must not be listed")
	}
	if got := byID[sword.ID].Cost; got != 40 {
		t.Fatalf("expected overridden cost 40, got %d", got)
	}
	if got := byID[spell.ID].Cost; got != 80 {
		t.Fatalf("expected catalog cost 80, got %d", got)
	}

	// Without a classroom the raw catalog comes back.
	items, err = env.shop.ListItems(t.Context(), nil)
	if err != nil {
		t.Fatalf("list without classroom: %v", err)
	}
	byID = map[uuid.UUID]ShopItem{}
	for _, it := range items {
		byID[it.ID] = it
	}
	if got := byID[sword.ID].Cost; got != 100 {
		t.Fatalf("expected catalog cost 100, got %d", got)
	}
	if _, ok := byID[hidden.ID]; !ok {
		t.Fatalf("hidden item should be visible outside the classroom")
	}
}

func TestPurchase_EquipmentDebitsGoldAndGrants(t *testing.T) {
	env := newTestEnv(t)
	teacher := env.seedTeacher(t)
	room := env.seedClassroom(t, teacher.ID)
	st := env.seedStudent(t, &room.ID)
	ch := env.seedCharacter(t, st.ID, types.ClassWarrior)
	env.giveGold(t, ch, 150)

	sword := env.seedEquipment(t, &types.Equipment{Slot: types.SlotMainHand, Cost: 100})

	receipt, err := env.shop.Purchase(t.Context(), ch.ID, sword.ID, types.PurchaseEquipment)
	if err != nil {
		t.Fatalf("purchase: %v", err)
	}
	if receipt.GoldSpent != 100 || receipt.PurchaseType != types.PurchaseEquipment {
		t.Fatalf("unexpected receipt: %+v", receipt)
	}
	reloaded := env.reloadCharacter(t, ch.ID)
	if reloaded.Gold != 50 {
		t.Fatalf("expected 50 gold left, got %d", reloaded.Gold)
	}
	inv, err := env.inventory.List(t.Context(), ch.ID)
	if err != nil {
		t.Fatalf("inventory: %v", err)
	}
	if len(inv) != 1 || inv[0].EquipmentID != sword.ID {
		t.Fatalf("expected granted sword, got %+v", inv)
	}

	if _, err := env.shop.Purchase(t.Context(), ch.ID, sword.ID, types.PurchaseEquipment); apperr.CodeOf(err) != apperr.CodeAlreadyOwned {
		t.Fatalf("expected already_owned, got %v", err)
	}
}

func TestPurchase_AbilityLearns(t *testing.T) {
	env := newTestEnv(t)
	teacher := env.seedTeacher(t)
	room := env.seedClassroom(t, teacher.ID)
	st := env.seedStudent(t, &room.ID)
	ch := env.seedCharacter(t, st.ID, types.ClassSorcerer)
	env.giveGold(t, ch, 100)

	spell := env.seedAbility(t, &types.Ability{Type: types.AbilityAttack, Power: 12, Cost: 60})
	if _, err := env.shop.Purchase(t.Context(), ch.ID, spell.ID, types.PurchaseAbility); err != nil {
		t.Fatalf("purchase: %v", err)
	}
	owned, err := env.ability.ListForCharacter(t.Context(), ch.ID)
	if err != nil {
		t.Fatalf("abilities: %v", err)
	}
	if len(owned) != 1 || owned[0].AbilityID != spell.ID {
		t.Fatalf("expected learned ability, got %+v", owned)
	}
}

func TestPurchase_Gates(t *testing.T) {
	env := newTestEnv(t)
	teacher := env.seedTeacher(t)
	room := env.seedClassroom(t, teacher.ID)
	st := env.seedStudent(t, &room.ID)
	ch := env.seedCharacter(t, st.ID, types.ClassDruid)
	env.giveGold(t, ch, 30)

	pricey := env.seedEquipment(t, &types.Equipment{Name: "Pricey", Slot: types.SlotChest, Cost: 100})
	if _, err := env.shop.Purchase(t.Context(), ch.ID, pricey.ID, types.PurchaseEquipment); apperr.CodeOf(err) != apperr.CodeInsufficientGold {
		t.Fatalf("expected insufficient_gold, got %v", err)
	}

	env.giveGold(t, ch, 500)
	veteran := env.seedEquipment(t, &types.Equipment{Name: "Veteran", Slot: types.SlotChest, Cost: 100, LevelRequirement: 5})
	if _, err := env.shop.Purchase(t.Context(), ch.ID, veteran.ID, types.PurchaseEquipment); apperr.CodeOf(err) != apperr.CodeLevelTooLow {
		t.Fatalf("expected level_too_low, got %v", err)
	}

	warriorOnly := env.seedEquipment(t, &types.Equipment{Name: "Warrior Plate", Slot: types.SlotChest, Cost: 100, ClassRestriction: types.ClassWarrior})
	if _, err := env.shop.Purchase(t.Context(), ch.ID, warriorOnly.ID, types.PurchaseEquipment); apperr.CodeOf(err) != apperr.CodeClassRestricted {
		t.Fatalf("expected class_restricted, got %v", err)
	}

	if _, err := env.shop.Purchase(t.Context(), ch.ID, pricey.ID, "pet"); apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("expected validation for unknown kind, got %v", err)
	}
}

func TestPurchase_HonorsClassroomOverride(t *testing.T) {
	env := newTestEnv(t)
	teacher := env.seedTeacher(t)
	room := env.seedClassroom(t, teacher.ID)
	st := env.seedStudent(t, &room.ID)
	ch := env.seedCharacter(t, st.ID, types.ClassWarrior)
	env.giveGold(t, ch, 50)

	sword := env.seedEquipment(t, &types.Equipment{Slot: types.SlotMainHand, Cost: 100})
	cheap := 40
	if err := env.shop.SetOverride(t.Context(), room.ID, types.PurchaseEquipment, sword.ID, &cheap, nil, true); err != nil {
		t.Fatalf("set override: %v", err)
	}

	receipt, err := env.shop.Purchase(t.Context(), ch.ID, sword.ID, types.PurchaseEquipment)
	if err != nil {
		t.Fatalf("purchase at overridden cost: %v", err)
	}
	if receipt.GoldSpent != 40 {
		t.Fatalf("expected 40 gold spent, got %d", receipt.GoldSpent)
	}

	hiddenItem := env.seedEquipment(t, &types.Equipment{Name: "Hidden", Slot: types.SlotHead, Cost: 5})
	if err := env.shop.SetOverride(t.Context(), room.ID, types.PurchaseEquipment, hiddenItem.ID, nil, nil, false); err != nil {
		t.Fatalf("hide item: %v", err)
	}
	if _, err := env.shop.Purchase(t.Context(), ch.ID, hiddenItem.ID, types.PurchaseEquipment); apperr.CodeOf(err) != apperr.CodeNotAvailable {
		t.Fatalf("expected not_available, got %v", err)
	}

	if err := env.shop.ClearOverride(t.Context(), room.ID, types.PurchaseEquipment, hiddenItem.ID); err != nil {
		t.Fatalf("clear override: %v", err)
	}
	if _, err := env.shop.Purchase(t.Context(), ch.ID, hiddenItem.ID, types.PurchaseEquipment); err != nil {
		t.Fatalf("purchase after clearing override: %v", err)
	}
}

func TestPurchase_RejectsZeroCost(t *testing.T) {
	env := newTestEnv(t)
	teacher := env.seedTeacher(t)
	room := env.seedClassroom(t, teacher.ID)
	st := env.seedStudent(t, &room.ID)
	ch := env.seedCharacter(t, st.ID, types.ClassWarrior)
	env.giveGold(t, ch, 500)

	sword := env.seedEquipment(t, &types.Equipment{Name: "Iron Sword", Slot: types.SlotMainHand, Cost: 100})

	// An override cannot make an item free.
	zero := 0
	if err := env.shop.SetOverride(t.Context(), room.ID, types.PurchaseEquipment, sword.ID, &zero, nil, true); apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("expected validation error for zero-cost override, got %v", err)
	}
	negative := -5
	if err := env.shop.SetOverride(t.Context(), room.ID, types.PurchaseEquipment, sword.ID, &negative, nil, true); apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("expected validation error for negative-cost override, got %v", err)
	}

	// A catalog item priced at zero cannot produce a receipt either.
	freebie := env.seedEquipment(t, &types.Equipment{Name: "Freebie", Slot: types.SlotHead, Cost: 0})
	if _, err := env.shop.Purchase(t.Context(), ch.ID, freebie.ID, types.PurchaseEquipment); apperr.CodeOf(err) != apperr.CodeNotAvailable {
		t.Fatalf("expected not_available for zero-cost item, got %v", err)
	}
	rows, err := env.inventoryRepo.GetByCharacterID(t.Context(), nil, ch.ID)
	if err != nil {
		t.Fatalf("inventory: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("zero-cost purchase must not grant, found %d rows", len(rows))
	}
}
