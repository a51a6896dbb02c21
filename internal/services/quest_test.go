package services

import (
	"testing"

	"github.com/google/uuid"

	"github.com/classquest/classquest-backend/internal/pkg/apperr"

	types "github.com/classquest/classquest-backend/internal/domain"
)

func (e *testEnv) seedQuest(t *testing.T, teacherID uuid.UUID, input CreateQuestInput) *types.Quest {
	t.Helper()
	if input.Title == "" {
		input.Title = "Quest " + uuid.NewString()[:8]
	}
	q, err := e.quest.CreateQuest(t.Context(), teacherID, input)
	if err != nil {
		t.Fatalf("seed quest: %v", err)
	}
	return q
}

func (e *testEnv) assignToStudent(t *testing.T, questID, studentID uuid.UUID) {
	t.Helper()
	res, err := e.quest.Assign(t.Context(), questID, AssignTarget{StudentID: &studentID})
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	if res.Assigned != 1 {
		t.Fatalf("expected one assignment, got %+v", res)
	}
}

func TestCreateQuest_PersistsRewardsAndConsequences(t *testing.T) {
	env := newTestEnv(t)
	teacher := env.seedTeacher(t)

	sword := env.seedEquipment(t, &types.Equipment{Slot: types.SlotMainHand})
	q := env.seedQuest(t, teacher.ID, CreateQuestInput{
		Title: "Defeat the Goblin King",
		Type:  types.QuestTypeStory,
		Rewards: []RewardInput{
			{Type: types.RewardExperience, Amount: 250},
			{Type: types.RewardGold, Amount: 40},
			{Type: types.RewardEquipment, ItemID: &sword.ID},
		},
		Consequences: []ConsequenceInput{{ExperiencePenalty: 50, GoldPenalty: 10, HealthPenalty: 5}},
	})

	if len(q.Rewards) != 3 {
		t.Fatalf("expected 3 rewards, got %d", len(q.Rewards))
	}
	if len(q.Consequences) != 1 {
		t.Fatalf("expected 1 consequence, got %d", len(q.Consequences))
	}
	if q.LevelRequirement != 1 {
		t.Fatalf("expected level requirement to default to 1, got %d", q.LevelRequirement)
	}
}

func TestAssign_PlacesOnFirstFreeCell(t *testing.T) {
	env := newTestEnv(t)
	teacher := env.seedTeacher(t)
	room := env.seedClassroom(t, teacher.ID)
	st := env.seedStudent(t, &room.ID)
	ch := env.seedCharacter(t, st.ID, types.ClassWarrior)

	first := env.seedQuest(t, teacher.ID, CreateQuestInput{})
	second := env.seedQuest(t, teacher.ID, CreateQuestInput{})
	env.assignToStudent(t, first.ID, st.ID)
	env.assignToStudent(t, second.ID, st.ID)

	logs, err := env.quest.QuestMap(t.Context(), ch.ID)
	if err != nil {
		t.Fatalf("quest map: %v", err)
	}
	if len(logs) != 2 {
		t.Fatalf("expected 2 log entries, got %d", len(logs))
	}
	cells := map[uuid.UUID][2]int{}
	for _, l := range logs {
		cells[l.QuestID] = [2]int{*l.X, *l.Y}
	}
	if cells[first.ID] != [2]int{0, 0} {
		t.Fatalf("expected first quest at (0,0), got %v", cells[first.ID])
	}
	if cells[second.ID] != [2]int{1, 0} {
		t.Fatalf("expected second quest at (1,0), got %v", cells[second.ID])
	}
}

func TestAssign_SkipsDuplicateAndFullGrid(t *testing.T) {
	env := newTestEnv(t)
	teacher := env.seedTeacher(t)
	room := env.seedClassroom(t, teacher.ID)
	st := env.seedStudent(t, &room.ID)
	ch := env.seedCharacter(t, st.ID, types.ClassDruid)

	q := env.seedQuest(t, teacher.ID, CreateQuestInput{})
	env.assignToStudent(t, q.ID, st.ID)

	res, err := env.quest.Assign(t.Context(), q.ID, AssignTarget{StudentID: &st.ID})
	if err != nil {
		t.Fatalf("re-assign: %v", err)
	}
	if res.Assigned != 0 || res.Skipped != 1 {
		t.Fatalf("expected duplicate skip, got %+v", res)
	}

	// Occupy every remaining cell directly.
	for y := 0; y < types.QuestGridHeight; y++ {
		for x := 0; x < types.QuestGridWidth; x++ {
			if x == 0 && y == 0 {
				continue
			}
			filler := env.seedQuest(t, teacher.ID, CreateQuestInput{})
			cx, cy := x, y
			entry := &types.QuestLog{CharacterID: ch.ID, QuestID: filler.ID, Status: types.QuestStatusNotStarted, X: &cx, Y: &cy}
			if err := env.db.Create(entry).Error; err != nil {
				t.Fatalf("fill cell (%d,%d): %v", x, y, err)
			}
		}
	}
	overflow := env.seedQuest(t, teacher.ID, CreateQuestInput{})
	res, err = env.quest.Assign(t.Context(), overflow.ID, AssignTarget{StudentID: &st.ID})
	if err != nil {
		t.Fatalf("overflow assign: %v", err)
	}
	if res.Assigned != 0 || res.Skipped != 1 || len(res.Errors) != 1 {
		t.Fatalf("expected full-grid skip with error, got %+v", res)
	}
	want := "No available coordinates for character " + ch.Name
	if res.Errors[0] != want {
		t.Fatalf("unexpected error message %q", res.Errors[0])
	}
}

func TestStart_RejectsUnmetLevelRequirement(t *testing.T) {
	env := newTestEnv(t)
	teacher := env.seedTeacher(t)
	room := env.seedClassroom(t, teacher.ID)
	st := env.seedStudent(t, &room.ID)
	ch := env.seedCharacter(t, st.ID, types.ClassWarrior)

	q := env.seedQuest(t, teacher.ID, CreateQuestInput{LevelRequirement: 5})
	env.assignToStudent(t, q.ID, st.ID)

	if err := env.quest.Start(t.Context(), ch.ID, q.ID); apperr.CodeOf(err) != apperr.CodeQuestUnavailable {
		t.Fatalf("expected quest_unavailable, got %v", err)
	}
}

func TestStart_RequiresCompletedPrerequisite(t *testing.T) {
	env := newTestEnv(t)
	teacher := env.seedTeacher(t)
	room := env.seedClassroom(t, teacher.ID)
	st := env.seedStudent(t, &room.ID)
	ch := env.seedCharacter(t, st.ID, types.ClassSorcerer)

	parent := env.seedQuest(t, teacher.ID, CreateQuestInput{})
	child := env.seedQuest(t, teacher.ID, CreateQuestInput{ParentQuestID: &parent.ID})
	env.assignToStudent(t, parent.ID, st.ID)
	env.assignToStudent(t, child.ID, st.ID)

	if err := env.quest.Start(t.Context(), ch.ID, child.ID); apperr.CodeOf(err) != apperr.CodeQuestUnavailable {
		t.Fatalf("expected quest_unavailable before prerequisite, got %v", err)
	}

	if err := env.quest.Start(t.Context(), ch.ID, parent.ID); err != nil {
		t.Fatalf("start parent: %v", err)
	}
	if err := env.quest.Complete(t.Context(), ch.ID, parent.ID); err != nil {
		t.Fatalf("complete parent: %v", err)
	}
	if err := env.quest.Start(t.Context(), ch.ID, child.ID); err != nil {
		t.Fatalf("start child after prerequisite: %v", err)
	}
}

func TestQuestLifecycle_RejectsInvalidTransitions(t *testing.T) {
	env := newTestEnv(t)
	teacher := env.seedTeacher(t)
	room := env.seedClassroom(t, teacher.ID)
	st := env.seedStudent(t, &room.ID)
	ch := env.seedCharacter(t, st.ID, types.ClassWarrior)

	q := env.seedQuest(t, teacher.ID, CreateQuestInput{})
	env.assignToStudent(t, q.ID, st.ID)

	if err := env.quest.Complete(t.Context(), ch.ID, q.ID); apperr.CodeOf(err) != apperr.CodeInvalidTransition {
		t.Fatalf("expected invalid_transition completing unstarted quest, got %v", err)
	}
	if err := env.quest.Fail(t.Context(), ch.ID, q.ID); apperr.CodeOf(err) != apperr.CodeInvalidTransition {
		t.Fatalf("expected invalid_transition failing unstarted quest, got %v", err)
	}
	if err := env.quest.Start(t.Context(), ch.ID, q.ID); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := env.quest.Start(t.Context(), ch.ID, q.ID); apperr.CodeOf(err) != apperr.CodeInvalidTransition {
		t.Fatalf("expected invalid_transition on double start, got %v", err)
	}
	if err := env.quest.Complete(t.Context(), ch.ID, q.ID); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if err := env.quest.Complete(t.Context(), ch.ID, q.ID); apperr.CodeOf(err) != apperr.CodeInvalidTransition {
		t.Fatalf("expected invalid_transition on double complete, got %v", err)
	}
}

func TestUpdateProgress_MergesKeys(t *testing.T) {
	env := newTestEnv(t)
	teacher := env.seedTeacher(t)
	room := env.seedClassroom(t, teacher.ID)
	st := env.seedStudent(t, &room.ID)
	ch := env.seedCharacter(t, st.ID, types.ClassDruid)

	q := env.seedQuest(t, teacher.ID, CreateQuestInput{})
	env.assignToStudent(t, q.ID, st.ID)
	if err := env.quest.Start(t.Context(), ch.ID, q.ID); err != nil {
		t.Fatalf("start: %v", err)
	}

	if err := env.quest.UpdateProgress(t.Context(), ch.ID, q.ID, map[string]any{"pages_read": 3}); err != nil {
		t.Fatalf("progress: %v", err)
	}
	if err := env.quest.UpdateProgress(t.Context(), ch.ID, q.ID, map[string]any{"pages_read": 7, "notes": "done"}); err != nil {
		t.Fatalf("progress: %v", err)
	}

	logs, err := env.quest.QuestMap(t.Context(), ch.ID)
	if err != nil {
		t.Fatalf("quest map: %v", err)
	}
	if len(logs) != 1 || len(logs[0].ProgressData) == 0 {
		t.Fatalf("expected progress data on the single log entry")
	}
}

func TestComplete_DistributesRewards(t *testing.T) {
	env := newTestEnv(t)
	teacher := env.seedTeacher(t)
	room := env.seedClassroom(t, teacher.ID)
	st := env.seedStudent(t, &room.ID)
	ch := env.seedCharacter(t, st.ID, types.ClassWarrior)

	cl, err := env.clan.CreateClan(t.Context(), room.ID, "Falcons", "", "F")
	if err != nil {
		t.Fatalf("create clan: %v", err)
	}
	if err := env.character.JoinClan(t.Context(), ch.ID, cl.ID); err != nil {
		t.Fatalf("join clan: %v", err)
	}

	sword := env.seedEquipment(t, &types.Equipment{Slot: types.SlotMainHand})
	spell := env.seedAbility(t, &types.Ability{Type: types.AbilityAttack, Power: 5})
	q := env.seedQuest(t, teacher.ID, CreateQuestInput{
		Rewards: []RewardInput{
			{Type: types.RewardExperience, Amount: 300},
			{Type: types.RewardGold, Amount: 75},
			{Type: types.RewardEquipment, ItemID: &sword.ID},
			{Type: types.RewardAbility, ItemID: &spell.ID},
			{Type: types.RewardClanExperience, Amount: 500},
		},
	})
	env.assignToStudent(t, q.ID, st.ID)
	if err := env.quest.Start(t.Context(), ch.ID, q.ID); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := env.quest.Complete(t.Context(), ch.ID, q.ID); err != nil {
		t.Fatalf("complete: %v", err)
	}

	reloaded := env.reloadCharacter(t, ch.ID)
	if reloaded.Experience != 300 || reloaded.Gold != 75 {
		t.Fatalf("expected 300xp/75g, got %dxp/%dg", reloaded.Experience, reloaded.Gold)
	}
	inv, err := env.inventory.List(t.Context(), ch.ID)
	if err != nil {
		t.Fatalf("inventory: %v", err)
	}
	if len(inv) != 1 {
		t.Fatalf("expected one granted item, got %d", len(inv))
	}
	owned, err := env.ability.ListForCharacter(t.Context(), ch.ID)
	if err != nil {
		t.Fatalf("abilities: %v", err)
	}
	if len(owned) != 1 {
		t.Fatalf("expected one learned ability, got %d", len(owned))
	}
	updatedClan, err := env.clan.Get(t.Context(), cl.ID)
	if err != nil {
		t.Fatalf("clan: %v", err)
	}
	if updatedClan.Experience != 500 {
		t.Fatalf("expected clan experience 500, got %d", updatedClan.Experience)
	}
}

func TestComplete_SkipsRewardsBlockedByRules(t *testing.T) {
	env := newTestEnv(t)
	teacher := env.seedTeacher(t)
	room := env.seedClassroom(t, teacher.ID)
	st := env.seedStudent(t, &room.ID)
	ch := env.seedCharacter(t, st.ID, types.ClassSorcerer)

	sword := env.seedEquipment(t, &types.Equipment{Slot: types.SlotMainHand})
	if _, err := env.inventory.Grant(t.Context(), ch.ID, sword.ID); err != nil {
		t.Fatalf("pre-grant: %v", err)
	}

	q := env.seedQuest(t, teacher.ID, CreateQuestInput{
		Rewards: []RewardInput{
			{Type: types.RewardEquipment, ItemID: &sword.ID},
			{Type: types.RewardGold, Amount: 10},
		},
	})
	env.assignToStudent(t, q.ID, st.ID)
	if err := env.quest.Start(t.Context(), ch.ID, q.ID); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := env.quest.Complete(t.Context(), ch.ID, q.ID); err != nil {
		t.Fatalf("complete should skip already-owned reward: %v", err)
	}
	reloaded := env.reloadCharacter(t, ch.ID)
	if reloaded.Gold != 10 {
		t.Fatalf("expected gold reward to still apply, got %d", reloaded.Gold)
	}
}

func TestFail_FloorsPenaltiesAndRecomputesLevel(t *testing.T) {
	env := newTestEnv(t)
	teacher := env.seedTeacher(t)
	room := env.seedClassroom(t, teacher.ID)
	st := env.seedStudent(t, &room.ID)
	ch := env.seedCharacter(t, st.ID, types.ClassWarrior)

	if err := env.character.GainExperience(t.Context(), nil, ch, 1100); err != nil {
		t.Fatalf("gain: %v", err)
	}
	if ch.Level != 2 {
		t.Fatalf("setup: expected level 2, got %d", ch.Level)
	}

	q := env.seedQuest(t, teacher.ID, CreateQuestInput{
		Consequences: []ConsequenceInput{{ExperiencePenalty: 5000, GoldPenalty: 5000, HealthPenalty: 10}},
	})
	env.assignToStudent(t, q.ID, st.ID)
	if err := env.quest.Start(t.Context(), ch.ID, q.ID); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := env.quest.Fail(t.Context(), ch.ID, q.ID); err != nil {
		t.Fatalf("fail: %v", err)
	}

	reloaded := env.reloadCharacter(t, ch.ID)
	if reloaded.Experience != 0 || reloaded.Gold != 0 {
		t.Fatalf("expected floored xp/gold, got %d/%d", reloaded.Experience, reloaded.Gold)
	}
	if reloaded.Level != 1 {
		t.Fatalf("expected level recomputed to 1, got %d", reloaded.Level)
	}
	if reloaded.Health != reloaded.MaxHealth-10 {
		t.Fatalf("expected health penalty of 10, got %d/%d", reloaded.Health, reloaded.MaxHealth)
	}
}

func TestSetParent_RejectsCycle(t *testing.T) {
	env := newTestEnv(t)
	teacher := env.seedTeacher(t)

	a := env.seedQuest(t, teacher.ID, CreateQuestInput{})
	b := env.seedQuest(t, teacher.ID, CreateQuestInput{ParentQuestID: &a.ID})
	c := env.seedQuest(t, teacher.ID, CreateQuestInput{ParentQuestID: &b.ID})

	if err := env.quest.SetParent(t.Context(), a.ID, &c.ID); apperr.CodeOf(err) != apperr.CodePrerequisiteCycle {
		t.Fatalf("expected prerequisite_cycle, got %v", err)
	}
	if err := env.quest.SetParent(t.Context(), a.ID, &a.ID); apperr.CodeOf(err) != apperr.CodePrerequisiteCycle {
		t.Fatalf("expected self-cycle rejection, got %v", err)
	}
	if err := env.quest.SetParent(t.Context(), c.ID, nil); err != nil {
		t.Fatalf("clearing parent: %v", err)
	}
}
