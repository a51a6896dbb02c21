package services

import (
	"testing"

	"github.com/google/uuid"

	"github.com/classquest/classquest-backend/internal/pkg/apperr"

	types "github.com/classquest/classquest-backend/internal/domain"
)

func (e *testEnv) seedMonster(t *testing.T, m *types.Monster) *types.Monster {
	t.Helper()
	if m.Name == "" {
		m.Name = "Monster " + uuid.NewString()[:8]
	}
	if m.Level == 0 {
		m.Level = 1
	}
	if err := e.db.Create(m).Error; err != nil {
		t.Fatalf("seed monster: %v", err)
	}
	return m
}

func (e *testEnv) seedQuestionSet(t *testing.T, teacherID uuid.UUID, questions ...*types.Question) *types.QuestionSet {
	t.Helper()
	set := &types.QuestionSet{TeacherID: teacherID, Name: "Set " + uuid.NewString()[:8], Subject: "math"}
	if err := e.db.Create(set).Error; err != nil {
		t.Fatalf("seed question set: %v", err)
	}
	for _, q := range questions {
		q.QuestionSetID = set.ID
		if q.Difficulty == 0 {
			q.Difficulty = 1
		}
		if err := e.db.Create(q).Error; err != nil {
			t.Fatalf("seed question: %v", err)
		}
	}
	return set
}

// drawQuestion draws the next turn's question. Tests seed single-question
// sets so the draw is deterministic.
func (e *testEnv) drawQuestion(t *testing.T, battleID uuid.UUID) *types.Question {
	t.Helper()
	q, err := e.battle.DrawQuestion(t.Context(), battleID)
	if err != nil {
		t.Fatalf("draw question: %v", err)
	}
	return q
}

func TestStartBattle_SnapshotsHealthAndRejectsSecond(t *testing.T) {
	env := newTestEnv(t)
	teacher := env.seedTeacher(t)
	room := env.seedClassroom(t, teacher.ID)
	st := env.seedStudent(t, &room.ID)
	ch := env.seedCharacter(t, st.ID, types.ClassWarrior)
	ch.Health = 80
	if err := env.db.Save(ch).Error; err != nil {
		t.Fatalf("save: %v", err)
	}

	monster := env.seedMonster(t, &types.Monster{Health: 60, Attack: 8})
	set := env.seedQuestionSet(t, teacher.ID, &types.Question{Text: "2+2?", CorrectAnswer: "4"})

	b, err := env.battle.Start(t.Context(), st.ID, monster.ID, set.ID)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if b.PlayerHealth != 80 || b.PlayerMaxHealth != 120 {
		t.Fatalf("unexpected player snapshot: %d/%d", b.PlayerHealth, b.PlayerMaxHealth)
	}
	if b.MonsterHealth != 60 || b.MonsterMaxHealth != 60 {
		t.Fatalf("unexpected monster snapshot: %d/%d", b.MonsterHealth, b.MonsterMaxHealth)
	}
	if b.Status != types.BattleStatusActive {
		t.Fatalf("expected active battle, got %s", b.Status)
	}

	if _, err := env.battle.Start(t.Context(), st.ID, monster.ID, set.ID); apperr.KindOf(err) != apperr.KindConflict {
		t.Fatalf("expected conflict on second battle, got %v", err)
	}

	active, err := env.battle.ActiveForStudent(t.Context(), st.ID)
	if err != nil {
		t.Fatalf("active: %v", err)
	}
	if active.ID != b.ID {
		t.Fatalf("expected active battle %s, got %s", b.ID, active.ID)
	}
}

func TestStartBattle_RejectsEmptyQuestionSet(t *testing.T) {
	env := newTestEnv(t)
	teacher := env.seedTeacher(t)
	room := env.seedClassroom(t, teacher.ID)
	st := env.seedStudent(t, &room.ID)
	env.seedCharacter(t, st.ID, types.ClassDruid)

	monster := env.seedMonster(t, &types.Monster{Health: 30, Attack: 5})
	set := env.seedQuestionSet(t, teacher.ID)

	if _, err := env.battle.Start(t.Context(), st.ID, monster.ID, set.ID); apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestAttack_CorrectAnswerDamagesMonster(t *testing.T) {
	env := newTestEnv(t)
	teacher := env.seedTeacher(t)
	room := env.seedClassroom(t, teacher.ID)
	st := env.seedStudent(t, &room.ID)
	env.seedCharacter(t, st.ID, types.ClassWarrior)

	monster := env.seedMonster(t, &types.Monster{Health: 100, Attack: 8})
	question := &types.Question{Text: "2+2?", CorrectAnswer: "4", Difficulty: 2}
	set := env.seedQuestionSet(t, teacher.ID, question)

	b, err := env.battle.Start(t.Context(), st.ID, monster.ID, set.ID)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	env.drawQuestion(t, b.ID)
	result, err := env.battle.Attack(t.Context(), b.ID, question.ID, "4")
	if err != nil {
		t.Fatalf("attack: %v", err)
	}
	// Warrior strength 14 plus 5 per difficulty point.
	if !result.Correct || result.DamageToMonster != 14+5*2 {
		t.Fatalf("unexpected turn result: %+v", result)
	}
	if result.MonsterHealth != 100-24 {
		t.Fatalf("expected monster at 76, got %d", result.MonsterHealth)
	}
	if result.Status != types.BattleStatusActive {
		t.Fatalf("expected battle still active, got %s", result.Status)
	}
}

func TestAttack_VictoryAwardsXPAndGold(t *testing.T) {
	env := newTestEnv(t)
	teacher := env.seedTeacher(t)
	room := env.seedClassroom(t, teacher.ID)
	st := env.seedStudent(t, &room.ID)
	ch := env.seedCharacter(t, st.ID, types.ClassWarrior)

	monster := env.seedMonster(t, &types.Monster{Health: 10, Attack: 8, XPReward: 150, GoldReward: 25})
	question := &types.Question{Text: "Capital of France?", CorrectAnswer: "Paris"}
	set := env.seedQuestionSet(t, teacher.ID, question)

	b, err := env.battle.Start(t.Context(), st.ID, monster.ID, set.ID)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	env.drawQuestion(t, b.ID)
	result, err := env.battle.Attack(t.Context(), b.ID, question.ID, "Paris")
	if err != nil {
		t.Fatalf("attack: %v", err)
	}
	if result.Status != types.BattleStatusWon || result.MonsterHealth != 0 {
		t.Fatalf("expected victory, got %+v", result)
	}
	if result.XPAwarded != 150 || result.GoldAwarded != 25 {
		t.Fatalf("unexpected rewards: %+v", result)
	}
	reloaded := env.reloadCharacter(t, ch.ID)
	if reloaded.Experience != 150 || reloaded.Gold != 25 {
		t.Fatalf("expected character credited, got %dxp/%dg", reloaded.Experience, reloaded.Gold)
	}

	if _, err := env.battle.Attack(t.Context(), b.ID, question.ID, "Paris"); apperr.CodeOf(err) != apperr.CodeBattleNotActive {
		t.Fatalf("expected battle_not_active after victory, got %v", err)
	}
}

func TestAttack_WrongAnswerCanKillPlayer(t *testing.T) {
	env := newTestEnv(t)
	teacher := env.seedTeacher(t)
	room := env.seedClassroom(t, teacher.ID)
	st := env.seedStudent(t, &room.ID)
	ch := env.seedCharacter(t, st.ID, types.ClassSorcerer)
	ch.Health = 10
	if err := env.db.Save(ch).Error; err != nil {
		t.Fatalf("save: %v", err)
	}

	monster := env.seedMonster(t, &types.Monster{Health: 100, Attack: 15})
	question := &types.Question{Text: "2+2?", CorrectAnswer: "4"}
	set := env.seedQuestionSet(t, teacher.ID, question)

	b, err := env.battle.Start(t.Context(), st.ID, monster.ID, set.ID)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	env.drawQuestion(t, b.ID)
	result, err := env.battle.Attack(t.Context(), b.ID, question.ID, "5")
	if err != nil {
		t.Fatalf("attack: %v", err)
	}
	if result.Correct || result.DamageToPlayer != 15 {
		t.Fatalf("unexpected turn result: %+v", result)
	}
	if result.Status != types.BattleStatusLost || result.PlayerHealth != 0 {
		t.Fatalf("expected defeat at zero health, got %+v", result)
	}
	reloaded := env.reloadCharacter(t, ch.ID)
	if reloaded.Health != 0 {
		t.Fatalf("expected character health synced to 0, got %d", reloaded.Health)
	}
}

func TestAttack_GrowsTurnLog(t *testing.T) {
	env := newTestEnv(t)
	teacher := env.seedTeacher(t)
	room := env.seedClassroom(t, teacher.ID)
	st := env.seedStudent(t, &room.ID)
	env.seedCharacter(t, st.ID, types.ClassWarrior)

	monster := env.seedMonster(t, &types.Monster{Health: 500, Attack: 2})
	question := &types.Question{Text: "2+2?", CorrectAnswer: "4"}
	set := env.seedQuestionSet(t, teacher.ID, question)

	b, err := env.battle.Start(t.Context(), st.ID, monster.ID, set.ID)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	env.drawQuestion(t, b.ID)
	if _, err := env.battle.Attack(t.Context(), b.ID, question.ID, "4"); err != nil {
		t.Fatalf("turn 1: %v", err)
	}
	env.drawQuestion(t, b.ID)
	if _, err := env.battle.Attack(t.Context(), b.ID, question.ID, "nope"); err != nil {
		t.Fatalf("turn 2: %v", err)
	}

	updated, err := env.battle.Get(t.Context(), b.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	turns, err := decodeTurnLog(updated.TurnLog)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(turns) != 2 {
		t.Fatalf("expected 2 turns, got %d", len(turns))
	}
	if turns[0].Turn != 1 || !turns[0].Correct {
		t.Fatalf("unexpected first turn: %+v", turns[0])
	}
	if turns[1].Turn != 2 || turns[1].Correct || turns[1].CorrectAnswer != "4" {
		t.Fatalf("unexpected second turn: %+v", turns[1])
	}
}

func TestDrawQuestion_BelongsToBattleSet(t *testing.T) {
	env := newTestEnv(t)
	teacher := env.seedTeacher(t)
	room := env.seedClassroom(t, teacher.ID)
	st := env.seedStudent(t, &room.ID)
	env.seedCharacter(t, st.ID, types.ClassDruid)

	monster := env.seedMonster(t, &types.Monster{Health: 40, Attack: 4})
	set := env.seedQuestionSet(t, teacher.ID,
		&types.Question{Text: "q1", CorrectAnswer: "a"},
		&types.Question{Text: "q2", CorrectAnswer: "b"},
	)
	other := env.seedQuestionSet(t, teacher.ID, &types.Question{Text: "other", CorrectAnswer: "c"})

	b, err := env.battle.Start(t.Context(), st.ID, monster.ID, set.ID)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	q, err := env.battle.DrawQuestion(t.Context(), b.ID)
	if err != nil {
		t.Fatalf("draw: %v", err)
	}
	if q.QuestionSetID != set.ID {
		t.Fatalf("drew question from wrong set")
	}

	foreign, err := env.questionRepo.GetBySetID(t.Context(), nil, other.ID)
	if err != nil || len(foreign) != 1 {
		t.Fatalf("foreign set lookup: %v", err)
	}
	if _, err := env.battle.Attack(t.Context(), b.ID, foreign[0].ID, "c"); apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("expected validation error for foreign question, got %v", err)
	}
}

func TestAttack_RequiresTheDrawnQuestion(t *testing.T) {
	env := newTestEnv(t)
	teacher := env.seedTeacher(t)
	room := env.seedClassroom(t, teacher.ID)
	st := env.seedStudent(t, &room.ID)
	env.seedCharacter(t, st.ID, types.ClassWarrior)

	monster := env.seedMonster(t, &types.Monster{Health: 500, Attack: 2})
	question := &types.Question{Text: "2+2?", CorrectAnswer: "4"}
	set := env.seedQuestionSet(t, teacher.ID, question)

	b, err := env.battle.Start(t.Context(), st.ID, monster.ID, set.ID)
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	// No draw yet: even a question from the battle's own set is rejected.
	if _, err := env.battle.Attack(t.Context(), b.ID, question.ID, "4"); apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("expected validation error before a draw, got %v", err)
	}

	drawn := env.drawQuestion(t, b.ID)
	if _, err := env.battle.Attack(t.Context(), b.ID, drawn.ID, "4"); err != nil {
		t.Fatalf("attack after draw: %v", err)
	}

	// The draw is consumed by the turn; replaying the same question
	// without a fresh draw is rejected.
	if _, err := env.battle.Attack(t.Context(), b.ID, drawn.ID, "4"); apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("expected validation error without a fresh draw, got %v", err)
	}

	updated, err := env.battle.Get(t.Context(), b.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if updated.CurrentQuestionID != nil {
		t.Fatalf("expected the drawn question cleared after the turn")
	}
}

func TestFlee_EndsBattleWithoutRewards(t *testing.T) {
	env := newTestEnv(t)
	teacher := env.seedTeacher(t)
	room := env.seedClassroom(t, teacher.ID)
	st := env.seedStudent(t, &room.ID)
	ch := env.seedCharacter(t, st.ID, types.ClassWarrior)

	monster := env.seedMonster(t, &types.Monster{Health: 40, Attack: 4, XPReward: 100})
	question := &types.Question{Text: "2+2?", CorrectAnswer: "4"}
	set := env.seedQuestionSet(t, teacher.ID, question)

	b, err := env.battle.Start(t.Context(), st.ID, monster.ID, set.ID)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := env.battle.Flee(t.Context(), b.ID); err != nil {
		t.Fatalf("flee: %v", err)
	}
	updated, err := env.battle.Get(t.Context(), b.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if updated.Status != types.BattleStatusFled {
		t.Fatalf("expected fled, got %s", updated.Status)
	}
	reloaded := env.reloadCharacter(t, ch.ID)
	if reloaded.Experience != 0 {
		t.Fatalf("flee must not award experience, got %d", reloaded.Experience)
	}
	if err := env.battle.Flee(t.Context(), b.ID); apperr.CodeOf(err) != apperr.CodeBattleNotActive {
		t.Fatalf("expected battle_not_active, got %v", err)
	}

	// A finished battle frees the student to start a new one.
	if _, err := env.battle.Start(t.Context(), st.ID, monster.ID, set.ID); err != nil {
		t.Fatalf("restart after flee: %v", err)
	}
}
