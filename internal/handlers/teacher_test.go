package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/classquest/classquest-backend/internal/db"
	types "github.com/classquest/classquest-backend/internal/domain"
	"github.com/classquest/classquest-backend/internal/middleware"
	"github.com/classquest/classquest-backend/internal/pkg/logger"
	"github.com/classquest/classquest-backend/internal/repos"
	"github.com/classquest/classquest-backend/internal/services"
)

// handlerEnv wires the teacher handler against a throwaway in-memory
// database, mirroring the wiring in main.
type handlerEnv struct {
	db      *gorm.DB
	handler *TeacherHandler

	inventoryRepo repos.InventoryRepo
	character     services.CharacterService
}

func newHandlerEnv(t *testing.T) *handlerEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("connection pool: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	if err := db.AutoMigrateAll(gdb); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	log, err := logger.New("prod")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}

	userRepo := repos.NewUserRepo(gdb, log)
	studentRepo := repos.NewStudentRepo(gdb, log)
	classroomRepo := repos.NewClassroomRepo(gdb, log)
	characterRepo := repos.NewCharacterRepo(gdb, log)
	statusEffectRepo := repos.NewStatusEffectRepo(gdb, log)
	equipmentRepo := repos.NewEquipmentRepo(gdb, log)
	inventoryRepo := repos.NewInventoryRepo(gdb, log)
	abilityRepo := repos.NewAbilityRepo(gdb, log)
	charAbilityRepo := repos.NewCharacterAbilityRepo(gdb, log)
	questRepo := repos.NewQuestRepo(gdb, log)
	questRewardRepo := repos.NewQuestRewardRepo(gdb, log)
	questConsRepo := repos.NewQuestConsequenceRepo(gdb, log)
	questLogRepo := repos.NewQuestLogRepo(gdb, log)
	monsterRepo := repos.NewMonsterRepo(gdb, log)
	questionSetRepo := repos.NewQuestionSetRepo(gdb, log)
	questionRepo := repos.NewQuestionRepo(gdb, log)
	purchaseRepo := repos.NewShopPurchaseRepo(gdb, log)
	overrideRepo := repos.NewShopItemOverrideRepo(gdb, log)
	clanRepo := repos.NewClanRepo(gdb, log)
	clanHistoryRepo := repos.NewClanProgressHistoryRepo(gdb, log)
	auditRepo := repos.NewAuditLogRepo(gdb, log)

	audit := services.NewAuditService(gdb, log, auditRepo)
	character := services.NewCharacterService(gdb, log, characterRepo, studentRepo, classroomRepo, clanRepo, inventoryRepo, statusEffectRepo, audit)
	inventory := services.NewInventoryService(gdb, log, inventoryRepo, equipmentRepo, characterRepo)
	ability := services.NewAbilityService(gdb, log, abilityRepo, charAbilityRepo, characterRepo, statusEffectRepo, character, audit)
	quest := services.NewQuestService(gdb, log, questRepo, questRewardRepo, questConsRepo, questLogRepo, characterRepo, studentRepo, clanRepo, character, inventory, ability, audit)
	shop := services.NewShopService(gdb, log, equipmentRepo, abilityRepo, purchaseRepo, overrideRepo, characterRepo, studentRepo, inventoryRepo, charAbilityRepo, inventory, ability, audit)
	clan := services.NewClanService(gdb, log, clanRepo, clanHistoryRepo, classroomRepo, characterRepo, studentRepo, questLogRepo, auditRepo, character, audit)
	roster := services.NewRosterService(gdb, log, userRepo, studentRepo, classroomRepo, clanRepo, characterRepo, audit)
	catalog := services.NewCatalogService(gdb, log, monsterRepo, questionSetRepo, questionRepo, equipmentRepo, abilityRepo)

	return &handlerEnv{
		db:            gdb,
		handler:       NewTeacherHandler(roster, quest, clan, shop, catalog, inventory, ability, character, audit),
		inventoryRepo: inventoryRepo,
		character:     character,
	}
}

func (e *handlerEnv) seedTeacher(t *testing.T) *types.User {
	t.Helper()
	u := &types.User{
		Username: "teacher-" + uuid.NewString()[:8],
		Email:    uuid.NewString()[:8] + "@example.com",
		Password: "x",
		Role:     types.RoleTeacher,
		IsActive: true,
	}
	if err := e.db.Create(u).Error; err != nil {
		t.Fatalf("seed teacher: %v", err)
	}
	return u
}

func (e *handlerEnv) seedClassroomWithCharacter(t *testing.T, teacherID uuid.UUID) (*types.Classroom, *types.Student, *types.Character) {
	t.Helper()
	room := &types.Classroom{
		TeacherID:   teacherID,
		Name:        "Room " + uuid.NewString()[:4],
		JoinCode:    uuid.NewString()[:types.JoinCodeLength],
		MaxStudents: 30,
		MaxClans:    6,
		IsActive:    true,
	}
	if err := e.db.Create(room).Error; err != nil {
		t.Fatalf("seed classroom: %v", err)
	}
	u := &types.User{
		Username: "student-" + uuid.NewString()[:8],
		Email:    uuid.NewString()[:8] + "@classquest.local",
		Password: "x",
		Role:     types.RoleStudent,
		IsActive: true,
	}
	if err := e.db.Create(u).Error; err != nil {
		t.Fatalf("seed student user: %v", err)
	}
	st := &types.Student{UserID: u.ID, ClassID: &room.ID, Status: types.StudentStatusActive}
	if err := e.db.Create(st).Error; err != nil {
		t.Fatalf("seed student profile: %v", err)
	}
	ch, err := e.character.Create(t.Context(), st.ID, "Hero "+uuid.NewString()[:4], types.ClassWarrior)
	if err != nil {
		t.Fatalf("seed character: %v", err)
	}
	return room, st, ch
}

// invoke calls a handler directly as the given teacher, the way the
// router does after RequireAuth.
func invoke(t *testing.T, teacherID uuid.UUID, body any, params gin.Params, handler gin.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(raw))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Params = params
	c.Set(middleware.CtxUserID, teacherID)
	c.Set(middleware.CtxRole, types.RoleTeacher)
	handler(c)
	return w
}

func TestGrantEquipment_RejectsForeignTeacher(t *testing.T) {
	env := newHandlerEnv(t)
	owner := env.seedTeacher(t)
	intruder := env.seedTeacher(t)
	_, _, ch := env.seedClassroomWithCharacter(t, owner.ID)

	item := &types.Equipment{Name: "Iron Sword", Type: "weapon", Slot: types.SlotMainHand, Rarity: 1, LevelRequirement: 1, Cost: 10}
	if err := env.db.Create(item).Error; err != nil {
		t.Fatalf("seed equipment: %v", err)
	}
	body := gin.H{"character_id": ch.ID, "item_id": item.ID}

	w := invoke(t, intruder.ID, body, nil, env.handler.GrantEquipment)
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for foreign teacher, got %d", w.Code)
	}
	rows, err := env.inventoryRepo.GetByCharacterID(t.Context(), nil, ch.ID)
	if err != nil {
		t.Fatalf("inventory: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("foreign grant must not persist, found %d rows", len(rows))
	}

	w = invoke(t, owner.ID, body, nil, env.handler.GrantEquipment)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201 for owning teacher, got %d: %s", w.Code, w.Body.String())
	}
}

func TestGrantAbility_RejectsForeignTeacher(t *testing.T) {
	env := newHandlerEnv(t)
	owner := env.seedTeacher(t)
	intruder := env.seedTeacher(t)
	_, _, ch := env.seedClassroomWithCharacter(t, owner.ID)

	a := &types.Ability{Name: "Fireball", Type: types.AbilityAttack, Power: 5, LevelRequirement: 1}
	if err := env.db.Create(a).Error; err != nil {
		t.Fatalf("seed ability: %v", err)
	}
	body := gin.H{"character_id": ch.ID, "item_id": a.ID}

	w := invoke(t, intruder.ID, body, nil, env.handler.GrantAbility)
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for foreign teacher, got %d", w.Code)
	}
	w = invoke(t, owner.ID, body, nil, env.handler.GrantAbility)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201 for owning teacher, got %d: %s", w.Code, w.Body.String())
	}
}

func TestFailQuest_RejectsForeignTeacher(t *testing.T) {
	env := newHandlerEnv(t)
	owner := env.seedTeacher(t)
	intruder := env.seedTeacher(t)
	_, _, ch := env.seedClassroomWithCharacter(t, owner.ID)

	quest := &types.Quest{TeacherID: intruder.ID, Title: "Homework", Type: types.QuestTypeStory, LevelRequirement: 1}
	if err := env.db.Create(quest).Error; err != nil {
		t.Fatalf("seed quest: %v", err)
	}
	params := gin.Params{{Key: "id", Value: quest.ID.String()}}

	w := invoke(t, intruder.ID, gin.H{"character_id": ch.ID}, params, env.handler.FailQuest)
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for foreign teacher, got %d", w.Code)
	}
}

func TestAssignQuest_RejectsForeignTargets(t *testing.T) {
	env := newHandlerEnv(t)
	owner := env.seedTeacher(t)
	intruder := env.seedTeacher(t)
	room, st, _ := env.seedClassroomWithCharacter(t, owner.ID)

	cl := &types.Clan{ClassroomID: room.ID, Name: "Wolves"}
	if err := env.db.Create(cl).Error; err != nil {
		t.Fatalf("seed clan: %v", err)
	}
	quest := &types.Quest{TeacherID: intruder.ID, Title: "Raid", Type: types.QuestTypeStory, LevelRequirement: 1}
	if err := env.db.Create(quest).Error; err != nil {
		t.Fatalf("seed quest: %v", err)
	}
	params := gin.Params{{Key: "id", Value: quest.ID.String()}}

	w := invoke(t, intruder.ID, gin.H{"student_id": st.ID}, params, env.handler.AssignQuest)
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for foreign student target, got %d", w.Code)
	}
	w = invoke(t, intruder.ID, gin.H{"clan_id": cl.ID}, params, env.handler.AssignQuest)
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for foreign clan target, got %d", w.Code)
	}
	w = invoke(t, intruder.ID, gin.H{"class_id": room.ID}, params, env.handler.AssignQuest)
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for foreign class target, got %d", w.Code)
	}
}
