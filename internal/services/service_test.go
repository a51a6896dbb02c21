package services

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/classquest/classquest-backend/internal/db"
	types "github.com/classquest/classquest-backend/internal/domain"
	"github.com/classquest/classquest-backend/internal/pkg/logger"
	"github.com/classquest/classquest-backend/internal/repos"
)

// testEnv wires the full service graph against a throwaway in-memory
// database.
type testEnv struct {
	db *gorm.DB

	userRepo         repos.UserRepo
	studentRepo      repos.StudentRepo
	classroomRepo    repos.ClassroomRepo
	characterRepo    repos.CharacterRepo
	statusEffectRepo repos.StatusEffectRepo
	equipmentRepo    repos.EquipmentRepo
	inventoryRepo    repos.InventoryRepo
	abilityRepo      repos.AbilityRepo
	charAbilityRepo  repos.CharacterAbilityRepo
	questRepo        repos.QuestRepo
	questLogRepo     repos.QuestLogRepo
	monsterRepo      repos.MonsterRepo
	questionSetRepo  repos.QuestionSetRepo
	questionRepo     repos.QuestionRepo
	battleRepo       repos.BattleRepo
	clanRepo         repos.ClanRepo
	auditRepo        repos.AuditLogRepo

	audit     AuditService
	auth      AuthService
	character CharacterService
	inventory InventoryService
	ability   AbilityService
	quest     QuestService
	battle    BattleService
	shop      ShopService
	clan      ClanService
	roster    RosterService
	catalog   CatalogService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
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

	env := &testEnv{db: gdb}
	env.userRepo = repos.NewUserRepo(gdb, log)
	env.studentRepo = repos.NewStudentRepo(gdb, log)
	env.classroomRepo = repos.NewClassroomRepo(gdb, log)
	env.characterRepo = repos.NewCharacterRepo(gdb, log)
	env.statusEffectRepo = repos.NewStatusEffectRepo(gdb, log)
	env.equipmentRepo = repos.NewEquipmentRepo(gdb, log)
	env.inventoryRepo = repos.NewInventoryRepo(gdb, log)
	env.abilityRepo = repos.NewAbilityRepo(gdb, log)
	env.charAbilityRepo = repos.NewCharacterAbilityRepo(gdb, log)
	env.questRepo = repos.NewQuestRepo(gdb, log)
	questRewardRepo := repos.NewQuestRewardRepo(gdb, log)
	questConsRepo := repos.NewQuestConsequenceRepo(gdb, log)
	env.questLogRepo = repos.NewQuestLogRepo(gdb, log)
	env.monsterRepo = repos.NewMonsterRepo(gdb, log)
	env.questionSetRepo = repos.NewQuestionSetRepo(gdb, log)
	env.questionRepo = repos.NewQuestionRepo(gdb, log)
	env.battleRepo = repos.NewBattleRepo(gdb, log)
	purchaseRepo := repos.NewShopPurchaseRepo(gdb, log)
	overrideRepo := repos.NewShopItemOverrideRepo(gdb, log)
	env.clanRepo = repos.NewClanRepo(gdb, log)
	clanHistoryRepo := repos.NewClanProgressHistoryRepo(gdb, log)
	env.auditRepo = repos.NewAuditLogRepo(gdb, log)

	env.audit = NewAuditService(gdb, log, env.auditRepo)
	env.auth = NewAuthService(gdb, log, env.userRepo, env.audit, "test-secret", "chalkboard", time.Hour)
	env.character = NewCharacterService(gdb, log, env.characterRepo, env.studentRepo, env.classroomRepo, env.clanRepo, env.inventoryRepo, env.statusEffectRepo, env.audit)
	env.inventory = NewInventoryService(gdb, log, env.inventoryRepo, env.equipmentRepo, env.characterRepo)
	env.ability = NewAbilityService(gdb, log, env.abilityRepo, env.charAbilityRepo, env.characterRepo, env.statusEffectRepo, env.character, env.audit)
	env.quest = NewQuestService(gdb, log, env.questRepo, questRewardRepo, questConsRepo, env.questLogRepo, env.characterRepo, env.studentRepo, env.clanRepo, env.character, env.inventory, env.ability, env.audit)
	env.battle = NewBattleService(gdb, log, env.battleRepo, env.monsterRepo, env.questionSetRepo, env.questionRepo, env.characterRepo, env.character, env.audit)
	env.shop = NewShopService(gdb, log, env.equipmentRepo, env.abilityRepo, purchaseRepo, overrideRepo, env.characterRepo, env.studentRepo, env.inventoryRepo, env.charAbilityRepo, env.inventory, env.ability, env.audit)
	env.clan = NewClanService(gdb, log, env.clanRepo, clanHistoryRepo, env.classroomRepo, env.characterRepo, env.studentRepo, env.questLogRepo, env.auditRepo, env.character, env.audit)
	env.roster = NewRosterService(gdb, log, env.userRepo, env.studentRepo, env.classroomRepo, env.clanRepo, env.characterRepo, env.audit)
	env.catalog = NewCatalogService(gdb, log, env.monsterRepo, env.questionSetRepo, env.questionRepo, env.equipmentRepo, env.abilityRepo)
	return env
}

// ---- fixtures ----

func (e *testEnv) seedTeacher(t *testing.T) *types.User {
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

func (e *testEnv) seedClassroom(t *testing.T, teacherID uuid.UUID) *types.Classroom {
	t.Helper()
	c := &types.Classroom{
		TeacherID:   teacherID,
		Name:        "Room " + uuid.NewString()[:4],
		JoinCode:    uuid.NewString()[:types.JoinCodeLength],
		MaxStudents: 30,
		MaxClans:    6,
		IsActive:    true,
	}
	if err := e.db.Create(c).Error; err != nil {
		t.Fatalf("seed classroom: %v", err)
	}
	return c
}

func (e *testEnv) seedStudent(t *testing.T, classID *uuid.UUID) *types.Student {
	t.Helper()
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
	status := types.StudentStatusUnassigned
	if classID != nil {
		status = types.StudentStatusActive
	}
	st := &types.Student{UserID: u.ID, ClassID: classID, Status: status}
	if err := e.db.Create(st).Error; err != nil {
		t.Fatalf("seed student profile: %v", err)
	}
	return st
}

func (e *testEnv) seedCharacter(t *testing.T, studentID uuid.UUID, class string) *types.Character {
	t.Helper()
	ch, err := e.character.Create(t.Context(), studentID, "Hero "+uuid.NewString()[:4], class)
	if err != nil {
		t.Fatalf("seed character: %v", err)
	}
	return ch
}

func (e *testEnv) seedEquipment(t *testing.T, item *types.Equipment) *types.Equipment {
	t.Helper()
	if item.Name == "" {
		item.Name = "Item " + uuid.NewString()[:8]
	}
	if item.Rarity == 0 {
		item.Rarity = 1
	}
	if item.LevelRequirement == 0 {
		item.LevelRequirement = 1
	}
	if err := e.db.Create(item).Error; err != nil {
		t.Fatalf("seed equipment: %v", err)
	}
	return item
}

func (e *testEnv) seedAbility(t *testing.T, a *types.Ability) *types.Ability {
	t.Helper()
	if a.Name == "" {
		a.Name = "Ability " + uuid.NewString()[:8]
	}
	if a.Type == "" {
		a.Type = types.AbilityAttack
	}
	if a.LevelRequirement == 0 {
		a.LevelRequirement = 1
	}
	if err := e.db.Create(a).Error; err != nil {
		t.Fatalf("seed ability: %v", err)
	}
	return a
}

func (e *testEnv) reloadCharacter(t *testing.T, id uuid.UUID) *types.Character {
	t.Helper()
	ch, err := e.characterRepo.GetByID(t.Context(), nil, id)
	if err != nil {
		t.Fatalf("reload character: %v", err)
	}
	return ch
}
