package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	types "github.com/classquest/classquest-backend/internal/domain"
	"github.com/classquest/classquest-backend/internal/handlers"
	"github.com/classquest/classquest-backend/internal/middleware"
)

type RouterConfig struct {
	AuthHandler    *handlers.AuthHandler
	TeacherHandler *handlers.TeacherHandler
	StudentHandler *handlers.StudentHandler
	AuthMiddleware *middleware.AuthMiddleware
	AllowOrigins   []string
	TracingEnabled bool
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	if cfg.TracingEnabled {
		router.Use(otelgin.Middleware("classquest"))
	}

	origins := cfg.AllowOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000", "http://localhost:5173"}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	// ===============
	// || Public    ||
	// ===============
	router.GET("/healthcheck", handlers.HealthCheck)
	auth := router.Group("/auth")
	{
		auth.POST("/signup", cfg.AuthHandler.Signup)
		auth.POST("/login", cfg.AuthHandler.Login)
	}

	// ===============
	// || Protected ||
	// ===============
	protected := router.Group("/")
	protected.Use(cfg.AuthMiddleware.RequireAuth())
	protected.POST("/auth/logout", cfg.AuthHandler.Logout)

	teacher := protected.Group("/teacher")
	teacher.Use(cfg.AuthMiddleware.RequireRole(types.RoleTeacher))
	{
		// Classrooms
		teacher.POST("/classes", cfg.TeacherHandler.CreateClassroom)
		teacher.GET("/classes", cfg.TeacherHandler.ListClassrooms)
		teacher.POST("/classes/:id/archive", cfg.TeacherHandler.ArchiveClassroom)
		teacher.DELETE("/classes/:id", cfg.TeacherHandler.DeleteClassroom)
		teacher.POST("/classes/:id/join-code", cfg.TeacherHandler.RegenerateJoinCode)
		teacher.GET("/classes/:id/overview", cfg.TeacherHandler.ClassOverview)
		// Roster
		teacher.POST("/classes/:id/students", cfg.TeacherHandler.EnrollStudent)
		teacher.GET("/classes/:id/students", cfg.TeacherHandler.ListStudents)
		teacher.POST("/classes/:id/import/preview", cfg.TeacherHandler.ImportPreview)
		teacher.POST("/classes/:id/import", cfg.TeacherHandler.ImportCommit)
		teacher.GET("/students/unassigned", cfg.TeacherHandler.ListUnassigned)
		teacher.POST("/students/:id/remove", cfg.TeacherHandler.RemoveFromClass)
		teacher.POST("/students/:id/reassign", cfg.TeacherHandler.Reassign)
		teacher.DELETE("/students/:id", cfg.TeacherHandler.DeleteUnassigned)
		// Quests
		teacher.POST("/quests", cfg.TeacherHandler.CreateQuest)
		teacher.GET("/quests", cfg.TeacherHandler.ListQuests)
		teacher.POST("/quests/:id/assign", cfg.TeacherHandler.AssignQuest)
		teacher.POST("/quests/:id/fail", cfg.TeacherHandler.FailQuest)
		// Catalog
		teacher.POST("/monsters", cfg.TeacherHandler.CreateMonster)
		teacher.GET("/monsters", cfg.TeacherHandler.ListMonsters)
		teacher.POST("/question-sets", cfg.TeacherHandler.CreateQuestionSet)
		teacher.GET("/question-sets", cfg.TeacherHandler.ListQuestionSets)
		teacher.POST("/equipment", cfg.TeacherHandler.CreateEquipment)
		teacher.POST("/abilities", cfg.TeacherHandler.CreateAbility)
		teacher.POST("/grants/equipment", cfg.TeacherHandler.GrantEquipment)
		teacher.POST("/grants/abilities", cfg.TeacherHandler.GrantAbility)
		// Clans
		teacher.POST("/classes/:id/clans", cfg.TeacherHandler.CreateClan)
		teacher.GET("/classes/:id/clans", cfg.TeacherHandler.ListClans)
		teacher.POST("/clans/:id/members", cfg.TeacherHandler.AddClanMember)
		teacher.DELETE("/clans/:id/members", cfg.TeacherHandler.RemoveClanMember)
		teacher.POST("/clans/:id/leader", cfg.TeacherHandler.SetClanLeader)
		teacher.GET("/clans/:id/metrics", cfg.TeacherHandler.ClanMetrics)
		teacher.GET("/clans/:id/history", cfg.TeacherHandler.ClanHistory)
		// Shop overrides
		teacher.PUT("/shop/overrides", cfg.TeacherHandler.SetShopOverride)
		teacher.DELETE("/shop/overrides", cfg.TeacherHandler.ClearShopOverride)
		// Analytics
		teacher.GET("/analytics/characters/:id/xp-timeline", cfg.TeacherHandler.XPTimeline)
		teacher.GET("/analytics/characters/:id/gold-summary", cfg.TeacherHandler.GoldSummary)
		teacher.GET("/analytics/events", cfg.TeacherHandler.ListEvents)
	}

	student := protected.Group("/student")
	student.Use(cfg.AuthMiddleware.RequireRole(types.RoleStudent))
	{
		// Character
		student.POST("/character", cfg.StudentHandler.CreateCharacter)
		student.GET("/character", cfg.StudentHandler.CharacterSheet)
		// Quests
		student.GET("/quests/map", cfg.StudentHandler.QuestMap)
		student.POST("/quests/:id/start", cfg.StudentHandler.StartQuest)
		student.POST("/quests/:id/progress", cfg.StudentHandler.UpdateQuestProgress)
		student.POST("/quests/:id/complete", cfg.StudentHandler.CompleteQuest)
		// Battles
		student.POST("/battles", cfg.StudentHandler.StartBattle)
		student.GET("/battles/active", cfg.StudentHandler.ActiveBattle)
		student.GET("/battles/:id/question", cfg.StudentHandler.BattleQuestion)
		student.POST("/battles/:id/attack", cfg.StudentHandler.Attack)
		student.POST("/battles/:id/flee", cfg.StudentHandler.Flee)
		// Abilities
		student.GET("/abilities", cfg.StudentHandler.ListAbilities)
		student.POST("/abilities/:id/equip", cfg.StudentHandler.EquipAbility)
		student.POST("/abilities/:id/unequip", cfg.StudentHandler.UnequipAbility)
		student.POST("/abilities/:id/level-up", cfg.StudentHandler.LevelUpAbility)
		student.POST("/abilities/:id/use", cfg.StudentHandler.UseAbility)
		// Inventory
		student.GET("/inventory", cfg.StudentHandler.ListInventory)
		student.POST("/inventory/:id/equip", cfg.StudentHandler.EquipItem)
		student.POST("/inventory/:id/unequip", cfg.StudentHandler.UnequipItem)
		// Shop
		student.GET("/shop", cfg.StudentHandler.ShopItems)
		student.POST("/shop/purchase", cfg.StudentHandler.Purchase)
		// Clan
		student.POST("/clan/join", cfg.StudentHandler.JoinClan)
		student.POST("/clan/leave", cfg.StudentHandler.LeaveClan)
		// Bestiary
		student.GET("/monsters", cfg.StudentHandler.ListMonsters)
	}

	return router
}
