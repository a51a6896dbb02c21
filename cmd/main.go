package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/classquest/classquest-backend/internal/db"
	"github.com/classquest/classquest-backend/internal/handlers"
	"github.com/classquest/classquest-backend/internal/jobs"
	"github.com/classquest/classquest-backend/internal/middleware"
	"github.com/classquest/classquest-backend/internal/observability"
	"github.com/classquest/classquest-backend/internal/pkg/logger"
	"github.com/classquest/classquest-backend/internal/repos"
	"github.com/classquest/classquest-backend/internal/server"
	"github.com/classquest/classquest-backend/internal/services"
	"github.com/classquest/classquest-backend/internal/utils"
)

func main() {
	_ = godotenv.Load()

	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Env
	log.Info("Loading environment variables from main...")
	secretKey := utils.GetEnv("SECRET_KEY", "defaultsecret", log)
	teacherAccessCode := utils.GetEnv("TEACHER_ACCESS_CODE", "", log)
	accessTokenTTL := utils.GetEnvAsInt("ACCESS_TOKEN_TTL", 86400, log)

	// Tracing
	otelShutdown := observability.InitOTel(context.Background(), log, observability.OtelConfig{
		ServiceName: "classquest",
		Environment: utils.GetEnv("ENVIRONMENT", "development", log),
		Version:     utils.GetEnv("SERVICE_VERSION", "", log),
	})
	if otelShutdown != nil {
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(ctx)
		}()
	}

	// Database
	database, err := db.NewDatabaseService(log)
	if err != nil {
		log.Error("Database init failed", "error", err)
		os.Exit(1)
	}
	if err = database.AutoMigrateAll(); err != nil {
		log.Error("Auto migration failed", "error", err)
		os.Exit(1)
	}
	theDB := database.DB()
	if err = db.CheckSchemaRevision(theDB, log); err != nil {
		log.Warn("Schema revision check failed", "error", err)
	}

	// Repos
	log.Info("Setting up Repos from main...")
	userRepo := repos.NewUserRepo(theDB, log)
	studentRepo := repos.NewStudentRepo(theDB, log)
	classroomRepo := repos.NewClassroomRepo(theDB, log)
	characterRepo := repos.NewCharacterRepo(theDB, log)
	statusEffectRepo := repos.NewStatusEffectRepo(theDB, log)
	equipmentRepo := repos.NewEquipmentRepo(theDB, log)
	inventoryRepo := repos.NewInventoryRepo(theDB, log)
	abilityRepo := repos.NewAbilityRepo(theDB, log)
	charAbilityRepo := repos.NewCharacterAbilityRepo(theDB, log)
	questRepo := repos.NewQuestRepo(theDB, log)
	questRewardRepo := repos.NewQuestRewardRepo(theDB, log)
	questConsRepo := repos.NewQuestConsequenceRepo(theDB, log)
	questLogRepo := repos.NewQuestLogRepo(theDB, log)
	monsterRepo := repos.NewMonsterRepo(theDB, log)
	questionSetRepo := repos.NewQuestionSetRepo(theDB, log)
	questionRepo := repos.NewQuestionRepo(theDB, log)
	battleRepo := repos.NewBattleRepo(theDB, log)
	purchaseRepo := repos.NewShopPurchaseRepo(theDB, log)
	overrideRepo := repos.NewShopItemOverrideRepo(theDB, log)
	clanRepo := repos.NewClanRepo(theDB, log)
	clanHistoryRepo := repos.NewClanProgressHistoryRepo(theDB, log)
	auditRepo := repos.NewAuditLogRepo(theDB, log)

	// Services
	log.Info("Setting up Services from main...")
	auditService := services.NewAuditService(theDB, log, auditRepo)
	authService := services.NewAuthService(theDB, log, userRepo, auditService, secretKey, teacherAccessCode, time.Duration(accessTokenTTL)*time.Second)
	characterService := services.NewCharacterService(theDB, log, characterRepo, studentRepo, classroomRepo, clanRepo, inventoryRepo, statusEffectRepo, auditService)
	inventoryService := services.NewInventoryService(theDB, log, inventoryRepo, equipmentRepo, characterRepo)
	abilityService := services.NewAbilityService(theDB, log, abilityRepo, charAbilityRepo, characterRepo, statusEffectRepo, characterService, auditService)
	questService := services.NewQuestService(theDB, log, questRepo, questRewardRepo, questConsRepo, questLogRepo, characterRepo, studentRepo, clanRepo, characterService, inventoryService, abilityService, auditService)
	battleService := services.NewBattleService(theDB, log, battleRepo, monsterRepo, questionSetRepo, questionRepo, characterRepo, characterService, auditService)
	shopService := services.NewShopService(theDB, log, equipmentRepo, abilityRepo, purchaseRepo, overrideRepo, characterRepo, studentRepo, inventoryRepo, charAbilityRepo, inventoryService, abilityService, auditService)
	clanService := services.NewClanService(theDB, log, clanRepo, clanHistoryRepo, classroomRepo, characterRepo, studentRepo, questLogRepo, auditRepo, characterService, auditService)
	rosterService := services.NewRosterService(theDB, log, userRepo, studentRepo, classroomRepo, clanRepo, characterRepo, auditService)
	catalogService := services.NewCatalogService(theDB, log, monsterRepo, questionSetRepo, questionRepo, equipmentRepo, abilityRepo)

	// Handlers
	log.Info("Setting up handlers from main...")
	authHandler := handlers.NewAuthHandler(authService)
	teacherHandler := handlers.NewTeacherHandler(rosterService, questService, clanService, shopService, catalogService, inventoryService, abilityService, characterService, auditService)
	studentHandler := handlers.NewStudentHandler(rosterService, characterService, questService, battleService, abilityService, inventoryService, shopService, catalogService)

	// Middleware
	log.Info("Setting up middleware from main...")
	authMiddleware := middleware.NewAuthMiddleware(log, authService)

	// Scheduler
	scheduler := jobs.NewScheduler(log, clanService, database)
	if err := scheduler.Start(); err != nil {
		log.Error("Scheduler init failed", "error", err)
		os.Exit(1)
	}
	defer scheduler.Stop()

	// Router
	log.Info("Setting up router from main...")
	var origins []string
	if raw := utils.GetEnv("CORS_ORIGINS", "", log); raw != "" {
		for _, o := range strings.Split(raw, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
	}
	router := server.NewRouter(server.RouterConfig{
		AuthHandler:    authHandler,
		TeacherHandler: teacherHandler,
		StudentHandler: studentHandler,
		AuthMiddleware: authMiddleware,
		AllowOrigins:   origins,
		TracingEnabled: observability.Enabled(),
	})

	port := utils.GetEnv("PORT", "8080", log)
	fmt.Printf("Server listening on :%s\n", port)
	if err := router.Run(":" + port); err != nil {
		log.Error("Server failed", "error", err)
	}
}
