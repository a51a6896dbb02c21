package main

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gorm.io/gorm"

	"github.com/classquest/classquest-backend/internal/db"
	types "github.com/classquest/classquest-backend/internal/domain"
	"github.com/classquest/classquest-backend/internal/pkg/logger"
	"github.com/classquest/classquest-backend/internal/repos"
)

//go:embed equipment.json
var equipmentJSON []byte

//go:embed abilities.json
var abilitiesJSON []byte

type equipmentSeed struct {
	Name             string `json:"name"`
	Type             string `json:"type"`
	Slot             string `json:"slot"`
	LevelRequirement int    `json:"level_requirement"`
	HealthBonus      int    `json:"health_bonus"`
	StrengthBonus    int    `json:"strength_bonus"`
	DefenseBonus     int    `json:"defense_bonus"`
	Rarity           int    `json:"rarity"`
	Cost             int    `json:"cost"`
	ClassRestriction string `json:"class_restriction"`
}

type abilitySeed struct {
	Name             string `json:"name"`
	Type             string `json:"type"`
	Power            int    `json:"power"`
	CooldownSeconds  int    `json:"cooldown_seconds"`
	DurationSeconds  int    `json:"duration_seconds"`
	Cost             int    `json:"cost"`
	LevelRequirement int    `json:"level_requirement"`
}

// Seeds the base item and ability catalogs. Safe to run repeatedly,
// rows are matched by name and never duplicated.
func main() {
	_ = godotenv.Load()

	log, err := logger.New(os.Getenv("LOG_MODE"))
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

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

	ctx := context.Background()
	equipmentRepo := repos.NewEquipmentRepo(theDB, log)
	abilityRepo := repos.NewAbilityRepo(theDB, log)

	var equipSeeds []equipmentSeed
	if err := json.Unmarshal(equipmentJSON, &equipSeeds); err != nil {
		log.Error("Bad equipment seed file", "error", err)
		os.Exit(1)
	}
	created := 0
	for _, seed := range equipSeeds {
		_, err := equipmentRepo.GetByName(ctx, nil, seed.Name)
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Error("Equipment lookup failed", "name", seed.Name, "error", err)
			os.Exit(1)
		}
		item := &types.Equipment{
			Name:             seed.Name,
			Type:             seed.Type,
			Slot:             seed.Slot,
			LevelRequirement: seed.LevelRequirement,
			HealthBonus:      seed.HealthBonus,
			StrengthBonus:    seed.StrengthBonus,
			DefenseBonus:     seed.DefenseBonus,
			Rarity:           seed.Rarity,
			Cost:             seed.Cost,
			ClassRestriction: seed.ClassRestriction,
		}
		if err := db.WithRetry(ctx, log, func() error {
			_, createErr := equipmentRepo.Create(ctx, nil, []*types.Equipment{item})
			return createErr
		}); err != nil {
			log.Error("Equipment seed failed", "name", seed.Name, "error", err)
			os.Exit(1)
		}
		created++
	}
	log.Info("Equipment catalog seeded", "created", created, "total", len(equipSeeds))

	var abilitySeeds []abilitySeed
	if err := json.Unmarshal(abilitiesJSON, &abilitySeeds); err != nil {
		log.Error("Bad ability seed file", "error", err)
		os.Exit(1)
	}
	existing, err := abilityRepo.GetAll(ctx, nil)
	if err != nil {
		log.Error("Ability listing failed", "error", err)
		os.Exit(1)
	}
	known := make(map[string]bool, len(existing))
	for _, a := range existing {
		known[a.Name] = true
	}
	created = 0
	for _, seed := range abilitySeeds {
		if known[seed.Name] {
			continue
		}
		ability := &types.Ability{
			Name:             seed.Name,
			Type:             seed.Type,
			Power:            seed.Power,
			CooldownSeconds:  seed.CooldownSeconds,
			DurationSeconds:  seed.DurationSeconds,
			Cost:             seed.Cost,
			LevelRequirement: seed.LevelRequirement,
		}
		if err := db.WithRetry(ctx, log, func() error {
			_, createErr := abilityRepo.Create(ctx, nil, []*types.Ability{ability})
			return createErr
		}); err != nil {
			log.Error("Ability seed failed", "name", seed.Name, "error", err)
			os.Exit(1)
		}
		created++
	}
	log.Info("Ability catalog seeded", "created", created, "total", len(abilitySeeds))
}
