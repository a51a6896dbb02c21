package repos

import (
	"github.com/classquest/classquest-backend/internal/repos/audit"
	"github.com/classquest/classquest-backend/internal/repos/battle"
	"github.com/classquest/classquest-backend/internal/repos/clan"
	"github.com/classquest/classquest-backend/internal/repos/game"
	"github.com/classquest/classquest-backend/internal/repos/quest"
	"github.com/classquest/classquest-backend/internal/repos/roster"
	"github.com/classquest/classquest-backend/internal/repos/shop"
)

type UserRepo = roster.UserRepo
type StudentRepo = roster.StudentRepo
type ClassroomRepo = roster.ClassroomRepo

type CharacterRepo = game.CharacterRepo
type StatusEffectRepo = game.StatusEffectRepo
type EquipmentRepo = game.EquipmentRepo
type InventoryRepo = game.InventoryRepo
type AbilityRepo = game.AbilityRepo
type CharacterAbilityRepo = game.CharacterAbilityRepo

type QuestRepo = quest.QuestRepo
type QuestRewardRepo = quest.QuestRewardRepo
type QuestConsequenceRepo = quest.QuestConsequenceRepo
type QuestLogRepo = quest.QuestLogRepo

type MonsterRepo = battle.MonsterRepo
type QuestionSetRepo = battle.QuestionSetRepo
type QuestionRepo = battle.QuestionRepo
type BattleRepo = battle.BattleRepo

type ShopPurchaseRepo = shop.ShopPurchaseRepo
type ShopItemOverrideRepo = shop.ShopItemOverrideRepo

type ClanRepo = clan.ClanRepo
type ClanProgressHistoryRepo = clan.ClanProgressHistoryRepo

type AuditLogRepo = audit.AuditLogRepo
type AuditFilter = audit.Filter

var NewUserRepo = roster.NewUserRepo
var NewStudentRepo = roster.NewStudentRepo
var NewClassroomRepo = roster.NewClassroomRepo
var NewCharacterRepo = game.NewCharacterRepo
var NewStatusEffectRepo = game.NewStatusEffectRepo
var NewEquipmentRepo = game.NewEquipmentRepo
var NewInventoryRepo = game.NewInventoryRepo
var NewAbilityRepo = game.NewAbilityRepo
var NewCharacterAbilityRepo = game.NewCharacterAbilityRepo
var NewQuestRepo = quest.NewQuestRepo
var NewQuestRewardRepo = quest.NewQuestRewardRepo
var NewQuestConsequenceRepo = quest.NewQuestConsequenceRepo
var NewQuestLogRepo = quest.NewQuestLogRepo
var NewMonsterRepo = battle.NewMonsterRepo
var NewQuestionSetRepo = battle.NewQuestionSetRepo
var NewQuestionRepo = battle.NewQuestionRepo
var NewBattleRepo = battle.NewBattleRepo
var NewShopPurchaseRepo = shop.NewShopPurchaseRepo
var NewShopItemOverrideRepo = shop.NewShopItemOverrideRepo
var NewClanRepo = clan.NewClanRepo
var NewClanProgressHistoryRepo = clan.NewClanProgressHistoryRepo
var NewAuditLogRepo = audit.NewAuditLogRepo
