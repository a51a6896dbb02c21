package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	types "github.com/classquest/classquest-backend/internal/domain"
	"github.com/classquest/classquest-backend/internal/middleware"
	"github.com/classquest/classquest-backend/internal/pkg/apperr"
	"github.com/classquest/classquest-backend/internal/services"
)

type StudentHandler struct {
	rosterService    services.RosterService
	characterService services.CharacterService
	questService     services.QuestService
	battleService    services.BattleService
	abilityService   services.AbilityService
	inventoryService services.InventoryService
	shopService      services.ShopService
	catalogService   services.CatalogService
}

func NewStudentHandler(
	rosterService services.RosterService,
	characterService services.CharacterService,
	questService services.QuestService,
	battleService services.BattleService,
	abilityService services.AbilityService,
	inventoryService services.InventoryService,
	shopService services.ShopService,
	catalogService services.CatalogService,
) *StudentHandler {
	return &StudentHandler{
		rosterService:    rosterService,
		characterService: characterService,
		questService:     questService,
		battleService:    battleService,
		abilityService:   abilityService,
		inventoryService: inventoryService,
		shopService:      shopService,
		catalogService:   catalogService,
	}
}

// student resolves the caller's student profile from the token subject.
func (h *StudentHandler) student(c *gin.Context) (*types.Student, bool) {
	st, err := h.rosterService.GetStudentByUserID(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondErr(c, err)
		return nil, false
	}
	return st, true
}

// character resolves the caller's active character, 404 if none exists yet.
func (h *StudentHandler) character(c *gin.Context) (*types.Character, bool) {
	st, ok := h.student(c)
	if !ok {
		return nil, false
	}
	ch, err := h.characterService.GetActiveForStudent(c.Request.Context(), st.ID)
	if err != nil {
		respondErr(c, err)
		return nil, false
	}
	return ch, true
}

// ---- character ----

type createCharacterRequest struct {
	Name  string `json:"name" binding:"required"`
	Class string `json:"class" binding:"required"`
}

func (h *StudentHandler) CreateCharacter(c *gin.Context) {
	st, ok := h.student(c)
	if !ok {
		return
	}
	var req createCharacterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid character payload")
		return
	}
	ch, err := h.characterService.Create(c.Request.Context(), st.ID, req.Name, req.Class)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondCreated(c, "character created", ch)
}

func (h *StudentHandler) CharacterSheet(c *gin.Context) {
	ch, ok := h.character(c)
	if !ok {
		return
	}
	totals, err := h.characterService.Totals(c.Request.Context(), ch.ID)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, "", gin.H{"character": ch, "totals": totals})
}

// ---- quests ----

func (h *StudentHandler) QuestMap(c *gin.Context) {
	ch, ok := h.character(c)
	if !ok {
		return
	}
	logs, err := h.questService.QuestMap(c.Request.Context(), ch.ID)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, "", logs)
}

func (h *StudentHandler) StartQuest(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	ch, ok := h.character(c)
	if !ok {
		return
	}
	if err := h.questService.Start(c.Request.Context(), ch.ID, id); err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, "quest started", nil)
}

type questProgressRequest struct {
	Progress map[string]any `json:"progress" binding:"required"`
}

func (h *StudentHandler) UpdateQuestProgress(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req questProgressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid progress payload")
		return
	}
	ch, ok := h.character(c)
	if !ok {
		return
	}
	if err := h.questService.UpdateProgress(c.Request.Context(), ch.ID, id, req.Progress); err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, "progress saved", nil)
}

func (h *StudentHandler) CompleteQuest(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	ch, ok := h.character(c)
	if !ok {
		return
	}
	if err := h.questService.Complete(c.Request.Context(), ch.ID, id); err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, "quest complete", nil)
}

// ---- battles ----

type startBattleRequest struct {
	MonsterID     uuid.UUID `json:"monster_id" binding:"required"`
	QuestionSetID uuid.UUID `json:"question_set_id" binding:"required"`
}

func (h *StudentHandler) StartBattle(c *gin.Context) {
	st, ok := h.student(c)
	if !ok {
		return
	}
	var req startBattleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid battle payload")
		return
	}
	battle, err := h.battleService.Start(c.Request.Context(), st.ID, req.MonsterID, req.QuestionSetID)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondCreated(c, "battle started", battle)
}

func (h *StudentHandler) ActiveBattle(c *gin.Context) {
	st, ok := h.student(c)
	if !ok {
		return
	}
	battle, err := h.battleService.ActiveForStudent(c.Request.Context(), st.ID)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, "", battle)
}

func (h *StudentHandler) requireOwnBattle(c *gin.Context, battleID uuid.UUID) (*types.Battle, bool) {
	st, ok := h.student(c)
	if !ok {
		return nil, false
	}
	battle, err := h.battleService.Get(c.Request.Context(), battleID)
	if err != nil {
		respondErr(c, err)
		return nil, false
	}
	if battle.StudentID != st.ID {
		respondErr(c, apperr.Permissionf("forbidden"))
		return nil, false
	}
	return battle, true
}

func (h *StudentHandler) BattleQuestion(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if _, ok := h.requireOwnBattle(c, id); !ok {
		return
	}
	question, err := h.battleService.DrawQuestion(c.Request.Context(), id)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, "", question)
}

type attackRequest struct {
	QuestionID uuid.UUID `json:"question_id" binding:"required"`
	Answer     string    `json:"answer" binding:"required"`
}

func (h *StudentHandler) Attack(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if _, ok := h.requireOwnBattle(c, id); !ok {
		return
	}
	var req attackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid attack payload")
		return
	}
	result, err := h.battleService.Attack(c.Request.Context(), id, req.QuestionID, req.Answer)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, "", result)
}

func (h *StudentHandler) Flee(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if _, ok := h.requireOwnBattle(c, id); !ok {
		return
	}
	if err := h.battleService.Flee(c.Request.Context(), id); err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, "fled the battle", nil)
}

// ---- abilities ----

func (h *StudentHandler) ListAbilities(c *gin.Context) {
	ch, ok := h.character(c)
	if !ok {
		return
	}
	abilities, err := h.abilityService.ListForCharacter(c.Request.Context(), ch.ID)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, "", abilities)
}

func (h *StudentHandler) EquipAbility(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	ch, ok := h.character(c)
	if !ok {
		return
	}
	if err := h.abilityService.EquipAbility(c.Request.Context(), ch.ID, id); err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, "ability equipped", nil)
}

func (h *StudentHandler) UnequipAbility(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	ch, ok := h.character(c)
	if !ok {
		return
	}
	if err := h.abilityService.UnequipAbility(c.Request.Context(), ch.ID, id); err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, "ability unequipped", nil)
}

func (h *StudentHandler) LevelUpAbility(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	ch, ok := h.character(c)
	if !ok {
		return
	}
	if err := h.abilityService.LevelUpAbility(c.Request.Context(), ch.ID, id); err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, "ability leveled up", nil)
}

type useAbilityRequest struct {
	TargetID uuid.UUID `json:"target_id" binding:"required"`
}

func (h *StudentHandler) UseAbility(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req useAbilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid target payload")
		return
	}
	ch, ok := h.character(c)
	if !ok {
		return
	}
	result, err := h.abilityService.Use(c.Request.Context(), ch.ID, id, req.TargetID)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, "ability used", result)
}

// ---- inventory ----

func (h *StudentHandler) ListInventory(c *gin.Context) {
	ch, ok := h.character(c)
	if !ok {
		return
	}
	rows, err := h.inventoryService.List(c.Request.Context(), ch.ID)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, "", rows)
}

func (h *StudentHandler) EquipItem(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	ch, ok := h.character(c)
	if !ok {
		return
	}
	if err := h.inventoryService.Equip(c.Request.Context(), ch.ID, id); err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, "item equipped", nil)
}

func (h *StudentHandler) UnequipItem(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	ch, ok := h.character(c)
	if !ok {
		return
	}
	if err := h.inventoryService.Unequip(c.Request.Context(), ch.ID, id); err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, "item unequipped", nil)
}

// ---- shop ----

func (h *StudentHandler) ShopItems(c *gin.Context) {
	st, ok := h.student(c)
	if !ok {
		return
	}
	items, err := h.shopService.ListItems(c.Request.Context(), st.ClassID)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, "", items)
}

type purchaseRequest struct {
	ItemID uuid.UUID `json:"item_id" binding:"required"`
	Kind   string    `json:"kind" binding:"required"`
}

func (h *StudentHandler) Purchase(c *gin.Context) {
	var req purchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid purchase payload")
		return
	}
	ch, ok := h.character(c)
	if !ok {
		return
	}
	receipt, err := h.shopService.Purchase(c.Request.Context(), ch.ID, req.ItemID, req.Kind)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondCreated(c, "purchase complete", receipt)
}

// ---- clan ----

type joinClanRequest struct {
	ClanID uuid.UUID `json:"clan_id" binding:"required"`
}

func (h *StudentHandler) JoinClan(c *gin.Context) {
	var req joinClanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid clan payload")
		return
	}
	ch, ok := h.character(c)
	if !ok {
		return
	}
	if err := h.characterService.JoinClan(c.Request.Context(), ch.ID, req.ClanID); err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, "joined clan", nil)
}

func (h *StudentHandler) LeaveClan(c *gin.Context) {
	ch, ok := h.character(c)
	if !ok {
		return
	}
	if err := h.characterService.LeaveClan(c.Request.Context(), ch.ID); err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, "left clan", nil)
}

// ---- catalog browsing ----

func (h *StudentHandler) ListMonsters(c *gin.Context) {
	monsters, err := h.catalogService.ListMonsters(c.Request.Context())
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, "", monsters)
}
