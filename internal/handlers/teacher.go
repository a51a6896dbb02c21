package handlers

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	types "github.com/classquest/classquest-backend/internal/domain"
	"github.com/classquest/classquest-backend/internal/middleware"
	"github.com/classquest/classquest-backend/internal/pkg/apperr"
	"github.com/classquest/classquest-backend/internal/repos"
	"github.com/classquest/classquest-backend/internal/services"
)

type TeacherHandler struct {
	rosterService    services.RosterService
	questService     services.QuestService
	clanService      services.ClanService
	shopService      services.ShopService
	catalogService   services.CatalogService
	inventoryService services.InventoryService
	abilityService   services.AbilityService
	characterService services.CharacterService
	auditService     services.AuditService
}

func NewTeacherHandler(
	rosterService services.RosterService,
	questService services.QuestService,
	clanService services.ClanService,
	shopService services.ShopService,
	catalogService services.CatalogService,
	inventoryService services.InventoryService,
	abilityService services.AbilityService,
	characterService services.CharacterService,
	auditService services.AuditService,
) *TeacherHandler {
	return &TeacherHandler{
		rosterService:    rosterService,
		questService:     questService,
		clanService:      clanService,
		shopService:      shopService,
		catalogService:   catalogService,
		inventoryService: inventoryService,
		abilityService:   abilityService,
		characterService: characterService,
		auditService:     auditService,
	}
}

func pathID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		respondBadRequest(c, "invalid id")
		return uuid.Nil, false
	}
	return id, true
}

// requireClassroom aborts with 403 unless the authenticated teacher owns
// the classroom. Non-owners get the same response as missing rooms.
func (h *TeacherHandler) requireClassroom(c *gin.Context, classroomID uuid.UUID) bool {
	owns, err := h.rosterService.TeacherOwnsClassroom(c.Request.Context(), middleware.UserID(c), classroomID)
	if err != nil {
		respondErr(c, err)
		return false
	}
	if !owns {
		respondErr(c, apperr.Permissionf("forbidden"))
		return false
	}
	return true
}

func (h *TeacherHandler) requireStudent(c *gin.Context, studentID uuid.UUID) bool {
	owns, err := h.rosterService.TeacherOwnsStudent(c.Request.Context(), middleware.UserID(c), studentID)
	if err != nil {
		respondErr(c, err)
		return false
	}
	if !owns {
		respondErr(c, apperr.Permissionf("forbidden"))
		return false
	}
	return true
}

// requireCharacter resolves the character to its student and checks the
// teacher owns that student's classroom.
func (h *TeacherHandler) requireCharacter(c *gin.Context, characterID uuid.UUID) bool {
	ch, err := h.characterService.Get(c.Request.Context(), characterID)
	if err != nil {
		respondErr(c, err)
		return false
	}
	return h.requireStudent(c, ch.StudentID)
}

// ---- classrooms ----

type createClassroomRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	MaxStudents int    `json:"max_students"`
	MaxClans    int    `json:"max_clans"`
	MinClanSize *int   `json:"min_clan_size"`
	MaxClanSize *int   `json:"max_clan_size"`
}

func (h *TeacherHandler) CreateClassroom(c *gin.Context) {
	var req createClassroomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid classroom payload")
		return
	}
	classroom, err := h.rosterService.CreateClassroom(c.Request.Context(), middleware.UserID(c), services.CreateClassroomInput{
		Name:        req.Name,
		Description: req.Description,
		MaxStudents: req.MaxStudents,
		MaxClans:    req.MaxClans,
		MinClanSize: req.MinClanSize,
		MaxClanSize: req.MaxClanSize,
	})
	if err != nil {
		respondErr(c, err)
		return
	}
	respondCreated(c, "classroom created", classroom)
}

func (h *TeacherHandler) ListClassrooms(c *gin.Context) {
	classrooms, err := h.rosterService.ListClassrooms(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, "", classrooms)
}

func (h *TeacherHandler) ArchiveClassroom(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok || !h.requireClassroom(c, id) {
		return
	}
	if err := h.rosterService.ArchiveClassroom(c.Request.Context(), id); err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, "classroom archived", nil)
}

func (h *TeacherHandler) DeleteClassroom(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok || !h.requireClassroom(c, id) {
		return
	}
	if err := h.rosterService.DeleteClassroom(c.Request.Context(), id); err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, "classroom deleted", nil)
}

func (h *TeacherHandler) RegenerateJoinCode(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok || !h.requireClassroom(c, id) {
		return
	}
	code, err := h.rosterService.RegenerateJoinCode(c.Request.Context(), id)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, "join code regenerated", gin.H{"join_code": code})
}

// ---- students ----

type enrollStudentRequest struct {
	Username  string `json:"username" binding:"required"`
	Email     string `json:"email"`
	Password  string `json:"password" binding:"required"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

func (h *TeacherHandler) EnrollStudent(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok || !h.requireClassroom(c, id) {
		return
	}
	var req enrollStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid enrollment payload")
		return
	}
	student, err := h.rosterService.EnrollStudent(c.Request.Context(), id, services.EnrollStudentInput{
		Username:  req.Username,
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		respondErr(c, err)
		return
	}
	respondCreated(c, "student enrolled", student)
}

func (h *TeacherHandler) ListStudents(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok || !h.requireClassroom(c, id) {
		return
	}
	students, err := h.rosterService.ListStudents(c.Request.Context(), id)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, "", students)
}

func (h *TeacherHandler) ListUnassigned(c *gin.Context) {
	students, err := h.rosterService.ListUnassigned(c.Request.Context())
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, "", students)
}

type importRequest struct {
	Rows []services.ImportRow `json:"rows" binding:"required"`
}

func (h *TeacherHandler) ImportPreview(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok || !h.requireClassroom(c, id) {
		return
	}
	var req importRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid import payload")
		return
	}
	result, err := h.rosterService.BulkImportPreview(c.Request.Context(), id, req.Rows)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, "", result)
}

func (h *TeacherHandler) ImportCommit(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok || !h.requireClassroom(c, id) {
		return
	}
	var req importRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid import payload")
		return
	}
	result, err := h.rosterService.BulkImportCommit(c.Request.Context(), id, req.Rows)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, "import complete", result)
}

func (h *TeacherHandler) RemoveFromClass(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok || !h.requireStudent(c, id) {
		return
	}
	if err := h.rosterService.RemoveFromClass(c.Request.Context(), id); err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, "student moved to unassigned pool", nil)
}

type reassignRequest struct {
	ClassroomID uuid.UUID `json:"classroom_id" binding:"required"`
}

func (h *TeacherHandler) Reassign(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req reassignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid reassign payload")
		return
	}
	if !h.requireClassroom(c, req.ClassroomID) {
		return
	}
	if err := h.rosterService.Reassign(c.Request.Context(), id, req.ClassroomID); err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, "student reassigned", nil)
}

func (h *TeacherHandler) DeleteUnassigned(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.rosterService.DeleteUnassigned(c.Request.Context(), id); err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, "student deleted", nil)
}

// ---- quests ----

type createQuestRequest struct {
	Title            string         `json:"title" binding:"required"`
	Description      string         `json:"description"`
	Type             string         `json:"type"`
	LevelRequirement int            `json:"level_requirement"`
	StartDate        *time.Time     `json:"start_date"`
	EndDate          *time.Time     `json:"end_date"`
	TimeLimitHours   *int           `json:"time_limit_hours"`
	ParentQuestID    *uuid.UUID     `json:"parent_quest_id"`
	Requirements     map[string]any `json:"requirements"`
	Criteria         map[string]any `json:"completion_criteria"`
	Rewards          []struct {
		Type   string     `json:"type" binding:"required"`
		Amount int        `json:"amount"`
		ItemID *uuid.UUID `json:"item_id"`
	} `json:"rewards"`
	Consequences []struct {
		ExperiencePenalty int `json:"experience_penalty"`
		GoldPenalty       int `json:"gold_penalty"`
		HealthPenalty     int `json:"health_penalty"`
	} `json:"consequences"`
}

func (h *TeacherHandler) CreateQuest(c *gin.Context) {
	var req createQuestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid quest payload")
		return
	}
	input := services.CreateQuestInput{
		Title:            req.Title,
		Description:      req.Description,
		Type:             req.Type,
		LevelRequirement: req.LevelRequirement,
		StartDate:        req.StartDate,
		EndDate:          req.EndDate,
		TimeLimitHours:   req.TimeLimitHours,
		ParentQuestID:    req.ParentQuestID,
		Requirements:     req.Requirements,
		Criteria:         req.Criteria,
	}
	for _, r := range req.Rewards {
		input.Rewards = append(input.Rewards, services.RewardInput{Type: r.Type, Amount: r.Amount, ItemID: r.ItemID})
	}
	for _, cons := range req.Consequences {
		input.Consequences = append(input.Consequences, services.ConsequenceInput{
			ExperiencePenalty: cons.ExperiencePenalty,
			GoldPenalty:       cons.GoldPenalty,
			HealthPenalty:     cons.HealthPenalty,
		})
	}
	quest, err := h.questService.CreateQuest(c.Request.Context(), middleware.UserID(c), input)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondCreated(c, "quest created", quest)
}

func (h *TeacherHandler) ListQuests(c *gin.Context) {
	quests, err := h.questService.ListByTeacher(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, "", quests)
}

type assignQuestRequest struct {
	StudentID *uuid.UUID `json:"student_id"`
	ClanID    *uuid.UUID `json:"clan_id"`
	ClassID   *uuid.UUID `json:"class_id"`
}

func (h *TeacherHandler) AssignQuest(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	quest, err := h.questService.GetQuest(c.Request.Context(), id)
	if err != nil {
		respondErr(c, err)
		return
	}
	if quest.TeacherID != middleware.UserID(c) {
		respondErr(c, apperr.Permissionf("forbidden"))
		return
	}
	var req assignQuestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid assignment payload")
		return
	}
	if req.ClassID != nil && !h.requireClassroom(c, *req.ClassID) {
		return
	}
	if req.StudentID != nil && !h.requireStudent(c, *req.StudentID) {
		return
	}
	if req.ClanID != nil && !h.requireClanClassroom(c, *req.ClanID) {
		return
	}
	result, err := h.questService.Assign(c.Request.Context(), id, services.AssignTarget{
		StudentID: req.StudentID,
		ClanID:    req.ClanID,
		ClassID:   req.ClassID,
	})
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, "quest assigned", result)
}

type failQuestRequest struct {
	CharacterID uuid.UUID `json:"character_id" binding:"required"`
}

func (h *TeacherHandler) FailQuest(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req failQuestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid payload")
		return
	}
	if !h.requireCharacter(c, req.CharacterID) {
		return
	}
	if err := h.questService.Fail(c.Request.Context(), req.CharacterID, id); err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, "quest failed", nil)
}

// ---- catalog ----

func (h *TeacherHandler) CreateMonster(c *gin.Context) {
	var req services.CreateMonsterInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid monster payload")
		return
	}
	monster, err := h.catalogService.CreateMonster(c.Request.Context(), req)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondCreated(c, "monster created", monster)
}

func (h *TeacherHandler) ListMonsters(c *gin.Context) {
	monsters, err := h.catalogService.ListMonsters(c.Request.Context())
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, "", monsters)
}

type createQuestionSetRequest struct {
	Name      string                   `json:"name" binding:"required"`
	Subject   string                   `json:"subject"`
	Questions []services.QuestionInput `json:"questions" binding:"required"`
}

func (h *TeacherHandler) CreateQuestionSet(c *gin.Context) {
	var req createQuestionSetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid question set payload")
		return
	}
	set, err := h.catalogService.CreateQuestionSet(c.Request.Context(), middleware.UserID(c), req.Name, req.Subject, req.Questions)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondCreated(c, "question set created", set)
}

func (h *TeacherHandler) ListQuestionSets(c *gin.Context) {
	sets, err := h.catalogService.ListQuestionSets(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, "", sets)
}

func (h *TeacherHandler) CreateEquipment(c *gin.Context) {
	var req services.CreateEquipmentInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid equipment payload")
		return
	}
	item, err := h.catalogService.CreateEquipment(c.Request.Context(), req)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondCreated(c, "equipment created", item)
}

func (h *TeacherHandler) CreateAbility(c *gin.Context) {
	var req services.CreateAbilityInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid ability payload")
		return
	}
	ability, err := h.catalogService.CreateAbility(c.Request.Context(), req)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondCreated(c, "ability created", ability)
}

// ---- clans ----

type createClanRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	Emblem      string `json:"emblem"`
}

func (h *TeacherHandler) CreateClan(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok || !h.requireClassroom(c, id) {
		return
	}
	var req createClanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid clan payload")
		return
	}
	clan, err := h.clanService.CreateClan(c.Request.Context(), id, req.Name, req.Description, req.Emblem)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondCreated(c, "clan created", clan)
}

func (h *TeacherHandler) ListClans(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok || !h.requireClassroom(c, id) {
		return
	}
	clans, err := h.clanService.ListByClassroom(c.Request.Context(), id)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, "", clans)
}

type clanMemberRequest struct {
	CharacterID uuid.UUID `json:"character_id" binding:"required"`
}

func (h *TeacherHandler) AddClanMember(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok || !h.requireClanClassroom(c, id) {
		return
	}
	var req clanMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid member payload")
		return
	}
	if err := h.clanService.AddMember(c.Request.Context(), id, req.CharacterID); err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, "member added", nil)
}

func (h *TeacherHandler) RemoveClanMember(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok || !h.requireClanClassroom(c, id) {
		return
	}
	var req clanMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid member payload")
		return
	}
	if err := h.clanService.RemoveMember(c.Request.Context(), id, req.CharacterID); err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, "member removed", nil)
}

func (h *TeacherHandler) SetClanLeader(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok || !h.requireClanClassroom(c, id) {
		return
	}
	var req clanMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid leader payload")
		return
	}
	if err := h.clanService.SetLeader(c.Request.Context(), id, req.CharacterID); err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, "leader updated", nil)
}

func (h *TeacherHandler) ClanMetrics(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok || !h.requireClanClassroom(c, id) {
		return
	}
	metrics, err := h.clanService.Metrics(c.Request.Context(), id)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, "", metrics)
}

func (h *TeacherHandler) ClanHistory(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok || !h.requireClanClassroom(c, id) {
		return
	}
	to := time.Now().UTC()
	from := to.AddDate(0, 0, -30)
	if v := c.Query("from"); v != "" {
		if t, err := time.Parse("2006-01-02", v); err == nil {
			from = t
		}
	}
	if v := c.Query("to"); v != "" {
		if t, err := time.Parse("2006-01-02", v); err == nil {
			to = t
		}
	}
	history, err := h.clanService.History(c.Request.Context(), id, from, to)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, "", history)
}

func (h *TeacherHandler) requireClanClassroom(c *gin.Context, clanID uuid.UUID) bool {
	clan, err := h.clanService.Get(c.Request.Context(), clanID)
	if err != nil {
		respondErr(c, err)
		return false
	}
	return h.requireClassroom(c, clan.ClassroomID)
}

// ---- shop overrides and grants ----

type overrideRequest struct {
	ClassroomID      uuid.UUID `json:"classroom_id" binding:"required"`
	ItemType         string    `json:"item_type" binding:"required"`
	ItemID           uuid.UUID `json:"item_id" binding:"required"`
	Cost             *int      `json:"cost"`
	LevelRequirement *int      `json:"level_requirement"`
	IsVisible        *bool     `json:"is_visible"`
}

func (h *TeacherHandler) SetShopOverride(c *gin.Context) {
	var req overrideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid override payload")
		return
	}
	if !h.requireClassroom(c, req.ClassroomID) {
		return
	}
	visible := true
	if req.IsVisible != nil {
		visible = *req.IsVisible
	}
	if err := h.shopService.SetOverride(c.Request.Context(), req.ClassroomID, req.ItemType, req.ItemID, req.Cost, req.LevelRequirement, visible); err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, "override saved", nil)
}

func (h *TeacherHandler) ClearShopOverride(c *gin.Context) {
	var req overrideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid override payload")
		return
	}
	if !h.requireClassroom(c, req.ClassroomID) {
		return
	}
	if err := h.shopService.ClearOverride(c.Request.Context(), req.ClassroomID, req.ItemType, req.ItemID); err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, "override cleared", nil)
}

type grantRequest struct {
	CharacterID uuid.UUID `json:"character_id" binding:"required"`
	ItemID      uuid.UUID `json:"item_id" binding:"required"`
}

func (h *TeacherHandler) GrantEquipment(c *gin.Context) {
	var req grantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid grant payload")
		return
	}
	if !h.requireCharacter(c, req.CharacterID) {
		return
	}
	row, err := h.inventoryService.Grant(c.Request.Context(), req.CharacterID, req.ItemID)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondCreated(c, "equipment granted", row)
}

func (h *TeacherHandler) GrantAbility(c *gin.Context) {
	var req grantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid grant payload")
		return
	}
	if !h.requireCharacter(c, req.CharacterID) {
		return
	}
	row, err := h.abilityService.Learn(c.Request.Context(), req.CharacterID, req.ItemID)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondCreated(c, "ability granted", row)
}

// ---- analytics ----

func (h *TeacherHandler) XPTimeline(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	timeline, err := h.auditService.XPTimeline(c.Request.Context(), id)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, "", timeline)
}

func (h *TeacherHandler) GoldSummary(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	summary, err := h.auditService.GoldSummary(c.Request.Context(), id)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, "", summary)
}

func (h *TeacherHandler) ListEvents(c *gin.Context) {
	filter := repos.AuditFilter{Limit: 200}
	if v := c.Query("event_type"); v != "" {
		filter.EventTypes = []string{v}
	}
	if v := c.Query("character_id"); v != "" {
		if id, err := uuid.Parse(v); err == nil {
			filter.CharacterIDs = []uuid.UUID{id}
		}
	}
	if v := c.Query("since"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			filter.Since = t
		}
	}
	events, err := h.auditService.ListEvents(c.Request.Context(), filter)
	if err != nil {
		respondErr(c, err)
		return
	}
	respondOK(c, "", events)
}

// ClassOverview summarizes each enrolled student's character for the
// teacher dashboard.
func (h *TeacherHandler) ClassOverview(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok || !h.requireClassroom(c, id) {
		return
	}
	students, err := h.rosterService.ListStudents(c.Request.Context(), id)
	if err != nil {
		respondErr(c, err)
		return
	}
	type studentOverview struct {
		Student   *types.Student   `json:"student"`
		Character *types.Character `json:"character,omitempty"`
	}
	overview := make([]studentOverview, 0, len(students))
	for _, st := range students {
		row := studentOverview{Student: st}
		if ch, err := h.characterService.GetActiveForStudent(c.Request.Context(), st.ID); err == nil {
			row.Character = ch
		}
		overview = append(overview, row)
	}
	respondOK(c, "", overview)
}
