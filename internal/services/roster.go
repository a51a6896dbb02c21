package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/classquest/classquest-backend/internal/domain"
	"github.com/classquest/classquest-backend/internal/pkg/apperr"
	"github.com/classquest/classquest-backend/internal/pkg/logger"
	"github.com/classquest/classquest-backend/internal/repos"
	"github.com/classquest/classquest-backend/internal/utils"
)

// joinCodeAttempts bounds the regeneration loop on collisions.
const joinCodeAttempts = 10

type CreateClassroomInput struct {
	Name        string
	Description string
	MaxStudents int
	MaxClans    int
	MinClanSize *int
	MaxClanSize *int
}

type EnrollStudentInput struct {
	Username  string
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// ImportRow is one tabular row of a bulk student import.
type ImportRow struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

const (
	ImportActionCreate   = "create"
	ImportActionReassign = "reassign"
	ImportActionError    = "error"
)

// ImportRowResult is the per-row outcome of a preview or commit.
type ImportRowResult struct {
	Row    int    `json:"row"`
	Action string `json:"action"`
	Error  string `json:"error,omitempty"`
}

type ImportResult struct {
	Created    int               `json:"created"`
	Reassigned int               `json:"reassigned"`
	Failed     int               `json:"failed"`
	Rows       []ImportRowResult `json:"rows"`
}

type RosterService interface {
	CreateClassroom(ctx context.Context, teacherID uuid.UUID, input CreateClassroomInput) (*types.Classroom, error)
	GetClassroom(ctx context.Context, classroomID uuid.UUID) (*types.Classroom, error)
	ListClassrooms(ctx context.Context, teacherID uuid.UUID) ([]*types.Classroom, error)
	RegenerateJoinCode(ctx context.Context, classroomID uuid.UUID) (string, error)
	ArchiveClassroom(ctx context.Context, classroomID uuid.UUID) error
	DeleteClassroom(ctx context.Context, classroomID uuid.UUID) error

	EnrollStudent(ctx context.Context, classroomID uuid.UUID, input EnrollStudentInput) (*types.Student, error)
	BulkImportPreview(ctx context.Context, classroomID uuid.UUID, rows []ImportRow) (*ImportResult, error)
	BulkImportCommit(ctx context.Context, classroomID uuid.UUID, rows []ImportRow) (*ImportResult, error)
	RemoveFromClass(ctx context.Context, studentID uuid.UUID) error
	Reassign(ctx context.Context, studentID, classroomID uuid.UUID) error
	DeleteUnassigned(ctx context.Context, studentID uuid.UUID) error
	ListStudents(ctx context.Context, classroomID uuid.UUID) ([]*types.Student, error)
	ListUnassigned(ctx context.Context) ([]*types.Student, error)
	GetStudentByUserID(ctx context.Context, userID uuid.UUID) (*types.Student, error)

	TeacherOwnsStudent(ctx context.Context, teacherID, studentID uuid.UUID) (bool, error)
	TeacherOwnsClassroom(ctx context.Context, teacherID, classroomID uuid.UUID) (bool, error)
}

type rosterService struct {
	db            *gorm.DB
	log           *logger.Logger
	userRepo      repos.UserRepo
	studentRepo   repos.StudentRepo
	classroomRepo repos.ClassroomRepo
	clanRepo      repos.ClanRepo
	characterRepo repos.CharacterRepo
	auditService  AuditService
}

func NewRosterService(
	db *gorm.DB,
	log *logger.Logger,
	userRepo repos.UserRepo,
	studentRepo repos.StudentRepo,
	classroomRepo repos.ClassroomRepo,
	clanRepo repos.ClanRepo,
	characterRepo repos.CharacterRepo,
	auditService AuditService,
) RosterService {
	return &rosterService{
		db:            db,
		log:           log.With("service", "RosterService"),
		userRepo:      userRepo,
		studentRepo:   studentRepo,
		classroomRepo: classroomRepo,
		clanRepo:      clanRepo,
		characterRepo: characterRepo,
		auditService:  auditService,
	}
}

func (s *rosterService) CreateClassroom(ctx context.Context, teacherID uuid.UUID, input CreateClassroomInput) (*types.Classroom, error) {
	if input.Name == "" {
		return nil, apperr.Validationf("classroom name is required")
	}
	if input.MaxStudents <= 0 {
		input.MaxStudents = 30
	}
	if input.MaxClans <= 0 {
		input.MaxClans = 6
	}
	var created *types.Classroom
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		code, err := s.uniqueJoinCode(ctx, tx)
		if err != nil {
			return err
		}
		c := &types.Classroom{
			TeacherID:   teacherID,
			Name:        input.Name,
			Description: input.Description,
			JoinCode:    code,
			MaxStudents: input.MaxStudents,
			MaxClans:    input.MaxClans,
			MinClanSize: input.MinClanSize,
			MaxClanSize: input.MaxClanSize,
			IsActive:    true,
		}
		if _, err := s.classroomRepo.Create(ctx, tx, []*types.Classroom{c}); err != nil {
			return err
		}
		created = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *rosterService) uniqueJoinCode(ctx context.Context, tx *gorm.DB) (string, error) {
	for i := 0; i < joinCodeAttempts; i++ {
		code, err := utils.GenerateJoinCode(types.JoinCodeLength)
		if err != nil {
			return "", err
		}
		exists, err := s.classroomRepo.JoinCodeExists(ctx, tx, code)
		if err != nil {
			return "", err
		}
		if !exists {
			return code, nil
		}
	}
	return "", apperr.Internal(errors.New("could not generate a unique join code"))
}

func (s *rosterService) GetClassroom(ctx context.Context, classroomID uuid.UUID) (*types.Classroom, error) {
	c, err := s.classroomRepo.GetByID(ctx, nil, classroomID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFoundf("classroom not found")
		}
		return nil, err
	}
	return c, nil
}

func (s *rosterService) ListClassrooms(ctx context.Context, teacherID uuid.UUID) ([]*types.Classroom, error) {
	return s.classroomRepo.GetByTeacherID(ctx, nil, teacherID)
}

func (s *rosterService) RegenerateJoinCode(ctx context.Context, classroomID uuid.UUID) (string, error) {
	var code string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		c, err := s.classroomRepo.GetByID(ctx, tx, classroomID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFoundf("classroom not found")
			}
			return err
		}
		fresh, err := s.uniqueJoinCode(ctx, tx)
		if err != nil {
			return err
		}
		c.JoinCode = fresh
		if err := tx.WithContext(ctx).Model(&types.Classroom{}).
			Where("id = ?", c.ID).
			Update("join_code", fresh).Error; err != nil {
			return err
		}
		code = fresh
		return nil
	})
	if err != nil {
		return "", err
	}
	return code, nil
}

func (s *rosterService) ArchiveClassroom(ctx context.Context, classroomID uuid.UUID) error {
	if _, err := s.GetClassroom(ctx, classroomID); err != nil {
		return err
	}
	return s.classroomRepo.SetActive(ctx, nil, classroomID, false)
}

// DeleteClassroom removes the classroom, deletes its clans and moves its
// students to the unassigned pool.
func (s *rosterService) DeleteClassroom(ctx context.Context, classroomID uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.classroomRepo.GetByID(ctx, tx, classroomID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFoundf("classroom not found")
			}
			return err
		}
		students, err := s.studentRepo.GetByClassID(ctx, tx, classroomID)
		if err != nil {
			return err
		}
		for _, st := range students {
			if err := s.detachStudent(ctx, tx, st); err != nil {
				return err
			}
		}
		clans, err := s.clanRepo.GetByClassroomID(ctx, tx, classroomID)
		if err != nil {
			return err
		}
		for _, cl := range clans {
			if err := s.clanRepo.Delete(ctx, tx, cl.ID); err != nil {
				return err
			}
		}
		return s.classroomRepo.Delete(ctx, tx, classroomID)
	})
}

func (s *rosterService) EnrollStudent(ctx context.Context, classroomID uuid.UUID, input EnrollStudentInput) (*types.Student, error) {
	if input.Username == "" || input.Password == "" {
		return nil, apperr.Validationf("username and password are required")
	}
	if input.Email == "" {
		input.Email = input.Username + "@classquest.local"
	}
	var created *types.Student
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		classroom, err := s.classroomRepo.GetByID(ctx, tx, classroomID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFoundf("classroom not found")
			}
			return err
		}
		count, err := s.studentRepo.CountByClassID(ctx, tx, classroomID)
		if err != nil {
			return err
		}
		if count >= int64(classroom.MaxStudents) {
			return apperr.Validationf("classroom is full")
		}
		st, err := s.enrollOne(ctx, tx, classroomID, input)
		if err != nil {
			return err
		}
		created = st
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// enrollOne creates user and profile, or reassigns a matching unassigned
// profile when the username already belongs to a poolside student.
func (s *rosterService) enrollOne(ctx context.Context, tx *gorm.DB, classroomID uuid.UUID, input EnrollStudentInput) (*types.Student, error) {
	existing, err := s.userRepo.GetByUsername(ctx, tx, input.Username)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if existing != nil {
		if existing.Role != types.RoleStudent {
			return nil, apperr.Validationf("username %q is already taken", input.Username)
		}
		profile, err := s.studentRepo.GetByUserID(ctx, tx, existing.ID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperr.Validationf("username %q is already taken", input.Username)
			}
			return nil, err
		}
		if profile.ClassID != nil {
			return nil, apperr.Validationf("student %q is already in a class", input.Username)
		}
		if err := s.studentRepo.UpdateClass(ctx, tx, profile.ID, &classroomID, types.StudentStatusActive); err != nil {
			return nil, err
		}
		profile.ClassID = &classroomID
		profile.Status = types.StudentStatusActive
		return profile, s.recordEnrollment(ctx, tx, existing.ID, classroomID)
	}

	taken, err := s.userRepo.EmailExists(ctx, tx, input.Email)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, apperr.Validationf("email %q is already registered", input.Email)
	}
	hashed, err := utils.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}
	u := &types.User{
		Username:  input.Username,
		Email:     input.Email,
		Password:  hashed,
		Role:      types.RoleStudent,
		FirstName: input.FirstName,
		LastName:  input.LastName,
		IsActive:  true,
	}
	if _, err := s.userRepo.Create(ctx, tx, []*types.User{u}); err != nil {
		return nil, err
	}
	st := &types.Student{
		UserID:  u.ID,
		ClassID: &classroomID,
		Status:  types.StudentStatusActive,
	}
	if _, err := s.studentRepo.Create(ctx, tx, []*types.Student{st}); err != nil {
		return nil, err
	}
	return st, s.recordEnrollment(ctx, tx, u.ID, classroomID)
}

func (s *rosterService) recordEnrollment(ctx context.Context, tx *gorm.DB, userID, classroomID uuid.UUID) error {
	return s.auditService.Record(ctx, tx, AuditEntry{
		EventType: types.EventEnrollment,
		UserID:    &userID,
		Data:      map[string]any{"classroom_id": classroomID.String()},
	})
}

func (s *rosterService) BulkImportPreview(ctx context.Context, classroomID uuid.UUID, rows []ImportRow) (*ImportResult, error) {
	return s.bulkImport(ctx, classroomID, rows, false)
}

func (s *rosterService) BulkImportCommit(ctx context.Context, classroomID uuid.UUID, rows []ImportRow) (*ImportResult, error) {
	return s.bulkImport(ctx, classroomID, rows, true)
}

// bulkImport validates rows one by one. In commit mode each valid row is
// applied in its own transaction so one bad row does not void the rest.
func (s *rosterService) bulkImport(ctx context.Context, classroomID uuid.UUID, rows []ImportRow, commit bool) (*ImportResult, error) {
	if _, err := s.GetClassroom(ctx, classroomID); err != nil {
		return nil, err
	}
	result := &ImportResult{}
	seen := map[string]bool{}
	for i, row := range rows {
		rr := ImportRowResult{Row: i + 1}
		switch {
		case row.Username == "" || row.Password == "":
			rr.Action = ImportActionError
			rr.Error = "username and password are required"
		case seen[row.Username]:
			rr.Action = ImportActionError
			rr.Error = fmt.Sprintf("duplicate username %q in import", row.Username)
		default:
			seen[row.Username] = true
			action, err := s.classifyImportRow(ctx, row)
			if err != nil {
				rr.Action = ImportActionError
				rr.Error = err.Error()
				break
			}
			rr.Action = action
			if commit {
				input := EnrollStudentInput{
					Username:  row.Username,
					Email:     row.Email,
					Password:  row.Password,
					FirstName: row.FirstName,
					LastName:  row.LastName,
				}
				if _, err := s.EnrollStudent(ctx, classroomID, input); err != nil {
					rr.Action = ImportActionError
					rr.Error = apperr.MessageOf(err)
				}
			}
		}
		switch rr.Action {
		case ImportActionCreate:
			if commit {
				result.Created++
			}
		case ImportActionReassign:
			if commit {
				result.Reassigned++
			}
		case ImportActionError:
			result.Failed++
		}
		result.Rows = append(result.Rows, rr)
	}
	return result, nil
}

func (s *rosterService) classifyImportRow(ctx context.Context, row ImportRow) (string, error) {
	existing, err := s.userRepo.GetByUsername(ctx, nil, row.Username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ImportActionCreate, nil
		}
		return "", err
	}
	if existing.Role != types.RoleStudent {
		return "", fmt.Errorf("username %q is already taken", row.Username)
	}
	profile, err := s.studentRepo.GetByUserID(ctx, nil, existing.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", fmt.Errorf("username %q is already taken", row.Username)
		}
		return "", err
	}
	if profile.ClassID != nil {
		return "", fmt.Errorf("student %q is already in a class", row.Username)
	}
	return ImportActionReassign, nil
}

// RemoveFromClass is a soft removal: the profile moves to the unassigned
// pool and leaves any clan.
func (s *rosterService) RemoveFromClass(ctx context.Context, studentID uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		st, err := s.studentRepo.GetByID(ctx, tx, studentID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFoundf("student not found")
			}
			return err
		}
		return s.detachStudent(ctx, tx, st)
	})
}

func (s *rosterService) detachStudent(ctx context.Context, tx *gorm.DB, st *types.Student) error {
	if err := s.studentRepo.UpdateClass(ctx, tx, st.ID, nil, types.StudentStatusUnassigned); err != nil {
		return err
	}
	if st.ClanID != nil {
		if err := s.studentRepo.UpdateClan(ctx, tx, st.ID, nil); err != nil {
			return err
		}
	}
	if ch, err := s.characterRepo.GetActiveByStudentID(ctx, tx, st.ID); err == nil && ch.ClanID != nil {
		if err := s.characterRepo.UpdateClan(ctx, tx, ch.ID, nil); err != nil {
			return err
		}
	}
	return nil
}

func (s *rosterService) Reassign(ctx context.Context, studentID, classroomID uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		st, err := s.studentRepo.GetByID(ctx, tx, studentID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFoundf("student not found")
			}
			return err
		}
		if st.ClassID != nil {
			return apperr.Conflictf("student is already in a class")
		}
		classroom, err := s.classroomRepo.GetByID(ctx, tx, classroomID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFoundf("classroom not found")
			}
			return err
		}
		count, err := s.studentRepo.CountByClassID(ctx, tx, classroomID)
		if err != nil {
			return err
		}
		if count >= int64(classroom.MaxStudents) {
			return apperr.Validationf("classroom is full")
		}
		if err := s.studentRepo.UpdateClass(ctx, tx, st.ID, &classroomID, types.StudentStatusActive); err != nil {
			return err
		}
		return s.recordEnrollment(ctx, tx, st.UserID, classroomID)
	})
}

// DeleteUnassigned permanently removes a poolside student, their user
// record and their characters.
func (s *rosterService) DeleteUnassigned(ctx context.Context, studentID uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		st, err := s.studentRepo.GetByID(ctx, tx, studentID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFoundf("student not found")
			}
			return err
		}
		if st.ClassID != nil {
			return apperr.Validationf("only unassigned students can be deleted")
		}
		if err := s.characterRepo.DeleteByStudentID(ctx, tx, st.ID); err != nil {
			return err
		}
		if err := s.studentRepo.HardDelete(ctx, tx, st.ID); err != nil {
			return err
		}
		return s.userRepo.HardDelete(ctx, tx, st.UserID)
	})
}

func (s *rosterService) ListStudents(ctx context.Context, classroomID uuid.UUID) ([]*types.Student, error) {
	return s.studentRepo.GetByClassID(ctx, nil, classroomID)
}

func (s *rosterService) ListUnassigned(ctx context.Context) ([]*types.Student, error) {
	return s.studentRepo.GetUnassigned(ctx, nil)
}

func (s *rosterService) GetStudentByUserID(ctx context.Context, userID uuid.UUID) (*types.Student, error) {
	st, err := s.studentRepo.GetByUserID(ctx, nil, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFoundf("student profile not found")
		}
		return nil, err
	}
	return st, nil
}

// TeacherOwnsStudent reports whether the student's active class belongs
// to the teacher. A poolside student is owned by nobody.
func (s *rosterService) TeacherOwnsStudent(ctx context.Context, teacherID, studentID uuid.UUID) (bool, error) {
	st, err := s.studentRepo.GetByID(ctx, nil, studentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	if st.ClassID == nil {
		return false, nil
	}
	return s.TeacherOwnsClassroom(ctx, teacherID, *st.ClassID)
}

func (s *rosterService) TeacherOwnsClassroom(ctx context.Context, teacherID, classroomID uuid.UUID) (bool, error) {
	c, err := s.classroomRepo.GetByID(ctx, nil, classroomID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	return c.TeacherID == teacherID, nil
}
