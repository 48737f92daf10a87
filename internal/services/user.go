package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/diewo77/go-deliberations/auth"
	"github.com/diewo77/go-deliberations/internal/db"
	"github.com/diewo77/go-deliberations/internal/models"
	"github.com/diewo77/go-deliberations/internal/policy"
	"github.com/diewo77/go-deliberations/validation"
	"gorm.io/gorm"
)

var (
	ErrUserNotFound        = errors.New("user not found")
	ErrCredentialsRequired = errors.New("username and password are required")
	ErrUsernameTaken       = errors.New("username already taken")
)

// FieldError reports user input that failed format checks.
type FieldError struct {
	Fields validation.Violations
}

func (e *FieldError) Error() string {
	return "invalid fields: " + strings.Join(e.Fields.Fields(), ", ")
}

type UserService struct {
	db   *gorm.DB
	cost int
	log  *slog.Logger
}

func NewUserService(db *gorm.DB, bcryptCost int, log *slog.Logger) *UserService {
	return &UserService{db: db, cost: bcryptCost, log: log}
}

// Login checks a username and password pair.
func (s *UserService) Login(ctx context.Context, username, password string) (*models.User, error) {
	var u models.User
	err := s.db.WithContext(ctx).Where("username = ?", username).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := auth.CheckPassword(u.Password, password); err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *UserService) Get(ctx context.Context, id uint) (*models.User, error) {
	var u models.User
	err := s.db.WithContext(ctx).First(&u, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Exists backs auth.UserVerifier: credentials of deleted users stop working.
func (s *UserService) Exists(ctx context.Context, id uint) bool {
	var n int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Count(&n).Error; err != nil {
		s.log.Error("user lookup failed", "user_id", id, "error", err)
		return false
	}
	return n > 0
}

// List returns every user for admins and only the actor for everyone else.
func (s *UserService) List(ctx context.Context, a auth.Actor) ([]models.User, error) {
	q := s.db.WithContext(ctx).Order("id")
	if id, restricted := policy.UserListScope(a); restricted {
		q = q.Where("id = ?", id)
	}
	var users []models.User
	if err := q.Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

type CreateUserInput struct {
	Username    string
	Password    string
	Nom         string
	Prenom      string
	Email       string
	PhoneNumber string
	IsAdmin     bool
}

func profileViolations(username, email, phone string) validation.Violations {
	v := make(validation.Violations)
	validation.Username("username", username, v)
	validation.Email("email", email, v)
	validation.Digits("phoneNumber", phone, v)
	return v
}

// Create inserts a user. The admin flag is granted only by admins.
func (s *UserService) Create(ctx context.Context, a auth.Actor, in CreateUserInput) (*models.User, error) {
	if in.Username == "" || in.Password == "" {
		return nil, ErrCredentialsRequired
	}
	if v := profileViolations(in.Username, in.Email, in.PhoneNumber); !v.Empty() {
		return nil, &FieldError{Fields: v}
	}

	isAdmin := policy.EffectiveAdminFlag(a, in.IsAdmin)
	if in.IsAdmin && !isAdmin {
		s.log.Warn("non-admin tried to create an admin, flag dropped", "actor_id", a.ID)
	}

	hash, err := auth.HashPassword(in.Password, s.cost)
	if err != nil {
		return nil, err
	}
	u := models.User{
		Username:    in.Username,
		Password:    hash,
		Nom:         in.Nom,
		Prenom:      in.Prenom,
		Email:       in.Email,
		PhoneNumber: in.PhoneNumber,
		IsAdmin:     isAdmin,
	}
	if err := s.db.WithContext(ctx).Create(&u).Error; err != nil {
		err = db.TranslateError(err)
		if db.KindOf(err) == db.KindDuplicate {
			return nil, ErrUsernameTaken
		}
		return nil, err
	}
	s.log.Info("user created", "user_id", u.ID, "is_admin", u.IsAdmin, "actor_id", a.ID)
	return &u, nil
}

// UpdateUserInput carries a profile edit. Nil pointers mean "not sent".
type UpdateUserInput struct {
	Username    *string
	Password    *string
	Nom         string
	Prenom      string
	Email       string
	PhoneNumber string
	IsAdmin     *bool
}

// UpdateResult tells the caller whether the actor needs a fresh credential.
type UpdateResult struct {
	User         *models.User
	ReissueToken bool
}

// Update edits a profile in a single statement. Denials and username
// conflicts leave the row untouched.
func (s *UserService) Update(ctx context.Context, a auth.Actor, id uint, in UpdateUserInput) (*UpdateResult, error) {
	decision, err := policy.DecideUserUpdate(a, id, in.IsAdmin != nil)
	if err != nil {
		s.log.Warn("user update denied", "actor_id", a.ID, "target_id", id, "error", err)
		return nil, err
	}

	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	var username string
	if in.Username != nil {
		username = strings.TrimSpace(*in.Username)
	}
	if v := profileViolations(username, in.Email, in.PhoneNumber); !v.Empty() {
		return nil, &FieldError{Fields: v}
	}

	updates := map[string]any{
		"nom":          in.Nom,
		"prenom":       in.Prenom,
		"email":        in.Email,
		"phone_number": in.PhoneNumber,
	}
	if username != "" && username != current.Username {
		var taken int64
		err := s.db.WithContext(ctx).Model(&models.User{}).
			Where("username = ? AND id <> ?", username, id).
			Count(&taken).Error
		if err != nil {
			return nil, err
		}
		if taken > 0 {
			return nil, ErrUsernameTaken
		}
		updates["username"] = username
	}
	if in.Password != nil && strings.TrimSpace(*in.Password) != "" {
		hash, err := auth.HashPassword(*in.Password, s.cost)
		if err != nil {
			return nil, err
		}
		updates["password"] = hash
	}
	if decision.RoleIgnored {
		s.log.Warn("self role change ignored", "user_id", a.ID)
	}
	if decision.ApplyRole {
		updates["is_admin"] = *in.IsAdmin
	}

	err = s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(updates).Error
	if err != nil {
		err = db.TranslateError(err)
		if db.KindOf(err) == db.KindDuplicate {
			return nil, ErrUsernameTaken
		}
		return nil, err
	}
	s.log.Info("user updated", "user_id", id, "actor_id", a.ID, "role_changed", decision.ApplyRole)

	u, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &UpdateResult{User: u, ReissueToken: decision.Self && username != ""}, nil
}

// Delete removes a user, refusing to remove the last admin.
func (s *UserService) Delete(ctx context.Context, a auth.Actor, id uint) error {
	target, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	var admins int64
	if target.IsAdmin {
		if err := s.db.WithContext(ctx).Model(&models.User{}).Where("is_admin = ?", true).Count(&admins).Error; err != nil {
			return err
		}
	}
	if err := policy.CheckUserDeletion(a, target, admins); err != nil {
		s.log.Warn("user deletion denied", "actor_id", a.ID, "target_id", id, "error", err)
		return err
	}

	res := s.db.WithContext(ctx).Delete(&models.User{}, id)
	if res.Error != nil {
		return db.TranslateError(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrUserNotFound
	}
	if a.ID == id {
		s.log.Warn("admin deleted own account", "user_id", id, "admins_left", admins-1)
	} else {
		s.log.Info("user deleted", "user_id", id, "actor_id", a.ID)
	}
	return nil
}
