package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/diewo77/go-deliberations/auth"
	"github.com/diewo77/go-deliberations/internal/db"
	"github.com/diewo77/go-deliberations/internal/document"
	"github.com/diewo77/go-deliberations/internal/models"
	"github.com/diewo77/go-deliberations/validation"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	ErrLetterNotFound = errors.New("letter not found")
	ErrInvalidStatus  = errors.New("invalid letter status")
)

// MissingFieldsError lists absent required fields in request order.
type MissingFieldsError struct {
	Fields []string
}

func (e *MissingFieldsError) Error() string {
	return "missing fields: " + strings.Join(e.Fields, ", ")
}

// LetterInput is a letter as submitted. Zero values count as missing.
type LetterInput struct {
	CreatedBy          uint
	LetterNumber       string
	Year               int
	SequenceNumber     string
	Title              string
	DeliberationNumber string
	// Content is raw JSON: an object, a JSON-encoded string, null or empty.
	Content []byte
	Status  string
}

func (in LetterInput) missing(withCreator bool) []string {
	fields := []validation.Field{
		{Name: "letter_number", Present: strings.TrimSpace(in.LetterNumber) != ""},
		{Name: "year", Present: in.Year != 0},
		{Name: "title", Present: strings.TrimSpace(in.Title) != ""},
		{Name: "deliberation_number", Present: strings.TrimSpace(in.DeliberationNumber) != ""},
	}
	if withCreator {
		fields = append([]validation.Field{{Name: "created_by", Present: in.CreatedBy != 0}}, fields...)
	}
	return validation.MissingFields(fields...)
}

// normalized applies defaults and validates status and content.
func (in LetterInput) normalized() (seq string, status models.LetterStatus, content []byte, err error) {
	seq = strings.TrimSpace(in.SequenceNumber)
	if seq == "" {
		seq = "1"
	}
	status, ok := models.ParseLetterStatus(in.Status)
	if !ok {
		return "", "", nil, fmt.Errorf("%w: %q", ErrInvalidStatus, in.Status)
	}
	content, err = document.Normalize(in.Content)
	if err != nil {
		return "", "", nil, err
	}
	return seq, status, content, nil
}

type LetterService struct {
	db  *gorm.DB
	log *slog.Logger
}

func NewLetterService(db *gorm.DB, log *slog.Logger) *LetterService {
	return &LetterService{db: db, log: log}
}

// withCreator selects letters joined with their creator's username.
func (s *LetterService) withCreator(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).Model(&models.Letter{}).
		Joins("JOIN users ON users.id = letters.created_by")
}

const creatorColumns = "letters.*, users.username AS creator_username"

type ListParams struct {
	Query string
	Page  int
	// Limit 0 returns everything.
	Limit int
}

// List returns letters newest first with the total match count.
func (s *LetterService) List(ctx context.Context, p ListParams) ([]models.Letter, int64, error) {
	q := s.withCreator(ctx)
	if term := strings.ToLower(strings.TrimSpace(p.Query)); term != "" {
		like := "%" + term + "%"
		cond := s.db.Where("LOWER(letters.deliberation_number) LIKE ?", like).
			Or("LOWER(letters.letter_number) LIKE ?", like).
			Or("LOWER(letters.title) LIKE ?", like).
			Or("LOWER(users.username) LIKE ?", like)
		if year, err := strconv.Atoi(term); err == nil {
			cond = cond.Or("letters.year = ?", year)
		}
		q = q.Where(cond)
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	find := q.Select(creatorColumns).Order("letters.created_at DESC").Order("letters.id DESC")
	if p.Limit > 0 {
		page := p.Page
		if page < 1 {
			page = 1
		}
		find = find.Limit(p.Limit).Offset((page - 1) * p.Limit)
	}
	var letters []models.Letter
	if err := find.Find(&letters).Error; err != nil {
		return nil, 0, err
	}
	return letters, total, nil
}

func (s *LetterService) Get(ctx context.Context, id uint) (*models.Letter, error) {
	var l models.Letter
	err := s.withCreator(ctx).Select(creatorColumns).Where("letters.id = ?", id).First(&l).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrLetterNotFound
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// FindByNumber returns the newest letter with the given year and number.
func (s *LetterService) FindByNumber(ctx context.Context, year int, number string) (*models.Letter, error) {
	var letters []models.Letter
	err := s.withCreator(ctx).Select(creatorColumns).
		Where("letters.year = ? AND letters.letter_number = ?", year, number).
		Order("letters.created_at DESC").Order("letters.id DESC").
		Find(&letters).Error
	if err != nil {
		return nil, err
	}
	if len(letters) == 0 {
		return nil, ErrLetterNotFound
	}
	if len(letters) > 1 {
		s.log.Warn("several letters share a number", "year", year, "letter_number", number, "count", len(letters))
	}
	return &letters[0], nil
}

// Create stores a new letter in a single insert.
func (s *LetterService) Create(ctx context.Context, a auth.Actor, in LetterInput) (*models.Letter, error) {
	if missing := in.missing(true); len(missing) > 0 {
		return nil, &MissingFieldsError{Fields: missing}
	}
	seq, status, content, err := in.normalized()
	if err != nil {
		return nil, err
	}
	l := models.Letter{
		CreatedBy:          in.CreatedBy,
		LetterNumber:       strings.TrimSpace(in.LetterNumber),
		Year:               in.Year,
		SequenceNumber:     seq,
		Title:              in.Title,
		DeliberationNumber: strings.TrimSpace(in.DeliberationNumber),
		Content:            datatypes.JSON(content),
		Status:             status,
	}
	if err := s.db.WithContext(ctx).Create(&l).Error; err != nil {
		return nil, db.TranslateError(err)
	}
	s.log.Info("letter created", "letter_id", l.ID, "deliberation_number", l.DeliberationNumber, "actor_id", a.ID)
	return &l, nil
}

// Update replaces every editable column of a letter. The creator is kept.
func (s *LetterService) Update(ctx context.Context, a auth.Actor, id uint, in LetterInput) (*models.Letter, error) {
	if missing := in.missing(false); len(missing) > 0 {
		return nil, &MissingFieldsError{Fields: missing}
	}
	seq, status, content, err := in.normalized()
	if err != nil {
		return nil, err
	}
	res := s.db.WithContext(ctx).Model(&models.Letter{}).Where("id = ?", id).Updates(map[string]any{
		"letter_number":       strings.TrimSpace(in.LetterNumber),
		"year":                in.Year,
		"sequence_number":     seq,
		"title":               in.Title,
		"deliberation_number": strings.TrimSpace(in.DeliberationNumber),
		"content":             datatypes.JSON(content),
		"status":              status,
	})
	if res.Error != nil {
		return nil, db.TranslateError(res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrLetterNotFound
	}
	s.log.Info("letter updated", "letter_id", id, "actor_id", a.ID)
	return s.Get(ctx, id)
}

// Document decodes the stored content of l.
func (s *LetterService) Document(l *models.Letter) (*document.Document, error) {
	return document.Decode(l.Content)
}
