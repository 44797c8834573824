package students

import (
	"context"

	"github.com/dormledger/hostel-inventory/pkg/db/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Identity is the five-field tuple that makes a student unique.
type Identity struct {
	FullName   string
	RoomNumber string
	Faculty    string
	Course     int
	StudyGroup string
}

// Repository exposes student persistence operations.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, student *models.Student) error
	FindByID(ctx context.Context, id int64) (*models.Student, error)
	ExistsExact(ctx context.Context, identity Identity) (bool, error)
	List(ctx context.Context) ([]models.Student, error)
	Save(ctx context.Context, student *models.Student) error
	Delete(ctx context.Context, id int64) error
	InsertIgnoringDuplicates(ctx context.Context, rows []models.Student) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository constructs a students repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, student *models.Student) error {
	return r.db.WithContext(ctx).Create(student).Error
}

func (r *repository) FindByID(ctx context.Context, id int64) (*models.Student, error) {
	var student models.Student
	if err := r.db.WithContext(ctx).First(&student, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &student, nil
}

func (r *repository) ExistsExact(ctx context.Context, identity Identity) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Student{}).
		Where("full_name = ? AND room_number = ? AND faculty = ? AND course = ? AND study_group = ?",
			identity.FullName, identity.RoomNumber, identity.Faculty, identity.Course, identity.StudyGroup).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *repository) List(ctx context.Context) ([]models.Student, error) {
	var rows []models.Student
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) Save(ctx context.Context, student *models.Student) error {
	return r.db.WithContext(ctx).Save(student).Error
}

// Delete removes the student and its issuance lines. The FK cascades on Postgres; the
// explicit delete keeps engines without enforced foreign keys consistent.
func (r *repository) Delete(ctx context.Context, id int64) error {
	if err := r.db.WithContext(ctx).
		Where("student_id = ?", id).
		Delete(&models.StudentInventory{}).Error; err != nil {
		return err
	}
	res := r.db.WithContext(ctx).Delete(&models.Student{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// InsertIgnoringDuplicates inserts rows with ON CONFLICT DO NOTHING and reports how
// many were actually written.
func (r *repository) InsertIgnoringDuplicates(ctx context.Context, rows []models.Student) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&rows)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}
