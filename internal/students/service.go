package students

import (
	"context"
	"errors"
	"fmt"

	"github.com/dormledger/hostel-inventory/pkg/db"
	"github.com/dormledger/hostel-inventory/pkg/db/models"
	pkgerrors "github.com/dormledger/hostel-inventory/pkg/errors"
	"gorm.io/gorm"
)

// Resolver is the narrow view the stock ledger has of students: a foreign reference
// that either exists or does not.
type Resolver interface {
	WithTx(tx *gorm.DB) Resolver
	Resolve(ctx context.Context, id int64) (*models.Student, error)
}

type resolver struct {
	repo Repository
}

// NewResolver wraps the repository as a Resolver.
func NewResolver(repo Repository) Resolver {
	return &resolver{repo: repo}
}

func (r *resolver) WithTx(tx *gorm.DB) Resolver {
	return &resolver{repo: r.repo.WithTx(tx)}
}

func (r *resolver) Resolve(ctx context.Context, id int64) (*models.Student, error) {
	student, err := r.repo.FindByID(ctx, id)
	if err != nil {
		return nil, translateLookup(err)
	}
	return student, nil
}

// Service manages the student directory.
type Service interface {
	Create(ctx context.Context, input CreateStudentInput) (*StudentDTO, error)
	Get(ctx context.Context, id int64) (*StudentDTO, error)
	List(ctx context.Context) ([]StudentDTO, error)
	Update(ctx context.Context, id int64, input UpdateStudentInput) (*StudentDTO, error)
	Delete(ctx context.Context, id int64) (*DeleteResult, error)
}

type service struct {
	repo Repository
	tx   db.TxRunner
}

// NewService wires the students service.
func NewService(repo Repository, tx db.TxRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("students repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

func (s *service) Create(ctx context.Context, input CreateStudentInput) (*StudentDTO, error) {
	input = input.normalized()

	exists, err := s.repo.ExistsExact(ctx, input.identity())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check student duplicate")
	}
	if exists {
		return nil, duplicateStudent()
	}

	student := input.toModel()
	if err := s.repo.Create(ctx, &student); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, duplicateStudent()
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create student")
	}
	dto := FromModel(&student)
	return &dto, nil
}

func (s *service) Get(ctx context.Context, id int64) (*StudentDTO, error) {
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, translateLookup(err)
	}
	dto := FromModel(student)
	return &dto, nil
}

func (s *service) List(ctx context.Context) ([]StudentDTO, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list students")
	}
	out := make([]StudentDTO, 0, len(rows))
	for i := range rows {
		out = append(out, FromModel(&rows[i]))
	}
	return out, nil
}

func (s *service) Update(ctx context.Context, id int64, input UpdateStudentInput) (*StudentDTO, error) {
	patch := input.normalized()
	if patch.isEmpty() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "update request contains no fields")
	}

	var result *models.Student
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		student, err := repo.FindByID(ctx, id)
		if err != nil {
			return translateLookup(err)
		}
		if !patch.apply(student) {
			return pkgerrors.New(pkgerrors.CodeConflict, "fields already hold the requested values")
		}
		if err := repo.Save(ctx, student); err != nil {
			if db.IsUniqueViolation(err, "") {
				return duplicateStudent()
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update student")
		}
		result = student
		return nil
	})
	if err != nil {
		return nil, err
	}
	dto := FromModel(result)
	return &dto, nil
}

func (s *service) Delete(ctx context.Context, id int64) (*DeleteResult, error) {
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Delete(ctx, id); err != nil {
			return translateLookup(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &DeleteResult{ID: id}, nil
}

func translateLookup(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.NotFound("student")
	}
	if pkgerrors.As(err) != nil {
		return err
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load student")
}

func duplicateStudent() *pkgerrors.Error {
	return pkgerrors.New(pkgerrors.CodeConflict, "student with identical details already exists")
}
