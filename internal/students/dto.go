package students

import (
	"strings"
	"time"

	"github.com/dormledger/hostel-inventory/pkg/db/models"
)

// CreateStudentInput is the payload for registering a student.
type CreateStudentInput struct {
	FullName   string `json:"full_name" validate:"required,min=6,max=255"`
	RoomNumber string `json:"room_number" validate:"required,min=3,max=10"`
	Faculty    string `json:"faculty" validate:"required,min=2,max=20"`
	Course     int    `json:"course" validate:"required,min=1,max=10"`
	StudyGroup string `json:"study_group" validate:"required,min=2,max=20"`
}

// UpdateStudentInput is a partial update; nil fields are left untouched.
type UpdateStudentInput struct {
	FullName   *string `json:"full_name" validate:"omitempty,min=1,max=255"`
	RoomNumber *string `json:"room_number" validate:"omitempty,min=1,max=10"`
	Faculty    *string `json:"faculty" validate:"omitempty,min=1,max=50"`
	Course     *int    `json:"course" validate:"omitempty,min=1,max=10"`
	StudyGroup *string `json:"study_group" validate:"omitempty,min=1,max=50"`
}

// StudentDTO is the API representation of a student.
type StudentDTO struct {
	ID         int64     `json:"id"`
	FullName   string    `json:"full_name"`
	RoomNumber string    `json:"room_number"`
	Faculty    string    `json:"faculty"`
	Course     int       `json:"course"`
	StudyGroup string    `json:"study_group"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// DeleteResult echoes the id of a removed student.
type DeleteResult struct {
	ID int64 `json:"id"`
}

func FromModel(m *models.Student) StudentDTO {
	return StudentDTO{
		ID:         m.ID,
		FullName:   m.FullName,
		RoomNumber: m.RoomNumber,
		Faculty:    m.Faculty,
		Course:     m.Course,
		StudyGroup: m.StudyGroup,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
}

// normalizeSpace trims and collapses inner whitespace runs to one space.
func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func normalizePtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := normalizeSpace(*s)
	return &v
}

func (in CreateStudentInput) normalized() CreateStudentInput {
	return CreateStudentInput{
		FullName:   normalizeSpace(in.FullName),
		RoomNumber: normalizeSpace(in.RoomNumber),
		Faculty:    normalizeSpace(in.Faculty),
		Course:     in.Course,
		StudyGroup: normalizeSpace(in.StudyGroup),
	}
}

func (in CreateStudentInput) identity() Identity {
	return Identity{
		FullName:   in.FullName,
		RoomNumber: in.RoomNumber,
		Faculty:    in.Faculty,
		Course:     in.Course,
		StudyGroup: in.StudyGroup,
	}
}

func (in CreateStudentInput) toModel() models.Student {
	return models.Student{
		FullName:   in.FullName,
		RoomNumber: in.RoomNumber,
		Faculty:    in.Faculty,
		Course:     in.Course,
		StudyGroup: in.StudyGroup,
	}
}

func (in UpdateStudentInput) normalized() UpdateStudentInput {
	return UpdateStudentInput{
		FullName:   normalizePtr(in.FullName),
		RoomNumber: normalizePtr(in.RoomNumber),
		Faculty:    normalizePtr(in.Faculty),
		Course:     in.Course,
		StudyGroup: normalizePtr(in.StudyGroup),
	}
}

func (in UpdateStudentInput) isEmpty() bool {
	return in.FullName == nil && in.RoomNumber == nil && in.Faculty == nil && in.Course == nil && in.StudyGroup == nil
}

// apply writes the patch onto student and reports whether any field changed.
func (in UpdateStudentInput) apply(student *models.Student) bool {
	changed := false
	setString := func(dst *string, src *string) {
		if src != nil && *dst != *src {
			*dst = *src
			changed = true
		}
	}
	setString(&student.FullName, in.FullName)
	setString(&student.RoomNumber, in.RoomNumber)
	setString(&student.Faculty, in.Faculty)
	setString(&student.StudyGroup, in.StudyGroup)
	if in.Course != nil && student.Course != *in.Course {
		student.Course = *in.Course
		changed = true
	}
	return changed
}
