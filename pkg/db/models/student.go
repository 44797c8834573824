package models

import "time"

// Student is the identity record issuance rows point at.
type Student struct {
	ID         int64     `gorm:"column:id;primaryKey;autoIncrement"`
	FullName   string    `gorm:"column:full_name;size:255;not null;uniqueIndex:ux_students_identity"`
	RoomNumber string    `gorm:"column:room_number;size:10;not null;uniqueIndex:ux_students_identity"`
	Faculty    string    `gorm:"column:faculty;size:50;not null;uniqueIndex:ux_students_identity"`
	Course     int       `gorm:"column:course;not null;uniqueIndex:ux_students_identity"`
	StudyGroup string    `gorm:"column:study_group;size:50;not null;uniqueIndex:ux_students_identity"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Student) TableName() string {
	return "students"
}
