package main

import (
	"time"

	"gorm.io/datatypes"
)

type Manager struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"not null" json:"name"`
}

type Department struct {
	ID        uint     `gorm:"primaryKey" json:"id"`
	Name      string   `gorm:"not null" json:"name"`
	Code      string   `gorm:"uniqueIndex;not null" json:"code"`
	ManagerID *uint    `json:"managerId"`
	Manager   *Manager `json:"manager,omitempty"`
}

type Employee struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	Name         string         `gorm:"not null" json:"name"`
	Email        string         `gorm:"uniqueIndex;not null" json:"email"`
	Age          int            `json:"age"`
	Salary       float64        `json:"salary"`
	Active       bool           `json:"active"`
	HiredOn      datatypes.Date `json:"hiredOn"`
	CreatedAt    time.Time      `json:"createdAt"`
	DepartmentID uint           `gorm:"not null" json:"departmentId"`
	Department   *Department    `json:"department,omitempty"`
}

// DirectoryEntry is a row of the read-only employee_directory view.
type DirectoryEntry struct {
	ID             uint   `gorm:"primaryKey" json:"id"`
	Name           string `json:"name"`
	Email          string `json:"email"`
	DepartmentName string `json:"departmentName"`
	DepartmentCode string `json:"departmentCode"`
}

func (DirectoryEntry) TableName() string {
	return "employee_directory"
}
