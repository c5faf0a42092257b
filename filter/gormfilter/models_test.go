package gormfilter_test

import (
	"sync"
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

type Manager struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"not null" json:"name"`
}

type Department struct {
	ID        uint        `gorm:"primaryKey" json:"id"`
	Name      string      `gorm:"not null" json:"name"`
	Code      string      `gorm:"not null" json:"code"`
	ManagerID *uint       `json:"managerId"`
	Manager   *Manager    `json:"manager"`
	Employees []*Employee `json:"employees"`
}

type Skill struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"not null" json:"name"`
}

type Employee struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	Name         string         `gorm:"not null" json:"name"`
	Age          int            `gorm:"not null" json:"age"`
	Salary       float64        `gorm:"not null" json:"salary"`
	Active       bool           `gorm:"not null" json:"active"`
	HiredOn      datatypes.Date `json:"hiredOn"`
	CreatedAt    time.Time      `gorm:"index;not null" json:"createdAt"`
	Nickname     *string        `json:"nickname"`
	DepartmentID uint           `gorm:"not null" json:"departmentId"`
	Department   *Department    `json:"department"`
	Skills       []*Skill       `gorm:"many2many:employee_skills" json:"skills"`
}

func parseSchema(t *testing.T, model any) *schema.Schema {
	t.Helper()
	s, err := schema.Parse(model, &sync.Map{}, schema.NamingStrategy{})
	require.NoError(t, err)
	return s
}

func date(y int, m time.Month, d int) datatypes.Date {
	return datatypes.Date(time.Date(y, m, d, 0, 0, 0, 0, time.UTC))
}

// openSQLite returns an in-memory database seeded with
//
//	1 John Smith  42 1000   active   2023-01-01 Engineering(Alice) Go,SQL
//	2 Jane Doe    30 1500.5 inactive 2023-12-31 Engineering(Alice) Go
//	3 smith jr    42 2000   active   2022-12-31 Sales(Bob)
//	4 Max         25 3000   active   2024-01-01 Sales(Bob)         nickname maxi
func openSQLite(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	err = db.AutoMigrate(&Manager{}, &Department{}, &Skill{}, &Employee{})
	require.NoError(t, err)

	require.NoError(t, db.Create([]*Manager{{ID: 1, Name: "Alice"}, {ID: 2, Name: "Bob"}}).Error)
	require.NoError(t, db.Create([]*Department{
		{ID: 1, Name: "Engineering", Code: "ENG", ManagerID: lo.ToPtr[uint](1)},
		{ID: 2, Name: "Sales", Code: "SAL", ManagerID: lo.ToPtr[uint](2)},
	}).Error)
	skills := []*Skill{{ID: 1, Name: "Go"}, {ID: 2, Name: "SQL"}}
	require.NoError(t, db.Create(skills).Error)
	require.NoError(t, db.Create([]*Employee{
		{ID: 1, Name: "John Smith", Age: 42, Salary: 1000, Active: true, HiredOn: date(2023, 1, 1), DepartmentID: 1, Skills: skills},
		{ID: 2, Name: "Jane Doe", Age: 30, Salary: 1500.5, Active: false, HiredOn: date(2023, 12, 31), DepartmentID: 1, Skills: skills[:1]},
		{ID: 3, Name: "smith jr", Age: 42, Salary: 2000, Active: true, HiredOn: date(2022, 12, 31), DepartmentID: 2},
		{ID: 4, Name: "Max", Age: 25, Salary: 3000, Active: true, HiredOn: date(2024, 1, 1), DepartmentID: 2, Nickname: lo.ToPtr("maxi")},
	}).Error)

	return db
}

func employeeIDs(employees []*Employee) []uint {
	return lo.Map(employees, func(e *Employee, _ int) uint { return e.ID })
}
