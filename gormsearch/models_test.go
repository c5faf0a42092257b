package gormsearch_test

import (
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/theplant/searchspec/filter"
)

type Department struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"not null" json:"name"`
}

type Employee struct {
	ID           uint        `gorm:"primaryKey" json:"id"`
	Name         string      `gorm:"not null" json:"name"`
	Age          int         `gorm:"not null" json:"age"`
	Nickname     *string     `json:"nickname"`
	DepartmentID uint        `gorm:"not null" json:"departmentId"`
	Department   *Department `json:"department,omitempty"`
}

// openSQLite returns an in-memory database seeded with
//
//	1 Alice 30 Engineering
//	2 Bob   25 Engineering
//	3 Carol 30 Sales
//	4 Dave  41 Sales       nickname dd
//	5 Eve   25 Sales
func openSQLite(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(&Department{}, &Employee{}))
	require.NoError(t, db.Create([]*Department{{ID: 1, Name: "Engineering"}, {ID: 2, Name: "Sales"}}).Error)
	require.NoError(t, db.Create([]*Employee{
		{ID: 1, Name: "Alice", Age: 30, DepartmentID: 1},
		{ID: 2, Name: "Bob", Age: 25, DepartmentID: 1},
		{ID: 3, Name: "Carol", Age: 30, DepartmentID: 2},
		{ID: 4, Name: "Dave", Age: 41, DepartmentID: 2, Nickname: lo.ToPtr("dd")},
		{ID: 5, Name: "Eve", Age: 25, DepartmentID: 2},
	}).Error)
	return db
}

func names(employees []Employee) []string {
	return lo.Map(employees, func(e Employee, _ int) string { return e.Name })
}

func requireKind(t *testing.T, expected filter.ErrorKind, err error) {
	t.Helper()
	kind, ok := filter.KindOf(err)
	require.True(t, ok, "expected a filter error, got %v", err)
	require.Equal(t, expected, kind)
}
