package alert

import (
	"testing"

	"github.com/reservoireye/internal/database"
	"github.com/reservoireye/internal/models"
	"gorm.io/gorm"
)

type fixture struct {
	db        *gorm.DB
	owner     models.User
	stranger  models.User
	reservoir models.Reservoir
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := database.OpenMemory(t.Name())
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	f := &fixture{db: db}
	f.owner = models.User{Email: "owner@example.com", Password: "x", Role: models.RoleUser}
	f.stranger = models.User{Email: "stranger@example.com", Password: "x", Role: models.RoleUser}
	if err := db.Create(&f.owner).Error; err != nil {
		t.Fatalf("create owner: %v", err)
	}
	if err := db.Create(&f.stranger).Error; err != nil {
		t.Fatalf("create stranger: %v", err)
	}
	f.reservoir = models.Reservoir{UserID: f.owner.ID, Name: "Main Tank", Capacity: 1000}
	if err := db.Create(&f.reservoir).Error; err != nil {
		t.Fatalf("create reservoir: %v", err)
	}
	return f
}

func (f *fixture) addRule(t *testing.T, condition models.ConditionType, threshold float64) *models.AlertRule {
	t.Helper()
	rule, err := NewRuleManager(f.db).CreateRule(ctxBG, f.reservoir.ID, f.owner.ID, condition, threshold)
	if err != nil {
		t.Fatalf("create rule: %v", err)
	}
	return rule
}

func (f *fixture) events(t *testing.T) []models.AlertEvent {
	t.Helper()
	var events []models.AlertEvent
	if err := f.db.Order("id").Find(&events).Error; err != nil {
		t.Fatalf("load events: %v", err)
	}
	return events
}
