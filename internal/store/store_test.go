package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/reservoireye/internal/apperror"
	"github.com/reservoireye/internal/database"
	"github.com/reservoireye/internal/models"
	"gorm.io/gorm"
)

var ctx = context.Background()

func newDB(t *testing.T) *gorm.DB {
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
	return db
}

func register(t *testing.T, s *UserStore, email string) *models.User {
	t.Helper()
	u, err := s.Register(ctx, Registration{Email: email, Password: "password123"})
	if err != nil {
		t.Fatalf("register %s: %v", email, err)
	}
	return u
}

func TestRegisterAndAuthenticate(t *testing.T) {
	users := NewUserStore(newDB(t))

	u := register(t, users, " Alice@Example.com ")
	if u.Email != "alice@example.com" || u.Role != models.RoleUser {
		t.Errorf("unexpected user %+v", u)
	}
	if u.Password == "password123" {
		t.Error("password stored in plain text")
	}

	if _, err := users.Register(ctx, Registration{Email: "alice@example.com", Password: "password123"}); !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("duplicate email: got %v, want ErrConflict", err)
	}
	if _, err := users.Register(ctx, Registration{Email: "not-an-email", Password: "password123"}); !errors.Is(err, apperror.ErrInvalidArgument) {
		t.Errorf("bad email: got %v", err)
	}
	if _, err := users.Register(ctx, Registration{Email: "bob@example.com", Password: "short"}); !errors.Is(err, apperror.ErrInvalidArgument) {
		t.Errorf("short password: got %v", err)
	}

	if _, err := users.Authenticate(ctx, "alice@example.com", "password123"); err != nil {
		t.Errorf("Authenticate: %v", err)
	}
	if _, err := users.Authenticate(ctx, "alice@example.com", "wrong-password"); !errors.Is(err, apperror.ErrUnauthorized) {
		t.Errorf("wrong password: got %v", err)
	}
	if _, err := users.Authenticate(ctx, "nobody@example.com", "password123"); !errors.Is(err, apperror.ErrUnauthorized) {
		t.Errorf("unknown email: got %v", err)
	}

	if _, err := users.SetBanned(ctx, u.ID, true); err != nil {
		t.Fatal(err)
	}
	if _, err := users.Authenticate(ctx, "alice@example.com", "password123"); !errors.Is(err, apperror.ErrPermissionDenied) {
		t.Errorf("banned login: got %v", err)
	}
}

func TestUpdateProfileAndRole(t *testing.T) {
	users := NewUserStore(newDB(t))
	u := register(t, users, "carol@example.com")

	first := "Carol"
	newPassword := "a-much-longer-password"
	updated, err := users.UpdateProfile(ctx, u.ID, ProfileUpdate{FirstName: &first, Password: &newPassword})
	if err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}
	if updated.FirstName == nil || *updated.FirstName != "Carol" {
		t.Errorf("first name = %v", updated.FirstName)
	}
	if !updated.CheckPassword(newPassword) {
		t.Error("password was not changed")
	}

	admin, err := users.SetRole(ctx, u.ID, models.RoleAdmin)
	if err != nil {
		t.Fatalf("SetRole: %v", err)
	}
	if admin.Role != models.RoleAdmin {
		t.Errorf("role = %q", admin.Role)
	}
	if _, err := users.SetRole(ctx, u.ID, "viewer"); !errors.Is(err, apperror.ErrInvalidArgument) {
		t.Errorf("invalid role: got %v", err)
	}
	if _, err := users.SetRole(ctx, 999, models.RoleUser); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("missing user: got %v", err)
	}
}

func TestReservoirOwnership(t *testing.T) {
	db := newDB(t)
	users := NewUserStore(db)
	reservoirs := NewReservoirStore(db)
	owner := register(t, users, "owner@example.com")
	other := register(t, users, "other@example.com")

	r, err := reservoirs.Create(ctx, owner.ID, ReservoirInput{Name: " North ", Capacity: 500})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if r.Name != "North" {
		t.Errorf("name = %q", r.Name)
	}
	if _, err := reservoirs.Create(ctx, owner.ID, ReservoirInput{Name: "Bad", Capacity: -1}); !errors.Is(err, apperror.ErrInvalidArgument) {
		t.Errorf("negative capacity: got %v", err)
	}

	if _, err := reservoirs.Get(ctx, r.ID, other.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("foreign Get: got %v", err)
	}
	list, err := reservoirs.List(ctx, other.ID)
	if err != nil || len(list) != 0 {
		t.Errorf("foreign List = %v, %v", list, err)
	}

	capacity := 750.0
	updated, err := reservoirs.Update(ctx, r.ID, owner.ID, ReservoirUpdate{Capacity: &capacity})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Capacity != 750 || updated.Name != "North" {
		t.Errorf("unexpected reservoir %+v", updated)
	}

	if err := reservoirs.Delete(ctx, r.ID, other.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("foreign Delete: got %v", err)
	}
	if err := reservoirs.Delete(ctx, r.ID, owner.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
}

func TestReservoirDeleteDetachesDevices(t *testing.T) {
	db := newDB(t)
	owner := register(t, NewUserStore(db), "owner@example.com")
	reservoirs := NewReservoirStore(db)
	devices := NewDeviceStore(db)

	r, err := reservoirs.Create(ctx, owner.ID, ReservoirInput{Name: "Tank", Capacity: 10})
	if err != nil {
		t.Fatal(err)
	}
	d, err := devices.Create(ctx, owner.ID, DeviceInput{Name: "probe", ReservoirID: &r.ID})
	if err != nil {
		t.Fatal(err)
	}
	if err := reservoirs.Delete(ctx, r.ID, owner.ID); err != nil {
		t.Fatal(err)
	}

	got, err := devices.Get(ctx, d.ID, owner.ID)
	if err != nil {
		t.Fatalf("device removed with reservoir: %v", err)
	}
	if got.ReservoirID != nil {
		t.Errorf("device still attached to %d", *got.ReservoirID)
	}
}

func TestDeviceLifecycle(t *testing.T) {
	db := newDB(t)
	users := NewUserStore(db)
	owner := register(t, users, "owner@example.com")
	other := register(t, users, "other@example.com")
	theirs, err := NewReservoirStore(db).Create(ctx, other.ID, ReservoirInput{Name: "Theirs", Capacity: 1})
	if err != nil {
		t.Fatal(err)
	}
	devices := NewDeviceStore(db)

	if _, err := devices.Create(ctx, owner.ID, DeviceInput{Name: "probe", ReservoirID: &theirs.ID}); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("attach to foreign reservoir: got %v", err)
	}

	d, err := devices.Create(ctx, owner.ID, DeviceInput{Name: "probe"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if d.APIKey == "" || d.Status != models.DeviceStatusOffline {
		t.Errorf("unexpected device %+v", d)
	}

	found, err := devices.ByAPIKey(ctx, d.APIKey)
	if err != nil {
		t.Fatalf("ByAPIKey: %v", err)
	}
	if found.ID != d.ID || found.User.Email != owner.Email {
		t.Errorf("ByAPIKey returned %+v", found)
	}

	rotated, err := devices.RotateKey(ctx, d.ID, owner.ID)
	if err != nil {
		t.Fatalf("RotateKey: %v", err)
	}
	if rotated.APIKey == d.APIKey {
		t.Error("api key did not change")
	}
	if _, err := devices.ByAPIKey(ctx, d.APIKey); !errors.Is(err, apperror.ErrUnauthorized) {
		t.Errorf("old key: got %v", err)
	}
	if _, err := devices.ByAPIKey(ctx, ""); !errors.Is(err, apperror.ErrUnauthorized) {
		t.Errorf("empty key: got %v", err)
	}

	bad := models.DeviceStatus("broken")
	if _, err := devices.Update(ctx, d.ID, owner.ID, DeviceUpdate{Status: &bad}); !errors.Is(err, apperror.ErrInvalidArgument) {
		t.Errorf("bad status: got %v", err)
	}
	if _, err := devices.RotateKey(ctx, d.ID, other.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("foreign rotate: got %v", err)
	}
	if err := devices.Delete(ctx, d.ID, owner.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
}

func TestMeasurementsHistory(t *testing.T) {
	db := newDB(t)
	owner := register(t, NewUserStore(db), "owner@example.com")
	d, err := NewDeviceStore(db).Create(ctx, owner.ID, DeviceInput{Name: "probe"})
	if err != nil {
		t.Fatal(err)
	}
	ms := NewMeasurementStore(db)

	base := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		if _, err := ms.Add(ctx, d.ID, float64(i), base.Add(time.Duration(i)*time.Hour)); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}
	if _, err := ms.Add(ctx, d.ID, 9, base); !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("duplicate timestamp: got %v", err)
	}

	all, err := ms.History(ctx, d.ID, HistoryQuery{})
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(all) != 5 || all[0].Value != 4 {
		t.Errorf("history = %+v", all)
	}

	window, err := ms.History(ctx, d.ID, HistoryQuery{From: base.Add(time.Hour), To: base.Add(3 * time.Hour), Limit: 2})
	if err != nil {
		t.Fatal(err)
	}
	if len(window) != 2 || window[0].Value != 3 || window[1].Value != 2 {
		t.Errorf("window = %+v", window)
	}

	device, err := NewDeviceStore(db).Get(ctx, d.ID, owner.ID)
	if err != nil {
		t.Fatal(err)
	}
	if device.Status != models.DeviceStatusOnline || device.LastSeen == nil {
		t.Errorf("device not marked online: %+v", device)
	}
}

func TestStats(t *testing.T) {
	db := newDB(t)
	users := NewUserStore(db)
	owner := register(t, users, "owner@example.com")
	register(t, users, "second@example.com")
	if _, err := NewReservoirStore(db).Create(ctx, owner.ID, ReservoirInput{Name: "Tank", Capacity: 1}); err != nil {
		t.Fatal(err)
	}

	st, err := users.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if st.TotalUsers != 2 || st.TotalReservoirs != 1 || st.TotalDevices != 0 {
		t.Errorf("stats = %+v", st)
	}
}

func TestEnsureAdmin(t *testing.T) {
	users := NewUserStore(newDB(t))
	u := register(t, users, "boss@example.com")

	ok, err := users.EnsureAdmin(ctx, "BOSS@example.com")
	if err != nil || !ok {
		t.Fatalf("EnsureAdmin = %v, %v", ok, err)
	}
	got, _ := users.Get(ctx, u.ID)
	if got.Role != models.RoleAdmin {
		t.Errorf("role = %q", got.Role)
	}

	ok, err = users.EnsureAdmin(ctx, "ghost@example.com")
	if err != nil || ok {
		t.Errorf("missing user: %v, %v", ok, err)
	}
}
