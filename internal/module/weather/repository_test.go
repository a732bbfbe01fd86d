package weather

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/simp-lee/weatherlog/internal/db"
	"github.com/simp-lee/weatherlog/internal/domain"
)

// setupTestDB opens a migrated in-memory SQLite database.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if err := db.Migrate(context.Background(), gdb, "sqlite", logger); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return gdb
}

func createUser(t *testing.T, gdb *gorm.DB, username string) uint {
	t.Helper()
	u := &domain.User{Username: username, PasswordHash: "x"}
	if err := gdb.Create(u).Error; err != nil {
		t.Fatalf("create user %s: %v", username, err)
	}
	return u.ID
}

func day(d int) time.Time {
	return time.Date(2024, time.March, d, 0, 0, 0, 0, time.UTC)
}

func strPtr(s string) *string        { return &s }
func floatPtr(f float64) *float64    { return &f }
func intPtr(i int) *int              { return &i }
func uintPtr(u uint) *uint           { return &u }
func timePtr(t time.Time) *time.Time { return &t }

func newRecord(userID uint, city string, date time.Time) *domain.WeatherSearch {
	return &domain.WeatherSearch{
		UserID:     userID,
		City:       city,
		Humidity:   50,
		TempMin:    10,
		TempMax:    20,
		SearchDate: date,
		Condition:  strPtr("Clear (clear sky)"),
	}
}

func insert(t *testing.T, repo domain.WeatherRepository, rec *domain.WeatherSearch) *domain.WeatherSearch {
	t.Helper()
	if err := repo.Insert(context.Background(), rec); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	return rec
}

func TestRepository_InsertAndGetByID(t *testing.T) {
	gdb := setupTestDB(t)
	repo := NewWeatherRepository(gdb)
	alice := createUser(t, gdb, "alice")

	rec := newRecord(alice, "Paris", day(1))
	rec.CurrentTemp = floatPtr(15.5)
	rec.WindDeg = intPtr(270)
	insert(t, repo, rec)
	if rec.ID == 0 {
		t.Fatal("expected ID to be assigned")
	}

	got, err := repo.GetByID(context.Background(), rec.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Username != "alice" {
		t.Errorf("username = %q, want alice", got.Username)
	}
	if got.City != "Paris" || got.Humidity != 50 {
		t.Errorf("got %+v", got)
	}
	if got.CurrentTemp == nil || *got.CurrentTemp != 15.5 {
		t.Errorf("current temp = %v, want 15.5", got.CurrentTemp)
	}
	if got.WindSpeed != nil {
		t.Errorf("wind speed = %v, want nil", *got.WindSpeed)
	}
	if !got.SearchDate.Equal(day(1)) {
		t.Errorf("search date = %v, want %v", got.SearchDate, day(1))
	}

	if _, err := repo.GetByID(context.Background(), 999); !domain.IsNotFound(err) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestRepository_SearchPaged_TotalIndependentOfPage(t *testing.T) {
	gdb := setupTestDB(t)
	repo := NewWeatherRepository(gdb)
	alice := createUser(t, gdb, "alice")

	for i := 0; i < 25; i++ {
		insert(t, repo, newRecord(alice, "Paris", day(1+i%28)))
	}
	for i := 0; i < 5; i++ {
		insert(t, repo, newRecord(alice, "London", day(1+i)))
	}

	filter := domain.SearchFilter{City: strPtr("Paris")}
	tests := []struct {
		page      int
		wantItems int
	}{
		{1, 10},
		{2, 10},
		{3, 5},
		{4, 0},
	}
	seen := make(map[uint]bool)
	for _, tt := range tests {
		t.Run(fmt.Sprintf("page%d", tt.page), func(t *testing.T) {
			res, err := repo.SearchPaged(context.Background(), filter, domain.PageRequest{Page: tt.page, PageSize: 10})
			if err != nil {
				t.Fatalf("SearchPaged: %v", err)
			}
			if res.Total != 25 {
				t.Errorf("total = %d, want 25", res.Total)
			}
			if len(res.Items) != tt.wantItems {
				t.Errorf("items = %d, want %d", len(res.Items), tt.wantItems)
			}
			if res.Items == nil {
				t.Error("items must be an empty slice, not nil")
			}
			for _, it := range res.Items {
				if it.City != "Paris" {
					t.Errorf("unexpected city %q", it.City)
				}
				if it.Username != "alice" {
					t.Errorf("username = %q, want alice", it.Username)
				}
				if seen[it.ID] {
					t.Errorf("record %d returned on more than one page", it.ID)
				}
				seen[it.ID] = true
			}
		})
	}
	if len(seen) != 25 {
		t.Errorf("pages covered %d records, want 25", len(seen))
	}
}

func TestRepository_SearchPaged_Filters(t *testing.T) {
	gdb := setupTestDB(t)
	repo := NewWeatherRepository(gdb)
	alice := createUser(t, gdb, "alice")
	bob := createUser(t, gdb, "bob")

	insert(t, repo, newRecord(alice, "Paris", day(1)))
	insert(t, repo, newRecord(alice, "Paris", day(5)))
	rain := newRecord(bob, "Paris", day(10))
	rain.Condition = strPtr("Rain (light rain)")
	insert(t, repo, rain)
	insert(t, repo, newRecord(bob, "Berlin", day(15)))

	tests := []struct {
		name   string
		filter domain.SearchFilter
		want   int64
	}{
		{"no filter", domain.SearchFilter{}, 4},
		{"city", domain.SearchFilter{City: strPtr("Paris")}, 3},
		{"username", domain.SearchFilter{Username: strPtr("bob")}, 2},
		{"user id", domain.SearchFilter{UserID: uintPtr(alice)}, 2},
		{"condition", domain.SearchFilter{Condition: strPtr("Rain (light rain)")}, 1},
		{"range is inclusive", domain.SearchFilter{From: timePtr(day(5)), To: timePtr(day(10))}, 2},
		{"from only", domain.SearchFilter{From: timePtr(day(10))}, 2},
		{"to only", domain.SearchFilter{To: timePtr(day(1))}, 1},
		{"conjunctive", domain.SearchFilter{City: strPtr("Paris"), Username: strPtr("bob")}, 1},
		{"no match", domain.SearchFilter{City: strPtr("Tokyo")}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := repo.SearchPaged(context.Background(), tt.filter, domain.PageRequest{Page: 1, PageSize: 10})
			if err != nil {
				t.Fatalf("SearchPaged: %v", err)
			}
			if res.Total != tt.want || int64(len(res.Items)) != tt.want {
				t.Errorf("total = %d, items = %d; want %d", res.Total, len(res.Items), tt.want)
			}

			all, err := repo.List(context.Background(), tt.filter)
			if err != nil {
				t.Fatalf("List: %v", err)
			}
			if int64(len(all)) != tt.want {
				t.Errorf("List returned %d, want %d", len(all), tt.want)
			}
		})
	}
}

func TestRepository_SearchPaged_Sort(t *testing.T) {
	gdb := setupTestDB(t)
	repo := NewWeatherRepository(gdb)
	alice := createUser(t, gdb, "alice")

	for _, city := range []string{"Berlin", "Paris", "Amsterdam"} {
		insert(t, repo, newRecord(alice, city, day(1)))
	}

	res, err := repo.SearchPaged(context.Background(), domain.SearchFilter{}, domain.PageRequest{Page: 1, PageSize: 10, Sort: "city:desc"})
	if err != nil {
		t.Fatalf("SearchPaged: %v", err)
	}
	got := []string{res.Items[0].City, res.Items[1].City, res.Items[2].City}
	want := []string{"Paris", "Berlin", "Amsterdam"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
}

func TestRepository_UpdateFieldChange(t *testing.T) {
	gdb := setupTestDB(t)
	repo := NewWeatherRepository(gdb)
	alice := createUser(t, gdb, "alice")
	bob := createUser(t, gdb, "bob")
	rec := insert(t, repo, newRecord(alice, "Paris", day(1)))
	ctx := context.Background()

	state := *rec
	state.Humidity = 80
	state.Condition = nil
	entry := domain.ChangeLogEntry{
		UpdateID:  "u-1",
		ChangedAt: day(2),
		FieldName: string(domain.FieldHumidity),
		OldValue:  "50",
		NewValue:  "80",
		UserID:    bob,
	}
	if err := repo.UpdateFieldChange(ctx, entry, &state); err != nil {
		t.Fatalf("UpdateFieldChange: %v", err)
	}

	got, err := repo.GetByID(ctx, rec.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Humidity != 80 {
		t.Errorf("humidity = %d, want 80", got.Humidity)
	}
	if got.Condition != nil {
		t.Errorf("condition = %q, want nil", *got.Condition)
	}
	if got.UserID != alice {
		t.Errorf("owner changed to %d", got.UserID)
	}

	history, err := repo.History(ctx, rec.ID)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("history = %d entries, want 1", len(history))
	}
	h := history[0]
	if h.WeatherSearchID != rec.ID || h.FieldName != "Humidity" || h.OldValue != "50" || h.NewValue != "80" {
		t.Errorf("entry = %+v", h)
	}
	if h.Username != "bob" {
		t.Errorf("editor username = %q, want bob", h.Username)
	}
}

func TestRepository_Insert_UnknownOwner(t *testing.T) {
	gdb := setupTestDB(t)
	repo := NewWeatherRepository(gdb)
	alice := createUser(t, gdb, "alice")

	err := repo.Insert(context.Background(), newRecord(alice+100, "Paris", day(1)))
	if !domain.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if domain.FieldErrors(err)["UserID"] == "" {
		t.Errorf("fields = %v, want UserID", domain.FieldErrors(err))
	}

	var count int64
	gdb.Model(&domain.WeatherSearch{}).Count(&count)
	if count != 0 {
		t.Errorf("records = %d, want 0", count)
	}
}

func TestRepository_UpdateFieldChange_UnknownEditor(t *testing.T) {
	gdb := setupTestDB(t)
	repo := NewWeatherRepository(gdb)
	alice := createUser(t, gdb, "alice")
	rec := insert(t, repo, newRecord(alice, "Paris", day(1)))

	state := *rec
	state.Humidity = 80
	entry := domain.ChangeLogEntry{UpdateID: "u", ChangedAt: day(2), FieldName: "Humidity", UserID: alice + 100}
	err := repo.UpdateFieldChange(context.Background(), entry, &state)
	if domain.FieldErrors(err)["UserID"] == "" {
		t.Fatalf("expected UserID validation error, got %v", err)
	}

	got, err := repo.GetByID(context.Background(), rec.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Humidity != 50 {
		t.Errorf("humidity = %d, want 50", got.Humidity)
	}
	var count int64
	gdb.Model(&domain.ChangeLogEntry{}).Count(&count)
	if count != 0 {
		t.Errorf("change log rows = %d, want 0", count)
	}
}

func TestRepository_UpdateFieldChange_MissingRecord(t *testing.T) {
	gdb := setupTestDB(t)
	repo := NewWeatherRepository(gdb)
	alice := createUser(t, gdb, "alice")

	state := newRecord(alice, "Paris", day(1))
	state.ID = 404
	entry := domain.ChangeLogEntry{UpdateID: "u", ChangedAt: day(1), FieldName: "Humidity", UserID: alice}
	if err := repo.UpdateFieldChange(context.Background(), entry, state); !domain.IsNotFound(err) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	var count int64
	gdb.Model(&domain.ChangeLogEntry{}).Count(&count)
	if count != 0 {
		t.Errorf("change log rows = %d, want 0", count)
	}
}

func TestRepository_History_InsertionOrder(t *testing.T) {
	gdb := setupTestDB(t)
	repo := NewWeatherRepository(gdb)
	alice := createUser(t, gdb, "alice")
	rec := insert(t, repo, newRecord(alice, "Paris", day(1)))
	other := insert(t, repo, newRecord(alice, "Lyon", day(1)))
	ctx := context.Background()

	fieldsInOrder := []domain.FieldName{domain.FieldWindDeg, domain.FieldHumidity, domain.FieldTempMax}
	for i, f := range fieldsInOrder {
		state := *rec
		entry := domain.ChangeLogEntry{UpdateID: fmt.Sprint(i), ChangedAt: day(1), FieldName: string(f), UserID: alice}
		if err := repo.UpdateFieldChange(ctx, entry, &state); err != nil {
			t.Fatalf("UpdateFieldChange: %v", err)
		}
	}
	otherState := *other
	if err := repo.UpdateFieldChange(ctx, domain.ChangeLogEntry{UpdateID: "x", ChangedAt: day(1), FieldName: "TempMin", UserID: alice}, &otherState); err != nil {
		t.Fatalf("UpdateFieldChange: %v", err)
	}

	history, err := repo.History(ctx, rec.ID)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(history) != len(fieldsInOrder) {
		t.Fatalf("history = %d entries, want %d", len(history), len(fieldsInOrder))
	}
	for i, f := range fieldsInOrder {
		if history[i].FieldName != string(f) {
			t.Errorf("history[%d] = %s, want %s", i, history[i].FieldName, f)
		}
	}

	empty, err := repo.History(ctx, 999)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if empty == nil || len(empty) != 0 {
		t.Errorf("history of unknown record = %v, want empty slice", empty)
	}
}

func TestRepository_Transaction_RollsBack(t *testing.T) {
	gdb := setupTestDB(t)
	repo := NewWeatherRepository(gdb)
	alice := createUser(t, gdb, "alice")
	rec := insert(t, repo, newRecord(alice, "Paris", day(1)))
	ctx := context.Background()

	boom := errors.New("boom")
	err := repo.Transaction(ctx, func(tx domain.WeatherRepository) error {
		state := *rec
		state.Humidity = 99
		entry := domain.ChangeLogEntry{UpdateID: "u", ChangedAt: day(1), FieldName: "Humidity", UserID: alice}
		if err := tx.UpdateFieldChange(ctx, entry, &state); err != nil {
			return err
		}
		return boom
	})
	if err == nil {
		t.Fatal("expected error from Transaction")
	}

	got, err := repo.GetByID(ctx, rec.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Humidity != 50 {
		t.Errorf("humidity = %d, want 50 after rollback", got.Humidity)
	}
	history, _ := repo.History(ctx, rec.ID)
	if len(history) != 0 {
		t.Errorf("history = %d entries, want 0 after rollback", len(history))
	}
}

func TestRepository_DistinctCitiesAndConditions(t *testing.T) {
	gdb := setupTestDB(t)
	repo := NewWeatherRepository(gdb)
	alice := createUser(t, gdb, "alice")

	insert(t, repo, newRecord(alice, "Paris", day(1)))
	insert(t, repo, newRecord(alice, "Paris", day(2)))
	berlin := newRecord(alice, "Berlin", day(3))
	berlin.Condition = strPtr("Rain (light rain)")
	insert(t, repo, berlin)
	noCond := newRecord(alice, "Amsterdam", day(4))
	noCond.Condition = nil
	insert(t, repo, noCond)

	cities, err := repo.ListDistinctCities(context.Background())
	if err != nil {
		t.Fatalf("ListDistinctCities: %v", err)
	}
	wantCities := []string{"Amsterdam", "Berlin", "Paris"}
	if fmt.Sprint(cities) != fmt.Sprint(wantCities) {
		t.Errorf("cities = %v, want %v", cities, wantCities)
	}

	conditions, err := repo.ListDistinctConditions(context.Background())
	if err != nil {
		t.Fatalf("ListDistinctConditions: %v", err)
	}
	wantConds := []string{"Clear (clear sky)", "Rain (light rain)"}
	if fmt.Sprint(conditions) != fmt.Sprint(wantConds) {
		t.Errorf("conditions = %v, want %v", conditions, wantConds)
	}
}
