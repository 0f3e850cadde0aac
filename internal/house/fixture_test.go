package house

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/r1nov8/ing301gruppeA2/internal/infrastructure/database"
	_ "github.com/r1nov8/ing301gruppeA2/migrations"
)

// Device ids used by the demo house fixture.
const (
	bulbID       = "9a54c1ec-0cb5-45a7-b20d-2a7349f1b132"
	motionID     = "cd5be4e8-0e6b-4cb5-a21f-819d06cf5fc5"
	ampID        = "a2f8690f-2b3a-43cd-90b8-9deea98b42a7"
	humidityID   = "3d87e5c0-8716-4b0b-9c67-087eaaed7b45"
	ovenID       = "8d4e4c98-21a9-4d1e-bf18-523285ad90f6"
	plugID       = "1a66c3d6-22b2-446e-bf5c-eb5b9d1a8c79"
	livingTempID = "4d8b1d62-7921-4917-9b70-bbd31f6e2e8e"
	bedTempID    = "b21e6f4a-0e3c-4f3c-8d62-3f0c7e1c5a90"
	heatPumpID   = "5e13cabc-5c58-4bb3-82a2-3039e4480a6d"
)

var fixedNow = time.Date(2024, 1, 30, 12, 0, 0, 0, time.UTC)

// newTestRepo opens a migrated database in a temp dir.
func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()

	ctx := context.Background()
	db, err := database.Open(ctx, database.Config{
		Path:        filepath.Join(t.TempDir(), "smarthouse.db"),
		WALMode:     true,
		BusyTimeout: 5,
	})
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	t.Cleanup(func() { db.Close() }) //nolint:errcheck // Test cleanup

	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("migrating database: %v", err)
	}

	repo := NewSQLiteRepository(db)
	repo.now = func() time.Time { return fixedNow }
	return repo
}

// buildDemoHouse returns the twelve room, fourteen device demo house.
func buildDemoHouse(t *testing.T) *House {
	t.Helper()

	h := NewHouse()
	ground := h.RegisterFloor(1)
	upper := h.RegisterFloor(2)

	rooms := map[string]*Room{}
	for _, def := range []struct {
		floor *Floor
		name  string
		size  float64
	}{
		{ground, "Entrance", 13.5},
		{ground, "Living room / Kitchen", 39.75},
		{ground, "Bathroom 1", 6.3},
		{ground, "Guest room 1", 8},
		{ground, "Garage", 19},
		{upper, "Office", 11.75},
		{upper, "Bathroom 2", 9.25},
		{upper, "Hallway", 10},
		{upper, "Guest Room 2", 8},
		{upper, "Guest Room 3", 10},
		{upper, "Dressing Room", 4},
		{upper, "Master Bedroom", 17},
	} {
		r, err := h.RegisterRoom(def.floor, def.size, def.name)
		if err != nil {
			t.Fatalf("RegisterRoom(%s) error = %v", def.name, err)
		}
		rooms[def.name] = r
	}

	for _, reg := range []struct {
		room   string
		device *Device
	}{
		{"Entrance", NewSensor(motionID, "MotionDetector 2000", "Alpha Security", "Motion Sensor", "")},
		{"Entrance", NewActuator("4f2a1b3c-1111-4d2e-9f00-0a1b2c3d4e5f", "Guardian Lock 7000", "MythicalTech", "Smart Lock")},
		{"Living room / Kitchen", NewSensor(livingTempID, "SmartTemp 42", "Elysian Tech", "Temperature Sensor", TemperatureUnit)},
		{"Living room / Kitchen", NewActuator(ovenID, "Pizza Oven 3000", "Chef Pro", "Oven")},
		{"Living room / Kitchen", NewActuatorWithSensor(heatPumpID, "Thermo Smart 6000", "ElectroMax", "Heat Pump", TemperatureUnit)},
		{"Bathroom 1", NewSensor(humidityID, "Aqua Alert 800", "AquaGuard", "Humidity Sensor", HumidityUnit)},
		{"Guest room 1", NewActuator("6b1c5f6b-3333-4a3c-9d4e-1f2a3b4c5d6e", "Lumina Glow 4000", "Elysian Tech", "Light Bulp")},
		{"Garage", NewActuator(plugID, "Volt Watch Elite", "Elysian Tech", "Smart Plug")},
		{"Garage", NewSensor(ampID, "Power Pulse 333", "Elysian Tech", "Electricity Meter", "A")},
		{"Office", NewSensor("7c6e2b1a-4444-4c1d-8e9f-2a3b4c5d6e7f", "AeroSense 9000", "CleanAir", "Air Quality Sensor", "g/m^2")},
		{"Bathroom 2", NewSensor("8d7f3c2b-5555-4d2e-9f00-3b4c5d6e7f80", "HydroGuard 200", "AquaGuard", "Humidity Sensor", HumidityUnit)},
		{"Hallway", NewActuator("9e804d3c-6666-4e3f-a011-4c5d6e7f8091", "Lumina Glow 4000", "Elysian Tech", "Light Bulp")},
		{"Master Bedroom", NewSensor(bedTempID, "SmartTemp 42", "Elysian Tech", "Temperature Sensor", TemperatureUnit)},
		{"Master Bedroom", NewActuator(bulbID, "Lumina Glow 4000", "Elysian Tech", "Light Bulp")},
	} {
		if err := h.RegisterDevice(rooms[reg.room], reg.device); err != nil {
			t.Fatalf("RegisterDevice(%s) error = %v", reg.device.ID, err)
		}
	}
	return h
}

// seedDemoHouse saves the demo house and its readings, then returns the
// repository and the house as loaded back from the store.
func seedDemoHouse(t *testing.T) (*SQLiteRepository, *House) {
	t.Helper()

	repo := newTestRepo(t)
	ctx := context.Background()
	if err := repo.SaveHouse(ctx, buildDemoHouse(t)); err != nil {
		t.Fatalf("SaveHouse() error = %v", err)
	}

	add := func(device, ts string, value float64, unit string) {
		t.Helper()
		if err := repo.AddMeasurement(ctx, device, ts, value, unit); err != nil {
			t.Fatalf("AddMeasurement(%s, %s) error = %v", device, ts, err)
		}
	}

	// Electricity meter.
	add(ampID, "2024-01-28 21:00:00", 11.9, "A")
	add(ampID, "2024-01-28 23:00:00", 13.7, "A")
	add(ampID, "2024-01-28T22:00:00", 12.4, "A")

	// Living room temperatures: three readings a day.
	for day, base := range map[string]float64{"2024-01-24": 20.5, "2024-01-25": 21.5, "2024-01-26": 22.5} {
		add(livingTempID, day+" 06:00:00", base, TemperatureUnit)
		add(livingTempID, day+" 12:00:00", base+0.5, TemperatureUnit)
		add(livingTempID, day+" 18:00:00", base+0.75, TemperatureUnit)
	}
	add(livingTempID, "2024-01-27 06:00:00", 25.0, TemperatureUnit)

	// Bedroom temperatures.
	add(bedTempID, "2024-01-26 22:00:00", 18.0, TemperatureUnit)
	add(bedTempID, "2024-01-27 06:00:00", 21.5, TemperatureUnit)
	add(bedTempID, "2024-01-27 12:00:00", 22.0, TemperatureUnit)
	add(bedTempID, "2024-01-27 18:00:00", 22.25, TemperatureUnit)
	add(bedTempID, "2024-01-27 19:00:00", 48.0, HumidityUnit)
	for i, v := range []float64{18.0, 18.5, 19.0, 19.2, 19.4, 19.5, 19.3, 19.0, 19.5} {
		add(bedTempID, fmt.Sprintf("2024-01-28 %02d:00:00", i*2), v, TemperatureUnit)
	}

	// Bathroom 1 humidity on 2024-01-27.
	for _, hour := range []int{7, 8, 9, 12, 18} {
		for minute := 0; minute < 60; minute += 15 {
			add(humidityID, fmt.Sprintf("2024-01-27 %02d:%02d:00", hour, minute), 80, HumidityUnit)
		}
	}
	for minute := 0; minute < 45; minute += 15 {
		add(humidityID, fmt.Sprintf("2024-01-27 10:%02d:00", minute), 80, HumidityUnit)
	}
	for minute := 0; minute < 60; minute += 15 {
		add(humidityID, fmt.Sprintf("2024-01-27 20:%02d:00", minute), 60, HumidityUnit)
	}
	for minute := 0; minute < 50; minute += 10 {
		add(humidityID, fmt.Sprintf("2024-01-27 13:%02d:00", minute), 30, HumidityUnit)
	}
	for i := 0; i < 30; i++ {
		add(humidityID, fmt.Sprintf("2024-01-27 02:%02d:00", i*2), 20, HumidityUnit)
	}
	// A humid day afterwards lifts the all-time average above 60.
	for i := 0; i < 60; i++ {
		add(humidityID, fmt.Sprintf("2024-01-28 %02d:%02d:00", i%24, (i/24)*10), 95, HumidityUnit)
	}
	add(humidityID, "2024-01-29 16:00:01", 55.2125, HumidityUnit)

	h, err := repo.LoadHouse(ctx)
	if err != nil {
		t.Fatalf("LoadHouse() error = %v", err)
	}
	return repo, h
}
