package sde

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"
)

// newFixtureDB builds a minimal SDE database with the tables the store
// queries: two published blueprints (one with a product link, one without),
// one unpublished blueprint, and materials for the first.
func newFixtureDB(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "eve.db")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open fixture db: %v", err)
	}
	defer db.Close()

	stmts := []string{
		`CREATE TABLE invTypes (
			typeID INTEGER PRIMARY KEY,
			typeName TEXT,
			description TEXT,
			groupID INTEGER,
			published INTEGER
		)`,
		`CREATE TABLE invGroups (
			groupID INTEGER PRIMARY KEY,
			groupName TEXT,
			categoryID INTEGER
		)`,
		`CREATE TABLE industryActivityProducts (
			typeID INTEGER,
			activityID INTEGER,
			productTypeID INTEGER,
			quantity INTEGER
		)`,
		`CREATE TABLE industryActivity (
			typeID INTEGER,
			activityID INTEGER,
			time INTEGER
		)`,
		`CREATE TABLE industryActivityMaterials (
			typeID INTEGER,
			activityID INTEGER,
			materialTypeID INTEGER,
			quantity INTEGER
		)`,

		`INSERT INTO invGroups VALUES (100, 'Frigate Blueprints', 9)`,
		`INSERT INTO invGroups VALUES (200, 'Frigates', 6)`,

		// Blueprint with a product link; its own description is stale.
		`INSERT INTO invTypes VALUES (1000, 'Rifter Blueprint', 'blueprint text', 100, 1)`,
		`INSERT INTO invTypes VALUES (2000, 'Rifter', 'A fast Minmatar frigate.', 200, 1)`,
		`INSERT INTO industryActivityProducts VALUES (1000, 1, 2000, 1)`,
		`INSERT INTO industryActivity VALUES (1000, 1, 6000)`,
		// A copying activity row that must not leak into manufacturing time.
		`INSERT INTO industryActivity VALUES (1000, 5, 480)`,

		// Blueprint without a product link.
		`INSERT INTO invTypes VALUES (1002, 'Ancient Blueprint', 'its own text', 100, 1)`,

		// Unpublished blueprint, excluded.
		`INSERT INTO invTypes VALUES (1001, 'Hidden Blueprint', '', 100, 0)`,

		`INSERT INTO invTypes VALUES (34, 'Tritanium', '', 300, 1)`,
		`INSERT INTO invTypes VALUES (35, 'Pyerite', '', 300, 1)`,
		`INSERT INTO industryActivityMaterials VALUES (1000, 1, 34, 25000)`,
		`INSERT INTO industryActivityMaterials VALUES (1000, 1, 35, 8000)`,
		// Invention materials must not leak into manufacturing.
		`INSERT INTO industryActivityMaterials VALUES (1000, 8, 36, 5)`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("fixture stmt %q: %v", stmt, err)
		}
	}
	return path
}

func TestOpen_MissingFile(t *testing.T) {
	if _, err := Open(filepath.Join(t.TempDir(), "nope.db")); err == nil {
		t.Fatal("Open on a missing store should fail, not create a file")
	}
}

func TestStore_Blueprints(t *testing.T) {
	s, err := Open(newFixtureDB(t))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	list, err := s.Blueprints(context.Background())
	if err != nil {
		t.Fatalf("Blueprints: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("Blueprints len = %d, want 2 (unpublished excluded)", len(list))
	}

	byID := make(map[int32]BlueprintRecord, len(list))
	for _, bp := range list {
		byID[bp.TypeID] = bp
	}

	rifter, ok := byID[1000]
	if !ok {
		t.Fatal("blueprint 1000 missing")
	}
	if rifter.Name != "Rifter Blueprint" || rifter.GroupName != "Frigate Blueprints" {
		t.Errorf("Name/GroupName = %q/%q", rifter.Name, rifter.GroupName)
	}
	if rifter.Description != "A fast Minmatar frigate." {
		t.Errorf("Description = %q, want the product's description", rifter.Description)
	}
	if rifter.ProductTypeID != 2000 || rifter.ProductQuantity != 1 {
		t.Errorf("Product = %d x%d, want 2000 x1", rifter.ProductTypeID, rifter.ProductQuantity)
	}
	if rifter.ProductionTime != 6000 {
		t.Errorf("ProductionTime = %d, want 6000 (manufacturing only)", rifter.ProductionTime)
	}

	ancient, ok := byID[1002]
	if !ok {
		t.Fatal("blueprint 1002 missing")
	}
	if ancient.ProductTypeID != 0 {
		t.Errorf("ProductTypeID = %d, want 0 for unresolved product", ancient.ProductTypeID)
	}
	if ancient.ProductQuantity != 1 {
		t.Errorf("ProductQuantity = %d, want floor of 1", ancient.ProductQuantity)
	}
	if ancient.Description != "its own text" {
		t.Errorf("Description = %q, want fallback to own text", ancient.Description)
	}
}

func TestStore_MaterialsFor(t *testing.T) {
	s, err := Open(newFixtureDB(t))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	mats, err := s.MaterialsFor(context.Background(), 1000)
	if err != nil {
		t.Fatalf("MaterialsFor: %v", err)
	}
	if len(mats) != 2 {
		t.Fatalf("MaterialsFor len = %d, want 2 (invention rows excluded)", len(mats))
	}
	// Ordered by quantity descending.
	if mats[0].TypeID != 34 || mats[0].Quantity != 25000 || mats[0].Name != "Tritanium" {
		t.Errorf("mats[0] = %+v", mats[0])
	}
	if mats[1].TypeID != 35 || mats[1].Quantity != 8000 {
		t.Errorf("mats[1] = %+v", mats[1])
	}
}

func TestStore_MaterialsFor_UnknownBlueprint(t *testing.T) {
	s, err := Open(newFixtureDB(t))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	mats, err := s.MaterialsFor(context.Background(), 9999)
	if err != nil {
		t.Fatalf("MaterialsFor(9999): %v", err)
	}
	if len(mats) != 0 {
		t.Errorf("MaterialsFor(9999) len = %d, want 0", len(mats))
	}
}
