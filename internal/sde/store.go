package sde

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	_ "modernc.org/sqlite"
)

// Store is a read-only view over the extracted SDE database. Reference
// data is never written by this application; refreshes replace the whole
// file instead.
type Store struct {
	db *sql.DB
}

// Open opens the SDE database at path. A missing file is an error rather
// than an implicitly created empty database, so an absent store stays
// observably absent to the refresh path.
func Open(path string) (*Store, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("reference store missing: %w", err)
	}
	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=query_only(true)")
	if err != nil {
		return nil, fmt.Errorf("open sde db: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sde db: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Blueprints returns every published blueprint with its group name,
// manufactured product and base production time. The description prefers
// the manufactured product's text over the blueprint's own, falling back
// when the product link is missing.
func (s *Store) Blueprints(ctx context.Context) ([]BlueprintRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT t.typeID,
		       t.typeName,
		       t.groupID,
		       g.groupName,
		       COALESCE(p.description, t.description, ''),
		       COALESCE(iap.productTypeID, 0),
		       COALESCE(iap.quantity, 1),
		       COALESCE(ia.time, 0)
		FROM invTypes t
		JOIN invGroups g ON t.groupID = g.groupID
		LEFT JOIN industryActivityProducts iap
		       ON iap.typeID = t.typeID AND iap.activityID = 1
		LEFT JOIN invTypes p ON iap.productTypeID = p.typeID
		LEFT JOIN industryActivity ia
		       ON ia.typeID = t.typeID AND ia.activityID = 1
		WHERE g.categoryID = 9 AND t.published = 1
		ORDER BY g.groupName, t.typeName`)
	if err != nil {
		return nil, fmt.Errorf("query blueprints: %w", err)
	}
	defer rows.Close()

	var list []BlueprintRecord
	for rows.Next() {
		var bp BlueprintRecord
		if err := rows.Scan(&bp.TypeID, &bp.Name, &bp.GroupID, &bp.GroupName,
			&bp.Description, &bp.ProductTypeID, &bp.ProductQuantity, &bp.ProductionTime); err != nil {
			return nil, fmt.Errorf("scan blueprint: %w", err)
		}
		if bp.ProductQuantity < 1 {
			bp.ProductQuantity = 1
		}
		list = append(list, bp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate blueprints: %w", err)
	}
	return list, nil
}

// MaterialsFor returns the manufacturing-activity material list of one
// blueprint. A blueprint without recorded materials yields an empty slice,
// not an error.
func (s *Store) MaterialsFor(ctx context.Context, blueprintID int32) ([]MaterialRequirement, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT it.typeID, it.typeName, iam.quantity
		FROM industryActivityMaterials iam
		JOIN invTypes it ON iam.materialTypeID = it.typeID
		WHERE iam.typeID = ? AND iam.activityID = 1
		ORDER BY iam.quantity DESC`, blueprintID)
	if err != nil {
		return nil, fmt.Errorf("query materials for %d: %w", blueprintID, err)
	}
	defer rows.Close()

	var mats []MaterialRequirement
	for rows.Next() {
		var m MaterialRequirement
		if err := rows.Scan(&m.TypeID, &m.Name, &m.Quantity); err != nil {
			return nil, fmt.Errorf("scan material: %w", err)
		}
		mats = append(mats, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate materials: %w", err)
	}
	return mats, nil
}
