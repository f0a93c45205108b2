package models

import (
	"database/sql/driver"
	"encoding/json"

	"github.com/sunriver-travel/nilecms/internal/types"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// JSON wraps gorm.io/datatypes.JSON so the column type can be mapped per
// database driver (MSSQL has no native 'json' type).
type JSON struct {
	datatypes.JSON
}

// Value promotes the embedded JSON's Value method.
func (j JSON) Value() (driver.Value, error) {
	return j.JSON.Value()
}

// Scan promotes the embedded JSON's Scan method.
func (j *JSON) Scan(value interface{}) error {
	return j.JSON.Scan(value)
}

// GormDBDataType selects the column type per dialect.
func (JSON) GormDBDataType(db *gorm.DB, field *schema.Field) string {
	switch db.Dialector.Name() {
	case "mysql":
		return "JSON"
	case "postgres":
		return "JSONB"
	case "sqlserver", "mssql":
		return "NVARCHAR(MAX)"
	case "sqlite":
		return "JSON"
	}
	return "TEXT"
}

// FieldMap decodes the stored JSON into a field map. A null or empty column
// decodes to an empty map.
func (j JSON) FieldMap() (types.FieldMap, error) {
	if len(j.JSON) == 0 {
		return types.FieldMap{}, nil
	}
	var m types.FieldMap
	if err := json.Unmarshal(j.JSON, &m); err != nil {
		return nil, err
	}
	if m == nil {
		m = types.FieldMap{}
	}
	return m, nil
}

// JSONFrom encodes a field map for storage.
func JSONFrom(m types.FieldMap) (JSON, error) {
	raw, err := json.Marshal(m)
	if err != nil {
		return JSON{}, err
	}
	return JSON{JSON: datatypes.JSON(raw)}, nil
}
