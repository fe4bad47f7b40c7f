package datasource

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"os"
)

// TypesFile declares the SQL-backed export types served by one database.
// Example:
//
//	{
//	  "driver": "sqlite3",
//	  "dsn": "./catalog.db",
//	  "types": [
//	    {
//	      "name": "Catalog.Product",
//	      "permission": "export:access",
//	      "query": "SELECT id, name, price FROM products ORDER BY id",
//	      "count_query": "SELECT COUNT(*) FROM products",
//	      "page_size": 500
//	    }
//	  ]
//	}
type TypesFile struct {
	Driver string           `json:"driver"`
	DSN    string           `json:"dsn"`
	Types  []TypeDefinition `json:"types"`
}

// TypeDefinition declares one exportable entity type.
type TypeDefinition struct {
	Name       string `json:"name"`
	Permission string `json:"permission"`
	Query      string `json:"query"`
	CountQuery string `json:"count_query"`
	PageSize   int    `json:"page_size"`
}

// LoadTypesFile opens the declared database and builds one SQLType per
// definition. The caller owns the returned DB handle.
func LoadTypesFile(path string) (*sql.DB, []*SQLType, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read export types file %s: %w", path, err)
	}

	var file TypesFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, nil, fmt.Errorf("invalid export types file %s: %w", path, err)
	}
	if file.Driver == "" || file.DSN == "" {
		return nil, nil, fmt.Errorf("export types file %s must declare driver and dsn", path)
	}
	if len(file.Types) == 0 {
		return nil, nil, fmt.Errorf("export types file %s declares no types", path)
	}

	db, err := sql.Open(file.Driver, file.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open export source database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to ping export source database: %w", err)
	}

	types := make([]*SQLType, 0, len(file.Types))
	for _, def := range file.Types {
		if def.Name == "" || def.Query == "" || def.CountQuery == "" {
			db.Close()
			return nil, nil, fmt.Errorf("export type %q is missing a name, query, or count_query", def.Name)
		}
		types = append(types, NewSQLType(def.Name, def.Permission, db, def.Query, def.CountQuery, def.PageSize))
	}

	log.Printf("Loaded %d export type(s) from %s (driver: %s)", len(types), path, file.Driver)
	return db, types, nil
}
