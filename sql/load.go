package sql

import (
	"database/sql"
	_ "embed"
	"fmt"
	"log"
)

//go:embed init.sql
var initSQL string

//go:embed segments.sql
var segmentsSQL string

// Function lists for verification
var SegmentsFunctions = []string{
	"init_segments",
	"insert_segment",
	"select_segments_by_similarity",
	"delete_segments_by_index",
	"count_segments_by_index",
}

// Init intializes db extensions
func Init(db *sql.DB) error {
	_, err := db.Exec(initSQL)
	if err != nil {
		return fmt.Errorf("error executing schema SQL: %w", err)
	}

	log.Println("Database extensions initialized successfully")
	return nil
}

// LoadSegmentsSql loads segment-related SQL functions.
// If force is false and all functions exist they are not reloaded.
func LoadSegmentsSql(db *sql.DB, force bool) error {
	if !force {
		exist, err := checkFunctions(db, SegmentsFunctions)
		if err != nil {
			return fmt.Errorf("error checking existing segments functions: %w", err)
		}
		if exist {
			return nil
		}
	}

	_, err := db.Exec(segmentsSQL)
	if err != nil {
		return fmt.Errorf("error executing segments SQL: %w", err)
	}

	exist, err := checkFunctions(db, SegmentsFunctions)
	if err != nil {
		return fmt.Errorf("error checking existing functions: %w", err)
	}
	if !exist {
		return fmt.Errorf("not all required SQL functions were created")
	}

	log.Println("SQL segments functions loaded successfully")
	return nil
}

// checkFunctions verifies that all required functions exist in the database
func checkFunctions(db *sql.DB, sqlFunctions []string) (bool, error) {
	var allExist bool
	for _, f := range sqlFunctions {
		err := db.QueryRow(
			`SELECT EXISTS(SELECT 1 FROM pg_proc WHERE proname = $1);`,
			f,
		).Scan(&allExist)
		if err != nil {
			return false, fmt.Errorf("error checking existence of function %s: %w", f, err)
		}
		if !allExist {
			log.Printf("Function %s does not exist", f)
			break
		}
	}
	return allExist, nil
}
