package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"graphdb/graphdb"
)

var execCmd = &cobra.Command{
	Use:   "exec [query]",
	Short: "Run a single Cypher statement and print its result as a table",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db := graphdb.NewGraphDB()
		if dbFile != "" {
			if err := loadSnapshot(db, dbFile, textFmt); err != nil {
				return err
			}
		}
		result, err := db.ExecuteQuery(args[0])
		if err != nil {
			return err
		}
		fmt.Print(result.ToTable())
		return nil
	},
}

func loadSnapshot(db *graphdb.GraphDB, path string, text bool) error {
	if text {
		return db.Store().LoadText(path)
	}
	return db.Store().LoadBinary(path)
}

func saveSnapshot(db *graphdb.GraphDB, path string, text bool) error {
	if text {
		return db.Store().SaveText(path)
	}
	return db.Store().SaveBinary(path)
}
