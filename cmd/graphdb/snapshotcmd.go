package main

import (
	"github.com/spf13/cobra"
	"graphdb/graphdb"
)

var exportCmd = &cobra.Command{
	Use:   "export [output-file]",
	Short: "Write the database loaded via --db to a new snapshot file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db := graphdb.NewGraphDB()
		if dbFile != "" {
			if err := loadSnapshot(db, dbFile, textFmt); err != nil {
				return err
			}
		}
		if err := saveSnapshot(db, args[0], textFmt); err != nil {
			return err
		}
		ok("exported %d nodes, %d edges to %s", db.Store().NodeCount(), db.Store().EdgeCount(), args[0])
		return nil
	},
}

var importCmd = &cobra.Command{
	Use:   "import [input-file]",
	Short: "Load a snapshot file and print a summary",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db := graphdb.NewGraphDB()
		if err := loadSnapshot(db, args[0], textFmt); err != nil {
			return err
		}
		ok("loaded %d nodes, %d edges from %s", db.Store().NodeCount(), db.Store().EdgeCount(), args[0])
		return nil
	},
}
