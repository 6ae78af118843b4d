package main

import (
	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	dbFile  string
	textFmt bool
	log     = logrus.WithField("component", "cli")
)

// rootCmd mirrors the teacher's cmd/repl/main.go entry point, rebuilt
// as a cobra command tree so the REPL, one-shot query execution, and
// snapshot export/import are all reachable as subcommands instead of
// REPL-only meta-commands.
var rootCmd = &cobra.Command{
	Use:   "graphdb",
	Short: "An embedded property-graph database with a Cypher query subset",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbFile, "db", "", "snapshot file to load at startup (binary unless --text); for repl, the directory holding its databases")
	rootCmd.PersistentFlags().BoolVar(&textFmt, "text", false, "use the YAML text snapshot format instead of binary")
	rootCmd.AddCommand(replCmd)
	rootCmd.AddCommand(execCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
}

func warn(format string, args ...interface{}) {
	color.New(color.FgYellow).Printf(format+"\n", args...)
}

func fail(format string, args ...interface{}) {
	color.New(color.FgRed).Printf(format+"\n", args...)
}

func ok(format string, args ...interface{}) {
	color.New(color.FgGreen).Printf(format+"\n", args...)
}
