package main

import (
	"os"

	"github.com/sirupsen/logrus"
)

func main() {
	logrus.SetLevel(logrus.WarnLevel)
	if err := rootCmd.Execute(); err != nil {
		fail("%v", err)
		os.Exit(1)
	}
}
