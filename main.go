package main

import (
	"os"

	"github.com/charmbracelet/log"

	"github.com/becomeliminal/recall-go-sdk/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		log.Error("fatal", "err", err)
		os.Exit(1)
	}
}
