package main

import (
	"log"

	"github.com/anoixa/event-gallery/config"

	"github.com/anoixa/event-gallery/cmd"
)

func main() {
	log.Printf("event gallery %s (%s)", config.Version, config.CommitHash)
	cmd.Execute()
}
