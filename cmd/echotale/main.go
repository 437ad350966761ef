package main

import (
	"github.com/RachelH1213/lab25fall-fourth-project/cmd/echotale/cmd"
	"github.com/RachelH1213/lab25fall-fourth-project/internal/logging"
)

func main() {
	// Initialize logging
	logging.Init()
	cmd.Execute()
}
