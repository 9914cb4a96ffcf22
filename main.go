package main

import (
	"fmt"
	"os"
	"strings"

	log "github.com/sirupsen/logrus"

	"blog/service"
)

const CliVersion = "1.0.0"

var exit = os.Exit

func main() {
	RealMain()
}

// RealMain dispatches os.Args to the CLI commands.
func RealMain() {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})

	if len(os.Args) < 2 {
		service.PrintHelp()
		exit(1)
		return
	}

	switch strings.ToLower(os.Args[1]) {
	case "version":
		fmt.Printf("blog version %s\n", CliVersion)
	default:
		if code := service.HandleCommand(os.Args[1:]); code != 0 {
			exit(code)
		}
	}
}
