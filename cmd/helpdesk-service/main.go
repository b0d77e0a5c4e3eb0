package main

import (
	"os"

	"github.com/psds-microservice/helpdesk-service/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
