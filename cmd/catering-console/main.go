package main

import (
	"fmt"
	"os"

	"catering/internal/config"
	"catering/internal/console"
)

func main() {
	config.LoadEnvFile()
	cfg := config.Load()

	err := console.NewRootCmd(console.App{APIURL: cfg.APIURL}).Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	os.Exit(console.ExitCode(err))
}
