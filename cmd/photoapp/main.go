package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/hothanhtai16998/PhotoApp-sub006/internal/app"
	"github.com/hothanhtai16998/PhotoApp-sub006/internal/config"
)

func main() {
	debug := flag.Bool("debug", false, "Enable verbose debug logging")
	genConfig := flag.Bool("generate-config", false, "Write a default config file and exit")
	flag.Parse()

	if *genConfig {
		backup, err := config.GenerateConfig()
		if err != nil {
			fmt.Fprintf(os.Stderr, "generate config: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Wrote default config to %s\n", config.ConfigPath())
		if backup != "" {
			fmt.Printf("Previous config backed up to %s\n", backup)
		}
		return
	}

	// Handle OS-specific console visibility
	manageConsole(*debug)

	// Pass the debug flag to the application core
	app.Main(*debug)
}
