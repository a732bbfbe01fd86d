// Command server runs the weatherlog HTTP API.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/simp-lee/weatherlog/internal/app"
	"github.com/simp-lee/weatherlog/internal/config"
)

var version = "dev"

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to configuration file")
	envPath := flag.String("env", ".env", "optional dotenv file loaded before the config")
	check := flag.Bool("check", false, "validate the configuration and exit")
	showVersion := flag.Bool("version", false, "print the version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println("weatherlog server", version)
		return
	}

	if err := config.LoadDotEnv(*envPath); err != nil {
		log.Fatalf("load env file %s: %v", *envPath, err)
	}
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	if *check {
		fmt.Fprintf(os.Stdout, "config ok: %s:%d mode=%s database=%s metrics=%t\n",
			cfg.Server.Host, cfg.Server.Port, cfg.Server.Mode, cfg.Database.Driver, cfg.Metrics.Enabled)
		return
	}

	a, err := app.New(cfg)
	if err != nil {
		log.Fatalf("start: %v", err)
	}
	if err := a.Run(); err != nil {
		log.Fatalf("server: %v", err)
	}
}
