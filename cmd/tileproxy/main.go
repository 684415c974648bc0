package main

import (
	"log"

	"tileproxy/internal/app"
	"tileproxy/pkg/config"
)

func main() {
	cfg, err := config.New()
	if err != nil {
		log.Fatalln("failed to load config: ", err)
	}

	app.Run(cfg)
}
