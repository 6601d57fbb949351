package main

import (
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/ledgerload/internal/logging"
	"github.com/dmitrijs2005/ledgerload/internal/node"
	"github.com/dmitrijs2005/ledgerload/internal/node/config"
)

func main() {

	ctx := context.Background()
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("%v", err)
	}

	level, err := cfg.SlogLevel()
	if err != nil {
		log.Fatalf("%v", err)
	}
	logger := logging.NewConsoleLogger(os.Stdout, level)

	app, err := node.NewApp(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("%v", err)
	}

	if err := app.Run(ctx); err != nil {
		log.Fatalf("%v", err)
	}

}
