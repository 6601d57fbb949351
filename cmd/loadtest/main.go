package main

import (
	"context"
	"os"

	"github.com/dmitrijs2005/ledgerload/internal/loadtest"
)

func main() {
	os.Exit(loadtest.Main(context.Background(), os.Stdout, os.Stderr))
}
