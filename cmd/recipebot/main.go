package main

import (
	"os"

	"github.com/blueplan/recipebot/internal/recipebot/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
