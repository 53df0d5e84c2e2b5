package main

import (
	"context"

	_ "github.com/joho/godotenv/autoload"

	"github.com/faizmokh/tanda/internal/cli"
)

func main() {
	ctx := context.Background()
	cli.Main(ctx)
}
