package main

import (
	"context"
	"log"

	"github.com/Apurer/go-gin-procurement-api/internal/app/api"
)

func main() {
	if err := api.Run(context.Background()); err != nil {
		log.Fatalf("procurement api: %v", err)
	}
}
