package main

import (
	"log"

	"github.com/nikhilsi/trading-recommendations-app/internal/auth/app"
)

//go:generate swag init -g internal/auth/http/router.go -d ../../ -o ../../api/auth --outputTypes go --parseDependency

func main() {
	cfg := app.LoadConfig()

	application, err := app.New(cfg)
	if err != nil {
		log.Fatalf("failed to initialize application: %v", err)
	}

	if err := application.Run(); err != nil {
		log.Fatalf("application error: %v", err)
	}
}
