package main

import (
	"context"
	"fmt"
	"os"

	"github.com/yungbote/studytrack-backend/internal/app"
)

func main() {
	a, err := app.New(context.Background())
	if err != nil {
		fmt.Printf("Failed to start: %v\n", err)
		os.Exit(1)
	}
	defer a.Close()

	fmt.Printf("Server listening on :%s\n", a.Cfg.Port)
	if err := a.Run(); err != nil {
		a.Log.Warn("Server failed", "error", err)
	}
}
