package main

import (
	"os"

	"github.com/metinatakli/seat-reservation-web/internal/app"
)

func main() {
	err := app.Run()
	if err != nil {
		os.Exit(1)
	}
}
