package main

import (
	"context"

	"indigo/internal/app"
)

func main() {
	app.Execute(context.Background())
}
