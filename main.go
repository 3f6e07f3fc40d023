package main

import (
	"os"

	"github.com/uniportal/uniportal-rbac/app"
)

func main() {
	err := app.Execute()
	if err != nil {
		os.Exit(1)
	}
}
