// Package main is the entry point for the course assistant service.
package main

import (
	"github.com/campus-io/study-buddy/cmd/study-buddy/app"
)

func main() {
	app.NewApp().Run()
}
