// Command eventreg serves the event registration API.
//
//	@title						Event Registration API
//	@version					1.0
//	@description				Seat reservation and waitlist engine for fixed-capacity events.
//	@BasePath					/
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Type "Bearer" followed by a space and the JWT.
package main

import (
	"context"
	"fmt"
	"os"

	_ "eventregistration/docs"
	"eventregistration/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
