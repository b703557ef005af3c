// Command actorgen generates actor facades for Go interfaces.
//
// Run it from go:generate with --type, or from a project root with an
// actorgen.yaml:
//
//	//go:generate go run github.com/funvibe/actorgen/cmd/actorgen generate --type Counter
//
//	actorgen generate            # every entry of the nearest actorgen.yaml
//	actorgen watch               # regenerate on change
//	actorgen clean               # drop the output cache
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			if os.Getenv("DEBUG") == "1" {
				panic(r)
			}
			fmt.Fprintf(os.Stderr, "Internal error: %v\n", r)
			fmt.Fprintln(os.Stderr, "This is a bug. Please report it.")
			os.Exit(1)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "actorgen: %v\n", err)
		os.Exit(1)
	}
}
