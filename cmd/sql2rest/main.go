// Command sql2rest translates SQL SELECT statements into PostgREST
// requests and supabase-js code.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/roach88/sql2rest/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := cli.NewRootCommand()
	if err := cmd.ExecuteContext(ctx); err != nil {
		if !cli.IsReported(err) {
			fmt.Fprintf(os.Stderr, "sql2rest: %v\n", err)
		}
		stop()
		os.Exit(cli.GetExitCode(err))
	}
}
