// Command folioctl edits a folio profile from the terminal. It drives the
// same ordered-collection editor the dashboard uses, against the HTTP API.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/khoahotran/folio/pkg/apperror"
)

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := newRootCmd(os.Stdout)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", apperror.UserMessage(err))
		os.Exit(1)
	}
}
