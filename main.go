// Command sprof samples scripts line by line and times expressions
// against each other.
//
//	sprof prof fib.sp --interval 200us
//	sprof bench -f fib.sp 'fib(10)' 'fastfib(10)'
//
// See package cli for every command and flag.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/ardnew/sprof/cli"
	"github.com/ardnew/sprof/log"
)

func main() {
	err := cli.Run(context.Background(), os.Exit, os.Args[1:]...)
	if err != nil {
		// *pkg.Error values log their attributes through LogValue.
		log.Error("sprof failed", slog.Any("error", err))
		os.Exit(1)
	}
}
