package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	kvmcpcmd "github.com/louisbranch/kvmcp/internal/cmd/kvmcp"
	"github.com/louisbranch/kvmcp/internal/platform/config"
)

// main starts the key-value MCP server on stdio or HTTP.
func main() {
	cfg, err := kvmcpcmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		config.Exitf("parse flags: %v", err)
	}
	log.SetPrefix("[KVMCP] ")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := kvmcpcmd.Run(ctx, cfg); err != nil {
		log.Fatalf("failed to serve MCP: %v", err)
	}
}
