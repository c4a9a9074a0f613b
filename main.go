package main

import (
	"github.com/campuskit/reserve/internal/config"
	"github.com/campuskit/reserve/internal/entrypoint"
)

// Version information - set at build time via ldflags
var (
	Version = "dev"
	Commit  = "unknown"
)

func main() {
	cfg := config.NewConfig()
	entrypoint.Run(cfg, Version)
}
