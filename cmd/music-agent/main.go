package main

import "github.com/strefethen/music-agent-go/internal/cli"

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cli.Main(version)
}
