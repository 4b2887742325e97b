package main

import (
	"github.com/flyhq/baike-mcp/internal/cmd"
)

func main() {
	cmd.Execute()
}
