// ABOUTME: Entry point for the irdesk CLI, TUI and MCP server
// ABOUTME: Hands off to the cobra command tree
package main

import (
	"os"

	"github.com/confideleapcrm/irdesk/cli"
)

const version = "0.2.0"

func main() {
	os.Exit(cli.Execute(version))
}
