// gmailagent is a multi-account Gmail CLI that can also expose its tools to
// assistants over MCP. All command wiring lives in the cmd package; this file
// only injects the build version.
package main

import "github.com/gmailagent/gmailagent/cmd"

// Overridden at release time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cmd.SetVersion(version)
	cmd.Execute()
}
