// Command graft opens a git branch in its own worktree and multiplexer session.
package main

import (
	"os"

	"github.com/Iron-Ham/graft/internal/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
