// taskctl - read-only viewer for the task chat database
package main

import (
	"os"

	"github.com/ashureev/taskchat/internal/cli"
)

var version = "dev"

func main() {
	if err := cli.Execute(version); err != nil {
		os.Exit(1)
	}
}
