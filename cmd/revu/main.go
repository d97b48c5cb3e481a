package main

import (
	"os"

	"github.com/revu-dev/revu/internal/cli"
)

func main() {
	os.Exit(cli.Run())
}
