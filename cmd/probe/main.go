package main

import (
	"os"

	"github.com/XiaoConstantine/probe/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
