package main

import (
	"os"

	"gce-backup/src/cli"
)

func main() {
	os.Exit(cli.Execute())
}
