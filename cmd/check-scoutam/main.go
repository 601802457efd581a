package main

import (
	"os"

	"github.com/versity/scoutam-checks/cmd/check-scoutam/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
