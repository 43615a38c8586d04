package main

import (
	"os"

	"github.com/oconnor663/founder/internal/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
