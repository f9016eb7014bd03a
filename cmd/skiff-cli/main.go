package main

import (
	"github.com/skiffworks/skiff/cmd/skiff-cli/cmd"
)

func main() {
	cmd.Execute()
}
