package main

import (
	"os"

	"github.com/bryanchriswhite/xscreen/cmd/xscreen/commands"
)

func main() {
	os.Exit(commands.Execute())
}
