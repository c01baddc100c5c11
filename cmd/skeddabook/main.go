package main

import (
	_ "time/tzdata"

	"github.com/example/skedda-booker/cmd"
)

func main() {
	cmd.Execute()
}
