package main

import (
	"sbarisk/pkg/cli"
)

func main() {
	cli.Execute()
}
