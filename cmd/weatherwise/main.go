package main

import (
	"github.com/weatherwise/weatherwise/internal/cli"
)

func main() {
	cli.Execute()
}
