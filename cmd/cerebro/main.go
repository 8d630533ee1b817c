package main

import "github.com/ppiankov/cerebro/internal/cli"

func main() {
	cli.Execute()
}
