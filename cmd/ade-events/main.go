package main

import "github.com/pfrederiksen/ade-events/internal/cli"

func main() {
	cli.Execute()
}
