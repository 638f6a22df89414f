package main

import "github.com/pfrederiksen/knltb-stats/internal/cli"

func main() {
	cli.Execute()
}
