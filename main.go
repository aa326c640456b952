package main

import "codex/internal/cli"

func main() {
	cli.Execute()
}
