package main

import "github.com/lugayetu/collector/internal/cli"

func main() {
	cli.Execute()
}
