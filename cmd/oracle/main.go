package main

import "oracle/internal/cli"

func main() {
	cli.Execute()
}
