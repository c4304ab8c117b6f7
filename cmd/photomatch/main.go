package main

import "photomatch/internal/cli"

func main() {
	cli.Execute()
}
