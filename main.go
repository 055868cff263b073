package main

import "wowroster/internal/cli"

func main() {
	cli.Execute()
}
