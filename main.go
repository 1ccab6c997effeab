package main

import "scholar-tracker/cli"

func main() {
	cli.Execute()
}
