package main

import "github.com/okian/crewrate/internal/cli"

func main() {
	cli.Execute()
}
