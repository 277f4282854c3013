package main

import "catalog-engine-go/cmd/catalogctl/commands"

func main() {
	commands.Execute()
}
