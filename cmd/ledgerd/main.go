package main

import "github.com/ledgerd/node/cmd/ledgerd/command"

func main() {
	command.Execute()
}
