package main

import "github.com/meridianledger/meridian-go/cmd/replay/cmd"

func main() {
	cmd.Execute()
}
