package main

import "github.com/dgellow/authrelay/cmd/authrelay/cmd"

func main() {
	cmd.Execute()
}
