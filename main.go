package main

import "github.com/emaland/matchbox/cmd"

func main() {
	cmd.Execute()
}
