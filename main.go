package main

import "github.com/fakeyudi/calltree/cmd"

func main() {
	cmd.Execute()
}
