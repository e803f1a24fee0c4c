package main

import "ytscript/cmd"

func main() {
	cmd.Execute()
}
