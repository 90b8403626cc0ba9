package main

import "github.com/tanq16/tubegrab/cmd"

func main() {
	cmd.Execute()
}
