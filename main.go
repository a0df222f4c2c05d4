package main

import "github.com/reforge-tools/reforge/cmd"

func main() {
	cmd.Execute()
}
