package main

import "github.com/landaire/stoptrackingme/cmd"

func main() {
	cmd.Execute()
}
