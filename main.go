package main

import "github.com/icco/polysynth/cmd"

func main() {
	cmd.Execute()
}
