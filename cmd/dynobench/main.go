package main

import "dynobench/cmd"

func main() {
	cmd.Execute()
}
