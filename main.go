package main

import "carrental/cmd"

func main() {
	cmd.Execute()
}
