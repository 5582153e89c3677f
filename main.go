package main

import "aicruit/cmd"

func main() {
	cmd.Execute()
}
