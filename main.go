package main

import "social-explore-client/cmd"

func main() {
	cmd.Run()
}
