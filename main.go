package main

import "github.com/mizzouse/WeBot/cmd"

func main() {
	cmd.Execute()
}
