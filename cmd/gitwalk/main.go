package main

import "gitwalk/internal/commands"

func main() {
	commands.Execute()
}
