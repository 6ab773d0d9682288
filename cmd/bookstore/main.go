package main

import "github.com/safar/go-bookstore/cmd/bookstore/commands"

func main() {
	commands.Execute()
}
