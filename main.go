package main

import "github.com/Digital-Shane/folder-tidy/internal/cmd"

func main() {
	cmd.Execute()
}
