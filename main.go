package main

import "amalgam/cmd"

func main() {
	cmd.Exec()
}
