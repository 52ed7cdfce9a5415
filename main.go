package main

import "tenant-bootstrapper/cmd"

func main() {
	cmd.Execute()
}
