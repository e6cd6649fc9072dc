package main

import "song-catalog/cmd"

func main() {
	cmd.Execute()
}
