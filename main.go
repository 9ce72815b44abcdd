package main

import "github.com/KaramelBytes/gradeboard/cmd"

func main() {
	cmd.Execute()
}
