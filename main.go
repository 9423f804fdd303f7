package main

import "github.com/luckylittle/qbrecon/cmd"

func main() {
	cmd.Execute()
}
