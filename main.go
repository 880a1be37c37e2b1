package main

import "fleetdeck/cmd"

func main() {
	cmd.Execute()
}
