package main

import "github.com/yeremiapane/restaurant-seating/cmd"

func main() {
	cmd.Execute()
}
