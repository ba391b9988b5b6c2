package main

import "campus-hub-backend/cmd"

func main() {
	cmd.Run()
}
