package main

import "tntt-backend/cmd/tntt-report/cmd"

func main() {
	cmd.Execute()
}
