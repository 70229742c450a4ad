package main

import "echelon-backend/internal/cli"

func main() {
	cli.Execute()
}
