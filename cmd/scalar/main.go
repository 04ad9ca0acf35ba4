package main

import "github.com/DEVBOX10/microsoft-scalar/internal/cli"

func main() {
	cli.Execute()
}
