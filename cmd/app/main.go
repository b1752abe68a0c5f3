package main

import (
	"os"

	"github.com/myuop2024/pollwatch/cmd"
)

func main() {
	if err := cmd.Run(); err != nil {
		os.Exit(1)
	}
}
