package main

import (
	"os"

	membenchcmder "github.com/membench/membench/cmd/membench"
)

func main() {
	cmd := membenchcmder.NewMembenchCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
