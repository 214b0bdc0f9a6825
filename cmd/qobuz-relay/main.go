package main

import (
	"fmt"
	"os"

	"qobuz-relay/cmd/qobuz-relay/commands"
)

func main() {
	if err := commands.NewRootCommand().Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
