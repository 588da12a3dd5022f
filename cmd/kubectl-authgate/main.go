package main

import (
	"antware.xyz/authgate/internal/plugin"
)

var Version string

func main() {
	if Version == "" {
		Version = "development"
	}

	plugin.Execute()
}
