// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// reveal renders assistant answers in the terminal with a typing effect.
package main

import (
	"os"

	"github.com/jeranaias/rigrun-reveal/cmd/reveal/commands"
)

// version is set at build time.
var version = "dev"

func main() {
	if err := commands.Execute(version); err != nil {
		os.Exit(1)
	}
}
