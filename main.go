// SPDX-License-Identifier: MPL-2.0

package main

import (
	"github.com/joho/godotenv"

	cmd "github.com/autodoc/autodoc/cmd/autodoc"
)

func main() {
	// API keys for enhancement may live in a .env file; a missing file is fine.
	_ = godotenv.Load()

	cmd.Execute()
}
