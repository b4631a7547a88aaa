// SPDX-License-Identifier: MPL-2.0

package main

import cmd "github.com/poetrysam/poetrysam/cmd/poetrysam"

func main() {
	cmd.Execute()
}
