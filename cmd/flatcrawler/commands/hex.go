/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: hex.go
Description: Standalone hex dump of a file window.
*/

package commands

import (
	"fmt"

	"github.com/kleascm/flatcrawler/pkg/hexdump"
	"github.com/spf13/cobra"
)

// RunHex dumps args[0] from the optional hex offset in args[1]
func RunHex(cmd *cobra.Command, args []string) error {
	data, err := readCapped(args[0], 0)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", args[0], err)
	}

	offset := 0
	if len(args) > 1 {
		if offset, err = parseHexOffset(args[1]); err != nil {
			return err
		}
	}
	if offset >= len(data) {
		return fmt.Errorf("offset 0x%X is past the end of %s (0x%X bytes)", offset, args[0], len(data))
	}

	length, _ := cmd.Flags().GetInt("length")
	fmt.Printf("Requested offset: 0x%08X\n", offset)
	fmt.Print(hexdump.DumpRange(data, offset, length))
	return nil
}
