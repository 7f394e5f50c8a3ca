/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: index.go
Description: Queries against the SQLite fingerprint index written by analyze.
*/

package commands

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/kleascm/flatcrawler/pkg/store"
	"github.com/spf13/cobra"
)

// RunIndex lists the buckets of an index database, or the files of one bucket
func RunIndex(cmd *cobra.Command, args []string) error {
	if err := prepare(); err != nil {
		return err
	}

	db, err := store.OpenSQLite(args[0])
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := context.Background()
	fieldCount, _ := cmd.Flags().GetInt("field-count")
	hashText, _ := cmd.Flags().GetString("hash")

	if fieldCount >= 0 && hashText != "" {
		hash, err := strconv.ParseUint(strings.TrimPrefix(strings.TrimPrefix(hashText, "0x"), "0X"), 16, 64)
		if err != nil {
			return fmt.Errorf("invalid hash %q: %w", hashText, err)
		}
		matches, err := db.Matches(ctx, fieldCount, hash)
		if err != nil {
			return err
		}
		fmt.Printf("Field count: %d, Hash: %016X (%d files)\n", fieldCount, hash, len(matches))
		for _, m := range matches {
			fmt.Printf("\t%s\t%s\n", m.FileName, m.Path)
		}
		return nil
	}

	runID, _ := cmd.Flags().GetString("run")
	buckets, err := db.Buckets(ctx, runID)
	if err != nil {
		return err
	}
	if len(buckets) == 0 {
		fmt.Println("No fingerprints recorded.")
		return nil
	}
	last := -1
	for _, b := range buckets {
		if b.FieldCount != last {
			fmt.Printf("Field count: %d\n", b.FieldCount)
			last = b.FieldCount
		}
		fmt.Printf("\tHash: %016X (%d files)\n", b.Hash, b.Files)
	}
	return nil
}
