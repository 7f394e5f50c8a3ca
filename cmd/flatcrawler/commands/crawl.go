/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: crawl.go
Description: Interactive crawl command. Loads one file, optionally replays a command
script, then hands stdin to the crawl session until quit.
*/

package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/kleascm/flatcrawler/pkg/crawler"
	"github.com/kleascm/flatcrawler/pkg/flatbuffer"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// RunCrawl opens an interactive session on args[0]
func RunCrawl(cmd *cobra.Command, args []string) error {
	if err := prepare(); err != nil {
		return err
	}

	path := args[0]
	data, err := readCapped(path, 0)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if !flatbuffer.IsSizeValid(data) {
		return fmt.Errorf("%s is %d bytes; a FlatBuffer needs at least %d", path, len(data), flatbuffer.MinBufferSize)
	}

	logger, err := NewLogger(true)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer logger.Close()

	session, err := crawler.NewSession(data, &crawler.Config{
		Fs:          fs,
		Out:         os.Stdout,
		Logger:      logger,
		HistoryPath: viper.GetString("crawl.history_file"),
	})
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	logger.Info("Crawl session started", map[string]interface{}{
		"session_id": session.ID,
		"file":       path,
		"size":       len(data),
	})

	if script := viper.GetString("crawl.script"); script != "" {
		f, err := fs.Open(script)
		if err != nil {
			return fmt.Errorf("failed to open script: %w", err)
		}
		err = session.Replay(f)
		f.Close()
		if err != nil {
			return fmt.Errorf("failed to replay script %s: %w", script, err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := session.Run(ctx, filepath.Base(path), os.Stdin); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	logger.Info("Crawl session ended", map[string]interface{}{
		"session_id": session.ID,
		"commands":   len(session.History()),
	})
	return nil
}
