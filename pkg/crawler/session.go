/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: session.go
Description: Interactive crawl session over one buffer. A Session owns the decoded
tree, the current node and the history of navigating commands, and drives the
read-eval-print loop used by the crawl command.
*/

package crawler

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/kleascm/flatcrawler/pkg/flatbuffer"
	"github.com/kleascm/flatcrawler/pkg/logging"
	"github.com/spf13/afero"
)

// DefaultHistoryFile is where dump writes and load reads navigation history.
const DefaultHistoryFile = "lines.txt"

// Prompt is printed before each interactive command.
const Prompt = ">>> "

// Result classifies the outcome of one command.
type Result int

const (
	// ResultNavigate means the current node changed; the command is recorded.
	ResultNavigate Result = iota
	// ResultSilent means the command printed something or touched the history file.
	ResultSilent
	// ResultQuit ends the session.
	ResultQuit
	// ResultUnrecognized means the command word is unknown.
	ResultUnrecognized
	// ResultError means the command failed and nothing changed.
	ResultError
)

func (r Result) String() string {
	switch r {
	case ResultNavigate:
		return "navigate"
	case ResultSilent:
		return "silent"
	case ResultQuit:
		return "quit"
	case ResultUnrecognized:
		return "unrecognized"
	case ResultError:
		return "error"
	default:
		return "unknown"
	}
}

// Config holds the collaborators of a Session.
type Config struct {
	Fs          afero.Fs
	Out         io.Writer
	Logger      *logging.Logger
	HistoryPath string
}

// DefaultConfig writes to stdout and keeps history in the working directory.
func DefaultConfig() *Config {
	return &Config{
		Fs:          afero.NewOsFs(),
		Out:         os.Stdout,
		HistoryPath: DefaultHistoryFile,
	}
}

// Session is the state of one interactive crawl. It is not safe for concurrent use.
type Session struct {
	ID string

	config  *Config
	tree    *flatbuffer.Tree
	current flatbuffer.Node
	history []string
}

// NewSession decodes the root of data and positions the session on it.
func NewSession(data []byte, config *Config) (*Session, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if config.Fs == nil {
		config.Fs = afero.NewOsFs()
	}
	if config.Out == nil {
		config.Out = io.Discard
	}
	if config.HistoryPath == "" {
		config.HistoryPath = DefaultHistoryFile
	}

	root, err := flatbuffer.ReadRoot(data)
	if err != nil {
		return nil, fmt.Errorf("failed to read root: %w", err)
	}

	return &Session{
		ID:      uuid.New().String(),
		config:  config,
		tree:    root.Tree(),
		current: root,
	}, nil
}

// Tree returns the session's node arena.
func (s *Session) Tree() *flatbuffer.Tree { return s.tree }

// Current returns the node commands operate on.
func (s *Session) Current() flatbuffer.Node { return s.current }

// History returns the recorded navigating commands in order.
func (s *Session) History() []string {
	return append([]string(nil), s.history...)
}

// Execute runs one command line. Navigating commands are recorded and print the
// new current node's tree; a failed command returns ResultError with the cause and
// leaves the session unchanged.
func (s *Session) Execute(line string) (Result, error) {
	line = strings.TrimSpace(line)
	word, args, _ := strings.Cut(line, " ")
	word = strings.ToLower(word)
	args = strings.TrimSpace(args)
	if word == "" {
		return ResultUnrecognized, nil
	}

	res, err := s.dispatch(word, args)
	if err != nil {
		return ResultError, err
	}
	if res == ResultNavigate {
		s.history = append(s.history, line)
		s.logNavigation(line)
		flatbuffer.PrintTree(s.config.Out, s.current)
	}
	return res, nil
}

// Replay executes each non-empty line of r in order and stops at the first failure.
func (s *Session) Replay(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	for n := 1; scanner.Scan(); n++ {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		res, err := s.Execute(line)
		switch {
		case err != nil:
			return fmt.Errorf("line %d %q: %w", n, line, err)
		case res == ResultUnrecognized:
			return fmt.Errorf("line %d: unrecognized command %q", n, line)
		case res == ResultQuit:
			return nil
		}
	}
	return scanner.Err()
}

// Run prints the root tree and reads commands from in until quit, end of input or
// cancellation.
func (s *Session) Run(ctx context.Context, name string, in io.Reader) error {
	out := s.config.Out
	fmt.Fprintf(out, "Crawling %s...\n\n", name)
	flatbuffer.PrintTree(out, s.current)

	scanner := bufio.NewScanner(in)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		fmt.Fprint(out, Prompt)
		if !scanner.Scan() {
			return scanner.Err()
		}
		line := scanner.Text()

		res, err := s.Execute(line)
		if res == ResultQuit {
			return nil
		}
		fmt.Fprintln(out)
		switch res {
		case ResultUnrecognized:
			fmt.Fprintf(out, "Try again... unable to recognize command: %s\n", line)
		case ResultError:
			fmt.Fprintf(out, "Try again... %v\n", err)
			if s.config.Logger != nil {
				s.config.Logger.Debug("Command failed", map[string]interface{}{
					"session_id": s.ID,
					"command":    line,
					"error":      err,
				})
			}
		}
	}
}

func (s *Session) logNavigation(line string) {
	if s.config.Logger == nil {
		return
	}
	s.config.Logger.LogNavigation(s.ID, line, s.current.Offset(), map[string]interface{}{
		"node":  s.current.Name(),
		"depth": s.tree.Depth(s.current),
	})
}
