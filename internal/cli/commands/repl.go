package commands

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapmacro/internal/macro"
	"github.com/leapstack-labs/leapmacro/pkg/dialect"
	"github.com/leapstack-labs/leapmacro/pkg/transform"
)

const (
	replPrompt     = "leapmacro> "
	replContPrompt = "       ...> "
	replFilename   = "<repl>"
)

// replSession is the mutable state of one REPL.
type replSession struct {
	cmdCtx  *CommandContext
	host    *macro.Host
	dialect *dialect.Dialect
	showMap bool
	out     io.Writer
	errOut  io.Writer
}

// NewReplCommand creates the repl command.
func NewReplCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Transform snippets interactively",
		Long: `Start an interactive session that transforms each snippet with the macros in
the macros directory and prints the generated code.

A snippet ends with a line ending in a semicolon, or with an empty line.`,
		Example: `  leapmacro repl
  leapmacro repl --dialect tsx`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runREPL(cmd)
		},
	}
}

func runREPL(cmd *cobra.Command) error {
	cmdCtx := NewCommandContext(cmd)
	host, stop := cmdCtx.StartHost(cmd.Context())
	defer stop()

	d, err := dialect.MustGet(cmdCtx.Cfg.Dialect)
	if err != nil {
		return err
	}
	s := &replSession{
		cmdCtx:  cmdCtx,
		host:    host,
		dialect: d,
		out:     cmd.OutOrStdout(),
		errOut:  cmd.ErrOrStderr(),
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          replPrompt,
		HistoryFile:     historyFile(),
		AutoComplete:    newREPLCompleter(),
		InterruptPrompt: "^C",
		EOFPrompt:       ".quit",
		Stdout:          s.out,
		Stderr:          s.errOut,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize REPL: %w", err)
	}
	defer func() { _ = rl.Close() }()

	_, _ = fmt.Fprintf(s.out, "leapmacro REPL (dialect: %s, macros: %s)\n", d.Name, cmdCtx.Cfg.MacrosDir)
	_, _ = fmt.Fprintln(s.out, "Type .help for commands, .quit to exit")
	_, _ = fmt.Fprintln(s.out)

	// buf accumulates the lines of one snippet
	var buf strings.Builder
	for {
		line, err := rl.Readline()
		// Ctrl-C drops the pending snippet, Ctrl-D exits
		if errors.Is(err, readline.ErrInterrupt) {
			buf.Reset()
			rl.SetPrompt(replPrompt)
			continue
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}

		// Dot-commands are only recognized at the start of a snippet
		trimmed := strings.TrimSpace(line)
		if buf.Len() == 0 {
			if trimmed == "" {
				continue
			}
			if strings.HasPrefix(trimmed, ".") {
				if s.handleDotCommand(trimmed) {
					break
				}
				continue
			}
		}

		// Keep reading until a line ends in ";" or is empty
		if trimmed != "" {
			buf.WriteString(line)
			buf.WriteByte('\n')
			if !strings.HasSuffix(trimmed, ";") {
				rl.SetPrompt(replContPrompt)
				continue
			}
		}
		rl.SetPrompt(replPrompt)

		snippet := buf.String()
		buf.Reset()
		s.eval(cmd, snippet)
	}

	return nil
}

// eval transforms one snippet and prints the result or its diagnostic.
func (s *replSession) eval(cmd *cobra.Command, snippet string) {
	opts := append(s.cmdCtx.TransformOptions(s.errOut), transform.WithFilename(replFilename))
	res, err := transform.Transform(cmd.Context(), s.dialect, snippet, s.host, opts...)
	if err != nil {
		_, _ = fmt.Fprint(s.errOut, diagnosticText(err))
		return
	}
	_, _ = fmt.Fprint(s.out, res.Code)
	if s.showMap {
		_, _ = fmt.Fprintln(s.out, s.cmdCtx.Renderer.Styles().Muted.Render(res.Map))
	}
}

// handleDotCommand runs a dot-command and reports whether the REPL should exit.
func (s *replSession) handleDotCommand(line string) bool {
	parts := strings.Fields(line)
	command := strings.ToLower(parts[0])

	switch command {
	case ".quit", ".exit":
		return true

	case ".help":
		printREPLHelp(s.out)

	case ".dialect":
		if len(parts) < 2 {
			_, _ = fmt.Fprintf(s.out, "dialect: %s (known: %s)\n", s.dialect.Name, strings.Join(dialect.List(), ", "))
			return false
		}
		d, err := dialect.MustGet(parts[1])
		if err != nil {
			_, _ = fmt.Fprintf(s.errOut, "Error: %v\n", err)
			return false
		}
		s.dialect = d
		_, _ = fmt.Fprintf(s.out, "dialect: %s\n", d.Name)

	case ".map":
		s.showMap = !s.showMap
		_, _ = fmt.Fprintf(s.out, "source maps: %s\n", onOff(s.showMap))

	case ".macros":
		infos, err := listMacros(s.cmdCtx.Cfg.MacrosDir)
		if err != nil {
			_, _ = fmt.Fprintf(s.errOut, "Error: %v\n", err)
			return false
		}
		for _, info := range infos {
			_, _ = fmt.Fprintf(s.out, "  %s.%s\n", info.Module, info.Signature)
		}

	case ".clear":
		// ANSI: cursor home, erase display
		_, _ = fmt.Fprint(s.out, "\033[H\033[2J")

	default:
		_, _ = fmt.Fprintf(s.errOut, "Unknown command: %s (type .help for commands)\n", command)
	}
	return false
}

func printREPLHelp(w io.Writer) {
	help := `
Commands:
  .help           Show this help message
  .dialect [name] Show or switch the dialect
  .map            Toggle printing the source map
  .macros         List available macros
  .clear          Clear the screen
  .quit / .exit   Exit the REPL

Tips:
  - A snippet ends with a line ending in ";" or with an empty line
  - Use arrow keys to navigate history
  - Ctrl-C discards the current snippet
`
	_, _ = fmt.Fprintln(w, help)
}

func newREPLCompleter() *readline.PrefixCompleter {
	items := make([]readline.PrefixCompleterInterface, 0, len(dialect.List()))
	for _, name := range dialect.List() {
		items = append(items, readline.PcItem(name))
	}
	return readline.NewPrefixCompleter(
		readline.PcItem(".help"),
		readline.PcItem(".dialect", items...),
		readline.PcItem(".map"),
		readline.PcItem(".macros"),
		readline.PcItem(".clear"),
		readline.PcItem(".quit"),
		readline.PcItem(".exit"),
	)
}

// historyFile returns the REPL history path in the user cache directory, or
// "" to disable history.
func historyFile() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return ""
	}
	dir = filepath.Join(dir, "leapmacro")
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return ""
	}
	return filepath.Join(dir, "repl_history")
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
