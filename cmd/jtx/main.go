// Command jtx is a raw-mode terminal text editor.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/gojtx/jtx/internal/config"
	"github.com/gojtx/jtx/internal/editor"
	"github.com/gojtx/jtx/internal/textfile"
)

var (
	tabSize      int
	noAutoIndent bool
	configPath   string
	watchFiles   bool
)

func main() {
	root := &cobra.Command{
		Use:           "jtx [files...]",
		Short:         "A raw-mode terminal text editor",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          run,
	}
	root.Flags().IntVar(&tabSize, "tab-size", 0, "override the configured tab width (0 = use config)")
	root.Flags().BoolVar(&noAutoIndent, "no-auto-indent", false, "disable auto-indent after newline")
	root.Flags().StringVar(&configPath, "config", "", "path to the TOML config file (default: $HOME/.config/jtx/config)")
	root.Flags().BoolVar(&watchFiles, "watch", false, "reload notice when an open file changes on disk")

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "jtx: %v\n", err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) (err error) {
	log, logFile, err := newLogger()
	if err != nil {
		return err
	}
	defer logFile.Close()

	path := configPath
	if path == "" {
		path, err = config.DefaultPath()
		if err != nil {
			return err
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		log.Error("jtx: config load failed", "error", err)
		return err
	}

	filenames := args
	if len(filenames) == 0 {
		return fmt.Errorf("jtx: no files given")
	}
	files := make([]*textfile.File, len(filenames))
	for i, name := range filenames {
		f, err := textfile.Load(name)
		if err != nil {
			return err
		}
		if tabSize > 0 {
			f.SetTabSize(tabSize)
		} else {
			f.SetTabSize(cfg.Misc.TabSize)
		}
		f.SetAutoIndent(!noAutoIndent)
		files[i] = f
	}

	ed, err := editor.New(files, cfg, log)
	if err != nil {
		log.Error("jtx: editor start failed", "error", err)
		return err
	}
	defer func() {
		if stopErr := ed.Stop(); stopErr != nil && err == nil {
			err = stopErr
		}
	}()

	if watchFiles {
		if err := ed.WatchFiles(); err != nil {
			log.Warn("jtx: external-change watch disabled", "error", err)
		}
	}

	defer func() {
		if r := recover(); r != nil {
			log.Error("jtx: recovered from panic", "panic", r)
			err = fmt.Errorf("jtx: internal error: %v", r)
		}
	}()

	return ed.Run()
}

// newLogger opens the structured-logging sink at
// $HOME/.local/state/jtx/jtx.log. Logging must never reach stdout or
// stderr while raw mode is active, since that output would corrupt the
// alternate screen buffer.
func newLogger() (*slog.Logger, *os.File, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, nil, fmt.Errorf("jtx: resolve home directory: %w", err)
	}
	dir := filepath.Join(home, ".local", "state", "jtx")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("jtx: create log directory: %w", err)
	}
	f, err := os.OpenFile(filepath.Join(dir, "jtx.log"), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("jtx: open log file: %w", err)
	}
	return slog.New(slog.NewJSONHandler(f, nil)), f, nil
}
