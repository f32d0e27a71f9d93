package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/dgallion1/docdialog/internal/config"
)

// Version is set at build time.
var Version = "dev"

type rootOptions struct {
	configPath string
	dbPath     string
	logLevel   string
}

// NewRootCommand builds the docdialog command tree.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "docdialog",
		Short: "Turn documents into question-answer facts and synthetic dialogues",
		Long: `docdialog extracts text from PDF, text, Markdown, HTML and DOCX documents,
cleans and annotates it with chapter and section context, mines rule-based
question-answer facts and composes patient/doctor conversations from them.
Facts and conversations are stored in a SQLite knowledge base.`,
		SilenceUsage: true,
		Version:      Version,
	}
	root.SetVersionTemplate(fmt.Sprintf("docdialog %s\n", Version))

	pf := root.PersistentFlags()
	pf.StringVar(&opts.configPath, "config", "", "YAML config file")
	pf.StringVar(&opts.dbPath, "db", "", "SQLite knowledge base path (overrides config)")
	pf.StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn, error (overrides config)")

	root.AddCommand(
		newExtractCommand(opts),
		newFactsCommand(opts),
		newRunCommand(opts),
		newServeCommand(opts),
		newStatsCommand(opts),
	)
	return root
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// load reads the configuration and applies the persistent flag overrides.
func (o *rootOptions) load() (config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return config.Config{}, err
	}
	if o.dbPath != "" {
		cfg.DBPath = o.dbPath
	}
	if o.logLevel != "" {
		cfg.LogLevel = o.logLevel
	}
	return cfg, nil
}

// newLogger builds the process logger from cfg.
func newLogger(cfg config.Config, w io.Writer) *slog.Logger {
	level, err := config.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = slog.LevelInfo
	}
	hopts := &slog.HandlerOptions{Level: level}
	if cfg.LogFormat == "text" {
		return slog.New(slog.NewTextHandler(w, hopts))
	}
	return slog.New(slog.NewJSONHandler(w, hopts))
}
