package cli

import (
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dgallion1/docdialog/internal/config"
	"github.com/dgallion1/docdialog/internal/pipeline"
	"github.com/dgallion1/docdialog/internal/store"
)

// runFlags are the per-command overrides shared by extract, facts and run.
type runFlags struct {
	input         string
	artifact      string
	maxFacts      int
	conversations int
	seed          uint64
	exportDir     string
	images        bool
}

func (f *runFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("input") {
		cfg.InputPath = f.input
	}
	if flags.Changed("artifact") {
		cfg.ArtifactPath = f.artifact
	}
	if flags.Changed("max-facts") {
		cfg.MaxFacts = f.maxFacts
	}
	if flags.Changed("conversations") {
		cfg.Conversations = f.conversations
	}
	if flags.Changed("seed") {
		cfg.Seed = f.seed
	}
	if flags.Changed("export") {
		cfg.ExportDir = f.exportDir
	}
	if flags.Changed("images") {
		cfg.ExtractImages = f.images
	}
}

func newExtractCommand(opts *rootOptions) *cobra.Command {
	f := &runFlags{}
	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Extract, clean and annotate documents into an artifact",
		Long: `Parse every supported document under --input, normalize the page text,
annotate chapter/section/subsection context and write the result to --artifact
(.json, .yaml or .yml). The artifact can be passed back as --input to facts or run.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return execute(cmd, opts, f, pipeline.ScopeAnnotate)
		},
	}
	cmd.Flags().StringVarP(&f.input, "input", "i", "", "Input directory or document")
	cmd.Flags().StringVarP(&f.artifact, "artifact", "o", "", "Artifact path (.json, .yaml, .yml)")
	return cmd
}

func newFactsCommand(opts *rootOptions) *cobra.Command {
	f := &runFlags{}
	cmd := &cobra.Command{
		Use:   "facts",
		Short: "Extract question-answer facts and store them",
		RunE: func(cmd *cobra.Command, args []string) error {
			return execute(cmd, opts, f, pipeline.ScopeFacts)
		},
	}
	cmd.Flags().StringVarP(&f.input, "input", "i", "", "Input directory, document or artifact")
	cmd.Flags().StringVar(&f.artifact, "artifact", "", "Also write the annotated artifact here")
	cmd.Flags().IntVarP(&f.maxFacts, "max-facts", "n", 0, "Maximum facts per run")
	cmd.Flags().StringVar(&f.exportDir, "export", "", "Write JSON exports into this directory")
	return cmd
}

func newRunCommand(opts *rootOptions) *cobra.Command {
	f := &runFlags{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the full pipeline: extract, facts and conversations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return execute(cmd, opts, f, pipeline.ScopeFull)
		},
	}
	cmd.Flags().StringVarP(&f.input, "input", "i", "", "Input directory, document or artifact")
	cmd.Flags().StringVar(&f.artifact, "artifact", "", "Also write the annotated artifact here")
	cmd.Flags().IntVarP(&f.maxFacts, "max-facts", "n", 0, "Maximum facts per run")
	cmd.Flags().IntVarP(&f.conversations, "conversations", "c", 0, "Number of conversations to synthesize")
	cmd.Flags().Uint64Var(&f.seed, "seed", 0, "Random seed for conversation sampling (0 = time-based)")
	cmd.Flags().StringVar(&f.exportDir, "export", "", "Write JSON exports into this directory")
	cmd.Flags().BoolVar(&f.images, "images", false, "Extract and caption images embedded in PDFs")
	return cmd
}

func execute(cmd *cobra.Command, opts *rootOptions, f *runFlags, scope pipeline.Scope) error {
	cfg, err := opts.load()
	if err != nil {
		return err
	}
	f.apply(cmd, &cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}
	if scope == pipeline.ScopeAnnotate && cfg.ArtifactPath == "" {
		return errors.New("--artifact is required")
	}

	log := newLogger(cfg, cmd.ErrOrStderr())

	var st *store.Store
	if scope != pipeline.ScopeAnnotate {
		st, err = store.Open(cfg.DBPath)
		if err != nil {
			return err
		}
		defer st.Close()
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner := pipeline.NewRunner(cfg, st, nil, log)
	res, err := runner.Execute(ctx, pipeline.RequestFromConfig(cfg, scope))
	if err != nil {
		return err
	}
	FormatRunSummary(cmd.OutOrStdout(), res, scope, cfg)
	return nil
}
