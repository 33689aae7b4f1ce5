package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"codepeer/internal/app"
	"codepeer/internal/tui"

	"github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

const version = "1.0.0"

func loadConfig() (app.Config, error) {
	cfg, err := app.LoadConfig(app.DefaultConfigPath())
	if err != nil {
		return cfg, err
	}
	if flagBackend != "" {
		cfg.BackendURL = flagBackend
	} else if env := os.Getenv("CODEPEER_BACKEND_URL"); env != "" {
		cfg.BackendURL = env
	}
	if flagLessonsDir != "" {
		cfg.LessonsDir = flagLessonsDir
	}
	if flagMock {
		cfg.BackendURL = app.MockBaseURL
	}
	return cfg, nil
}

// resolveLesson accepts either a lesson id under the lessons directory or a
// direct path to a lesson file.
func resolveLesson(lessonsDir, ref string) (*app.Lesson, error) {
	if _, err := os.Stat(ref); err == nil {
		return app.LoadLesson(ref)
	}
	path := filepath.Join(lessonsDir, ref+".md")
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("lesson %q not found (tried %s)", ref, path)
	}
	return app.LoadLesson(path)
}

func main() {
	root := &cobra.Command{
		Use:     "codepeer",
		Short:   "CodePeer - pair-programming lessons in your terminal",
		Long:    "CodePeer is a terminal IDE for guided coding lessons.\n\nYou and an AI peer each work in your own editor. The peer revises its code live, typing the changes out character by character, and either side's code can be run against the lesson.",
		Version: version,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			logger := app.NewLogger(app.DefaultLogWriter())
			client := app.NewChatClient(cfg.BackendURL, time.Duration(cfg.RequestTimeoutSec)*time.Second)
			sandbox := app.NewSandbox(cfg.Python, logger)
			store := app.NewFileStore(app.DefaultFileRoot())

			logger.Info("starting", map[string]interface{}{
				"version": version,
				"backend": cfg.BackendURL,
				"lessons": cfg.LessonsDir,
			})

			model := tui.New(cfg, logger, client, sandbox, store)
			if flagLesson != "" {
				lesson, err := resolveLesson(cfg.LessonsDir, flagLesson)
				if err != nil {
					return err
				}
				model.EnterLesson(lesson)
			}

			p := tea.NewProgram(model, tea.WithAltScreen())
			if _, err := p.Run(); err != nil {
				return err
			}
			return nil
		},
	}

	root.Flags().StringVar(&flagLesson, "lesson", "", "open a lesson directly (id or path), skipping the picker")
	root.Flags().StringVar(&flagBackend, "backend", "", "chat backend URL (overrides config)")
	root.Flags().StringVar(&flagLessonsDir, "lessons-dir", "", "directory containing lesson markdown files")
	root.Flags().BoolVar(&flagMock, "mock", false, "use a canned in-process peer instead of a backend")

	lessonsCmd := &cobra.Command{
		Use:   "lessons",
		Short: "List available lessons",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			summaries, err := app.ListLessons(cfg.LessonsDir)
			if err != nil {
				return err
			}
			if len(summaries) == 0 {
				fmt.Printf("no lessons found in %s\n", cfg.LessonsDir)
				return nil
			}
			for _, s := range summaries {
				line := fmt.Sprintf("%-24s %s", s.ID, s.Title)
				if s.Difficulty != "" {
					line += fmt.Sprintf(" [%s]", s.Difficulty)
				}
				fmt.Println(line)
			}
			return nil
		},
	}
	lessonsCmd.Flags().StringVar(&flagLessonsDir, "lessons-dir", "", "directory containing lesson markdown files")
	root.AddCommand(lessonsCmd)

	importCmd := &cobra.Command{
		Use:   "import [file...]",
		Short: "Import lesson files into local storage",
		Long:  "Import one or more lesson markdown files into CodePeer's local storage so they show up in the lesson picker on any machine path.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store := app.NewFileStore(app.DefaultFileRoot())
			for _, path := range args {
				f, err := store.Import(path)
				if err != nil {
					return fmt.Errorf("import %s: %w", path, err)
				}
				fmt.Printf("imported %s (%d bytes)\n", f.Name, f.Size)
			}
			return nil
		},
	}
	root.AddCommand(importCmd)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var (
	flagLesson     string
	flagBackend    string
	flagLessonsDir string
	flagMock       bool
)
