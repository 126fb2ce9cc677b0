package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/callscribe/internal/extraction"
	"github.com/fyrsmithlabs/callscribe/internal/prompt"
	"github.com/fyrsmithlabs/callscribe/internal/transcript"
)

type extractOptions struct {
	transcriptPath string
	questions      []string
	template       string
	noFallback     bool
}

// extractOutput is printed by the extract command.
type extractOutput struct {
	TranscriptType string               `json:"transcript_type"`
	Transcript     string               `json:"transcript"`
	ExtractedInfo  extraction.ResultMap `json:"extracted_info"`
}

func newExtractCmd(root *rootOptions) *cobra.Command {
	opts := &extractOptions{}
	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Extract answers from a transcript file",
		Long: `Extract answers from a saved transcript without calling the voice platform.

The transcript may be plain text or JSON (a string, a list of turns, or an
object with a text field).

Examples:
  # Questions from flags
  callscribe extract --transcript call.json -q "What is your name?" -q "Any symptoms?"

  # Questions from a template
  callscribe extract --transcript call.txt --template hypertension_protocol

  # Read the transcript from stdin
  cat call.json | callscribe extract --transcript - -q "What is your email?"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runExtract(cmd, root, opts)
		},
	}
	cmd.Flags().StringVarP(&opts.transcriptPath, "transcript", "t", "-", "transcript file, or - for stdin")
	cmd.Flags().StringArrayVarP(&opts.questions, "question", "q", nil, "question to answer (repeatable)")
	cmd.Flags().StringVar(&opts.template, "template", "", "take questions from this agent template")
	cmd.Flags().BoolVar(&opts.noFallback, "no-fallback", false, "disable the generic fallback for categorized questions")
	return cmd
}

func runExtract(cmd *cobra.Command, root *rootOptions, opts *extractOptions) error {
	questions := opts.questions
	if opts.template != "" {
		catalog, err := prompt.NewCatalog(templatesPath(root), nil)
		if err != nil {
			return err
		}
		t, err := catalog.Get(opts.template)
		if err != nil {
			return err
		}
		questions = append(append([]string{}, t.Questions...), questions...)
	}
	if len(questions) == 0 {
		return errors.New("at least one --question or a --template is required")
	}

	data, err := readInput(cmd.InOrStdin(), opts.transcriptPath)
	if err != nil {
		return err
	}

	engine, err := extraction.NewEngine(extraction.Config{DisableFallback: opts.noFallback})
	if err != nil {
		return err
	}
	raw := transcript.FromJSON(data)
	out := extractOutput{
		TranscriptType: raw.Kind.String(),
		Transcript:     raw.Normalize(),
		ExtractedInfo:  engine.Extract(cmd.Context(), raw, questions),
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func readInput(stdin io.Reader, path string) ([]byte, error) {
	if path == "" || path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("failed to read from stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", path, err)
	}
	return data, nil
}
