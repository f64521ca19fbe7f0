package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var similarCmd = &cobra.Command{
	Use:   "similar <idea-id>",
	Short: "Rank stored ideas by similarity to one idea",
	Args:  cobra.ExactArgs(1),
	RunE:  runSimilar,
}

var searchCmd = &cobra.Command{
	Use:   "search <text>...",
	Short: "Rank stored ideas by similarity to free text",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSearch,
}

var problemCmd = &cobra.Command{
	Use:   "problem <problem-id>",
	Short: "List ideas related to a reported problem",
	Args:  cobra.ExactArgs(1),
	RunE:  runProblem,
}

func runSimilar(cmd *cobra.Command, args []string) error {
	st, cfg, closeFn, err := openStore(cmd.Context())
	if err != nil {
		return err
	}
	defer closeFn()

	resp, err := newMatcher(st, cfg).SimilarIdeas(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("similar ideas: %w", err)
	}
	return printMatches(cmd.OutOrStdout(), resp)
}

func runSearch(cmd *cobra.Command, args []string) error {
	st, cfg, closeFn, err := openStore(cmd.Context())
	if err != nil {
		return err
	}
	defer closeFn()

	resp, err := newMatcher(st, cfg).SimilarIdeasFromText(cmd.Context(), strings.Join(args, " "))
	if err != nil {
		return fmt.Errorf("text search: %w", err)
	}
	return printMatches(cmd.OutOrStdout(), resp)
}

func runProblem(cmd *cobra.Command, args []string) error {
	st, cfg, closeFn, err := openStore(cmd.Context())
	if err != nil {
		return err
	}
	defer closeFn()

	resp, err := newMatcher(st, cfg).RelatedIdeasForProblem(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("related ideas: %w", err)
	}
	out := cmd.OutOrStdout()
	if rootFlags.jsonOutput {
		return printJSON(out, resp)
	}
	fmt.Fprintf(out, "Problem: %s (%s)\n", resp.Problem.ID, resp.Problem.Status)
	return printMatches(out, &resp.RelatedIdeas)
}
