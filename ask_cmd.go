package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dgnsrekt/docent/tts"
)

var askCmd = &cobra.Command{
	Use:     "ask QUESTION...",
	Short:   "Ask a question and hear the answer",
	Long:    paragraph(fmt.Sprintf("\n%s a question about a place, a work of art or anything else you come across. Answers cannot be saved.", keyword("Ask"))),
	Example: paragraph("docent ask when was the hyangwonjeong pavilion built?"),
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		question := strings.TrimSpace(strings.Join(args, " "))
		if question == "" {
			return errors.New("missing question")
		}

		n, err := newNarration(cmd.Context(), narrationOptions{title: question})
		if err != nil {
			return err
		}
		return n.runOnce(func(ctx context.Context) <-chan tts.Result {
			return n.ask(ctx, question)
		})
	},
}
