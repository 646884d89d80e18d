package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dgnsrekt/docent/internal/app"
	"github.com/dgnsrekt/docent/tts"
)

var (
	autoSave bool

	describeCmd = &cobra.Command{
		Use:   "describe IMAGE",
		Short: "Narrate a photo",
		Long: paragraph(fmt.Sprintf("\n%s a photo sentence by sentence. Use - to read the image from stdin. "+
			"In the TUI, space pauses, s saves the narration to the archive and r plays it again.", keyword("Narrate"))),
		Example: paragraph("docent describe gyeongbokgung.jpg\ncat photo.png | docent describe --plain -"),
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDescribe(cmd.Context(), args[0])
		},
	}
)

func runDescribe(ctx context.Context, path string) error {
	img, err := app.LoadImage(path)
	if err != nil {
		return fmt.Errorf("unable to load image: %w", err)
	}

	n, err := newNarration(ctx, narrationOptions{
		title:    imageTitle(path),
		archive:  true,
		autoSave: autoSave,
	})
	if err != nil {
		return err
	}
	return n.runOnce(func(ctx context.Context) <-chan tts.Result {
		return n.describe(ctx, img)
	})
}

func imageTitle(path string) string {
	if path == "-" {
		return "stdin"
	}
	return filepath.Base(path)
}

func init() {
	describeCmd.Flags().BoolVarP(&autoSave, "save", "S", false, "save the narration to the archive once it finishes")
}
