package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dgnsrekt/docent/internal/app"
	"github.com/dgnsrekt/docent/internal/watch"
)

var (
	watchLatest bool

	watchCmd = &cobra.Command{
		Use:   "watch [DIR]",
		Short: "Narrate every new photo saved to a folder",
		Long: paragraph(fmt.Sprintf("\n%s a folder, such as the one your phone syncs its camera roll to, and narrate each new photo. "+
			"A new photo interrupts the one being narrated.", keyword("Watch"))),
		Example: paragraph("docent watch ~/Pictures/Camera\ndocent watch --latest --save ."),
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = expandPath(args[0])
			}
			abs, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("unable to get absolute path: %w", err)
			}
			return runWatch(cmd.Context(), abs)
		},
	}
)

func runWatch(ctx context.Context, dir string) error {
	n, err := newNarration(ctx, narrationOptions{
		title:    dir,
		archive:  true,
		autoSave: autoSave,
	})
	if err != nil {
		return err
	}

	w := watch.New(dir)
	narrate := func(ctx context.Context, path string) {
		img, err := app.LoadImage(path)
		if err != nil {
			n.logger.Warn("Skipping photo", "file", path, "err", err)
			return
		}
		results := n.describe(ctx, img)
		go func() { n.finished(<-results) }()
	}

	return n.runUntilDone(func(ctx context.Context) error {
		if watchLatest {
			if latest, err := watch.Latest(dir); err == nil {
				narrate(ctx, latest)
			} else {
				n.logger.Info("No photo to start with", "dir", dir, "err", err)
			}
		}
		return w.Run(ctx, func(path string) { narrate(ctx, path) })
	})
}

func init() {
	watchCmd.Flags().BoolVar(&watchLatest, "latest", false, "start with the newest photo already in the folder")
	watchCmd.Flags().BoolVarP(&autoSave, "save", "S", false, "save each narration to the archive once it finishes")
}
