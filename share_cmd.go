package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dgnsrekt/docent/internal/archive"
	"github.com/dgnsrekt/docent/internal/share"
	"github.com/dgnsrekt/docent/tts"
)

var (
	shareCmd = &cobra.Command{
		Use:   "share",
		Short: "Share saved narrations as a guidebook",
		Long: paragraph(fmt.Sprintf("\n%s a selection of saved narrations through a docent server. "+
			"The guidebook id is copied to the clipboard.", keyword("Share"))),
		Args: cobra.NoArgs,
	}

	shareCreateCmd = &cobra.Command{
		Use:     "create ID...",
		Short:   "Create a guidebook from saved narrations",
		Example: paragraph("docent share create 1718000000000 1718000042000"),
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids := make([]int64, 0, len(args))
			for _, arg := range args {
				id, err := parseID(arg)
				if err != nil {
					return err
				}
				ids = append(ids, id)
			}
			if err := share.Validate(ids); err != nil {
				return err //nolint:wrapcheck
			}

			// only narrations that exist here can be shared
			if err := withArchive(func(a *archive.Archive) error {
				for _, id := range ids {
					if _, err := a.Get(id); err != nil {
						return fmt.Errorf("%d: %w", id, err)
					}
				}
				return nil
			}); err != nil {
				return err
			}

			guidebook, err := shareClient().Create(cmd.Context(), ids)
			if err != nil {
				return fmt.Errorf("unable to share: %w", err)
			}

			// Copy using OSC 52
			termenv.Copy(guidebook)
			// Copy using native system clipboard
			if err := clipboard.WriteAll(guidebook); err != nil {
				log.Debug("Clipboard unavailable", "err", err)
			}
			fmt.Println(tts.NewPrinter(uiCfg.Language).Sprintf(tts.MsgShared, keyword(guidebook)))
			return nil
		},
	}

	shareOpenCmd = &cobra.Command{
		Use:   "open GUIDEBOOK",
		Short: "List the narrations in a guidebook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := shareClient().Get(cmd.Context(), strings.TrimSpace(args[0]))
			if errors.Is(err, share.ErrNotFound) {
				return fmt.Errorf("guidebook %s not found", args[0])
			}
			if err != nil {
				return fmt.Errorf("unable to open guidebook: %w", err)
			}

			fmt.Println(faint(fmt.Sprintf("Shared %s, %s %s",
				humanize.Time(g.CreatedAt), humanize.Comma(int64(len(g.ContentIDs))), plural(len(g.ContentIDs), "narration"))))
			return withArchive(func(a *archive.Archive) error {
				for _, id := range g.ContentIDs {
					item, err := a.Get(id)
					switch {
					case errors.Is(err, archive.ErrNotFound):
						fmt.Printf("%d  %s\n", id, faint("not in this archive"))
					case err != nil:
						return err //nolint:wrapcheck
					default:
						fmt.Printf("%d  %s\n", id, preview(item.Description, previewWidth))
					}
				}
				return nil
			})
		},
	}
)

func shareClient() *share.Client {
	server := strings.TrimRight(viper.GetString("share.server"), "/")
	return share.NewClient(server+"/api/share", nil)
}

func init() {
	shareCmd.AddCommand(shareCreateCmd, shareOpenCmd)
}
