package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"github.com/dgnsrekt/docent/internal/archive"
	"github.com/dgnsrekt/docent/tts"
)

const previewWidth = 56

var (
	replayPaused bool

	matchStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575")).Underline(true)

	archiveCmd = &cobra.Command{
		Use:     "archive",
		Aliases: []string{"a"},
		Short:   "Browse saved narrations",
		Long:    paragraph(fmt.Sprintf("\n%s narrations saved with s in the TUI or with --save.", keyword("Browse"))),
		Args:    cobra.NoArgs,
	}

	archiveListCmd = &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List saved narrations, newest first",
		Args:    cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			return withArchive(func(a *archive.Archive) error {
				items, err := a.List()
				if err != nil {
					return err //nolint:wrapcheck
				}
				size, err := a.Size()
				if err != nil {
					return err //nolint:wrapcheck
				}
				return printItems(os.Stdout, items, size, a.MaxSize())
			})
		},
	}

	archiveShowCmd = &cobra.Command{
		Use:   "show ID",
		Short: "Show a saved narration",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withArchive(func(a *archive.Archive) error {
				item, err := a.Get(id)
				if err != nil {
					return fmt.Errorf("%d: %w", id, err)
				}
				out, err := renderItem(item)
				if err != nil {
					return err
				}
				_, err = fmt.Fprint(os.Stdout, out)
				return err //nolint:wrapcheck
			})
		},
	}

	archiveSearchCmd = &cobra.Command{
		Use:   "search QUERY",
		Short: "Fuzzy search saved narrations",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			return withArchive(func(a *archive.Archive) error {
				matches, err := a.Search(query)
				if err != nil {
					return err //nolint:wrapcheck
				}
				if len(matches) == 0 {
					fmt.Println(faint("No matches."))
					return nil
				}
				for _, m := range matches {
					fmt.Printf("%d  %s\n", m.Item.ID, highlightMatches(m.Item.Description, m.Matched, previewWidth))
				}
				return nil
			})
		},
	}

	archiveDeleteCmd = &cobra.Command{
		Use:     "delete ID...",
		Aliases: []string{"rm"},
		Short:   "Delete saved narrations",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			ids := make([]int64, 0, len(args))
			for _, arg := range args {
				id, err := parseID(arg)
				if err != nil {
					return err
				}
				ids = append(ids, id)
			}
			return withArchive(func(a *archive.Archive) error {
				n, err := a.Delete(ids...)
				if err != nil {
					return err //nolint:wrapcheck
				}
				fmt.Printf("Deleted %s.\n", humanize.Comma(int64(n))+" "+plural(n, "narration"))
				return nil
			})
		},
	}

	archiveReplayCmd = &cobra.Command{
		Use:   "replay ID",
		Short: "Play a saved narration again",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			n, err := newNarration(cmd.Context(), narrationOptions{archive: true})
			if err != nil {
				return err
			}
			item, err := n.archive.Get(id)
			if err != nil {
				n.close()
				return fmt.Errorf("%d: %w", id, err)
			}
			return n.runOnce(func(ctx context.Context) <-chan tts.Result {
				results := n.replay(ctx, item, replayPaused && !plain)
				if n.program != nil {
					n.program.View().Notify(humanize.Time(item.CreatedAt))
				}
				return results
			})
		},
	}
)

func withArchive(fn func(a *archive.Archive) error) error {
	a, err := openArchive()
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()
	return fn(a)
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}

func printItems(w io.Writer, items []archive.Item, size, quota int64) error {
	if len(items) == 0 {
		_, err := fmt.Fprintln(w, faint("The archive is empty."))
		return err //nolint:wrapcheck
	}
	for _, item := range items {
		if _, err := fmt.Fprintf(w, "%d  %-14s %8s  %s\n",
			item.ID,
			humanize.Time(item.CreatedAt),
			humanize.Bytes(uint64(len(item.ImageData))), //nolint:gosec
			preview(item.Description, previewWidth),
		); err != nil {
			return err //nolint:wrapcheck
		}
	}
	_, err := fmt.Fprintln(w, faint(fmt.Sprintf("%s %s, %s of %s used",
		humanize.Comma(int64(len(items))), plural(len(items), "narration"),
		humanize.Bytes(uint64(size)), humanize.Bytes(uint64(quota)), //nolint:gosec
	)))
	return err //nolint:wrapcheck
}

// preview is the first line of s cut to width terminal columns.
func preview(s string, width int) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return runewidth.Truncate(s, width, "…")
}

// highlightMatches styles the matched bytes of s, stopping at width
// columns.
func highlightMatches(s string, matched []int, width int) string {
	hit := make(map[int]bool, len(matched))
	for _, i := range matched {
		hit[i] = true
	}

	var (
		b    strings.Builder
		cols int
	)
	for i, r := range s {
		if r == '\n' {
			r = ' '
		}
		w := runewidth.RuneWidth(r)
		if cols+w > width-1 {
			b.WriteString("…")
			break
		}
		cols += w
		if hit[i] {
			b.WriteString(matchStyle.Render(string(r)))
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func renderItem(item archive.Item) (string, error) {
	style := "auto"
	if plain {
		style = "notty"
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithColorProfile(lipgloss.ColorProfile()),
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(int(width)), //nolint:gosec
	)
	if err != nil {
		return "", fmt.Errorf("unable to create renderer: %w", err)
	}

	var md strings.Builder
	fmt.Fprintf(&md, "# %s\n\n", item.CreatedAt.Format("2006-01-02 15:04"))
	if item.MIMEType != "" {
		fmt.Fprintf(&md, "*%s, %s*\n\n", item.MIMEType, humanize.Bytes(uint64(len(item.ImageData))))
	}
	md.WriteString(item.Description)
	md.WriteString("\n")

	out, err := r.Render(md.String())
	if err != nil {
		return "", fmt.Errorf("unable to render markdown: %w", err)
	}
	return out, nil
}

func init() {
	archiveReplayCmd.Flags().BoolVar(&replayPaused, "paused", false, "wait for space before speaking (TUI-mode only)")
	archiveCmd.AddCommand(archiveListCmd, archiveShowCmd, archiveSearchCmd, archiveDeleteCmd, archiveReplayCmd)
}
