package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/five82/bitdeck/internal/app"
	"github.com/five82/bitdeck/internal/dispatch"
	"github.com/five82/bitdeck/internal/engine"
	"github.com/five82/bitdeck/internal/format"
	"github.com/five82/bitdeck/internal/notify"
)

// headless builds a session whose notifications print to stderr instead of
// the TUI toast stack. Only the one-shot pieces are used; nothing is Run.
func (c *cli) headless(cmd *cobra.Command) (*app.Session, error) {
	sess, err := app.NewSession(c.cfg)
	if err != nil {
		return nil, err
	}
	sess.Hub.Subscribe(notify.NewWriter(cmd.ErrOrStderr()).Notify)
	return sess, nil
}

func newListCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Print engine stats and the current torrents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := engine.NewClient(c.cfg.EngineURL, engine.WithTimeout(c.cfg.RequestTimeout))
			if err != nil {
				return err
			}
			stats, err := client.FetchSession(cmd.Context())
			if err != nil {
				return err
			}
			snap, err := client.FetchSnapshot(cmd.Context())
			if err != nil {
				return err
			}
			renderList(cmd.OutOrStdout(), stats, snap.Torrents)
			return nil
		},
	}
}

func newAddCmd(c *cli) *cobra.Command {
	var form dispatch.AddForm
	cmd := &cobra.Command{
		Use:   "add <magnet>",
		Short: "Submit a magnet URI to the engine",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := c.headless(cmd)
			if err != nil {
				return err
			}
			form.Magnet = args[0]
			id, err := sess.Dispatcher.SubmitAdd(cmd.Context(), form)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), id)
			return nil
		},
	}
	cmd.Flags().StringVar(&form.Name, "name", "", "display name")
	cmd.Flags().StringVar(&form.Size, "size", "", "expected size in MiB")
	return cmd
}

func newControlCmd(c *cli, action engine.Action) *cobra.Command {
	return &cobra.Command{
		Use:   string(action) + " <id>",
		Short: fmt.Sprintf("Send %s to one torrent", action),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || id <= 0 {
				return fmt.Errorf("invalid torrent id %q", args[0])
			}
			sess, err := c.headless(cmd)
			if err != nil {
				return err
			}
			return sess.Dispatcher.Dispatch(cmd.Context(), dispatch.Control{Action: action, JobID: id})
		},
	}
}

func renderList(w io.Writer, s engine.EngineStats, torrents []engine.Torrent) {
	_, _ = fmt.Fprintf(w, "port %d • %d torrents • %d active • ↓ %s ↑ %s\n",
		s.Port, s.TorrentCount, s.Active, format.Rate(s.DownloadRate), format.Rate(s.UploadRate))

	if len(torrents) == 0 {
		_, _ = fmt.Fprintln(w, "No torrents yet")
		return
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ID", "NAME", "STATUS", "PROGRESS", "SIZE", "DOWN", "UP")
	for _, tor := range torrents {
		t.Row(
			strconv.FormatInt(tor.ID, 10),
			tor.DisplayName(),
			tor.Status(),
			format.Progress(tor.Progress),
			format.Size(tor.Size, "unknown"),
			format.Rate(tor.DownloadRate),
			format.Rate(tor.UploadRate),
		)
	}
	_, _ = fmt.Fprintln(w, t.String())
}
