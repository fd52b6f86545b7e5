package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/hrygo/notegraph/plugin/render"
	"github.com/hrygo/notegraph/plugin/render/raster"
	"github.com/hrygo/notegraph/server/stats"
	"github.com/hrygo/notegraph/server/tui"
	"github.com/hrygo/notegraph/server/view"
	"github.com/hrygo/notegraph/store"
)

func newViewCmd() *cobra.Command {
	var logFile string
	cmd := &cobra.Command{
		Use:   "view",
		Short: "Explore the graph in the terminal; clicked notes are printed on exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			// The terminal belongs to the graph while the program runs.
			var logOut io.Writer = io.Discard
			if logFile != "" {
				f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
				if err != nil {
					return errors.Wrap(err, "failed to open log file")
				}
				defer f.Close()
				logOut = f
			}
			setupLogger(logOut, "dev")

			ctx := cmd.Context()
			p, st, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			nav := tui.NewNavigator()
			opts := view.OptionsFromProfile(p, "tui")
			opts.Simulate = true
			v := view.New(&view.StoreSource{Store: st, CreatorID: p.CreatorID}, nav, opts)
			if err := v.Mount(ctx); err != nil {
				return err
			}
			defer v.Close()

			program := tea.NewProgram(tui.New(v, nav, p.FPS),
				tea.WithContext(ctx),
				tea.WithAltScreen(),
				tea.WithMouseAllMotion(),
				tea.WithReportFocus(),
			)
			final, err := program.Run()
			if err != nil {
				return errors.Wrap(err, "terminal program failed")
			}
			_ = v.Close()

			model, ok := final.(tui.Model)
			if !ok {
				return nil
			}
			return printNotes(cmd, st, p.CreatorID, model.Opened())
		},
	}
	cmd.Flags().StringVar(&logFile, "log-file", "", "write logs to this file instead of discarding them")
	return cmd
}

// printNotes prints the notes opened during a view session.
func printNotes(cmd *cobra.Command, st *store.Store, creatorID int32, uids []string) error {
	out := cmd.OutOrStdout()
	for _, uid := range uids {
		note, err := st.GetNote(cmd.Context(), &store.FindNote{UID: &uid, CreatorID: &creatorID})
		if err != nil {
			return err
		}
		if note == nil {
			continue
		}
		fmt.Fprintf(out, "# %s\n\n%s\n\n", note.Title, strings.TrimSpace(note.Body))
	}
	return nil
}

func newRenderCmd() *cobra.Command {
	var (
		output        string
		width, height int
		ticks         int
		thumbnail     int
		frames        int
		fps           int
	)
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Lay out the graph and save it as an image",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if width <= 0 || height <= 0 || thumbnail < 0 {
				return errors.New("width and height must be positive")
			}
			if frames < 0 {
				return errors.New("frames must not be negative")
			}
			ctx := cmd.Context()
			p, st, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			opts := view.OptionsFromProfile(p, "raster")
			opts.Simulate = frames > 0
			v := view.New(&view.StoreSource{Store: st, CreatorID: p.CreatorID}, nil, opts)
			if err := v.Mount(ctx); err != nil {
				return err
			}
			defer v.Close()
			if err := v.WaitReady(ctx); err != nil {
				return err
			}

			status, viewErr := v.State()
			switch status {
			case view.StatusEmpty:
				fmt.Fprintln(cmd.OutOrStdout(), view.EmptyMessage)
				return nil
			case view.StatusReady:
			default:
				return viewErr
			}

			if frames > 0 {
				return renderFrames(cmd, v, output, width, height, frames, fps)
			}

			engine := v.Engine()
			for i := 0; i < ticks; i++ {
				if engine.Step().Settled {
					break
				}
			}

			canvas := raster.New(width, height)
			r := v.Renderer()
			r.Resize(width, height)
			r.Draw(canvas)

			if thumbnail > 0 {
				thumb := canvas.Thumbnail(thumbnail, thumbnail*height/width)
				if err := imaging.Save(thumb, output); err != nil {
					return errors.Wrapf(err, "failed to save %s", output)
				}
			} else if err := canvas.Save(output); err != nil {
				return err
			}
			snap := engine.Snapshot()
			slog.Info("graph rendered",
				slog.String("output", output),
				slog.Uint64("tick", snap.Tick),
				slog.Bool("settled", snap.Settled),
			)
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d nodes, %d edges)\n", output, len(v.Graph().Nodes), len(v.Graph().Edges))
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "graph.png", "output image; the extension picks the format")
	cmd.Flags().IntVar(&width, "width", 1200, "image width in pixels")
	cmd.Flags().IntVar(&height, "height", 800, "image height in pixels")
	cmd.Flags().IntVar(&ticks, "ticks", 500, "maximum layout ticks before drawing")
	cmd.Flags().IntVar(&thumbnail, "thumbnail", 0, "scale the image down to this width")
	cmd.Flags().IntVar(&frames, "frames", 0, "record this many frames of the running layout instead of one settled image")
	cmd.Flags().IntVar(&fps, "fps", 10, "frame rate of --frames")
	return cmd
}

// renderFrames records frames of the live layout to numbered files next to
// output: graph.png becomes graph-001.png, graph-002.png and so on.
func renderFrames(cmd *cobra.Command, v *view.View, output string, width, height, frames, fps int) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	ext := filepath.Ext(output)
	base := strings.TrimSuffix(output, ext)
	canvas := raster.New(width, height)
	written := 0
	err := v.RunFrames(ctx, canvas, fps, func(render.Canvas) error {
		written++
		path := fmt.Sprintf("%s-%03d%s", base, written, ext)
		if err := canvas.Save(path); err != nil {
			return err
		}
		if written == frames {
			cancel()
		}
		return nil
	})
	if err != nil {
		return err
	}
	slog.Info("graph frames rendered",
		slog.String("output", base),
		slog.Int("frames", written),
		slog.Uint64("tick", v.Engine().Snapshot().Tick),
	)
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %d frames to %s-*%s\n", written, base, ext)
	return nil
}

func newStatsCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print statistics about the notes and their graph",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			p, st, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			collector := stats.NewCollector(st, p.CreatorID)
			if err := collector.Collect(ctx); err != nil {
				return err
			}
			s := collector.GetStats()
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(s)
			}
			fmt.Fprintln(cmd.OutOrStdout(), s.GetSummary())
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func newSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Insert the demo notebook for the configured user",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			p, st, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			notes, err := st.Seed(ctx, p.CreatorID)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d notes for user %d\n", len(notes), p.CreatorID)
			return nil
		},
	}
}
