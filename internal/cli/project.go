package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/mgpai22/splice/internal/project"
	"github.com/mgpai22/splice/internal/store"
	"github.com/mgpai22/splice/internal/timeline"
	"github.com/spf13/cobra"
)

var newCmd = &cobra.Command{
	Use:   "new <name>",
	Short: "Create an empty project",
	Long: `Create a project with empty video and audio tracks.

Examples:
  splice new trailer
  splice new trailer --video 2 --audio 2
  splice new trailer --from trailer.json`,
	Args: cobra.ExactArgs(1),
	RunE: runNew,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored projects",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

var removeCmd = &cobra.Command{
	Use:   "rm <project>",
	Short: "Delete a stored project",
	Args:  cobra.ExactArgs(1),
	RunE:  runRemove,
}

func init() {
	rootCmd.AddCommand(newCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(removeCmd)

	newCmd.Flags().Int("video", 1, "Number of video tracks")
	newCmd.Flags().Int("audio", 1, "Number of audio tracks")
	newCmd.Flags().StringP("from", "f", "", "Import a project document instead of starting empty")
}

func runNew(cmd *cobra.Command, args []string) error {
	name := args[0]
	videoTracks, _ := cmd.Flags().GetInt("video")
	audioTracks, _ := cmd.Flags().GetInt("audio")
	from, _ := cmd.Flags().GetString("from")

	var seq *timeline.Sequence
	meta := project.Meta{Name: name, FrameRate: cfg.FrameRate}
	if from != "" {
		data, err := os.ReadFile(from)
		if err != nil {
			return fmt.Errorf("failed to read project document: %w", err)
		}
		s, m, err := project.Decode(data, registry, timeline.WithLogger(logger))
		if err != nil {
			return fmt.Errorf("failed to import %s: %w", from, err)
		}
		seq = s
		if m.FrameRate > 0 {
			meta.FrameRate = m.FrameRate
		}
	} else {
		if videoTracks < 0 || audioTracks < 0 {
			return fmt.Errorf("track counts must not be negative")
		}
		seq = timeline.NewSequence(registry, timeline.WithLogger(logger))
		for range videoTracks {
			seq.AddTrack(timeline.Video)
		}
		for range audioTracks {
			seq.AddTrack(timeline.Audio)
		}
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	meta.ID = uuid.New()
	data, err := project.Encode(seq, meta)
	if err != nil {
		return err
	}
	saved, err := st.Save(cmd.Context(), store.Project{ID: meta.ID, Name: name, Document: data})
	if err != nil {
		return fmt.Errorf("failed to create project: %w", err)
	}

	logger.Infow("project created", "name", name, "id", saved.ID)
	fmt.Printf("Created project %s (%s)\n", name, saved.ID)
	return nil
}

func runList(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	projects, err := st.List(cmd.Context())
	if err != nil {
		return err
	}
	if len(projects) == 0 {
		fmt.Println("No projects")
		return nil
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tID\tUPDATED")
	for _, p := range projects {
		fmt.Fprintf(w, "%s\t%s\t%s\n", p.Name, p.ID, p.UpdatedAt.Local().Format("2006-01-02 15:04"))
	}
	return w.Flush()
}

func runRemove(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	if err := st.Delete(cmd.Context(), args[0]); err != nil {
		return err
	}
	fmt.Printf("Deleted project %s\n", args[0])
	return nil
}
