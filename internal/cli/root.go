package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mgpai22/splice/internal/config"
	"github.com/mgpai22/splice/internal/logging"
	"github.com/mgpai22/splice/internal/transition"
	"github.com/spf13/cobra"
)

var (
	verbose    bool
	configPath string
	dbPath     string
	logger     = logging.Nop()
	cfg        = config.Default()
	registry   = transition.Builtin()
)

var rootCmd = &cobra.Command{
	Use:   "splice",
	Short: "Timeline editor for video projects",
	Long: `Splice edits video projects from the command line.

Projects are sequences of video and audio tracks stored in a local
database. Clips can be imported, trimmed, moved between tracks, joined
with transitions and exported with ffmpeg.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger = logging.NewLogger(verbose)
		loaded, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if err := loaded.Validate(registry); err != nil {
			return fmt.Errorf("invalid config %s: %w", configPath, err)
		}
		cfg = loaded
		logger.Debugw("config loaded", "path", configPath, "frame_rate", cfg.FrameRate)
		return nil
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().
		BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().
		StringVarP(&configPath, "config", "c", defaultPath("splice.yaml"), "Config file path")
	rootCmd.PersistentFlags().
		StringVar(&dbPath, "db", defaultPath("splice.db"), "Project database path")
}

// file in the user config directory, or in the working directory when
// there is none
func defaultPath(name string) string {
	dir, err := os.UserConfigDir()
	if err != nil || dir == "" {
		return name
	}
	return filepath.Join(dir, "splice", name)
}
