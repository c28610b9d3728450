package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/novelforge/novelcore/internal/config"
	"github.com/novelforge/novelcore/internal/domain"
	"github.com/novelforge/novelcore/internal/engine"
	"github.com/novelforge/novelcore/internal/toc"
	"github.com/novelforge/novelcore/internal/utils"
	"github.com/novelforge/novelcore/pkg/version"
)

var (
	cfgFile string
	verbose bool
	log     *utils.Logger
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "noveldl",
	Short:   "Search, inspect, and download novels from rule-driven book sources",
	Version: version.Short(),
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: config.yaml in ~/.novelcore or the current directory)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().String("rules", "", "Rule file directory (overrides config)")
	rootCmd.PersistentFlags().String("output", "", "Downloaded artifact directory (overrides config)")
	_ = viper.BindPFlag("rules.directory", rootCmd.PersistentFlags().Lookup("rules"))
	_ = viper.BindPFlag("output.directory", rootCmd.PersistentFlags().Lookup("output"))

	rootCmd.AddCommand(searchCmd, tocCmd, downloadCmd, versionCmd)
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}
}

func newEngine(ctx context.Context) (*engine.Engine, error) {
	if verbose {
		log = utils.NewVerboseLogger()
		utils.SetGlobalLevel("debug")
	} else {
		log = utils.NewDefaultLogger()
		utils.SetGlobalLevel("info")
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	return engine.New(ctx, cfg, log)
}

func interruptContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()
	return ctx, cancel
}

var searchCmd = &cobra.Command{
	Use:   "search <keyword>",
	Short: "Search every enabled source and print the merged, ranked results",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := interruptContext()
		defer cancel()

		eng, err := newEngine(ctx)
		if err != nil {
			return err
		}
		defer eng.Shutdown()

		bar := utils.NewProgressBar(-1, utils.DescCrawling)
		quit := make(chan struct{})
		go func() {
			ticker := time.NewTicker(100 * time.Millisecond)
			defer ticker.Stop()
			for {
				select {
				case <-quit:
					return
				case <-ticker.C:
					_ = bar.Add(1)
				}
			}
		}()

		hits, srcErrs, err := eng.Aggregator.SearchAll(ctx, args[0], domain.DefaultSearchOptions())
		close(quit)
		_ = bar.Finish()
		if err != nil {
			return err
		}
		for _, se := range srcErrs {
			log.Warn().Err(se.Err).Int("source_id", se.SourceID).Str("source", se.SourceName).Msg("source failed during search")
		}

		for _, h := range hits {
			fmt.Printf("[%d] %-40s %-20s %-16s score=%.1f\n    %s\n", h.SourceID, h.Title, h.Author, h.LatestChapter, h.Score, h.DetailURL)
		}
		return nil
	},
}

var tocCmd = &cobra.Command{
	Use:   "toc <detail-url>",
	Short: "Fetch and print a novel's normalized table of contents",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sourceID, _ := cmd.Flags().GetInt("source")

		ctx, cancel := interruptContext()
		defer cancel()

		eng, err := newEngine(ctx)
		if err != nil {
			return err
		}
		defer eng.Shutdown()

		ad, ok := eng.Adapter(sourceID)
		if !ok {
			return fmt.Errorf("unknown source id %d", sourceID)
		}

		bar := utils.NewProgressBar(-1, utils.DescExtracting)
		quit := make(chan struct{})
		go func() {
			ticker := time.NewTicker(100 * time.Millisecond)
			defer ticker.Stop()
			for {
				select {
				case <-quit:
					return
				case <-ticker.C:
					_ = bar.Add(1)
				}
			}
		}()

		raw, err := ad.TOC(ctx, args[0])
		var chapters []domain.Chapter
		if err == nil {
			chapters, err = toc.Normalize(raw)
		}
		close(quit)
		_ = bar.Finish()
		if err != nil {
			return err
		}
		for _, ch := range chapters {
			fmt.Printf("%4d  %s\n      %s\n", ch.Order, ch.Title, ch.URL)
		}
		return nil
	},
}

var downloadCmd = &cobra.Command{
	Use:   "download <detail-url>",
	Short: "Download a novel's chapters and assemble the final artifact",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sourceID, _ := cmd.Flags().GetInt("source")
		format, _ := cmd.Flags().GetString("format")

		ctx, cancel := interruptContext()
		defer cancel()

		eng, err := newEngine(ctx)
		if err != nil {
			return err
		}
		defer eng.Shutdown()

		taskID, err := eng.Submit(sourceID, args[0], domain.Format(format))
		if err != nil {
			return err
		}

		return watchProgress(ctx, eng, taskID)
	},
}

func init() {
	for _, cmd := range []*cobra.Command{tocCmd, downloadCmd} {
		cmd.Flags().Int("source", 0, "Source rule id")
	}
	downloadCmd.Flags().String("format", string(domain.FormatTXT), "Output format: txt or epub")
}

func watchProgress(ctx context.Context, eng *engine.Engine, taskID string) error {
	var bar *progressbar.ProgressBar
	var assembling bool
	for {
		task, err := eng.Tasks.Progress(taskID)
		if err != nil {
			return err
		}

		if bar == nil && task.TotalChapters > 0 {
			bar = utils.NewProgressBar(task.TotalChapters, utils.DescDownloading)
		}
		if bar != nil {
			_ = bar.Set(task.CompletedChapters + task.FailedChapters)
		}

		if task.State == domain.StateAssembling && !assembling {
			assembling = true
			if bar != nil {
				_ = bar.Finish()
			}
			bar = utils.NewProgressBar(-1, utils.DescProcessing)
		}
		if assembling && bar != nil {
			_ = bar.Add(1)
		}

		switch task.State {
		case domain.StateReady:
			if bar != nil {
				_ = bar.Finish()
			}
			fmt.Printf("\nready: %s\n", task.ArtifactPath)
			return nil
		case domain.StateFailed:
			if bar != nil {
				_ = bar.Finish()
			}
			return fmt.Errorf("download failed: %s", task.Error)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(200 * time.Millisecond):
		}
	}
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version.Full())
	},
}
