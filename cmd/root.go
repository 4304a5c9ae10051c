package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/zjrosen/citehint/internal/app"
	"github.com/zjrosen/citehint/internal/config"
	"github.com/zjrosen/citehint/internal/log"
)

func init() {
	// Force lipgloss/termenv to query terminal background color BEFORE
	// any Bubble Tea program starts. This prevents the terminal's OSC 11
	// response from racing with Bubble Tea's input loop.
	//
	// See: https://github.com/charmbracelet/bubbletea/issues/1036
	_ = lipgloss.HasDarkBackground()
}

var (
	version   = "dev"
	cfgFile   string
	debugFlag bool
	cfg       config.Config
	cfgErr    error
)

var rootCmd = &cobra.Command{
	Use:   "citehint [file]",
	Short: "Dim everything in citation lines except surnames and years",
	Long: `citehint shows a text document with the bibliographic citation lines
dimmed, so that only author surnames and publication years stand out.

Press f to dim, c to clear, t to toggle and s to switch between the
pattern and token strategies.`,
	Version:      version,
	Args:         cobra.MaximumNArgs(1),
	SilenceUsage: true,
	RunE:         runApp,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: ~/.config/citehint/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&debugFlag, "debug", "d", false,
		"write a debug log (path from CITEHINT_LOG, default debug.log)")
	rootCmd.PersistentFlags().String("strategy", "",
		`focus detection strategy: "pattern" or "token"`)
	rootCmd.Flags().Bool("no-watch", false,
		"do not reload when the file changes on disk")

	_ = viper.BindPFlag("strategy", rootCmd.PersistentFlags().Lookup("strategy"))
}

func initConfig() {
	cfg, cfgErr = readConfig(viper.GetViper(), cfgFile)
}

// readConfig loads configuration into v and returns the merged result.
// Lookup order: explicit path, .citehint/config.yaml, then
// ~/.config/citehint/config.yaml. A missing file is not an error.
func readConfig(v *viper.Viper, path string) (config.Config, error) {
	defaults := config.Defaults()
	v.SetDefault("strategy", defaults.Strategy)
	v.SetDefault("opacity", defaults.Opacity)
	v.SetDefault("punctuation", defaults.Punctuation)
	v.SetDefault("workers", defaults.Workers)
	v.SetDefault("match_timeout", defaults.MatchTimeout)
	v.SetDefault("log_level", defaults.LogLevel)
	v.SetDefault("watch.enabled", defaults.Watch.Enabled)
	v.SetDefault("watch.debounce", defaults.Watch.Debounce)
	v.SetDefault("theme.foreground", defaults.Theme.Foreground)
	v.SetDefault("theme.background", defaults.Theme.Background)
	v.SetDefault("cache.enabled", defaults.Cache.Enabled)
	v.SetDefault("cache.ttl", defaults.Cache.TTL)
	v.SetDefault("cache.cleanup_interval", defaults.Cache.CleanupInterval)
	v.SetDefault("tracing.enabled", defaults.Tracing.Enabled)
	v.SetDefault("tracing.exporter", defaults.Tracing.Exporter)
	v.SetDefault("tracing.file_path", defaults.Tracing.FilePath)
	v.SetDefault("tracing.otlp_endpoint", defaults.Tracing.OTLPEndpoint)
	v.SetDefault("tracing.sample_rate", defaults.Tracing.SampleRate)

	v.SetEnvPrefix("CITEHINT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else if _, err := os.Stat(localConfigPath); err == nil {
		v.SetConfigFile(localConfigPath)
	} else {
		if dir := userConfigDir(); dir != "" {
			v.AddConfigPath(dir)
		}
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return defaults, fmt.Errorf("reading config: %w", err)
		}
	}

	var out config.Config
	if err := v.Unmarshal(&out); err != nil {
		return defaults, fmt.Errorf("decoding config: %w", err)
	}
	if err := config.Validate(out); err != nil {
		return out, fmt.Errorf("invalid configuration: %w", err)
	}
	return out, nil
}

const localConfigPath = ".citehint/config.yaml"

func userConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "citehint")
}

func runApp(cmd *cobra.Command, args []string) error {
	if cfgErr != nil {
		return cfgErr
	}
	if err := requireDocument(cmd.InOrStdin(), args, isTerminal); err != nil {
		return err
	}
	cleanupLog, err := initDebugLog(true)
	if err != nil {
		return err
	}
	defer cleanupLog()

	// First run: leave a commented config next to the user's other dotfiles.
	if viper.ConfigFileUsed() == "" && cfgFile == "" {
		if dir := userConfigDir(); dir != "" {
			_ = config.WriteDefaultConfig(filepath.Join(dir, "config.yaml"))
		}
	}

	if noWatch, _ := cmd.Flags().GetBool("no-watch"); noWatch {
		cfg.Watch.Enabled = false
	}

	rt, err := newRuntime(cmd.Context(), cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer rt.Close()

	doc, err := loadDocument(cmd.InOrStdin(), args)
	if err != nil {
		return err
	}

	model, err := app.New(doc, app.Services{
		Config:      cfg,
		NewAnalyzer: rt.Analyzer,
		Renderer:    lipgloss.DefaultRenderer(),
		Cache:       rt.cache,
	})
	if err != nil {
		return err
	}

	p := tea.NewProgram(&model, tea.WithAltScreen())
	_, err = p.Run()

	if closeErr := model.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	if err != nil {
		return fmt.Errorf("running program: %w", err)
	}
	return nil
}

// initDebugLog enables the debug log when --debug or CITEHINT_DEBUG is set.
// The TUI routes Bubble Tea's own logging into the same file.
func initDebugLog(tui bool) (func(), error) {
	if !debugFlag && os.Getenv("CITEHINT_DEBUG") == "" {
		return func() {}, nil
	}
	logPath := os.Getenv("CITEHINT_LOG")
	if logPath == "" {
		logPath = "debug.log"
	}

	var (
		cleanup func()
		err     error
	)
	if tui {
		cleanup, err = log.InitWithTeaLog(logPath, "citehint")
	} else {
		cleanup, err = log.Init(logPath)
	}
	if err != nil {
		return nil, fmt.Errorf("initializing logging: %w", err)
	}
	log.SetMinLevel(log.ParseLevel(cfg.LogLevel))
	log.Info(log.CatConfig, "citehint starting", "version", version, "config", viper.ConfigFileUsed(), "strategy", cfg.Strategy)
	return cleanup, nil
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the version string (called from main with ldflags)
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}
