// Command tendril grows a branching tree in the terminal, steered by
// token choices from an LLM option service.
package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/kingrea/tendril/internal/config"
	"github.com/kingrea/tendril/internal/logging"
	"github.com/kingrea/tendril/internal/noise"
	"github.com/kingrea/tendril/internal/sim"
	"github.com/kingrea/tendril/internal/tokens"
	"github.com/kingrea/tendril/internal/tui"
)

var flags struct {
	configPath   string
	prompt       string
	url          string
	alternatives int
	temperature  float64
	seed         int64
	uniformField bool
	debug        bool
}

var rootCmd = &cobra.Command{
	Use:   "tendril",
	Short: "Interactive token tree grown by space colonization",
	Long: `Tendril connects to a token option service, offers you the ranked
alternatives for the next token, and grows an organic branch toward the
one you pick while the roads not taken keep creeping in the background.`,
	RunE:          run,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	f := rootCmd.Flags()
	f.StringVar(&flags.configPath, "config", "tendril.yaml", "path to a YAML config file")
	f.StringVarP(&flags.prompt, "prompt", "p", "", "initial prompt (overrides config)")
	f.StringVar(&flags.url, "url", "", "option service websocket URL (overrides config)")
	f.IntVarP(&flags.alternatives, "alternatives", "n", 0, "preferred option count (overrides config)")
	f.Float64VarP(&flags.temperature, "temperature", "t", 0, "sampling temperature (overrides config)")
	f.Int64Var(&flags.seed, "seed", 0, "noise seed (overrides config)")
	f.BoolVar(&flags.uniformField, "uniform-field", false, "seed attractors uniformly instead of noise-clustered")
	f.BoolVar(&flags.debug, "debug", false, "enable debug logging")
}

func run(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return err
	}
	applyFlagOverrides(cmd, &cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	log, tail, closeLog, err := logging.New(cfg.Log.Path, cfg.Log.Debug)
	if err != nil {
		return err
	}
	defer closeLog()
	defer func() { _ = log.Sync() }()

	var clientOpts []tokens.ClientOption
	clientOpts = append(clientOpts, tokens.WithTemperature(cfg.Service.Temperature))
	if cfg.Service.Reconnect {
		clientOpts = append(clientOpts, tokens.WithReconnect(cfg.ReconnectInterval()))
	}
	client := tokens.NewClient(cfg.Service.URL, log, clientOpts...)

	simulation, err := sim.New(cfg, log, client, noise.NewSimplex(cfg.Seed))
	if err != nil {
		return err
	}

	log.Infow("starting session",
		"prompt", cfg.Prompt,
		"service", cfg.Service.URL,
		"attractors", cfg.Field.Count,
	)

	program := tea.NewProgram(
		tui.NewApp(simulation, client, log, tail),
		tea.WithAltScreen(),
	)
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("tendril: run TUI: %w", err)
	}
	return nil
}

// applyFlagOverrides lets explicit CLI flags win over the config file.
func applyFlagOverrides(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("prompt") {
		cfg.Prompt = flags.prompt
	}
	if cmd.Flags().Changed("url") {
		cfg.Service.URL = flags.url
	}
	if cmd.Flags().Changed("alternatives") {
		cfg.Session.Alternatives = flags.alternatives
	}
	if cmd.Flags().Changed("temperature") {
		cfg.Service.Temperature = flags.temperature
	}
	if cmd.Flags().Changed("seed") {
		cfg.Seed = flags.seed
	}
	if cmd.Flags().Changed("uniform-field") {
		cfg.Field.Clustered = !flags.uniformField
	}
	if cmd.Flags().Changed("debug") {
		cfg.Log.Debug = flags.debug
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
