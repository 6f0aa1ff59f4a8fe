// Package main provides the recipeconv CLI entry point.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/orneryd/recipeconv/pkg/config"
	"github.com/orneryd/recipeconv/pkg/logging"
	"github.com/orneryd/recipeconv/pkg/recipe"
	"github.com/orneryd/recipeconv/pkg/server"
	"github.com/orneryd/recipeconv/pkg/unitgraph"
)

var (
	version = "0.1.0"
	commit  = "dev"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "recipeconv",
		Short: "recipeconv - convert recipe volumes to grams",
		Long: `recipeconv rewrites ingredient lines measured in cups, tablespoons,
teaspoons, ounces and pounds into grams, using a per-ingredient density
table and a graph of unit ratios.

Lines that cannot be converted are printed unchanged.`,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().String("config", "", "Path to a YAML config file")
	rootCmd.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error)")

	// Version command
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "recipeconv v%s (%s)\n", version, commit)
		},
	})

	// Convert command
	convertCmd := &cobra.Command{
		Use:   "convert [file...]",
		Short: "Convert recipe files (stdin when no file is given)",
		RunE:  runConvert,
	}
	convertCmd.Flags().Float64("multiplier", 1, "Scale every amount")
	rootCmd.AddCommand(convertCmd)

	// Line command
	lineCmd := &cobra.Command{
		Use:   "line <ingredient line>",
		Short: "Convert a single ingredient line",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runLine,
	}
	lineCmd.Flags().Float64("multiplier", 1, "Scale the amount")
	rootCmd.AddCommand(lineCmd)

	// Unit command
	unitCmd := &cobra.Command{
		Use:   "unit <from> <to>",
		Short: "Print how many <to> make one <from>",
		Args:  cobra.ExactArgs(2),
		RunE:  runUnit,
	}
	unitCmd.Flags().Float64("multiplier", 1, "Number of <from> units")
	rootCmd.AddCommand(unitCmd)

	// Graph command
	graphCmd := &cobra.Command{
		Use:   "graph",
		Short: "Print the unit graph",
		RunE:  runGraph,
	}
	graphCmd.Flags().Bool("check", false, "Verify that every conversion cycle agrees")
	rootCmd.AddCommand(graphCmd)

	// Serve command
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE:  runServe,
	}
	serveCmd.Flags().String("address", "", "Address to bind (overrides config)")
	serveCmd.Flags().Int("port", 0, "Port to listen on (overrides config)")
	rootCmd.AddCommand(serveCmd)

	// Init command
	rootCmd.AddCommand(&cobra.Command{
		Use:   "init [path]",
		Short: "Write a default config file",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runInit,
	})

	return rootCmd
}

// loadConfig reads --config and --log-level on top of the environment.
func loadConfig(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	path, _ := cmd.Flags().GetString("config")
	level, _ := cmd.Flags().GetString("log-level")

	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}
	if level != "" {
		cfg.Logging.Level = level
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	logger, err := logging.New(cfg.Logging, cmd.ErrOrStderr())
	if err != nil {
		return nil, nil, err
	}
	logger.Debug("configuration loaded", slog.String("config", cfg.String()))
	return cfg, logger, nil
}

func openConverter(cmd *cobra.Command) (*config.Config, *recipe.Converter, *slog.Logger, error) {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, nil, err
	}
	conv, err := recipe.NewFromConfig(cfg, logger)
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, conv, logger, nil
}

// multiplier returns --multiplier when set and the configured default
// otherwise.
func multiplier(cmd *cobra.Command, cfg *config.Config) (float64, error) {
	if !cmd.Flags().Changed("multiplier") {
		return cfg.Conversion.DefaultMultiplier, nil
	}
	m, _ := cmd.Flags().GetFloat64("multiplier")
	if !(m > 0) {
		return 0, fmt.Errorf("multiplier must be positive, got %g", m)
	}
	return m, nil
}

func runConvert(cmd *cobra.Command, args []string) error {
	cfg, conv, logger, err := openConverter(cmd)
	if err != nil {
		return err
	}
	defer conv.Close()

	mult, err := multiplier(cmd, cfg)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	ctx := logging.WithLogger(cmd.Context(), logger)

	if len(args) == 0 {
		text, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("reading stdin: %w", err)
		}
		fmt.Fprintln(out, conv.ConvertRecipeContext(ctx, string(text), mult))
		return nil
	}

	texts := make([]string, len(args))
	for i, path := range args {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		texts[i] = string(data)
	}

	if len(texts) == 1 {
		fmt.Fprintln(out, conv.ConvertRecipeContext(ctx, texts[0], mult))
		return nil
	}

	results, err := conv.ConvertRecipes(ctx, texts, mult)
	if err != nil {
		return err
	}
	for i, res := range results {
		if i > 0 {
			fmt.Fprintln(out)
		}
		fmt.Fprintf(out, "==> %s <==\n%s\n", args[i], res)
	}
	return nil
}

func runLine(cmd *cobra.Command, args []string) error {
	cfg, conv, _, err := openConverter(cmd)
	if err != nil {
		return err
	}
	defer conv.Close()

	mult, err := multiplier(cmd, cfg)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), conv.ConvertLine(strings.Join(args, " "), mult))
	return nil
}

func runUnit(cmd *cobra.Command, args []string) error {
	cfg, conv, _, err := openConverter(cmd)
	if err != nil {
		return err
	}
	defer conv.Close()

	mult, err := multiplier(cmd, cfg)
	if err != nil {
		return err
	}
	value := conv.ConvertUnitToUnit(args[0], args[1], mult)
	if value == unitgraph.Unresolved {
		return fmt.Errorf("no conversion from %q to %q", args[0], args[1])
	}
	fmt.Fprintln(cmd.OutOrStdout(), strconv.FormatFloat(value, 'g', -1, 64))
	return nil
}

func runGraph(cmd *cobra.Command, args []string) error {
	cfg, conv, _, err := openConverter(cmd)
	if err != nil {
		return err
	}
	defer conv.Close()

	check, _ := cmd.Flags().GetBool("check")
	g := conv.Resolver().Graph()
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "units: %d  edges: %d  fingerprint: %s\n", g.NodeCount(), g.EdgeCount(), unitgraph.Fingerprint(g))
	for _, n := range g.Nodes() {
		fmt.Fprintf(out, "%3d  %s\n", n.ID, n.Label)
	}
	for _, e := range g.Edges() {
		src, _ := g.Label(e.Src)
		dst, _ := g.Label(e.Dst)
		fmt.Fprintf(out, "%s -> %s  %s\n", src, dst, strconv.FormatFloat(e.Weight, 'g', -1, 64))
	}

	if check {
		if err := unitgraph.CheckConsistency(g, cfg.Conversion.ConsistencyTolerance); err != nil {
			return err
		}
		fmt.Fprintln(out, "consistent")
	}
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, conv, logger, err := openConverter(cmd)
	if err != nil {
		return err
	}
	defer conv.Close()

	if address, _ := cmd.Flags().GetString("address"); address != "" {
		cfg.Server.Address = address
	}
	if port, _ := cmd.Flags().GetInt("port"); port != 0 {
		cfg.Server.Port = port
	}

	serverConfig := server.DefaultConfig()
	serverConfig.Address = cfg.Server.Address
	serverConfig.Port = cfg.Server.Port
	serverConfig.DefaultMultiplier = cfg.Conversion.DefaultMultiplier
	serverConfig.RateLimit = cfg.Server.RateLimit
	serverConfig.RateBurst = cfg.Server.RateBurst

	httpServer, err := server.New(conv, serverConfig, logger)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}
	if err := httpServer.Start(); err != nil {
		return fmt.Errorf("starting server: %w", err)
	}
	logger.Info("recipeconv ready", slog.String("version", version), slog.String("config", cfg.String()))

	// Block until shutdown signal
	<-cmd.Context().Done()

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Stop(ctx); err != nil {
		return fmt.Errorf("stopping server: %w", err)
	}
	return nil
}

func runInit(cmd *cobra.Command, args []string) error {
	path := "recipeconv.yaml"
	if len(args) == 1 {
		path = args[0]
	}
	if err := config.WriteDefault(path); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
	return nil
}
