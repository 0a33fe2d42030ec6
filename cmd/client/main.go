package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"text/tabwriter"

	"github.com/jo-hoe/wastesort/internal/client"
	"github.com/jo-hoe/wastesort/internal/client/imageprep"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

const (
	defaultMaxDimension  = 1024
	classifyFailedPrompt = "Failed to classify image. Please try again."
)

type rootOptions struct {
	serverURL string
	verbose   bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "wastesort",
		Short: "Capture client for the smart waste sorting service",
		Long: `Sends photos of waste items to the waste sorting server and prints
the suggested category, confidence and disposal hint.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()
			if opts.serverURL == "" {
				opts.serverURL = os.Getenv(client.ServerURLEnvVar)
			}
			level := slog.LevelWarn
			if opts.verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.serverURL, "server", "s", "",
		fmt.Sprintf("Server base URL (default $%s or %s)", client.ServerURLEnvVar, client.DefaultServerURL))
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")

	cmd.AddCommand(newClassifyCmd(opts))
	cmd.AddCommand(newHealthCmd(opts))
	cmd.AddCommand(newItemsCmd(opts))

	return cmd
}

func newClassifyCmd(opts *rootOptions) *cobra.Command {
	var (
		maxDimension int
		quality      int
		noResize     bool
	)

	cmd := &cobra.Command{
		Use:   "classify <image>",
		Short: "Upload a photo and print its classification",
		Example: `  # Classify a photo using the default server
  wastesort classify bottle.png

  # Keep the original resolution and use a higher JPEG quality
  wastesort classify --no-resize --quality 90 bottle.jpg`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			imageData, err := os.ReadFile(args[0])
			if err != nil {
				return reportClassifyFailure(out, fmt.Errorf("failed to read image: %w", err))
			}

			pipeline, err := imageprep.NewPipelineFromConfig(imageprep.DefaultRegistry,
				preparationSteps(maxDimension, quality, noResize))
			if err != nil {
				return reportClassifyFailure(out, err)
			}
			prepared, err := pipeline.Execute(imageData)
			if err != nil {
				return reportClassifyFailure(out, fmt.Errorf("failed to prepare image: %w", err))
			}

			result, err := client.New(opts.serverURL, nil).Classify(cmd.Context(), prepared)
			if err != nil {
				return reportClassifyFailure(out, err)
			}

			printClassification(out, result)
			return nil
		},
	}

	cmd.Flags().IntVar(&maxDimension, "max-dimension", defaultMaxDimension, "Longest side in pixels after resizing")
	cmd.Flags().IntVarP(&quality, "quality", "q", imageprep.DefaultJPEGQuality, "JPEG quality (1-100)")
	cmd.Flags().BoolVar(&noResize, "no-resize", false, "Upload at the original resolution")

	return cmd
}

func preparationSteps(maxDimension, quality int, noResize bool) []imageprep.CommandConfig {
	steps := make([]imageprep.CommandConfig, 0, 2)
	if !noResize {
		steps = append(steps, imageprep.CommandConfig{
			Name:   imageprep.FitCommandName,
			Params: map[string]any{"maxWidth": maxDimension, "maxHeight": maxDimension},
		})
	}
	return append(steps, imageprep.CommandConfig{
		Name:   imageprep.JPEGCommandName,
		Params: map[string]any{"quality": quality},
	})
}

func reportClassifyFailure(out io.Writer, err error) error {
	_, _ = fmt.Fprintln(out, classifyFailedPrompt)
	return err
}

func printClassification(out io.Writer, result *client.ClassifyResponse) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "Category:\t%s\n", result.Classification.Category)
	_, _ = fmt.Fprintf(w, "Confidence:\t%.0f%%\n", result.Classification.Confidence*100)
	_, _ = fmt.Fprintf(w, "Description:\t%s\n", result.Classification.Description)
	_, _ = fmt.Fprintf(w, "Image:\t%s\n", result.ImageURL)
	_ = w.Flush()
}

func newHealthCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check that the server is reachable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			health, err := client.New(opts.serverURL, nil).Health(cmd.Context())
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", health.Status, health.Message)
			return nil
		},
	}
}

func newItemsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "items",
		Short: "List classified waste items, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := client.New(opts.serverURL, nil).ListWasteItems(cmd.Context())
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			_, _ = fmt.Fprintln(w, "ID\tCATEGORY\tCONFIDENCE\tTIMESTAMP\tRESULT")
			for _, item := range items {
				_, _ = fmt.Fprintf(w, "%d\t%s\t%.0f%%\t%s\t%s\n",
					item.ID, item.Category, item.Confidence*100,
					item.Timestamp.Local().Format("2006-01-02 15:04:05"), item.ClassificationResult)
			}
			return w.Flush()
		},
	}
}
