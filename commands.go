package beethovision

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

// NewCommand creates a Cobra command tree for dataset management.
// The returned command should be added to a parent CLI's root command.
//
// Commands provided:
//   - dataset provision [--keep-archive]
//   - dataset import [name] [--dataset-dir] [--keyboard-bboxes] [--overwrite]
//   - dataset run [name] [--model-asset-path] [--keypoints-field] [--num-samples] [--seed]
//   - dataset export <export-dir> [name] [--field]
//   - dataset list
//   - dataset info <name>
//   - dataset remove <name>
//
// Global flags: --json, --quiet, --verbose
func NewCommand(cfg Config, opts ...ManagerOption) *cobra.Command {
	var (
		jsonOutput bool
		quiet      bool
		verbose    bool
	)

	// Manager will be created in PersistentPreRunE
	var mgr Manager

	cmd := &cobra.Command{
		Use:   "dataset",
		Short: "Manage the beethovision dataset",
		Long:  "Provision, import, annotate, and export the piano-performance video dataset.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Skip manager creation for help commands
			if cmd.Name() == "help" || cmd.Name() == "completion" {
				return nil
			}

			var err error
			mgr, err = NewManager(cfg, opts...)
			if err != nil {
				return fmt.Errorf("failed to initialize manager: %w", err)
			}
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if mgr != nil {
				return mgr.Close()
			}
			return nil
		},
		SilenceUsage: true,
	}

	cmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	cmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Suppress non-essential output")
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")

	// Add subcommands
	cmd.AddCommand(provisionCmd(&mgr, &quiet, &verbose))
	cmd.AddCommand(importCmd(&mgr, &quiet))
	cmd.AddCommand(runCmd(&mgr, &quiet))
	cmd.AddCommand(exportCmd(&mgr, &quiet))
	cmd.AddCommand(listCmd(&mgr, &jsonOutput))
	cmd.AddCommand(infoCmd(&mgr, &jsonOutput))
	cmd.AddCommand(removeCmd(&mgr, &quiet))

	return cmd
}

func provisionCmd(mgr *Manager, quiet, verbose *bool) *cobra.Command {
	var keepArchive bool

	cmd := &cobra.Command{
		Use:   "provision",
		Short: "Download, unpack, and register the dataset",
		Long: "Download the metadata archive, unpack it into the dataset directory, " +
			"register the directory as a dataset, and remove the archive. " +
			"The dataset directory must already exist.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			var opts []ProvisionOption
			if keepArchive {
				opts = append(opts, WithKeepArchive())
			}

			if !*quiet {
				var lastRender time.Time
				opts = append(opts, WithProvisionProgress(func(p ProvisionProgress) {
					switch p.Phase {
					case "download":
						if p.BytesTotal > 0 && time.Since(lastRender) >= 200*time.Millisecond {
							lastRender = time.Now()
							renderDownloadProgress(cmd.OutOrStdout(), p.BytesCompleted, p.BytesTotal)
						}
					case "extract":
						if *verbose && p.CurrentFile != "" {
							fmt.Fprintf(cmd.OutOrStdout(), "Extracting: %s\n", p.CurrentFile)
						}
					case "register":
						fmt.Fprintf(cmd.OutOrStdout(), "\nRegistering dataset from %s\n", p.CurrentFile)
					}
				}))
			}

			ds, err := (*mgr).Provision(ctx, opts...)
			if err != nil {
				return err
			}

			if !*quiet {
				fmt.Fprintf(cmd.OutOrStdout(), "Registered dataset %q (%s) from %s\n", ds.Name, ds.MediaType, ds.SourceDir)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&keepArchive, "keep-archive", false, "Keep the downloaded archive after registration")
	return cmd
}

func importCmd(mgr *Manager, quiet *bool) *cobra.Command {
	var (
		datasetDir string
		boxesFile  string
		boxesField string
		overwrite  bool
	)

	cmd := &cobra.Command{
		Use:   "import [name]",
		Short: "Import media files and keyboard bounding boxes",
		Long: "Create a dataset from the video files in the dataset directory, " +
			"adding session fields, train/test tags, frame metadata, and keyboard " +
			"bounding box detections.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			name := ""
			if len(args) == 1 {
				name = args[0]
			}

			opts := []ImportOption{
				WithBoxesFile(boxesFile),
				WithBoxesField(boxesField),
			}
			if overwrite {
				opts = append(opts, WithOverwrite())
			}
			if !*quiet {
				opts = append(opts, WithImportProgress(func(current string) {
					fmt.Fprintf(cmd.OutOrStdout(), "Importing: %s\n", current)
				}))
			}

			ds, err := (*mgr).Import(ctx, name, datasetDir, opts...)
			if err != nil {
				if errors.Is(err, ErrDatasetExists) {
					fmt.Fprintf(cmd.OutOrStdout(), "Dataset already exists (use --overwrite to replace it)\n")
					return nil
				}
				return err
			}

			if !*quiet {
				fmt.Fprintf(cmd.OutOrStdout(), "Imported %d samples into dataset %q\n", ds.SampleCount, ds.Name)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&datasetDir, "dataset-dir", "", "Directory containing the media files (default: resolved dataset directory)")
	cmd.Flags().StringVar(&boxesFile, "keyboard-bboxes", "rach3_bounding_boxes.json", "Bounding-box predictions file (empty to skip)")
	cmd.Flags().StringVar(&boxesField, "field", DefaultBoxesField, "Frame field to store detections in")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Replace an existing dataset with the same name")
	return cmd
}

func runCmd(mgr *Manager, quiet *bool) *cobra.Command {
	var (
		modelAsset string
		field      string
		numSamples int
		seed       int64
	)

	cmd := &cobra.Command{
		Use:   "run [name]",
		Short: "Run the hand landmarker over a dataset",
		Long: "Run the MediaPipe hand landmarker on every sample of a registered " +
			"dataset, storing per-frame keypoints. The model asset is downloaded " +
			"when no local path is given.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			name := ""
			if len(args) == 1 {
				name = args[0]
			}

			opts := []RunOption{
				WithModelAsset(modelAsset),
				WithKeypointsField(field),
				WithSampleLimit(numSamples),
				WithSeed(seed),
			}
			if !*quiet {
				var lastSample string
				opts = append(opts, WithRunProgress(func(p RunProgress) {
					if p.CurrentSample != "" && p.CurrentSample != lastSample {
						lastSample = p.CurrentSample
						fmt.Fprintf(cmd.OutOrStdout(), "[%d/%d] %s\n", p.SamplesCompleted+1, p.SamplesTotal, p.CurrentSample)
					}
				}))
			}

			if err := (*mgr).RunLandmarks(ctx, name, opts...); err != nil {
				return err
			}

			if !*quiet {
				fmt.Fprintln(cmd.OutOrStdout(), "Done")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&modelAsset, "model-asset-path", "", "Local hand landmarker model asset (default: download)")
	cmd.Flags().StringVar(&field, "keypoints-field", DefaultKeypointsField, "Frame field to store keypoints in")
	cmd.Flags().IntVar(&numSamples, "num-samples", -1, "Process only N samples (-1 for all)")
	cmd.Flags().Int64Var(&seed, "seed", 0x5EED, "Random seed for sampling")
	return cmd
}

func exportCmd(mgr *Manager, quiet *bool) *cobra.Command {
	var field string

	cmd := &cobra.Command{
		Use:   "export <export-dir> [name]",
		Short: "Export per-frame keypoints to JSON",
		Long:  "Write one JSON file per sample into the export directory, each holding the sample's per-frame keypoints.",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			exportDir := args[0]
			name := ""
			if len(args) == 2 {
				name = args[1]
			}

			n, err := (*mgr).Export(ctx, name, exportDir, field)
			if err != nil {
				return err
			}

			if !*quiet {
				fmt.Fprintf(cmd.OutOrStdout(), "Exported %d samples to %s\n", n, exportDir)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&field, "field", DefaultKeypointsField, "Frame field to export keypoints from")
	return cmd
}

func listCmd(mgr *Manager, jsonOutput *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered datasets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			datasets, err := (*mgr).ListDatasets(cmd.Context())
			if err != nil {
				return err
			}
			return outputDatasets(cmd.OutOrStdout(), datasets, *jsonOutput)
		},
	}
}

func infoCmd(mgr *Manager, jsonOutput *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "info <name>",
		Short: "Show dataset information",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			ds, err := (*mgr).GetDataset(ctx, args[0])
			if err != nil {
				return err
			}
			samples, err := (*mgr).ListSamples(ctx, args[0])
			if err != nil {
				return err
			}
			return outputDatasetDetail(cmd.OutOrStdout(), ds, samples, *jsonOutput)
		},
	}
}

func removeCmd(mgr *Manager, quiet *bool) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "remove <name>",
		Short: "Remove a registered dataset",
		Long:  "Remove a dataset and its annotations from the store. Media files on disk are left untouched.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			if !yes {
				fmt.Fprintf(cmd.OutOrStdout(), "Remove dataset %q? [y/N]: ", args[0])
				if !confirmPrompt(cmd.InOrStdin()) {
					fmt.Fprintln(cmd.OutOrStdout(), "Aborted.")
					return nil
				}
			}

			if err := (*mgr).RemoveDataset(ctx, args[0]); err != nil {
				return err
			}

			if !*quiet {
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", args[0])
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip confirmation prompt")
	return cmd
}

// confirmPrompt reads from stdin and returns true only if the user types
// 'y' or 'yes'. Returns false for empty input or any other response.
func confirmPrompt(r io.Reader) bool {
	scanner := bufio.NewScanner(r)
	if scanner.Scan() {
		response := strings.TrimSpace(strings.ToLower(scanner.Text()))
		return response == "y" || response == "yes"
	}
	return false
}

// renderDownloadProgress writes a single-line progress update.
func renderDownloadProgress(w io.Writer, completed, total int64) {
	pct := float64(completed) / float64(total) * 100
	fmt.Fprintf(w, "\rDownloading... %5.1f%% (%s / %s)", pct, formatBytes(completed), formatBytes(total))
}

// formatBytes renders a byte count with a binary unit suffix.
func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

// Output helpers

func outputDatasets(w io.Writer, datasets []Dataset, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(datasets)
	}

	if len(datasets) == 0 {
		fmt.Fprintln(w, "No datasets registered")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tTYPE\tSAMPLES\tSOURCE\tCREATED")
	for _, ds := range datasets {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n",
			ds.Name, ds.MediaType, ds.SampleCount, ds.SourceDir,
			ds.CreatedAt.Format("2006-01-02 15:04"))
	}
	return tw.Flush()
}

func outputDatasetDetail(w io.Writer, ds Dataset, samples []Sample, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			Dataset Dataset  `json:"dataset"`
			Samples []Sample `json:"samples"`
		}{ds, samples})
	}

	fmt.Fprintf(w, "Name:    %s\n", ds.Name)
	fmt.Fprintf(w, "Type:    %s\n", ds.MediaType)
	fmt.Fprintf(w, "Source:  %s\n", ds.SourceDir)
	fmt.Fprintf(w, "Samples: %d\n", ds.SampleCount)
	fmt.Fprintf(w, "Created: %s\n", ds.CreatedAt.Format(time.RFC3339))

	if len(samples) == 0 {
		return nil
	}

	fmt.Fprintln(w)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SESSION\tFILE\tFRAMES\tTAGS")
	for _, s := range samples {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n",
			s.Session, s.Filepath, s.Media.FrameCount, strings.Join(s.Tags, ","))
	}
	return tw.Flush()
}
