package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/preeclampsia-risk-mcp/internal/config"
	"github.com/preeclampsia-risk-mcp/internal/domain"
	"github.com/preeclampsia-risk-mcp/internal/history"
	"github.com/preeclampsia-risk-mcp/internal/model"
	"github.com/preeclampsia-risk-mcp/internal/service"
	"github.com/preeclampsia-risk-mcp/internal/setup"
)

const defaultModelPath = "models/preeclampsia_v1.json"

type rootOptions struct {
	modelPath string
	logLevel  string
	format    string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:          "preeclampsia",
		Short:        "Preeclampsia risk assessment with POGI guidance",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&opts.modelPath, "model", envOr("PE_MODEL_PATH", defaultModelPath), "model artifact (.json or .yaml)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "log level: debug, info, warn, error")
	root.PersistentFlags().StringVarP(&opts.format, "output", "o", "json", "output format: json or text")

	root.AddCommand(
		newAssessCmd(opts),
		newDefaultsCmd(opts),
		newModelCmd(opts),
		newRecommendCmd(opts),
		newSetupCmd(),
	)
	return root
}

func (o *rootOptions) logger(cmd *cobra.Command) *logrus.Logger {
	logger := config.NewLogger(domain.LoggingConfig{Level: o.logLevel, Format: "text", Output: "stderr"})
	logger.SetOutput(cmd.ErrOrStderr())
	return logger
}

func newAssessCmd(opts *rootOptions) *cobra.Command {
	var (
		input       string
		lang        string
		patientRef  string
		historyPath string
	)

	cmd := &cobra.Command{
		Use:   "assess",
		Short: "Classify an observation read from a JSON or YAML file",
		Long: "Reads an observation (or {\"observation\": ...} request) from --input, " +
			"or from stdin when --input is \"-\", and prints the assessment.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			logger := opts.logger(cmd)

			req, err := readRequest(cmd.InOrStdin(), input)
			if err != nil {
				return err
			}
			if lang != "" {
				req.Language = lang
			}
			if patientRef != "" {
				req.PatientRef = patientRef
			}

			predictor, err := loadPredictor(ctx, opts.modelPath, logger)
			if err != nil {
				return err
			}

			var recorder domain.AssessmentRecorder
			if historyPath != "" {
				store, err := history.NewSQLiteStore(historyPath)
				if err != nil {
					return err
				}
				defer store.Close()
				recorder = store
			}

			svc := service.NewAssessmentService(logger, predictor, nil, recorder, nil)
			result, err := svc.Assess(ctx, req)
			if err != nil {
				return err
			}

			if opts.format == "text" {
				return printAssessment(cmd.OutOrStdout(), result)
			}
			return printJSON(cmd.OutOrStdout(), result)
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "observation file, or - for stdin")
	cmd.Flags().StringVar(&lang, "lang", "", "guidance language: en or id")
	cmd.Flags().StringVar(&patientRef, "patient-ref", "", "opaque patient reference")
	cmd.Flags().StringVar(&historyPath, "history", "", "record the assessment in this SQLite database")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

func newDefaultsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "defaults",
		Short: "Print the reference observation with normal values",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return printJSON(cmd.OutOrStdout(), domain.DefaultFieldSet())
		},
	}
}

func newModelCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "model",
		Short: "Work with model artifacts",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "inspect",
		Short: "Validate an artifact and print its metadata and feature contract",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := model.LoadArtifactPredictor(opts.modelPath)
			if err != nil {
				return err
			}
			info := p.Info()

			if opts.format != "text" {
				return printJSON(cmd.OutOrStdout(), info)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Model:      %s %s\n", info.Name, info.Version)
			fmt.Fprintf(out, "Algorithm:  %s\n", info.Algorithm)
			fmt.Fprintf(out, "Classes:    %s\n", strings.Join(info.Classes, ", "))
			fmt.Fprintf(out, "Vocabulary: %s\n", info.VocabularyVersion)
			fmt.Fprintln(out, "Features:")
			for i, name := range info.FeatureNames {
				fmt.Fprintf(out, "  %2d  %s\n", i, name)
			}
			return nil
		},
	})
	return cmd
}

func newRecommendCmd(opts *rootOptions) *cobra.Command {
	var lang string

	cmd := &cobra.Command{
		Use:   "recommend <category>",
		Short: "Print POGI guidance for normal, mild or severe",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			category, err := domain.ParseDiagnosisCategory(args[0])
			if err != nil {
				return err
			}
			rec := service.NewRecommendationEngine(domain.ParseLanguage(lang)).Recommend(category)

			if opts.format == "text" {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), rec.Text)
				return err
			}
			return printJSON(cmd.OutOrStdout(), rec)
		},
	}
	cmd.Flags().StringVar(&lang, "lang", "en", "guidance language: en or id")
	return cmd
}

func newSetupCmd() *cobra.Command {
	var opts setup.Options

	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Register the lite MCP server with Claude Desktop",
	}
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config-path", "", "client config file (default: platform location)")

	desktop := &cobra.Command{
		Use:   "desktop",
		Short: "Add or update the server entry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if opts.ModelPath != "" {
				abs, err := filepath.Abs(opts.ModelPath)
				if err != nil {
					return err
				}
				opts.ModelPath = abs
			}
			path, err := setup.Configure(opts)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Registered %s in %s\n", setup.ServerName, path)
			return nil
		},
	}
	desktop.Flags().StringVar(&opts.BinaryPath, "binary", "", "path to mcp-server-lite")
	desktop.Flags().StringVar(&opts.DataDir, "data-dir", "", "data directory for history and exports")
	desktop.Flags().StringVar(&opts.ModelPath, "model-path", "", "model artifact for the server")
	desktop.Flags().StringVar(&opts.Language, "lang", "", "default guidance language")

	status := &cobra.Command{
		Use:   "status",
		Short: "Show the registration and any problems",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, err := setup.GetStatus(opts.ConfigPath)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), st)
		},
	}

	cmd.AddCommand(desktop, status)
	return cmd
}

func loadPredictor(ctx context.Context, path string, logger *logrus.Logger) (domain.Predictor, error) {
	return model.NewPredictor(ctx, domain.ModelConfig{Backend: model.BackendFile, ArtifactPath: path}, nil, logger)
}

// readRequest accepts a bare observation or a full request, as JSON or YAML.
func readRequest(stdin io.Reader, input string) (*service.AssessmentRequest, error) {
	var (
		data []byte
		err  error
	)
	if input == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(input)
	}
	if err != nil {
		return nil, fmt.Errorf("reading observation: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(input))
	if ext == ".yaml" || ext == ".yml" {
		if data, err = yamlToJSON(data); err != nil {
			return nil, fmt.Errorf("parsing observation: %w", err)
		}
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("parsing observation: %w", err)
	}

	req := &service.AssessmentRequest{}
	if _, wrapped := envelope["observation"]; wrapped {
		err = json.Unmarshal(data, req)
	} else {
		err = json.Unmarshal(data, &req.Observation)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing observation: %w", err)
	}
	return req, nil
}

// yamlToJSON lets YAML input reuse the JSON decoders for form answers.
func yamlToJSON(data []byte) ([]byte, error) {
	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return json.Marshal(doc)
}

func printAssessment(w io.Writer, r *domain.AssessmentResult) error {
	var b bytes.Buffer
	fmt.Fprintf(&b, "Assessment: %s\n", r.ID)
	fmt.Fprintf(&b, "Diagnosis:  %s (%s)\n", r.CategoryLabel, r.Category)
	fmt.Fprintf(&b, "BMI:        %.2f\n", r.BMI)
	fmt.Fprintf(&b, "Model:      %s %s\n\n", r.Model.Name, r.Model.Version)
	fmt.Fprintf(&b, "%s (%s)\n%s\n", r.Recommendation.Title, r.Recommendation.Source, r.Recommendation.Text)
	_, err := w.Write(b.Bytes())
	return err
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
