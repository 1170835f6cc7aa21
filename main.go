// Command wallcal samples LED wall calibration plates: it aligns the
// recorded patch sequence in time, detects each wall's region of interest,
// extracts the patch samples for the colorimetric solver and grades solver
// results with the configuration and validation rule engines.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/lmittmann/tint"

	"wallcal/internal/macbeth"
	"wallcal/internal/process"
	"wallcal/internal/rules"
	"wallcal/internal/sequence"
	"wallcal/internal/settings"
	"wallcal/internal/slate"
	"wallcal/internal/version"
)

func main() {
	projectPath := flag.String("project", "", "Path to the calibration project JSON file")
	outputPath := flag.String("output", "samples.json", "Path to write the sampled measurements to")
	resultsPath := flag.String("results", "", "Path to solver results JSON; runs the rule engines instead of sampling")
	verifySlates := flag.Bool("verify-slates", false, "OCR the slate frames and warn on wall name mismatches")
	verbose := flag.Bool("v", false, "Enable debug logging")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("wallcal %s\n", version.String())
		return
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(
		tint.NewHandler(os.Stderr, &tint.Options{
			Level:      level,
			TimeFormat: "15:04:05",
		}),
	)
	slog.SetDefault(logger)

	if *resultsPath != "" {
		if err := runRules(logger, *resultsPath); err != nil {
			logger.Error("rule checks failed", "error", err)
			os.Exit(1)
		}
		return
	}

	if *projectPath == "" {
		fmt.Fprintln(os.Stderr, "Usage: wallcal -project <project.json> [-output samples.json]")
		fmt.Fprintln(os.Stderr, "       wallcal -results <results.json>")
		os.Exit(1)
	}

	if err := runSampling(logger, *projectPath, *outputPath, *verifySlates); err != nil {
		logger.Error("sampling failed", "error", err)
		os.Exit(1)
	}
}

func runSampling(logger *slog.Logger, projectPath, outputPath string, verifySlates bool) error {
	project, err := settings.Load(projectPath)
	if err != nil {
		return fmt.Errorf("load project: %w", err)
	}
	logger.Info("loaded project", "name", project.Name, "walls", len(project.Walls))

	sequences := make(map[string]sequence.Sequence, len(project.Walls))
	for _, wall := range project.Walls {
		folder := project.SequencePath(projectPath, wall)
		if folder == "" {
			return fmt.Errorf("wall %q has no sequence folder", wall.Name)
		}

		loader, err := sequence.Load(folder)
		if err != nil {
			return fmt.Errorf("load sequence for wall %q: %w", wall.Name, err)
		}
		logger.Info("loaded sequence", "wall", wall.Name,
			"start", loader.StartFrame(), "end", loader.EndFrame())
		sequences[wall.Name] = loader
	}

	runner := &process.Runner{
		Project:   project,
		Sequences: sequences,
		Detect:    macbeth.DetectSwatches,
		Log:       logger,
	}

	if verifySlates {
		reader, err := slate.NewReader()
		if err != nil {
			return fmt.Errorf("init slate reader: %w", err)
		}
		defer reader.Close()
		runner.Slate = reader
	}

	sets, err := runner.RunAll()
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(sets, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(outputPath, data, 0644); err != nil {
		return err
	}
	logger.Info("wrote samples", "path", outputPath)
	return nil
}

// runRules loads a solver result set and prints the configuration
// recommendations and validation grades.
func runRules(logger *slog.Logger, resultsPath string) error {
	data, err := os.ReadFile(resultsPath)
	if err != nil {
		return err
	}

	var results rules.CalibrationResults
	if err := json.Unmarshal(data, &results); err != nil {
		return fmt.Errorf("parse solver results: %w", err)
	}

	for _, rec := range rules.NewConfiguration().Run(&results) {
		logger.Info("configuration recommendation", "param", rec.Param, "value", rec.Value)
	}

	failed := false
	for _, v := range rules.NewValidation().Run(&results) {
		switch v.Status {
		case rules.StatusFail:
			failed = true
			logger.Error("validation failed", "check", v.Name, "message", v.Message)
		case rules.StatusWarning:
			logger.Warn("validation warning", "check", v.Name, "message", v.Message)
		default:
			logger.Info("validation passed", "check", v.Name)
		}
	}

	if failed {
		return fmt.Errorf("one or more validation checks failed")
	}
	return nil
}
