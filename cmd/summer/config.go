package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/siherrmann/summer"
	"github.com/siherrmann/summer/core/ilp"
	"github.com/siherrmann/summer/core/resilience"
	"github.com/siherrmann/summer/helper"
	"github.com/siherrmann/summer/model"
	"gopkg.in/yaml.v3"
)

// runConfig is the layout of the -config override file. Keys that are
// missing keep the profile defaults.
type runConfig struct {
	Summary    model.SummaryConfig `yaml:"summary"`
	Resilience resilience.Config   `yaml:"resilience"`
}

// loadConfig starts from the profile defaults, applies the override file at
// path and finally the strategy flags.
func loadConfig(profile, path, expansionStrategy, rankStrategy string) (runConfig, error) {
	summary, ok := model.DefaultConfig(model.Profile(profile))
	if !ok {
		return runConfig{}, helper.NewConfigurationError("load config", "unknown profile %q", profile)
	}
	config := runConfig{
		Summary:    summary,
		Resilience: resilience.DefaultConfig(),
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return runConfig{}, helper.NewError("read config", err)
		}
		if err := yaml.Unmarshal(data, &config); err != nil {
			return runConfig{}, helper.NewError(fmt.Sprintf("decode %s", path), err)
		}
		// The profile decides the word limit rule, the file may not rename it.
		config.Summary.Profile = summary.Profile
	}

	if expansionStrategy != "" {
		config.Summary.Expansion.Strategy = model.ExpansionStrategy(expansionStrategy)
	}
	if rankStrategy != "" {
		config.Summary.Rank.Strategy = model.RankStrategy(rankStrategy)
	}

	if err := config.Summary.Validate(); err != nil {
		return runConfig{}, helper.NewError("load config", err)
	}
	return config, nil
}

// loadQuestions reads a question corpus. JSON files parse as YAML.
func loadQuestions(path string) ([]model.Question, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, helper.NewError("read questions", err)
	}

	var corpus model.QuestionCorpus
	if err := yaml.Unmarshal(data, &corpus); err != nil {
		return nil, helper.NewError(fmt.Sprintf("decode %s", path), err)
	}

	seen := make(map[string]struct{}, len(corpus.Questions))
	for i, q := range corpus.Questions {
		if q.ID == "" {
			return nil, helper.NewConfigurationError("load questions", "question %d has no id", i)
		}
		if _, ok := seen[q.ID]; ok {
			return nil, helper.NewConfigurationError("load questions", "duplicate question id %q", q.ID)
		}
		seen[q.ID] = struct{}{}
	}
	return corpus.Questions, nil
}

// writeSummary writes the summary text of q to <dir>/<name>.sum.
func writeSummary(dir string, q *model.Question, summary *summer.Summary) (string, error) {
	var buf bytes.Buffer
	if summary.Result != nil {
		if err := ilp.WriteSummary(&buf, summary.Result); err != nil {
			return "", err
		}
	}

	path := filepath.Join(dir, q.OutputName()+".sum")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return "", helper.NewError("write summary file", err)
	}
	return path, nil
}
