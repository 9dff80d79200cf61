// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package batch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/pdiddy/post-engine/pkg/types"
)

// scriptedStages drives the orchestrator with canned per-attempt outcomes.
type scriptedStages struct {
	planned     []string // titles handed out in order
	failDraft   map[string]bool
	failGate    map[string]bool
	failPublish map[string]bool

	planCalls [][]string // excluded list seen by each Plan call
	published []string
}

func (s *scriptedStages) Plan(_ context.Context, excluded []string) (types.TopicSelection, error) {
	s.planCalls = append(s.planCalls, append([]string(nil), excluded...))

	banned := make(map[string]bool, len(excluded))
	for _, t := range excluded {
		banned[t] = true
	}
	for _, title := range s.planned {
		if !banned[title] {
			return types.TopicSelection{
				Selected: types.SelectedTopic{Title: title, Angle: "angle"},
			}, nil
		}
	}
	return types.TopicSelection{}, errors.New("no candidates remain")
}

func (s *scriptedStages) Research(_ context.Context, topic types.SelectedTopic) (types.ResearchBundle, error) {
	return types.ResearchBundle{Topic: topic.Title}, nil
}

func (s *scriptedStages) Draft(_ context.Context, bundle types.ResearchBundle) (types.Article, error) {
	if s.failDraft[bundle.Topic] {
		return types.Article{}, errors.New("draft blew up")
	}
	return types.Article{Title: bundle.Topic, Slug: "slug"}, nil
}

func (s *scriptedStages) Gate(_ context.Context, article types.Article) (types.QualityReport, error) {
	if s.failGate[article.Title] {
		return types.QualityReport{Pass: false, Score: 40, Reasons: []string{"minimum word count not met (10 < 900)"}}, nil
	}
	return types.QualityReport{Pass: true, Score: 100}, nil
}

func (s *scriptedStages) Publish(_ context.Context, article types.Article, report types.QualityReport) (string, error) {
	if s.failPublish[article.Title] {
		return "", errors.New("disk full")
	}
	path := "content/posts/" + article.Slug + ".mdx"
	s.published = append(s.published, article.Title)
	return path, nil
}

func TestRunPublishesTarget(t *testing.T) {
	stages := &scriptedStages{planned: []string{"Topic A", "Topic B", "Topic C"}}
	runner := NewRunner(stages, types.BatchConfig{TargetCount: 2}, &bytes.Buffer{})

	result, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if result.Successes != 2 || result.Attempts != 2 {
		t.Errorf("result = %+v", result)
	}
	if len(result.Published) != 2 {
		t.Errorf("published = %v", result.Published)
	}
	if stages.published[0] != "Topic A" || stages.published[1] != "Topic B" {
		t.Errorf("published order = %v", stages.published)
	}
}

func TestRunExhaustsBudget(t *testing.T) {
	// Nine distinct topics, every one failing the gate: a target of three
	// gets exactly 3x3 attempts and zero successes.
	var planned []string
	failGate := make(map[string]bool)
	for i := 1; i <= 12; i++ {
		title := fmt.Sprintf("Topic %d", i)
		planned = append(planned, title)
		failGate[title] = true
	}
	stages := &scriptedStages{planned: planned, failGate: failGate}
	var log bytes.Buffer
	runner := NewRunner(stages, types.BatchConfig{TargetCount: 3}, &log)

	result, err := runner.Run(context.Background())
	if err == nil {
		t.Fatal("exhaustion must be a hard error")
	}
	if result.Attempts != 9 || result.Successes != 0 {
		t.Errorf("result = %+v", result)
	}
	if !strings.Contains(err.Error(), "published 0 of 3 after 9 attempts") {
		t.Errorf("err = %v", err)
	}
	if !strings.Contains(log.String(), "quality gate failed") {
		t.Errorf("gate reasons missing from log: %q", log.String())
	}
}

func TestRunExcludesFailedTitles(t *testing.T) {
	// Topic A fails drafting; the next attempt must not re-select it.
	stages := &scriptedStages{
		planned:   []string{"Topic A", "Topic B"},
		failDraft: map[string]bool{"Topic A": true},
	}
	runner := NewRunner(stages, types.BatchConfig{TargetCount: 1}, &bytes.Buffer{})

	result, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Attempts != 2 || result.Successes != 1 {
		t.Errorf("result = %+v", result)
	}

	if len(stages.planCalls) != 2 {
		t.Fatalf("plan calls = %d", len(stages.planCalls))
	}
	if len(stages.planCalls[0]) != 0 {
		t.Errorf("first plan call saw exclusions: %v", stages.planCalls[0])
	}
	if len(stages.planCalls[1]) != 1 || stages.planCalls[1][0] != "Topic A" {
		t.Errorf("second plan call exclusions = %v", stages.planCalls[1])
	}
	if stages.published[0] != "Topic B" {
		t.Errorf("published = %v", stages.published)
	}
}

func TestRunExcludesSucceededTitles(t *testing.T) {
	stages := &scriptedStages{planned: []string{"Topic A", "Topic B"}}
	runner := NewRunner(stages, types.BatchConfig{TargetCount: 2}, &bytes.Buffer{})

	if _, err := runner.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if stages.published[1] == stages.published[0] {
		t.Error("a published title was selected twice")
	}
}

func TestRunAttemptsPerPostOverride(t *testing.T) {
	stages := &scriptedStages{
		planned:  []string{"Topic A", "Topic B"},
		failGate: map[string]bool{"Topic A": true, "Topic B": true},
	}
	runner := NewRunner(stages, types.BatchConfig{TargetCount: 1, AttemptsPerPost: 2}, &bytes.Buffer{})

	result, err := runner.Run(context.Background())
	if err == nil {
		t.Fatal("expected exhaustion")
	}
	if result.Attempts != 2 {
		t.Errorf("attempts = %d, want 2", result.Attempts)
	}
}

func TestRunPlanFailureConsumesAttempt(t *testing.T) {
	// One topic, target one, gate fails it. The second and third attempts
	// fail planning because everything is excluded; the budget still burns
	// down to exhaustion instead of looping forever.
	stages := &scriptedStages{
		planned:  []string{"Topic A"},
		failGate: map[string]bool{"Topic A": true},
	}
	runner := NewRunner(stages, types.BatchConfig{TargetCount: 1}, &bytes.Buffer{})

	result, err := runner.Run(context.Background())
	if err == nil {
		t.Fatal("expected exhaustion")
	}
	if result.Attempts != 3 {
		t.Errorf("attempts = %d, want 3", result.Attempts)
	}
}

func TestRunContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	stages := &scriptedStages{planned: []string{"Topic A"}}
	runner := NewRunner(stages, types.BatchConfig{TargetCount: 1}, &bytes.Buffer{})

	if _, err := runner.Run(ctx); err == nil {
		t.Error("cancelled context must abort the batch")
	}
}
