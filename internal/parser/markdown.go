// Package parser turns plan markdown into the project tree and synchronizes
// completion status back into the source documents.
package parser

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/drover-cli/drover/pkg/models"
)

var (
	headingPattern     = regexp.MustCompile(`^#\s+(?:Project:\s*)?(.+?)\s*$`)
	phasePattern       = regexp.MustCompile(`^##\s+(.+?)\s*$`)
	phaseNumberPattern = regexp.MustCompile(`^Phase\s+(\d+)[:\s]*(.*)$`)
	checkboxPattern    = regexp.MustCompile(`^(\s*)-\s+\[([ xX])\]\s+(?:([A-Z]+-\d+)[:\s]+)?(.+?)\s*$`)
	priorityPattern    = regexp.MustCompile(`(?i)^\s*-?\s*Priority:\s*(\d+|high|medium|low)\s*$`)
	dependencyPattern  = regexp.MustCompile(`(?i)^\s*-?\s*Dependenc(?:y|ies):\s*(.+?)\s*$`)
	descriptionPattern = regexp.MustCompile(`^\s*-?\s*Description:\s*(.+?)\s*$`)
)

// ParseFile parses a single plan markdown file into a project tree.
func ParseFile(path string) (*models.Project, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading plan file: %w", err)
	}
	project := parseContent(string(content), path)
	if project.TotalTasks() == 0 {
		return nil, fmt.Errorf("no tasks found in %s", path)
	}
	return project, nil
}

// ParseDirectory parses every .md file in a directory, in name order, into
// one combined project. Phase priorities follow file order so earlier files
// run first.
func ParseDirectory(dir string) (*models.Project, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.md"))
	if err != nil {
		return nil, fmt.Errorf("globbing plan directory: %w", err)
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("no markdown files found in %s", dir)
	}
	sort.Strings(matches)

	now := time.Now().UTC()
	project := &models.Project{
		Name:      filepath.Base(dir),
		Status:    models.ProjectPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	phasePriority := 0
	for _, path := range matches {
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading plan file: %w", err)
		}
		parsed := parseContent(string(content), path)
		project.SourceFiles = append(project.SourceFiles, path)
		for _, phase := range parsed.Phases {
			phase.Priority = phasePriority
			phasePriority++
			project.Phases = append(project.Phases, phase)
		}
	}
	if project.TotalTasks() == 0 {
		return nil, fmt.Errorf("no tasks found in %s", dir)
	}
	project.UpdateStatus()
	return project, nil
}

// ProjectFromPrompt builds a minimal single-task project from free-form
// prompt text, so `drover run --prompt` shares the same loop as plan files.
func ProjectFromPrompt(prompt string) *models.Project {
	now := time.Now().UTC()
	name := strings.TrimSpace(prompt)
	if len(name) > 60 {
		name = name[:60]
	}
	project := &models.Project{
		Name:      name,
		Status:    models.ProjectPending,
		CreatedAt: now,
		UpdatedAt: now,
		Phases: []models.Phase{{
			ID:   "phase-1",
			Name: "Prompt",
			Tasks: []models.Task{{
				ID:          "TASK-101",
				Name:        name,
				Description: strings.TrimSpace(prompt),
				Status:      models.StatusPending,
				PhaseID:     "phase-1",
			}},
		}},
	}
	project.UpdateStatus()
	return project
}

func parseContent(content, sourceFile string) *models.Project {
	now := time.Now().UTC()
	project := &models.Project{
		Name:      "Unnamed Project",
		Status:    models.ProjectPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if sourceFile != "" {
		project.SourceFiles = []string{sourceFile}
	}

	lines := strings.Split(content, "\n")
	var currentPhase *models.Phase
	var currentTask *models.Task
	nameSet := false

	flushPhase := func() {
		if currentPhase != nil {
			project.Phases = append(project.Phases, *currentPhase)
		}
		currentPhase = nil
		currentTask = nil
	}

	for lineNum, line := range lines {
		if !nameSet {
			if m := headingPattern.FindStringSubmatch(line); m != nil {
				project.Name = m[1]
				nameSet = true
				continue
			}
		}

		if m := phasePattern.FindStringSubmatch(line); m != nil {
			flushPhase()
			phaseName := m[1]
			phaseID := fmt.Sprintf("phase-%d", len(project.Phases)+1)
			if nm := phaseNumberPattern.FindStringSubmatch(phaseName); nm != nil {
				phaseID = "phase-" + nm[1]
				if nm[2] != "" {
					phaseName = strings.TrimSpace(nm[2])
				}
			}
			currentPhase = &models.Phase{
				ID:       phaseID,
				Name:     phaseName,
				Priority: len(project.Phases),
			}
			continue
		}

		if m := checkboxPattern.FindStringSubmatch(line); m != nil && currentPhase != nil {
			status := models.StatusPending
			if strings.EqualFold(m[2], "x") {
				status = models.StatusCompleted
			}
			id := m[3]
			if id == "" {
				id = fmt.Sprintf("task-%d-%d", len(project.Phases)+1, len(currentPhase.Tasks)+1)
			}
			task := models.Task{
				ID:         id,
				Name:       m[4],
				Status:     status,
				Priority:   len(currentPhase.Tasks),
				PhaseID:    currentPhase.ID,
				SourceFile: sourceFile,
				SourceLine: lineNum + 1,
			}
			currentPhase.Tasks = append(currentPhase.Tasks, task)
			currentTask = &currentPhase.Tasks[len(currentPhase.Tasks)-1]
			continue
		}

		if currentTask == nil {
			continue
		}
		if m := priorityPattern.FindStringSubmatch(line); m != nil {
			currentTask.Priority = parsePriority(m[1], currentTask.Priority)
			continue
		}
		if m := dependencyPattern.FindStringSubmatch(line); m != nil {
			for _, dep := range strings.Split(m[1], ",") {
				dep = strings.TrimSpace(dep)
				if dep != "" && !strings.EqualFold(dep, "none") {
					currentTask.Dependencies = append(currentTask.Dependencies, dep)
				}
			}
			continue
		}
		if m := descriptionPattern.FindStringSubmatch(line); m != nil {
			currentTask.Description = m[1]
			continue
		}
	}
	flushPhase()

	project.UpdateStatus()
	return project
}

func parsePriority(value string, fallback int) int {
	switch strings.ToLower(value) {
	case "high":
		return 1
	case "medium":
		return 2
	case "low":
		return 3
	}
	if n, err := strconv.Atoi(value); err == nil {
		return n
	}
	return fallback
}
