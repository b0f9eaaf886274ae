package storage

import (
	"fmt"
	"testing"
	"time"

	"pgregory.net/rapid"

	"github.com/drover-cli/drover/pkg/models"
)

func genTaskStatus(t *rapid.T) models.TaskStatus {
	statuses := []models.TaskStatus{
		models.StatusPending, models.StatusInProgress, models.StatusCompleted,
		models.StatusBlocked, models.StatusFailed, models.StatusSkipped,
	}
	return statuses[rapid.IntRange(0, len(statuses)-1).Draw(t, "statusIdx")]
}

func genProject(t *rapid.T) *models.Project {
	nPhases := rapid.IntRange(1, 3).Draw(t, "nPhases")
	project := &models.Project{
		Name:             rapid.StringMatching(`[a-z][a-z0-9 -]{0,30}`).Draw(t, "name"),
		Status:           models.ProjectInProgress,
		CreatedAt:        time.Now().UTC().Truncate(time.Second),
		CurrentIteration: rapid.IntRange(0, 100).Draw(t, "iteration"),
	}

	taskNum := 0
	for p := 0; p < nPhases; p++ {
		phase := models.Phase{
			ID:       fmt.Sprintf("phase-%d", p+1),
			Name:     fmt.Sprintf("Phase %d", p+1),
			Priority: p,
		}
		nTasks := rapid.IntRange(1, 4).Draw(t, fmt.Sprintf("nTasks%d", p))
		for i := 0; i < nTasks; i++ {
			taskNum++
			phase.Tasks = append(phase.Tasks, models.Task{
				ID:        fmt.Sprintf("TASK-%03d", taskNum),
				Name:      rapid.StringMatching(`[a-z ]{1,40}`).Draw(t, fmt.Sprintf("task%dname", taskNum)),
				Status:    genTaskStatus(t),
				Priority:  rapid.IntRange(0, 3).Draw(t, fmt.Sprintf("task%dpri", taskNum)),
				PhaseID:   phase.ID,
				Attempts:  rapid.IntRange(0, 5).Draw(t, fmt.Sprintf("task%dattempts", taskNum)),
				LastError: rapid.StringMatching(`[a-z ]{0,30}`).Draw(t, fmt.Sprintf("task%derr", taskNum)),
			})
		}
		project.Phases = append(project.Phases, phase)
	}
	return project
}

// Any project tree written through Save reloads with every task's identity,
// status, and bookkeeping intact.
func TestStateRoundTripProperty(t *testing.T) {
	root := t.TempDir()
	store := NewStateStore(root)

	rapid.Check(t, func(t *rapid.T) {
		project := genProject(t)
		if err := store.Save("prop01", project); err != nil {
			t.Fatalf("saving: %v", err)
		}
		loaded, err := store.Load("prop01")
		if err != nil {
			t.Fatalf("loading: %v", err)
		}

		if loaded.Name != project.Name {
			t.Fatalf("name mismatch: %q vs %q", loaded.Name, project.Name)
		}
		if loaded.CurrentIteration != project.CurrentIteration {
			t.Fatalf("iteration mismatch: %d vs %d", loaded.CurrentIteration, project.CurrentIteration)
		}
		if loaded.TotalTasks() != project.TotalTasks() {
			t.Fatalf("task count mismatch: %d vs %d", loaded.TotalTasks(), project.TotalTasks())
		}
		for i := range project.Phases {
			for j := range project.Phases[i].Tasks {
				orig := &project.Phases[i].Tasks[j]
				got := loaded.TaskByID(orig.ID)
				if got == nil {
					t.Fatalf("task %s lost in round trip", orig.ID)
				}
				if got.Status != orig.Status || got.Attempts != orig.Attempts {
					t.Fatalf("task %s bookkeeping mismatch: %+v vs %+v", orig.ID, got, orig)
				}
				if got.Name != orig.Name || got.LastError != orig.LastError {
					t.Fatalf("task %s fields mismatch: %+v vs %+v", orig.ID, got, orig)
				}
			}
		}
	})
}
