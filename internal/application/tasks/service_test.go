package tasks_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/menuforge/v1/internal/application/planner"
	"github.com/menuforge/v1/internal/application/tasks"
	"github.com/menuforge/v1/internal/domain/catalog"
	"github.com/menuforge/v1/internal/domain/job"
	"github.com/menuforge/v1/internal/domain/plan"
	catalogAdapter "github.com/menuforge/v1/internal/infrastructure/catalog"
	"github.com/menuforge/v1/internal/infrastructure/monitoring"
	"github.com/menuforge/v1/internal/infrastructure/persistence/memory"
	"github.com/menuforge/v1/internal/ports/inbound"
	"github.com/menuforge/v1/test/testutils"
)

func newTaskService(t *testing.T, snap *catalog.Snapshot) (*tasks.Service, *planner.Service) {
	t.Helper()
	repo := memory.NewJobRepository(time.Hour, time.Minute)
	t.Cleanup(repo.Close)

	p := planner.NewService(
		catalogAdapter.NewFixedProvider(snap),
		repo,
		monitoring.NewMetrics(),
		zap.NewNop(),
	)
	return tasks.NewService(p, time.Hour, zap.NewNop()), p
}

func lunchSnapshot(t *testing.T, seed int64) (*catalog.Snapshot, catalog.Client) {
	t.Helper()
	sb := testutils.NewSnapshotBuilder(seed)
	sb.WithStandardLunch(8, 1, 5)
	client := sb.Factory().Client(sb.Factory().MenuType("Almuerzo"))
	sb.WithClient(client)
	return sb.Build(), client
}

func TestCreateTask_StartsBackingJob(t *testing.T) {
	snap, client := lunchSnapshot(t, 1)
	svc, _ := newTaskService(t, snap)

	task, err := svc.CreateTask(context.Background(), inbound.CreateTaskCommand{
		Type: tasks.TypeGenerateWeeklyMenu,
		Metadata: inbound.TaskMetadata{
			StartDate: "2025-03-03",
			ClientIDs: []int64{client.ID},
		},
	})
	require.NoError(t, err)

	assert.NotEmpty(t, task.ID)
	assert.Equal(t, tasks.TypeGenerateWeeklyMenu, task.Type)
	assert.Equal(t, "in_progress", task.Status)
	assert.Equal(t, "medium", task.Priority)
	assert.Equal(t, "Menús semanales - Semana del 2025-03-03 (1 clientes)", task.Title)
	assert.Equal(t, "2025-03-03", task.Metadata["fecha_inicio"])
	assert.NotEmpty(t, task.Metadata["job_id"])
}

func TestCreateTask_RejectsUnsupportedType(t *testing.T) {
	snap, _ := lunchSnapshot(t, 2)
	svc, _ := newTaskService(t, snap)

	_, err := svc.CreateTask(context.Background(), inbound.CreateTaskCommand{
		Type: "send_newsletter",
	})
	require.ErrorIs(t, err, tasks.ErrUnsupportedType)
}

func TestCreateTask_RejectsBadStartDate(t *testing.T) {
	snap, client := lunchSnapshot(t, 3)
	svc, _ := newTaskService(t, snap)

	_, err := svc.CreateTask(context.Background(), inbound.CreateTaskCommand{
		Type: tasks.TypeGenerateWeeklyMenu,
		Metadata: inbound.TaskMetadata{
			StartDate: "03/03/2025",
			ClientIDs: []int64{client.ID},
		},
	})
	require.ErrorIs(t, err, tasks.ErrInvalidMetadata)
}

func TestCreateTask_PropagatesInvalidClients(t *testing.T) {
	snap, _ := lunchSnapshot(t, 4)
	svc, _ := newTaskService(t, snap)

	_, err := svc.CreateTask(context.Background(), inbound.CreateTaskCommand{
		Type: tasks.TypeGenerateWeeklyMenu,
		Metadata: inbound.TaskMetadata{
			StartDate: "2025-03-03",
			ClientIDs: []int64{9999},
		},
	})
	require.ErrorIs(t, err, plan.ErrUnknownClient)
}

func TestGetTask_SyncsToCompletionAndReleasesJob(t *testing.T) {
	snap, client := lunchSnapshot(t, 5)
	svc, p := newTaskService(t, snap)

	task, err := svc.CreateTask(context.Background(), inbound.CreateTaskCommand{
		Type: tasks.TypeGenerateWeeklyMenu,
		Metadata: inbound.TaskMetadata{
			StartDate: "2025-03-03",
			ClientIDs: []int64{client.ID},
		},
	})
	require.NoError(t, err)

	var synced *inbound.TaskDTO
	require.Eventually(t, func() bool {
		got, err := svc.GetTask(context.Background(), task.ID)
		if err != nil {
			return false
		}
		synced = got
		return got.Status == "completed"
	}, 5*time.Second, 5*time.Millisecond)

	assert.Equal(t, 100, synced.Progress)
	doc, ok := synced.Metadata["result"].(*plan.Document)
	require.True(t, ok, "completed task must carry the plan document")
	require.Len(t, doc.Plan, 1)
	assert.Equal(t, client.ID, doc.Plan[0].ClientID)

	// The backing job record is released once the result is copied over.
	jobID := task.Metadata["job_id"].(string)
	_, err = p.JobStatus(context.Background(), jobID)
	require.ErrorIs(t, err, job.ErrNotFound)

	// Later reads keep serving the copied result.
	again, err := svc.GetTask(context.Background(), task.ID)
	require.NoError(t, err)
	assert.Equal(t, "completed", again.Status)
}

func TestGetTask_ReleasedJobMarksTaskFailed(t *testing.T) {
	snap, client := lunchSnapshot(t, 6)
	svc, p := newTaskService(t, snap)

	task, err := svc.CreateTask(context.Background(), inbound.CreateTaskCommand{
		Type: tasks.TypeGenerateWeeklyMenu,
		Metadata: inbound.TaskMetadata{
			StartDate: "2025-03-03",
			ClientIDs: []int64{client.ID},
		},
	})
	require.NoError(t, err)

	// Someone deletes the job behind the task's back.
	jobID := task.Metadata["job_id"].(string)
	require.NoError(t, p.CancelJob(context.Background(), jobID))

	got, err := svc.GetTask(context.Background(), task.ID)
	require.NoError(t, err)
	assert.Equal(t, "failed", got.Status)
	assert.Equal(t, "job released before completion", got.Metadata["error"])
}

func TestGetTask_Unknown(t *testing.T) {
	snap, _ := lunchSnapshot(t, 7)
	svc, _ := newTaskService(t, snap)

	_, err := svc.GetTask(context.Background(), "missing")
	require.ErrorIs(t, err, tasks.ErrTaskNotFound)
}

func TestListTasks_CreationOrder(t *testing.T) {
	snap, client := lunchSnapshot(t, 8)
	svc, _ := newTaskService(t, snap)

	var ids []string
	for i := 0; i < 3; i++ {
		task, err := svc.CreateTask(context.Background(), inbound.CreateTaskCommand{
			Type: tasks.TypeGenerateWeeklyMenu,
			Metadata: inbound.TaskMetadata{
				StartDate: "2025-03-03",
				ClientIDs: []int64{client.ID},
			},
		})
		require.NoError(t, err)
		ids = append(ids, task.ID)
	}

	list, err := svc.ListTasks(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 3)
	for i, task := range list {
		assert.Equal(t, ids[i], task.ID)
	}
}

func TestGetTask_ReturnedDTOIsDetachedSnapshot(t *testing.T) {
	snap, client := lunchSnapshot(t, 9)
	svc, _ := newTaskService(t, snap)

	created, err := svc.CreateTask(context.Background(), inbound.CreateTaskCommand{
		Type: tasks.TypeGenerateWeeklyMenu,
		Metadata: inbound.TaskMetadata{
			StartDate: "2025-03-03",
			ClientIDs: []int64{client.ID},
		},
	})
	require.NoError(t, err)

	// Writes into a returned metadata map must not reach the service.
	created.Metadata["tampered"] = true

	require.Eventually(t, func() bool {
		got, err := svc.GetTask(context.Background(), created.ID)
		if err != nil {
			return false
		}
		return got.Status == "completed"
	}, 5*time.Second, 5*time.Millisecond)

	// The creation-time snapshot must not have grown the result the
	// sync wrote into the live task afterwards.
	_, leaked := created.Metadata["result"]
	assert.False(t, leaked, "creation-time snapshot mutated after return")

	current, err := svc.GetTask(context.Background(), created.ID)
	require.NoError(t, err)
	assert.NotContains(t, current.Metadata, "tampered")
	assert.Contains(t, current.Metadata, "result")
}

func TestListTasks_PrunesExpiredFinishedTasks(t *testing.T) {
	snap, client := lunchSnapshot(t, 10)

	repo := memory.NewJobRepository(time.Hour, time.Minute)
	t.Cleanup(repo.Close)
	p := planner.NewService(
		catalogAdapter.NewFixedProvider(snap),
		repo,
		monitoring.NewMetrics(),
		zap.NewNop(),
	)
	svc := tasks.NewService(p, 20*time.Millisecond, zap.NewNop())

	task, err := svc.CreateTask(context.Background(), inbound.CreateTaskCommand{
		Type: tasks.TypeGenerateWeeklyMenu,
		Metadata: inbound.TaskMetadata{
			StartDate: "2025-03-03",
			ClientIDs: []int64{client.ID},
		},
	})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		got, err := svc.GetTask(context.Background(), task.ID)
		if err != nil {
			return false
		}
		return got.Status == "completed"
	}, 5*time.Second, 5*time.Millisecond)

	// A live task is never pruned, only finished ones past retention.
	time.Sleep(50 * time.Millisecond)

	list, err := svc.ListTasks(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = svc.GetTask(context.Background(), task.ID)
	require.ErrorIs(t, err, tasks.ErrTaskNotFound)
}
