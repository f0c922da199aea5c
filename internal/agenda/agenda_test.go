package agenda

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianstephens/recur/internal/models"
	"github.com/julianstephens/recur/internal/storage"
)

func TestAppointments(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemory()
	a := New(store, "default")
	require.NoError(t, a.Load(ctx))

	_, err := a.AddAppointment(ctx, models.Appointment{Title: "Dentist", Date: "2024-05-02", Time: "15:00"})
	require.NoError(t, err)
	first, err := a.AddAppointment(ctx, models.Appointment{Title: "Doctor", Date: "2024-05-01", Time: "10:00"})
	require.NoError(t, err)

	_, err = a.AddAppointment(ctx, models.Appointment{Title: "Bad", Date: "05/01/2024", Time: "10:00"})
	assert.ErrorIs(t, err, ErrInvalid)
	_, err = a.AddAppointment(ctx, models.Appointment{Title: "Bad", Date: "2024-05-01"})
	assert.ErrorIs(t, err, ErrInvalid)

	reloaded := New(store, "default")
	require.NoError(t, reloaded.Load(ctx))
	appts := reloaded.Appointments()
	require.Len(t, appts, 2)
	assert.Equal(t, "Doctor", appts[0].Title)

	require.NoError(t, reloaded.RemoveAppointment(ctx, first.ID))
	assert.Len(t, reloaded.Appointments(), 1)
	assert.ErrorIs(t, reloaded.RemoveAppointment(ctx, first.ID), ErrNotFound)
}

func TestTasks(t *testing.T) {
	ctx := context.Background()
	a := New(storage.NewMemory(), "default")
	changes := 0
	a.OnChange(func() { changes++ })

	late, err := a.AddTask(ctx, models.Task{Title: "File taxes", Deadline: "2024-04-15", Progress: 150})
	require.NoError(t, err)
	assert.Equal(t, 100, late.Progress)

	open, err := a.AddTask(ctx, models.Task{Title: "Report", Deadline: "2024-05-01", Time: "17:00"})
	require.NoError(t, err)

	_, err = a.AddTask(ctx, models.Task{Title: "No deadline", Time: "17:00"})
	assert.ErrorIs(t, err, ErrInvalid)

	tasks := a.Tasks()
	require.Len(t, tasks, 2)
	assert.Equal(t, open.ID, tasks[0].ID, "open tasks sort first")

	done, err := a.CompleteTask(ctx, open.ID[:6])
	require.NoError(t, err)
	assert.True(t, done.Done())

	require.NoError(t, a.RemoveTask(ctx, late.ID))
	assert.Len(t, a.Tasks(), 1)
	assert.Equal(t, 4, changes)
}

func TestPrayers(t *testing.T) {
	ctx := context.Background()
	a := New(storage.NewMemory(), "default")

	err := a.SetPrayers(ctx, []models.PrayerTime{{Name: "Fajr", Time: "5:10am"}})
	assert.ErrorIs(t, err, ErrInvalid)

	require.NoError(t, a.SetPrayers(ctx, []models.PrayerTime{{Name: "Fajr", Time: "05:10"}, {Name: "Maghrib", Time: "19:45"}}))
	assert.Len(t, a.Prayers(), 2)
}

func TestChangeHookSkipsUnknownIDs(t *testing.T) {
	ctx := context.Background()
	a := New(storage.NewMemory(), "default")
	require.NoError(t, a.Load(ctx))
	calls := 0
	a.OnChange(func() { calls++ })

	task, err := a.AddTask(ctx, models.Task{Title: "File taxes", Deadline: "2024-04-15"})
	require.NoError(t, err)
	appt, err := a.AddAppointment(ctx, models.Appointment{Title: "Dentist", Date: "2024-05-02", Time: "15:00"})
	require.NoError(t, err)
	require.Equal(t, 2, calls)

	assert.ErrorIs(t, a.RemoveAppointment(ctx, "missing-id"), ErrNotFound)
	assert.ErrorIs(t, a.RemoveTask(ctx, "missing-id"), ErrNotFound)
	_, err = a.SetProgress(ctx, "missing-id", 50)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 2, calls)

	updated, err := a.SetProgress(ctx, task.ID, 50)
	require.NoError(t, err)
	assert.Equal(t, 50, updated.Progress)
	require.NoError(t, a.RemoveTask(ctx, task.ID))
	require.NoError(t, a.RemoveAppointment(ctx, appt.ID))
	assert.Equal(t, 5, calls)
}
