package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/Dosada05/tournament-engine/events"
	"github.com/Dosada05/tournament-engine/models"
	"github.com/Dosada05/tournament-engine/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryUploader struct {
	mu      sync.Mutex
	objects map[string][]byte
	fail    bool
	failKey string
}

func newMemoryUploader() *memoryUploader {
	return &memoryUploader{objects: make(map[string][]byte)}
}

func (u *memoryUploader) Upload(_ context.Context, key, _ string, r io.Reader) (*storage.UploadResult, error) {
	body, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.fail || key == u.failKey {
		return nil, errors.New("bucket unavailable")
	}
	u.objects[key] = body
	return &storage.UploadResult{Key: key, Location: u.GetPublicURL(key)}, nil
}

func (u *memoryUploader) Delete(_ context.Context, key string) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	delete(u.objects, key)
	return nil
}

func (u *memoryUploader) GetPublicURL(key string) string { return "mem://" + key }

func (u *memoryUploader) setFail(v bool) {
	u.mu.Lock()
	u.fail = v
	u.mu.Unlock()
}

func TestArchiveCompletedCycle(t *testing.T) {
	h := newHarness(t, EngineConfig{})
	up := newMemoryUploader()
	archive := NewArchiveService(up, slog.New(slog.NewTextHandler(io.Discard, nil)))
	h.eng.sink = events.NewMultiSink(slog.New(slog.NewTextHandler(io.Discard, nil)), h.rec, archive)

	h.register(testTier(2, 2, 10000))
	a, b := addr(1), addr(2)
	h.enroll(2, 0, a, b)
	h.win(h.match(2, 0, 0, 0))

	inst := models.TournamentInstance{TierID: 2, InstanceID: 0, Cycle: 0}
	require.Contains(t, up.objects, ArchiveKey(inst, "snapshot.json"))
	require.Contains(t, up.objects, ArchiveKey(inst, "records.json"))
	assert.Equal(t, "archive/tier_2/instance_0/cycle_0/records.json", ArchiveKey(inst, "records.json"))

	var records []models.MatchRecord
	require.NoError(t, json.Unmarshal(up.objects[ArchiveKey(inst, "records.json")], &records))
	assert.Len(t, records, 2)

	var snap models.CycleSnapshot
	require.NoError(t, json.Unmarshal(up.objects[ArchiveKey(inst, "snapshot.json")], &snap))
	assert.Equal(t, a, snap.Instance.Winner)
	assert.Equal(t, models.StatusCompleted, snap.Instance.Status)
	assert.Len(t, snap.Matches, 1)
}

func TestArchiveRetriesFailedUploads(t *testing.T) {
	up := newMemoryUploader()
	up.setFail(true)
	archive := NewArchiveService(up, slog.New(slog.NewTextHandler(io.Discard, nil)))
	ctx := context.Background()

	snap := models.CycleSnapshot{Instance: models.NewInstance(1, 3, 7)}
	require.NoError(t, archive.Publish(ctx, []events.Event{
		{Type: events.MatchCompleted},
		{Type: events.TournamentCompleted, Data: snap},
	}))
	assert.Equal(t, 1, archive.Pending())
	assert.Empty(t, up.objects)

	n, err := archive.RetryPending(ctx)
	assert.Error(t, err)
	assert.Zero(t, n)
	assert.Equal(t, 1, archive.Pending())

	up.setFail(false)
	n, err = archive.RetryPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Zero(t, archive.Pending())
	assert.Contains(t, up.objects, "archive/tier_1/instance_3/cycle_7/snapshot.json")
}

func TestArchiveRemovesPartialUpload(t *testing.T) {
	up := newMemoryUploader()
	archive := NewArchiveService(up, slog.New(slog.NewTextHandler(io.Discard, nil)))
	inst := models.NewInstance(2, 1, 4)
	up.failKey = ArchiveKey(inst, "records.json")

	_, err := archive.ArchiveCycle(context.Background(), models.CycleSnapshot{Instance: inst})
	require.Error(t, err)
	assert.Empty(t, up.objects)
}
