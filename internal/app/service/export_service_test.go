package service

import (
	"bytes"
	"context"
	"strconv"
	"testing"

	"github.com/hendrik2009/hearo-backend/internal/app/repository"
	"github.com/hendrik2009/hearo-backend/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// fakeUploader captures the uploaded payload instead of talking to S3
type fakeUploader struct {
	payload     []byte
	contentType string
	err         error
}

func (f *fakeUploader) UploadSnapshot(_ context.Context, payload []byte, contentType string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.payload = payload
	f.contentType = contentType
	return "https://snapshots.example.com/latest.xlsx", nil
}

func setupExportTest(t *testing.T) (ExportService, BindingService) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.CleanupTestDB(testDB)
	})

	repo := repository.NewTagBindingRepository(testDB)
	return NewExportService(repo, nil), NewBindingService(repo, nil, nil)
}

func TestExportService_ExportWorkbook(t *testing.T) {
	exportSvc, bindingSvc := setupExportTest(t)
	ctx := context.Background()

	_, err := bindingSvc.UpsertBinding(ctx, "A237CDC6", "spotify:playlist:A", "spotify:track:1", 5000)
	require.NoError(t, err)
	_, err = bindingSvc.UpsertBinding(ctx, "F269CFC6", "spotify:playlist:B", "", 0)
	require.NoError(t, err)

	payload, err := exportSvc.ExportWorkbook()
	require.NoError(t, err)
	require.NotEmpty(t, payload)

	f, err := excelize.OpenReader(bytes.NewReader(payload))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0))
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, []string{"uid", "playlist_uri", "last_track_uri", "last_pos_ms", "updated_at"}, rows[0])

	byUID := make(map[string][]string)
	for _, row := range rows[1:] {
		byUID[row[0]] = row
	}
	require.Contains(t, byUID, "A237CDC6")
	assert.Equal(t, "spotify:playlist:A", byUID["A237CDC6"][1])
	assert.Equal(t, "spotify:track:1", byUID["A237CDC6"][2])
	assert.Equal(t, "5000", byUID["A237CDC6"][3])

	// Rows without a checkpoint keep the zero values in the sheet
	require.Contains(t, byUID, "F269CFC6")
	assert.Equal(t, "0", byUID["F269CFC6"][3])
}

func TestExportService_ExportWorkbook_Empty(t *testing.T) {
	exportSvc, _ := setupExportTest(t)

	payload, err := exportSvc.ExportWorkbook()
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(payload))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0))
	require.NoError(t, err)
	require.Len(t, rows, 1, "header only")
}

func TestExportService_Snapshot(t *testing.T) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.CleanupTestDB(testDB)
	})

	repo := repository.NewTagBindingRepository(testDB)
	bindingSvc := NewBindingService(repo, nil, nil)
	uploader := &fakeUploader{}
	exportSvc := NewExportService(repo, uploader)

	for i := 0; i < 3; i++ {
		_, err := bindingSvc.UpsertBinding(context.Background(),
			"UID"+strconv.Itoa(i), "spotify:playlist:A", "", 0)
		require.NoError(t, err)
	}

	url, err := exportSvc.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "https://snapshots.example.com/latest.xlsx", url)
	assert.Equal(t,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		uploader.contentType)

	f, err := excelize.OpenReader(bytes.NewReader(uploader.payload))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0))
	require.NoError(t, err)
	assert.Len(t, rows, 4)
}

func TestExportService_Snapshot_Disabled(t *testing.T) {
	exportSvc, _ := setupExportTest(t)

	_, err := exportSvc.Snapshot(context.Background())
	assert.ErrorIs(t, err, ErrSnapshotsDisabled)
}
