package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/fieldworks/artifact-capture/entity"
	"github.com/fieldworks/artifact-capture/schema"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// a pooled second connection would see a different in-memory database
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	return db
}

func bagsSchema(t *testing.T) *entity.ObjectTypeSchema {
	t.Helper()
	s, err := schema.Normalize("bags", schema.RawObjectType{
		FilenameFormat: "BAG_{season}_ID{record_id}",
		InputFields: [][]string{
			{"Season", "season", "TEXT"},
			{"Unit", "unit", "TEXT"},
			{"Level", "level", "TEXT"},
			{"T-Number", "tnumber", "TEXT"},
			{"Count", "count", "INT"},
			{"Rim Diameter", "rim_diameter", "FLOAT"},
			{"Date recorded", "date_recorded", "TIMESTAMP"},
		},
		RequiredFields: []string{"season", "unit"},
	})
	require.NoError(t, err)
	return s
}

func migratedRepo(t *testing.T) (*RecordRepository, *entity.ObjectTypeSchema) {
	t.Helper()
	repo := NewRecordRepository(testDB(t))
	s := bagsSchema(t)
	require.NoError(t, repo.Migrate(s))
	return repo, s
}

func TestMigrateCreatesTableWithSystemColumns(t *testing.T) {
	repo, s := migratedRepo(t)

	migrator := repo.db.Migrator()
	assert.True(t, migrator.HasTable("bags"))
	for _, col := range []string{
		entity.ColMetaSignature, entity.ColImages, entity.ColThumbs,
		entity.ColWebps, entity.ColSidecars, entity.ColGPSLat,
		entity.ColWidth, entity.ColLastSaved, "season", "count",
	} {
		assert.True(t, migrator.HasColumn("bags", col), "missing column %s", col)
	}

	// second run is a no-op
	assert.NoError(t, repo.Migrate(s))
}

func TestMigrateAddsMissingColumnsWithoutTouchingRows(t *testing.T) {
	repo, s := migratedRepo(t)

	id, err := repo.Insert(s, map[string]any{"season": "TAP86", "unit": "SqA"}, "sig-1", entity.CaptureContext{})
	require.NoError(t, err)

	grown := bagsSchema(t)
	grown.Fields = append(grown.Fields, entity.FieldDef{
		Label: "Notes", Column: "notes", Kind: entity.FieldText, Widget: entity.WidgetText,
	})
	require.NoError(t, repo.Migrate(grown))

	assert.True(t, repo.db.Migrator().HasColumn("bags", "notes"))

	rec, err := repo.FindByID(grown, id)
	require.NoError(t, err)
	assert.Equal(t, "TAP86", rec.Values["season"])
	assert.Nil(t, rec.Values["notes"])
}

func TestInsertAndFindByID(t *testing.T) {
	repo, s := migratedRepo(t)

	id, err := repo.Insert(s, map[string]any{
		"season":       "TAP86",
		"unit":         "SqA",
		"count":        int64(3),
		"rim_diameter": 12.5,
	}, "sig-1", entity.CaptureContext{ClientIP: "10.0.0.1", UserAgent: "test"})
	require.NoError(t, err)
	assert.Positive(t, id)

	rec, err := repo.FindByID(s, id)
	require.NoError(t, err)
	assert.Equal(t, id, rec.ID)
	assert.Equal(t, "TAP86", rec.Values["season"])
	assert.Equal(t, int64(3), rec.Values["count"])
	assert.Equal(t, 12.5, rec.Values["rim_diameter"])
	assert.Equal(t, "sig-1", rec.MetaSignature)
	assert.Empty(t, rec.Images)
	assert.Empty(t, rec.Thumbs)
	assert.NotEmpty(t, rec.DateLastSaved)

	_, err = repo.FindByID(s, id+100)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestFindLatestBySignature(t *testing.T) {
	repo, s := migratedRepo(t)

	first, err := repo.Insert(s, map[string]any{"season": "TAP86", "unit": "SqA"}, "sig-same", entity.CaptureContext{})
	require.NoError(t, err)
	second, err := repo.Insert(s, map[string]any{"season": "TAP86", "unit": "SqA"}, "sig-same", entity.CaptureContext{})
	require.NoError(t, err)
	require.Greater(t, second, first)

	rec, err := repo.FindLatestBySignature(s, "sig-same")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, second, rec.ID)

	missing, err := repo.FindLatestBySignature(s, "sig-unseen")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestFindMatchingIgnoresEmptyValues(t *testing.T) {
	repo, s := migratedRepo(t)

	id, err := repo.Insert(s, map[string]any{
		"season": "TAP86", "unit": "SqA", "level": "2", "tnumber": "T5",
	}, "sig-1", entity.CaptureContext{})
	require.NoError(t, err)

	rec, err := repo.FindMatching(s, map[string]any{
		"season": "TAP86", "unit": "SqA",
		"level": "", "tnumber": nil,
	})
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, id, rec.ID)

	miss, err := repo.FindMatching(s, map[string]any{"season": "TAP90"})
	require.NoError(t, err)
	assert.Nil(t, miss)

	// nothing constrained means no match, not a full scan hit
	none, err := repo.FindMatching(s, map[string]any{"season": "", "unit": nil})
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestFindMatchingSkipsServerManagedTimestamps(t *testing.T) {
	repo, s := migratedRepo(t)
	require.True(t, s.Field("date_recorded").ServerManaged)

	// a row captured earlier carries its own recording stamp
	id, err := repo.Insert(s, map[string]any{
		"season": "TAP86", "unit": "SqA", "date_recorded": "2020-01-15T09:30:00",
	}, "sig-1", entity.CaptureContext{})
	require.NoError(t, err)

	// the coercer re-stamps date_recorded with the current clock on every
	// call; the stamp must not constrain the exists-check
	coerced := schema.Coerce(s, map[string][]string{
		"season": {"TAP86"},
		"unit":   {"SqA"},
	}, true)
	require.NotEmpty(t, coerced["date_recorded"])
	require.NotEqual(t, "2020-01-15T09:30:00", coerced["date_recorded"])

	rec, err := repo.FindMatching(s, coerced)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, id, rec.ID)
}

func TestUpdateStampsLastSaved(t *testing.T) {
	repo, s := migratedRepo(t)

	id, err := repo.Insert(s, map[string]any{"season": "TAP86", "unit": "SqA"}, "sig-1", entity.CaptureContext{})
	require.NoError(t, err)

	require.NoError(t, repo.Update(s, id, map[string]any{"level": "3"}))
	require.NoError(t, repo.UpdateSignature(s, id, "sig-2"))

	rec, err := repo.FindByID(s, id)
	require.NoError(t, err)
	assert.Equal(t, "3", rec.Values["level"])
	assert.Equal(t, "TAP86", rec.Values["season"])
	assert.Equal(t, "sig-2", rec.MetaSignature)
	assert.NotEmpty(t, rec.DateLastSaved)

	assert.ErrorIs(t, repo.Update(s, id+100, map[string]any{"level": "4"}), gorm.ErrRecordNotFound)
}

func TestSaveAttachGrowsParallelLists(t *testing.T) {
	repo, s := migratedRepo(t)

	id, err := repo.Insert(s, map[string]any{"season": "TAP86", "unit": "SqA"}, "sig-1", entity.CaptureContext{})
	require.NoError(t, err)
	rec, err := repo.FindByID(s, id)
	require.NoError(t, err)

	lat, lon := 13.5, 100.25
	rec.Images = append(rec.Images, "BAG_ID1_IMG1.jpg")
	rec.Thumbs = append(rec.Thumbs, "BAG_ID1_IMG1.thumb.jpg")
	rec.Webps = append(rec.Webps, "") // failed webp keeps the slot
	rec.Sidecars = append(rec.Sidecars, "BAG_ID1_IMG1.json")
	rec.GPS = entity.GPSFix{Lat: &lat, Lon: &lon}
	rec.Width = 3000
	rec.Height = 2000
	require.NoError(t, repo.SaveAttach(s, rec, `{"make":"TestCam"}`, entity.CaptureContext{ClientIP: "10.0.0.2"}))

	reread, err := repo.FindByID(s, id)
	require.NoError(t, err)
	assert.Equal(t, []string{"BAG_ID1_IMG1.jpg"}, reread.Images)
	assert.Equal(t, []string{""}, reread.Webps)
	assert.Equal(t, []string{"BAG_ID1_IMG1.json"}, reread.Sidecars)
	require.NotNil(t, reread.GPS.Lat)
	assert.InDelta(t, 13.5, *reread.GPS.Lat, 1e-9)
	assert.Equal(t, 3000, reread.Width)

	// second attach appends, never rewrites earlier entries
	reread.Images = append(reread.Images, "BAG_ID1_IMG2.jpg")
	reread.Thumbs = append(reread.Thumbs, "BAG_ID1_IMG2.thumb.jpg")
	reread.Webps = append(reread.Webps, "BAG_ID1_IMG2.webp")
	reread.Sidecars = append(reread.Sidecars, "BAG_ID1_IMG2.json")
	require.NoError(t, repo.SaveAttach(s, reread, "{}", entity.CaptureContext{}))

	final, err := repo.FindByID(s, id)
	require.NoError(t, err)
	assert.Equal(t, []string{"BAG_ID1_IMG1.jpg", "BAG_ID1_IMG2.jpg"}, final.Images)
	assert.Len(t, final.Thumbs, 2)
	assert.Len(t, final.Webps, 2)
	assert.Len(t, final.Sidecars, 2)
}

func TestSaveFileListsAfterDetach(t *testing.T) {
	repo, s := migratedRepo(t)

	id, err := repo.Insert(s, map[string]any{"season": "TAP86", "unit": "SqA"}, "sig-1", entity.CaptureContext{})
	require.NoError(t, err)
	rec, err := repo.FindByID(s, id)
	require.NoError(t, err)

	rec.Images = []string{"a.jpg"}
	rec.Thumbs = []string{"a.thumb.jpg"}
	rec.Webps = []string{"a.webp"}
	rec.Sidecars = []string{"a.json"}
	require.NoError(t, repo.SaveFileLists(s, rec))

	reread, err := repo.FindByID(s, id)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.jpg"}, reread.Images)
	assert.Equal(t, []string{"a.webp"}, reread.Webps)
}

func TestListPagingAndSearch(t *testing.T) {
	repo, s := migratedRepo(t)

	for i := 0; i < 30; i++ {
		season := "TAP86"
		if i%2 == 0 {
			season = "TAP90"
		}
		_, err := repo.Insert(s, map[string]any{"season": season, "unit": "SqA"}, "sig", entity.CaptureContext{})
		require.NoError(t, err)
	}

	page1, total, err := repo.List(s, "", 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 30, total)
	require.Len(t, page1, 10)
	// newest first
	assert.Greater(t, page1[0].ID, page1[9].ID)

	page3, _, err := repo.List(s, "", 3, 10)
	require.NoError(t, err)
	assert.Len(t, page3, 10)
	assert.NotEqual(t, page1[0].ID, page3[0].ID)

	filtered, total, err := repo.List(s, "TAP90", 1, 25)
	require.NoError(t, err)
	assert.EqualValues(t, 15, total)
	assert.Len(t, filtered, 15)

	// odd per_page collapses to the default
	defaulted, _, err := repo.List(s, "", 1, 7)
	require.NoError(t, err)
	assert.Len(t, defaulted, 25)
}

func TestDeleteRow(t *testing.T) {
	repo, s := migratedRepo(t)

	id, err := repo.Insert(s, map[string]any{"season": "TAP86", "unit": "SqA"}, "sig-1", entity.CaptureContext{})
	require.NoError(t, err)

	require.NoError(t, repo.DeleteRow(s, id))
	_, err = repo.FindByID(s, id)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	assert.ErrorIs(t, repo.DeleteRow(s, id), gorm.ErrRecordNotFound)
}

func TestNormalizePerPage(t *testing.T) {
	assert.Equal(t, 10, NormalizePerPage(10))
	assert.Equal(t, 300, NormalizePerPage(300))
	assert.Equal(t, 25, NormalizePerPage(0))
	assert.Equal(t, 25, NormalizePerPage(7))
	assert.Equal(t, 25, NormalizePerPage(-5))
}
