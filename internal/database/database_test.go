package database

import (
	"context"
	"errors"
	"testing"
	"testing/fstest"

	"campusnest/internal/config"
	"campusnest/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openSQLite(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	return db
}

func TestConfigurePool(t *testing.T) {
	db := openSQLite(t)

	cfg := &config.Config{
		DBMaxOpenConns:           10,
		DBMaxIdleConns:           5,
		DBConnMaxLifetimeMinutes: 15,
	}
	require.NoError(t, configurePool(db, cfg))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	assert.Equal(t, 10, sqlDB.Stats().MaxOpenConnections)
}

func TestConfigurePool_Defaults(t *testing.T) {
	db := openSQLite(t)
	require.NoError(t, configurePool(db, &config.Config{}))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	assert.Equal(t, 25, sqlDB.Stats().MaxOpenConnections)
}

func TestConnectWithOptions_SQLite(t *testing.T) {
	cfg := &config.Config{DBDriver: "sqlite", DBName: ":memory:", Env: "test"}
	db, err := ConnectWithOptions(cfg, ConnectOptions{ApplySchema: true})
	require.NoError(t, err)

	for _, m := range PersistentModels() {
		assert.True(t, db.Migrator().HasTable(m), "missing table for %T", m)
	}
	assert.True(t, db.Migrator().HasIndex(&models.Chat{}, "idx_chats_listing_buyer"))
}

func TestConnectWithOptions_UnknownDriver(t *testing.T) {
	_, err := ConnectWithOptions(&config.Config{DBDriver: "oracle"}, ConnectOptions{})
	assert.Error(t, err)
}

func TestSchemaPolicy(t *testing.T) {
	tests := []struct {
		name      string
		cfg       config.Config
		wantSQL   bool
		wantAuto  bool
		wantError bool
	}{
		{"hybrid dev", config.Config{Env: "development"}, true, true, false},
		{"hybrid prod", config.Config{Env: "production"}, true, false, false},
		{"sql", config.Config{Env: "development", DBSchemaMode: "sql"}, true, false, false},
		{"auto dev", config.Config{Env: "development", DBSchemaMode: "auto"}, false, true, false},
		{"auto prod refused", config.Config{Env: "prod", DBSchemaMode: "auto"}, false, false, true},
		{"auto prod allowed", config.Config{Env: "prod", DBSchemaMode: "auto", DBAutoMigrateAllowDestructive: true}, false, true, false},
		{"unknown mode", config.Config{Env: "development", DBSchemaMode: "yolo"}, false, false, true},
		{"sqlite forces auto", config.Config{Env: "test", DBDriver: "sqlite", DBSchemaMode: "sql"}, false, true, false},
		{"sqlite refused in staging", config.Config{Env: "staging", DBDriver: "sqlite"}, false, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runSQL, runAuto, err := schemaPolicy(&tt.cfg)
			if tt.wantError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantSQL, runSQL)
			assert.Equal(t, tt.wantAuto, runAuto)
		})
	}
}

func TestEmbeddedMigrations(t *testing.T) {
	all := GetMigrations()
	require.NotEmpty(t, all)
	assert.Equal(t, 1, all[0].Version)
	assert.Equal(t, "init", all[0].Name)
	assert.Contains(t, all[0].UpScript, "idx_chats_listing_buyer")
	assert.Contains(t, all[0].DownScript, "DROP TABLE IF EXISTS chats")
	assert.Equal(t, "000001_init", all[0].String())

	assert.NotNil(t, GetMigrationByVersion(1))
	assert.Nil(t, GetMigrationByVersion(999))
}

func TestLoadMigrations(t *testing.T) {
	t.Run("sorted", func(t *testing.T) {
		fsys := fstest.MapFS{
			"m/000002_b.up.sql":   {Data: []byte("B")},
			"m/000002_b.down.sql": {Data: []byte("-B")},
			"m/000001_a.up.sql":   {Data: []byte("A")},
			"m/000001_a.down.sql": {Data: []byte("-A")},
			"m/README.md":         {Data: []byte("ignored")},
		}
		got, err := LoadMigrations(fsys, "m")
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "a", got[0].Name)
		assert.Equal(t, "-B", got[1].DownScript)
	})

	t.Run("missing down", func(t *testing.T) {
		fsys := fstest.MapFS{"m/000001_a.up.sql": {Data: []byte("A")}}
		_, err := LoadMigrations(fsys, "m")
		assert.Error(t, err)
	})

	t.Run("bad version", func(t *testing.T) {
		fsys := fstest.MapFS{
			"m/abc_a.up.sql":   {Data: []byte("A")},
			"m/abc_a.down.sql": {Data: []byte("A")},
		}
		_, err := LoadMigrations(fsys, "m")
		assert.Error(t, err)
	})
}

type fakeStore struct {
	applied []int
	calls   []int
	failOn  int
}

func (f *fakeStore) GetAppliedMigrations(context.Context) ([]int, error) {
	return f.applied, nil
}

func (f *fakeStore) ApplyMigration(_ context.Context, version int, _, _ string) error {
	if version == f.failOn {
		return errors.New("boom")
	}
	f.calls = append(f.calls, version)
	f.applied = append(f.applied, version)
	return nil
}

func (f *fakeStore) RemoveMigration(context.Context, int, string) error { return nil }

func TestRunPending(t *testing.T) {
	registered := []Migration{{Version: 1, Name: "a"}, {Version: 2, Name: "b"}, {Version: 3, Name: "c"}}

	t.Run("applies only pending", func(t *testing.T) {
		store := &fakeStore{applied: []int{1}}
		require.NoError(t, runPending(context.Background(), store, registered))
		assert.Equal(t, []int{2, 3}, store.calls)
	})

	t.Run("stops at first failure", func(t *testing.T) {
		store := &fakeStore{failOn: 2}
		err := runPending(context.Background(), store, registered)
		assert.Error(t, err)
		assert.Equal(t, []int{1}, store.calls)
	})

	t.Run("unknown applied version", func(t *testing.T) {
		store := &fakeStore{applied: []int{1, 42}}
		err := runPending(context.Background(), store, registered)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "000042")
	})
}

func TestMigrationStore_ApplyRollsBackOnRecordFailure(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectExec("CREATE TABLE t").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`INSERT INTO "migration_logs"`).WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	err = NewMigrationStore(db).ApplyMigration(context.Background(), 7, "t", "CREATE TABLE t (id int)")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to record migration 7")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetAppliedMigrations_MissingTable(t *testing.T) {
	db := openSQLite(t)
	versions, err := NewMigrationStore(db).GetAppliedMigrations(context.Background())
	require.NoError(t, err)
	assert.Empty(t, versions)
}

func TestIsUniqueViolation(t *testing.T) {
	assert.False(t, IsUniqueViolation(nil))
	assert.True(t, IsUniqueViolation(&pgconn.PgError{Code: "23505"}))
	assert.False(t, IsUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.True(t, IsUniqueViolation(gorm.ErrDuplicatedKey))

	db := openSQLite(t)
	require.NoError(t, AutoMigrate(db))
	u := models.User{Name: "a", Email: "dup@example.com", Password: "x", Role: models.RoleBuyer}
	require.NoError(t, db.Create(&u).Error)
	u2 := models.User{Name: "b", Email: "dup@example.com", Password: "x", Role: models.RoleBuyer}
	assert.True(t, IsUniqueViolation(db.Create(&u2).Error))
}

func TestRegisterQueryMetrics(t *testing.T) {
	db := openSQLite(t)
	require.NoError(t, RegisterQueryMetrics(db))
	require.NoError(t, AutoMigrate(db))

	var count int64
	assert.NoError(t, db.Model(&models.User{}).Count(&count).Error)
}
