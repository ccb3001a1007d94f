package repository

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/okian/crewrate/internal/domain/model"
	"github.com/okian/crewrate/internal/domain/profile"
	"github.com/okian/crewrate/pkg/logger"
	"github.com/okian/crewrate/pkg/metrics"
)

// Supported drivers.
const (
	DriverSQLite = "sqlite"
	DriverMySQL  = "mysql"
)

const (
	defaultMaxOpenConns  = 10
	defaultSlowThreshold = 200 * time.Millisecond
)

// GormStore implements Store on top of gorm.
type GormStore struct {
	db            *gorm.DB
	log           logger.Logger
	driver        string
	maxOpenConns  int
	logSQL        bool
	slowThreshold time.Duration
	now           func() time.Time
}

var _ Store = (*GormStore)(nil)

// Open connects to the database, applies the schema and returns the store.
func Open(ctx context.Context, driver, dsn string, opts ...Option) (*GormStore, error) {
	s := &GormStore{
		log:           logger.Named("repository"),
		driver:        driver,
		maxOpenConns:  defaultMaxOpenConns,
		slowThreshold: defaultSlowThreshold,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	var dialector gorm.Dialector
	switch driver {
	case DriverMySQL:
		dialector = mysql.Open(dsn)
	case DriverSQLite:
		if err := ensureDir(dsn); err != nil {
			return nil, fmt.Errorf("create sqlite directory: %w", err)
		}
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         newSQLLogger(s.log, s.logSQL, s.slowThreshold),
		NowFunc:        func() time.Time { return s.now().UTC() },
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql handle: %w", err)
	}
	if driver == DriverSQLite {
		// one writer at a time; also keeps in-memory databases alive
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(s.maxOpenConns)
		sqlDB.SetMaxIdleConns(s.maxOpenConns)
		sqlDB.SetConnMaxLifetime(time.Hour)
	}

	if err := db.WithContext(ctx).AutoMigrate(&workerRow{}, &ratingRow{}, &settingRow{}); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("migrate schema: %w", err)
	}

	s.db = db
	s.log.Info(ctx, "database ready", logger.String("driver", driver))
	return s, nil
}

// ensureDir creates the parent directory of a sqlite file path.
func ensureDir(dsn string) error {
	if strings.HasPrefix(dsn, "file:") || strings.Contains(dsn, ":memory:") {
		return nil
	}
	dir := filepath.Dir(dsn)
	if dir == "" || dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

// observe records latency and failures of one store operation.
func (s *GormStore) observe(op string, start time.Time, err *error) {
	metrics.RecordStoreOperation(op, float64(time.Since(start).Microseconds())/1000, *err)
}

// ListWorkers implements Store.
func (s *GormStore) ListWorkers(ctx context.Context) (out []model.Worker, err error) {
	defer s.observe("list_workers", time.Now(), &err)

	var rows []workerRow
	if err = s.db.WithContext(ctx).Order("canonical_name ASC, id ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list workers: %w", err)
	}
	out = make([]model.Worker, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.model())
	}
	return out, nil
}

// GetWorker implements Store.
func (s *GormStore) GetWorker(ctx context.Context, id int64) (w model.Worker, err error) {
	defer s.observe("get_worker", time.Now(), &err)

	row, err := findWorker(s.db.WithContext(ctx), id)
	if err != nil {
		return model.Worker{}, err
	}
	return row.model(), nil
}

func findWorker(db *gorm.DB, id int64) (workerRow, error) {
	var row workerRow
	err := db.Where("id = ?", id).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return workerRow{}, fmt.Errorf("worker %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return workerRow{}, fmt.Errorf("get worker %d: %w", id, err)
	}
	return row, nil
}

// FindOrCreateWorker implements Store. Concurrent creators of the same name
// race on the unique canonical_name index; the loser re-reads the winner.
func (s *GormStore) FindOrCreateWorker(ctx context.Context, name string) (w model.Worker, created bool, err error) {
	defer s.observe("find_or_create_worker", time.Now(), &err)

	display := strings.Join(strings.Fields(name), " ")
	key := profile.NameKey(name)
	if key == "" {
		return model.Worker{}, false, ErrEmptyName
	}

	var row workerRow
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row, created, err = findOrCreate(tx, display, key)
		return err
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		created = false
		err = s.db.WithContext(ctx).Where("canonical_name = ?", key).First(&row).Error
	}
	if err != nil {
		return model.Worker{}, false, fmt.Errorf("find or create worker %q: %w", display, err)
	}
	return row.model(), created, nil
}

// SubmitRating implements Store. The worker lookup or creation and the
// rating insert share one transaction.
func (s *GormStore) SubmitRating(ctx context.Context, name string, rec model.RatingRecord) (w model.Worker, out model.RatingRecord, created bool, err error) {
	defer s.observe("submit_rating", time.Now(), &err)

	display := strings.Join(strings.Fields(name), " ")
	key := profile.NameKey(name)
	if key == "" {
		return model.Worker{}, model.RatingRecord{}, false, ErrEmptyName
	}

	submit := func() error {
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			row, isNew, err := findOrCreate(tx, display, key)
			if err != nil {
				return err
			}
			rec.WorkerID = row.ID
			stored, err := insertRating(tx, rec)
			if err != nil {
				return err
			}
			stored.WorkerName = row.Name
			w, out, created = row.model(), stored, isNew
			return nil
		})
	}
	err = submit()
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// a concurrent submission created the worker; this pass finds it
		err = submit()
	}
	if err != nil {
		return model.Worker{}, model.RatingRecord{}, false, fmt.Errorf("submit rating for %q: %w", display, err)
	}
	return w, out, created, nil
}

// findOrCreate returns the worker row for key inside tx, inserting it when
// missing.
func findOrCreate(tx *gorm.DB, display, key string) (workerRow, bool, error) {
	var row workerRow
	res := tx.Where("canonical_name = ?", key).Limit(1).Find(&row)
	if res.Error != nil {
		return workerRow{}, false, res.Error
	}
	if res.RowsAffected > 0 {
		return row, false, nil
	}
	row = workerRow{Name: display, CanonicalName: key}
	if err := tx.Create(&row).Error; err != nil {
		return workerRow{}, false, err
	}
	return row, true, nil
}

// insertRating stores rec inside tx.
func insertRating(tx *gorm.DB, rec model.RatingRecord) (model.RatingRecord, error) {
	row := ratingRow{
		WorkerID: rec.WorkerID,
		RatedAt:  rec.Date.UTC(),
		Category: rec.JobCategory,
		Score:    rec.OverallScore,
		Reviewer: rec.Reviewer,
		Late:     rec.Flags.Late,
		NCNS:     rec.Flags.NCNS,
		Notes:    rec.Notes,
	}
	if err := tx.Create(&row).Error; err != nil {
		return model.RatingRecord{}, fmt.Errorf("insert rating: %w", err)
	}
	return row.model(), nil
}

// ListRatings implements Store.
func (s *GormStore) ListRatings(ctx context.Context, workerID int64) (out []model.RatingRecord, err error) {
	defer s.observe("list_ratings", time.Now(), &err)

	db := s.db.WithContext(ctx)
	worker, err := findWorker(db, workerID)
	if err != nil {
		return nil, err
	}

	var rows []ratingRow
	if err = db.Where("worker_id = ?", workerID).Order("rated_at DESC, id DESC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list ratings: %w", err)
	}
	out = make([]model.RatingRecord, 0, len(rows))
	for _, r := range rows {
		rec := r.model()
		rec.WorkerName = worker.Name
		out = append(out, rec)
	}
	return out, nil
}

// ListAllRatings implements Store.
func (s *GormStore) ListAllRatings(ctx context.Context) (out []model.RatingRecord, err error) {
	defer s.observe("list_all_ratings", time.Now(), &err)

	var rows []ratingRow
	if err = s.db.WithContext(ctx).Order("rated_at ASC, id ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list all ratings: %w", err)
	}
	out = make([]model.RatingRecord, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.model())
	}
	return out, nil
}

// CreateRating implements Store.
func (s *GormStore) CreateRating(ctx context.Context, rec model.RatingRecord) (out model.RatingRecord, err error) {
	defer s.observe("create_rating", time.Now(), &err)

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		worker, err := findWorker(tx, rec.WorkerID)
		if err != nil {
			return err
		}
		if out, err = insertRating(tx, rec); err != nil {
			return err
		}
		out.WorkerName = worker.Name
		return nil
	})
	if err != nil {
		return model.RatingRecord{}, err
	}
	return out, nil
}

// Reset implements Store.
func (s *GormStore) Reset(ctx context.Context) (err error) {
	defer s.observe("reset", time.Now(), &err)

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&ratingRow{}).Error; err != nil {
			return err
		}
		return tx.Where("1 = 1").Delete(&workerRow{}).Error
	})
	if err != nil {
		return fmt.Errorf("reset: %w", err)
	}
	return nil
}

// Count implements Store.
func (s *GormStore) Count(ctx context.Context) (workers, ratings int64, err error) {
	defer s.observe("count", time.Now(), &err)

	db := s.db.WithContext(ctx)
	if err = db.Model(&workerRow{}).Count(&workers).Error; err != nil {
		return 0, 0, fmt.Errorf("count workers: %w", err)
	}
	if err = db.Model(&ratingRow{}).Count(&ratings).Error; err != nil {
		return 0, 0, fmt.Errorf("count ratings: %w", err)
	}
	return workers, ratings, nil
}

// LoadSetting implements Store.
func (s *GormStore) LoadSetting(ctx context.Context, key string) (value string, found bool, err error) {
	defer s.observe("load_setting", time.Now(), &err)

	var row settingRow
	res := s.db.WithContext(ctx).Where("name = ?", key).Limit(1).Find(&row)
	if res.Error != nil {
		err = fmt.Errorf("load setting %s: %w", key, res.Error)
		return "", false, err
	}
	return row.Value, res.RowsAffected > 0, nil
}

// SaveSetting implements Store.
func (s *GormStore) SaveSetting(ctx context.Context, key, value string) (err error) {
	defer s.observe("save_setting", time.Now(), &err)

	row := settingRow{Name: key, Value: value}
	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("save setting %s: %w", key, err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
