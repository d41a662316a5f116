package db

import (
	"fmt"
	"log/slog"
	"time"

	"library_borrowing_service/models"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Options selects the backing database. Driver is "postgres" (default) or "sqlite".
type Options struct {
	Driver     string
	Host       string
	User       string
	Password   string
	Name       string
	Port       string
	SQLitePath string
}

func (o Options) dialector() (gorm.Dialector, error) {
	switch o.Driver {
	case "", "postgres":
		dsn := fmt.Sprintf(
			"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
			o.Host, o.User, o.Password, o.Name, o.Port,
		)
		return postgres.Open(dsn), nil
	case "sqlite":
		path := o.SQLitePath
		if path == "" {
			path = "library.sqlite3"
		}
		return sqlite.Open(sqliteDSN(path)), nil
	default:
		return nil, fmt.Errorf("unknown database driver %q", o.Driver)
	}
}

// 时间统一存 UTC；SQLite 按文本比较时间
func nowUTC() time.Time { return time.Now().UTC() }

func sqliteDSN(path string) string {
	return "file:" + path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_time_format=sqlite"
}

// Connect opens the database and runs migrations.
func Connect(o Options, log *slog.Logger) (*gorm.DB, error) {
	d, err := o.dialector()
	if err != nil {
		return nil, err
	}
	conn, err := gorm.Open(d, &gorm.Config{
		Logger:  logger.Default.LogMode(logger.Warn),
		NowFunc: nowUTC,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", d.Name(), err)
	}
	if err := Migrate(conn); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	log.Info("database connected", "driver", d.Name())
	return conn, nil
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.User{}, &models.Book{}, &models.Borrowing{}, &models.Payment{}, &models.NotificationLog{},
	); err != nil {
		return err
	}

	// 每条借阅最多一条 RENT
	if err := db.Exec(fmt.Sprintf(`
	  CREATE UNIQUE INDEX IF NOT EXISTS %s_one_rent_per_borrowing
	  ON %s (borrowing_id)
	  WHERE type = 'RENT';
	`, models.PaymentTable, models.PaymentTable)).Error; err != nil {
		return err
	}

	// 每条借阅最多一条 FINE
	if err := db.Exec(fmt.Sprintf(`
	  CREATE UNIQUE INDEX IF NOT EXISTS %s_one_fine_per_borrowing
	  ON %s (borrowing_id)
	  WHERE type = 'FINE';
	`, models.PaymentTable, models.PaymentTable)).Error; err != nil {
		return err
	}

	// 逾期扫描走这个索引
	if err := db.Exec(fmt.Sprintf(`
	  CREATE INDEX IF NOT EXISTS %s_open_expected
	  ON %s (expected_return_date)
	  WHERE actual_return_date IS NULL;
	`, models.BorrowingTable, models.BorrowingTable)).Error; err != nil {
		return err
	}

	return nil
}
