/*
MIT License

Copyright (c) 2024 Nicolas JUHEL

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in all
copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
SOFTWARE.
*/

package logstore

import (
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/blackfennetworks/honeytrap/internal/attacklog"
	"github.com/blackfennetworks/honeytrap/internal/errcode"
	"github.com/blackfennetworks/honeytrap/internal/protocol"
)

// sqliteMaxRows stands in for FLASH_LOG_SIZE as a row-count ceiling
// instead of a byte budget, since SQLite already manages page allocation;
// at roughly 160 bytes per row, 400 rows is about 64KB of record data.
const sqliteMaxRows = 400

// attackRecordRow is the gorm model backing the flash mirror table.
type attackRecordRow struct {
	ID          uint64 `gorm:"primaryKey;autoIncrement"`
	TimestampTS int64  `gorm:"index"`
	SourceIP    string
	TargetPort  uint16
	Service     string
	Username    string
	Password    string
	UserAgent   string
	PayloadHash string
	Metadata    string
}

func (attackRecordRow) TableName() string { return "attack_records" }

func rowFromRecord(rec attacklog.Record) attackRecordRow {
	return attackRecordRow{
		TimestampTS: rec.Timestamp.Unix(),
		SourceIP:    rec.SourceIP,
		TargetPort:  rec.TargetPort,
		Service:     rec.Service.String(),
		Username:    rec.Username,
		Password:    rec.Password,
		UserAgent:   rec.UserAgent,
		PayloadHash: rec.PayloadHash,
		Metadata:    rec.Metadata,
	}
}

func (r attackRecordRow) toRecord() attacklog.Record {
	return attacklog.New(
		time.Unix(r.TimestampTS, 0),
		r.SourceIP,
		r.TargetPort,
		protocol.Parse(r.Service),
		r.Username,
		r.Password,
		r.UserAgent,
		r.PayloadHash,
		r.Metadata,
	)
}

// SQLiteFlash is a gorm-backed flashMirror, the durable replica behind
// AttackLogStore in this Go rendition of the honeypot's "flash" capability.
type SQLiteFlash struct {
	db *gorm.DB
}

// OpenSQLiteFlash opens (creating if absent) a SQLite database at path and
// migrates the attack_records table. A PersistentIO-class failure here
// must abort startup per the error taxonomy.
func OpenSQLiteFlash(path string) (*SQLiteFlash, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, errcode.Wrap(errcode.PersistentIO, "open sqlite flash "+path, err)
	}
	if err := db.AutoMigrate(&attackRecordRow{}); err != nil {
		return nil, errcode.Wrap(errcode.PersistentIO, "migrate attack_records", err)
	}
	return &SQLiteFlash{db: db}, nil
}

func (f *SQLiteFlash) Append(rec attacklog.Record) error {
	if err := f.db.Create(rowFromRecord(rec)).Error; err != nil {
		return err
	}
	return f.rotateIfOverflowing()
}

// rotateIfOverflowing drops the oldest half of rows once the table
// exceeds sqliteMaxRows, mirroring "on overflow, the file is rotated
// (oldest half dropped)".
func (f *SQLiteFlash) rotateIfOverflowing() error {
	var count int64
	if err := f.db.Model(&attackRecordRow{}).Count(&count).Error; err != nil {
		return err
	}
	if count <= sqliteMaxRows {
		return nil
	}

	var cutoffID uint64
	row := f.db.Model(&attackRecordRow{}).
		Order("id ASC").
		Offset(int(count / 2)).
		Limit(1).
		Select("id").
		Row()
	if err := row.Scan(&cutoffID); err != nil {
		return err
	}
	return f.db.Where("id < ?", cutoffID).Delete(&attackRecordRow{}).Error
}

// LoadRecent returns up to max records, oldest first, for ring replay.
func (f *SQLiteFlash) LoadRecent(max int) ([]attacklog.Record, error) {
	var rows []attackRecordRow
	if err := f.db.Order("id DESC").Limit(max).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]attacklog.Record, len(rows))
	for i, row := range rows {
		// rows came back newest-first; reverse to oldest-first for
		// ring.loadOrdered.
		out[len(rows)-1-i] = row.toRecord()
	}
	return out, nil
}

func (f *SQLiteFlash) Clear() error {
	return f.db.Where("1 = 1").Delete(&attackRecordRow{}).Error
}

func (f *SQLiteFlash) Close() error {
	sqlDB, err := f.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
