// Package dbtest opens throwaway SQLite databases that mirror the Postgres
// schema closely enough for repository and service tests.
package dbtest

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open returns a fresh in-memory database with every table created. Each
// test gets its own database named after the test.
func Open(t testing.TB) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=off", name)
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Discard})
	require.NoError(t, err)

	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	for _, stmt := range schema {
		require.NoError(t, conn.Exec(stmt).Error, stmt)
	}
	return conn
}

var schema = []string{
	`CREATE TABLE accounts (
  id TEXT PRIMARY KEY,
  username TEXT NOT NULL,
  email TEXT NOT NULL,
  first_name TEXT NOT NULL DEFAULT '',
  last_name TEXT NOT NULL DEFAULT '',
  password_hash TEXT NOT NULL,
  role TEXT NOT NULL,
  is_active INTEGER NOT NULL DEFAULT 1,
  last_login_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
)`,
	`CREATE UNIQUE INDEX ux_accounts_username ON accounts (lower(username))`,

	`CREATE TABLE musician_submissions (
  id TEXT PRIMARY KEY,
  full_name_english TEXT NOT NULL,
  full_name_bengali TEXT NOT NULL DEFAULT '',
  stage_name TEXT NOT NULL DEFAULT '',
  date_of_birth DATE,
  primary_genre TEXT NOT NULL,
  secondary_genre TEXT,
  performance_languages TEXT,
  email TEXT,
  mobile_number TEXT NOT NULL,
  city TEXT NOT NULL DEFAULT '',
  country TEXT NOT NULL DEFAULT '',
  website TEXT NOT NULL DEFAULT '',
  social_links TEXT,
  bio TEXT NOT NULL DEFAULT '',
  portfolio_description TEXT NOT NULL DEFAULT '',
  credits TEXT NOT NULL DEFAULT '',
  content_links TEXT,
  content_uploads TEXT,
  instruments TEXT,
  technical_preferences TEXT NOT NULL DEFAULT '',
  available_timelines TEXT,
  government_id_upload TEXT NOT NULL DEFAULT '',
  consent_promotion INTEGER NOT NULL DEFAULT 0,
  agree_terms INTEGER NOT NULL DEFAULT 0,
  preferred_payment_method TEXT,
  created_at DATETIME,
  updated_at DATETIME
)`,
	`CREATE UNIQUE INDEX ux_musician_submissions_email ON musician_submissions (email) WHERE email IS NOT NULL`,

	`CREATE TABLE filmmaker_submissions (
  id TEXT PRIMARY KEY,
  full_name TEXT NOT NULL,
  email TEXT NOT NULL,
  project_title TEXT NOT NULL DEFAULT '',
  budget_total TEXT NOT NULL DEFAULT '0',
  basic_info TEXT NOT NULL,
  project_info TEXT NOT NULL,
  budget_breakdown TEXT NOT NULL,
  payment_terms TEXT NOT NULL,
  created_at DATETIME,
  updated_at DATETIME
)`,
	`CREATE UNIQUE INDEX ux_filmmaker_submissions_email ON filmmaker_submissions (email)`,

	`CREATE TABLE submission_documents (
  id TEXT PRIMARY KEY,
  submission_id TEXT NOT NULL,
  submission_kind TEXT NOT NULL,
  items TEXT NOT NULL,
  created_at DATETIME,
  updated_at DATETIME
)`,
	`CREATE UNIQUE INDEX ux_submission_documents_submission ON submission_documents (submission_id)`,

	`CREATE TABLE artist_profiles (
  id TEXT PRIMARY KEY,
  account_id TEXT NOT NULL,
  submission_id TEXT NOT NULL,
  kind TEXT NOT NULL,
  display_name TEXT NOT NULL,
  is_verified INTEGER NOT NULL DEFAULT 0,
  verified_by TEXT,
  created_at DATETIME,
  updated_at DATETIME
)`,
	`CREATE UNIQUE INDEX ux_artist_profiles_account ON artist_profiles (account_id)`,
	`CREATE UNIQUE INDEX ux_artist_profiles_submission ON artist_profiles (submission_id)`,

	`CREATE TABLE songs (
  id TEXT PRIMARY KEY,
  artist_id TEXT NOT NULL,
  title TEXT NOT NULL,
  audio_url TEXT NOT NULL,
  thumbnail_url TEXT NOT NULL,
  duration INTEGER NOT NULL,
  genre TEXT NOT NULL DEFAULT '',
  description TEXT NOT NULL DEFAULT '',
  tags TEXT,
  status TEXT NOT NULL DEFAULT 'PENDING',
  review_note TEXT NOT NULL DEFAULT '',
  reviewed_at DATETIME,
  upload_status TEXT NOT NULL DEFAULT 'NOT_UPLOADED',
  youtube_video_id TEXT,
  youtube_url TEXT,
  youtube_view_count INTEGER NOT NULL DEFAULT 0,
  youtube_like_count INTEGER NOT NULL DEFAULT 0,
  youtube_comment_count INTEGER NOT NULL DEFAULT 0,
  stats_refreshed_at DATETIME,
  uploaded_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
)`,

	`CREATE TABLE gigs (
  id TEXT PRIMARY KEY,
  title TEXT NOT NULL,
  description TEXT NOT NULL DEFAULT '',
  location TEXT NOT NULL,
  cover_image TEXT NOT NULL DEFAULT '',
  datetime DATETIME NOT NULL,
  created_by TEXT NOT NULL,
  created_at DATETIME,
  updated_at DATETIME
)`,

	`CREATE TABLE gig_applications (
  id TEXT PRIMARY KEY,
  artist_id TEXT NOT NULL,
  gig_id TEXT NOT NULL,
  song_id TEXT,
  status TEXT NOT NULL DEFAULT 'PENDING',
  created_at DATETIME,
  updated_at DATETIME
)`,
	`CREATE UNIQUE INDEX ux_gig_applications_triple ON gig_applications (artist_id, gig_id, song_id) WHERE song_id IS NOT NULL`,
	`CREATE UNIQUE INDEX ux_gig_applications_songless ON gig_applications (artist_id, gig_id) WHERE song_id IS NULL`,

	`CREATE TABLE payments (
  id TEXT PRIMARY KEY,
  artist_id TEXT NOT NULL,
  gig_id TEXT NOT NULL,
  application_id TEXT NOT NULL,
  amount TEXT NOT NULL DEFAULT '0',
  method TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'DUE',
  note TEXT NOT NULL DEFAULT '',
  created_at DATETIME,
  updated_at DATETIME
)`,
	`CREATE UNIQUE INDEX ux_payments_artist_gig ON payments (artist_id, gig_id)`,

	`CREATE TABLE tasks (
  id TEXT PRIMARY KEY,
  task_type TEXT NOT NULL,
  aggregate_type TEXT NOT NULL,
  aggregate_id TEXT NOT NULL,
  payload BLOB NOT NULL,
  status TEXT NOT NULL DEFAULT 'QUEUED',
  attempt_count INTEGER NOT NULL DEFAULT 0,
  last_error TEXT,
  available_at DATETIME NOT NULL,
  started_at DATETIME,
  finished_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
)`,

	`CREATE TABLE carousel_images (
  id TEXT PRIMARY KEY,
  image TEXT NOT NULL,
  selected INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
)`,
	`CREATE TABLE stories (
  id TEXT PRIMARY KEY,
  title TEXT NOT NULL,
  cover_image TEXT NOT NULL DEFAULT '',
  author TEXT NOT NULL DEFAULT '',
  content TEXT NOT NULL,
  tags TEXT,
  created_at DATETIME,
  updated_at DATETIME
)`,
	`CREATE TABLE events (
  id TEXT PRIMARY KEY,
  title TEXT NOT NULL,
  cover_image TEXT NOT NULL DEFAULT '',
  description TEXT NOT NULL DEFAULT '',
  ticket_price TEXT NOT NULL DEFAULT '0',
  date DATETIME NOT NULL,
  location TEXT NOT NULL DEFAULT '',
  created_at DATETIME,
  updated_at DATETIME
)`,
	`CREATE TABLE ticket_bookings (
  id TEXT PRIMARY KEY,
  event_id TEXT NOT NULL,
  buyer_name TEXT NOT NULL,
  buyer_email TEXT NOT NULL,
  buyer_phone TEXT NOT NULL,
  number_of_tickets INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
)`,
	`CREATE TABLE exhibitions (
  id TEXT PRIMARY KEY,
  title TEXT NOT NULL,
  cover_image TEXT NOT NULL DEFAULT '',
  description TEXT NOT NULL DEFAULT '',
  date DATE NOT NULL,
  from_time TEXT NOT NULL DEFAULT '',
  to_time TEXT NOT NULL DEFAULT '',
  location TEXT NOT NULL DEFAULT '',
  tags TEXT,
  author TEXT NOT NULL DEFAULT '',
  created_at DATETIME,
  updated_at DATETIME
)`,
	`CREATE TABLE albums (
  id TEXT PRIMARY KEY,
  title TEXT NOT NULL,
  cover_image TEXT NOT NULL DEFAULT '',
  genre TEXT,
  category TEXT,
  artist TEXT,
  number_of_songs INTEGER NOT NULL DEFAULT 0,
  author TEXT NOT NULL DEFAULT '',
  tags TEXT,
  created_at DATETIME,
  updated_at DATETIME
)`,
	`CREATE TABLE singles (
  id TEXT PRIMARY KEY,
  title TEXT NOT NULL,
  cover_image TEXT NOT NULL DEFAULT '',
  genre TEXT,
  category TEXT,
  artist TEXT NOT NULL DEFAULT '',
  number_of_songs INTEGER NOT NULL DEFAULT 1,
  author TEXT NOT NULL DEFAULT '',
  tags TEXT,
  created_at DATETIME,
  updated_at DATETIME
)`,
	`CREATE TABLE shows (
  id TEXT PRIMARY KEY,
  title TEXT NOT NULL,
  cover_image TEXT NOT NULL DEFAULT '',
  video_url TEXT NOT NULL DEFAULT '',
  location TEXT NOT NULL DEFAULT '',
  time TEXT NOT NULL DEFAULT '',
  date DATE NOT NULL,
  created_at DATETIME,
  updated_at DATETIME
)`,
	`CREATE TABLE show_booking_info (
  id TEXT PRIMARY KEY,
  full_name TEXT NOT NULL,
  email TEXT NOT NULL,
  phone TEXT NOT NULL,
  dates TEXT,
  created_at DATETIME,
  updated_at DATETIME
)`,
}
