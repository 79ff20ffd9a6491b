// internal/db/migrate.go
package db

import (
	"database/sql"
	"fmt"
	"log"
)

// Migrate ensures every table the service needs exists. Statements are
// idempotent so the binaries can run it on every start.
func Migrate(db *sql.DB) error {
	const createSubscribersSQL = `
    CREATE TABLE IF NOT EXISTS subscribers (
        id SERIAL PRIMARY KEY,
        email VARCHAR(190) NOT NULL UNIQUE,
        status VARCHAR(10) NOT NULL DEFAULT 'active',
        token VARCHAR(64) NOT NULL,
        created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
        unsub_at TIMESTAMPTZ NULL
    );`
	if _, err := db.Exec(createSubscribersSQL); err != nil {
		return fmt.Errorf("failed to create 'subscribers' table: %w", err)
	}
	log.Println("Table 'subscribers' is ready.")

	const createStatusIndexSQL = `CREATE INDEX IF NOT EXISTS idx_subscribers_status ON subscribers(status);`
	if _, err := db.Exec(createStatusIndexSQL); err != nil {
		log.Printf("Warning: failed to create index on 'subscribers': %v", err)
	}

	const createPostsSQL = `
    CREATE TABLE IF NOT EXISTS posts (
        id SERIAL PRIMARY KEY,
        title TEXT NOT NULL,
        body TEXT NOT NULL DEFAULT '',
        excerpt TEXT NOT NULL DEFAULT '',
        permalink TEXT NOT NULL DEFAULT '',
        image_path TEXT NOT NULL DEFAULT '',
        image_url TEXT NOT NULL DEFAULT '',
        status VARCHAR(20) NOT NULL DEFAULT 'draft',
        ever_published BOOLEAN NOT NULL DEFAULT FALSE,
        published_at TIMESTAMPTZ NULL,
        created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
    );`
	if _, err := db.Exec(createPostsSQL); err != nil {
		return fmt.Errorf("failed to create 'posts' table: %w", err)
	}
	log.Println("Table 'posts' is ready.")

	const createJobsSQL = `
    CREATE TABLE IF NOT EXISTS broadcast_jobs (
        id SERIAL PRIMARY KEY,
        post_id INT NOT NULL UNIQUE REFERENCES posts(id),
        next_offset INT NOT NULL DEFAULT 0,
        scheduled_at TIMESTAMPTZ NOT NULL,
        created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
    );`
	if _, err := db.Exec(createJobsSQL); err != nil {
		return fmt.Errorf("failed to create 'broadcast_jobs' table: %w", err)
	}
	log.Println("Table 'broadcast_jobs' is ready.")

	// Single-row table: each dispatch overwrites the previous report.
	const createReportSQL = `
    CREATE TABLE IF NOT EXISTS delivery_report (
        id INT PRIMARY KEY,
        time TIMESTAMPTZ NOT NULL,
        post_id INT NOT NULL,
        subject TEXT NOT NULL,
        total INT NOT NULL,
        ok INT NOT NULL,
        fail INT NOT NULL,
        fail_list TEXT NOT NULL DEFAULT '{}',
        target VARCHAR(10) NOT NULL
    );`
	if _, err := db.Exec(createReportSQL); err != nil {
		return fmt.Errorf("failed to create 'delivery_report' table: %w", err)
	}
	log.Println("Table 'delivery_report' is ready.")

	log.Println("✅ Database migration checked/completed.")
	return nil
}
