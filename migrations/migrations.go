package migrations

import (
	"database/sql"
	"time"
)

// AutoMigrateUsers creates the users table and its unique username index if
// they do not exist. Usernames compare byte-wise, so "Alice" and "alice" are
// different keys.
func AutoMigrateUsers(retries int, db *sql.DB) error {
	query := `
		CREATE TABLE IF NOT EXISTS users (
			id INT AUTO_INCREMENT PRIMARY KEY,
			username VARCHAR(64) COLLATE utf8mb4_bin NOT NULL,
			password_hash VARCHAR(255) NOT NULL DEFAULT '',
			profession VARCHAR(32) NOT NULL DEFAULT '',
			company_name VARCHAR(255) NOT NULL DEFAULT '',
			address_line1 VARCHAR(255) NOT NULL DEFAULT '',
			country VARCHAR(128) NOT NULL DEFAULT '',
			state VARCHAR(128) NOT NULL DEFAULT '',
			city VARCHAR(128) NOT NULL DEFAULT '',
			subscription_plan VARCHAR(16) NOT NULL DEFAULT '',
			newsletter BOOLEAN NOT NULL DEFAULT FALSE,
			profile_photo VARCHAR(512) NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
			UNIQUE KEY username_idx (username)
		);
	`
	// Tables created before the username column was case-sensitive.
	alter := `ALTER TABLE users MODIFY username VARCHAR(64) COLLATE utf8mb4_bin NOT NULL;`

	for _, stmt := range []string{query, alter} {
		if err := execWithRetry(retries, db, stmt); err != nil {
			return err
		}
	}
	return nil
}

func execWithRetry(retries int, db *sql.DB, stmt string) error {
	var err error
	for i := 0; i <= retries; i++ {
		if i > 0 {
			time.Sleep(1 * time.Second)
		}
		if _, err = db.Exec(stmt); err == nil {
			return nil
		}
	}
	return err
}
