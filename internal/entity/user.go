package entity

import "time"

type User struct {
	ID               int       `json:"id"`
	Username         string    `json:"username"`
	PasswordHash     string    `json:"-"`
	Profession       string    `json:"profession"`
	CompanyName      string    `json:"companyName"`
	AddressLine1     string    `json:"addressLine1"`
	Country          string    `json:"country"`
	State            string    `json:"state"`
	City             string    `json:"city"`
	SubscriptionPlan string    `json:"subscriptionPlan"`
	Newsletter       bool      `json:"newsletter"`
	ProfilePhoto     string    `json:"profilePhoto"` // path of the stored upload
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// ProfileSubmission is the flat field set collected by the multi-step form.
// ProfilePhoto holds a local file path on the client side.
type ProfileSubmission struct {
	Username         string `json:"username"`
	CurrentPassword  string `json:"currentPassword"`
	NewPassword      string `json:"newPassword"`
	Profession       string `json:"profession"`
	CompanyName      string `json:"companyName"`
	AddressLine1     string `json:"addressLine1"`
	Country          string `json:"country"`
	State            string `json:"state"`
	City             string `json:"city"`
	SubscriptionPlan string `json:"subscriptionPlan"`
	Newsletter       bool   `json:"newsletter"`
	ProfilePhoto     string `json:"-"`
}

// Password returns the password the submission should be stored with.
func (s ProfileSubmission) Password() string {
	if s.NewPassword != "" {
		return s.NewPassword
	}
	return s.CurrentPassword
}

/*
Mysql Schema:
CREATE TABLE users (
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
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
);

CREATE UNIQUE INDEX username_idx ON users(username);
*/
