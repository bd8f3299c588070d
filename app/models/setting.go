package models

import (
	"strings"
	"time"

	"gorm.io/datatypes"
)

// Well-known setting keys.
const (
	SettingCategories         = "categories"
	SettingFabrics            = "fabrics"
	SettingUI                 = "ui"
	SettingPayment            = "payment"
	SettingPaymentCredentials = "payment.credentials"
)

// Setting is an arbitrary key → JSON value pair.
type Setting struct {
	Key       string         `gorm:"primaryKey;column:setting_key;size:100" json:"key"`
	Value     datatypes.JSON `gorm:"not null"            json:"value"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// SecretSetting reports whether key must never be returned by reads. The
// match ignores case because MySQL and SQL Server compare keys
// case-insensitively.
func SecretSetting(key string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(key)), SettingPaymentCredentials)
}
