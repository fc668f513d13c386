package model

import (
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

type HolidayType string

const (
	HolidayTypeReligious     HolidayType = "religious"
	HolidayTypeNational      HolidayType = "national"
	HolidayTypeInternational HolidayType = "international"
	HolidayTypeCultural      HolidayType = "cultural"
)

// Holiday is a recurring calendar entry. MonthDay is a fixed "MM-DD" pattern
// evaluated annually. Countries empty means worldwide. Religions is only
// meaningful when Type is religious. Lunar entries are not scheduled (the
// matcher only understands fixed month-day dates).
type Holiday struct {
	ID          string      `json:"id" db:"id"`
	Name        string      `json:"name" db:"name"`
	Type        HolidayType `json:"holidayType" db:"holiday_type"`
	MonthDay    string      `json:"monthDay" db:"month_day"`
	IsLunar     bool        `json:"isLunar" db:"is_lunar"`
	Countries   StringList  `json:"countries" db:"countries"`
	Religions   StringList  `json:"religions" db:"religions"`
	Description string      `json:"description" db:"description"`
	CreatedAt   time.Time   `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time   `json:"updatedAt" db:"updated_at"`
}

// NotificationPreference is one row per user. IsActive gates everything: an
// inactive row is never eligible for any dispatch.
type NotificationPreference struct {
	UserID               string         `json:"userId" db:"user_id"`
	CountryCode          string         `json:"countryCode" db:"country_code"`
	Timezone             string         `json:"timezone" db:"timezone"`
	LanguageCode         string         `json:"languageCode" db:"language_code"`
	Religion             sql.NullString `json:"religion" db:"religion"`
	ReceiveReligious     bool           `json:"receiveReligious" db:"receive_religious"`
	ReceiveNational      bool           `json:"receiveNational" db:"receive_national"`
	ReceiveInternational bool           `json:"receiveInternational" db:"receive_international"`
	ReceiveCultural      bool           `json:"receiveCultural" db:"receive_cultural"`
	ReceiveBirthday      bool           `json:"receiveBirthday" db:"receive_birthday"`
	Birthday             sql.NullTime   `json:"birthday" db:"birthday"`
	NotificationTime     string         `json:"notificationTime" db:"notification_time"`
	IsActive             bool           `json:"isActive" db:"is_active"`
	CreatedAt            time.Time      `json:"createdAt" db:"created_at"`
	UpdatedAt            time.Time      `json:"updatedAt" db:"updated_at"`
}

type NotificationType string

const (
	NotificationTypeHoliday  NotificationType = "holiday"
	NotificationTypeBirthday NotificationType = "birthday"
	NotificationTypeTest     NotificationType = "test"
)

type NotificationStatus string

const (
	NotificationStatusSent   NotificationStatus = "sent"
	NotificationStatusFailed NotificationStatus = "failed"
)

// Notification is an append-only record of one delivered message. HolidayID
// is null for birthday and test messages. SentOn is the calendar day in the
// evaluation timezone and backs the duplicate-dispatch guard.
type Notification struct {
	ID        string             `json:"id" db:"id"`
	UserID    string             `json:"userId" db:"user_id"`
	HolidayID sql.NullString     `json:"holidayId" db:"holiday_id"`
	Message   string             `json:"message" db:"message"`
	Type      NotificationType   `json:"notificationType" db:"notification_type"`
	Status    NotificationStatus `json:"status" db:"status"`
	SentOn    time.Time          `json:"sentOn" db:"sent_on"`
	SentAt    time.Time          `json:"sentAt" db:"sent_at"`
}

// StringList stores a set of codes as a JSON array column.
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (l *StringList) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*l = nil
		return nil
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	default:
		return fmt.Errorf("cannot scan %T into StringList", src)
	}
}

// Contains reports whether the list holds the given value. An empty list
// never matches; callers treat empty as "no restriction" themselves.
func (l StringList) Contains(value string) bool {
	for _, v := range l {
		if v == value {
			return true
		}
	}
	return false
}
