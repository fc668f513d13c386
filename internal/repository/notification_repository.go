package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/moussebathily/afrikoin-vibes-connect-sub000/internal/model"
)

type NotificationRepository interface {
	GetHolidaysByDate(ctx context.Context, monthDay string) ([]model.Holiday, error)
	GetActivePreferences(ctx context.Context) ([]model.NotificationPreference, error)
	GetBirthdayPreferences(ctx context.Context, monthDay string) ([]model.NotificationPreference, error)
	HasSentHoliday(ctx context.Context, userID string, holidayID string, day time.Time) (bool, error)
	HasSentBirthday(ctx context.Context, userID string, day time.Time) (bool, error)
	CreateNotification(ctx context.Context, notification *model.Notification) error
}

type SQLNotificationRepository struct {
	db *sqlx.DB
}

func NewNotificationRepository(db *sqlx.DB) NotificationRepository {
	return &SQLNotificationRepository{
		db: db,
	}
}

func (r *SQLNotificationRepository) GetHolidaysByDate(ctx context.Context, monthDay string) ([]model.Holiday, error) {
	var holidays []model.Holiday

	query := `SELECT * FROM holidays WHERE month_day = ?`

	err := r.db.SelectContext(ctx, &holidays, query, monthDay)
	if err != nil {
		return nil, err
	}

	return holidays, nil
}

func (r *SQLNotificationRepository) GetActivePreferences(ctx context.Context) ([]model.NotificationPreference, error) {
	var preferences []model.NotificationPreference

	query := `SELECT * FROM notification_preferences WHERE is_active = true`

	err := r.db.SelectContext(ctx, &preferences, query)
	if err != nil {
		return nil, err
	}

	return preferences, nil
}

func (r *SQLNotificationRepository) GetBirthdayPreferences(ctx context.Context, monthDay string) ([]model.NotificationPreference, error) {
	var preferences []model.NotificationPreference

	query := `
		SELECT * FROM notification_preferences
		WHERE is_active = true
		  AND receive_birthday = true
		  AND birthday IS NOT NULL
		  AND DATE_FORMAT(birthday, '%m-%d') = ?
	`

	err := r.db.SelectContext(ctx, &preferences, query, monthDay)
	if err != nil {
		return nil, err
	}

	return preferences, nil
}

// HasSentHoliday reports whether a holiday notification for this user and
// holiday already exists for the given calendar day. Checked before every
// insert so re-running the dispatcher on the same day never duplicates sends.
func (r *SQLNotificationRepository) HasSentHoliday(ctx context.Context, userID string, holidayID string, day time.Time) (bool, error) {
	var count int64

	query := `
		SELECT COUNT(*) FROM notifications
		WHERE user_id = ? AND holiday_id = ? AND notification_type = 'holiday' AND sent_on = ?
	`

	err := r.db.GetContext(ctx, &count, query, userID, holidayID, day.Format("2006-01-02"))
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

func (r *SQLNotificationRepository) HasSentBirthday(ctx context.Context, userID string, day time.Time) (bool, error) {
	var count int64

	query := `
		SELECT COUNT(*) FROM notifications
		WHERE user_id = ? AND holiday_id IS NULL AND notification_type = 'birthday' AND sent_on = ?
	`

	err := r.db.GetContext(ctx, &count, query, userID, day.Format("2006-01-02"))
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

func (r *SQLNotificationRepository) CreateNotification(ctx context.Context, notification *model.Notification) error {
	if notification.ID == "" {
		notification.ID = uuid.New().String()
	}

	notification.SentAt = time.Now()

	query := `
		INSERT INTO notifications (
			id, user_id, holiday_id, message, notification_type,
			status, sent_on, sent_at
		) VALUES (
			:id, :user_id, :holiday_id, :message, :notification_type,
			:status, :sent_on, :sent_at
		)
	`

	_, err := r.db.NamedExecContext(ctx, query, notification)
	return err
}
