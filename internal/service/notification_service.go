package service

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/moussebathily/afrikoin-vibes-connect-sub000/internal/greetings"
	"github.com/moussebathily/afrikoin-vibes-connect-sub000/internal/model"
	"github.com/moussebathily/afrikoin-vibes-connect-sub000/internal/repository"
	"github.com/moussebathily/afrikoin-vibes-connect-sub000/internal/util"
)

type DispatchResult struct {
	NotificationsSent int `json:"notificationsSent"`
	HolidaysProcessed int `json:"holidaysProcessed"`
}

type NotificationService interface {
	DispatchDaily(ctx context.Context) (*DispatchResult, error)
}

type DefaultNotificationService struct {
	notificationRepo repository.NotificationRepository
	generator        greetings.Generator
	now              func() time.Time
}

func NewNotificationService(
	notificationRepo repository.NotificationRepository,
	generator greetings.Generator,
) NotificationService {
	return &DefaultNotificationService{
		notificationRepo: notificationRepo,
		generator:        generator,
		now:              util.Now,
	}
}

// DispatchDaily sends every due holiday greeting and birthday greeting for
// "today" in the evaluation timezone. Failures fetching holidays or
// preferences abort the run; anything that fails for a single recipient is
// logged and skipped so the rest of the batch proceeds. Already-recorded
// sends for the same calendar day are never repeated, which makes the whole
// run safe to invoke more than once per day.
func (s *DefaultNotificationService) DispatchDaily(ctx context.Context) (*DispatchResult, error) {
	today := s.now()
	monthDay := util.MonthDay(today)
	day := util.Day(today)

	logrus.Infof("Dispatching notifications for %s", monthDay)

	holidays, err := s.notificationRepo.GetHolidaysByDate(ctx, monthDay)
	if err != nil {
		return nil, err
	}

	preferences, err := s.notificationRepo.GetActivePreferences(ctx)
	if err != nil {
		return nil, err
	}

	result := &DispatchResult{}

	for i := range holidays {
		holiday := &holidays[i]

		if holiday.IsLunar {
			// Fixed month-day matching cannot schedule lunar entries.
			logrus.Warnf("Skipping lunar holiday %s (%s): lunar scheduling not supported", holiday.Name, holiday.ID)
			continue
		}

		result.NotificationsSent += s.dispatchHoliday(ctx, holiday, preferences, day)
		result.HolidaysProcessed++
	}

	birthdayPrefs, err := s.notificationRepo.GetBirthdayPreferences(ctx, monthDay)
	if err != nil {
		// Holiday sends above are already persisted and guarded against
		// re-dispatch, so aborting here is safe for a retry.
		return nil, err
	}

	for i := range birthdayPrefs {
		if s.dispatchBirthday(ctx, &birthdayPrefs[i], day) {
			result.NotificationsSent++
		}
	}

	logrus.Infof("Dispatch complete: %d notifications across %d holidays", result.NotificationsSent, result.HolidaysProcessed)
	return result, nil
}

func (s *DefaultNotificationService) dispatchHoliday(ctx context.Context, holiday *model.Holiday, preferences []model.NotificationPreference, day time.Time) int {
	sent := 0

	for i := range preferences {
		pref := &preferences[i]

		if !s.isEligible(holiday, pref) {
			continue
		}

		alreadySent, err := s.notificationRepo.HasSentHoliday(ctx, pref.UserID, holiday.ID, day)
		if err != nil {
			logrus.WithError(err).Warnf("Could not check prior sends for user %s, holiday %s", pref.UserID, holiday.ID)
			continue
		}
		if alreadySent {
			continue
		}

		message, err := s.generator.Generate(ctx, &greetings.Request{
			Type:               string(model.NotificationTypeHoliday),
			HolidayName:        holiday.Name,
			HolidayType:        string(holiday.Type),
			HolidayDescription: holiday.Description,
			LanguageCode:       pref.LanguageCode,
			CountryCode:        pref.CountryCode,
			Religion:           fromNullString(pref.Religion),
		})
		if err != nil {
			logrus.WithError(err).Warnf("Message generation failed for user %s, holiday %s", pref.UserID, holiday.Name)
			continue
		}

		notification := &model.Notification{
			UserID:    pref.UserID,
			HolidayID: toNullString(holiday.ID),
			Message:   message,
			Type:      model.NotificationTypeHoliday,
			Status:    model.NotificationStatusSent,
			SentOn:    day,
		}
		if err := s.notificationRepo.CreateNotification(ctx, notification); err != nil {
			logrus.WithError(err).Warnf("Failed to record notification for user %s, holiday %s", pref.UserID, holiday.Name)
			continue
		}

		sent++
	}

	if sent > 0 {
		logrus.Infof("Sent %d notifications for holiday %s", sent, holiday.Name)
	}

	return sent
}

func (s *DefaultNotificationService) dispatchBirthday(ctx context.Context, pref *model.NotificationPreference, day time.Time) bool {
	alreadySent, err := s.notificationRepo.HasSentBirthday(ctx, pref.UserID, day)
	if err != nil {
		logrus.WithError(err).Warnf("Could not check prior birthday send for user %s", pref.UserID)
		return false
	}
	if alreadySent {
		return false
	}

	message, err := s.generator.Generate(ctx, &greetings.Request{
		Type:         string(model.NotificationTypeBirthday),
		LanguageCode: pref.LanguageCode,
		CountryCode:  pref.CountryCode,
	})
	if err != nil {
		logrus.WithError(err).Warnf("Birthday message generation failed for user %s", pref.UserID)
		return false
	}

	notification := &model.Notification{
		UserID:  pref.UserID,
		Message: message,
		Type:    model.NotificationTypeBirthday,
		Status:  model.NotificationStatusSent,
		SentOn:  day,
	}
	if err := s.notificationRepo.CreateNotification(ctx, notification); err != nil {
		logrus.WithError(err).Warnf("Failed to record birthday notification for user %s", pref.UserID)
		return false
	}

	return true
}

// isEligible applies the holiday's country and category criteria to one
// active preference row. Religious holidays additionally require the user to
// have a matching religion on file; a user without one is never eligible for
// them. Unknown holiday types fall through as eligible.
func (s *DefaultNotificationService) isEligible(holiday *model.Holiday, pref *model.NotificationPreference) bool {
	if !pref.IsActive {
		return false
	}

	if len(holiday.Countries) > 0 && !holiday.Countries.Contains(pref.CountryCode) {
		return false
	}

	switch holiday.Type {
	case model.HolidayTypeReligious:
		if !pref.ReceiveReligious {
			return false
		}
		if !pref.Religion.Valid || pref.Religion.String == "" {
			return false
		}
		return holiday.Religions.Contains(pref.Religion.String)
	case model.HolidayTypeNational:
		return pref.ReceiveNational
	case model.HolidayTypeInternational:
		return pref.ReceiveInternational
	case model.HolidayTypeCultural:
		return pref.ReceiveCultural
	default:
		return true
	}
}
