package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/moussebathily/afrikoin-vibes-connect-sub000/internal/greetings"
	"github.com/moussebathily/afrikoin-vibes-connect-sub000/internal/model"
)

type fakeNotificationRepo struct {
	holidays      []model.Holiday
	preferences   []model.NotificationPreference
	notifications []*model.Notification

	holidayErr  error
	prefErr     error
	birthdayErr error
	insertFails map[string]bool
}

func (r *fakeNotificationRepo) GetHolidaysByDate(ctx context.Context, monthDay string) ([]model.Holiday, error) {
	if r.holidayErr != nil {
		return nil, r.holidayErr
	}
	var due []model.Holiday
	for _, h := range r.holidays {
		if h.MonthDay == monthDay {
			due = append(due, h)
		}
	}
	return due, nil
}

func (r *fakeNotificationRepo) GetActivePreferences(ctx context.Context) ([]model.NotificationPreference, error) {
	if r.prefErr != nil {
		return nil, r.prefErr
	}
	var active []model.NotificationPreference
	for _, p := range r.preferences {
		if p.IsActive {
			active = append(active, p)
		}
	}
	return active, nil
}

func (r *fakeNotificationRepo) GetBirthdayPreferences(ctx context.Context, monthDay string) ([]model.NotificationPreference, error) {
	if r.birthdayErr != nil {
		return nil, r.birthdayErr
	}
	var due []model.NotificationPreference
	for _, p := range r.preferences {
		if p.IsActive && p.ReceiveBirthday && p.Birthday.Valid && p.Birthday.Time.Format("01-02") == monthDay {
			due = append(due, p)
		}
	}
	return due, nil
}

func (r *fakeNotificationRepo) HasSentHoliday(ctx context.Context, userID, holidayID string, day time.Time) (bool, error) {
	for _, n := range r.notifications {
		if n.UserID == userID && n.HolidayID.Valid && n.HolidayID.String == holidayID &&
			n.Type == model.NotificationTypeHoliday && n.SentOn.Equal(day) {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeNotificationRepo) HasSentBirthday(ctx context.Context, userID string, day time.Time) (bool, error) {
	for _, n := range r.notifications {
		if n.UserID == userID && !n.HolidayID.Valid &&
			n.Type == model.NotificationTypeBirthday && n.SentOn.Equal(day) {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeNotificationRepo) CreateNotification(ctx context.Context, n *model.Notification) error {
	if r.insertFails[n.UserID] {
		return errors.New("insert failed")
	}
	r.notifications = append(r.notifications, n)
	return nil
}

type fakeGenerator struct {
	calls   int
	failFor map[string]bool
	lastReq *greetings.Request
}

func (g *fakeGenerator) Generate(ctx context.Context, req *greetings.Request) (string, error) {
	g.calls++
	g.lastReq = req
	if g.failFor[req.CountryCode] {
		return "", greetings.ErrGenerationFailed
	}
	if req.Type == string(model.NotificationTypeBirthday) {
		return "Joyeux anniversaire!", nil
	}
	return "Bonne fête de " + req.HolidayName + "!", nil
}

// Fixed evaluation date for every dispatcher test: March 15.
var testToday = time.Date(2025, time.March, 15, 9, 0, 0, 0, time.UTC)

func newDispatchService(repo *fakeNotificationRepo, gen greetings.Generator) *DefaultNotificationService {
	return &DefaultNotificationService{
		notificationRepo: repo,
		generator:        gen,
		now:              func() time.Time { return testToday },
	}
}

func activePref(userID, country string) model.NotificationPreference {
	return model.NotificationPreference{
		UserID:               userID,
		CountryCode:          country,
		LanguageCode:         "fr",
		ReceiveReligious:     true,
		ReceiveNational:      true,
		ReceiveInternational: true,
		ReceiveCultural:      true,
		IsActive:             true,
	}
}

func religiousHoliday() model.Holiday {
	return model.Holiday{
		ID:        "holiday-tabaski",
		Name:      "Tabaski",
		Type:      model.HolidayTypeReligious,
		MonthDay:  "03-15",
		Countries: model.StringList{"SN", "ML"},
		Religions: model.StringList{"islam"},
	}
}

func TestDispatchReligiousHolidayEligibility(t *testing.T) {
	userA := activePref("user-a", "SN")
	userA.Religion = sql.NullString{String: "islam", Valid: true}

	userB := activePref("user-b", "SN") // no religion on file

	userC := activePref("user-c", "FR") // country not in holiday set
	userC.Religion = sql.NullString{String: "islam", Valid: true}

	userD := activePref("user-d", "SN") // opted out of religious
	userD.Religion = sql.NullString{String: "islam", Valid: true}
	userD.ReceiveReligious = false

	repo := &fakeNotificationRepo{
		holidays:    []model.Holiday{religiousHoliday()},
		preferences: []model.NotificationPreference{userA, userB, userC, userD},
	}
	svc := newDispatchService(repo, &fakeGenerator{})

	result, err := svc.DispatchDaily(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, result.HolidaysProcessed)
	require.Equal(t, 1, result.NotificationsSent)

	require.Len(t, repo.notifications, 1)
	n := repo.notifications[0]
	require.Equal(t, "user-a", n.UserID)
	require.Equal(t, model.NotificationTypeHoliday, n.Type)
	require.Equal(t, model.NotificationStatusSent, n.Status)
	require.True(t, n.HolidayID.Valid)
	require.Equal(t, "holiday-tabaski", n.HolidayID.String)
}

func TestDispatchWorldwideHolidayRespectsOptIn(t *testing.T) {
	optedIn := activePref("user-in", "SN")
	optedOut := activePref("user-out", "ML")
	optedOut.ReceiveInternational = false

	repo := &fakeNotificationRepo{
		holidays: []model.Holiday{{
			ID:       "holiday-women",
			Name:     "International Women's Day",
			Type:     model.HolidayTypeInternational,
			MonthDay: "03-15",
		}},
		preferences: []model.NotificationPreference{optedIn, optedOut},
	}
	svc := newDispatchService(repo, &fakeGenerator{})

	result, err := svc.DispatchDaily(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, result.NotificationsSent)
	require.Equal(t, "user-in", repo.notifications[0].UserID)
}

func TestDispatchUnknownHolidayTypeIsPermissive(t *testing.T) {
	pref := activePref("user-1", "SN")
	pref.ReceiveNational = false
	pref.ReceiveInternational = false
	pref.ReceiveCultural = false

	repo := &fakeNotificationRepo{
		holidays: []model.Holiday{{
			ID:       "holiday-misc",
			Name:     "Community Day",
			Type:     model.HolidayType("community"),
			MonthDay: "03-15",
		}},
		preferences: []model.NotificationPreference{pref},
	}
	svc := newDispatchService(repo, &fakeGenerator{})

	result, err := svc.DispatchDaily(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, result.NotificationsSent)
}

func TestDispatchBirthday(t *testing.T) {
	pref := activePref("user-bd", "SN")
	pref.ReceiveBirthday = true
	pref.Birthday = sql.NullTime{Time: time.Date(1990, time.March, 15, 0, 0, 0, 0, time.UTC), Valid: true}

	notToday := activePref("user-other", "SN")
	notToday.ReceiveBirthday = true
	notToday.Birthday = sql.NullTime{Time: time.Date(1988, time.June, 1, 0, 0, 0, 0, time.UTC), Valid: true}

	repo := &fakeNotificationRepo{
		preferences: []model.NotificationPreference{pref, notToday},
	}
	svc := newDispatchService(repo, &fakeGenerator{})

	result, err := svc.DispatchDaily(context.Background())
	require.NoError(t, err)
	require.Equal(t, 0, result.HolidaysProcessed)
	require.Equal(t, 1, result.NotificationsSent)

	require.Len(t, repo.notifications, 1)
	n := repo.notifications[0]
	require.Equal(t, "user-bd", n.UserID)
	require.Equal(t, model.NotificationTypeBirthday, n.Type)
	require.False(t, n.HolidayID.Valid)
}

func TestDispatchPartialFailureIsolation(t *testing.T) {
	userX := activePref("user-x", "SN")
	userX.Religion = sql.NullString{String: "islam", Valid: true}
	userY := activePref("user-y", "ML")
	userY.Religion = sql.NullString{String: "islam", Valid: true}

	repo := &fakeNotificationRepo{
		holidays:    []model.Holiday{religiousHoliday()},
		preferences: []model.NotificationPreference{userX, userY},
	}
	// Generation fails for user X's country only.
	gen := &fakeGenerator{failFor: map[string]bool{"SN": true}}
	svc := newDispatchService(repo, gen)

	result, err := svc.DispatchDaily(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, result.NotificationsSent)
	require.Len(t, repo.notifications, 1)
	require.Equal(t, "user-y", repo.notifications[0].UserID)
}

func TestDispatchWriteFailureNotCounted(t *testing.T) {
	userX := activePref("user-x", "SN")
	userX.Religion = sql.NullString{String: "islam", Valid: true}
	userY := activePref("user-y", "ML")
	userY.Religion = sql.NullString{String: "islam", Valid: true}

	repo := &fakeNotificationRepo{
		holidays:    []model.Holiday{religiousHoliday()},
		preferences: []model.NotificationPreference{userX, userY},
		insertFails: map[string]bool{"user-x": true},
	}
	svc := newDispatchService(repo, &fakeGenerator{})

	result, err := svc.DispatchDaily(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, result.NotificationsSent)
	require.Len(t, repo.notifications, 1)
	require.Equal(t, "user-y", repo.notifications[0].UserID)
}

func TestDispatchInactiveNeverSelected(t *testing.T) {
	inactive := activePref("user-inactive", "SN")
	inactive.Religion = sql.NullString{String: "islam", Valid: true}
	inactive.ReceiveBirthday = true
	inactive.Birthday = sql.NullTime{Time: time.Date(1990, time.March, 15, 0, 0, 0, 0, time.UTC), Valid: true}
	inactive.IsActive = false

	repo := &fakeNotificationRepo{
		holidays:    []model.Holiday{religiousHoliday()},
		preferences: []model.NotificationPreference{inactive},
	}
	svc := newDispatchService(repo, &fakeGenerator{})

	result, err := svc.DispatchDaily(context.Background())
	require.NoError(t, err)
	require.Equal(t, 0, result.NotificationsSent)
	require.Empty(t, repo.notifications)
}

func TestDispatchSecondRunSameDaySendsNothing(t *testing.T) {
	user := activePref("user-a", "SN")
	user.Religion = sql.NullString{String: "islam", Valid: true}
	user.ReceiveBirthday = true
	user.Birthday = sql.NullTime{Time: time.Date(1990, time.March, 15, 0, 0, 0, 0, time.UTC), Valid: true}

	repo := &fakeNotificationRepo{
		holidays:    []model.Holiday{religiousHoliday()},
		preferences: []model.NotificationPreference{user},
	}
	svc := newDispatchService(repo, &fakeGenerator{})

	first, err := svc.DispatchDaily(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, first.NotificationsSent) // holiday + birthday

	second, err := svc.DispatchDaily(context.Background())
	require.NoError(t, err)
	require.Equal(t, 0, second.NotificationsSent)
	require.Len(t, repo.notifications, 2)
}

func TestDispatchSkipsLunarHolidays(t *testing.T) {
	user := activePref("user-a", "SN")
	user.Religion = sql.NullString{String: "islam", Valid: true}

	lunar := religiousHoliday()
	lunar.IsLunar = true

	repo := &fakeNotificationRepo{
		holidays:    []model.Holiday{lunar},
		preferences: []model.NotificationPreference{user},
	}
	gen := &fakeGenerator{}
	svc := newDispatchService(repo, gen)

	result, err := svc.DispatchDaily(context.Background())
	require.NoError(t, err)
	require.Equal(t, 0, result.HolidaysProcessed)
	require.Equal(t, 0, result.NotificationsSent)
	require.Equal(t, 0, gen.calls)
}

func TestDispatchAbortsWhenHolidayFetchFails(t *testing.T) {
	repo := &fakeNotificationRepo{holidayErr: errors.New("holidays unavailable")}
	svc := newDispatchService(repo, &fakeGenerator{})

	_, err := svc.DispatchDaily(context.Background())
	require.Error(t, err)
}

func TestDispatchAbortsWhenPreferenceFetchFails(t *testing.T) {
	repo := &fakeNotificationRepo{prefErr: errors.New("preferences unavailable")}
	svc := newDispatchService(repo, &fakeGenerator{})

	_, err := svc.DispatchDaily(context.Background())
	require.Error(t, err)
}

func TestDispatchPassesPreferenceContextToGenerator(t *testing.T) {
	user := activePref("user-a", "SN")
	user.Religion = sql.NullString{String: "islam", Valid: true}
	user.LanguageCode = "wo"

	repo := &fakeNotificationRepo{
		holidays:    []model.Holiday{religiousHoliday()},
		preferences: []model.NotificationPreference{user},
	}
	gen := &fakeGenerator{}
	svc := newDispatchService(repo, gen)

	_, err := svc.DispatchDaily(context.Background())
	require.NoError(t, err)

	require.NotNil(t, gen.lastReq)
	require.Equal(t, "Tabaski", gen.lastReq.HolidayName)
	require.Equal(t, "wo", gen.lastReq.LanguageCode)
	require.Equal(t, "SN", gen.lastReq.CountryCode)
	require.Equal(t, "islam", gen.lastReq.Religion)
}
