package payroll

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/company"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/leave"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/master/holiday"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/notification"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/user"
	"github.com/shopspring/decimal"
)

var errStoreDown = errors.New("store unavailable")

// memStore is an in-memory backing for every repository the payroll service reads.
type memStore struct {
	mu sync.Mutex

	companies    map[string]company.Company
	users        map[string]user.User
	details      map[string]user.EmploymentDetail
	rates        []payroll.UserRate
	schedules    []payroll.PaySchedule
	runs         []payroll.PayrollRun
	entries      []payroll.PayrollEntry
	lines        map[string][]payroll.PayrollLine
	contribution []payroll.ContributionBracket
	withholding  []payroll.WithholdingTaxBracket
	logs         []attendance.TimeLog
	overtimes    []attendance.Overtime
	leaves       []leave.Request
	holidays     []holiday.Holiday

	// failLogsFor makes time log reads fail for the given user.
	failLogsFor string

	seq  int
	base time.Time
}

func newMemStore() *memStore {
	return &memStore{
		companies: map[string]company.Company{},
		users:     map[string]user.User{},
		details:   map[string]user.EmploymentDetail{},
		lines:     map[string][]payroll.PayrollLine{},
		base:      time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (m *memStore) nextID(prefix string) string {
	m.seq++
	return fmt.Sprintf("%s-%04d", prefix, m.seq)
}

func (m *memStore) tick() time.Time {
	m.seq++
	return m.base.Add(time.Duration(m.seq) * time.Second)
}

func (m *memStore) repositories() Repositories {
	return Repositories{
		Companies: fakeCompanies{m},
		Users:     fakeUsers{m},
		Rates:     fakeRates{m},
		Schedules: fakeSchedules{m},
		Runs:      fakeRuns{m},
		Entries:   fakeEntries{m},
		Brackets:  fakeBrackets{m},
		TimeLogs:  fakeTimeLogs{m},
		Overtimes: fakeOvertimes{m},
		Leaves:    fakeLeaves{m},
		Holidays:  fakeHolidays{m},
	}
}

// ---- seed helpers ----

func (m *memStore) addCompany(c company.Company) {
	m.companies[c.ID] = c
}

func (m *memStore) addUser(id, companyID string, role user.Role) {
	m.users[id] = user.User{
		ID:        id,
		CompanyID: companyID,
		Email:     id + "@example.com",
		FirstName: "User",
		LastName:  id,
		Role:      role,
		Status:    user.StatusActive,
		CreatedAt: m.tick(),
	}
}

func (m *memStore) addRate(userID, rate string) {
	m.rates = append(m.rates, payroll.UserRate{
		ID:         m.nextID("rate"),
		UserID:     userID,
		HourlyRate: decimal.RequireFromString(rate),
		CreatedAt:  m.tick(),
	})
}

func (m *memStore) addLog(userID string, in time.Time, out *time.Time) {
	m.logs = append(m.logs, attendance.TimeLog{
		ID:      m.nextID("log"),
		UserID:  userID,
		TimeIn:  in,
		TimeOut: out,
		Status:  attendance.TimeLogStatusActive,
	})
}

func (m *memStore) addOvertime(userID, hours string, status attendance.OvertimeStatus, createdAt time.Time) {
	m.overtimes = append(m.overtimes, attendance.Overtime{
		ID:             m.nextID("ot"),
		RequesterID:    userID,
		RequestedHours: decimal.RequireFromString(hours),
		Status:         status,
		CreatedAt:      createdAt,
	})
}

// ---- company / user ----

type fakeCompanies struct{ *memStore }

func (f fakeCompanies) GetByID(_ context.Context, id string) (company.Company, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.companies[id]
	if !ok {
		return company.Company{}, company.ErrCompanyNotFound
	}
	return c, nil
}

func (f fakeCompanies) List(_ context.Context) ([]company.Company, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []company.Company
	for _, c := range f.companies {
		out = append(out, c)
	}
	return out, nil
}

type fakeUsers struct{ *memStore }

func (f fakeUsers) GetByID(_ context.Context, id string) (user.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return user.User{}, user.ErrUserNotFound
	}
	return u, nil
}

func (f fakeUsers) GetByIDInCompany(ctx context.Context, id, companyID string) (user.User, error) {
	u, err := f.GetByID(ctx, id)
	if err != nil {
		return user.User{}, err
	}
	if u.CompanyID != companyID {
		return user.User{}, user.ErrUserNotFound
	}
	return u, nil
}

func (f fakeUsers) ListActiveByCompany(_ context.Context, companyID string) ([]user.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []user.User
	for _, u := range f.users {
		if u.CompanyID == companyID && u.IsActive() {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (f fakeUsers) GetEmploymentDetail(_ context.Context, userID string) (user.EmploymentDetail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.details[userID]
	if !ok {
		return user.EmploymentDetail{}, user.ErrEmploymentDetailNotFound
	}
	return d, nil
}

// ---- rates / schedules ----

type fakeRates struct{ *memStore }

func (f fakeRates) Create(_ context.Context, rate payroll.UserRate) (payroll.UserRate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rate.ID = f.nextID("rate")
	rate.CreatedAt = f.tick()
	f.rates = append(f.rates, rate)
	return rate, nil
}

func (f fakeRates) GetLatest(_ context.Context, userID string) (payroll.UserRate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var latest *payroll.UserRate
	for i := range f.rates {
		r := &f.rates[i]
		if r.UserID != userID {
			continue
		}
		if latest == nil || !r.CreatedAt.Before(latest.CreatedAt) {
			latest = r
		}
	}
	if latest == nil {
		return payroll.UserRate{}, payroll.ErrRateNotFound
	}
	return *latest, nil
}

func (f fakeRates) ListByUser(_ context.Context, userID string) ([]payroll.UserRate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []payroll.UserRate
	for _, r := range f.rates {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

type fakeSchedules struct{ *memStore }

func (f fakeSchedules) GetActive(_ context.Context, companyID string) (payroll.PaySchedule, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.schedules {
		if s.CompanyID == companyID && s.IsActive {
			return s, nil
		}
	}
	return payroll.PaySchedule{}, payroll.ErrScheduleNotFound
}

func (f fakeSchedules) DeactivateAll(_ context.Context, companyID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.schedules {
		if f.schedules[i].CompanyID == companyID {
			f.schedules[i].IsActive = false
		}
	}
	return nil
}

func (f fakeSchedules) Create(_ context.Context, s payroll.PaySchedule) (payroll.PaySchedule, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s.IsActive {
		for _, existing := range f.schedules {
			if existing.CompanyID == s.CompanyID && existing.IsActive {
				return payroll.PaySchedule{}, payroll.ErrActiveScheduleRace
			}
		}
	}
	s.ID = f.nextID("schedule")
	s.CreatedAt = f.tick()
	s.UpdatedAt = s.CreatedAt
	f.schedules = append(f.schedules, s)
	return s, nil
}

// ---- runs / entries ----

type fakeRuns struct{ *memStore }

func sameDay(a, b time.Time) bool {
	return a.UTC().Format(time.DateOnly) == b.UTC().Format(time.DateOnly)
}

func (f fakeRuns) CreateIfAbsent(_ context.Context, run payroll.PayrollRun) (payroll.PayrollRun, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.runs {
		if r.CompanyID == run.CompanyID && sameDay(r.PeriodStart, run.PeriodStart) && sameDay(r.PeriodEnd, run.PeriodEnd) {
			return r, nil
		}
	}
	run.ID = f.nextID("run")
	run.CreatedAt = f.tick()
	run.UpdatedAt = run.CreatedAt
	f.runs = append(f.runs, run)
	return run, nil
}

func (f fakeRuns) GetByID(_ context.Context, id string, companyID string) (payroll.PayrollRun, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.runs {
		if r.ID == id && r.CompanyID == companyID {
			return r, nil
		}
	}
	return payroll.PayrollRun{}, payroll.ErrRunNotFound
}

func (f fakeRuns) List(_ context.Context, companyID string, filter payroll.RunFilter) ([]payroll.PayrollRun, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []payroll.PayrollRun
	for _, r := range f.runs {
		if r.CompanyID != companyID {
			continue
		}
		if filter.Status != nil && r.Status != *filter.Status {
			continue
		}
		if filter.Year != nil && r.PeriodStart.Year() != *filter.Year {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (f fakeRuns) RefreshTotals(_ context.Context, id string) (payroll.PayrollRun, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.runs {
		if f.runs[i].ID != id {
			continue
		}
		gross, net := decimal.Zero, decimal.Zero
		for _, e := range f.entries {
			if e.RunID == id {
				gross = gross.Add(e.GrossPay)
				net = net.Add(e.NetPay)
			}
		}
		f.runs[i].TotalGross = gross
		f.runs[i].TotalNet = net
		return f.runs[i], nil
	}
	return payroll.PayrollRun{}, payroll.ErrRunNotFound
}

func (f fakeRuns) MarkFinalized(_ context.Context, id string, at time.Time) (payroll.PayrollRun, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.runs {
		if f.runs[i].ID != id {
			continue
		}
		f.runs[i].Status = payroll.RunStatusFinalized
		if f.runs[i].FinalizedAt == nil {
			f.runs[i].FinalizedAt = &at
		}
		return f.runs[i], nil
	}
	return payroll.PayrollRun{}, payroll.ErrRunNotFound
}

type fakeEntries struct{ *memStore }

func (f fakeEntries) Upsert(_ context.Context, entry payroll.PayrollEntry) (payroll.PayrollEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, e := range f.entries {
		if e.RunID == entry.RunID && e.UserID == entry.UserID {
			entry.ID = e.ID
			entry.PayslipNumber = e.PayslipNumber
			entry.CreatedAt = e.CreatedAt
			entry.Lines = nil
			f.entries[i] = entry
			return entry, nil
		}
	}
	entry.ID = f.nextID("entry")
	entry.CreatedAt = f.tick()
	entry.Lines = nil
	f.entries = append(f.entries, entry)
	return entry, nil
}

func (f fakeEntries) ReplaceLines(_ context.Context, entryID string, lines []payroll.PayrollLine) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored := make([]payroll.PayrollLine, len(lines))
	for i, l := range lines {
		l.ID = f.nextID("line")
		l.EntryID = entryID
		stored[i] = l
	}
	f.lines[entryID] = stored
	return nil
}

func (f fakeEntries) GetByID(_ context.Context, id string) (payroll.PayrollEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.entries {
		if e.ID != id {
			continue
		}
		for _, r := range f.runs {
			if r.ID == e.RunID {
				run := r
				e.Run = &run
			}
		}
		e.Lines = f.lines[e.ID]
		return e, nil
	}
	return payroll.PayrollEntry{}, payroll.ErrEntryNotFound
}

func (f fakeEntries) ListByRun(_ context.Context, runID string, withLines bool) ([]payroll.PayrollEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []payroll.PayrollEntry
	for _, e := range f.entries {
		if e.RunID != runID {
			continue
		}
		if withLines {
			e.Lines = f.lines[e.ID]
		}
		out = append(out, e)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (f fakeEntries) ListByUser(_ context.Context, userID string) ([]payroll.PayrollEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []payroll.PayrollEntry
	for _, e := range f.entries {
		if e.UserID != userID {
			continue
		}
		for _, r := range f.runs {
			if r.ID == e.RunID {
				run := r
				e.Run = &run
			}
		}
		out = append(out, e)
	}
	return out, nil
}

func (f fakeEntries) AssignPayslipNumber(_ context.Context, id string, number string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.entries {
		if f.entries[i].ID == id && f.entries[i].PayslipNumber == nil {
			n := number
			f.entries[i].PayslipNumber = &n
		}
	}
	return nil
}

// ---- brackets ----

type fakeBrackets struct{ *memStore }

func effective(from time.Time, to *time.Time, asOf time.Time) bool {
	if from.After(asOf) {
		return false
	}
	return to == nil || !to.Before(asOf)
}

func (f fakeBrackets) ListContribution(_ context.Context, key payroll.ContributionKey, asOf time.Time) ([]payroll.ContributionBracket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []payroll.ContributionBracket
	for _, b := range f.contribution {
		if b.Country == key.Country && b.Agency == key.Agency && b.Frequency == key.Frequency &&
			b.StateCode == key.StateCode && effective(b.EffectiveFrom, b.EffectiveTo, asOf) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f fakeBrackets) ListWithholding(_ context.Context, key payroll.WithholdingKey, asOf time.Time) ([]payroll.WithholdingTaxBracket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []payroll.WithholdingTaxBracket
	for _, b := range f.withholding {
		if b.Country == key.Country && b.Authority == key.Authority && b.Frequency == key.Frequency &&
			b.StateCode == key.StateCode && effective(b.EffectiveFrom, b.EffectiveTo, asOf) {
			out = append(out, b)
		}
	}
	return out, nil
}

// ---- attendance / leave / holiday ----

type fakeTimeLogs struct{ *memStore }

func (f fakeTimeLogs) ListOverlapping(_ context.Context, userID string, start, end time.Time) ([]attendance.TimeLog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if userID == f.failLogsFor {
		return nil, errStoreDown
	}
	var out []attendance.TimeLog
	for _, l := range f.logs {
		if l.UserID != userID || l.Status != attendance.TimeLogStatusActive {
			continue
		}
		if l.TimeIn.After(end) {
			continue
		}
		if l.TimeOut != nil && l.TimeOut.Before(start) {
			continue
		}
		out = append(out, l)
	}
	return out, nil
}

func (f fakeTimeLogs) ListOpen(_ context.Context) ([]attendance.OpenTimeLog, error) {
	return nil, nil
}

type fakeOvertimes struct{ *memStore }

func (f fakeOvertimes) ListByRequester(_ context.Context, userID string, status attendance.OvertimeStatus, from, to time.Time) ([]attendance.Overtime, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []attendance.Overtime
	for _, o := range f.overtimes {
		if o.RequesterID == userID && o.Status == status && !o.CreatedAt.Before(from) && !o.CreatedAt.After(to) {
			out = append(out, o)
		}
	}
	return out, nil
}

type fakeLeaves struct{ *memStore }

func (f fakeLeaves) ListOverlapping(_ context.Context, userID string, status leave.RequestStatus, start, end time.Time) ([]leave.Request, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []leave.Request
	for _, l := range f.leaves {
		if l.UserID == userID && l.Status == status && !l.StartDate.After(end) && !l.EndDate.Before(start) {
			out = append(out, l)
		}
	}
	return out, nil
}

type fakeHolidays struct{ *memStore }

func (f fakeHolidays) ListBetween(_ context.Context, companyID string, start, end time.Time) ([]holiday.Holiday, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []holiday.Holiday
	for _, h := range f.holidays {
		if h.CompanyID == companyID && !h.Date.Before(startOfDay(start)) && !h.Date.After(end) {
			out = append(out, h)
		}
	}
	return out, nil
}

// ---- transactor / notifier ----

type passthroughTx struct{}

func (passthroughTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []notification.CreateNotificationRequest
}

func (n *recordingNotifier) QueueBulkNotification(_ context.Context, reqs []notification.CreateNotificationRequest) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, reqs...)
	return nil
}
