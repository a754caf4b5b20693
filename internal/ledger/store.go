package ledger

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rewardhub/backend/internal/models"
)

var (
	ErrUserNotFound         = errors.New("user not found")
	ErrTaskNotFound         = errors.New("task not found")
	ErrWithdrawalNotFound   = errors.New("withdrawal not found")
	ErrTaskAlreadyCompleted = errors.New("task already completed")
	ErrInsufficientPoints   = errors.New("insufficient points")
	ErrInvalidStatus        = errors.New("invalid withdrawal status")
	ErrInvalidTransition    = errors.New("withdrawal is no longer pending")
)

type completion struct {
	userID int64
	taskID int64
}

// Store is the in-memory source of truth for users, tasks, completion facts and
// withdrawals. A single lock covers every map so each check-then-mutate
// sequence is atomic. Returned entities are copies.
type Store struct {
	mu sync.RWMutex

	users       map[int64]*models.User
	referrals   map[string]int64
	tasks       map[int64]*models.Task
	completed   map[completion]time.Time
	withdrawals map[int64]*models.Withdrawal

	nextUserID       int64
	nextTaskID       int64
	nextWithdrawalID int64

	now func() time.Time
}

type Option func(*Store)

// WithTasks replaces the default seed catalog.
func WithTasks(tasks ...models.NewTask) Option {
	return func(s *Store) {
		s.tasks = make(map[int64]*models.Task)
		s.nextTaskID = 0
		for _, t := range tasks {
			s.insertTask(t)
		}
	}
}

// WithClock overrides the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New returns a store seeded with DefaultTasks unless WithTasks says otherwise.
func New(opts ...Option) *Store {
	s := &Store{
		users:       make(map[int64]*models.User),
		referrals:   make(map[string]int64),
		tasks:       make(map[int64]*models.Task),
		completed:   make(map[completion]time.Time),
		withdrawals: make(map[int64]*models.Withdrawal),
		now:         time.Now,
	}
	for _, t := range DefaultTasks() {
		s.insertTask(t)
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// --- users ---

// CreateUser stores a new user with zero points and no payout destination.
// Email uniqueness is the caller's concern.
func (s *Store) CreateUser(ctx context.Context, in models.NewUser) (*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextUserID++
	u := &models.User{
		ID:                s.nextUserID,
		Email:             in.Email,
		PasswordHash:      in.PasswordHash,
		Name:              in.Name,
		ReferralCode:      s.newReferralCode(),
		Phone:             clonePtr(in.Phone),
		DateOfBirth:       clonePtr(in.DateOfBirth),
		Location:          clonePtr(in.Location),
		DeviceInfo:        clonePtr(in.DeviceInfo),
		PreferredLanguage: models.DefaultLanguage,
		CreatedAt:         s.now().UTC(),
	}
	s.users[u.ID] = u
	s.referrals[u.ReferralCode] = u.ID
	return copyUser(u), nil
}

func (s *Store) newReferralCode() string {
	for {
		code := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
		if _, taken := s.referrals[code]; !taken {
			return code
		}
	}
}

func (s *Store) GetUser(ctx context.Context, id int64) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	return copyUser(u), nil
}

// GetUserByEmail returns the lowest-id user with the given email.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, id := range s.userIDs() {
		if s.users[id].Email == email {
			return copyUser(s.users[id]), nil
		}
	}
	return nil, ErrUserNotFound
}

// FirstUser returns the earliest registered user.
func (s *Store) FirstUser(ctx context.Context) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := s.userIDs()
	if len(ids) == 0 {
		return nil, ErrUserNotFound
	}
	return copyUser(s.users[ids[0]]), nil
}

func (s *Store) ListUsers(ctx context.Context) ([]*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := s.userIDs()
	out := make([]*models.User, 0, len(ids))
	for _, id := range ids {
		out = append(out, copyUser(s.users[id]))
	}
	return out, nil
}

// UpdateUserPoints applies delta to the balance. It does not reject a negative
// result; use DebitPoints when the balance must stay non-negative.
func (s *Store) UpdateUserPoints(ctx context.Context, id int64, delta int) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	u.Points += delta
	return copyUser(u), nil
}

// DebitPoints subtracts amount only if the balance covers it.
func (s *Store) DebitPoints(ctx context.Context, id int64, amount int) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	if u.Points < amount {
		return nil, ErrInsufficientPoints
	}
	u.Points -= amount
	return copyUser(u), nil
}

func (s *Store) UpdateUserPaymentInfo(ctx context.Context, id int64, info models.PaymentInfo) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	if info.UpiID != nil {
		u.UpiID = strPtr(*info.UpiID)
	}
	if info.BankAccount != nil {
		u.BankAccount = strPtr(*info.BankAccount)
	}
	if info.IfscCode != nil {
		u.IfscCode = strPtr(*info.IfscCode)
	}
	return copyUser(u), nil
}

func (s *Store) UpdateUserPreferences(ctx context.Context, id int64, prefs models.Preferences) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	if prefs.PreferredLanguage != nil {
		u.PreferredLanguage = *prefs.PreferredLanguage
	}
	if prefs.DarkMode != nil {
		u.DarkMode = *prefs.DarkMode
	}
	return copyUser(u), nil
}

// --- tasks ---

func (s *Store) CreateTask(ctx context.Context, in models.NewTask) (*models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.insertTask(in)
	cp := *t
	return &cp, nil
}

func (s *Store) insertTask(in models.NewTask) *models.Task {
	s.nextTaskID++
	t := &models.Task{
		ID:          s.nextTaskID,
		Title:       in.Title,
		Description: in.Description,
		Points:      in.Points,
		Type:        in.Type,
	}
	s.tasks[t.ID] = t
	return t
}

// GetTasks returns the catalog in id order.
func (s *Store) GetTasks(ctx context.Context) ([]*models.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		cp := *t
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) GetTask(ctx context.Context, id int64) (*models.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tasks[id]
	if !ok {
		return nil, ErrTaskNotFound
	}
	cp := *t
	return &cp, nil
}

func (s *Store) HasCompleted(ctx context.Context, userID, taskID int64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, done := s.completed[completion{userID, taskID}]
	return done
}

// CompleteTask credits the task's points to the user and records the
// completion. A (user, task) pair can be credited once.
func (s *Store) CompleteTask(ctx context.Context, userID, taskID int64) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := completion{userID, taskID}
	if _, done := s.completed[key]; done {
		return nil, ErrTaskAlreadyCompleted
	}
	t, ok := s.tasks[taskID]
	if !ok {
		return nil, ErrTaskNotFound
	}
	u, ok := s.users[userID]
	if !ok {
		return nil, ErrUserNotFound
	}
	u.Points += t.Points
	s.completed[key] = s.now().UTC()
	return copyUser(u), nil
}

// --- withdrawals ---

// CreateWithdrawal records a withdrawal without touching the balance.
func (s *Store) CreateWithdrawal(ctx context.Context, in models.NewWithdrawal, status string) (*models.Withdrawal, error) {
	if !models.ValidWithdrawalStatus(status) {
		return nil, ErrInvalidStatus
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	w := s.insertWithdrawal(in, status)
	return copyWithdrawal(w), nil
}

// PlaceWithdrawal checks the balance, records a pending withdrawal and debits
// the points in one critical section, so concurrent requests cannot overdraw.
func (s *Store) PlaceWithdrawal(ctx context.Context, in models.NewWithdrawal) (*models.Withdrawal, *models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[in.UserID]
	if !ok {
		return nil, nil, ErrUserNotFound
	}
	if in.Amount <= 0 || u.Points < in.Amount {
		return nil, nil, ErrInsufficientPoints
	}
	w := s.insertWithdrawal(in, models.WithdrawalStatusPending)
	u.Points -= in.Amount
	return copyWithdrawal(w), copyUser(u), nil
}

func (s *Store) insertWithdrawal(in models.NewWithdrawal, status string) *models.Withdrawal {
	s.nextWithdrawalID++
	w := &models.Withdrawal{
		ID:             s.nextWithdrawalID,
		UserID:         in.UserID,
		Amount:         in.Amount,
		Status:         status,
		Method:         in.Method,
		PaymentDetails: in.PaymentDetails,
		PayoutINR:      in.PayoutINR,
		FeeINR:         in.FeeINR,
		CreatedAt:      s.now().UTC(),
	}
	s.withdrawals[w.ID] = w
	return w
}

// GetWithdrawals lists a user's withdrawals in creation order.
func (s *Store) GetWithdrawals(ctx context.Context, userID int64) ([]*models.Withdrawal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Withdrawal, 0)
	for _, w := range s.withdrawals {
		if w.UserID == userID {
			out = append(out, copyWithdrawal(w))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// UpdateWithdrawalStatus moves a pending withdrawal to approved or rejected.
// Rejecting a withdrawal returns its points to the owner.
func (s *Store) UpdateWithdrawalStatus(ctx context.Context, id int64, status string) (*models.Withdrawal, error) {
	if !models.ValidWithdrawalStatus(status) {
		return nil, ErrInvalidStatus
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.withdrawals[id]
	if !ok {
		return nil, ErrWithdrawalNotFound
	}
	if w.Status != models.WithdrawalStatusPending || status == models.WithdrawalStatusPending {
		return nil, ErrInvalidTransition
	}
	if status == models.WithdrawalStatusRejected {
		if u, ok := s.users[w.UserID]; ok {
			u.Points += w.Amount
		}
	}
	w.Status = status
	return copyWithdrawal(w), nil
}

// --- helpers ---

func (s *Store) userIDs() []int64 {
	ids := make([]int64, 0, len(s.users))
	for id := range s.users {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func copyUser(u *models.User) *models.User {
	cp := *u
	cp.Phone = clonePtr(u.Phone)
	cp.DateOfBirth = clonePtr(u.DateOfBirth)
	cp.Location = clonePtr(u.Location)
	cp.DeviceInfo = clonePtr(u.DeviceInfo)
	cp.UpiID = clonePtr(u.UpiID)
	cp.BankAccount = clonePtr(u.BankAccount)
	cp.IfscCode = clonePtr(u.IfscCode)
	return &cp
}

func copyWithdrawal(w *models.Withdrawal) *models.Withdrawal {
	cp := *w
	cp.PaymentID = clonePtr(w.PaymentID)
	return &cp
}

func clonePtr(p *string) *string {
	if p == nil {
		return nil
	}
	return strPtr(*p)
}

func strPtr(s string) *string { return &s }
