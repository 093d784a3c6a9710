// Package memory keeps every repository in process memory. It backs local
// runs without DATABASE_URL and the HTTP end-to-end tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"go-jobboard-backend/internal/domain"
)

// Store is the shared state behind the repositories.
type Store struct {
	mu           sync.RWMutex
	now          func() time.Time
	nextUser     int64
	nextJob      int64
	nextApp      int64
	users        map[int64]domain.User
	jobs         map[int64]domain.Job
	applications map[int64]domain.Application
	profiles     map[int64]domain.Profile
}

func NewStore() *Store {
	return &Store{
		now:          time.Now,
		users:        map[int64]domain.User{},
		jobs:         map[int64]domain.Job{},
		applications: map[int64]domain.Application{},
		profiles:     map[int64]domain.Profile{},
	}
}

func (s *Store) Users() domain.UserRepository               { return &userRepo{s} }
func (s *Store) Jobs() domain.JobRepository                 { return &jobRepo{s} }
func (s *Store) Applications() domain.ApplicationRepository { return &applicationRepo{s} }
func (s *Store) Profiles() domain.ProfileRepository         { return &profileRepo{s} }

type userRepo struct{ s *Store }

func (r *userRepo) Create(_ context.Context, user *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if strings.EqualFold(u.Email, user.Email) {
			return domain.ErrDuplicate
		}
	}
	r.s.nextUser++
	user.ID = r.s.nextUser
	user.CreatedAt = r.s.now()
	r.s.users[user.ID] = *user
	return nil
}

func (r *userRepo) GetByID(_ context.Context, id int64) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &u, nil
}

func (r *userRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, u := range r.s.users {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, domain.ErrNotFound
}

type jobRepo struct{ s *Store }

func cloneJob(j domain.Job) domain.Job {
	qs := make([]domain.Question, len(j.RequirementsSchema.Questions))
	copy(qs, j.RequirementsSchema.Questions)
	j.RequirementsSchema.Questions = qs
	return j
}

func (r *jobRepo) Create(_ context.Context, job *domain.Job) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	owner, ok := r.s.users[job.Recruiter]
	if !ok {
		return domain.ErrNotFound
	}
	r.s.nextJob++
	job.ID = r.s.nextJob
	job.CreatedAt = r.s.now()
	job.RecruiterEmail = owner.Email
	r.s.jobs[job.ID] = cloneJob(*job)
	return nil
}

func (r *jobRepo) GetByID(_ context.Context, id int64) (*domain.Job, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	j, ok := r.s.jobs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	j = cloneJob(j)
	return &j, nil
}

func (r *jobRepo) List(_ context.Context, filter domain.JobFilter) ([]domain.Job, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	needle := strings.ToLower(strings.TrimSpace(filter.Search))
	out := []domain.Job{}
	for _, j := range r.s.jobs {
		if filter.RecruiterID != 0 && j.Recruiter != filter.RecruiterID {
			continue
		}
		if needle != "" &&
			!strings.Contains(strings.ToLower(j.Title), needle) &&
			!strings.Contains(strings.ToLower(j.Description), needle) &&
			!strings.Contains(strings.ToLower(j.Location), needle) {
			continue
		}
		out = append(out, cloneJob(j))
	}
	sort.Slice(out, func(a, b int) bool {
		if out[a].CreatedAt.Equal(out[b].CreatedAt) {
			return out[a].ID > out[b].ID
		}
		return out[a].CreatedAt.After(out[b].CreatedAt)
	})
	return out, nil
}

func (r *jobRepo) Update(_ context.Context, job *domain.Job) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.jobs[job.ID]; !ok {
		return domain.ErrNotFound
	}
	r.s.jobs[job.ID] = cloneJob(*job)
	return nil
}

func (r *jobRepo) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.jobs[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.s.jobs, id)
	// applications cascade with their job
	for appID, a := range r.s.applications {
		if a.Job == id {
			delete(r.s.applications, appID)
		}
	}
	return nil
}

type applicationRepo struct{ s *Store }

// hydrate fills the joined fields. Caller holds at least a read lock.
func (r *applicationRepo) hydrate(a domain.Application) domain.Application {
	responses := make(map[string]string, len(a.Responses))
	for k, v := range a.Responses {
		responses[k] = v
	}
	a.Responses = responses
	a.JobTitle = r.s.jobs[a.Job].Title
	applicant := r.s.users[a.Applicant]
	a.ApplicantEmail = applicant.Email
	a.ResumeURL = nil
	a.ApplicantDetails = nil
	if p, ok := r.s.profiles[a.Applicant]; ok {
		p = cloneProfile(p)
		a.ResumeURL = p.Resume
		a.ApplicantDetails = &domain.ApplicantDetails{
			FirstName:      applicant.FirstName,
			LastName:       applicant.LastName,
			Skills:         p.Skills,
			Experience:     p.Experience,
			Education:      p.Education,
			Certifications: p.Certifications,
			ProfilePicture: p.ProfilePicture,
		}
	}
	return a
}

func (r *applicationRepo) Create(_ context.Context, app *domain.Application) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.jobs[app.Job]; !ok {
		return domain.ErrNotFound
	}
	for _, a := range r.s.applications {
		if a.Job == app.Job && a.Applicant == app.Applicant {
			return domain.ErrDuplicate
		}
	}
	r.s.nextApp++
	app.ID = r.s.nextApp
	app.CreatedAt = r.s.now()
	stored := *app
	stored.Responses = make(map[string]string, len(app.Responses))
	for k, v := range app.Responses {
		stored.Responses[k] = v
	}
	r.s.applications[app.ID] = stored
	*app = r.hydrate(stored)
	return nil
}

func (r *applicationRepo) GetByID(_ context.Context, id int64) (*domain.Application, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	a, ok := r.s.applications[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	a = r.hydrate(a)
	return &a, nil
}

func (r *applicationRepo) List(_ context.Context, filter domain.ApplicationFilter) ([]domain.Application, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := []domain.Application{}
	for _, a := range r.s.applications {
		if filter.RecruiterID != 0 && r.s.jobs[a.Job].Recruiter != filter.RecruiterID {
			continue
		}
		if filter.ApplicantID != 0 && a.Applicant != filter.ApplicantID {
			continue
		}
		if filter.JobID != 0 && a.Job != filter.JobID {
			continue
		}
		out = append(out, r.hydrate(a))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r *applicationRepo) UpdateStatus(_ context.Context, id int64, from, to domain.ApplicationStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.applications[id]
	if !ok {
		return domain.ErrNotFound
	}
	if a.Status != from {
		return domain.ErrInvalidTransition
	}
	a.Status = to
	r.s.applications[id] = a
	return nil
}

type profileRepo struct{ s *Store }

func cloneProfile(p domain.Profile) domain.Profile {
	p.Skills = append([]string{}, p.Skills...)
	p.Experience = append([]domain.Experience{}, p.Experience...)
	p.Education = append([]domain.Education{}, p.Education...)
	p.Certifications = append([]domain.Certification{}, p.Certifications...)
	return p
}

func (r *profileRepo) GetOrCreate(_ context.Context, userID int64) (*domain.Profile, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[userID]; !ok {
		return nil, domain.ErrNotFound
	}
	p, ok := r.s.profiles[userID]
	if !ok {
		p = domain.Profile{UserID: userID}
		p.Normalize()
		r.s.profiles[userID] = p
	}
	p = cloneProfile(p)
	return &p, nil
}

func (r *profileRepo) UpdateLists(_ context.Context, p *domain.Profile) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[p.UserID]; !ok {
		return domain.ErrNotFound
	}
	lists := cloneProfile(*p)
	stored := r.s.profiles[p.UserID]
	stored.UserID = p.UserID
	stored.Skills = lists.Skills
	stored.Experience = lists.Experience
	stored.Education = lists.Education
	stored.Certifications = lists.Certifications
	r.s.profiles[p.UserID] = stored
	return nil
}

func (r *profileRepo) SetFile(_ context.Context, userID int64, slot domain.FileSlot, value string) (*string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[userID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	p, ok := r.s.profiles[userID]
	if !ok {
		return nil, domain.ErrNotFound
	}

	v := value
	var previous *string
	switch slot {
	case domain.SlotResume:
		previous, p.Resume = p.Resume, &v
	case domain.SlotProfilePicture:
		previous, p.ProfilePicture = p.ProfilePicture, &v
		picture := value
		u.ProfilePicture = &picture
		r.s.users[userID] = u
	default:
		return nil, fmt.Errorf("set profile file: unknown slot %q", slot)
	}
	r.s.profiles[userID] = p
	return previous, nil
}
