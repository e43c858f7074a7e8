package patient

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/clinic/clinic/internal/platform/auth"
)

// Patient ids are drawn uniformly from this inclusive range.
const (
	MinID = 1200
	MaxID = 1900
)

var validGenders = map[string]bool{"Male": true, "Female": true, "Other": true}

// registerAttempts bounds how often Register draws a new id after losing a
// race for the previous one.
const registerAttempts = 10

type Service struct {
	repo Repository

	mu  sync.Mutex // guards rng
	rng *rand.Rand
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, rng: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

// Register validates the form, assigns a random unused id and stores the
// patient with an empty medical history.
func (s *Service) Register(ctx context.Context, req *RegisterRequest) (*Patient, error) {
	p := &Patient{
		Name:       strings.TrimSpace(req.Name),
		Age:        req.Age,
		Gender:     strings.TrimSpace(req.Gender),
		BloodGroup: strings.TrimSpace(req.BloodGroup),
		Contact:    strings.TrimSpace(req.Contact),
		City:       strings.TrimSpace(req.City),
	}
	if p.Name == "" {
		return nil, fmt.Errorf("name is required")
	}
	if p.Contact == "" {
		return nil, fmt.Errorf("contact is required")
	}
	if p.Age < 0 || p.Age > 130 {
		return nil, fmt.Errorf("age must be between 0 and 130")
	}
	if p.Gender != "" && !validGenders[p.Gender] {
		return nil, fmt.Errorf("gender must be Male, Female or Other")
	}

	// A concurrent registration may claim the same id between the lookup and
	// the insert; the repository rejects that and we draw again.
	for attempt := 0; attempt < registerAttempts; attempt++ {
		id, err := s.nextID(ctx)
		if err != nil {
			return nil, err
		}
		p.PatientID = id
		err = s.repo.Create(ctx, p)
		if errors.Is(err, ErrDuplicateID) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return p, nil
	}
	return nil, fmt.Errorf("could not allocate a patient id")
}

func (s *Service) nextID(ctx context.Context) (string, error) {
	used, err := s.repo.IDs(ctx)
	if err != nil {
		return "", err
	}
	var free []int
	for id := MinID; id <= MaxID; id++ {
		if !used[strconv.Itoa(id)] {
			free = append(free, id)
		}
	}
	if len(free) == 0 {
		return "", ErrIDsExhausted
	}
	s.mu.Lock()
	i := s.rng.Intn(len(free))
	s.mu.Unlock()
	return strconv.Itoa(free[i]), nil
}

// Authenticate implements auth.PatientAuthenticator: identifier is a patient
// id or a case-insensitive name, contact must match exactly.
func (s *Service) Authenticate(ctx context.Context, identifier, contact string) (*auth.Principal, error) {
	identifier = NormalizeID(identifier)
	if identifier == "" || contact == "" {
		return nil, auth.ErrInvalidCredentials
	}
	p, err := s.repo.FindByLogin(ctx, identifier, contact)
	if errors.Is(err, ErrNotFound) {
		return nil, auth.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	return &auth.Principal{Subject: p.PatientID, Name: p.Name, PatientID: p.PatientID}, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Patient, error) {
	id = NormalizeID(id)
	if id == "" {
		return nil, ErrNotFound
	}
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]*Patient, int, error) {
	return s.repo.List(ctx, limit, offset)
}

func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	return s.repo.Stats(ctx)
}
