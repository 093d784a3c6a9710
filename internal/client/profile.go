package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"go-jobboard-backend/internal/domain"
	"go-jobboard-backend/pkg/apperror"
	"go-jobboard-backend/pkg/validation"

	"github.com/go-playground/validator/v10"
)

const profilePath = "profiles/me/profile/"

// ProfileService edits the signed-in seeker's profile. Every list mutation
// reads the whole profile, changes one entry and writes the whole list back,
// so concurrent editors overwrite each other (last write wins).
type ProfileService struct {
	client   *Client
	validate *validator.Validate
}

func NewProfileService(c *Client) *ProfileService {
	return &ProfileService{client: c, validate: validation.New()}
}

func (s *ProfileService) Get(ctx context.Context) (*domain.Profile, error) {
	var p domain.Profile
	if err := s.client.doJSON(ctx, http.MethodGet, profilePath, nil, nil, &p); err != nil {
		return nil, err
	}
	p.Normalize()
	return &p, nil
}

// Save replaces every non-nil list of patch on the server.
func (s *ProfileService) Save(ctx context.Context, patch domain.ProfilePatch) (*domain.Profile, error) {
	if err := s.validate.Struct(patch); err != nil {
		return nil, invalid(validation.Message(err))
	}
	var p domain.Profile
	if err := s.client.doJSON(ctx, http.MethodPatch, profilePath, nil, patch, &p); err != nil {
		return nil, err
	}
	p.Normalize()
	return &p, nil
}

func (s *ProfileService) AddSkill(ctx context.Context, skill string) (*domain.Profile, error) {
	skill = strings.TrimSpace(skill)
	if skill == "" {
		return nil, invalid("Please enter a skill")
	}
	p, err := s.Get(ctx)
	if err != nil {
		return nil, err
	}
	skills := append(p.Skills, skill)
	return s.Save(ctx, domain.ProfilePatch{Skills: &skills})
}

func (s *ProfileService) RemoveSkill(ctx context.Context, index int) (*domain.Profile, error) {
	p, err := s.Get(ctx)
	if err != nil {
		return nil, err
	}
	skills, err := removeAt(p.Skills, index)
	if err != nil {
		return nil, err
	}
	return s.Save(ctx, domain.ProfilePatch{Skills: &skills})
}

func (s *ProfileService) AddExperience(ctx context.Context, e domain.Experience) (*domain.Profile, error) {
	if err := s.validate.Struct(e); err != nil {
		return nil, invalid("Please fill in all experience fields")
	}
	p, err := s.Get(ctx)
	if err != nil {
		return nil, err
	}
	list := append(p.Experience, e)
	return s.Save(ctx, domain.ProfilePatch{Experience: &list})
}

func (s *ProfileService) RemoveExperience(ctx context.Context, index int) (*domain.Profile, error) {
	p, err := s.Get(ctx)
	if err != nil {
		return nil, err
	}
	list, err := removeAt(p.Experience, index)
	if err != nil {
		return nil, err
	}
	return s.Save(ctx, domain.ProfilePatch{Experience: &list})
}

func (s *ProfileService) AddEducation(ctx context.Context, e domain.Education) (*domain.Profile, error) {
	if err := s.validate.Struct(e); err != nil {
		return nil, invalid("Please fill in all education fields")
	}
	p, err := s.Get(ctx)
	if err != nil {
		return nil, err
	}
	list := append(p.Education, e)
	return s.Save(ctx, domain.ProfilePatch{Education: &list})
}

func (s *ProfileService) RemoveEducation(ctx context.Context, index int) (*domain.Profile, error) {
	p, err := s.Get(ctx)
	if err != nil {
		return nil, err
	}
	list, err := removeAt(p.Education, index)
	if err != nil {
		return nil, err
	}
	return s.Save(ctx, domain.ProfilePatch{Education: &list})
}

func (s *ProfileService) AddCertification(ctx context.Context, c domain.Certification) (*domain.Profile, error) {
	if err := s.validate.Struct(c); err != nil {
		return nil, invalid("Please fill in all certification fields")
	}
	p, err := s.Get(ctx)
	if err != nil {
		return nil, err
	}
	list := append(p.Certifications, c)
	return s.Save(ctx, domain.ProfilePatch{Certifications: &list})
}

func (s *ProfileService) RemoveCertification(ctx context.Context, index int) (*domain.Profile, error) {
	p, err := s.Get(ctx)
	if err != nil {
		return nil, err
	}
	list, err := removeAt(p.Certifications, index)
	if err != nil {
		return nil, err
	}
	return s.Save(ctx, domain.ProfilePatch{Certifications: &list})
}

// UploadResume replaces the stored resume. Only the resume slot changes.
func (s *ProfileService) UploadResume(ctx context.Context, filename string, r io.Reader) (*domain.Profile, error) {
	return s.upload(ctx, domain.SlotResume, filename, r)
}

// UploadProfilePicture replaces the profile picture. The cached identity
// still shows the old picture until Session.RefreshIdentity is called.
func (s *ProfileService) UploadProfilePicture(ctx context.Context, filename string, r io.Reader) (*domain.Profile, error) {
	return s.upload(ctx, domain.SlotProfilePicture, filename, r)
}

func (s *ProfileService) upload(ctx context.Context, slot domain.FileSlot, filename string, r io.Reader) (*domain.Profile, error) {
	if strings.TrimSpace(filename) == "" || r == nil {
		return nil, invalid("A file is required")
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile(string(slot), filename)
	if err != nil {
		return nil, apperror.New(http.StatusBadRequest, "Invalid file", fmt.Errorf("%w: %w", ErrValidation, err))
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, apperror.New(http.StatusBadRequest, "Failed to read file", fmt.Errorf("%w: %w", ErrValidation, err))
	}
	if err := w.Close(); err != nil {
		return nil, apperror.New(http.StatusBadRequest, "Invalid file", fmt.Errorf("%w: %w", ErrValidation, err))
	}

	resp, err := s.client.send(ctx, http.MethodPatch, profilePath, nil, &buf, w.FormDataContentType())
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var p domain.Profile
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return nil, fromTransport(err)
	}
	p.Normalize()
	return &p, nil
}

func removeAt[T any](list []T, index int) ([]T, error) {
	if index < 0 || index >= len(list) {
		return nil, invalid("No entry at that position")
	}
	out := make([]T, 0, len(list)-1)
	out = append(out, list[:index]...)
	return append(out, list[index+1:]...), nil
}
