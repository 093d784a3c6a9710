package domain

import (
	"context"
	"io"
)

type Experience struct {
	Title       string `json:"title" validate:"required,no_blank"`
	Company     string `json:"company" validate:"required,no_blank"`
	Dates       string `json:"dates" validate:"required,no_blank"`
	Description string `json:"description" validate:"required,no_blank"`
}

type Education struct {
	Degree      string `json:"degree" validate:"required,no_blank"`
	Institution string `json:"institution" validate:"required,no_blank"`
	Year        string `json:"year" validate:"required,no_blank"`
}

type Certification struct {
	Name   string `json:"name" validate:"required,no_blank"`
	Issuer string `json:"issuer" validate:"required,no_blank"`
	Year   string `json:"year" validate:"required,no_blank"`
}

type Profile struct {
	UserID         int64           `json:"-"`
	ProfilePicture *string         `json:"profile_picture"`
	Resume         *string         `json:"resume"`
	Skills         []string        `json:"skills"`
	Experience     []Experience    `json:"experience"`
	Education      []Education     `json:"education"`
	Certifications []Certification `json:"certifications"`
}

// Normalize replaces nil lists with empty ones so they serialize as [].
func (p *Profile) Normalize() {
	if p.Skills == nil {
		p.Skills = []string{}
	}
	if p.Experience == nil {
		p.Experience = []Experience{}
	}
	if p.Education == nil {
		p.Education = []Education{}
	}
	if p.Certifications == nil {
		p.Certifications = []Certification{}
	}
}

// ProfilePatch replaces every non-nil list wholesale.
type ProfilePatch struct {
	Skills         *[]string        `json:"skills" validate:"omitempty,dive,required,no_blank"`
	Experience     *[]Experience    `json:"experience" validate:"omitempty,dive"`
	Education      *[]Education     `json:"education" validate:"omitempty,dive"`
	Certifications *[]Certification `json:"certifications" validate:"omitempty,dive"`
}

// FileSlot names the single file field an upload replaces.
type FileSlot string

const (
	SlotResume         FileSlot = "resume"
	SlotProfilePicture FileSlot = "profile_picture"
)

type Upload struct {
	Slot     FileSlot
	Filename string
	Size     int64
	Body     io.Reader
}

type ProfileRepository interface {
	GetOrCreate(ctx context.Context, userID int64) (*Profile, error)
	// UpdateLists writes skills, experience, education and certifications.
	// File slots are left untouched.
	UpdateLists(ctx context.Context, profile *Profile) error
	// SetFile points one slot at value and returns what it held before.
	// The profile picture is mirrored onto the user row in the same write.
	SetFile(ctx context.Context, userID int64, slot FileSlot, value string) (*string, error)
}

type ProfileUsecase interface {
	GetProfile(ctx context.Context, actor Actor) (*Profile, error)
	UpdateProfile(ctx context.Context, actor Actor, patch *ProfilePatch) (*Profile, error)
	UploadFile(ctx context.Context, actor Actor, upload *Upload) (*Profile, error)
}
