package usecase_test

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"
	"testing"

	"go-jobboard-backend/internal/domain"
	"go-jobboard-backend/internal/repository/memory"
	"go-jobboard-backend/internal/usecase"
	"go-jobboard-backend/pkg/security/antivirus"
	"go-jobboard-backend/pkg/security/securitytest"
	"go-jobboard-backend/pkg/storage"
	"go-jobboard-backend/pkg/validation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeScanner struct {
	infected bool
}

func (s fakeScanner) Scan(_ context.Context, _ string, _ []byte) antivirus.ScanResult {
	if s.infected {
		return antivirus.ScanResult{Infected: true, ThreatName: "Eicar-Test-Signature", ScannerName: "fake"}
	}
	return antivirus.ScanResult{ScannerName: "fake"}
}

func (fakeScanner) Name() string { return "fake" }

type profileFixture struct {
	db    *memory.Store
	store *storage.LocalStore
	uc    domain.ProfileUsecase
	actor domain.Actor
}

func newProfileFixture(t *testing.T, scanner antivirus.Scanner) *profileFixture {
	t.Helper()
	db := memory.NewStore()
	user := &domain.User{Email: "dev@mail.io", Role: domain.RoleSeeker}
	require.NoError(t, db.Users().Create(context.Background(), user))

	store, err := storage.NewLocalStore(t.TempDir())
	require.NoError(t, err)
	return &profileFixture{
		db:    db,
		store: store,
		uc:    usecase.NewProfileUsecase(db.Profiles(), store, scanner, 1<<20, validation.New()),
		actor: domain.Actor{ID: user.ID, Role: domain.RoleSeeker},
	}
}

func TestProfile_SkillsRoundTripInOrder(t *testing.T) {
	ctx := context.Background()
	f := newProfileFixture(t, nil)

	skills := []string{"go", "postgres", "kubernetes", "grpc"}
	_, err := f.uc.UpdateProfile(ctx, f.actor, &domain.ProfilePatch{Skills: &skills})
	require.NoError(t, err)

	got, err := f.uc.GetProfile(ctx, f.actor)
	require.NoError(t, err)
	assert.Equal(t, skills, got.Skills)
	assert.NotNil(t, got.Experience)
	assert.Empty(t, got.Experience)
}

func TestProfile_RejectsBlankSubRecordFields(t *testing.T) {
	ctx := context.Background()
	f := newProfileFixture(t, nil)

	exp := []domain.Experience{{Title: "Dev", Company: " ", Dates: "2020", Description: "x"}}
	_, err := f.uc.UpdateProfile(ctx, f.actor, &domain.ProfilePatch{Experience: &exp})
	assertCode(t, err, http.StatusBadRequest)
	assert.Contains(t, err.Error(), "Company: This field may not be blank")
}

func TestProfile_ForbidsRecruiters(t *testing.T) {
	f := newProfileFixture(t, nil)
	_, err := f.uc.GetProfile(context.Background(), domain.Actor{ID: f.actor.ID, Role: domain.RoleHR})
	assertCode(t, err, http.StatusForbidden)
}

func TestProfile_UploadResumeReplacesOldFile(t *testing.T) {
	ctx := context.Background()
	f := newProfileFixture(t, fakeScanner{})
	pdf := securitytest.MinimalPDF()

	first, err := f.uc.UploadFile(ctx, f.actor, &domain.Upload{Slot: domain.SlotResume, Filename: "cv.pdf", Body: bytes.NewReader(pdf)})
	require.NoError(t, err)
	require.NotNil(t, first.Resume)
	firstKey := *first.Resume
	assert.True(t, strings.HasPrefix(firstKey, "resumes/"))

	second, err := f.uc.UploadFile(ctx, f.actor, &domain.Upload{Slot: domain.SlotResume, Filename: "cv-2024.pdf", Body: bytes.NewReader(pdf)})
	require.NoError(t, err)
	assert.NotEqual(t, firstKey, *second.Resume)
	assert.Nil(t, second.ProfilePicture, "only the uploaded slot changes")

	_, err = f.store.Open(ctx, firstKey)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	rc, err := f.store.Open(ctx, *second.Resume)
	require.NoError(t, err)
	defer rc.Close()
	stored, _ := io.ReadAll(rc)
	assert.Equal(t, pdf, stored)
}

func TestProfile_UploadRejections(t *testing.T) {
	ctx := context.Background()

	t.Run("image posing as resume", func(t *testing.T) {
		f := newProfileFixture(t, nil)
		_, err := f.uc.UploadFile(ctx, f.actor, &domain.Upload{Slot: domain.SlotResume, Filename: "cv.pdf", Body: bytes.NewReader(securitytest.PNG(4, 4))})
		assertCode(t, err, http.StatusBadRequest)
	})

	t.Run("infected resume", func(t *testing.T) {
		f := newProfileFixture(t, fakeScanner{infected: true})
		_, err := f.uc.UploadFile(ctx, f.actor, &domain.Upload{Slot: domain.SlotResume, Filename: "cv.pdf", Body: bytes.NewReader(securitytest.MinimalPDF())})
		assertCode(t, err, http.StatusBadRequest)
		assert.Contains(t, err.Error(), "malware")
	})

	t.Run("too large", func(t *testing.T) {
		f := newProfileFixture(t, nil)
		big := bytes.Repeat([]byte("a"), (1<<20)+1)
		_, err := f.uc.UploadFile(ctx, f.actor, &domain.Upload{Slot: domain.SlotResume, Filename: "cv.pdf", Body: bytes.NewReader(big)})
		assertCode(t, err, http.StatusBadRequest)
		assert.Contains(t, err.Error(), "File too large")
	})
}

func TestProfile_UploadPictureIsReencodedAndPublic(t *testing.T) {
	ctx := context.Background()
	f := newProfileFixture(t, nil)

	p, err := f.uc.UploadFile(ctx, f.actor, &domain.Upload{
		Slot:     domain.SlotProfilePicture,
		Filename: "me.png",
		Body:     bytes.NewReader(securitytest.PNG(1200, 800)),
	})
	require.NoError(t, err)
	require.NotNil(t, p.ProfilePicture)
	assert.True(t, strings.HasPrefix(*p.ProfilePicture, "/media/profile_pics/"))
	assert.True(t, strings.HasSuffix(*p.ProfilePicture, "_me.jpg"))

	user, err := f.db.Users().GetByID(ctx, f.actor.ID)
	require.NoError(t, err)
	assert.Equal(t, p.ProfilePicture, user.ProfilePicture)

	rc, err := f.store.Open(ctx, storage.KeyFromURL(*p.ProfilePicture))
	require.NoError(t, err)
	defer rc.Close()
	head := make([]byte, 3)
	_, err = io.ReadFull(rc, head)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xFF, 0xD8, 0xFF}, head)
}

func TestProfile_UploadDoesNotRevertListsSavedMeanwhile(t *testing.T) {
	ctx := context.Background()
	f := newProfileFixture(t, nil)
	pdf := securitytest.MinimalPDF()

	body, w := io.Pipe()
	type outcome struct {
		profile *domain.Profile
		err     error
	}
	done := make(chan outcome, 1)
	go func() {
		p, err := f.uc.UploadFile(ctx, f.actor, &domain.Upload{Slot: domain.SlotResume, Filename: "cv.pdf", Body: body})
		done <- outcome{p, err}
	}()

	// The first write returns once the upload is reading its body.
	_, err := w.Write(pdf[:4])
	require.NoError(t, err)

	skills := []string{"go", "sql"}
	_, err = f.uc.UpdateProfile(ctx, f.actor, &domain.ProfilePatch{Skills: &skills})
	require.NoError(t, err)

	_, err = w.Write(pdf[4:])
	require.NoError(t, err)
	require.NoError(t, w.Close())

	res := <-done
	require.NoError(t, res.err)
	require.NotNil(t, res.profile.Resume)
	assert.Equal(t, skills, res.profile.Skills)

	got, err := f.uc.GetProfile(ctx, f.actor)
	require.NoError(t, err)
	assert.Equal(t, skills, got.Skills)
	assert.Equal(t, res.profile.Resume, got.Resume)
}

func TestProfile_EachUploadTouchesOnlyItsSlot(t *testing.T) {
	ctx := context.Background()
	f := newProfileFixture(t, nil)

	withResume, err := f.uc.UploadFile(ctx, f.actor, &domain.Upload{Slot: domain.SlotResume, Filename: "cv.pdf", Body: bytes.NewReader(securitytest.MinimalPDF())})
	require.NoError(t, err)
	resume := *withResume.Resume

	skills := []string{"rust"}
	_, err = f.uc.UpdateProfile(ctx, f.actor, &domain.ProfilePatch{Skills: &skills})
	require.NoError(t, err)

	withPicture, err := f.uc.UploadFile(ctx, f.actor, &domain.Upload{Slot: domain.SlotProfilePicture, Filename: "me.png", Body: bytes.NewReader(securitytest.PNG(8, 8))})
	require.NoError(t, err)
	require.NotNil(t, withPicture.Resume)
	assert.Equal(t, resume, *withPicture.Resume)
	assert.Equal(t, skills, withPicture.Skills)

	rc, err := f.store.Open(ctx, resume)
	require.NoError(t, err, "the resume object must survive a picture upload")
	rc.Close()

	user, err := f.db.Users().GetByID(ctx, f.actor.ID)
	require.NoError(t, err)
	assert.Equal(t, withPicture.ProfilePicture, user.ProfilePicture)
}
