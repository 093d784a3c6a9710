package usecase

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"go-jobboard-backend/internal/domain"
	"go-jobboard-backend/pkg/apperror"
	"go-jobboard-backend/pkg/imaging"
	"go-jobboard-backend/pkg/logger"
	"go-jobboard-backend/pkg/security"
	"go-jobboard-backend/pkg/security/antivirus"
	"go-jobboard-backend/pkg/storage"

	"github.com/go-playground/validator/v10"
)

const (
	resumeFolder  = "resumes"
	pictureFolder = "profile_pics"
)

type profileUsecase struct {
	profileRepo domain.ProfileRepository
	store       storage.ObjectStore
	scanner     antivirus.Scanner
	maxBytes    int64
	validate    *validator.Validate
}

// NewProfileUsecase creates the seeker profile usecase. Uploads larger than
// maxBytes are rejected.
func NewProfileUsecase(
	profileRepo domain.ProfileRepository,
	store storage.ObjectStore,
	scanner antivirus.Scanner,
	maxBytes int64,
	validate *validator.Validate,
) domain.ProfileUsecase {
	if scanner == nil {
		scanner = antivirus.NoOpScanner{}
	}
	return &profileUsecase{
		profileRepo: profileRepo,
		store:       store,
		scanner:     scanner,
		maxBytes:    maxBytes,
		validate:    validate,
	}
}

func (u *profileUsecase) load(ctx context.Context, actor domain.Actor) (*domain.Profile, error) {
	if actor.Role != domain.RoleSeeker {
		return nil, apperror.Forbidden("Only job seekers have a profile")
	}
	profile, err := u.profileRepo.GetOrCreate(ctx, actor.ID)
	if err != nil {
		return nil, notFoundOr(err, "User not found")
	}
	profile.Normalize()
	return profile, nil
}

func (u *profileUsecase) GetProfile(ctx context.Context, actor domain.Actor) (*domain.Profile, error) {
	return u.load(ctx, actor)
}

// UpdateProfile replaces every list present in patch. Concurrent editors
// overwrite each other's lists; the last write wins. File slots are never
// written here.
func (u *profileUsecase) UpdateProfile(ctx context.Context, actor domain.Actor, patch *domain.ProfilePatch) (*domain.Profile, error) {
	profile, err := u.load(ctx, actor)
	if err != nil {
		return nil, err
	}
	if err := u.validate.Struct(patch); err != nil {
		return nil, invalidInput(err)
	}

	if patch.Skills != nil {
		skills := make([]string, 0, len(*patch.Skills))
		for _, s := range *patch.Skills {
			skills = append(skills, strings.TrimSpace(s))
		}
		profile.Skills = skills
	}
	if patch.Experience != nil {
		profile.Experience = *patch.Experience
	}
	if patch.Education != nil {
		profile.Education = *patch.Education
	}
	if patch.Certifications != nil {
		profile.Certifications = *patch.Certifications
	}
	profile.Normalize()

	if err := u.profileRepo.UpdateLists(ctx, profile); err != nil {
		return nil, notFoundOr(err, "User not found")
	}
	return u.load(ctx, actor)
}

// UploadFile validates and stores one file, then points that profile slot at
// it. Only the uploaded slot is written. The replaced object is removed
// afterwards.
func (u *profileUsecase) UploadFile(ctx context.Context, actor domain.Actor, upload *domain.Upload) (*domain.Profile, error) {
	if _, err := u.load(ctx, actor); err != nil {
		return nil, err
	}

	data, err := io.ReadAll(io.LimitReader(upload.Body, u.maxBytes+1))
	if err != nil {
		return nil, apperror.BadRequest("Failed to read uploaded file")
	}
	if int64(len(data)) > u.maxBytes {
		return nil, apperror.BadRequest(fmt.Sprintf("File too large. Maximum size is %d MB.", u.maxBytes>>20))
	}
	if len(data) == 0 {
		return nil, apperror.BadRequest("The submitted file is empty.")
	}

	userID := strconv.FormatInt(actor.ID, 10)
	var newKey, value string

	switch upload.Slot {
	case domain.SlotResume:
		newKey, err = u.storeResume(ctx, userID, upload.Filename, data)
		value = newKey
	case domain.SlotProfilePicture:
		newKey, err = u.storePicture(ctx, userID, upload.Filename, data)
		value = storage.PublicURL(newKey)
	default:
		return nil, apperror.BadRequest("Unknown file field: " + string(upload.Slot))
	}
	if err != nil {
		return nil, err
	}

	previous, err := u.profileRepo.SetFile(ctx, actor.ID, upload.Slot, value)
	if err != nil {
		u.remove(ctx, newKey)
		return nil, notFoundOr(err, "User not found")
	}
	if previous != nil && *previous != "" {
		oldKey := *previous
		if upload.Slot == domain.SlotProfilePicture {
			oldKey = storage.KeyFromURL(oldKey)
		}
		if oldKey != "" && oldKey != newKey {
			u.remove(ctx, oldKey)
		}
	}

	logger.Log.Info("profile file uploaded", "user_id", actor.ID, "slot", upload.Slot, "size", len(data))
	return u.load(ctx, actor)
}

func (u *profileUsecase) storeResume(ctx context.Context, userID, filename string, data []byte) (string, error) {
	result := security.ValidateFile(security.KindResume, filename, data)
	if !result.Valid {
		security.DefaultLogger().LogUploadRejected(ctx, userID, filename, result.Error)
		return "", apperror.BadRequest("Invalid resume file: " + result.Error)
	}

	scan := u.scanner.Scan(ctx, filename, data)
	if scan.Error != nil {
		logger.Log.Error("antivirus scan failed", "scanner", scan.ScannerName, "error", scan.Error)
		security.DefaultLogger().LogUploadRejected(ctx, userID, filename, "scan_failed")
		return "", apperror.New(http.StatusServiceUnavailable, "File could not be scanned. Please try again later.", scan.Error)
	}
	if scan.Infected {
		security.DefaultLogger().LogUploadRejected(ctx, userID, filename, "malware:"+scan.ThreatName)
		return "", apperror.BadRequest("File rejected: malware detected")
	}

	key, err := storage.NewKey(resumeFolder, filename)
	if err != nil {
		return "", apperror.BadRequest("Invalid file name")
	}
	if _, err := u.store.Put(ctx, key, result.DetectedMIME, bytes.NewReader(data)); err != nil {
		return "", apperror.Internal(err)
	}
	return key, nil
}

func (u *profileUsecase) storePicture(ctx context.Context, userID, filename string, data []byte) (string, error) {
	result := security.ValidateFile(security.KindImage, filename, data)
	if !result.Valid {
		security.DefaultLogger().LogUploadRejected(ctx, userID, filename, result.Error)
		return "", apperror.BadRequest("Invalid image file: " + result.Error)
	}

	jpg, err := imaging.CompressToJPEG(data, imaging.DefaultMaxDimension, imaging.DefaultQuality)
	if err != nil {
		security.DefaultLogger().LogUploadRejected(ctx, userID, filename, "undecodable_image")
		return "", apperror.BadRequest("Upload a valid image. The file you uploaded was either not an image or a corrupted image.")
	}

	name := strings.TrimSuffix(filename, filepath.Ext(filename)) + ".jpg"
	key, err := storage.NewKey(pictureFolder, name)
	if err != nil {
		return "", apperror.BadRequest("Invalid file name")
	}
	if _, err := u.store.Put(ctx, key, "image/jpeg", bytes.NewReader(jpg)); err != nil {
		return "", apperror.Internal(err)
	}
	return key, nil
}

func (u *profileUsecase) remove(ctx context.Context, key string) {
	if err := u.store.Delete(ctx, key); err != nil {
		logger.Log.Warn("failed to delete stored file", "key", key, "error", err)
	}
}
