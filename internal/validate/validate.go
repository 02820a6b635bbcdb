// Package validate admits candidate uploads before any remote write.
//
// Validation is pure: it never touches storage and performs no I/O.
package validate

import (
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"github.com/albertomaydayjhondoe/porterias/internal/common"
	"github.com/albertomaydayjhondoe/porterias/internal/models"
)

const (
	// MaxUploadSize is the largest accepted upload, inclusive.
	MaxUploadSize int64 = 50 * 1024 * 1024

	// MaxTitleLength is measured in runes.
	MaxTitleLength = 200
)

// AllowedTypes maps each accepted declared content type to its media kind.
var AllowedTypes = map[string]models.MediaKind{
	"image/jpeg": models.MediaImage,
	"image/jpg":  models.MediaImage,
	"image/png":  models.MediaImage,
	"image/gif":  models.MediaImage,
	"image/webp": models.MediaImage,
	"video/mp4":  models.MediaVideo,
	"video/webm": models.MediaVideo,
	"video/ogg":  models.MediaVideo,
}

var datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		_ = validate.RegisterValidation("pubdate", func(fl validator.FieldLevel) bool {
			return datePattern.MatchString(fl.Field().String())
		})
	})
	return validate
}

// Validate checks an upload and its metadata and returns the admitted draft.
//
// Checks run in order: declared content type, size, sniffed content, publish
// date. The title is trimmed and cut to MaxTitleLength runes; it never causes
// a rejection.
func Validate(upload models.Upload, title, publishDate string) (models.Draft, error) {
	declared := normalizeType(upload.ContentType)
	kind, ok := AllowedTypes[declared]
	if !ok {
		return models.Draft{}, common.NewValidationError(common.ReasonUnsupportedType,
			fmt.Sprintf("content type %q is not accepted", upload.ContentType))
	}

	if upload.Size > MaxUploadSize {
		return models.Draft{}, common.NewValidationError(common.ReasonTooLarge,
			fmt.Sprintf("%d bytes exceeds the %d byte limit", upload.Size, MaxUploadSize))
	}

	if err := checkContent(upload, kind); err != nil {
		return models.Draft{}, err
	}

	if !datePattern.MatchString(publishDate) {
		return models.Draft{}, common.NewValidationError(common.ReasonInvalidDate,
			fmt.Sprintf("%q is not YYYY-MM-DD", publishDate))
	}

	draft := models.Draft{
		Title:       NormalizeTitle(title),
		PublishDate: publishDate,
		MediaKind:   kind,
	}
	if err := CheckDraft(draft); err != nil {
		return models.Draft{}, err
	}
	return draft, nil
}

// CheckDraft runs the struct rules declared on models.Draft.
func CheckDraft(d models.Draft) error {
	err := getValidator().Struct(d)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return common.NewValidationError(common.ReasonInvalidEntry, err.Error())
	}
	fe := fieldErrs[0]
	reason := common.ReasonInvalidEntry
	if fe.Field() == "PublishDate" {
		reason = common.ReasonInvalidDate
	}
	return common.NewValidationError(reason, fmt.Sprintf("%s failed %q", fe.Field(), fe.Tag()))
}

// NormalizeTitle trims surrounding space and keeps at most MaxTitleLength runes.
func NormalizeTitle(title string) string {
	title = strings.TrimSpace(title)
	if utf8.RuneCountInString(title) <= MaxTitleLength {
		return title
	}
	return string([]rune(title)[:MaxTitleLength])
}

func normalizeType(ct string) string {
	ct, _, _ = strings.Cut(ct, ";")
	return strings.ToLower(strings.TrimSpace(ct))
}

// checkContent compares the sniffed type of the payload with the declared
// kind. Uploads that carry only a size are not sniffed.
func checkContent(upload models.Upload, kind models.MediaKind) error {
	if len(upload.Data) == 0 {
		if upload.Size == 0 {
			return common.NewValidationError(common.ReasonUnsupportedType, "file is empty")
		}
		return nil
	}

	sniffed := normalizeType(http.DetectContentType(upload.Data))
	if sniffedKind(sniffed) != kind {
		return common.NewValidationError(common.ReasonUnsupportedType,
			fmt.Sprintf("content looks like %s, declared %s", sniffed, upload.ContentType))
	}
	return nil
}

func sniffedKind(sniffed string) models.MediaKind {
	switch {
	case strings.HasPrefix(sniffed, "image/"):
		return models.MediaImage
	case strings.HasPrefix(sniffed, "video/"), sniffed == "application/ogg":
		return models.MediaVideo
	default:
		return ""
	}
}
